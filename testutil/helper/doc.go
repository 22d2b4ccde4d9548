// Package helper provides testing utilities for specification and query engine tests.
//
// This package contains shared testing infrastructure including entity
// fixtures, custom log handlers for capturing and validating log output
// during tests, and spies for the query engine observability interfaces.
package helper
