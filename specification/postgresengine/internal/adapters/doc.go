// Package adapters provides database adapter implementations for the
// PostgreSQL query engine.
//
// This package implements the adapter pattern to support multiple PostgreSQL
// database libraries: pgxpool.Pool, sql.DB, and sqlx.DB. All adapters provide
// equivalent functionality through a common DBAdapter interface, and each one
// exposes a provider identity string that the backend resolver maps to a
// short backend code for rewrite-rule lookups.
package adapters
