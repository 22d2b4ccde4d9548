// Package specification provides composable, reusable query specifications:
// filtering, sorting, projection, and relation-loading intent expressed as
// immutable predicate/selector trees instead of ad-hoc query logic at every
// call site.
//
// A specification works in two execution modes without rewriting the logic
// twice:
//   - handed to a backend query engine that translates its tree into the
//     backend's query language (see the postgresengine package)
//   - evaluated directly over already-materialized data via IsSatisfiedBy
//
// Deep field paths are null-guarded automatically: a selector like
// "dept.city" never dereferences an absent intermediate step, it degrades to
// false instead.
//
// Key types:
//   - Specification: the ToExpression/IsSatisfiedBy contract
//   - Expression: the immutable predicate tree nodes
//   - Sort, Include, Projection: the non-filter query intents
//   - Registry: backend-specific rewrite rules, keyed by backend code
//
// Common usage pattern:
//
//	inCity, err := specification.Equals[Reader]("dept.city", "Berlin")
//	if err != nil {
//		// handle error
//	}
//	senior, err := specification.GreaterThanOrEqual[Reader]("age", 65)
//	if err != nil {
//		// handle error
//	}
//	spec, err := specification.And(inCity, senior)
//	if err != nil {
//		// handle error
//	}
//
//	// local evaluation
//	matching := spec.IsSatisfiedBy(reader)
//
//	// translated execution
//	docs, err := engine.Query(ctx, postgresengine.Query{Filter: spec})
package specification
