// Package postgresengine executes specifications against PostgreSQL.
//
// This package translates predicate trees into SQL over a JSONB document
// column, supporting multiple database adapters (pgx, sql.DB, sqlx) and
// consulting the rewrite registry for backend-native replacements before
// translating.
//
// Key features:
//   - Multiple database adapter support (PGX, SQL, SQLX)
//   - Predicate-tree to SQL translation with typed JSONB path casts
//   - Sort and projection support on document fields
//   - Postgres rule set rewriting case-folded text matches to native ILIKE
//   - Configurable table/column names and dual-logger support
//
// Usage examples:
//
//	// Basic usage
//	db, _ := pgxpool.New(context.Background(), dsn)
//	engine, _ := postgresengine.NewEngineFromPGXPool(db)
//
//	// With a custom table and operational logging
//	engine, _ := postgresengine.NewEngineFromPGXPool(
//		db,
//		postgresengine.WithTableName("readers"),
//		postgresengine.WithLogger(opsLogger),
//	)
//
//	adults, _ := specification.GreaterThanOrEqual[Reader]("age", 18)
//	docs, _ := engine.Query(ctx, postgresengine.Query{Filter: adults})
//	total, _ := engine.Count(ctx, nil)
package postgresengine
