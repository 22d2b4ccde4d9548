package postgresengine

import (
	"github.com/querykit/composable-specifications-go/specification"
)

// Option defines a functional option for configuring a QueryEngine.
type Option func(*QueryEngine) error

// WithTableName sets the table the engine queries.
func WithTableName(tableName string) Option {
	return func(engine *QueryEngine) error {
		if tableName == "" {
			return ErrEmptyTableName
		}

		engine.tableName = tableName

		return nil
	}
}

// WithDocumentColumn sets the JSONB column holding the entity documents.
func WithDocumentColumn(columnName string) Option {
	return func(engine *QueryEngine) error {
		if columnName == "" {
			return ErrEmptyDocumentColumn
		}

		engine.docColumn = columnName

		return nil
	}
}

// WithLogger sets the logger for the QueryEngine.
//
// Debug level: SQL queries with execution timing (development use)
// Info level: result counts and durations (production-safe)
// Warn level: non-critical issues like cleanup failures
// Error level: critical failures that cause operation failures.
func WithLogger(logger Logger) Option {
	return func(engine *QueryEngine) error {
		engine.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the QueryEngine,
// enabling automatic trace/span correlation when tracing is configured.
func WithContextualLogger(logger ContextualLogger) Option {
	return func(engine *QueryEngine) error {
		engine.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the QueryEngine. The collector
// receives query durations, result counts, and database error counters.
func WithMetrics(collector MetricsCollector) Option {
	return func(engine *QueryEngine) error {
		engine.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the QueryEngine. The collector
// receives spans for query operations with context propagation.
func WithTracing(collector TracingCollector) Option {
	return func(engine *QueryEngine) error {
		engine.tracingCollector = collector
		return nil
	}
}

// WithRegistry replaces the engine's rewrite-rule registry. The default is a
// fresh registry preloaded with the Postgres rule set; supply your own to
// add rules or to share one registry across engines.
func WithRegistry(registry *specification.Registry) Option {
	return func(engine *QueryEngine) error {
		if registry == nil {
			return ErrNilRegistry
		}

		engine.registry = registry

		return nil
	}
}
