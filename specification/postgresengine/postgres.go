package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"

	"github.com/querykit/composable-specifications-go/specification"
	"github.com/querykit/composable-specifications-go/specification/postgresengine/internal/adapters"
)

var (
	// ErrNilDatabaseConnection is returned when an engine is constructed
	// without a database connection.
	ErrNilDatabaseConnection = errors.New("nil database connection supplied")

	// ErrEmptyTableName is returned when an empty table name is configured.
	ErrEmptyTableName = errors.New("empty table name supplied")

	// ErrEmptyDocumentColumn is returned when an empty document column is configured.
	ErrEmptyDocumentColumn = errors.New("empty document column supplied")

	// ErrNilRegistry is returned when a nil rewrite registry is configured.
	ErrNilRegistry = errors.New("nil rewrite registry supplied")

	// ErrBuildingQueryFailed is returned when the select statement cannot be
	// rendered to SQL.
	ErrBuildingQueryFailed = errors.New("building query failed")

	// ErrQueryingFailed is returned when query execution fails.
	ErrQueryingFailed = errors.New("querying documents failed")

	// ErrScanningDBRowFailed is returned when a database row cannot be scanned.
	ErrScanningDBRowFailed = errors.New("scanning database row failed")

	// ErrDecodingDocumentFailed is returned when a JSONB document cannot be decoded.
	ErrDecodingDocumentFailed = errors.New("decoding document failed")
)

const (
	defaultTableName          = "entities"
	defaultDocumentColumn     = "doc"
	dialectPostgres           = "postgres"
	logMsgBuildQueryFailed    = "failed to build select query"
	logMsgDBQueryFailed       = "database query execution failed"
	logMsgCloseRowsFailed     = "failed to close database rows"
	logMsgScanRowFailed       = "failed to scan database row"
	logMsgDecodeDocFailed     = "failed to decode document from database row"
	logMsgQueryCompleted      = "query completed"
	logMsgCountCompleted      = "count completed"
	logMsgIncludesIgnored     = "include paths ignored: engine has no relation-loading concept"
	logMsgSQLExecuted         = "executed sql for: "
	logMsgOperation           = "query engine operation: "
	logAttrError              = "error"
	logAttrQuery              = "query"
	logAttrDocumentCount      = "document_count"
	logAttrDurationMS         = "duration_ms"
	logAttrIncludePaths       = "include_paths"
	logActionQuery            = "query"
	logActionCount            = "count"
	metricQueryDuration       = "queryengine_query_duration_seconds"
	metricQueryErrors         = "queryengine_query_errors_total"
	metricDocumentsReturned   = "queryengine_documents_returned"
	spanNameQuery             = "queryengine.query"
	spanNameCount             = "queryengine.count"
	spanAttrTable             = "db.table"
	spanStatusOK              = "ok"
	spanStatusError           = "error"
	labelOperation            = "operation"
	countColumnAlias          = "document_count"
)

type (
	sqlQueryString = string
	queryDuration  = time.Duration
)

// Document is one entity row decoded from the JSONB document column, or
// built from projected columns keyed by their dotted field paths.
type Document = map[string]any

// Documents is an alias type for a slice of Document.
type Documents = []Document

// Query bundles the specifications one engine call consumes: a filter
// (optional, nil matches everything), a multi-clause sort, a projection, and
// an include. The include is accepted for contract completeness and ignored:
// a single-table document engine has no relations to load.
type Query struct {
	Filter     specification.ExpressionSource
	Sort       specification.Sort
	Projection specification.Projection
	Include    specification.Include
}

// QueryEngine executes specifications against a Postgres table holding
// entity documents in a JSONB column. It resolves its backend code from the
// database adapter's provider identity and consults the rewrite registry for
// every kinded filter specification before translating.
type QueryEngine struct {
	db               adapters.DBAdapter
	tableName        string
	docColumn        string
	backendCode      string
	registry         *specification.Registry
	logger           Logger
	contextualLogger ContextualLogger
	metricsCollector MetricsCollector
	tracingCollector TracingCollector
}

// NewEngineFromPGXPool creates a new QueryEngine using a pgx pool with
// optional configuration.
func NewEngineFromPGXPool(db *pgxpool.Pool, options ...Option) (QueryEngine, error) {
	if db == nil {
		return QueryEngine{}, ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewPGXAdapter(db), options...)
}

// NewEngineFromPGXPoolWithReplica creates a new QueryEngine using a primary
// pgx pool and a replica pool for reads, with optional configuration.
func NewEngineFromPGXPoolWithReplica(primary *pgxpool.Pool, replica *pgxpool.Pool, options ...Option) (QueryEngine, error) {
	if primary == nil || replica == nil {
		return QueryEngine{}, ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewPGXAdapterWithReplica(primary, replica), options...)
}

// NewEngineFromSQLDB creates a new QueryEngine using a sql.DB with optional
// configuration.
func NewEngineFromSQLDB(db *sql.DB, options ...Option) (QueryEngine, error) {
	if db == nil {
		return QueryEngine{}, ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewSQLAdapter(db), options...)
}

// NewEngineFromSQLX creates a new QueryEngine using a sqlx.DB with optional
// configuration.
func NewEngineFromSQLX(db *sqlx.DB, options ...Option) (QueryEngine, error) {
	if db == nil {
		return QueryEngine{}, ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewSQLXAdapter(db), options...)
}

func newEngine(db adapters.DBAdapter, options ...Option) (QueryEngine, error) {
	registry := specification.NewRegistry()
	if err := RegisterPgRewrites(registry); err != nil {
		return QueryEngine{}, err
	}

	engine := QueryEngine{
		db:          db,
		tableName:   defaultTableName,
		docColumn:   defaultDocumentColumn,
		backendCode: specification.ResolveBackendCode(db.Provider()),
		registry:    registry,
	}

	for _, option := range options {
		if err := option(&engine); err != nil {
			return QueryEngine{}, err
		}
	}

	return engine, nil
}

// BackendCode returns the short backend code resolved from the database
// adapter's provider identity.
func (e QueryEngine) BackendCode() string {
	return e.backendCode
}

// Query retrieves the documents matching the query's filter specification,
// ordered by its sort clauses and shaped by its projection.
func (e QueryEngine) Query(ctx context.Context, q Query) (Documents, error) {
	ctx, span := e.startSpan(ctx, spanNameQuery)

	sqlQuery, aliases, buildErr := e.buildSelectQuery(q)
	if buildErr != nil {
		e.logError(ctx, logMsgBuildQueryFailed, logAttrError, buildErr.Error())
		e.finishSpan(span, spanStatusError)

		return nil, buildErr
	}

	rows, duration, queryErr := e.executeQuery(ctx, sqlQuery, logActionQuery)
	if queryErr != nil {
		e.finishSpan(span, spanStatusError)
		return nil, queryErr
	}
	defer e.closeRows(ctx, rows)

	documents, scanErr := e.processQueryResults(ctx, rows, aliases)
	if scanErr != nil {
		e.finishSpan(span, spanStatusError)
		return nil, scanErr
	}

	e.recordQueryMetrics(logActionQuery, duration, len(documents))
	e.logOperation(
		ctx,
		logMsgQueryCompleted,
		logAttrDocumentCount, len(documents),
		logAttrDurationMS, e.durationToMilliseconds(duration))
	e.finishSpan(span, spanStatusOK)

	return documents, nil
}

// Count returns the number of documents matching the filter specification; a
// nil filter counts every document.
func (e QueryEngine) Count(ctx context.Context, filter specification.ExpressionSource) (int64, error) {
	ctx, span := e.startSpan(ctx, spanNameCount)

	sqlQuery, buildErr := e.buildCountQuery(filter)
	if buildErr != nil {
		e.logError(ctx, logMsgBuildQueryFailed, logAttrError, buildErr.Error())
		e.finishSpan(span, spanStatusError)

		return 0, buildErr
	}

	rows, duration, queryErr := e.executeQuery(ctx, sqlQuery, logActionCount)
	if queryErr != nil {
		e.finishSpan(span, spanStatusError)
		return 0, queryErr
	}
	defer e.closeRows(ctx, rows)

	var count int64
	if rows.Next() {
		if scanErr := rows.Scan(&count); scanErr != nil {
			e.logError(ctx, logMsgScanRowFailed, logAttrError, scanErr.Error())
			e.finishSpan(span, spanStatusError)

			return 0, errors.Join(ErrScanningDBRowFailed, scanErr)
		}
	}

	e.recordQueryMetrics(logActionCount, duration, int(count))
	e.logOperation(
		ctx,
		logMsgCountCompleted,
		logAttrDocumentCount, count,
		logAttrDurationMS, e.durationToMilliseconds(duration))
	e.finishSpan(span, spanStatusOK)

	return count, nil
}

func (e QueryEngine) buildSelectQuery(q Query) (sqlQueryString, []string, error) {
	translator := treeTranslator{docColumn: e.docColumn}

	selectStmt := goqu.Dialect(dialectPostgres).From(e.tableName)

	var aliases []string
	if q.Projection.IsZero() {
		selectStmt = selectStmt.Select(goqu.L(e.docColumn))
	} else {
		columns, projectionAliases, err := translator.selectExpressions(q.Projection)
		if err != nil {
			return "", nil, errors.Join(ErrBuildingQueryFailed, err)
		}
		selectStmt = selectStmt.Select(columns...)
		aliases = projectionAliases
	}

	if q.Filter != nil {
		expr := specification.OptimizedExpression(e.registry, e.backendCode, q.Filter)

		translated, err := translator.Translate(expr)
		if err != nil {
			return "", nil, errors.Join(ErrBuildingQueryFailed, err)
		}
		selectStmt = selectStmt.Where(translated)
	}

	for _, clause := range q.Sort.Clauses() {
		ordered, err := translator.orderExpression(clause)
		if err != nil {
			return "", nil, errors.Join(ErrBuildingQueryFailed, err)
		}
		selectStmt = selectStmt.OrderAppend(ordered)
	}

	if !q.Include.IsZero() {
		e.logDebug(logMsgIncludesIgnored, logAttrIncludePaths, q.Include.Paths())
	}

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		return "", nil, errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, aliases, nil
}

func (e QueryEngine) buildCountQuery(filter specification.ExpressionSource) (sqlQueryString, error) {
	translator := treeTranslator{docColumn: e.docColumn}

	selectStmt := goqu.Dialect(dialectPostgres).
		From(e.tableName).
		Select(goqu.COUNT(goqu.Star()).As(countColumnAlias))

	if filter != nil {
		expr := specification.OptimizedExpression(e.registry, e.backendCode, filter)

		translated, err := translator.Translate(expr)
		if err != nil {
			return "", errors.Join(ErrBuildingQueryFailed, err)
		}
		selectStmt = selectStmt.Where(translated)
	}

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

// executeQuery executes the SQL query and returns rows with timing information.
func (e QueryEngine) executeQuery(ctx context.Context, sqlQuery string, action string) (
	adapters.DBRows,
	queryDuration,
	error,
) {

	start := time.Now()
	rows, queryErr := e.db.Query(ctx, sqlQuery)
	duration := time.Since(start)
	e.logQueryWithDuration(sqlQuery, action, duration)

	if queryErr != nil {
		e.logError(ctx, logMsgDBQueryFailed, logAttrError, queryErr.Error(), logAttrQuery, sqlQuery)
		e.incrementErrorCounter(action)

		return nil, duration, errors.Join(ErrQueryingFailed, queryErr)
	}

	return rows, duration, nil
}

// processQueryResults converts database rows into documents: full JSONB
// documents when no projection was supplied, otherwise projected columns
// keyed by their dotted field paths.
func (e QueryEngine) processQueryResults(ctx context.Context, rows adapters.DBRows, aliases []string) (Documents, error) {
	documents := make(Documents, 0)

	for rows.Next() {
		if len(aliases) == 0 {
			document, err := e.scanDocumentRow(ctx, rows)
			if err != nil {
				return nil, err
			}
			documents = append(documents, document)

			continue
		}

		document, err := e.scanProjectedRow(ctx, rows, aliases)
		if err != nil {
			return nil, err
		}
		documents = append(documents, document)
	}

	return documents, nil
}

func (e QueryEngine) scanDocumentRow(ctx context.Context, rows adapters.DBRows) (Document, error) {
	var raw []byte
	if scanErr := rows.Scan(&raw); scanErr != nil {
		e.logError(ctx, logMsgScanRowFailed, logAttrError, scanErr.Error())
		return nil, errors.Join(ErrScanningDBRowFailed, scanErr)
	}

	document := make(Document)
	if decodeErr := jsoniter.ConfigFastest.Unmarshal(raw, &document); decodeErr != nil {
		e.logError(ctx, logMsgDecodeDocFailed, logAttrError, decodeErr.Error())
		return nil, errors.Join(ErrDecodingDocumentFailed, decodeErr)
	}

	return document, nil
}

func (e QueryEngine) scanProjectedRow(ctx context.Context, rows adapters.DBRows, aliases []string) (Document, error) {
	dests := make([]any, len(aliases))
	for i := range dests {
		dests[i] = new(any)
	}

	if scanErr := rows.Scan(dests...); scanErr != nil {
		e.logError(ctx, logMsgScanRowFailed, logAttrError, scanErr.Error())
		return nil, errors.Join(ErrScanningDBRowFailed, scanErr)
	}

	document := make(Document, len(aliases))
	for i, alias := range aliases {
		value := *dests[i].(*any)
		if raw, isBytes := value.([]byte); isBytes {
			value = string(raw)
		}
		document[alias] = value
	}

	return document, nil
}

// closeRows safely closes database rows and logs any errors.
func (e QueryEngine) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		e.logWarn(ctx, logMsgCloseRowsFailed, logAttrError, closeErr.Error())
	}
}

/***** observability plumbing *****/

func (e QueryEngine) startSpan(ctx context.Context, name string) (context.Context, SpanContext) {
	if e.tracingCollector == nil {
		return ctx, nil
	}

	return e.tracingCollector.StartSpan(ctx, name, map[string]string{spanAttrTable: e.tableName})
}

func (e QueryEngine) finishSpan(span SpanContext, status string) {
	if e.tracingCollector == nil || span == nil {
		return
	}

	e.tracingCollector.FinishSpan(span, status, nil)
}

func (e QueryEngine) recordQueryMetrics(action string, duration time.Duration, documentCount int) {
	if e.metricsCollector == nil {
		return
	}

	labels := map[string]string{labelOperation: action}
	e.metricsCollector.RecordDuration(metricQueryDuration, duration, labels)
	e.metricsCollector.RecordValue(metricDocumentsReturned, float64(documentCount), labels)
}

func (e QueryEngine) incrementErrorCounter(action string) {
	if e.metricsCollector == nil {
		return
	}

	e.metricsCollector.IncrementCounter(metricQueryErrors, map[string]string{labelOperation: action})
}

// logQueryWithDuration logs SQL queries with execution time at debug level if
// a logger is configured.
func (e QueryEngine) logQueryWithDuration(sqlQuery string, action string, duration time.Duration) {
	e.logDebug(logMsgSQLExecuted+action, logAttrDurationMS, e.durationToMilliseconds(duration), logAttrQuery, sqlQuery)
}

// logOperation logs operational information at info level if a logger is
// configured, preferring the contextual logger when both are set.
func (e QueryEngine) logOperation(ctx context.Context, action string, args ...any) {
	if e.contextualLogger != nil {
		e.contextualLogger.InfoContext(ctx, logMsgOperation+action, args...)
		return
	}
	if e.logger != nil {
		e.logger.Info(logMsgOperation+action, args...)
	}
}

func (e QueryEngine) logDebug(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}

func (e QueryEngine) logWarn(ctx context.Context, msg string, args ...any) {
	if e.contextualLogger != nil {
		e.contextualLogger.WarnContext(ctx, msg, args...)
		return
	}
	if e.logger != nil {
		e.logger.Warn(msg, args...)
	}
}

func (e QueryEngine) logError(ctx context.Context, msg string, args ...any) {
	if e.contextualLogger != nil {
		e.contextualLogger.ErrorContext(ctx, msg, args...)
		return
	}
	if e.logger != nil {
		e.logger.Error(msg, args...)
	}
}

// durationToMilliseconds converts a time.Duration to float64 milliseconds
// with 3 decimal places.
func (e QueryEngine) durationToMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
