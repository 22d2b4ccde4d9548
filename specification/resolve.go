package specification

import (
	"strings"
)

// Short backend codes derived from execution-target provider identities.
const (
	BackendPostgres  = "Pg"
	BackendSQLServer = "SqlServer"
	BackendMySQL     = "MySql"
	BackendSQLite    = "Sqlite"
	BackendGeneric   = "Generic"
)

// ResolveBackendCode maps an execution target's provider identity string
// (driver name, connection type, dialect) to a short backend code used to key
// registry lookups. It is a best-effort substring heuristic, not a guaranteed
// classification; unrecognized identities resolve to BackendGeneric.
func ResolveBackendCode(providerIdentity string) string {
	identity := strings.ToLower(providerIdentity)

	switch {
	case strings.Contains(identity, "pgx"),
		strings.Contains(identity, "postgres"),
		strings.Contains(identity, "pq"):
		return BackendPostgres

	case strings.Contains(identity, "sqlserver"),
		strings.Contains(identity, "mssql"):
		return BackendSQLServer

	case strings.Contains(identity, "mysql"),
		strings.Contains(identity, "mariadb"):
		return BackendMySQL

	case strings.Contains(identity, "sqlite"):
		return BackendSQLite

	default:
		return BackendGeneric
	}
}
