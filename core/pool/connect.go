package pool

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/artpar/lifeguard/core/executor"
)

// DriverPostgres and DriverSQLite are the database/sql driver names the pool
// knows how to validate. The driver packages themselves are registered by
// the adapters.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// ValidateConnectionString checks the shape of a PostgreSQL connection
// string: a postgres:// or postgresql:// URI with credentials, or key=value
// pairs.
func ValidateConnectionString(s string) error {
	if s == "" {
		return &ConnectionError{Kind: InvalidConnectionString, Msg: "connection string cannot be empty"}
	}
	uri := strings.HasPrefix(s, "postgres://") || strings.HasPrefix(s, "postgresql://")
	if !uri && !strings.Contains(s, "=") {
		return &ConnectionError{Kind: InvalidConnectionString, Msg: "must be a postgres:// URI or key=value pairs"}
	}
	if uri && !strings.Contains(s, "@") {
		return &ConnectionError{Kind: InvalidConnectionString, Msg: "URI must contain '@' between credentials and host"}
	}
	return nil
}

// Connect validates connString (for PostgreSQL), opens a handle and pings it.
// The time spent is reported as connection wait.
func Connect(ctx context.Context, driver, connString string, m executor.Metrics) (*sql.DB, error) {
	if m == nil {
		m = executor.NopMetrics{}
	}
	if driver == DriverPostgres {
		if err := ValidateConnectionString(connString); err != nil {
			return nil, err
		}
	} else if connString == "" {
		return nil, &ConnectionError{Kind: InvalidConnectionString, Msg: "connection string cannot be empty"}
	}

	start := time.Now()
	db, err := sql.Open(driver, connString)
	if err != nil {
		return nil, &ConnectionError{Kind: ConnectFailed, Msg: "open", Err: err}
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &ConnectionError{Kind: ConnectFailed, Msg: "ping", Err: err}
	}
	m.ObserveConnectionWait(time.Since(start))
	return db, nil
}

// CheckHealth runs SELECT 1 on ex and reports whether it succeeded.
func CheckHealth(ctx context.Context, ex executor.Executor) bool {
	_, err := ex.QueryOne(ctx, "SELECT 1", nil)
	return err == nil
}
