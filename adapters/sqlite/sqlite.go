// Package sqlite runs lifeguard on a local SQLite file through go-sqlite3.
// It serves development setups and hermetic tests; PostgreSQL-only
// statements such as SET TRANSACTION ISOLATION LEVEL are not supported.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/artpar/lifeguard/core/pool"
)

// DriverName is the database/sql driver NewPool uses: go-sqlite3 with a
// connect hook that applies the per-connection pragmas.
const DriverName = "sqlite3_lifeguard"

// pragmas run on every new connection. journal_mode, busy_timeout and
// foreign_keys travel in the DSN instead.
var pragmas = []string{
	"PRAGMA synchronous = NORMAL",
	"PRAGMA temp_store = MEMORY",
}

func init() {
	sql.Register(DriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			for _, pragma := range pragmas {
				if _, err := conn.Exec(pragma, nil); err != nil {
					return fmt.Errorf("set pragma %q: %w", pragma, err)
				}
			}
			return nil
		},
	})
}

// DSN returns the connection string for the database file at path, with WAL
// journaling, foreign keys and a busy timeout so pool workers can share
// the file.
func DSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	return "file:" + path + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
}

// NewPool opens a worker pool on the database file at path. Every worker
// connection runs the pragmas above before its first statement.
func NewPool(ctx context.Context, path string, size int, opts ...pool.Option) (*pool.Pool, error) {
	opts = append([]pool.Option{pool.WithDriver(DriverName)}, opts...)
	return pool.New(ctx, DSN(path), size, opts...)
}

// IsUniqueViolation reports whether err comes from a UNIQUE or PRIMARY KEY
// constraint.
func IsUniqueViolation(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

// IsUndefinedTable reports whether err names a table that does not exist.
func IsUndefinedTable(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == sqlite3.ErrError && strings.Contains(se.Error(), "no such table")
}
