// Package executor defines the minimal contract every connection-like object
// satisfies (execute, fetch one row, fetch many rows) and implements it on
// top of database/sql.
package executor

import (
	"context"
	"errors"
	"fmt"
)

// Executor runs SQL with positional placeholders ($1..$n) and parameters
// already converted by Bind.
//
// Implemented by Conn, the pool, and transactions, so callers never need to
// know whether they run inside a transaction.
type Executor interface {
	// Execute runs a statement and returns the number of affected rows.
	Execute(ctx context.Context, query string, args []any) (int64, error)

	// QueryOne returns exactly one row. Zero rows yields an error wrapping
	// ErrNoRows, more than one yields ErrTooManyRows.
	QueryOne(ctx context.Context, query string, args []any) (Row, error)

	// QueryAll returns every row, possibly none.
	QueryAll(ctx context.Context, query string, args []any) ([]Row, error)
}

// ErrNoRows is wrapped by QueryOne when the statement matched nothing.
var ErrNoRows = errors.New("query returned no rows")

// ErrTooManyRows is wrapped by QueryOne when more than one row matched.
var ErrTooManyRows = errors.New("query returned more than one row")

// ErrorKind classifies a LifeError.
type ErrorKind int

const (
	// DriverError wraps an error from the underlying database driver.
	DriverError ErrorKind = iota
	// QueryError reports a statement that ran but produced an unusable result.
	QueryError
	// ParseError reports a row that could not be decoded.
	ParseError
	// OtherError covers everything else, e.g. parameter conversion.
	OtherError
)

func (k ErrorKind) String() string {
	switch k {
	case DriverError:
		return "driver error"
	case QueryError:
		return "query error"
	case ParseError:
		return "parse error"
	default:
		return "execution error"
	}
}

// LifeError is the executor-level error type.
type LifeError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *LifeError) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
}

func (e *LifeError) Unwrap() error { return e.Err }

// Driver wraps err as a DriverError. Nil stays nil.
func Driver(err error) error {
	if err == nil {
		return nil
	}
	var le *LifeError
	if errors.As(err, &le) {
		return err
	}
	return &LifeError{Kind: DriverError, Err: err}
}

// Parse returns a ParseError.
func Parse(msg string, err error) error {
	return &LifeError{Kind: ParseError, Msg: msg, Err: err}
}

// Other returns an OtherError.
func Other(format string, args ...any) error {
	return &LifeError{Kind: OtherError, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first LifeError in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var le *LifeError
	if errors.As(err, &le) {
		return le.Kind, true
	}
	return 0, false
}
