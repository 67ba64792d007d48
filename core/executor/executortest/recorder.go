// Package executortest provides a recording executor for SQL-shape tests.
package executortest

import (
	"context"
	"sync"

	"github.com/artpar/lifeguard/core/executor"
)

// Call is one statement seen by a Recorder.
type Call struct {
	Method string
	SQL    string
	Args   []any
}

// Recorder is an executor.Executor that records every statement. Queries are
// answered by Rows, statements by Affected. Err, when set, fails every call.
type Recorder struct {
	Rows     func(sql string, args []any) ([]executor.Row, error)
	Affected int64
	Err      error

	mu    sync.Mutex
	calls []Call
}

var _ executor.Executor = (*Recorder)(nil)

func (r *Recorder) record(method, sql string, args []any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Method: method, SQL: sql, Args: args})
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// SQL returns the recorded statements in order.
func (r *Recorder) SQL() []string {
	calls := r.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.SQL
	}
	return out
}

// Last returns the most recent call.
func (r *Recorder) Last() Call {
	calls := r.Calls()
	if len(calls) == 0 {
		return Call{}
	}
	return calls[len(calls)-1]
}

func (r *Recorder) Execute(ctx context.Context, sql string, args []any) (int64, error) {
	r.record("Execute", sql, args)
	if r.Err != nil {
		return 0, r.Err
	}
	return r.Affected, nil
}

func (r *Recorder) QueryOne(ctx context.Context, sql string, args []any) (executor.Row, error) {
	r.record("QueryOne", sql, args)
	rows, err := r.rows(sql, args)
	if err != nil {
		return executor.Row{}, err
	}
	switch len(rows) {
	case 0:
		return executor.Row{}, &executor.LifeError{Kind: executor.QueryError, Err: executor.ErrNoRows}
	case 1:
		return rows[0], nil
	default:
		return executor.Row{}, &executor.LifeError{Kind: executor.QueryError, Err: executor.ErrTooManyRows}
	}
}

func (r *Recorder) QueryAll(ctx context.Context, sql string, args []any) ([]executor.Row, error) {
	r.record("QueryAll", sql, args)
	return r.rows(sql, args)
}

func (r *Recorder) rows(sql string, args []any) ([]executor.Row, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	if r.Rows == nil {
		return nil, nil
	}
	return r.Rows(sql, args)
}
