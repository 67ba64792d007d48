package pool

import (
	"context"
	"strconv"

	"github.com/artpar/lifeguard/core/executor"
)

// IsolationLevel is a transaction isolation level.
type IsolationLevel int

const (
	// ReadCommitted is the server default; beginning with it issues no SET.
	ReadCommitted IsolationLevel = iota
	ReadUncommitted
	RepeatableRead
	Serializable
)

func (l IsolationLevel) String() string {
	switch l {
	case ReadUncommitted:
		return "READ UNCOMMITTED"
	case RepeatableRead:
		return "REPEATABLE READ"
	case Serializable:
		return "SERIALIZABLE"
	default:
		return "READ COMMITTED"
	}
}

// Transaction is an open transaction, or a savepoint inside one, on a single
// connection. It implements executor.Executor.
//
// A Transaction must be used by one goroutine at a time. Commit and Rollback
// close it and every savepoint nested in it; every later call returns
// ErrTransactionClosed.
type Transaction struct {
	ex        executor.Executor
	parent    *Transaction
	depth     int
	savepoint string
	seq       *int
	closed    bool
}

var _ executor.Executor = (*Transaction)(nil)

// Begin starts a transaction on ex, which must be bound to one connection
// (a worker's executor inside Run, or an executor.Conn over *sql.Conn).
// For any level other than ReadCommitted, SET TRANSACTION ISOLATION LEVEL is
// issued as the first statement of the transaction.
//
// A *Pool is rejected: it spreads statements over several connections. Use
// Pool.WithTransaction instead.
func Begin(ctx context.Context, ex executor.Executor, level IsolationLevel) (*Transaction, error) {
	if _, ok := ex.(*Pool); ok {
		return nil, &TransactionError{Kind: TxOtherError, Msg: "begin on a pool; use Pool.WithTransaction"}
	}
	if err := ctx.Err(); err != nil {
		return nil, &TransactionError{Kind: TxOtherError, Msg: "begin", Err: err}
	}
	if _, err := ex.Execute(ctx, "BEGIN", nil); err != nil {
		return nil, &TransactionError{Kind: TxDriverError, Msg: "begin", Err: err}
	}
	if level != ReadCommitted {
		if _, err := ex.Execute(ctx, "SET TRANSACTION ISOLATION LEVEL "+level.String(), nil); err != nil {
			_, _ = ex.Execute(ctx, "ROLLBACK", nil)
			return nil, &TransactionError{Kind: TxDriverError, Msg: "set isolation level", Err: err}
		}
	}
	return &Transaction{ex: ex, seq: new(int)}, nil
}

// Depth is 0 for the outermost transaction and n for the nth nested savepoint.
func (t *Transaction) Depth() int { return t.depth }

// Closed reports whether the transaction, or any transaction it is nested
// in, was committed or rolled back.
func (t *Transaction) Closed() bool {
	for c := t; c != nil; c = c.parent {
		if c.closed {
			return true
		}
	}
	return false
}

// BeginNested opens a savepoint and returns it as a transaction one level
// deeper. Savepoint names are unique within the outermost transaction.
func (t *Transaction) BeginNested(ctx context.Context) (*Transaction, error) {
	if t.Closed() {
		return nil, ErrTransactionClosed
	}
	*t.seq++
	name := "sp_" + strconv.Itoa(*t.seq)
	if _, err := t.ex.Execute(ctx, "SAVEPOINT "+name, nil); err != nil {
		return nil, &TransactionError{Kind: NestedTransactionError, Msg: "savepoint " + name, Err: err}
	}
	return &Transaction{ex: t.ex, parent: t, depth: t.depth + 1, savepoint: name, seq: t.seq}, nil
}

// Commit issues COMMIT, or RELEASE SAVEPOINT when nested.
func (t *Transaction) Commit(ctx context.Context) error {
	if t.depth == 0 {
		return t.finish(ctx, "COMMIT", "commit")
	}
	return t.finish(ctx, "RELEASE SAVEPOINT "+t.savepoint, "release savepoint")
}

// Rollback issues ROLLBACK, or ROLLBACK TO SAVEPOINT when nested.
func (t *Transaction) Rollback(ctx context.Context) error {
	if t.depth == 0 {
		return t.finish(ctx, "ROLLBACK", "rollback")
	}
	return t.finish(ctx, "ROLLBACK TO SAVEPOINT "+t.savepoint, "rollback to savepoint")
}

func (t *Transaction) finish(ctx context.Context, stmt, what string) error {
	if t.Closed() {
		return ErrTransactionClosed
	}
	t.closed = true
	if _, err := t.ex.Execute(ctx, stmt, nil); err != nil {
		kind := TxDriverError
		if t.depth > 0 {
			kind = NestedTransactionError
		}
		return &TransactionError{Kind: kind, Msg: what, Err: err}
	}
	return nil
}

func (t *Transaction) Execute(ctx context.Context, query string, args []any) (int64, error) {
	if t.Closed() {
		return 0, ErrTransactionClosed
	}
	return t.ex.Execute(ctx, query, args)
}

func (t *Transaction) QueryOne(ctx context.Context, query string, args []any) (executor.Row, error) {
	if t.Closed() {
		return executor.Row{}, ErrTransactionClosed
	}
	return t.ex.QueryOne(ctx, query, args)
}

func (t *Transaction) QueryAll(ctx context.Context, query string, args []any) ([]executor.Row, error) {
	if t.Closed() {
		return nil, ErrTransactionClosed
	}
	return t.ex.QueryAll(ctx, query, args)
}
