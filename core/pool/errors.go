package pool

import (
	"errors"
	"fmt"
)

// ErrPoolClosed is returned for work submitted after Close.
var ErrPoolClosed = errors.New("pool is closed")

// ConnectionErrorKind classifies a ConnectionError.
type ConnectionErrorKind int

const (
	InvalidConnectionString ConnectionErrorKind = iota
	ConnectFailed
	InvalidPoolConfig
)

// ConnectionError reports a connection string or connection establishment
// failure.
type ConnectionError struct {
	Kind ConnectionErrorKind
	Msg  string
	Err  error
}

func (e *ConnectionError) Error() string {
	switch e.Kind {
	case InvalidConnectionString:
		return "invalid connection string: " + e.Msg
	case InvalidPoolConfig:
		return "invalid pool configuration: " + e.Msg
	default:
		if e.Msg != "" {
			return fmt.Sprintf("connection error: %s: %v", e.Msg, e.Err)
		}
		return fmt.Sprintf("connection error: %v", e.Err)
	}
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// TransactionErrorKind classifies a TransactionError.
type TransactionErrorKind int

const (
	TxDriverError TransactionErrorKind = iota
	TransactionClosed
	NestedTransactionError
	TxOtherError
)

// TransactionError is returned by transaction lifecycle operations.
// errors.Is matches any *TransactionError of the same Kind.
type TransactionError struct {
	Kind TransactionErrorKind
	Msg  string
	Err  error
}

// ErrTransactionClosed is returned for any use of a committed or rolled back
// transaction.
var ErrTransactionClosed = &TransactionError{Kind: TransactionClosed}

func (e *TransactionError) Error() string {
	switch e.Kind {
	case TransactionClosed:
		return "transaction has already been committed or rolled back"
	case NestedTransactionError:
		return fmt.Sprintf("nested transaction error: %s: %v", e.Msg, e.Err)
	case TxDriverError:
		return fmt.Sprintf("transaction %s: %v", e.Msg, e.Err)
	default:
		return "transaction error: " + e.Msg
	}
}

func (e *TransactionError) Unwrap() error { return e.Err }

func (e *TransactionError) Is(target error) bool {
	t, ok := target.(*TransactionError)
	return ok && t.Kind == e.Kind
}
