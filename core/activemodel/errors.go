package activemodel

import "fmt"

// ErrorKind classifies an Error.
type ErrorKind int

const (
	InvalidValueType ErrorKind = iota
	ColumnNotFound
	PrimaryKeyRequired
	RecordNotFound
	DatabaseError
	OtherError
)

// Error is returned by record operations. errors.Is matches any *Error of the
// same Kind, so the sentinels below can be used as targets.
type Error struct {
	Kind     ErrorKind
	Column   string
	Expected string
	Actual   string
	Msg      string
	Err      error
}

var (
	ErrPrimaryKeyRequired = &Error{Kind: PrimaryKeyRequired}
	ErrRecordNotFound     = &Error{Kind: RecordNotFound}
	ErrColumnNotFound     = &Error{Kind: ColumnNotFound}
	ErrInvalidValueType   = &Error{Kind: InvalidValueType}
)

func (e *Error) Error() string {
	switch e.Kind {
	case InvalidValueType:
		return fmt.Sprintf("invalid value type for column %s: expected %s, got %s", e.Column, e.Expected, e.Actual)
	case ColumnNotFound:
		return "column not found: " + e.Column
	case PrimaryKeyRequired:
		return "primary key is required for this operation"
	case RecordNotFound:
		return "record not found (no rows affected)"
	case DatabaseError:
		return fmt.Sprintf("database error: %v", e.Err)
	default:
		if e.Err != nil {
			return fmt.Sprintf("active model error: %s: %v", e.Msg, e.Err)
		}
		return "active model error: " + e.Msg
	}
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func databaseError(err error) error {
	return &Error{Kind: DatabaseError, Err: err}
}
