// Package postgres registers the lib/pq driver and classifies PostgreSQL
// errors.
package postgres

import (
	"context"
	"errors"

	"github.com/lib/pq"

	"github.com/artpar/lifeguard/core/pool"
)

// SQLSTATE codes lifeguard inspects.
const (
	CodeUniqueViolation = pq.ErrorCode("23505")
	CodeUndefinedTable  = pq.ErrorCode("42P01")
	CodeSerialization   = pq.ErrorCode("40001")
)

// NewPool opens a worker pool against connString.
func NewPool(ctx context.Context, connString string, size int, opts ...pool.Option) (*pool.Pool, error) {
	opts = append([]pool.Option{pool.WithDriver(pool.DriverPostgres)}, opts...)
	return pool.New(ctx, connString, size, opts...)
}

// Code returns the SQLSTATE of the first *pq.Error in err's chain.
func Code(err error) (pq.ErrorCode, bool) {
	var pe *pq.Error
	if errors.As(err, &pe) {
		return pe.Code, true
	}
	return "", false
}

// IsUniqueViolation reports a unique constraint violation.
func IsUniqueViolation(err error) bool {
	code, ok := Code(err)
	return ok && code == CodeUniqueViolation
}

// IsUndefinedTable reports a reference to a missing table.
func IsUndefinedTable(err error) bool {
	code, ok := Code(err)
	return ok && code == CodeUndefinedTable
}

// IsSerializationFailure reports a conflict under REPEATABLE READ or
// SERIALIZABLE; the transaction may be retried.
func IsSerializationFailure(err error) bool {
	code, ok := Code(err)
	return ok && code == CodeSerialization
}
