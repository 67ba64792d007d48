package query

import (
	"context"

	"github.com/artpar/lifeguard/core/executor"
	"github.com/artpar/lifeguard/core/value"
)

// ExecuteUnprepared runs sql without parameters, typically DDL.
func ExecuteUnprepared(ctx context.Context, ex executor.Executor, sql string) (int64, error) {
	return ex.Execute(ctx, sql, nil)
}

// ExecuteStatement runs sql with $n placeholders bound to vals.
func ExecuteStatement(ctx context.Context, ex executor.Executor, sql string, vals ...value.Value) (int64, error) {
	args, err := executor.Bind(vals)
	if err != nil {
		return 0, err
	}
	return ex.Execute(ctx, sql, args)
}

// FindByStatement runs a hand-written query expected to match at most one row.
func FindByStatement[M any](ctx context.Context, ex executor.Executor, e Entity[M], sql string, vals ...value.Value) (M, bool, error) {
	m, err := queryOne(ctx, ex, sql, vals, e.FromRow)
	return optional(m, err)
}

// FindAllByStatement runs a hand-written query and decodes every row.
func FindAllByStatement[M any](ctx context.Context, ex executor.Executor, e Entity[M], sql string, vals ...value.Value) ([]M, error) {
	args, err := executor.Bind(vals)
	if err != nil {
		return nil, err
	}
	rows, err := ex.QueryAll(ctx, sql, args)
	if err != nil {
		return nil, err
	}
	return decodeAll(e.FromRow, rows)
}

// QueryValue returns the first column of the single row sql produces.
func QueryValue[T value.Native](ctx context.Context, ex executor.Executor, sql string, vals ...value.Value) (T, error) {
	return queryOne(ctx, ex, sql, vals, func(row executor.Row) (T, error) {
		var zero T
		if row.Len() == 0 {
			return zero, executor.Parse("query returned no columns", nil)
		}
		return value.TryGet[T](row.At(0))
	})
}
