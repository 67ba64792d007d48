package query

import (
	"context"
	"fmt"

	"github.com/artpar/lifeguard/core/executor"
	"github.com/artpar/lifeguard/core/value"
)

// All runs the query and decodes every row.
func (s Select[M]) All(ctx context.Context, ex executor.Executor) ([]M, error) {
	sql, vals := s.Build()
	args, err := executor.Bind(vals)
	if err != nil {
		return nil, err
	}
	rows, err := ex.QueryAll(ctx, sql, args)
	if err != nil {
		return nil, err
	}
	return decodeAll(s.entity.FromRow, rows)
}

// One runs the query and decodes exactly one row. Zero or several matching
// rows is an error.
func (s Select[M]) One(ctx context.Context, ex executor.Executor) (M, error) {
	sql, vals := s.Build()
	return queryOne(ctx, ex, sql, vals, s.entity.FromRow)
}

// FindOne is One with "no rows" reported as ok == false instead of an error.
// Every other failure, including a missing table or column, is returned.
func (s Select[M]) FindOne(ctx context.Context, ex executor.Executor) (M, bool, error) {
	m, err := s.One(ctx, ex)
	return optional(m, err)
}

// Count returns the number of rows the query matches, ignoring its ORDER BY,
// LIMIT and OFFSET.
func (s Select[M]) Count(ctx context.Context, ex executor.Executor) (int64, error) {
	sql, vals := s.Build()
	args, err := executor.Bind(vals)
	if err != nil {
		return 0, err
	}
	row, err := ex.QueryOne(ctx, countSQL(sql), args)
	if err != nil {
		return 0, err
	}
	if row.Len() == 0 {
		return 0, executor.Parse("count returned no columns", nil)
	}
	n, err := value.TryGet[int64](row.At(0))
	if err != nil {
		return 0, executor.Parse("count", err)
	}
	if n < 0 {
		return 0, executor.Other("count cannot be negative: %d", n)
	}
	return n, nil
}

func queryOne[T any](ctx context.Context, ex executor.Executor, sql string, vals []value.Value, decode func(executor.Row) (T, error)) (T, error) {
	var zero T
	args, err := executor.Bind(vals)
	if err != nil {
		return zero, err
	}
	row, err := ex.QueryOne(ctx, sql, args)
	if err != nil {
		return zero, err
	}
	out, err := decode(row)
	if err != nil {
		return zero, executor.Parse("failed to parse row", err)
	}
	return out, nil
}

func decodeAll[T any](decode func(executor.Row) (T, error), rows []executor.Row) ([]T, error) {
	out := make([]T, 0, len(rows))
	for i, row := range rows {
		m, err := decode(row)
		if err != nil {
			return nil, executor.Parse(fmt.Sprintf("failed to parse row %d", i), err)
		}
		out = append(out, m)
	}
	return out, nil
}

func optional[T any](m T, err error) (T, bool, error) {
	if err != nil {
		var zero T
		if executor.IsNoRows(err) {
			return zero, false, nil
		}
		return zero, false, err
	}
	return m, true, nil
}
