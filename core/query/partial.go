package query

import (
	"context"

	"github.com/artpar/lifeguard/core/executor"
)

// Partial is a query over a subset of an entity's columns, decoded into P.
type Partial[M, P any] struct {
	sel    Select[M]
	decode func(executor.Row) (P, error)
}

// SelectPartial narrows s to cols and decodes rows with decode. Filters,
// ordering and paging carry over from s.
func SelectPartial[M, P any](s Select[M], cols []Column, decode func(executor.Row) (P, error)) Partial[M, P] {
	return Partial[M, P]{sel: s.Columns(cols...), decode: decode}
}

func (p Partial[M, P]) Build() (string, []any, error) {
	sql, vals := p.sel.Build()
	args, err := executor.Bind(vals)
	return sql, args, err
}

func (p Partial[M, P]) All(ctx context.Context, ex executor.Executor) ([]P, error) {
	sql, args, err := p.Build()
	if err != nil {
		return nil, err
	}
	rows, err := ex.QueryAll(ctx, sql, args)
	if err != nil {
		return nil, err
	}
	return decodeAll(p.decode, rows)
}

func (p Partial[M, P]) One(ctx context.Context, ex executor.Executor) (P, error) {
	sql, vals := p.sel.Build()
	return queryOne(ctx, ex, sql, vals, p.decode)
}

func (p Partial[M, P]) FindOne(ctx context.Context, ex executor.Executor) (P, bool, error) {
	m, err := p.One(ctx, ex)
	return optional(m, err)
}
