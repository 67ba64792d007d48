package activemodel

import (
	"context"
	"strconv"
	"strings"

	"github.com/artpar/lifeguard/core/executor"
	"github.com/artpar/lifeguard/core/query"
	"github.com/artpar/lifeguard/core/value"
)

// Insert writes every staged column and returns the stored row. With nothing
// staged the row is inserted with DEFAULT VALUES.
func (r *Record[M]) Insert(ctx context.Context, ex executor.Executor) (M, error) {
	var zero M
	if err := r.behavior.BeforeInsert(ctx, r); err != nil {
		return zero, err
	}
	m, err := r.insert(ctx, ex)
	if err != nil {
		return zero, err
	}
	if err := r.behavior.AfterInsert(ctx, r, m); err != nil {
		return zero, err
	}
	return m, nil
}

func (r *Record[M]) insert(ctx context.Context, ex executor.Executor) (M, error) {
	cols, vals := r.staged(nil)

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(query.QuoteIdent(r.entity.TableName()))
	if len(cols) == 0 {
		sb.WriteString(" DEFAULT VALUES")
	} else {
		sb.WriteString(" (")
		for i, c := range cols {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(query.QuoteIdent(c))
		}
		sb.WriteString(") VALUES (")
		for i := range vals {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("$" + strconv.Itoa(i+1))
		}
		sb.WriteString(")")
	}
	sb.WriteString(" RETURNING *")
	return r.returning(ctx, ex, sb.String(), vals)
}

// Update writes the staged non-key columns of the row identified by the
// staged primary key and returns the stored row. Every key column must be
// set. With nothing to write the current row is read back instead.
func (r *Record[M]) Update(ctx context.Context, ex executor.Executor) (M, error) {
	var zero M
	if err := r.behavior.BeforeUpdate(ctx, r); err != nil {
		return zero, err
	}
	m, err := r.update(ctx, ex)
	if err != nil {
		return zero, err
	}
	if err := r.behavior.AfterUpdate(ctx, r, m); err != nil {
		return zero, err
	}
	return m, nil
}

func (r *Record[M]) update(ctx context.Context, ex executor.Executor) (M, error) {
	var zero M
	keys, ok := r.primaryKeyValues()
	if !ok {
		return zero, ErrPrimaryKeyRequired
	}
	pk := r.entity.PrimaryKey()
	cols, vals := r.staged(pk.Contains)

	if len(cols) == 0 {
		m, found, err := query.Find(r.entity).ByPrimaryKey(keys...).FindOne(ctx, ex)
		if err != nil {
			return zero, databaseError(err)
		}
		if !found {
			return zero, ErrRecordNotFound
		}
		return m, nil
	}

	var sb strings.Builder
	sb.WriteString("UPDATE ")
	sb.WriteString(query.QuoteIdent(r.entity.TableName()))
	sb.WriteString(" SET ")
	for i, c := range cols {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(query.QuoteIdent(c) + " = $" + strconv.Itoa(i+1))
	}
	writeKeyFilter(&sb, pk.Columns(), len(vals))
	sb.WriteString(" RETURNING *")
	return r.returning(ctx, ex, sb.String(), append(vals, keys...))
}

// Save updates the row when every primary key column is set and inserts it
// otherwise, between BeforeSave and AfterSave.
func (r *Record[M]) Save(ctx context.Context, ex executor.Executor) (M, error) {
	var zero M
	if err := r.behavior.BeforeSave(ctx, r); err != nil {
		return zero, err
	}
	var m M
	var err error
	if _, ok := r.primaryKeyValues(); ok {
		m, err = r.Update(ctx, ex)
	} else {
		m, err = r.Insert(ctx, ex)
	}
	if err != nil {
		return zero, err
	}
	if err := r.behavior.AfterSave(ctx, r, m); err != nil {
		return zero, err
	}
	return m, nil
}

// Delete removes the row identified by the staged primary key.
func (r *Record[M]) Delete(ctx context.Context, ex executor.Executor) error {
	if err := r.behavior.BeforeDelete(ctx, r); err != nil {
		return err
	}
	keys, ok := r.primaryKeyValues()
	if !ok {
		return ErrPrimaryKeyRequired
	}

	var sb strings.Builder
	sb.WriteString("DELETE FROM ")
	sb.WriteString(query.QuoteIdent(r.entity.TableName()))
	writeKeyFilter(&sb, r.entity.PrimaryKey().Columns(), 0)

	args, err := executor.Bind(keys)
	if err != nil {
		return &Error{Kind: OtherError, Msg: "bind primary key", Err: err}
	}
	n, err := ex.Execute(ctx, sb.String(), args)
	if err != nil {
		return databaseError(err)
	}
	if n == 0 {
		return ErrRecordNotFound
	}
	return r.behavior.AfterDelete(ctx, r)
}

// writeKeyFilter appends WHERE k1 = $n+1 AND k2 = $n+2 ...
func writeKeyFilter(sb *strings.Builder, cols []string, n int) {
	sb.WriteString(" WHERE ")
	for i, c := range cols {
		if i > 0 {
			sb.WriteString(" AND ")
		}
		sb.WriteString(query.QuoteIdent(c) + " = $" + strconv.Itoa(n+i+1))
	}
}

func (r *Record[M]) returning(ctx context.Context, ex executor.Executor, sql string, vals []value.Value) (M, error) {
	var zero M
	args, err := executor.Bind(vals)
	if err != nil {
		return zero, &Error{Kind: OtherError, Msg: "bind values", Err: err}
	}
	row, err := ex.QueryOne(ctx, sql, args)
	if err != nil {
		if executor.IsNoRows(err) {
			return zero, ErrRecordNotFound
		}
		return zero, databaseError(err)
	}
	m, err := r.entity.FromRow(row)
	if err != nil {
		return zero, &Error{Kind: OtherError, Msg: "decode returned row", Err: err}
	}
	return m, nil
}
