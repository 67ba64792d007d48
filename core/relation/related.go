package relation

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/artpar/lifeguard/core/executor"
	"github.com/artpar/lifeguard/core/query"
	"github.com/artpar/lifeguard/core/value"
)

// FindRelated returns a query over target for the rows related to m, a row of
// src, through the relation src declares towards target's table.
func FindRelated[T any](src Related, m query.Model, target query.Entity[T]) (query.Select[T], error) {
	d, err := To(src, target.TableName())
	if err != nil {
		return query.Select[T]{}, err
	}
	return FindRelatedBy(d, src, m, target), nil
}

// FindRelatedBy is FindRelated with an explicit relation.
func FindRelatedBy[T any](d Def, src query.Table, m query.Model, target query.Entity[T]) query.Select[T] {
	q := query.Find(target)
	if d.Kind == HasManyThrough {
		q = q.InnerJoin(d.Through.Table, throughJoin(d))
	}
	return q.Filter(WhereCondition(d, src, m))
}

// LazyLoader fetches the rows related to one model on first use and caches
// them until Reset.
type LazyLoader[T any] struct {
	src    Related
	model  query.Model
	target query.Entity[T]
	ex     executor.Executor

	mu     sync.Mutex
	loaded bool
	rows   []T
}

// NewLazyLoader prepares a loader for the target rows related to m.
func NewLazyLoader[T any](src Related, m query.Model, target query.Entity[T], ex executor.Executor) *LazyLoader[T] {
	return &LazyLoader[T]{src: src, model: m, target: target, ex: ex}
}

// Load returns the related rows, querying at most once.
func (l *LazyLoader[T]) Load(ctx context.Context) ([]T, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.loaded {
		return l.rows, nil
	}
	q, err := FindRelated(l.src, l.model, l.target)
	if err != nil {
		return nil, err
	}
	rows, err := q.All(ctx, l.ex)
	if err != nil {
		return nil, err
	}
	l.rows, l.loaded = rows, true
	return rows, nil
}

// Reset drops the cached rows.
func (l *LazyLoader[T]) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows, l.loaded = nil, false
}

// FindLinked follows a two-hop path src -> intermediate -> target. The
// intermediate table is left-joined to the target through the second hop and
// filtered by the first hop's source values.
func FindLinked[T any](src query.Table, m query.Model, path []Def, target query.Entity[T]) (query.Select[T], error) {
	if len(path) != 2 {
		return query.Select[T]{}, fmt.Errorf("linked path from %s needs 2 hops, got %d", src.TableName(), len(path))
	}
	first, second := path[0], path[1]
	if first.Kind == HasManyThrough || second.Kind == HasManyThrough {
		return query.Select[T]{}, fmt.Errorf("linked path from %s: join-table hops are not supported", src.TableName())
	}
	if first.ToTable != second.FromTable || second.ToTable != target.TableName() {
		return query.Select[T]{}, fmt.Errorf("linked path %s, %s does not lead from %s to %s", first, second, src.TableName(), target.TableName())
	}
	return query.Find(target).
		LeftJoin(second.FromTable, JoinCondition(second)).
		Filter(WhereCondition(first, src, m)), nil
}

// LoadRelated fetches the rows related to every model in models with one
// query and returns them grouped per model, in the order of models.
// HasManyThrough relations are loaded with one query per model.
func LoadRelated[T query.Model](ctx context.Context, ex executor.Executor, src Related, models []query.Model, target query.Entity[T]) ([][]T, error) {
	out := make([][]T, len(models))
	if len(models) == 0 {
		return out, nil
	}
	d, err := To(src, target.TableName())
	if err != nil {
		return nil, err
	}

	if d.Kind == HasManyThrough {
		for i, m := range models {
			rows, err := FindRelatedBy(d, src, m, target).All(ctx, ex)
			if err != nil {
				return nil, err
			}
			out[i] = rows
		}
		return out, nil
	}

	keys := make([]string, len(models))
	seen := make(map[string]bool, len(models))
	var alts []query.Condition
	for i, m := range models {
		vals := sourceValues(d, src, m)
		keys[i] = tupleKey(vals)
		if seen[keys[i]] {
			continue
		}
		seen[keys[i]] = true
		eqs := make([]query.Condition, len(vals))
		for j, v := range vals {
			eqs[j] = query.TableCol(d.ToTable, d.To.At(j)).Eq(v)
		}
		alts = append(alts, query.All(eqs...))
	}

	rows, err := query.Find(target).Filter(query.Any(alts...)).All(ctx, ex)
	if err != nil {
		return nil, err
	}
	groups := make(map[string][]T, len(seen))
	for _, r := range rows {
		k := tupleKey(query.ValuesOf(r, d.To))
		groups[k] = append(groups[k], r)
	}
	for i, k := range keys {
		out[i] = groups[k]
	}
	return out, nil
}

// tupleKey renders key values so that the same number compares equal across
// integer widths. Every other part carries its kind and a quoted payload so
// no two distinct tuples share a key.
func tupleKey(vals []value.Value) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		switch {
		case v.IsNull():
			parts[i] = "NULL"
		case v.Kind() >= value.KindTinyInt && v.Kind() <= value.KindBigUnsigned:
			parts[i] = fmt.Sprint(v.Interface())
		default:
			parts[i] = v.Kind().String() + ":" + strconv.Quote(fmt.Sprint(v.Interface()))
		}
	}
	return strings.Join(parts, "|")
}
