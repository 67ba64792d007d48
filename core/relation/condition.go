package relation

import (
	"errors"
	"fmt"

	"github.com/artpar/lifeguard/core/identity"
	"github.com/artpar/lifeguard/core/query"
	"github.com/artpar/lifeguard/core/value"
)

// ErrNoRelation is returned when an entity declares no relation to a table.
var ErrNoRelation = errors.New("no relation declared")

// JoinCondition renders fromTable.From[i] = toTable.To[i] for every key
// position, combined according to d.Mode, plus d.OnCondition if set. It
// panics if From and To differ in arity.
func JoinCondition(d Def) query.Condition {
	eqs := pairs(d.FromTable, d.From, d.ToTable, d.To)
	var c query.Condition
	if d.Mode == MatchAny {
		c = query.Any(eqs...)
	} else {
		c = query.All(eqs...)
	}
	if d.OnCondition != nil {
		c = query.All(c, d.OnCondition.Condition(d.FromTable, d.ToTable))
	}
	return c
}

func pairs(leftTable string, left identity.Identity, rightTable string, right identity.Identity) []query.Condition {
	identity.MustMatch(left, right, "join")
	out := make([]query.Condition, 0, left.Arity())
	for _, p := range identity.Pairs(left, right) {
		out = append(out, query.TableCol(leftTable, p[0]).EqCol(query.TableCol(rightTable, p[1])))
	}
	return out
}

// sourceValues returns the values of m that the target side is matched
// against. For HasOne, HasMany and HasManyThrough these are the primary key
// values of m; for BelongsTo the foreign key columns named by d.From.
func sourceValues(d Def, src query.Table, m query.Model) []value.Value {
	if d.Kind == BelongsTo {
		return query.ValuesOf(m, d.From)
	}
	pk := src.PrimaryKey()
	if pk.Arity() != d.From.Arity() {
		panic(fmt.Sprintf("relation: %s: primary key %s and source key %s differ in arity", d, pk, d.From))
	}
	return query.PrimaryKeyValues(src, m)
}

// WhereCondition filters the target table of d down to the rows related to
// m. The filter is always expressed on target-side columns: ToTable.To for
// direct relations, the join table's FromCols for HasManyThrough.
func WhereCondition(d Def, src query.Table, m query.Model) query.Condition {
	vals := sourceValues(d, src, m)

	table, cols := d.ToTable, d.To
	if d.Kind == HasManyThrough {
		if d.Through == nil {
			panic(fmt.Sprintf("relation: %s has no join table", d))
		}
		table, cols = d.Through.Table, d.Through.FromCols
	}
	if cols.Arity() != len(vals) {
		panic(fmt.Sprintf("relation: %s: %d key columns but %d values", d, cols.Arity(), len(vals)))
	}

	eqs := make([]query.Condition, len(vals))
	for i, v := range vals {
		eqs[i] = query.TableCol(table, cols.At(i)).Eq(v)
	}
	return query.All(eqs...)
}

// throughJoin is the condition joining a HasManyThrough join table to the
// target table.
func throughJoin(d Def) query.Condition {
	return query.All(pairs(d.Through.Table, d.Through.ToCols, d.ToTable, d.To)...)
}
