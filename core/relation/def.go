// Package relation describes how entities relate and turns those descriptions
// into join conditions and filtered queries.
package relation

import (
	"fmt"

	"github.com/artpar/lifeguard/core/identity"
	"github.com/artpar/lifeguard/core/query"
)

// Kind is the cardinality of a relation.
type Kind int

const (
	HasOne Kind = iota
	HasMany
	BelongsTo
	HasManyThrough
)

func (k Kind) String() string {
	switch k {
	case HasOne:
		return "has_one"
	case HasMany:
		return "has_many"
	case BelongsTo:
		return "belongs_to"
	case HasManyThrough:
		return "has_many_through"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Mode selects how the per-column equalities of a join are combined.
type Mode int

const (
	// MatchAll combines with AND.
	MatchAll Mode = iota
	// MatchAny combines with OR.
	MatchAny
)

// ConditionStrategy contributes an extra join condition between two tables.
type ConditionStrategy interface {
	Condition(fromTable, toTable string) query.Condition
}

// ConditionFunc adapts a function to ConditionStrategy.
type ConditionFunc func(fromTable, toTable string) query.Condition

func (f ConditionFunc) Condition(fromTable, toTable string) query.Condition {
	return f(fromTable, toTable)
}

// JoinTable is the intermediate table of a HasManyThrough relation. FromCols
// reference the source key, ToCols the target key.
type JoinTable struct {
	Table    string
	FromCols identity.Identity
	ToCols   identity.Identity
}

// Def describes one relation from FromTable to ToTable.
//
// From names columns of FromTable and To names columns of ToTable; position i
// of one pairs with position i of the other. For HasOne and HasMany From is
// the source primary key and To the foreign key in the target. For BelongsTo
// From is the foreign key in the source and To the target primary key.
type Def struct {
	Kind        Kind
	FromTable   string
	ToTable     string
	From        identity.Identity
	To          identity.Identity
	Through     *JoinTable
	IsOwner     bool
	OnCondition ConditionStrategy
	Mode        Mode
}

// Rev returns the same relation seen from the other side.
func (d Def) Rev() Def {
	r := d
	r.FromTable, r.ToTable = d.ToTable, d.FromTable
	r.From, r.To = d.To, d.From
	r.IsOwner = !d.IsOwner
	if d.Through != nil {
		r.Through = &JoinTable{Table: d.Through.Table, FromCols: d.Through.ToCols, ToCols: d.Through.FromCols}
	}
	return r
}

func (d Def) String() string {
	return fmt.Sprintf("%s %s%s -> %s%s", d.Kind, d.FromTable, d.From, d.ToTable, d.To)
}

// Related is implemented by entities that declare relations.
type Related interface {
	query.Table
	Relations() []Def
}

// To returns the relation src declares towards table target.
func To(src Related, target string) (Def, error) {
	for _, d := range src.Relations() {
		if d.ToTable == target {
			return d, nil
		}
	}
	return Def{}, fmt.Errorf("%w: %s -> %s", ErrNoRelation, src.TableName(), target)
}
