// Package query builds SELECT statements for entities and runs them through an
// executor.Executor.
package query

import (
	"github.com/artpar/lifeguard/core/executor"
	"github.com/artpar/lifeguard/core/identity"
	"github.com/artpar/lifeguard/core/value"
)

// ColumnDef describes one column of an entity.
type ColumnDef struct {
	Name          string
	Kind          value.Kind
	Nullable      bool
	AutoIncrement bool
}

// Table is the static description of an entity's table.
type Table interface {
	TableName() string
	Columns() []ColumnDef
	// PrimaryKey returns identity.None() for tables without a key.
	PrimaryKey() identity.Identity
}

// Entity is a Table whose rows decode into M.
type Entity[M any] interface {
	Table
	FromRow(row executor.Row) (M, error)
}

// Model is one decoded row that can report its column values.
type Model interface {
	Get(column string) value.Value
}

// LookupColumn returns the named column of t.
func LookupColumn(t Table, name string) (ColumnDef, bool) {
	for _, c := range t.Columns() {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnDef{}, false
}

// PrimaryKeyValues reads the primary key values of m in key order.
func PrimaryKeyValues(t Table, m Model) []value.Value {
	pk := t.PrimaryKey()
	out := make([]value.Value, pk.Arity())
	for i := range out {
		out[i] = m.Get(pk.At(i))
	}
	return out
}

// ValuesOf reads the values of cols from m in order.
func ValuesOf(m Model, cols identity.Identity) []value.Value {
	out := make([]value.Value, cols.Arity())
	for i := range out {
		out[i] = m.Get(cols.At(i))
	}
	return out
}
