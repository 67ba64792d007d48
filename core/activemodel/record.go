package activemodel

import (
	"encoding/json"

	"github.com/artpar/lifeguard/core/query"
	"github.com/artpar/lifeguard/core/value"
)

// Record is the mutable, staged counterpart of a row of entity E with model
// type M. Columns are tracked by name against the entity's column list.
type Record[M any] struct {
	entity   query.Entity[M]
	behavior Behavior[M]
	fields   map[string]ActiveValue
}

// New returns an empty record for e with no-op hooks.
func New[M any](e query.Entity[M]) *Record[M] {
	return NewWithBehavior(e, nil)
}

// NewWithBehavior returns an empty record for e that runs b's hooks. A nil b
// means no hooks.
func NewWithBehavior[M any](e query.Entity[M], b Behavior[M]) *Record[M] {
	if b == nil {
		b = NopBehavior[M]{}
	}
	return &Record[M]{entity: e, behavior: b, fields: make(map[string]ActiveValue)}
}

// Entity returns the entity the record belongs to.
func (r *Record[M]) Entity() query.Entity[M] { return r.entity }

// Field returns the staged state of col. Unknown columns read as Unset.
func (r *Record[M]) Field(col string) ActiveValue { return r.fields[col] }

// Get returns the staged value of col. A nulled column returns its null
// value; an untouched column reports false.
func (r *Record[M]) Get(col string) (value.Value, bool) {
	return r.fields[col].IntoValue()
}

// Set stages v for col. The column must exist and v must carry the column's
// tag; a null of any tag, including the zero Value, is accepted and stages
// the column's typed null.
func (r *Record[M]) Set(col string, v value.Value) error {
	def, ok := query.LookupColumn(r.entity, col)
	if !ok {
		return &Error{Kind: ColumnNotFound, Column: col}
	}
	if v.IsNull() {
		r.fields[col] = SetValue(value.Null(def.Kind))
		return nil
	}
	if v.Kind() != def.Kind {
		return &Error{Kind: InvalidValueType, Column: col, Expected: def.Kind.String(), Actual: v.Kind().String()}
	}
	r.fields[col] = SetValue(v)
	return nil
}

// SetNull stages NULL for col.
func (r *Record[M]) SetNull(col string) error {
	return r.Set(col, value.Value{})
}

// Take returns the staged value of col and leaves the column Unset.
func (r *Record[M]) Take(col string) (value.Value, bool) {
	v, ok := r.Get(col)
	delete(r.fields, col)
	return v, ok
}

// Reset returns every column to Unset.
func (r *Record[M]) Reset() {
	clear(r.fields)
}

// FromModel stages every column of the entity from m.
func (r *Record[M]) FromModel(m query.Model) error {
	for _, c := range r.entity.Columns() {
		if err := r.Set(c.Name, m.Get(c.Name)); err != nil {
			return err
		}
	}
	return nil
}

// ToMap returns the Go values of every staged column. Nulled columns map to
// nil.
func (r *Record[M]) ToMap() map[string]any {
	out := make(map[string]any, len(r.fields))
	for col, f := range r.fields {
		v, ok := f.IntoValue()
		if !ok {
			continue
		}
		out[col] = v.Interface()
	}
	return out
}

// MarshalJSON encodes the staged columns as a JSON object.
func (r *Record[M]) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.ToMap())
}

// staged returns the participating columns in entity column order.
func (r *Record[M]) staged(skip func(col string) bool) ([]string, []value.Value) {
	var cols []string
	var vals []value.Value
	for _, c := range r.entity.Columns() {
		f := r.fields[c.Name]
		if !f.participates() || (skip != nil && skip(c.Name)) {
			continue
		}
		v, _ := f.IntoValue()
		cols = append(cols, c.Name)
		vals = append(vals, v)
	}
	return cols, vals
}

// primaryKeyValues returns the key values when every key column is Set.
func (r *Record[M]) primaryKeyValues() ([]value.Value, bool) {
	pk := r.entity.PrimaryKey()
	if pk.IsEmpty() {
		return nil, false
	}
	vals := make([]value.Value, pk.Arity())
	for i, col := range pk.Columns() {
		f := r.fields[col]
		if !f.IsSet() {
			return nil, false
		}
		vals[i], _ = f.IntoValue()
	}
	return vals, true
}
