// Package activemodel stages column changes for one row and writes them with
// INSERT, UPDATE and DELETE statements, running lifecycle hooks around each.
package activemodel

import "github.com/artpar/lifeguard/core/value"

// State is the tri-state of a staged column.
type State uint8

const (
	// Unset columns were never touched and are left out of writes.
	Unset State = iota
	// NotSet columns were explicitly nulled and are written as NULL.
	NotSet
	// Set columns carry a non-null value.
	Set
)

func (s State) String() string {
	switch s {
	case NotSet:
		return "NotSet"
	case Set:
		return "Set"
	default:
		return "Unset"
	}
}

// ActiveValue is a column value together with its State. The zero value is
// Unset.
type ActiveValue struct {
	state State
	v     value.Value
}

// SetValue stages v. A null v becomes NotSet and keeps its tag.
func SetValue(v value.Value) ActiveValue {
	if v.IsNull() {
		return ActiveValue{state: NotSet, v: v}
	}
	return ActiveValue{state: Set, v: v}
}

// FromOptional stages *v, or an untyped NULL when v is nil.
func FromOptional(v *value.Value) ActiveValue {
	if v == nil {
		return ActiveValue{state: NotSet}
	}
	return SetValue(*v)
}

// FromValue stages a native value under its natural tag.
func FromValue[T value.Native](v T) ActiveValue {
	return SetValue(value.Into(v))
}

func (a ActiveValue) State() State   { return a.state }
func (a ActiveValue) IsSet() bool    { return a.state == Set }
func (a ActiveValue) IsNotSet() bool { return a.state == NotSet }
func (a ActiveValue) IsUnset() bool  { return a.state == Unset }

// IntoValue returns the staged value. NotSet yields its null value; Unset
// reports false.
func (a ActiveValue) IntoValue() (value.Value, bool) {
	if a.state == Unset {
		return value.Value{}, false
	}
	return a.v, true
}

// participates reports whether the column belongs in a write.
func (a ActiveValue) participates() bool { return a.state != Unset }
