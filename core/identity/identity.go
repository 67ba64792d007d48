// Package identity describes single and composite column keys.
package identity

import (
	"fmt"
	"strings"
)

// Identity is an ordered tuple of column names forming a primary or foreign key.
//
// The fixed variants (Unary, Binary, Ternary) cover the common arities; Many
// covers everything else, including the empty key of an entity without a
// primary key.
type Identity struct {
	cols []string
}

// Unary returns a single-column identity.
func Unary(a string) Identity { return Identity{cols: []string{a}} }

// Binary returns a two-column identity.
func Binary(a, b string) Identity { return Identity{cols: []string{a, b}} }

// Ternary returns a three-column identity.
func Ternary(a, b, c string) Identity { return Identity{cols: []string{a, b, c}} }

// Many returns an identity over cols. Many() is the empty identity.
func Many(cols ...string) Identity {
	return Identity{cols: append([]string(nil), cols...)}
}

// None is the arity-0 identity used by entities without a primary key.
func None() Identity { return Identity{} }

// Arity is the number of columns in the identity.
func (id Identity) Arity() int { return len(id.cols) }

// IsEmpty reports whether the identity has no columns.
func (id Identity) IsEmpty() bool { return len(id.cols) == 0 }

// Columns returns a copy of the column names in order.
func (id Identity) Columns() []string {
	return append([]string(nil), id.cols...)
}

// At returns the i-th column name.
func (id Identity) At(i int) string { return id.cols[i] }

// Contains reports whether col is part of the identity.
func (id Identity) Contains(col string) bool {
	for _, c := range id.cols {
		if c == col {
			return true
		}
	}
	return false
}

// FullyContains reports whether every column of other is in id.
func (id Identity) FullyContains(other Identity) bool {
	for _, c := range other.cols {
		if !id.Contains(c) {
			return false
		}
	}
	return true
}

// Equal reports whether both identities list the same columns in order.
func (id Identity) Equal(other Identity) bool {
	if len(id.cols) != len(other.cols) {
		return false
	}
	for i := range id.cols {
		if id.cols[i] != other.cols[i] {
			return false
		}
	}
	return true
}

// Pairs zips a with b column by column. Both must have the same arity;
// a mismatch is a mis-declared key and panics.
func Pairs(a, b Identity) [][2]string {
	MustMatch(a, b, "identity pairs")
	out := make([][2]string, len(a.cols))
	for i := range a.cols {
		out[i] = [2]string{a.cols[i], b.cols[i]}
	}
	return out
}

// MustMatch panics unless a and b have equal arity.
func MustMatch(a, b Identity, what string) {
	if a.Arity() != b.Arity() {
		panic(fmt.Sprintf("%s: arity mismatch: %s has %d columns, %s has %d",
			what, a, a.Arity(), b, b.Arity()))
	}
}

// String renders the identity as (a, b, c).
func (id Identity) String() string {
	return "(" + strings.Join(id.cols, ", ") + ")"
}
