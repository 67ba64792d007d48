package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/artpar/lifeguard/core/value"
)

// writer accumulates SQL text and numbers placeholders as it goes.
type writer struct {
	sb   strings.Builder
	args []value.Value
}

func (w *writer) WriteString(s string) { w.sb.WriteString(s) }

func (w *writer) param(v value.Value) {
	w.args = append(w.args, v)
	w.sb.WriteByte('$')
	w.sb.WriteString(strconv.Itoa(len(w.args)))
}

// QuoteIdent double-quotes an identifier.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Column references a column, optionally qualified by its table.
type Column struct {
	Table string
	Name  string
}

// Col returns an unqualified column reference.
func Col(name string) Column { return Column{Name: name} }

// TableCol returns a table-qualified column reference.
func TableCol(table, name string) Column { return Column{Table: table, Name: name} }

// String renders the quoted reference.
func (c Column) String() string {
	if c.Table == "" {
		return QuoteIdent(c.Name)
	}
	return QuoteIdent(c.Table) + "." + QuoteIdent(c.Name)
}

func (c Column) compare(op string, v value.Value) Condition {
	return leaf(func(w *writer) {
		w.WriteString(c.String())
		w.WriteString(" " + op + " ")
		w.param(v)
	})
}

func (c Column) Eq(v value.Value) Condition  { return c.compare("=", v) }
func (c Column) Ne(v value.Value) Condition  { return c.compare("<>", v) }
func (c Column) Gt(v value.Value) Condition  { return c.compare(">", v) }
func (c Column) Gte(v value.Value) Condition { return c.compare(">=", v) }
func (c Column) Lt(v value.Value) Condition  { return c.compare("<", v) }
func (c Column) Lte(v value.Value) Condition { return c.compare("<=", v) }

// Like matches a LIKE pattern.
func (c Column) Like(pattern string) Condition { return c.compare("LIKE", value.String(pattern)) }

// In matches any of vs. An empty list matches nothing.
func (c Column) In(vs ...value.Value) Condition {
	if len(vs) == 0 {
		return leaf(func(w *writer) { w.WriteString("1 = 0") })
	}
	return leaf(func(w *writer) {
		w.WriteString(c.String())
		w.WriteString(" IN (")
		for i, v := range vs {
			if i > 0 {
				w.WriteString(", ")
			}
			w.param(v)
		}
		w.WriteString(")")
	})
}

func (c Column) IsNull() Condition {
	return leaf(func(w *writer) { w.WriteString(c.String() + " IS NULL") })
}

func (c Column) IsNotNull() Condition {
	return leaf(func(w *writer) { w.WriteString(c.String() + " IS NOT NULL") })
}

// EqCol compares two columns, as used in join conditions.
func (c Column) EqCol(o Column) Condition {
	return leaf(func(w *writer) { w.WriteString(c.String() + " = " + o.String()) })
}

// Condition is a boolean SQL expression. The zero Condition is empty and is
// ignored by Filter and Having.
type Condition struct {
	leaf  func(w *writer)
	op    string
	parts []Condition
	not   bool
}

func leaf(fn func(w *writer)) Condition { return Condition{leaf: fn} }

// Raw embeds a SQL fragment. Each '?' in sql is replaced by the next arg as a
// positional placeholder. It panics if the number of '?' and args differ.
func Raw(sql string, args ...value.Value) Condition {
	if n := strings.Count(sql, "?"); n != len(args) {
		panic(fmt.Sprintf("query: raw condition %q has %d placeholders, got %d args", sql, n, len(args)))
	}
	return leaf(func(w *writer) {
		n := 0
		for _, r := range sql {
			if r == '?' {
				w.param(args[n])
				n++
				continue
			}
			w.sb.WriteRune(r)
		}
	})
}

// All combines conditions with AND. With no operands it is always true.
func All(conds ...Condition) Condition { return Condition{op: "AND", parts: nonEmpty(conds)} }

// Any combines conditions with OR. With no operands it is always false.
func Any(conds ...Condition) Condition { return Condition{op: "OR", parts: nonEmpty(conds)} }

// Not negates c.
func Not(c Condition) Condition {
	c.not = !c.not
	return c
}

func nonEmpty(conds []Condition) []Condition {
	out := make([]Condition, 0, len(conds))
	for _, c := range conds {
		if !c.IsEmpty() {
			out = append(out, c)
		}
	}
	return out
}

// IsEmpty reports whether c is the zero Condition.
func (c Condition) IsEmpty() bool { return c.leaf == nil && c.op == "" }

// SQL renders c on its own, numbering placeholders from $1.
func (c Condition) SQL() (string, []value.Value) {
	var w writer
	c.write(&w)
	return w.sb.String(), w.args
}

func (c Condition) write(w *writer) {
	if c.not {
		w.WriteString("NOT (")
		defer w.WriteString(")")
	}
	if c.leaf != nil {
		c.leaf(w)
		return
	}
	switch len(c.parts) {
	case 0:
		if c.op == "OR" {
			w.WriteString("1 = 0")
		} else {
			w.WriteString("1 = 1")
		}
	case 1:
		c.parts[0].write(w)
	default:
		w.WriteString("(")
		for i, p := range c.parts {
			if i > 0 {
				w.WriteString(" " + c.op + " ")
			}
			p.write(w)
		}
		w.WriteString(")")
	}
}
