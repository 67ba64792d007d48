package query

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/artpar/lifeguard/core/value"
)

// Direction is an ORDER BY direction.
type Direction int

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "DESC"
	}
	return "ASC"
}

type orderTerm struct {
	col Column
	dir Direction
}

type joinClause struct {
	kind  string
	table string
	on    Condition
}

// Select is a SELECT statement over the table of an Entity[M]. Every builder
// method returns a new Select and leaves the receiver unchanged.
type Select[M any] struct {
	entity  Entity[M]
	columns []Column
	joins   []joinClause
	where   []Condition
	groups  []Column
	having  []Condition
	orders  []orderTerm
	limit   *uint64
	offset  *uint64
}

// Find starts a query selecting every column of e.
func Find[M any](e Entity[M]) Select[M] {
	return Select[M]{entity: e}
}

// Entity returns the entity the query is bound to.
func (s Select[M]) Entity() Entity[M] { return s.entity }

// Filter adds a WHERE condition. Multiple filters are combined with AND.
func (s Select[M]) Filter(c Condition) Select[M] {
	if c.IsEmpty() {
		return s
	}
	s.where = append(slices.Clip(s.where), c)
	return s
}

// ByPrimaryKey filters on every primary key column. It panics if the number
// of values does not match the key arity.
func (s Select[M]) ByPrimaryKey(vals ...value.Value) Select[M] {
	pk := s.entity.PrimaryKey()
	if pk.Arity() != len(vals) {
		panic(fmt.Sprintf("query: primary key %s has arity %d, got %d values", pk, pk.Arity(), len(vals)))
	}
	table := s.entity.TableName()
	conds := make([]Condition, len(vals))
	for i, v := range vals {
		conds[i] = TableCol(table, pk.At(i)).Eq(v)
	}
	return s.Filter(All(conds...))
}

func (s Select[M]) OrderBy(col Column, dir Direction) Select[M] {
	s.orders = append(slices.Clip(s.orders), orderTerm{col: col, dir: dir})
	return s
}

func (s Select[M]) GroupBy(col Column) Select[M] {
	s.groups = append(slices.Clip(s.groups), col)
	return s
}

func (s Select[M]) Having(c Condition) Select[M] {
	if c.IsEmpty() {
		return s
	}
	s.having = append(slices.Clip(s.having), c)
	return s
}

func (s Select[M]) Limit(n uint64) Select[M] {
	s.limit = &n
	return s
}

func (s Select[M]) Offset(n uint64) Select[M] {
	s.offset = &n
	return s
}

// Columns restricts the select list. With no columns every column of the
// entity's table is selected.
func (s Select[M]) Columns(cols ...Column) Select[M] {
	s.columns = slices.Clone(cols)
	return s
}

func (s Select[M]) InnerJoin(table string, on Condition) Select[M] {
	return s.join("INNER JOIN", table, on)
}

func (s Select[M]) LeftJoin(table string, on Condition) Select[M] {
	return s.join("LEFT JOIN", table, on)
}

func (s Select[M]) RightJoin(table string, on Condition) Select[M] {
	return s.join("RIGHT JOIN", table, on)
}

func (s Select[M]) join(kind, table string, on Condition) Select[M] {
	s.joins = append(slices.Clip(s.joins), joinClause{kind: kind, table: table, on: on})
	return s
}

// Build renders the statement and the values bound to its placeholders.
func (s Select[M]) Build() (string, []value.Value) {
	var w writer
	table := s.entity.TableName()

	w.WriteString("SELECT ")
	switch {
	case len(s.columns) > 0:
		for i, c := range s.columns {
			if i > 0 {
				w.WriteString(", ")
			}
			w.WriteString(c.String())
		}
	case len(s.joins) > 0:
		w.WriteString(QuoteIdent(table) + ".*")
	default:
		w.WriteString("*")
	}
	w.WriteString(" FROM " + QuoteIdent(table))

	for _, j := range s.joins {
		w.WriteString(" " + j.kind + " " + QuoteIdent(j.table) + " ON ")
		j.on.write(&w)
	}
	if len(s.where) > 0 {
		w.WriteString(" WHERE ")
		All(s.where...).write(&w)
	}
	if len(s.groups) > 0 {
		w.WriteString(" GROUP BY ")
		for i, g := range s.groups {
			if i > 0 {
				w.WriteString(", ")
			}
			w.WriteString(g.String())
		}
	}
	if len(s.having) > 0 {
		w.WriteString(" HAVING ")
		All(s.having...).write(&w)
	}
	if len(s.orders) > 0 {
		w.WriteString(" ORDER BY ")
		for i, o := range s.orders {
			if i > 0 {
				w.WriteString(", ")
			}
			w.WriteString(o.col.String() + " " + o.dir.String())
		}
	}
	if s.limit != nil {
		w.WriteString(" LIMIT " + literal(*s.limit))
	}
	if s.offset != nil {
		w.WriteString(" OFFSET " + literal(*s.offset))
	}
	return w.sb.String(), w.args
}

// literal renders n clamped to the bigint range.
func literal(n uint64) string {
	if n > math.MaxInt64 {
		n = math.MaxInt64
	}
	return strconv.FormatUint(n, 10)
}

// countSQL strips trailing ORDER BY, LIMIT and OFFSET clauses and wraps what
// remains in a COUNT(*) subquery.
//
// The right-most occurrence of each keyword is located and the statement is
// cut at the earliest of them, so any subset of the three may be present.
func countSQL(sql string) string {
	sql = strings.TrimSpace(sql)
	upper := strings.ToUpper(sql)
	cut := -1
	for _, kw := range []string{" ORDER BY ", " LIMIT ", " OFFSET "} {
		if i := strings.LastIndex(upper, kw); i >= 0 && (cut < 0 || i < cut) {
			cut = i
		}
	}
	if cut >= 0 {
		sql = strings.TrimSpace(sql[:cut])
	}
	return "SELECT COUNT(*) FROM (" + sql + ") AS subquery"
}
