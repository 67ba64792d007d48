package executor

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/artpar/lifeguard/core/value"
)

// Row is one decoded result row: column names and their values, in select
// list order.
type Row struct {
	columns []string
	values  []value.Value
}

// NewRow builds a row. columns and values must have the same length.
func NewRow(columns []string, values []value.Value) Row {
	if len(columns) != len(values) {
		panic(fmt.Sprintf("executor: row has %d columns but %d values", len(columns), len(values)))
	}
	return Row{columns: columns, values: values}
}

// Len returns the number of columns.
func (r Row) Len() int { return len(r.values) }

// Columns returns the column names.
func (r Row) Columns() []string { return r.columns }

// Values returns the column values.
func (r Row) Values() []value.Value { return r.values }

// At returns the value at position i.
func (r Row) At(i int) value.Value { return r.values[i] }

// Get returns the value of the named column.
func (r Row) Get(name string) (value.Value, bool) {
	for i, c := range r.columns {
		if c == name {
			return r.values[i], true
		}
	}
	return value.Value{}, false
}

// Get extracts the named column as T.
func Get[T value.Native](r Row, column string) (T, error) {
	v, ok := r.Get(column)
	if !ok {
		var zero T
		return zero, Parse(fmt.Sprintf("column %q not in row", column), nil)
	}
	out, err := value.TryGet[T](v)
	if err != nil {
		return out, Parse(fmt.Sprintf("column %q", column), err)
	}
	return out, nil
}

// GetOpt extracts the named nullable column as *T.
func GetOpt[T value.Native](r Row, column string) (*T, error) {
	v, ok := r.Get(column)
	if !ok {
		return nil, Parse(fmt.Sprintf("column %q not in row", column), nil)
	}
	out, err := value.TryGetOpt[T](v)
	if err != nil {
		return nil, Parse(fmt.Sprintf("column %q", column), err)
	}
	return out, nil
}

// ScanRows drains rows into decoded Rows. It closes rows.
func ScanRows(rows *sql.Rows) ([]Row, error) {
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, Driver(err)
	}
	columns := make([]string, len(types))
	for i, ct := range types {
		columns[i] = ct.Name()
	}

	var out []Row
	raw := make([]any, len(types))
	dest := make([]any, len(types))
	for i := range raw {
		dest[i] = &raw[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, Driver(err)
		}
		values := make([]value.Value, len(types))
		for i, ct := range types {
			v, err := decodeValue(ct.DatabaseTypeName(), raw[i])
			if err != nil {
				return nil, Parse(fmt.Sprintf("column %q", columns[i]), err)
			}
			values[i] = v
		}
		out = append(out, Row{columns: columns, values: values})
	}
	if err := rows.Err(); err != nil {
		return nil, Driver(err)
	}
	return out, nil
}

// kindForType maps a database type name onto a value kind. Unknown names
// return KindInvalid and the kind is inferred from the driver value.
//
// lib/pq reports PostgreSQL's 4-byte integer as INT4. INT, INTEGER and
// MEDIUMINT only come from SQLite declared types, whose storage is always
// 64-bit, so they decode as BigInt.
func kindForType(dbType string) value.Kind {
	t := strings.ToUpper(strings.TrimSpace(dbType))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	switch t {
	case "INT2", "SMALLINT", "SMALLSERIAL":
		return value.KindSmallInt
	case "INT4", "SERIAL", "SERIAL4":
		return value.KindInt
	case "INT8", "BIGINT", "BIGSERIAL", "SERIAL8", "INT", "INTEGER", "MEDIUMINT":
		return value.KindBigInt
	case "FLOAT4", "REAL":
		return value.KindFloat
	case "FLOAT8", "DOUBLE", "DOUBLE PRECISION", "FLOAT":
		return value.KindDouble
	case "BOOL", "BOOLEAN":
		return value.KindBool
	case "TEXT", "VARCHAR", "CHARACTER VARYING", "CHAR", "CHARACTER", "BPCHAR", "NAME", "UUID", "CITEXT":
		return value.KindString
	case "BYTEA", "BLOB":
		return value.KindBytes
	case "JSON", "JSONB":
		return value.KindJSON
	default:
		return value.KindInvalid
	}
}

func decodeValue(dbType string, raw any) (value.Value, error) {
	kind := kindForType(dbType)
	if kind == value.KindInvalid {
		kind = inferKind(raw)
	}
	if raw == nil {
		return value.Null(kind), nil
	}

	switch kind {
	case value.KindSmallInt:
		i, err := asInt(raw, math.MinInt16, math.MaxInt16)
		return value.SmallInt(int16(i)), err
	case value.KindInt:
		i, err := asInt(raw, math.MinInt32, math.MaxInt32)
		return value.Int(int32(i)), err
	case value.KindBigInt:
		i, err := asInt(raw, math.MinInt64, math.MaxInt64)
		return value.BigInt(i), err
	case value.KindFloat:
		f, err := asFloat(raw)
		return value.Float(float32(f)), err
	case value.KindDouble:
		f, err := asFloat(raw)
		return value.Double(f), err
	case value.KindBool:
		switch x := raw.(type) {
		case bool:
			return value.Bool(x), nil
		case int64:
			return value.Bool(x != 0), nil
		}
	case value.KindString:
		switch x := raw.(type) {
		case string:
			return value.String(x), nil
		case []byte:
			return value.String(string(x)), nil
		case time.Time:
			return value.String(x.Format(time.RFC3339Nano)), nil
		}
	case value.KindBytes:
		switch x := raw.(type) {
		case []byte:
			return value.Bytes(append([]byte(nil), x...)), nil
		case string:
			return value.Bytes([]byte(x)), nil
		}
	case value.KindJSON:
		switch x := raw.(type) {
		case []byte:
			return value.JSON(json.RawMessage(append([]byte(nil), x...))), nil
		case string:
			return value.JSON(json.RawMessage(x)), nil
		}
	}
	return value.Value{}, fmt.Errorf("cannot decode %T as %s", raw, kind)
}

func inferKind(raw any) value.Kind {
	switch raw.(type) {
	case int64:
		return value.KindBigInt
	case float64:
		return value.KindDouble
	case bool:
		return value.KindBool
	case []byte:
		return value.KindBytes
	default:
		// string, time.Time and untyped NULL
		return value.KindString
	}
}

func asInt(raw any, lo, hi int64) (int64, error) {
	var i int64
	switch x := raw.(type) {
	case int64:
		i = x
	case int32:
		i = int64(x)
	case float64:
		if x != math.Trunc(x) {
			return 0, fmt.Errorf("non-integral %v", x)
		}
		i = int64(x)
	default:
		return 0, fmt.Errorf("cannot decode %T as integer", raw)
	}
	if i < lo || i > hi {
		return 0, fmt.Errorf("%d out of range [%d, %d]", i, lo, hi)
	}
	return i, nil
}

func asFloat(raw any) (float64, error) {
	switch x := raw.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	default:
		return 0, fmt.Errorf("cannot decode %T as float", raw)
	}
}
