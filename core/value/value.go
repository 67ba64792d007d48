// Package value defines the tagged dynamic value that carries typed data
// across the SQL parameter and result boundary.
//
// Every Value has exactly one Kind and is independently nullable. Native Go
// types are mapped onto kinds by Into, and read back by From and TryGet.
package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Kind identifies the SQL type tag of a Value.
type Kind uint8

// Supported kinds.
const (
	KindInvalid Kind = iota
	KindTinyInt
	KindSmallInt
	KindInt
	KindBigInt
	KindTinyUnsigned
	KindSmallUnsigned
	KindUnsigned
	KindBigUnsigned
	KindFloat
	KindDouble
	KindBool
	KindString
	KindBytes
	KindJSON
)

var kindNames = [...]string{
	KindInvalid:       "Invalid",
	KindTinyInt:       "TinyInt",
	KindSmallInt:      "SmallInt",
	KindInt:           "Int",
	KindBigInt:        "BigInt",
	KindTinyUnsigned:  "TinyUnsigned",
	KindSmallUnsigned: "SmallUnsigned",
	KindUnsigned:      "Unsigned",
	KindBigUnsigned:   "BigUnsigned",
	KindFloat:         "Float",
	KindDouble:        "Double",
	KindBool:          "Bool",
	KindString:        "String",
	KindBytes:         "Bytes",
	KindJSON:          "Json",
}

// String returns the kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	return k > KindInvalid && k <= KindJSON
}

// Value is a tagged, nullable SQL value.
//
// The zero Value has KindInvalid and is never produced by the constructors.
// Signed integers are held in i, unsigned integers in u, floating point in f,
// and byte-oriented payloads (Bytes, Json) in raw.
type Value struct {
	kind  Kind
	valid bool
	i     int64
	u     uint64
	f     float64
	b     bool
	s     string
	raw   []byte
}

// TinyInt returns a non-null TinyInt value.
func TinyInt(v int8) Value { return Value{kind: KindTinyInt, valid: true, i: int64(v)} }

// SmallInt returns a non-null SmallInt value.
func SmallInt(v int16) Value { return Value{kind: KindSmallInt, valid: true, i: int64(v)} }

// Int returns a non-null Int value.
func Int(v int32) Value { return Value{kind: KindInt, valid: true, i: int64(v)} }

// BigInt returns a non-null BigInt value.
func BigInt(v int64) Value { return Value{kind: KindBigInt, valid: true, i: v} }

// TinyUnsigned returns a non-null TinyUnsigned value.
func TinyUnsigned(v uint8) Value { return Value{kind: KindTinyUnsigned, valid: true, u: uint64(v)} }

// SmallUnsigned returns a non-null SmallUnsigned value.
func SmallUnsigned(v uint16) Value {
	return Value{kind: KindSmallUnsigned, valid: true, u: uint64(v)}
}

// Unsigned returns a non-null Unsigned value.
func Unsigned(v uint32) Value { return Value{kind: KindUnsigned, valid: true, u: uint64(v)} }

// BigUnsigned returns a non-null BigUnsigned value.
func BigUnsigned(v uint64) Value { return Value{kind: KindBigUnsigned, valid: true, u: v} }

// Float returns a non-null Float value.
func Float(v float32) Value { return Value{kind: KindFloat, valid: true, f: float64(v)} }

// Double returns a non-null Double value.
func Double(v float64) Value { return Value{kind: KindDouble, valid: true, f: v} }

// Bool returns a non-null Bool value.
func Bool(v bool) Value { return Value{kind: KindBool, valid: true, b: v} }

// String returns a non-null String value.
func String(v string) Value { return Value{kind: KindString, valid: true, s: v} }

// Bytes returns a non-null Bytes value. A nil slice is stored as empty.
func Bytes(v []byte) Value {
	if v == nil {
		v = []byte{}
	}
	return Value{kind: KindBytes, valid: true, raw: v}
}

// JSON returns a non-null Json value holding the raw document.
func JSON(v json.RawMessage) Value {
	if v == nil {
		v = json.RawMessage("null")
	}
	return Value{kind: KindJSON, valid: true, raw: v}
}

// JSONOf encodes v with encoding/json and wraps it as a Json value.
func JSONOf(v any) (Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Value{}, fmt.Errorf("marshal json value: %w", err)
	}
	return JSON(data), nil
}

// Null returns the null value of kind k.
func Null(k Kind) Value {
	return Value{kind: k}
}

// Kind returns the tag of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v carries no payload.
func (v Value) IsNull() bool { return !v.valid }

// Equal reports whether v and o have the same tag, nullness and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind || v.valid != o.valid {
		return false
	}
	if !v.valid {
		return true
	}
	switch v.kind {
	case KindTinyInt, KindSmallInt, KindInt, KindBigInt:
		return v.i == o.i
	case KindTinyUnsigned, KindSmallUnsigned, KindUnsigned, KindBigUnsigned:
		return v.u == o.u
	case KindFloat, KindDouble:
		return v.f == o.f || (math.IsNaN(v.f) && math.IsNaN(o.f))
	case KindBool:
		return v.b == o.b
	case KindString:
		return v.s == o.s
	case KindBytes, KindJSON:
		return bytes.Equal(v.raw, o.raw)
	default:
		panic(fmt.Sprintf("value: unhandled kind %s in Equal", v.kind))
	}
}

// Interface returns the payload as a plain Go value, or nil when null.
// Integers keep their tag width (int8 for TinyInt, uint16 for SmallUnsigned...).
func (v Value) Interface() any {
	if !v.valid {
		return nil
	}
	switch v.kind {
	case KindTinyInt:
		return int8(v.i)
	case KindSmallInt:
		return int16(v.i)
	case KindInt:
		return int32(v.i)
	case KindBigInt:
		return v.i
	case KindTinyUnsigned:
		return uint8(v.u)
	case KindSmallUnsigned:
		return uint16(v.u)
	case KindUnsigned:
		return uint32(v.u)
	case KindBigUnsigned:
		return v.u
	case KindFloat:
		return float32(v.f)
	case KindDouble:
		return v.f
	case KindBool:
		return v.b
	case KindString:
		return v.s
	case KindBytes:
		return v.raw
	case KindJSON:
		return json.RawMessage(v.raw)
	default:
		panic(fmt.Sprintf("value: unhandled kind %s in Interface", v.kind))
	}
}

// DecodeJSON decodes a Json value into dst.
func (v Value) DecodeJSON(dst any) error {
	if v.kind != KindJSON {
		return &TypeMismatchError{Expected: KindJSON.String(), Actual: v.GoString()}
	}
	if !v.valid {
		return ErrNullValue
	}
	if err := json.Unmarshal(v.raw, dst); err != nil {
		return &ConversionError{Msg: "decode json: " + err.Error()}
	}
	return nil
}

// GoString renders v as Kind(payload), e.g. Int(7) or String(NULL).
func (v Value) GoString() string {
	if !v.valid {
		return v.kind.String() + "(NULL)"
	}
	switch v.kind {
	case KindString:
		return v.kind.String() + "(" + strconv.Quote(v.s) + ")"
	case KindBytes:
		return fmt.Sprintf("%s(%d bytes)", v.kind, len(v.raw))
	case KindJSON:
		return v.kind.String() + "(" + string(v.raw) + ")"
	default:
		return fmt.Sprintf("%s(%v)", v.kind, v.Interface())
	}
}

// String implements fmt.Stringer.
func (v Value) String() string { return v.GoString() }
