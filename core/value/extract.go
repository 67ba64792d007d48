package value

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrNullValue is returned when the tag matched but the value is null.
var ErrNullValue = errors.New("value is null")

// TypeMismatchError is returned when a value carries the wrong tag entirely.
type TypeMismatchError struct {
	Expected string
	Actual   string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: expected %s, got %s", e.Expected, e.Actual)
}

// ConversionError is returned when the tag matched but the payload does not
// fit the native type.
type ConversionError struct {
	Msg string
}

func (e *ConversionError) Error() string {
	return "conversion error: " + e.Msg
}

func mismatch(expected string, v Value) error {
	return &TypeMismatchError{Expected: expected, Actual: v.GoString()}
}

func outOfRange(v Value, target string) error {
	return &ConversionError{Msg: fmt.Sprintf("%s out of range for %s", v.GoString(), target)}
}

// TryGet extracts a T from v.
//
// Failures are ErrNullValue (matching tag, no payload), *TypeMismatchError
// (wrong tag) or *ConversionError (payload outside the range of T).
func TryGet[T Native](v Value) (T, error) {
	var zero T
	var out any
	var err error

	switch any(zero).(type) {
	case int8:
		out, err = signed(v, KindTinyInt, math.MinInt8, math.MaxInt8, func(i int64) any { return int8(i) })
	case int16:
		out, err = signed(v, KindSmallInt, math.MinInt16, math.MaxInt16, func(i int64) any { return int16(i) })
	case int32:
		out, err = signed(v, KindInt, math.MinInt32, math.MaxInt32, func(i int64) any { return int32(i) })
	case int64:
		out, err = signed(v, KindBigInt, math.MinInt64, math.MaxInt64, func(i int64) any { return i })
	case int:
		out, err = signed(v, KindBigInt, math.MinInt, math.MaxInt, func(i int64) any { return int(i) })
	case uint8:
		out, err = unsignedFrom(v, KindTinyUnsigned, KindSmallInt, math.MaxUint8, "uint8", func(u uint64) any { return uint8(u) })
	case uint16:
		out, err = unsignedFrom(v, KindSmallUnsigned, KindInt, math.MaxUint16, "uint16", func(u uint64) any { return uint16(u) })
	case uint32:
		out, err = unsignedFrom(v, KindUnsigned, KindBigInt, math.MaxUint32, "uint32", func(u uint64) any { return uint32(u) })
	case uint64:
		out, err = unsignedFrom(v, KindBigUnsigned, KindBigInt, math.MaxUint64, "uint64", func(u uint64) any { return u })
	case uint:
		out, err = unsignedFrom(v, KindBigUnsigned, KindBigInt, math.MaxUint, "uint", func(u uint64) any { return uint(u) })
	case float32:
		if err = expect(v, KindFloat); err == nil {
			out = float32(v.f)
		}
	case float64:
		if err = expect(v, KindDouble); err == nil {
			out = v.f
		}
	case bool:
		if err = expect(v, KindBool); err == nil {
			out = v.b
		}
	case string:
		if err = expect(v, KindString); err == nil {
			out = v.s
		}
	case []byte:
		if err = expect(v, KindBytes); err == nil {
			out = v.raw
		}
	case json.RawMessage:
		if err = expect(v, KindJSON); err == nil {
			out = json.RawMessage(v.raw)
		}
	default:
		panic(fmt.Sprintf("value: unsupported native type %T", zero))
	}
	if err != nil {
		return zero, err
	}
	return out.(T), nil
}

// TryGetOpt extracts a nullable T. A null value yields (nil, nil); tag
// mismatches and range errors are still reported.
func TryGetOpt[T Native](v Value) (*T, error) {
	out, err := TryGet[T](v)
	if errors.Is(err, ErrNullValue) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// TryGetMany extracts a homogeneous sequence, stopping at the first failure.
// The returned error names the failing position.
func TryGetMany[T Native](vs []Value) ([]T, error) {
	out := make([]T, 0, len(vs))
	for i, v := range vs {
		x, err := TryGet[T](v)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		out = append(out, x)
	}
	return out, nil
}

func expect(v Value, k Kind) error {
	if v.kind != k {
		return mismatch(k.String(), v)
	}
	if !v.valid {
		return ErrNullValue
	}
	return nil
}

func signed(v Value, k Kind, lo, hi int64, conv func(int64) any) (any, error) {
	if err := expect(v, k); err != nil {
		return nil, err
	}
	if v.i < lo || v.i > hi {
		return nil, outOfRange(v, k.String())
	}
	return conv(v.i), nil
}

// unsignedFrom accepts either the dedicated unsigned tag or the signed tag
// the type is widened to, range checking the signed payload.
func unsignedFrom(v Value, native, widened Kind, max uint64, target string, conv func(uint64) any) (any, error) {
	switch v.kind {
	case native:
		if !v.valid {
			return nil, ErrNullValue
		}
		if v.u > max {
			return nil, outOfRange(v, target)
		}
		return conv(v.u), nil
	case widened:
		if !v.valid {
			return nil, ErrNullValue
		}
		if v.i < 0 || uint64(v.i) > max {
			return nil, outOfRange(v, target)
		}
		return conv(uint64(v.i)), nil
	default:
		return nil, mismatch(native.String()+" or "+widened.String(), v)
	}
}
