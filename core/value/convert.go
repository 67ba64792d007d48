package value

import (
	"encoding/json"
	"fmt"
)

// Native is the set of Go types that participate in value conversion.
// Each type maps to exactly one Kind, see KindOf.
type Native interface {
	int8 | int16 | int32 | int64 | int |
		uint8 | uint16 | uint32 | uint64 | uint |
		float32 | float64 | bool | string | []byte | json.RawMessage
}

// KindOf returns the tag used for T by Into and Null.
//
// Unsigned types without a PostgreSQL counterpart are widened to the next
// signed integer tag (uint8 to SmallInt, uint16 to Int, uint32 to BigInt);
// uint64 and uint always use BigUnsigned.
func KindOf[T Native]() Kind {
	var zero T
	switch any(zero).(type) {
	case int8:
		return KindTinyInt
	case int16:
		return KindSmallInt
	case int32:
		return KindInt
	case int64, int:
		return KindBigInt
	case uint8:
		return KindSmallInt
	case uint16:
		return KindInt
	case uint32:
		return KindBigInt
	case uint64, uint:
		return KindBigUnsigned
	case float32:
		return KindFloat
	case float64:
		return KindDouble
	case bool:
		return KindBool
	case string:
		return KindString
	case []byte:
		return KindBytes
	case json.RawMessage:
		return KindJSON
	default:
		panic(fmt.Sprintf("value: unsupported native type %T", zero))
	}
}

// Into converts v into its Value. It never fails.
func Into[T Native](v T) Value {
	switch x := any(v).(type) {
	case int8:
		return TinyInt(x)
	case int16:
		return SmallInt(x)
	case int32:
		return Int(x)
	case int64:
		return BigInt(x)
	case int:
		return BigInt(int64(x))
	case uint8:
		return SmallInt(int16(x))
	case uint16:
		return Int(int32(x))
	case uint32:
		return BigInt(int64(x))
	case uint64:
		return BigUnsigned(x)
	case uint:
		return BigUnsigned(uint64(x))
	case float32:
		return Float(x)
	case float64:
		return Double(x)
	case bool:
		return Bool(x)
	case string:
		return String(x)
	case []byte:
		return Bytes(x)
	case json.RawMessage:
		return JSON(x)
	default:
		panic(fmt.Sprintf("value: unsupported native type %T", v))
	}
}

// NullOf returns the null Value for T. It carries the same tag Into uses.
func NullOf[T Native]() Value {
	return Null(KindOf[T]())
}

// IntoOpt converts a nullable native value. A nil pointer yields NullOf[T].
func IntoOpt[T Native](v *T) Value {
	if v == nil {
		return NullOf[T]()
	}
	return Into(*v)
}

// From extracts a T from v, reporting false on null, tag mismatch or range
// overflow. It is the best-effort counterpart of TryGet.
func From[T Native](v Value) (T, bool) {
	out, err := TryGet[T](v)
	if err != nil {
		var zero T
		return zero, false
	}
	return out, true
}
