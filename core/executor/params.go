package executor

import (
	"encoding/json"
	"math"

	"github.com/artpar/lifeguard/core/value"
)

// params holds one homogeneous buffer per driver parameter type.
type params struct {
	bools   []bool
	ints    []int32
	bigInts []int64
	floats  []float32
	doubles []float64
	strings []string
	bytes   [][]byte
}

// Bind converts values into driver arguments.
//
// The first pass partitions every non-null value by tag into a typed buffer,
// normalising it to the parameter type PostgreSQL accepts (small integers to
// int4, unsigned to int8, Json to text). The second pass walks the values
// again and emits arguments from those buffers in original positional order.
// Nulls become untyped nil.
//
// BigUnsigned values above math.MaxInt64 have no int8 slot and fail instead
// of being truncated.
func Bind(values []value.Value) ([]any, error) {
	var p params
	for i, v := range values {
		if v.IsNull() {
			continue
		}
		switch v.Kind() {
		case value.KindBool:
			b, _ := value.TryGet[bool](v)
			p.bools = append(p.bools, b)
		case value.KindTinyInt:
			x, _ := value.TryGet[int8](v)
			p.ints = append(p.ints, int32(x))
		case value.KindSmallInt:
			x, _ := value.TryGet[int16](v)
			p.ints = append(p.ints, int32(x))
		case value.KindInt:
			x, _ := value.TryGet[int32](v)
			p.ints = append(p.ints, x)
		case value.KindTinyUnsigned:
			x, _ := value.TryGet[uint8](v)
			p.ints = append(p.ints, int32(x))
		case value.KindSmallUnsigned:
			x, _ := value.TryGet[uint16](v)
			p.ints = append(p.ints, int32(x))
		case value.KindBigInt:
			x, _ := value.TryGet[int64](v)
			p.bigInts = append(p.bigInts, x)
		case value.KindUnsigned:
			x, _ := value.TryGet[uint32](v)
			p.bigInts = append(p.bigInts, int64(x))
		case value.KindBigUnsigned:
			x, _ := value.TryGet[uint64](v)
			if x > math.MaxInt64 {
				return nil, Other("parameter %d: BigUnsigned value %d exceeds int64 max (%d), cannot be bound", i+1, x, int64(math.MaxInt64))
			}
			p.bigInts = append(p.bigInts, int64(x))
		case value.KindFloat:
			x, _ := value.TryGet[float32](v)
			p.floats = append(p.floats, x)
		case value.KindDouble:
			x, _ := value.TryGet[float64](v)
			p.doubles = append(p.doubles, x)
		case value.KindString:
			x, _ := value.TryGet[string](v)
			p.strings = append(p.strings, x)
		case value.KindJSON:
			x, _ := value.TryGet[json.RawMessage](v)
			p.strings = append(p.strings, string(x))
		case value.KindBytes:
			x, _ := value.TryGet[[]byte](v)
			p.bytes = append(p.bytes, x)
		default:
			return nil, Other("parameter %d: unsupported value %s", i+1, v)
		}
	}

	args := make([]any, len(values))
	var bi, ii, bgi, fi, di, si, byi int
	for i, v := range values {
		if v.IsNull() {
			args[i] = nil
			continue
		}
		switch v.Kind() {
		case value.KindBool:
			args[i] = p.bools[bi]
			bi++
		case value.KindTinyInt, value.KindSmallInt, value.KindInt,
			value.KindTinyUnsigned, value.KindSmallUnsigned:
			args[i] = p.ints[ii]
			ii++
		case value.KindBigInt, value.KindUnsigned, value.KindBigUnsigned:
			args[i] = p.bigInts[bgi]
			bgi++
		case value.KindFloat:
			args[i] = p.floats[fi]
			fi++
		case value.KindDouble:
			args[i] = p.doubles[di]
			di++
		case value.KindString, value.KindJSON:
			args[i] = p.strings[si]
			si++
		case value.KindBytes:
			args[i] = p.bytes[byi]
			byi++
		}
	}
	return args, nil
}
