package number

import "math"

// canTruncate reports whether f falls within to's representable range. The
// caller passes already-promoted float64 values, so this only needs one set
// of bounds. For I32 the lower bound is exclusive of min-1, which float64
// represents exactly. For I64, min-1 is not representable in float64 (it
// rounds to min itself), so the lower bound is written as inclusive of min,
// which is exactly -2^63.
func canTruncate(to Type, f float64) bool {
	switch to {
	case I32:
		return math.MinInt32-1 < f && f < math.MaxInt32+1
	case U32:
		return -1 < f && f < math.MaxUint32+1
	case I64:
		return math.MinInt64 <= f && f < math.MaxInt64+1
	case U64:
		return -1 < f && f < math.MaxUint64+1
	}
	panic("number: to must be an integer type")
}

// FloatTruncate truncates a float represented by floatBits toward zero into
// the integer type to. When the value is NaN or outside to's range, it
// returns the corresponding trap code instead of a meaningful result.
//
// float32 sources are promoted to float64 before the range check. The upper
// bounds math.MaxInt64+1 and math.MaxUint64+1 are powers of two and exact in
// float64; the lower I64 bound is the exact value -2^63, compared inclusively,
// so every in-range source converts and every out-of-range source traps.
func FloatTruncate(from Type, to Type, floatBits uint64) (uint64, TrapCode) {
	var f float64
	switch from {
	case F32:
		v := math.Float32frombits(uint32(floatBits))
		if math.IsNaN(float64(v)) {
			return 0, NanTrap
		}
		f = float64(v)
	case F64:
		v := math.Float64frombits(floatBits)
		if math.IsNaN(v) {
			return 0, NanTrap
		}
		f = v
	default:
		panic("number: from must be a float type")
	}

	if !canTruncate(to, f) {
		if math.Signbit(f) {
			return Min(to), ConvertTrap
		}
		return Max(to), ConvertTrap
	}

	switch to {
	case I32:
		return uint64(int32(f)), NoTrap
	case I64:
		return uint64(int64(f)), NoTrap
	case U32:
		return uint64(uint32(f)), NoTrap
	case U64:
		return uint64(f), NoTrap
	default:
		panic("number: to must be an integer type")
	}
}
