package number

import "math"

// Min returns the minimum value of t, reinterpreted as the raw bit pattern
// truncation writes into an i32/i64 slot (sign-extended for signed types).
func Min(t Type) uint64 {
	switch t {
	case I32:
		i := math.MinInt32
		return uint64(i)
	case I64:
		i := math.MinInt64
		return uint64(i)
	case U32, U64:
		return 0
	}
	panic("invalid type")
}
// Max returns the maximum value of t, as a raw uint64 bit pattern.
func Max(t Type) uint64 {
	switch t {
	case I32:
		return uint64(math.MaxInt32)
	case I64:
		return uint64(math.MaxInt64)
	case U32:
		return uint64(math.MaxUint32)
	case U64:
		return math.MaxUint64
	}
	panic("invalid type")
}
