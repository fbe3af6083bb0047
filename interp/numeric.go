package interp

import (
	"math"
	"math/bits"

	"github.com/chewxy/math32"
)

// rotl32/rotr32/rotl64/rotr64 wrap math/bits so the engine's arithmetic
// dispatch reads like the rest of the opcode table: one call per opcode.
func rotl32(v uint32, n uint32) uint32 { return bits.RotateLeft32(v, int(n&31)) }
func rotr32(v uint32, n uint32) uint32 { return bits.RotateLeft32(v, -int(n&31)) }
func rotl64(v uint64, n uint32) uint64 { return bits.RotateLeft64(v, int(n&63)) }
func rotr64(v uint64, n uint32) uint64 { return bits.RotateLeft64(v, -int(n&63)) }

func clz32(v uint32) uint32    { return uint32(bits.LeadingZeros32(v)) }
func ctz32(v uint32) uint32    { return uint32(bits.TrailingZeros32(v)) }
func popcnt32(v uint32) uint32 { return uint32(bits.OnesCount32(v)) }

func clz64(v uint64) uint64    { return uint64(bits.LeadingZeros64(v)) }
func ctz64(v uint64) uint64    { return uint64(bits.TrailingZeros64(v)) }
func popcnt64(v uint64) uint64 { return uint64(bits.OnesCount64(v)) }

// f32Min/f32Max implement Wasm's NaN-propagating, sign-aware min/max: if
// either operand is NaN the result is a NaN; between +0 and -0, min picks
// -0 and max picks +0. Using chewxy/math32 keeps every f32 operation native
// 32-bit instead of promoting through float64, which would round NaN
// payloads and signed zeros away (the bug the teacher's castReturnValue
// helper has, routing every intermediate through int64 and losing them).
func f32Min(a, b float32) float32 {
	if math32.IsNaN(a) || math32.IsNaN(b) {
		return math32.NaN()
	}
	if a == 0 && b == 0 {
		if math32.Signbit(a) {
			return a
		}
		return b
	}
	return math32.Min(a, b)
}

func f32Max(a, b float32) float32 {
	if math32.IsNaN(a) || math32.IsNaN(b) {
		return math32.NaN()
	}
	if a == 0 && b == 0 {
		if math32.Signbit(a) {
			return b
		}
		return a
	}
	return math32.Max(a, b)
}

func f64Min(a, b float64) float64 {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.NaN()
	}
	if a == 0 && b == 0 {
		if math.Signbit(a) {
			return a
		}
		return b
	}
	return math.Min(a, b)
}

func f64Max(a, b float64) float64 {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.NaN()
	}
	if a == 0 && b == 0 {
		if math.Signbit(a) {
			return b
		}
		return a
	}
	return math.Max(a, b)
}

// f32Nearest/f64Nearest implement round-half-to-even, which neither
// math32 nor the standard math package exposes directly (math.Round/
// math32.Round round half away from zero).
func f32Nearest(v float32) float32 {
	return math32.Float32frombits(math32.Float32bits(float32(roundHalfEven(float64(v)))))
}

func f64Nearest(v float64) float64 {
	return roundHalfEven(v)
}

func roundHalfEven(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	floor := math.Floor(v)
	diff := v - floor
	var result float64
	switch {
	case diff < 0.5:
		result = floor
	case diff > 0.5:
		result = floor + 1
	default:
		if math.Mod(floor, 2) == 0 {
			result = floor
		} else {
			result = floor + 1
		}
	}
	// A magnitude that rounds to zero keeps the operand's sign (nearest(-0.3)
	// is -0.0, not 0.0), per the MVP's sign-of-zero rule.
	if result == 0 && math.Signbit(v) {
		return math.Copysign(0, v)
	}
	return result
}
