// Package runtime builds and holds the live objects a Wasm module
// instantiates into: linear memories, function tables, global variables,
// function definitions, and the module instance that owns all of them.
package runtime

import (
	"math"

	"github.com/vertexdlt/wasmvm/wasm"
)

// Value is a tagged scalar: exactly one of the four Wasm value kinds, read
// off the interpreter's value stack or stored in a Variable/local slot.
type Value struct {
	Type wasm.ValueType
	bits uint64
}

// I32 wraps a signed 32-bit value.
func I32(v int32) Value { return Value{Type: wasm.ValueTypeI32, bits: uint64(uint32(v))} }

// I64 wraps a signed 64-bit value.
func I64(v int64) Value { return Value{Type: wasm.ValueTypeI64, bits: uint64(v)} }

// F32 wraps a binary32 value, preserving its exact bit pattern (including
// NaN payloads) rather than routing through arithmetic.
func F32(v float32) Value { return Value{Type: wasm.ValueTypeF32, bits: uint64(math.Float32bits(v))} }

// F64 wraps a binary64 value, preserving its exact bit pattern.
func F64(v float64) Value { return Value{Type: wasm.ValueTypeF64, bits: math.Float64bits(v)} }

// Zero returns the default-initialized Value for a declared value type:
// 0 for integers, 0.0 (positive zero) for floats.
func Zero(vt wasm.ValueType) Value {
	switch vt {
	case wasm.ValueTypeI32:
		return I32(0)
	case wasm.ValueTypeI64:
		return I64(0)
	case wasm.ValueTypeF32:
		return F32(0)
	case wasm.ValueTypeF64:
		return F64(0)
	}
	panic("runtime: invalid value type")
}

// I32 returns v's bit pattern reinterpreted as a signed 32-bit integer. The
// caller is responsible for checking Type first; this never panics and
// never converts, only reinterprets.
func (v Value) I32() int32 { return int32(uint32(v.bits)) }

// I64 returns v's bit pattern reinterpreted as a signed 64-bit integer.
func (v Value) I64() int64 { return int64(v.bits) }

// F32 returns v's bit pattern reinterpreted as a binary32 float.
func (v Value) F32() float32 { return math.Float32frombits(uint32(v.bits)) }

// F64 returns v's bit pattern reinterpreted as a binary64 float.
func (v Value) F64() float64 { return math.Float64frombits(v.bits) }

// Bits returns the raw 64-bit storage backing v, zero-extended from its
// native width. Used where values cross an untyped uint64 boundary.
func (v Value) Bits() uint64 { return v.bits }

// ValueFromBits reinterprets bits as a Value of the given type, keeping
// only the low 32 bits for i32 and all 64 bits otherwise. Used where values
// cross an untyped uint64 boundary.
func ValueFromBits(vt wasm.ValueType, bits uint64) Value {
	switch vt {
	case wasm.ValueTypeI32:
		return Value{Type: vt, bits: bits & 0xffffffff}
	case wasm.ValueTypeI64, wasm.ValueTypeF32, wasm.ValueTypeF64:
		return Value{Type: vt, bits: bits}
	}
	panic("runtime: invalid value type")
}
