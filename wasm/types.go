package wasm

import "fmt"

// ValueType is one of the four MVP scalar kinds. On the wire it is a single
// byte in [0x7c, 0x7f] that, read as a signed 7-bit LEB128 integer, comes out
// negative — hence the -0x01..-0x04 tags named in the binary format.
type ValueType int8

const (
	ValueTypeI32 ValueType = -0x01
	ValueTypeI64 ValueType = -0x02
	ValueTypeF32 ValueType = -0x03
	ValueTypeF64 ValueType = -0x04
)

func (v ValueType) String() string {
	switch v {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	default:
		return fmt.Sprintf("valuetype(%d)", int8(v))
	}
}

// decodeTypeByte turns a wire byte in [0x40, 0x7f] into the signed tag value
// the Wasm binary format assigns it (a byte read as a signed 7-bit LEB128
// integer: bytes with bit 6 set decode negative).
func decodeTypeByte(b byte) int8 {
	if b&0x40 != 0 {
		return int8(int(b) - 0x80)
	}
	return int8(b)
}

// encodeTypeByte is the inverse of decodeTypeByte.
func encodeTypeByte(tag int8) byte {
	return byte(tag) & 0x7f
}

func decodeValueType(b byte) (ValueType, error) {
	switch vt := ValueType(decodeTypeByte(b)); vt {
	case ValueTypeI32, ValueTypeI64, ValueTypeF32, ValueTypeF64:
		return vt, nil
	default:
		return 0, fmt.Errorf("wasm: invalid value type byte 0x%02x", b)
	}
}

func (v ValueType) encode() byte {
	return encodeTypeByte(int8(v))
}

// BlockType is either a ValueType (the block produces one value) or the
// empty marker (the block produces none). MVP limits block/function arity
// to 0 or 1 values.
type BlockType int8

// BlockTypeEmpty is the block-type tag meaning "no result".
const BlockTypeEmpty BlockType = -0x40

// Arity returns the number of values a block of this type leaves on the
// stack upon normal (non-branching) completion.
func (bt BlockType) Arity() int {
	if bt == BlockTypeEmpty {
		return 0
	}
	return 1
}

// ValueType returns the block's result type and true, or (0, false) if the
// block type is empty.
func (bt BlockType) ValueType() (ValueType, bool) {
	if bt == BlockTypeEmpty {
		return 0, false
	}
	return ValueType(bt), true
}

func decodeBlockType(b byte) (BlockType, error) {
	tag := decodeTypeByte(b)
	if BlockType(tag) == BlockTypeEmpty {
		return BlockTypeEmpty, nil
	}
	if _, err := decodeValueType(b); err != nil {
		return 0, fmt.Errorf("wasm: invalid block type byte 0x%02x", b)
	}
	return BlockType(tag), nil
}

func (bt BlockType) encode() byte {
	return encodeTypeByte(int8(bt))
}

func (bt BlockType) String() string {
	if bt == BlockTypeEmpty {
		return ""
	}
	return ValueType(bt).String()
}

// ElemTypeFuncRef is the only table element type the MVP supports.
const ElemTypeFuncRef byte = 0x70

// FuncTypeForm is the fixed signature byte preceding a function type's
// parameter/result vectors in the type section.
const FuncTypeForm byte = 0x60

// Mutability flags a global as constant or mutable.
type Mutability byte

const (
	Immutable Mutability = 0x00
	Mutable   Mutability = 0x01
)

// FuncType is a function signature: an ordered parameter list and an
// ordered result list. MVP limits result count to 0 or 1 but nothing in the
// model assumes that.
type FuncType struct {
	Params  []ValueType
	Results []ValueType
}

func (ft FuncType) String() string {
	return fmt.Sprintf("%v -> %v", ft.Params, ft.Results)
}

// Equal reports whether ft and other declare the same parameter and result
// types, value by value. Used for call_indirect type checks and import
// signature matching, both of which the spec requires to be exact.
func (ft FuncType) Equal(other FuncType) bool {
	if len(ft.Params) != len(other.Params) || len(ft.Results) != len(other.Results) {
		return false
	}
	for i := range ft.Params {
		if ft.Params[i] != other.Params[i] {
			return false
		}
	}
	for i := range ft.Results {
		if ft.Results[i] != other.Results[i] {
			return false
		}
	}
	return true
}

// Limits bounds a resizable table or memory: Initial is required, Maximum is
// present only when HasMax is set.
type Limits struct {
	Initial uint32
	Maximum uint32
	HasMax  bool
}

// MemoryType is a memory's resizable limits, expressed in pages.
type MemoryType struct {
	Limits Limits
}

// TableType is a table's element type (always funcref in the MVP) plus its
// resizable limits, expressed in element count.
type TableType struct {
	ElemType byte
	Limits   Limits
}

// GlobalType is a global's value type plus its mutability.
type GlobalType struct {
	ValueType  ValueType
	Mutability Mutability
}
