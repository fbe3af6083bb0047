package interp

import (
	"fmt"

	"github.com/vertexdlt/wasmvm/leb128"
	"github.com/vertexdlt/wasmvm/util"
	"github.com/vertexdlt/wasmvm/wasm"
)

// The engine's live (non-skip) opcode handlers read immediates through
// these thin wrappers around leb128, rather than through wasm.Instr, since
// the interpreter addresses function bodies by raw byte offset and never
// materializes a decoded instruction tree.

func readVarUint32(r *util.ByteReader) (uint32, error) {
	return leb128.ReadVarUint32(r)
}

func readVarInt32(r *util.ByteReader) (int32, error) {
	return leb128.ReadVarInt32(r)
}

func readVarInt64(r *util.ByteReader) (int64, error) {
	return leb128.ReadVarInt64(r)
}

func readF32(r *util.ByteReader) (float32, error) {
	return leb128.ReadF32(r)
}

func readF64(r *util.ByteReader) (float64, error) {
	return leb128.ReadF64(r)
}

// memImm is a decoded alignment-hint + offset pair for a load/store.
type memImm struct {
	Align  uint32
	Offset uint32
}

func readMemImm(r *util.ByteReader) (memImm, error) {
	align, err := readVarUint32(r)
	if err != nil {
		return memImm{}, err
	}
	offset, err := readVarUint32(r)
	if err != nil {
		return memImm{}, err
	}
	return memImm{Align: align, Offset: offset}, nil
}

// readBlockType mirrors the wasm package's private decodeBlockType: a
// block-type byte is read as a signed 7-bit value, either the empty marker
// (-0x40) or one of the four value-type tags. Duplicated here (rather than
// exported from wasm) since the codec's block-type decoding is tied to its
// recursive Instr tree, which the interpreter never builds.
func readBlockType(r *util.ByteReader) (wasm.BlockType, error) {
	b, err := r.ReadOne()
	if err != nil {
		return 0, err
	}
	tag := int8(b)
	if tag&0x40 != 0 {
		tag = int8(int(b) - 0x80)
	}
	bt := wasm.BlockType(tag)
	if bt == wasm.BlockTypeEmpty {
		return bt, nil
	}
	if _, ok := bt.ValueType(); !ok {
		return 0, fmt.Errorf("interp: invalid block type byte 0x%02x", b)
	}
	return bt, nil
}

// readCallIndirImm reads call_indirect's type-index + reserved-byte
// immediate.
func readCallIndirImm(r *util.ByteReader) (uint32, error) {
	typeIdx, err := readVarUint32(r)
	if err != nil {
		return 0, err
	}
	if _, err := leb128.ReadVarUint1(r); err != nil {
		return 0, err
	}
	return typeIdx, nil
}

// readBrTableImm reads br_table's target-label vector and default label.
func readBrTableImm(r *util.ByteReader) (targets []uint32, def uint32, err error) {
	count, err := readVarUint32(r)
	if err != nil {
		return nil, 0, err
	}
	targets = make([]uint32, count)
	for i := range targets {
		if targets[i], err = readVarUint32(r); err != nil {
			return nil, 0, err
		}
	}
	def, err = readVarUint32(r)
	return targets, def, err
}
