package wasm

import (
	"fmt"

	"github.com/vertexdlt/wasmvm/leb128"
	"github.com/vertexdlt/wasmvm/util"
)

// Instr is one decoded instruction. Which fields are meaningful depends on
// the opcode's Descriptor.Imm shape; the rest are left zero. Block, If and
// Else hold fully recursively decoded nested instruction streams, so Instr
// is a convenient shape for disassembly and static validation. The
// interpreter does not use this type: it walks the raw function-body bytes
// directly, since re-decoding into Instr on every call would throw away the
// point of an ip-addressable byte stream for branch targets.
type Instr struct {
	Op Opcode

	// ImmVarUint32, ImmVarInt32, ImmVarInt64, ImmFloat32, ImmFloat64
	U32 uint32
	I32 int32
	I64 int64
	F32 float32
	F64 float64

	// ImmMemory
	Align  uint32
	Offset uint32

	// ImmBlock / ImmIfElse
	BlockType BlockType
	Then      []Instr
	Else      []Instr

	// ImmCallIndir
	TypeIndex uint32

	// ImmBrTable
	Targets []uint32
	Default uint32
}

// decodeInstrs decodes instructions until it consumes a matching `end`
// (opcode 0x0B), which is itself appended to the result. Used both for a
// function body's top-level stream and for a block/loop/if's nested stream.
func decodeInstrs(r *util.ByteReader) ([]Instr, error) {
	var out []Instr
	for {
		in, err := decodeInstr(r)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
		if in.Op == OpEnd {
			return out, nil
		}
	}
}

func decodeInstr(r *util.ByteReader) (Instr, error) {
	b, err := r.ReadOne()
	if err != nil {
		return Instr{}, fmt.Errorf("wasm: %w", err)
	}
	op := Opcode(b)
	desc := LookupOpcode(op)
	if desc == nil {
		return Instr{}, fmt.Errorf("wasm: undefined opcode 0x%02x", b)
	}
	in := Instr{Op: op}

	switch desc.Imm {
	case ImmNullary:
		// nothing to read

	case ImmVarUint1:
		reserved, err := leb128.ReadVarUint1(r)
		if err != nil {
			return Instr{}, err
		}
		in.U32 = reserved

	case ImmVarUint32:
		v, err := leb128.ReadVarUint32(r)
		if err != nil {
			return Instr{}, err
		}
		in.U32 = v

	case ImmVarInt32:
		v, err := leb128.ReadVarInt32(r)
		if err != nil {
			return Instr{}, err
		}
		in.I32 = v

	case ImmVarInt64:
		v, err := leb128.ReadVarInt64(r)
		if err != nil {
			return Instr{}, err
		}
		in.I64 = v

	case ImmFloat32:
		v, err := leb128.ReadF32(r)
		if err != nil {
			return Instr{}, err
		}
		in.F32 = v

	case ImmFloat64:
		v, err := leb128.ReadF64(r)
		if err != nil {
			return Instr{}, err
		}
		in.F64 = v

	case ImmMemory:
		align, err := leb128.ReadVarUint32(r)
		if err != nil {
			return Instr{}, err
		}
		offset, err := leb128.ReadVarUint32(r)
		if err != nil {
			return Instr{}, err
		}
		in.Align = align
		in.Offset = offset

	case ImmBlock:
		bt, err := readBlockTypeByte(r)
		if err != nil {
			return Instr{}, err
		}
		in.BlockType = bt
		body, err := decodeInstrs(r)
		if err != nil {
			return Instr{}, err
		}
		in.Then = body

	case ImmIfElse:
		bt, err := readBlockTypeByte(r)
		if err != nil {
			return Instr{}, err
		}
		in.BlockType = bt
		body, err := decodeIfBody(r)
		if err != nil {
			return Instr{}, err
		}
		in.Then = body.then
		in.Else = body.els

	case ImmCallIndir:
		typeIdx, err := leb128.ReadVarUint32(r)
		if err != nil {
			return Instr{}, err
		}
		reserved, err := leb128.ReadVarUint1(r)
		if err != nil {
			return Instr{}, err
		}
		in.TypeIndex = typeIdx
		in.U32 = reserved

	case ImmBrTable:
		count, err := leb128.ReadVarUint32(r)
		if err != nil {
			return Instr{}, err
		}
		targets := make([]uint32, count)
		for i := range targets {
			t, err := leb128.ReadVarUint32(r)
			if err != nil {
				return Instr{}, err
			}
			targets[i] = t
		}
		def, err := leb128.ReadVarUint32(r)
		if err != nil {
			return Instr{}, err
		}
		in.Targets = targets
		in.Default = def

	default:
		return Instr{}, fmt.Errorf("wasm: opcode %s has unhandled immediate shape", desc.Mnemonic)
	}

	return in, nil
}

func readBlockTypeByte(r *util.ByteReader) (BlockType, error) {
	b, err := r.ReadOne()
	if err != nil {
		return 0, fmt.Errorf("wasm: %w", err)
	}
	return decodeBlockType(b)
}

type ifBody struct {
	then []Instr
	els  []Instr
}

// decodeIfBody decodes the then-branch, stopping at a matching `else` or
// `end`; when it stops at `else` it keeps decoding into the else-branch
// until the matching `end`. Both branches include their terminating
// opcode, mirroring decodeInstrs.
func decodeIfBody(r *util.ByteReader) (ifBody, error) {
	var then []Instr
	for {
		in, err := decodeInstr(r)
		if err != nil {
			return ifBody{}, err
		}
		then = append(then, in)
		if in.Op == OpEnd {
			return ifBody{then: then}, nil
		}
		if in.Op == OpElse {
			els, err := decodeInstrs(r)
			if err != nil {
				return ifBody{}, err
			}
			return ifBody{then: then, els: els}, nil
		}
	}
}

// encodeInstr appends the wire encoding of in to out.
func encodeInstr(out []byte, in Instr) []byte {
	desc := LookupOpcode(in.Op)
	out = append(out, byte(in.Op))
	switch desc.Imm {
	case ImmNullary:
	case ImmVarUint1:
		out = append(out, leb128.WriteVarUint1(in.U32)...)
	case ImmVarUint32:
		out = append(out, leb128.WriteVarUint32(in.U32)...)
	case ImmVarInt32:
		out = append(out, leb128.WriteVarInt32(in.I32)...)
	case ImmVarInt64:
		out = append(out, leb128.WriteVarInt64(in.I64)...)
	case ImmFloat32:
		out = append(out, leb128.WriteF32(in.F32)...)
	case ImmFloat64:
		out = append(out, leb128.WriteF64(in.F64)...)
	case ImmMemory:
		out = append(out, leb128.WriteVarUint32(in.Align)...)
		out = append(out, leb128.WriteVarUint32(in.Offset)...)
	case ImmBlock:
		out = append(out, in.BlockType.encode())
		for _, nested := range in.Then {
			out = encodeInstr(out, nested)
		}
	case ImmIfElse:
		out = append(out, in.BlockType.encode())
		for _, nested := range in.Then {
			out = encodeInstr(out, nested)
		}
		if in.Else != nil {
			// in.Then already ends in `else` (see decodeIfBody); the nested
			// loop above emitted it, so only the else-branch body remains.
			for _, nested := range in.Else {
				out = encodeInstr(out, nested)
			}
		}
	case ImmCallIndir:
		out = append(out, leb128.WriteVarUint32(in.TypeIndex)...)
		out = append(out, leb128.WriteVarUint1(in.U32)...)
	case ImmBrTable:
		out = append(out, leb128.WriteVarUint32(uint32(len(in.Targets)))...)
		for _, t := range in.Targets {
			out = append(out, leb128.WriteVarUint32(t)...)
		}
		out = append(out, leb128.WriteVarUint32(in.Default)...)
	}
	return out
}

// Format renders in as text resembling the Wasm text format, one line per
// instruction, recursing into nested blocks with indent-proportional spacing. Intended
// for the disassembly dump command, not for round-tripping.
func (in Instr) Format() string {
	return formatInstr(in, 0)
}

func formatInstr(in Instr, depth int) string {
	desc := LookupOpcode(in.Op)
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}
	switch desc.Imm {
	case ImmNullary, ImmVarUint1:
		return indent + desc.Mnemonic
	case ImmVarUint32:
		return fmt.Sprintf("%s%s %d", indent, desc.Mnemonic, in.U32)
	case ImmVarInt32:
		return fmt.Sprintf("%s%s %d", indent, desc.Mnemonic, in.I32)
	case ImmVarInt64:
		return fmt.Sprintf("%s%s %d", indent, desc.Mnemonic, in.I64)
	case ImmFloat32:
		return fmt.Sprintf("%s%s %g", indent, desc.Mnemonic, in.F32)
	case ImmFloat64:
		return fmt.Sprintf("%s%s %g", indent, desc.Mnemonic, in.F64)
	case ImmMemory:
		return fmt.Sprintf("%s%s align=%d offset=%d", indent, desc.Mnemonic, in.Align, in.Offset)
	case ImmBlock:
		s := fmt.Sprintf("%s%s %s", indent, desc.Mnemonic, in.BlockType)
		for _, nested := range in.Then {
			s += "\n" + formatInstr(nested, depth+1)
		}
		return s
	case ImmIfElse:
		s := fmt.Sprintf("%s%s %s", indent, desc.Mnemonic, in.BlockType)
		for _, nested := range in.Then {
			s += "\n" + formatInstr(nested, depth+1)
		}
		for _, nested := range in.Else {
			s += "\n" + formatInstr(nested, depth+1)
		}
		return s
	case ImmCallIndir:
		return fmt.Sprintf("%s%s (type %d)", indent, desc.Mnemonic, in.TypeIndex)
	case ImmBrTable:
		return fmt.Sprintf("%s%s %v default=%d", indent, desc.Mnemonic, in.Targets, in.Default)
	default:
		return indent + desc.Mnemonic
	}
}
