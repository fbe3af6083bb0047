package wasm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeInstrsNullaryAndImmediates(t *testing.T) {
	raw := EncodeInstrs([]Instr{
		{Op: OpI32Const, I32: -7},
		{Op: OpI64Const, I64: 42},
		{Op: OpF32Const, F32: 1.5},
		{Op: OpF64Const, F64: 2.25},
		{Op: OpI32Add},
		{Op: OpEnd},
	})
	instrs, err := DecodeInstrs(raw)
	require.NoError(t, err)
	require.Len(t, instrs, 6)
	require.Equal(t, int32(-7), instrs[0].I32)
	require.Equal(t, int64(42), instrs[1].I64)
	require.Equal(t, float32(1.5), instrs[2].F32)
	require.Equal(t, 2.25, instrs[3].F64)
	require.Equal(t, OpEnd, instrs[5].Op)
}

func TestDecodeInstrsNestedBlock(t *testing.T) {
	raw := EncodeInstrs([]Instr{
		{
			Op:        OpBlock,
			BlockType: BlockTypeEmpty,
			Then: []Instr{
				{Op: OpNop},
				{Op: OpEnd},
			},
		},
		{Op: OpEnd},
	})
	instrs, err := DecodeInstrs(raw)
	require.NoError(t, err)
	require.Len(t, instrs, 2)
	require.Equal(t, OpBlock, instrs[0].Op)
	require.Len(t, instrs[0].Then, 2)
	require.Equal(t, OpNop, instrs[0].Then[0].Op)
}

func TestDecodeInstrsIfElse(t *testing.T) {
	raw := EncodeInstrs([]Instr{
		{
			Op:        OpIf,
			BlockType: BlockType(ValueTypeI32),
			Then: []Instr{
				{Op: OpI32Const, I32: 1},
				{Op: OpElse},
			},
			Else: []Instr{
				{Op: OpI32Const, I32: 0},
				{Op: OpEnd},
			},
		},
		{Op: OpEnd},
	})
	instrs, err := DecodeInstrs(raw)
	require.NoError(t, err)
	require.Equal(t, OpIf, instrs[0].Op)
	require.Equal(t, OpElse, instrs[0].Then[len(instrs[0].Then)-1].Op)
	require.Equal(t, int32(0), instrs[0].Else[0].I32)
}

func TestDecodeInstrsBrTable(t *testing.T) {
	raw := EncodeInstrs([]Instr{
		{Op: OpBrTable, Targets: []uint32{0, 1, 2}, Default: 3},
		{Op: OpEnd},
	})
	instrs, err := DecodeInstrs(raw)
	require.NoError(t, err)
	require.Equal(t, []uint32{0, 1, 2}, instrs[0].Targets)
	require.Equal(t, uint32(3), instrs[0].Default)
}

func TestDecodeInstrsCallIndirectAndMemory(t *testing.T) {
	raw := EncodeInstrs([]Instr{
		{Op: OpCallIndir, TypeIndex: 5},
		{Op: OpI32Load, Align: 2, Offset: 16},
		{Op: OpEnd},
	})
	instrs, err := DecodeInstrs(raw)
	require.NoError(t, err)
	require.Equal(t, uint32(5), instrs[0].TypeIndex)
	require.Equal(t, uint32(2), instrs[1].Align)
	require.Equal(t, uint32(16), instrs[1].Offset)
}

func TestLookupOpcodeUndefinedByte(t *testing.T) {
	require.Nil(t, LookupOpcode(Opcode(0xC0)))
}

func TestInstrFormat(t *testing.T) {
	in := Instr{Op: OpI32Const, I32: 7}
	require.Equal(t, "i32.const 7", in.Format())
}
