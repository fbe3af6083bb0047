package wasm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeValueTypeWireBytes(t *testing.T) {
	cases := []struct {
		b    byte
		want ValueType
	}{
		{0x7f, ValueTypeI32},
		{0x7e, ValueTypeI64},
		{0x7d, ValueTypeF32},
		{0x7c, ValueTypeF64},
	}
	for _, c := range cases {
		vt, err := decodeValueType(c.b)
		require.NoError(t, err)
		require.Equal(t, c.want, vt)
		require.Equal(t, c.b, vt.encode())
	}
}

func TestDecodeValueTypeRejectsInvalidByte(t *testing.T) {
	_, err := decodeValueType(0x7b)
	require.Error(t, err)
}

func TestBlockTypeEmptyAndValue(t *testing.T) {
	bt, err := decodeBlockType(0x40)
	require.NoError(t, err)
	require.Equal(t, BlockTypeEmpty, bt)
	require.Equal(t, 0, bt.Arity())
	_, ok := bt.ValueType()
	require.False(t, ok)

	bt, err = decodeBlockType(0x7f)
	require.NoError(t, err)
	require.Equal(t, 1, bt.Arity())
	vt, ok := bt.ValueType()
	require.True(t, ok)
	require.Equal(t, ValueTypeI32, vt)
}

func TestFuncTypeEqual(t *testing.T) {
	a := FuncType{Params: []ValueType{ValueTypeI32, ValueTypeI64}, Results: []ValueType{ValueTypeI32}}
	b := FuncType{Params: []ValueType{ValueTypeI32, ValueTypeI64}, Results: []ValueType{ValueTypeI32}}
	c := FuncType{Params: []ValueType{ValueTypeI64, ValueTypeI32}, Results: []ValueType{ValueTypeI32}}
	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
}
