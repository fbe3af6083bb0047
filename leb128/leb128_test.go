package leb128

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vertexdlt/wasmvm/util"
)

func TestVarUint32RoundTrip(t *testing.T) {
	cases := []uint32{0, 1, 127, 128, 300, math.MaxUint32, 0x80808080}
	for _, c := range cases {
		encoded := WriteVarUint32(c)
		got, err := ReadVarUint32(util.NewByteReader(encoded))
		require.NoError(t, err)
		require.Equal(t, c, got)
	}
}

func TestVarInt32RoundTrip(t *testing.T) {
	cases := []int32{0, -1, 1, 63, -64, 127, -128, math.MinInt32, math.MaxInt32}
	for _, c := range cases {
		encoded := WriteVarInt32(c)
		got, err := ReadVarInt32(util.NewByteReader(encoded))
		require.NoError(t, err)
		require.Equal(t, c, got)
	}
}

func TestVarUint64RoundTrip(t *testing.T) {
	cases := []uint64{0, 1, math.MaxUint64, 1 << 63, 0xdeadbeefcafebabe}
	for _, c := range cases {
		encoded := WriteVarUint64(c)
		got, err := ReadVarUint64(util.NewByteReader(encoded))
		require.NoError(t, err)
		require.Equal(t, c, got)
	}
}

func TestVarInt64RoundTrip(t *testing.T) {
	cases := []int64{0, -1, math.MinInt64, math.MaxInt64, 123456789}
	for _, c := range cases {
		encoded := WriteVarInt64(c)
		got, err := ReadVarInt64(util.NewByteReader(encoded))
		require.NoError(t, err)
		require.Equal(t, c, got)
	}
}

func TestVarUint1And7(t *testing.T) {
	got, err := ReadVarUint1(util.NewByteReader(WriteVarUint1(1)))
	require.NoError(t, err)
	require.Equal(t, uint32(1), got)

	got, err = ReadVarUint7(util.NewByteReader(WriteVarUint7(0x7f)))
	require.NoError(t, err)
	require.Equal(t, uint32(0x7f), got)
}

func TestFloatRoundTrip(t *testing.T) {
	f32, err := ReadF32(util.NewByteReader(WriteF32(float32(math.Pi))))
	require.NoError(t, err)
	require.Equal(t, float32(math.Pi), f32)

	// NaN payload must survive bit for bit.
	nan32 := math.Float32frombits(0x7fc00001)
	got32, err := ReadF32(util.NewByteReader(WriteF32(nan32)))
	require.NoError(t, err)
	require.Equal(t, math.Float32bits(nan32), math.Float32bits(got32))

	f64, err := ReadF64(util.NewByteReader(WriteF64(math.Pi)))
	require.NoError(t, err)
	require.Equal(t, math.Pi, f64)
}

func TestStringRoundTrip(t *testing.T) {
	s, err := ReadString(util.NewByteReader(WriteString("hello, wasm")))
	require.NoError(t, err)
	require.Equal(t, "hello, wasm", s)

	empty, err := ReadString(util.NewByteReader(WriteString("")))
	require.NoError(t, err)
	require.Equal(t, "", empty)
}

func TestReadRejectsOverlongEncoding(t *testing.T) {
	// four continuation bytes plus a final byte: 35 significant bits, with
	// bits set above bit 31, for a 32-bit read, which must be rejected.
	overlong := []byte{0xff, 0xff, 0xff, 0xff, 0x7f}
	_, err := ReadVarUint32(util.NewByteReader(overlong))
	require.ErrorIs(t, err, ErrOverlong)
}

func TestReadRejectsTruncatedStream(t *testing.T) {
	_, err := ReadVarUint32(util.NewByteReader([]byte{0x80, 0x80}))
	require.Error(t, err)
}
