package number

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFloatTruncateNormal(t *testing.T) {
	bits := math.Float64bits(3.9)
	v, trap := FloatTruncate(F64, I32, bits)
	require.Equal(t, NoTrap, trap)
	require.Equal(t, int32(3), int32(v))

	bits = math.Float64bits(-3.9)
	v, trap = FloatTruncate(F64, I32, bits)
	require.Equal(t, NoTrap, trap)
	require.Equal(t, int32(-3), int32(v))
}

func TestFloatTruncateNaN(t *testing.T) {
	_, trap := FloatTruncate(F64, I32, math.Float64bits(math.NaN()))
	require.Equal(t, NanTrap, trap)
}

func TestFloatTruncateOutOfRange(t *testing.T) {
	_, trap := FloatTruncate(F64, I32, math.Float64bits(math.Inf(1)))
	require.Equal(t, ConvertTrap, trap)

	_, trap = FloatTruncate(F64, I32, math.Float64bits(math.Inf(-1)))
	require.Equal(t, ConvertTrap, trap)

	_, trap = FloatTruncate(F64, I32, math.Float64bits(1e20))
	require.Equal(t, ConvertTrap, trap)
}

func TestFloatTruncateI64Boundaries(t *testing.T) {
	v, trap := FloatTruncate(F64, I64, math.Float64bits(float64(math.MinInt64)))
	require.Equal(t, NoTrap, trap)
	require.Equal(t, int64(math.MinInt64), int64(v))

	_, trap = FloatTruncate(F64, I64, math.Float64bits(9.3e18*1000))
	require.Equal(t, ConvertTrap, trap)
}
