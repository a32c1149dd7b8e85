package num128

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUint128_AddSub(t *testing.T) {
	a := New(0, math.MaxUint64)
	b := FromUint64(1)

	sum := a.Add(b)
	require.Equal(t, New(1, 0), sum, "carry must propagate into the high half")
	require.Equal(t, a, sum.Sub(b), "subtraction must reverse addition")

	// Wrap-around at zero behaves like two's complement.
	minusOne := Uint128{}.Sub(FromUint64(1))
	require.Equal(t, New(math.MaxUint64, math.MaxUint64), minusOne)
	require.Equal(t, -1, minusOne.Sign())
}

func TestUint128_BitLen(t *testing.T) {
	require.Equal(t, 0, Uint128{}.BitLen())
	require.Equal(t, 1, FromUint64(1).BitLen())
	require.Equal(t, 64, FromUint64(math.MaxUint64).BitLen())
	require.Equal(t, 65, New(1, 0).BitLen())
	require.Equal(t, 128, New(math.MaxUint64, 0).BitLen())
}

func TestUint128_Shifts(t *testing.T) {
	v := FromUint64(1)

	require.Equal(t, New(1, 0), v.Lsh(64))
	require.Equal(t, New(0, 1<<10), v.Lsh(10).Rsh(0).Lsh(0))
	require.Equal(t, v, v.Lsh(100).Rsh(100))
	require.Equal(t, New(1<<3, 0), v.Lsh(67))

	// Cross-boundary shifts move bits between halves.
	x := New(0, 0xFF00000000000000)
	require.Equal(t, New(0xF, 0xF000000000000000), x.Lsh(4))
	require.Equal(t, New(0, 0x0FF0000000000000), x.Rsh(4))
}

func TestUint128_Sign(t *testing.T) {
	require.Equal(t, 0, Uint128{}.Sign())
	require.Equal(t, 1, FromUint64(42).Sign())
	require.Equal(t, 1, New(1<<62, 0).Sign())
	require.Equal(t, -1, New(1<<63, 0).Sign())
}

func TestUint128_NegXor(t *testing.T) {
	v := New(7, 9)
	require.Equal(t, Uint128{}, v.Add(v.Neg()))
	require.Equal(t, v, v.Xor(Uint128{}))
	require.Equal(t, Uint128{}, v.Xor(v))
}
