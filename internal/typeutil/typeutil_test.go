package typeutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/doccol/num128"
)

func TestEncodeInt64_ZigZag(t *testing.T) {
	cases := []struct {
		in   int64
		want uint64
	}{
		{0, 0},
		{-1, 1},
		{1, 2},
		{-2, 3},
		{2, 4},
		{math.MaxInt64, math.MaxUint64 - 1},
		{math.MinInt64, math.MaxUint64},
	}
	for _, c := range cases {
		require.Equal(t, c.want, EncodeInt64(c.in))
		require.Equal(t, c.in, DecodeInt64(EncodeInt64(c.in)))
	}
}

func TestEncodeInt128_ZigZag(t *testing.T) {
	cases := []num128.Uint128{
		{},
		num128.FromUint64(1),
		num128.FromUint64(1).Neg(), // -1
		num128.New(1<<62, 12345),
		num128.New(1<<63, 0), // most negative
	}
	for _, c := range cases {
		require.Equal(t, c, DecodeInt128(EncodeInt128(c)))
	}

	// Small magnitudes encode small: -1 -> 1, 1 -> 2.
	require.Equal(t, num128.FromUint64(1), EncodeInt128(num128.FromUint64(1).Neg()))
	require.Equal(t, num128.FromUint64(2), EncodeInt128(num128.FromUint64(1)))
}

func TestEncodeDouble_ScaleSelection(t *testing.T) {
	// Integral values encode at scale 0.
	encoded, ok := EncodeDouble(1.0, 0)
	require.True(t, ok)
	require.Equal(t, int64(1), encoded)

	// 1.1 needs one decimal digit.
	_, ok = EncodeDouble(1.1, 0)
	require.False(t, ok)
	encoded, ok = EncodeDouble(1.1, 1)
	require.True(t, ok)
	require.Equal(t, int64(11), encoded)

	// Pi survives no decimal scale; the memory path always succeeds.
	for idx := uint8(0); idx < MemoryAsInteger; idx++ {
		_, ok = EncodeDouble(math.Pi, idx)
		require.False(t, ok, "scale index %d", idx)
	}
	encoded, ok = EncodeDouble(math.Pi, MemoryAsInteger)
	require.True(t, ok)
	require.Equal(t, math.Pi, DecodeDouble(encoded, MemoryAsInteger))
}

func TestEncodeDouble_RoundTripBitForBit(t *testing.T) {
	values := []float64{0, 1, -1, 0.5, 1.25, 3.14159, 1e8, -273.15, math.Inf(1), math.NaN(), math.Copysign(0, -1)}
	for _, v := range values {
		for idx := uint8(0); idx <= MemoryAsInteger; idx++ {
			encoded, ok := EncodeDouble(v, idx)
			if !ok {
				continue
			}
			require.Equal(t, math.Float64bits(v), math.Float64bits(DecodeDouble(encoded, idx)),
				"value %v at scale index %d", v, idx)
		}
	}
}

func TestEncodeDouble_NegativeZeroNeedsMemoryPath(t *testing.T) {
	negZero := math.Copysign(0, -1)
	for idx := uint8(0); idx < MemoryAsInteger; idx++ {
		_, ok := EncodeDouble(negZero, idx)
		require.False(t, ok)
	}
	encoded, ok := EncodeDouble(negZero, MemoryAsInteger)
	require.True(t, ok)
	require.Equal(t, math.Float64bits(negZero), math.Float64bits(DecodeDouble(encoded, MemoryAsInteger)))
}

func TestEncodeObjectID(t *testing.T) {
	oid := []byte{
		0x00, 0x00, 0x00, 0x01, // timestamp
		0xAA, 0xBB, 0xCC, 0xDD, 0xEE, // instance unique, excluded
		0x00, 0x00, 0x02, // counter
	}
	require.Equal(t, int64(1<<24|2), EncodeObjectID(oid))

	// Consecutive counters delta by one regardless of the instance-unique
	// bytes.
	next := append([]byte(nil), oid...)
	next[11] = 0x03
	require.Equal(t, int64(1), EncodeObjectID(next)-EncodeObjectID(oid))
}

func TestEncodeString(t *testing.T) {
	// Longer than 16 bytes fails.
	_, ok := EncodeString("situated-well-beyond-sixteen")
	require.False(t, ok)

	// A leading NUL is ambiguous with a shorter string.
	_, ok = EncodeString("\x00abc")
	require.False(t, ok)

	empty, ok := EncodeString("")
	require.True(t, ok)
	require.True(t, empty.IsZero())

	// Same-length strings sharing a prefix produce tiny deltas.
	a, ok := EncodeString("user1")
	require.True(t, ok)
	b, ok := EncodeString("user2")
	require.True(t, ok)
	require.Equal(t, num128.FromUint64(1), b.Sub(a))

	// 16 bytes is the limit.
	_, ok = EncodeString("exactly-16-chars")
	require.True(t, ok)
}

func TestEncodeBinary(t *testing.T) {
	_, ok := EncodeBinary(make([]byte, 17))
	require.False(t, ok)

	empty, ok := EncodeBinary(nil)
	require.True(t, ok)
	require.True(t, empty.IsZero())

	a, ok := EncodeBinary([]byte{1, 2, 3})
	require.True(t, ok)
	require.Equal(t, num128.FromUint64(0x030201), a)

	b, ok := EncodeBinary([]byte{1, 2, 4})
	require.True(t, ok)
	require.Equal(t, num128.FromUint64(0x010000), b.Sub(a))
}

func TestEncodeDecimal128_Identity(t *testing.T) {
	d := num128.New(0x3040000000000000, 42)
	require.Equal(t, d, EncodeDecimal128(d))
}
