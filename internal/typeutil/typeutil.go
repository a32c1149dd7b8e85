// Package typeutil implements the reversible scalar encodings used by the
// column encoders: zig-zag packing of signed deltas, scaled-integer encoding
// of doubles, and the 64/128-bit integer representations of ObjectIDs,
// strings, binary data and decimal128 values.
package typeutil

import (
	"encoding/binary"
	"math"

	"github.com/arloliu/doccol/num128"
)

// Scale indexes for double encoding. Indexes 0..4 select a decimal
// multiplier; MemoryAsInteger reinterprets the IEEE-754 bit pattern as an
// integer and always succeeds.
const (
	ScaleIndexCount        = 6
	MemoryAsInteger  uint8 = 5
)

// scaleMultipliers maps scale index 0..4 to its decimal multiplier.
var scaleMultipliers = [MemoryAsInteger]float64{1, 10, 100, 10000, 100000000}

// maxMagnitude bounds scaled doubles to the range where float64 represents
// every integer exactly.
const maxMagnitude = float64(1 << 53)

// MaxStringSize is the largest string encodable into 128 bits.
const MaxStringSize = 16

// MaxBinarySize is the largest binary payload encodable into 128 bits.
const MaxBinarySize = 16

// EncodeInt64 zig-zag encodes a signed delta into an unsigned integer.
func EncodeInt64(v int64) uint64 {
	return uint64((v << 1) ^ (v >> 63))
}

// DecodeInt64 reverses EncodeInt64.
func DecodeInt64(v uint64) int64 {
	return int64(v>>1) ^ -int64(v&1)
}

// EncodeInt128 zig-zag encodes a signed 128-bit delta.
func EncodeInt128(v num128.Uint128) num128.Uint128 {
	shifted := v.Lsh(1)
	if v.Hi&(1<<63) != 0 {
		return shifted.Xor(num128.New(math.MaxUint64, math.MaxUint64))
	}

	return shifted
}

// DecodeInt128 reverses EncodeInt128.
func DecodeInt128(v num128.Uint128) num128.Uint128 {
	half := v.Rsh(1)
	if v.Lo&1 != 0 {
		return half.Xor(num128.New(math.MaxUint64, math.MaxUint64))
	}

	return half
}

// EncodeDouble encodes a double as a scaled integer for the given scale
// index. It reports false when the scaled value cannot be decoded back
// bit-for-bit, in which case the caller should try a larger scale index.
// MemoryAsInteger reinterprets the IEEE-754 bit pattern and always succeeds.
func EncodeDouble(v float64, scaleIndex uint8) (int64, bool) {
	if scaleIndex == MemoryAsInteger {
		return int64(math.Float64bits(v)), true
	}

	scaled := v * scaleMultipliers[scaleIndex]
	if math.IsNaN(scaled) || scaled > maxMagnitude || scaled < -maxMagnitude {
		return 0, false
	}

	rounded := int64(math.Round(scaled))
	// The encoding is only usable if decoding reproduces the exact bit
	// pattern, -0.0 included.
	if math.Float64bits(DecodeDouble(rounded, scaleIndex)) != math.Float64bits(v) {
		return 0, false
	}

	return rounded, true
}

// DecodeDouble reverses EncodeDouble for the given scale index.
func DecodeDouble(encoded int64, scaleIndex uint8) float64 {
	if scaleIndex == MemoryAsInteger {
		return math.Float64frombits(uint64(encoded))
	}

	return float64(encoded) / scaleMultipliers[scaleIndex]
}

// EncodeObjectID packs the 4-byte timestamp and 3-byte counter of an ObjectID
// into a 56-bit integer, timestamp in the high bits. The 5-byte
// instance-unique portion is excluded; callers must verify it is unchanged
// before delta-encoding two ObjectIDs.
func EncodeObjectID(oid []byte) int64 {
	ts := binary.BigEndian.Uint32(oid[0:4])
	counter := uint64(oid[9])<<16 | uint64(oid[10])<<8 | uint64(oid[11])

	return int64(uint64(ts)<<24 | counter)
}

// EncodeString encodes a string of at most MaxStringSize bytes into a 128-bit
// integer with the first byte in the most significant position, so strings
// with a shared prefix produce small deltas. Decoding recovers the length
// from the highest non-zero byte, which rules out strings with a leading NUL.
func EncodeString(s string) (num128.Uint128, bool) {
	if len(s) > MaxStringSize {
		return num128.Uint128{}, false
	}
	if len(s) > 0 && s[0] == 0 {
		return num128.Uint128{}, false
	}

	var enc num128.Uint128
	for i := 0; i < len(s); i++ {
		enc = enc.Lsh(8)
		enc = enc.Add(num128.FromUint64(uint64(s[i])))
	}

	return enc, true
}

// EncodeBinary encodes a binary payload of at most MaxBinarySize bytes into a
// 128-bit integer, first byte in the least significant position. The caller
// must keep the payload size externally: delta encoding of binary values is
// only allowed between payloads of identical size.
func EncodeBinary(data []byte) (num128.Uint128, bool) {
	if len(data) > MaxBinarySize {
		return num128.Uint128{}, false
	}

	var enc num128.Uint128
	for i := len(data) - 1; i >= 0; i-- {
		enc = enc.Lsh(8)
		enc = enc.Add(num128.FromUint64(uint64(data[i])))
	}

	return enc, true
}

// EncodeDecimal128 encodes a decimal128 payload. The mapping is the identity
// on the 128-bit representation and always succeeds.
func EncodeDecimal128(d num128.Uint128) num128.Uint128 {
	return d
}
