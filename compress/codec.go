// Package compress provides the compression codecs applied to doccol blob
// payloads.
//
// Columns are already delta-compressed, but a blob holding many columns still
// benefits from a general-purpose pass over the payload section: literals,
// reference documents and control bytes compress well.
package compress

import (
	"fmt"

	"github.com/arloliu/doccol/format"
)

// Compressor compresses a complete blob payload.
type Compressor interface {
	// Compress compresses the input data and returns the compressed result.
	//
	// The input slice is not modified. The returned slice is owned by the
	// caller: NoOpCompressor returns the input slice itself, the other codecs
	// a newly allocated one.
	Compress(data []byte) ([]byte, error)
}

// Decompressor reverses a Compressor of the same compression type.
type Decompressor interface {
	// Decompress decompresses the input data and returns the original
	// payload. It returns an error when the data is corrupted or was
	// compressed with an incompatible algorithm.
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both compression and decompression capabilities.
type Codec interface {
	Compressor
	Decompressor
}

// NewCodec returns the codec for the given compression type.
func NewCodec(typ format.CompressionType) (Codec, error) {
	switch typ {
	case format.CompressionNone:
		return NewNoOpCompressor(), nil
	case format.CompressionZstd:
		return NewZstdCompressor(), nil
	case format.CompressionS2:
		return NewS2Compressor(), nil
	case format.CompressionLZ4:
		return NewLZ4Compressor(), nil
	default:
		return nil, fmt.Errorf("compress: unknown compression type %d", typ)
	}
}
