package compress

// ZstdCompressor provides Zstandard compression for blob payloads. It favors
// compression ratio over speed, which suits archived or transmitted blobs.
//
// Two implementations exist behind build tags: a cgo binding (gozstd) when
// cgo is available, and a pure-Go fallback otherwise. Both produce standard
// zstd frames and interoperate freely.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd compressor with default settings.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
