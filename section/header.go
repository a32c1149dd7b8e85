package section

import (
	"github.com/arloliu/doccol/errs"
)

// BlobHeader is the fixed-size header at the start of a column blob.
//
// On-disk layout (32 bytes):
//
//	offset 0-1   Options (uint16, always little-endian)
//	offset 2     reserved
//	offset 3     CompressionType
//	offset 4-7   ColumnCount
//	offset 8-11  IndexOffset
//	offset 12-15 PayloadOffset
//	offset 16-23 PayloadChecksum (xxHash64 of the uncompressed payload)
//	offset 24-27 PayloadSize (uncompressed, in bytes)
//	offset 28-31 reserved
type BlobHeader struct {
	Flag BlobFlag

	// ColumnCount is the number of columns stored in the blob.
	ColumnCount uint32

	// IndexOffset is the byte offset of the index section.
	IndexOffset uint32

	// PayloadOffset is the byte offset of the (possibly compressed) payload
	// section.
	PayloadOffset uint32

	// PayloadChecksum is the xxHash64 of the uncompressed payload.
	PayloadChecksum uint64

	// PayloadSize is the uncompressed payload size in bytes.
	PayloadSize uint32
}

// NewBlobHeader creates a header with default flags. Counts and offsets are
// filled in when the encoder finishes.
func NewBlobHeader() *BlobHeader {
	return &BlobHeader{
		Flag:        NewBlobFlag(),
		IndexOffset: IndexOffsetOffset,
	}
}

// Parse parses the header from a byte slice.
func (h *BlobHeader) Parse(data []byte) error {
	if len(data) < HeaderSize {
		return errs.ErrInvalidHeaderSize
	}

	// The Options field itself is always little-endian so the endianness bit
	// can be read before an engine is chosen.
	h.Flag.Options = uint16(data[0]) | uint16(data[1])<<8
	h.Flag.CompressionType = data[3]
	if err := h.Flag.Validate(); err != nil {
		return err
	}

	engine := h.Flag.GetEndianEngine()
	h.ColumnCount = engine.Uint32(data[4:8])
	h.IndexOffset = engine.Uint32(data[8:12])
	h.PayloadOffset = engine.Uint32(data[12:16])
	h.PayloadChecksum = engine.Uint64(data[16:24])
	h.PayloadSize = engine.Uint32(data[24:28])

	return nil
}

// AppendTo serializes the header to dst and returns the extended slice.
func (h *BlobHeader) AppendTo(dst []byte) []byte {
	engine := h.Flag.GetEndianEngine()

	dst = append(dst, byte(h.Flag.Options), byte(h.Flag.Options>>8))
	dst = append(dst, 0, h.Flag.CompressionType)
	dst = engine.AppendUint32(dst, h.ColumnCount)
	dst = engine.AppendUint32(dst, h.IndexOffset)
	dst = engine.AppendUint32(dst, h.PayloadOffset)
	dst = engine.AppendUint64(dst, h.PayloadChecksum)
	dst = engine.AppendUint32(dst, h.PayloadSize)

	return append(dst, 0, 0, 0, 0)
}
