package section

import (
	"github.com/arloliu/doccol/endian"
	"github.com/arloliu/doccol/errs"
)

// IndexEntry records one column in the blob index section. It is a fixed 16
// bytes on disk.
type IndexEntry struct {
	// FieldID is the xxHash64 of the column's field name.
	//
	// Offset: 0, Size: 8 bytes
	FieldID uint64

	// Offset is the byte offset of the column within the uncompressed
	// payload section.
	//
	// Offset: 8, Size: 4 bytes
	Offset uint32

	// Size is the byte length of the column.
	//
	// Offset: 12, Size: 4 bytes
	Size uint32
}

// Parse parses an index entry from a byte slice.
func (e *IndexEntry) Parse(data []byte, engine endian.EndianEngine) error {
	if len(data) < IndexEntrySize {
		return errs.ErrInvalidIndex
	}

	e.FieldID = engine.Uint64(data[0:8])
	e.Offset = engine.Uint32(data[8:12])
	e.Size = engine.Uint32(data[12:16])

	return nil
}

// AppendTo serializes the entry to dst and returns the extended slice.
func (e *IndexEntry) AppendTo(dst []byte, engine endian.EndianEngine) []byte {
	dst = engine.AppendUint64(dst, e.FieldID)
	dst = engine.AppendUint32(dst, e.Offset)

	return engine.AppendUint32(dst, e.Size)
}
