// Package section defines the fixed binary sections of the doccol blob
// container: the header, its flag word and the column index entries.
package section

const (
	// Bit masks of the packed Options field.
	EndiannessMask  = 0x0001 // bit 0: 1 = little endian
	ReservedMask    = 0x000E // bits 1-3: reserved, must be zero
	MagicNumberMask = 0xFFF0 // bits 4-15: magic number

	// MagicColumnV1Opt is the version 1 magic number of the column blob
	// format, stored in bits 4-15 of the Options field.
	MagicColumnV1Opt = 0xEC10
)

// Offsets and section sizes in the blob.
const (
	HeaderSize        = 32         // fixed header size in bytes
	IndexEntrySize    = 16         // fixed index entry size in bytes
	IndexOffsetOffset = HeaderSize // byte offset where the index section starts
)
