package section

import (
	"github.com/arloliu/doccol/endian"
	"github.com/arloliu/doccol/errs"
	"github.com/arloliu/doccol/format"
)

// BlobFlag is the packed flag word of a blob header: a 16-bit Options field
// (endianness bit plus magic number) and the payload compression type.
type BlobFlag struct {
	Options         uint16
	CompressionType uint8
}

// NewBlobFlag returns the default flag: version 1 magic, little endian, no
// compression.
func NewBlobFlag() BlobFlag {
	return BlobFlag{
		Options:         MagicColumnV1Opt | EndiannessMask,
		CompressionType: uint8(format.CompressionNone),
	}
}

// IsLittleEndian reports whether the blob sections use little-endian byte
// order.
func (f BlobFlag) IsLittleEndian() bool {
	return f.Options&EndiannessMask != 0
}

// SetLittleEndian sets the endianness bit.
func (f *BlobFlag) SetLittleEndian(little bool) {
	if little {
		f.Options |= EndiannessMask
	} else {
		f.Options &^= EndiannessMask
	}
}

// GetEndianEngine returns the endian engine matching the endianness bit.
func (f BlobFlag) GetEndianEngine() endian.EndianEngine {
	if f.IsLittleEndian() {
		return endian.GetLittleEndianEngine()
	}

	return endian.GetBigEndianEngine()
}

// Compression returns the payload compression type.
func (f BlobFlag) Compression() format.CompressionType {
	return format.CompressionType(f.CompressionType)
}

// SetCompression sets the payload compression type.
func (f *BlobFlag) SetCompression(typ format.CompressionType) {
	f.CompressionType = uint8(typ)
}

// Validate checks the magic number and compression type.
func (f BlobFlag) Validate() error {
	if f.Options&MagicNumberMask != MagicColumnV1Opt {
		return errs.ErrInvalidMagic
	}
	if !f.Compression().Valid() {
		return errs.ErrUnknownCompression
	}

	return nil
}
