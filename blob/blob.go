package blob

import (
	"fmt"
	"iter"

	"github.com/cespare/xxhash/v2"

	"github.com/arloliu/doccol/compress"
	"github.com/arloliu/doccol/errs"
	"github.com/arloliu/doccol/internal/hash"
	"github.com/arloliu/doccol/section"
)

// Blob is a decoded column blob container. It gives access to the raw column
// byte blobs; decoding column contents is out of scope.
type Blob struct {
	payload []byte
	index   []section.IndexEntry
	header  section.BlobHeader
}

// Decode parses a blob, decompresses the payload and verifies its checksum.
func Decode(data []byte) (*Blob, error) {
	b := &Blob{}
	if err := b.header.Parse(data); err != nil {
		return nil, err
	}

	engine := b.header.Flag.GetEndianEngine()
	indexEnd := int(b.header.IndexOffset) + int(b.header.ColumnCount)*section.IndexEntrySize
	if indexEnd > len(data) || int(b.header.PayloadOffset) > len(data) {
		return nil, errs.ErrInvalidHeaderSize
	}

	b.index = make([]section.IndexEntry, b.header.ColumnCount)
	for i := range b.index {
		offset := int(b.header.IndexOffset) + i*section.IndexEntrySize
		if err := b.index[i].Parse(data[offset:], engine); err != nil {
			return nil, err
		}
	}

	codec, err := compress.NewCodec(b.header.Flag.Compression())
	if err != nil {
		return nil, err
	}
	payload, err := codec.Decompress(data[b.header.PayloadOffset:])
	if err != nil {
		return nil, err
	}
	if len(payload) != int(b.header.PayloadSize) {
		return nil, fmt.Errorf("%w: payload size %d, header says %d",
			errs.ErrChecksumMismatch, len(payload), b.header.PayloadSize)
	}
	if xxhash.Sum64(payload) != b.header.PayloadChecksum {
		return nil, errs.ErrChecksumMismatch
	}
	b.payload = payload

	return b, nil
}

// ColumnCount returns the number of columns in the blob.
func (b *Blob) ColumnCount() int {
	return len(b.index)
}

// Column returns the raw bytes of the column stored under fieldName.
func (b *Blob) Column(fieldName string) ([]byte, error) {
	return b.ColumnByID(hash.ID(fieldName))
}

// ColumnByID returns the raw bytes of the column with the given field ID.
func (b *Blob) ColumnByID(fieldID uint64) ([]byte, error) {
	for i := range b.index {
		if b.index[i].FieldID == fieldID {
			return b.slice(b.index[i])
		}
	}

	return nil, errs.ErrColumnNotFound
}

// All iterates all columns as (fieldID, column bytes) pairs in index order.
func (b *Blob) All() iter.Seq2[uint64, []byte] {
	return func(yield func(uint64, []byte) bool) {
		for i := range b.index {
			data, err := b.slice(b.index[i])
			if err != nil {
				return
			}
			if !yield(b.index[i].FieldID, data) {
				return
			}
		}
	}
}

func (b *Blob) slice(e section.IndexEntry) ([]byte, error) {
	end := int(e.Offset) + int(e.Size)
	if end > len(b.payload) {
		return nil, errs.ErrInvalidIndex
	}

	return b.payload[e.Offset:end], nil
}
