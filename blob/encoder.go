// Package blob packs finalized columns into a single framed container: a
// fixed header, a fixed-size index keyed by xxHash64 of the field names, and
// an optionally compressed payload holding the column bytes back to back.
//
// The container does not interpret column contents; it only recovers the
// per-column byte blobs. Reading values back out of a column is a decoder
// concern outside this module.
package blob

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/arloliu/doccol/compress"
	"github.com/arloliu/doccol/errs"
	"github.com/arloliu/doccol/format"
	"github.com/arloliu/doccol/internal/hash"
	"github.com/arloliu/doccol/internal/pool"
	"github.com/arloliu/doccol/section"
)

type columnEntry struct {
	data    []byte
	fieldID uint64
}

// Encoder assembles a column blob from finalized columns.
//
// Encoder is not reusable: after Finish a new encoder must be created.
type Encoder struct {
	header  *section.BlobHeader
	ids     map[uint64]struct{}
	columns []columnEntry
}

// EncoderOption configures an Encoder.
type EncoderOption func(*Encoder) error

// WithCompression selects the payload compression codec.
func WithCompression(typ format.CompressionType) EncoderOption {
	return func(e *Encoder) error {
		if !typ.Valid() {
			return fmt.Errorf("%w: %d", errs.ErrUnknownCompression, typ)
		}
		e.header.Flag.SetCompression(typ)

		return nil
	}
}

// WithLittleEndian stores blob sections in little-endian byte order. This is
// the default.
func WithLittleEndian() EncoderOption {
	return func(e *Encoder) error {
		e.header.Flag.SetLittleEndian(true)
		return nil
	}
}

// WithBigEndian stores blob sections in big-endian byte order.
func WithBigEndian() EncoderOption {
	return func(e *Encoder) error {
		e.header.Flag.SetLittleEndian(false)
		return nil
	}
}

// NewEncoder creates a blob encoder with the given options.
func NewEncoder(opts ...EncoderOption) (*Encoder, error) {
	e := &Encoder{
		header: section.NewBlobHeader(),
		ids:    make(map[uint64]struct{}),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// AddColumn adds one finalized column under its field name. The column bytes
// are retained, not copied; callers must not modify them until Finish
// returns. Field names must be unique per blob.
func (e *Encoder) AddColumn(fieldName string, column []byte) error {
	id := hash.ID(fieldName)
	if _, exists := e.ids[id]; exists {
		return fmt.Errorf("%w: %q", errs.ErrDuplicateColumn, fieldName)
	}

	e.ids[id] = struct{}{}
	e.columns = append(e.columns, columnEntry{fieldID: id, data: column})

	return nil
}

// Finish assembles and returns the blob bytes.
func (e *Encoder) Finish() ([]byte, error) {
	engine := e.header.Flag.GetEndianEngine()

	// Assemble the uncompressed payload and the index describing it.
	payloadBuf := pool.GetBlobBuffer()
	defer pool.PutBlobBuffer(payloadBuf)

	index := make([]section.IndexEntry, 0, len(e.columns))
	for _, col := range e.columns {
		index = append(index, section.IndexEntry{
			FieldID: col.fieldID,
			Offset:  uint32(payloadBuf.Len()),
			Size:    uint32(len(col.data)),
		})
		payloadBuf.MustWrite(col.data)
	}
	payload := payloadBuf.Bytes()

	codec, err := compress.NewCodec(e.header.Flag.Compression())
	if err != nil {
		return nil, err
	}
	compressed, err := codec.Compress(payload)
	if err != nil {
		return nil, err
	}

	e.header.ColumnCount = uint32(len(e.columns))
	e.header.IndexOffset = section.IndexOffsetOffset
	e.header.PayloadOffset = section.HeaderSize + uint32(len(index))*section.IndexEntrySize
	e.header.PayloadChecksum = xxhash.Sum64(payload)
	e.header.PayloadSize = uint32(len(payload))

	out := make([]byte, 0, int(e.header.PayloadOffset)+len(compressed))
	out = e.header.AppendTo(out)
	for i := range index {
		out = index[i].AppendTo(out, engine)
	}
	out = append(out, compressed...)

	return out, nil
}
