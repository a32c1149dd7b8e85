// Package doccol provides a streaming columnar compressor for heterogeneous,
// self-describing document streams.
//
// A column builder accepts a sequence of typed values (one per row, scalars
// or nested documents) for a single logical field, and produces a compact
// binary column. Consecutive values tend to be similar, and the format
// exploits that with delta and delta-of-delta encodings packed by a
// variable-bit-width Simple-8b scheme, a scaled-integer encoding for doubles
// that adapts its decimal scale on the fly, and an interleaved mode that
// recursively columnarizes the fields of nested documents against an
// inferred reference schema.
//
// # Column wire format
//
//	[elementCount:u32 LE]
//	[ body: literals | Simple-8b runs | interleaved sections ... ]
//	[0x00]
//
//   - Literal: type byte (< 0x20), empty field name terminator, payload.
//   - Simple-8b run: control byte (upper nibble 0x80..0xD0 selects the double
//     scale index, lower nibble is block count minus one) followed by 1..16
//     packed 8-byte blocks.
//   - Interleaved section: 0xF0, the reference document verbatim, the
//     sub-column control blocks in decoder-consumption order, 0x00.
//
// # Basic usage
//
//	builder := doccol.NewColumnBuilder("temperature")
//	for _, v := range values {
//	    if err := builder.Append(v); err != nil {
//	        return err
//	    }
//	}
//	col := builder.Finalize()
//
// Multiple finalized columns can be packed into a framed, optionally
// compressed container with the blob package:
//
//	encoder, _ := doccol.NewBlobEncoder(blob.WithCompression(format.CompressionZstd))
//	encoder.AddColumn("temperature", col)
//	data, _ := encoder.Finish()
//
// This file provides thin wrappers around the column and blob packages; use
// those directly for fine-grained control.
package doccol

import (
	"github.com/arloliu/doccol/blob"
	"github.com/arloliu/doccol/column"
	"github.com/arloliu/doccol/internal/hash"
)

// NewColumnBuilder creates a column builder for the named field.
func NewColumnBuilder(fieldName string) *column.Builder {
	return column.New(fieldName)
}

// NewColumnBuilderWithBuffer creates a column builder reusing the capacity of
// a caller-supplied backing slice.
func NewColumnBuilderWithBuffer(fieldName string, buf []byte) *column.Builder {
	return column.NewWithBuffer(fieldName, buf)
}

// NewBlobEncoder creates a blob encoder packing finalized columns into a
// single framed container.
func NewBlobEncoder(opts ...blob.EncoderOption) (*blob.Encoder, error) {
	return blob.NewEncoder(opts...)
}

// DecodeBlob parses a blob container and verifies its payload checksum.
func DecodeBlob(data []byte) (*blob.Blob, error) {
	return blob.Decode(data)
}

// FieldID computes the 64-bit identifier a blob index stores for a field
// name.
func FieldID(fieldName string) uint64 {
	return hash.ID(fieldName)
}
