// Package errs defines the sentinel errors shared across doccol packages.
//
// Callers can match them with errors.Is even when they have been wrapped with
// additional context via fmt.Errorf("%w: ...").
package errs

import "errors"

var (
	// ErrInvalidType is returned when a value of a type that cannot be stored
	// in a column (MinKey or MaxKey) is appended.
	ErrInvalidType = errors.New("doccol: type is not valid for storage")

	// ErrBuilderFinalized names the use of a column builder after Finalize
	// or Detach. No function in this module returns it: the column builder
	// does not detect use after Finalize or Detach.
	ErrBuilderFinalized = errors.New("doccol: column builder already finalized")

	// ErrInvalidMagic is returned when blob data does not start with the
	// expected magic number.
	ErrInvalidMagic = errors.New("doccol: invalid blob magic number")

	// ErrInvalidHeaderSize is returned when blob data is too short to contain
	// a complete header.
	ErrInvalidHeaderSize = errors.New("doccol: invalid blob header size")

	// ErrInvalidIndex is returned when a blob index entry points outside the
	// payload section.
	ErrInvalidIndex = errors.New("doccol: invalid blob index entry")

	// ErrChecksumMismatch is returned when the blob payload checksum does not
	// match the stored checksum.
	ErrChecksumMismatch = errors.New("doccol: blob checksum mismatch")

	// ErrDuplicateColumn is returned when two columns with the same field name
	// are added to one blob.
	ErrDuplicateColumn = errors.New("doccol: duplicate column field name")

	// ErrColumnNotFound is returned when a blob does not contain the requested
	// column.
	ErrColumnNotFound = errors.New("doccol: column not found in blob")

	// ErrUnknownCompression is returned when a blob header carries an unknown
	// compression type.
	ErrUnknownCompression = errors.New("doccol: unknown compression type")
)
