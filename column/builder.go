// Package column implements a streaming columnar compressor for typed
// document values. A Builder accepts a sequence of values (one per row) for a
// single logical field and produces a compact binary column exploiting
// temporal locality: deltas and delta-of-deltas packed with Simple-8b,
// scaled-integer encoding for doubles, and an interleaved mode that
// recursively columnarizes the fields of nested documents.
package column

import (
	"fmt"

	"github.com/arloliu/doccol/errs"
	"github.com/arloliu/doccol/internal/pool"
	"github.com/arloliu/doccol/value"
)

const (
	// InterleavedStartControlByte marks the start of an interleaved section;
	// a verbatim copy of the reference document follows it.
	InterleavedStartControlByte = 0xF0

	// elementCountBytes is the size of the element count written at offset 0.
	elementCountBytes = 4
)

// mode tracks how appended values are currently dispatched.
type mode uint8

const (
	// modeRegular forwards every value to the single encoding state.
	modeRegular mode = iota
	// modeSubObjDeterminingReference buffers appended objects while the
	// reference document is still being merged together.
	modeSubObjDeterminingReference
	// modeSubObjAppending dispatches object leaves to one encoding state per
	// reference leaf.
	modeSubObjAppending
)

// Builder incrementally builds a compressed binary column from a stream of
// typed values.
//
// The builder is constructed empty, mutated only by Append and Skip, and
// consumed by Finalize (which returns a view of the internal buffer and
// leaves the builder in a terminal state) or Detach (which steals the
// buffer). A Builder is not safe for concurrent use; independent builders
// need no coordination.
type Builder struct {
	state *encodingState
	buf   *pool.ByteBuffer

	fieldName string

	referenceSubObj     *value.Document
	bufferedObjElements []*value.Document
	subobjStates        []*encodingState
	subobjBuffers       []*subobjBuffer
	flattened           []value.Value

	elementCount uint32
	mode         mode
}

// New creates a column builder for the named field.
func New(fieldName string) *Builder {
	return NewWithBuffer(fieldName, make([]byte, 0, pool.ColumnBufferDefaultSize))
}

// NewWithBuffer creates a column builder writing into the caller-supplied
// backing slice. The slice length is reset; its capacity is reused.
func NewWithBuffer(fieldName string, buf []byte) *Builder {
	b := &Builder{
		fieldName: fieldName,
		buf:       &pool.ByteBuffer{B: buf[:0]},
	}
	// Leave space for the element count at the beginning.
	b.buf.B = append(b.buf.B, make([]byte, elementCountBytes)...)
	b.state = newEncodingState(b.buf, nil)

	return b
}

// FieldName returns the field name this column was created for.
func (b *Builder) FieldName() string {
	return b.fieldName
}

// Count returns the number of elements appended or skipped so far.
func (b *Builder) Count() uint32 {
	return b.elementCount
}

// Append ingests one typed value. MinKey and MaxKey (top level or as a leaf
// of an appended object) are not valid for storage and fail with
// errs.ErrInvalidType before any state is mutated.
func (b *Builder) Append(elem value.Value) error {
	typ := elem.Type()
	if typ == value.TypeMinKey || typ == value.TypeMaxKey {
		return fmt.Errorf("%w: %s", errs.ErrInvalidType, typ)
	}

	if typ != value.TypeObject || elem.DocumentValue().IsEmpty() {
		// Flush previous sub-object compression when a non-object (or empty
		// object, treated as a scalar literal) is appended.
		if b.mode != modeRegular {
			b.flushSubObjMode()
		}
		b.state.append(elem)
		b.elementCount++

		return nil
	}

	obj := elem.DocumentValue()
	if err := validateLeafTypes(obj); err != nil {
		return err
	}

	if b.mode == modeRegular {
		b.startDetermineSubObjReference(obj)
		b.elementCount++

		return nil
	}

	if b.mode == modeSubObjDeterminingReference {
		b.determineSubObj(obj)
	} else {
		// Reference already determined for sub-object compression; add this
		// new object to the per-leaf encoders.
		b.appendSubElements(obj)
	}
	b.elementCount++

	return nil
}

// determineSubObj runs the DeterminingReference logic for one object: check
// compatibility with the reference built so far, merge in newly discovered
// fields, and either keep buffering or finish the reference and switch to
// appending.
func (b *Builder) determineSubObj(obj *value.Document) {
	numElements := 0
	if !traverseLockStep(b.referenceSubObj, obj, func(ref, el value.Value) {
		numElements++
	}) {
		merged, ok := mergeObj(b.referenceSubObj, obj)
		if !ok {
			// Merge failed: flush the current sub-object compression and
			// start over with this object as the fresh reference.
			b.flushSubObjMode()
			b.referenceSubObj = obj
			b.bufferedObjElements = append(b.bufferedObjElements, obj)
			b.mode = modeSubObjDeterminingReference

			return
		}
		b.referenceSubObj = merged
	}

	// Keep buffering while the object count stays within twice the leaf
	// count; beyond that the reference is good enough to compress well.
	if numElements*2 >= len(b.bufferedObjElements) {
		b.bufferedObjElements = append(b.bufferedObjElements, obj)

		return
	}

	b.finishDetermineSubObjReference()
	b.appendSubElements(obj)
}

// Skip ingests a "missing" marker for the current row.
func (b *Builder) Skip() *Builder {
	b.elementCount++
	switch b.mode {
	case modeRegular:
		b.state.skip()
	case modeSubObjDeterminingReference:
		b.bufferedObjElements = append(b.bufferedObjElements, &value.Document{})
	default:
		for _, state := range b.subobjStates {
			state.skip()
		}
	}

	return b
}

// Finalize flushes all pending state, terminates the column with an EOO byte
// and patches the element count at offset 0. It returns a view aliased to
// the still-owned buffer; the view stays valid until the builder is dropped
// or Detach is called. The builder must not be appended to afterwards.
func (b *Builder) Finalize() []byte {
	if b.mode == modeRegular {
		b.state.flush()
	} else {
		b.flushSubObjMode()
	}

	// Write EOO at the end, element count at the beginning.
	b.buf.AppendByte(byte(value.TypeEOO))
	engine.PutUint32(b.buf.B[0:elementCountBytes], b.elementCount)

	return b.buf.B
}

// Detach steals the output buffer, leaving the builder unusable. It does not
// finalize: callers normally Finalize first and use Detach to take ownership
// of the backing slice.
func (b *Builder) Detach() []byte {
	out := b.buf.B
	b.buf = nil
	b.state = nil

	return out
}

// validateLeafTypes walks the object the way sub-object compression will and
// rejects MinKey and MaxKey leaves up front, before any state changes.
func validateLeafTypes(obj *value.Document) error {
	for _, f := range obj.Fields() {
		if f.Value.Type() == value.TypeObject {
			if err := validateLeafTypes(f.Value.DocumentValue()); err != nil {
				return err
			}
			continue
		}
		if t := f.Value.Type(); t == value.TypeMinKey || t == value.TypeMaxKey {
			return fmt.Errorf("%w: %s in field %q", errs.ErrInvalidType, t, f.Name)
		}
	}

	return nil
}
