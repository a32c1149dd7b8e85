package column

import (
	"bytes"

	"github.com/arloliu/doccol/endian"
	"github.com/arloliu/doccol/internal/pool"
	"github.com/arloliu/doccol/internal/typeutil"
	"github.com/arloliu/doccol/num128"
	"github.com/arloliu/doccol/simple8b"
	"github.com/arloliu/doccol/value"
)

const (
	// maxBlockCount is the number of Simple-8b blocks one control byte can
	// describe: lower nibble is count minus one.
	maxBlockCount = 16
	countMask     = 0x0F
	controlMask   = 0xF0

	// noSimple8bControl marks that no control run is open.
	noSimple8bControl = -1
)

// controlByteForScaleIndex maps a double scale index to the upper nibble of
// its control byte. Non-double types always use the memory-as-integer entry
// (0x80).
var controlByteForScaleIndex = [typeutil.ScaleIndexCount]byte{0x90, 0xA0, 0xB0, 0xC0, 0xD0, 0x80}

var engine = endian.GetLittleEndianEngine()

// controlBlockWriter is notified of every finished control block (a literal,
// or a closed Simple-8b run) as a (offset, size) pair relative to the state's
// buffer. Offsets are used instead of pointers because the buffer may
// reallocate on growth.
type controlBlockWriter func(offset, size int)

// encodingState is the per-field stream encoder. It tracks the previously
// appended element, chooses a delta encoding per type, and wraps emitted
// Simple-8b blocks with control bytes directly in the output buffer.
type encodingState struct {
	buf           *pool.ByteBuffer
	controlWriter controlBlockWriter

	b64  *simple8b.Builder64
	b128 *simple8b.Builder128

	prev      value.Value
	prevDelta int64

	prevEncoded64  int64
	prevEncoded128 num128.Uint128

	// lastValueInPrevBlock is the last double committed to an emitted block,
	// the baseline for downward rescaling when a new block starts.
	lastValueInPrevBlock float64

	controlByteOffset int
	scaleIndex        uint8
	storeWith128      bool
}

func newEncodingState(buf *pool.ByteBuffer, w controlBlockWriter) *encodingState {
	s := &encodingState{
		buf:               buf,
		controlWriter:     w,
		controlByteOffset: noSimple8bControl,
		scaleIndex:        typeutil.MemoryAsInteger,
	}
	s.b64 = simple8b.NewBuilder64(s.writeBlocks)
	s.b128 = simple8b.NewBuilder128(s.writeBlocks)
	// Previous starts as the EOO sentinel so the first append always writes
	// a literal.
	s.storePrevious(value.Value{})

	return s
}

// usesDeltaOfDelta reports whether the type encodes second-order deltas.
func usesDeltaOfDelta(t value.Type) bool {
	return t == value.TypeTimestamp
}

// uses128Bit reports whether the type stores its deltas in the 128-bit
// builder.
func uses128Bit(t value.Type) bool {
	return t == value.TypeString || t == value.TypeBinary || t == value.TypeDecimal128
}

// scaleAndEncodeDouble encodes the double with the lowest possible scale
// index at or above minScaleIndex. In the worst case the memory-as-integer
// index applies, which always succeeds.
func scaleAndEncodeDouble(v float64, minScaleIndex uint8) (int64, uint8) {
	for {
		if encoded, ok := typeutil.EncodeDouble(v, minScaleIndex); ok {
			return encoded, minScaleIndex
		}
		minScaleIndex++
	}
}

// append ingests one typed value.
func (s *encodingState) append(elem value.Value) {
	typ := elem.Type()
	prev := s.prev

	// A type change (or the very first value) flushes all pending values and
	// writes an uncompressed literal, resetting derived state.
	if prev.Type() != typ {
		s.storePrevious(elem)
		s.b128.Flush()
		s.b64.Flush()
		s.writeLiteralFromPrevious()

		return
	}

	// A value binary-equal to previous is a zero delta, except for
	// delta-of-delta types where equality does not imply a zero second-order
	// delta.
	compressed := !usesDeltaOfDelta(typ) && elem.BinaryEqual(prev)
	if compressed {
		if s.storeWith128 {
			s.b128.Append(num128.Uint128{})
		} else {
			s.b64.Append(0)
		}
	}

	if !compressed {
		switch {
		case s.storeWith128:
			compressed = s.appendDelta128(elem, prev)
		case typ == value.TypeDouble:
			compressed = s.appendDouble(elem.DoubleValue(), prev.DoubleValue())
		default:
			compressed = s.appendDelta64(elem, prev)
		}
	}

	s.storePrevious(elem)

	// Store an uncompressed literal if the value was outside the range of
	// encodable values.
	if !compressed {
		s.b128.Flush()
		s.b64.Flush()
		s.writeLiteralFromPrevious()
	}
}

// appendDelta128 handles the 128-bit types: string, binary and decimal128.
func (s *encodingState) appendDelta128(elem, prev value.Value) bool {
	appendEncoded := func(encoded num128.Uint128) bool {
		ok := s.b128.Append(typeutil.EncodeInt128(encoded.Sub(s.prevEncoded128)))
		s.prevEncoded128 = encoded

		return ok
	}

	switch elem.Type() {
	case value.TypeString:
		if encoded, ok := typeutil.EncodeString(elem.StringValue()); ok {
			return appendEncoded(encoded)
		}
	case value.TypeBinary:
		sub, data := elem.BinaryValue()
		prevSub, prevData := prev.BinaryValue()
		// Delta encoding of binary requires identical size (a size change
		// cannot be reconstructed from deltas alone) and identical subtype
		// (the subtype is only carried by the literal).
		if sub != prevSub || len(data) != len(prevData) {
			break
		}
		if encoded, ok := typeutil.EncodeBinary(data); ok {
			return appendEncoded(encoded)
		}
	case value.TypeDecimal128:
		return appendEncoded(typeutil.EncodeDecimal128(elem.Decimal128Value()))
	}

	return false
}

// appendDelta64 handles the integer-domain types on the 64-bit builder.
func (s *encodingState) appendDelta64(elem, prev value.Value) bool {
	var delta int64
	switch elem.Type() {
	case value.TypeInt32:
		delta = int64(elem.Int32Value()) - int64(prev.Int32Value())
	case value.TypeInt64:
		delta = elem.Int64Value() - prev.Int64Value()
	case value.TypeObjectID:
		if !bytes.Equal(elem.InstanceUnique(), prev.InstanceUnique()) {
			return false
		}
		curEncoded := typeutil.EncodeObjectID(elem.ObjectIDBytes())
		delta = curEncoded - s.prevEncoded64
		s.prevEncoded64 = curEncoded
	case value.TypeTimestamp:
		timestampDelta := int64(elem.TimestampBits() - prev.TimestampBits())
		delta = timestampDelta - s.prevDelta
		s.prevDelta = timestampDelta
	case value.TypeDate:
		delta = elem.DateMillis() - prev.DateMillis()
	case value.TypeBool:
		delta = boolAsInt(elem.BoolValue()) - boolAsInt(prev.BoolValue())
	case value.TypeNull, value.TypeUndefined:
		delta = 0
	default:
		// Object, Array, Regex, DBRef, Code, CodeWScope, Symbol: always
		// stored as literals.
		return false
	}

	return s.b64.Append(typeutil.EncodeInt64(delta))
}

func boolAsInt(b bool) int64 {
	if b {
		return 1
	}

	return 0
}

// skip ingests a missing marker.
func (s *encodingState) skip() {
	before := s.buf.Len()
	if s.storeWith128 {
		s.b128.Skip()
	} else {
		s.b64.Skip()
	}

	// Rescale the previous known value if this skip caused Simple-8b blocks
	// to be written.
	if before != s.buf.Len() && s.prev.Type() == value.TypeDouble {
		s.prevEncoded64, s.scaleIndex = scaleAndEncodeDouble(s.lastValueInPrevBlock, 0)
	}
}

// flush forces all pending packed blocks to the output and reports any open
// control run to the control-block writer.
func (s *encodingState) flush() {
	s.b128.Flush()
	s.b64.Flush()

	if s.controlByteOffset != noSimple8bControl && s.controlWriter != nil {
		s.controlWriter(s.controlByteOffset, s.buf.Len()-s.controlByteOffset)
	}
}

// tryRescalePending attempts to re-encode every pending delta at
// newScaleIndex so the open run can absorb the new value without flushing.
// It returns the replacement builder on success, nil when rescaling is not
// possible or would emit a block mid-rescale (in which case flushing
// compresses better).
func (s *encodingState) tryRescalePending(encoded int64, newScaleIndex uint8) *simple8b.Builder64 {
	// Encode the last value in the previous block with the old and new scale
	// index. Scaling with the old index is known to be possible.
	prev, _ := typeutil.EncodeDouble(s.lastValueInPrevBlock, s.scaleIndex)
	prevRescaled, ok := typeutil.EncodeDouble(s.lastValueInPrevBlock, newScaleIndex)
	if !ok {
		return nil
	}

	possible := true
	builder := simple8b.NewBuilder64(func([]uint64) { possible = false })

	// Decode each pending delta back into a double, rescale and append to the
	// fresh builder.
	for pending, present := range s.b64.Pending() {
		if !present {
			builder.Skip()
			continue
		}

		prev += typeutil.DecodeInt64(pending)
		rescaled, ok := typeutil.EncodeDouble(typeutil.DecodeDouble(prev, s.scaleIndex), newScaleIndex)
		if !ok {
			return nil
		}

		if !builder.Append(typeutil.EncodeInt64(rescaled-prevRescaled)) || !possible {
			return nil
		}
		prevRescaled = rescaled
	}

	// Last, add the new value.
	if !builder.Append(typeutil.EncodeInt64(encoded-prevRescaled)) || !possible {
		return nil
	}

	builder.SetWriteCallback(s.writeBlocks)

	return builder
}

// appendDouble encodes one double delta, choosing (and possibly growing) the
// decimal scale index shared by the open run.
func (s *encodingState) appendDouble(v, previous float64) bool {
	encoded, scaleIndex := scaleAndEncodeDouble(v, s.scaleIndex)

	if scaleIndex != s.scaleIndex {
		// The new value needs a higher scale index. Either rescale the
		// pending values to the larger factor, or flush and start a new run
		// with the higher factor; rescaling compresses better when feasible.
		if rescaled := s.tryRescalePending(encoded, scaleIndex); rescaled != nil {
			s.b64 = rescaled
			s.prevEncoded64 = encoded
			s.scaleIndex = scaleIndex

			return true
		}

		s.b64.Flush()
		s.closeControlRun()

		// Make sure value and previous agree on one scale factor.
		var prevScaleIndex uint8
		s.prevEncoded64, prevScaleIndex = scaleAndEncodeDouble(previous, scaleIndex)
		if scaleIndex != prevScaleIndex {
			encoded, scaleIndex = scaleAndEncodeDouble(v, prevScaleIndex)
			s.prevEncoded64, prevScaleIndex = scaleAndEncodeDouble(previous, scaleIndex)
		}
		s.scaleIndex = scaleIndex
	}

	// Append the delta and check whether a block was written. If so, a new
	// block is starting and the scale factor may be reducible.
	before := s.buf.Len()
	if !s.b64.Append(typeutil.EncodeInt64(encoded - s.prevEncoded64)) {
		return false
	}

	if s.buf.Len() != before {
		// Reset the scale factor to 0 and replay all still-pending deltas
		// through a fresh builder. The scale climbs back only as needed; in
		// the worst case it arrives at the identical factor.
		prevScale := s.scaleIndex
		s.prevEncoded64, s.scaleIndex = scaleAndEncodeDouble(s.lastValueInPrevBlock, 0)

		replay := s.b64
		s.b64 = simple8b.NewBuilder64(s.writeBlocks)

		prev := s.lastValueInPrevBlock
		prevEncoded, _ := typeutil.EncodeDouble(prev, prevScale)
		for pending, present := range replay.Pending() {
			if present {
				prevEncoded += typeutil.DecodeInt64(pending)
				val := typeutil.DecodeDouble(prevEncoded, prevScale)
				s.appendDouble(val, prev)
				prev = val
			} else {
				s.b64.Skip()
			}
		}

		// The new value is the last pending entry, so the replay already left
		// its encoding at the final scale index as the baseline; encoded may
		// belong to the higher scale used before the replay.
		return true
	}

	s.prevEncoded64 = encoded

	return true
}

// storePrevious records elem as the previous element. Field names are not
// part of a Value, so name stripping is inherent.
func (s *encodingState) storePrevious(elem value.Value) {
	s.prev = elem
}

// writeLiteralFromPrevious writes the previous element as an uncompressed
// literal and resets the derived encoding state. Any open control run is
// closed first so a decoder re-enters a fresh run after the literal.
func (s *encodingState) writeLiteralFromPrevious() {
	s.closeControlRun()

	start := s.buf.Len()
	// Literal layout: type byte, empty field name terminator, payload.
	s.buf.B = append(s.buf.B, byte(s.prev.Type()), 0)
	s.buf.B = s.prev.AppendPayload(s.buf.B)
	if s.controlWriter != nil {
		s.controlWriter(start, s.buf.Len()-start)
	}

	s.scaleIndex = typeutil.MemoryAsInteger
	s.prevDelta = 0
	s.initializeFromPrevious()
}

// initializeFromPrevious derives the encoded baselines from the previous
// element after a literal was written (or after a state was seeded with a
// reference leaf in interleaved mode).
func (s *encodingState) initializeFromPrevious() {
	typ := s.prev.Type()
	s.storeWith128 = uses128Bit(typ)

	switch typ {
	case value.TypeDouble:
		s.lastValueInPrevBlock = s.prev.DoubleValue()
		s.prevEncoded64, s.scaleIndex = scaleAndEncodeDouble(s.lastValueInPrevBlock, 0)
	case value.TypeString:
		encoded, _ := typeutil.EncodeString(s.prev.StringValue())
		s.prevEncoded128 = encoded
	case value.TypeBinary:
		_, data := s.prev.BinaryValue()
		encoded, _ := typeutil.EncodeBinary(data)
		s.prevEncoded128 = encoded
	case value.TypeDecimal128:
		s.prevEncoded128 = typeutil.EncodeDecimal128(s.prev.Decimal128Value())
	case value.TypeObjectID:
		s.prevEncoded64 = typeutil.EncodeObjectID(s.prev.ObjectIDBytes())
	}
}

// closeControlRun reports the open control run (if any) to the control-block
// writer and clears the recorded offset.
func (s *encodingState) closeControlRun() {
	if s.controlByteOffset == noSimple8bControl {
		return
	}
	if s.controlWriter != nil {
		s.controlWriter(s.controlByteOffset, s.buf.Len()-s.controlByteOffset)
	}
	s.controlByteOffset = noSimple8bControl
}

// incrementSimple8bCount updates the block count in the current control byte,
// allocating a new control byte when none is open or the scale nibble
// changed. It returns the offset of a run that just became full (so its
// control block can be reported after the block bytes land), or
// noSimple8bControl.
func (s *encodingState) incrementSimple8bCount() int {
	control := controlByteForScaleIndex[s.scaleIndex]

	if s.controlByteOffset == noSimple8bControl {
		// Allocate a new control byte and record its offset; the offset
		// stays valid even if the underlying buffer reallocates.
		s.controlByteOffset = s.buf.Len()
		s.buf.AppendByte(control)

		return noSimple8bControl
	}

	cur := s.buf.B[s.controlByteOffset]
	if cur&controlMask != control {
		// The open run was written with a different scale nibble; close it
		// and start a new one.
		s.closeControlRun()

		return s.incrementSimple8bCount()
	}

	count := cur&countMask + 1
	s.buf.B[s.controlByteOffset] = control | count&countMask
	if int(count)+1 == maxBlockCount {
		prevOffset := s.controlByteOffset
		s.controlByteOffset = noSimple8bControl

		return prevOffset
	}

	return noSimple8bControl
}

// writeBlocks is the Simple-8b sink: it wraps finalized blocks with control
// byte accounting and writes them little-endian to the output buffer. A
// multi-block emission (a wide pair) is kept within a single control run.
func (s *encodingState) writeBlocks(blocks []uint64) {
	if len(blocks) > 1 && s.controlByteOffset != noSimple8bControl {
		count := int(s.buf.B[s.controlByteOffset]&countMask) + 1
		if count+len(blocks) > maxBlockCount {
			s.closeControlRun()
		}
	}

	for _, block := range blocks {
		fullOffset := s.incrementSimple8bCount()
		s.buf.B = engine.AppendUint64(s.buf.B, block)

		// Report the control block if this Simple-8b block made the run full.
		if s.controlWriter != nil && fullOffset != noSimple8bControl {
			s.controlWriter(fullOffset, s.buf.Len()-fullOffset)
		}
	}

	if s.prev.Type() == value.TypeDouble {
		s.lastValueInPrevBlock = s.prev.DoubleValue()
	}
}
