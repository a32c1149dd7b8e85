package column

import (
	"container/heap"

	"github.com/arloliu/doccol/internal/pool"
	"github.com/arloliu/doccol/simple8b"
	"github.com/arloliu/doccol/value"
)

// controlBlock records one finished control block (a literal or a closed
// Simple-8b run) in a per-leaf scratch buffer, as offset and size. Offsets
// are relative to the scratch buffer base and survive buffer growth.
type controlBlock struct {
	offset int
	size   int
}

// subobjBuffer is the scratch output of one per-leaf encoding state in
// interleaved mode. The builder owns the slice of these; encoding states
// reference them through stable pointers, never through positions in the
// slice.
type subobjBuffer struct {
	buf           *pool.ByteBuffer
	controlBlocks []controlBlock
}

// startDetermineSubObjReference enters DeterminingReference mode using obj as
// the initial reference.
func (b *Builder) startDetermineSubObjReference(obj *value.Document) {
	b.state.flush()
	b.state = newEncodingState(b.buf, nil)

	b.referenceSubObj = obj
	b.bufferedObjElements = append(b.bufferedObjElements, obj)
	b.mode = modeSubObjDeterminingReference
}

// finishDetermineSubObjReference writes the interleaved start byte and the
// reference document, creates one encoding state per reference leaf, and
// replays the buffered objects.
func (b *Builder) finishDetermineSubObjReference() {
	b.buf.AppendByte(InterleavedStartControlByte)
	b.buf.B = b.referenceSubObj.AppendTo(b.buf.B)

	// Initialize all encoding states by traversing the reference and the
	// first buffered object in lock-step. Each state is seeded with the
	// reference leaf as its previous value so the first append produces a
	// zero delta instead of a literal: the reference document already carries
	// the literal.
	first := b.bufferedObjElements[0]
	compatible := traverseLockStep(b.referenceSubObj, first, func(ref, el value.Value) {
		slot := &subobjBuffer{buf: pool.GetColumnBuffer()}
		b.subobjBuffers = append(b.subobjBuffers, slot)

		// Control blocks written by the state are captured per slot so the
		// top level can interleave them later.
		state := newEncodingState(slot.buf, func(offset, size int) {
			slot.controlBlocks = append(slot.controlBlocks, controlBlock{offset: offset, size: size})
		})
		state.storePrevious(ref)
		state.initializeFromPrevious()
		b.subobjStates = append(b.subobjStates, state)

		if el.IsMissing() {
			state.skip()
		} else {
			state.append(el)
		}
	})
	if !compatible {
		panic("doccol: reference object incompatible with first buffered object")
	}
	b.mode = modeSubObjAppending

	// Replay the remaining buffered objects. A replayed object can be
	// incompatible with the reference (an empty nested object against a
	// skipped row, say), which flushes this section and restarts
	// determination; remaining rows then feed the fresh determining phase.
	buffered := b.bufferedObjElements
	b.bufferedObjElements = nil
	for _, obj := range buffered[1:] {
		if b.mode == modeSubObjAppending {
			b.appendSubElements(obj)
		} else {
			b.determineSubObj(obj)
		}
	}
}

// appendSubElements dispatches the leaves of obj to the per-leaf encoding
// states, or restarts reference determination when obj no longer fits the
// reference.
func (b *Builder) appendSubElements(obj *value.Document) {
	// Collect a flat list of leaves while validating obj against the
	// reference.
	b.flattened = b.flattened[:0]
	if !traverseLockStep(b.referenceSubObj, obj, func(ref, el value.Value) {
		b.flattened = append(b.flattened, el)
	}) {
		b.flushSubObjMode()
		b.startDetermineSubObjReference(obj)

		return
	}

	// One callback fires per reference leaf, matching the number of encoding
	// states set up previously.
	if len(b.flattened) != len(b.subobjStates) {
		panic("doccol: leaf count mismatch between reference and encoding states")
	}

	for i, el := range b.flattened {
		if el.IsMissing() {
			b.subobjStates[i].skip()
		} else {
			b.subobjStates[i].append(el)
		}
	}
}

// decoderOrderEntry tracks how many row elements one sub-column has emitted;
// the heap yields the encoder a decoder would read from next.
type decoderOrderEntry struct {
	written uint32
	index   int
}

type decoderOrderHeap []decoderOrderEntry

func (h decoderOrderHeap) Len() int { return len(h) }

func (h decoderOrderHeap) Less(i, j int) bool {
	if h[i].written != h[j].written {
		return h[i].written < h[j].written
	}

	return h[i].index < h[j].index
}

func (h decoderOrderHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *decoderOrderHeap) Push(x any) { *h = append(*h, x.(decoderOrderEntry)) }

func (h *decoderOrderHeap) Pop() any {
	old := *h
	n := len(old)
	entry := old[n-1]
	*h = old[:n-1]

	return entry
}

// flushSubObjMode finalizes reference determination if still pending, flushes
// every per-leaf state and interleaves their control blocks into the main
// buffer in decoder-consumption order, then terminates the interleaved
// section with EOO.
func (b *Builder) flushSubObjMode() {
	// A restart during buffered replay leaves a fresh determining phase
	// behind; keep finishing until the builder settles in appending mode (or
	// a nested flush already returned it to regular).
	for b.mode == modeSubObjDeterminingReference {
		b.finishDetermineSubObjReference()
	}
	if b.mode != modeSubObjAppending {
		return
	}

	// Flushing makes every state report all of its control blocks.
	for _, state := range b.subobjStates {
		state.flush()
	}

	// A decoder reading interleaved output advances one decoder per emitted
	// row element and fetches the next control block for whichever decoder
	// exhausted its current one: at any point the decoder that has emitted
	// the fewest row elements reads next, ties broken by encoder index.
	h := make(decoderOrderHeap, 0, len(b.subobjBuffers))
	for i, slot := range b.subobjBuffers {
		if len(slot.controlBlocks) > 0 {
			h = append(h, decoderOrderEntry{index: i})
		}
	}
	heap.Init(&h)

	for h.Len() > 0 {
		entry := heap.Pop(&h).(decoderOrderEntry)

		// Control blocks leave each encoder in FIFO order.
		slot := b.subobjBuffers[entry.index]
		cb := slot.controlBlocks[0]
		slot.controlBlocks = slot.controlBlocks[1:]

		data := slot.buf.B[cb.offset : cb.offset+cb.size]
		b.buf.MustWrite(data)

		if len(slot.controlBlocks) == 0 {
			continue
		}

		entry.written += numElementsInControlBlock(data)
		heap.Push(&h, entry)
	}

	// All control blocks written; EOO ends the interleaving.
	b.buf.AppendByte(byte(value.TypeEOO))

	for _, slot := range b.subobjBuffers {
		pool.PutColumnBuffer(slot.buf)
	}
	b.subobjStates = b.subobjStates[:0]
	b.subobjBuffers = b.subobjBuffers[:0]
	b.mode = modeRegular
}

// numElementsInControlBlock computes how many row elements one control block
// represents: a literal is one element, a Simple-8b run is the sum of slots
// across its packed blocks.
func numElementsInControlBlock(data []byte) uint32 {
	if isLiteralControlByte(data[0]) {
		return 1
	}

	return uint32(simple8b.CountSlots(data[1:]))
}

// isLiteralControlByte reports whether a control byte starts a literal. All
// storable type bytes are below 0x20, distinct from Simple-8b control bytes
// (0x80..0xD0) and the interleaved start byte.
func isLiteralControlByte(c byte) bool {
	return c < 0x20
}
