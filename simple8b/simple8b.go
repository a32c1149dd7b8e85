// Package simple8b implements the streaming Simple-8b integer packers used by
// the column encoders.
//
// Values are packed into 64-bit blocks. The top 4 bits of every block hold a
// selector; selectors 1..14 divide the remaining 60 data bits into equal
// slots of {1,2,3,4,5,6,7,8,10,12,15,20,30,60} bits. An all-ones slot is the
// missing marker (produced by Skip), so a width-w slot stores values up to
// 2^w - 2.
//
// Selector 15 is the wide-value form used only by the 128-bit builder: the
// block's 60 data bits hold bits 0..59 of a single value and the following
// block holds bits 60..119. A wide pair is handed to the write callback in
// one call so the caller can keep it inside a single control run.
//
// Blocks are only emitted at exact slot occupancy. There is no padding, so
// the number of value slots in a block is fully determined by its selector;
// see CountSlots.
package simple8b

import (
	"encoding/binary"
	"iter"
	"math/bits"

	"github.com/arloliu/doccol/num128"
)

const (
	selectorShift = 60
	dataBits      = 60
	wideSelector  = 15

	// MaxValue64 is the largest value storable by the 64-bit builder: one
	// 60-bit slot minus the missing marker.
	MaxValue64 = uint64(1)<<dataBits - 2

	// MaxBits128 is the largest bit length storable by the 128-bit builder
	// via the wide-value form.
	MaxBits128 = 120
)

// packing describes one selector: bits per slot and slots per block.
type packing struct {
	bits  int
	slots int
}

// packings is indexed by selector. Selector 0 is reserved and never emitted.
var packings = [15]packing{
	{}, {1, 60}, {2, 30}, {3, 20}, {4, 15}, {5, 12}, {6, 10}, {7, 8},
	{8, 7}, {10, 6}, {12, 5}, {15, 4}, {20, 3}, {30, 2}, {60, 1},
}

// WriteFn receives finalized 64-bit blocks. It is called with one block per
// emission, except for a wide-value pair which arrives as two blocks in a
// single call.
type WriteFn func(blocks []uint64)

// bitsNeeded64 returns the smallest slot width that can store v, accounting
// for the reserved all-ones missing marker.
func bitsNeeded64(v uint64) int {
	n := bits.Len64(v + 1)
	if n == 0 {
		n = 1
	}

	return n
}

// minSelectorFor returns the selector with the most slots whose width is at
// least need.
func minSelectorFor(need int) int {
	for sel := 1; sel < len(packings); sel++ {
		if packings[sel].bits >= need {
			return sel
		}
	}

	return len(packings) - 1
}

type pending64 struct {
	val     uint64
	missing bool
}

// Builder64 streams unsigned 64-bit integers into packed blocks.
//
// Builder64 is not safe for concurrent use.
type Builder64 struct {
	writeFn WriteFn
	pending []pending64
}

// NewBuilder64 creates a 64-bit Simple-8b builder emitting finalized blocks
// through fn.
func NewBuilder64(fn WriteFn) *Builder64 {
	return &Builder64{writeFn: fn}
}

// SetWriteCallback replaces the block sink.
func (b *Builder64) SetWriteCallback(fn WriteFn) {
	b.writeFn = fn
}

// Append adds one value. It reports false when the value exceeds MaxValue64;
// the builder state is unchanged in that case. Appending may emit one or more
// finalized blocks through the write callback as a side effect.
func (b *Builder64) Append(v uint64) bool {
	if v > MaxValue64 {
		return false
	}

	b.pending = append(b.pending, pending64{val: v})
	b.rebalance()

	return true
}

// Skip enqueues a missing marker that decodes to "no value".
func (b *Builder64) Skip() {
	b.pending = append(b.pending, pending64{missing: true})
	b.rebalance()
}

// Flush forces emission of all pending values.
func (b *Builder64) Flush() {
	for len(b.pending) > 0 {
		b.emitOne()
	}
}

// Pending iterates the values currently buffered, in append order. The second
// iteration value is false for missing markers.
func (b *Builder64) Pending() iter.Seq2[uint64, bool] {
	return func(yield func(uint64, bool) bool) {
		for _, p := range b.pending {
			if !yield(p.val, !p.missing) {
				return
			}
		}
	}
}

// PendingLen returns the number of buffered values.
func (b *Builder64) PendingLen() int {
	return len(b.pending)
}

// rebalance emits blocks from the front of the pending queue until the
// remainder fits in a single block.
func (b *Builder64) rebalance() {
	for !b.fitsSingleBlock() {
		b.emitOne()
	}
}

func (b *Builder64) fitsSingleBlock() bool {
	need := 1
	for _, p := range b.pending {
		if p.missing {
			continue
		}
		if n := bitsNeeded64(p.val); n > need {
			need = n
		}
	}

	return packings[minSelectorFor(need)].slots >= len(b.pending)
}

// emitOne emits the largest exactly-filled block from the front of the
// pending queue. Selector 14 (one 60-bit slot) always applies, so this cannot
// fail for accepted values.
func (b *Builder64) emitOne() {
	for sel := 1; sel < len(packings); sel++ {
		p := packings[sel]
		if p.slots > len(b.pending) {
			continue
		}
		if !fits64(b.pending[:p.slots], p.bits) {
			continue
		}
		block := pack64(uint64(sel), b.pending[:p.slots], p.bits)
		b.pending = b.pending[:copy(b.pending, b.pending[p.slots:])]
		b.writeFn([]uint64{block})

		return
	}

	panic("simple8b: no selector fits pending values")
}

func fits64(pending []pending64, width int) bool {
	for _, p := range pending {
		if !p.missing && bitsNeeded64(p.val) > width {
			return false
		}
	}

	return true
}

func pack64(sel uint64, pending []pending64, width int) uint64 {
	block := sel << selectorShift
	missing := uint64(1)<<width - 1
	for i, p := range pending {
		v := p.val
		if p.missing {
			v = missing
		}
		block |= v << (i * width)
	}

	return block
}

type pending128 struct {
	val     num128.Uint128
	missing bool
}

// Builder128 streams unsigned 128-bit integers into packed blocks. Values up
// to 60 bits share blocks exactly like the 64-bit builder; larger values (up
// to MaxBits128 bits) are emitted as a selector-15 wide pair.
//
// Builder128 is not safe for concurrent use.
type Builder128 struct {
	writeFn WriteFn
	pending []pending128
}

// NewBuilder128 creates a 128-bit Simple-8b builder emitting finalized blocks
// through fn.
func NewBuilder128(fn WriteFn) *Builder128 {
	return &Builder128{writeFn: fn}
}

// SetWriteCallback replaces the block sink.
func (b *Builder128) SetWriteCallback(fn WriteFn) {
	b.writeFn = fn
}

// Append adds one value. It reports false when the value needs more than
// MaxBits128 bits; the builder state is unchanged in that case.
func (b *Builder128) Append(v num128.Uint128) bool {
	if v.BitLen() > MaxBits128 {
		return false
	}

	if bitsNeeded128(v) > dataBits {
		// Wide value. Drain pending first to preserve order, then emit the
		// pair atomically.
		b.Flush()
		lo := uint64(wideSelector)<<selectorShift | v.Lo&(uint64(1)<<dataBits-1)
		hi := v.Rsh(dataBits).Lo
		b.writeFn([]uint64{lo, hi})

		return true
	}

	b.pending = append(b.pending, pending128{val: v})
	b.rebalance()

	return true
}

// Skip enqueues a missing marker that decodes to "no value".
func (b *Builder128) Skip() {
	b.pending = append(b.pending, pending128{missing: true})
	b.rebalance()
}

// Flush forces emission of all pending values.
func (b *Builder128) Flush() {
	for len(b.pending) > 0 {
		b.emitOne()
	}
}

// Pending iterates the values currently buffered, in append order. The second
// iteration value is false for missing markers.
func (b *Builder128) Pending() iter.Seq2[num128.Uint128, bool] {
	return func(yield func(num128.Uint128, bool) bool) {
		for _, p := range b.pending {
			if !yield(p.val, !p.missing) {
				return
			}
		}
	}
}

// PendingLen returns the number of buffered values.
func (b *Builder128) PendingLen() int {
	return len(b.pending)
}

func bitsNeeded128(v num128.Uint128) int {
	return v.Add(num128.FromUint64(1)).BitLen()
}

func (b *Builder128) rebalance() {
	for !b.fitsSingleBlock() {
		b.emitOne()
	}
}

func (b *Builder128) fitsSingleBlock() bool {
	need := 1
	for _, p := range b.pending {
		if p.missing {
			continue
		}
		if n := bitsNeeded128(p.val); n > need {
			need = n
		}
	}

	return packings[minSelectorFor(need)].slots >= len(b.pending)
}

func (b *Builder128) emitOne() {
	for sel := 1; sel < len(packings); sel++ {
		p := packings[sel]
		if p.slots > len(b.pending) {
			continue
		}
		if !fits128(b.pending[:p.slots], p.bits) {
			continue
		}
		block := pack128(uint64(sel), b.pending[:p.slots], p.bits)
		b.pending = b.pending[:copy(b.pending, b.pending[p.slots:])]
		b.writeFn([]uint64{block})

		return
	}

	panic("simple8b: no selector fits pending values")
}

func fits128(pending []pending128, width int) bool {
	for _, p := range pending {
		if !p.missing && bitsNeeded128(p.val) > width {
			return false
		}
	}

	return true
}

func pack128(sel uint64, pending []pending128, width int) uint64 {
	block := sel << selectorShift
	missing := uint64(1)<<width - 1
	for i, p := range pending {
		// Values in slots fit 60 bits, so the low half carries everything.
		v := p.val.Lo
		if p.missing {
			v = missing
		}
		block |= v << (i * width)
	}

	return block
}

// CountSlots parses the packed 8-byte little-endian blocks of one control run
// and returns the total number of value slots, missing markers included. A
// wide pair counts as one value. It panics on a reserved selector; block data
// produced by the builders in this package never contains one.
func CountSlots(data []byte) int {
	count := 0
	for i := 0; i+8 <= len(data); i += 8 {
		block := binary.LittleEndian.Uint64(data[i:])
		sel := int(block >> selectorShift)
		switch {
		case sel == wideSelector:
			count++
			i += 8 // continuation block carries no slots
		case sel >= 1 && sel < wideSelector:
			count += packings[sel].slots
		default:
			panic("simple8b: reserved selector in block data")
		}
	}

	return count
}
