// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memalloc

import (
	"unsafe"

	"github.com/cznic/mathutil"
)

// roundUp rounds n up to the next multiple of Alignment.
func roundUp(n int) int {
	return (n + Alignment - 1) &^ (Alignment - 1)
}

// offsetOf recovers the byte offset of b's first element within h.mem. Like
// cznic/memory's Malloc (which builds its returned []byte's reflect.
// SliceHeader from an unsafe.Pointer arithmetic result internally), this is
// the one place pointer arithmetic is unavoidable: Go has no operator to
// relate two slices' addresses without it. The public API surface never
// hands out an unsafe.Pointer itself.
func (h *Heap) offsetOf(b []byte) int {
	base := uintptr(unsafe.Pointer(&h.mem[0]))
	p := uintptr(unsafe.Pointer(&b[0]))
	return int(p - base)
}

// payloadSlice returns the n-byte caller-visible view of the payload at the
// block whose header is at off.
func (h *Heap) payloadSlice(off, n int) []byte {
	p := payloadOfHeader(off)
	return h.mem[p : p+n : p+n]
}

// Allocate reserves size bytes and returns a 16-aligned payload slice, or
// nil if size is zero or the arena is exhausted. Mirrors mm.c's malloc.
func (h *Heap) Allocate(size int) []byte {
	if size <= 0 {
		return nil
	}

	asize := roundUp(size + 4)
	if off, ok := h.findFit(asize); ok {
		h.place(off, asize)
		return h.payloadSlice(off, size)
	}

	grow := asize
	if h.last != noBlock && h.readTag(h.last).free() {
		grow -= h.readTag(h.last).size()
	}

	off, ok := h.extendHeap(grow)
	if !ok {
		return nil
	}
	return h.payloadSlice(off, size)
}

// place implements spec.md 4.7: unlink the found block, split off a free
// remainder when it would be at least Alignment bytes, else consume the
// whole block (sub-Alignment internal fragmentation).
func (h *Heap) place(off, asize int) {
	fsize := h.readTag(off).size()
	h.freeListUnlink(off, fsize)
	prevFree := h.readTag(off).prevFree()

	if fsize-asize >= Alignment {
		tailOff := off + asize
		h.makeBlock(tailOff, fsize-asize, false, false)
		h.makeBlock(off, asize, true, prevFree)
		h.freeListInsert(tailOff, fsize-asize)
		if tailOff > h.last {
			h.last = tailOff
		}
		return
	}

	h.makeBlock(off, fsize, true, prevFree)
}

// extendHeap grows the arena by growBytes and returns the resulting
// allocated block. If the heap's last block is free, its bytes are folded
// into the new block for free, per spec.md 4.9 — growBytes is the net new
// arena bytes required, already reduced by the caller for that case. On
// sbrk failure, any fold-in unlink performed before the failing Grow call
// is undone, since an OOM outcome must leave the heap exactly as it was
// (spec.md 5, 7).
func (h *Heap) extendHeap(growBytes int) (off int, ok bool) {
	blockOff := h.heapEnd
	size := growBytes

	foldedLast := noBlock
	lastSize := 0
	if h.last != noBlock && h.readTag(h.last).free() {
		foldedLast = h.last
		lastSize = h.readTag(h.last).size()
		h.freeListUnlink(foldedLast, lastSize)
		blockOff = foldedLast
		size += lastSize
	}

	mem, grew := h.sbrk.Grow(growBytes)
	if !grew {
		if foldedLast != noBlock {
			h.freeListInsert(foldedLast, lastSize)
		}
		return 0, false
	}

	h.mem = mem
	prevFree := h.readTag(blockOff).prevFree()
	h.makeBlock(blockOff, size, true, prevFree)
	newEpilogue := blockOff + size
	h.writeTag(newEpilogue, makeTag(0, true, false))
	h.last = blockOff
	h.heapEnd = newEpilogue
	return blockOff, true
}

// Free releases a block previously returned by Allocate, Reallocate or
// ZeroAllocate. A nil slice is a no-op; any other argument not obtained
// from this Heap is undefined, per spec.md 6.
func (h *Heap) Free(b []byte) {
	if b == nil {
		return
	}

	off := headerOfPayload(h.offsetOf(b))
	t := h.readTag(off)
	size := t.size()
	prevFree := t.prevFree()
	h.makeBlock(off, size, false, prevFree)

	// The epilogue guarantees next always resolves, even for the
	// physically last real block (spec.md 9, ambiguity 1).
	nextOff, _ := h.next(off)
	if prevFree || h.readTag(nextOff).free() {
		h.coalesce(off)
		return
	}
	h.freeListInsert(off, size)
}

// coalesce merges off with any free physical neighbors (spec.md 4.8) and
// files the resulting block, returning its (possibly shifted left) offset.
func (h *Heap) coalesce(off int) int {
	size := h.readTag(off).size()
	changeLast := off == h.last

	nextOff, hasNext := h.next(off)
	nextFree := hasNext && h.readTag(nextOff).free()
	if nextFree && nextOff == h.last {
		changeLast = true
	}

	if nextFree {
		nsize := h.readTag(nextOff).size()
		h.freeListUnlink(nextOff, nsize)
		size += nsize
	}

	if h.readTag(off).prevFree() {
		if leftOff, ok := h.prev(off); ok {
			lsize := h.readTag(leftOff).size()
			h.freeListUnlink(leftOff, lsize)
			off = leftOff
			size += lsize
		}
	}

	h.makeBlock(off, size, false, h.readTag(off).prevFree())
	h.freeListInsert(off, size)
	if changeLast {
		h.last = off
	}
	return off
}

// Reallocate resizes the block backing b to size bytes, per the four cases
// of spec.md 4.11. A nil b behaves as Allocate; a zero size behaves as Free
// and returns nil. On OOM the original block is left intact and nil is
// returned.
func (h *Heap) Reallocate(b []byte, size int) []byte {
	if b == nil {
		return h.Allocate(size)
	}
	if size == 0 {
		h.Free(b)
		return nil
	}

	off := headerOfPayload(h.offsetOf(b))
	asize := roundUp(size + 4)
	cur := h.readTag(off).size()

	nextOff, hasNext := h.next(off)
	nextFree := hasNext && h.readTag(nextOff).free()
	avail := cur
	if nextFree {
		avail += h.readTag(nextOff).size()
	}

	switch {
	case avail >= asize:
		// Covers both shrinking in place (cur >= asize; a free next, if
		// any, is still folded in and re-split below) and growing into a
		// free next neighbor. The two must share one branch: a
		// free next absorbed into avail has to be unlinked and folded in
		// before any split, or the split's own tail would sit directly
		// beside that untouched free block, leaving two physically
		// adjacent free blocks (violates I4/P4). Grounded on mm.c's
		// realloc, which folds both cases into its one
		// "free_size >= asize" branch for the same reason.
		consumedOldLast := nextFree && nextOff == h.last
		if nextFree {
			h.freeListUnlink(nextOff, h.readTag(nextOff).size())
		}
		prevFree := h.readTag(off).prevFree()

		finalOff := off
		if avail-asize >= Alignment {
			tailOff := off + asize
			h.makeBlock(tailOff, avail-asize, false, false)
			h.makeBlock(off, asize, true, prevFree)
			h.freeListInsert(tailOff, avail-asize)
			finalOff = tailOff
		} else {
			h.makeBlock(off, avail, true, prevFree)
		}

		if consumedOldLast {
			h.last = finalOff
		} else if finalOff > h.last {
			h.last = finalOff
		}
		return h.payloadSlice(off, size)

	default:
		isLastOrAbsorbsLast := off == h.last || (nextFree && nextOff == h.last)
		if !isLastOrAbsorbsLast {
			newB := h.Allocate(size)
			if newB == nil {
				return nil
			}
			copyLen := mathutil.Min(cur-4, size)
			copy(newB, h.payloadSlice(off, copyLen))
			h.Free(b)
			return newB
		}

		grow := asize - avail
		if nextFree {
			h.freeListUnlink(nextOff, h.readTag(nextOff).size())
		}

		mem, grew := h.sbrk.Grow(grow)
		if !grew {
			if nextFree {
				h.freeListInsert(nextOff, h.readTag(nextOff).size())
			}
			return nil
		}

		h.mem = mem
		prevFree := h.readTag(off).prevFree()
		h.makeBlock(off, asize, true, prevFree)
		newEpilogue := off + asize
		h.writeTag(newEpilogue, makeTag(0, true, false))
		h.heapEnd = newEpilogue
		h.last = off
		return h.payloadSlice(off, size)
	}
}

// ZeroAllocate allocates n*s bytes and zeroes the payload. The product is
// not checked for overflow, preserving the historical calloc contract
// (spec.md 9, note 2).
func (h *Heap) ZeroAllocate(n, s int) []byte {
	b := h.Allocate(n * s)
	if b == nil {
		return nil
	}
	for i := range b {
		b[i] = 0
	}
	return b
}
