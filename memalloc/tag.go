// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memalloc

import "encoding/binary"

// Alignment is the payload alignment this allocator guarantees, and the
// granularity every block size is rounded up to. It is the module's only
// compile-time knob.
const Alignment = 16

const (
	tagUsed     uint32 = 1 // block is allocated
	tagPrevFree uint32 = 2 // physically previous block is free
	tagFlags    uint32 = tagUsed | tagPrevFree
)

// boundaryTag is the packed (size | used | prevFree) word stored in a
// block's header and, for free blocks, its footer. size is always a
// multiple of Alignment, leaving its low 4 bits free for the two flags.
type boundaryTag uint32

// makeTag packs size/used/prevFree into a tag word. size is expected to be
// a non-negative multiple of Alignment for every real block (invariant
// I1); the prologue and epilogue sentinels are the sole exceptions and are
// written by NewHeap through this same helper, which is why it does not
// enforce the multiple-of-Alignment rule itself.
func makeTag(size int, used, prevFree bool) boundaryTag {
	if size < 0 {
		panic("memalloc: negative block size")
	}
	t := uint32(size)
	if used {
		t |= tagUsed
	}
	if prevFree {
		t |= tagPrevFree
	}
	return boundaryTag(t)
}

func (t boundaryTag) size() int      { return int(uint32(t) &^ tagFlags) }
func (t boundaryTag) used() bool     { return uint32(t)&tagUsed != 0 }
func (t boundaryTag) free() bool     { return uint32(t)&tagUsed == 0 }
func (t boundaryTag) prevFree() bool { return uint32(t)&tagPrevFree != 0 }

func (t boundaryTag) withPrevFree(v bool) boundaryTag {
	if v {
		return boundaryTag(uint32(t) | tagPrevFree)
	}
	return boundaryTag(uint32(t) &^ tagPrevFree)
}

// readTag reads the boundary tag at byte offset off.
func (h *Heap) readTag(off int) boundaryTag {
	return boundaryTag(binary.LittleEndian.Uint32(h.mem[off : off+4]))
}

func (h *Heap) writeTag(off int, t boundaryTag) {
	binary.LittleEndian.PutUint32(h.mem[off:off+4], uint32(t))
}

// setPrevFreeAt mutates the prevFree bit of the tag at off in place, in both
// the header and, if the block is free, its footer.
func (h *Heap) setPrevFreeAt(off int, v bool) {
	t := h.readTag(off).withPrevFree(v)
	h.writeTag(off, t)
	if t.free() {
		h.writeTag(h.footerOf(off), t)
	}
}

// makeBlock writes a header (and, for free blocks, a matching footer) at
// off, describing a block of size bytes. Writing an allocated block clears
// the next physical block's prevFree bit (if a next block exists inside the
// current heap); writing a free block sets it and also writes the footer,
// per spec.md 4.1.
func (h *Heap) makeBlock(off, size int, used, prevFree bool) {
	t := makeTag(size, used, prevFree)
	h.writeTag(off, t)
	if used {
		if nextOff, ok := h.next(off); ok {
			h.setPrevFreeAt(nextOff, false)
		}
		return
	}

	h.writeTag(h.footerOf(off), t)
	if nextOff, ok := h.next(off); ok {
		h.setPrevFreeAt(nextOff, true)
	}
}
