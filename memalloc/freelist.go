// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memalloc

import "encoding/binary"

// Self-relative link encoding (spec.md 3, 4.3). A free block's payload
// holds two signed, 4-byte, word-indexed offsets from heapStart: word 0 is
// the next-free-block offset, word 1 is the prev-free-block offset. A
// negative value is the null terminator, matching mm.c's get_free_next/
// set_free_next (which use heap_start-1 as the written sentinel and a
// negative read as the null test).

const noLink int32 = -1

func (h *Heap) readLinkWord(off int) int32 {
	return int32(binary.LittleEndian.Uint32(h.mem[off : off+4]))
}

func (h *Heap) writeLinkWord(off int, v int32) {
	binary.LittleEndian.PutUint32(h.mem[off:off+4], uint32(v))
}

// encodeLink converts a block's byte offset into the word-indexed,
// heapStart-relative value stored in a link field.
func (h *Heap) encodeLink(blockOff int) int32 {
	return int32((blockOff - h.heapStart) / 4)
}

// decodeLink is the inverse of encodeLink. ok is false for a negative
// (null) value.
func (h *Heap) decodeLink(v int32) (blockOff int, ok bool) {
	if v < 0 {
		return 0, false
	}
	return h.heapStart + int(v)*4, true
}

func (h *Heap) getNextFree(off int) (int, bool) {
	return h.decodeLink(h.readLinkWord(payloadOfHeader(off)))
}

func (h *Heap) getPrevFree(off int) (int, bool) {
	return h.decodeLink(h.readLinkWord(payloadOfHeader(off) + 4))
}

func (h *Heap) setNextFree(off int, target int, has bool) {
	v := noLink
	if has {
		v = h.encodeLink(target)
	}
	h.writeLinkWord(payloadOfHeader(off), v)
}

func (h *Heap) setPrevFree(off int, target int, has bool) {
	v := noLink
	if has {
		v = h.encodeLink(target)
	}
	h.writeLinkWord(payloadOfHeader(off)+4, v)
}

// freeListInsert prepends off (a block of the given size, already written
// as a free block by makeBlock) to the head of its size class's list, per
// spec.md 4.5.
func (h *Heap) freeListInsert(off, size int) {
	idx := sizeClass(size)
	oldHead := h.segHead[idx]
	hasOldHead := oldHead != noBlock

	h.setPrevFree(off, 0, false)
	h.setNextFree(off, oldHead, hasOldHead)
	if hasOldHead {
		h.setPrevFree(oldHead, off, true)
	}
	h.segHead[idx] = off
}

// freeListUnlink splices off (a block of the given size) out of its size
// class's list, per spec.md 4.5. Unlinking the tail element records it in
// lastFree, matching mm.c's free_list_delete "delete tail" path (spec.md 9
// note 3: informational only, never read back by the allocator).
func (h *Heap) freeListUnlink(off, size int) {
	idx := sizeClass(size)
	prevOff, hasPrev := h.getPrevFree(off)
	nextOff, hasNext := h.getNextFree(off)

	switch {
	case !hasPrev && !hasNext:
		h.segHead[idx] = noBlock
		h.lastFree = off
	case !hasPrev && hasNext:
		h.segHead[idx] = nextOff
		h.setPrevFree(nextOff, 0, false)
	case hasPrev && !hasNext:
		h.setNextFree(prevOff, 0, false)
		h.lastFree = off
	default:
		h.setNextFree(prevOff, nextOff, true)
		h.setPrevFree(nextOff, prevOff, true)
	}
}

// findFit implements spec.md 4.6: starting at the requested size's class,
// each bucket is scanned whole for its smallest block of at least asize,
// and the first bucket that yields such a block wins. A bucket with no
// fitting member (possible only in asize's own class) is skipped.
func (h *Heap) findFit(asize int) (off int, ok bool) {
	for idx := sizeClass(asize); idx < numClasses; idx++ {
		best, hasBest := noBlock, false
		bestSize := 0
		for p := h.segHead[idx]; p != noBlock; {
			sz := h.readTag(p).size()
			if sz >= asize && (!hasBest || sz < bestSize) {
				best, hasBest, bestSize = p, true, sz
			}
			next, has := h.getNextFree(p)
			if !has {
				break
			}
			p = next
		}
		if hasBest {
			return best, true
		}
	}
	return 0, false
}
