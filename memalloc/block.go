// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memalloc

// The block navigator. Addresses here are byte offsets into h.mem. Grounded
// on mm.c's bt_header/bt_payload/bt_footer/bt_next/bt_prev, translated from
// word_t* pointer arithmetic into slice-index arithmetic.

func headerOfPayload(payloadOff int) int { return payloadOff - 4 }
func payloadOfHeader(headerOff int) int { return headerOff + 4 }

// footerOf returns the offset of off's footer word. Only meaningful when
// the block at off is free; an allocated block's last word belongs to its
// payload.
func (h *Heap) footerOf(off int) int {
	return off + h.readTag(off).size() - 4
}

// next returns the offset of the block physically following off, or
// ok=false if off+size lies past the epilogue. The epilogue is returned as
// "next" of the heap's last real block: a zero-size, always-allocated
// sentinel, never nil — see doc note on ambiguity #1 in spec.md 9. Since
// the epilogue's size is 0, next of the epilogue is the epilogue itself.
func (h *Heap) next(off int) (next int, ok bool) {
	n := off + h.readTag(off).size()
	if n > h.heapEnd {
		return 0, false
	}
	return n, true
}

// prev returns the offset of the block physically preceding off, or
// ok=false if the prevFree bit is clear (off's predecessor is allocated, or
// off is the first real block after the prologue, which is never free).
func (h *Heap) prev(off int) (prevOff int, ok bool) {
	if !h.readTag(off).prevFree() {
		return 0, false
	}
	footerOff := off - 4
	size := h.readTag(footerOff).size()
	return off - size, true
}
