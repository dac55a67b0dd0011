// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memalloc

import (
	"fmt"
	"io"
)

// CheckHeap walks the entire heap from the prologue to the epilogue,
// checking every invariant spec.md 8 requires (P1-P8) and returning a
// HeapReport of what it found. w, if non-nil, receives one line per block
// visited; pass nil to walk silently. Bucket lists are assumed to be
// acyclic: a cycle in one is not detected, and the walk does not terminate
// on it.
//
// log is called once per violation found, mirroring lldb.Allocator.Verify's
// "log func(error) bool" contract: returning false aborts the walk
// immediately with that error. A nil log aborts on the first violation.
// CheckHeap never mutates the heap.
func (h *Heap) CheckHeap(w io.Writer, log func(error) bool) (*HeapReport, error) {
	report := &HeapReport{}

	fail := func(err error) error {
		if log == nil {
			return err
		}
		if !log(err) {
			return err
		}
		return nil
	}

	prologue := h.readTag(prologuePad)
	if prologue.size() != prologueSize || !prologue.used() {
		if err := fail(&ErrCorrupt{Kind: ErrTagMismatch, Off: prologuePad, More: "prologue header damaged"}); err != nil {
			return report, err
		}
	}

	prevWasFree := false
	prevOff := -1
	seenFree := map[int]bool{}

	off := h.heapStart
	for off < h.heapEnd {
		t := h.readTag(off)
		size := t.size()

		if w != nil {
			state := "used"
			if t.free() {
				state = "free"
			}
			fmt.Fprintf(w, "block off=%d size=%d %s prevFree=%v\n", off, size, state, t.prevFree())
		}

		if size <= 0 || size%Alignment != 0 {
			if err := fail(&ErrCorrupt{Kind: ErrBadSize, Off: off, More: fmt.Sprintf("size=%d", size)}); err != nil {
				return report, err
			}
		}
		if payloadOfHeader(off)%Alignment != 0 {
			if err := fail(&ErrCorrupt{Kind: ErrBadAlignment, Off: off}); err != nil {
				return report, err
			}
		}

		if t.prevFree() != prevWasFree {
			if err := fail(&ErrCorrupt{Kind: ErrPrevFreeFlag, Off: off, More: fmt.Sprintf("want %v got %v", prevWasFree, t.prevFree())}); err != nil {
				return report, err
			}
		}

		if t.free() {
			footer := h.readTag(h.footerOf(off))
			if footer != t {
				if err := fail(&ErrCorrupt{Kind: ErrTagMismatch, Off: off, More: "header/footer mismatch"}); err != nil {
					return report, err
				}
			}
			if prevWasFree {
				if err := fail(&ErrCorrupt{Kind: ErrAdjacentFree, Off: off, More: fmt.Sprintf("predecessor at %d also free", prevOff)}); err != nil {
					return report, err
				}
			}

			idx := sizeClass(size)
			if !h.freeListContains(idx, off) {
				if err := fail(&ErrCorrupt{Kind: ErrBadBucket, Off: off, More: fmt.Sprintf("not found in bucket %d", idx)}); err != nil {
					return report, err
				}
			}
			seenFree[off] = true

			report.FreeBytes += size
			report.NumFree++
			report.ClassCounts[idx]++
			if size > report.LargestFree {
				report.LargestFree = size
			}
		} else {
			report.UsedBytes += size
			report.NumUsed++
		}

		report.TotalBytes += size
		prevOff = off
		prevWasFree = t.free()
		off += size
	}

	if off != h.heapEnd {
		if err := fail(&ErrCorrupt{Kind: ErrWalkCoverage, Off: off, More: fmt.Sprintf("walk ended at %d, want heapEnd %d", off, h.heapEnd)}); err != nil {
			return report, err
		}
	}

	epilogue := h.readTag(h.heapEnd)
	if epilogue.size() != 0 || !epilogue.used() {
		if err := fail(&ErrCorrupt{Kind: ErrTagMismatch, Off: h.heapEnd, More: "epilogue header damaged"}); err != nil {
			return report, err
		}
	}

	for idx := 0; idx < numClasses; idx++ {
		count := 0
		prevP, hasPrevP := 0, false
		for p := h.segHead[idx]; p != noBlock; {
			count++
			if !seenFree[p] {
				if err := fail(&ErrCorrupt{Kind: ErrListIntegrity, Off: p, More: fmt.Sprintf("bucket %d references block not found on walk", idx)}); err != nil {
					return report, err
				}
			}
			if back, ok := h.getPrevFree(p); ok != hasPrevP || (ok && back != prevP) {
				if err := fail(&ErrCorrupt{Kind: ErrListIntegrity, Off: p, More: fmt.Sprintf("bucket %d prev link does not match the preceding element", idx)}); err != nil {
					return report, err
				}
			}
			prevP, hasPrevP = p, true
			next, has := h.getNextFree(p)
			if !has {
				break
			}
			p = next
		}
		if count != report.ClassCounts[idx] {
			if err := fail(&ErrCorrupt{Kind: ErrListIntegrity, Off: h.segHead[idx], More: fmt.Sprintf("bucket %d has %d links, walk saw %d free blocks of that class", idx, count, report.ClassCounts[idx])}); err != nil {
				return report, err
			}
		}
	}

	return report, nil
}

// freeListContains reports whether off appears somewhere in bucket idx's
// list, used by CheckHeap to confirm every free block on the heap walk is
// actually reachable from its segregated list (the converse of the
// list-integrity check below, which confirms the opposite direction).
func (h *Heap) freeListContains(idx, off int) bool {
	for p := h.segHead[idx]; p != noBlock; {
		if p == off {
			return true
		}
		next, has := h.getNextFree(p)
		if !has {
			break
		}
		p = next
	}
	return false
}
