// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memalloc

// HeapReport summarizes a heap walk, the Go analogue of lldb's AllocStats.
// It is produced by CheckHeap and by the supplemental Stats method; neither
// is required for correctness, but both make the allocator's behavior
// observable without a debugger.
type HeapReport struct {
	TotalBytes int // heapEnd - heapStart, excluding prologue/epilogue
	UsedBytes  int
	FreeBytes  int

	NumUsed int
	NumFree int

	// ClassCounts[i] is the number of free blocks currently resident in
	// segregated bucket i (spec.md 3's 9-way split).
	ClassCounts [numClasses]int

	// LargestFree is the size of the biggest free block found, 0 if none.
	LargestFree int
}

// Stats walks the heap and returns a fresh HeapReport without performing any
// of CheckHeap's invariant checks. Grounded on lldb.Allocator.AllocStats,
// which likewise offers a cheap non-verifying summary alongside the
// heavier Verify.
func (h *Heap) Stats() HeapReport {
	var r HeapReport
	off := h.heapStart
	for off < h.heapEnd {
		t := h.readTag(off)
		size := t.size()
		r.TotalBytes += size
		if t.used() {
			r.UsedBytes += size
			r.NumUsed++
		} else {
			r.FreeBytes += size
			r.NumFree++
			r.ClassCounts[sizeClass(size)]++
			if size > r.LargestFree {
				r.LargestFree = size
			}
		}
		off += size
	}
	return r
}
