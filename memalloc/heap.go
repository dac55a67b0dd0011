// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memalloc

// noBlock marks an absent block/list-head reference (the Go analogue of
// mm.c's NULL word_t* and lldb's handle-0 "nil handle" convention).
const noBlock = -1

// defaultMaxBytes is used when a Config supplies neither MaxBytes nor a
// custom Sbrk.
const defaultMaxBytes = 64 << 20 // 64 MiB

// prologuePad and prologueSize size the arena's leading sentinel so that
// the first real block's payload lands on an Alignment boundary: pad(8) +
// prologueSize(20) == 28, and 28+4 (the first real header's own 4-byte
// header) == 32, a multiple of 16. This mirrors mm_init's "segregated_list
// table + pad + prologue" residue arithmetic, minus the table, which this
// module keeps host-side in Heap.segHead instead of inside the arena.
const (
	prologuePad  = 8
	prologueSize = 20
)

// Config configures a new Heap.
type Config struct {
	// MaxBytes bounds the in-process arena's growth when Sbrk is nil.
	// Defaults to 64 MiB.
	MaxBytes int

	// Sbrk, if non-nil, is used instead of the built-in in-process
	// arena. Exists so callers (and tests) can supply their own
	// monotonic extender, or one instrumented to fail on demand.
	Sbrk Sbrk
}

// Heap is a segregated-fit allocator over a monotonically growing arena.
// Its zero value is not usable; construct one with NewHeap.
type Heap struct {
	sbrk Sbrk
	mem  []byte // current view of the arena, length == heapEnd+4

	heapStart int // fixed origin for self-relative free-list links
	heapEnd   int // offset of the epilogue header; grows with the arena
	last      int // offset of the physically last real block, or noBlock

	segHead  [numClasses]int
	lastFree int // informational only; see freelist.go
}

// NewHeap installs the segregated list, prologue and epilogue over a fresh
// arena and returns the ready-to-use Heap. Mirrors mm_init/lldb.NewAllocator.
func NewHeap(cfg Config) (*Heap, error) {
	sb := cfg.Sbrk
	if sb == nil {
		max := cfg.MaxBytes
		if max <= 0 {
			max = defaultMaxBytes
		}
		sb = newArena(max)
	}

	h := &Heap{sbrk: sb, last: noBlock, lastFree: noBlock}
	for i := range h.segHead {
		h.segHead[i] = noBlock
	}

	need := prologuePad + prologueSize + 4 // + initial epilogue header
	mem, ok := sb.Grow(need)
	if !ok {
		return nil, &ErrArenaExhausted{Requested: need}
	}

	h.mem = mem
	h.heapStart = prologuePad + prologueSize
	h.heapEnd = h.heapStart

	h.writeTag(prologuePad, makeTag(prologueSize, true, false))
	h.writeTag(h.heapEnd, makeTag(0, true, false))

	return h, nil
}
