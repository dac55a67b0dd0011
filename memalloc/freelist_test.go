// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memalloc

import "testing"

// blockHeaders allocates n distinct 16-byte payload blocks and returns
// their header offsets, in allocation order.
func blockHeaders(t *testing.T, h *Heap, n int) []int {
	t.Helper()
	offs := make([]int, n)
	for i := 0; i < n; i++ {
		p := h.Allocate(16)
		if p == nil {
			t.Fatalf("Allocate(16) #%d returned nil", i)
		}
		offs[i] = headerOfPayload(h.offsetOf(p))
	}
	return offs
}

func TestFreeListInsertIsHeadInsert(t *testing.T) {
	h := newTestHeap(t)
	offs := blockHeaders(t, h, 3)

	size := h.readTag(offs[0]).size()
	idx := sizeClass(size)

	h.makeBlock(offs[0], size, false, h.readTag(offs[0]).prevFree())
	h.freeListInsert(offs[0], size)
	h.makeBlock(offs[1], size, false, h.readTag(offs[1]).prevFree())
	h.freeListInsert(offs[1], size)
	h.makeBlock(offs[2], size, false, h.readTag(offs[2]).prevFree())
	h.freeListInsert(offs[2], size)

	// Spec 4.5: insert is head-insert, so the list reads most-recent-first.
	want := []int{offs[2], offs[1], offs[0]}
	got := []int{}
	for p := h.segHead[idx]; p != noBlock; {
		got = append(got, p)
		next, has := h.getNextFree(p)
		if !has {
			break
		}
		p = next
	}
	if len(got) != len(want) {
		t.Fatalf("list length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("list[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestFreeListUnlinkMiddle(t *testing.T) {
	h := newTestHeap(t)
	offs := blockHeaders(t, h, 3)
	size := h.readTag(offs[0]).size()
	idx := sizeClass(size)

	for _, off := range offs {
		h.makeBlock(off, size, false, h.readTag(off).prevFree())
		h.freeListInsert(off, size)
	}
	// list: offs[2] -> offs[1] -> offs[0]

	h.freeListUnlink(offs[1], size)

	if h.segHead[idx] != offs[2] {
		t.Fatalf("head = %d, want %d", h.segHead[idx], offs[2])
	}
	next, has := h.getNextFree(offs[2])
	if !has || next != offs[0] {
		t.Fatalf("offs[2].next = (%d,%v), want (%d,true)", next, has, offs[0])
	}
	if prev, has := h.getPrevFree(offs[0]); !has || prev != offs[2] {
		t.Fatalf("offs[0].prev = (%d,%v), want (%d,true)", prev, has, offs[2])
	}
}

func TestFreeListUnlinkHead(t *testing.T) {
	h := newTestHeap(t)
	offs := blockHeaders(t, h, 2)
	size := h.readTag(offs[0]).size()
	idx := sizeClass(size)

	for _, off := range offs {
		h.makeBlock(off, size, false, h.readTag(off).prevFree())
		h.freeListInsert(off, size)
	}
	// list: offs[1] -> offs[0]

	h.freeListUnlink(offs[1], size)
	if h.segHead[idx] != offs[0] {
		t.Fatalf("head = %d, want %d", h.segHead[idx], offs[0])
	}
	if _, has := h.getPrevFree(offs[0]); has {
		t.Fatal("new head still has a prev link")
	}
}

func TestFreeListUnlinkOnlyElement(t *testing.T) {
	h := newTestHeap(t)
	offs := blockHeaders(t, h, 1)
	size := h.readTag(offs[0]).size()
	idx := sizeClass(size)

	h.makeBlock(offs[0], size, false, h.readTag(offs[0]).prevFree())
	h.freeListInsert(offs[0], size)
	h.freeListUnlink(offs[0], size)

	if h.segHead[idx] != noBlock {
		t.Fatalf("segHead[%d] = %d, want noBlock", idx, h.segHead[idx])
	}
	if h.lastFree != offs[0] {
		t.Fatalf("lastFree = %d, want %d", h.lastFree, offs[0])
	}
}

func TestFindFitSkipsTooSmallBuckets(t *testing.T) {
	h := newTestHeap(t)
	p := h.Allocate(16)
	h.Free(p)
	verifyInvariants(t, h)

	// A free 32-byte block exists but the request needs a far larger
	// class; findFit must not be satisfied by it.
	if _, ok := h.findFit(roundUp(300 + 4)); ok {
		t.Fatal("findFit matched a block from a strictly smaller bucket")
	}
}
