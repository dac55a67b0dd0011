// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memalloc

import "fmt"

// ErrInvalidSize reports an invalid size argument passed to a Heap method.
type ErrInvalidSize struct {
	Op   string
	Size int
}

func (e *ErrInvalidSize) Error() string {
	return fmt.Sprintf("memalloc: %s: invalid size %d", e.Op, e.Size)
}

// ErrArenaExhausted wraps a Sbrk.Grow failure. It is returned by NewHeap and
// surfaces as a nil result from Allocate/Reallocate/ZeroAllocate.
type ErrArenaExhausted struct {
	Requested int
}

func (e *ErrArenaExhausted) Error() string {
	return fmt.Sprintf("memalloc: arena exhausted growing by %d bytes", e.Requested)
}

// CorruptionKind identifies which testable property (spec P1-P8) a
// CheckHeap walk found violated.
type CorruptionKind int

const (
	_ CorruptionKind = iota
	ErrBadAlignment
	ErrTagMismatch
	ErrPrevFreeFlag
	ErrAdjacentFree
	ErrBadBucket
	ErrListIntegrity
	ErrBadSize
	ErrWalkCoverage
)

var corruptionNames = [...]string{
	ErrBadAlignment:  "payload not 16-aligned",
	ErrTagMismatch:   "free block header/footer mismatch",
	ErrPrevFreeFlag:  "prevFree flag disagrees with neighbor state",
	ErrAdjacentFree:  "two physically adjacent free blocks",
	ErrBadBucket:     "free block filed under the wrong size class",
	ErrListIntegrity: "free list is not a well-formed doubly linked list",
	ErrBadSize:       "block size is not a multiple of 16, or below the minimum",
	ErrWalkCoverage:  "physical walk did not reach the epilogue cleanly",
}

// ErrCorrupt is returned by CheckHeap when a heap invariant does not hold.
type ErrCorrupt struct {
	Kind CorruptionKind
	Off  int // byte offset of the offending block/link, if applicable
	More string
}

func (e *ErrCorrupt) Error() string {
	name := "unknown invariant violation"
	if int(e.Kind) < len(corruptionNames) && corruptionNames[e.Kind] != "" {
		name = corruptionNames[e.Kind]
	}
	if e.More != "" {
		return fmt.Sprintf("memalloc: corrupt heap at off %#x: %s (%s)", e.Off, name, e.More)
	}
	return fmt.Sprintf("memalloc: corrupt heap at off %#x: %s", e.Off, name)
}
