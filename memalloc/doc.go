// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package memalloc implements a segregated-fit dynamic memory allocator on top
of a monotonically growing arena.

The arena is a []byte handed out and grown by a Sbrk implementation (see
sbrk.go); the allocator never shrinks it and never returns it to the
provider. Within the arena, memory is organized as a sequence of blocks, each
a contiguous, ALIGNMENT(16)-aligned byte run of at least 16 bytes:

	+--------+-----------------------------------+--------+
	| header | payload                           | footer |
	+--------+-----------------------------------+--------+

The header (and, for free blocks only, the footer) is a 4-byte boundary tag
packing three fields into one word (see tag.go):

	size      block size in bytes, a multiple of 16 (low 4 bits free for flags)
	used      set iff the block is allocated
	prevFree  set iff the physically previous block is free

An allocated block carries no footer: the next block's prevFree bit tells a
reader whether the word immediately before it is a meaningful footer. This
halves the per-block metadata on the allocated path, at the cost of needing
the prevFree bit kept scrupulously in sync on every header write — see
tag.go's makeBlock.

Free blocks are additionally linked into one of 9 segregated size-class
lists (see sizeclass.go, freelist.go). Rather than storing two 8-byte
pointers, a free block's payload stores two signed 4-byte offsets: the
word-indexed distance from a fixed heapStart origin to the next and previous
free blocks in its list. A negative offset is the null terminator. This
keeps the minimum block size at 16 bytes (header + 2*4-byte links + footer)
instead of the 24-32 bytes a pointer-based list would need.

The arena begins with a small allocated "prologue" sentinel sized to land
the first real block's payload on a 16-byte boundary, and ends with a
zero-size allocated "epilogue" sentinel that makes every physical-neighbor
walk self-terminating without special-casing the ends of the arena.

Unlike github.com/cznic/memory's Allocator, whose zero value is immediately
usable, a Heap's zero value is not: it has no arena until NewHeap installs
the prologue/epilogue and registers a Sbrk. Use NewHeap.
*/
package memalloc
