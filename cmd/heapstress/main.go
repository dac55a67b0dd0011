// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command heapstress drives a memalloc.Heap through a randomized
// alloc/realloc/free churn loop, periodically reporting heap occupancy and
// optionally verifying every invariant after every operation. It is the Go
// translation of lldb/lab/1/main.go's handle-churn loop, adapted from a
// Filer-backed Allocator to an in-process Heap.
package main

import (
	"flag"
	"log"
	"math/rand"
	"time"

	"github.com/julgitt/Memory-Allocator/memalloc"
)

var (
	maxBlocks = flag.Int("n", 1000, "target number of simultaneously live blocks")
	maxBytes  = flag.Int("arena", 64<<20, "arena size in bytes")
	maxSize   = flag.Int("size", 1<<16, "maximum single block payload size")
	seed      = flag.Int64("seed", 42, "PRNG seed")
	verify    = flag.Bool("verify", false, "run CheckHeap after every operation (slow)")
	iters     = flag.Int("iters", 20, "number of churn rounds")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Lshortfile)

	h, err := memalloc.NewHeap(memalloc.Config{MaxBytes: *maxBytes})
	if err != nil {
		log.Fatal(err)
	}

	rng := rand.New(rand.NewSource(*seed))
	var blocks [][]byte

	checkpoint := func(round int) {
		if *verify {
			if _, err := h.CheckHeap(nil, nil); err != nil {
				log.Fatalf("round %d: CheckHeap: %v", round, err)
			}
		}
	}

	t0 := time.Now()
	secs := time.Tick(time.Second)
	poll := func() {
		select {
		case <-secs:
			r := h.Stats()
			log.Printf("live=%d used=%d free=%d largestFree=%d", len(blocks), r.UsedBytes, r.FreeBytes, r.LargestFree)
		default:
		}
	}

	for round := 0; round < *iters; round++ {
		for nalloc := len(blocks)/2 + 1; nalloc != 0; nalloc-- {
			size := rng.Intn(*maxSize) + 1
			b := h.Allocate(size)
			if b == nil {
				log.Fatalf("round %d: Allocate(%d) failed, arena exhausted", round, size)
			}
			blocks = append(blocks, b)
			checkpoint(round)
			poll()
		}

		for nrealloc := len(blocks) / 2; nrealloc != 0; nrealloc-- {
			i := rng.Intn(len(blocks))
			size := rng.Intn(*maxSize) + 1
			grown := h.Reallocate(blocks[i], size)
			if grown == nil {
				log.Fatalf("round %d: Reallocate(#%d, %d) failed", round, i, size)
			}
			blocks[i] = grown
			checkpoint(round)
			poll()
		}

		for ndel := len(blocks) / 4; ndel != 0 && len(blocks) > 1; ndel-- {
			i := rng.Intn(len(blocks))
			h.Free(blocks[i])
			last := len(blocks) - 1
			blocks[i] = blocks[last]
			blocks = blocks[:last]
			checkpoint(round)
			poll()
		}

		for len(blocks) < *maxBlocks {
			size := rng.Intn(*maxSize) + 1
			b := h.Allocate(size)
			if b == nil {
				log.Fatalf("round %d: Allocate(%d) failed, arena exhausted", round, size)
			}
			blocks = append(blocks, b)
			checkpoint(round)
			poll()
		}
	}

	report, err := h.CheckHeap(nil, nil)
	if err != nil {
		log.Fatalf("final CheckHeap: %v", err)
	}
	log.Printf("done: %d blocks, %d used bytes, %d free bytes, %s elapsed", len(blocks), report.UsedBytes, report.FreeBytes, time.Since(t0))
}
