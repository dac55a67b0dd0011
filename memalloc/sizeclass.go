// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memalloc

// numClasses is the number of segregated free lists (spec.md 3): exactly
// 16, exactly 32, (32,64], (64,128], (128,256], (256,512], (512,1024],
// (1024,2048], >2048.
const numClasses = 9

// sizeClass returns the bucket index for a block of the given size,
// matching mm.c's get_index branch tree bit for bit. Monotonic
// non-decreasing in size, as required to preserve invariant I6.
func sizeClass(size int) int {
	switch {
	case size <= 512:
		switch {
		case size <= 64:
			switch size {
			case 16:
				return 0
			case 32:
				return 1
			default:
				return 2
			}
		case size <= 128:
			return 3
		case size <= 256:
			return 4
		default:
			return 5
		}
	case size <= 2048:
		if size <= 1024 {
			return 6
		}
		return 7
	default:
		return 8
	}
}

