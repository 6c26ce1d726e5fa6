// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package alloc

// Sink receives bytes staged by an allocator.
//
// Implementations typically wrap a GPU storage buffer. Errors are fatal for
// the frame: there is no degraded mode for a shadow buffer that cannot be
// uploaded.
type Sink interface {
	// Upload writes data at a byte offset into the current allocation.
	// The range always lies inside the size of the last Replace call.
	Upload(offset uint64, data []byte) error

	// Replace discards the current contents and stores data from offset
	// zero. It is called after the allocator's storage changed size.
	Replace(data []byte) error
}

// Record is a fixed-size value stored by a SlotAllocator.
//
// Record methods must have value receivers and must not depend on the
// receiver's contents for Stride: the zero value reports the stride.
type Record interface {
	// Stride returns the encoded size in bytes.
	Stride() int

	// Marshal writes the little-endian GPU layout into dst[:Stride()].
	Marshal(dst []byte)
}

// dirtyRange tracks the inclusive element range written since the last
// upload. An empty range has min > max.
type dirtyRange struct {
	min, max int
}

func cleanRange() dirtyRange {
	return dirtyRange{min: 1, max: 0}
}

func (d dirtyRange) empty() bool {
	return d.min > d.max
}

func (d *dirtyRange) mark(lo, hi int) {
	if d.empty() {
		d.min, d.max = lo, hi
		return
	}
	d.min = min(d.min, lo)
	d.max = max(d.max, hi)
}

// roundUp rounds n up to the next multiple of block, with a floor of one block.
func roundUp(n, block int) int {
	if n <= block {
		return block
	}
	return (n + block - 1) / block * block
}
