// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package alloc

import "fmt"

// firstGeneration is the generation of a freshly created allocator.
// Starting above zero keeps the zero BufferIndex permanently invalid.
const firstGeneration = 1

// BufferIndex identifies a slot (or the start of a vertex run) inside an
// allocator. It is a plain value: copy it, store it next to the entity, and
// pass it back on the next frame.
//
// The zero BufferIndex is never valid and means "no slot yet".
type BufferIndex struct {
	Index      uint32
	Generation uint32
}

// IsZero reports whether b is the zero index.
func (b BufferIndex) IsZero() bool {
	return b == BufferIndex{}
}

// String returns a debug representation of the index.
func (b BufferIndex) String() string {
	if b.IsZero() {
		return "BufferIndex(none)"
	}
	return fmt.Sprintf("BufferIndex(%d@g%d)", b.Index, b.Generation)
}
