// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package alloc

import (
	"fmt"

	"github.com/gammazero/deque"
)

// SlotStats is a snapshot of a SlotAllocator's bookkeeping.
type SlotStats struct {
	Generation uint32
	Live       int
	Free       int
	Capacity   int
	Defrags    uint64
}

// String returns a human-readable string of slot stats.
func (s SlotStats) String() string {
	return fmt.Sprintf("Slots[g%d, %d live, %d free, cap %d, %d defrags]",
		s.Generation, s.Live, s.Free, s.Capacity, s.Defrags)
}

// SlotAllocator maps caller-held BufferIndex values to slots in a flat,
// uploadable array of R.
//
// Every index in [0, next) is either live or present exactly once in the
// free list. Freed slots keep their old bytes until overwritten.
type SlotAllocator[R Record] struct {
	records  []R
	occupied []bool
	free     deque.Deque[uint32]
	next     uint32

	generation uint32
	dirty      dirtyRange
	resized    bool
	defrags    uint64

	opts options
}

// NewSlotAllocator creates an empty allocator with one block of capacity.
func NewSlotAllocator[R Record](opts ...Option) *SlotAllocator[R] {
	a := &SlotAllocator[R]{
		generation: firstGeneration,
		opts:       buildOptions(opts),
	}
	a.reset()
	return a
}

// reset drops every slot and shrinks storage back to a single block.
func (a *SlotAllocator[R]) reset() {
	a.records = make([]R, a.opts.blockSize)
	a.occupied = make([]bool, a.opts.blockSize)
	a.free.Clear()
	a.next = 0
	a.dirty = cleanRange()
	a.resized = true
}

// Valid reports whether idx belongs to the current generation and lies
// inside the allocated range.
func (a *SlotAllocator[R]) Valid(idx BufferIndex) bool {
	return idx.Generation == a.generation && idx.Index < a.next
}

// Set stores record and returns the slot holding it.
//
// When changed is false and prev is still valid, Set returns prev without
// writing. A zero, stale or freed prev yields a new slot.
func (a *SlotAllocator[R]) Set(record R, prev BufferIndex, changed bool) BufferIndex {
	valid := a.Valid(prev) && a.occupied[prev.Index]
	if !changed && valid {
		return prev
	}
	idx := prev
	if !valid {
		idx = a.newIndex()
	}
	a.write(int(idx.Index), record)
	return idx
}

// newIndex reuses the oldest free slot or extends the array by one.
func (a *SlotAllocator[R]) newIndex() BufferIndex {
	var i uint32
	if a.free.Len() > 0 {
		i = a.free.PopFront()
	} else {
		i = a.next
		a.next++
	}
	return BufferIndex{Index: i, Generation: a.generation}
}

func (a *SlotAllocator[R]) write(i int, record R) {
	if i >= len(a.records) {
		n := roundUp(i+1, a.opts.blockSize)
		a.records = append(a.records, make([]R, n-len(a.records))...)
		a.occupied = append(a.occupied, make([]bool, n-len(a.occupied))...)
		a.resized = true
	}
	a.records[i] = record
	a.occupied[i] = true
	a.dirty.mark(i, i)
}

// Free returns idx to the free list. Stale, out-of-range and already-free
// indices are ignored.
func (a *SlotAllocator[R]) Free(idx BufferIndex) {
	if !a.Valid(idx) || !a.occupied[idx.Index] {
		return
	}
	a.occupied[idx.Index] = false
	a.free.PushBack(idx.Index)
}

// Get returns the record stored at idx.
func (a *SlotAllocator[R]) Get(idx BufferIndex) (R, bool) {
	if !a.Valid(idx) || !a.occupied[idx.Index] {
		var zero R
		return zero, false
	}
	return a.records[idx.Index], true
}

// Flush hands this frame's writes to sink, then defragments if the free list
// has grown past both the absolute threshold and half of capacity.
func (a *SlotAllocator[R]) Flush(sink Sink) error {
	var err error
	switch {
	case a.resized:
		err = sink.Replace(a.Bytes())
	case !a.dirty.empty():
		stride := a.stride()
		err = sink.Upload(uint64(a.dirty.min*stride), a.encode(a.dirty.min, a.dirty.max+1))
	}
	if err != nil {
		return fmt.Errorf("alloc: upload slots: %w", err)
	}
	a.dirty = cleanRange()
	a.resized = false

	if n := a.free.Len(); n > a.opts.defragThreshold && n > len(a.records)/2 {
		a.defragment()
	}
	return nil
}

// defragment rebuilds the allocator from scratch under a new generation.
// Callers re-Set every live entity on the next frame.
func (a *SlotAllocator[R]) defragment() {
	a.generation++
	a.defrags++
	a.reset()
}

// Bytes encodes the whole backing array, including dead slots.
func (a *SlotAllocator[R]) Bytes() []byte {
	return a.encode(0, len(a.records))
}

func (a *SlotAllocator[R]) encode(lo, hi int) []byte {
	stride := a.stride()
	buf := make([]byte, (hi-lo)*stride)
	for i := lo; i < hi; i++ {
		off := (i - lo) * stride
		a.records[i].Marshal(buf[off : off+stride])
	}
	return buf
}

func (a *SlotAllocator[R]) stride() int {
	var zero R
	return zero.Stride()
}

// Generation returns the current generation.
func (a *SlotAllocator[R]) Generation() uint32 { return a.generation }

// Len returns the number of live slots.
func (a *SlotAllocator[R]) Len() int { return int(a.next) - a.free.Len() }

// Cap returns the number of slots in the backing array.
func (a *SlotAllocator[R]) Cap() int { return len(a.records) }

// Stats returns current bookkeeping statistics.
func (a *SlotAllocator[R]) Stats() SlotStats {
	return SlotStats{
		Generation: a.generation,
		Live:       a.Len(),
		Free:       a.free.Len(),
		Capacity:   len(a.records),
		Defrags:    a.defrags,
	}
}
