// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package alloc

import (
	"encoding/binary"
	"fmt"
	"math"

	"golang.org/x/image/math/f32"
)

// VertexStride is the encoded size of one vertex (two float32).
const VertexStride = 8

// ArenaStats is a snapshot of a VertexArena's bookkeeping.
type ArenaStats struct {
	Generation uint32
	Len        int
	EmptySlots int
	Capacity   int
	Defrags    uint64
}

// String returns a human-readable string of arena stats.
func (s ArenaStats) String() string {
	return fmt.Sprintf("Arena[g%d, %d used, %d empty, cap %d, %d defrags]",
		s.Generation, s.Len, s.EmptySlots, s.Capacity, s.Defrags)
}

// VertexArena stores variable-length vertex runs back to back.
//
// Runs are appended once and then rewritten in place while their length is
// unchanged. Freed runs are only tallied; the space is reclaimed when the
// arena rebuilds itself during Pass.
type VertexArena struct {
	vertices   []f32.Vec2
	next       int
	emptySlots int

	generation uint32
	dirty      dirtyRange
	resized    bool
	defrags    uint64

	opts options
}

// NewVertexArena creates an empty arena with one block of capacity.
func NewVertexArena(opts ...Option) *VertexArena {
	a := &VertexArena{
		generation: firstGeneration,
		opts:       buildOptions(opts),
	}
	a.reset()
	return a
}

func (a *VertexArena) reset() {
	a.vertices = make([]f32.Vec2, a.opts.blockSize)
	a.next = 0
	a.emptySlots = 0
	a.dirty = cleanRange()
	a.resized = true
}

// Valid reports whether idx was issued in the current generation and starts
// at or before the arena cursor.
func (a *VertexArena) Valid(idx BufferIndex) bool {
	return idx.Generation == a.generation && int(idx.Index) <= a.next
}

// Write stores a vertex run and returns the index of its first vertex.
//
// When changed is false and prev is valid, nothing is written. A valid prev
// is overwritten in place; callers must drop prev (pass the zero index)
// whenever the run's length changes. Rewriting past the arena cursor
// violates that contract and panics.
func (a *VertexArena) Write(vertices []f32.Vec2, prev BufferIndex, changed bool) BufferIndex {
	valid := a.Valid(prev)
	if !changed && valid {
		return prev
	}

	start := a.next
	if valid {
		start = int(prev.Index)
		if start+len(vertices) > a.next {
			panic(fmt.Sprintf("alloc: vertex run of %d at %d overruns arena length %d", len(vertices), start, a.next))
		}
	} else {
		a.next += len(vertices)
		if a.next > len(a.vertices) {
			n := roundUp(a.next, a.opts.blockSize)
			a.vertices = append(a.vertices, make([]f32.Vec2, n-len(a.vertices))...)
			a.resized = true
		}
	}

	copy(a.vertices[start:], vertices)
	if len(vertices) > 0 {
		a.dirty.mark(start, start+len(vertices)-1)
	}
	//nolint:gosec // G115: arena length is bounded by the pointer encoding
	return BufferIndex{Index: uint32(start), Generation: a.generation}
}

// Free records that a run of vertexCount vertices is no longer used.
// Runs from an older generation are ignored.
func (a *VertexArena) Free(vertexCount int, generation uint32) {
	if generation != a.generation || vertexCount <= 0 {
		return
	}
	a.emptySlots += vertexCount
}

// Vertices returns the n vertices starting at idx, or nil if idx is stale or
// the range lies outside the arena. The slice aliases arena storage.
func (a *VertexArena) Vertices(idx BufferIndex, n int) []f32.Vec2 {
	if !a.Valid(idx) || int(idx.Index)+n > a.next {
		return nil
	}
	return a.vertices[idx.Index : int(idx.Index)+n]
}

// Pass hands this frame's writes to sink, then rebuilds the arena if the
// freed vertex count exceeds both the absolute threshold and half of
// capacity.
func (a *VertexArena) Pass(sink Sink) error {
	var err error
	switch {
	case a.resized:
		err = sink.Replace(a.Bytes())
	case !a.dirty.empty():
		err = sink.Upload(uint64(a.dirty.min*VertexStride), encodeVertices(a.vertices[a.dirty.min:a.dirty.max+1]))
	}
	if err != nil {
		return fmt.Errorf("alloc: upload vertices: %w", err)
	}
	a.dirty = cleanRange()
	a.resized = false

	if a.emptySlots > a.opts.defragThreshold && a.emptySlots > len(a.vertices)/2 {
		a.generation++
		a.defrags++
		a.reset()
	}
	return nil
}

// Bytes encodes the whole backing array.
func (a *VertexArena) Bytes() []byte {
	return encodeVertices(a.vertices)
}

func encodeVertices(vs []f32.Vec2) []byte {
	buf := make([]byte, len(vs)*VertexStride)
	le := binary.LittleEndian
	for i, v := range vs {
		le.PutUint32(buf[i*VertexStride:], math.Float32bits(v[0]))
		le.PutUint32(buf[i*VertexStride+4:], math.Float32bits(v[1]))
	}
	return buf
}

// Generation returns the current generation.
func (a *VertexArena) Generation() uint32 { return a.generation }

// Len returns the arena cursor: the number of vertices handed out.
func (a *VertexArena) Len() int { return a.next }

// Cap returns the number of vertices in the backing array.
func (a *VertexArena) Cap() int { return len(a.vertices) }

// EmptySlots returns the number of freed, not yet reclaimed vertices.
func (a *VertexArena) EmptySlots() int { return a.emptySlots }

// Stats returns current bookkeeping statistics.
func (a *VertexArena) Stats() ArenaStats {
	return ArenaStats{
		Generation: a.generation,
		Len:        a.next,
		EmptySlots: a.emptySlots,
		Capacity:   len(a.vertices),
		Defrags:    a.defrags,
	}
}
