// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package binning

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Kind classifies the occluder a pointer refers to.
type Kind uint8

const (
	// KindRound points at a round-occluder slot.
	KindRound Kind = iota
	// KindPolygon points at a vertex-arena chain.
	KindPolygon
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindRound:
		return "Round"
	case KindPolygon:
		return "Polygon"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Terminator tells the shadow shader how a chain meets the ±π seam.
type Terminator uint8

const (
	// TerminatorNone: neither endpoint is a wrap point.
	TerminatorNone Terminator = iota
	// TerminatorWrapEnd: the chain closes at a wrap point.
	TerminatorWrapEnd
	// TerminatorWrapStart: the chain opens at a wrap point.
	TerminatorWrapStart
	// TerminatorEdgeOrWrap: both ends wrap, or an endpoint sits exactly on
	// the seam without wrapping.
	TerminatorEdgeOrWrap
)

// String returns the string representation of Terminator.
func (t Terminator) String() string {
	switch t {
	case TerminatorNone:
		return "None"
	case TerminatorWrapEnd:
		return "WrapEnd"
	case TerminatorWrapStart:
		return "WrapStart"
	case TerminatorEdgeOrWrap:
		return "EdgeOrWrap"
	default:
		return fmt.Sprintf("Terminator(%d)", int(t))
	}
}

// TerminatorFor maps the raw seam signals of a chain to a Terminator.
func TerminatorFor(wrapStart, wrapEnd, edge bool) Terminator {
	switch {
	case edge || (wrapStart && wrapEnd):
		return TerminatorEdgeOrWrap
	case wrapStart:
		return TerminatorWrapStart
	case wrapEnd:
		return TerminatorWrapEnd
	default:
		return TerminatorNone
	}
}

// Packed index layout.
const (
	terminatorMask = 0b11
	reversedBit    = 1 << 2
	kindBit        = 1 << 3
	startShift     = 4

	// MaxVertexStart is the largest vertex start (or round slot) that fits
	// in a packed pointer.
	MaxVertexStart = 1<<(32-startShift) - 1
)

// PointerStride is the encoded size of a GPUOccluderPointer.
const PointerStride = 16

// OccluderPointer is one bin entry: a reference to a round occluder or to
// one silhouette chain of a polygon occluder.
type OccluderPointer struct {
	Kind       Kind
	Terminator Terminator
	// Reversed means the chain is walked opposite to storage order.
	Reversed bool
	// VertexStart is the vertex-arena offset of the chain, or the slot
	// index for round occluders.
	VertexStart uint32
	Length      uint32
	// MinDistance is the minimum light-to-occluder distance.
	MinDistance float32
}

// GPUOccluderPointer is the packed 16-byte layout of an OccluderPointer.
//
// Layout:
//
//	u32 index         (offset  0) terminator:2 | reversed:1 | kind:1 | start:28
//	u32 length        (offset  4)
//	f32 min_distance  (offset  8)
//	u32 _pad          (offset 12)
type GPUOccluderPointer struct {
	Index       uint32
	Length      uint32
	MinDistance float32
	_           uint32
}

// Encode packs p. It panics if VertexStart exceeds MaxVertexStart.
func (p OccluderPointer) Encode() GPUOccluderPointer {
	if p.VertexStart > MaxVertexStart {
		panic(fmt.Sprintf("binning: vertex start %d exceeds %d", p.VertexStart, MaxVertexStart))
	}
	idx := uint32(p.Terminator&terminatorMask) | p.VertexStart<<startShift
	if p.Reversed {
		idx |= reversedBit
	}
	if p.Kind == KindPolygon {
		idx |= kindBit
	}
	return GPUOccluderPointer{Index: idx, Length: p.Length, MinDistance: p.MinDistance}
}

// Decode unpacks g.
func (g GPUOccluderPointer) Decode() OccluderPointer {
	p := OccluderPointer{
		Terminator:  Terminator(g.Index & terminatorMask),
		Reversed:    g.Index&reversedBit != 0,
		VertexStart: g.Index >> startShift,
		Length:      g.Length,
		MinDistance: g.MinDistance,
	}
	if g.Index&kindBit != 0 {
		p.Kind = KindPolygon
	}
	return p
}

// Marshal writes the little-endian layout into dst[:PointerStride].
func (g GPUOccluderPointer) Marshal(dst []byte) {
	le := binary.LittleEndian
	le.PutUint32(dst[0:4], g.Index)
	le.PutUint32(dst[4:8], g.Length)
	le.PutUint32(dst[8:12], math.Float32bits(g.MinDistance))
	le.PutUint32(dst[12:16], 0)
}

// UnmarshalPointer reads a GPUOccluderPointer from src[:PointerStride].
func UnmarshalPointer(src []byte) GPUOccluderPointer {
	le := binary.LittleEndian
	return GPUOccluderPointer{
		Index:       le.Uint32(src[0:4]),
		Length:      le.Uint32(src[4:8]),
		MinDistance: math.Float32frombits(le.Uint32(src[8:12])),
	}
}
