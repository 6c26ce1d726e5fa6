// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package binning

import (
	"encoding/binary"
	"fmt"
	"math"
	"slices"

	"github.com/gogpu/umbra/alloc"
)

const (
	// NBins is the number of angular sectors around a light.
	NBins = 128
	// NOccluders is the pointer capacity of one bin.
	NOccluders = 32
)

// Serialized sizes.
const (
	binHeaderSize = 16
	// BinStride is the encoded size of one bin: count, 3 pad words and
	// NOccluders packed pointers.
	BinStride = binHeaderSize + NOccluders*PointerStride
	// LayerStride is the encoded size of one layer of NBins bins.
	LayerStride = NBins * BinStride
	// CountsSize is the encoded size of the per-sector layer counts.
	CountsSize = NBins * 4
)

// Bin is a fixed-capacity list of occluder pointers for one sector.
type Bin struct {
	Occluders [NOccluders]OccluderPointer
	Count     uint32
}

// Pointers returns the occupied prefix of the bin.
func (b *Bin) Pointers() []OccluderPointer {
	return b.Occluders[:b.Count]
}

func (b *Bin) full() bool { return b.Count == NOccluders }

// Index bins occluder pointers by angle around one light.
type Index struct {
	layers [][NBins]Bin
	// counts[s] is the layer currently filled for sector s.
	counts [NBins]uint32
}

// NewIndex returns an empty index with one layer.
func NewIndex() *Index {
	idx := &Index{}
	idx.Reset()
	return idx
}

// Reset empties every bin and drops all layers but the first.
func (idx *Index) Reset() {
	if len(idx.layers) == 0 {
		idx.layers = make([][NBins]Bin, 1)
	} else {
		idx.layers = idx.layers[:1]
		idx.layers[0] = [NBins]Bin{}
	}
	idx.counts = [NBins]uint32{}
}

// Sector returns the sector containing angle, wrapping angles outside
// [-π, π). NaN maps to sector 0.
func Sector(angle float64) int {
	b := binOf(angle)
	return mod(b, NBins)
}

func binOf(angle float64) int {
	if math.IsNaN(angle) {
		return 0
	}
	return int(math.Floor((angle + math.Pi) / (2 * math.Pi) * NBins))
}

func mod(a, n int) int {
	a %= n
	if a < 0 {
		a += n
	}
	return a
}

// AddOccluder inserts p into every sector touched by [minAngle, maxAngle].
// Angles may be unwrapped beyond ±π; a span of a full turn or more covers
// every sector once. A NaN bound drops the pointer.
func (idx *Index) AddOccluder(p OccluderPointer, minAngle, maxAngle float64) {
	if math.IsNaN(minAngle) || math.IsNaN(maxAngle) {
		return
	}
	lo, hi := binOf(minAngle), binOf(maxAngle)
	if hi < lo {
		hi += NBins * ((lo-hi)/NBins + 1)
	}
	n := hi - lo + 1
	if n > NBins || maxAngle-minAngle >= 2*math.Pi {
		n = NBins
	}
	for i := range n {
		idx.push(mod(lo+i, NBins), p)
	}
}

func (idx *Index) push(sector int, p OccluderPointer) {
	layer := idx.counts[sector]
	bin := &idx.layers[layer][sector]
	if bin.full() {
		layer++
		if int(layer) == len(idx.layers) {
			idx.layers = append(idx.layers, [NBins]Bin{})
		}
		idx.counts[sector] = layer
		bin = &idx.layers[layer][sector]
	}
	bin.Occluders[bin.Count] = p
	bin.Count++
}

// Layers returns the number of layers in use.
func (idx *Index) Layers() int { return len(idx.layers) }

// Count returns the current layer index of sector s.
func (idx *Index) Count(s int) uint32 { return idx.counts[s] }

// Bin returns the bin at (layer, sector).
func (idx *Index) Bin(layer, sector int) *Bin { return &idx.layers[layer][sector] }

// Query returns every pointer stored for the sector containing angle,
// layer by layer.
func (idx *Index) Query(angle float64) []OccluderPointer {
	s := Sector(angle)
	var out []OccluderPointer
	for l := 0; l <= int(idx.counts[s]); l++ {
		out = append(out, idx.layers[l][s].Pointers()...)
	}
	return out
}

// Sort orders every bin by MinDistance ascending. NaN distances sort last.
func (idx *Index) Sort() {
	for l := range idx.layers {
		for s := range idx.layers[l] {
			bin := &idx.layers[l][s]
			if bin.Count > 1 {
				slices.SortStableFunc(bin.Pointers(), byDistance)
			}
		}
	}
}

func byDistance(a, b OccluderPointer) int {
	return totalCmp(a.MinDistance, b.MinDistance)
}

// totalCmp compares like cmp.Compare but places NaN after every number.
func totalCmp(a, b float32) int {
	an, bn := math.IsNaN(float64(a)), math.IsNaN(float64(b))
	switch {
	case an && bn:
		return 0
	case an:
		return 1
	case bn:
		return -1
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Write sorts the bins and replaces the contents of both sinks with the
// serialized bin table and layer counts.
func (idx *Index) Write(bins, counts alloc.Sink) error {
	idx.Sort()
	if err := bins.Replace(idx.BinBytes()); err != nil {
		return fmt.Errorf("binning: write bins: %w", err)
	}
	if err := counts.Replace(idx.CountBytes()); err != nil {
		return fmt.Errorf("binning: write counts: %w", err)
	}
	return nil
}

// BinBytes encodes the bin table, layer-major.
func (idx *Index) BinBytes() []byte {
	buf := make([]byte, len(idx.layers)*LayerStride)
	le := binary.LittleEndian
	off := 0
	for l := range idx.layers {
		for s := range idx.layers[l] {
			bin := &idx.layers[l][s]
			le.PutUint32(buf[off:], bin.Count)
			p := off + binHeaderSize
			for _, ptr := range bin.Pointers() {
				ptr.Encode().Marshal(buf[p : p+PointerStride])
				p += PointerStride
			}
			off += BinStride
		}
	}
	return buf
}

// CountBytes encodes the per-sector layer counts.
func (idx *Index) CountBytes() []byte {
	buf := make([]byte, CountsSize)
	for s, c := range idx.counts {
		binary.LittleEndian.PutUint32(buf[s*4:], c)
	}
	return buf
}
