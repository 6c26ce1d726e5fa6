// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package umbra

import (
	"math"

	"github.com/gogpu/umbra/binning"
	"github.com/gogpu/umbra/geom"
	"github.com/gogpu/umbra/silhouette"
)

// roundExtent returns the angular interval a rounded rectangle covers as
// seen from light, and the distance from light to its surface. The interval
// is the union of the cones of the four corner circles, measured relative
// to the direction of the centre so it never straddles the seam. A light
// inside the shape, or inside a corner circle, sees the full circle.
func roundExtent(light geom.Point, o *Occluder, r Round) (minAngle, maxAngle, dist float64) {
	local := light.Sub(o.Position).Rotate(-o.Rotation)
	half := r.Half()
	sd := geom.RoundRectDistance(local, half, r.Radius)
	if sd <= 0 {
		return -math.Pi, math.Pi, 0
	}

	inner := geom.Pt(math.Max(half.X-r.Radius, 0), math.Max(half.Y-r.Radius, 0))
	centre := o.Position.AngleFrom(light)
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, c := range [4]geom.Point{
		{X: inner.X, Y: inner.Y}, {X: -inner.X, Y: inner.Y},
		{X: -inner.X, Y: -inner.Y}, {X: inner.X, Y: -inner.Y},
	} {
		v := o.Position.Add(c.Rotate(o.Rotation)).Sub(light)
		d := v.Length()
		if d <= r.Radius {
			return -math.Pi, math.Pi, sd
		}
		a := geom.WrapPi(math.Atan2(v.Y, v.X) - centre)
		s := math.Asin(r.Radius / d)
		lo = math.Min(lo, a-s)
		hi = math.Max(hi, a+s)
	}
	return centre + lo, centre + hi, sd
}

// binOccluder adds every pointer occluder st contributes to idx for light.
func binOccluder(idx *binning.Index, l *Light, st *occluderState) {
	switch shape := st.occ.Shape.(type) {
	case Round:
		lo, hi, d := roundExtent(l.Position, &st.occ, shape)
		if l.Range > 0 && d > l.Range {
			return
		}
		idx.AddOccluder(binning.OccluderPointer{
			Kind:        binning.KindRound,
			VertexStart: st.slot.Index,
			MinDistance: float32(d),
		}, lo, hi)

	default:
		for _, c := range silhouette.Decompose(l.Position, st.world) {
			d := geom.PolylineDistance(l.Position, c.Points(st.world))
			if l.Range > 0 && d > l.Range {
				continue
			}
			//nolint:gosec // G115: chain offsets are bounded by the run length
			idx.AddOccluder(binning.OccluderPointer{
				Kind:        binning.KindPolygon,
				Terminator:  c.Terminator(),
				Reversed:    c.Reversed,
				VertexStart: st.vertices.Index + uint32(c.Start),
				Length:      uint32(c.Len),
				MinDistance: float32(d),
			}, c.MinAngle(), c.MaxAngle())
		}
	}
}
