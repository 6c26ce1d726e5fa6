// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package geom

import "math"

// TwoPi is a full turn in radians.
const TwoPi = 2 * math.Pi

// WrapPi maps a to the equivalent angle in (-π, π].
func WrapPi(a float64) float64 {
	a = math.Mod(a+math.Pi, TwoPi)
	if a <= 0 {
		a += TwoPi
	}
	return a - math.Pi
}

// SegmentDistance returns the distance from p to the closed segment ab.
func SegmentDistance(p, a, b Point) float64 {
	ab := b.Sub(a)
	denom := ab.LengthSquared()
	if denom == 0 {
		return p.Distance(a)
	}
	t := p.Sub(a).Dot(ab) / denom
	t = math.Max(0, math.Min(1, t))
	return p.Distance(a.Add(ab.Mul(t)))
}

// PolylineDistance returns the minimum distance from p to the polyline
// through pts. A single point degenerates to point distance; no points
// yield +Inf.
func PolylineDistance(p Point, pts []Point) float64 {
	switch len(pts) {
	case 0:
		return math.Inf(1)
	case 1:
		return p.Distance(pts[0])
	}
	d := math.Inf(1)
	for i := 1; i < len(pts); i++ {
		d = math.Min(d, SegmentDistance(p, pts[i-1], pts[i]))
	}
	return d
}

// RoundRectDistance returns the signed distance from p to a rounded
// rectangle centered at the origin with the given half extents and corner
// radius. Negative values are inside.
func RoundRectDistance(p, half Point, radius float64) float64 {
	q := p.Abs().Sub(Point{X: half.X - radius, Y: half.Y - radius})
	outside := Point{X: math.Max(q.X, 0), Y: math.Max(q.Y, 0)}.Length()
	inside := math.Min(math.Max(q.X, q.Y), 0)
	return outside + inside - radius
}
