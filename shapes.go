// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package umbra

import (
	"math"
	"slices"

	"github.com/gogpu/umbra/geom"
)

// Shape is the local-space outline of an occluder: Round, Polygon or
// Polyline.
type Shape interface {
	// Bounds returns the local-space bounding box.
	Bounds() geom.Rect
	isShape()
}

// Round is a rounded rectangle centred on the occluder position. A circle
// of radius r is Round{2r, 2r, r}.
type Round struct {
	Width, Height float64
	Radius        float64
}

// NewRound validates and returns a rounded rectangle.
func NewRound(width, height, radius float64) (Round, error) {
	r := Round{Width: width, Height: height, Radius: radius}
	if !r.valid() {
		return Round{}, ErrInvalidRound
	}
	return r, nil
}

// NewCircle returns a Round describing a circle.
func NewCircle(radius float64) (Round, error) {
	return NewRound(2*radius, 2*radius, radius)
}

func (r Round) valid() bool {
	for _, v := range []float64{r.Width, r.Height, r.Radius} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return r.Width > 0 && r.Height > 0 && r.Radius >= 0 &&
		r.Radius <= math.Min(r.Width, r.Height)/2
}

// Half returns the half extents.
func (r Round) Half() geom.Point {
	return geom.Pt(r.Width/2, r.Height/2)
}

// Bounds implements Shape.
func (r Round) Bounds() geom.Rect {
	h := r.Half()
	return geom.Rect{Min: geom.Pt(-h.X, -h.Y), Max: h}
}

func (Round) isShape() {}

// Polygon is a closed outline.
type Polygon struct {
	Vertices []geom.Point
}

// NewPolygon returns a closed outline through vertices. The slice is copied.
func NewPolygon(vertices ...geom.Point) (Polygon, error) {
	if len(vertices) == 0 {
		return Polygon{}, ErrEmptyShape
	}
	return Polygon{Vertices: slices.Clone(vertices)}, nil
}

// Bounds implements Shape.
func (p Polygon) Bounds() geom.Rect { return geom.BoundsOf(p.Vertices) }

func (Polygon) isShape() {}

// Polyline is an open outline.
type Polyline struct {
	Vertices []geom.Point
}

// NewPolyline returns an open outline through vertices. The slice is copied.
func NewPolyline(vertices ...geom.Point) (Polyline, error) {
	if len(vertices) == 0 {
		return Polyline{}, ErrEmptyShape
	}
	return Polyline{Vertices: slices.Clone(vertices)}, nil
}

// Bounds implements Shape.
func (p Polyline) Bounds() geom.Rect { return geom.BoundsOf(p.Vertices) }

func (Polyline) isShape() {}

func validShape(s Shape) bool {
	switch s := s.(type) {
	case Round:
		return s.valid()
	case Polygon, Polyline:
		return true
	default:
		return false
	}
}

// outline returns the stored vertex ring of a polygonal shape in world
// space. Closed rings of three or more vertices repeat their first vertex
// at the end. It returns nil for Round.
func outline(s Shape, pos geom.Point, rot float64) []geom.Point {
	var src []geom.Point
	closed := false
	switch s := s.(type) {
	case Polygon:
		src, closed = s.Vertices, true
	case Polyline:
		src = s.Vertices
	default:
		return nil
	}
	n := len(src)
	if closed && n >= 3 {
		n++
	}
	out := make([]geom.Point, n)
	for i, v := range src {
		out[i] = pos.Add(v.Rotate(rot))
	}
	if n > len(src) {
		out[n-1] = out[0]
	}
	return out
}

// worldBounds returns the world-space bounding box of a shape placed at pos
// and rotated by rot.
func worldBounds(s Shape, pos geom.Point, rot float64) geom.Rect {
	if r, ok := s.(Round); ok {
		h := r.Half()
		sin, cos := math.Sincos(rot)
		ex := math.Abs(cos)*h.X + math.Abs(sin)*h.Y
		ey := math.Abs(sin)*h.X + math.Abs(cos)*h.Y
		return geom.Rect{Min: geom.Pt(pos.X-ex, pos.Y-ey), Max: geom.Pt(pos.X+ex, pos.Y+ey)}
	}
	return geom.BoundsOf(outline(s, pos, rot))
}
