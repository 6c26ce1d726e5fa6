// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package umbra

import (
	"math"

	"github.com/gogpu/umbra/geom"
	"github.com/google/uuid"
)

// Light is a point light submitted for one frame.
type Light struct {
	ID       uuid.UUID
	Position geom.Point
	// Range bounds the lit area. Occluders farther away are ignored; zero
	// means unbounded.
	Range     float64
	Color     [3]float32
	Intensity float32
	Z         float32
	// Changed forces the light record to be rewritten.
	Changed bool
	// Occluders lists the occluders this light considers. Nil selects every
	// occluder whose bounds meet the light's range.
	Occluders []uuid.UUID
}

func (l Light) record() GPULight {
	return GPULight{
		Position:  l.Position.Vec2(),
		Range:     float32(l.Range),
		Intensity: l.Intensity,
		Color:     l.Color,
		Z:         l.Z,
	}
}

// Bounds returns the square covering the light's range, or an infinite
// rectangle when Range is zero.
func (l Light) Bounds() geom.Rect {
	if l.Range <= 0 {
		inf := math.Inf(1)
		return geom.Rect{Min: geom.Pt(-inf, -inf), Max: geom.Pt(inf, inf)}
	}
	return geom.RectAround(l.Position, l.Range)
}

// Occluder is a shadow caster submitted for one frame.
type Occluder struct {
	ID       uuid.UUID
	Position geom.Point
	Rotation float64
	Shape    Shape
	Z        float32
	Opacity  float32
	// Changed forces the occluder's record and vertices to be rewritten.
	Changed bool
}

// Bounds returns the world-space bounding box.
func (o Occluder) Bounds() geom.Rect {
	if o.Shape == nil {
		return geom.EmptyRect()
	}
	return worldBounds(o.Shape, o.Position, o.Rotation)
}

// Frame is the full set of live lights and occluders for one frame.
// Entities missing from a frame are released.
type Frame struct {
	Lights    []Light
	Occluders []Occluder
}

// Intersecting returns the IDs of occluders whose bounds meet the light's
// range, in input order.
func Intersecting(l Light, occluders []Occluder) []uuid.UUID {
	area := l.Bounds()
	ids := make([]uuid.UUID, 0, len(occluders))
	for _, o := range occluders {
		if area.Intersects(o.Bounds()) {
			ids = append(ids, o.ID)
		}
	}
	return ids
}
