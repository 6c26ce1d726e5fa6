// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package geom provides the small amount of 2D geometry shared by the
// allocators, the bin index and the silhouette decomposer.
//
// World-space math is done in float64; vertices are narrowed to
// [f32.Vec2] only when they are staged for upload.
package geom

import (
	"math"

	"golang.org/x/image/math/f32"
)

// Point represents a 2D point or vector.
type Point struct {
	X, Y float64
}

// Pt is a convenience function to create a Point.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// FromVec2 widens a GPU vertex to a Point.
func FromVec2(v f32.Vec2) Point {
	return Point{X: float64(v[0]), Y: float64(v[1])}
}

// Vec2 narrows the point to the float32 layout used in vertex buffers.
func (p Point) Vec2() f32.Vec2 {
	return f32.Vec2{float32(p.X), float32(p.Y)}
}

// Add returns the sum of two points (vector addition).
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns the difference of two points (vector subtraction).
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Mul returns the point scaled by a scalar.
func (p Point) Mul(s float64) Point {
	return Point{X: p.X * s, Y: p.Y * s}
}

// Dot returns the dot product of two vectors.
func (p Point) Dot(q Point) float64 {
	return p.X*q.X + p.Y*q.Y
}

// Cross returns the 2D cross product (scalar).
func (p Point) Cross(q Point) float64 {
	return p.X*q.Y - p.Y*q.X
}

// Length returns the length of the vector.
func (p Point) Length() float64 {
	return math.Sqrt(p.X*p.X + p.Y*p.Y)
}

// LengthSquared returns the squared length of the vector.
func (p Point) LengthSquared() float64 {
	return p.X*p.X + p.Y*p.Y
}

// Distance returns the distance between two points.
func (p Point) Distance(q Point) float64 {
	return p.Sub(q).Length()
}

// Rotate returns the point rotated by angle radians around the origin.
func (p Point) Rotate(angle float64) Point {
	if angle == 0 {
		return p
	}
	cos := math.Cos(angle)
	sin := math.Sin(angle)
	return Point{
		X: p.X*cos - p.Y*sin,
		Y: p.X*sin + p.Y*cos,
	}
}

// AngleFrom returns atan2 of p relative to origin, in [-π, π].
func (p Point) AngleFrom(origin Point) float64 {
	return math.Atan2(p.Y-origin.Y, p.X-origin.X)
}

// Abs returns the component-wise absolute value.
func (p Point) Abs() Point {
	return Point{X: math.Abs(p.X), Y: math.Abs(p.Y)}
}
