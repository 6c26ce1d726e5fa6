// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package silhouette splits occluder outlines into angle-monotonic chains as
// seen from a light.
//
// A chain is a run of consecutive vertices whose angles around the light
// strictly increase in walk order. Chains never cross the ±π seam: a run
// that does is split into a chain ending past +π (WrapEnd) and one starting
// before -π (WrapStart), both holding the seam edge.
package silhouette

import (
	"math"
	"slices"

	"github.com/gogpu/umbra/binning"
	"github.com/gogpu/umbra/geom"
)

// Chain is a run of ring vertices with strictly increasing unwrapped angles.
type Chain struct {
	// Start is the storage-order index of the first stored vertex.
	Start int
	Len   int
	// Reversed means the chain is walked from Start+Len-1 down to Start.
	Reversed bool

	WrapStart bool
	WrapEnd   bool
	// Edge is set when an endpoint sits exactly on the ±π seam without
	// wrapping.
	Edge bool

	// Angles holds the unwrapped angle of every vertex in walk order.
	Angles []float64
}

// MinAngle returns the unwrapped angle of the first walked vertex.
func (c Chain) MinAngle() float64 { return c.Angles[0] }

// MaxAngle returns the unwrapped angle of the last walked vertex.
func (c Chain) MaxAngle() float64 { return c.Angles[len(c.Angles)-1] }

// Terminator returns the packed seam classification of c.
func (c Chain) Terminator() binning.Terminator {
	return binning.TerminatorFor(c.WrapStart, c.WrapEnd, c.Edge)
}

// Points returns the chain's vertices in storage order.
func (c Chain) Points(ring []geom.Point) []geom.Point {
	return ring[c.Start : c.Start+c.Len]
}

// Decompose returns the chains of ring as seen from light: first those
// found walking the stored order, then those found walking it backwards.
//
// Two-vertex rings form a single chain oriented so its angles increase.
// Rings with fewer than two vertices, and two-vertex rings pointing straight
// at the light, yield nothing.
func Decompose(light geom.Point, ring []geom.Point) []Chain {
	n := len(ring)
	if n < 2 {
		return nil
	}
	raw := make([]float64, n)
	for i, p := range ring {
		raw[i] = p.AngleFrom(light)
		if raw[i] == -math.Pi {
			raw[i] = math.Pi
		}
	}
	if n == 2 {
		return line(raw)
	}

	chains := scan(raw)
	slices.Reverse(raw)
	for _, c := range scan(raw) {
		c.Start = n - c.Start - c.Len
		c.Reversed = true
		chains = append(chains, c)
	}
	return chains
}

func line(raw []float64) []Chain {
	d := geom.WrapPi(raw[1] - raw[0])
	if d == 0 {
		return nil
	}
	c := Chain{Start: 0, Len: 2}
	first, last := raw[0], raw[1]
	if d < 0 {
		c.Reversed = true
		first, last = last, first
		d = -d
	}
	c.Angles = []float64{first, first + d}
	c.Edge = onSeam(first) || onSeam(last)
	return []Chain{c}
}

// scan walks raw in order. Start fields are walk-order indices.
func scan(raw []float64) []Chain {
	var out []Chain
	cur := Chain{Angles: []float64{raw[0]}}
	closeCur := func(wrapEnd bool) {
		if len(cur.Angles) < 2 {
			return
		}
		cur.Len = len(cur.Angles)
		cur.WrapEnd = wrapEnd
		cur.Edge = (!cur.WrapStart && onSeam(raw[cur.Start])) ||
			(!cur.WrapEnd && onSeam(raw[cur.Start+cur.Len-1]))
		out = append(out, cur)
	}

	for i := 1; i < len(raw); i++ {
		prev, a := raw[i-1], raw[i]
		switch d := a - prev; {
		case d > 0 && d <= math.Pi:
			cur.Angles = append(cur.Angles, a)
		case d < -math.Pi:
			// Counter-clockwise across the seam.
			cur.Angles = append(cur.Angles, a+geom.TwoPi)
			closeCur(true)
			cur = Chain{Start: i - 1, Angles: []float64{prev - geom.TwoPi, a}, WrapStart: true}
		default:
			// Clockwise, including a clockwise crossing of the seam.
			closeCur(false)
			cur = Chain{Start: i, Angles: []float64{a}}
		}
	}
	closeCur(false)
	return out
}

func onSeam(a float64) bool {
	return math.Abs(a) == math.Pi
}
