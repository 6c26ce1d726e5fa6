// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"math"
	"math/rand/v2"

	"github.com/gogpu/umbra"
	"github.com/gogpu/umbra/geom"
	"github.com/google/uuid"
)

// orbit moves an occluder around a fixed centre.
type orbit struct {
	centre geom.Point
	radius float64
	speed  float64
	phase  float64
	spin   float64
}

func (o orbit) at(frame int) (geom.Point, float64) {
	t := o.phase + o.speed*float64(frame)
	return o.centre.Add(geom.Pt(math.Cos(t), math.Sin(t)).Mul(o.radius)), o.spin * float64(frame)
}

// scene is a synthetic set of lights and orbiting occluders.
type scene struct {
	lights    []umbra.Light
	occluders []umbra.Occluder
	orbits    []orbit
}

func newScene(cfg sceneConfig) (*scene, error) {
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	coord := func() float64 { return (rng.Float64()*2 - 1) * cfg.Extent }

	s := &scene{}
	for range cfg.Lights {
		s.lights = append(s.lights, umbra.Light{
			ID:        uuid.New(),
			Position:  geom.Pt(coord(), coord()),
			Range:     cfg.LightRange,
			Color:     [3]float32{rng.Float32(), rng.Float32(), rng.Float32()},
			Intensity: 1 + rng.Float32(),
		})
	}

	for range cfg.Rounds {
		w, h := 0.5+rng.Float64()*1.5, 0.5+rng.Float64()*1.5
		shape, err := umbra.NewRound(w, h, rng.Float64()*math.Min(w, h)/2)
		if err != nil {
			return nil, err
		}
		s.add(rng, shape, coord)
	}

	for i := range cfg.Polygons {
		sides := 3 + rng.IntN(4)
		r := 0.5 + rng.Float64()
		vs := make([]geom.Point, sides)
		for k := range vs {
			a := 2 * math.Pi * float64(k) / float64(sides)
			vs[k] = geom.Pt(math.Cos(a), math.Sin(a)).Mul(r)
		}
		var shape umbra.Shape
		var err error
		if i%4 == 3 {
			shape, err = umbra.NewPolyline(vs...)
		} else {
			shape, err = umbra.NewPolygon(vs...)
		}
		if err != nil {
			return nil, err
		}
		s.add(rng, shape, coord)
	}
	return s, nil
}

func (s *scene) add(rng *rand.Rand, shape umbra.Shape, coord func() float64) {
	s.occluders = append(s.occluders, umbra.Occluder{
		ID:      uuid.New(),
		Shape:   shape,
		Opacity: 1,
	})
	s.orbits = append(s.orbits, orbit{
		centre: geom.Pt(coord(), coord()),
		radius: rng.Float64() * 4,
		speed:  (rng.Float64() - 0.5) * 0.1,
		phase:  rng.Float64() * 2 * math.Pi,
		spin:   (rng.Float64() - 0.5) * 0.05,
	})
}

// frame animates every occluder to the given frame. Every tenth frame a
// fifth of the occluders sit out, so their slots are released and later
// reallocated.
func (s *scene) frame(n int) umbra.Frame {
	f := umbra.Frame{
		Lights:    s.lights,
		Occluders: make([]umbra.Occluder, 0, len(s.occluders)),
	}
	for i, o := range s.occluders {
		if n%10 == 9 && i%5 == n%5 {
			continue
		}
		o.Position, o.Rotation = s.orbits[i].at(n)
		o.Changed = true
		f.Occluders = append(f.Occluders, o)
	}
	return f
}
