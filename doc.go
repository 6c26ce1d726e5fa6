// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package umbra prepares shadow geometry for 2D point lights on the GPU.
//
// # Overview
//
// Every frame the host submits its live lights and occluders. umbra keeps
// them in persistent GPU arrays, uploading only what changed, and builds
// for each light an angular index of the occluder geometry that can cast a
// shadow from it. A shadow shader looks up the sector for a pixel's
// direction and scans a short, distance-sorted list instead of every
// occluder in the scene.
//
// # Quick Start
//
//	p, err := umbra.NewPipeline(umbra.WithDevice(device, queue))
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//
//	box, _ := umbra.NewRound(2, 1, 0.25)
//	res, err := p.Frame(umbra.Frame{
//	    Lights:    []umbra.Light{{ID: lightID, Position: geom.Pt(0, 0), Range: 20}},
//	    Occluders: []umbra.Occluder{{ID: boxID, Position: geom.Pt(4, 0), Shape: box}},
//	})
//
// Bind [Pipeline.Buffers] plus each light's Bins and Counts from the
// result.
//
// # Architecture
//
// The library is organized into:
//   - alloc: generational slot arrays and the vertex arena
//   - binning: packed occluder pointers and the per-light angular index
//   - silhouette: splitting outlines into angle-monotonic chains
//   - geom: points, rectangles and distances
//   - internal/gpu: HAL storage buffers and memory accounting
//   - internal/parallel: the worker pool building light bins
//
// # Occluders
//
// A [Round] is a rounded rectangle stored as a single record. [Polygon] and
// [Polyline] outlines are stored in the shared vertex arena; each light
// refers to them through silhouette chains, so one outline may appear in a
// light's index several times.
//
// # Lifetime
//
// Entities are identified by uuid. An entity missing from a frame is
// released. Slots and vertex runs are reused across frames; when an array
// becomes mostly empty it is compacted and every entity is placed again on
// the next frame.
package umbra
