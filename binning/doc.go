// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package binning implements the per-light angular bin index.
//
// The circle around a light is split into [NBins] sectors covering [-π, π).
// Every occluder pointer is replicated into each sector its angular extent
// touches, so a shader looking in a direction only scans one sector. Each
// sector holds bins of [NOccluders] pointers; a full bin opens a new layer
// for that sector.
//
// The index is rebuilt from scratch for every light, every frame:
//
//	idx.Reset()
//	for _, occ := range occluders {
//	    idx.AddOccluder(ptr, minAngle, maxAngle)
//	}
//	err := idx.Write(binSink, countSink)
//
// Write sorts each bin by distance so consumers can stop scanning early.
//
// An Index is not safe for concurrent use. Lights processed in parallel
// must each own an Index.
package binning
