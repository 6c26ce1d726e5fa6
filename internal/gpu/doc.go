// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpu holds the GPU side of shadow-geometry upload.
//
// A [Buffer] receives whole replacements and partial uploads from the slot
// allocators, the vertex arena and the per-light bin indexes. On a HAL
// device it is a [StorageBuffer] created with storage and copy-destination
// usage and written through the device queue; without one it is a
// [HostBuffer] holding a CPU copy.
//
// The device and queue are always borrowed from the host application,
// either directly or through a provider exposing HalDevice() and HalQueue().
package gpu
