// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package alloc provides the two per-frame allocators that back the shadow
// buffers: a generational slot allocator for fixed-size records and an
// append-mostly arena for variable-length vertex runs.
//
// # Generations
//
// Both allocators hand out [BufferIndex] values stamped with the allocator's
// generation. Defragmentation rebuilds an allocator from scratch and bumps
// the generation, so every index issued before the rebuild becomes stale.
// Stale indices are not errors: callers pass them back on the next frame and
// receive a fresh slot, exactly as if they had no index at all.
//
//	idx = lights.Set(record, idx, changed)
//	...
//	if err := lights.Flush(sink); err != nil {
//	    return err
//	}
//
// # Uploads
//
// Allocators never talk to a GPU directly. Once per frame Flush (or Pass for
// the vertex arena) hands the staged bytes to a [Sink]: only the dirty byte
// range when storage kept its size, or the whole array when it was resized.
//
// # Thread Safety
//
// Allocators carry no synchronization. They are owned by a single frame
// pipeline and must not be shared between goroutines.
package alloc
