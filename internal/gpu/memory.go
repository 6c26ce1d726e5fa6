// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"fmt"
	"sync"
)

// MemoryStats contains storage-buffer memory statistics for one device.
type MemoryStats struct {
	// UsedBytes is the size of all live buffers.
	UsedBytes uint64

	// PeakBytes is the largest UsedBytes seen.
	PeakBytes uint64

	// BufferCount is the number of live HAL buffers.
	BufferCount int

	// Reallocations counts buffers recreated to grow.
	Reallocations uint64
}

// String returns a human-readable string of memory stats.
func (s MemoryStats) String() string {
	return fmt.Sprintf("Memory[%d/%d KB used/peak, %d buffers, %d reallocations]",
		s.UsedBytes/1024, s.PeakBytes/1024, s.BufferCount, s.Reallocations)
}

// MemoryTracker accounts for the HAL buffers created on a device.
//
// MemoryTracker is safe for concurrent use.
type MemoryTracker struct {
	mu    sync.Mutex
	stats MemoryStats
}

// track records a new buffer of size bytes, replacing one of prev bytes
// when prev is non-zero.
func (m *MemoryTracker) track(size, prev uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev > 0 {
		m.stats.UsedBytes -= prev
		m.stats.Reallocations++
	} else {
		m.stats.BufferCount++
	}
	m.stats.UsedBytes += size
	m.stats.PeakBytes = max(m.stats.PeakBytes, m.stats.UsedBytes)
}

// release records the destruction of a buffer of size bytes.
func (m *MemoryTracker) release(size uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.UsedBytes -= min(size, m.stats.UsedBytes)
	m.stats.BufferCount--
}

// Stats returns a snapshot of the counters.
func (m *MemoryTracker) Stats() MemoryStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}
