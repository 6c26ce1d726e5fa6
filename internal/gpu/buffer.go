// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Buffer errors.
var (
	// ErrBufferDestroyed is returned when operating on a destroyed buffer.
	ErrBufferDestroyed = errors.New("gpu: buffer has been destroyed")

	// ErrUploadOutOfRange is returned when a partial upload does not fit.
	ErrUploadOutOfRange = errors.New("gpu: upload out of range")
)

// StorageUsage is the usage of every buffer created here.
const StorageUsage = gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst

// Buffer is a byte buffer fed by the allocators.
type Buffer interface {
	// Upload writes data at offset into the current contents.
	Upload(offset uint64, data []byte) error
	// Replace makes data the new contents, growing the buffer if needed.
	Replace(data []byte) error
	// Handle returns the bindable HAL buffer, or nil for CPU-only buffers.
	Handle() hal.Buffer
	// Size returns the allocated size in bytes.
	Size() uint64
	// Label returns the debug name.
	Label() string
	// Destroy releases GPU resources.
	Destroy()
}

// StorageBuffer is a GPU storage buffer written through the device queue.
//
// The HAL buffer is recreated only when a replacement outgrows it; smaller
// replacements reuse it and leave trailing bytes untouched. Handle may
// therefore change after Replace.
type StorageBuffer struct {
	device hal.Device
	queue  hal.Queue
	mem    *MemoryTracker
	label  string

	buf       hal.Buffer
	size      uint64
	destroyed bool
}

// NewStorageBuffer creates an empty storage buffer. The HAL buffer is
// created on the first Replace.
func NewStorageBuffer(dev *Device, label string) *StorageBuffer {
	return &StorageBuffer{device: dev.device, queue: dev.queue, mem: &dev.mem, label: label}
}

// align4 rounds n up to a multiple of 4, with a minimum of 4.
func align4(n int) uint64 {
	if n <= 0 {
		return 4
	}
	return uint64((n + 3) &^ 3)
}

// Replace implements Buffer.
func (b *StorageBuffer) Replace(data []byte) error {
	if b.destroyed {
		return ErrBufferDestroyed
	}
	need := align4(len(data))
	if b.buf == nil || need > b.size {
		buf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
			Label: b.label,
			Size:  need,
			Usage: StorageUsage,
		})
		if err != nil {
			return fmt.Errorf("gpu: create %s: %w", b.label, err)
		}
		if b.buf != nil {
			b.device.DestroyBuffer(b.buf)
		}
		slogger().Debug("storage buffer created", "label", b.label, "size", need, "previous", b.size)
		b.mem.track(need, b.size)
		b.buf, b.size = buf, need
	}
	if len(data) == 0 {
		return nil
	}
	if len(data)%4 != 0 {
		padded := make([]byte, need)
		copy(padded, data)
		data = padded
	}
	if err := b.queue.WriteBuffer(b.buf, 0, data); err != nil {
		return fmt.Errorf("gpu: write %s: %w", b.label, err)
	}
	return nil
}

// Upload implements Buffer.
func (b *StorageBuffer) Upload(offset uint64, data []byte) error {
	if b.destroyed {
		return ErrBufferDestroyed
	}
	if b.buf == nil || offset+uint64(len(data)) > b.size {
		return fmt.Errorf("%w: %s [%d, %d) of %d", ErrUploadOutOfRange, b.label, offset, offset+uint64(len(data)), b.size)
	}
	if err := b.queue.WriteBuffer(b.buf, offset, data); err != nil {
		return fmt.Errorf("gpu: write %s: %w", b.label, err)
	}
	return nil
}

// Handle implements Buffer.
func (b *StorageBuffer) Handle() hal.Buffer { return b.buf }

// Size implements Buffer.
func (b *StorageBuffer) Size() uint64 { return b.size }

// Label implements Buffer.
func (b *StorageBuffer) Label() string { return b.label }

// Destroy implements Buffer. Destroying twice logs a warning.
func (b *StorageBuffer) Destroy() {
	if b.destroyed {
		slogger().Warn("storage buffer destroyed twice", "label", b.label)
		return
	}
	b.destroyed = true
	if b.buf != nil {
		b.device.DestroyBuffer(b.buf)
		b.mem.release(b.size)
		b.buf = nil
	}
	b.size = 0
}

// HostBuffer keeps buffer contents in host memory. It backs headless use
// and tests.
type HostBuffer struct {
	label     string
	data      []byte
	destroyed bool
}

// NewHostBuffer creates an empty host buffer.
func NewHostBuffer(label string) *HostBuffer {
	return &HostBuffer{label: label}
}

// Replace implements Buffer.
func (b *HostBuffer) Replace(data []byte) error {
	if b.destroyed {
		return ErrBufferDestroyed
	}
	b.data = append(b.data[:0], data...)
	return nil
}

// Upload implements Buffer.
func (b *HostBuffer) Upload(offset uint64, data []byte) error {
	if b.destroyed {
		return ErrBufferDestroyed
	}
	if offset+uint64(len(data)) > uint64(len(b.data)) {
		return fmt.Errorf("%w: %s [%d, %d) of %d", ErrUploadOutOfRange, b.label, offset, offset+uint64(len(data)), len(b.data))
	}
	copy(b.data[offset:], data)
	return nil
}

// Bytes returns the current contents. The slice aliases the buffer.
func (b *HostBuffer) Bytes() []byte { return b.data }

// Handle implements Buffer. Host buffers have no HAL handle.
func (b *HostBuffer) Handle() hal.Buffer { return nil }

// Size implements Buffer.
func (b *HostBuffer) Size() uint64 { return uint64(len(b.data)) }

// Label implements Buffer.
func (b *HostBuffer) Label() string { return b.label }

// Destroy implements Buffer.
func (b *HostBuffer) Destroy() {
	if b.destroyed {
		slogger().Warn("host buffer destroyed twice", "label", b.label)
		return
	}
	b.destroyed = true
	b.data = nil
}
