// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/wgpu/hal"
)

// Device errors.
var (
	// ErrNilDevice is returned when a device or queue is missing.
	ErrNilDevice = errors.New("gpu: device or queue is nil")

	// ErrNoHALProvider is returned when a provider does not expose HAL types.
	ErrNoHALProvider = errors.New("gpu: provider does not expose HAL types")
)

// Device pairs a HAL device with the queue used for uploads.
// The device is borrowed; Device never destroys it.
type Device struct {
	device hal.Device
	queue  hal.Queue
	mem    MemoryTracker
}

// NewDevice wraps an externally owned device and queue.
func NewDevice(device hal.Device, queue hal.Queue) (*Device, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	return &Device{device: device, queue: queue}, nil
}

// DeviceFromProvider extracts the HAL device and queue from a host
// application's provider. The provider must implement HalDevice() any and
// HalQueue() any returning hal.Device and hal.Queue.
func DeviceFromProvider(provider any) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHALProvider
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHALProvider)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHALProvider)
	}
	return &Device{device: device, queue: queue}, nil
}

// Memory returns the storage-buffer usage of buffers created on d.
func (d *Device) Memory() MemoryStats {
	return d.mem.Stats()
}

// HAL returns the wrapped device and queue.
func (d *Device) HAL() (hal.Device, hal.Queue) {
	return d.device, d.queue
}

// NewBuffer returns a storage buffer on dev, or a CPU-only buffer when dev
// is nil.
func NewBuffer(dev *Device, label string) Buffer {
	if dev == nil {
		return NewHostBuffer(label)
	}
	return NewStorageBuffer(dev, label)
}
