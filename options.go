// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package umbra

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"
)

// Option configures a Pipeline during creation.
//
// Example:
//
//	// Headless: buffers stay in host memory.
//	p, err := umbra.NewPipeline()
//
//	// Shared device from the host application.
//	p, err := umbra.NewPipeline(umbra.WithDevice(device, queue), umbra.WithParallelism(4))
type Option func(*options)

// options holds optional configuration for Pipeline creation.
type options struct {
	config   Config
	device   hal.Device
	queue    hal.Queue
	provider gpucontext.DeviceProvider
}

// defaultOptions returns the default pipeline options.
func defaultOptions() options {
	return options{config: DefaultConfig()}
}

// WithConfig replaces the pipeline configuration. Later options still
// override individual fields.
func WithConfig(c Config) Option {
	return func(o *options) {
		o.config = c
	}
}

// WithDevice uploads into storage buffers created on device and written
// through queue. The pipeline never destroys the device.
func WithDevice(device hal.Device, queue hal.Queue) Option {
	return func(o *options) {
		o.device = device
		o.queue = queue
	}
}

// WithDeviceProvider takes the device from a host application's provider.
// The provider must also implement HalDevice() any and HalQueue() any
// returning hal.Device and hal.Queue.
//
// Example:
//
//	// app is a gogpu application implementing gpucontext.DeviceProvider
//	p, err := umbra.NewPipeline(umbra.WithDeviceProvider(app))
func WithDeviceProvider(provider gpucontext.DeviceProvider) Option {
	return func(o *options) {
		o.provider = provider
	}
}

// WithParallelism sets the number of goroutines building light bins.
func WithParallelism(n int) Option {
	return func(o *options) {
		o.config.Parallelism = n
	}
}
