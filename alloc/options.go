// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package alloc

// Default sizing constants.
const (
	// DefaultBlockSize is the growth granularity in elements. Storage is
	// always a whole number of blocks so linear growth does not reallocate
	// every frame.
	DefaultBlockSize = 1024

	// DefaultDefragThreshold is the absolute amount of wasted elements that
	// must be exceeded (together with half of capacity) before an allocator
	// rebuilds itself.
	DefaultDefragThreshold = 500
)

// Option configures an allocator during creation.
type Option func(*options)

type options struct {
	blockSize       int
	defragThreshold int
}

func defaultOptions() options {
	return options{
		blockSize:       DefaultBlockSize,
		defragThreshold: DefaultDefragThreshold,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithBlockSize sets the growth granularity in elements.
// Values below 1 keep the default.
func WithBlockSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.blockSize = n
		}
	}
}

// WithDefragThreshold sets the absolute wasted-element threshold for
// defragmentation. Negative values keep the default; zero makes the relative
// half-of-capacity test the only condition.
func WithDefragThreshold(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.defragThreshold = n
		}
	}
}
