// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package umbra

import (
	"fmt"
	"io"

	"github.com/gogpu/umbra/alloc"
	"github.com/pelletier/go-toml/v2"
)

// Config holds the tunables of a Pipeline.
type Config struct {
	// SlotBlockSize is the growth step, in records, of the light and
	// occluder arrays.
	SlotBlockSize int `toml:"slot_block_size"`
	// VertexBlockSize is the growth step, in vertices, of the vertex arena.
	VertexBlockSize int `toml:"vertex_block_size"`
	// DefragThreshold is the free-slot count above which an allocator
	// rebuilds itself, provided it is also more than half empty.
	DefragThreshold int `toml:"defrag_threshold"`
	// Parallelism is the number of goroutines building light bins.
	// Values of 1 or less build on the calling goroutine.
	Parallelism int `toml:"parallelism"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		SlotBlockSize:   alloc.DefaultBlockSize,
		VertexBlockSize: alloc.DefaultBlockSize,
		DefragThreshold: alloc.DefaultDefragThreshold,
		Parallelism:     1,
	}
}

// Validate reports whether c is usable.
func (c Config) Validate() error {
	switch {
	case c.SlotBlockSize <= 0:
		return fmt.Errorf("%w: slot_block_size %d must be positive", ErrInvalidConfig, c.SlotBlockSize)
	case c.VertexBlockSize <= 0:
		return fmt.Errorf("%w: vertex_block_size %d must be positive", ErrInvalidConfig, c.VertexBlockSize)
	case c.DefragThreshold < 0:
		return fmt.Errorf("%w: defrag_threshold %d must not be negative", ErrInvalidConfig, c.DefragThreshold)
	case c.Parallelism < 0:
		return fmt.Errorf("%w: parallelism %d must not be negative", ErrInvalidConfig, c.Parallelism)
	}
	return nil
}

// LoadConfig decodes a TOML document over DefaultConfig. Unknown keys are
// rejected.
//
// Example:
//
//	slot_block_size = 256
//	defrag_threshold = 100
//	parallelism = 4
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("umbra: decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) slotOptions() []alloc.Option {
	return []alloc.Option{alloc.WithBlockSize(c.SlotBlockSize), alloc.WithDefragThreshold(c.DefragThreshold)}
}

func (c Config) vertexOptions() []alloc.Option {
	return []alloc.Option{alloc.WithBlockSize(c.VertexBlockSize), alloc.WithDefragThreshold(c.DefragThreshold)}
}
