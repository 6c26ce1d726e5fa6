// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/gogpu/umbra"
	"github.com/pelletier/go-toml/v2"
)

// demoConfig is the file read by -config.
type demoConfig struct {
	Pipeline umbra.Config `toml:"pipeline"`
	Scene    sceneConfig  `toml:"scene"`
}

type sceneConfig struct {
	Seed       uint64  `toml:"seed"`
	Lights     int     `toml:"lights"`
	Rounds     int     `toml:"rounds"`
	Polygons   int     `toml:"polygons"`
	Extent     float64 `toml:"extent"`
	LightRange float64 `toml:"light_range"`

	// Frames is the number of frames to run; with -watch the demo runs
	// until interrupted.
	Frames     int `toml:"frames"`
	IntervalMS int `toml:"interval_ms"`
}

var errInvalidScene = errors.New("umbrademo: invalid scene")

func defaultDemoConfig() demoConfig {
	return demoConfig{
		Pipeline: umbra.DefaultConfig(),
		Scene: sceneConfig{
			Seed:       1,
			Lights:     8,
			Rounds:     64,
			Polygons:   64,
			Extent:     50,
			LightRange: 20,
			Frames:     120,
			IntervalMS: 16,
		},
	}
}

func (s sceneConfig) validate() error {
	switch {
	case s.Lights < 0 || s.Rounds < 0 || s.Polygons < 0:
		return fmt.Errorf("%w: entity counts must not be negative", errInvalidScene)
	case s.Extent <= 0:
		return fmt.Errorf("%w: extent %v must be positive", errInvalidScene, s.Extent)
	case s.LightRange < 0:
		return fmt.Errorf("%w: light_range %v must not be negative", errInvalidScene, s.LightRange)
	case s.IntervalMS < 0:
		return fmt.Errorf("%w: interval_ms %d must not be negative", errInvalidScene, s.IntervalMS)
	}
	return nil
}

// loadDemoConfig reads path over the defaults. An empty path returns the
// defaults.
func loadDemoConfig(path string) (demoConfig, error) {
	cfg := defaultDemoConfig()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return demoConfig{}, err
	}
	defer f.Close()

	if err := toml.NewDecoder(f).DisallowUnknownFields().Decode(&cfg); err != nil {
		return demoConfig{}, fmt.Errorf("umbrademo: decode %s: %w", path, err)
	}
	if err := cfg.Pipeline.Validate(); err != nil {
		return demoConfig{}, err
	}
	if err := cfg.Scene.validate(); err != nil {
		return demoConfig{}, err
	}
	return cfg, nil
}
