// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command umbrademo runs a synthetic scene of orbiting occluders through
// the umbra pipeline on the noop HAL device and logs per-frame statistics.
//
// Usage:
//
//	umbrademo [-config scene.toml] [-watch] [-level debug]
//
// With -watch the demo runs until interrupted and rebuilds the scene
// whenever the config file is saved.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/umbra"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

func main() {
	var (
		configPath = flag.String("config", "", "scene config file (TOML)")
		watch      = flag.Bool("watch", false, "run until interrupted, reloading the config on change")
		level      = flag.String("level", "info", "log level: debug, info, warn, error")
	)
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          "umbra",
	})
	lvl, err := log.ParseLevel(*level)
	if err != nil {
		logger.Fatal("bad -level", "err", err)
	}
	logger.SetLevel(lvl)
	umbra.SetLogger(slog.New(logger))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, *watch); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("demo failed", "err", err)
	}
}

func run(ctx context.Context, logger *log.Logger, path string, watch bool) error {
	device, queue, cleanup, err := openNoopDevice()
	if err != nil {
		return err
	}
	defer cleanup()

	cfg, err := loadDemoConfig(path)
	if err != nil {
		return err
	}
	if !watch || path == "" {
		d, err := newDemo(cfg, device, queue)
		if err != nil {
			return err
		}
		defer d.close()
		return d.runFrames(ctx, logger, cfg.Scene.Frames)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	// Editors often replace the file, so watch its directory.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}

	d, err := newDemo(cfg, device, queue)
	if err != nil {
		return err
	}
	defer func() { d.close() }()

	ticker := time.NewTicker(cfg.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-ticker.C:
			if err := d.step(logger); err != nil {
				return err
			}

		case e, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(e.Name) != filepath.Clean(path) || e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			next, err := loadDemoConfig(path)
			if err != nil {
				logger.Warn("config rejected, keeping current scene", "err", err)
				continue
			}
			nd, err := newDemo(next, device, queue)
			if err != nil {
				logger.Warn("scene rejected", "err", err)
				continue
			}
			d.close()
			d, cfg = nd, next
			ticker.Reset(cfg.interval())
			logger.Info("config reloaded", "path", path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watch error", "err", err)
		}
	}
}

func (c demoConfig) interval() time.Duration {
	if c.Scene.IntervalMS <= 0 {
		return time.Millisecond
	}
	return time.Duration(c.Scene.IntervalMS) * time.Millisecond
}

// demo owns one pipeline and the scene it renders.
type demo struct {
	pipeline *umbra.Pipeline
	scene    *scene
	frame    int
}

func newDemo(cfg demoConfig, device hal.Device, queue hal.Queue) (*demo, error) {
	sc, err := newScene(cfg.Scene)
	if err != nil {
		return nil, err
	}
	p, err := umbra.NewPipeline(umbra.WithConfig(cfg.Pipeline), umbra.WithDevice(device, queue))
	if err != nil {
		return nil, err
	}
	return &demo{pipeline: p, scene: sc}, nil
}

func (d *demo) close() { d.pipeline.Close() }

func (d *demo) runFrames(ctx context.Context, logger *log.Logger, n int) error {
	start := time.Now()
	for range n {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.step(logger); err != nil {
			return err
		}
	}
	logger.Info("done", "frames", n, "elapsed", time.Since(start))
	return nil
}

func (d *demo) step(logger *log.Logger) error {
	res, err := d.pipeline.Frame(d.scene.frame(d.frame))
	if err != nil {
		return fmt.Errorf("frame %d: %w", d.frame, err)
	}
	d.frame++

	pointers, layers := 0, 0
	for _, l := range res.Lights {
		pointers += l.Pointers
		layers = max(layers, l.Layers)
	}
	logger.Debug("frame",
		"n", d.frame,
		"pointers", pointers,
		"max_layers", layers,
		"rounds", res.RoundStats,
		"polygons", res.PolygonStats,
		"vertices", res.VertexStats)
	if d.frame%60 == 0 {
		logger.Info("progress", "frame", d.frame, "pointers", pointers,
			"vertices", res.VertexStats.Len, "memory", d.pipeline.Memory())
	}
	return nil
}

// openNoopDevice opens the first adapter of the noop backend.
func openNoopDevice() (hal.Device, hal.Queue, func(), error) {
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, nil, nil, errors.New("no noop adapter")
	}
	open, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, nil, nil, fmt.Errorf("open adapter: %w", err)
	}
	cleanup := func() {
		open.Device.Destroy()
		instance.Destroy()
	}
	return open.Device, open.Queue, cleanup, nil
}
