// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package umbra

import (
	"log/slog"

	"github.com/gogpu/umbra/internal/gpu"
)

// SetLogger routes umbra's diagnostics to l. The default logger drops
// everything; passing nil restores it. SetLogger may be called while
// pipelines are running.
//
// Events by level:
//   - [slog.LevelDebug]: "pipeline created", "storage buffer created"
//     when a GPU buffer is allocated or regrown, "bin layers overflowed"
//     when a light needs more than one bin layer, and "frame done" with
//     per-frame allocator stats
//   - [slog.LevelInfo]: "allocator defragmented", naming the allocator
//     and its new generation
//   - [slog.LevelWarn]: "storage buffer destroyed twice" and
//     "host buffer destroyed twice"
//
// The demo command wires a charmbracelet/log logger in through
// slog.New; any slog.Handler works:
//
//	umbra.SetLogger(slog.New(slog.NewTextHandler(os.Stderr,
//		&slog.HandlerOptions{Level: slog.LevelDebug})))
func SetLogger(l *slog.Logger) { gpu.SetLogger(l) }

// Logger returns the logger set by SetLogger.
func Logger() *slog.Logger { return gpu.Logger() }
