// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// silent reports every level as disabled, so callers never build records.
type silent struct{}

func (silent) Enabled(context.Context, slog.Level) bool  { return false }
func (silent) Handle(context.Context, slog.Record) error { return nil }
func (silent) WithAttrs([]slog.Attr) slog.Handler        { return silent{} }
func (silent) WithGroup(string) slog.Handler             { return silent{} }

var (
	quiet   = slog.New(silent{})
	current atomic.Pointer[slog.Logger]
)

func init() { current.Store(quiet) }

// Logger returns the logger shared by umbra and this package.
func Logger() *slog.Logger { return current.Load() }

// SetLogger swaps the shared logger. nil silences it again.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = quiet
	}
	current.Store(l)
}

func slogger() *slog.Logger { return current.Load() }
