// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package umbra

import "errors"

var (
	// ErrEmptyShape is returned when a polygon or polyline has no vertices.
	ErrEmptyShape = errors.New("umbra: shape has no vertices")

	// ErrInvalidRound is returned for non-positive or NaN round dimensions,
	// or a corner radius larger than half the smaller side.
	ErrInvalidRound = errors.New("umbra: invalid round dimensions")

	// ErrInvalidConfig is returned when a Config fails validation.
	ErrInvalidConfig = errors.New("umbra: invalid config")

	// ErrInvalidShape is returned when an occluder's shape is nil, of an
	// unknown type, or an invalid Round.
	ErrInvalidShape = errors.New("umbra: invalid occluder shape")

	// ErrPipelineClosed is returned by Frame after Close.
	ErrPipelineClosed = errors.New("umbra: pipeline is closed")
)
