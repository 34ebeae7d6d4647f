// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package frameflow

import (
	"log/slog"
	"time"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/frameflow/assets"
)

// Option configures an Engine during creation.
//
// Example:
//
//	e := frameflow.NewEngine(h,
//	    frameflow.WithWorkers(4),
//	    frameflow.WithFenceTimeout(250*time.Millisecond),
//	)
type Option func(*engineOptions)

// engineOptions holds optional configuration for Engine creation.
type engineOptions struct {
	workers       int
	laneWorkers   int
	fenceTimeout  time.Duration
	laneReuse     bool
	assetCapacity int
	shaderDevice  hal.Device
	logger        *slog.Logger
}

func defaultEngineOptions() engineOptions {
	return engineOptions{
		laneReuse:     true,
		assetCapacity: assets.DefaultCapacity,
	}
}

// WithWorkers sets the number of scheduler workers.
// Zero or negative selects GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *engineOptions) {
		o.workers = n
	}
}

// WithLaneWorkers sets the number of goroutines recording submission lanes.
// Zero or negative selects GOMAXPROCS. At most this many lane generators run
// at once, so generators must not wait on each other.
func WithLaneWorkers(n int) Option {
	return func(o *engineOptions) {
		o.laneWorkers = n
	}
}

// WithFenceTimeout bounds every fence wait of SubmitFrame.
// Zero or negative keeps submit.DefaultFenceTimeout.
func WithFenceTimeout(d time.Duration) Option {
	return func(o *engineOptions) {
		o.fenceTimeout = d
	}
}

// WithLaneReuse controls recycling of fences and semaphores across frames.
// Enabled by default.
func WithLaneReuse(reuse bool) Option {
	return func(o *engineOptions) {
		o.laneReuse = reuse
	}
}

// WithAssetCapacity bounds how many shaders, textures and fonts of each kind
// the asset store keeps. Zero means unlimited.
func WithAssetCapacity(n int) Option {
	return func(o *engineOptions) {
		o.assetCapacity = n
	}
}

// WithShaderDevice makes compiled shaders also produce HAL shader modules
// on dev.
func WithShaderDevice(dev hal.Device) Option {
	return func(o *engineOptions) {
		o.shaderDevice = dev
	}
}

// WithLogger sets the logger for the engine and every component it creates.
// By default the logger installed with SetLogger is used.
func WithLogger(l *slog.Logger) Option {
	return func(o *engineOptions) {
		o.logger = l
	}
}
