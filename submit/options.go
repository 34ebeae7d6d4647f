// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package submit

import (
	"log/slog"
	"time"
)

// DefaultFenceTimeout bounds every fence wait unless WithFenceTimeout is set.
const DefaultFenceTimeout = time.Second

// Option configures a Coordinator during creation.
type Option func(*options)

type options struct {
	fenceTimeout time.Duration
	laneWorkers  int
	laneReuse    bool
	logger       *slog.Logger
}

func defaultOptions() options {
	return options{
		fenceTimeout: DefaultFenceTimeout,
		laneReuse:    true,
	}
}

// WithFenceTimeout sets the bound of each fence wait.
// Zero or negative values keep DefaultFenceTimeout.
func WithFenceTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.fenceTimeout = d
		}
	}
}

// WithLaneWorkers sets the number of goroutines running lanes.
// Zero or negative values use GOMAXPROCS. Lanes beyond this count do not
// run concurrently with the others; see Generator.
func WithLaneWorkers(n int) Option {
	return func(o *options) {
		o.laneWorkers = n
	}
}

// WithLaneReuse controls whether fences and semaphores are recycled across
// Submit calls. When disabled they are destroyed after each call.
func WithLaneReuse(reuse bool) Option {
	return func(o *options) {
		o.laneReuse = reuse
	}
}

// WithLogger sets the coordinator's logger.
// By default the process logger installed with frameflow.SetLogger is used.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// SubmitOption configures a single Submit call.
type SubmitOption func(*submitOptions)

type submitOptions struct {
	signal []Semaphore
}

// SignalOnBarrier makes the barrier submission signal sems in addition to
// its fence, so later submissions (for example a present) can wait on the
// whole frame.
func SignalOnBarrier(sems ...Semaphore) SubmitOption {
	return func(o *submitOptions) {
		o.signal = append(o.signal, sems...)
	}
}
