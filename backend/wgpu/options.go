// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"log/slog"
	"time"
)

// DefaultPollInterval is the initial sleep between completion polls while
// waiting on a fence.
const DefaultPollInterval = 50 * time.Microsecond

// maxPollInterval caps the exponential backoff of fence polling.
const maxPollInterval = 2 * time.Millisecond

// Option configures a Device.
type Option func(*options)

type options struct {
	pollInterval time.Duration
	logger       *slog.Logger
}

// WithPollInterval sets the initial fence polling interval.
// Zero or negative values keep DefaultPollInterval.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

// WithLogger sets the device's logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
