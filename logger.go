// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package frameflow

import (
	"log/slog"

	"github.com/gogpu/frameflow/internal/logging"
)

// SetLogger configures the logger for frameflow and all its sub-packages.
// By default, frameflow produces no log output.
// Pass nil to restore the silent default.
//
// Instances capture the logger when they are created, so call SetLogger
// before constructing engines, schedulers or coordinators.
//
// SetLogger is safe for concurrent use.
//
// Log levels used by frameflow:
//   - [slog.LevelDebug]: per-task and per-lane diagnostics
//   - [slog.LevelInfo]: lifecycle events (worker pools, shutdown)
//   - [slog.LevelWarn]: panicking actions, fence timeouts, dropped sync objects
func SetLogger(l *slog.Logger) {
	logging.Set(l)
}

// Logger returns the current logger used by frameflow.
// Never returns nil.
func Logger() *slog.Logger {
	return logging.Logger()
}
