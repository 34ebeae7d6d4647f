// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command framedemo drives a frameflow engine over the noop GPU backend.
//
// It prepares a shader, a texture and a font as background tasks, runs a
// batch of synthetic dependent tasks and submits a number of multi-lane
// frames, then prints scheduler progress and submission statistics.
//
// Usage:
//
//	framedemo --frames 60 --lanes 4 --log-level debug
//	framedemo --config frameflow.toml --log-format json
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
