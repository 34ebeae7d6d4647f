// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package frameflow schedules background work and submits multi-lane GPU
// frames for a rendering layer.
//
// # Overview
//
// An [Engine] bundles the three parts a renderer needs every frame:
//
//   - a task scheduler (package scheduler) running prioritized jobs with
//     dependencies on a fixed worker pool,
//   - a submission coordinator (package submit) that records command
//     buffers on parallel lanes and joins them with a barrier submission,
//   - an asset loader (package assets) that compiles shaders, decodes
//     textures and prepares fonts as scheduler tasks.
//
// # Quick Start
//
//	dev, _ := wgpu.OpenNoop()
//	defer dev.Close()
//	pool := dev.NewCommandPool()
//
//	e := frameflow.NewEngine(dev.Handle(pool), frameflow.WithWorkers(4))
//	defer e.Close()
//
//	shader, _ := e.Assets().LoadShader("blit", blitWGSL, 0)
//	_ = e.Wait(ctx, shader)
//
//	err := e.SubmitFrame(4, func(lane int) ([]submit.CommandBuffer, error) {
//	    buf, err := pool.Record("lane", recordLane(lane))
//	    return []submit.CommandBuffer{buf}, err
//	})
//
// # Configuration
//
// Engines are configured with functional options. [LoadConfig] reads the
// same settings from a TOML file:
//
//	workers       = 4
//	lane_workers  = 8
//	fence_timeout = "250ms"
//	lane_reuse    = true
//
// # Logging
//
// All packages log through log/slog. Output is silent until [SetLogger]
// installs a logger.
package frameflow
