// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package wgpu implements submit.Device over the gogpu/wgpu HAL.
//
// The HAL queue tracks completion with monotonically increasing submission
// indices instead of caller-owned fences and semaphores. This package maps
// the coordinator's primitives onto that model:
//
//   - a fence records the submission index of the batch it tracks and is
//     signalled once Queue.PollCompleted reaches that index;
//   - a semaphore records the index of the batch that signals it; a batch
//     waiting on semaphores is ordered after them by the in-order queue;
//   - a batch without command buffers (an empty lane or the barrier) is not
//     sent to the HAL, its fence completes with the latest awaited index.
//
// Command buffers are recorded through CommandPool.Record and returned to
// the device with FreeCommandBuffer when the coordinator resets the pool.
//
// # Device Ownership
//
// The host normally owns the device. FromProvider adapts a
// gpucontext.DeviceProvider that exposes its HAL objects:
//
//	dev, err := wgpu.FromProvider(app)
//	pool := dev.NewCommandPool()
//	coord := submit.NewCoordinator(dev.Handle(pool))
//
// OpenNoop opens the HAL noop backend for tests and headless tools; the
// returned Device owns it and releases it on Close.
package wgpu
