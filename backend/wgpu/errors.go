// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import "errors"

// Package errors.
var (
	// ErrForeignHandle is returned when a handle was not created by this
	// package (or by the wrapped HAL device).
	ErrForeignHandle = errors.New("wgpu: handle not created by this device")

	// ErrNotHAL is returned when a DeviceProvider does not expose HAL types.
	ErrNotHAL = errors.New("wgpu: provider does not expose HAL device and queue")

	// ErrNoAdapter is returned when a HAL instance reports no adapters.
	ErrNoAdapter = errors.New("wgpu: no adapter available")

	// ErrSemaphoreUnsignalled is returned when a batch waits on a semaphore
	// no earlier submission signals.
	ErrSemaphoreUnsignalled = errors.New("wgpu: wait on unsignalled semaphore")

	// ErrDeviceClosed is returned by operations on a closed Device.
	ErrDeviceClosed = errors.New("wgpu: device closed")
)
