// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/frameflow/internal/logging"
	"github.com/gogpu/frameflow/submit"
)

// Device adapts a HAL device and queue to submit.Device.
//
// Thread safety: Device is safe for concurrent use. Submissions to the HAL
// queue are serialized so submission indices follow call order.
type Device struct {
	dev   hal.Device
	queue hal.Queue

	pollInterval time.Duration

	// submitMu serializes HAL queue submissions.
	submitMu sync.Mutex

	closed atomic.Bool
	// release frees objects owned by this Device (OpenNoop only).
	release func()

	log *slog.Logger
}

// New wraps a HAL device and its queue. The caller keeps ownership of both.
func New(dev hal.Device, queue hal.Queue, opts ...Option) *Device {
	o := options{pollInterval: DefaultPollInterval}
	for _, opt := range opts {
		opt(&o)
	}
	return &Device{
		dev:          dev,
		queue:        queue,
		pollInterval: o.pollInterval,
		log:          logging.Or(o.logger),
	}
}

// HAL returns the wrapped HAL device.
func (d *Device) HAL() hal.Device { return d.dev }

// Queue returns the wrapped HAL queue.
func (d *Device) Queue() hal.Queue { return d.queue }

// Handle returns a submit.Handle using this device, its queue and pool.
func (d *Device) Handle(pool *CommandPool) *submit.Handle {
	return submit.NewHandle(d, d.queue, pool)
}

// fence tracks the submission index that completes its batch.
type fence struct {
	queue  hal.Queue
	target atomic.Uint64
	armed  atomic.Bool
}

// semaphore records the submission index of the batch signalling it.
type semaphore struct {
	index     atomic.Uint64
	signalled atomic.Bool
}

// CreateFence implements submit.Device.
func (d *Device) CreateFence() (submit.Fence, error) {
	if d.closed.Load() {
		return nil, ErrDeviceClosed
	}
	return &fence{}, nil
}

// CreateSemaphore implements submit.Device.
func (d *Device) CreateSemaphore() (submit.Semaphore, error) {
	if d.closed.Load() {
		return nil, ErrDeviceClosed
	}
	return &semaphore{}, nil
}

// ResetFence implements submit.Device.
func (d *Device) ResetFence(f submit.Fence) error {
	hf, ok := f.(*fence)
	if !ok {
		return fmt.Errorf("%w: fence %T", ErrForeignHandle, f)
	}
	hf.armed.Store(false)
	hf.target.Store(0)
	hf.queue = nil
	return nil
}

// DestroyFence implements submit.Device. Fences hold no HAL resources.
func (d *Device) DestroyFence(submit.Fence) {}

// DestroySemaphore implements submit.Device. Semaphores hold no HAL resources.
func (d *Device) DestroySemaphore(submit.Semaphore) {}

// ResetPool implements submit.Device by freeing every command buffer
// recorded through pool since the previous reset.
func (d *Device) ResetPool(pool submit.CommandPool) error {
	p, ok := pool.(*CommandPool)
	if !ok || p == nil {
		return fmt.Errorf("%w: command pool %T", ErrForeignHandle, pool)
	}
	if p.dev != d.dev {
		return fmt.Errorf("%w: command pool of another device", ErrForeignHandle)
	}
	n := p.reset()
	d.log.Debug("wgpu: command pool reset", "freed", n)
	return nil
}

// Submit implements submit.Device.
func (d *Device) Submit(queue submit.Queue, batch submit.Batch, f submit.Fence) error {
	if d.closed.Load() {
		return ErrDeviceClosed
	}

	q := d.queue
	if queue != nil {
		hq, ok := queue.(hal.Queue)
		if !ok {
			return fmt.Errorf("%w: queue %T", ErrForeignHandle, queue)
		}
		q = hq
	}

	cbs := make([]hal.CommandBuffer, 0, len(batch.CommandBuffers))
	for _, cb := range batch.CommandBuffers {
		hcb, ok := cb.(hal.CommandBuffer)
		if !ok {
			return fmt.Errorf("%w: command buffer %T", ErrForeignHandle, cb)
		}
		cbs = append(cbs, hcb)
	}

	var hf *fence
	if f != nil {
		var ok bool
		if hf, ok = f.(*fence); !ok {
			return fmt.Errorf("%w: fence %T", ErrForeignHandle, f)
		}
	}

	var target uint64
	for _, ws := range batch.WaitSemaphores {
		s, ok := ws.(*semaphore)
		if !ok {
			return fmt.Errorf("%w: semaphore %T", ErrForeignHandle, ws)
		}
		if !s.signalled.Load() {
			return ErrSemaphoreUnsignalled
		}
		target = max(target, s.index.Load())
	}
	signals := make([]*semaphore, 0, len(batch.SignalSemaphores))
	for _, ss := range batch.SignalSemaphores {
		s, ok := ss.(*semaphore)
		if !ok {
			return fmt.Errorf("%w: semaphore %T", ErrForeignHandle, ss)
		}
		signals = append(signals, s)
	}

	if len(cbs) > 0 {
		d.submitMu.Lock()
		index, err := q.Submit(cbs)
		d.submitMu.Unlock()
		if err != nil {
			return fmt.Errorf("wgpu: queue submit: %w", err)
		}
		target = max(target, index)
	}

	for _, s := range signals {
		s.index.Store(target)
		s.signalled.Store(true)
	}
	for _, ws := range batch.WaitSemaphores {
		// Waiting consumes the signal.
		ws.(*semaphore).signalled.Store(false)
	}
	if hf != nil {
		hf.queue = q
		hf.target.Store(target)
		hf.armed.Store(true)
	}
	return nil
}

// WaitFence implements submit.Device by polling the queue's completed
// submission index with exponential backoff.
func (d *Device) WaitFence(f submit.Fence, timeout time.Duration) (bool, error) {
	hf, ok := f.(*fence)
	if !ok {
		return false, fmt.Errorf("%w: fence %T", ErrForeignHandle, f)
	}
	if !hf.armed.Load() {
		// Never submitted, so it can never signal.
		return false, nil
	}

	target := hf.target.Load()
	q := hf.queue
	deadline := time.Now().Add(timeout)
	interval := d.pollInterval
	for {
		if q.PollCompleted() >= target {
			return true, nil
		}
		if d.closed.Load() {
			return false, ErrDeviceClosed
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false, nil
		}
		time.Sleep(min(interval, remaining))
		interval = min(interval*2, maxPollInterval)
	}
}

// Close waits for the GPU to go idle and releases the device if this
// Device owns it. Close is safe to call multiple times.
func (d *Device) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := d.dev.WaitIdle()
	if d.release != nil {
		d.release()
	}
	if err != nil {
		return fmt.Errorf("wgpu: wait idle: %w", err)
	}
	return nil
}
