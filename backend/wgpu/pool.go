// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"
	"sync"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/frameflow/submit"
)

// CommandPool tracks the command buffers recorded for one submit.Handle.
// Resetting the pool returns them to the HAL device.
//
// Thread safety: Record may be called from concurrent lanes.
type CommandPool struct {
	dev hal.Device

	mu      sync.Mutex
	buffers []hal.CommandBuffer
}

// NewCommandPool creates an empty pool on d.
func (d *Device) NewCommandPool() *CommandPool {
	return &CommandPool{dev: d.dev}
}

// Record creates a command encoder, lets fn record into it and returns the
// finished command buffer. If fn fails the encoding is discarded.
func (p *CommandPool) Record(label string, fn func(enc hal.CommandEncoder) error) (submit.CommandBuffer, error) {
	enc, err := p.dev.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create encoder %q: %w", label, err)
	}
	if err := enc.BeginEncoding(label); err != nil {
		return nil, fmt.Errorf("wgpu: begin encoding %q: %w", label, err)
	}
	if fn != nil {
		if err := fn(enc); err != nil {
			enc.DiscardEncoding()
			return nil, err
		}
	}
	cb, err := enc.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("wgpu: end encoding %q: %w", label, err)
	}

	p.mu.Lock()
	p.buffers = append(p.buffers, cb)
	p.mu.Unlock()
	return cb, nil
}

// Len returns the number of buffers recorded since the last reset.
func (p *CommandPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buffers)
}

// reset frees every tracked buffer and returns how many were freed.
func (p *CommandPool) reset() int {
	p.mu.Lock()
	buffers := p.buffers
	p.buffers = nil
	p.mu.Unlock()

	for _, cb := range buffers {
		p.dev.FreeCommandBuffer(cb)
	}
	return len(buffers)
}
