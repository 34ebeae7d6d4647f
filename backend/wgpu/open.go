// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// halProvider is implemented by device providers that expose their HAL
// objects directly.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// FromProvider wraps the HAL device and queue of a host application.
// The host keeps ownership; Close only waits for the device to go idle.
func FromProvider(provider gpucontext.DeviceProvider, opts ...Option) (*Device, error) {
	if provider == nil {
		return nil, fmt.Errorf("%w: nil provider", ErrNotHAL)
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNotHAL
	}
	dev, ok := hp.HalDevice().(hal.Device)
	if !ok || dev == nil {
		return nil, fmt.Errorf("%w: HalDevice is %T", ErrNotHAL, hp.HalDevice())
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is %T", ErrNotHAL, hp.HalQueue())
	}

	d := New(dev, queue, opts...)
	info := provider.AdapterInfo()
	d.log.Info("wgpu: using host device", "adapter", info.Name, "type", info.Type.String())
	return d, nil
}

// OpenNoop opens the first adapter of the HAL noop backend with default
// limits. The returned Device owns the instance and device.
func OpenNoop(opts ...Option) (*Device, error) {
	return openBackend(noop.API{}, opts...)
}

// openBackend opens the first adapter reported by backend.
func openBackend(backend hal.Backend, opts ...Option) (*Device, error) {
	instance, err := backend.CreateInstance(nil)
	if err != nil {
		return nil, fmt.Errorf("wgpu: create %s instance: %w", backend.Variant(), err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}
	exposed := adapters[0]

	open, err := exposed.Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("wgpu: open adapter %q: %w", exposed.Info.Name, err)
	}

	d := New(open.Device, open.Queue, opts...)
	d.release = func() {
		open.Device.Destroy()
		instance.Destroy()
	}
	d.log.Info("wgpu: device opened",
		"adapter", exposed.Info.Name,
		"vendor", exposed.Info.Vendor,
		"type", exposed.Info.DeviceType.String(),
		"backend", exposed.Info.Backend.String(),
		"driver", exposed.Info.Driver)
	return d, nil
}
