// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package submit

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// fakeBuffer is a command buffer understood by fakeDevice.
type fakeBuffer struct {
	lane int
	// hang makes the submission never complete.
	hang bool
	// fail makes Submit return an error.
	fail bool
}

type fakeFence struct {
	id        int
	signalled bool
	hung      bool
	inFlight  bool
	destroyed bool
}

type fakeSemaphore struct {
	id        int
	signalled bool
	// pending is set when the signalling submission never completes.
	pending   bool
	destroyed bool
}

type fakeQueue struct{}
type fakePool struct{}

// fakeDevice is an in-memory Device that records every call and completes
// submissions synchronously unless a buffer asks it to hang.
type fakeDevice struct {
	mu sync.Mutex

	events []string
	calls  map[string]int

	fences []*fakeFence
	sems   []*fakeSemaphore

	submits []Batch
	waits   []*fakeFence

	// violations records misuse detected by the fake.
	violations []string

	resetPoolErr   error
	createFenceErr error
	failFenceAfter int // CreateFence fails once this many fences exist; 0 disables
	waitErr        error
	barrierErr     error
	submitSleep    time.Duration
	outstanding    int
	maxOutstanding int
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{calls: make(map[string]int)}
}

func (d *fakeDevice) record(call string) {
	d.calls[call]++
	d.events = append(d.events, call)
}

func (d *fakeDevice) event(e string) {
	d.mu.Lock()
	d.events = append(d.events, e)
	d.mu.Unlock()
}

func (d *fakeDevice) violate(format string, args ...any) {
	d.violations = append(d.violations, fmt.Sprintf(format, args...))
}

func (d *fakeDevice) CreateFence() (Fence, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("CreateFence")
	if d.createFenceErr != nil {
		return nil, d.createFenceErr
	}
	if d.failFenceAfter > 0 && len(d.fences) >= d.failFenceAfter {
		return nil, errors.New("out of fences")
	}
	f := &fakeFence{id: len(d.fences)}
	d.fences = append(d.fences, f)
	return f, nil
}

func (d *fakeDevice) CreateSemaphore() (Semaphore, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("CreateSemaphore")
	s := &fakeSemaphore{id: len(d.sems)}
	d.sems = append(d.sems, s)
	return s, nil
}

func (d *fakeDevice) ResetFence(fence Fence) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("ResetFence")
	f := fence.(*fakeFence)
	if f.inFlight {
		d.violate("reset of in-flight fence %d", f.id)
	}
	f.signalled = false
	return nil
}

func (d *fakeDevice) DestroyFence(fence Fence) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("DestroyFence")
	f := fence.(*fakeFence)
	if f.inFlight {
		d.violate("destroy of in-flight fence %d", f.id)
	}
	if f.destroyed {
		d.violate("double destroy of fence %d", f.id)
	}
	f.destroyed = true
}

func (d *fakeDevice) DestroySemaphore(sem Semaphore) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("DestroySemaphore")
	s := sem.(*fakeSemaphore)
	if s.pending {
		d.violate("destroy of pending semaphore %d", s.id)
	}
	if s.destroyed {
		d.violate("double destroy of semaphore %d", s.id)
	}
	s.destroyed = true
}

func (d *fakeDevice) ResetPool(CommandPool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("ResetPool")
	if d.outstanding != 0 {
		d.violate("pool reset with %d submissions outstanding", d.outstanding)
	}
	return d.resetPoolErr
}

func (d *fakeDevice) Submit(_ Queue, batch Batch, fence Fence) error {
	if d.submitSleep > 0 {
		time.Sleep(d.submitSleep)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("Submit")

	isBarrier := len(batch.WaitSemaphores) > 0 || len(batch.CommandBuffers) == 0 && len(batch.SignalSemaphores) != 1
	if isBarrier && d.barrierErr != nil {
		return d.barrierErr
	}

	hang := false
	for _, cb := range batch.CommandBuffers {
		b := cb.(fakeBuffer)
		if b.fail {
			return errors.New("queue rejected batch")
		}
		hang = hang || b.hang
	}
	if len(batch.WaitStages) != len(batch.WaitSemaphores) {
		d.violate("wait stages %d != wait semaphores %d", len(batch.WaitStages), len(batch.WaitSemaphores))
	}
	for _, ws := range batch.WaitSemaphores {
		s := ws.(*fakeSemaphore)
		switch {
		case s.pending:
			hang = true
		case s.signalled:
			s.signalled = false
		default:
			d.violate("wait on unsignalled semaphore %d", s.id)
		}
	}

	d.submits = append(d.submits, batch)
	for _, ss := range batch.SignalSemaphores {
		s := ss.(*fakeSemaphore)
		if hang {
			s.pending = true
		} else {
			s.signalled = true
		}
	}
	if fence != nil {
		f := fence.(*fakeFence)
		if f.signalled || f.inFlight {
			d.violate("submit with fence %d not reset", f.id)
		}
		if hang {
			f.hung = true
			f.inFlight = true
		} else {
			f.signalled = true
		}
		d.outstanding++
		d.maxOutstanding = max(d.maxOutstanding, d.outstanding)
	}
	return nil
}

func (d *fakeDevice) WaitFence(fence Fence, _ time.Duration) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("WaitFence")
	f := fence.(*fakeFence)
	d.waits = append(d.waits, f)
	d.outstanding--
	if d.waitErr != nil {
		return false, d.waitErr
	}
	if f.hung {
		return false, nil
	}
	return f.signalled, nil
}

// total returns the number of device calls of any kind.
func (d *fakeDevice) total() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.calls {
		n += c
	}
	return n
}

func (d *fakeDevice) count(call string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls[call]
}

func (d *fakeDevice) problems() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.violations...)
}

// lastSubmit returns the most recent batch, the barrier after a Submit call.
func (d *fakeDevice) lastSubmit() Batch {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.submits[len(d.submits)-1]
}

func (d *fakeDevice) laneSubmits() []Batch {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []Batch
	for _, b := range d.submits {
		if len(b.WaitSemaphores) == 0 && len(b.SignalSemaphores) == 1 {
			out = append(out, b)
		}
	}
	return out
}
