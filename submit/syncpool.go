// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package submit

// syncPool keeps idle fences and semaphores for reuse across Submit calls.
//
// Objects are returned only once the device is known to be done with them.
// Access is serialized by Coordinator.mu.
type syncPool struct {
	fences []Fence
	sems   []Semaphore
}

func (p *syncPool) fence(dev Device) (Fence, error) {
	if n := len(p.fences); n > 0 {
		f := p.fences[n-1]
		p.fences[n-1] = nil
		p.fences = p.fences[:n-1]
		return f, nil
	}
	return dev.CreateFence()
}

func (p *syncPool) semaphore(dev Device) (Semaphore, error) {
	if n := len(p.sems); n > 0 {
		s := p.sems[n-1]
		p.sems[n-1] = nil
		p.sems = p.sems[:n-1]
		return s, nil
	}
	return dev.CreateSemaphore()
}

// putFence recycles a completed fence, or destroys it if reuse is off or
// the reset fails.
func (p *syncPool) putFence(dev Device, f Fence, reuse bool) {
	if !reuse {
		dev.DestroyFence(f)
		return
	}
	if err := dev.ResetFence(f); err != nil {
		dev.DestroyFence(f)
		return
	}
	p.fences = append(p.fences, f)
}

// putSemaphore recycles an unsignalled semaphore.
func (p *syncPool) putSemaphore(dev Device, s Semaphore, reuse bool) {
	if !reuse {
		dev.DestroySemaphore(s)
		return
	}
	p.sems = append(p.sems, s)
}

// drain destroys every pooled object.
func (p *syncPool) drain(dev Device) {
	for _, f := range p.fences {
		dev.DestroyFence(f)
	}
	for _, s := range p.sems {
		dev.DestroySemaphore(s)
	}
	p.fences = nil
	p.sems = nil
}

func (p *syncPool) len() (fences, sems int) {
	return len(p.fences), len(p.sems)
}
