// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package submit

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gogpu/frameflow/internal/logging"
	"github.com/gogpu/frameflow/internal/parallel"
)

// Generator records the command buffers of one lane. It is called exactly
// once per lane and may return an empty slice. Generators of one Submit
// call run concurrently on the lane workers, at most WithLaneWorkers of them
// at a time; with more lanes than workers the rest run as workers free up.
// A generator must therefore not block waiting on another lane.
type Generator func(lane int) ([]CommandBuffer, error)

// Coordinator fans one frame's command recording across lanes and waits for
// the GPU to finish all of them.
//
// Thread safety: Coordinator is safe for concurrent use; Submit calls are
// serialized.
type Coordinator struct {
	handle *Handle

	fenceTimeout time.Duration
	reuse        bool

	// mu serializes Submit and Close.
	mu     sync.Mutex
	closed bool
	lanes  *parallel.Pool
	syncs  syncPool
	stats  Stats

	log *slog.Logger
}

// Stats is a snapshot of a coordinator's counters.
type Stats struct {
	// Submissions counts Submit calls that reached the device.
	Submissions uint64
	// Lanes counts lanes run across all submissions.
	Lanes uint64
	// Failed counts submissions that returned an error.
	Failed uint64
	// Timeouts counts fence waits that timed out.
	Timeouts uint64
	// Dropped counts fences and semaphores abandoned because the device
	// might still use them.
	Dropped uint64
	// PooledFences and PooledSemaphores are the idle objects kept for reuse.
	PooledFences     int
	PooledSemaphores int
}

// NewCoordinator creates a coordinator submitting through h.
func NewCoordinator(h *Handle, opts ...Option) *Coordinator {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	c := &Coordinator{
		handle:       h,
		fenceTimeout: o.fenceTimeout,
		reuse:        o.laneReuse,
		lanes:        parallel.NewPool(o.laneWorkers),
		log:          logging.Or(o.logger),
	}
	c.log.Info("submit: coordinator created",
		"lane_workers", c.lanes.Workers(),
		"fence_timeout", c.fenceTimeout,
		"lane_reuse", c.reuse)
	return c
}

// lane is the per-call state of one lane.
type lane struct {
	index int
	fence Fence
	sem   Semaphore

	buffers    int
	genErr     error
	submitErr  error
	dispatched bool

	// signalled is set once the lane fence was observed signalled.
	signalled bool
	waitErr   error
}

// Submit runs laneCount lanes, submits a barrier waiting on all of them and
// blocks until every dispatched fence was observed or failed.
//
// laneCount <= 0 returns nil without touching the device. A non-nil error
// is a *SubmissionError unless it is ErrNilGenerator, ErrNoDevice or
// ErrCoordinatorClosed.
func (c *Coordinator) Submit(laneCount int, gen Generator, opts ...SubmitOption) error {
	if laneCount <= 0 {
		return nil
	}
	if gen == nil {
		return ErrNilGenerator
	}
	if c.handle == nil || c.handle.device == nil {
		return ErrNoDevice
	}

	var so submitOptions
	for _, opt := range opts {
		opt(&so)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrCoordinatorClosed
	}

	id := uuid.New()
	log := c.log.With("submission", id.String())
	dev := c.handle.device
	c.stats.Submissions++

	if err := dev.ResetPool(c.handle.pool); err != nil {
		c.stats.Failed++
		return newSubmissionError(id, []Failure{{Lane: NoLane, Op: OpResetPool, Err: deviceError(err)}})
	}

	lanes, err := c.acquire(dev, laneCount)
	if err != nil {
		c.stats.Failed++
		return newSubmissionError(id, []Failure{{Lane: NoLane, Op: OpAcquireSync, Err: deviceError(err)}})
	}
	barrierFence, err := c.syncs.fence(dev)
	if err != nil {
		c.recycleUnused(dev, lanes)
		c.stats.Failed++
		return newSubmissionError(id, []Failure{{Lane: NoLane, Op: OpAcquireSync, Err: deviceError(err)}})
	}

	if err := c.lanes.ForEach(laneCount, func(i int) {
		c.runLane(dev, &lanes[i], gen, log)
	}); err != nil {
		c.recycleUnused(dev, lanes)
		c.syncs.putFence(dev, barrierFence, c.reuse)
		return ErrCoordinatorClosed
	}
	c.stats.Lanes += uint64(laneCount)

	barrier := Batch{SignalSemaphores: so.signal}
	for i := range lanes {
		if lanes[i].dispatched {
			barrier.WaitSemaphores = append(barrier.WaitSemaphores, lanes[i].sem)
			barrier.WaitStages = append(barrier.WaitStages, StageAllCommands)
		}
	}
	barrierErr := dev.Submit(c.handle.queue, barrier, barrierFence)
	barrierDispatched := barrierErr == nil
	if barrierErr != nil {
		barrierErr = deviceError(barrierErr)
		log.Warn("submit: barrier submission failed", "err", barrierErr)
	}

	for i := range lanes {
		l := &lanes[i]
		if !l.dispatched {
			continue
		}
		l.signalled, l.waitErr = c.wait(dev, l.fence)
		if l.waitErr != nil {
			log.Warn("submit: lane fence wait failed", "lane", l.index, "err", l.waitErr)
		}
	}

	var barrierSignalled bool
	var barrierWaitErr error
	if barrierDispatched {
		barrierSignalled, barrierWaitErr = c.wait(dev, barrierFence)
		if barrierWaitErr != nil {
			log.Warn("submit: barrier fence wait failed", "err", barrierWaitErr)
		}
	}

	c.recycle(dev, lanes, barrierFence, barrierDispatched, barrierSignalled, log)

	failures := collectFailures(lanes, barrierErr, barrierWaitErr)
	if len(failures) > 0 {
		c.stats.Failed++
	}
	log.Debug("submit: submission finished", "lanes", laneCount, "failures", len(failures))
	return newSubmissionError(id, failures)
}

// acquire takes a fence and semaphore for each lane. On error every object
// taken so far is returned to the pool.
func (c *Coordinator) acquire(dev Device, n int) ([]lane, error) {
	lanes := make([]lane, n)
	for i := range lanes {
		lanes[i].index = i

		f, err := c.syncs.fence(dev)
		if err != nil {
			c.recycleUnused(dev, lanes[:i])
			return nil, fmt.Errorf("lane %d fence: %w", i, err)
		}
		s, err := c.syncs.semaphore(dev)
		if err != nil {
			c.syncs.putFence(dev, f, c.reuse)
			c.recycleUnused(dev, lanes[:i])
			return nil, fmt.Errorf("lane %d semaphore: %w", i, err)
		}
		lanes[i].fence = f
		lanes[i].sem = s
	}
	return lanes, nil
}

// runLane records and submits one lane. It runs on a lane worker and never
// panics.
func (c *Coordinator) runLane(dev Device, l *lane, gen Generator, log *slog.Logger) {
	buffers, err := generate(gen, l.index)
	if err != nil {
		l.genErr = err
		buffers = nil
		log.Warn("submit: lane generator failed, submitting empty lane", "lane", l.index, "err", err)
	}
	l.buffers = len(buffers)

	batch := Batch{
		CommandBuffers:   buffers,
		SignalSemaphores: []Semaphore{l.sem},
	}
	if err := dev.Submit(c.handle.queue, batch, l.fence); err != nil {
		l.submitErr = deviceError(err)
		log.Warn("submit: lane submission failed", "lane", l.index, "err", l.submitErr)
		return
	}
	l.dispatched = true
	log.Debug("submit: lane dispatched", "lane", l.index, "buffers", l.buffers)
}

func generate(gen Generator, index int) (buffers []CommandBuffer, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrGeneratorFailed, r)
		}
	}()
	buffers, err = gen(index)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeneratorFailed, err)
	}
	return buffers, nil
}

// wait blocks on one fence with the coordinator's timeout.
func (c *Coordinator) wait(dev Device, f Fence) (bool, error) {
	ok, err := dev.WaitFence(f, c.fenceTimeout)
	if err != nil {
		return false, deviceError(err)
	}
	if !ok {
		c.stats.Timeouts++
		return false, fmt.Errorf("%w after %v", ErrFenceTimeout, c.fenceTimeout)
	}
	return true, nil
}

// recycle returns every sync object the device is done with. Objects that
// might still be referenced by pending GPU work are dropped.
func (c *Coordinator) recycle(dev Device, lanes []lane, barrierFence Fence, barrierDispatched, barrierSignalled bool, log *slog.Logger) {
	dropped := 0
	for i := range lanes {
		l := &lanes[i]
		switch {
		case !l.dispatched:
			c.syncs.putFence(dev, l.fence, c.reuse)
			c.syncs.putSemaphore(dev, l.sem, c.reuse)
			continue
		case l.signalled:
			c.syncs.putFence(dev, l.fence, c.reuse)
		default:
			dropped++
		}

		switch {
		case l.signalled && barrierSignalled:
			// The barrier consumed the semaphore signal.
			c.syncs.putSemaphore(dev, l.sem, c.reuse)
		case l.signalled && !barrierDispatched:
			// Signalled but never waited on: not reusable, safe to destroy.
			dev.DestroySemaphore(l.sem)
		default:
			dropped++
		}
	}

	switch {
	case !barrierDispatched || barrierSignalled:
		c.syncs.putFence(dev, barrierFence, c.reuse)
	default:
		dropped++
	}

	if dropped > 0 {
		c.stats.Dropped += uint64(dropped)
		log.Warn("submit: dropped sync objects still possibly in use", "count", dropped)
	}
}

// recycleUnused returns the objects of lanes that were never submitted.
func (c *Coordinator) recycleUnused(dev Device, lanes []lane) {
	for i := range lanes {
		if lanes[i].fence != nil {
			c.syncs.putFence(dev, lanes[i].fence, c.reuse)
		}
		if lanes[i].sem != nil {
			c.syncs.putSemaphore(dev, lanes[i].sem, c.reuse)
		}
	}
}

// collectFailures orders failures as lanes (generate, submit), barrier
// submission, lane waits, barrier wait.
func collectFailures(lanes []lane, barrierErr, barrierWaitErr error) []Failure {
	var failures []Failure
	for i := range lanes {
		l := &lanes[i]
		if l.genErr != nil {
			failures = append(failures, Failure{Lane: l.index, Op: OpGenerate, Err: l.genErr})
		}
		if l.submitErr != nil {
			failures = append(failures, Failure{Lane: l.index, Op: OpSubmit, Err: l.submitErr})
		}
	}
	if barrierErr != nil {
		failures = append(failures, Failure{Lane: NoLane, Op: OpBarrier, Err: barrierErr})
	}
	for i := range lanes {
		if lanes[i].waitErr != nil {
			failures = append(failures, Failure{Lane: lanes[i].index, Op: OpWaitLane, Err: lanes[i].waitErr})
		}
	}
	if barrierWaitErr != nil {
		failures = append(failures, Failure{Lane: NoLane, Op: OpWaitBarrier, Err: barrierWaitErr})
	}
	return failures
}

// Stats returns a snapshot of the coordinator's counters.
func (c *Coordinator) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.PooledFences, s.PooledSemaphores = c.syncs.len()
	return s
}

// Handle returns the handle the coordinator submits through.
func (c *Coordinator) Handle() *Handle {
	return c.handle
}

// Close stops the lane workers and destroys pooled fences and semaphores.
// Objects dropped by failed submissions are not tracked and stay alive.
// Close is safe to call multiple times.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.lanes.Close()
	if c.handle != nil && c.handle.device != nil {
		c.syncs.drain(c.handle.device)
	}
	c.log.Info("submit: coordinator closed",
		"submissions", c.stats.Submissions, "dropped", c.stats.Dropped)
}
