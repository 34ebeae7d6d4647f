// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package submit

import (
	"errors"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// =============================================================================
// Helpers
// =============================================================================

func newTestCoordinator(t *testing.T, dev *fakeDevice, opts ...Option) *Coordinator {
	t.Helper()
	opts = append([]Option{WithLaneWorkers(4), WithFenceTimeout(10 * time.Millisecond)}, opts...)
	c := NewCoordinator(NewHandle(dev, fakeQueue{}, fakePool{}), opts...)
	t.Cleanup(c.Close)
	return c
}

// buffers returns a generator producing n buffers per lane.
func buffers(n int) Generator {
	return func(lane int) ([]CommandBuffer, error) {
		out := make([]CommandBuffer, n)
		for i := range out {
			out[i] = fakeBuffer{lane: lane}
		}
		return out, nil
	}
}

func checkClean(t *testing.T, dev *fakeDevice) {
	t.Helper()
	if p := dev.problems(); len(p) > 0 {
		t.Errorf("device misuse: %v", p)
	}
}

func asSubmissionError(t *testing.T, err error) *SubmissionError {
	t.Helper()
	var se *SubmissionError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v (%T), want *SubmissionError", err, err)
	}
	return se
}

// =============================================================================
// Zero Lane Tests
// =============================================================================

func TestSubmit_ZeroLanesNoDeviceCalls(t *testing.T) {
	dev := newFakeDevice()
	c := newTestCoordinator(t, dev)

	var called atomic.Bool
	gen := func(int) ([]CommandBuffer, error) {
		called.Store(true)
		return nil, nil
	}
	for _, n := range []int{0, -1, -100} {
		if err := c.Submit(n, gen); err != nil {
			t.Errorf("Submit(%d) = %v, want nil", n, err)
		}
	}
	// A nil generator is irrelevant when there is nothing to run.
	if err := c.Submit(0, nil); err != nil {
		t.Errorf("Submit(0, nil) = %v, want nil", err)
	}

	if n := dev.total(); n != 0 {
		t.Errorf("device calls = %d, want 0", n)
	}
	if called.Load() {
		t.Error("generator called for zero lanes")
	}
}

func TestSubmit_NilGenerator(t *testing.T) {
	dev := newFakeDevice()
	c := newTestCoordinator(t, dev)

	if err := c.Submit(2, nil); !errors.Is(err, ErrNilGenerator) {
		t.Errorf("Submit() = %v, want ErrNilGenerator", err)
	}
	if n := dev.total(); n != 0 {
		t.Errorf("device calls = %d, want 0", n)
	}
}

func TestSubmit_NoDevice(t *testing.T) {
	c := NewCoordinator(NewHandle(nil, nil, nil))
	defer c.Close()

	if err := c.Submit(1, buffers(1)); !errors.Is(err, ErrNoDevice) {
		t.Errorf("Submit() = %v, want ErrNoDevice", err)
	}
}

// =============================================================================
// Submission Sequence Tests
// =============================================================================

func TestSubmit_Sequence(t *testing.T) {
	dev := newFakeDevice()
	c := newTestCoordinator(t, dev)

	var mu sync.Mutex
	var lanesSeen []int
	gen := func(lane int) ([]CommandBuffer, error) {
		dev.event("gen")
		mu.Lock()
		lanesSeen = append(lanesSeen, lane)
		mu.Unlock()
		return []CommandBuffer{fakeBuffer{lane: lane}, fakeBuffer{lane: lane}}, nil
	}

	if err := c.Submit(3, gen); err != nil {
		t.Fatalf("Submit() = %v", err)
	}

	slices.Sort(lanesSeen)
	if !slices.Equal(lanesSeen, []int{0, 1, 2}) {
		t.Errorf("generator lanes = %v, want [0 1 2]", lanesSeen)
	}

	// Pool reset precedes every generator call.
	dev.mu.Lock()
	events := slices.Clone(dev.events)
	dev.mu.Unlock()
	reset := slices.Index(events, "ResetPool")
	firstGen := slices.Index(events, "gen")
	if reset < 0 || firstGen < 0 || reset > firstGen {
		t.Errorf("ResetPool at %d, first generator at %d; reset must come first", reset, firstGen)
	}

	if got := dev.count("Submit"); got != 4 {
		t.Errorf("Submit calls = %d, want 4 (3 lanes + barrier)", got)
	}
	if got := dev.count("WaitFence"); got != 4 {
		t.Errorf("WaitFence calls = %d, want 4", got)
	}

	barrier := dev.lastSubmit()
	if len(barrier.CommandBuffers) != 0 {
		t.Errorf("barrier carries %d command buffers, want 0", len(barrier.CommandBuffers))
	}
	if len(barrier.WaitSemaphores) != 3 {
		t.Errorf("barrier waits on %d semaphores, want 3", len(barrier.WaitSemaphores))
	}
	for i, st := range barrier.WaitStages {
		if st != StageAllCommands {
			t.Errorf("barrier wait stage %d = %v, want all-commands", i, st)
		}
	}

	// Each lane semaphore and fence is distinct.
	seen := map[any]bool{}
	for _, b := range dev.laneSubmits() {
		if len(b.CommandBuffers) != 2 {
			t.Errorf("lane batch has %d buffers, want 2", len(b.CommandBuffers))
		}
		if seen[b.SignalSemaphores[0]] {
			t.Error("two lanes share a semaphore")
		}
		seen[b.SignalSemaphores[0]] = true
	}

	dev.mu.Lock()
	waited := map[*fakeFence]bool{}
	for _, f := range dev.waits {
		waited[f] = true
	}
	dev.mu.Unlock()
	if len(waited) != 4 {
		t.Errorf("distinct fences waited = %d, want 4", len(waited))
	}
	checkClean(t, dev)
}

func TestSubmit_EmptyLaneStillSynchronized(t *testing.T) {
	dev := newFakeDevice()
	c := newTestCoordinator(t, dev)

	gen := func(lane int) ([]CommandBuffer, error) {
		if lane == 1 {
			return nil, nil
		}
		return []CommandBuffer{fakeBuffer{lane: lane}}, nil
	}
	if err := c.Submit(3, gen); err != nil {
		t.Fatalf("Submit() = %v", err)
	}

	lanes := dev.laneSubmits()
	if len(lanes) != 3 {
		t.Fatalf("lane submissions = %d, want 3", len(lanes))
	}
	empty := 0
	for _, b := range lanes {
		if len(b.CommandBuffers) == 0 {
			empty++
			if len(b.SignalSemaphores) != 1 {
				t.Error("empty lane does not signal its semaphore")
			}
		}
	}
	if empty != 1 {
		t.Errorf("empty lane submissions = %d, want 1", empty)
	}
	if got := len(dev.lastSubmit().WaitSemaphores); got != 3 {
		t.Errorf("barrier waits on %d semaphores, want 3", got)
	}
	if got := dev.count("WaitFence"); got != 4 {
		t.Errorf("WaitFence calls = %d, want 4", got)
	}
	checkClean(t, dev)
}

func TestSubmit_LanesBeyondWorkersRunInTurn(t *testing.T) {
	dev := newFakeDevice()
	c := newTestCoordinator(t, dev, WithLaneWorkers(2))

	var active, peak atomic.Int32
	var ran [6]atomic.Bool
	gen := func(lane int) ([]CommandBuffer, error) {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		active.Add(-1)
		ran[lane].Store(true)
		return buffers(1)(lane)
	}

	if err := c.Submit(len(ran), gen); err != nil {
		t.Fatalf("Submit() = %v", err)
	}
	if p := peak.Load(); p > 2 {
		t.Errorf("%d generators ran at once, want at most 2", p)
	}
	for i := range ran {
		if !ran[i].Load() {
			t.Errorf("lane %d never ran", i)
		}
	}
	checkClean(t, dev)
}

func TestSubmit_SignalOnBarrier(t *testing.T) {
	dev := newFakeDevice()
	c := newTestCoordinator(t, dev)

	present, _ := dev.CreateSemaphore()
	if err := c.Submit(2, buffers(1), SignalOnBarrier(present)); err != nil {
		t.Fatalf("Submit() = %v", err)
	}

	barrier := dev.lastSubmit()
	if len(barrier.SignalSemaphores) != 1 || barrier.SignalSemaphores[0] != present {
		t.Errorf("barrier signals %v, want the present semaphore", barrier.SignalSemaphores)
	}
	if !present.(*fakeSemaphore).signalled {
		t.Error("present semaphore not signalled")
	}
}

// =============================================================================
// Failure Tests
// =============================================================================

func TestSubmit_LaneTimeoutWaitsAllOthers(t *testing.T) {
	dev := newFakeDevice()
	c := newTestCoordinator(t, dev)

	gen := func(lane int) ([]CommandBuffer, error) {
		return []CommandBuffer{fakeBuffer{lane: lane, hang: lane == 1}}, nil
	}
	err := c.Submit(3, gen)
	if !errors.Is(err, ErrFenceTimeout) {
		t.Fatalf("Submit() = %v, want ErrFenceTimeout", err)
	}

	se := asSubmissionError(t, err)
	if se.Lane != 1 || se.Op != OpWaitLane {
		t.Errorf("first failure = lane %d %q, want lane 1 %q", se.Lane, se.Op, OpWaitLane)
	}
	// Lane 1 hangs, so the barrier waiting on it times out too.
	if len(se.All) != 2 || se.All[1].Op != OpWaitBarrier {
		t.Errorf("failures = %v, want lane 1 wait then barrier wait", se.All)
	}

	if got := dev.count("WaitFence"); got != 4 {
		t.Errorf("WaitFence calls = %d, want 4 (every fence waited)", got)
	}
	stats := c.Stats()
	if stats.Timeouts != 2 {
		t.Errorf("Timeouts = %d, want 2", stats.Timeouts)
	}
	// Hung lane fence, every semaphore the pending barrier waits on and the
	// barrier fence.
	if stats.Dropped != 5 {
		t.Errorf("Dropped = %d, want 5", stats.Dropped)
	}
	if stats.PooledFences != 2 {
		t.Errorf("PooledFences = %d, want 2 (completed lanes)", stats.PooledFences)
	}
	checkClean(t, dev)
}

func TestSubmit_GeneratorFailureStillSubmitsLane(t *testing.T) {
	tests := []struct {
		name string
		gen  Generator
	}{
		{"error", func(lane int) ([]CommandBuffer, error) {
			if lane == 2 {
				return []CommandBuffer{fakeBuffer{}}, errors.New("record failed")
			}
			return []CommandBuffer{fakeBuffer{lane: lane}}, nil
		}},
		{"panic", func(lane int) ([]CommandBuffer, error) {
			if lane == 2 {
				panic("bad lane")
			}
			return []CommandBuffer{fakeBuffer{lane: lane}}, nil
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := newFakeDevice()
			c := newTestCoordinator(t, dev)

			err := c.Submit(3, tt.gen)
			if !errors.Is(err, ErrGeneratorFailed) {
				t.Fatalf("Submit() = %v, want ErrGeneratorFailed", err)
			}
			se := asSubmissionError(t, err)
			if se.Lane != 2 || se.Op != OpGenerate {
				t.Errorf("failure = lane %d %q, want lane 2 %q", se.Lane, se.Op, OpGenerate)
			}

			lanes := dev.laneSubmits()
			if len(lanes) != 3 {
				t.Fatalf("lane submissions = %d, want 3", len(lanes))
			}
			empty := 0
			for _, b := range lanes {
				if len(b.CommandBuffers) == 0 {
					empty++
				}
			}
			if empty != 1 {
				t.Errorf("empty lane submissions = %d, want 1 (failed lane)", empty)
			}
			if got := dev.count("WaitFence"); got != 4 {
				t.Errorf("WaitFence calls = %d, want 4", got)
			}
			checkClean(t, dev)
		})
	}
}

func TestSubmit_LaneSubmitFailure(t *testing.T) {
	dev := newFakeDevice()
	c := newTestCoordinator(t, dev)

	gen := func(lane int) ([]CommandBuffer, error) {
		return []CommandBuffer{fakeBuffer{lane: lane, fail: lane == 0}}, nil
	}
	err := c.Submit(3, gen)
	if !errors.Is(err, ErrDeviceOperationFailed) {
		t.Fatalf("Submit() = %v, want ErrDeviceOperationFailed", err)
	}
	se := asSubmissionError(t, err)
	if se.Lane != 0 || se.Op != OpSubmit {
		t.Errorf("failure = lane %d %q, want lane 0 %q", se.Lane, se.Op, OpSubmit)
	}

	// The undispatched lane is neither waited nor awaited by the barrier.
	if got := len(dev.lastSubmit().WaitSemaphores); got != 2 {
		t.Errorf("barrier waits on %d semaphores, want 2", got)
	}
	if got := dev.count("WaitFence"); got != 3 {
		t.Errorf("WaitFence calls = %d, want 3", got)
	}
	checkClean(t, dev)
}

func TestSubmit_BarrierFailure(t *testing.T) {
	dev := newFakeDevice()
	dev.barrierErr = errors.New("barrier rejected")
	c := newTestCoordinator(t, dev)

	err := c.Submit(2, buffers(1))
	se := asSubmissionError(t, err)
	if se.Op != OpBarrier || se.Lane != NoLane {
		t.Errorf("failure = lane %d %q, want barrier", se.Lane, se.Op)
	}
	// Lane fences are still waited; the barrier fence is not.
	if got := dev.count("WaitFence"); got != 2 {
		t.Errorf("WaitFence calls = %d, want 2", got)
	}
	// Signalled semaphores nobody waited on are destroyed.
	if got := dev.count("DestroySemaphore"); got != 2 {
		t.Errorf("DestroySemaphore calls = %d, want 2", got)
	}
	checkClean(t, dev)
}

func TestSubmit_WaitError(t *testing.T) {
	dev := newFakeDevice()
	dev.waitErr = errors.New("device lost")
	c := newTestCoordinator(t, dev)

	err := c.Submit(2, buffers(1))
	if !errors.Is(err, ErrDeviceOperationFailed) {
		t.Fatalf("Submit() = %v, want ErrDeviceOperationFailed", err)
	}
	se := asSubmissionError(t, err)
	if len(se.All) != 3 {
		t.Errorf("failures = %d, want 3 (two lanes + barrier)", len(se.All))
	}
	if got := dev.count("WaitFence"); got != 3 {
		t.Errorf("WaitFence calls = %d, want 3", got)
	}
}

func TestSubmit_ResetPoolFailure(t *testing.T) {
	dev := newFakeDevice()
	dev.resetPoolErr = errors.New("pool busy")
	c := newTestCoordinator(t, dev)

	var called atomic.Bool
	err := c.Submit(2, func(int) ([]CommandBuffer, error) {
		called.Store(true)
		return nil, nil
	})
	se := asSubmissionError(t, err)
	if se.Op != OpResetPool {
		t.Errorf("Op = %q, want %q", se.Op, OpResetPool)
	}
	if called.Load() {
		t.Error("generator ran after failed pool reset")
	}
	if got := dev.count("Submit"); got != 0 {
		t.Errorf("Submit calls = %d, want 0", got)
	}
}

func TestSubmit_AcquireFailureReturnsObjects(t *testing.T) {
	dev := newFakeDevice()
	dev.failFenceAfter = 2
	c := newTestCoordinator(t, dev)

	err := c.Submit(3, buffers(1))
	se := asSubmissionError(t, err)
	if se.Op != OpAcquireSync || !errors.Is(err, ErrDeviceOperationFailed) {
		t.Errorf("failure = %q %v, want acquire device failure", se.Op, err)
	}
	if got := dev.count("Submit"); got != 0 {
		t.Errorf("Submit calls = %d, want 0", got)
	}

	stats := c.Stats()
	if stats.PooledFences != 2 || stats.PooledSemaphores != 2 {
		t.Errorf("pooled = %d fences, %d semaphores, want 2 and 2",
			stats.PooledFences, stats.PooledSemaphores)
	}
}

func TestSubmissionError_Format(t *testing.T) {
	dev := newFakeDevice()
	c := newTestCoordinator(t, dev)

	gen := func(lane int) ([]CommandBuffer, error) {
		return nil, errors.New("boom")
	}
	err := c.Submit(2, gen)
	se := asSubmissionError(t, err)

	msg := err.Error()
	for _, want := range []string{se.Submission.String(), "lane 0", "generate", "boom", "(and 1 more)"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
}

// =============================================================================
// Reuse Tests
// =============================================================================

func TestSubmit_ReusesSyncObjects(t *testing.T) {
	dev := newFakeDevice()
	c := newTestCoordinator(t, dev)

	for range 5 {
		if err := c.Submit(3, buffers(1)); err != nil {
			t.Fatalf("Submit() = %v", err)
		}
	}

	if got := dev.count("CreateFence"); got != 4 {
		t.Errorf("CreateFence calls = %d, want 4 (3 lanes + barrier, reused)", got)
	}
	if got := dev.count("CreateSemaphore"); got != 3 {
		t.Errorf("CreateSemaphore calls = %d, want 3", got)
	}
	stats := c.Stats()
	if stats.Submissions != 5 || stats.Lanes != 15 || stats.Failed != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.PooledFences != 4 || stats.PooledSemaphores != 3 {
		t.Errorf("pooled = %d fences, %d semaphores, want 4 and 3",
			stats.PooledFences, stats.PooledSemaphores)
	}
	checkClean(t, dev)
}

func TestSubmit_NoReuseDestroysSyncObjects(t *testing.T) {
	dev := newFakeDevice()
	c := newTestCoordinator(t, dev, WithLaneReuse(false))

	for range 2 {
		if err := c.Submit(3, buffers(1)); err != nil {
			t.Fatalf("Submit() = %v", err)
		}
	}

	if got := dev.count("CreateFence"); got != 8 {
		t.Errorf("CreateFence calls = %d, want 8", got)
	}
	if got := dev.count("DestroyFence"); got != 8 {
		t.Errorf("DestroyFence calls = %d, want 8", got)
	}
	if got := dev.count("DestroySemaphore"); got != 6 {
		t.Errorf("DestroySemaphore calls = %d, want 6", got)
	}
	checkClean(t, dev)
}

func TestSubmit_HungObjectsNotReused(t *testing.T) {
	dev := newFakeDevice()
	c := newTestCoordinator(t, dev)

	hangLane0 := func(lane int) ([]CommandBuffer, error) {
		return []CommandBuffer{fakeBuffer{lane: lane, hang: lane == 0}}, nil
	}
	if err := c.Submit(2, hangLane0); !errors.Is(err, ErrFenceTimeout) {
		t.Fatalf("Submit() = %v, want ErrFenceTimeout", err)
	}
	// The next frame must not touch the hung objects.
	if err := c.Submit(2, buffers(1)); err != nil {
		t.Fatalf("second Submit() = %v", err)
	}
	checkClean(t, dev)
}

// =============================================================================
// Concurrency Tests
// =============================================================================

func TestSubmit_ConcurrentCallsSerialized(t *testing.T) {
	dev := newFakeDevice()
	dev.submitSleep = 100 * time.Microsecond
	c := newTestCoordinator(t, dev)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := c.Submit(4, buffers(2)); err != nil {
				t.Errorf("Submit() = %v", err)
			}
		}()
	}
	wg.Wait()

	if got := dev.count("ResetPool"); got != 8 {
		t.Errorf("ResetPool calls = %d, want 8", got)
	}
	dev.mu.Lock()
	maxOut := dev.maxOutstanding
	dev.mu.Unlock()
	if maxOut > 5 {
		t.Errorf("max outstanding submissions = %d, want <= 5 (one call at a time)", maxOut)
	}
	checkClean(t, dev)
}

// =============================================================================
// Close Tests
// =============================================================================

func TestCoordinator_Close(t *testing.T) {
	dev := newFakeDevice()
	c := NewCoordinator(NewHandle(dev, fakeQueue{}, fakePool{}), WithLaneWorkers(2))

	if err := c.Submit(3, buffers(1)); err != nil {
		t.Fatalf("Submit() = %v", err)
	}
	c.Close()
	c.Close()

	if err := c.Submit(1, buffers(1)); !errors.Is(err, ErrCoordinatorClosed) {
		t.Errorf("Submit after Close = %v, want ErrCoordinatorClosed", err)
	}
	if created, destroyed := dev.count("CreateFence"), dev.count("DestroyFence"); created != destroyed {
		t.Errorf("fences created %d, destroyed %d", created, destroyed)
	}
	if created, destroyed := dev.count("CreateSemaphore"), dev.count("DestroySemaphore"); created != destroyed {
		t.Errorf("semaphores created %d, destroyed %d", created, destroyed)
	}
	checkClean(t, dev)
}

// =============================================================================
// Option Tests
// =============================================================================

func TestOptions_Defaults(t *testing.T) {
	o := defaultOptions()
	if o.fenceTimeout != DefaultFenceTimeout {
		t.Errorf("fenceTimeout = %v, want %v", o.fenceTimeout, DefaultFenceTimeout)
	}
	if !o.laneReuse {
		t.Error("lane reuse should default to true")
	}

	WithFenceTimeout(-time.Second)(&o)
	if o.fenceTimeout != DefaultFenceTimeout {
		t.Errorf("negative timeout changed fenceTimeout to %v", o.fenceTimeout)
	}
	WithFenceTimeout(5 * time.Millisecond)(&o)
	if o.fenceTimeout != 5*time.Millisecond {
		t.Errorf("fenceTimeout = %v, want 5ms", o.fenceTimeout)
	}
}

func TestPipelineStage_String(t *testing.T) {
	if StageAllCommands.String() != "all-commands" {
		t.Errorf("StageAllCommands.String() = %q", StageAllCommands.String())
	}
	if (StageCompute | StageFragment).String() != "stage-mask" {
		t.Errorf("combined mask String() = %q", (StageCompute | StageFragment).String())
	}
}
