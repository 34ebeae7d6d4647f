package scheduler

import (
	"fmt"
	"runtime"
)

// startWorkers launches the fixed worker pool.
// If n is 0 or negative, GOMAXPROCS is used.
func (s *Scheduler) startWorkers(n int) {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	s.workers = n

	s.wg.Add(n)
	for i := range n {
		go s.worker(i)
	}
	s.log.Info("scheduler: started", "workers", n)
}

// worker is the main loop for each worker goroutine. Workers are symmetric:
// each pops the most urgent ready task, runs it without holding the lock,
// then records the outcome and releases dependents.
func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		t := s.next()
		if t == nil {
			s.log.Debug("scheduler: worker exiting", "worker", id)
			return
		}

		action := t.action
		t.action = nil
		t.state = StateRunning
		s.running++

		s.mu.Unlock()
		err := s.execute(action)
		s.mu.Lock()

		s.complete(t, err)
	}
}

// next blocks until a ready task is available and pops it. It returns nil
// when the worker should exit. Caller must hold s.mu.
func (s *Scheduler) next() *task {
	for {
		if s.abort {
			return nil
		}
		if t := s.ready.pop(); t != nil {
			return t
		}
		// Draining: a running task may still promote dependents, so idle
		// workers stay until nothing is running.
		if s.closing && s.running == 0 {
			return nil
		}
		s.cond.Wait()
	}
}

// execute runs action in isolation. Errors and panics are converted into a
// task failure; they never reach the worker loop.
func (s *Scheduler) execute(action Action) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %w: %v", ErrActionFailed, ErrActionPanicked, r)
		}
	}()
	if err := action.Run(s.ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrActionFailed, err)
	}
	return nil
}

// complete records the outcome of a finished action and wakes workers for
// every dependent that became ready. Caller must hold s.mu.
func (s *Scheduler) complete(t *task, err error) {
	s.running--
	if err != nil {
		s.finish(t, StateFailed, err)
		s.log.Warn("scheduler: task failed", "id", t.id, "err", err)
	} else {
		s.finish(t, StateCompleted, nil)
		s.log.Debug("scheduler: task completed", "id", t.id)
	}

	promoted := s.release(t)
	switch {
	case s.closing:
		// Idle draining workers wait for running to reach zero.
		s.cond.Broadcast()
	case promoted == 1:
		s.cond.Signal()
	case promoted > 1:
		s.cond.Broadcast()
	}
}

// Shutdown stops accepting new tasks, lets the workers run every task that
// is or becomes ready, and waits for all workers to exit.
// Shutdown is safe to call multiple times.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	first := !s.closing
	s.closing = true
	s.cond.Broadcast()
	s.mu.Unlock()

	if first {
		s.log.Info("scheduler: draining")
	}
	s.wg.Wait()
	s.cancel()
}

// ShutdownNow stops accepting new tasks, cancels every queued task, cancels
// the context passed to running actions and waits for the workers to exit.
// Running actions are not interrupted beyond their context.
// ShutdownNow is safe to call multiple times and after Shutdown.
func (s *Scheduler) ShutdownNow() {
	s.mu.Lock()
	if !s.abort {
		s.closing = true
		s.abort = true
		s.cancel()

		cancelled := 0
		for _, t := range s.tasks {
			if !t.state.Queued() {
				continue
			}
			s.ready.remove(t)
			s.finish(t, StateCancelled, nil)
			t.dependents = nil
			cancelled++
		}
		s.log.Info("scheduler: stopping", "cancelled", cancelled, "running", s.running)
		s.cond.Broadcast()
	}
	s.mu.Unlock()

	s.wg.Wait()
}
