package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/frameflow/internal/logging"
)

// Scheduler executes tasks on a fixed worker pool, ordered by priority and
// gated by dependencies.
//
// A single mutex guards the ready queue and the dependency index, so a task
// becoming ready and a worker popping it can never lose an update.
//
// Terminal task records are kept so Status and Wait keep answering for
// them. Callers that enqueue work every frame release records they no
// longer query with Forget.
//
// Thread safety: Scheduler is safe for concurrent use.
type Scheduler struct {
	mu   sync.Mutex
	cond *sync.Cond

	tasks  map[TaskID]*task
	ready  readyQueue
	nextID TaskID

	total     int
	completed int
	running   int

	// closing refuses new enqueues; workers drain the ready queue and exit.
	closing bool
	// abort makes workers exit without picking further tasks.
	abort bool

	// ctx is passed to every action and cancelled by ShutdownNow.
	ctx    context.Context
	cancel context.CancelFunc

	workers int
	wg      sync.WaitGroup
	log     *slog.Logger
}

// New creates a scheduler and starts its workers.
func New(opts ...Option) *Scheduler {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		tasks:  make(map[TaskID]*task),
		nextID: 1,
		ctx:    ctx,
		cancel: cancel,
		log:    logging.Or(o.logger),
	}
	s.cond = sync.NewCond(&s.mu)
	s.startWorkers(o.workers)
	return s
}

// Enqueue registers action with the given priority and dependencies and
// returns its id. It never waits for work to run.
//
// A rejected call leaves the scheduler unchanged and consumes no id.
// Dependencies that already completed or failed count as satisfied. If a
// dependency was cancelled, the task is accepted but immediately recorded
// as failed with ErrDependencyCancelled.
func (s *Scheduler) Enqueue(action Action, priority int, deps ...TaskID) (TaskID, error) {
	if action == nil {
		return 0, ErrNilAction
	}
	deps = uniqueDeps(deps)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closing {
		return 0, ErrSchedulerClosed
	}

	id := s.nextID
	if s.reaches(deps, id) {
		return 0, fmt.Errorf("%w: %v", ErrDependencyCycle, id)
	}
	var cancelledDep *task
	for _, d := range deps {
		dt, ok := s.tasks[d]
		if !ok {
			return 0, fmt.Errorf("%w: %v", ErrUnknownDependency, d)
		}
		if cancelledDep == nil && cancelledBy(dt) {
			cancelledDep = dt
		}
	}

	s.nextID++
	t := newTask(id, priority, action)
	s.tasks[id] = t
	s.total++

	if cancelledDep != nil {
		s.finish(t, StateFailed, fmt.Errorf("%w: %v was cancelled", ErrDependencyCancelled, cancelledDep.id))
		s.log.Debug("scheduler: task failed on enqueue, dependency cancelled",
			"id", id, "cancelled", cancelledDep.id)
		return id, nil
	}

	for _, d := range deps {
		dt := s.tasks[d]
		if dt.state.Terminal() {
			continue
		}
		t.deps = append(t.deps, d)
		t.unresolved++
		dt.dependents = append(dt.dependents, t)
	}

	if t.unresolved == 0 {
		s.ready.push(t)
		s.cond.Signal()
	}
	s.log.Debug("scheduler: task enqueued",
		"id", id, "priority", priority, "deps", len(deps), "state", t.state)
	return id, nil
}

// Cancel removes a task that has not started yet. It returns false if the id
// is unknown, already running, or terminal (including previously cancelled).
//
// Every queued task that depends on the cancelled one, directly or
// transitively, is marked failed with ErrDependencyCancelled.
func (s *Scheduler) Cancel(id TaskID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok || !t.state.Queued() {
		return false
	}
	s.ready.remove(t)
	s.finish(t, StateCancelled, nil)
	s.log.Debug("scheduler: task cancelled", "id", id)
	s.failDependents(t)
	return true
}

// Progress returns the number of tasks in a terminal state and the number of
// tasks ever accepted. Both are monotonic and completed <= total.
func (s *Scheduler) Progress() (completed, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed, s.total
}

// Status returns a snapshot of the task's state.
// The second result is false for ids this scheduler never issued.
func (s *Scheduler) Status(id TaskID) (Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return Status{}, false
	}
	return Status{State: t.state, Err: t.err}, true
}

// Wait blocks until every listed task reaches a terminal state or ctx is
// done. It does not report task failures; use Status for that.
func (s *Scheduler) Wait(ctx context.Context, ids ...TaskID) error {
	done := make([]chan struct{}, 0, len(ids))
	s.mu.Lock()
	for _, id := range ids {
		t, ok := s.tasks[id]
		if !ok {
			s.mu.Unlock()
			return fmt.Errorf("%w: %v", ErrUnknownTask, id)
		}
		done = append(done, t.done)
	}
	s.mu.Unlock()

	for _, ch := range done {
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Forget drops the records of terminal tasks and returns how many were
// removed. Unknown and unfinished ids are skipped. A forgotten id behaves
// like one never issued: Status reports false, Wait returns ErrUnknownTask
// and Enqueue rejects it as a dependency. Progress is unaffected.
func (s *Scheduler) Forget(ids ...TaskID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, id := range ids {
		t, ok := s.tasks[id]
		if !ok || !t.state.Terminal() {
			continue
		}
		delete(s.tasks, id)
		removed++
	}
	return removed
}

// Retained returns the number of task records currently held.
func (s *Scheduler) Retained() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Workers returns the number of worker goroutines.
func (s *Scheduler) Workers() int {
	return s.workers
}

func isDependencyCancelled(err error) bool {
	return errors.Is(err, ErrDependencyCancelled)
}
