package scheduler

import (
	"context"
	"strconv"
)

// TaskID identifies a task within one Scheduler.
// Ids are issued in strictly increasing order starting at 1 and never reused.
// The zero TaskID is never issued.
type TaskID uint64

// String returns a short human-readable form, e.g. "task#12".
func (id TaskID) String() string {
	return "task#" + strconv.FormatUint(uint64(id), 10)
}

// Action is a single unit of deferred work. Run is invoked at most once.
//
// The context is cancelled when the scheduler is stopped with ShutdownNow.
// A returned error (or a panic) marks the task Failed.
type Action interface {
	Run(ctx context.Context) error
}

// ActionFunc adapts an ordinary function to the Action interface.
type ActionFunc func(ctx context.Context) error

// Run calls f(ctx).
func (f ActionFunc) Run(ctx context.Context) error { return f(ctx) }

// State is a task's position in its lifecycle.
type State int

const (
	// StateBlocked means the task is queued and waits on unfinished dependencies.
	StateBlocked State = iota

	// StateReady means the task is queued and eligible to be picked by a worker.
	StateReady

	// StateRunning means a worker is executing the task's action.
	StateRunning

	// StateCompleted means the action returned nil.
	StateCompleted

	// StateFailed means the action failed, panicked, or a dependency was cancelled.
	StateFailed

	// StateCancelled means the task was removed before it started.
	StateCancelled
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateBlocked:
		return "blocked"
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

// Queued reports whether the task has not started yet.
func (s State) Queued() bool { return s == StateBlocked || s == StateReady }

// Terminal reports whether the task reached its final state.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// Status is a snapshot of a task's state.
type Status struct {
	State State

	// Err is set for StateFailed. It wraps ErrActionFailed (and
	// ErrActionPanicked for a panic) or ErrDependencyCancelled.
	Err error
}

// task is the scheduler-owned record of one enqueued unit of work.
// All fields are guarded by Scheduler.mu.
type task struct {
	id       TaskID
	priority int
	action   Action // nil once the action has been handed to a worker or dropped

	// deps holds the ids this task still waits on (forward edges). Cleared
	// once the task is terminal, so cycle checks only walk live tasks.
	deps []TaskID

	// dependents is the reverse adjacency: tasks waiting on this one.
	dependents []*task

	// unresolved counts dependencies that have not reached a terminal state.
	unresolved int

	state State
	err   error

	// heapIndex is the position in the ready queue, -1 when not queued there.
	heapIndex int

	// done is closed when the task reaches a terminal state.
	done chan struct{}
}

func newTask(id TaskID, priority int, action Action) *task {
	return &task{
		id:        id,
		priority:  priority,
		action:    action,
		state:     StateBlocked,
		heapIndex: -1,
		done:      make(chan struct{}),
	}
}
