package scheduler

import "errors"

// Package errors for scheduler operations.
var (
	// ErrDependencyCycle is returned by Enqueue when the declared
	// dependencies would make the new task depend on itself.
	ErrDependencyCycle = errors.New("scheduler: dependency cycle")

	// ErrUnknownDependency is returned by Enqueue when a dependency id was
	// never issued by this scheduler or has been forgotten.
	ErrUnknownDependency = errors.New("scheduler: unknown dependency")

	// ErrSchedulerClosed is returned by Enqueue once shutdown has begun.
	ErrSchedulerClosed = errors.New("scheduler: closed")

	// ErrNilAction is returned by Enqueue for a nil action.
	ErrNilAction = errors.New("scheduler: nil action")

	// ErrUnknownTask is returned by Wait for an id never issued or forgotten.
	ErrUnknownTask = errors.New("scheduler: unknown task")

	// ErrActionFailed wraps the error returned by a task action.
	// It is recorded in the task status, never returned to the enqueuer.
	ErrActionFailed = errors.New("scheduler: action failed")

	// ErrActionPanicked wraps the value recovered from a panicking action,
	// together with ErrActionFailed.
	ErrActionPanicked = errors.New("scheduler: action panicked")

	// ErrDependencyCancelled is recorded on tasks that can never run because
	// a task they depend on, directly or transitively, was cancelled.
	ErrDependencyCancelled = errors.New("scheduler: dependency cancelled")
)
