// Package scheduler runs background work for the rendering layer on a fixed
// pool of worker goroutines.
//
// Tasks carry a priority (lower values are served first) and a set of
// dependencies. A task becomes ready once every dependency has reached a
// terminal state; ready tasks are served strictly by priority, then by
// ascending [TaskID].
//
//	s := scheduler.New(scheduler.WithWorkers(4))
//	defer s.Shutdown()
//
//	decode, _ := s.Enqueue(scheduler.ActionFunc(decodeImage), 5)
//	upload, _ := s.Enqueue(scheduler.ActionFunc(uploadImage), 1, decode)
//
//	_ = s.Wait(ctx, upload)
//	st, _ := s.Status(upload)
//
// # Lifecycle
//
// Every task moves through Blocked or Ready, then Running, and ends in
// exactly one of Completed, Failed or Cancelled:
//
//	Blocked -> Ready -> Running -> Completed | Failed
//	Blocked | Ready -> Cancelled            (Cancel)
//	Blocked -> Failed                       (a dependency was cancelled)
//
// A failed action does not affect other tasks: its dependents are released
// exactly as if it had completed. Cancelling a queued task fails every task
// that transitively depends on it with [ErrDependencyCancelled].
//
// # Shutdown
//
// [Scheduler.Shutdown] drains: it refuses new work and returns once every
// task that is or becomes ready has run. [Scheduler.ShutdownNow] cancels the
// context passed to running actions, cancels everything still queued and
// returns once the running actions return. Both join all workers.
package scheduler
