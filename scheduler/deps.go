package scheduler

import (
	"fmt"
	"slices"
)

// uniqueDeps returns deps with duplicates removed, preserving first-seen order.
func uniqueDeps(deps []TaskID) []TaskID {
	if len(deps) < 2 {
		return slices.Clone(deps)
	}
	seen := make(map[TaskID]struct{}, len(deps))
	out := make([]TaskID, 0, len(deps))
	for _, d := range deps {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}

// reaches reports whether target is reachable from any of the given ids by
// following dependency edges. Terminal tasks have no edges left.
// Caller must hold s.mu.
func (s *Scheduler) reaches(from []TaskID, target TaskID) bool {
	stack := slices.Clone(from)
	visited := make(map[TaskID]struct{}, len(from))
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == target {
			return true
		}
		if _, ok := visited[id]; ok {
			continue
		}
		visited[id] = struct{}{}
		if t, ok := s.tasks[id]; ok {
			stack = append(stack, t.deps...)
		}
	}
	return false
}

// cancelledBy reports whether a dependency in this state can never
// satisfy its dependents.
func cancelledBy(dep *task) bool {
	if dep.state == StateCancelled {
		return true
	}
	return dep.state == StateFailed && isDependencyCancelled(dep.err)
}

// finish moves t into a terminal state and wakes Wait callers.
// Caller must hold s.mu.
func (s *Scheduler) finish(t *task, state State, err error) {
	t.state = state
	t.err = err
	t.action = nil
	t.deps = nil
	s.completed++
	close(t.done)
}

// release decrements the unresolved count of every dependent of a task that
// just completed or failed, promoting dependents that reach zero.
// Returns the number of tasks pushed onto the ready queue.
// Caller must hold s.mu.
func (s *Scheduler) release(t *task) int {
	promoted := 0
	for _, dep := range t.dependents {
		if dep.state != StateBlocked {
			// Already failed through another cancelled dependency.
			continue
		}
		dep.unresolved--
		if dep.unresolved == 0 {
			s.ready.push(dep)
			promoted++
		}
	}
	t.dependents = nil
	return promoted
}

// failDependents fails every queued task that transitively depends on root.
// Caller must hold s.mu.
func (s *Scheduler) failDependents(root *task) {
	queue := root.dependents
	root.dependents = nil
	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]
		if !t.state.Queued() {
			continue
		}
		s.ready.remove(t)
		s.finish(t, StateFailed, fmt.Errorf("%w: %v was cancelled", ErrDependencyCancelled, root.id))
		s.log.Debug("scheduler: task failed, dependency cancelled", "id", t.id, "cancelled", root.id)
		queue = append(queue, t.dependents...)
		t.dependents = nil
	}
}
