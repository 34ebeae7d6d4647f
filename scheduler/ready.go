package scheduler

import "container/heap"

// readyQueue orders ready tasks by priority, then by id.
// It implements heap.Interface; use push/pop/remove instead of the
// interface methods.
type readyQueue []*task

func (q readyQueue) Len() int { return len(q) }

func (q readyQueue) Less(i, j int) bool {
	if q[i].priority != q[j].priority {
		return q[i].priority < q[j].priority
	}
	return q[i].id < q[j].id
}

func (q readyQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].heapIndex = i
	q[j].heapIndex = j
}

func (q *readyQueue) Push(x any) {
	t := x.(*task)
	t.heapIndex = len(*q)
	*q = append(*q, t)
}

func (q *readyQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.heapIndex = -1
	*q = old[:n-1]
	return t
}

// push marks t ready and inserts it.
func (q *readyQueue) push(t *task) {
	t.state = StateReady
	heap.Push(q, t)
}

// pop removes and returns the most urgent task, or nil if empty.
func (q *readyQueue) pop() *task {
	if q.Len() == 0 {
		return nil
	}
	return heap.Pop(q).(*task)
}

// remove takes t out of the queue if it is in it.
func (q *readyQueue) remove(t *task) {
	if t.heapIndex < 0 || t.heapIndex >= q.Len() || (*q)[t.heapIndex] != t {
		return
	}
	heap.Remove(q, t.heapIndex)
}
