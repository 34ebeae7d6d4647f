// Package parallel provides the fork-join worker pool used to run
// submission lanes concurrently.
package parallel

import (
	"errors"
	"runtime"
	"sync"
)

// ErrClosed is returned by ForEach after Close.
var ErrClosed = errors.New("parallel: pool closed")

// Pool is a fixed set of goroutines executing indexed jobs.
//
// Each worker owns a queue. Jobs are distributed round-robin and idle
// workers steal from the other queues, so one slow lane does not hold
// back the jobs queued behind it.
//
// Thread safety: Pool is safe for concurrent use.
type Pool struct {
	workers int

	// queues holds per-worker job queues.
	queues []chan func()

	// mu is read-held while a ForEach call distributes jobs and
	// write-held by Close, so no job is queued after the workers drain.
	mu     sync.RWMutex
	closed bool

	done chan struct{}
	wg   sync.WaitGroup
}

// NewPool creates a pool with the specified number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	queueSize := max(workers*4, 8)

	p := &Pool{
		workers: workers,
		queues:  make([]chan func(), workers),
		done:    make(chan struct{}),
	}
	for i := range workers {
		p.queues[i] = make(chan func(), queueSize)
	}

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	own := p.queues[id]
	for {
		select {
		case <-p.done:
			p.drain(own)
			return
		case job := <-own:
			job()
			continue
		default:
		}

		if job := p.steal(id); job != nil {
			job()
			continue
		}

		select {
		case <-p.done:
			p.drain(own)
			return
		case job := <-own:
			job()
		}
	}
}

// drain runs every job left in queue.
func (p *Pool) drain(queue chan func()) {
	for {
		select {
		case job := <-queue:
			job()
		default:
			return
		}
	}
}

// steal takes one job from another worker's queue, or returns nil.
func (p *Pool) steal(id int) func() {
	for i := range p.workers {
		if i == id {
			continue
		}
		select {
		case job := <-p.queues[i]:
			return job
		default:
		}
	}
	return nil
}

// ForEach calls fn(i) for every i in [0, n) on the pool's workers and
// returns once all calls have returned. Calls run concurrently and in no
// particular order. fn must not panic.
//
// ForEach returns ErrClosed without calling fn if the pool is closed.
func (p *Pool) ForEach(n int, fn func(i int)) error {
	if n <= 0 {
		return nil
	}

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrClosed
	}

	var joined sync.WaitGroup
	joined.Add(n)
	for i := range n {
		p.queues[i%p.workers] <- func() {
			defer joined.Done()
			fn(i)
		}
	}
	p.mu.RUnlock()

	joined.Wait()
	return nil
}

// Close stops the workers after they finish every queued job.
// Close is safe to call multiple times.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.done)
	p.mu.Unlock()

	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *Pool) Workers() int {
	return p.workers
}
