// Package eventpool provides a shared, bounded worker pool for asynchronous
// event dispatch. The pool is a long-lived process resource: create one,
// pass it to every event trigger that needs pooled dispatch, and close it
// once at shutdown.
package eventpool

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrPoolClosed is returned by Submit after the pool has been closed.
var ErrPoolClosed = errors.New("event pool is closed")

// Task is a unit of work executed by a pool worker.
type Task func()

// Pool is a bounded worker pool. A fixed number of worker goroutines drain a
// bounded task queue; Submit blocks while the queue is full. The pool is safe
// for concurrent use.
type Pool struct {
	tasks   chan Task
	closed  atomic.Bool
	closeMu sync.Mutex
	wg      sync.WaitGroup
}

// NewPool creates a pool with the given number of workers and queue capacity.
// Non-positive values are clamped to 1.
//
// Parameters:
//   - workers: Number of worker goroutines
//   - queueSize: Capacity of the pending-task queue
//
// Returns:
//   - A running Pool; call Close to stop it
func NewPool(workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}

	p := &Pool{
		tasks: make(chan Task, queueSize),
	}

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}

	return p
}

// Submit enqueues a task for execution by a worker. It blocks while the queue
// is full and returns ErrPoolClosed if the pool has been closed.
//
// Parameters:
//   - task: The work to execute; must not be nil
//
// Returns:
//   - nil on success, ErrPoolClosed if the pool is closed
func (p *Pool) Submit(task Task) error {
	if task == nil {
		return nil
	}

	if p.closed.Load() {
		return ErrPoolClosed
	}

	// The closed flag may flip between the check above and the send below;
	// Close holds closeMu while closing the channel so the send cannot race
	// with the close.
	p.closeMu.Lock()
	if p.closed.Load() {
		p.closeMu.Unlock()
		return ErrPoolClosed
	}
	p.tasks <- task
	p.closeMu.Unlock()

	return nil
}

// IsClosed reports whether the pool has been closed.
//
// Returns:
//   - true once Close has been called
func (p *Pool) IsClosed() bool {
	return p.closed.Load()
}

// Close stops the pool. Queued tasks are drained by the workers before they
// exit; Close waits for all workers to finish. Safe to call multiple times.
func (p *Pool) Close() {
	p.closeMu.Lock()
	if p.closed.Load() {
		p.closeMu.Unlock()
		return
	}
	p.closed.Store(true)
	close(p.tasks)
	p.closeMu.Unlock()

	p.wg.Wait()
}

// worker drains the task queue until the channel is closed. A panicking task
// must not take the worker down with it.
func (p *Pool) worker() {
	defer p.wg.Done()

	for task := range p.tasks {
		p.safeExecute(task)
	}
}

func (p *Pool) safeExecute(task Task) {
	defer func() {
		_ = recover()
	}()
	task()
}
