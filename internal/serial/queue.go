// Package serial provides a FIFO task queue drained by a single goroutine.
//
// Every task submitted to one Queue runs on the same worker goroutine, one
// at a time, in submission order. Submission never blocks on the queue's
// backlog: the pending list grows as needed.
package serial

import "sync"

// Queue is an unbounded serial executor. The zero value is not usable; call New.
type Queue struct {
	mu     sync.Mutex
	tasks  []func()
	closed bool

	wake chan struct{} // capacity 1; a pending token means "look again"
	done chan struct{} // closed when the worker exits
}

// New starts the worker goroutine and returns the queue.
func New() *Queue {
	q := &Queue{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go q.run()
	return q
}

// Async enqueues fn and returns immediately. It reports false, without
// running fn, once the queue has been closed.
func (q *Queue) Async(fn func()) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.tasks = append(q.tasks, fn)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return true
}

// Sync enqueues fn and blocks until it has run on the worker. It reports
// false, without running fn, once the queue has been closed.
// Calling Sync from inside a task on the same queue deadlocks.
func (q *Queue) Sync(fn func()) bool {
	finished := make(chan struct{})
	if !q.Async(func() {
		defer close(finished)
		fn()
	}) {
		return false
	}
	<-finished
	return true
}

// Close stops accepting new tasks. Tasks already queued still run.
// Close is idempotent and does not wait; use Wait for that.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Wait blocks until the queue is closed and drained.
func (q *Queue) Wait() { <-q.done }

// Len returns the number of tasks waiting to run.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

func (q *Queue) run() {
	defer close(q.done)
	for {
		q.mu.Lock()
		if len(q.tasks) == 0 {
			closed := q.closed
			q.mu.Unlock()
			if closed {
				return
			}
			<-q.wake
			continue
		}
		fn := q.tasks[0]
		q.tasks[0] = nil
		q.tasks = q.tasks[1:]
		q.mu.Unlock()

		fn()
	}
}
