package mover

import (
	"sync"
)

// Queue is a mutex-protected FIFO of pending move jobs with a wake signal.
//
// The wake channel holds at most one pending signal: any number of pushes
// before the worker wakes collapse into a single wake, and the worker drains
// the queue completely on each wake, so no job is left behind.
type Queue struct {
	mu   sync.Mutex
	jobs []Job
	wake chan struct{}
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{
		wake: make(chan struct{}, 1),
	}
}

// Push appends a job and signals the worker.
func (q *Queue) Push(job Job) {
	q.mu.Lock()
	q.jobs = append(q.jobs, job)
	q.mu.Unlock()

	q.Signal()
}

// Pop removes and returns the oldest job.
// Returns false when the queue is empty.
func (q *Queue) Pop() (Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.jobs) == 0 {
		return Job{}, false
	}

	job := q.jobs[0]
	q.jobs = q.jobs[1:]
	return job, true
}

// Len returns the number of pending jobs.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// Wake returns the wake-signal channel the worker blocks on.
func (q *Queue) Wake() <-chan struct{} {
	return q.wake
}

// Signal wakes the worker without enqueuing work.
// Used by shutdown so a blocked worker notices the stop flag.
func (q *Queue) Signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}
