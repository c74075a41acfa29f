// internal/convo/queue.go
package convo

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// Task is one inbound-event handler invocation.
type Task func(ctx context.Context)

// Queue serializes inbound events per party key while a weighted semaphore
// caps total concurrency across keys. Each key gets its own FIFO lane so a
// single conversation never sees interleaved mutation, which the message
// store and in-flight request rely on.
type Queue struct {
	lanes  map[string]chan Task
	sem    *semaphore.Weighted
	active atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewQueue creates a Queue allowing up to maxConcurrent tasks to execute
// simultaneously across all lanes.
func NewQueue(maxConcurrent int64) *Queue {
	if maxConcurrent <= 0 {
		maxConcurrent = 2
	}
	return &Queue{
		lanes: make(map[string]chan Task),
		sem:   semaphore.NewWeighted(maxConcurrent),
	}
}

// Start initialises the queue's context. Must be called before Enqueue.
func (q *Queue) Start(ctx context.Context) {
	q.ctx, q.cancel = context.WithCancel(ctx)
}

// Stop cancels the queue context, closes all lanes, and waits for
// in-flight tasks to finish.
func (q *Queue) Stop() {
	if q.cancel != nil {
		q.cancel()
	}
	q.mu.Lock()
	for _, lane := range q.lanes {
		close(lane)
	}
	q.lanes = make(map[string]chan Task)
	q.mu.Unlock()
	q.wg.Wait()
}

// Enqueue adds a task to the key's lane, creating the lane (and its
// goroutine) on first use. Returns an error if the lane's buffer is full.
func (q *Queue) Enqueue(key string, fn Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	lane, exists := q.lanes[key]
	if !exists {
		lane = make(chan Task, 100)
		q.lanes[key] = lane
		q.wg.Add(1)
		go q.processLane(lane)
	}

	select {
	case lane <- fn:
		return nil
	default:
		return fmt.Errorf("queue full for party %s", key)
	}
}

// processLane drains a single lane, acquiring a semaphore slot before
// running each task synchronously. Strict FIFO within a key; the
// semaphore limits cross-key parallelism.
func (q *Queue) processLane(lane chan Task) {
	defer q.wg.Done()
	for {
		select {
		case fn, ok := <-lane:
			if !ok {
				return
			}
			if err := q.sem.Acquire(q.ctx, 1); err != nil {
				return
			}
			q.active.Add(1)
			fn(q.ctx)
			q.active.Add(-1)
			q.sem.Release(1)
		case <-q.ctx.Done():
			return
		}
	}
}

// WaitIdle blocks until no tasks are actively executing, or the timeout
// expires. Returns true if idle, false if timed out.
func (q *Queue) WaitIdle(timeout time.Duration) bool {
	deadline := time.After(timeout)
	for {
		if q.active.Load() == 0 {
			return true
		}
		select {
		case <-deadline:
			return false
		case <-time.After(10 * time.Millisecond):
		}
	}
}
