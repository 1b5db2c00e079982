package queue

import (
	"context"
	"time"
)

// Compile-time check that MemoryQueue implements Queue.
var _ Queue = (*MemoryQueue)(nil)

// MemoryQueue is a channel-backed Queue for tests and single-process runs.
// It offers no durability: a task handed to a crashing consumer is gone.
type MemoryQueue struct {
	tasks chan Task
	down  bool
}

// NewMemoryQueue creates an in-memory queue with the given buffer size.
func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = 100
	}
	return &MemoryQueue{tasks: make(chan Task, size)}
}

// SetOffline toggles simulated broker unavailability.
func (q *MemoryQueue) SetOffline(offline bool) {
	q.down = offline
}

// Submit enqueues a task.
func (q *MemoryQueue) Submit(_ context.Context, t Task) error {
	if q.down {
		return ErrQueueOffline
	}
	select {
	case q.tasks <- t:
		return nil
	default:
		return ErrQueueOffline
	}
}

// Ping reports simulated broker health.
func (q *MemoryQueue) Ping(_ context.Context) error {
	if q.down {
		return ErrQueueOffline
	}
	return nil
}

// Receive waits up to wait for a task.
func (q *MemoryQueue) Receive(ctx context.Context, wait time.Duration) (Delivery, error) {
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case t := <-q.tasks:
		return Delivery{Task: t}, nil
	case <-timer.C:
		return Delivery{}, ErrNoTask
	case <-ctx.Done():
		return Delivery{}, ctx.Err()
	}
}

// Ack is a no-op: channel receives are already consuming.
func (q *MemoryQueue) Ack(_ context.Context, _ Delivery) error {
	return nil
}

// RequeueStale is a no-op for the in-memory queue.
func (q *MemoryQueue) RequeueStale(_ context.Context, _ int64) (int64, error) {
	return 0, nil
}
