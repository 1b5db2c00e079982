package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Compile-time check that RedisQueue implements Queue.
var _ Queue = (*RedisQueue)(nil)

// RedisQueue is a reliable Redis list queue on a single named channel.
// Submit: LPUSH queueKey
// Receive: BRPOPLPUSH queueKey -> processingKey (claim)
// Ack: LREM from processingKey
// A claimed task survives a worker crash in the processing list until
// RequeueStale moves it back, giving at-least-once delivery.
type RedisQueue struct {
	rdb           *redis.Client
	queueKey      string
	processingKey string
}

// NewRedisQueue creates a Redis-backed task queue on the given keys.
func NewRedisQueue(rdb *redis.Client, queueKey, processingKey string) *RedisQueue {
	return &RedisQueue{
		rdb:           rdb,
		queueKey:      queueKey,
		processingKey: processingKey,
	}
}

// Submit enqueues a task.
func (q *RedisQueue) Submit(ctx context.Context, t Task) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("queue: marshal task: %w", err)
	}
	if err := q.rdb.LPush(ctx, q.queueKey, payload).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrQueueOffline, err)
	}
	return nil
}

// Ping reports whether the broker is reachable.
func (q *RedisQueue) Ping(ctx context.Context) error {
	if err := q.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrQueueOffline, err)
	}
	return nil
}

// Receive blocks up to wait for a task and claims it into the processing list.
func (q *RedisQueue) Receive(ctx context.Context, wait time.Duration) (Delivery, error) {
	raw, err := q.rdb.BRPopLPush(ctx, q.queueKey, q.processingKey, wait).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Delivery{}, ErrNoTask
		}
		return Delivery{}, fmt.Errorf("queue: receive: %w", err)
	}

	var t Task
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		// Undecodable payload: drop it from processing so it cannot loop forever.
		_ = q.rdb.LRem(ctx, q.processingKey, 1, raw).Err()
		return Delivery{}, fmt.Errorf("queue: decode task: %w", err)
	}

	return Delivery{Task: t, raw: raw}, nil
}

// Ack removes a claimed task from the processing list.
func (q *RedisQueue) Ack(ctx context.Context, d Delivery) error {
	if d.raw == "" {
		return nil
	}
	if err := q.rdb.LRem(ctx, q.processingKey, 1, d.raw).Err(); err != nil {
		return fmt.Errorf("queue: ack: %w", err)
	}
	return nil
}

// Len returns the number of waiting tasks.
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	n, err := q.rdb.LLen(ctx, q.queueKey).Result()
	if err != nil {
		return 0, fmt.Errorf("queue: len: %w", err)
	}
	return n, nil
}

// RequeueStale moves up to max tasks from the processing list back onto
// the queue. Tasks still being worked on get redelivered too, so the
// interval between runs must exceed the longest expected generation; the
// job store's claim and terminal-state guards make the duplicate harmless.
func (q *RedisQueue) RequeueStale(ctx context.Context, max int64) (int64, error) {
	var moved int64
	for i := int64(0); i < max; i++ {
		_, err := q.rdb.RPopLPush(ctx, q.processingKey, q.queueKey).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				break
			}
			return moved, fmt.Errorf("queue: requeue stale: %w", err)
		}
		moved++
	}
	return moved, nil
}
