package queue

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryQueue_SubmitReceive(t *testing.T) {
	q := NewMemoryQueue(10)
	ctx := context.Background()

	task := Task{JobID: "job-1", Title: "Summer Dress", DurationSec: 15}
	if err := q.Submit(ctx, task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d, err := q.Receive(ctx, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Task.JobID != "job-1" {
		t.Errorf("expected job-1, got %s", d.Task.JobID)
	}
	if d.Task.DurationSec != 15 {
		t.Errorf("expected duration 15, got %d", d.Task.DurationSec)
	}
}

func TestMemoryQueue_Receive_Empty(t *testing.T) {
	q := NewMemoryQueue(10)

	_, err := q.Receive(context.Background(), 10*time.Millisecond)
	if !errors.Is(err, ErrNoTask) {
		t.Errorf("expected ErrNoTask, got %v", err)
	}
}

func TestMemoryQueue_Receive_ContextCanceled(t *testing.T) {
	q := NewMemoryQueue(10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := q.Receive(ctx, time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestMemoryQueue_Offline(t *testing.T) {
	q := NewMemoryQueue(10)
	q.SetOffline(true)
	ctx := context.Background()

	if err := q.Ping(ctx); !errors.Is(err, ErrQueueOffline) {
		t.Errorf("expected ErrQueueOffline from Ping, got %v", err)
	}
	if err := q.Submit(ctx, Task{JobID: "job-1"}); !errors.Is(err, ErrQueueOffline) {
		t.Errorf("expected ErrQueueOffline from Submit, got %v", err)
	}

	q.SetOffline(false)
	if err := q.Ping(ctx); err != nil {
		t.Errorf("unexpected error after recovery: %v", err)
	}
}

func TestMemoryQueue_Submit_Full(t *testing.T) {
	q := NewMemoryQueue(1)
	ctx := context.Background()

	if err := q.Submit(ctx, Task{JobID: "job-1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := q.Submit(ctx, Task{JobID: "job-2"}); !errors.Is(err, ErrQueueOffline) {
		t.Errorf("expected ErrQueueOffline on full queue, got %v", err)
	}
}
