package worker

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/adreel/adreel-api/internal/queue"
)

// Pool pulls tasks from the queue and fans them out to N executor
// goroutines. Each goroutine processes one task at a time to completion.
type Pool struct {
	queue       queue.Queue
	exec        *Executor
	workers     int
	receiveWait time.Duration
	logger      *slog.Logger
}

// NewPool creates a worker pool.
func NewPool(q queue.Queue, exec *Executor, workers int, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = 2
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		queue:       q,
		exec:        exec,
		workers:     workers,
		receiveWait: 5 * time.Second,
		logger:      logger,
	}
}

// Run blocks, claiming tasks and dispatching them until ctx is cancelled.
// Tasks are acked after processing either way: by then the job record
// holds a terminal or processing state, and a task lost before that point
// comes back through the stale-task requeue.
func (p *Pool) Run(ctx context.Context) {
	p.logger.Info("worker pool started", slog.Int("workers", p.workers))

	deliveries := make(chan queue.Delivery)
	var wg sync.WaitGroup

	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for d := range deliveries {
				p.handle(ctx, n, d)
			}
		}(i + 1)
	}

	for {
		select {
		case <-ctx.Done():
			close(deliveries)
			wg.Wait()
			p.logger.Info("worker pool stopped")
			return
		default:
		}

		d, err := p.queue.Receive(ctx, p.receiveWait)
		if err != nil {
			if !errors.Is(err, queue.ErrNoTask) && ctx.Err() == nil {
				p.logger.Error("receive failed", slog.String("error", err.Error()))
			}
			continue
		}

		select {
		case deliveries <- d:
		case <-ctx.Done():
			close(deliveries)
			wg.Wait()
			return
		}
	}
}

// handle runs one delivery through the executor and acks it. A panic that
// escapes the executor is recovered here so one bad task cannot take the
// whole pool down.
func (p *Pool) handle(ctx context.Context, n int, d queue.Delivery) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("worker recovered panic",
				slog.Int("worker", n),
				slog.String("job_id", d.Task.JobID),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()

	if err := p.exec.Process(ctx, d.Task); err != nil {
		p.logger.Error("process task failed",
			slog.Int("worker", n),
			slog.String("job_id", d.Task.JobID),
			slog.String("error", err.Error()),
		)
	}

	if err := p.queue.Ack(ctx, d); err != nil {
		p.logger.Error("ack failed",
			slog.Int("worker", n),
			slog.String("job_id", d.Task.JobID),
			slog.String("error", err.Error()),
		)
	}
}
