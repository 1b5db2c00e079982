// Package main provides the entry point for the adreel worker: it pulls
// tasks from the queue and drives video generation to completion.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adreel/adreel-api/internal/bootstrap"
	"github.com/adreel/adreel-api/internal/caption"
	"github.com/adreel/adreel-api/internal/config"
	"github.com/adreel/adreel-api/internal/generator"
	"github.com/adreel/adreel-api/internal/queue"
	"github.com/adreel/adreel-api/internal/worker"
)

// brokerRetryDelay is how long to wait before retrying a dead broker at startup.
const brokerRetryDelay = 5 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateWorker(); err != nil {
		return err
	}

	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting adreel worker",
		slog.Int("workers", cfg.Workers),
		slog.String("queue_key", cfg.QueueKey),
		slog.String("job_store", cfg.JobStore),
		slog.String("render_service_url", cfg.RenderServiceURL),
		slog.Bool("caption_enabled", cfg.CaptionServiceURL != ""),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := bootstrap.NewDependencies(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize dependencies: %w", err)
	}
	defer deps.Close()

	// Wait out a dead broker instead of crash-looping at boot.
	if err := waitForBroker(ctx, deps.Queue, logger); err != nil {
		return err
	}
	logQueuedBacklog(ctx, deps.Queue, logger)

	gen, err := generator.NewRenderClient(
		cfg.RenderServiceURL,
		deps.Storage.Dir(),
		generator.WithAPIKey(cfg.RenderAPIKey),
	)
	if err != nil {
		return fmt.Errorf("create render client: %w", err)
	}

	captions, err := newCaptioner(cfg)
	if err != nil {
		return fmt.Errorf("create caption client: %w", err)
	}

	exec := worker.NewExecutor(deps.Repo, gen, captions, deps.Storage, logger)
	pool := worker.NewPool(deps.Queue, exec, cfg.Workers, logger)

	// Reaper: periodically return claimed-but-unacked tasks to the queue
	// so tasks lost to worker crashes get redelivered.
	go runReaper(ctx, deps.Queue, cfg.RequeueInterval, logger)

	pool.Run(ctx)

	logger.Info("worker stopped")
	return nil
}

// waitForBroker pings the queue until it answers or the context ends.
func waitForBroker(ctx context.Context, q queue.Queue, logger *slog.Logger) error {
	for {
		if err := q.Ping(ctx); err == nil {
			logger.Info("connected to broker")
			return nil
		} else {
			logger.Warn("broker not reachable, retrying",
				slog.Duration("retry_in", brokerRetryDelay),
				slog.String("error", err.Error()),
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(brokerRetryDelay):
		}
	}
}

// logQueuedBacklog reports tasks left over from previous runs.
func logQueuedBacklog(ctx context.Context, q queue.Queue, logger *slog.Logger) {
	rq, ok := q.(*queue.RedisQueue)
	if !ok {
		return
	}
	n, err := rq.Len(ctx)
	if err != nil || n == 0 {
		return
	}
	logger.Info("found waiting tasks from previous runs", slog.Int64("count", n))
}

// newCaptioner builds the caption client, or the disabled stand-in whose
// failures route every job to the fallback caption.
func newCaptioner(cfg *config.Config) (caption.Generator, error) {
	if cfg.CaptionServiceURL == "" {
		return caption.Disabled{}, nil
	}
	return caption.NewHTTPClient(cfg.CaptionServiceURL, caption.WithAPIKey(cfg.CaptionAPIKey))
}

// runReaper requeues stale claimed tasks on a ticker.
func runReaper(ctx context.Context, q queue.Queue, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := q.RequeueStale(ctx, 100)
			if err != nil {
				logger.Error("requeue stale tasks failed", slog.String("error", err.Error()))
				continue
			}
			if n > 0 {
				logger.Info("requeued stale tasks", slog.Int64("count", n))
			}
		}
	}
}
