// Package bootstrap provides dependency initialization shared by the API
// and worker binaries.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/adreel/adreel-api/internal/config"
	"github.com/adreel/adreel-api/internal/job"
	"github.com/adreel/adreel-api/internal/queue"
	"github.com/adreel/adreel-api/internal/storage"
)

// Dependencies holds the initialized shared infrastructure: the job store,
// the task queue, the artifact storage, and the submission/status service.
type Dependencies struct {
	Storage storage.Storage
	Repo    job.Repository
	Queue   queue.Queue
	Service *job.Service

	closers []func()
}

// Close releases held connections.
func (d *Dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

// NewDependencies creates and initializes the shared dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{}

	store, err := initStorage(cfg, logger)
	if err != nil {
		return nil, err
	}
	deps.Storage = store

	rdb, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}
	deps.closers = append(deps.closers, func() { _ = rdb.Close() })
	deps.Queue = queue.NewRedisQueue(rdb, cfg.QueueKey, cfg.ProcessingKey)

	repo, err := initJobStore(ctx, cfg, rdb, deps)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.Repo = repo

	deps.Service = job.NewService(repo, deps.Queue, store, logger)
	return deps, nil
}

// newRedisClient builds the shared Redis client from REDIS_URL.
func newRedisClient(cfg *config.Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

// initJobStore creates the configured job repository backend.
func initJobStore(ctx context.Context, cfg *config.Config, rdb *redis.Client, deps *Dependencies) (job.Repository, error) {
	switch cfg.JobStore {
	case config.StorePostgres:
		pool, err := job.NewPostgresPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		deps.closers = append(deps.closers, pool.Close)
		return job.NewPostgresRepository(pool), nil
	case config.StoreMemory:
		// Single-process only; state is invisible to other processes.
		return job.NewMemoryRepository(), nil
	default:
		return job.NewRedisRepository(rdb), nil
	}
}

// initStorage creates the appropriate storage backend based on configuration.
func initStorage(cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.S3Enabled() {
		s3Cfg := storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}
		s3Store, err := storage.NewS3Storage(cfg.VideoDir, cfg.BasePublicURL, s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Info("S3 storage configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		return s3Store, nil
	}

	localStore, err := storage.NewLocalStorage(cfg.VideoDir, cfg.BasePublicURL)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}
	logger.Info("local storage configured",
		slog.String("video_dir", localStore.Dir()),
	)
	return localStore, nil
}
