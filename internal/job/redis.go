package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// jobKeyPrefix namespaces job documents in Redis.
const jobKeyPrefix = "job:"

// txRetries bounds optimistic-lock retries on concurrent writes.
const txRetries = 5

// Compile-time check that RedisRepository implements Repository.
var _ Repository = (*RedisRepository)(nil)

// RedisRepository stores each job as a JSON document under job:<id>.
// Writes go through WATCH/MULTI so patches and claims stay atomic even
// when the API process and several workers hit the same record.
type RedisRepository struct {
	rdb *redis.Client
}

// NewRedisRepository creates a Redis-backed job repository.
func NewRedisRepository(rdb *redis.Client) *RedisRepository {
	return &RedisRepository{rdb: rdb}
}

func jobKey(jobID string) string {
	return jobKeyPrefix + jobID
}

// Insert persists a new job record.
func (r *RedisRepository) Insert(ctx context.Context, j *Job) error {
	data, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := r.rdb.Set(ctx, jobKey(j.JobID), data, 0).Err(); err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// FindByID retrieves a job by its ID.
func (r *RedisRepository) FindByID(ctx context.Context, jobID string) (*Job, error) {
	data, err := r.rdb.Get(ctx, jobKey(jobID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	var j Job
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("unmarshal job: %w", err)
	}
	return &j, nil
}

// UpdateFields patches the stored document inside a WATCH transaction.
func (r *RedisRepository) UpdateFields(ctx context.Context, jobID string, f Fields) error {
	return r.mutate(ctx, jobID, func(j *Job) error {
		return f.apply(j)
	})
}

// Claim moves a non-terminal job to processing with the given progress.
func (r *RedisRepository) Claim(ctx context.Context, jobID string, progress int) (bool, error) {
	claimed := false
	err := r.mutate(ctx, jobID, func(j *Job) error {
		if j.IsTerminal() {
			return ErrTerminalState
		}
		if err := ProgressFields(progress).apply(j); err != nil {
			return err
		}
		claimed = true
		return nil
	})
	if errors.Is(err, ErrTerminalState) || errors.Is(err, ErrJobNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return claimed, nil
}

// mutate runs a read-modify-write on a job document under WATCH, retrying
// when a concurrent writer invalidates the transaction.
func (r *RedisRepository) mutate(ctx context.Context, jobID string, fn func(*Job) error) error {
	key := jobKey(jobID)

	txn := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrJobNotFound
			}
			return fmt.Errorf("get job: %w", err)
		}

		var j Job
		if err := json.Unmarshal(data, &j); err != nil {
			return fmt.Errorf("unmarshal job: %w", err)
		}

		if err := fn(&j); err != nil {
			return err
		}

		updated, err := json.Marshal(&j)
		if err != nil {
			return fmt.Errorf("marshal job: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, 0)
			return nil
		})
		return err
	}

	for i := 0; i < txRetries; i++ {
		err := r.rdb.Watch(ctx, txn, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("update job %s: too many write conflicts", jobID)
}
