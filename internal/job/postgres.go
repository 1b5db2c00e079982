package job

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is the pgx-backed Repository implementation, selected
// with JOB_STORE=postgres. Expected schema:
//
//	CREATE TABLE jobs (
//	    job_id       TEXT PRIMARY KEY,
//	    status       TEXT NOT NULL,
//	    progress     INT  NOT NULL DEFAULT 0,
//	    shop_name    TEXT NOT NULL DEFAULT '',
//	    title        TEXT NOT NULL DEFAULT '',
//	    url          TEXT,
//	    filename     TEXT,
//	    caption      TEXT,
//	    error        TEXT,
//	    created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
//	    updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
//	    completed_at TIMESTAMPTZ
//	);
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// Compile-time check that PostgresRepository implements Repository.
var _ Repository = (*PostgresRepository)(nil)

// NewPostgresPool opens a pgx connection pool and verifies connectivity.
func NewPostgresPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// NewPostgresRepository creates a job repository backed by PostgreSQL.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Insert persists a new job record.
func (r *PostgresRepository) Insert(ctx context.Context, j *Job) error {
	const q = `
INSERT INTO jobs (job_id, status, progress, shop_name, title, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7);
`
	_, err := r.pool.Exec(ctx, q,
		j.JobID,
		j.Status,
		j.Progress,
		j.ShopName,
		j.Title,
		j.CreatedAt,
		j.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// FindByID fetches a job by its identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, jobID string) (*Job, error) {
	const q = `
SELECT job_id, status, progress, shop_name, title,
       COALESCE(url, ''), COALESCE(filename, ''), COALESCE(caption, ''), COALESCE(error, ''),
       created_at, updated_at, COALESCE(completed_at, 'epoch'::timestamptz)
FROM jobs
WHERE job_id = $1;
`
	var j Job
	err := r.pool.QueryRow(ctx, q, jobID).Scan(
		&j.JobID,
		&j.Status,
		&j.Progress,
		&j.ShopName,
		&j.Title,
		&j.URL,
		&j.Filename,
		&j.Caption,
		&j.Error,
		&j.CreatedAt,
		&j.UpdatedAt,
		&j.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("select job: %w", err)
	}
	return &j, nil
}

// UpdateFields patches the named columns. The status guard in the WHERE
// clause keeps terminal records immutable.
func (r *PostgresRepository) UpdateFields(ctx context.Context, jobID string, f Fields) error {
	const q = `
UPDATE jobs
SET status       = COALESCE($2, status),
    progress     = COALESCE($3, progress),
    url          = COALESCE($4, url),
    filename     = COALESCE($5, filename),
    caption      = COALESCE($6, caption),
    error        = COALESCE($7, error),
    completed_at = COALESCE($8, completed_at),
    updated_at   = now()
WHERE job_id = $1 AND status NOT IN ('done', 'failed');
`
	tag, err := r.pool.Exec(ctx, q, jobID,
		f.Status,
		f.Progress,
		f.URL,
		f.Filename,
		f.Caption,
		f.Error,
		f.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing record from a terminal one.
		if _, findErr := r.FindByID(ctx, jobID); findErr != nil {
			return findErr
		}
		return ErrTerminalState
	}
	return nil
}

// Claim moves a non-terminal job to processing with the given progress.
func (r *PostgresRepository) Claim(ctx context.Context, jobID string, progress int) (bool, error) {
	const q = `
UPDATE jobs
SET status = 'processing', progress = $2, updated_at = now()
WHERE job_id = $1 AND status NOT IN ('done', 'failed');
`
	tag, err := r.pool.Exec(ctx, q, jobID, clampProgress(progress))
	if err != nil {
		return false, fmt.Errorf("claim job: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
