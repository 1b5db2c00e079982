// Package worker consumes tasks from the queue and drives video
// generation, recording every progress step in the job store.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/adreel/adreel-api/internal/caption"
	"github.com/adreel/adreel-api/internal/generator"
	"github.com/adreel/adreel-api/internal/job"
	"github.com/adreel/adreel-api/internal/queue"
	"github.com/adreel/adreel-api/internal/storage"
)

// Progress stages of a single execution. The generator's own reports are
// clamped strictly between claim and captioning.
const (
	progressClaimed    = 10
	progressCaptioning = 98
	progressMin        = progressClaimed + 1
	progressMax        = progressCaptioning - 1
)

// Executor runs one task to completion: claim the job, generate the video
// with live progress writes, caption, publish, and record the terminal
// state. Any failure is converted into a failed-state write; Process
// never lets a single job take the worker process down.
type Executor struct {
	repo     job.Repository
	gen      generator.Generator
	captions caption.Generator
	store    storage.Storage
	logger   *slog.Logger
}

// NewExecutor creates a task executor.
func NewExecutor(repo job.Repository, gen generator.Generator, captions caption.Generator, store storage.Storage, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	if captions == nil {
		captions = caption.Disabled{}
	}
	return &Executor{
		repo:     repo,
		gen:      gen,
		captions: captions,
		store:    store,
		logger:   logger,
	}
}

// Process executes a single task. The returned error reports
// infrastructure trouble (store unreachable); a failed generation is not
// an error here, it is a recorded job state.
func (e *Executor) Process(ctx context.Context, t queue.Task) error {
	start := time.Now()

	claimed, err := e.repo.Claim(ctx, t.JobID, progressClaimed)
	if err != nil {
		return fmt.Errorf("claim job %s: %w", t.JobID, err)
	}
	if !claimed {
		// Redelivered task for a job that already finished. Drop it.
		e.logger.Info("skipping task for terminal or unknown job",
			slog.String("job_id", t.JobID),
		)
		return nil
	}

	e.logger.Info("job started",
		slog.String("job_id", t.JobID),
		slog.String("shop_name", t.ShopName),
		slog.Int("images", len(t.ImageURLs)),
	)

	res, genErr := e.generate(ctx, t)
	if genErr != nil {
		e.fail(ctx, t.JobID, genErr.Error())
		e.logger.Error("job failed",
			slog.String("job_id", t.JobID),
			slog.Duration("duration", time.Since(start)),
			slog.String("error", genErr.Error()),
		)
		return nil
	}
	if res.Filename == "" {
		e.fail(ctx, t.JobID, "no file produced")
		e.logger.Error("job failed",
			slog.String("job_id", t.JobID),
			slog.Duration("duration", time.Since(start)),
			slog.String("error", "no file produced"),
		)
		return nil
	}

	e.report(ctx, t.JobID, progressCaptioning)

	smartCaption := e.captionFor(ctx, t)

	url, err := e.store.Publish(ctx, res.Filename)
	if err != nil {
		e.fail(ctx, t.JobID, fmt.Sprintf("publish video: %v", err))
		return nil
	}

	if err := e.repo.UpdateFields(ctx, t.JobID, job.SuccessFields(url, res.Filename, smartCaption)); err != nil {
		return fmt.Errorf("record success for job %s: %w", t.JobID, err)
	}

	e.logger.Info("job done",
		slog.String("job_id", t.JobID),
		slog.String("filename", res.Filename),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

// generate invokes the generation collaborator with a sink that persists
// each progress report. A panic inside the collaborator is converted to an
// error so it becomes a failed-state write, not a dead worker.
func (e *Executor) generate(ctx context.Context, t queue.Task) (res generator.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("generation panic: %v", r)
		}
	}()

	sink := generator.SinkFunc(func(percent int) {
		if percent < progressMin {
			percent = progressMin
		}
		if percent > progressMax {
			percent = progressMax
		}
		e.report(ctx, t.JobID, percent)
	})

	return e.gen.Generate(ctx, generator.Input{
		JobID:       t.JobID,
		ImageURLs:   t.ImageURLs,
		Title:       t.Title,
		Description: t.Description,
		LogoURL:     t.LogoURL,
		VoiceGender: t.VoiceGender,
		DurationSec: t.DurationSec,
		ScriptTone:  t.ScriptTone,
		MusicPath:   t.MusicPath,
		VideoTheme:  t.VideoTheme,
		ShopName:    t.ShopName,
	}, sink)
}

// captionFor asks the caption collaborator for a caption and falls back to
// the deterministic template on any failure. Captioning never fails a job.
func (e *Executor) captionFor(ctx context.Context, t queue.Task) string {
	text, err := e.captions.Caption(ctx, t.Title, t.Description)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			e.logger.Warn("caption generation failed, using fallback",
				slog.String("job_id", t.JobID),
				slog.String("error", err.Error()),
			)
		}
		return caption.Fallback(t.Title)
	}
	return text
}

// report persists a progress step. A lost write only costs observability,
// so it is logged and swallowed.
func (e *Executor) report(ctx context.Context, jobID string, percent int) {
	if err := e.repo.UpdateFields(ctx, jobID, job.ProgressFields(percent)); err != nil {
		e.logger.Warn("progress update failed",
			slog.String("job_id", jobID),
			slog.Int("progress", percent),
			slog.String("error", err.Error()),
		)
	}
}

// fail records a terminal failure. A terminal-state conflict means a
// duplicate execution already finished the job; that write is a no-op.
func (e *Executor) fail(ctx context.Context, jobID, diagnostic string) {
	if err := e.repo.UpdateFields(ctx, jobID, job.FailureFields(diagnostic)); err != nil {
		e.logger.Error("failed to record job failure",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
	}
}
