package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/adreel/adreel-api/internal/job/id"
	"github.com/adreel/adreel-api/internal/queue"
)

// ErrQueueOffline is returned by Submit when the task queue cannot be
// reached. No permanently-queued job record is left behind in that case.
var ErrQueueOffline = errors.New("queue offline")

// TaskQueue is the narrow queue port the producer needs.
type TaskQueue interface {
	Submit(ctx context.Context, t queue.Task) error
	Ping(ctx context.Context) error
}

// UploadStore persists producer-supplied media to a path workers can read.
type UploadStore interface {
	SaveUpload(ctx context.Context, name string, data io.Reader) (string, error)
}

// SubmitInput carries a validated generation request into the producer.
type SubmitInput struct {
	// ImageURLs is the client-serialized JSON array of image URLs.
	// A malformed value degrades to an empty list; it never fails the job.
	ImageURLs   string
	Title       string
	Description string
	LogoURL     string
	VoiceGender string
	DurationSec int
	ScriptTone  string
	VideoTheme  string
	ShopName    string
	// Music is the optional uploaded background track.
	Music io.Reader
}

// StatusView is the poller's read-only projection of a job record.
type StatusView struct {
	Status   Status
	Progress int
	URL      string
	Error    string
}

// Service implements the producer and poller sides of the pipeline: it
// accepts submissions, persists the initial record, enqueues the task, and
// answers status lookups. It never blocks on generation.
type Service struct {
	repo    Repository
	queue   TaskQueue
	uploads UploadStore
	logger  *slog.Logger
}

// NewService creates the submission/status service.
func NewService(repo Repository, q TaskQueue, uploads UploadStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:    repo,
		queue:   q,
		uploads: uploads,
		logger:  logger,
	}
}

// Submit validates queue liveness, persists a queued job record, and
// enqueues the matching task. It returns the job ID immediately; video
// generation happens in the worker processes.
//
// The record is inserted before the task is enqueued, so no reader ever
// observes a task with no record. If the enqueue itself fails after the
// insert, the record is marked failed rather than left stuck at queued.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (string, error) {
	// A dead broker fails the submission up front, before any record exists.
	if err := s.queue.Ping(ctx); err != nil {
		s.logger.Error("queue liveness check failed",
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("%w: %v", ErrQueueOffline, err)
	}

	jobID := id.Generate()
	imageURLs := s.parseImageURLs(jobID, in.ImageURLs)

	musicPath := ""
	if in.Music != nil {
		path, err := s.uploads.SaveUpload(ctx, "bgm_"+jobID+".mp3", in.Music)
		if err != nil {
			return "", fmt.Errorf("save uploaded music: %w", err)
		}
		musicPath = path
	}

	if err := s.repo.Insert(ctx, New(jobID, in.ShopName, in.Title)); err != nil {
		return "", fmt.Errorf("insert job: %w", err)
	}

	task := queue.Task{
		JobID:       jobID,
		ImageURLs:   imageURLs,
		Title:       in.Title,
		Description: in.Description,
		LogoURL:     in.LogoURL,
		VoiceGender: in.VoiceGender,
		DurationSec: in.DurationSec,
		ScriptTone:  in.ScriptTone,
		MusicPath:   musicPath,
		VideoTheme:  in.VideoTheme,
		ShopName:    in.ShopName,
	}

	if err := s.queue.Submit(ctx, task); err != nil {
		s.logger.Error("enqueue failed",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		// The record already exists; fail it so the poller never reports a
		// permanently stuck queued job.
		if updErr := s.repo.UpdateFields(ctx, jobID, FailureFields("queue offline")); updErr != nil {
			s.logger.Error("failed to mark orphaned job failed",
				slog.String("job_id", jobID),
				slog.String("error", updErr.Error()),
			)
		}
		return "", fmt.Errorf("%w: %v", ErrQueueOffline, err)
	}

	s.logger.Info("job queued",
		slog.String("job_id", jobID),
		slog.String("shop_name", in.ShopName),
		slog.Int("images", len(imageURLs)),
	)
	return jobID, nil
}

// Status returns the poller view for a job ID. Unknown IDs yield a
// not_found view instead of an error so callers can distinguish "never
// existed" from "exists but failed".
func (s *Service) Status(ctx context.Context, jobID string) (StatusView, error) {
	j, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, ErrJobNotFound) {
			return StatusView{Status: StatusNotFound}, nil
		}
		return StatusView{}, fmt.Errorf("find job: %w", err)
	}
	return StatusView{
		Status:   j.Status,
		Progress: j.Progress,
		URL:      j.URL,
		Error:    j.Error,
	}, nil
}

// parseImageURLs decodes the client-serialized image list. Malformed input
// degrades to an empty list; the job still proceeds.
func (s *Service) parseImageURLs(jobID, raw string) []string {
	if raw == "" {
		return nil
	}
	var urls []string
	if err := json.Unmarshal([]byte(raw), &urls); err != nil {
		s.logger.Warn("failed to parse image URLs, continuing with empty list",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return urls
}
