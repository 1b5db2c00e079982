// Package queue provides the durable task channel between the API process
// and the worker processes. Delivery is at-least-once: a task claimed by a
// crashing worker is eventually requeued, and consumers must tolerate
// seeing the same job twice.
package queue

import (
	"context"
	"errors"
	"time"
)

// Static errors for queue operations.
var (
	// ErrNoTask is returned by Receive when no task arrived within the wait window.
	ErrNoTask = errors.New("queue: no task available")
	// ErrQueueOffline is returned when the broker cannot be reached.
	ErrQueueOffline = errors.New("queue: broker offline")
)

// Task is the queue message carrying a job's full argument set to a worker.
// It has no identity beyond its embedded job ID; the job record is the
// durable source of truth.
type Task struct {
	JobID       string   `json:"job_id"`
	ImageURLs   []string `json:"image_urls"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	LogoURL     string   `json:"logo_url,omitempty"`
	VoiceGender string   `json:"voice_gender"`
	DurationSec int      `json:"duration_sec"`
	ScriptTone  string   `json:"script_tone"`
	MusicPath   string   `json:"music_path,omitempty"`
	VideoTheme  string   `json:"video_theme"`
	ShopName    string   `json:"shop_name"`
}

// Delivery is a claimed task together with the raw payload needed to ack it.
type Delivery struct {
	Task Task
	raw  string
}

// Queue is the work-distribution port. Submit and Ping serve the producer;
// Receive, Ack, and RequeueStale serve the worker side.
type Queue interface {
	// Submit enqueues a task on the default channel.
	Submit(ctx context.Context, t Task) error

	// Ping reports whether the broker is reachable. The producer calls it
	// before inserting a job record so a dead broker never strands a
	// permanently-queued job.
	Ping(ctx context.Context) error

	// Receive blocks up to wait for a task, claiming it into the
	// processing list. Returns ErrNoTask when the wait window elapses.
	Receive(ctx context.Context, wait time.Duration) (Delivery, error)

	// Ack removes a claimed task from the processing list.
	Ack(ctx context.Context, d Delivery) error

	// RequeueStale moves up to max claimed-but-unacked tasks back onto the
	// queue. Run periodically, it recovers tasks lost to worker crashes.
	RequeueStale(ctx context.Context, max int64) (int64, error)
}
