// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Static errors for configuration validation.
var (
	// ErrUnknownJobStore is returned for an unrecognized JOB_STORE value.
	ErrUnknownJobStore = errors.New("config: JOB_STORE must be redis, postgres, or memory")
	// ErrPostgresDSNRequired is returned when JOB_STORE=postgres without a DSN.
	ErrPostgresDSNRequired = errors.New("config: POSTGRES_DSN is required when JOB_STORE=postgres")
	// ErrRenderServiceURLRequired is returned by the worker when no render service is configured.
	ErrRenderServiceURLRequired = errors.New("config: RENDER_SERVICE_URL is required")
)

// Job store backends.
const (
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds all configuration for both the API and worker binaries.
// It is built once at process start and passed by reference; there is no
// package-level mutable state.
type Config struct {
	// Server settings
	Port          int    `env:"PORT, default=8080" json:"port"`
	BasePublicURL string `env:"BASE_PUBLIC_URL, default=http://localhost:8080" json:"base_public_url"`
	VideoDir      string `env:"VIDEO_DIR, default=./video" json:"video_dir"`

	// CORS
	AllowedOrigins []string `env:"ALLOWED_ORIGINS, default=*" json:"allowed_origins"`

	// Queue settings
	RedisURL      string `env:"REDIS_URL, default=redis://localhost:6379" json:"-"` // May carry credentials
	QueueKey      string `env:"QUEUE_KEY, default=jobs:default" json:"queue_key"`
	ProcessingKey string `env:"PROCESSING_KEY, default=jobs:default:processing" json:"processing_key"`

	// Job store settings
	JobStore    string `env:"JOB_STORE, default=redis" json:"job_store"`
	PostgresDSN string `env:"POSTGRES_DSN" json:"-"` // Masked in JSON

	// Worker settings
	Workers         int           `env:"WORKERS, default=2" json:"workers"`
	ReceiveWait     time.Duration `env:"RECEIVE_WAIT, default=5s" json:"receive_wait"`
	RequeueInterval time.Duration `env:"REQUEUE_INTERVAL, default=15m" json:"requeue_interval"`

	// Render service (external video generation collaborator)
	RenderServiceURL string `env:"RENDER_SERVICE_URL" json:"render_service_url"`
	RenderAPIKey     string `env:"RENDER_API_KEY" json:"-"` // Masked in JSON

	// Caption service (optional; fallback captions when unset)
	CaptionServiceURL string `env:"CAPTION_SERVICE_URL" json:"caption_service_url,omitempty"`
	CaptionAPIKey     string `env:"CAPTION_API_KEY" json:"-"` // Masked in JSON

	// Optional S3 settings for publishing finished videos
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// S3Enabled returns true if S3 configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// Load reads configuration from the environment using go-envconfig,
// loading .env files first so local runs behave like deployed ones.
func Load() (*Config, error) {
	// Missing .env files are fine; the environment wins either way.
	_ = godotenv.Load(".env", ".env.local")

	cfg := &Config{}
	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings every binary needs. Worker-only requirements
// (the render service) are checked by ValidateWorker.
func (c *Config) Validate() error {
	switch c.JobStore {
	case StoreRedis, StoreMemory:
	case StorePostgres:
		if c.PostgresDSN == "" {
			return ErrPostgresDSNRequired
		}
	default:
		return ErrUnknownJobStore
	}
	return nil
}

// ValidateWorker checks the additional settings the worker binary needs.
func (c *Config) ValidateWorker() error {
	if c.RenderServiceURL == "" {
		return ErrRenderServiceURLRequired
	}
	return nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
