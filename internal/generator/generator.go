// Package generator provides the port for the external video generation
// collaborator and the HTTP adapter for the render service.
package generator

import "context"

// ProgressSink receives progress percentages while a generation runs.
// The worker supplies a sink that persists each report to the job store,
// which is how long generation steps become observable to the poller.
type ProgressSink interface {
	Report(percent int)
}

// SinkFunc adapts a function to the ProgressSink interface.
type SinkFunc func(percent int)

// Report calls the wrapped function.
func (f SinkFunc) Report(percent int) { f(percent) }

// Input carries the full argument set for one video generation.
type Input struct {
	JobID       string
	ImageURLs   []string
	Title       string
	Description string
	LogoURL     string
	VoiceGender string
	DurationSec int
	ScriptTone  string
	MusicPath   string
	VideoTheme  string
	ShopName    string
}

// Result is the artifact of a successful generation.
type Result struct {
	// Filename is the finished video's name in the shared video directory.
	Filename string
	// Script is the narration script the service used.
	Script string
}

// Generator defines the interface for video generation providers.
// Generate blocks until the video is finished or fails, reporting
// intermediate progress through the sink. An empty Filename with a nil
// error means the provider produced no artifact.
type Generator interface {
	Generate(ctx context.Context, in Input, sink ProgressSink) (Result, error)
}
