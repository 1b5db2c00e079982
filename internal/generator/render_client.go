package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Static errors for render service client operations.
var (
	// ErrBaseURLRequired is returned when the render service URL is not provided.
	ErrBaseURLRequired = errors.New("render: base URL is required")
	// ErrNoRenderIDReturned is returned when the submit response contains no render ID.
	ErrNoRenderIDReturned = errors.New("render: submit failed: no render ID returned")
	// ErrSubmitFailed is returned when the submit operation fails.
	ErrSubmitFailed = errors.New("render: submit failed")
	// ErrRequestFailed is returned when a request fails with a non-2xx status code.
	ErrRequestFailed = errors.New("render: request failed")
)

// Compile-time check that RenderClient implements Generator.
var _ Generator = (*RenderClient)(nil)

// renderRequest is the submit payload for the render service.
type renderRequest struct {
	JobID       string   `json:"job_id"`
	ImageURLs   []string `json:"image_urls"`
	Title       string   `json:"product_title"`
	Description string   `json:"product_desc"`
	LogoURL     string   `json:"logo_url,omitempty"`
	VoiceGender string   `json:"voice_gender"`
	DurationSec int      `json:"target_duration"`
	ScriptTone  string   `json:"script_tone"`
	MusicPath   string   `json:"custom_music_path,omitempty"`
	VideoTheme  string   `json:"video_theme"`
	ShopName    string   `json:"shop_name,omitempty"`
}

// renderResponse is the submit response from the render service.
type renderResponse struct {
	ID    string `json:"id"`
	Error string `json:"error,omitempty"`
}

// renderStatus is the poll response from the render service.
type renderStatus struct {
	Status   string `json:"status"` // pending | running | completed | failed
	Progress int    `json:"progress"`
	Filename string `json:"filename,omitempty"`
	Script   string `json:"script,omitempty"`
	Error    string `json:"error,omitempty"`
}

// RenderClient drives a render service over HTTP: submit the generation,
// poll its status while forwarding progress to the sink, then download the
// finished artifact into the shared video directory. Generate blocks for
// the full run, which on real renders is minutes-scale; no deadline is
// imposed beyond the caller's context.
type RenderClient struct {
	baseURL      string
	apiKey       string
	videoDir     string
	httpClient   *http.Client
	pollInterval time.Duration
}

// RenderOption is a function that configures a RenderClient.
type RenderOption func(*RenderClient)

// WithAPIKey sets the bearer token for authentication.
func WithAPIKey(key string) RenderOption {
	return func(c *RenderClient) {
		c.apiKey = key
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) RenderOption {
	return func(c *RenderClient) {
		c.httpClient = hc
	}
}

// WithPollInterval sets the delay between status polls.
func WithPollInterval(d time.Duration) RenderOption {
	return func(c *RenderClient) {
		c.pollInterval = d
	}
}

// NewRenderClient creates a render service client. Finished videos are
// downloaded into videoDir, the same directory the API serves as /static.
func NewRenderClient(baseURL, videoDir string, opts ...RenderOption) (*RenderClient, error) {
	if baseURL == "" {
		return nil, ErrBaseURLRequired
	}

	c := &RenderClient{
		baseURL:  baseURL,
		videoDir: videoDir,
		// No overall timeout: a single poll must return quickly, but the
		// run as a whole may take minutes.
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		pollInterval: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Generate submits the render, polls until a terminal status, and
// downloads the artifact. Progress reports from the service are forwarded
// to the sink as they arrive.
func (c *RenderClient) Generate(ctx context.Context, in Input, sink ProgressSink) (Result, error) {
	renderID, err := c.submit(ctx, in)
	if err != nil {
		return Result{}, err
	}

	lastProgress := -1
	for {
		st, err := c.poll(ctx, renderID)
		if err != nil {
			return Result{}, err
		}

		switch st.Status {
		case "completed":
			if st.Filename == "" {
				return Result{}, nil
			}
			if err := c.download(ctx, st.Filename); err != nil {
				return Result{}, err
			}
			return Result{Filename: st.Filename, Script: st.Script}, nil
		case "failed":
			if st.Error != "" {
				return Result{}, fmt.Errorf("render: generation failed: %s", st.Error)
			}
			return Result{}, errors.New("render: generation failed")
		default:
			if sink != nil && st.Progress > lastProgress {
				sink.Report(st.Progress)
				lastProgress = st.Progress
			}
		}

		select {
		case <-ctx.Done():
			return Result{}, fmt.Errorf("render: context cancelled: %w", ctx.Err())
		case <-time.After(c.pollInterval):
		}
	}
}

// submit sends the generation request and returns the render ID.
func (c *RenderClient) submit(ctx context.Context, in Input) (string, error) {
	body, err := json.Marshal(renderRequest{
		JobID:       in.JobID,
		ImageURLs:   in.ImageURLs,
		Title:       in.Title,
		Description: in.Description,
		LogoURL:     in.LogoURL,
		VoiceGender: in.VoiceGender,
		DurationSec: in.DurationSec,
		ScriptTone:  in.ScriptTone,
		MusicPath:   in.MusicPath,
		VideoTheme:  in.VideoTheme,
		ShopName:    in.ShopName,
	})
	if err != nil {
		return "", fmt.Errorf("render: marshal request: %w", err)
	}

	var resp renderResponse
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/render", body, &resp); err != nil {
		return "", err
	}

	if resp.ID == "" {
		if resp.Error != "" {
			return "", fmt.Errorf("%w: %s", ErrSubmitFailed, resp.Error)
		}
		return "", ErrNoRenderIDReturned
	}
	return resp.ID, nil
}

// poll fetches the current render status.
func (c *RenderClient) poll(ctx context.Context, renderID string) (renderStatus, error) {
	var st renderStatus
	url := fmt.Sprintf("%s/render/%s", c.baseURL, renderID)
	if err := c.doJSON(ctx, http.MethodGet, url, nil, &st); err != nil {
		return renderStatus{}, err
	}
	return st, nil
}

// download streams the finished artifact into the video directory.
func (c *RenderClient) download(ctx context.Context, filename string) error {
	url := fmt.Sprintf("%s/files/%s", c.baseURL, filename)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("render: create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("render: download: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w with status %d", ErrRequestFailed, resp.StatusCode)
	}

	dest := filepath.Join(c.videoDir, filepath.Base(filename))
	f, err := os.Create(dest) // #nosec G304 - filename is constrained to videoDir
	if err != nil {
		return fmt.Errorf("render: create artifact: %w", err)
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		_ = os.Remove(dest)
		return fmt.Errorf("render: write artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(dest)
		return fmt.Errorf("render: close artifact: %w", err)
	}
	return nil
}

// doJSON performs a single JSON request against the render service.
func (c *RenderClient) doJSON(ctx context.Context, method, url string, body []byte, result any) error {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("render: create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("render: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("render: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w with status %d: %s", ErrRequestFailed, resp.StatusCode, string(respBody))
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("render: unmarshal response: %w", err)
		}
	}
	return nil
}
