package caption

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Compile-time check that HTTPClient implements Generator.
var _ Generator = (*HTTPClient)(nil)

// captionRequest is the payload sent to the caption service.
type captionRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// captionResponse is the caption service response.
type captionResponse struct {
	Caption string `json:"caption"`
	Error   string `json:"error,omitempty"`
}

// HTTPClient asks an LLM-backed caption service for a short viral caption.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// ClientOption is a function that configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithAPIKey sets the bearer token for authentication.
func WithAPIKey(key string) ClientOption {
	return func(c *HTTPClient) {
		c.apiKey = key
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.httpClient = hc
	}
}

// NewHTTPClient creates a caption service client.
func NewHTTPClient(baseURL string, opts ...ClientOption) (*HTTPClient, error) {
	if baseURL == "" {
		return nil, ErrNotConfigured
	}
	c := &HTTPClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Caption requests a caption for the given product.
func (c *HTTPClient) Caption(ctx context.Context, title, description string) (string, error) {
	body, err := json.Marshal(captionRequest{Title: title, Description: description})
	if err != nil {
		return "", fmt.Errorf("caption: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/caption", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("caption: create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("caption: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("caption: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("caption: request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var out captionResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("caption: unmarshal response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("caption: service error: %s", out.Error)
	}

	caption := strings.TrimSpace(out.Caption)
	if caption == "" {
		return "", fmt.Errorf("caption: empty caption returned")
	}
	return caption, nil
}
