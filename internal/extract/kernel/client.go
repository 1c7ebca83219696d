package kernel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Config holds the configuration for the Kernel rendering client
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	RetryCount int
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		BaseURL:    "https://api.onkernel.com",
		Timeout:    30 * time.Second,
		RetryCount: 2,
	}
}

// Client talks to the managed-browser rendering API. The service loads a
// page in a real browser, waits for the network to settle and returns the
// rendered document.
type Client struct {
	httpClient *http.Client
	config     Config
}

func NewClient(config Config) *Client {
	if config.Timeout == 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: config.Timeout},
		config:     config,
	}
}

type renderRequest struct {
	URL      string `json:"url"`
	WaitFor  string `json:"wait_for"`
	Viewport struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"viewport"`
}

type renderResponse struct {
	HTML  string `json:"html"`
	Error string `json:"error,omitempty"`
}

const maxBackoff = 30 * time.Second

func calculateBackoff(attempt int) time.Duration {
	if attempt <= 0 {
		return time.Second
	}
	seconds := 1
	for i := 1; i < attempt && i < 6; i++ {
		seconds *= 2
	}
	return time.Duration(seconds) * time.Second
}

// Render loads url in a managed browser using the caller's API key and
// returns the rendered HTML.
func (c *Client) Render(ctx context.Context, url, apiKey string) (string, error) {
	req := renderRequest{URL: url, WaitFor: "networkidle"}
	req.Viewport.Width = 1280
	req.Viewport.Height = 800

	var lastErr error
	for attempt := 0; attempt <= c.config.RetryCount; attempt++ {
		if attempt > 0 {
			backoff := calculateBackoff(attempt)
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		html, err := c.doRender(ctx, req, apiKey)
		if err == nil {
			return html, nil
		}
		lastErr = err
	}

	return "", fmt.Errorf("render after %d attempts: %w", c.config.RetryCount+1, lastErr)
}

func (c *Client) doRender(ctx context.Context, req renderRequest, apiKey string) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/v1/render", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	httpReq.Header.Set("User-Agent", "AlertFrame/1.0")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("render request: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("render failed: HTTP %d: %s", resp.StatusCode, string(data))
	}

	var rendered renderResponse
	if err := json.NewDecoder(resp.Body).Decode(&rendered); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if rendered.Error != "" {
		return "", fmt.Errorf("render failed: %s", rendered.Error)
	}

	return rendered.HTML, nil
}
