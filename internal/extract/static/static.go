// Package static implements extraction for server-rendered pages with a
// plain HTTP fetch. Pages that need JavaScript to produce the monitored
// element should use the kernel provider instead.
package static

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/alertframe/alertframe/internal/extract"
)

const maxBodySize = 10 << 20 // 10 MiB

type Provider struct {
	httpClient *http.Client
}

func NewProvider(timeout time.Duration) *Provider {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Provider{
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (p *Provider) Extract(ctx context.Context, req extract.Request) (*extract.Result, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("User-Agent", "AlertFrame/1.0")
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch page: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read page body: %w", err)
	}

	return extract.Parse(string(body), req.Selector)
}
