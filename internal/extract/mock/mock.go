// Package mock implements a deterministic extractor for tests and local
// development.
package mock

import (
	"context"
	"sync"

	"github.com/alertframe/alertframe/internal/extract"
)

type Provider struct {
	mu      sync.Mutex
	results map[string]*extract.Result
	errs    map[string]error
	calls   []extract.Request
}

func New() *Provider {
	return &Provider{
		results: make(map[string]*extract.Result),
		errs:    make(map[string]error),
	}
}

// SetResult fixes the result returned for a URL.
func (p *Provider) SetResult(url string, result *extract.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results[url] = result
}

// SetError fixes the error returned for a URL.
func (p *Provider) SetError(url string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errs[url] = err
}

// Calls returns every request seen so far.
func (p *Provider) Calls() []extract.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]extract.Request, len(p.calls))
	copy(out, p.calls)
	return out
}

func (p *Provider) Extract(ctx context.Context, req extract.Request) (*extract.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls = append(p.calls, req)

	if err, ok := p.errs[req.URL]; ok {
		return nil, err
	}
	if result, ok := p.results[req.URL]; ok {
		return result, nil
	}

	// Stable default so baseline checks succeed out of the box.
	return &extract.Result{
		HTMLContent: "<div>mock content</div>",
		TextContent: "mock content",
	}, nil
}
