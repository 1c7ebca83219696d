package kernel

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/alertframe/alertframe/internal/extract"
)

// CredentialSource resolves the decrypted Kernel API key for an owner.
// A missing or undecryptable key is a configuration failure and surfaces
// as a plain extraction error, so the scheduler treats it like any other
// failed check.
type CredentialSource interface {
	KernelAPIKey(ctx context.Context, userID uuid.UUID) (string, error)
}

// Provider extracts elements from pages rendered by the Kernel
// managed-browser service, using the alert owner's own API key.
type Provider struct {
	client      *Client
	credentials CredentialSource
}

func NewProvider(client *Client, credentials CredentialSource) *Provider {
	return &Provider{
		client:      client,
		credentials: credentials,
	}
}

func (p *Provider) Extract(ctx context.Context, req extract.Request) (*extract.Result, error) {
	if req.UserID == uuid.Nil {
		return nil, fmt.Errorf("user id required for browser automation")
	}

	apiKey, err := p.credentials.KernelAPIKey(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("resolve kernel api key: %w", err)
	}

	html, err := p.client.Render(ctx, req.URL, apiKey)
	if err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}

	return extract.Parse(html, req.Selector)
}
