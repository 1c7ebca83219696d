package user

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/alertframe/alertframe/internal/domain"
	"github.com/alertframe/alertframe/internal/secrets"
)

// Credentials resolves per-user secrets for outbound integrations,
// decrypting stored values on demand.
type Credentials struct {
	repo *Repository
	box  *secrets.Box
}

func NewCredentials(repo *Repository, box *secrets.Box) *Credentials {
	return &Credentials{repo: repo, box: box}
}

// KernelAPIKey returns the user's browser automation API key in plaintext.
func (c *Credentials) KernelAPIKey(ctx context.Context, userID uuid.UUID) (string, error) {
	u, err := c.repo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}

	if u.KernelAPIKey == nil || *u.KernelAPIKey == "" {
		return "", domain.ErrKernelKeyMissing
	}

	key, err := c.box.Decrypt(*u.KernelAPIKey)
	if err != nil {
		return "", fmt.Errorf("decrypt kernel api key: %w", err)
	}

	return key, nil
}
