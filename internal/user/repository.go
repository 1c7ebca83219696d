package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/alertframe/alertframe/internal/database"
	"github.com/alertframe/alertframe/internal/domain"
)

const userColumns = `id, email, name, kernel_api_key, gmail_connected, gmail_email,
		gmail_access_token, gmail_refresh_token, gmail_token_expiry, created_at, updated_at`

type Repository struct {
	pool database.PgxPool
}

func NewRepository(pool database.PgxPool) *Repository {
	return &Repository{pool: pool}
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.KernelAPIKey,
		&u.GmailConnected,
		&u.GmailEmail,
		&u.GmailAccessToken,
		&u.GmailRefreshToken,
		&u.GmailTokenExpiry,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
	`

	u, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	return u, nil
}

// SaveKernelKey stores the already-encrypted browser automation API key.
// Passing nil clears the key.
func (r *Repository) SaveKernelKey(ctx context.Context, id uuid.UUID, encryptedKey *string) error {
	query := `
		UPDATE users
		SET kernel_api_key = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, encryptedKey)
	if err != nil {
		return fmt.Errorf("save kernel key: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}

// SaveGmailTokens stores encrypted OAuth tokens and marks the account
// connected. The sender calls it again after each token refresh.
func (r *Repository) SaveGmailTokens(ctx context.Context, id uuid.UUID, gmailEmail string, encryptedAccess, encryptedRefresh string, expiry time.Time) error {
	query := `
		UPDATE users
		SET gmail_connected = true,
			gmail_email = $2,
			gmail_access_token = $3,
			gmail_refresh_token = $4,
			gmail_token_expiry = $5,
			updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, gmailEmail, encryptedAccess, encryptedRefresh, expiry)
	if err != nil {
		return fmt.Errorf("save gmail tokens: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}

// Delete removes the user and, through foreign keys, every alert,
// snapshot and change they own.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		DELETE FROM users
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}

func (r *Repository) DisconnectGmail(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE users
		SET gmail_connected = false,
			gmail_email = NULL,
			gmail_access_token = NULL,
			gmail_refresh_token = NULL,
			gmail_token_expiry = NULL,
			updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("disconnect gmail: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}
