package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alertframe/alertframe/internal/domain"
	"github.com/alertframe/alertframe/internal/secrets"
)

func userRows(u *User) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "email", "name", "kernel_api_key", "gmail_connected", "gmail_email",
		"gmail_access_token", "gmail_refresh_token", "gmail_token_expiry", "created_at", "updated_at",
	}).AddRow(
		u.ID,
		u.Email,
		u.Name,
		u.KernelAPIKey,
		u.GmailConnected,
		u.GmailEmail,
		u.GmailAccessToken,
		u.GmailRefreshToken,
		u.GmailTokenExpiry,
		u.CreatedAt,
		u.UpdatedAt,
	)
}

func TestRepository_GetByID(t *testing.T) {
	userID := uuid.New()
	now := time.Now()
	key := "encrypted-key"

	tests := []struct {
		name      string
		id        uuid.UUID
		mockSetup func(mock pgxmock.PgxPoolIface)
		want      *User
		wantErr   error
	}{
		{
			name: "successful retrieval",
			id:   userID,
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT (.+) FROM users WHERE id = \$1`).
					WithArgs(userID).
					WillReturnRows(userRows(&User{
						ID:           userID,
						Email:        "owner@example.com",
						KernelAPIKey: &key,
						CreatedAt:    now,
						UpdatedAt:    now,
					}))
			},
			want: &User{
				ID:           userID,
				Email:        "owner@example.com",
				KernelAPIKey: &key,
			},
		},
		{
			name: "user not found",
			id:   userID,
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT (.+) FROM users WHERE id = \$1`).
					WithArgs(userID).
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr: domain.ErrUserNotFound,
		},
		{
			name: "database error",
			id:   userID,
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT (.+) FROM users WHERE id = \$1`).
					WithArgs(userID).
					WillReturnError(errors.New("connection refused"))
			},
			wantErr: errors.New("get user by id: connection refused"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.mockSetup(mock)

			repo := NewRepository(mock)
			got, err := repo.GetByID(context.Background(), tt.id)

			if tt.wantErr != nil {
				require.Error(t, err)
				if errors.Is(tt.wantErr, domain.ErrUserNotFound) {
					assert.ErrorIs(t, err, domain.ErrUserNotFound)
				} else {
					assert.Contains(t, err.Error(), "get user by id")
				}
			} else {
				require.NoError(t, err)
				require.NotNil(t, got)
				assert.Equal(t, tt.want.ID, got.ID)
				assert.Equal(t, tt.want.Email, got.Email)
				assert.Equal(t, tt.want.KernelAPIKey, got.KernelAPIKey)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_SaveKernelKey(t *testing.T) {
	userID := uuid.New()
	encrypted := "sealed"

	tests := []struct {
		name      string
		key       *string
		mockSetup func(mock pgxmock.PgxPoolIface)
		wantErr   error
	}{
		{
			name: "saves key",
			key:  &encrypted,
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`UPDATE users SET kernel_api_key = \$2`).
					WithArgs(userID, &encrypted).
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			},
		},
		{
			name: "clears key",
			key:  nil,
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`UPDATE users SET kernel_api_key = \$2`).
					WithArgs(userID, (*string)(nil)).
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			},
		},
		{
			name: "user not found",
			key:  &encrypted,
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`UPDATE users SET kernel_api_key = \$2`).
					WithArgs(userID, &encrypted).
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
			},
			wantErr: domain.ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.mockSetup(mock)

			repo := NewRepository(mock)
			err = repo.SaveKernelKey(context.Background(), userID, tt.key)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_DisconnectGmail(t *testing.T) {
	userID := uuid.New()

	t.Run("clears tokens", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`UPDATE users SET gmail_connected = false`).
			WithArgs(userID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		repo := NewRepository(mock)
		require.NoError(t, repo.DisconnectGmail(context.Background(), userID))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("user not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`UPDATE users SET gmail_connected = false`).
			WithArgs(userID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		repo := NewRepository(mock)
		assert.ErrorIs(t, repo.DisconnectGmail(context.Background(), userID), domain.ErrUserNotFound)
	})
}

func TestCredentials_KernelAPIKey(t *testing.T) {
	// Credential resolution decrypts a stored key; exercised end to end
	// through a real secrets box and a mocked pool.
	boxTestKey := "0123456789abcdef0123456789abcdef"

	t.Run("missing key", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		userID := uuid.New()
		now := time.Now()
		mock.ExpectQuery(`SELECT (.+) FROM users WHERE id = \$1`).
			WithArgs(userID).
			WillReturnRows(userRows(&User{ID: userID, Email: "owner@example.com", CreatedAt: now, UpdatedAt: now}))

		box, err := secrets.NewBox(boxTestKey)
		require.NoError(t, err)

		creds := NewCredentials(NewRepository(mock), box)
		_, err = creds.KernelAPIKey(context.Background(), userID)
		assert.ErrorIs(t, err, domain.ErrKernelKeyMissing)
	})

	t.Run("decrypts stored key", func(t *testing.T) {
		box, err := secrets.NewBox(boxTestKey)
		require.NoError(t, err)

		sealed, err := box.Encrypt("kernel-secret")
		require.NoError(t, err)

		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		userID := uuid.New()
		now := time.Now()
		mock.ExpectQuery(`SELECT (.+) FROM users WHERE id = \$1`).
			WithArgs(userID).
			WillReturnRows(userRows(&User{
				ID:           userID,
				Email:        "owner@example.com",
				KernelAPIKey: &sealed,
				CreatedAt:    now,
				UpdatedAt:    now,
			}))

		creds := NewCredentials(NewRepository(mock), box)
		got, err := creds.KernelAPIKey(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, "kernel-secret", got)
	})
}
