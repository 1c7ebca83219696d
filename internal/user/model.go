package user

import (
	"time"

	"github.com/google/uuid"
)

// User is an alert owner. Credential fields (kernel API key, Gmail OAuth
// tokens) are stored encrypted; the secrets box decrypts them on use.
type User struct {
	ID                uuid.UUID  `json:"id"`
	Email             string     `json:"email"`
	Name              *string    `json:"name,omitempty"`
	KernelAPIKey      *string    `json:"-"`
	GmailConnected    bool       `json:"gmail_connected"`
	GmailEmail        *string    `json:"gmail_email,omitempty"`
	GmailAccessToken  *string    `json:"-"`
	GmailRefreshToken *string    `json:"-"`
	GmailTokenExpiry  *time.Time `json:"-"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}
