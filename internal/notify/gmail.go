package notify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/alertframe/alertframe/internal/domain"
	"github.com/alertframe/alertframe/internal/secrets"
	"github.com/alertframe/alertframe/internal/user"
)

const defaultGmailSendURL = "https://gmail.googleapis.com/gmail/v1/users/me/messages/send"

// GmailTokenStore is the user repository surface the sender needs to load
// and re-persist OAuth tokens.
type GmailTokenStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	SaveGmailTokens(ctx context.Context, id uuid.UUID, gmailEmail string, encryptedAccess, encryptedRefresh string, expiry time.Time) error
}

// GmailSender delivers mail from the owner's own Gmail account over the
// Gmail REST API. Access tokens are refreshed through the standard OAuth
// token source and written back encrypted when they rotate.
type GmailSender struct {
	users   GmailTokenStore
	box     *secrets.Box
	oauth   *oauth2.Config
	client  *http.Client
	sendURL string
}

func NewGmailSender(users GmailTokenStore, box *secrets.Box, clientID, clientSecret, redirectURL string) *GmailSender {
	return &GmailSender{
		users: users,
		box:   box,
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"https://www.googleapis.com/auth/gmail.send"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://accounts.google.com/o/oauth2/auth",
				TokenURL: "https://oauth2.googleapis.com/token",
			},
		},
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		sendURL: defaultGmailSendURL,
	}
}

func (s *GmailSender) Send(ctx context.Context, msg *Message) error {
	u, err := s.users.GetByID(ctx, msg.OwnerID)
	if err != nil {
		return err
	}

	if !u.GmailConnected || u.GmailAccessToken == nil || u.GmailRefreshToken == nil {
		return domain.ErrGmailNotConnected
	}
	if u.GmailEmail == nil {
		return domain.ErrGmailNotConnected
	}

	accessToken, err := s.box.Decrypt(*u.GmailAccessToken)
	if err != nil {
		return fmt.Errorf("decrypt access token: %w", err)
	}
	refreshToken, err := s.box.Decrypt(*u.GmailRefreshToken)
	if err != nil {
		return fmt.Errorf("decrypt refresh token: %w", err)
	}

	tok := &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}
	if u.GmailTokenExpiry != nil {
		tok.Expiry = *u.GmailTokenExpiry
	}

	fresh, err := s.oauth.TokenSource(ctx, tok).Token()
	if err != nil {
		return fmt.Errorf("refresh gmail token: %w", err)
	}

	if fresh.AccessToken != accessToken {
		if err := s.persistTokens(ctx, u, fresh, refreshToken); err != nil {
			return fmt.Errorf("persist refreshed token: %w", err)
		}
	}

	raw := encodeRFC2822(*u.GmailEmail, msg.To, msg.Subject, msg.HTML)

	payload, err := json.Marshal(map[string]string{"raw": raw})
	if err != nil {
		return fmt.Errorf("marshal gmail message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.sendURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+fresh.AccessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send via gmail: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("gmail API returned %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

func (s *GmailSender) persistTokens(ctx context.Context, u *user.User, fresh *oauth2.Token, currentRefresh string) error {
	refresh := currentRefresh
	if fresh.RefreshToken != "" {
		refresh = fresh.RefreshToken
	}

	encAccess, err := s.box.Encrypt(fresh.AccessToken)
	if err != nil {
		return fmt.Errorf("encrypt access token: %w", err)
	}
	encRefresh, err := s.box.Encrypt(refresh)
	if err != nil {
		return fmt.Errorf("encrypt refresh token: %w", err)
	}

	return s.users.SaveGmailTokens(ctx, u.ID, *u.GmailEmail, encAccess, encRefresh, fresh.Expiry)
}

// encodeRFC2822 builds a base64url message the Gmail API accepts as raw.
func encodeRFC2822(from, to, subject, html string) string {
	lines := []string{
		"From: " + from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=utf-8",
		"",
		html,
	}

	return base64.RawURLEncoding.EncodeToString([]byte(strings.Join(lines, "\r\n")))
}
