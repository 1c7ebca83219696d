package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Message is one outbound email.
type Message struct {
	OwnerID uuid.UUID
	To      string
	Subject string
	HTML    string
}

// MessageSender delivers email. Implementations: GmailSender sends from
// the owner's own mailbox, ResendSender from the service domain.
type MessageSender interface {
	Send(ctx context.Context, msg *Message) error
}

const defaultResendURL = "https://api.resend.com"

// ResendSender delivers mail through the Resend HTTP API.
type ResendSender struct {
	apiKey  string
	from    string
	baseURL string
	client  *http.Client
}

func NewResendSender(apiKey, from string) *ResendSender {
	if from == "" {
		from = "AlertFrame <alerts@alertframe.com>"
	}

	return &ResendSender{
		apiKey:  apiKey,
		from:    from,
		baseURL: defaultResendURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *ResendSender) Send(ctx context.Context, msg *Message) error {
	payload, err := json.Marshal(map[string]any{
		"from":    s.from,
		"to":      []string{msg.To},
		"subject": msg.Subject,
		"html":    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("resend API returned %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
