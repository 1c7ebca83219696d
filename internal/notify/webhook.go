package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WebhookNotification carries the fields every webhook channel renders.
type WebhookNotification struct {
	AlertTitle   string
	AlertURL     string
	ChangeType   string
	Summary      string
	DashboardURL string
}

func postJSON(ctx context.Context, client *http.Client, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "AlertFrame-Webhook/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}

	return nil
}

// SlackChannel posts change notifications in Block Kit format.
type SlackChannel struct {
	client *http.Client
}

func NewSlackChannel() *SlackChannel {
	return &SlackChannel{
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *SlackChannel) Send(ctx context.Context, webhookURL string, n *WebhookNotification) error {
	type textObject struct {
		Type  string `json:"type"`
		Text  string `json:"text"`
		Emoji bool   `json:"emoji,omitempty"`
	}
	type block struct {
		Type     string       `json:"type"`
		Text     *textObject  `json:"text,omitempty"`
		Fields   []textObject `json:"fields,omitempty"`
		Elements []any        `json:"elements,omitempty"`
	}

	blocks := []block{
		{
			Type: "header",
			Text: &textObject{Type: "plain_text", Text: "🔔 Change Detected", Emoji: true},
		},
		{
			Type: "section",
			Fields: []textObject{
				{Type: "mrkdwn", Text: "*Alert:*\n" + n.AlertTitle},
				{Type: "mrkdwn", Text: "*Change Type:*\n" + n.ChangeType},
			},
		},
		{
			Type: "section",
			Text: &textObject{Type: "mrkdwn", Text: "*Summary:*\n" + n.Summary},
		},
		{
			Type: "section",
			Text: &textObject{Type: "mrkdwn", Text: fmt.Sprintf("*Monitored Page:*\n<%s|View Page>", n.AlertURL)},
		},
	}

	if n.DashboardURL != "" {
		blocks = append(blocks, block{
			Type: "actions",
			Elements: []any{
				map[string]any{
					"type":  "button",
					"text":  textObject{Type: "plain_text", Text: "View in Dashboard", Emoji: true},
					"url":   n.DashboardURL,
					"style": "primary",
				},
			},
		})
	}

	now := time.Now()
	blocks = append(blocks, block{
		Type: "context",
		Elements: []any{
			map[string]any{
				"type": "mrkdwn",
				"text": fmt.Sprintf("<!date^%d^Detected {date_short_pretty} at {time}|%s>",
					now.Unix(), now.UTC().Format(time.RFC3339)),
			},
		},
	})

	payload := map[string]any{
		"text":   "🔔 Change Detected: " + n.AlertTitle,
		"blocks": blocks,
	}

	return postJSON(ctx, c.client, webhookURL, payload)
}

// DiscordChannel posts change notifications as a single embed.
type DiscordChannel struct {
	client *http.Client
}

func NewDiscordChannel() *DiscordChannel {
	return &DiscordChannel{
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func discordColor(changeType string) int {
	switch changeType {
	case "added":
		return 0x00ff00
	case "removed":
		return 0xff0000
	case "modified":
		return 0xffa500
	default:
		return 0x0099ff
	}
}

func (c *DiscordChannel) Send(ctx context.Context, webhookURL string, n *WebhookNotification) error {
	type embedField struct {
		Name   string `json:"name"`
		Value  string `json:"value"`
		Inline bool   `json:"inline"`
	}

	fields := []embedField{
		{Name: "📊 Change Type", Value: n.ChangeType, Inline: true},
		{Name: "🔗 Monitored Page", Value: fmt.Sprintf("[View Page](%s)", n.AlertURL), Inline: true},
	}
	if n.DashboardURL != "" {
		fields = append(fields, embedField{
			Name:   "📱 Dashboard",
			Value:  fmt.Sprintf("[View in Dashboard](%s)", n.DashboardURL),
			Inline: true,
		})
	}

	payload := map[string]any{
		"content": "🔔 **Change Detected**",
		"embeds": []map[string]any{
			{
				"title":       n.AlertTitle,
				"url":         n.AlertURL,
				"description": n.Summary,
				"color":       discordColor(n.ChangeType),
				"fields":      fields,
				"timestamp":   time.Now().UTC().Format(time.RFC3339),
				"footer":      map[string]string{"text": "AlertFrame"},
			},
		},
	}

	return postJSON(ctx, c.client, webhookURL, payload)
}
