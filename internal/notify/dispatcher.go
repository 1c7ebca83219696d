package notify

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alertframe/alertframe/internal/alert"
	"github.com/alertframe/alertframe/internal/detect"
	"github.com/alertframe/alertframe/internal/user"
)

// ChangeMarker persists the delivered flag on a change.
type ChangeMarker interface {
	MarkChangeNotified(ctx context.Context, changeID uuid.UUID) error
}

// OwnerGetter resolves the alert owner for sender selection.
type OwnerGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// Dispatcher fans a detected change out to the alert's configured
// channels. Channels are independent: one failing never blocks another,
// and no channel is retried. The change is marked notified only when the
// primary channel delivers: email when enabled, otherwise the first
// configured webhook.
type Dispatcher struct {
	marker  ChangeMarker
	owners  OwnerGetter
	gmail   MessageSender
	resend  MessageSender
	slack   *SlackChannel
	discord *DiscordChannel
	appURL  string
	logger  *slog.Logger
}

type DispatcherConfig struct {
	Marker ChangeMarker
	Owners OwnerGetter
	Gmail  MessageSender
	Resend MessageSender
	AppURL string
	Logger *slog.Logger
}

func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	return &Dispatcher{
		marker:  cfg.Marker,
		owners:  cfg.Owners,
		gmail:   cfg.Gmail,
		resend:  cfg.Resend,
		slack:   NewSlackChannel(),
		discord: NewDiscordChannel(),
		appURL:  cfg.AppURL,
		logger:  cfg.Logger,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, due *alert.DueAlert, change *alert.Change) error {
	a := &due.Alert

	if !a.NotifyEmail && a.SlackWebhook == nil && a.DiscordWebhook == nil {
		d.logger.Debug("no notification channels configured", "alert_id", a.ID)
		return nil
	}

	var errs []error
	primaryTaken := false
	markPrimary := func(err error) {
		if primaryTaken {
			return
		}
		primaryTaken = true
		if err != nil {
			return
		}
		if markErr := d.marker.MarkChangeNotified(ctx, change.ID); markErr != nil {
			d.logger.Error("failed to mark change notified",
				"change_id", change.ID, "error", markErr)
			return
		}
		now := time.Now()
		change.Notified = true
		change.NotifiedAt = &now
	}

	if a.NotifyEmail {
		err := d.sendEmail(ctx, due, change)
		if err != nil {
			errs = append(errs, fmt.Errorf("email: %w", err))
			d.logger.Error("email notification failed",
				"alert_id", a.ID, "error", err)
		}
		markPrimary(err)
	}

	n := &WebhookNotification{
		AlertTitle:   a.Title,
		AlertURL:     a.URL,
		ChangeType:   string(change.Type),
		Summary:      change.Summary,
		DashboardURL: dashboardURL(d.appURL),
	}

	if a.SlackWebhook != nil && *a.SlackWebhook != "" {
		err := d.slack.Send(ctx, *a.SlackWebhook, n)
		if err != nil {
			errs = append(errs, fmt.Errorf("slack: %w", err))
			d.logger.Error("slack notification failed",
				"alert_id", a.ID, "error", err)
		}
		markPrimary(err)
	}

	if a.DiscordWebhook != nil && *a.DiscordWebhook != "" {
		err := d.discord.Send(ctx, *a.DiscordWebhook, n)
		if err != nil {
			errs = append(errs, fmt.Errorf("discord: %w", err))
			d.logger.Error("discord notification failed",
				"alert_id", a.ID, "error", err)
		}
		markPrimary(err)
	}

	return errors.Join(errs...)
}

// sendEmail picks the sender for the owner: Gmail when the owner connected
// their account, the service sender otherwise. No sender configured means
// the email channel is skipped.
func (d *Dispatcher) sendEmail(ctx context.Context, due *alert.DueAlert, change *alert.Change) error {
	a := &due.Alert

	sender, err := d.pickSender(ctx, a.UserID)
	if err != nil {
		return err
	}

	html, err := ChangeEmailHTML(ChangeEmailParams{
		AlertTitle: a.Title,
		URL:        a.URL,
		ChangeType: string(change.Type),
		Summary:    change.Summary,
		DiffHTML:   template.HTML(detect.FormatDiffHTML(change.Diff)),
		AppURL:     d.appURL,
	})
	if err != nil {
		return err
	}

	return sender.Send(ctx, &Message{
		OwnerID: a.UserID,
		To:      due.OwnerEmail,
		Subject: "Change Detected: " + a.Title,
		HTML:    html,
	})
}

func (d *Dispatcher) pickSender(ctx context.Context, ownerID uuid.UUID) (MessageSender, error) {
	if d.gmail != nil {
		owner, err := d.owners.GetByID(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		if owner.GmailConnected {
			return d.gmail, nil
		}
	}

	if d.resend != nil {
		return d.resend, nil
	}

	return nil, errors.New("no email sender configured")
}

// SendConfirmation emails the owner after alert creation. Failure is not
// an API error; creation already succeeded.
func (d *Dispatcher) SendConfirmation(ctx context.Context, a *alert.Alert, ownerEmail string) error {
	sender, err := d.pickSender(ctx, a.UserID)
	if err != nil {
		return err
	}

	html, err := ConfirmationEmailHTML(ConfirmationEmailParams{
		AlertTitle:     a.Title,
		URL:            a.URL,
		CSSSelector:    a.CSSSelector,
		FrequencyLabel: a.FrequencyLabel,
		AppURL:         d.appURL,
	})
	if err != nil {
		return err
	}

	return sender.Send(ctx, &Message{
		OwnerID: a.UserID,
		To:      ownerEmail,
		Subject: "Alert Created: " + a.Title,
		HTML:    html,
	})
}
