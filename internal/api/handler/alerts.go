package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/alertframe/alertframe/internal/alert"
	"github.com/alertframe/alertframe/internal/domain"
	"github.com/alertframe/alertframe/internal/extract"
)

const defaultOwnerEmail = "demo@alertframe.com"

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// AlertRepo is the repository surface the alert endpoints need.
type AlertRepo interface {
	Create(ctx context.Context, a *alert.Alert, ownerEmail string) error
	GetByID(ctx context.Context, id uuid.UUID) (*alert.Alert, *alert.Counts, error)
	List(ctx context.Context) ([]alert.Alert, error)
	Update(ctx context.Context, id uuid.UUID, params alert.UpdateParams) (*alert.Alert, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListChanges(ctx context.Context, alertID uuid.UUID, limit int) ([]alert.Change, error)
	SaveSnapshot(ctx context.Context, s *alert.Snapshot) error
}

// Confirmer sends the alert creation confirmation email.
type Confirmer interface {
	SendConfirmation(ctx context.Context, a *alert.Alert, ownerEmail string) error
}

type AlertHandler struct {
	repo      AlertRepo
	extractor extract.Extractor
	confirmer Confirmer
	logger    *slog.Logger
}

func NewAlertHandler(repo AlertRepo, extractor extract.Extractor, confirmer Confirmer, logger *slog.Logger) *AlertHandler {
	return &AlertHandler{
		repo:      repo,
		extractor: extractor,
		confirmer: confirmer,
		logger:    logger,
	}
}

type CreateAlertRequest struct {
	URL              string `json:"url"`
	CSSSelector      string `json:"cssSelector"`
	ElementType      string `json:"elementType"`
	Title            string `json:"title"`
	FrequencyMinutes int    `json:"frequencyMinutes"`
	FrequencyLabel   string `json:"frequencyLabel"`
	NotifyEmail      *bool  `json:"notifyEmail"`
	Email            string `json:"email"`
}

// Create POST /v1/alerts
func (h *AlertHandler) Create(c *fiber.Ctx) error {
	var req CreateAlertRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	if req.URL == "" || req.CSSSelector == "" {
		return domain.ErrMissingTarget
	}

	notifyEmail := true
	if req.NotifyEmail != nil {
		notifyEmail = *req.NotifyEmail
	}

	if notifyEmail && req.Email != "" && !emailPattern.MatchString(req.Email) {
		return domain.ErrInvalidEmail
	}

	if req.FrequencyMinutes <= 0 {
		return domain.ErrInvalidFrequency
	}

	elementType := alert.ElementType(req.ElementType)
	if elementType == "" {
		elementType = alert.ElementSingle
	}
	if elementType != alert.ElementSingle && elementType != alert.ElementList {
		return domain.ErrValidationFailed.WithError(fmt.Errorf("unknown element type %q", req.ElementType))
	}

	title := req.Title
	if title == "" {
		if parsed, err := url.Parse(req.URL); err == nil && parsed.Hostname() != "" {
			title = "Monitor " + parsed.Hostname()
		} else {
			title = "Monitor " + req.URL
		}
	}

	label := req.FrequencyLabel
	if label == "" {
		label = fmt.Sprintf("Every %d minutes", req.FrequencyMinutes)
	}

	ownerEmail := strings.TrimSpace(req.Email)
	if ownerEmail == "" {
		ownerEmail = defaultOwnerEmail
	}

	a := &alert.Alert{
		URL:              req.URL,
		CSSSelector:      req.CSSSelector,
		ElementType:      elementType,
		Title:            title,
		FrequencyMinutes: req.FrequencyMinutes,
		FrequencyLabel:   label,
		Status:           alert.StatusActive,
		NotifyEmail:      notifyEmail,
	}

	if err := h.repo.Create(c.Context(), a, ownerEmail); err != nil {
		return err
	}

	h.takeBaselineSnapshot(c.Context(), a)

	if notifyEmail {
		if err := h.confirmer.SendConfirmation(c.Context(), a, ownerEmail); err != nil {
			h.logger.Warn("failed to send confirmation email",
				"alert_id", a.ID, "error", err)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"id":      a.ID,
		"alert":   a,
	})
}

// takeBaselineSnapshot captures the first snapshot right after creation.
// Failure is logged, not returned: the sweep will pick the alert up later
// anyway.
func (h *AlertHandler) takeBaselineSnapshot(ctx context.Context, a *alert.Alert) {
	ctx, cancel := context.WithTimeout(ctx, 45*time.Second)
	defer cancel()

	res, err := h.extractor.Extract(ctx, extract.Request{
		URL:      a.URL,
		Selector: a.CSSSelector,
		UserID:   a.UserID,
	})
	if err != nil {
		h.logger.Warn("failed to take initial snapshot",
			"alert_id", a.ID, "url", a.URL, "error", err)
		return
	}

	snap := &alert.Snapshot{
		AlertID:     a.ID,
		HTMLContent: res.HTMLContent,
		TextContent: res.TextContent,
		ItemCount:   res.ItemCount,
	}
	if err := h.repo.SaveSnapshot(ctx, snap); err != nil {
		h.logger.Warn("failed to save initial snapshot",
			"alert_id", a.ID, "error", err)
	}
}

// List GET /v1/alerts
func (h *AlertHandler) List(c *fiber.Ctx) error {
	alerts, err := h.repo.List(c.Context())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"alerts": alerts})
}

// Get GET /v1/alerts/:id
func (h *AlertHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	a, counts, err := h.repo.GetByID(c.Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"alert":  a,
		"counts": counts,
	})
}

type UpdateAlertRequest struct {
	Title            *string `json:"title"`
	FrequencyMinutes *int    `json:"frequencyMinutes"`
	FrequencyLabel   *string `json:"frequencyLabel"`
	Status           *string `json:"status"`
	NotifyEmail      *bool   `json:"notifyEmail"`
	SlackWebhook     *string `json:"slackWebhook"`
	DiscordWebhook   *string `json:"discordWebhook"`
}

// Update PATCH /v1/alerts/:id applies a partial update. Absent fields stay
// as they are, an empty webhook string removes the webhook.
func (h *AlertHandler) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	var req UpdateAlertRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	params := alert.UpdateParams{
		Title:          req.Title,
		FrequencyLabel: req.FrequencyLabel,
		NotifyEmail:    req.NotifyEmail,
	}

	if req.FrequencyMinutes != nil {
		if *req.FrequencyMinutes <= 0 {
			return domain.ErrInvalidFrequency
		}
		params.FrequencyMinutes = req.FrequencyMinutes
	}

	if req.Status != nil {
		status := alert.Status(*req.Status)
		switch status {
		case alert.StatusActive, alert.StatusPaused:
			params.Status = &status
		default:
			return domain.ErrValidationFailed.WithError(fmt.Errorf("unknown status %q", *req.Status))
		}
	}

	if req.SlackWebhook != nil {
		if *req.SlackWebhook == "" {
			params.ClearSlack = true
		} else {
			params.SlackWebhook = req.SlackWebhook
		}
	}
	if req.DiscordWebhook != nil {
		if *req.DiscordWebhook == "" {
			params.ClearDiscord = true
		} else {
			params.DiscordWebhook = req.DiscordWebhook
		}
	}

	a, err := h.repo.Update(c.Context(), id, params)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"alert":   a,
	})
}

// Delete DELETE /v1/alerts/:id
func (h *AlertHandler) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	if err := h.repo.Delete(c.Context(), id); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true})
}

// Changes GET /v1/alerts/:id/changes
func (h *AlertHandler) Changes(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	limit := c.QueryInt("limit", 50)

	changes, err := h.repo.ListChanges(c.Context(), id, limit)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"changes": changes})
}
