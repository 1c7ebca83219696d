package handler

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/alertframe/alertframe/internal/domain"
	"github.com/alertframe/alertframe/internal/secrets"
	"github.com/alertframe/alertframe/internal/user"
)

// UserRepo is the repository surface the user endpoints need.
type UserRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	SaveKernelKey(ctx context.Context, id uuid.UUID, encryptedKey *string) error
	DisconnectGmail(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type UserHandler struct {
	repo   UserRepo
	box    *secrets.Box
	logger *slog.Logger
}

func NewUserHandler(repo UserRepo, box *secrets.Box, logger *slog.Logger) *UserHandler {
	return &UserHandler{repo: repo, box: box, logger: logger}
}

type SaveKernelKeyRequest struct {
	APIKey string `json:"apiKey"`
}

// SaveKernelKey POST /v1/users/:id/kernel-key stores the browser
// automation API key encrypted at rest.
func (h *UserHandler) SaveKernelKey(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	var req SaveKernelKeyRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	key := strings.TrimSpace(req.APIKey)
	if key == "" {
		return domain.ErrValidationFailed.WithError(errors.New("apiKey is required"))
	}
	if !strings.HasPrefix(key, "sk_") {
		return domain.ErrValidationFailed.WithError(errors.New(`invalid API key format, keys start with "sk_"`))
	}

	encrypted, err := h.box.Encrypt(key)
	if err != nil {
		return domain.ErrInternal.WithError(err)
	}

	if err := h.repo.SaveKernelKey(c.Context(), id, &encrypted); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "API key saved successfully",
	})
}

// HasKernelKey GET /v1/users/:id/kernel-key
func (h *UserHandler) HasKernelKey(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	u, err := h.repo.GetByID(c.Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"hasKey": u.KernelAPIKey != nil && *u.KernelAPIKey != "",
	})
}

// DeleteKernelKey DELETE /v1/users/:id/kernel-key
func (h *UserHandler) DeleteKernelKey(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	if err := h.repo.SaveKernelKey(c.Context(), id, nil); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "API key deleted successfully",
	})
}

// DisconnectGmail POST /v1/users/:id/gmail/disconnect
func (h *UserHandler) DisconnectGmail(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	if err := h.repo.DisconnectGmail(c.Context(), id); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Gmail disconnected successfully",
	})
}

// DeleteAccount DELETE /v1/users/:id removes the user and all owned
// alerts, snapshots and changes.
func (h *UserHandler) DeleteAccount(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	if err := h.repo.Delete(c.Context(), id); err != nil {
		return err
	}

	h.logger.Info("account deleted", "user_id", id)

	return c.JSON(fiber.Map{"success": true})
}
