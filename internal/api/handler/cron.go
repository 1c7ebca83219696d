package handler

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/alertframe/alertframe/internal/scheduler"
)

// Sweep is implemented by scheduler.Sweeper.
type Sweep interface {
	Sweep(ctx context.Context) (*scheduler.SweepResult, error)
}

// CronHandler exposes the sweep as an HTTP trigger for external cron
// services.
type CronHandler struct {
	sweeper Sweep
	logger  *slog.Logger
}

func NewCronHandler(sweeper Sweep, logger *slog.Logger) *CronHandler {
	return &CronHandler{sweeper: sweeper, logger: logger}
}

type SweepSummary struct {
	AlertsChecked   int `json:"alertsChecked"`
	ChangesDetected int `json:"changesDetected"`
	Errors          int `json:"errors"`
}

type SweepResponse struct {
	Success   bool                    `json:"success"`
	Timestamp string                  `json:"timestamp"`
	Summary   SweepSummary            `json:"summary"`
	Details   []scheduler.CheckDetail `json:"details"`
	Duration  int64                   `json:"duration"`
}

// CheckAlerts GET /v1/cron/check-alerts
func (h *CronHandler) CheckAlerts(c *fiber.Ctx) error {
	result, err := h.sweeper.Sweep(c.Context())
	if err != nil {
		return err
	}

	return c.JSON(SweepResponse{
		Success:   true,
		Timestamp: result.Timestamp.UTC().Format(time.RFC3339),
		Summary: SweepSummary{
			AlertsChecked:   result.Checked,
			ChangesDetected: result.Changes,
			Errors:          result.Errors,
		},
		Details:  result.Details,
		Duration: result.Duration.Milliseconds(),
	})
}
