package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alertframe/alertframe/internal/api/middleware"
	"github.com/alertframe/alertframe/internal/scheduler"
)

type fakeSweeper struct {
	result *scheduler.SweepResult
	err    error
}

func (f *fakeSweeper) Sweep(ctx context.Context) (*scheduler.SweepResult, error) {
	return f.result, f.err
}

func newCronTestApp(sweeper *fakeSweeper) *fiber.App {
	logger := slog.New(slog.DiscardHandler)
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
	})
	app.Get("/v1/cron/check-alerts", NewCronHandler(sweeper, logger).CheckAlerts)
	return app
}

func TestCronHandler_CheckAlerts(t *testing.T) {
	alertID := uuid.New()
	sweeper := &fakeSweeper{result: &scheduler.SweepResult{
		Timestamp: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Checked:   3,
		Changes:   1,
		Errors:    1,
		Details: []scheduler.CheckDetail{
			{AlertID: alertID, Title: "Price watch", Status: "checked", Changed: true, ChangeType: "modified"},
		},
		Duration: 1500 * time.Millisecond,
	}}
	app := newCronTestApp(sweeper)

	req := httptest.NewRequest("GET", "/v1/cron/check-alerts", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var result SweepResponse
	raw, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(raw, &result))

	assert.True(t, result.Success)
	assert.Equal(t, "2026-03-14T09:30:00Z", result.Timestamp)
	assert.Equal(t, 3, result.Summary.AlertsChecked)
	assert.Equal(t, 1, result.Summary.ChangesDetected)
	assert.Equal(t, 1, result.Summary.Errors)
	assert.Equal(t, int64(1500), result.Duration)
	require.Len(t, result.Details, 1)
	assert.Equal(t, "Price watch", result.Details[0].Title)
}

func TestCronHandler_CheckAlertsError(t *testing.T) {
	app := newCronTestApp(&fakeSweeper{err: errors.New("pool exhausted")})

	req := httptest.NewRequest("GET", "/v1/cron/check-alerts", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)
}
