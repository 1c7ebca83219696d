package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alertframe/alertframe/internal/alert"
	"github.com/alertframe/alertframe/internal/api/middleware"
	"github.com/alertframe/alertframe/internal/domain"
	"github.com/alertframe/alertframe/internal/extract/mock"
)

type fakeAlertRepo struct {
	created      *alert.Alert
	createdEmail string
	createErr    error

	alerts    []alert.Alert
	getAlert  *alert.Alert
	getCounts *alert.Counts
	getErr    error

	updatedParams *alert.UpdateParams
	updated       *alert.Alert
	updateErr     error

	deleted   []uuid.UUID
	deleteErr error

	changes   []alert.Change
	snapshots []*alert.Snapshot
}

func (f *fakeAlertRepo) Create(ctx context.Context, a *alert.Alert, ownerEmail string) error {
	if f.createErr != nil {
		return f.createErr
	}
	a.ID = uuid.New()
	a.UserID = uuid.New()
	f.created = a
	f.createdEmail = ownerEmail
	return nil
}

func (f *fakeAlertRepo) GetByID(ctx context.Context, id uuid.UUID) (*alert.Alert, *alert.Counts, error) {
	if f.getErr != nil {
		return nil, nil, f.getErr
	}
	return f.getAlert, f.getCounts, nil
}

func (f *fakeAlertRepo) List(ctx context.Context) ([]alert.Alert, error) {
	return f.alerts, nil
}

func (f *fakeAlertRepo) Update(ctx context.Context, id uuid.UUID, params alert.UpdateParams) (*alert.Alert, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.updatedParams = &params
	return f.updated, nil
}

func (f *fakeAlertRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeAlertRepo) ListChanges(ctx context.Context, alertID uuid.UUID, limit int) ([]alert.Change, error) {
	return f.changes, nil
}

func (f *fakeAlertRepo) SaveSnapshot(ctx context.Context, s *alert.Snapshot) error {
	f.snapshots = append(f.snapshots, s)
	return nil
}

type fakeConfirmer struct {
	sent []string
	err  error
}

func (f *fakeConfirmer) SendConfirmation(ctx context.Context, a *alert.Alert, ownerEmail string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, ownerEmail)
	return nil
}

func newAlertTestApp(repo *fakeAlertRepo, extractor *mock.Provider, confirmer *fakeConfirmer) *fiber.App {
	logger := slog.New(slog.DiscardHandler)
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
	})

	h := NewAlertHandler(repo, extractor, confirmer, logger)
	app.Post("/v1/alerts", h.Create)
	app.Get("/v1/alerts", h.List)
	app.Get("/v1/alerts/:id", h.Get)
	app.Patch("/v1/alerts/:id", h.Update)
	app.Delete("/v1/alerts/:id", h.Delete)
	app.Get("/v1/alerts/:id/changes", h.Changes)
	return app
}

func TestAlertHandler_Create(t *testing.T) {
	repo := &fakeAlertRepo{}
	extractor := mock.New()
	confirmer := &fakeConfirmer{}
	app := newAlertTestApp(repo, extractor, confirmer)

	body := `{
		"url": "https://example.com/products",
		"cssSelector": ".price",
		"frequencyMinutes": 30,
		"email": "owner@example.com"
	}`

	req := httptest.NewRequest("POST", "/v1/alerts", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var result struct {
		Success bool        `json:"success"`
		ID      string      `json:"id"`
		Alert   alert.Alert `json:"alert"`
	}
	raw, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(raw, &result))

	assert.True(t, result.Success)
	assert.NotEmpty(t, result.ID)

	require.NotNil(t, repo.created)
	assert.Equal(t, "owner@example.com", repo.createdEmail)
	assert.Equal(t, alert.ElementSingle, repo.created.ElementType)
	assert.Equal(t, "Monitor example.com", repo.created.Title)
	assert.Equal(t, "Every 30 minutes", repo.created.FrequencyLabel)
	assert.True(t, repo.created.NotifyEmail)

	// Baseline snapshot captured synchronously, confirmation sent.
	require.Len(t, repo.snapshots, 1)
	assert.Equal(t, repo.created.ID, repo.snapshots[0].AlertID)
	assert.Equal(t, []string{"owner@example.com"}, confirmer.sent)
}

func TestAlertHandler_CreateValidation(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "missing url",
			body:       `{"cssSelector": ".price", "frequencyMinutes": 30}`,
			wantStatus: 400,
			wantCode:   "MISSING_TARGET",
		},
		{
			name:       "missing selector",
			body:       `{"url": "https://example.com", "frequencyMinutes": 30}`,
			wantStatus: 400,
			wantCode:   "MISSING_TARGET",
		},
		{
			name:       "invalid email",
			body:       `{"url": "https://example.com", "cssSelector": ".p", "frequencyMinutes": 30, "email": "not an email"}`,
			wantStatus: 400,
			wantCode:   "INVALID_EMAIL",
		},
		{
			name:       "zero frequency",
			body:       `{"url": "https://example.com", "cssSelector": ".p", "frequencyMinutes": 0}`,
			wantStatus: 400,
			wantCode:   "INVALID_FREQUENCY",
		},
		{
			name:       "negative frequency",
			body:       `{"url": "https://example.com", "cssSelector": ".p", "frequencyMinutes": -5}`,
			wantStatus: 400,
			wantCode:   "INVALID_FREQUENCY",
		},
		{
			name:       "unknown element type",
			body:       `{"url": "https://example.com", "cssSelector": ".p", "frequencyMinutes": 5, "elementType": "table"}`,
			wantStatus: 422,
			wantCode:   "VALIDATION_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newAlertTestApp(&fakeAlertRepo{}, mock.New(), &fakeConfirmer{})

			req := httptest.NewRequest("POST", "/v1/alerts", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var result struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			raw, _ := io.ReadAll(resp.Body)
			require.NoError(t, json.Unmarshal(raw, &result))
			assert.Equal(t, tt.wantCode, result.Error.Code)
		})
	}
}

func TestAlertHandler_CreateSurvivesSnapshotFailure(t *testing.T) {
	repo := &fakeAlertRepo{}
	extractor := mock.New()
	extractor.SetError("https://broken.example", errors.New("element not found"))
	app := newAlertTestApp(repo, extractor, &fakeConfirmer{})

	body := `{"url": "https://broken.example", "cssSelector": ".p", "frequencyMinutes": 10, "notifyEmail": false}`
	req := httptest.NewRequest("POST", "/v1/alerts", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Empty(t, repo.snapshots)
}

func TestAlertHandler_Get(t *testing.T) {
	alertID := uuid.New()

	t.Run("found", func(t *testing.T) {
		repo := &fakeAlertRepo{
			getAlert:  &alert.Alert{ID: alertID, Title: "Price watch"},
			getCounts: &alert.Counts{Snapshots: 4, Changes: 2},
		}
		app := newAlertTestApp(repo, mock.New(), &fakeConfirmer{})

		req := httptest.NewRequest("GET", "/v1/alerts/"+alertID.String(), nil)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		var result struct {
			Alert  alert.Alert  `json:"alert"`
			Counts alert.Counts `json:"counts"`
		}
		raw, _ := io.ReadAll(resp.Body)
		require.NoError(t, json.Unmarshal(raw, &result))
		assert.Equal(t, "Price watch", result.Alert.Title)
		assert.Equal(t, 4, result.Counts.Snapshots)
	})

	t.Run("not found", func(t *testing.T) {
		repo := &fakeAlertRepo{getErr: domain.ErrAlertNotFound}
		app := newAlertTestApp(repo, mock.New(), &fakeConfirmer{})

		req := httptest.NewRequest("GET", "/v1/alerts/"+uuid.NewString(), nil)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, 404, resp.StatusCode)
	})

	t.Run("bad id", func(t *testing.T) {
		app := newAlertTestApp(&fakeAlertRepo{}, mock.New(), &fakeConfirmer{})

		req := httptest.NewRequest("GET", "/v1/alerts/not-a-uuid", nil)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, 400, resp.StatusCode)
	})
}

func TestAlertHandler_Update(t *testing.T) {
	alertID := uuid.New()

	t.Run("pause", func(t *testing.T) {
		repo := &fakeAlertRepo{updated: &alert.Alert{ID: alertID, Status: alert.StatusPaused}}
		app := newAlertTestApp(repo, mock.New(), &fakeConfirmer{})

		req := httptest.NewRequest("PATCH", "/v1/alerts/"+alertID.String(), strings.NewReader(`{"status": "paused"}`))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		require.NotNil(t, repo.updatedParams)
		require.NotNil(t, repo.updatedParams.Status)
		assert.Equal(t, alert.StatusPaused, *repo.updatedParams.Status)
	})

	t.Run("empty webhook clears", func(t *testing.T) {
		repo := &fakeAlertRepo{updated: &alert.Alert{ID: alertID}}
		app := newAlertTestApp(repo, mock.New(), &fakeConfirmer{})

		req := httptest.NewRequest("PATCH", "/v1/alerts/"+alertID.String(),
			strings.NewReader(`{"slackWebhook": "", "discordWebhook": "https://discord.example/hook"}`))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		require.NotNil(t, repo.updatedParams)
		assert.True(t, repo.updatedParams.ClearSlack)
		assert.False(t, repo.updatedParams.ClearDiscord)
		require.NotNil(t, repo.updatedParams.DiscordWebhook)
		assert.Equal(t, "https://discord.example/hook", *repo.updatedParams.DiscordWebhook)
	})

	t.Run("invalid status", func(t *testing.T) {
		app := newAlertTestApp(&fakeAlertRepo{}, mock.New(), &fakeConfirmer{})

		req := httptest.NewRequest("PATCH", "/v1/alerts/"+alertID.String(), strings.NewReader(`{"status": "sleeping"}`))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, 422, resp.StatusCode)
	})

	t.Run("invalid frequency", func(t *testing.T) {
		app := newAlertTestApp(&fakeAlertRepo{}, mock.New(), &fakeConfirmer{})

		req := httptest.NewRequest("PATCH", "/v1/alerts/"+alertID.String(), strings.NewReader(`{"frequencyMinutes": 0}`))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, 400, resp.StatusCode)
	})
}

func TestAlertHandler_Delete(t *testing.T) {
	alertID := uuid.New()

	t.Run("deletes", func(t *testing.T) {
		repo := &fakeAlertRepo{}
		app := newAlertTestApp(repo, mock.New(), &fakeConfirmer{})

		req := httptest.NewRequest("DELETE", "/v1/alerts/"+alertID.String(), nil)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, []uuid.UUID{alertID}, repo.deleted)
	})

	t.Run("not found", func(t *testing.T) {
		repo := &fakeAlertRepo{deleteErr: domain.ErrAlertNotFound}
		app := newAlertTestApp(repo, mock.New(), &fakeConfirmer{})

		req := httptest.NewRequest("DELETE", "/v1/alerts/"+alertID.String(), nil)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, 404, resp.StatusCode)
	})
}

func TestAlertHandler_List(t *testing.T) {
	repo := &fakeAlertRepo{alerts: []alert.Alert{
		{ID: uuid.New(), Title: "first"},
		{ID: uuid.New(), Title: "second"},
	}}
	app := newAlertTestApp(repo, mock.New(), &fakeConfirmer{})

	req := httptest.NewRequest("GET", "/v1/alerts", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var result struct {
		Alerts []alert.Alert `json:"alerts"`
	}
	raw, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(raw, &result))
	assert.Len(t, result.Alerts, 2)
}
