package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alertframe/alertframe/internal/alert"
	"github.com/alertframe/alertframe/internal/detect"
	"github.com/alertframe/alertframe/internal/extract"
)

// Store is the repository surface a sweep needs.
type Store interface {
	ListDue(ctx context.Context, now time.Time) ([]alert.DueAlert, error)
	SaveCheckSuccess(ctx context.Context, result *alert.CheckResult, frequencyMinutes int) error
	RecordCheckFailure(ctx context.Context, alertID uuid.UUID, message string, frequencyMinutes int) error
}

// Dispatcher delivers change notifications. Delivery failure is the
// dispatcher's problem; the sweep only logs it.
type Dispatcher interface {
	Dispatch(ctx context.Context, due *alert.DueAlert, change *alert.Change) error
}

// CheckDetail is the per-alert entry in a sweep report. Status drives the
// sweep counters and is not part of the reported payload.
type CheckDetail struct {
	AlertID    uuid.UUID         `json:"alertId"`
	Title      string            `json:"title"`
	Changed    bool              `json:"changeDetected,omitempty"`
	Error      string            `json:"error,omitempty"`
	Status     string            `json:"-"`
	ChangeType detect.ChangeType `json:"-"`
}

// SweepResult summarizes one pass over the due alerts. Checked counts
// successful checks only; failures land in Errors.
type SweepResult struct {
	Timestamp time.Time     `json:"timestamp"`
	Checked   int           `json:"checked"`
	Changes   int           `json:"changesDetected"`
	Errors    int           `json:"errors"`
	Details   []CheckDetail `json:"results"`
	Duration  time.Duration `json:"-"`
}

type Sweeper struct {
	store      Store
	extractor  extract.Extractor
	dispatcher Dispatcher
	logger     *slog.Logger
}

func NewSweeper(store Store, extractor extract.Extractor, dispatcher Dispatcher, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		store:      store,
		extractor:  extractor,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Sweep checks every due alert once. One alert failing never aborts the
// pass; its alert is marked errored and the sweep moves on.
func (s *Sweeper) Sweep(ctx context.Context) (*SweepResult, error) {
	start := time.Now()

	due, err := s.store.ListDue(ctx, start)
	if err != nil {
		return nil, err
	}

	result := &SweepResult{
		Timestamp: start,
		Details:   make([]CheckDetail, 0, len(due)),
	}

	s.logger.Info("sweep started", "due", len(due))

	for i := range due {
		d := &due[i]
		detail := s.checkAlert(ctx, d)
		result.Details = append(result.Details, detail)

		switch detail.Status {
		case "checked":
			result.Checked++
			if detail.Changed {
				result.Changes++
			}
		case "error":
			result.Errors++
		}
	}

	result.Duration = time.Since(start)

	s.logger.Info("sweep finished",
		"checked", result.Checked,
		"changes", result.Changes,
		"errors", result.Errors,
		"duration", result.Duration,
	)

	return result, nil
}

func (s *Sweeper) checkAlert(ctx context.Context, d *alert.DueAlert) CheckDetail {
	detail := CheckDetail{
		AlertID: d.Alert.ID,
		Title:   d.Alert.Title,
	}

	res, err := s.extractor.Extract(ctx, extract.Request{
		URL:      d.Alert.URL,
		Selector: d.Alert.CSSSelector,
		UserID:   d.Alert.UserID,
	})
	if err != nil {
		return s.failCheck(ctx, d, detail, err)
	}

	curr := detect.Content{
		HTMLContent: res.HTMLContent,
		TextContent: res.TextContent,
		ItemCount:   res.ItemCount,
	}

	var change *alert.Change
	if d.LastSnapshot != nil {
		verdict := detect.Detect(d.LastSnapshot.Content(), curr)
		if verdict.HasChanged {
			change = &alert.Change{
				Type:    verdict.ChangeType,
				Summary: verdict.Summary,
				Diff:    verdict.Diff,
			}
		}
	}

	checkResult := &alert.CheckResult{
		AlertID: d.Alert.ID,
		Snapshot: &alert.Snapshot{
			HTMLContent: res.HTMLContent,
			TextContent: res.TextContent,
			ItemCount:   res.ItemCount,
		},
		Change: change,
	}

	if err := s.store.SaveCheckSuccess(ctx, checkResult, d.Alert.FrequencyMinutes); err != nil {
		return s.failCheck(ctx, d, detail, err)
	}

	detail.Status = "checked"

	if change != nil {
		detail.Changed = true
		detail.ChangeType = change.Type

		if err := s.dispatcher.Dispatch(ctx, d, change); err != nil {
			s.logger.Error("notification dispatch failed",
				"alert_id", d.Alert.ID,
				"change_id", change.ID,
				"error", err,
			)
		}
	}

	return detail
}

func (s *Sweeper) failCheck(ctx context.Context, d *alert.DueAlert, detail CheckDetail, cause error) CheckDetail {
	detail.Status = "error"
	detail.Error = cause.Error()

	s.logger.Error("alert check failed",
		"alert_id", d.Alert.ID,
		"url", d.Alert.URL,
		"error", cause,
	)

	if err := s.store.RecordCheckFailure(ctx, d.Alert.ID, cause.Error(), d.Alert.FrequencyMinutes); err != nil {
		s.logger.Error("failed to record check failure",
			"alert_id", d.Alert.ID,
			"error", err,
		)
	}

	return detail
}
