package alert

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/alertframe/alertframe/internal/database"
	"github.com/alertframe/alertframe/internal/domain"
)

const alertColumns = `id, user_id, url, css_selector, element_type, title,
		frequency_minutes, frequency_label, status, notify_email, slack_webhook,
		discord_webhook, error_message, last_checked_at, next_check_at, created_at, updated_at`

type Repository struct {
	pool database.PgxPool
}

func NewRepository(pool database.PgxPool) *Repository {
	return &Repository{pool: pool}
}

func scanAlert(row pgx.Row) (*Alert, error) {
	var a Alert
	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.URL,
		&a.CSSSelector,
		&a.ElementType,
		&a.Title,
		&a.FrequencyMinutes,
		&a.FrequencyLabel,
		&a.Status,
		&a.NotifyEmail,
		&a.SlackWebhook,
		&a.DiscordWebhook,
		&a.ErrorMessage,
		&a.LastCheckedAt,
		&a.NextCheckAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts an alert, provisioning the owner row when the email has
// not been seen before. The first check is scheduled one interval out;
// the caller captures the baseline snapshot right after creation.
func (r *Repository) Create(ctx context.Context, a *Alert, ownerEmail string) error {
	if a.FrequencyMinutes < 1 {
		a.FrequencyMinutes = 1
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = StatusActive
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("create alert: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	ownerQuery := `
		INSERT INTO users (id, email, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (email) DO UPDATE SET updated_at = NOW()
		RETURNING id
	`

	if err := tx.QueryRow(ctx, ownerQuery, uuid.New(), ownerEmail).Scan(&a.UserID); err != nil {
		return fmt.Errorf("create alert: upsert owner: %w", err)
	}

	alertQuery := `
		INSERT INTO alerts (id, user_id, url, css_selector, element_type, title,
			frequency_minutes, frequency_label, status, notify_email, slack_webhook,
			discord_webhook, next_check_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			NOW() + $7 * INTERVAL '1 minute', NOW(), NOW())
		RETURNING next_check_at, created_at, updated_at
	`

	err = tx.QueryRow(ctx, alertQuery,
		a.ID,
		a.UserID,
		a.URL,
		a.CSSSelector,
		a.ElementType,
		a.Title,
		a.FrequencyMinutes,
		a.FrequencyLabel,
		a.Status,
		a.NotifyEmail,
		a.SlackWebhook,
		a.DiscordWebhook,
	).Scan(&a.NextCheckAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create alert: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("create alert: commit: %w", err)
	}

	return nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Alert, *Counts, error) {
	query := `
		SELECT ` + alertColumns + `,
			(SELECT COUNT(*) FROM snapshots s WHERE s.alert_id = alerts.id),
			(SELECT COUNT(*) FROM changes c WHERE c.alert_id = alerts.id)
		FROM alerts
		WHERE id = $1
	`

	var a Alert
	var counts Counts
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&a.ID,
		&a.UserID,
		&a.URL,
		&a.CSSSelector,
		&a.ElementType,
		&a.Title,
		&a.FrequencyMinutes,
		&a.FrequencyLabel,
		&a.Status,
		&a.NotifyEmail,
		&a.SlackWebhook,
		&a.DiscordWebhook,
		&a.ErrorMessage,
		&a.LastCheckedAt,
		&a.NextCheckAt,
		&a.CreatedAt,
		&a.UpdatedAt,
		&counts.Snapshots,
		&counts.Changes,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, domain.ErrAlertNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get alert by id: %w", err)
	}

	return &a, &counts, nil
}

func (r *Repository) List(ctx context.Context) ([]Alert, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM alerts
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	alerts := make([]Alert, 0)
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("list alerts: scan: %w", err)
		}
		alerts = append(alerts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}

	return alerts, nil
}

// UpdateParams carries partial-update fields; nil means leave unchanged.
type UpdateParams struct {
	Title            *string
	FrequencyMinutes *int
	FrequencyLabel   *string
	Status           *Status
	NotifyEmail      *bool
	SlackWebhook     *string
	DiscordWebhook   *string
	ClearSlack       bool
	ClearDiscord     bool
}

// Update applies a partial update. Resuming reschedules the next check one
// interval out; a frequency change reschedules from the new interval but
// never changes the status.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*Alert, error) {
	set := []string{"updated_at = NOW()"}
	args := []any{id}

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if params.Title != nil {
		set = append(set, "title = "+arg(*params.Title))
	}

	nextCheck := ""
	if params.FrequencyMinutes != nil {
		freq := *params.FrequencyMinutes
		if freq < 1 {
			freq = 1
		}
		set = append(set, "frequency_minutes = "+arg(freq))
		nextCheck = fmt.Sprintf("NOW() + %s * INTERVAL '1 minute'", arg(freq))
	}
	if params.FrequencyLabel != nil {
		set = append(set, "frequency_label = "+arg(*params.FrequencyLabel))
	}
	if params.Status != nil {
		set = append(set, "status = "+arg(string(*params.Status)))
		if *params.Status == StatusActive && nextCheck == "" {
			nextCheck = "NOW() + frequency_minutes * INTERVAL '1 minute'"
		}
	}
	if nextCheck != "" {
		set = append(set, "next_check_at = "+nextCheck)
	}
	if params.NotifyEmail != nil {
		set = append(set, "notify_email = "+arg(*params.NotifyEmail))
	}
	if params.SlackWebhook != nil {
		set = append(set, "slack_webhook = "+arg(*params.SlackWebhook))
	} else if params.ClearSlack {
		set = append(set, "slack_webhook = NULL")
	}
	if params.DiscordWebhook != nil {
		set = append(set, "discord_webhook = "+arg(*params.DiscordWebhook))
	} else if params.ClearDiscord {
		set = append(set, "discord_webhook = NULL")
	}

	query := `
		UPDATE alerts
		SET ` + strings.Join(set, ", ") + `
		WHERE id = $1
		RETURNING ` + alertColumns + `
	`

	a, err := scanAlert(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAlertNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update alert: %w", err)
	}

	return a, nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		DELETE FROM alerts
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete alert: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrAlertNotFound
	}

	return nil
}

// ListDue returns active alerts whose next check time has arrived, joined
// with the owner email and the latest snapshot. A never-checked alert
// (next_check_at NULL) is always due.
func (r *Repository) ListDue(ctx context.Context, now time.Time) ([]DueAlert, error) {
	query := `
		SELECT a.id, a.user_id, a.url, a.css_selector, a.element_type, a.title,
			a.frequency_minutes, a.frequency_label, a.status, a.notify_email,
			a.slack_webhook, a.discord_webhook, a.error_message, a.last_checked_at,
			a.next_check_at, a.created_at, a.updated_at,
			u.email,
			s.id, s.html_content, s.text_content, s.item_count, s.captured_at
		FROM alerts a
		INNER JOIN users u ON u.id = a.user_id
		LEFT JOIN LATERAL (
			SELECT id, html_content, text_content, item_count, captured_at
			FROM snapshots
			WHERE alert_id = a.id
			ORDER BY captured_at DESC
			LIMIT 1
		) s ON true
		WHERE a.status = 'active' AND (a.next_check_at IS NULL OR a.next_check_at <= $1)
		ORDER BY a.next_check_at ASC NULLS FIRST
	`

	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("list due alerts: %w", err)
	}
	defer rows.Close()

	due := make([]DueAlert, 0)
	for rows.Next() {
		var d DueAlert
		var snapID *uuid.UUID
		var snapHTML, snapText *string
		var snapCount *int
		var snapCaptured *time.Time

		err := rows.Scan(
			&d.Alert.ID,
			&d.Alert.UserID,
			&d.Alert.URL,
			&d.Alert.CSSSelector,
			&d.Alert.ElementType,
			&d.Alert.Title,
			&d.Alert.FrequencyMinutes,
			&d.Alert.FrequencyLabel,
			&d.Alert.Status,
			&d.Alert.NotifyEmail,
			&d.Alert.SlackWebhook,
			&d.Alert.DiscordWebhook,
			&d.Alert.ErrorMessage,
			&d.Alert.LastCheckedAt,
			&d.Alert.NextCheckAt,
			&d.Alert.CreatedAt,
			&d.Alert.UpdatedAt,
			&d.OwnerEmail,
			&snapID,
			&snapHTML,
			&snapText,
			&snapCount,
			&snapCaptured,
		)
		if err != nil {
			return nil, fmt.Errorf("list due alerts: scan: %w", err)
		}

		if snapID != nil {
			d.LastSnapshot = &Snapshot{
				ID:          *snapID,
				AlertID:     d.Alert.ID,
				HTMLContent: *snapHTML,
				TextContent: *snapText,
				ItemCount:   snapCount,
				CapturedAt:  *snapCaptured,
			}
		}

		due = append(due, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list due alerts: %w", err)
	}

	return due, nil
}

// SaveSnapshot inserts a snapshot outside a check cycle, used for the
// baseline capture at alert creation.
func (r *Repository) SaveSnapshot(ctx context.Context, s *Snapshot) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}

	query := `
		INSERT INTO snapshots (id, alert_id, html_content, text_content, item_count, captured_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING captured_at
	`

	err := r.pool.QueryRow(ctx, query, s.ID, s.AlertID, s.HTMLContent, s.TextContent, s.ItemCount).
		Scan(&s.CapturedAt)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	return nil
}

// CheckResult is the outcome of one successful alert check.
type CheckResult struct {
	AlertID  uuid.UUID
	Snapshot *Snapshot
	Change   *Change
}

// SaveCheckSuccess persists a check outcome atomically: the new snapshot,
// the detected change when there is one, and the alert's reschedule. A
// partial write never survives a mid-transaction failure.
func (r *Repository) SaveCheckSuccess(ctx context.Context, result *CheckResult, frequencyMinutes int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("save check: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	snap := result.Snapshot
	if snap.ID == uuid.Nil {
		snap.ID = uuid.New()
	}
	snap.AlertID = result.AlertID

	snapshotQuery := `
		INSERT INTO snapshots (id, alert_id, html_content, text_content, item_count, captured_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING captured_at
	`

	err = tx.QueryRow(ctx, snapshotQuery,
		snap.ID,
		snap.AlertID,
		snap.HTMLContent,
		snap.TextContent,
		snap.ItemCount,
	).Scan(&snap.CapturedAt)
	if err != nil {
		return fmt.Errorf("save check: snapshot: %w", err)
	}

	if result.Change != nil {
		change := result.Change
		if change.ID == uuid.Nil {
			change.ID = uuid.New()
		}
		change.AlertID = result.AlertID

		changeQuery := `
			INSERT INTO changes (id, alert_id, change_type, summary, diff_data, notified, detected_at)
			VALUES ($1, $2, $3, $4, $5, false, NOW())
			RETURNING detected_at
		`

		err = tx.QueryRow(ctx, changeQuery,
			change.ID,
			change.AlertID,
			change.Type,
			change.Summary,
			change.Diff,
		).Scan(&change.DetectedAt)
		if err != nil {
			return fmt.Errorf("save check: change: %w", err)
		}
	}

	alertQuery := `
		UPDATE alerts
		SET status = 'active',
			error_message = NULL,
			last_checked_at = NOW(),
			next_check_at = NOW() + $2 * INTERVAL '1 minute',
			updated_at = NOW()
		WHERE id = $1
	`

	if _, err := tx.Exec(ctx, alertQuery, result.AlertID, frequencyMinutes); err != nil {
		return fmt.Errorf("save check: reschedule: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("save check: commit: %w", err)
	}

	return nil
}

// RecordCheckFailure marks the alert errored and reschedules it so a
// transient failure does not stall the schedule. Alerts with a corrupt
// frequency fall back to an hourly retry.
func (r *Repository) RecordCheckFailure(ctx context.Context, alertID uuid.UUID, message string, frequencyMinutes int) error {
	if frequencyMinutes < 1 {
		frequencyMinutes = 60
	}

	query := `
		UPDATE alerts
		SET status = 'error',
			error_message = $2,
			last_checked_at = NOW(),
			next_check_at = NOW() + $3 * INTERVAL '1 minute',
			updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, alertID, message, frequencyMinutes)
	if err != nil {
		return fmt.Errorf("record check failure: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrAlertNotFound
	}

	return nil
}

func (r *Repository) MarkChangeNotified(ctx context.Context, changeID uuid.UUID) error {
	query := `
		UPDATE changes
		SET notified = true, notified_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, changeID)
	if err != nil {
		return fmt.Errorf("mark change notified: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrChangeNotFound
	}

	return nil
}

func (r *Repository) ListChanges(ctx context.Context, alertID uuid.UUID, limit int) ([]Change, error) {
	if limit < 1 {
		limit = 50
	}

	query := `
		SELECT id, alert_id, change_type, summary, diff_data, notified, notified_at, detected_at
		FROM changes
		WHERE alert_id = $1
		ORDER BY detected_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, alertID, limit)
	if err != nil {
		return nil, fmt.Errorf("list changes: %w", err)
	}
	defer rows.Close()

	changes := make([]Change, 0)
	for rows.Next() {
		var c Change
		err := rows.Scan(
			&c.ID,
			&c.AlertID,
			&c.Type,
			&c.Summary,
			&c.Diff,
			&c.Notified,
			&c.NotifiedAt,
			&c.DetectedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("list changes: scan: %w", err)
		}
		changes = append(changes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list changes: %w", err)
	}

	return changes, nil
}
