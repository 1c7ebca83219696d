package alert

import (
	"time"

	"github.com/google/uuid"

	"github.com/alertframe/alertframe/internal/detect"
)

type Status string

const (
	StatusActive Status = "active"
	StatusPaused Status = "paused"
	StatusError  Status = "error"
)

type ElementType string

const (
	ElementSingle ElementType = "single"
	ElementList   ElementType = "list"
)

// Alert is a monitored page element with its check cadence and
// notification targets.
type Alert struct {
	ID               uuid.UUID   `json:"id"`
	UserID           uuid.UUID   `json:"userId"`
	URL              string      `json:"url"`
	CSSSelector      string      `json:"cssSelector"`
	ElementType      ElementType `json:"elementType"`
	Title            string      `json:"title"`
	FrequencyMinutes int         `json:"frequencyMinutes"`
	FrequencyLabel   string      `json:"frequencyLabel"`
	Status           Status      `json:"status"`
	NotifyEmail      bool        `json:"notifyEmail"`
	SlackWebhook     *string     `json:"slackWebhook,omitempty"`
	DiscordWebhook   *string     `json:"discordWebhook,omitempty"`
	ErrorMessage     *string     `json:"errorMessage,omitempty"`
	LastCheckedAt    *time.Time  `json:"lastCheckedAt,omitempty"`
	NextCheckAt      *time.Time  `json:"nextCheckAt,omitempty"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

// Snapshot is the captured state of an alert's element at one check.
type Snapshot struct {
	ID          uuid.UUID `json:"id"`
	AlertID     uuid.UUID `json:"alertId"`
	HTMLContent string    `json:"htmlContent"`
	TextContent string    `json:"textContent"`
	ItemCount   *int      `json:"itemCount,omitempty"`
	CapturedAt  time.Time `json:"capturedAt"`
}

// Content converts the snapshot for comparison against a fresh extraction.
func (s *Snapshot) Content() detect.Content {
	return detect.Content{
		HTMLContent: s.HTMLContent,
		TextContent: s.TextContent,
		ItemCount:   s.ItemCount,
	}
}

// Change records one detected difference between consecutive snapshots.
type Change struct {
	ID         uuid.UUID         `json:"id"`
	AlertID    uuid.UUID         `json:"alertId"`
	Type       detect.ChangeType `json:"changeType"`
	Summary    string            `json:"summary"`
	Diff       *detect.DiffData  `json:"diffData,omitempty"`
	Notified   bool              `json:"notified"`
	NotifiedAt *time.Time        `json:"notifiedAt,omitempty"`
	DetectedAt time.Time         `json:"detectedAt"`
}

// DueAlert is an active alert picked up by a sweep, joined with its owner
// and most recent snapshot (nil on the baseline check).
type DueAlert struct {
	Alert        Alert
	OwnerEmail   string
	LastSnapshot *Snapshot
}

// Counts accompanies an alert detail view.
type Counts struct {
	Snapshots int `json:"snapshots"`
	Changes   int `json:"changes"`
}
