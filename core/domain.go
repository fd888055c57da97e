package core

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of a dispatch item. Transitions follow
// pending -> in_flight -> sent | failed | dead; failed items re-enter
// in_flight once re-selected. Sent and dead are terminal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusInFlight Status = "in_flight"
	StatusSent     Status = "sent"
	StatusFailed   Status = "failed"
	StatusDead     Status = "dead"
)

func (s Status) Terminal() bool {
	return s == StatusSent || s == StatusDead
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInFlight, StatusSent, StatusFailed, StatusDead:
		return true
	}
	return false
}

func ParseStatus(value string) (Status, bool) {
	status := Status(strings.TrimSpace(strings.ToLower(value)))
	if !status.Valid() {
		return "", false
	}
	return status, true
}

// DefaultPriority is applied when callers enqueue without a priority.
const DefaultPriority = 5

// DispatchItem is one durable delivery intent. The payload fields
// (ProjectID through Notes) are opaque to the queue: they are forwarded
// verbatim and never validated for meaning.
type DispatchItem struct {
	ID          string
	ProjectID   string
	URL         string
	Field       string
	Value       string
	Priority    int
	RequestedBy string
	Platform    string
	ExternalID  string
	Notes       string

	Status        Status
	Attempts      int
	LastError     string
	NextAttemptAt *time.Time
	SentAt        *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CreateItemInput carries the caller-supplied payload for a new item.
// Duplicate submissions are accepted; the queue has no dedup key.
type CreateItemInput struct {
	ProjectID   string
	URL         string
	Field       string
	Value       string
	Priority    int
	RequestedBy string
	Platform    string
	ExternalID  string
	Notes       string
}

func (in CreateItemInput) Validate() error {
	if strings.TrimSpace(in.ProjectID) == "" {
		return fmt.Errorf("core: project id is required")
	}
	if strings.TrimSpace(in.Field) == "" {
		return fmt.Errorf("core: field is required")
	}
	if in.Priority < 0 {
		return fmt.Errorf("core: priority must be >= 0")
	}
	return nil
}

// ItemFilter narrows List results. Zero values match everything.
type ItemFilter struct {
	ProjectID string
	Status    Status
	Limit     int
}

// UpdateItemInput merges partial fields into an item. Nil pointers leave
// the field untouched. State-transition fields are ignored for terminal
// items; use the Mark* store operations for lifecycle moves.
type UpdateItemInput struct {
	Priority *int
	Value    *string
	Notes    *string

	Status             *Status
	LastError          *string
	NextAttemptAt      *time.Time
	ClearNextAttemptAt bool
	SentAt             *time.Time
}

const (
	EnvelopeType    = "fix.dispatch"
	EnvelopeVersion = "1"
)

// Envelope is the outbound wire format: the item payload wrapped with the
// protocol tag, the post-increment attempt number, and timestamps.
type Envelope struct {
	Type        string    `json:"type"`
	Version     string    `json:"version"`
	EventID     string    `json:"eventId"`
	ProjectID   string    `json:"projectId"`
	URL         string    `json:"url"`
	Field       string    `json:"field"`
	Value       string    `json:"value"`
	Priority    int       `json:"priority"`
	RequestedBy string    `json:"requestedBy"`
	Platform    string    `json:"platform"`
	ExternalID  string    `json:"externalId"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"createdAt"`
	Attempt     int       `json:"attempt"`
	SentAt      time.Time `json:"sentAt"`
}

func NewEnvelope(item DispatchItem, attempt int, sentAt time.Time) Envelope {
	return Envelope{
		Type:        EnvelopeType,
		Version:     EnvelopeVersion,
		EventID:     item.ID,
		ProjectID:   item.ProjectID,
		URL:         item.URL,
		Field:       item.Field,
		Value:       item.Value,
		Priority:    item.Priority,
		RequestedBy: item.RequestedBy,
		Platform:    item.Platform,
		ExternalID:  item.ExternalID,
		Notes:       item.Notes,
		CreatedAt:   item.CreatedAt.UTC(),
		Attempt:     attempt,
		SentAt:      sentAt.UTC(),
	}
}

// DeliveryResult is the classified outcome of one successful attempt.
type DeliveryResult struct {
	StatusCode int
	Body       map[string]any
	RawBody    string
}

// ItemResult summarizes one processed item within a batch.
type ItemResult struct {
	ItemID        string
	Success       bool
	DeadLettered  bool
	Error         string
	Attempts      int
	NextAttemptAt *time.Time
}

// BatchResult aggregates one RunOnce pass.
type BatchResult struct {
	Selected int
	Sent     int
	Retried  int
	Dead     int
	Results  []ItemResult
}

// QueueStats backs the observability surface: item counts by status for
// one project scope.
type QueueStats struct {
	ProjectID string
	Counts    map[Status]int
}
