package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type dispatchItemRecord struct {
	bun.BaseModel `bun:"table:dispatch_items,alias:di"`

	ID            string     `bun:"id,pk"`
	ProjectID     string     `bun:"project_id,notnull"`
	URL           string     `bun:"url"`
	Field         string     `bun:"field,notnull"`
	Value         string     `bun:"value"`
	Priority      int        `bun:"priority,notnull"`
	RequestedBy   string     `bun:"requested_by"`
	Platform      string     `bun:"platform"`
	ExternalID    string     `bun:"external_id"`
	Notes         string     `bun:"notes"`
	Status        string     `bun:"status,notnull"`
	Attempts      int        `bun:"attempts,notnull"`
	LastError     string     `bun:"last_error"`
	NextAttemptAt *time.Time `bun:"next_attempt_at,nullzero"`
	SentAt        *time.Time `bun:"sent_at,nullzero"`
	CreatedAt     time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt     time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
