package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-dispatch/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DispatchItemStore persists queue state in the dispatch_items table. Due
// selection and the Mark* transitions mirror the in-memory store so both
// backends are interchangeable behind core.QueueStore.
type DispatchItemStore struct {
	db   *bun.DB
	repo repository.Repository[*dispatchItemRecord]
	now  func() time.Time
}

func NewDispatchItemStore(db *bun.DB) (*DispatchItemStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*dispatchItemRecord](db, dispatchItemHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid dispatch item repository wiring: %w", err)
		}
	}
	return &DispatchItemStore{
		db:   db,
		repo: repo,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}, nil
}

// SetNow overrides the store clock. Intended for tests.
func (s *DispatchItemStore) SetNow(nowFn func() time.Time) {
	if s == nil || nowFn == nil {
		return
	}
	s.now = nowFn
}

func (s *DispatchItemStore) Create(ctx context.Context, in core.CreateItemInput) (core.DispatchItem, error) {
	if s == nil || s.db == nil {
		return core.DispatchItem{}, fmt.Errorf("sqlstore: dispatch item store is not configured")
	}
	now := s.now()
	priority := in.Priority
	if priority == 0 {
		priority = core.DefaultPriority
	}
	nextAttempt := now
	record := &dispatchItemRecord{
		ID:            uuid.NewString(),
		ProjectID:     strings.TrimSpace(in.ProjectID),
		URL:           strings.TrimSpace(in.URL),
		Field:         strings.TrimSpace(in.Field),
		Value:         in.Value,
		Priority:      priority,
		RequestedBy:   strings.TrimSpace(in.RequestedBy),
		Platform:      strings.TrimSpace(in.Platform),
		ExternalID:    strings.TrimSpace(in.ExternalID),
		Notes:         in.Notes,
		Status:        string(core.StatusPending),
		Attempts:      0,
		NextAttemptAt: &nextAttempt,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := s.repo.Create(ctx, record); err != nil {
		return core.DispatchItem{}, err
	}
	return dispatchItemToDomain(record), nil
}

func (s *DispatchItemStore) Get(ctx context.Context, id string) (core.DispatchItem, error) {
	if s == nil || s.db == nil {
		return core.DispatchItem{}, fmt.Errorf("sqlstore: dispatch item store is not configured")
	}
	record, err := s.getRecord(ctx, id)
	if err != nil {
		return core.DispatchItem{}, err
	}
	return dispatchItemToDomain(record), nil
}

func (s *DispatchItemStore) List(ctx context.Context, filter core.ItemFilter) ([]core.DispatchItem, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: dispatch item store is not configured")
	}
	records := []*dispatchItemRecord{}
	query := s.db.NewSelect().
		Model(&records).
		Order("created_at DESC")
	if projectID := strings.TrimSpace(filter.ProjectID); projectID != "" {
		query = query.Where("?TableAlias.project_id = ?", projectID)
	}
	if filter.Status != "" {
		query = query.Where("?TableAlias.status = ?", string(filter.Status))
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, err
	}
	items := make([]core.DispatchItem, 0, len(records))
	for _, record := range records {
		items = append(items, dispatchItemToDomain(record))
	}
	return items, nil
}

func (s *DispatchItemStore) Update(ctx context.Context, id string, in core.UpdateItemInput) (core.DispatchItem, error) {
	if s == nil || s.db == nil {
		return core.DispatchItem{}, fmt.Errorf("sqlstore: dispatch item store is not configured")
	}
	record, err := s.getRecord(ctx, id)
	if err != nil {
		return core.DispatchItem{}, err
	}

	query := s.db.NewUpdate().
		Model((*dispatchItemRecord)(nil)).
		Where("id = ?", record.ID)

	if in.Priority != nil {
		query = query.Set("priority = ?", *in.Priority)
	}
	if in.Value != nil {
		query = query.Set("value = ?", *in.Value)
	}
	if in.Notes != nil {
		query = query.Set("notes = ?", *in.Notes)
	}
	if !core.Status(record.Status).Terminal() {
		if in.Status != nil && in.Status.Valid() {
			query = query.Set("status = ?", string(*in.Status))
		}
		if in.LastError != nil {
			query = query.Set("last_error = ?", *in.LastError)
		}
		if in.ClearNextAttemptAt {
			query = query.Set("next_attempt_at = NULL")
		} else if in.NextAttemptAt != nil {
			query = query.Set("next_attempt_at = ?", in.NextAttemptAt.UTC())
		}
		if in.SentAt != nil {
			query = query.Set("sent_at = ?", in.SentAt.UTC())
		}
	}
	// Even a no-op update refreshes updated_at, matching the memory store.
	query = query.Set("updated_at = ?", s.now())
	if _, err := query.Exec(ctx); err != nil {
		return core.DispatchItem{}, err
	}
	return s.Get(ctx, record.ID)
}

func (s *DispatchItemStore) DueItems(ctx context.Context, limit int) ([]core.DispatchItem, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: dispatch item store is not configured")
	}
	if limit <= 0 {
		limit = 1
	}
	records := []*dispatchItemRecord{}
	err := s.db.NewSelect().
		Model(&records).
		Where("?TableAlias.status IN (?)", bun.In([]string{
			string(core.StatusPending),
			string(core.StatusFailed),
		})).
		Where("?TableAlias.next_attempt_at IS NOT NULL").
		Where("?TableAlias.next_attempt_at <= ?", s.now()).
		Order("priority DESC").
		Order("created_at ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]core.DispatchItem, 0, len(records))
	for _, record := range records {
		items = append(items, dispatchItemToDomain(record))
	}
	return items, nil
}

func (s *DispatchItemStore) CountByStatus(ctx context.Context, projectID string) (map[core.Status]int, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: dispatch item store is not configured")
	}
	rows := []struct {
		Status string `bun:"status"`
		Count  int    `bun:"count"`
	}{}
	query := s.db.NewSelect().
		Model((*dispatchItemRecord)(nil)).
		ColumnExpr("status").
		ColumnExpr("COUNT(*) AS count").
		Group("status")
	if projectID = strings.TrimSpace(projectID); projectID != "" {
		query = query.Where("?TableAlias.project_id = ?", projectID)
	}
	if err := query.Scan(ctx, &rows); err != nil {
		return nil, err
	}
	counts := make(map[core.Status]int, len(rows))
	for _, row := range rows {
		status, ok := core.ParseStatus(row.Status)
		if !ok {
			continue
		}
		counts[status] = row.Count
	}
	return counts, nil
}

func (s *DispatchItemStore) MarkInFlight(ctx context.Context, id string) (core.DispatchItem, error) {
	return s.transition(ctx, id, func(record *dispatchItemRecord, query *bun.UpdateQuery) *bun.UpdateQuery {
		return query.
			Set("status = ?", string(core.StatusInFlight)).
			Set("attempts = ?", record.Attempts+1)
	})
}

func (s *DispatchItemStore) MarkSent(ctx context.Context, id string) (core.DispatchItem, error) {
	return s.transition(ctx, id, func(_ *dispatchItemRecord, query *bun.UpdateQuery) *bun.UpdateQuery {
		return query.
			Set("status = ?", string(core.StatusSent)).
			Set("last_error = ?", "").
			Set("next_attempt_at = NULL").
			Set("sent_at = ?", s.now())
	})
}

func (s *DispatchItemStore) MarkFailed(ctx context.Context, id string, cause error, nextAttemptAt time.Time) (core.DispatchItem, error) {
	return s.transition(ctx, id, func(_ *dispatchItemRecord, query *bun.UpdateQuery) *bun.UpdateQuery {
		return query.
			Set("status = ?", string(core.StatusFailed)).
			Set("last_error = ?", causeMessage(cause)).
			Set("next_attempt_at = ?", nextAttemptAt.UTC())
	})
}

func (s *DispatchItemStore) MarkDead(ctx context.Context, id string, cause error) (core.DispatchItem, error) {
	return s.transition(ctx, id, func(_ *dispatchItemRecord, query *bun.UpdateQuery) *bun.UpdateQuery {
		return query.
			Set("status = ?", string(core.StatusDead)).
			Set("last_error = ?", causeMessage(cause)).
			Set("next_attempt_at = NULL")
	})
}

func (s *DispatchItemStore) transition(
	ctx context.Context,
	id string,
	apply func(record *dispatchItemRecord, query *bun.UpdateQuery) *bun.UpdateQuery,
) (core.DispatchItem, error) {
	if s == nil || s.db == nil {
		return core.DispatchItem{}, fmt.Errorf("sqlstore: dispatch item store is not configured")
	}
	record, err := s.getRecord(ctx, id)
	if err != nil {
		return core.DispatchItem{}, err
	}
	if core.Status(record.Status).Terminal() {
		return dispatchItemToDomain(record), nil
	}

	query := s.db.NewUpdate().
		Model((*dispatchItemRecord)(nil)).
		Where("id = ?", record.ID)
	query = apply(record, query)
	query = query.Set("updated_at = ?", s.now())
	if _, err := query.Exec(ctx); err != nil {
		return core.DispatchItem{}, err
	}
	return s.Get(ctx, record.ID)
}

func (s *DispatchItemStore) getRecord(ctx context.Context, id string) (*dispatchItemRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("sqlstore: item id is required")
	}
	record := &dispatchItemRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("sqlstore: dispatch item %q not found", id)
		}
		return nil, err
	}
	return record, nil
}

func dispatchItemToDomain(record *dispatchItemRecord) core.DispatchItem {
	if record == nil {
		return core.DispatchItem{}
	}
	item := core.DispatchItem{
		ID:          record.ID,
		ProjectID:   record.ProjectID,
		URL:         record.URL,
		Field:       record.Field,
		Value:       record.Value,
		Priority:    record.Priority,
		RequestedBy: record.RequestedBy,
		Platform:    record.Platform,
		ExternalID:  record.ExternalID,
		Notes:       record.Notes,
		Status:      core.Status(record.Status),
		Attempts:    record.Attempts,
		LastError:   record.LastError,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
	if record.NextAttemptAt != nil {
		value := *record.NextAttemptAt
		item.NextAttemptAt = &value
	}
	if record.SentAt != nil {
		value := *record.SentAt
		item.SentAt = &value
	}
	return item
}

func causeMessage(cause error) string {
	if cause == nil {
		return ""
	}
	return strings.TrimSpace(cause.Error())
}

var _ core.QueueStore = (*DispatchItemStore)(nil)
