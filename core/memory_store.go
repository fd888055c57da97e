package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryQueueStore is the default QueueStore when no repository factory is
// supplied. It honors the same ordering and terminal-state rules as the
// SQL store and is safe for concurrent use.
type MemoryQueueStore struct {
	mu    sync.Mutex
	items map[string]DispatchItem
	nowFn func() time.Time
}

func NewMemoryQueueStore() *MemoryQueueStore {
	return &MemoryQueueStore{
		items: make(map[string]DispatchItem),
		nowFn: func() time.Time { return time.Now().UTC() },
	}
}

// SetNow overrides the store clock. Intended for tests.
func (s *MemoryQueueStore) SetNow(nowFn func() time.Time) {
	if s == nil || nowFn == nil {
		return
	}
	s.mu.Lock()
	s.nowFn = nowFn
	s.mu.Unlock()
}

func (s *MemoryQueueStore) Create(_ context.Context, in CreateItemInput) (DispatchItem, error) {
	if s == nil {
		return DispatchItem{}, fmt.Errorf("core: memory queue store is not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFn().UTC()
	priority := in.Priority
	if priority == 0 {
		priority = DefaultPriority
	}
	nextAttempt := now
	item := DispatchItem{
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
		Status:        StatusPending,
		Attempts:      0,
		NextAttemptAt: &nextAttempt,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.items[item.ID] = item
	return item, nil
}

func (s *MemoryQueueStore) Get(_ context.Context, id string) (DispatchItem, error) {
	if s == nil {
		return DispatchItem{}, fmt.Errorf("core: memory queue store is not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked(id)
}

func (s *MemoryQueueStore) List(_ context.Context, filter ItemFilter) ([]DispatchItem, error) {
	if s == nil {
		return nil, fmt.Errorf("core: memory queue store is not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	projectID := strings.TrimSpace(filter.ProjectID)
	out := make([]DispatchItem, 0, len(s.items))
	for _, item := range s.items {
		if projectID != "" && item.ProjectID != projectID {
			continue
		}
		if filter.Status != "" && item.Status != filter.Status {
			continue
		}
		out = append(out, cloneItem(item))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *MemoryQueueStore) Update(_ context.Context, id string, in UpdateItemInput) (DispatchItem, error) {
	if s == nil {
		return DispatchItem{}, fmt.Errorf("core: memory queue store is not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.locked(id)
	if err != nil {
		return DispatchItem{}, err
	}

	if in.Priority != nil {
		item.Priority = *in.Priority
	}
	if in.Value != nil {
		item.Value = *in.Value
	}
	if in.Notes != nil {
		item.Notes = *in.Notes
	}
	if !item.Status.Terminal() {
		if in.Status != nil && in.Status.Valid() {
			item.Status = *in.Status
		}
		if in.LastError != nil {
			item.LastError = *in.LastError
		}
		if in.ClearNextAttemptAt {
			item.NextAttemptAt = nil
		} else if in.NextAttemptAt != nil {
			next := in.NextAttemptAt.UTC()
			item.NextAttemptAt = &next
		}
		if in.SentAt != nil {
			sentAt := in.SentAt.UTC()
			item.SentAt = &sentAt
		}
	}
	item.UpdatedAt = s.nowFn().UTC()
	s.items[item.ID] = item
	return cloneItem(item), nil
}

func (s *MemoryQueueStore) DueItems(_ context.Context, limit int) ([]DispatchItem, error) {
	if s == nil {
		return nil, fmt.Errorf("core: memory queue store is not configured")
	}
	if limit <= 0 {
		limit = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFn().UTC()
	due := make([]DispatchItem, 0, limit)
	for _, item := range s.items {
		if item.Status != StatusPending && item.Status != StatusFailed {
			continue
		}
		if item.NextAttemptAt == nil || item.NextAttemptAt.After(now) {
			continue
		}
		due = append(due, cloneItem(item))
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].Priority != due[j].Priority {
			return due[i].Priority > due[j].Priority
		}
		return due[i].CreatedAt.Before(due[j].CreatedAt)
	})
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (s *MemoryQueueStore) CountByStatus(_ context.Context, projectID string) (map[Status]int, error) {
	if s == nil {
		return nil, fmt.Errorf("core: memory queue store is not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	projectID = strings.TrimSpace(projectID)
	counts := make(map[Status]int)
	for _, item := range s.items {
		if projectID != "" && item.ProjectID != projectID {
			continue
		}
		counts[item.Status]++
	}
	return counts, nil
}

func (s *MemoryQueueStore) MarkInFlight(_ context.Context, id string) (DispatchItem, error) {
	return s.transition(id, func(item *DispatchItem) {
		item.Status = StatusInFlight
		item.Attempts++
	})
}

func (s *MemoryQueueStore) MarkSent(_ context.Context, id string) (DispatchItem, error) {
	return s.transition(id, func(item *DispatchItem) {
		now := s.nowFn().UTC()
		item.Status = StatusSent
		item.LastError = ""
		item.NextAttemptAt = nil
		item.SentAt = &now
	})
}

func (s *MemoryQueueStore) MarkFailed(_ context.Context, id string, cause error, nextAttemptAt time.Time) (DispatchItem, error) {
	return s.transition(id, func(item *DispatchItem) {
		next := nextAttemptAt.UTC()
		item.Status = StatusFailed
		item.LastError = causeMessage(cause)
		item.NextAttemptAt = &next
	})
}

func (s *MemoryQueueStore) MarkDead(_ context.Context, id string, cause error) (DispatchItem, error) {
	return s.transition(id, func(item *DispatchItem) {
		item.Status = StatusDead
		item.LastError = causeMessage(cause)
		item.NextAttemptAt = nil
	})
}

func (s *MemoryQueueStore) transition(id string, apply func(item *DispatchItem)) (DispatchItem, error) {
	if s == nil {
		return DispatchItem{}, fmt.Errorf("core: memory queue store is not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.locked(id)
	if err != nil {
		return DispatchItem{}, err
	}
	if item.Status.Terminal() {
		return cloneItem(item), nil
	}
	apply(&item)
	item.UpdatedAt = s.nowFn().UTC()
	s.items[item.ID] = item
	return cloneItem(item), nil
}

func (s *MemoryQueueStore) locked(id string) (DispatchItem, error) {
	item, ok := s.items[strings.TrimSpace(id)]
	if !ok {
		return DispatchItem{}, fmt.Errorf("core: dispatch item %q not found", id)
	}
	return cloneItem(item), nil
}

func cloneItem(item DispatchItem) DispatchItem {
	cloned := item
	if item.NextAttemptAt != nil {
		next := *item.NextAttemptAt
		cloned.NextAttemptAt = &next
	}
	if item.SentAt != nil {
		sentAt := *item.SentAt
		cloned.SentAt = &sentAt
	}
	return cloned
}

func causeMessage(cause error) string {
	if cause == nil {
		return ""
	}
	return strings.TrimSpace(cause.Error())
}

var _ QueueStore = (*MemoryQueueStore)(nil)
