package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-dispatch/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const dispatchItemCacheKeyPrefix = "go-dispatch::item::v1"

// CachedDispatchItemStore layers read caching over a base queue store.
// Only Get is served from cache; every mutation invalidates the item key
// so batch processing always sees fresh state.
type CachedDispatchItemStore struct {
	base  core.QueueStore
	cache repositorycache.CacheService
}

func NewCachedDispatchItemStore(
	base core.QueueStore,
	cacheService repositorycache.CacheService,
) (*CachedDispatchItemStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base dispatch item store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: dispatch item cache service is required")
	}
	return &CachedDispatchItemStore{base: base, cache: cacheService}, nil
}

// DispatchItemCacheKey returns the deterministic cache key for one item:
// go-dispatch::item::v1::<id> with the id URL-path escaped.
func DispatchItemCacheKey(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("sqlstore: item id is required for cache key")
	}
	return dispatchItemCacheKeyPrefix + "::" + url.PathEscape(id), nil
}

func (s *CachedDispatchItemStore) Create(ctx context.Context, in core.CreateItemInput) (core.DispatchItem, error) {
	if s == nil || s.base == nil {
		return core.DispatchItem{}, fmt.Errorf("sqlstore: cached dispatch item store is not configured")
	}
	return s.base.Create(ctx, in)
}

func (s *CachedDispatchItemStore) Get(ctx context.Context, id string) (core.DispatchItem, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.DispatchItem{}, fmt.Errorf("sqlstore: cached dispatch item store is not configured")
	}
	cacheKey, err := DispatchItemCacheKey(id)
	if err != nil {
		return core.DispatchItem{}, err
	}
	item, err := repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (core.DispatchItem, error) {
		return s.base.Get(ctx, strings.TrimSpace(id))
	})
	if err != nil {
		return core.DispatchItem{}, err
	}
	return item, nil
}

func (s *CachedDispatchItemStore) List(ctx context.Context, filter core.ItemFilter) ([]core.DispatchItem, error) {
	if s == nil || s.base == nil {
		return nil, fmt.Errorf("sqlstore: cached dispatch item store is not configured")
	}
	return s.base.List(ctx, filter)
}

func (s *CachedDispatchItemStore) Update(ctx context.Context, id string, in core.UpdateItemInput) (core.DispatchItem, error) {
	if s == nil || s.base == nil {
		return core.DispatchItem{}, fmt.Errorf("sqlstore: cached dispatch item store is not configured")
	}
	item, err := s.base.Update(ctx, id, in)
	if err != nil {
		return core.DispatchItem{}, err
	}
	if err := s.invalidate(ctx, id); err != nil {
		return core.DispatchItem{}, err
	}
	return item, nil
}

func (s *CachedDispatchItemStore) DueItems(ctx context.Context, limit int) ([]core.DispatchItem, error) {
	if s == nil || s.base == nil {
		return nil, fmt.Errorf("sqlstore: cached dispatch item store is not configured")
	}
	return s.base.DueItems(ctx, limit)
}

func (s *CachedDispatchItemStore) CountByStatus(ctx context.Context, projectID string) (map[core.Status]int, error) {
	if s == nil || s.base == nil {
		return nil, fmt.Errorf("sqlstore: cached dispatch item store is not configured")
	}
	return s.base.CountByStatus(ctx, projectID)
}

func (s *CachedDispatchItemStore) MarkInFlight(ctx context.Context, id string) (core.DispatchItem, error) {
	return s.transition(ctx, id, func(ctx context.Context) (core.DispatchItem, error) {
		return s.base.MarkInFlight(ctx, id)
	})
}

func (s *CachedDispatchItemStore) MarkSent(ctx context.Context, id string) (core.DispatchItem, error) {
	return s.transition(ctx, id, func(ctx context.Context) (core.DispatchItem, error) {
		return s.base.MarkSent(ctx, id)
	})
}

func (s *CachedDispatchItemStore) MarkFailed(ctx context.Context, id string, cause error, nextAttemptAt time.Time) (core.DispatchItem, error) {
	return s.transition(ctx, id, func(ctx context.Context) (core.DispatchItem, error) {
		return s.base.MarkFailed(ctx, id, cause, nextAttemptAt)
	})
}

func (s *CachedDispatchItemStore) MarkDead(ctx context.Context, id string, cause error) (core.DispatchItem, error) {
	return s.transition(ctx, id, func(ctx context.Context) (core.DispatchItem, error) {
		return s.base.MarkDead(ctx, id, cause)
	})
}

func (s *CachedDispatchItemStore) transition(
	ctx context.Context,
	id string,
	apply func(ctx context.Context) (core.DispatchItem, error),
) (core.DispatchItem, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.DispatchItem{}, fmt.Errorf("sqlstore: cached dispatch item store is not configured")
	}
	item, err := apply(ctx)
	if err != nil {
		return core.DispatchItem{}, err
	}
	if err := s.invalidate(ctx, id); err != nil {
		return core.DispatchItem{}, err
	}
	return item, nil
}

func (s *CachedDispatchItemStore) invalidate(ctx context.Context, id string) error {
	cacheKey, err := DispatchItemCacheKey(id)
	if err != nil {
		return err
	}
	return s.cache.Delete(ctx, cacheKey)
}

var _ core.QueueStore = (*CachedDispatchItemStore)(nil)
