package query

import (
	"context"

	"github.com/goliatone/go-dispatch/core"
)

type ItemReader interface {
	GetItem(ctx context.Context, id string) (core.DispatchItem, error)
	ListItems(ctx context.Context, filter core.ItemFilter) ([]core.DispatchItem, error)
	QueueStats(ctx context.Context, projectID string) (core.QueueStats, error)
}

type DueItemReader interface {
	DueItems(ctx context.Context, limit int) ([]core.DispatchItem, error)
}

type GetItemQuery struct {
	reader ItemReader
}

func NewGetItemQuery(reader ItemReader) *GetItemQuery {
	return &GetItemQuery{reader: reader}
}

func (q *GetItemQuery) Query(ctx context.Context, msg GetItemMessage) (core.DispatchItem, error) {
	if q == nil || q.reader == nil {
		return core.DispatchItem{}, queryDependencyError("query: item reader is required")
	}
	return q.reader.GetItem(ctx, msg.ItemID)
}

type ListItemsQuery struct {
	reader ItemReader
}

func NewListItemsQuery(reader ItemReader) *ListItemsQuery {
	return &ListItemsQuery{reader: reader}
}

func (q *ListItemsQuery) Query(ctx context.Context, msg ListItemsMessage) ([]core.DispatchItem, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: item reader is required")
	}
	return q.reader.ListItems(ctx, msg.Filter)
}

type DueItemsQuery struct {
	reader DueItemReader
}

func NewDueItemsQuery(reader DueItemReader) *DueItemsQuery {
	return &DueItemsQuery{reader: reader}
}

func (q *DueItemsQuery) Query(ctx context.Context, msg DueItemsMessage) ([]core.DispatchItem, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: due item reader is required")
	}
	return q.reader.DueItems(ctx, msg.Limit)
}

type QueueStatsQuery struct {
	reader ItemReader
}

func NewQueueStatsQuery(reader ItemReader) *QueueStatsQuery {
	return &QueueStatsQuery{reader: reader}
}

func (q *QueueStatsQuery) Query(ctx context.Context, msg QueueStatsMessage) (core.QueueStats, error) {
	if q == nil || q.reader == nil {
		return core.QueueStats{}, queryDependencyError("query: item reader is required")
	}
	return q.reader.QueueStats(ctx, msg.ProjectID)
}
