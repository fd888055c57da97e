package query

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-dispatch/core"
)

const (
	TypeGetItem    = "dispatch.query.item.get"
	TypeListItems  = "dispatch.query.item.list"
	TypeDueItems   = "dispatch.query.item.due"
	TypeQueueStats = "dispatch.query.stats"
)

type GetItemMessage struct {
	ItemID string
}

func (GetItemMessage) Type() string { return TypeGetItem }

func (m GetItemMessage) Validate() error {
	if strings.TrimSpace(m.ItemID) == "" {
		return queryInvalidInputError("query: item id is required")
	}
	return nil
}

type ListItemsMessage struct {
	Filter core.ItemFilter
}

func (ListItemsMessage) Type() string { return TypeListItems }

func (m ListItemsMessage) Validate() error {
	if m.Filter.Status != "" && !m.Filter.Status.Valid() {
		return queryInvalidInputError(fmt.Sprintf("query: invalid status filter %q", m.Filter.Status))
	}
	if m.Filter.Limit < 0 {
		return queryInvalidInputError("query: limit must be >= 0")
	}
	return nil
}

type DueItemsMessage struct {
	Limit int
}

func (DueItemsMessage) Type() string { return TypeDueItems }

func (m DueItemsMessage) Validate() error {
	if m.Limit < 0 {
		return queryInvalidInputError("query: limit must be >= 0")
	}
	return nil
}

type QueueStatsMessage struct {
	ProjectID string
}

func (QueueStatsMessage) Type() string { return TypeQueueStats }

func (QueueStatsMessage) Validate() error { return nil }
