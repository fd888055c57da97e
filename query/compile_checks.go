package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-dispatch/core"
)

var (
	_ gocmd.Querier[GetItemMessage, core.DispatchItem]     = (*GetItemQuery)(nil)
	_ gocmd.Querier[ListItemsMessage, []core.DispatchItem] = (*ListItemsQuery)(nil)
	_ gocmd.Querier[DueItemsMessage, []core.DispatchItem]  = (*DueItemsQuery)(nil)
	_ gocmd.Querier[QueueStatsMessage, core.QueueStats]    = (*QueueStatsQuery)(nil)
)
