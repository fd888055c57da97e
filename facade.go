package dispatch

import (
	"fmt"

	dispatchcommand "github.com/goliatone/go-dispatch/command"
	"github.com/goliatone/go-dispatch/query"
)

// CommandQueryService is the surface the facade handlers require.
type CommandQueryService interface {
	dispatchcommand.MutatingService
	query.ItemReader
}

type Commands struct {
	EnqueueItem    *dispatchcommand.EnqueueItemCommand
	UpdateItem     *dispatchcommand.UpdateItemCommand
	RunBatch       *dispatchcommand.RunBatchCommand
	StartScheduler *dispatchcommand.StartSchedulerCommand
	StopScheduler  *dispatchcommand.StopSchedulerCommand
}

type Queries struct {
	GetItem    *query.GetItemQuery
	ListItems  *query.ListItemsQuery
	QueueStats *query.QueueStatsQuery
}

// Facade bundles the command and query handlers for hosts that wire the
// queue through go-command dispatch.
type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

func NewFacade(service CommandQueryService) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("dispatch: command/query service is required")
	}
	facade := &Facade{service: service}
	facade.commands = Commands{
		EnqueueItem:    dispatchcommand.NewEnqueueItemCommand(service),
		UpdateItem:     dispatchcommand.NewUpdateItemCommand(service),
		RunBatch:       dispatchcommand.NewRunBatchCommand(service),
		StartScheduler: dispatchcommand.NewStartSchedulerCommand(service),
		StopScheduler:  dispatchcommand.NewStopSchedulerCommand(service),
	}
	facade.queries = Queries{
		GetItem:    query.NewGetItemQuery(service),
		ListItems:  query.NewListItemsQuery(service),
		QueueStats: query.NewQueueStatsQuery(service),
	}
	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}
