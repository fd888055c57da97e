package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-dispatch/core"
)

type MutatingService interface {
	CreateItem(ctx context.Context, in core.CreateItemInput) (core.DispatchItem, error)
	UpdateItem(ctx context.Context, id string, in core.UpdateItemInput) (core.DispatchItem, error)
	RunBatch(ctx context.Context, limit int) (core.BatchResult, error)
	StartScheduler(ctx context.Context) error
	StopScheduler()
}

type EnqueueItemCommand struct {
	service MutatingService
}

func NewEnqueueItemCommand(service MutatingService) *EnqueueItemCommand {
	return &EnqueueItemCommand{service: service}
}

func (c *EnqueueItemCommand) Execute(ctx context.Context, msg EnqueueItemMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: enqueue service is required")
	}
	out, err := c.service.CreateItem(ctx, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type UpdateItemCommand struct {
	service MutatingService
}

func NewUpdateItemCommand(service MutatingService) *UpdateItemCommand {
	return &UpdateItemCommand{service: service}
}

func (c *UpdateItemCommand) Execute(ctx context.Context, msg UpdateItemMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: update service is required")
	}
	out, err := c.service.UpdateItem(ctx, msg.ItemID, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type RunBatchCommand struct {
	service MutatingService
}

func NewRunBatchCommand(service MutatingService) *RunBatchCommand {
	return &RunBatchCommand{service: service}
}

func (c *RunBatchCommand) Execute(ctx context.Context, msg RunBatchMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: batch service is required")
	}
	out, err := c.service.RunBatch(ctx, msg.Limit)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type StartSchedulerCommand struct {
	service MutatingService
}

func NewStartSchedulerCommand(service MutatingService) *StartSchedulerCommand {
	return &StartSchedulerCommand{service: service}
}

func (c *StartSchedulerCommand) Execute(ctx context.Context, _ StartSchedulerMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: scheduler service is required")
	}
	return c.service.StartScheduler(ctx)
}

type StopSchedulerCommand struct {
	service MutatingService
}

func NewStopSchedulerCommand(service MutatingService) *StopSchedulerCommand {
	return &StopSchedulerCommand{service: service}
}

func (c *StopSchedulerCommand) Execute(_ context.Context, _ StopSchedulerMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: scheduler service is required")
	}
	c.service.StopScheduler()
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
