package command

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-dispatch/core"
)

const (
	TypeEnqueueItem    = "dispatch.command.item.enqueue"
	TypeUpdateItem     = "dispatch.command.item.update"
	TypeRunBatch       = "dispatch.command.batch.run"
	TypeStartScheduler = "dispatch.command.scheduler.start"
	TypeStopScheduler  = "dispatch.command.scheduler.stop"
)

type EnqueueItemMessage struct {
	Input core.CreateItemInput
}

func (EnqueueItemMessage) Type() string { return TypeEnqueueItem }

func (m EnqueueItemMessage) Validate() error {
	if strings.TrimSpace(m.Input.ProjectID) == "" {
		return commandValidationError("project_id", "project id is required")
	}
	if strings.TrimSpace(m.Input.Field) == "" {
		return commandValidationError("field", "field is required")
	}
	if m.Input.Priority < 0 {
		return commandValidationError("priority", "priority must be >= 0")
	}
	return nil
}

type UpdateItemMessage struct {
	ItemID string
	Input  core.UpdateItemInput
}

func (UpdateItemMessage) Type() string { return TypeUpdateItem }

func (m UpdateItemMessage) Validate() error {
	if strings.TrimSpace(m.ItemID) == "" {
		return commandValidationError("item_id", "item id is required")
	}
	if m.Input.Status != nil && !m.Input.Status.Valid() {
		return commandInvalidInputError(fmt.Sprintf("command: invalid status %q", *m.Input.Status))
	}
	return nil
}

type RunBatchMessage struct {
	Limit int
}

func (RunBatchMessage) Type() string { return TypeRunBatch }

func (m RunBatchMessage) Validate() error {
	if m.Limit < 0 {
		return commandInvalidInputError("command: limit must be >= 0")
	}
	return nil
}

type StartSchedulerMessage struct{}

func (StartSchedulerMessage) Type() string { return TypeStartScheduler }

func (StartSchedulerMessage) Validate() error { return nil }

type StopSchedulerMessage struct{}

func (StopSchedulerMessage) Type() string { return TypeStopScheduler }

func (StopSchedulerMessage) Validate() error { return nil }
