package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[EnqueueItemMessage]    = (*EnqueueItemCommand)(nil)
	_ gocmd.Commander[UpdateItemMessage]     = (*UpdateItemCommand)(nil)
	_ gocmd.Commander[RunBatchMessage]       = (*RunBatchCommand)(nil)
	_ gocmd.Commander[StartSchedulerMessage] = (*StartSchedulerCommand)(nil)
	_ gocmd.Commander[StopSchedulerMessage]  = (*StopSchedulerCommand)(nil)
)
