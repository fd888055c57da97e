package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// QueueStore is the single source of truth for dispatch item state. All
// mutations persist synchronously before returning; the design assumes at
// most one active worker per store (no leasing).
type QueueStore interface {
	Create(ctx context.Context, in CreateItemInput) (DispatchItem, error)
	Get(ctx context.Context, id string) (DispatchItem, error)
	List(ctx context.Context, filter ItemFilter) ([]DispatchItem, error)
	Update(ctx context.Context, id string, in UpdateItemInput) (DispatchItem, error)

	// DueItems returns items with status pending or failed whose
	// next_attempt_at has elapsed, ordered by priority descending then
	// created_at ascending, truncated to limit.
	DueItems(ctx context.Context, limit int) ([]DispatchItem, error)

	CountByStatus(ctx context.Context, projectID string) (map[Status]int, error)

	// MarkInFlight transitions an item to in_flight and increments its
	// attempt counter in one persisted write.
	MarkInFlight(ctx context.Context, id string) (DispatchItem, error)
	MarkSent(ctx context.Context, id string) (DispatchItem, error)
	MarkFailed(ctx context.Context, id string, cause error, nextAttemptAt time.Time) (DispatchItem, error)
	MarkDead(ctx context.Context, id string, cause error) (DispatchItem, error)
}

// DeliveryClient performs exactly one delivery attempt for an envelope and
// classifies the outcome. Retry policy lives in the Worker, never here.
type DeliveryClient interface {
	Deliver(ctx context.Context, envelope Envelope) (DeliveryResult, error)
}

// BackoffPolicy maps an attempt number (1-based) to the wait before the
// next retry becomes eligible.
type BackoffPolicy interface {
	NextDelay(attempt int) time.Duration
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

// StoreProvider exposes the stores a repository factory built.
type StoreProvider interface {
	QueueStore() QueueStore
}

// RepositoryStoreFactory builds stores from a persistence client; the SQL
// factory in store/sql implements it.
type RepositoryStoreFactory interface {
	BuildStores(persistenceClient any) (StoreProvider, error)
}

// JobExecutionMessage mirrors the go-job queue message at the contract
// boundary so hosts can drive dispatch batches through their job queue.
type JobExecutionMessage struct {
	JobID          string
	ScriptPath     string
	Parameters     map[string]any
	IdempotencyKey string
	DedupPolicy    string
}

type JobNackOptions struct {
	Delay      time.Duration
	Requeue    bool
	DeadLetter bool
	Reason     string
}

type JobDelivery interface {
	Message() *JobExecutionMessage
	Ack(ctx context.Context) error
	Nack(ctx context.Context, opts JobNackOptions) error
}

type JobEnqueuer interface {
	Enqueue(ctx context.Context, msg *JobExecutionMessage) error
}

type JobDequeuer interface {
	Dequeue(ctx context.Context) (JobDelivery, error)
}

type JobWorkerEvent struct {
	Message   *JobExecutionMessage
	Attempt   int
	Delay     time.Duration
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}

type JobWorkerHook interface {
	OnStart(ctx context.Context, event JobWorkerEvent)
	OnSuccess(ctx context.Context, event JobWorkerEvent)
	OnFailure(ctx context.Context, event JobWorkerEvent)
	OnRetry(ctx context.Context, event JobWorkerEvent)
}
