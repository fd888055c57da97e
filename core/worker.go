package core

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type WorkerConfig struct {
	MaxAttempts int
	BatchLimit  int
}

func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		MaxAttempts: DefaultMaxAttempts,
		BatchLimit:  defaultBatchLimit,
	}
}

// Worker drains due items from the queue store one at a time. Each item
// is claimed (in_flight, attempts incremented) before the delivery call so
// a crash mid-delivery never loses the attempt count.
type Worker struct {
	store    QueueStore
	delivery DeliveryClient
	backoff  BackoffPolicy
	config   WorkerConfig
	now      func() time.Time
}

func NewWorker(
	store QueueStore,
	delivery DeliveryClient,
	backoff BackoffPolicy,
	config WorkerConfig,
) (*Worker, error) {
	if store == nil {
		return nil, fmt.Errorf("core: queue store is required")
	}
	if delivery == nil {
		return nil, fmt.Errorf("core: delivery client is required")
	}
	if backoff == nil {
		backoff = TableBackoffPolicy{}
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultWorkerConfig().MaxAttempts
	}
	if config.BatchLimit <= 0 {
		config.BatchLimit = DefaultWorkerConfig().BatchLimit
	}
	return &Worker{
		store:    store,
		delivery: delivery,
		backoff:  backoff,
		config:   config,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}, nil
}

// SetNow overrides the worker clock. Intended for tests.
func (w *Worker) SetNow(nowFn func() time.Time) {
	if w == nil || nowFn == nil {
		return
	}
	w.now = nowFn
}

// RunOnce selects due items and processes them sequentially. A failed item
// never aborts the batch; per item outcomes are collected in the result.
func (w *Worker) RunOnce(ctx context.Context, limit int) (BatchResult, error) {
	if w == nil || w.store == nil {
		return BatchResult{}, fmt.Errorf("core: dispatch worker is not configured")
	}
	if limit <= 0 {
		limit = w.config.BatchLimit
	}
	due, err := w.store.DueItems(ctx, limit)
	if err != nil {
		return BatchResult{}, fmt.Errorf("core: selecting due items: %w", err)
	}

	result := BatchResult{Selected: len(due)}
	for _, item := range due {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		outcome := w.ProcessOne(ctx, item)
		result.Results = append(result.Results, outcome)
		switch {
		case outcome.Success:
			result.Sent++
		case outcome.DeadLettered:
			result.Dead++
		default:
			result.Retried++
		}
	}
	return result, nil
}

// ProcessOne drives a single item through one delivery attempt and records
// the resulting state transition.
func (w *Worker) ProcessOne(ctx context.Context, item DispatchItem) ItemResult {
	outcome := ItemResult{ItemID: item.ID}
	if w == nil || w.store == nil || w.delivery == nil {
		outcome.Error = "dispatch worker is not configured"
		return outcome
	}

	claimed, err := w.store.MarkInFlight(ctx, strings.TrimSpace(item.ID))
	if err != nil {
		outcome.Error = err.Error()
		return outcome
	}
	outcome.Attempts = claimed.Attempts

	sentAt := w.now()
	envelope := NewEnvelope(claimed, claimed.Attempts, sentAt)
	_, deliverErr := w.delivery.Deliver(ctx, envelope)
	if deliverErr == nil {
		if _, err := w.store.MarkSent(ctx, claimed.ID); err != nil {
			outcome.Error = err.Error()
			return outcome
		}
		outcome.Success = true
		return outcome
	}

	outcome.Error = deliverErr.Error()
	if claimed.Attempts >= w.config.MaxAttempts {
		if _, err := w.store.MarkDead(ctx, claimed.ID, deliverErr); err != nil {
			outcome.Error = joinErrors(deliverErr, err).Error()
			return outcome
		}
		outcome.DeadLettered = true
		return outcome
	}

	nextAttemptAt := w.now().Add(w.backoff.NextDelay(claimed.Attempts))
	if _, err := w.store.MarkFailed(ctx, claimed.ID, deliverErr, nextAttemptAt); err != nil {
		outcome.Error = joinErrors(deliverErr, err).Error()
		return outcome
	}
	outcome.NextAttemptAt = &nextAttemptAt
	return outcome
}

func joinErrors(existing error, next error) error {
	if existing == nil {
		return next
	}
	if next == nil {
		return existing
	}
	return fmt.Errorf("%w; %v", existing, next)
}
