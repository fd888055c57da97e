package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubDeliveryClient struct {
	envelopes []Envelope
	results   []DeliveryResult
	errs      []error
}

func (c *stubDeliveryClient) Deliver(_ context.Context, envelope Envelope) (DeliveryResult, error) {
	index := len(c.envelopes)
	c.envelopes = append(c.envelopes, envelope)
	var result DeliveryResult
	if index < len(c.results) {
		result = c.results[index]
	}
	var err error
	if index < len(c.errs) {
		err = c.errs[index]
	}
	return result, err
}

func newWorkerFixture(t *testing.T, delivery *stubDeliveryClient, now time.Time) (*Worker, *MemoryQueueStore) {
	t.Helper()
	store := NewMemoryQueueStore()
	store.SetNow(func() time.Time { return now })

	worker, err := NewWorker(store, delivery, TableBackoffPolicy{}, DefaultWorkerConfig())
	if err != nil {
		t.Fatalf("new worker: %v", err)
	}
	worker.SetNow(func() time.Time { return now })
	return worker, store
}

func TestWorker_ProcessOneSuccess(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	delivery := &stubDeliveryClient{}
	worker, store := newWorkerFixture(t, delivery, now)

	ctx := context.Background()
	item, _ := store.Create(ctx, CreateItemInput{
		ProjectID: "proj_1",
		Field:     "status",
		Value:     "fixed",
		Priority:  7,
	})

	outcome := worker.ProcessOne(ctx, item)
	if !outcome.Success || outcome.DeadLettered {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if outcome.Attempts != 1 {
		t.Fatalf("expected attempt 1, got %d", outcome.Attempts)
	}

	if len(delivery.envelopes) != 1 {
		t.Fatalf("expected one delivery, got %d", len(delivery.envelopes))
	}
	envelope := delivery.envelopes[0]
	if envelope.Type != EnvelopeType || envelope.Version != EnvelopeVersion {
		t.Fatalf("unexpected protocol tag: %+v", envelope)
	}
	if envelope.EventID != item.ID || envelope.Attempt != 1 {
		t.Fatalf("unexpected envelope identity: %+v", envelope)
	}
	if !envelope.SentAt.Equal(now) {
		t.Fatalf("expected sentAt %s, got %s", now, envelope.SentAt)
	}

	persisted, _ := store.Get(ctx, item.ID)
	if persisted.Status != StatusSent || persisted.SentAt == nil {
		t.Fatalf("expected sent state, got %+v", persisted)
	}
	if persisted.NextAttemptAt != nil || persisted.LastError != "" {
		t.Fatalf("expected cleared schedule on success, got %+v", persisted)
	}
}

func TestWorker_ProcessOneFailureSchedulesRetry(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	delivery := &stubDeliveryClient{errs: []error{errors.New("delivery failed: receiver rejected")}}
	worker, store := newWorkerFixture(t, delivery, now)

	ctx := context.Background()
	item, _ := store.Create(ctx, CreateItemInput{ProjectID: "proj_1", Field: "status"})

	outcome := worker.ProcessOne(ctx, item)
	if outcome.Success || outcome.DeadLettered {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if outcome.NextAttemptAt == nil {
		t.Fatalf("expected retry schedule")
	}
	expected := now.Add(30 * time.Second)
	if !outcome.NextAttemptAt.Equal(expected) {
		t.Fatalf("expected next attempt at %s, got %s", expected, outcome.NextAttemptAt)
	}

	persisted, _ := store.Get(ctx, item.ID)
	if persisted.Status != StatusFailed || persisted.Attempts != 1 {
		t.Fatalf("unexpected persisted state: %+v", persisted)
	}
	if persisted.LastError == "" {
		t.Fatalf("expected recorded cause")
	}
}

func TestWorker_ProcessOneExhaustedGoesDead(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	delivery := &stubDeliveryClient{errs: []error{errors.New("delivery failed: still broken")}}
	worker, store := newWorkerFixture(t, delivery, now)

	ctx := context.Background()
	item, _ := store.Create(ctx, CreateItemInput{ProjectID: "proj_1", Field: "status"})
	for i := 0; i < DefaultMaxAttempts-1; i++ {
		if _, err := store.MarkInFlight(ctx, item.ID); err != nil {
			t.Fatalf("mark in flight: %v", err)
		}
		if _, err := store.MarkFailed(ctx, item.ID, errors.New("boom"), now); err != nil {
			t.Fatalf("mark failed: %v", err)
		}
	}

	outcome := worker.ProcessOne(ctx, item)
	if !outcome.DeadLettered || outcome.Success {
		t.Fatalf("expected dead letter outcome: %+v", outcome)
	}
	if outcome.Attempts != DefaultMaxAttempts {
		t.Fatalf("expected attempt %d, got %d", DefaultMaxAttempts, outcome.Attempts)
	}

	persisted, _ := store.Get(ctx, item.ID)
	if persisted.Status != StatusDead || persisted.NextAttemptAt != nil {
		t.Fatalf("unexpected persisted state: %+v", persisted)
	}
}

func TestWorker_RetriesUntilReceiverAccepts(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryQueueStore()
	current := base
	store.SetNow(func() time.Time { return current })

	ctx := context.Background()
	item, err := store.Create(ctx, CreateItemInput{ProjectID: "proj_1", Field: "status", Value: "fixed"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	delivery := &stubDeliveryClient{errs: []error{
		errors.New("delivery failed: receiver rejected"),
		errors.New("delivery failed: receiver rejected"),
		nil,
	}}
	worker, err := NewWorker(store, delivery, TableBackoffPolicy{}, DefaultWorkerConfig())
	if err != nil {
		t.Fatalf("new worker: %v", err)
	}
	worker.SetNow(func() time.Time { return current })

	for round := 1; round <= 3; round++ {
		result, err := worker.RunOnce(ctx, 10)
		if err != nil {
			t.Fatalf("run once round %d: %v", round, err)
		}
		if result.Selected != 1 {
			t.Fatalf("round %d: expected one due item, got %+v", round, result)
		}

		persisted, _ := store.Get(ctx, item.ID)
		if round < 3 {
			if persisted.Status != StatusFailed || persisted.Attempts != round {
				t.Fatalf("round %d: unexpected state %+v", round, persisted)
			}
			if persisted.NextAttemptAt == nil {
				t.Fatalf("round %d: expected retry schedule", round)
			}
			current = persisted.NextAttemptAt.Add(time.Second)
			continue
		}
		if persisted.Status != StatusSent || persisted.Attempts != 3 {
			t.Fatalf("expected sent after third attempt, got %+v", persisted)
		}
		if persisted.SentAt == nil || persisted.NextAttemptAt != nil || persisted.LastError != "" {
			t.Fatalf("expected clean terminal success state, got %+v", persisted)
		}
	}

	if len(delivery.envelopes) != 3 {
		t.Fatalf("expected three delivery attempts, got %d", len(delivery.envelopes))
	}
	for i, envelope := range delivery.envelopes {
		if envelope.Attempt != i+1 {
			t.Fatalf("expected attempt %d in envelope, got %d", i+1, envelope.Attempt)
		}
	}
}

func TestWorker_RunOnceFailureNeverAbortsBatch(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryQueueStore()
	current := base
	store.SetNow(func() time.Time { return current })

	ctx := context.Background()
	first, _ := store.Create(ctx, CreateItemInput{ProjectID: "p", Field: "f", Priority: 9})
	current = base.Add(time.Second)
	second, _ := store.Create(ctx, CreateItemInput{ProjectID: "p", Field: "f", Priority: 1})

	delivery := &stubDeliveryClient{errs: []error{errors.New("delivery failed"), nil}}
	worker, err := NewWorker(store, delivery, TableBackoffPolicy{}, DefaultWorkerConfig())
	if err != nil {
		t.Fatalf("new worker: %v", err)
	}
	worker.SetNow(func() time.Time { return current })

	current = base.Add(time.Minute)
	result, err := worker.RunOnce(ctx, 10)
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if result.Selected != 2 || result.Sent != 1 || result.Retried != 1 || result.Dead != 0 {
		t.Fatalf("unexpected batch result: %+v", result)
	}
	if len(result.Results) != 2 {
		t.Fatalf("expected 2 item results")
	}
	if result.Results[0].ItemID != first.ID || result.Results[1].ItemID != second.ID {
		t.Fatalf("expected priority ordering in results")
	}
	if result.Results[0].Success || !result.Results[1].Success {
		t.Fatalf("unexpected per item outcomes: %+v", result.Results)
	}
}

func TestWorker_RunOnceHonorsContextCancellation(t *testing.T) {
	store := NewMemoryQueueStore()
	ctx := context.Background()
	if _, err := store.Create(ctx, CreateItemInput{ProjectID: "p", Field: "f"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	worker, err := NewWorker(store, &stubDeliveryClient{}, nil, WorkerConfig{})
	if err != nil {
		t.Fatalf("new worker: %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	result, err := worker.RunOnce(cancelled, 10)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
	if result.Sent != 0 || result.Retried != 0 {
		t.Fatalf("expected no processed items, got %+v", result)
	}
}

func TestNewWorker_RequiresDependencies(t *testing.T) {
	if _, err := NewWorker(nil, &stubDeliveryClient{}, nil, WorkerConfig{}); err == nil {
		t.Fatalf("expected error for missing store")
	}
	if _, err := NewWorker(NewMemoryQueueStore(), nil, nil, WorkerConfig{}); err == nil {
		t.Fatalf("expected error for missing delivery client")
	}
}
