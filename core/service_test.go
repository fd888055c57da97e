package core

import (
	"context"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestNewService_DefaultsToMemoryStore(t *testing.T) {
	service, err := NewService(DefaultConfig())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if _, ok := service.QueueStore().(*MemoryQueueStore); !ok {
		t.Fatalf("expected memory queue store, got %T", service.QueueStore())
	}
	if service.Worker() != nil {
		t.Fatalf("expected no worker without delivery client")
	}
	if service.SchedulerRunning() {
		t.Fatalf("expected scheduler not running")
	}
}

func TestNewService_BuildsWorkerWithDeliveryClient(t *testing.T) {
	service, err := NewService(DefaultConfig(), WithDeliveryClient(&stubDeliveryClient{}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if service.Worker() == nil {
		t.Fatalf("expected worker with delivery client")
	}
}

func TestNewService_SchedulerEnabledStartsTicking(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scheduler.Enabled = true

	service, err := NewService(cfg, WithDeliveryClient(&stubDeliveryClient{}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	defer service.StopScheduler()

	if !service.SchedulerRunning() {
		t.Fatalf("expected scheduler running when enabled in config")
	}
}

func TestNewService_SchedulerDisabledStaysIdle(t *testing.T) {
	service, err := NewService(DefaultConfig(), WithDeliveryClient(&stubDeliveryClient{}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if service.SchedulerRunning() {
		t.Fatalf("expected idle scheduler by default")
	}
}

func TestService_CreateItemValidation(t *testing.T) {
	service, err := NewService(DefaultConfig())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = service.CreateItem(context.Background(), CreateItemInput{Field: "status"})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		t.Fatalf("expected mapped error, got %T", err)
	}
	if richErr.Category != goerrors.CategoryBadInput {
		t.Fatalf("expected bad input category, got %s", richErr.Category)
	}
}

func TestService_CreateGetUpdateRoundTrip(t *testing.T) {
	service, err := NewService(DefaultConfig())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()

	created, err := service.CreateItem(ctx, CreateItemInput{
		ProjectID: "proj_1",
		Field:     "status",
		Value:     "open",
	})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}

	fetched, err := service.GetItem(ctx, created.ID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if fetched.ID != created.ID {
		t.Fatalf("expected round trip id")
	}

	notes := "checked by ops"
	updated, err := service.UpdateItem(ctx, created.ID, UpdateItemInput{Notes: &notes})
	if err != nil {
		t.Fatalf("update item: %v", err)
	}
	if updated.Notes != notes {
		t.Fatalf("expected notes update, got %q", updated.Notes)
	}

	stats, err := service.QueueStats(ctx, "proj_1")
	if err != nil {
		t.Fatalf("queue stats: %v", err)
	}
	if stats.Counts[StatusPending] != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestService_GetItemNotFoundMapsCategory(t *testing.T) {
	service, err := NewService(DefaultConfig())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = service.GetItem(context.Background(), "missing")
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		t.Fatalf("expected mapped error, got %v", err)
	}
	if richErr.Category != goerrors.CategoryNotFound {
		t.Fatalf("expected not found category, got %s", richErr.Category)
	}
}

func TestService_ListItemsRejectsInvalidStatus(t *testing.T) {
	service, err := NewService(DefaultConfig())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if _, err := service.ListItems(context.Background(), ItemFilter{Status: Status("bogus")}); err == nil {
		t.Fatalf("expected invalid status error")
	}
}

func TestService_RunBatchRequiresDeliveryClient(t *testing.T) {
	service, err := NewService(DefaultConfig())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if _, err := service.RunBatch(context.Background(), 5); err == nil {
		t.Fatalf("expected error without delivery client")
	}
	if err := service.StartScheduler(context.Background()); err == nil {
		t.Fatalf("expected error without scheduler")
	}
}

func TestService_SchedulerLifecycle(t *testing.T) {
	service, err := NewService(DefaultConfig(), WithDeliveryClient(&stubDeliveryClient{}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()

	if err := service.StartScheduler(ctx); err != nil {
		t.Fatalf("start scheduler: %v", err)
	}
	if !service.SchedulerRunning() {
		t.Fatalf("expected scheduler running")
	}

	err = service.StartScheduler(ctx)
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) || richErr.Category != goerrors.CategoryConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}

	service.StopScheduler()
	if service.SchedulerRunning() {
		t.Fatalf("expected scheduler stopped")
	}
	service.StopScheduler()
}

func TestService_RunBatchDrainsQueue(t *testing.T) {
	delivery := &stubDeliveryClient{}
	service, err := NewService(DefaultConfig(), WithDeliveryClient(delivery))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()

	if _, err := service.CreateItem(ctx, CreateItemInput{ProjectID: "p", Field: "f"}); err != nil {
		t.Fatalf("create item: %v", err)
	}

	result, err := service.RunBatch(ctx, 10)
	if err != nil {
		t.Fatalf("run batch: %v", err)
	}
	if result.Selected != 1 || result.Sent != 1 {
		t.Fatalf("unexpected batch result: %+v", result)
	}
	if len(delivery.envelopes) != 1 {
		t.Fatalf("expected one delivery attempt")
	}
}
