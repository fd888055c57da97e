package dispatch

import (
	"context"
	"testing"

	"github.com/goliatone/go-dispatch/query"
)

func TestNewFacade_RequiresService(t *testing.T) {
	if _, err := NewFacade(nil); err == nil {
		t.Fatalf("expected error for nil service")
	}
}

func TestNewFacade_WiresHandlers(t *testing.T) {
	service, err := NewService(DefaultConfig())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	facade, err := NewFacade(service)
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}

	commands := facade.Commands()
	if commands.EnqueueItem == nil || commands.UpdateItem == nil || commands.RunBatch == nil {
		t.Fatalf("expected command handlers wired")
	}
	if commands.StartScheduler == nil || commands.StopScheduler == nil {
		t.Fatalf("expected scheduler handlers wired")
	}

	queries := facade.Queries()
	if queries.GetItem == nil || queries.ListItems == nil || queries.QueueStats == nil {
		t.Fatalf("expected query handlers wired")
	}

	if facade.Service() == nil {
		t.Fatalf("expected service accessor")
	}
}

func TestNewService_BuildsDefaultDeliveryClient(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Delivery.Endpoint = "https://receiver.example.com/hook"

	service, err := NewService(cfg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	deps := service.Dependencies()
	if deps.DeliveryClient == nil {
		t.Fatalf("expected default delivery client")
	}
	if service.Worker() == nil {
		t.Fatalf("expected worker built from default delivery client")
	}
	if service.Config().Delivery.Endpoint != cfg.Delivery.Endpoint {
		t.Fatalf("expected runtime endpoint resolved, got %q", service.Config().Delivery.Endpoint)
	}
}

func TestFacade_EndToEndThroughHandlers(t *testing.T) {
	service, err := NewService(DefaultConfig())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	facade, err := NewFacade(service)
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}
	ctx := context.Background()

	created, err := service.CreateItem(ctx, CreateItemInput{ProjectID: "proj_1", Field: "status"})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}

	item, err := facade.Queries().GetItem.Query(ctx, query.GetItemMessage{ItemID: created.ID})
	if err != nil {
		t.Fatalf("get item query: %v", err)
	}
	if item.ID != created.ID {
		t.Fatalf("expected round trip through query handler")
	}
}
