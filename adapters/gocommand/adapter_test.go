package gocommand

import (
	"testing"

	dispatchcommand "github.com/goliatone/go-dispatch/command"
	"github.com/goliatone/go-dispatch/query"
)

type untypedMessage struct{}

func TestValidateMessageContract(t *testing.T) {
	if err := ValidateMessageContract(dispatchcommand.RunBatchMessage{Limit: 5}); err != nil {
		t.Fatalf("expected valid message: %v", err)
	}
	if err := ValidateMessageContract(query.GetItemMessage{ItemID: "item_1"}); err != nil {
		t.Fatalf("expected valid query message: %v", err)
	}
	if err := ValidateMessageContract(dispatchcommand.RunBatchMessage{Limit: -1}); err == nil {
		t.Fatalf("expected validation failure")
	}
	if err := ValidateMessageContract(untypedMessage{}); err == nil {
		t.Fatalf("expected contract failure for message without Type()")
	}
}

func TestSubscribeDispatchHandlers_RequiresService(t *testing.T) {
	if _, err := SubscribeDispatchHandlers(nil); err == nil {
		t.Fatalf("expected error for nil service")
	}
}

func TestRegistryAdapter_NilGuards(t *testing.T) {
	var adapter *RegistryAdapter
	if adapter.Registry() != nil {
		t.Fatalf("expected nil registry from nil adapter")
	}
	if err := adapter.RegisterCommand(nil); err == nil {
		t.Fatalf("expected error from nil adapter")
	}
	if adapter.HasResolver("key") {
		t.Fatalf("expected no resolver on nil adapter")
	}
}
