package delivery

import (
	"errors"
	"strings"
	"testing"
)

func TestDeliveryError_ErrorIncludesStatusAndBody(t *testing.T) {
	err := &DeliveryError{
		StatusCode: 422,
		Message:    "receiver rejected delivery",
		RawBody:    `{"error":"quota exceeded"}`,
	}
	got := err.Error()
	if !strings.Contains(got, "receiver rejected delivery") {
		t.Fatalf("expected message in %q", got)
	}
	if !strings.Contains(got, `{"error":"quota exceeded"}`) {
		t.Fatalf("expected raw body in %q", got)
	}
	if !strings.Contains(got, "422") {
		t.Fatalf("expected status code in %q", got)
	}
}

func TestDeliveryError_ErrorTruncatesOversizedBody(t *testing.T) {
	err := &DeliveryError{
		StatusCode: 500,
		Message:    "receiver rejected delivery",
		RawBody:    strings.Repeat("x", maxErrorBodyBytes*2),
	}
	got := err.Error()
	if len(got) > maxErrorBodyBytes+128 {
		t.Fatalf("expected truncated body, got %d bytes", len(got))
	}
	if !strings.Contains(got, "...") {
		t.Fatalf("expected truncation marker in %q", got[:64])
	}
}

func TestDeliveryError_ErrorWithoutStatusOrBody(t *testing.T) {
	err := &DeliveryError{Cause: errors.New("dial tcp: connection refused")}
	if got := err.Error(); got != "delivery: delivery attempt failed" {
		t.Fatalf("unexpected message %q", got)
	}
}
