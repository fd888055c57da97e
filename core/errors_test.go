package core

import (
	"errors"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestDispatchErrorMapper_MessageClassification(t *testing.T) {
	cases := []struct {
		name     string
		input    error
		category goerrors.Category
		textCode string
		httpCode int
	}{
		{
			name:     "not found",
			input:    errors.New(`core: dispatch item "abc" not found`),
			category: goerrors.CategoryNotFound,
			textCode: DispatchErrorItemNotFound,
			httpCode: http.StatusNotFound,
		},
		{
			name:     "endpoint missing",
			input:    errors.New("delivery: endpoint is not configured"),
			category: goerrors.CategoryOperation,
			textCode: DispatchErrorEndpointNotConfigured,
			httpCode: http.StatusInternalServerError,
		},
		{
			name:     "scheduler conflict",
			input:    errors.New("core: scheduler is already running"),
			category: goerrors.CategoryConflict,
			textCode: DispatchErrorSchedulerRunning,
			httpCode: http.StatusConflict,
		},
		{
			name:     "delivery failure",
			input:    errors.New("delivery failed: receiver rejected delivery (status 502)"),
			category: goerrors.CategoryOperation,
			textCode: DispatchErrorDeliveryFailed,
			httpCode: http.StatusInternalServerError,
		},
		{
			name:     "bad input",
			input:    errors.New("core: project id is required"),
			category: goerrors.CategoryBadInput,
			textCode: DispatchErrorBadInput,
			httpCode: http.StatusBadRequest,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mapped := dispatchErrorMapper(tc.input)
			if mapped == nil {
				t.Fatalf("expected mapped error")
			}
			if mapped.Category != tc.category {
				t.Fatalf("expected category %s, got %s", tc.category, mapped.Category)
			}
			if mapped.TextCode != tc.textCode {
				t.Fatalf("expected text code %s, got %s", tc.textCode, mapped.TextCode)
			}
			if mapped.Code != tc.httpCode {
				t.Fatalf("expected http code %d, got %d", tc.httpCode, mapped.Code)
			}
		})
	}
}

func TestDispatchErrorMapper_PassThroughRichErrors(t *testing.T) {
	rich := goerrors.New("queue stats unavailable", goerrors.CategoryOperation).
		WithTextCode("CUSTOM_CODE")
	mapped := dispatchErrorMapper(rich)
	if mapped.TextCode != "CUSTOM_CODE" {
		t.Fatalf("expected preserved text code, got %s", mapped.TextCode)
	}
	if mapped.Code != http.StatusInternalServerError {
		t.Fatalf("expected backfilled http code, got %d", mapped.Code)
	}
}

func TestDispatchErrorMapper_NilError(t *testing.T) {
	if mapped := dispatchErrorMapper(nil); mapped != nil {
		t.Fatalf("expected nil for nil input")
	}
}

func TestEnsureDispatchErrorEnvelope_Defaults(t *testing.T) {
	err := ensureDispatchErrorEnvelope(goerrors.New("", goerrors.CategoryInternal))
	if err.Message != "An unexpected error occurred" {
		t.Fatalf("expected default message, got %q", err.Message)
	}
	if err.TextCode != DispatchErrorInternal {
		t.Fatalf("expected internal text code, got %s", err.TextCode)
	}
	if err.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", err.Code)
	}
}
