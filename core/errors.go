package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	DispatchErrorBadInput              = "DISPATCH_BAD_INPUT"
	DispatchErrorItemNotFound          = "DISPATCH_ITEM_NOT_FOUND"
	DispatchErrorEndpointNotConfigured = "DISPATCH_ENDPOINT_NOT_CONFIGURED"
	DispatchErrorDeliveryFailed        = "DISPATCH_DELIVERY_FAILED"
	DispatchErrorSchedulerRunning      = "DISPATCH_SCHEDULER_RUNNING"
	DispatchErrorInternal              = "DISPATCH_INTERNAL_ERROR"
)

func dispatchErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureDispatchErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "not found"):
		return newDispatchError(err.Error(), goerrors.CategoryNotFound, DispatchErrorItemNotFound)
	case strings.Contains(msg, "endpoint") && strings.Contains(msg, "not configured"):
		return newDispatchError(err.Error(), goerrors.CategoryOperation, DispatchErrorEndpointNotConfigured)
	case strings.Contains(msg, "already running"):
		return newDispatchError(err.Error(), goerrors.CategoryConflict, DispatchErrorSchedulerRunning)
	case strings.Contains(msg, "delivery failed"), strings.Contains(msg, "delivery attempt"):
		return newDispatchError(err.Error(), goerrors.CategoryOperation, DispatchErrorDeliveryFailed)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"):
		return newDispatchError(err.Error(), goerrors.CategoryBadInput, DispatchErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureDispatchErrorEnvelope(mapped)
}

func newDispatchError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureDispatchErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureDispatchErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = dispatchHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultDispatchTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultDispatchTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return DispatchErrorBadInput
	case goerrors.CategoryNotFound:
		return DispatchErrorItemNotFound
	case goerrors.CategoryConflict:
		return DispatchErrorSchedulerRunning
	case goerrors.CategoryOperation:
		return DispatchErrorDeliveryFailed
	default:
		return DispatchErrorInternal
	}
}

func dispatchHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
