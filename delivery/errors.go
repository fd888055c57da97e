package delivery

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEndpointNotConfigured = errors.New("delivery: endpoint is not configured")
	ErrDeliveryFailed        = errors.New("delivery: delivery attempt failed")
)

// DeliveryError carries the protocol-level outcome of a rejected attempt.
// Transport failures (DNS, timeout) wrap the transport error instead and
// never produce a status code.
type DeliveryError struct {
	StatusCode int
	Message    string
	RawBody    string
	Cause      error
}

const maxErrorBodyBytes = 512

func (e *DeliveryError) Error() string {
	if e == nil {
		return ""
	}
	message := strings.TrimSpace(e.Message)
	if message == "" {
		message = "delivery attempt failed"
	}
	if body := strings.TrimSpace(e.RawBody); body != "" {
		if len(body) > maxErrorBodyBytes {
			body = body[:maxErrorBodyBytes] + "..."
		}
		message = message + ": " + body
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("delivery: %s (status %d)", message, e.StatusCode)
	}
	return "delivery: " + message
}

func (e *DeliveryError) Unwrap() error {
	if e == nil {
		return nil
	}
	if e.Cause != nil {
		return e.Cause
	}
	return ErrDeliveryFailed
}
