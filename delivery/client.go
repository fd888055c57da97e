package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-dispatch/core"
)

const (
	defaultRequestTimeout   = 15 * time.Second
	maxResponseBodyBytes    = 1 << 20
	headerContentType       = "Content-Type"
	headerSignature         = "x-aura-signature"
	headerTimestamp         = "x-aura-timestamp"
	defaultAPIKeyHeaderName = "x-api-key"
	contentTypeJSON         = "application/json"
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type ClientConfig struct {
	Endpoint       string
	SigningSecret  string
	APIKey         string
	APIKeyHeader   string
	RequestTimeout time.Duration
	HTTPClient     HTTPDoer
	Now            func() time.Time
}

// HTTPClient posts envelopes to the configured receiver. One Deliver call
// is exactly one attempt: no internal retries, no redirect chasing beyond
// the default http.Client behavior.
type HTTPClient struct {
	config     ClientConfig
	httpClient HTTPDoer
}

func NewHTTPClient(cfg ClientConfig) *HTTPClient {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	apiKeyHeader := strings.TrimSpace(cfg.APIKeyHeader)
	if apiKeyHeader == "" {
		apiKeyHeader = defaultAPIKeyHeaderName
	}
	return &HTTPClient{
		config: ClientConfig{
			Endpoint:       strings.TrimSpace(cfg.Endpoint),
			SigningSecret:  strings.TrimSpace(cfg.SigningSecret),
			APIKey:         strings.TrimSpace(cfg.APIKey),
			APIKeyHeader:   apiKeyHeader,
			RequestTimeout: timeout,
			Now:            now,
		},
		httpClient: httpClient,
	}
}

// NewHTTPClientFromConfig builds a client from the service-level delivery
// settings.
func NewHTTPClientFromConfig(cfg core.DeliveryConfig) *HTTPClient {
	return NewHTTPClient(ClientConfig{
		Endpoint:       cfg.Endpoint,
		SigningSecret:  cfg.SigningSecret,
		APIKey:         cfg.APIKey,
		APIKeyHeader:   cfg.APIKeyHeader,
		RequestTimeout: cfg.RequestTimeout(),
	})
}

func (c *HTTPClient) Deliver(ctx context.Context, envelope core.Envelope) (core.DeliveryResult, error) {
	if c == nil || c.httpClient == nil {
		return core.DeliveryResult{}, &DeliveryError{
			Message: "http client is not configured",
		}
	}
	endpoint := strings.TrimSpace(c.config.Endpoint)
	if endpoint == "" {
		return core.DeliveryResult{}, &DeliveryError{
			Message: "endpoint is not configured",
			Cause:   ErrEndpointNotConfigured,
		}
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		return core.DeliveryResult{}, &DeliveryError{
			Message: "encode envelope",
			Cause:   err,
		}
	}

	if ctx == nil {
		ctx = context.Background()
	}
	requestCtx := ctx
	cancel := func() {}
	if c.config.RequestTimeout > 0 {
		requestCtx, cancel = context.WithTimeout(ctx, c.config.RequestTimeout)
	}
	defer cancel()

	httpReq, err := http.NewRequestWithContext(
		requestCtx,
		http.MethodPost,
		endpoint,
		bytes.NewReader(body),
	)
	if err != nil {
		return core.DeliveryResult{}, &DeliveryError{
			Message: "build delivery request",
			Cause:   err,
		}
	}
	httpReq.Header.Set(headerContentType, contentTypeJSON)
	httpReq.Header.Set(headerTimestamp, c.config.Now().UTC().Format(time.RFC3339))
	if c.config.SigningSecret != "" {
		httpReq.Header.Set(headerSignature, SignBody(c.config.SigningSecret, body))
	}
	if c.config.APIKey != "" {
		httpReq.Header.Set(c.config.APIKeyHeader, c.config.APIKey)
	}

	response, err := c.httpClient.Do(httpReq)
	if err != nil {
		return core.DeliveryResult{}, &DeliveryError{
			Message: "delivery request failed",
			Cause:   err,
		}
	}
	defer response.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(response.Body, maxResponseBodyBytes+1))
	if readErr != nil {
		return core.DeliveryResult{}, &DeliveryError{
			StatusCode: response.StatusCode,
			Message:    "read delivery response",
			Cause:      readErr,
		}
	}
	if int64(len(raw)) > maxResponseBodyBytes {
		return core.DeliveryResult{}, &DeliveryError{
			StatusCode: response.StatusCode,
			Message:    fmt.Sprintf("delivery response exceeds %d bytes", maxResponseBodyBytes),
		}
	}

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return core.DeliveryResult{}, &DeliveryError{
			StatusCode: response.StatusCode,
			Message:    "receiver rejected delivery",
			RawBody:    string(raw),
		}
	}

	result := core.DeliveryResult{
		StatusCode: response.StatusCode,
		RawBody:    string(raw),
	}
	if len(strings.TrimSpace(string(raw))) > 0 {
		parsed := map[string]any{}
		if err := json.Unmarshal(raw, &parsed); err == nil {
			result.Body = parsed
		}
	}
	return result, nil
}

var _ core.DeliveryClient = (*HTTPClient)(nil)
