package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	defaultRequestTimeoutSeconds = 15
	defaultTickIntervalSeconds   = 30
	defaultBatchLimit            = 10
	defaultAPIKeyHeader          = "x-api-key"
)

// DeliveryConfig holds the outbound endpoint settings. The endpoint URL is
// required for deliveries to succeed; secret and API key are optional and
// their absence disables signing and the key header respectively.
type DeliveryConfig struct {
	Endpoint              string `koanf:"endpoint" mapstructure:"endpoint"`
	SigningSecret         string `koanf:"signing_secret" mapstructure:"signing_secret"`
	APIKey                string `koanf:"api_key" mapstructure:"api_key"`
	APIKeyHeader          string `koanf:"api_key_header" mapstructure:"api_key_header"`
	RequestTimeoutSeconds int    `koanf:"request_timeout_seconds" mapstructure:"request_timeout_seconds"`
}

func (c DeliveryConfig) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return defaultRequestTimeoutSeconds * time.Second
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

type SchedulerConfig struct {
	Enabled             bool `koanf:"enabled" mapstructure:"enabled"`
	TickIntervalSeconds int  `koanf:"tick_interval_seconds" mapstructure:"tick_interval_seconds"`
	BatchLimit          int  `koanf:"batch_limit" mapstructure:"batch_limit"`
}

func (c SchedulerConfig) TickInterval() time.Duration {
	if c.TickIntervalSeconds <= 0 {
		return defaultTickIntervalSeconds * time.Second
	}
	return time.Duration(c.TickIntervalSeconds) * time.Second
}

type Config struct {
	ServiceName    string          `koanf:"service_name" mapstructure:"service_name"`
	Delivery       DeliveryConfig  `koanf:"delivery" mapstructure:"delivery"`
	Scheduler      SchedulerConfig `koanf:"scheduler" mapstructure:"scheduler"`
	MaxAttempts    int             `koanf:"max_attempts" mapstructure:"max_attempts"`
	BackoffSeconds []int           `koanf:"backoff_seconds" mapstructure:"backoff_seconds"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "dispatch",
		Delivery: DeliveryConfig{
			APIKeyHeader:          defaultAPIKeyHeader,
			RequestTimeoutSeconds: defaultRequestTimeoutSeconds,
		},
		Scheduler: SchedulerConfig{
			TickIntervalSeconds: defaultTickIntervalSeconds,
			BatchLimit:          defaultBatchLimit,
		},
		MaxAttempts:    DefaultMaxAttempts,
		BackoffSeconds: []int{30, 60, 120, 240, 480, 900},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.MaxAttempts < 0 {
		return fmt.Errorf("core: max_attempts must be >= 0")
	}
	if c.Scheduler.BatchLimit < 0 {
		return fmt.Errorf("core: scheduler batch_limit must be >= 0")
	}
	for _, value := range c.BackoffSeconds {
		if value < 0 {
			return fmt.Errorf("core: backoff_seconds entries must be >= 0")
		}
	}
	return nil
}

// BackoffTable resolves the configured backoff entries, falling back to
// the default table when none are usable.
func (c Config) BackoffTable() []time.Duration {
	table := BackoffTableFromSeconds(c.BackoffSeconds)
	if len(table) == 0 {
		return DefaultBackoffTable
	}
	return table
}

func (c Config) ResolvedMaxAttempts() int {
	if c.MaxAttempts <= 0 {
		return DefaultMaxAttempts
	}
	return c.MaxAttempts
}
