package core

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/goliatone/go-config/cfgx"
	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	opts "github.com/goliatone/go-options"
)

type ErrorFactory func(message string, category ...goerrors.Category) *goerrors.Error

type ErrorMapper func(err error) *goerrors.Error

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type serviceBuilder struct {
	runtimeConfig     Config
	logger            Logger
	loggerProvider    LoggerProvider
	metricsRecorder   MetricsRecorder
	errorFactory      ErrorFactory
	errorMapper       ErrorMapper
	persistenceClient any
	repositoryFactory any
	configProvider    ConfigProvider
	optionsResolver   OptionsResolver
	queueStore        QueueStore
	deliveryClient    DeliveryClient
	backoffPolicy     BackoffPolicy
}

type Option func(*serviceBuilder)

func WithLogger(logger Logger) Option {
	return func(b *serviceBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider LoggerProvider) Option {
	return func(b *serviceBuilder) {
		b.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(b *serviceBuilder) {
		b.metricsRecorder = recorder
	}
}

func WithErrorFactory(factory ErrorFactory) Option {
	return func(b *serviceBuilder) {
		b.errorFactory = factory
	}
}

func WithErrorMapper(mapper ErrorMapper) Option {
	return func(b *serviceBuilder) {
		b.errorMapper = mapper
	}
}

func WithPersistenceClient(client any) Option {
	return func(b *serviceBuilder) {
		b.persistenceClient = client
	}
}

func WithRepositoryFactory(factory any) Option {
	return func(b *serviceBuilder) {
		b.repositoryFactory = factory
	}
}

func WithConfigProvider(provider ConfigProvider) Option {
	return func(b *serviceBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver OptionsResolver) Option {
	return func(b *serviceBuilder) {
		b.optionsResolver = resolver
	}
}

func WithQueueStore(store QueueStore) Option {
	return func(b *serviceBuilder) {
		b.queueStore = store
	}
}

func WithDeliveryClient(client DeliveryClient) Option {
	return func(b *serviceBuilder) {
		b.deliveryClient = client
	}
}

func WithBackoffPolicy(policy BackoffPolicy) Option {
	return func(b *serviceBuilder) {
		b.backoffPolicy = policy
	}
}

func defaultServiceBuilder(runtime Config) serviceBuilder {
	loggerProvider, logger := glog.Resolve("dispatch", nil, nil)
	return serviceBuilder{
		runtimeConfig:   runtime,
		loggerProvider:  loggerProvider,
		logger:          logger,
		metricsRecorder: NopMetricsRecorder{},
		errorFactory:    goerrors.New,
		errorMapper:     defaultErrorMapper,
		configProvider:  NewCfgxConfigProvider(nil),
		optionsResolver: GoOptionsResolver{},
	}
}

func defaultErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	return dispatchErrorMapper(err)
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

// EnvRawConfigLoader reads configuration from environment variables with a
// common prefix. DISPATCH_DELIVERY__ENDPOINT maps to delivery.endpoint; a
// double underscore separates nesting levels.
type EnvRawConfigLoader struct {
	Prefix string
}

func (l EnvRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	prefix := strings.TrimSpace(l.Prefix)
	if prefix == "" {
		prefix = "DISPATCH_"
	}
	out := map[string]any{}
	for _, entry := range os.Environ() {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || !strings.HasPrefix(key, prefix) {
			continue
		}
		path := strings.Split(strings.ToLower(strings.TrimPrefix(key, prefix)), "__")
		node := out
		for i, segment := range path {
			segment = strings.TrimSpace(segment)
			if segment == "" {
				break
			}
			if i == len(path)-1 {
				node[segment] = value
				break
			}
			child, ok := node[segment].(map[string]any)
			if !ok {
				child = map[string]any{}
				node[segment] = child
			}
			node = child
		}
	}
	return out, nil
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := configToLayerMap(defaults, true)
	loadedLayer := configToLayerMap(loaded, false)
	runtimeLayer := configToLayerMap(runtime, false)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.ServiceName) != "" {
		layer["service_name"] = cfg.ServiceName
	}
	if includeZero || cfg.MaxAttempts > 0 {
		layer["max_attempts"] = cfg.MaxAttempts
	}
	if includeZero || len(cfg.BackoffSeconds) > 0 {
		layer["backoff_seconds"] = append([]int(nil), cfg.BackoffSeconds...)
	}

	delivery := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.Delivery.Endpoint) != "" {
		delivery["endpoint"] = cfg.Delivery.Endpoint
	}
	if includeZero || strings.TrimSpace(cfg.Delivery.SigningSecret) != "" {
		delivery["signing_secret"] = cfg.Delivery.SigningSecret
	}
	if includeZero || strings.TrimSpace(cfg.Delivery.APIKey) != "" {
		delivery["api_key"] = cfg.Delivery.APIKey
	}
	if includeZero || strings.TrimSpace(cfg.Delivery.APIKeyHeader) != "" {
		delivery["api_key_header"] = cfg.Delivery.APIKeyHeader
	}
	if includeZero || cfg.Delivery.RequestTimeoutSeconds > 0 {
		delivery["request_timeout_seconds"] = cfg.Delivery.RequestTimeoutSeconds
	}
	if len(delivery) > 0 {
		layer["delivery"] = delivery
	}

	scheduler := map[string]any{}
	if includeZero || cfg.Scheduler.Enabled {
		scheduler["enabled"] = cfg.Scheduler.Enabled
	}
	if includeZero || cfg.Scheduler.TickIntervalSeconds > 0 {
		scheduler["tick_interval_seconds"] = cfg.Scheduler.TickIntervalSeconds
	}
	if includeZero || cfg.Scheduler.BatchLimit > 0 {
		scheduler["batch_limit"] = cfg.Scheduler.BatchLimit
	}
	if len(scheduler) > 0 {
		layer["scheduler"] = scheduler
	}

	return layer
}
