package dispatch

import (
	"github.com/goliatone/go-dispatch/core"
	"github.com/goliatone/go-dispatch/delivery"
)

type Config = core.Config

type DeliveryConfig = core.DeliveryConfig

type SchedulerConfig = core.SchedulerConfig

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies

type DispatchItem = core.DispatchItem
type CreateItemInput = core.CreateItemInput
type UpdateItemInput = core.UpdateItemInput
type ItemFilter = core.ItemFilter
type Envelope = core.Envelope
type Status = core.Status
type BatchResult = core.BatchResult
type ItemResult = core.ItemResult
type QueueStats = core.QueueStats

type QueueStore = core.QueueStore
type DeliveryClient = core.DeliveryClient
type BackoffPolicy = core.BackoffPolicy
type MetricsRecorder = core.MetricsRecorder

var (
	WithLogger            = core.WithLogger
	WithLoggerProvider    = core.WithLoggerProvider
	WithMetricsRecorder   = core.WithMetricsRecorder
	WithErrorFactory      = core.WithErrorFactory
	WithErrorMapper       = core.WithErrorMapper
	WithPersistenceClient = core.WithPersistenceClient
	WithRepositoryFactory = core.WithRepositoryFactory
	WithConfigProvider    = core.WithConfigProvider
	WithOptionsResolver   = core.WithOptionsResolver
	WithQueueStore        = core.WithQueueStore
	WithDeliveryClient    = core.WithDeliveryClient
	WithBackoffPolicy     = core.WithBackoffPolicy
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

// NewService builds a dispatch service. When no delivery client option is
// supplied one is constructed from the resolved delivery configuration.
func NewService(cfg Config, opts ...Option) (*Service, error) {
	service, err := core.NewService(cfg, opts...)
	if err != nil {
		return nil, err
	}
	if service.Dependencies().DeliveryClient != nil {
		return service, nil
	}

	resolved := service.Config()
	client := delivery.NewHTTPClientFromConfig(resolved.Delivery)
	opts = append(opts, core.WithDeliveryClient(client))
	return core.NewService(cfg, opts...)
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return NewService(cfg, opts...)
}
