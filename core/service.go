package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

var (
	ErrItemNotFound          = errors.New("core: dispatch item not found")
	ErrEndpointNotConfigured = errors.New("core: delivery endpoint is not configured")
)

// Service is the entry point for the dispatch queue: it owns the queue
// store, the worker, and the optional background scheduler.
type Service struct {
	config            Config
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
	worker            *Worker
	scheduler         *Scheduler
}

type ServiceDependencies struct {
	Logger            Logger
	LoggerProvider    LoggerProvider
	MetricsRecorder   MetricsRecorder
	ErrorFactory      ErrorFactory
	ErrorMapper       ErrorMapper
	PersistenceClient any
	RepositoryFactory any
	ConfigProvider    ConfigProvider
	OptionsResolver   OptionsResolver
	QueueStore        QueueStore
	DeliveryClient    DeliveryClient
	BackoffPolicy     BackoffPolicy
}

func NewService(cfg Config, options ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("dispatch", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("dispatch"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	if builder.queueStore == nil && builder.repositoryFactory != nil {
		if storeFactory, ok := builder.repositoryFactory.(RepositoryStoreFactory); ok {
			storeProvider, buildErr := storeFactory.BuildStores(builder.persistenceClient)
			if buildErr != nil {
				return nil, mapBuildError(builder.errorMapper, buildErr)
			}
			if storeProvider != nil {
				builder.queueStore = storeProvider.QueueStore()
			}
		} else if storeProvider, ok := builder.repositoryFactory.(StoreProvider); ok {
			builder.queueStore = storeProvider.QueueStore()
		}
	}
	if builder.queueStore == nil {
		builder.queueStore = NewMemoryQueueStore()
	}
	if builder.backoffPolicy == nil {
		builder.backoffPolicy = TableBackoffPolicy{Table: finalConfig.BackoffTable()}
	}

	service := &Service{
		config:            finalConfig,
		logger:            logger,
		loggerProvider:    provider,
		metricsRecorder:   builder.metricsRecorder,
		errorFactory:      builder.errorFactory,
		errorMapper:       builder.errorMapper,
		persistenceClient: builder.persistenceClient,
		repositoryFactory: builder.repositoryFactory,
		configProvider:    builder.configProvider,
		optionsResolver:   builder.optionsResolver,
		queueStore:        builder.queueStore,
		deliveryClient:    builder.deliveryClient,
		backoffPolicy:     builder.backoffPolicy,
	}

	if builder.deliveryClient != nil {
		worker, workerErr := NewWorker(builder.queueStore, builder.deliveryClient, builder.backoffPolicy, WorkerConfig{
			MaxAttempts: finalConfig.ResolvedMaxAttempts(),
			BatchLimit:  finalConfig.Scheduler.BatchLimit,
		})
		if workerErr != nil {
			return nil, mapBuildError(builder.errorMapper, workerErr)
		}
		service.worker = worker

		scheduler, schedulerErr := NewScheduler(worker, finalConfig.Scheduler)
		if schedulerErr != nil {
			return nil, mapBuildError(builder.errorMapper, schedulerErr)
		}
		scheduler.OnBatch(service.logBatchOutcome)
		service.scheduler = scheduler

		if finalConfig.Scheduler.Enabled {
			if startErr := service.StartScheduler(context.Background()); startErr != nil {
				return nil, startErr
			}
		}
	}

	return service, nil
}

func Setup(cfg Config, options ...Option) (*Service, error) {
	return NewService(cfg, options...)
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:            s.logger,
		LoggerProvider:    s.loggerProvider,
		MetricsRecorder:   s.metricsRecorder,
		ErrorFactory:      s.errorFactory,
		ErrorMapper:       s.errorMapper,
		PersistenceClient: s.persistenceClient,
		RepositoryFactory: s.repositoryFactory,
		ConfigProvider:    s.configProvider,
		OptionsResolver:   s.optionsResolver,
		QueueStore:        s.queueStore,
		DeliveryClient:    s.deliveryClient,
		BackoffPolicy:     s.backoffPolicy,
	}
}

func (s *Service) QueueStore() QueueStore {
	if s == nil {
		return nil
	}
	return s.queueStore
}

func (s *Service) Worker() *Worker {
	if s == nil {
		return nil
	}
	return s.worker
}

func (s *Service) CreateItem(ctx context.Context, in CreateItemInput) (item DispatchItem, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"project_id": in.ProjectID,
		"platform":   in.Platform,
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "create_item", err, fields)
	}()

	if s == nil || s.queueStore == nil {
		err = fmt.Errorf("core: queue store is required")
		return DispatchItem{}, s.mapError(err)
	}
	if err = in.Validate(); err != nil {
		err = s.mapError(err)
		return DispatchItem{}, err
	}

	item, err = s.queueStore.Create(ctx, in)
	if err != nil {
		err = s.mapError(err)
		return DispatchItem{}, err
	}
	fields["item_id"] = item.ID
	return item, nil
}

func (s *Service) GetItem(ctx context.Context, id string) (DispatchItem, error) {
	if s == nil || s.queueStore == nil {
		return DispatchItem{}, s.mapError(fmt.Errorf("core: queue store is required"))
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return DispatchItem{}, s.mapError(fmt.Errorf("core: item id is required"))
	}
	item, err := s.queueStore.Get(ctx, id)
	if err != nil {
		return DispatchItem{}, s.mapError(err)
	}
	return item, nil
}

func (s *Service) ListItems(ctx context.Context, filter ItemFilter) ([]DispatchItem, error) {
	if s == nil || s.queueStore == nil {
		return nil, s.mapError(fmt.Errorf("core: queue store is required"))
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, s.mapError(fmt.Errorf("core: invalid status filter %q", filter.Status))
	}
	items, err := s.queueStore.List(ctx, filter)
	if err != nil {
		return nil, s.mapError(err)
	}
	return items, nil
}

func (s *Service) UpdateItem(ctx context.Context, id string, in UpdateItemInput) (DispatchItem, error) {
	if s == nil || s.queueStore == nil {
		return DispatchItem{}, s.mapError(fmt.Errorf("core: queue store is required"))
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return DispatchItem{}, s.mapError(fmt.Errorf("core: item id is required"))
	}
	if in.Status != nil && !in.Status.Valid() {
		return DispatchItem{}, s.mapError(fmt.Errorf("core: invalid status %q", *in.Status))
	}
	item, err := s.queueStore.Update(ctx, id, in)
	if err != nil {
		return DispatchItem{}, s.mapError(err)
	}
	return item, nil
}

func (s *Service) QueueStats(ctx context.Context, projectID string) (QueueStats, error) {
	if s == nil || s.queueStore == nil {
		return QueueStats{}, s.mapError(fmt.Errorf("core: queue store is required"))
	}
	counts, err := s.queueStore.CountByStatus(ctx, projectID)
	if err != nil {
		return QueueStats{}, s.mapError(err)
	}
	return QueueStats{
		ProjectID: strings.TrimSpace(projectID),
		Counts:    counts,
	}, nil
}

// RunBatch drains one batch of due items synchronously. limit <= 0 falls
// back to the configured batch limit.
func (s *Service) RunBatch(ctx context.Context, limit int) (result BatchResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{}
	defer func() {
		fields["selected"] = result.Selected
		fields["sent"] = result.Sent
		fields["retried"] = result.Retried
		fields["dead"] = result.Dead
		s.observeOperation(ctx, startedAt, "run_batch", err, fields)
	}()

	if s == nil || s.worker == nil {
		err = fmt.Errorf("core: delivery client is required to run batches")
		return BatchResult{}, s.mapError(err)
	}
	result, err = s.worker.RunOnce(ctx, limit)
	if err != nil {
		err = s.mapError(err)
		return result, err
	}
	return result, nil
}

// StartScheduler begins background processing on the configured tick
// interval. Returns a conflict error if the scheduler is already running.
func (s *Service) StartScheduler(ctx context.Context) error {
	if s == nil || s.scheduler == nil {
		return s.mapError(fmt.Errorf("core: delivery client is required to run the scheduler"))
	}
	if err := s.scheduler.Start(ctx); err != nil {
		return s.mapError(err)
	}
	s.logInfo(ctx, "scheduler started", map[string]any{
		"tick_interval": s.config.Scheduler.TickInterval().String(),
		"batch_limit":   s.config.Scheduler.BatchLimit,
	})
	return nil
}

// StopScheduler halts background processing and waits for an in progress
// tick to finish. Safe to call when the scheduler never started.
func (s *Service) StopScheduler() {
	if s == nil || s.scheduler == nil {
		return
	}
	s.scheduler.Stop()
	s.logInfo(context.Background(), "scheduler stopped", nil)
}

func (s *Service) SchedulerRunning() bool {
	if s == nil || s.scheduler == nil {
		return false
	}
	return s.scheduler.Running()
}

func (s *Service) logBatchOutcome(ctx context.Context, result BatchResult, err error) {
	fields := map[string]any{
		"selected": result.Selected,
		"sent":     result.Sent,
		"retried":  result.Retried,
		"dead":     result.Dead,
	}
	if err != nil {
		fields["error"] = err.Error()
		s.logError(ctx, "dispatch tick failed", fields)
		return
	}
	if result.Selected == 0 {
		s.logDebug(ctx, "dispatch tick idle", fields)
		return
	}
	s.logInfo(ctx, "dispatch tick completed", fields)
}

func (s *Service) mapError(err error) error {
	if err == nil {
		return nil
	}
	if s == nil || s.errorMapper == nil {
		return err
	}
	mapped := s.errorMapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}
