package core

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Scheduler drives the worker on a fixed tick. Start is idempotent-hostile
// on purpose: a second Start while running is a conflict, and overlapping
// ticks are skipped so at most one batch runs at a time.
type Scheduler struct {
	worker   *Worker
	interval time.Duration
	limit    int
	onBatch  func(ctx context.Context, result BatchResult, err error)

	mu      sync.Mutex
	running bool
	ticking bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewScheduler(worker *Worker, config SchedulerConfig) (*Scheduler, error) {
	if worker == nil {
		return nil, fmt.Errorf("core: worker is required")
	}
	limit := config.BatchLimit
	if limit <= 0 {
		limit = defaultBatchLimit
	}
	return &Scheduler{
		worker:   worker,
		interval: config.TickInterval(),
		limit:    limit,
	}, nil
}

// OnBatch registers a callback invoked after every tick with the batch
// outcome. Must be called before Start.
func (s *Scheduler) OnBatch(fn func(ctx context.Context, result BatchResult, err error)) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.onBatch = fn
	s.mu.Unlock()
}

func (s *Scheduler) Running() bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) Start(ctx context.Context) error {
	if s == nil || s.worker == nil {
		return fmt.Errorf("core: scheduler is not configured")
	}
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("core: scheduler is already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.running = true
	s.cancel = cancel
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	go s.loop(runCtx, done)
	return nil
}

func (s *Scheduler) Stop() {
	if s == nil {
		return
	}
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	done := s.done
	s.running = false
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	s.mu.Lock()
	if s.ticking {
		s.mu.Unlock()
		return
	}
	s.ticking = true
	onBatch := s.onBatch
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.ticking = false
		s.mu.Unlock()
	}()

	result, err := s.worker.RunOnce(ctx, s.limit)
	if onBatch != nil {
		onBatch(ctx, result, err)
	}
}
