// Package scheduler wires up the cron job that periodically runs the
// application pipeline in daemon mode.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Task is one scheduled pipeline run.
type Task func(ctx context.Context) error

// Scheduler wraps robfig/cron and manages the recurring pipeline run.
type Scheduler struct {
	cron   *cron.Cron
	spec   string // cron spec, e.g. "@every 24h"
	task   Task
	logger *zap.Logger

	mu      sync.Mutex
	running bool
}

// New creates a Scheduler for the given cron spec.
func New(spec string, task Task, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:   cron.New(),
		spec:   spec,
		task:   task,
		logger: logger,
	}
}

// Start registers the task and starts the scheduler. The task also runs
// once immediately so a daemon restart does not wait for the first
// tick. Overlapping runs are skipped, not queued.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.run(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", zap.String("spec", s.spec))

	go s.run(ctx)

	return nil
}

// Stop shuts the scheduler down and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn("previous pipeline run still active, skipping tick")
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if err := ctx.Err(); err != nil {
		return
	}

	s.logger.Info("pipeline run started")
	if err := s.task(ctx); err != nil {
		s.logger.Error("pipeline run failed", zap.Error(err))
		return
	}
	s.logger.Info("pipeline run complete")
}
