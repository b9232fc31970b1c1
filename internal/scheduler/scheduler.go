// Package scheduler runs a task on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

type Task func(ctx context.Context) error

// Scheduler wraps robfig/cron for a single named task.
type Scheduler struct {
	cron       *cron.Cron
	spec       string
	name       string
	task       Task
	runOnStart bool
	logger     *slog.Logger
}

// New accepts standard five-field specs and descriptors such as "@every 6h".
func New(spec, name string, task Task, runOnStart bool, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "scheduler", "task", name)
	cl := cronLogger{logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		spec:       spec,
		name:       name,
		task:       task,
		runOnStart: runOnStart,
		logger:     logger,
	}
}

// Start registers the task and starts the cron loop. ctx is handed to every
// invocation.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() { s.run(ctx) })
	if err != nil {
		return fmt.Errorf("schedule %q: %w", s.spec, err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "spec", s.spec)

	if s.runOnStart {
		go s.run(ctx)
	}
	return nil
}

// Stop stops the cron loop and waits for a running task to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := s.task(ctx); err != nil {
		s.logger.Error("task failed", "error", err)
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct{ l *slog.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error(msg, append(keysAndValues, "error", err)...)
}
