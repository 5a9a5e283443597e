// Copyright 2026 The Greendale Authors
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/greendale-community/greendale/lib/clock"
	"github.com/greendale-community/greendale/lib/cron"
)

// Runner is what a Scheduler fires. *Sweeper implements it.
type Runner interface {
	RunRetentionSweep(ctx context.Context) (SweepResult, error)
}

// SchedulerConfig configures a Scheduler.
type SchedulerConfig struct {
	Runner   Runner
	Schedule cron.Schedule

	// StartupDelay, when RunOnStart is set, is how long after Run
	// begins the extra startup sweep fires.
	RunOnStart   bool
	StartupDelay time.Duration

	Clock  clock.Clock
	Logger *slog.Logger
}

// Scheduler fires a Runner at every minute its schedule matches.
type Scheduler struct {
	runner     Runner
	schedule   cron.Schedule
	runOnStart bool
	delay      time.Duration
	clock      clock.Clock
	logger     *slog.Logger
}

// NewScheduler validates cfg.
func NewScheduler(cfg SchedulerConfig) (*Scheduler, error) {
	switch {
	case cfg.Runner == nil:
		return nil, fmt.Errorf("lifecycle: Runner is required")
	case cfg.Schedule.IsZero():
		return nil, fmt.Errorf("lifecycle: Schedule is required")
	case cfg.Clock == nil:
		return nil, fmt.Errorf("lifecycle: Clock is required")
	case cfg.Logger == nil:
		return nil, fmt.Errorf("lifecycle: Logger is required")
	case cfg.StartupDelay < 0:
		return nil, fmt.Errorf("lifecycle: StartupDelay must not be negative, got %s", cfg.StartupDelay)
	}
	return &Scheduler{
		runner:     cfg.Runner,
		schedule:   cfg.Schedule,
		runOnStart: cfg.RunOnStart,
		delay:      cfg.StartupDelay,
		clock:      cfg.Clock,
		logger:     cfg.Logger,
	}, nil
}

// Run blocks until ctx is cancelled, then returns ctx.Err(). Sweep
// failures are logged and do not stop the loop. Runs never overlap
// within one Scheduler; a run that overshoots the next match skips it.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("retention sweep scheduled", "schedule", s.schedule.String())

	if s.runOnStart {
		s.logger.Info("startup retention sweep pending", "delay", s.delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.clock.After(s.delay):
		}
		s.fire(ctx, "startup")
	}

	for {
		now := s.clock.Now()
		next, err := s.schedule.Next(now)
		if err != nil {
			return fmt.Errorf("lifecycle: %w", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.clock.After(next.Sub(now)):
		}
		s.fire(ctx, "schedule")
	}
}

func (s *Scheduler) fire(ctx context.Context, trigger string) {
	result, err := s.runner.RunRetentionSweep(ctx)
	if err != nil {
		s.logger.Error("scheduled retention sweep failed", "trigger", trigger, "error", err)
		return
	}
	s.logger.Debug("scheduled retention sweep done",
		"trigger", trigger,
		"ran", result.Ran,
		"deleted_count", result.DeletedCount,
	)
}
