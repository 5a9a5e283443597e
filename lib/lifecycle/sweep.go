// Copyright 2026 The Greendale Authors
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/greendale-community/greendale/lib/clock"
	"github.com/greendale-community/greendale/lib/lock"
	"github.com/greendale-community/greendale/lib/schedule"
)

// LockKey names the job lock every sweeper contends for.
const LockKey = "retention-sweep"

// DefaultWindow is how long a soft-deleted event stays restorable.
const DefaultWindow = 30 * 24 * time.Hour

// Purger is the storage a sweep needs. *store.Store implements it.
type Purger interface {
	// PurgeDeleted removes events soft-deleted before cutoff and
	// returns their IDs.
	PurgeDeleted(ctx context.Context, cutoff time.Time) ([]schedule.EventID, error)

	// RecordSweep appends a finished run to the sweep history.
	RecordSweep(ctx context.Context, run schedule.SweepRun) error
}

// SweepConfig configures a Sweeper.
type SweepConfig struct {
	Store  Purger
	Locker lock.Locker

	// Holder is recorded in the sweep history. It should match the
	// locker's holder identity.
	Holder string

	// Window defaults to DefaultWindow.
	Window time.Duration

	Clock  clock.Clock
	Logger *slog.Logger
}

// Sweeper runs retention sweeps.
type Sweeper struct {
	store  Purger
	locker lock.Locker
	holder string
	window time.Duration
	clock  clock.Clock
	logger *slog.Logger
}

// SweepResult reports one RunRetentionSweep call. Ran is false when
// another process held the lock and nothing was deleted.
type SweepResult struct {
	Ran          bool
	RunID        string
	DeletedCount int
	Message      string
}

// NewSweeper validates cfg.
func NewSweeper(cfg SweepConfig) (*Sweeper, error) {
	switch {
	case cfg.Store == nil:
		return nil, fmt.Errorf("lifecycle: Store is required")
	case cfg.Locker == nil:
		return nil, fmt.Errorf("lifecycle: Locker is required")
	case cfg.Clock == nil:
		return nil, fmt.Errorf("lifecycle: Clock is required")
	case cfg.Logger == nil:
		return nil, fmt.Errorf("lifecycle: Logger is required")
	case cfg.Window < 0:
		return nil, fmt.Errorf("lifecycle: Window must not be negative, got %s", cfg.Window)
	}
	window := cfg.Window
	if window == 0 {
		window = DefaultWindow
	}
	return &Sweeper{
		store:  cfg.Store,
		locker: cfg.Locker,
		holder: cfg.Holder,
		window: window,
		clock:  cfg.Clock,
		logger: cfg.Logger,
	}, nil
}

// acquire returns schedule.ErrLockBusy when another process holds the
// sweep lock.
func (s *Sweeper) acquire(ctx context.Context) error {
	acquired, err := s.locker.TryAcquire(ctx, LockKey)
	if err != nil {
		return fmt.Errorf("lifecycle: acquiring %s: %w", LockKey, err)
	}
	if !acquired {
		return schedule.ErrLockBusy
	}
	return nil
}

// RunRetentionSweep purges every event soft-deleted more than the
// retention window ago. A busy lock is not an error: the result has
// Ran false. The lock is released on every path once acquired.
func (s *Sweeper) RunRetentionSweep(ctx context.Context) (SweepResult, error) {
	if err := s.acquire(ctx); err != nil {
		if errors.Is(err, schedule.ErrLockBusy) {
			s.logger.Info("retention sweep already running elsewhere, skipping", "lock_key", LockKey)
			return SweepResult{Message: "sweep already running"}, nil
		}
		return SweepResult{}, err
	}
	defer func() {
		// Release even when ctx was cancelled mid-sweep.
		if err := s.locker.Release(context.WithoutCancel(ctx), LockKey); err != nil {
			s.logger.Error("releasing retention sweep lock failed", "lock_key", LockKey, "error", err)
		}
	}()

	run := schedule.SweepRun{
		ID:        uuid.NewString(),
		Holder:    s.holder,
		StartedAt: s.clock.Now().UTC(),
	}
	run.Cutoff = run.StartedAt.Add(-s.window)
	s.logger.Info("retention sweep started", "run_id", run.ID, "cutoff", run.Cutoff)

	deleted, err := s.store.PurgeDeleted(ctx, run.Cutoff)
	if err != nil {
		s.logger.Error("retention sweep failed", "run_id", run.ID, "error", err)
		return SweepResult{}, fmt.Errorf("lifecycle: sweep %s: %w", run.ID, err)
	}
	run.Deleted = deleted
	run.FinishedAt = s.clock.Now().UTC()

	// The purge is committed; a lost history row only loses the report.
	if err := s.store.RecordSweep(ctx, run); err != nil {
		s.logger.Error("recording retention sweep failed", "run_id", run.ID, "error", err)
	}

	s.logger.Info("retention sweep finished",
		"run_id", run.ID,
		"deleted_count", len(deleted),
		"duration", run.FinishedAt.Sub(run.StartedAt),
	)
	return SweepResult{
		Ran:          true,
		RunID:        run.ID,
		DeletedCount: len(deleted),
		Message:      fmt.Sprintf("deleted %d events soft-deleted before %s", len(deleted), run.Cutoff.Format(time.RFC3339)),
	}, nil
}
