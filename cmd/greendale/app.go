// Copyright 2026 The Greendale Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/greendale-community/greendale/cmd/greendale/cli"
	"github.com/greendale-community/greendale/lib/clock"
	"github.com/greendale-community/greendale/lib/config"
	"github.com/greendale-community/greendale/lib/lifecycle"
	"github.com/greendale-community/greendale/lib/lock"
	"github.com/greendale-community/greendale/lib/store"
)

// loadConfig resolves, loads and validates the configuration. An empty
// path falls back to $GREENDALE_CONFIG, then to the defaults.
func loadConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case path != "":
		cfg, err = config.LoadFile(path)
	case os.Getenv(config.EnvVar) != "":
		cfg, err = config.Load()
	default:
		cfg = config.Default()
		cfg.Finalize()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	// Validate has already checked the level.
	level, _ := cfg.Log.SlogLevel()
	return cli.NewCommandLogger(level).With("environment", cfg.Environment)
}

// app holds what every command shares: the store and the lock table
// living in the same database.
type app struct {
	config *config.Config
	logger *slog.Logger
	clock  clock.Clock
	store  *store.Store
	locker *lock.SQLite
}

func openApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, clk clock.Clock) (*app, error) {
	if dir := filepath.Dir(cfg.Database.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	s, err := store.Open(store.Config{
		Path:     cfg.Database.Path,
		PoolSize: cfg.Database.PoolSize,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}
	locker, err := lock.NewSQLite(ctx, lock.SQLiteConfig{
		Pool:   s.Pool(),
		Holder: cfg.Lock.Holder,
		Lease:  cfg.Lock.Lease,
		Clock:  clk,
		Logger: logger,
	})
	if err != nil {
		s.Close()
		return nil, err
	}
	return &app{config: cfg, logger: logger, clock: clk, store: s, locker: locker}, nil
}

func (a *app) sweeper() (*lifecycle.Sweeper, error) {
	return lifecycle.NewSweeper(lifecycle.SweepConfig{
		Store:  a.store,
		Locker: a.locker,
		Holder: a.locker.Holder(),
		Window: a.config.Retention.Window,
		Clock:  a.clock,
		Logger: a.logger.With("component", "retention"),
	})
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Error("closing store failed", "error", err)
	}
}
