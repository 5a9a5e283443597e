// Copyright 2026 The Greendale Authors
// SPDX-License-Identifier: Apache-2.0

package lock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/greendale-community/greendale/lib/clock"
	"github.com/greendale-community/greendale/lib/sqlitepool"
)

const lockSchema = `
CREATE TABLE IF NOT EXISTS job_locks (
	lock_key    TEXT PRIMARY KEY,
	holder      TEXT NOT NULL,
	acquired_ns INTEGER NOT NULL,
	expires_ns  INTEGER NOT NULL
)`

// SQLiteConfig describes a SQLite lease locker.
type SQLiteConfig struct {
	Pool *sqlitepool.Pool

	// Holder identifies this process. Defaults to DefaultHolder().
	Holder string

	// Lease is how long an acquisition stays valid if its holder dies
	// without releasing. It must exceed the longest job it guards.
	Lease time.Duration

	Clock  clock.Clock
	Logger *slog.Logger
}

// SQLite is a Locker backed by a lease row per key. A key can be taken
// when no row exists or the existing lease has expired. Acquisition is
// not re-entrant: a holder that already has the key is refused like
// anyone else.
type SQLite struct {
	pool   *sqlitepool.Pool
	holder string
	lease  time.Duration
	clock  clock.Clock
	logger *slog.Logger
}

// NewSQLite creates the lease table if needed.
func NewSQLite(ctx context.Context, cfg SQLiteConfig) (*SQLite, error) {
	if cfg.Pool == nil {
		return nil, fmt.Errorf("lock: Pool is required")
	}
	if cfg.Clock == nil {
		return nil, fmt.Errorf("lock: Clock is required")
	}
	if cfg.Lease <= 0 {
		return nil, fmt.Errorf("lock: Lease must be positive, got %s", cfg.Lease)
	}
	if cfg.Holder == "" {
		cfg.Holder = DefaultHolder()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	err := cfg.Pool.Write(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.ExecuteTransient(conn, lockSchema, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("lock: creating job_locks: %w", err)
	}
	return &SQLite{
		pool:   cfg.Pool,
		holder: cfg.Holder,
		lease:  cfg.Lease,
		clock:  cfg.Clock,
		logger: cfg.Logger,
	}, nil
}

// Holder returns the identity written into lease rows.
func (l *SQLite) Holder() string { return l.holder }

// TryAcquire inserts a lease row, or takes over an expired one, in a
// single upsert. The upsert changes a row only when the key was free.
func (l *SQLite) TryAcquire(ctx context.Context, key string) (bool, error) {
	now := l.clock.Now()
	var acquired bool
	err := l.pool.Write(ctx, func(conn *sqlite.Conn) error {
		err := sqlitex.Execute(conn, `
			INSERT INTO job_locks (lock_key, holder, acquired_ns, expires_ns)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (lock_key) DO UPDATE SET
				holder = excluded.holder,
				acquired_ns = excluded.acquired_ns,
				expires_ns = excluded.expires_ns
			WHERE job_locks.expires_ns <= excluded.acquired_ns`,
			&sqlitex.ExecOptions{Args: []any{
				key, l.holder, now.UnixNano(), now.Add(l.lease).UnixNano(),
			}})
		if err != nil {
			return err
		}
		acquired = conn.Changes() == 1
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("lock: acquiring %s: %w", key, err)
	}
	if acquired {
		l.logger.Debug("lock acquired", "lock_key", key, "holder", l.holder, "lease", l.lease)
	}
	return acquired, nil
}

// Release deletes the lease row if this holder still owns it.
func (l *SQLite) Release(ctx context.Context, key string) error {
	var released bool
	err := l.pool.Write(ctx, func(conn *sqlite.Conn) error {
		err := sqlitex.Execute(conn,
			`DELETE FROM job_locks WHERE lock_key = ? AND holder = ?`,
			&sqlitex.ExecOptions{Args: []any{key, l.holder}})
		if err != nil {
			return err
		}
		released = conn.Changes() == 1
		return nil
	})
	if err != nil {
		return fmt.Errorf("lock: releasing %s: %w", key, err)
	}
	if !released {
		return fmt.Errorf("%w: %s by %s", ErrNotHeld, key, l.holder)
	}
	l.logger.Debug("lock released", "lock_key", key, "holder", l.holder)
	return nil
}
