// Copyright 2026 The Greendale Authors
// SPDX-License-Identifier: Apache-2.0

// Package store is the SQLite persistence layer of the scheduling
// engine. It owns the relational schema (events, event admins, RSVPs,
// rooms, friendships and the retention sweep history) and exposes it
// through [Tx], a handle bound to one connection and, for writes, one
// IMMEDIATE transaction.
//
// Every statement is parameterized. Instants are stored as UTC Unix
// nanoseconds so range comparisons are integer comparisons.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/greendale-community/greendale/lib/sqlitepool"
)

// Config describes a store.
type Config struct {
	// Path of the SQLite database file. Required.
	Path string

	// PoolSize is passed through to sqlitepool.
	PoolSize int

	// Logger receives operational messages. Required.
	Logger *slog.Logger
}

// Store is safe for concurrent use.
type Store struct {
	pool   *sqlitepool.Pool
	logger *slog.Logger
}

// Open opens (creating if needed) the database and applies the schema
// on every new connection.
func Open(cfg Config) (*Store, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("store: Logger is required")
	}
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     cfg.Path,
		PoolSize: cfg.PoolSize,
		Logger:   cfg.Logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, schema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	return &Store{pool: pool, logger: cfg.Logger}, nil
}

// Pool exposes the connection pool to components that keep their own
// tables in the same database, such as the SQLite job lock.
func (s *Store) Pool() *sqlitepool.Pool { return s.pool }

// Close closes the pool.
func (s *Store) Close() error { return s.pool.Close() }

// Write runs fn in one IMMEDIATE transaction. Everything fn writes is
// committed when it returns nil and rolled back otherwise.
func (s *Store) Write(ctx context.Context, fn func(tx *Tx) error) error {
	return s.pool.Write(ctx, func(conn *sqlite.Conn) error {
		return fn(&Tx{conn: conn})
	})
}

// Read runs fn against a borrowed connection outside a transaction.
func (s *Store) Read(ctx context.Context, fn func(tx *Tx) error) error {
	return s.pool.Read(ctx, func(conn *sqlite.Conn) error {
		return fn(&Tx{conn: conn})
	})
}

// Tx is valid only inside the callback it was passed to.
type Tx struct {
	conn *sqlite.Conn
}

// ErrRolledBack reports that SQLite abandoned the enclosing
// transaction, so nothing written through the Tx so far will commit.
var ErrRolledBack = errors.New("store: transaction rolled back")

// Savepoint runs fn under a nested savepoint. When fn fails only its
// own writes are undone and the Tx stays usable. Some failures, such
// as a full disk or RAISE(ROLLBACK), take the whole transaction with
// them; those are returned wrapped in ErrRolledBack and the caller
// must stop issuing statements.
func (tx *Tx) Savepoint(fn func() error) (err error) {
	inTx := !tx.conn.AutocommitEnabled()
	release := sqlitex.Save(tx.conn)
	defer func() {
		release(&err)
		if err != nil && inTx && tx.conn.AutocommitEnabled() {
			err = fmt.Errorf("%w: %w", ErrRolledBack, err)
		}
	}()
	return fn()
}

func toNanos(t time.Time) int64 { return t.UTC().UnixNano() }

func fromNanos(ns int64) time.Time { return time.Unix(0, ns).UTC() }

// nullable binds zero values as SQL NULL. zombiezen formats typed nil
// pointers as text, so NULLs must be passed as an untyped nil.
func nullable[T comparable](v T) any {
	var zero T
	if v == zero {
		return nil
	}
	return v
}

func nullableInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
