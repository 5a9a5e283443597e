// Copyright 2026 The Greendale Authors
// SPDX-License-Identifier: Apache-2.0

// Package lock provides named, non-blocking mutual exclusion for jobs
// that must run on at most one process at a time.
//
// A [Locker] either grants a key immediately or reports that someone
// else holds it; it never waits. [SQLite] shares a lease table between
// every process using the same database. [Memory] excludes goroutines
// within one process.
package lock

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
)

// Locker acquires and releases named locks.
type Locker interface {
	// TryAcquire takes key if nobody holds it and reports whether it
	// did. A held key is not an error.
	TryAcquire(ctx context.Context, key string) (bool, error)

	// Release gives key back. Releasing a key this Locker does not
	// hold returns ErrNotHeld.
	Release(ctx context.Context, key string) error
}

// ErrNotHeld is returned by Release for a key the caller does not
// hold, including one whose lease expired and was taken over.
var ErrNotHeld = errors.New("lock: not held")

// DefaultHolder names this process as hostname plus a random suffix,
// so two processes on one host stay distinct.
func DefaultHolder() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown-host"
	}
	return fmt.Sprintf("%s-%s", host, uuid.NewString()[:8])
}
