// Copyright 2026 The Greendale Authors
// SPDX-License-Identifier: Apache-2.0

package lock

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/greendale-community/greendale/lib/clock"
	"github.com/greendale-community/greendale/lib/sqlitepool"
)

var epoch = time.Date(2026, 3, 2, 2, 0, 0, 0, time.UTC)

func openPool(t *testing.T) *sqlitepool.Pool {
	t.Helper()
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     filepath.Join(t.TempDir(), "locks.db"),
		PoolSize: 4,
	})
	if err != nil {
		t.Fatalf("sqlitepool.Open: %v", err)
	}
	t.Cleanup(func() { pool.Close() })
	return pool
}

func newSQLite(t *testing.T, pool *sqlitepool.Pool, holder string, fake *clock.FakeClock) *SQLite {
	t.Helper()
	locker, err := NewSQLite(context.Background(), SQLiteConfig{
		Pool:   pool,
		Holder: holder,
		Lease:  10 * time.Minute,
		Clock:  fake,
	})
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	return locker
}

// lockerContract exercises the behaviour every Locker must share.
func lockerContract(t *testing.T, first, second Locker) {
	ctx := context.Background()

	ok, err := first.TryAcquire(ctx, "retention")
	if err != nil || !ok {
		t.Fatalf("first TryAcquire = %v, %v; want true", ok, err)
	}
	ok, err = second.TryAcquire(ctx, "retention")
	if err != nil || ok {
		t.Fatalf("second TryAcquire while held = %v, %v; want false", ok, err)
	}
	ok, err = first.TryAcquire(ctx, "retention")
	if err != nil || ok {
		t.Fatalf("re-entrant TryAcquire = %v, %v; want false", ok, err)
	}
	ok, err = second.TryAcquire(ctx, "other-job")
	if err != nil || !ok {
		t.Fatalf("TryAcquire of an unrelated key = %v, %v; want true", ok, err)
	}

	if err := first.Release(ctx, "retention"); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := first.Release(ctx, "retention"); !errors.Is(err, ErrNotHeld) {
		t.Fatalf("double Release error = %v, want ErrNotHeld", err)
	}
	ok, err = second.TryAcquire(ctx, "retention")
	if err != nil || !ok {
		t.Fatalf("TryAcquire after release = %v, %v; want true", ok, err)
	}
}

func TestMemoryContract(t *testing.T) {
	shared := NewMemory()
	lockerContract(t, shared, shared)
}

func TestSQLiteContract(t *testing.T) {
	pool := openPool(t)
	fake := clock.Fake(epoch)
	lockerContract(t, newSQLite(t, pool, "host-a", fake), newSQLite(t, pool, "host-b", fake))
}

func TestSQLiteExpiredLeaseIsTakenOver(t *testing.T) {
	ctx := context.Background()
	pool := openPool(t)
	fake := clock.Fake(epoch)
	crashed := newSQLite(t, pool, "crashed", fake)
	survivor := newSQLite(t, pool, "survivor", fake)

	if ok, err := crashed.TryAcquire(ctx, "retention"); err != nil || !ok {
		t.Fatalf("TryAcquire = %v, %v", ok, err)
	}
	fake.Advance(9 * time.Minute)
	if ok, _ := survivor.TryAcquire(ctx, "retention"); ok {
		t.Fatal("lease taken over before expiry")
	}
	fake.Advance(time.Minute)
	if ok, err := survivor.TryAcquire(ctx, "retention"); err != nil || !ok {
		t.Fatalf("TryAcquire after expiry = %v, %v; want true", ok, err)
	}
	if err := crashed.Release(ctx, "retention"); !errors.Is(err, ErrNotHeld) {
		t.Fatalf("stale holder Release error = %v, want ErrNotHeld", err)
	}
	if err := survivor.Release(ctx, "retention"); err != nil {
		t.Fatalf("survivor Release: %v", err)
	}
}

func TestSQLiteConcurrentAcquireGrantsOne(t *testing.T) {
	ctx := context.Background()
	pool := openPool(t)
	fake := clock.Fake(epoch)

	const contenders = 8
	lockers := make([]*SQLite, contenders)
	for i := range lockers {
		lockers[i] = newSQLite(t, pool, DefaultHolder(), fake)
	}

	var winners atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for _, locker := range lockers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			ok, err := locker.TryAcquire(ctx, "retention")
			if err != nil {
				t.Errorf("TryAcquire: %v", err)
				return
			}
			if ok {
				winners.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if got := winners.Load(); got != 1 {
		t.Fatalf("%d contenders acquired the lock, want exactly 1", got)
	}
}

func TestNewSQLiteValidates(t *testing.T) {
	pool := openPool(t)
	if _, err := NewSQLite(context.Background(), SQLiteConfig{Pool: pool, Lease: time.Minute}); err == nil {
		t.Fatal("NewSQLite without Clock succeeded")
	}
	if _, err := NewSQLite(context.Background(), SQLiteConfig{Pool: pool, Clock: clock.Real()}); err == nil {
		t.Fatal("NewSQLite without Lease succeeded")
	}
}

func TestDefaultHolderIsUnique(t *testing.T) {
	if DefaultHolder() == DefaultHolder() {
		t.Fatal("DefaultHolder returned the same identity twice")
	}
}
