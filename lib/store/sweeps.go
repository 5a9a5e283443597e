// Copyright 2026 The Greendale Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"fmt"
	"slices"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/greendale-community/greendale/lib/codec"
	"github.com/greendale-community/greendale/lib/schedule"
)

// PurgeDeleted permanently removes events soft-deleted strictly before
// cutoff, together with their admin and RSVP rows, and returns their
// IDs in ascending order.
func (s *Store) PurgeDeleted(ctx context.Context, cutoff time.Time) ([]schedule.EventID, error) {
	var purged []schedule.EventID
	err := s.Write(ctx, func(tx *Tx) error {
		return sqlitex.Execute(tx.conn, `
			DELETE FROM events
			WHERE is_deleted = 1 AND deleted_ns < ?
			RETURNING event_id`,
			&sqlitex.ExecOptions{
				Args: []any{toNanos(cutoff)},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					purged = append(purged, schedule.EventID(stmt.ColumnInt64(0)))
					return nil
				},
			})
	})
	if err != nil {
		return nil, fmt.Errorf("store: purging events deleted before %s: %w", cutoff.UTC().Format(time.RFC3339), err)
	}
	slices.Sort(purged)
	return purged, nil
}

// RecordSweep appends run to the sweep history. The deleted IDs are
// kept as a CBOR array.
func (s *Store) RecordSweep(ctx context.Context, run schedule.SweepRun) error {
	ids := make([]int64, len(run.Deleted))
	for i, id := range run.Deleted {
		ids[i] = int64(id)
	}
	blob, err := codec.Marshal(ids)
	if err != nil {
		return fmt.Errorf("store: encoding sweep %s: %w", run.ID, err)
	}
	err = s.Write(ctx, func(tx *Tx) error {
		return sqlitex.Execute(tx.conn, `
			INSERT INTO sweep_runs (run_id, holder, started_ns, finished_ns, cutoff_ns, deleted_count, deleted_ids)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			&sqlitex.ExecOptions{Args: []any{
				run.ID, run.Holder, toNanos(run.StartedAt), toNanos(run.FinishedAt),
				toNanos(run.Cutoff), len(run.Deleted), blob,
			}})
	})
	if err != nil {
		return fmt.Errorf("store: recording sweep %s: %w", run.ID, err)
	}
	return nil
}

// SweepRuns returns up to limit recorded sweeps, newest first.
func (s *Store) SweepRuns(ctx context.Context, limit int) ([]schedule.SweepRun, error) {
	var runs []schedule.SweepRun
	err := s.Read(ctx, func(tx *Tx) error {
		return sqlitex.Execute(tx.conn, `
			SELECT run_id, holder, started_ns, finished_ns, cutoff_ns, deleted_ids
			FROM sweep_runs ORDER BY started_ns DESC, run_id LIMIT ?`,
			&sqlitex.ExecOptions{
				Args: []any{limit},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					blob := make([]byte, stmt.ColumnLen(5))
					stmt.ColumnBytes(5, blob)
					var ids []int64
					if err := codec.Unmarshal(blob, &ids); err != nil {
						return fmt.Errorf("decoding deleted IDs of sweep %s: %w", stmt.ColumnText(0), err)
					}
					run := schedule.SweepRun{
						ID:         stmt.ColumnText(0),
						Holder:     stmt.ColumnText(1),
						StartedAt:  fromNanos(stmt.ColumnInt64(2)),
						FinishedAt: fromNanos(stmt.ColumnInt64(3)),
						Cutoff:     fromNanos(stmt.ColumnInt64(4)),
						Deleted:    make([]schedule.EventID, len(ids)),
					}
					for i, id := range ids {
						run.Deleted[i] = schedule.EventID(id)
					}
					runs = append(runs, run)
					return nil
				},
			})
	})
	if err != nil {
		return nil, fmt.Errorf("store: listing sweeps: %w", err)
	}
	return runs, nil
}
