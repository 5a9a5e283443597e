// Copyright 2026 The Greendale Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"fmt"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/greendale-community/greendale/lib/schedule"
)

// UpsertInvite creates a pending invite or resets an existing response
// back to pending with a new inviter.
func (tx *Tx) UpsertInvite(event schedule.EventID, user, invitedBy schedule.UserID, at time.Time) error {
	err := sqlitex.Execute(tx.conn, `
		INSERT INTO rsvps (event_id, user_id, status, invited_by, updated_ns)
		VALUES (?, ?, 'pending', ?, ?)
		ON CONFLICT (event_id, user_id) DO UPDATE SET
			status = 'pending',
			invited_by = excluded.invited_by,
			updated_ns = excluded.updated_ns`,
		&sqlitex.ExecOptions{Args: []any{event, user, nullable(invitedBy), toNanos(at)}})
	if err != nil {
		return fmt.Errorf("store: inviting user %d to event %d: %w", user, event, err)
	}
	return nil
}

// SetRSVPStatus records user's response, creating the row if needed.
// invited_by is kept.
func (tx *Tx) SetRSVPStatus(event schedule.EventID, user schedule.UserID, status schedule.RSVPStatus, at time.Time) error {
	err := sqlitex.Execute(tx.conn, `
		INSERT INTO rsvps (event_id, user_id, status, updated_ns)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (event_id, user_id) DO UPDATE SET
			status = excluded.status,
			updated_ns = excluded.updated_ns`,
		&sqlitex.ExecOptions{Args: []any{event, user, string(status), toNanos(at)}})
	if err != nil {
		return fmt.Errorf("store: setting RSVP of user %d on event %d: %w", user, event, err)
	}
	return nil
}

// DeletePendingInvite removes user's invite only while it is pending.
// It reports whether a row was removed.
func (tx *Tx) DeletePendingInvite(event schedule.EventID, user schedule.UserID) (bool, error) {
	err := sqlitex.Execute(tx.conn,
		`DELETE FROM rsvps WHERE event_id = ? AND user_id = ? AND status = 'pending'`,
		&sqlitex.ExecOptions{Args: []any{event, user}})
	if err != nil {
		return false, fmt.Errorf("store: cancelling invite of user %d on event %d: %w", user, event, err)
	}
	return tx.conn.Changes() == 1, nil
}

func scanRSVP(stmt *sqlite.Stmt) schedule.RSVP {
	return schedule.RSVP{
		EventID:   schedule.EventID(stmt.ColumnInt64(0)),
		UserID:    schedule.UserID(stmt.ColumnInt64(1)),
		Status:    schedule.RSVPStatus(stmt.ColumnText(2)),
		InvitedBy: schedule.UserID(stmt.ColumnInt64(3)),
		UpdatedAt: fromNanos(stmt.ColumnInt64(4)),
	}
}

// RSVP returns user's row for event. The bool is false when none
// exists.
func (tx *Tx) RSVP(event schedule.EventID, user schedule.UserID) (schedule.RSVP, bool, error) {
	var (
		rsvp  schedule.RSVP
		found bool
	)
	err := sqlitex.Execute(tx.conn, `
		SELECT event_id, user_id, status, invited_by, updated_ns
		FROM rsvps WHERE event_id = ? AND user_id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{event, user},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				rsvp, found = scanRSVP(stmt), true
				return nil
			},
		})
	if err != nil {
		return schedule.RSVP{}, false, fmt.Errorf("store: RSVP of user %d on event %d: %w", user, event, err)
	}
	return rsvp, found, nil
}

// Attendance counts accepted and pending rows of event.
func (tx *Tx) Attendance(event schedule.EventID) (attending, pending int, err error) {
	err = sqlitex.Execute(tx.conn, `
		SELECT COALESCE(SUM(status = 'accepted'), 0), COALESCE(SUM(status = 'pending'), 0)
		FROM rsvps WHERE event_id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{event},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				attending, pending = stmt.ColumnInt(0), stmt.ColumnInt(1)
				return nil
			},
		})
	if err != nil {
		return 0, 0, fmt.Errorf("store: attendance of event %d: %w", event, err)
	}
	return attending, pending, nil
}

// Invitees lists every RSVP row of event, oldest change first.
func (tx *Tx) Invitees(event schedule.EventID) ([]schedule.RSVP, error) {
	var rsvps []schedule.RSVP
	err := sqlitex.Execute(tx.conn, `
		SELECT event_id, user_id, status, invited_by, updated_ns
		FROM rsvps WHERE event_id = ?
		ORDER BY updated_ns, user_id`,
		&sqlitex.ExecOptions{
			Args: []any{event},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				rsvps = append(rsvps, scanRSVP(stmt))
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("store: invitees of event %d: %w", event, err)
	}
	return rsvps, nil
}
