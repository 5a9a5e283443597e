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

// eventColumns is the projection scanEvent expects, with events
// aliased as e.
const eventColumns = `e.event_id, e.owner_id, e.name, e.description, e.start_ns, e.end_ns,
	e.room_id, e.privacy, e.max_capacity, e.allow_friend_invites, e.is_recurring,
	e.is_all_day, e.color, e.is_cancelled, e.is_deleted, e.deleted_ns, e.created_ns`

const eventColumnCount = 17

func scanEvent(stmt *sqlite.Stmt) schedule.Event {
	event := schedule.Event{
		ID:                 schedule.EventID(stmt.ColumnInt64(0)),
		OwnerID:            schedule.UserID(stmt.ColumnInt64(1)),
		Name:               stmt.ColumnText(2),
		Description:        stmt.ColumnText(3),
		Start:              fromNanos(stmt.ColumnInt64(4)),
		End:                fromNanos(stmt.ColumnInt64(5)),
		RoomID:             schedule.RoomID(stmt.ColumnInt64(6)),
		Privacy:            schedule.Privacy(stmt.ColumnText(7)),
		AllowFriendInvites: stmt.ColumnInt64(9) != 0,
		IsRecurring:        stmt.ColumnInt64(10) != 0,
		AllDay:             stmt.ColumnInt64(11) != 0,
		Color:              stmt.ColumnText(12),
		Cancelled:          stmt.ColumnInt64(13) != 0,
		Deleted:            stmt.ColumnInt64(14) != 0,
		CreatedAt:          fromNanos(stmt.ColumnInt64(16)),
	}
	if !stmt.ColumnIsNull(8) {
		limit := stmt.ColumnInt(8)
		event.MaxCapacity = &limit
	}
	if !stmt.ColumnIsNull(15) {
		event.DeletedAt = fromNanos(stmt.ColumnInt64(15))
	}
	return event
}

func (tx *Tx) queryEvents(query string, args ...any) ([]schedule.Event, error) {
	var events []schedule.Event
	err := sqlitex.Execute(tx.conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			events = append(events, scanEvent(stmt))
			return nil
		},
	})
	return events, err
}

// InsertEvent stores event and sets its ID. CreatedAt must be set by
// the caller.
func (tx *Tx) InsertEvent(event *schedule.Event) error {
	err := sqlitex.Execute(tx.conn, `
		INSERT INTO events (owner_id, name, description, start_ns, end_ns, room_id,
			privacy, max_capacity, allow_friend_invites, is_recurring, is_all_day,
			color, is_cancelled, created_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{Args: []any{
			event.OwnerID, event.Name, event.Description,
			toNanos(event.Start), toNanos(event.End), nullable(event.RoomID),
			string(event.Privacy), nullableInt(event.MaxCapacity),
			boolInt(event.AllowFriendInvites), boolInt(event.IsRecurring), boolInt(event.AllDay),
			event.Color, boolInt(event.Cancelled), toNanos(event.CreatedAt),
		}})
	if err != nil {
		return fmt.Errorf("store: inserting event %q: %w", event.Name, err)
	}
	event.ID = schedule.EventID(tx.conn.LastInsertRowID())
	return nil
}

// Event returns the event with id whether or not it is soft-deleted.
func (tx *Tx) Event(id schedule.EventID) (schedule.Event, error) {
	events, err := tx.queryEvents(`SELECT `+eventColumns+` FROM events e WHERE e.event_id = ?`, id)
	if err != nil {
		return schedule.Event{}, fmt.Errorf("store: loading event %d: %w", id, err)
	}
	if len(events) == 0 {
		return schedule.Event{}, schedule.EventNotFound(id)
	}
	return events[0], nil
}

// UpdateEvent rewrites the mutable fields of a live event. Ownership,
// recurrence and deletion state are not touched.
func (tx *Tx) UpdateEvent(event schedule.Event) error {
	err := sqlitex.Execute(tx.conn, `
		UPDATE events SET
			name = ?, description = ?, start_ns = ?, end_ns = ?, room_id = ?,
			privacy = ?, max_capacity = ?, allow_friend_invites = ?, is_all_day = ?,
			color = ?, is_cancelled = ?
		WHERE event_id = ? AND is_deleted = 0`,
		&sqlitex.ExecOptions{Args: []any{
			event.Name, event.Description, toNanos(event.Start), toNanos(event.End),
			nullable(event.RoomID), string(event.Privacy), nullableInt(event.MaxCapacity),
			boolInt(event.AllowFriendInvites), boolInt(event.AllDay),
			event.Color, boolInt(event.Cancelled), event.ID,
		}})
	if err != nil {
		return fmt.Errorf("store: updating event %d: %w", event.ID, err)
	}
	if tx.conn.Changes() == 0 {
		return schedule.EventNotFound(event.ID)
	}
	return nil
}

// SoftDelete marks a live event deleted at the given instant. It
// reports false when the event is missing or already deleted.
func (tx *Tx) SoftDelete(id schedule.EventID, at time.Time) (bool, error) {
	err := sqlitex.Execute(tx.conn,
		`UPDATE events SET is_deleted = 1, deleted_ns = ? WHERE event_id = ? AND is_deleted = 0`,
		&sqlitex.ExecOptions{Args: []any{toNanos(at), id}})
	if err != nil {
		return false, fmt.Errorf("store: deleting event %d: %w", id, err)
	}
	return tx.conn.Changes() == 1, nil
}

// Restore clears the deletion mark. It reports false when the event is
// missing or not deleted.
func (tx *Tx) Restore(id schedule.EventID) (bool, error) {
	err := sqlitex.Execute(tx.conn,
		`UPDATE events SET is_deleted = 0, deleted_ns = NULL WHERE event_id = ? AND is_deleted = 1`,
		&sqlitex.ExecOptions{Args: []any{id}})
	if err != nil {
		return false, fmt.Errorf("store: restoring event %d: %w", id, err)
	}
	return tx.conn.Changes() == 1, nil
}

// AddAdmin grants user edit rights on event. Granting twice is a no-op.
func (tx *Tx) AddAdmin(event schedule.EventID, user schedule.UserID) error {
	err := sqlitex.Execute(tx.conn,
		`INSERT INTO event_admins (event_id, user_id) VALUES (?, ?) ON CONFLICT DO NOTHING`,
		&sqlitex.ExecOptions{Args: []any{event, user}})
	if err != nil {
		return fmt.Errorf("store: adding admin %d to event %d: %w", user, event, err)
	}
	return nil
}

// IsManager reports whether user owns or administers event.
func (tx *Tx) IsManager(event schedule.EventID, user schedule.UserID) (bool, error) {
	var manager bool
	err := sqlitex.Execute(tx.conn, `
		SELECT EXISTS (SELECT 1 FROM events WHERE event_id = ?1 AND owner_id = ?2)
		    OR EXISTS (SELECT 1 FROM event_admins WHERE event_id = ?1 AND user_id = ?2)`,
		&sqlitex.ExecOptions{
			Args: []any{event, user},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				manager = stmt.ColumnInt64(0) != 0
				return nil
			},
		})
	if err != nil {
		return false, fmt.Errorf("store: checking managers of event %d: %w", event, err)
	}
	return manager, nil
}

// RoomEvents returns live, uncancelled events in room that overlap iv.
func (tx *Tx) RoomEvents(room schedule.RoomID, iv schedule.Interval, exclude schedule.EventID) ([]schedule.Event, error) {
	events, err := tx.queryEvents(`
		SELECT `+eventColumns+`
		FROM events e
		WHERE e.room_id = ? AND e.is_deleted = 0 AND e.is_cancelled = 0
		  AND e.start_ns < ? AND e.end_ns > ? AND e.event_id != ?
		ORDER BY e.start_ns, e.event_id`,
		room, toNanos(iv.End), toNanos(iv.Start), exclude)
	if err != nil {
		return nil, fmt.Errorf("store: room %d bookings: %w", room, err)
	}
	return events, nil
}

// UserEvents returns live, uncancelled events user has accepted that
// overlap iv.
func (tx *Tx) UserEvents(user schedule.UserID, iv schedule.Interval, exclude schedule.EventID) ([]schedule.Event, error) {
	events, err := tx.queryEvents(`
		SELECT `+eventColumns+`
		FROM events e
		JOIN rsvps r ON r.event_id = e.event_id AND r.user_id = ? AND r.status = 'accepted'
		WHERE e.is_deleted = 0 AND e.is_cancelled = 0
		  AND e.start_ns < ? AND e.end_ns > ? AND e.event_id != ?
		ORDER BY e.start_ns, e.event_id`,
		user, toNanos(iv.End), toNanos(iv.Start), exclude)
	if err != nil {
		return nil, fmt.Errorf("store: user %d bookings: %w", user, err)
	}
	return events, nil
}

// DefaultDeletedLimit caps ListDeleted when no limit is given.
const DefaultDeletedLimit = 50

// ListDeleted returns soft-deleted events that user owns or responded
// to, latest start first.
func (tx *Tx) ListDeleted(user schedule.UserID, limit int) ([]schedule.DeletedEvent, error) {
	if limit <= 0 {
		limit = DefaultDeletedLimit
	}
	var deleted []schedule.DeletedEvent
	err := sqlitex.Execute(tx.conn, `
		SELECT `+eventColumns+`,
			(SELECT COUNT(*) FROM rsvps a WHERE a.event_id = e.event_id AND a.status = 'accepted'),
			e.owner_id = ?1
		FROM events e
		WHERE e.is_deleted = 1
		  AND (e.owner_id = ?1
		       OR EXISTS (SELECT 1 FROM rsvps r WHERE r.event_id = e.event_id AND r.user_id = ?1))
		ORDER BY e.start_ns DESC, e.event_id DESC
		LIMIT ?2`,
		&sqlitex.ExecOptions{
			Args: []any{user, limit},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				deleted = append(deleted, schedule.DeletedEvent{
					Event:     scanEvent(stmt),
					Attending: stmt.ColumnInt(eventColumnCount),
					Owned:     stmt.ColumnInt64(eventColumnCount+1) != 0,
				})
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("store: deleted events of user %d: %w", user, err)
	}
	return deleted, nil
}
