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

// listingColumns extends eventColumns with the columns that depend on
// the viewing user, who must be bound as ?1.
const listingColumns = eventColumns + `,
	(SELECT COUNT(*) FROM rsvps a WHERE a.event_id = e.event_id AND a.status = 'accepted'),
	COALESCE((SELECT v.status FROM rsvps v WHERE v.event_id = e.event_id AND v.user_id = ?1), ''),
	e.owner_id = ?1 OR EXISTS (SELECT 1 FROM event_admins m WHERE m.event_id = e.event_id AND m.user_id = ?1)`

// live restricts a listing to events that still occupy their slot.
const live = `e.is_deleted = 0 AND e.is_cancelled = 0`

func scanListing(stmt *sqlite.Stmt) schedule.Listing {
	return schedule.Listing{
		Event:     scanEvent(stmt),
		Attending: stmt.ColumnInt(eventColumnCount),
		Status:    schedule.RSVPStatus(stmt.ColumnText(eventColumnCount + 1)),
		Managed:   stmt.ColumnInt64(eventColumnCount+2) != 0,
	}
}

func (tx *Tx) queryListings(query string, args ...any) ([]schedule.Listing, error) {
	var listings []schedule.Listing
	err := sqlitex.Execute(tx.conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			listings = append(listings, scanListing(stmt))
			return nil
		},
	})
	return listings, err
}

// Cursor marks a position in a scan ordered by start then event ID.
// A scan given a cursor resumes strictly after it; a nil cursor starts
// from the beginning.
type Cursor struct {
	Start time.Time
	ID    schedule.EventID
}

// CursorAfter returns the cursor that resumes a scan after l.
func CursorAfter(l schedule.Listing) *Cursor {
	return &Cursor{Start: l.Start, ID: l.ID}
}

func (c *Cursor) args() (start, id any) {
	if c == nil {
		return nil, nil
	}
	return toNanos(c.Start), c.ID
}

// ListRange returns up to limit live events overlapping iv, as seen by
// viewer, ordered by start. Privacy is not applied here.
func (tx *Tx) ListRange(viewer schedule.UserID, iv schedule.Interval, after *Cursor, limit int) ([]schedule.Listing, error) {
	start, id := after.args()
	listings, err := tx.queryListings(`
		SELECT `+listingColumns+`
		FROM events e
		WHERE `+live+`
		  AND e.start_ns < ?2 AND e.end_ns > ?3
		  AND (?4 IS NULL OR (e.start_ns, e.event_id) > (?4, ?5))
		ORDER BY e.start_ns, e.event_id
		LIMIT ?6`,
		viewer, toNanos(iv.End), toNanos(iv.Start), start, id, limit)
	if err != nil {
		return nil, fmt.Errorf("store: events of user %d between %s and %s: %w",
			viewer, iv.Start.Format(time.RFC3339), iv.End.Format(time.RFC3339), err)
	}
	return listings, nil
}

// ListUpcoming returns up to limit live events starting after since
// that viewer has not accepted, ordered by start. Privacy is not
// applied here.
func (tx *Tx) ListUpcoming(viewer schedule.UserID, since time.Time, after *Cursor, limit int) ([]schedule.Listing, error) {
	start, id := after.args()
	listings, err := tx.queryListings(`
		SELECT `+listingColumns+`
		FROM events e
		WHERE `+live+`
		  AND e.start_ns > ?2
		  AND NOT EXISTS (SELECT 1 FROM rsvps x
		                  WHERE x.event_id = e.event_id AND x.user_id = ?1 AND x.status = 'accepted')
		  AND (?3 IS NULL OR (e.start_ns, e.event_id) > (?3, ?4))
		ORDER BY e.start_ns, e.event_id
		LIMIT ?5`,
		viewer, toNanos(since), start, id, limit)
	if err != nil {
		return nil, fmt.Errorf("store: upcoming events for user %d: %w", viewer, err)
	}
	return listings, nil
}

// ListAttending returns live events starting after since that user
// has accepted, soonest first.
func (tx *Tx) ListAttending(user schedule.UserID, since time.Time, limit int) ([]schedule.Listing, error) {
	listings, err := tx.queryListings(`
		SELECT `+listingColumns+`
		FROM events e
		JOIN rsvps r ON r.event_id = e.event_id AND r.user_id = ?1 AND r.status = 'accepted'
		WHERE `+live+` AND e.start_ns > ?2
		ORDER BY e.start_ns, e.event_id
		LIMIT ?3`,
		user, toNanos(since), limit)
	if err != nil {
		return nil, fmt.Errorf("store: events attended by user %d: %w", user, err)
	}
	return listings, nil
}

// ListManaged returns live events starting after since that user owns
// or administers, soonest first.
func (tx *Tx) ListManaged(user schedule.UserID, since time.Time, limit int) ([]schedule.Listing, error) {
	listings, err := tx.queryListings(`
		SELECT `+listingColumns+`
		FROM events e
		WHERE `+live+` AND e.start_ns > ?2
		  AND (e.owner_id = ?1
		       OR EXISTS (SELECT 1 FROM event_admins m WHERE m.event_id = e.event_id AND m.user_id = ?1))
		ORDER BY e.start_ns, e.event_id
		LIMIT ?3`,
		user, toNanos(since), limit)
	if err != nil {
		return nil, fmt.Errorf("store: events managed by user %d: %w", user, err)
	}
	return listings, nil
}

// ListHistory returns live events that ended before before and in
// which user holds an RSVP row of any status, latest start first.
func (tx *Tx) ListHistory(user schedule.UserID, before time.Time, limit int) ([]schedule.Listing, error) {
	listings, err := tx.queryListings(`
		SELECT `+listingColumns+`
		FROM events e
		JOIN rsvps r ON r.event_id = e.event_id AND r.user_id = ?1
		WHERE `+live+` AND e.end_ns < ?2
		ORDER BY e.start_ns DESC, e.event_id DESC
		LIMIT ?3`,
		user, toNanos(before), limit)
	if err != nil {
		return nil, fmt.Errorf("store: event history of user %d: %w", user, err)
	}
	return listings, nil
}
