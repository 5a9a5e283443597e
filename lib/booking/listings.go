// Copyright 2026 The Greendale Authors
// SPDX-License-Identifier: Apache-2.0

package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/greendale-community/greendale/lib/schedule"
	"github.com/greendale-community/greendale/lib/store"
)

const (
	// DefaultListLimit applies to the upcoming, attending and managed
	// views when no limit is given.
	DefaultListLimit = 20

	// DefaultHistoryLimit applies to History when no limit is given.
	DefaultHistoryLimit = 50

	// MaxListLimit caps every limited view.
	MaxListLimit = 200

	// MaxListSpan is the widest range List accepts.
	MaxListSpan = 366 * 24 * time.Hour
)

// pageSize is how many candidates one read fetches while privacy
// filtering.
const pageSize = 100

func clampLimit(limit, fallback int) int {
	switch {
	case limit <= 0:
		return fallback
	case limit > MaxListLimit:
		return MaxListLimit
	}
	return limit
}

// List returns the live, uncancelled events overlapping iv that
// viewer may see, ordered by start. This is the calendar's month and
// day view.
func (o *Orchestrator) List(ctx context.Context, viewer schedule.UserID, iv schedule.Interval) ([]schedule.Listing, error) {
	switch {
	case iv.Start.IsZero():
		return nil, &schedule.ValidationError{Field: "from", Reason: "is required"}
	case iv.End.IsZero():
		return nil, &schedule.ValidationError{Field: "to", Reason: "is required"}
	case !iv.Start.Before(iv.End):
		return nil, &schedule.ValidationError{Field: "to", Reason: "must be after from"}
	case iv.End.Sub(iv.Start) > MaxListSpan:
		return nil, &schedule.ValidationError{Field: "to", Reason: fmt.Sprintf("range may span at most %s", MaxListSpan)}
	}
	iv = schedule.Interval{Start: iv.Start.UTC(), End: iv.End.UTC()}

	listings, err := o.visible(ctx, viewer, 0, func(tx *store.Tx, after *store.Cursor, n int) ([]schedule.Listing, error) {
		return tx.ListRange(viewer, iv, after, n)
	})
	if err != nil {
		return nil, fmt.Errorf("booking: list for user %d: %w", viewer, err)
	}
	return listings, nil
}

// Upcoming returns future events viewer may see and has not yet
// accepted, soonest first. Each is flagged when it overlaps an event
// viewer already accepted.
func (o *Orchestrator) Upcoming(ctx context.Context, viewer schedule.UserID, limit int) ([]schedule.Listing, error) {
	limit = clampLimit(limit, DefaultListLimit)
	now := o.clock.Now()
	listings, err := o.visible(ctx, viewer, limit, func(tx *store.Tx, after *store.Cursor, n int) ([]schedule.Listing, error) {
		return tx.ListUpcoming(viewer, now, after, n)
	})
	if err != nil {
		return nil, fmt.Errorf("booking: upcoming for user %d: %w", viewer, err)
	}
	err = o.store.Read(ctx, func(tx *store.Tx) error {
		for i := range listings {
			clashes, err := tx.UserEvents(viewer, listings[i].Interval(), listings[i].ID)
			if err != nil {
				return err
			}
			listings[i].TimeConflict = len(clashes) > 0
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("booking: upcoming for user %d: %w", viewer, err)
	}
	return listings, nil
}

// Attending returns future events user has accepted, soonest first.
func (o *Orchestrator) Attending(ctx context.Context, user schedule.UserID, limit int) ([]schedule.Listing, error) {
	limit = clampLimit(limit, DefaultListLimit)
	now := o.clock.Now()
	var listings []schedule.Listing
	err := o.store.Read(ctx, func(tx *store.Tx) (err error) {
		listings, err = tx.ListAttending(user, now, limit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("booking: attending for user %d: %w", user, err)
	}
	return listings, nil
}

// Managed returns future events user owns or administers, soonest
// first.
func (o *Orchestrator) Managed(ctx context.Context, user schedule.UserID, limit int) ([]schedule.Listing, error) {
	limit = clampLimit(limit, DefaultListLimit)
	now := o.clock.Now()
	var listings []schedule.Listing
	err := o.store.Read(ctx, func(tx *store.Tx) (err error) {
		listings, err = tx.ListManaged(user, now, limit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("booking: managed for user %d: %w", user, err)
	}
	return listings, nil
}

// History returns finished events user was invited to or responded
// to, most recent first.
func (o *Orchestrator) History(ctx context.Context, user schedule.UserID, limit int) ([]schedule.Listing, error) {
	limit = clampLimit(limit, DefaultHistoryLimit)
	now := o.clock.Now()
	var listings []schedule.Listing
	err := o.store.Read(ctx, func(tx *store.Tx) (err error) {
		listings, err = tx.ListHistory(user, now, limit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("booking: history for user %d: %w", user, err)
	}
	return listings, nil
}

// visible pages through fetch and keeps the listings viewer may see,
// stopping after limit of them (0 means no limit). Each page is read
// on its own connection and filtered after it is returned, since the
// friend graph may be served from the same pool.
func (o *Orchestrator) visible(ctx context.Context, viewer schedule.UserID, limit int,
	fetch func(tx *store.Tx, after *store.Cursor, n int) ([]schedule.Listing, error)) ([]schedule.Listing, error) {

	var friends schedule.FriendGraph
	if o.friends != nil {
		friends = &friendMemo{graph: o.friends, known: make(map[[2]schedule.UserID]bool)}
	}

	var (
		kept  []schedule.Listing
		after *store.Cursor
	)
	for {
		var page []schedule.Listing
		err := o.store.Read(ctx, func(tx *store.Tx) (err error) {
			page, err = fetch(tx, after, pageSize)
			return err
		})
		if err != nil {
			return nil, err
		}
		for _, listing := range page {
			ok, err := schedule.CanView(ctx, listing.Event, listing.Viewer(viewer), friends)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			kept = append(kept, listing)
			if limit > 0 && len(kept) == limit {
				return kept, nil
			}
		}
		if len(page) < pageSize {
			return kept, nil
		}
		after = store.CursorAfter(page[len(page)-1])
	}
}

// friendMemo remembers friendship answers for the length of one
// listing.
type friendMemo struct {
	graph schedule.FriendGraph
	known map[[2]schedule.UserID]bool
}

func (m *friendMemo) AreFriends(ctx context.Context, a, b schedule.UserID) (bool, error) {
	key := [2]schedule.UserID{a, b}
	if friends, ok := m.known[key]; ok {
		return friends, nil
	}
	friends, err := m.graph.AreFriends(ctx, a, b)
	if err != nil {
		return false, err
	}
	m.known[key] = friends
	return friends, nil
}
