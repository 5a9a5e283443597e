// Copyright 2026 The Greendale Authors
// SPDX-License-Identifier: Apache-2.0

// Package booking creates, edits, deletes and restores events.
//
// A request is validated, its capacity resolved against the room, its
// recurrence expanded, and every occurrence checked for room and
// attendee conflicts. The conflict check and all writes share one
// IMMEDIATE transaction, so either every occurrence is stored with its
// owner-admin and owner-RSVP rows or nothing is, and no concurrent
// booking can slip in between the check and the write.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/greendale-community/greendale/lib/capacity"
	"github.com/greendale-community/greendale/lib/clock"
	"github.com/greendale-community/greendale/lib/conflict"
	"github.com/greendale-community/greendale/lib/recurrence"
	"github.com/greendale-community/greendale/lib/schedule"
	"github.com/greendale-community/greendale/lib/store"
)

// Config holds the orchestrator's dependencies. Friends may be nil, in
// which case friends-only events are visible only to their owner,
// admins and invitees.
type Config struct {
	Store   *store.Store
	Rooms   schedule.RoomLookup
	Friends schedule.FriendGraph
	Clock   clock.Clock
	Logger  *slog.Logger
}

// Orchestrator is safe for concurrent use.
type Orchestrator struct {
	store   *store.Store
	rooms   schedule.RoomLookup
	friends schedule.FriendGraph
	clock   clock.Clock
	logger  *slog.Logger
}

// New validates cfg.
func New(cfg Config) (*Orchestrator, error) {
	switch {
	case cfg.Store == nil:
		return nil, fmt.Errorf("booking: Store is required")
	case cfg.Rooms == nil:
		return nil, fmt.Errorf("booking: Rooms is required")
	case cfg.Clock == nil:
		return nil, fmt.Errorf("booking: Clock is required")
	case cfg.Logger == nil:
		return nil, fmt.Errorf("booking: Logger is required")
	}
	return &Orchestrator{
		store:   cfg.Store,
		rooms:   cfg.Rooms,
		friends: cfg.Friends,
		clock:   cfg.Clock,
		logger:  cfg.Logger,
	}, nil
}

// Details are the user-editable fields of an event.
type Details struct {
	Name        string
	Description string
	Start       time.Time
	End         time.Time

	// RoomID is schedule.NoRoom for a roomless event.
	RoomID schedule.RoomID

	// Privacy defaults to public.
	Privacy schedule.Privacy

	// MaxCapacity nil means the room's capacity, or unlimited without
	// a room.
	MaxCapacity *int

	AllowFriendInvites bool
	AllDay             bool

	// Color defaults to schedule.DefaultColor.
	Color string
}

// Draft is a request to create an event or a recurring series.
type Draft struct {
	OwnerID schedule.UserID
	Details
	Recurrence recurrence.Rule
}

// Changes replaces the editable fields of one existing event.
type Changes struct {
	Details
	Cancelled bool
}

// Result lists the events a Create stored, in occurrence order. It is
// empty when a recurrence produced no occurrences.
type Result struct {
	Events []schedule.Event
}

// normalize validates d and fills defaults.
func (d *Details) normalize() error {
	d.Name = strings.TrimSpace(d.Name)
	switch {
	case d.Name == "":
		return &schedule.ValidationError{Field: "name", Reason: "is required"}
	case d.Start.IsZero():
		return &schedule.ValidationError{Field: "start", Reason: "is required"}
	case d.End.IsZero():
		return &schedule.ValidationError{Field: "end", Reason: "is required"}
	case !d.Start.Before(d.End):
		return &schedule.ValidationError{Field: "end", Reason: "must be after start"}
	}
	d.Start, d.End = d.Start.UTC(), d.End.UTC()

	privacy, err := schedule.ParsePrivacy(string(d.Privacy))
	if err != nil {
		return err
	}
	d.Privacy = privacy
	if d.Color == "" {
		d.Color = schedule.DefaultColor
	}
	return nil
}

// resolveCapacity looks up the room and applies the capacity rules.
func (o *Orchestrator) resolveCapacity(ctx context.Context, d Details) (*int, error) {
	if d.RoomID == schedule.NoRoom {
		return capacity.Resolve(d.MaxCapacity, nil)
	}
	room, err := o.rooms.Room(ctx, d.RoomID)
	if errors.Is(err, schedule.ErrNotFound) {
		return nil, &schedule.ValidationError{Field: "room_id", Reason: fmt.Sprintf("room %d does not exist", d.RoomID)}
	}
	if err != nil {
		return nil, err
	}
	return capacity.Resolve(d.MaxCapacity, &room)
}

// Create validates draft and stores one event per occurrence. When any
// occurrence conflicts, nothing is stored and the returned error wraps
// a *schedule.ConflictError listing every conflict of every occurrence.
func (o *Orchestrator) Create(ctx context.Context, draft Draft) (Result, error) {
	if draft.OwnerID == 0 {
		return Result{}, &schedule.ValidationError{Field: "owner_id", Reason: "is required"}
	}
	if err := draft.normalize(); err != nil {
		return Result{}, err
	}
	if _, err := recurrence.ParseKind(string(draft.Recurrence.Kind)); err != nil {
		return Result{}, &schedule.ValidationError{Field: "recurrence_type", Reason: err.Error()}
	}
	if draft.Recurrence.Recurring() && draft.Recurrence.Until.IsZero() {
		return Result{}, &schedule.ValidationError{Field: "recurrence_end_date", Reason: "is required for recurring events"}
	}
	maxCapacity, err := o.resolveCapacity(ctx, draft.Details)
	if err != nil {
		return Result{}, fmt.Errorf("booking: create: %w", err)
	}
	occurrences, err := recurrence.Occurrences(draft.Recurrence, schedule.Interval{Start: draft.Start, End: draft.End})
	if errors.Is(err, recurrence.ErrTooManyOccurrences) {
		return Result{}, &schedule.ValidationError{Field: "recurrence_end_date", Reason: err.Error()}
	}
	if err != nil {
		return Result{}, fmt.Errorf("booking: create: %w", err)
	}
	if len(occurrences) == 0 {
		o.logger.Info("recurrence produced no occurrences",
			"owner_id", draft.OwnerID,
			"start", draft.Start,
			"until", draft.Recurrence.Until,
		)
		return Result{}, nil
	}

	now := o.clock.Now().UTC()
	var result Result
	err = o.store.Write(ctx, func(tx *store.Tx) error {
		warnings, err := conflict.Check(tx, conflict.Request{
			Occurrences: occurrences,
			Room:        draft.RoomID,
			User:        draft.OwnerID,
		})
		if err != nil {
			return err
		}
		if len(warnings) > 0 {
			return &schedule.ConflictError{Warnings: warnings}
		}

		for _, occurrence := range occurrences {
			event := schedule.Event{
				OwnerID:            draft.OwnerID,
				Name:               draft.Name,
				Description:        draft.Description,
				Start:              occurrence.Start,
				End:                occurrence.End,
				RoomID:             draft.RoomID,
				Privacy:            draft.Privacy,
				MaxCapacity:        maxCapacity,
				AllowFriendInvites: draft.AllowFriendInvites,
				IsRecurring:        draft.Recurrence.Recurring(),
				AllDay:             draft.AllDay,
				Color:              draft.Color,
				CreatedAt:          now,
			}
			if err := tx.InsertEvent(&event); err != nil {
				return err
			}
			if err := tx.AddAdmin(event.ID, draft.OwnerID); err != nil {
				return err
			}
			if err := tx.SetRSVPStatus(event.ID, draft.OwnerID, schedule.Accepted, now); err != nil {
				return err
			}
			result.Events = append(result.Events, event)
		}
		return nil
	})
	if err != nil {
		if warnings := schedule.Warnings(err); warnings != nil {
			o.logger.Info("booking rejected",
				"owner_id", draft.OwnerID,
				"occurrences", len(occurrences),
				"conflicts", len(warnings),
			)
		}
		return Result{}, fmt.Errorf("booking: create: %w", err)
	}

	o.logger.Info("events created",
		"owner_id", draft.OwnerID,
		"first_event_id", result.Events[0].ID,
		"occurrences", len(result.Events),
		"recurrence", draft.Recurrence.Kind,
	)
	return result, nil
}

// managedEvent loads a live event and checks that caller may manage it.
// Missing and soft-deleted events are not found.
func managedEvent(tx *store.Tx, caller schedule.UserID, id schedule.EventID, action string) (schedule.Event, error) {
	event, err := tx.Event(id)
	if err != nil {
		return schedule.Event{}, err
	}
	if err := requireManager(tx, caller, id, action); err != nil {
		return schedule.Event{}, err
	}
	if event.Deleted {
		return schedule.Event{}, schedule.EventNotFound(id)
	}
	return event, nil
}

func requireManager(tx *store.Tx, caller schedule.UserID, id schedule.EventID, action string) error {
	manager, err := tx.IsManager(id, caller)
	if err != nil {
		return err
	}
	if !manager {
		return &schedule.PermissionError{UserID: caller, EventID: id, Action: action}
	}
	return nil
}

// Update replaces the editable fields of one event. Sibling
// occurrences of a recurring series are untouched. The new slot is
// checked against the owner's calendar and the room, ignoring the
// event itself; a cancelled event is not checked because it no longer
// occupies its slot.
func (o *Orchestrator) Update(ctx context.Context, caller schedule.UserID, id schedule.EventID, changes Changes) (schedule.Event, error) {
	if err := changes.normalize(); err != nil {
		return schedule.Event{}, err
	}
	maxCapacity, err := o.resolveCapacity(ctx, changes.Details)
	if err != nil {
		return schedule.Event{}, fmt.Errorf("booking: update %d: %w", id, err)
	}

	var updated schedule.Event
	err = o.store.Write(ctx, func(tx *store.Tx) error {
		event, err := managedEvent(tx, caller, id, "edit")
		if err != nil {
			return err
		}
		event.Name = changes.Name
		event.Description = changes.Description
		event.Start, event.End = changes.Start, changes.End
		event.RoomID = changes.RoomID
		event.Privacy = changes.Privacy
		event.MaxCapacity = maxCapacity
		event.AllowFriendInvites = changes.AllowFriendInvites
		event.AllDay = changes.AllDay
		event.Color = changes.Color
		event.Cancelled = changes.Cancelled

		if !event.Cancelled {
			warnings, err := conflict.Check(tx, conflict.Request{
				Occurrences: []schedule.Interval{event.Interval()},
				Room:        event.RoomID,
				User:        event.OwnerID,
				Exclude:     id,
			})
			if err != nil {
				return err
			}
			if len(warnings) > 0 {
				return &schedule.ConflictError{Warnings: warnings}
			}
		}
		if err := tx.UpdateEvent(event); err != nil {
			return err
		}
		updated = event
		return nil
	})
	if err != nil {
		return schedule.Event{}, fmt.Errorf("booking: update %d: %w", id, err)
	}
	o.logger.Info("event updated", "event_id", id, "updated_by", caller, "cancelled", updated.Cancelled)
	return updated, nil
}

// Delete soft-deletes an event. It stays restorable until the
// retention sweep purges it.
func (o *Orchestrator) Delete(ctx context.Context, caller schedule.UserID, id schedule.EventID) error {
	now := o.clock.Now().UTC()
	err := o.store.Write(ctx, func(tx *store.Tx) error {
		if _, err := managedEvent(tx, caller, id, "delete"); err != nil {
			return err
		}
		deleted, err := tx.SoftDelete(id, now)
		if err != nil {
			return err
		}
		if !deleted {
			return schedule.EventNotFound(id)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("booking: delete %d: %w", id, err)
	}
	o.logger.Info("event deleted", "event_id", id, "deleted_by", caller)
	return nil
}

// Restore undoes a soft delete. Events that are not deleted are not
// found.
func (o *Orchestrator) Restore(ctx context.Context, caller schedule.UserID, id schedule.EventID) error {
	err := o.store.Write(ctx, func(tx *store.Tx) error {
		if _, err := tx.Event(id); err != nil {
			return err
		}
		if err := requireManager(tx, caller, id, "restore"); err != nil {
			return err
		}
		restored, err := tx.Restore(id)
		if err != nil {
			return err
		}
		if !restored {
			return schedule.EventNotFound(id)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("booking: restore %d: %w", id, err)
	}
	o.logger.Info("event restored", "event_id", id, "restored_by", caller)
	return nil
}

// Get returns a live event if viewer may see it. Hidden events are not
// found rather than forbidden.
func (o *Orchestrator) Get(ctx context.Context, viewer schedule.UserID, id schedule.EventID) (schedule.Event, error) {
	var (
		event  schedule.Event
		access = schedule.Viewer{UserID: viewer}
	)
	err := o.store.Read(ctx, func(tx *store.Tx) error {
		var err error
		if event, err = tx.Event(id); err != nil {
			return err
		}
		if event.Deleted {
			return schedule.EventNotFound(id)
		}
		if event.Privacy != schedule.FriendsOnly {
			return nil
		}
		if access.IsAdmin, err = tx.IsManager(id, viewer); err != nil {
			return err
		}
		_, access.HasRSVP, err = tx.RSVP(id, viewer)
		return err
	})
	if err != nil {
		return schedule.Event{}, fmt.Errorf("booking: get %d: %w", id, err)
	}

	// The friend graph may live in the same pool, so it is consulted
	// after the connection above is returned.
	visible, err := schedule.CanView(ctx, event, access, o.friends)
	if err != nil {
		return schedule.Event{}, fmt.Errorf("booking: get %d: %w", id, err)
	}
	if !visible {
		return schedule.Event{}, fmt.Errorf("booking: get %d: %w", id, schedule.EventNotFound(id))
	}
	return event, nil
}

// ListDeleted returns the soft-deleted events user owns or responded
// to, latest first. A non-positive limit means store.DefaultDeletedLimit.
func (o *Orchestrator) ListDeleted(ctx context.Context, user schedule.UserID, limit int) ([]schedule.DeletedEvent, error) {
	var deleted []schedule.DeletedEvent
	err := o.store.Read(ctx, func(tx *store.Tx) (err error) {
		deleted, err = tx.ListDeleted(user, limit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("booking: deleted events of user %d: %w", user, err)
	}
	return deleted, nil
}
