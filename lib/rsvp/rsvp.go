// Copyright 2026 The Greendale Authors
// SPDX-License-Identifier: Apache-2.0

// Package rsvp manages invitations and attendance responses.
//
// Each (event, user) pair moves through none → pending → accepted or
// declined. Re-inviting resets any response to pending. Only pending
// invites can be cancelled. The event owner is accepted at creation
// and is not invited through this package.
//
// Capacity is checked when invites are sent: accepted plus pending
// plus the new batch must fit max_capacity. Answering does not
// re-check it; the ceiling is advisory once invites are out.
package rsvp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/greendale-community/greendale/lib/capacity"
	"github.com/greendale-community/greendale/lib/clock"
	"github.com/greendale-community/greendale/lib/schedule"
	"github.com/greendale-community/greendale/lib/store"
)

// Config holds a Manager's dependencies. Friends may be nil, in which
// case friends-only events accept responses only from users already
// holding an RSVP row or managing the event.
type Config struct {
	Store   *store.Store
	Friends schedule.FriendGraph
	Clock   clock.Clock
	Logger  *slog.Logger
}

// Manager implements the invite and RSVP operations.
type Manager struct {
	store   *store.Store
	friends schedule.FriendGraph
	clock   clock.Clock
	logger  *slog.Logger
}

// NewManager validates cfg.
func NewManager(cfg Config) (*Manager, error) {
	switch {
	case cfg.Store == nil:
		return nil, fmt.Errorf("rsvp: Store is required")
	case cfg.Clock == nil:
		return nil, fmt.Errorf("rsvp: Clock is required")
	case cfg.Logger == nil:
		return nil, fmt.Errorf("rsvp: Logger is required")
	}
	return &Manager{store: cfg.Store, friends: cfg.Friends, clock: cfg.Clock, logger: cfg.Logger}, nil
}

// InviteReport is the outcome of a bulk invite.
type InviteReport struct {
	Invited int
	Failed  []schedule.UserID
}

// liveManagedEvent loads a non-deleted event and checks that caller
// may manage it.
func liveManagedEvent(tx *store.Tx, caller schedule.UserID, id schedule.EventID, action string) (schedule.Event, error) {
	event, err := liveEvent(tx, id)
	if err != nil {
		return schedule.Event{}, err
	}
	manager, err := tx.IsManager(id, caller)
	if err != nil {
		return schedule.Event{}, err
	}
	if !manager {
		return schedule.Event{}, &schedule.PermissionError{UserID: caller, EventID: id, Action: action}
	}
	return event, nil
}

// CreateInvites invites users to event on behalf of caller, who must
// own or administer it. The whole batch is refused with a
// *schedule.CapacityError if it would overfill the event. Every user
// in the batch counts as a new seat, so re-inviting someone who is
// already pending to a full event is refused too. Otherwise each user
// is upserted under its own savepoint: one failing row is logged and
// reported in Failed without affecting the others. A failure that
// rolls back the enclosing transaction fails the whole batch, since
// the rows counted so far are gone. Duplicate IDs and the owner are
// skipped.
func (m *Manager) CreateInvites(ctx context.Context, caller schedule.UserID, eventID schedule.EventID, users []schedule.UserID) (InviteReport, error) {
	var report InviteReport
	err := m.store.Write(ctx, func(tx *store.Tx) error {
		event, err := liveManagedEvent(tx, caller, eventID, "invite to")
		if err != nil {
			return err
		}

		invitees := dedupe(users, event.OwnerID)
		attending, pending, err := tx.Attendance(eventID)
		if err != nil {
			return err
		}
		if err := capacity.Admit(event.MaxCapacity, attending, pending, len(invitees)); err != nil {
			return err
		}

		now := m.clock.Now()
		for _, user := range invitees {
			err := tx.Savepoint(func() error {
				return tx.UpsertInvite(eventID, user, caller, now)
			})
			if errors.Is(err, store.ErrRolledBack) {
				return err
			}
			if err != nil {
				m.logger.Warn("invite failed",
					"event_id", eventID,
					"user_id", user,
					"error", err,
				)
				report.Failed = append(report.Failed, user)
				continue
			}
			report.Invited++
		}
		return nil
	})
	if err != nil {
		return InviteReport{}, fmt.Errorf("rsvp: inviting to event %d: %w", eventID, err)
	}
	m.logger.Info("invites sent",
		"event_id", eventID,
		"invited_by", caller,
		"invited", report.Invited,
		"failed", len(report.Failed),
	)
	return report, nil
}

// dedupe drops repeats, zero IDs and the owner while keeping order.
func dedupe(users []schedule.UserID, owner schedule.UserID) []schedule.UserID {
	seen := make(map[schedule.UserID]bool, len(users))
	var unique []schedule.UserID
	for _, user := range users {
		if user == 0 || user == owner || seen[user] {
			continue
		}
		seen[user] = true
		unique = append(unique, user)
	}
	return unique
}

// DeleteInvite cancels user's invite to event. Only pending invites
// can be cancelled; anything else, including an invite that was
// already answered, is reported as not found.
func (m *Manager) DeleteInvite(ctx context.Context, caller schedule.UserID, eventID schedule.EventID, user schedule.UserID) error {
	err := m.store.Write(ctx, func(tx *store.Tx) error {
		if _, err := liveManagedEvent(tx, caller, eventID, "cancel invites of"); err != nil {
			return err
		}
		removed, err := tx.DeletePendingInvite(eventID, user)
		if err != nil {
			return err
		}
		if !removed {
			return schedule.InviteNotFound(eventID, user)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("rsvp: cancelling invite of user %d to event %d: %w", user, eventID, err)
	}
	m.logger.Info("invite cancelled", "event_id", eventID, "user_id", user, "cancelled_by", caller)
	return nil
}

// UpdateRSVP records user's own response to event. Only accepted and
// declined are valid answers. A friends-only event the user cannot
// see is reported as not found.
func (m *Manager) UpdateRSVP(ctx context.Context, eventID schedule.EventID, user schedule.UserID, status schedule.RSVPStatus) (schedule.RSVP, error) {
	if status != schedule.Accepted && status != schedule.Declined {
		return schedule.RSVP{}, &schedule.ValidationError{
			Field:  "status",
			Reason: fmt.Sprintf("must be %s or %s, got %q", schedule.Accepted, schedule.Declined, status),
		}
	}

	if err := m.requireVisible(ctx, eventID, user); err != nil {
		return schedule.RSVP{}, fmt.Errorf("rsvp: user %d responding to event %d: %w", user, eventID, err)
	}

	var rsvp schedule.RSVP
	err := m.store.Write(ctx, func(tx *store.Tx) error {
		if _, err := liveEvent(tx, eventID); err != nil {
			return err
		}
		if err := tx.SetRSVPStatus(eventID, user, status, m.clock.Now()); err != nil {
			return err
		}
		var found bool
		var err error
		rsvp, found, err = tx.RSVP(eventID, user)
		if err == nil && !found {
			err = fmt.Errorf("RSVP of user %d vanished after upsert", user)
		}
		return err
	})
	if err != nil {
		return schedule.RSVP{}, fmt.Errorf("rsvp: user %d responding to event %d: %w", user, eventID, err)
	}
	m.logger.Info("rsvp updated", "event_id", eventID, "user_id", user, "status", status)
	return rsvp, nil
}

func liveEvent(tx *store.Tx, id schedule.EventID) (schedule.Event, error) {
	event, err := tx.Event(id)
	if err != nil {
		return schedule.Event{}, err
	}
	if event.Deleted {
		return schedule.Event{}, schedule.EventNotFound(id)
	}
	return event, nil
}

// requireVisible reports a friends-only event user cannot see as not
// found. The friend graph is consulted without holding a connection,
// since it may be served from the same pool.
func (m *Manager) requireVisible(ctx context.Context, eventID schedule.EventID, user schedule.UserID) error {
	var (
		event  schedule.Event
		access = schedule.Viewer{UserID: user}
	)
	err := m.store.Read(ctx, func(tx *store.Tx) error {
		var err error
		if event, err = liveEvent(tx, eventID); err != nil {
			return err
		}
		if event.Privacy != schedule.FriendsOnly {
			return nil
		}
		if _, access.HasRSVP, err = tx.RSVP(eventID, user); err != nil {
			return err
		}
		access.IsAdmin, err = tx.IsManager(eventID, user)
		return err
	})
	if err != nil {
		return err
	}
	visible, err := schedule.CanView(ctx, event, access, m.friends)
	if err != nil {
		return err
	}
	if !visible {
		return schedule.EventNotFound(eventID)
	}
	return nil
}

// Info returns the attendance summary of a live event.
func (m *Manager) Info(ctx context.Context, eventID schedule.EventID) (schedule.InviteInfo, error) {
	var info schedule.InviteInfo
	err := m.store.Read(ctx, func(tx *store.Tx) error {
		event, err := liveEvent(tx, eventID)
		if err != nil {
			return err
		}
		info = schedule.InviteInfo{EventID: eventID, MaxCapacity: event.MaxCapacity}
		if info.Attending, info.Pending, err = tx.Attendance(eventID); err != nil {
			return err
		}
		info.Invitees, err = tx.Invitees(eventID)
		return err
	})
	if err != nil {
		return schedule.InviteInfo{}, fmt.Errorf("rsvp: invite info of event %d: %w", eventID, err)
	}
	return info, nil
}
