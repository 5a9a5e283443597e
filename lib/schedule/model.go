// Copyright 2026 The Greendale Authors
// SPDX-License-Identifier: Apache-2.0

package schedule

import (
	"fmt"
	"time"
)

type (
	EventID int64
	UserID  int64
	RoomID  int64
)

// NoRoom marks an event that does not book a room.
const NoRoom RoomID = 0

// DefaultColor is the calendar colour of events created without one.
const DefaultColor = "#4287f5"

// Privacy controls who may see an event.
type Privacy string

const (
	Public      Privacy = "public"
	FriendsOnly Privacy = "friends_only"
)

// ParsePrivacy accepts the stored names. Empty means Public.
func ParsePrivacy(s string) (Privacy, error) {
	switch Privacy(s) {
	case "", Public:
		return Public, nil
	case FriendsOnly:
		return FriendsOnly, nil
	}
	return "", &ValidationError{Field: "privacy_type", Reason: fmt.Sprintf("unknown privacy %q", s)}
}

// Event is one scheduled occurrence. A recurring series is stored as
// independent events that share IsRecurring.
type Event struct {
	ID          EventID
	OwnerID     UserID
	Name        string
	Description string
	Start       time.Time
	End         time.Time

	// RoomID is NoRoom when the event books no room.
	RoomID RoomID

	Privacy Privacy

	// MaxCapacity is nil for unlimited attendance.
	MaxCapacity *int

	AllowFriendInvites bool
	IsRecurring        bool
	AllDay             bool
	Color              string

	Cancelled bool
	Deleted   bool

	// DeletedAt is zero unless Deleted.
	DeletedAt time.Time
	CreatedAt time.Time
}

// Interval returns [Start, End).
func (e Event) Interval() Interval { return Interval{Start: e.Start, End: e.End} }

// Schedulable reports whether the event still occupies its slot.
func (e Event) Schedulable() bool { return !e.Deleted && !e.Cancelled }

// Room is a bookable space. Rooms are owned outside the engine.
type Room struct {
	ID       RoomID
	Name     string
	Capacity int
}

// RSVPStatus is an invitee's response.
type RSVPStatus string

const (
	Pending  RSVPStatus = "pending"
	Accepted RSVPStatus = "accepted"
	Declined RSVPStatus = "declined"
)

// ParseRSVPStatus accepts the three stored names.
func ParseRSVPStatus(s string) (RSVPStatus, error) {
	switch status := RSVPStatus(s); status {
	case Pending, Accepted, Declined:
		return status, nil
	}
	return "", &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown RSVP status %q", s)}
}

// RSVP is the attendance record of one user for one event.
type RSVP struct {
	EventID EventID
	UserID  UserID
	Status  RSVPStatus

	// InvitedBy is zero for self-created rows such as the owner's.
	InvitedBy UserID
	UpdatedAt time.Time
}

// InviteInfo summarizes the attendance of an event.
type InviteInfo struct {
	EventID     EventID
	MaxCapacity *int
	Attending   int
	Pending     int
	Invitees    []RSVP
}

// Invited counts pending and accepted invitees.
func (i InviteInfo) Invited() int { return i.Attending + i.Pending }

// DeletedEvent is a soft-deleted event as listed for restore.
type DeletedEvent struct {
	Event
	Attending int
	// Owned is true when the listing user owns the event rather than
	// merely having responded to it.
	Owned bool
}

// Listing is a live event as it appears in one user's calendar views.
type Listing struct {
	Event

	// Attending counts accepted RSVPs, the owner included.
	Attending int

	// Status is the viewing user's response, empty when they hold no
	// RSVP row.
	Status RSVPStatus

	// Managed is true when the viewing user owns or administers the
	// event.
	Managed bool

	// TimeConflict is set by the upcoming view when the event overlaps
	// something the user already accepted.
	TimeConflict bool
}

// Full reports whether accepted attendance has reached MaxCapacity.
func (l Listing) Full() bool {
	return l.MaxCapacity != nil && l.Attending >= *l.MaxCapacity
}

// Viewer returns the access flags CanView needs for user.
func (l Listing) Viewer(user UserID) Viewer {
	return Viewer{UserID: user, IsAdmin: l.Managed, HasRSVP: l.Status != ""}
}

// SweepRun records one executed retention sweep.
type SweepRun struct {
	ID         string
	Holder     string
	StartedAt  time.Time
	FinishedAt time.Time
	Cutoff     time.Time
	Deleted    []EventID
}
