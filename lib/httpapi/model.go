// Copyright 2026 The Greendale Authors
// SPDX-License-Identifier: Apache-2.0

package httpapi

import (
	"time"

	"github.com/greendale-community/greendale/lib/booking"
	"github.com/greendale-community/greendale/lib/recurrence"
	"github.com/greendale-community/greendale/lib/schedule"
)

type eventJSON struct {
	ID                 schedule.EventID `json:"event_id"`
	OwnerID            schedule.UserID  `json:"owner_id"`
	Name               string           `json:"name"`
	Description        string           `json:"description"`
	Start              time.Time        `json:"start_time"`
	End                time.Time        `json:"end_time"`
	RoomID             *schedule.RoomID `json:"room_id"`
	Privacy            schedule.Privacy `json:"privacy_type"`
	MaxCapacity        *int             `json:"max_capacity"`
	AllowFriendInvites bool             `json:"allow_friend_invites"`
	IsRecurring        bool             `json:"is_recurring"`
	AllDay             bool             `json:"is_all_day"`
	Color              string           `json:"color"`
	Cancelled          bool             `json:"is_cancelled"`
	DeletedAt          *time.Time       `json:"deleted_at,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
}

func toEventJSON(event schedule.Event) eventJSON {
	out := eventJSON{
		ID:                 event.ID,
		OwnerID:            event.OwnerID,
		Name:               event.Name,
		Description:        event.Description,
		Start:              event.Start,
		End:                event.End,
		Privacy:            event.Privacy,
		MaxCapacity:        event.MaxCapacity,
		AllowFriendInvites: event.AllowFriendInvites,
		IsRecurring:        event.IsRecurring,
		AllDay:             event.AllDay,
		Color:              event.Color,
		Cancelled:          event.Cancelled,
		CreatedAt:          event.CreatedAt,
	}
	if event.RoomID != schedule.NoRoom {
		room := event.RoomID
		out.RoomID = &room
	}
	if event.Deleted {
		at := event.DeletedAt
		out.DeletedAt = &at
	}
	return out
}

type deletedEventJSON struct {
	eventJSON
	Attending int  `json:"attending_count"`
	Owned     bool `json:"is_owner"`
}

type listingJSON struct {
	eventJSON
	Attending    int                 `json:"attending_count"`
	Status       schedule.RSVPStatus `json:"user_rsvp_status,omitempty"`
	Managed      bool                `json:"is_manager"`
	Full         bool                `json:"is_full"`
	TimeConflict bool                `json:"has_time_conflict"`
}

func toListingsJSON(listings []schedule.Listing) []listingJSON {
	out := make([]listingJSON, len(listings))
	for i, l := range listings {
		out[i] = listingJSON{
			eventJSON:    toEventJSON(l.Event),
			Attending:    l.Attending,
			Status:       l.Status,
			Managed:      l.Managed,
			Full:         l.Full(),
			TimeConflict: l.TimeConflict,
		}
	}
	return out
}

type warningJSON struct {
	Kind             schedule.ConflictKind `json:"type"`
	Occurrence       int                   `json:"occurrence"`
	ProposedStart    time.Time             `json:"proposed_start"`
	ProposedEnd      time.Time             `json:"proposed_end"`
	ConflictingID    schedule.EventID      `json:"conflicting_event_id"`
	ConflictingName  string                `json:"conflicting_event_name"`
	ConflictingStart time.Time             `json:"conflicting_start"`
	ConflictingEnd   time.Time             `json:"conflicting_end"`
	Message          string                `json:"message"`
}

func toWarningJSON(w schedule.Warning) warningJSON {
	return warningJSON{
		Kind:             w.Kind,
		Occurrence:       w.Occurrence,
		ProposedStart:    w.Proposed.Start,
		ProposedEnd:      w.Proposed.End,
		ConflictingID:    w.ConflictingID,
		ConflictingName:  w.ConflictingName,
		ConflictingStart: w.ConflictingStart,
		ConflictingEnd:   w.ConflictingEnd,
		Message:          w.String(),
	}
}

// detailsJSON is the editable part of create and update bodies.
type detailsJSON struct {
	Name               string           `json:"name"`
	Description        string           `json:"description"`
	Start              time.Time        `json:"start_time"`
	End                time.Time        `json:"end_time"`
	RoomID             schedule.RoomID  `json:"room_id"`
	Privacy            schedule.Privacy `json:"privacy_type"`
	MaxCapacity        *int             `json:"max_capacity"`
	AllowFriendInvites bool             `json:"allow_friend_invites"`
	AllDay             bool             `json:"is_all_day"`
	Color              string           `json:"color"`
}

func (d detailsJSON) details() booking.Details {
	return booking.Details{
		Name:               d.Name,
		Description:        d.Description,
		Start:              d.Start,
		End:                d.End,
		RoomID:             d.RoomID,
		Privacy:            d.Privacy,
		MaxCapacity:        d.MaxCapacity,
		AllowFriendInvites: d.AllowFriendInvites,
		AllDay:             d.AllDay,
		Color:              d.Color,
	}
}

type createEventRequest struct {
	detailsJSON
	RecurrenceType recurrence.Kind `json:"recurrence_type"`

	// RecurrenceEnd is a date (2006-01-02), inclusive.
	RecurrenceEnd string `json:"recurrence_end_date"`
}

type updateEventRequest struct {
	detailsJSON
	Cancelled bool `json:"is_cancelled"`
}

type inviteRequest struct {
	UserIDs []schedule.UserID `json:"user_ids"`
}

type inviteReportJSON struct {
	Invited int               `json:"invited"`
	Failed  []schedule.UserID `json:"failed"`
}

type rsvpRequest struct {
	Status schedule.RSVPStatus `json:"status"`
}

type rsvpJSON struct {
	EventID   schedule.EventID    `json:"event_id"`
	UserID    schedule.UserID     `json:"user_id"`
	Status    schedule.RSVPStatus `json:"status"`
	InvitedBy *schedule.UserID    `json:"invited_by"`
	UpdatedAt time.Time           `json:"updated_at"`
}

func toRSVPJSON(r schedule.RSVP) rsvpJSON {
	out := rsvpJSON{EventID: r.EventID, UserID: r.UserID, Status: r.Status, UpdatedAt: r.UpdatedAt}
	if r.InvitedBy != 0 {
		by := r.InvitedBy
		out.InvitedBy = &by
	}
	return out
}

type inviteInfoJSON struct {
	EventID     schedule.EventID `json:"event_id"`
	MaxCapacity *int             `json:"max_capacity"`
	Attending   int              `json:"attending_count"`
	Pending     int              `json:"pending_count"`
	Invited     int              `json:"invited_count"`
	Invitees    []rsvpJSON       `json:"invitees"`
}

type sweepResultJSON struct {
	Success      bool   `json:"success"`
	RunID        string `json:"run_id,omitempty"`
	DeletedCount int    `json:"deleted_count"`
	Message      string `json:"message"`
}

type sweepRunJSON struct {
	ID         string             `json:"run_id"`
	Holder     string             `json:"holder"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	Cutoff     time.Time          `json:"cutoff"`
	Deleted    []schedule.EventID `json:"deleted_event_ids"`
}
