// Copyright 2026 The Greendale Authors
// SPDX-License-Identifier: Apache-2.0

// Package conflict finds existing bookings that overlap proposed
// occurrences. Room and attendee checks are independent and each
// reports every overlapping event, so a rejected request can show the
// whole picture at once.
package conflict

import (
	"fmt"

	"github.com/greendale-community/greendale/lib/schedule"
)

// Source answers overlap queries against stored events. Implementations
// return only events that are neither deleted nor cancelled, whose
// half-open interval overlaps iv, excluding the event with ID exclude
// (zero excludes nothing).
type Source interface {
	// RoomEvents returns events booked in room.
	RoomEvents(room schedule.RoomID, iv schedule.Interval, exclude schedule.EventID) ([]schedule.Event, error)

	// UserEvents returns events user has an accepted RSVP for.
	UserEvents(user schedule.UserID, iv schedule.Interval, exclude schedule.EventID) ([]schedule.Event, error)
}

// Request describes the occurrences a caller wants to book.
type Request struct {
	Occurrences []schedule.Interval

	// Room is schedule.NoRoom when no room is booked; the room check is
	// then skipped.
	Room schedule.RoomID

	// User is the attendee whose calendar must be free, normally the
	// event owner.
	User schedule.UserID

	// Exclude is the event being edited, so it does not conflict with
	// itself.
	Exclude schedule.EventID
}

// Check runs the room and user checks for every occurrence and returns
// all warnings in occurrence order, room warnings first within an
// occurrence. A nil slice means the request is free of conflicts.
func Check(source Source, request Request) ([]schedule.Warning, error) {
	var warnings []schedule.Warning
	for index, occurrence := range request.Occurrences {
		if request.Room != schedule.NoRoom {
			events, err := source.RoomEvents(request.Room, occurrence, request.Exclude)
			if err != nil {
				return nil, fmt.Errorf("conflict: room %d: %w", request.Room, err)
			}
			warnings = appendWarnings(warnings, schedule.RoomConflict, index, occurrence, events, request.Exclude)
		}

		events, err := source.UserEvents(request.User, occurrence, request.Exclude)
		if err != nil {
			return nil, fmt.Errorf("conflict: user %d: %w", request.User, err)
		}
		warnings = appendWarnings(warnings, schedule.UserConflict, index, occurrence, events, request.Exclude)
	}
	return warnings, nil
}

// appendWarnings re-applies the overlap test so a loose Source cannot
// report back-to-back bookings as conflicts.
func appendWarnings(warnings []schedule.Warning, kind schedule.ConflictKind, index int,
	occurrence schedule.Interval, events []schedule.Event, exclude schedule.EventID) []schedule.Warning {
	for _, event := range events {
		if event.ID == exclude || !event.Schedulable() || !event.Interval().Overlaps(occurrence) {
			continue
		}
		warnings = append(warnings, schedule.Warning{
			Kind:             kind,
			Occurrence:       index,
			Proposed:         occurrence,
			ConflictingID:    event.ID,
			ConflictingName:  event.Name,
			ConflictingStart: event.Start,
			ConflictingEnd:   event.End,
		})
	}
	return warnings
}

// Overlapping filters events down to the schedulable ones overlapping
// iv. In-memory Source implementations build on it.
func Overlapping(events []schedule.Event, iv schedule.Interval, exclude schedule.EventID) []schedule.Event {
	var matched []schedule.Event
	for _, event := range events {
		if event.ID != exclude && event.Schedulable() && event.Interval().Overlaps(iv) {
			matched = append(matched, event)
		}
	}
	return matched
}
