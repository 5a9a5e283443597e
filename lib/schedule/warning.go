// Copyright 2026 The Greendale Authors
// SPDX-License-Identifier: Apache-2.0

package schedule

import (
	"fmt"
	"time"
)

// ConflictKind says which resource is double-booked.
type ConflictKind string

const (
	RoomConflict ConflictKind = "room"
	UserConflict ConflictKind = "user"
)

// Warning describes one existing event that overlaps one proposed
// occurrence.
type Warning struct {
	Kind ConflictKind

	// Occurrence is the zero-based position of the proposed occurrence
	// within its series, and Proposed its interval.
	Occurrence int
	Proposed   Interval

	ConflictingID    EventID
	ConflictingName  string
	ConflictingStart time.Time
	ConflictingEnd   time.Time
}

func (w Warning) String() string {
	subject := "room is"
	if w.Kind == UserConflict {
		subject = "you are"
	}
	return fmt.Sprintf("%s already booked for %q (%s to %s) during occurrence %d starting %s",
		subject, w.ConflictingName,
		w.ConflictingStart.UTC().Format(time.RFC3339),
		w.ConflictingEnd.UTC().Format(time.RFC3339),
		w.Occurrence+1,
		w.Proposed.Start.UTC().Format(time.RFC3339))
}
