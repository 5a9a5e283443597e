// Copyright 2026 The Greendale Authors
// SPDX-License-Identifier: Apache-2.0

// Package schedule is the shared vocabulary of the Greendale
// scheduling engine: events, rooms, RSVPs, half-open time intervals,
// conflict warnings, and the error taxonomy every operation reports
// through.
//
// All instants are UTC. An [Interval] is half-open, so a booking that
// ends at 10:00 and another that starts at 10:00 do not overlap.
//
// Errors are matched with errors.Is against the sentinels
// ([ErrValidation], [ErrConflict], [ErrCapacity], [ErrPermission],
// [ErrNotFound], [ErrLockBusy]); the structured types carry detail and
// are extracted with errors.As:
//
//	var conflict *schedule.ConflictError
//	if errors.As(err, &conflict) {
//	    for _, w := range conflict.Warnings { ... }
//	}
package schedule
