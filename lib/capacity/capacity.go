// Copyright 2026 The Greendale Authors
// SPDX-License-Identifier: Apache-2.0

// Package capacity enforces attendance ceilings. A nil ceiling means
// unlimited.
package capacity

import (
	"fmt"

	"github.com/greendale-community/greendale/lib/schedule"
)

// Resolve returns the effective max capacity of an event. An explicit
// request must be non-negative and fit the room. Without a request the
// room's capacity applies, or nil when no room is booked.
func Resolve(requested *int, room *schedule.Room) (*int, error) {
	if requested != nil {
		if *requested < 0 {
			return nil, &schedule.ValidationError{
				Field:  "max_capacity",
				Reason: fmt.Sprintf("must not be negative, got %d", *requested),
			}
		}
		if room != nil && *requested > room.Capacity {
			return nil, &schedule.ValidationError{
				Field:  "max_capacity",
				Reason: fmt.Sprintf("%d exceeds capacity %d of room %q", *requested, room.Capacity, room.Name),
			}
		}
		limit := *requested
		return &limit, nil
	}
	if room != nil {
		limit := room.Capacity
		return &limit, nil
	}
	return nil, nil
}

// Admit checks whether n more invitees fit alongside the attending and
// pending ones. It returns a *schedule.CapacityError when they do not.
func Admit(maxCapacity *int, attending, pending, n int) error {
	if maxCapacity == nil || attending+pending+n <= *maxCapacity {
		return nil
	}
	return &schedule.CapacityError{
		Max:       *maxCapacity,
		Attending: attending,
		Pending:   pending,
		Requested: n,
	}
}
