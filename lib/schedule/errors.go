// Copyright 2026 The Greendale Authors
// SPDX-License-Identifier: Apache-2.0

package schedule

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("scheduling conflict")
	ErrCapacity   = errors.New("capacity exceeded")
	ErrPermission = errors.New("permission denied")
	ErrNotFound   = errors.New("not found")

	// ErrLockBusy means another process holds a job lock. The
	// retention sweep treats it as a skip, never as a failure.
	ErrLockBusy = errors.New("lock busy")
)

// ValidationError rejects malformed input before anything is written.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ConflictError carries every overlap found across every proposed
// occurrence.
type ConflictError struct {
	Warnings []Warning
}

func (e *ConflictError) Error() string {
	lines := make([]string, len(e.Warnings))
	for i, w := range e.Warnings {
		lines[i] = w.String()
	}
	return fmt.Sprintf("conflict: %d overlapping booking(s): %s", len(e.Warnings), strings.Join(lines, "; "))
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// CapacityError rejects an invite batch that would overfill an event.
type CapacityError struct {
	Max       int
	Attending int
	Pending   int
	Requested int
}

// Remaining is how many more invitees would have fit.
func (e *CapacityError) Remaining() int {
	return max(e.Max-e.Attending-e.Pending, 0)
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("capacity: %d invitee(s) requested but only %d of %d place(s) remain (%d attending, %d pending)",
		e.Requested, e.Remaining(), e.Max, e.Attending, e.Pending)
}

func (e *CapacityError) Is(target error) bool { return target == ErrCapacity }

// PermissionError rejects a caller who is neither owner nor admin.
type PermissionError struct {
	UserID  UserID
	EventID EventID
	Action  string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission: user %d may not %s event %d", e.UserID, e.Action, e.EventID)
}

func (e *PermissionError) Is(target error) bool { return target == ErrPermission }

// NotFoundError reports a missing event or invite.
type NotFoundError struct {
	What string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.What, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// EventNotFound is the NotFoundError for an event ID.
func EventNotFound(id EventID) error {
	return &NotFoundError{What: "event", ID: fmt.Sprint(id)}
}

// InviteNotFound is the NotFoundError for a cancellable invite.
func InviteNotFound(event EventID, user UserID) error {
	return &NotFoundError{What: "pending invite", ID: fmt.Sprintf("%d/%d", event, user)}
}

// Warnings returns the conflict warnings carried by err, if any.
func Warnings(err error) []Warning {
	var conflict *ConflictError
	if errors.As(err, &conflict) {
		return conflict.Warnings
	}
	return nil
}
