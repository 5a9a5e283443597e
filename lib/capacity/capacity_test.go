// Copyright 2026 The Greendale Authors
// SPDX-License-Identifier: Apache-2.0

package capacity

import (
	"errors"
	"testing"

	"github.com/greendale-community/greendale/lib/schedule"
)

func intPtr(n int) *int { return &n }

func TestResolve(t *testing.T) {
	hall := &schedule.Room{ID: 1, Name: "Hall", Capacity: 40}
	tests := []struct {
		name      string
		requested *int
		room      *schedule.Room
		want      *int
		wantErr   bool
	}{
		{"room default", nil, hall, intPtr(40), false},
		{"within room", intPtr(25), hall, intPtr(25), false},
		{"equal to room", intPtr(40), hall, intPtr(40), false},
		{"exceeds room", intPtr(41), hall, nil, true},
		{"negative", intPtr(-1), nil, nil, true},
		{"no room unlimited", nil, nil, nil, false},
		{"no room explicit", intPtr(12), nil, intPtr(12), false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := Resolve(test.requested, test.room)
			if test.wantErr {
				if !errors.Is(err, schedule.ErrValidation) {
					t.Fatalf("Resolve error = %v, want validation", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			switch {
			case test.want == nil && got != nil:
				t.Fatalf("Resolve = %d, want unlimited", *got)
			case test.want != nil && (got == nil || *got != *test.want):
				t.Fatalf("Resolve = %v, want %d", got, *test.want)
			}
		})
	}
}

func TestResolveCopiesRequest(t *testing.T) {
	requested := intPtr(5)
	got, err := Resolve(requested, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	*requested = 99
	if *got != 5 {
		t.Fatalf("Resolve result aliases the request: %d", *got)
	}
}

func TestAdmitBoundary(t *testing.T) {
	limit := intPtr(10)
	if err := Admit(limit, 4, 3, 3); err != nil {
		t.Fatalf("filling exactly to capacity: %v", err)
	}
	err := Admit(limit, 4, 3, 4)
	var capErr *schedule.CapacityError
	if !errors.As(err, &capErr) {
		t.Fatalf("Admit error = %v, want *CapacityError", err)
	}
	if capErr.Remaining() != 3 || capErr.Requested != 4 {
		t.Fatalf("CapacityError = %+v", capErr)
	}
}

func TestAdmitUnlimited(t *testing.T) {
	if err := Admit(nil, 1000, 1000, 1000); err != nil {
		t.Fatalf("unlimited event rejected invitees: %v", err)
	}
}
