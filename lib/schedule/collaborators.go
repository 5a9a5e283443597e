// Copyright 2026 The Greendale Authors
// SPDX-License-Identifier: Apache-2.0

package schedule

import "context"

// RoomLookup resolves room references. It returns an error matching
// ErrNotFound for unknown rooms.
type RoomLookup interface {
	Room(ctx context.Context, id RoomID) (Room, error)
}

// FriendGraph answers friendship questions for privacy filtering.
type FriendGraph interface {
	AreFriends(ctx context.Context, a, b UserID) (bool, error)
}

// Viewer describes a user's relationship to one event.
type Viewer struct {
	UserID  UserID
	IsAdmin bool
	HasRSVP bool
}

// CanView applies the privacy tiers. Public events are visible to
// everyone. Friends-only events are visible to the owner, admins,
// anyone holding an RSVP and accepted friends of the owner. The friend
// graph is only consulted when nothing cheaper decides.
func CanView(ctx context.Context, event Event, viewer Viewer, friends FriendGraph) (bool, error) {
	if event.Privacy != FriendsOnly {
		return true, nil
	}
	if viewer.UserID == event.OwnerID || viewer.IsAdmin || viewer.HasRSVP {
		return true, nil
	}
	if friends == nil {
		return false, nil
	}
	return friends.AreFriends(ctx, event.OwnerID, viewer.UserID)
}
