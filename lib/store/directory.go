// Copyright 2026 The Greendale Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"fmt"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/greendale-community/greendale/lib/schedule"
)

// The rooms and friendships tables mirror data owned by other
// services. The engine only reads them; the Put and Add methods exist
// for the sync job and for tests.

// Room implements schedule.RoomLookup.
func (s *Store) Room(ctx context.Context, id schedule.RoomID) (schedule.Room, error) {
	var (
		room  schedule.Room
		found bool
	)
	err := s.Read(ctx, func(tx *Tx) error {
		return sqlitex.Execute(tx.conn,
			`SELECT room_id, name, capacity FROM rooms WHERE room_id = ?`,
			&sqlitex.ExecOptions{
				Args: []any{id},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					room = schedule.Room{
						ID:       schedule.RoomID(stmt.ColumnInt64(0)),
						Name:     stmt.ColumnText(1),
						Capacity: stmt.ColumnInt(2),
					}
					found = true
					return nil
				},
			})
	})
	if err != nil {
		return schedule.Room{}, fmt.Errorf("store: room %d: %w", id, err)
	}
	if !found {
		return schedule.Room{}, &schedule.NotFoundError{What: "room", ID: fmt.Sprint(id)}
	}
	return room, nil
}

// PutRoom inserts or replaces a room. A zero ID is assigned by the
// database and returned.
func (s *Store) PutRoom(ctx context.Context, room schedule.Room) (schedule.Room, error) {
	err := s.Write(ctx, func(tx *Tx) error {
		err := sqlitex.Execute(tx.conn, `
			INSERT INTO rooms (room_id, name, capacity) VALUES (?, ?, ?)
			ON CONFLICT (room_id) DO UPDATE SET name = excluded.name, capacity = excluded.capacity`,
			&sqlitex.ExecOptions{Args: []any{nullable(room.ID), room.Name, room.Capacity}})
		if err != nil {
			return err
		}
		if room.ID == schedule.NoRoom {
			room.ID = schedule.RoomID(tx.conn.LastInsertRowID())
		}
		return nil
	})
	if err != nil {
		return schedule.Room{}, fmt.Errorf("store: saving room %q: %w", room.Name, err)
	}
	return room, nil
}

// AddFriendship records an accepted friendship in one direction;
// AreFriends checks both.
func (s *Store) AddFriendship(ctx context.Context, user, friend schedule.UserID) error {
	err := s.Write(ctx, func(tx *Tx) error {
		return sqlitex.Execute(tx.conn, `
			INSERT INTO friendships (user_id, friend_id, status) VALUES (?, ?, 'accepted')
			ON CONFLICT (user_id, friend_id) DO UPDATE SET status = 'accepted'`,
			&sqlitex.ExecOptions{Args: []any{user, friend}})
	})
	if err != nil {
		return fmt.Errorf("store: friendship %d-%d: %w", user, friend, err)
	}
	return nil
}

// AreFriends implements schedule.FriendGraph.
func (s *Store) AreFriends(ctx context.Context, a, b schedule.UserID) (bool, error) {
	var friends bool
	err := s.Read(ctx, func(tx *Tx) error {
		return sqlitex.Execute(tx.conn, `
			SELECT EXISTS (
				SELECT 1 FROM friendships
				WHERE status = 'accepted'
				  AND ((user_id = ?1 AND friend_id = ?2) OR (user_id = ?2 AND friend_id = ?1)))`,
			&sqlitex.ExecOptions{
				Args: []any{a, b},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					friends = stmt.ColumnInt64(0) != 0
					return nil
				},
			})
	})
	if err != nil {
		return false, fmt.Errorf("store: friendship %d-%d: %w", a, b, err)
	}
	return friends, nil
}
