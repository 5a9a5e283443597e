// Copyright 2026 The Greendale Authors
// SPDX-License-Identifier: Apache-2.0

package store

// schema is idempotent and runs on every new connection. Purging an
// event cascades to its admin and RSVP rows. room_id carries no
// foreign key because rooms are owned by an external collaborator and
// this table is only a local read model of them.
const schema = `
CREATE TABLE IF NOT EXISTS rooms (
	room_id  INTEGER PRIMARY KEY,
	name     TEXT NOT NULL,
	capacity INTEGER NOT NULL CHECK (capacity >= 0)
);

CREATE TABLE IF NOT EXISTS events (
	event_id             INTEGER PRIMARY KEY AUTOINCREMENT,
	owner_id             INTEGER NOT NULL,
	name                 TEXT NOT NULL,
	description          TEXT NOT NULL DEFAULT '',
	start_ns             INTEGER NOT NULL,
	end_ns               INTEGER NOT NULL,
	room_id              INTEGER,
	privacy              TEXT NOT NULL DEFAULT 'public'
	                     CHECK (privacy IN ('public', 'friends_only')),
	max_capacity         INTEGER CHECK (max_capacity >= 0),
	allow_friend_invites INTEGER NOT NULL DEFAULT 0,
	is_recurring         INTEGER NOT NULL DEFAULT 0,
	is_all_day           INTEGER NOT NULL DEFAULT 0,
	color                TEXT NOT NULL DEFAULT '#4287f5',
	is_cancelled         INTEGER NOT NULL DEFAULT 0,
	is_deleted           INTEGER NOT NULL DEFAULT 0,
	deleted_ns           INTEGER,
	created_ns           INTEGER NOT NULL,
	CHECK (start_ns < end_ns),
	CHECK (is_deleted = (deleted_ns IS NOT NULL))
);

CREATE INDEX IF NOT EXISTS events_by_room
	ON events (room_id, start_ns) WHERE is_deleted = 0 AND is_cancelled = 0;
CREATE INDEX IF NOT EXISTS events_by_owner ON events (owner_id);
CREATE INDEX IF NOT EXISTS events_deleted
	ON events (deleted_ns) WHERE is_deleted = 1;

CREATE TABLE IF NOT EXISTS event_admins (
	event_id INTEGER NOT NULL REFERENCES events (event_id) ON DELETE CASCADE,
	user_id  INTEGER NOT NULL,
	PRIMARY KEY (event_id, user_id)
);

CREATE TABLE IF NOT EXISTS rsvps (
	event_id   INTEGER NOT NULL REFERENCES events (event_id) ON DELETE CASCADE,
	user_id    INTEGER NOT NULL,
	status     TEXT NOT NULL CHECK (status IN ('pending', 'accepted', 'declined')),
	invited_by INTEGER,
	updated_ns INTEGER NOT NULL,
	PRIMARY KEY (event_id, user_id)
);

CREATE INDEX IF NOT EXISTS rsvps_by_user ON rsvps (user_id, status);

CREATE TABLE IF NOT EXISTS friendships (
	user_id   INTEGER NOT NULL,
	friend_id INTEGER NOT NULL,
	status    TEXT NOT NULL DEFAULT 'accepted',
	PRIMARY KEY (user_id, friend_id)
);

CREATE TABLE IF NOT EXISTS sweep_runs (
	run_id        TEXT PRIMARY KEY,
	holder        TEXT NOT NULL,
	started_ns    INTEGER NOT NULL,
	finished_ns   INTEGER NOT NULL,
	cutoff_ns     INTEGER NOT NULL,
	deleted_count INTEGER NOT NULL,
	deleted_ids   BLOB NOT NULL
);
`
