// Copyright 2026 The Greendale Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool opens a fixed-size pool of zombiezen SQLite
// connections with Greendale's standard pragmas and provides helpers
// for running work inside a write transaction.
//
// Every connection gets WAL journaling, NORMAL synchronous, a five
// second busy timeout and foreign key enforcement. Foreign keys are on
// because the event tables rely on ON DELETE CASCADE: purging an event
// row removes its admin and RSVP rows in the same statement.
//
// Connections are not safe for concurrent use. Take one, use it from a
// single goroutine, and Put it back.
package sqlitepool
