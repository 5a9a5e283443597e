// Copyright 2026 The Greendale Authors
// SPDX-License-Identifier: Apache-2.0

// Package lifecycle permanently removes events that have stayed
// soft-deleted longer than the retention window.
//
// [Sweeper] performs one sweep under a fleet-wide job lock: a process
// that finds the lock held skips its run instead of waiting, so at
// most one process purges at a time. [Scheduler] drives a Sweeper from
// a cron schedule and, in development, once shortly after startup.
package lifecycle
