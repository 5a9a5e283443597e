// Copyright 2026 The Greendale Authors
// SPDX-License-Identifier: Apache-2.0

// Package cron parses five-field cron expressions and computes the
// next matching minute. The retention sweep uses it to decide when to
// wake up.
//
// Field order is minute (0-59), hour (0-23), day of month (1-31),
// month (1-12), day of week (0-6, Sunday is 0). Each field accepts a
// wildcard, single values, ranges, comma lists and /N steps. All
// arithmetic is UTC; there are no seconds, names or @-macros.
package cron
