// Copyright 2026 The Greendale Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts wall-clock reads and timer waits so that
// scheduling code can be driven deterministically in tests.
//
// Production code receives [Real]. Tests construct a [FakeClock] with
// [Fake], let the code under test register its timers, synchronize
// with [FakeClock.WaitForTimers], and then move time forward with
// [FakeClock.Advance]:
//
//	fake := clock.Fake(time.Date(2026, 3, 1, 1, 59, 0, 0, time.UTC))
//	go scheduler.Run(ctx)
//	fake.WaitForTimers(1)
//	fake.Advance(time.Minute) // the 02:00 sweep fires
//
// Anything in lib/ that waits or reads the time takes a Clock instead
// of calling the time package directly.
package clock
