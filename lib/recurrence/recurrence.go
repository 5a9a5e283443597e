// Copyright 2026 The Greendale Authors
// SPDX-License-Identifier: Apache-2.0

// Package recurrence expands a repeat rule into the concrete start
// instants of a series. Every occurrence keeps the anchor's UTC
// time-of-day; the caller applies the duration with [Occurrences].
package recurrence

import (
	"errors"
	"fmt"
	"time"

	"github.com/greendale-community/greendale/lib/schedule"
)

// Kind is how often a series repeats.
type Kind string

const (
	None    Kind = "none"
	Daily   Kind = "daily"
	Weekly  Kind = "weekly"
	Monthly Kind = "monthly"
)

// MaxOccurrences bounds a single series. Longer series are rejected
// rather than silently truncated.
const MaxOccurrences = 750

// ErrTooManyOccurrences is returned when a rule would exceed
// MaxOccurrences.
var ErrTooManyOccurrences = errors.New("recurrence: too many occurrences")

// ParseKind accepts the four kind names. Empty means None.
func ParseKind(s string) (Kind, error) {
	switch kind := Kind(s); kind {
	case "":
		return None, nil
	case None, Daily, Weekly, Monthly:
		return kind, nil
	}
	return "", fmt.Errorf("recurrence: unknown kind %q", s)
}

// Rule is a repeat kind with an inclusive end date. Only the UTC date
// of Until matters.
type Rule struct {
	Kind  Kind
	Until time.Time
}

// Recurring reports whether the rule produces more than the anchor.
func (r Rule) Recurring() bool { return r.Kind != None && r.Kind != "" }

// Expand returns the start instants of the series anchored at anchor,
// in order. A None rule yields just the anchor. A recurring rule whose
// Until date precedes the anchor's date yields nothing.
func Expand(rule Rule, anchor time.Time) ([]time.Time, error) {
	anchor = anchor.UTC()
	if !rule.Recurring() {
		return []time.Time{anchor}, nil
	}

	last := dateOf(rule.Until.UTC())
	var starts []time.Time
	add := func(year int, month time.Month, day int) (bool, error) {
		start := time.Date(year, month, day,
			anchor.Hour(), anchor.Minute(), anchor.Second(), anchor.Nanosecond(), time.UTC)
		if dateOf(start).After(last) {
			return false, nil
		}
		if len(starts) == MaxOccurrences {
			return false, fmt.Errorf("%w: more than %d before %s",
				ErrTooManyOccurrences, MaxOccurrences, last.Format(time.DateOnly))
		}
		starts = append(starts, start)
		return true, nil
	}

	year, month, day := anchor.Date()
	switch rule.Kind {
	case Daily, Weekly:
		step := 1
		if rule.Kind == Weekly {
			step = 7
		}
		for offset := 0; ; offset += step {
			more, err := add(year, month, day+offset)
			if err != nil || !more {
				return starts, err
			}
		}
	case Monthly:
		for offset := 0; ; offset++ {
			first := time.Date(year, month+time.Month(offset), 1, 0, 0, 0, 0, time.UTC)
			clamped := min(day, daysIn(first.Year(), first.Month()))
			more, err := add(first.Year(), first.Month(), clamped)
			if err != nil || !more {
				return starts, err
			}
		}
	}
	return nil, fmt.Errorf("recurrence: unknown kind %q", rule.Kind)
}

// Occurrences expands rule over the first interval, giving each start
// the same duration.
func Occurrences(rule Rule, first schedule.Interval) ([]schedule.Interval, error) {
	starts, err := Expand(rule, first.Start)
	if err != nil {
		return nil, err
	}
	duration := first.Duration()
	intervals := make([]schedule.Interval, len(starts))
	for i, start := range starts {
		intervals[i] = schedule.Interval{Start: start, End: start.Add(duration)}
	}
	return intervals, nil
}

func dateOf(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// daysIn returns the length of month in year. Day 0 of the next month
// normalizes to the last day of this one.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
