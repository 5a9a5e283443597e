// Copyright 2026 The Greendale Authors
// SPDX-License-Identifier: Apache-2.0

package cron

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Schedule is a parsed cron expression.
type Schedule struct {
	expression string
	fields     [5]valueSet
}

// valueSet holds the permitted values of one field as bits 0-63.
type valueSet uint64

func (v valueSet) contains(n int) bool { return v&(1<<uint(n)) != 0 }

type fieldBounds struct {
	name     string
	min, max int
}

var bounds = [5]fieldBounds{
	{"minute", 0, 59},
	{"hour", 0, 23},
	{"day-of-month", 1, 31},
	{"month", 1, 12},
	{"day-of-week", 0, 6},
}

const (
	minuteField = iota
	hourField
	domField
	monthField
	dowField
)

// Parse parses expression. It rejects anything other than exactly five
// whitespace-separated fields with in-range values.
func Parse(expression string) (Schedule, error) {
	parts := strings.Fields(expression)
	if len(parts) != len(bounds) {
		return Schedule{}, fmt.Errorf("cron: %q has %d fields, want 5", expression, len(parts))
	}
	schedule := Schedule{expression: strings.Join(parts, " ")}
	for i, part := range parts {
		set, err := parseField(part, bounds[i])
		if err != nil {
			return Schedule{}, fmt.Errorf("cron: %s field: %w", bounds[i].name, err)
		}
		schedule.fields[i] = set
	}
	return schedule, nil
}

// MustParse is Parse for compile-time constants. It panics on error.
func MustParse(expression string) Schedule {
	schedule, err := Parse(expression)
	if err != nil {
		panic(err)
	}
	return schedule
}

// String returns the normalized expression.
func (s Schedule) String() string { return s.expression }

// IsZero reports whether s was never parsed.
func (s Schedule) IsZero() bool { return s.expression == "" }

// Next returns the first minute strictly after t that matches s, in
// UTC. It gives up after searching four years ahead, which only
// happens for impossible dates such as 30 February.
func (s Schedule) Next(t time.Time) (time.Time, error) {
	if s.IsZero() {
		return time.Time{}, fmt.Errorf("cron: Next on zero Schedule")
	}
	candidate := t.UTC().Truncate(time.Minute).Add(time.Minute)
	horizon := candidate.AddDate(4, 0, 0)

	for candidate.Before(horizon) {
		year, month, day := candidate.Date()
		switch {
		case !s.fields[monthField].contains(int(month)):
			candidate = time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC)
		case !s.fields[domField].contains(day) || !s.fields[dowField].contains(int(candidate.Weekday())):
			candidate = time.Date(year, month, day+1, 0, 0, 0, 0, time.UTC)
		case !s.fields[hourField].contains(candidate.Hour()):
			candidate = time.Date(year, month, day, candidate.Hour()+1, 0, 0, 0, time.UTC)
		case !s.fields[minuteField].contains(candidate.Minute()):
			candidate = candidate.Add(time.Minute)
		default:
			return candidate, nil
		}
	}
	return time.Time{}, fmt.Errorf("cron: %q never matches within four years of %s",
		s.expression, t.UTC().Format(time.RFC3339))
}

// parseField ORs together the comma-separated terms of one field.
func parseField(field string, b fieldBounds) (valueSet, error) {
	var set valueSet
	for _, term := range strings.Split(field, ",") {
		termSet, err := parseTerm(term, b)
		if err != nil {
			return 0, err
		}
		set |= termSet
	}
	return set, nil
}

// parseTerm handles *, */N, V, V-W and V-W/N.
func parseTerm(term string, b fieldBounds) (valueSet, error) {
	span, stepText, hasStep := strings.Cut(term, "/")
	step := 1
	if hasStep {
		n, err := strconv.Atoi(stepText)
		if err != nil {
			return 0, fmt.Errorf("step %q: %w", stepText, err)
		}
		if n < 1 {
			return 0, fmt.Errorf("step %d is not positive", n)
		}
		step = n
	}

	low, high := b.min, b.max
	if span != "*" {
		lowText, highText, isRange := strings.Cut(span, "-")
		var err error
		if low, err = strconv.Atoi(lowText); err != nil {
			return 0, fmt.Errorf("value %q: %w", lowText, err)
		}
		high = low
		if isRange {
			if high, err = strconv.Atoi(highText); err != nil {
				return 0, fmt.Errorf("value %q: %w", highText, err)
			}
			if low > high {
				return 0, fmt.Errorf("range %d-%d is reversed", low, high)
			}
		}
	}
	if low < b.min || high > b.max {
		return 0, fmt.Errorf("%d-%d outside %d-%d", low, high, b.min, b.max)
	}

	var set valueSet
	for n := low; n <= high; n += step {
		set |= 1 << uint(n)
	}
	return set, nil
}
