// Copyright 2026 The Greendale Authors
// SPDX-License-Identifier: Apache-2.0

package schedule

import "time"

// Interval is the half-open range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether Start is strictly before End.
func (iv Interval) Valid() bool { return iv.Start.Before(iv.End) }

// Duration is End minus Start.
func (iv Interval) Duration() time.Duration { return iv.End.Sub(iv.Start) }

// Overlaps reports whether iv and other share any instant. Touching
// endpoints do not overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// UTC returns iv with both ends converted to UTC.
func (iv Interval) UTC() Interval {
	return Interval{Start: iv.Start.UTC(), End: iv.End.UTC()}
}
