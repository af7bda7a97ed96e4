package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/spektr-org/iaqdash/schema"
)

// ============================================================================
// FILTERS — Ventilation status and date range selection
// ============================================================================
// Single pass over the readings; order is preserved. Statuses are
// OR-combined, the date range is AND-combined with them.
// ============================================================================

// FilterReadings returns the readings passing f, in original order.
// A nil status list restricts nothing; an empty non-nil list keeps nothing.
// When a date bound is set, readings without a timestamp are dropped.
func FilterReadings(readings []Reading, f Filters) []Reading {
	if f.IsEmpty() {
		out := make([]Reading, len(readings))
		copy(out, readings)
		return out
	}

	var set map[string]bool
	if f.Statuses != nil {
		set = toLowerSet(f.Statuses)
	}

	out := make([]Reading, 0, len(readings))
	for _, r := range readings {
		if set != nil && !set[normalizeStatus(r.VentilationStatus)] {
			continue
		}
		if f.HasDateRange() && !inRange(r.Timestamp, f) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func inRange(ts *time.Time, f Filters) bool {
	if ts == nil {
		return false
	}
	if f.Start != nil && ts.Before(*f.Start) {
		return false
	}
	if f.End != nil && ts.After(*f.End) {
		return false
	}
	return true
}

// toLowerSet converts a string slice to a normalized lookup set.
func toLowerSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[normalizeStatus(item)] = true
	}
	return set
}

func normalizeStatus(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ParseBound parses a date range bound given by a user: a bare date
// ("2006-01-02"), RFC3339 or any known timestamp layout. A bare date used
// as the end bound covers the whole day. Empty input is no bound.
func ParseBound(v string, end bool) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	if d, err := time.Parse("2006-01-02", v); err == nil {
		if end {
			d = d.Add(24*time.Hour - time.Nanosecond)
		}
		return &d, nil
	}
	t, ok := schema.ParseTimestamp(v, time.RFC3339)
	if !ok {
		return nil, fmt.Errorf("cannot parse %q as a date", v)
	}
	return &t, nil
}
