package util

import (
	"strconv"
	"time"
)

// DateLayout is the calendar-date format used by disclosure datasets.
const DateLayout = "2006-01-02"

// ParseTime tries RFC3339, RFC3339Nano, calendar date, and unix seconds.
// Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}

// ParseDate parses a calendar date in the formats disclosure feeds use.
// Returns (zero, false) for empty or placeholder values.
func ParseDate(s string) (time.Time, bool) {
	if s == "" || s == "--" || s == "N/A" {
		return time.Time{}, false
	}
	for _, layout := range []string{DateLayout, "01/02/2006", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return Day(t), true
		}
	}
	return time.Time{}, false
}

// Day truncates a time to UTC midnight. Window arithmetic works on whole days.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the day offset by n calendar days.
func AddDays(t time.Time, n int) time.Time {
	return Day(t).AddDate(0, 0, n)
}
