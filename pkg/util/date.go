package util

import (
	"strconv"
	"time"
)

// ParseTime tries RFC3339, RFC3339Nano, and unix seconds. Returns (t, true) if any worked.
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

// AlignFromTo widens [from, to] to whole bars of length bar: from is
// truncated down and to is rounded up to the next boundary.
func AlignFromTo(from, to time.Time, bar time.Duration) (time.Time, time.Time) {
	if bar <= 0 {
		bar = time.Minute
	}
	from = from.Truncate(bar)
	if t := to.Truncate(bar); !t.Equal(to) {
		to = t.Add(bar)
	}
	return from, to
}
