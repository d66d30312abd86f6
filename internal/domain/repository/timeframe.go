package repository

import "time"

// Timeframe represents candle resolution buckets.
type Timeframe string

const (
	TF1m  Timeframe = "1m"
	TF5m  Timeframe = "5m"
	TF15m Timeframe = "15m"
	TF1h  Timeframe = "1h"
	TF4h  Timeframe = "4h"
	TF1d  Timeframe = "1d"
	TF1w  Timeframe = "1w"
)

var timeframeDurations = map[Timeframe]time.Duration{
	TF1m:  time.Minute,
	TF5m:  5 * time.Minute,
	TF15m: 15 * time.Minute,
	TF1h:  time.Hour,
	TF4h:  4 * time.Hour,
	TF1d:  24 * time.Hour,
	TF1w:  7 * 24 * time.Hour,
}

// IsValidTimeframe returns true if tf is a supported timeframe.
func IsValidTimeframe(tf Timeframe) bool {
	_, ok := timeframeDurations[tf]
	return ok
}

// DefaultTimeframe returns the default timeframe.
func DefaultTimeframe() Timeframe { return TF1d }

// NormalizeTimeframe converts raw string to a valid timeframe (or default).
func NormalizeTimeframe(s string) Timeframe {
	if s == "" {
		return DefaultTimeframe()
	}
	tf := Timeframe(s)
	if IsValidTimeframe(tf) {
		return tf
	}
	return DefaultTimeframe()
}

// Duration returns the bar length of tf, zero when unknown.
func (tf Timeframe) Duration() time.Duration { return timeframeDurations[tf] }

// Intraday reports whether bars are shorter than a session.
func (tf Timeframe) Intraday() bool {
	d := tf.Duration()
	return d > 0 && d < 24*time.Hour
}

// Higher returns the conventional confirmation timeframe for tf, or "" when
// there is none.
func (tf Timeframe) Higher() Timeframe {
	switch tf {
	case TF1m, TF5m:
		return TF15m
	case TF15m:
		return TF1h
	case TF1h:
		return TF4h
	case TF4h:
		return TF1d
	case TF1d:
		return TF1w
	}
	return ""
}
