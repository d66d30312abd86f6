package models

import (
	"fmt"
	"math"
	"time"
)

// Candle represents one OHLCV bar. Volume is optional and may be zero.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume,omitempty"`
}

// Validate checks OHLC sanity for a single bar.
func (c Candle) Validate() error {
	for _, v := range [...]float64{c.Open, c.High, c.Low, c.Close, c.Volume} {
		if !Finite(v) {
			return fmt.Errorf("non-finite value")
		}
	}
	if c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0 {
		return fmt.Errorf("non-positive price")
	}
	if c.High < c.Open || c.High < c.Close {
		return fmt.Errorf("high below open/close")
	}
	if c.Low > c.Open || c.Low > c.Close {
		return fmt.Errorf("low above open/close")
	}
	if c.Volume < 0 {
		return fmt.Errorf("negative volume")
	}
	return nil
}

// Finite reports whether v is neither NaN nor infinite.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Body returns the absolute real-body size.
func (c Candle) Body() float64 {
	if c.Close > c.Open {
		return c.Close - c.Open
	}
	return c.Open - c.Close
}

// Range returns high minus low.
func (c Candle) Range() float64 { return c.High - c.Low }

// UpperShadow returns the wick above the body.
func (c Candle) UpperShadow() float64 { return c.High - max(c.Open, c.Close) }

// LowerShadow returns the wick below the body.
func (c Candle) LowerShadow() float64 { return min(c.Open, c.Close) - c.Low }

func (c Candle) IsBullish() bool { return c.Close > c.Open }

func (c Candle) IsBearish() bool { return c.Close < c.Open }

// ValidateSeries checks every bar and chronological order of non-zero timestamps.
func ValidateSeries(candles []Candle) error {
	var prev time.Time
	for i, c := range candles {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("candle %d: %w", i, err)
		}
		if c.Timestamp.IsZero() {
			continue
		}
		if !prev.IsZero() && c.Timestamp.Before(prev) {
			return fmt.Errorf("candle %d: out of order", i)
		}
		prev = c.Timestamp
	}
	return nil
}

// Closes extracts close prices.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// HLC extracts highs, lows and closes in one pass.
func HLC(candles []Candle) (highs, lows, closes []float64) {
	highs = make([]float64, len(candles))
	lows = make([]float64, len(candles))
	closes = make([]float64, len(candles))
	for i, c := range candles {
		highs[i] = c.High
		lows[i] = c.Low
		closes[i] = c.Close
	}
	return highs, lows, closes
}

// Volumes extracts volumes.
func Volumes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Volume
	}
	return out
}

// Tail returns the last n candles (or all of them when n exceeds the length).
func Tail(candles []Candle, n int) []Candle {
	if n <= 0 || n >= len(candles) {
		return candles
	}
	return candles[len(candles)-n:]
}
