package features

import (
	"math"

	"github.com/markcheno/go-talib"

	"FinSignal/internal/domain/models"
)

// ComputeLogReturns computes log returns r_t = ln(C_t / C_{t-1}).
// It returns a slice of length len(candles)-1, or nil if insufficient data.
func ComputeLogReturns(candles []models.Candle) []float64 {
	if len(candles) < 2 {
		return nil
	}
	out := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		prev := candles[i-1].Close
		cur := candles[i].Close
		if prev <= 0 || cur <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, math.Log(cur/prev))
	}
	return out
}

// RealizedVolatility computes the sample standard deviation of the last window
// log returns, annualized with barsPerYear.
func RealizedVolatility(logReturns []float64, window int, barsPerYear float64) float64 {
	if window <= 1 || len(logReturns) < window {
		return 0
	}
	// talib.StdDev is the population deviation; rescale to the sample one.
	sd := talib.StdDev(logReturns[len(logReturns)-window:], window, 1)
	v := sd[len(sd)-1]
	n := float64(window)
	v *= math.Sqrt(n / (n - 1))
	if math.IsNaN(v) {
		return 0
	}
	return v * math.Sqrt(barsPerYear)
}

// BarsPerYear returns the approximate number of bars per year.
func BarsPerYear(intraday bool, crypto bool) float64 {
	switch {
	case intraday && crypto:
		return 365 * 24 * 12 // 5m bars
	case intraday:
		return 252 * 78
	case crypto:
		return 365
	default:
		return 252
	}
}

// SlopePct returns the least-squares slope of values in percent of their mean
// per bar. Positive means rising.
func SlopePct(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	slope := talib.LinearRegSlope(values, n)[n-1]
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(n)
	if mean == 0 || math.IsNaN(slope) {
		return 0
	}
	return slope / mean * 100
}

// VolumeRatio compares the last bar's volume with the mean of the preceding
// period bars. ok is false when the series carries no volume.
func VolumeRatio(candles []models.Candle, period int) (ratio float64, ok bool) {
	n := len(candles)
	if n < 2 {
		return 1, false
	}
	start := max(0, n-1-period)
	sum, cnt := 0.0, 0
	for _, c := range candles[start : n-1] {
		sum += c.Volume
		cnt++
	}
	if cnt == 0 || sum <= 0 {
		return 1, false
	}
	return candles[n-1].Volume / (sum / float64(cnt)), true
}

// IntradayVolumeRatio compares the last bar's volume with earlier bars printed
// at the same minute of day, which removes the U-shaped intraday volume curve.
// It falls back to VolumeRatio when fewer than two matching bars exist or the
// series has no timestamps.
func IntradayVolumeRatio(candles []models.Candle, period int) (float64, bool) {
	n := len(candles)
	if n < 2 || candles[n-1].Timestamp.IsZero() {
		return VolumeRatio(candles, period)
	}
	ts := candles[n-1].Timestamp.UTC()
	minute := ts.Hour()*60 + ts.Minute()
	sum, cnt := 0.0, 0
	for i := n - 2; i >= 0 && cnt < period; i-- {
		t := candles[i].Timestamp.UTC()
		if t.IsZero() || t.Hour()*60+t.Minute() != minute {
			continue
		}
		sum += candles[i].Volume
		cnt++
	}
	if cnt < 2 || sum <= 0 {
		return VolumeRatio(candles, period)
	}
	return candles[n-1].Volume / (sum / float64(cnt)), true
}

// VolumeTrend returns the ratio of the recent half-window mean volume to the
// prior half-window mean; 1 when volume is absent.
func VolumeTrend(candles []models.Candle, window int) float64 {
	n := len(candles)
	half := window / 2
	if half < 1 || n < 2*half {
		return 1
	}
	var recent, prior float64
	for _, c := range candles[n-half:] {
		recent += c.Volume
	}
	for _, c := range candles[n-2*half : n-half] {
		prior += c.Volume
	}
	if prior <= 0 {
		return 1
	}
	return recent / prior
}
