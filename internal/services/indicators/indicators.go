// Package indicators wraps go-talib with length guards. talib indexes past the
// end of short inputs, so every wrapper checks the series length first and
// degrades to a documented fallback instead.
package indicators

import (
	"math"

	"github.com/markcheno/go-talib"

	"FinSignal/internal/domain/models"
	"FinSignal/internal/services/features"
)

const (
	FastEMAPeriod = 50
	SlowEMAPeriod = 200
	ATRPeriod     = 14
	ADXPeriod     = 14
	RSIPeriod     = 14
	VolumePeriod  = 20
)

// EMASeries returns the EMA series. When the input is shorter than period the
// period shrinks to the input length, so EMA(200) over 60 bars is EMA(60).
// Indices before the first valid value are zero.
func EMASeries(values []float64, period int) []float64 {
	n := len(values)
	if n == 0 {
		return nil
	}
	p := min(period, n)
	if p < 2 {
		out := make([]float64, n)
		copy(out, values)
		return out
	}
	return talib.Ema(values, p)
}

// EMA returns the latest EMA value.
func EMA(values []float64, period int) float64 {
	return last(EMASeries(values, period))
}

// SMA returns the latest simple moving average over min(period, n) values.
func SMA(values []float64, period int) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	p := min(period, n)
	if p < 2 {
		return values[n-1]
	}
	return last(talib.Sma(values, p))
}

// TrueRange returns the per-bar true range; the first bar uses high-low.
func TrueRange(candles []models.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		tr := c.High - c.Low
		if i > 0 {
			pc := candles[i-1].Close
			tr = math.Max(tr, math.Max(math.Abs(c.High-pc), math.Abs(c.Low-pc)))
		}
		out[i] = tr
	}
	return out
}

// ATRSeries returns Wilder's ATR aligned with the input. talib leaves the
// first period values at zero; those are back-filled with the running mean of
// the true range so every index carries a usable value. Series too short for
// talib use the running mean throughout.
func ATRSeries(candles []models.Candle, period int) []float64 {
	n := len(candles)
	if n == 0 {
		return nil
	}
	tr := TrueRange(candles)
	out := make([]float64, n)
	sum := 0.0
	for i, v := range tr {
		sum += v
		out[i] = sum / float64(i+1)
	}
	if period < 2 || n <= period+1 {
		return out
	}
	highs, lows, closes := models.HLC(candles)
	atr := talib.Atr(highs, lows, closes, period)
	for i := period; i < n; i++ {
		out[i] = atr[i]
	}
	return out
}

// ATR returns the latest ATR value.
func ATR(candles []models.Candle, period int) float64 {
	return last(ATRSeries(candles, period))
}

// ADX returns the latest ADX value, or 0 when fewer than 2·period+1 bars exist.
func ADX(candles []models.Candle, period int) float64 {
	if period < 2 || len(candles) < 2*period+1 {
		return 0
	}
	highs, lows, closes := models.HLC(candles)
	v := last(talib.Adx(highs, lows, closes, period))
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// RSI returns the latest RSI, or the neutral 50 when there is not enough data.
func RSI(closes []float64, period int) float64 {
	if period < 2 || len(closes) <= period+1 {
		return 50
	}
	v := last(talib.Rsi(closes, period))
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 50
	}
	return v
}

// Compute builds the indicator snapshot for one analysis. Nothing is cached
// between calls.
func Compute(candles []models.Candle, intraday bool) models.IndicatorSnapshot {
	if len(candles) == 0 {
		return models.IndicatorSnapshot{}
	}
	closes := models.Closes(candles)
	atr := ATRSeries(candles, ATRPeriod)

	s := models.IndicatorSnapshot{
		EMAFast:   EMA(closes, FastEMAPeriod),
		EMASlow:   EMA(closes, SlowEMAPeriod),
		ADX:       ADX(candles, ADXPeriod),
		ATR:       last(atr),
		ATRSeries: atr,
		RSI:       RSI(closes, RSIPeriod),
		LastClose: closes[len(closes)-1],
	}
	if intraday {
		s.VolumeRatio, s.HasVolume = features.IntradayVolumeRatio(candles, VolumePeriod)
	} else {
		s.VolumeRatio, s.HasVolume = features.VolumeRatio(candles, VolumePeriod)
	}
	return s
}

func last(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return xs[len(xs)-1]
}
