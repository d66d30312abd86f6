// Package regime classifies trend, volatility and market phase.
package regime

import (
	"math"

	"FinSignal/internal/domain/models"
	"FinSignal/internal/services/features"
	"FinSignal/internal/services/indicators"
)

const (
	trendingADX = 20.0
	strongADX   = 40.0
	adxScale    = 50.0

	volLookback = 20
	volLow      = 0.75
	volMedium   = 1.25
	volHigh     = 1.75

	// below this recent/prior volume ratio a move is losing participation
	fadingVolume = 0.8
)

type Classifier struct {
	barsPerYear float64
}

// NewClassifier returns a classifier annualising realised volatility with
// barsPerYear (see features.BarsPerYear).
func NewClassifier(barsPerYear float64) *Classifier {
	return &Classifier{barsPerYear: barsPerYear}
}

// Classify derives the regime from the candle window. ind may be nil, in
// which case the indicators are computed here.
func (c *Classifier) Classify(candles []models.Candle, ind *models.IndicatorSnapshot) models.RegimeAnalysis {
	if len(candles) == 0 {
		return models.RegimeAnalysis{Type: models.RegimeRanging, Direction: models.BiasNeutral}
	}
	if ind == nil {
		s := indicators.Compute(candles, false)
		ind = &s
	}
	price := candles[len(candles)-1].Close

	r := models.RegimeAnalysis{
		ADX:                ind.ADX,
		EMAFast:            ind.EMAFast,
		EMASlow:            ind.EMASlow,
		Strength:           math.Min(ind.ADX/adxScale, 1),
		TrendStrengthClass: strengthClass(ind.ADX),
		Direction:          models.BiasNeutral,
	}
	if price > 0 {
		r.ATRPct = ind.ATR / price * 100
	}
	r.VolatilityRatio = volatilityRatio(candles, ind.ATRSeries)
	r.VolatilityRegime = volatilityRegime(r.VolatilityRatio)
	r.RealizedVol = features.RealizedVolatility(features.ComputeLogReturns(candles), volLookback, c.barsPerYear)

	bullOrder := price > ind.EMAFast && ind.EMAFast > ind.EMASlow
	bearOrder := price < ind.EMAFast && ind.EMAFast < ind.EMASlow
	switch {
	case ind.ADX >= trendingADX && bullOrder:
		r.Type, r.Direction = models.RegimeTrendingBullish, models.BiasBullish
	case ind.ADX >= trendingADX && bearOrder:
		r.Type, r.Direction = models.RegimeTrendingBearish, models.BiasBearish
	case r.VolatilityRegime == models.VolatilityExtreme:
		r.Type = models.RegimeVolatile
	default:
		r.Type = models.RegimeRanging
	}

	r.MarketPhase = phase(price, ind.EMAFast, ind.EMASlow, features.VolumeTrend(candles, volLookback))
	return r
}

func strengthClass(adx float64) models.TrendStrengthClass {
	switch {
	case adx < trendingADX:
		return models.TrendWeak
	case adx < strongADX:
		return models.TrendModerate
	default:
		return models.TrendStrong
	}
}

// volatilityRatio compares the latest ATR% with the mean ATR% of the
// preceding volLookback bars. It is 1 when there is no history.
func volatilityRatio(candles []models.Candle, atr []float64) float64 {
	n := min(len(candles), len(atr))
	if n < 2 {
		return 1
	}
	pct := func(i int) float64 {
		if candles[i].Close <= 0 {
			return 0
		}
		return atr[i] / candles[i].Close * 100
	}
	start := max(0, n-1-volLookback)
	sum := 0.0
	for i := start; i < n-1; i++ {
		sum += pct(i)
	}
	mean := sum / float64(n-1-start)
	if mean <= 0 {
		return 1
	}
	return pct(n-1) / mean
}

func volatilityRegime(ratio float64) models.VolatilityRegime {
	switch {
	case ratio < volLow:
		return models.VolatilityLow
	case ratio < volMedium:
		return models.VolatilityMedium
	case ratio < volHigh:
		return models.VolatilityHigh
	default:
		return models.VolatilityExtreme
	}
}

// phase maps price/EMA structure and participation onto the Wyckoff cycle.
// An ordered trend on fading volume is read as the next phase starting.
func phase(price, fast, slow, volTrend float64) models.MarketPhase {
	switch {
	case price > fast && fast > slow:
		if volTrend < fadingVolume {
			return models.PhaseDistribution
		}
		return models.PhaseMarkup
	case price < fast && fast < slow:
		if volTrend < fadingVolume {
			return models.PhaseAccumulation
		}
		return models.PhaseMarkdown
	case price < slow:
		return models.PhaseAccumulation
	default:
		return models.PhaseDistribution
	}
}
