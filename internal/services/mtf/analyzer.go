// Package mtf compares the trading timeframe with a higher one and turns the
// comparison into a bounded score adjustment.
package mtf

import (
	"math"

	"FinSignal/internal/domain/models"
	"FinSignal/internal/services/features"
	"FinSignal/internal/services/indicators"
)

const (
	// MinHigherCandles is the smallest higher-timeframe series analysed.
	MinHigherCandles = 20

	trendLookback    = 50
	smaPeriod        = 20
	minTrendStrength = 0.2 // below this the higher timeframe has no clear trend

	confluenceTolerance = 0.015
	nearLevelTolerance  = 0.02
	maxZones            = 4

	alignedPoints   = 15.0
	divergentPoints = 15.0
	twoZonePoints   = 10.0
	oneZonePoints   = 5.0
	nearLevelPoints = 5.0
)

// ChannelDetector is the subset of the channel detector used here.
type ChannelDetector interface {
	Detect(candles []models.Candle) models.ChannelResult
}

type Analyzer struct {
	channels ChannelDetector
}

func NewAnalyzer(channels ChannelDetector) *Analyzer {
	return &Analyzer{channels: channels}
}

// Analyze returns nil when fewer than MinHigherCandles higher-timeframe bars
// are supplied. lower is the trading-timeframe channel; its regression slope
// gives the lower trend, so a ranging market still aligns or diverges.
func (a *Analyzer) Analyze(lower models.ChannelResult, higher []models.Candle, currentPrice float64) *models.MultiTimeframeAnalysis {
	if len(higher) < MinHigherCandles {
		return nil
	}
	hc := a.channels.Detect(higher)
	dir, strength := higherTrend(higher)

	out := &models.MultiTimeframeAnalysis{
		HigherTimeframeTrend: dir,
		TrendStrength:        strength,
		TrendAlignment:       alignment(lowerTrend(lower), dir),
		HigherChannel:        hc,
		ConfluenceZones:      []models.ConfluenceZone{},
	}
	if hc.Bounded() {
		s, r := hc.Support, hc.Resistance
		out.WeeklySupport, out.WeeklyResistance = &s, &r
		out.ConfluenceZones = confluence(lower, hc)
		if currentPrice > 0 {
			out.NearHigherLevel = math.Abs(currentPrice-s)/currentPrice <= nearLevelTolerance ||
				math.Abs(currentPrice-r)/currentPrice <= nearLevelTolerance
		}
	}
	return out
}

// higherTrend measures the regression slope normalised by ATR% and confirms
// its sign with price against SMA(20).
func higherTrend(candles []models.Candle) (models.Bias, float64) {
	w := models.Tail(candles, trendLookback)
	closes := models.Closes(w)
	last := closes[len(closes)-1]
	atrPct := indicators.ATR(w, indicators.ATRPeriod) / last * 100
	if atrPct <= 0 {
		return models.BiasNeutral, 0
	}
	slope := features.SlopePct(closes)
	strength := clamp01(2 * math.Abs(slope) / atrPct)
	if strength < minTrendStrength {
		return models.BiasNeutral, strength
	}
	sma := indicators.SMA(closes, smaPeriod)
	switch {
	case slope > 0 && last > sma:
		return models.BiasBullish, strength
	case slope < 0 && last < sma:
		return models.BiasBearish, strength
	}
	return models.BiasNeutral, strength
}

// lowerTrend is the sign of the channel regression slope. Only a channel
// that was never measured or is perfectly flat has no direction.
func lowerTrend(ch models.ChannelResult) models.Bias {
	switch {
	case ch.Window == 0:
		return models.BiasNeutral
	case ch.Slope > 0:
		return models.BiasBullish
	case ch.Slope < 0:
		return models.BiasBearish
	}
	return models.BiasNeutral
}

func alignment(lower, higher models.Bias) models.TrendAlignment {
	switch {
	case higher == models.BiasNeutral || lower == models.BiasNeutral:
		return models.AlignmentNeutral
	case lower == higher:
		return models.AlignmentAligned
	default:
		return models.AlignmentDivergent
	}
}

// confluence pairs every lower-timeframe level with every higher-timeframe
// level lying within the confluence tolerance.
func confluence(lower, higher models.ChannelResult) []models.ConfluenceZone {
	zones := []models.ConfluenceZone{}
	if !lower.Bounded() {
		return zones
	}
	type level struct {
		price float64
		kind  string
	}
	lows := []level{{lower.Support, "support"}, {lower.Resistance, "resistance"}}
	highs := []level{{higher.Support, "support"}, {higher.Resistance, "resistance"}}
	for _, l := range lows {
		for _, h := range highs {
			if math.Abs(l.price-h.price)/h.price > confluenceTolerance {
				continue
			}
			zones = append(zones, models.ConfluenceZone{
				Price:       (l.price + h.price) / 2,
				Kind:        l.kind,
				LowerLevel:  l.price,
				HigherLevel: h.price,
			})
			if len(zones) == maxZones {
				return zones
			}
		}
	}
	return zones
}

// Adjust applies the multi-timeframe adjustment to a base score. It is pure:
// the adjusted score is clamped to [0,100] and delta is the change actually
// applied, so callers can log it before replacing the base.
func Adjust(base float64, m *models.MultiTimeframeAnalysis) (adjusted, delta float64) {
	if m == nil {
		return base, 0
	}
	raw := 0.0
	switch m.TrendAlignment {
	case models.AlignmentAligned:
		raw += alignedPoints * m.TrendStrength
	case models.AlignmentDivergent:
		raw -= divergentPoints * m.TrendStrength
	}
	switch n := len(m.ConfluenceZones); {
	case n >= 2:
		raw += twoZonePoints
	case n == 1:
		raw += oneZonePoints
	}
	if m.NearHigherLevel {
		raw += nearLevelPoints
	}
	adjusted = math.Max(0, math.Min(100, base+raw))
	return adjusted, adjusted - base
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
