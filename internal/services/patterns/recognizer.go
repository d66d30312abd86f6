// Package patterns detects candlestick and chart patterns on a candle series.
package patterns

import (
	"sort"

	"FinSignal/internal/domain/models"
	"FinSignal/pkg/config"
)

const (
	MinCandlestickCandles = 2
	MinChartCandles       = 20

	alignedBoost   = 0.10
	opposedPenalty = 0.15
)

// winRates are the published historical success rates per pattern type.
// Omitted types read as zero; TestWinRatesCoverEveryPattern checks each one.
var winRates = [models.NumPatternTypes]float64{
	models.PatternNone:                    0,
	models.PatternBullishEngulfing:        0.63,
	models.PatternBearishEngulfing:        0.62,
	models.PatternHammer:                  0.60,
	models.PatternShootingStar:            0.59,
	models.PatternDoji:                    0.52,
	models.PatternPiercingLine:            0.64,
	models.PatternDarkCloudCover:          0.60,
	models.PatternDoubleTop:               0.65,
	models.PatternDoubleBottom:            0.68,
	models.PatternHeadAndShoulders:        0.74,
	models.PatternInverseHeadAndShoulders: 0.78,
	models.PatternBullFlag:                0.67,
	models.PatternBearFlag:                0.63,
	models.PatternAscendingTriangle:       0.72,
	models.PatternDescendingTriangle:      0.64,
	models.PatternSymmetricalTriangle:     0.54,
	models.PatternCupAndHandle:            0.65,
}

// WinRate returns the historical win rate annotated on a pattern type.
func WinRate(p models.PatternType) float64 {
	if !p.Valid() {
		return 0
	}
	return winRates[p]
}

type Recognizer struct {
	th config.PatternThresholds
}

func NewRecognizer(th config.PatternThresholds) *Recognizer {
	return &Recognizer{th: th}
}

// Recognize runs both sub-detectors and returns every match sorted by
// confidence, highest first. Ties keep the PatternType order. A nil regime
// leaves candlestick confidences unadjusted. An empty result is normal.
func (r *Recognizer) Recognize(candles []models.Candle, regime *models.RegimeAnalysis) []models.PatternResult {
	var out []models.PatternResult
	if len(candles) >= MinCandlestickCandles {
		for _, p := range r.candlesticks(candles) {
			if regime != nil {
				p.Confidence = adjustForRegime(p, *regime)
			}
			out = append(out, p)
		}
	}
	if len(candles) >= MinChartCandles {
		out = append(out, chartPatterns(candles)...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].Type < out[j].Type
	})
	return out
}

func adjustForRegime(p models.PatternResult, regime models.RegimeAnalysis) float64 {
	if !regime.Trending() || p.Direction == models.BiasNeutral {
		return p.Confidence
	}
	if p.Direction == regime.Direction {
		return clamp01(p.Confidence + alignedBoost*regime.Strength)
	}
	return clamp01(p.Confidence - opposedPenalty*regime.Strength)
}

func result(t models.PatternType, conf float64, dir models.Bias, level float64) models.PatternResult {
	kind := models.PatternKindChart
	if t.IsCandlestick() {
		kind = models.PatternKindCandlestick
	}
	return models.PatternResult{
		Type:              t,
		Kind:              kind,
		Confidence:        clamp01(conf),
		Direction:         dir,
		HistoricalWinRate: WinRate(t),
		Level:             level,
	}
}
