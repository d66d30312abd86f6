package scoring

import (
	"FinSignal/internal/domain/models"
	"FinSignal/pkg/config"
)

const (
	HighConfidence   = 75
	MediumConfidence = 60
)

// Scorer computes the weighted opportunity score.
type Scorer struct {
	weights config.ScoringWeights
	bands   config.MomentumBands
}

func NewScorer(cfg *config.AnalysisConfig) *Scorer {
	return &Scorer{weights: cfg.Weights, bands: cfg.Momentum}
}

// Score returns the weighted composite. Total and Base are equal until a
// higher timeframe adjustment is applied with Adjusted.
func (s *Scorer) Score(in *models.AnalysisState) models.OpportunityScore {
	dir := models.DirectionNone
	rr := 0.0
	reversal := false
	if in.Setup != nil {
		dir = in.Setup.Direction
		rr = in.Setup.RiskReward
		reversal = in.Setup.Reversal
	}

	raw := models.ScoreComponents{
		Trend:      trendScore(in.Channel, dir),
		Pattern:    patternScore(in.Patterns, in.Channel, dir),
		Volume:     volumeScore(in.Indicators),
		RiskReward: riskRewardScore(rr),
		Momentum:   momentumScore(in.Indicators.RSI, dir, reversal, s.bands),
	}
	weighted := models.ScoreComponents{
		Trend:      raw.Trend * s.weights.Trend,
		Pattern:    raw.Pattern * s.weights.Pattern,
		Volume:     raw.Volume * s.weights.Volume,
		RiskReward: raw.RiskReward * s.weights.RiskReward,
		Momentum:   raw.Momentum * s.weights.Momentum,
	}
	total := clamp(weighted.Sum(), 0, 100)
	return models.OpportunityScore{
		Total:      total,
		Base:       total,
		Components: weighted,
		Raw:        raw,
		Level:      Level(total),
	}
}

// Adjusted replaces the total with an already clamped adjusted value and
// recomputes the level.
func Adjusted(s models.OpportunityScore, adjusted float64) models.OpportunityScore {
	adjusted = clamp(adjusted, 0, 100)
	s.MTFAdjustment = adjusted - s.Base
	s.Total = adjusted
	s.Level = Level(adjusted)
	return s
}

// Level maps a total to its confidence level.
func Level(total float64) models.ConfidenceLevel {
	switch {
	case total >= HighConfidence:
		return models.ConfidenceHigh
	case total >= MediumConfidence:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}
