package models

type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// ScoreComponents holds the five sub-scores.
type ScoreComponents struct {
	Trend      float64 `json:"trend"`
	Pattern    float64 `json:"pattern"`
	Volume     float64 `json:"volume"`
	RiskReward float64 `json:"risk_reward"`
	Momentum   float64 `json:"momentum"`
}

// Sum adds the components together.
func (c ScoreComponents) Sum() float64 {
	return c.Trend + c.Pattern + c.Volume + c.RiskReward + c.Momentum
}

// OpportunityScore is the 0..100 composite. Components are weight-scaled;
// Raw keeps the unweighted 0..100 values.
type OpportunityScore struct {
	Total         float64         `json:"total"`
	Base          float64         `json:"base"`
	Components    ScoreComponents `json:"components"`
	Raw           ScoreComponents `json:"raw"`
	MTFAdjustment float64         `json:"mtf_adjustment"`
	Level         ConfidenceLevel `json:"level"`
}
