package models

import "time"

// IndicatorSnapshot holds the indicator values computed once per analysis.
type IndicatorSnapshot struct {
	EMAFast     float64   `json:"ema_fast"` // EMA(50)
	EMASlow     float64   `json:"ema_slow"` // EMA(200), degraded to the series length when shorter
	ADX         float64   `json:"adx"`
	ATR         float64   `json:"atr"`
	ATRSeries   []float64 `json:"-"`
	RSI         float64   `json:"rsi"`
	VolumeRatio float64   `json:"volume_ratio"`
	HasVolume   bool      `json:"has_volume"`
	LastClose   float64   `json:"last_close"`
}

// SignalMetadata carries supporting facts for a signal.
type SignalMetadata struct {
	ChannelStatus       ChannelStatus   `json:"channel_status,omitempty"`
	HasChannel          bool            `json:"has_channel"`
	Support             float64         `json:"support,omitempty"`
	Resistance          float64         `json:"resistance,omitempty"`
	VolumeRatio         float64         `json:"volume_ratio"`
	VolumeConfirmed     bool            `json:"volume_confirmed"`
	Tier                SetupTier       `json:"tier"`
	TierScore           int             `json:"tier_score"`
	TierCriteria        []string        `json:"tier_criteria,omitempty"`
	ExpectedHoldMinutes int             `json:"expected_hold_minutes"`
	MTFAlignment        TrendAlignment  `json:"mtf_alignment,omitempty"`
	MTFAdjustment       float64         `json:"mtf_adjustment"`
	ConfluenceZones     int             `json:"confluence_zones"`
	Components          ScoreComponents `json:"components"`
	AssetType           string          `json:"asset_type"`
	Timeframe           string          `json:"timeframe"`
}

// Signal is the final output of one analysis. It is never mutated after construction.
type Signal struct {
	ID         string          `json:"id"`
	Symbol     string          `json:"symbol"`
	Direction  Direction       `json:"direction"`
	Entry      float64         `json:"entry"`
	StopLoss   float64         `json:"stop_loss"`
	Target     float64         `json:"target"`
	RiskReward float64         `json:"risk_reward"`
	Score      float64         `json:"score"`
	Confidence ConfidenceLevel `json:"confidence"`
	Rationale  string          `json:"rationale"`
	Patterns   []PatternResult `json:"patterns"`
	Regime     RegimeAnalysis  `json:"regime"`
	Metadata   SignalMetadata  `json:"metadata"`
	AnalyzedAt time.Time       `json:"analyzed_at"`
	ExpiresAt  *time.Time      `json:"expires_at,omitempty"`
}

// Expired reports whether the signal has passed its expiry at t.
func (s *Signal) Expired(t time.Time) bool {
	return s.ExpiresAt != nil && !t.Before(*s.ExpiresAt)
}

// TTL returns the remaining lifetime at t, or zero when expired or unbounded.
func (s *Signal) TTL(t time.Time) time.Duration {
	if s.ExpiresAt == nil {
		return 0
	}
	d := s.ExpiresAt.Sub(t)
	if d < 0 {
		return 0
	}
	return d
}
