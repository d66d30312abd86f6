package models

type TrendAlignment string

const (
	AlignmentAligned   TrendAlignment = "aligned"
	AlignmentDivergent TrendAlignment = "divergent"
	AlignmentNeutral   TrendAlignment = "neutral"
)

// ConfluenceZone is a price where lower and higher timeframe levels cluster.
type ConfluenceZone struct {
	Price       float64 `json:"price"`
	Kind        string  `json:"kind"` // support | resistance
	LowerLevel  float64 `json:"lower_level"`
	HigherLevel float64 `json:"higher_level"`
}

// MultiTimeframeAnalysis compares the trading timeframe with a higher one.
type MultiTimeframeAnalysis struct {
	HigherTimeframeTrend Bias             `json:"higher_timeframe_trend"`
	TrendAlignment       TrendAlignment   `json:"trend_alignment"`
	TrendStrength        float64          `json:"trend_strength"`
	WeeklySupport        *float64         `json:"weekly_support,omitempty"`
	WeeklyResistance     *float64         `json:"weekly_resistance,omitempty"`
	ConfluenceZones      []ConfluenceZone `json:"confluence_zones"`
	// NearHigherLevel is set when the current price sits within 2% of a
	// higher timeframe support or resistance.
	NearHigherLevel bool          `json:"near_higher_level"`
	HigherChannel   ChannelResult `json:"higher_channel"`
}
