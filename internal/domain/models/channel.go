package models

// Bias is the directional lean of a pattern, trend or breakout.
type Bias string

const (
	BiasBullish Bias = "bullish"
	BiasBearish Bias = "bearish"
	BiasNeutral Bias = "neutral"
)

// Direction is the side of a trade.
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
	DirectionNone  Direction = ""
)

// Direction maps a bias to a trade side; neutral maps to DirectionNone.
func (b Bias) Direction() Direction {
	switch b {
	case BiasBullish:
		return DirectionLong
	case BiasBearish:
		return DirectionShort
	default:
		return DirectionNone
	}
}

// Bias maps a trade side back to its bias.
func (d Direction) Bias() Bias {
	switch d {
	case DirectionLong:
		return BiasBullish
	case DirectionShort:
		return BiasBearish
	default:
		return BiasNeutral
	}
}

type ChannelStatus string

const (
	ChannelNearSupport    ChannelStatus = "near_support"
	ChannelNearResistance ChannelStatus = "near_resistance"
	ChannelInside         ChannelStatus = "inside"
	ChannelBrokenOut      ChannelStatus = "broken_out"
)

// ChannelResult describes a support/resistance band detected over a candle window.
// Percent fields are expressed in percent units (2.5 means 2.5%).
type ChannelResult struct {
	HasChannel        bool          `json:"has_channel"`
	Support           float64       `json:"support"`
	Resistance        float64       `json:"resistance"`
	Mid               float64       `json:"mid"`
	WidthPct          float64       `json:"width_pct"`
	SupportTouches    int           `json:"support_touches"`
	ResistanceTouches int           `json:"resistance_touches"`
	OutOfBandPct      float64       `json:"out_of_band_pct"` // fraction in [0,1]
	Slope             float64       `json:"slope"`           // %/bar
	Status            ChannelStatus `json:"status,omitempty"`
	Breakout          Bias          `json:"breakout,omitempty"`
	Position          float64       `json:"position"` // 0 at support, 1 at resistance
	TouchTolerancePct float64       `json:"touch_tolerance_pct"`
	NearThresholdPct  float64       `json:"near_threshold_pct"`
	ATR               float64       `json:"atr"`
	Window            int           `json:"window"`
}

// Bounded reports whether support and resistance were computed at all.
func (c ChannelResult) Bounded() bool {
	return c.Support > 0 && c.Resistance > c.Support
}
