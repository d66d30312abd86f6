package models

type RegimeType string

const (
	RegimeTrendingBullish RegimeType = "trending_bullish"
	RegimeTrendingBearish RegimeType = "trending_bearish"
	RegimeRanging         RegimeType = "ranging"
	RegimeVolatile        RegimeType = "volatile"
)

type TrendStrengthClass string

const (
	TrendWeak     TrendStrengthClass = "weak"
	TrendModerate TrendStrengthClass = "moderate"
	TrendStrong   TrendStrengthClass = "strong"
)

type VolatilityRegime string

const (
	VolatilityLow     VolatilityRegime = "low"
	VolatilityMedium  VolatilityRegime = "medium"
	VolatilityHigh    VolatilityRegime = "high"
	VolatilityExtreme VolatilityRegime = "extreme"
)

type MarketPhase string

const (
	PhaseAccumulation MarketPhase = "accumulation"
	PhaseMarkup       MarketPhase = "markup"
	PhaseDistribution MarketPhase = "distribution"
	PhaseMarkdown     MarketPhase = "markdown"
)

// RegimeAnalysis is the classified behavioural state of the market.
type RegimeAnalysis struct {
	Type               RegimeType         `json:"type"`
	Direction          Bias               `json:"direction"`
	Strength           float64            `json:"strength"`
	TrendStrengthClass TrendStrengthClass `json:"trend_strength_class"`
	VolatilityRegime   VolatilityRegime   `json:"volatility_regime"`
	MarketPhase        MarketPhase        `json:"market_phase"`
	ADX                float64            `json:"adx"`
	EMAFast            float64            `json:"ema_fast"`
	EMASlow            float64            `json:"ema_slow"`
	ATRPct             float64            `json:"atr_pct"`
	VolatilityRatio    float64            `json:"volatility_ratio"`
	RealizedVol        float64            `json:"realized_vol"`
}

// Trending reports whether the regime carries a directional trend.
func (r RegimeAnalysis) Trending() bool {
	return r.Type == RegimeTrendingBullish || r.Type == RegimeTrendingBearish
}
