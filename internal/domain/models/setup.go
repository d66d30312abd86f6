package models

type SetupTier string

const (
	TierScalp    SetupTier = "SCALP"
	TierStandard SetupTier = "STANDARD"
	TierMomentum SetupTier = "MOMENTUM"
)

// TradeSetup is a fully priced trade plan.
// Long: StopLoss < Entry < Target. Short: Target < Entry < StopLoss.
type TradeSetup struct {
	Direction           Direction `json:"direction"`
	Entry               float64   `json:"entry"`
	StopLoss            float64   `json:"stop_loss"`
	Target              float64   `json:"target"`
	RiskReward          float64   `json:"risk_reward"`
	SetupTier           SetupTier `json:"setup_tier"`
	ExpectedHoldMinutes int       `json:"expected_hold_minutes"`
	TierScore           int       `json:"tier_score"`
	TierCriteria        []string  `json:"tier_criteria,omitempty"`
	Reversal            bool      `json:"reversal"`
	Rationale           []string  `json:"rationale,omitempty"`
}

// Risk returns the absolute distance between entry and stop.
func (s TradeSetup) Risk() float64 {
	if s.Entry > s.StopLoss {
		return s.Entry - s.StopLoss
	}
	return s.StopLoss - s.Entry
}

// Reward returns the absolute distance between entry and target.
func (s TradeSetup) Reward() float64 {
	if s.Target > s.Entry {
		return s.Target - s.Entry
	}
	return s.Entry - s.Target
}

// Ordered reports whether stop, entry and target sit on the right sides.
func (s TradeSetup) Ordered() bool {
	switch s.Direction {
	case DirectionLong:
		return s.StopLoss < s.Entry && s.Entry < s.Target
	case DirectionShort:
		return s.Target < s.Entry && s.Entry < s.StopLoss
	default:
		return false
	}
}
