package models

import "fmt"

// Stage names a step of the analysis pipeline.
type Stage string

const (
	StageValidate  Stage = "validate"
	StagePatterns  Stage = "patterns"
	StageFilters   Stage = "filters"
	StageSetup     Stage = "setup"
	StageThreshold Stage = "threshold"
)

// RejectReason categorises why no signal was produced.
type RejectReason string

const (
	RejectInsufficientData RejectReason = "insufficient_data"
	RejectInvalidCandles   RejectReason = "invalid_candles"
	RejectNoPattern        RejectReason = "no_pattern"
	RejectFiltered         RejectReason = "filtered"
	RejectNoDirection      RejectReason = "no_direction"
	RejectInvalidSetup     RejectReason = "invalid_setup"
	RejectStopTooTight     RejectReason = "stop_too_tight"
	RejectRiskTooLarge     RejectReason = "risk_too_large"
	RejectPoorRiskReward   RejectReason = "poor_risk_reward"
	RejectBelowMinScore    RejectReason = "below_min_score"
)

// Rejection explains an analysis that produced no signal. It is a normal
// outcome, not an error.
type Rejection struct {
	Stage  Stage        `json:"stage"`
	Reason RejectReason `json:"reason"`
	Detail string       `json:"detail,omitempty"`
}

// Reject builds a rejection with a formatted detail.
func Reject(stage Stage, reason RejectReason, format string, args ...any) *Rejection {
	return &Rejection{Stage: stage, Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

func (r *Rejection) String() string {
	if r == nil {
		return ""
	}
	if r.Detail == "" {
		return fmt.Sprintf("%s: %s", r.Stage, r.Reason)
	}
	return fmt.Sprintf("%s: %s (%s)", r.Stage, r.Reason, r.Detail)
}
