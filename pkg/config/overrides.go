package config

import "time"

// AnalysisOverrides is a sparse layer over a preset. Only non-nil fields are
// applied; the recognised options are exactly the fields below.
type AnalysisOverrides struct {
	MinCandles *int `yaml:"min_candles,omitempty"`

	ChannelWindow       *int     `yaml:"channel_window,omitempty"`
	ChannelMinTouches   *int     `yaml:"min_touches,omitempty"`
	ChannelMaxOutOfBand *float64 `yaml:"max_out_of_band,omitempty"`
	ChannelMinWidth     *float64 `yaml:"min_width,omitempty"`
	ChannelMaxWidth     *float64 `yaml:"max_width,omitempty"`

	MaxStopLoss   *float64 `yaml:"max_stop_loss,omitempty"`
	MinRiskReward *float64 `yaml:"min_risk_reward,omitempty"`
	MaxRisk       *float64 `yaml:"max_risk,omitempty"`

	MinADV         *float64 `yaml:"min_adv,omitempty"`
	MaxSpread      *float64 `yaml:"max_spread,omitempty"`
	EarningsBuffer *int     `yaml:"earnings_buffer,omitempty"`

	Weights  *ScoringWeights `yaml:"weights,omitempty"`
	MinScore *float64        `yaml:"min_score,omitempty"`

	Patterns  *PatternThresholds `yaml:"patterns,omitempty"`
	Momentum  *MomentumBands     `yaml:"momentum,omitempty"`
	Tiers     *TierConfig        `yaml:"tiers,omitempty"`
	SignalTTL *time.Duration     `yaml:"signal_ttl,omitempty"`
}

// Apply returns a copy of c with the override layer merged in.
// Grouped fields (weights, patterns, momentum, tiers) replace the whole group
// so that a partially specified group cannot silently mix with the preset.
func (o AnalysisOverrides) Apply(c AnalysisConfig) AnalysisConfig {
	setInt(&c.MinCandles, o.MinCandles)

	setInt(&c.Channel.Window, o.ChannelWindow)
	setInt(&c.Channel.MinTouches, o.ChannelMinTouches)
	setFloat(&c.Channel.MaxOutOfBand, o.ChannelMaxOutOfBand)
	setFloat(&c.Channel.MinWidth, o.ChannelMinWidth)
	setFloat(&c.Channel.MaxWidth, o.ChannelMaxWidth)

	setFloat(&c.Risk.MaxStopLoss, o.MaxStopLoss)
	setFloat(&c.Risk.MinRiskReward, o.MinRiskReward)
	setFloat(&c.Risk.MaxRisk, o.MaxRisk)

	setFloat(&c.Filters.MinADV, o.MinADV)
	setFloat(&c.Filters.MaxSpread, o.MaxSpread)
	setInt(&c.Filters.EarningsBuffer, o.EarningsBuffer)

	if o.Weights != nil {
		c.Weights = *o.Weights
	}
	setFloat(&c.MinScore, o.MinScore)
	if o.Patterns != nil {
		c.Patterns = *o.Patterns
	}
	if o.Momentum != nil {
		c.Momentum = *o.Momentum
	}
	if o.Tiers != nil {
		c.Tiers = *o.Tiers
	}
	if o.SignalTTL != nil {
		c.SignalTTL = *o.SignalTTL
	}
	return c
}

// Merge layers o2 over o and returns the combined override.
func (o AnalysisOverrides) Merge(o2 AnalysisOverrides) AnalysisOverrides {
	out := o
	pickInt(&out.MinCandles, o2.MinCandles)
	pickInt(&out.ChannelWindow, o2.ChannelWindow)
	pickInt(&out.ChannelMinTouches, o2.ChannelMinTouches)
	pickFloat(&out.ChannelMaxOutOfBand, o2.ChannelMaxOutOfBand)
	pickFloat(&out.ChannelMinWidth, o2.ChannelMinWidth)
	pickFloat(&out.ChannelMaxWidth, o2.ChannelMaxWidth)
	pickFloat(&out.MaxStopLoss, o2.MaxStopLoss)
	pickFloat(&out.MinRiskReward, o2.MinRiskReward)
	pickFloat(&out.MaxRisk, o2.MaxRisk)
	pickFloat(&out.MinADV, o2.MinADV)
	pickFloat(&out.MaxSpread, o2.MaxSpread)
	pickInt(&out.EarningsBuffer, o2.EarningsBuffer)
	pickFloat(&out.MinScore, o2.MinScore)
	if o2.Weights != nil {
		out.Weights = o2.Weights
	}
	if o2.Patterns != nil {
		out.Patterns = o2.Patterns
	}
	if o2.Momentum != nil {
		out.Momentum = o2.Momentum
	}
	if o2.Tiers != nil {
		out.Tiers = o2.Tiers
	}
	if o2.SignalTTL != nil {
		out.SignalTTL = o2.SignalTTL
	}
	return out
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func pickInt(dst **int, v *int) {
	if v != nil {
		*dst = v
	}
}

func pickFloat(dst **float64, v *float64) {
	if v != nil {
		*dst = v
	}
}

// Float64 and Int return pointers for building overrides in code.
func Float64(v float64) *float64 { return &v }

func Int(v int) *int { return &v }
