package usecase

import (
	"fmt"
	"strings"

	"FinSignal/internal/domain/models"
)

// buildRationale summarises the facts behind a signal in one readable line.
func buildRationale(st *models.AnalysisState, score models.OpportunityScore) string {
	ts := st.Setup
	var parts []string

	if len(st.Patterns) > 0 {
		top := st.Patterns[0]
		parts = append(parts, fmt.Sprintf("%s %s (confidence %.0f%%, win rate %.0f%%)",
			strings.ToUpper(string(ts.Direction)), top.Type, top.Confidence*100, top.HistoricalWinRate*100))
		if len(st.Patterns) > 1 {
			parts = append(parts, fmt.Sprintf("%d patterns detected", len(st.Patterns)))
		}
	}

	if ch := st.Channel; ch.HasChannel {
		parts = append(parts, fmt.Sprintf("%s in a %.1f%% channel %.2f-%.2f (%d/%d touches)",
			strings.ReplaceAll(string(ch.Status), "_", " "), ch.WidthPct, ch.Support, ch.Resistance,
			ch.SupportTouches, ch.ResistanceTouches))
	} else {
		parts = append(parts, "no clean channel")
	}

	r := st.Regime
	parts = append(parts, fmt.Sprintf("regime %s (%s, ADX %.0f, %s volatility, %s)",
		r.Type, r.TrendStrengthClass, r.ADX, r.VolatilityRegime, r.MarketPhase))

	if st.Indicators.HasVolume {
		parts = append(parts, fmt.Sprintf("volume %.1fx average", st.Indicators.VolumeRatio))
	}
	parts = append(parts, fmt.Sprintf("RSI %.0f", st.Indicators.RSI))
	parts = append(parts, fmt.Sprintf("%s setup, R:R %.2f, hold ~%d min", ts.SetupTier, ts.RiskReward, ts.ExpectedHoldMinutes))

	if m := st.MTF; m != nil {
		s := fmt.Sprintf("higher timeframe %s (%s", m.HigherTimeframeTrend, m.TrendAlignment)
		if n := len(m.ConfluenceZones); n > 0 {
			s += fmt.Sprintf(", %d confluence zones", n)
		}
		s += fmt.Sprintf(", %+.1f pts)", score.MTFAdjustment)
		parts = append(parts, s)
	}

	parts = append(parts, fmt.Sprintf("score %.0f (%s)", score.Total, score.Level))
	return strings.Join(parts, "; ")
}
