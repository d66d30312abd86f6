package setup

import (
	"fmt"

	"FinSignal/internal/domain/models"
	"FinSignal/pkg/config"
)

const (
	momentumCriteria = 6
	momentumRequired = 5
	standardCriteria = 5
	standardRequired = 3

	atrLookback           = 20
	consolidationLookback = 10
)

// scorecard is the set of facts the tier classifier looks at.
type scorecard struct {
	volumeRatio   float64
	hasVolume     bool
	atrExpansion  float64
	breakout      bool
	gapFollow     bool
	patternConf   float64
	regimeAligned bool
	regimeAgainst bool
	favorable     bool
}

func buildScorecard(in *models.AnalysisState, dir models.Direction, tc config.TierConfig) scorecard {
	sc := scorecard{
		volumeRatio:  in.Indicators.VolumeRatio,
		hasVolume:    in.Indicators.HasVolume,
		atrExpansion: atrExpansion(in.Indicators.ATRSeries),
		breakout:     breakoutFromConsolidation(in.Candles, dir, tc.ConsolidationPct) || channelBreakout(in.Channel, dir),
		gapFollow:    gapFollowThrough(in.Candles, dir, tc.GapPct),
	}
	if len(in.Patterns) > 0 {
		sc.patternConf = in.Patterns[0].Confidence
	}
	if in.Regime.Trending() {
		sc.regimeAligned = in.Regime.Direction == dir.Bias()
		sc.regimeAgainst = !sc.regimeAligned
	}
	if in.Channel.HasChannel {
		sc.favorable = (dir == models.DirectionLong && in.Channel.Status == models.ChannelNearSupport) ||
			(dir == models.DirectionShort && in.Channel.Status == models.ChannelNearResistance) ||
			channelBreakout(in.Channel, dir)
	}
	return sc
}

// classifyTier returns the tier, the number of criteria met for it and
// their names. SCALP reports the standard scorecard.
func classifyTier(sc scorecard, tc config.TierConfig) (models.SetupTier, int, []string) {
	momentum := []struct {
		name string
		ok   bool
	}{
		{"volume_surge", sc.hasVolume && sc.volumeRatio >= tc.VolumeSurge},
		{"atr_expansion", sc.atrExpansion >= tc.ATRExpansion},
		{"breakout", sc.breakout},
		{"gap_follow_through", sc.gapFollow},
		{"strong_pattern", sc.patternConf >= tc.StrongPattern},
		{"regime_aligned", sc.regimeAligned},
	}
	if met := names(momentum); len(met) >= momentumRequired {
		return models.TierMomentum, len(met), met
	}

	standard := []struct {
		name string
		ok   bool
	}{
		{"volume_active", sc.hasVolume && sc.volumeRatio >= tc.VolumeActive},
		{"atr_active", sc.atrExpansion >= tc.ATRActive},
		{"solid_pattern", sc.patternConf >= tc.SolidPattern},
		{"regime_supportive", !sc.regimeAgainst},
		{"channel_position", sc.favorable},
	}
	met := names(standard)
	if len(met) >= standardRequired {
		return models.TierStandard, len(met), met
	}
	return models.TierScalp, len(met), met
}

func names(cs []struct {
	name string
	ok   bool
}) []string {
	var out []string
	for _, c := range cs {
		if c.ok {
			out = append(out, c.name)
		}
	}
	return out
}

// atrExpansion is the latest ATR over the mean of the preceding atrLookback
// values; 1 when there is no history.
func atrExpansion(atr []float64) float64 {
	n := len(atr)
	if n < 2 {
		return 1
	}
	start := max(0, n-1-atrLookback)
	sum := 0.0
	for _, v := range atr[start : n-1] {
		sum += v
	}
	mean := sum / float64(n-1-start)
	if mean <= 0 {
		return 1
	}
	return atr[n-1] / mean
}

// breakoutFromConsolidation reports a last close beyond the range of the
// preceding bars when that range was tight.
func breakoutFromConsolidation(candles []models.Candle, dir models.Direction, maxRangePct float64) bool {
	n := len(candles)
	if n < consolidationLookback+1 {
		return false
	}
	base := candles[n-1-consolidationLookback : n-1]
	hi, lo := base[0].High, base[0].Low
	for _, c := range base[1:] {
		hi, lo = max(hi, c.High), min(lo, c.Low)
	}
	mid := (hi + lo) / 2
	if mid <= 0 || (hi-lo)/mid*100 > maxRangePct {
		return false
	}
	last := candles[n-1].Close
	if dir == models.DirectionLong {
		return last > hi
	}
	return last < lo
}

func channelBreakout(ch models.ChannelResult, dir models.Direction) bool {
	return ch.Status == models.ChannelBrokenOut && ch.Breakout == dir.Bias()
}

// gapFollowThrough: the last bar gapped in the trade direction and kept going.
func gapFollowThrough(candles []models.Candle, dir models.Direction, minGapPct float64) bool {
	n := len(candles)
	if n < 2 || candles[n-2].Close <= 0 {
		return false
	}
	prev, last := candles[n-2], candles[n-1]
	gap := (last.Open - prev.Close) / prev.Close * 100
	if dir == models.DirectionLong {
		return gap >= minGapPct && last.Close > last.Open
	}
	return gap <= -minGapPct && last.Close < last.Open
}

func describeTier(tier models.SetupTier, score int, met []string) string {
	total := standardCriteria
	if tier == models.TierMomentum {
		total = momentumCriteria
	}
	return fmt.Sprintf("tier %s (%d/%d criteria: %v)", tier, score, total, met)
}
