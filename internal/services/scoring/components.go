package scoring

import (
	"math"

	"FinSignal/internal/domain/models"
	"FinSignal/pkg/config"
)

const (
	noChannelClarity  = 10
	clarityBase       = 25
	clarityPerTouch   = 5
	clarityMax        = 40
	slopeScale        = 150
	slopeMax          = 30
	positionMax       = 30
	noChannelPosition = 15

	confluenceBonus = 10
	neutralVolume   = 50
)

// trendScore rewards a clean channel, a decisive slope and a position in the
// channel that leaves room to run.
func trendScore(ch models.ChannelResult, dir models.Direction) float64 {
	if !ch.HasChannel {
		return noChannelClarity + noChannelPosition
	}

	clarity := math.Min(clarityBase+clarityPerTouch*float64(min(ch.SupportTouches, ch.ResistanceTouches)), clarityMax)
	clarity = math.Max(0, clarity-ch.OutOfBandPct*40)

	slope := math.Min(slopeMax, math.Abs(ch.Slope)*slopeScale)
	withSlope := (dir == models.DirectionLong && ch.Slope >= 0) || (dir == models.DirectionShort && ch.Slope <= 0)
	if !withSlope {
		slope /= 2
	}

	var position float64
	room := 1 - ch.Position // long: distance to resistance
	if dir == models.DirectionShort {
		room = ch.Position
	}
	switch {
	case ch.Status == models.ChannelBrokenOut && ch.Breakout == dir.Bias():
		position = positionMax
	case withSlope:
		position = positionMax * room
	default:
		position = positionMax / 2 * room
	}
	return clamp(clarity+slope+position, 0, 100)
}

// patternScore scales the table value by confidence and adds confluence bonuses.
func patternScore(patterns []models.PatternResult, ch models.ChannelResult, dir models.Direction) float64 {
	if len(patterns) == 0 {
		return PatternBase(models.PatternNone)
	}
	top := patterns[0]
	score := PatternBase(top.Type) * (0.7 + 0.3*clamp(top.Confidence, 0, 1))

	atLevel := (dir == models.DirectionLong && ch.Status == models.ChannelNearSupport) ||
		(dir == models.DirectionShort && ch.Status == models.ChannelNearResistance)
	agreeing := 0
	for _, p := range patterns {
		if p.Direction == dir.Bias() {
			agreeing++
		}
	}
	if (top.Type.IsReversal() && atLevel) || agreeing >= 2 {
		score += confluenceBonus
	}
	return math.Min(score, 100)
}

func volumeScore(ind models.IndicatorSnapshot) float64 {
	if !ind.HasVolume {
		return neutralVolume
	}
	return stepScore(volumeSteps, ind.VolumeRatio, 25)
}

func riskRewardScore(rr float64) float64 {
	return stepScore(riskRewardSteps, rr, 15)
}

// momentumScore reads RSI against the bands. Reversal setups want stretched
// readings, continuations want a healthy mid range. Shorts mirror longs.
func momentumScore(rsi float64, dir models.Direction, reversal bool, b config.MomentumBands) float64 {
	r := rsi
	if dir == models.DirectionShort {
		r = 100 - rsi
	}
	if reversal {
		switch {
		case r <= b.Oversold:
			return 100
		case r <= b.Reversal:
			return 85
		case r <= b.WeakLow:
			return 70
		case r <= b.WeakHigh:
			return 50
		case r <= b.HealthyHigh:
			return 35
		default:
			return 20
		}
	}
	switch {
	case r > b.Overbought:
		return 30
	case r > b.HealthyHigh:
		return 75
	case r >= b.WeakHigh:
		return 100
	case r >= b.WeakLow:
		return 50
	default:
		return 25
	}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
