package setup

import (
	"fmt"

	"github.com/shopspring/decimal"

	"FinSignal/internal/domain/models"
	"FinSignal/pkg/config"
)

const (
	entryOffset      = 0.005 // entry 0.5% inside the touched level
	channelStopPct   = 0.02  // stop 2% beyond the channel level
	channelTargetPct = 0.02  // target 2% short of the opposite level
	atrStopMultiple  = 2.5
)

// Builder turns a directional read into a priced trade setup.
type Builder struct {
	cfg *config.AnalysisConfig
}

func NewBuilder(cfg *config.AnalysisConfig) *Builder {
	return &Builder{cfg: cfg}
}

// Build returns a validated setup or the rejection explaining why none exists.
func (b *Builder) Build(in *models.AnalysisState) (*models.TradeSetup, *models.Rejection) {
	dir, source := direction(in)
	if dir == models.DirectionNone {
		return nil, models.Reject(models.StageSetup, models.RejectNoDirection, "top pattern and regime are both neutral")
	}

	price := in.CurrentPrice
	if (price <= 0 || !models.Finite(price)) && len(in.Candles) > 0 {
		price = in.Candles[len(in.Candles)-1].Close
	}
	if price <= 0 || !models.Finite(price) {
		return nil, models.Reject(models.StageSetup, models.RejectInvalidSetup, "no usable price")
	}

	var rationale []string
	rationale = append(rationale, fmt.Sprintf("%s from %s", dir, source))

	entry, reversal := b.entry(in.Channel, dir, price)
	if reversal {
		rationale = append(rationale, fmt.Sprintf("entry %.1f%% inside the %s", entryOffset*100, levelName(dir)))
	}

	atr := in.Indicators.ATR
	minDist := MinStopDistance(entry, atr)
	stop, stopSource, capped, ok := b.stop(in.Channel, dir, entry, atr, minDist)
	if !ok {
		return nil, models.Reject(models.StageSetup, models.RejectInvalidSetup, "no stop on the protective side of entry")
	}
	if !models.Finite(entry) || !models.Finite(stop) {
		return nil, models.Reject(models.StageSetup, models.RejectInvalidSetup, "non-finite entry or stop")
	}
	rationale = append(rationale, "stop from "+stopSource)

	sc := buildScorecard(in, dir, b.cfg.Tiers)
	tier, tierScore, met := classifyTier(sc, b.cfg.Tiers)
	profile := b.cfg.Tiers.Profile(string(tier))
	rationale = append(rationale, describeTier(tier, tierScore, met))

	places := tickPlaces(entry, b.cfg.AssetType)
	q := quote{entry: roundNearest(entry, places), stop: roundAway(stop, entry, places)}
	if capped {
		q.stop = roundToward(stop, entry, places)
	}
	target, targetSource := b.target(in.Channel, dir, q, profile, places)
	q.target = target
	rationale = append(rationale, "target from "+targetSource)

	s := &models.TradeSetup{
		Direction:           dir,
		Entry:               q.entry.InexactFloat64(),
		StopLoss:            q.stop.InexactFloat64(),
		Target:              q.target.InexactFloat64(),
		RiskReward:          q.riskReward(),
		SetupTier:           tier,
		ExpectedHoldMinutes: profile.HoldMinutes,
		TierScore:           tierScore,
		TierCriteria:        met,
		Reversal:            reversal,
		Rationale:           rationale,
	}
	if rej := b.validate(s, atr); rej != nil {
		return nil, rej
	}
	return s, nil
}

func direction(in *models.AnalysisState) (models.Direction, string) {
	if len(in.Patterns) > 0 {
		top := in.Patterns[0]
		if d := top.Direction.Direction(); d != models.DirectionNone {
			return d, top.Type.String()
		}
	}
	if d := in.Regime.Direction.Direction(); d != models.DirectionNone {
		return d, "regime " + string(in.Regime.Type)
	}
	return models.DirectionNone, ""
}

// entry anchors near the touched level for channel reversals and uses the
// current price otherwise.
func (b *Builder) entry(ch models.ChannelResult, dir models.Direction, price float64) (float64, bool) {
	if !ch.HasChannel {
		return price, false
	}
	switch {
	case dir == models.DirectionLong && ch.Status == models.ChannelNearSupport:
		return ch.Support * (1 + entryOffset), true
	case dir == models.DirectionShort && ch.Status == models.ChannelNearResistance:
		return ch.Resistance * (1 - entryOffset), true
	}
	return price, false
}

// stop picks the tightest candidate that clears the minimum distance; when
// none does it returns the tightest so validation reports it as too tight.
func (b *Builder) stop(ch models.ChannelResult, dir models.Direction, entry, atr, minDist float64) (float64, string, bool, bool) {
	type candidate struct {
		price  float64
		source string
	}
	var cs []candidate
	if ch.HasChannel {
		if dir == models.DirectionLong {
			cs = append(cs, candidate{ch.Support * (1 - channelStopPct), "channel support"})
		} else {
			cs = append(cs, candidate{ch.Resistance * (1 + channelStopPct), "channel resistance"})
		}
	}
	if atr > 0 {
		if dir == models.DirectionLong {
			cs = append(cs, candidate{entry - atrStopMultiple*atr, "ATR"})
		} else {
			cs = append(cs, candidate{entry + atrStopMultiple*atr, "ATR"})
		}
	}

	var best, tightest *candidate
	for i := range cs {
		c := &cs[i]
		if c.price <= 0 || !protective(dir, entry, c.price) {
			continue
		}
		d := abs(entry - c.price)
		if tightest == nil || d < abs(entry-tightest.price) {
			tightest = c
		}
		if d >= minDist && (best == nil || d < abs(entry-best.price)) {
			best = c
		}
	}
	if best == nil {
		best = tightest
	}
	if best == nil {
		return 0, "", false, false
	}

	stop, source, capped := best.price, best.source, false
	maxDist := b.cfg.Risk.MaxStopLoss * entry
	if abs(entry-stop) > maxDist {
		capped = true
		source += fmt.Sprintf(" capped at %.0f%%", b.cfg.Risk.MaxStopLoss*100)
		if dir == models.DirectionLong {
			stop = entry - maxDist
		} else {
			stop = entry + maxDist
		}
	}
	return stop, source, capped, true
}

// target takes the most conservative of the tier objective, the channel
// objective and the tier R-multiple.
func (b *Builder) target(ch models.ChannelResult, dir models.Direction, q quote, p config.TierProfile, places int32) (decimal.Decimal, string) {
	entry := q.entry.InexactFloat64()
	risk := q.risk().InexactFloat64()
	sign := 1.0
	if dir == models.DirectionShort {
		sign = -1
	}

	best := roundAway(entry+sign*risk*p.RiskReward, entry, places)
	source := fmt.Sprintf("%.1fR", p.RiskReward)

	consider := func(v float64, name string) {
		if !(sign*(v-entry) > 0) {
			return
		}
		d := roundNearest(v, places)
		if (sign > 0 && d.LessThan(best)) || (sign < 0 && d.GreaterThan(best)) {
			best, source = d, name
		}
	}
	consider(entry*(1+sign*p.TargetPct/100), fmt.Sprintf("tier %.1f%%", p.TargetPct))
	if ch.HasChannel {
		if sign > 0 {
			consider(ch.Resistance*(1-channelTargetPct), "channel resistance")
		} else {
			consider(ch.Support*(1+channelTargetPct), "channel support")
		}
	}
	return best, source
}

func (b *Builder) validate(s *models.TradeSetup, atr float64) *models.Rejection {
	if !s.Ordered() {
		return models.Reject(models.StageSetup, models.RejectInvalidSetup,
			"%s stop %.4f entry %.4f target %.4f out of order", s.Direction, s.StopLoss, s.Entry, s.Target)
	}
	if minDist := MinStopDistance(s.Entry, atr); s.Risk() < minDist {
		return models.Reject(models.StageSetup, models.RejectStopTooTight,
			"stop distance %.4f below minimum %.4f", s.Risk(), minDist)
	}
	if riskPct := s.Risk() / s.Entry; riskPct > b.cfg.Risk.MaxRisk+1e-9 {
		return models.Reject(models.StageSetup, models.RejectRiskTooLarge,
			"risk %.2f%% above %.2f%%", riskPct*100, b.cfg.Risk.MaxRisk*100)
	}
	if s.RiskReward < b.cfg.Risk.MinRiskReward {
		return models.Reject(models.StageSetup, models.RejectPoorRiskReward,
			"risk/reward %.2f below %.2f", s.RiskReward, b.cfg.Risk.MinRiskReward)
	}
	return nil
}

func protective(dir models.Direction, entry, stop float64) bool {
	if dir == models.DirectionLong {
		return stop < entry
	}
	return stop > entry
}

func levelName(dir models.Direction) string {
	if dir == models.DirectionLong {
		return "support"
	}
	return "resistance"
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
