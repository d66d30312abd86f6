package patterns

import (
	"FinSignal/internal/domain/models"
)

// oppositeShadowMax bounds the non-signal shadow of hammers and shooting stars
// as a fraction of the bar range.
const oppositeShadowMax = 0.15

// candlesticks inspects the last two bars.
func (r *Recognizer) candlesticks(candles []models.Candle) []models.PatternResult {
	prev := candles[len(candles)-2]
	curr := candles[len(candles)-1]

	var out []models.PatternResult
	if ok, conf := r.bullishEngulfing(prev, curr); ok {
		out = append(out, result(models.PatternBullishEngulfing, conf, models.BiasBullish, curr.Close))
	}
	if ok, conf := r.bearishEngulfing(prev, curr); ok {
		out = append(out, result(models.PatternBearishEngulfing, conf, models.BiasBearish, curr.Close))
	}
	if ok, conf := r.hammer(curr); ok {
		out = append(out, result(models.PatternHammer, conf, models.BiasBullish, curr.Close))
	}
	if ok, conf := r.shootingStar(curr); ok {
		out = append(out, result(models.PatternShootingStar, conf, models.BiasBearish, curr.Close))
	}
	if ok, conf := r.doji(curr); ok {
		out = append(out, result(models.PatternDoji, conf, models.BiasNeutral, curr.Close))
	}
	if ok, conf := r.piercingLine(prev, curr); ok {
		out = append(out, result(models.PatternPiercingLine, conf, models.BiasBullish, curr.Close))
	}
	if ok, conf := r.darkCloudCover(prev, curr); ok {
		out = append(out, result(models.PatternDarkCloudCover, conf, models.BiasBearish, curr.Close))
	}
	return out
}

// solidBody rejects doji-like bars as the first leg of a two-bar pattern.
func (r *Recognizer) solidBody(c models.Candle) bool {
	rng := c.Range()
	return rng > 0 && c.Body() > r.th.DojiMaxBodyPct*rng
}

func (r *Recognizer) bullishEngulfing(prev, curr models.Candle) (bool, float64) {
	if !prev.IsBearish() || !curr.IsBullish() || !r.solidBody(prev) {
		return false, 0
	}
	if curr.Close < prev.Open || curr.Open > prev.Open {
		return false, 0
	}
	ratio := curr.Body() / prev.Body()
	if ratio < r.th.EngulfingBodyRatio {
		return false, 0
	}
	return true, engulfingConfidence(ratio, r.th.EngulfingBodyRatio, curr)
}

func (r *Recognizer) bearishEngulfing(prev, curr models.Candle) (bool, float64) {
	if !prev.IsBullish() || !curr.IsBearish() || !r.solidBody(prev) {
		return false, 0
	}
	if curr.Close > prev.Open || curr.Open < prev.Open {
		return false, 0
	}
	ratio := curr.Body() / prev.Body()
	if ratio < r.th.EngulfingBodyRatio {
		return false, 0
	}
	return true, engulfingConfidence(ratio, r.th.EngulfingBodyRatio, curr)
}

func engulfingConfidence(ratio, minRatio float64, curr models.Candle) float64 {
	bodyPct := 0.0
	if rng := curr.Range(); rng > 0 {
		bodyPct = curr.Body() / rng
	}
	return 0.55 + 0.25*clamp01(ratio-minRatio) + 0.2*bodyPct
}

func (r *Recognizer) hammer(c models.Candle) (bool, float64) {
	rng, body := c.Range(), c.Body()
	if rng <= 0 || body < r.th.HammerMinBodyPct*rng {
		return false, 0
	}
	lower, upper := c.LowerShadow(), c.UpperShadow()
	if lower < r.th.HammerShadowRatio*body || upper > oppositeShadowMax*rng {
		return false, 0
	}
	return true, shadowConfidence(lower/body, r.th.HammerShadowRatio, upper/rng)
}

func (r *Recognizer) shootingStar(c models.Candle) (bool, float64) {
	rng, body := c.Range(), c.Body()
	if rng <= 0 || body < r.th.HammerMinBodyPct*rng {
		return false, 0
	}
	lower, upper := c.LowerShadow(), c.UpperShadow()
	if upper < r.th.HammerShadowRatio*body || lower > oppositeShadowMax*rng {
		return false, 0
	}
	return true, shadowConfidence(upper/body, r.th.HammerShadowRatio, lower/rng)
}

func shadowConfidence(shadowRatio, minRatio, oppositePct float64) float64 {
	return 0.5 + 0.3*clamp01((shadowRatio-minRatio)/minRatio) + 0.2*(1-oppositePct/oppositeShadowMax)
}

func (r *Recognizer) doji(c models.Candle) (bool, float64) {
	rng := c.Range()
	if rng <= 0 {
		return false, 0
	}
	bodyPct := c.Body() / rng
	if bodyPct >= r.th.DojiMaxBodyPct {
		return false, 0
	}
	return true, 0.4 + 0.4*(1-bodyPct/r.th.DojiMaxBodyPct)
}

// piercingLine: a bearish bar, then a bullish bar opening at or below its
// close and reclaiming more than half of its body without engulfing it.
func (r *Recognizer) piercingLine(prev, curr models.Candle) (bool, float64) {
	if !prev.IsBearish() || !curr.IsBullish() || !r.solidBody(prev) {
		return false, 0
	}
	mid := (prev.Open + prev.Close) / 2
	if curr.Open > prev.Close || curr.Close <= mid || curr.Close >= prev.Open {
		return false, 0
	}
	return true, 0.5 + 0.4*clamp01((curr.Close-mid)/(prev.Open-mid))
}

// darkCloudCover mirrors piercingLine after a bullish bar.
func (r *Recognizer) darkCloudCover(prev, curr models.Candle) (bool, float64) {
	if !prev.IsBullish() || !curr.IsBearish() || !r.solidBody(prev) {
		return false, 0
	}
	mid := (prev.Open + prev.Close) / 2
	if curr.Open < prev.Close || curr.Close >= mid || curr.Close <= prev.Open {
		return false, 0
	}
	return true, 0.5 + 0.4*clamp01((mid-curr.Close)/(mid-prev.Open))
}
