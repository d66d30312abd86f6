// Package channel finds volatility-normalised support/resistance bands.
package channel

import (
	"math"
	"sort"

	"FinSignal/internal/domain/models"
	"FinSignal/internal/services/features"
	"FinSignal/internal/services/indicators"
	"FinSignal/pkg/config"
)

// MinCandles is the smallest window the detector will look at.
const MinCandles = 10

const (
	touchATRFactor = 0.3
	touchFloorPct  = 0.5
	nearATRFactor  = 0.5
	nearFloorPct   = 1.0
)

type Detector struct {
	cfg config.ChannelConfig
}

func NewDetector(cfg config.ChannelConfig) *Detector {
	return &Detector{cfg: cfg}
}

// Detect analyses the last cfg.Window candles. Fewer than MinCandles yields a
// zero result with HasChannel=false.
func (d *Detector) Detect(candles []models.Candle) models.ChannelResult {
	if len(candles) < MinCandles {
		return models.ChannelResult{}
	}
	window := candles
	if d.cfg.Window >= MinCandles {
		window = models.Tail(candles, d.cfg.Window)
	}
	closes := models.Closes(window)
	n := len(closes)
	lastClose := closes[n-1]

	atr := indicators.ATR(window, indicators.ATRPeriod)
	atrPct := 0.0
	if lastClose > 0 {
		atrPct = atr / lastClose * 100
	}
	touchTol := math.Max(touchATRFactor*atrPct, touchFloorPct)
	nearTol := math.Max(nearATRFactor*atrPct, nearFloorPct)

	support, resistance := d.bounds(closes, nearTol)

	res := models.ChannelResult{
		Support:           support,
		Resistance:        resistance,
		Mid:               (support + resistance) / 2,
		TouchTolerancePct: touchTol,
		NearThresholdPct:  nearTol,
		ATR:               atr,
		Window:            n,
		Slope:             features.SlopePct(closes),
	}
	if res.Mid > 0 {
		res.WidthPct = (resistance - support) / res.Mid * 100
	}

	lowerBand := support * (1 - touchTol/100)
	upperBand := resistance * (1 + touchTol/100)
	outside := 0
	for _, c := range closes {
		if withinPct(c, support, touchTol) {
			res.SupportTouches++
		}
		if withinPct(c, resistance, touchTol) {
			res.ResistanceTouches++
		}
		if c < lowerBand || c > upperBand {
			outside++
		}
	}
	res.OutOfBandPct = float64(outside) / float64(n)

	if resistance > support {
		res.Position = clamp01((lastClose - support) / (resistance - support))
	} else {
		res.Position = 0.5
	}
	res.Status, res.Breakout = classify(lastClose, support, resistance, lowerBand, upperBand, nearTol)

	res.HasChannel = res.WidthPct >= d.cfg.MinWidth &&
		res.WidthPct <= d.cfg.MaxWidth &&
		res.SupportTouches >= d.cfg.MinTouches &&
		res.ResistanceTouches >= d.cfg.MinTouches &&
		res.OutOfBandPct <= d.cfg.MaxOutOfBand
	return res
}

// bounds returns support and resistance from the close distribution. An
// extreme close separated from the next one by more than the near threshold
// is a spike rather than a level and is trimmed, at most
// floor(MaxOutOfBand*n) of them.
func (d *Detector) bounds(closes []float64, tolPct float64) (float64, float64) {
	sorted := append([]float64(nil), closes...)
	sort.Float64s(sorted)
	lo, hi := 0, len(sorted)-1
	budget := int(math.Floor(d.cfg.MaxOutOfBand * float64(len(sorted))))
	for budget > 0 && hi-lo > 2 {
		trimmed := false
		if gapPct(sorted[lo], sorted[lo+1]) > tolPct {
			lo++
			budget--
			trimmed = true
		}
		if budget > 0 && gapPct(sorted[hi-1], sorted[hi]) > tolPct {
			hi--
			budget--
			trimmed = true
		}
		if !trimmed {
			break
		}
	}
	return sorted[lo], sorted[hi]
}

func classify(price, support, resistance, lowerBand, upperBand, nearTol float64) (models.ChannelStatus, models.Bias) {
	if support <= 0 || resistance <= support {
		return models.ChannelInside, ""
	}
	switch {
	case price > upperBand:
		return models.ChannelBrokenOut, models.BiasBullish
	case price < lowerBand:
		return models.ChannelBrokenOut, models.BiasBearish
	}
	distS := math.Abs(price-support) / support * 100
	distR := math.Abs(resistance-price) / resistance * 100
	nearS, nearR := distS <= nearTol, distR <= nearTol
	switch {
	case nearS && (!nearR || distS <= distR):
		return models.ChannelNearSupport, ""
	case nearR:
		return models.ChannelNearResistance, ""
	}
	return models.ChannelInside, ""
}

// gapPct is the distance from a up to b in percent of b.
func gapPct(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return (b - a) / b * 100
}

func withinPct(v, level, tolPct float64) bool {
	if level == 0 {
		return false
	}
	return math.Abs(v-level)/level*100 <= tolPct
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
