package setup

import (
	"github.com/shopspring/decimal"

	"FinSignal/pkg/config"
)

// tickPlaces returns the decimal places prices are quoted with.
func tickPlaces(price float64, asset config.AssetType) int32 {
	if asset == config.AssetCrypto {
		switch {
		case price >= 1000:
			return 2
		case price >= 1:
			return 4
		default:
			return 6
		}
	}
	if price >= 1 {
		return 2
	}
	return 4
}

// minStopPct is the price-tiered minimum stop distance in percent of entry.
func minStopPct(price float64) float64 {
	switch {
	case price < 10:
		return 1.0
	case price <= 200:
		return 0.5
	default:
		return 0.3
	}
}

// MinStopDistance returns the smallest acceptable stop distance for entry:
// the price-tiered percentage, never less than half an ATR.
func MinStopDistance(entry, atr float64) float64 {
	return max(minStopPct(entry)/100*entry, 0.5*atr)
}

// quote holds the rounded prices of a setup.
type quote struct {
	entry, stop, target decimal.Decimal
}

func (q quote) risk() decimal.Decimal   { return q.entry.Sub(q.stop).Abs() }
func (q quote) reward() decimal.Decimal { return q.target.Sub(q.entry).Abs() }

func (q quote) riskReward() float64 {
	r := q.risk()
	if r.IsZero() {
		return 0
	}
	return q.reward().Div(r).Round(4).InexactFloat64()
}

// roundNearest rounds to the tick.
func roundNearest(v float64, places int32) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(places)
}

// roundAway rounds away from ref, so a stop never moves closer to entry and
// an R-multiple target never loses reward to rounding.
func roundAway(v, ref float64, places int32) decimal.Decimal {
	d := decimal.NewFromFloat(v)
	if v < ref {
		return d.RoundFloor(places)
	}
	return d.RoundCeil(places)
}

// roundToward rounds toward ref.
func roundToward(v, ref float64, places int32) decimal.Decimal {
	d := decimal.NewFromFloat(v)
	if v < ref {
		return d.RoundCeil(places)
	}
	return d.RoundFloor(places)
}
