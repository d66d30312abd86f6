package patterns

import (
	"math"

	"FinSignal/internal/domain/models"
)

// pivot is a fractal swing point: a bar whose high (or low) is the extreme of
// the surrounding span bars on each side.
type pivot struct {
	idx   int
	price float64
}

const pivotSpan = 2

func swingHighs(candles []models.Candle) []pivot {
	var out []pivot
	for i := pivotSpan; i < len(candles)-pivotSpan; i++ {
		ok := true
		for j := i - pivotSpan; j <= i+pivotSpan && ok; j++ {
			if j != i && candles[j].High > candles[i].High {
				ok = false
			}
		}
		if ok && (len(out) == 0 || out[len(out)-1].idx < i-1) {
			out = append(out, pivot{idx: i, price: candles[i].High})
		}
	}
	return out
}

func swingLows(candles []models.Candle) []pivot {
	var out []pivot
	for i := pivotSpan; i < len(candles)-pivotSpan; i++ {
		ok := true
		for j := i - pivotSpan; j <= i+pivotSpan && ok; j++ {
			if j != i && candles[j].Low < candles[i].Low {
				ok = false
			}
		}
		if ok && (len(out) == 0 || out[len(out)-1].idx < i-1) {
			out = append(out, pivot{idx: i, price: candles[i].Low})
		}
	}
	return out
}

// lowestLow returns the minimum low in candles[from:to].
func lowestLow(candles []models.Candle, from, to int) float64 {
	v := math.Inf(1)
	for _, c := range candles[from:to] {
		v = math.Min(v, c.Low)
	}
	return v
}

// highestHigh returns the maximum high in candles[from:to].
func highestHigh(candles []models.Candle, from, to int) float64 {
	v := math.Inf(-1)
	for _, c := range candles[from:to] {
		v = math.Max(v, c.High)
	}
	return v
}

// pivotSlopePct fits a least-squares line through the pivots and returns its
// slope in percent of the mean pivot price per bar.
func pivotSlopePct(ps []pivot) float64 {
	n := float64(len(ps))
	if n < 2 {
		return 0
	}
	var sx, sy, sxx, sxy float64
	for _, p := range ps {
		x := float64(p.idx)
		sx += x
		sy += p.price
		sxx += x * x
		sxy += x * p.price
	}
	den := n*sxx - sx*sx
	if den == 0 || sy == 0 {
		return 0
	}
	slope := (n*sxy - sx*sy) / den
	return slope / (sy / n) * 100
}

func relDiff(a, b float64) float64 {
	m := math.Max(math.Abs(a), math.Abs(b))
	if m == 0 {
		return 0
	}
	return math.Abs(a-b) / m
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
