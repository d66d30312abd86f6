package patterns

import (
	"FinSignal/internal/domain/models"
	"FinSignal/internal/services/features"
)

const (
	chartLookback = 60

	doubleTolerance  = 0.03 // tops/bottoms within 3%
	doubleMinSpacing = 5
	doubleMinDepth   = 0.03
	recentBars       = 20 // the completing swing must be this recent
	freshBars        = 5  // an unbroken double is live only this close to its second swing

	hsMinCandles      = 30
	hsShoulderTol     = 0.05
	hsHeadProminence  = 0.02
	triMinCandles     = 30
	triFlatSlope      = 0.05 // %/bar
	cupMinCandles     = 40
	cupMinDepth       = 0.03
	cupMaxDepth       = 0.35
	cupRimTolerance   = 0.05
	flagPoleBars      = 10
	flagPoleMinMove   = 0.05
	flagMinBars       = 5
	flagMaxBars       = 10
	flagMaxRetrace    = 0.5
	flagMaxCounterPct = 0.15 // flag slope tolerance in %/bar against the pole
)

// chartPatterns runs every multi-bar detector on the recent window.
func chartPatterns(candles []models.Candle) []models.PatternResult {
	w := models.Tail(candles, chartLookback)
	highs := swingHighs(w)
	lows := swingLows(w)
	lastClose := w[len(w)-1].Close

	out := doublePattern(w, highs, lows, lastClose)
	if len(w) >= hsMinCandles {
		if p, ok := headAndShoulders(w, highs, lastClose); ok {
			out = append(out, p)
		}
		if p, ok := inverseHeadAndShoulders(w, lows, lastClose); ok {
			out = append(out, p)
		}
	}
	if p, ok := bullFlag(w); ok {
		out = append(out, p)
	}
	if p, ok := bearFlag(w); ok {
		out = append(out, p)
	}
	if len(w) >= triMinCandles {
		if p, ok := triangle(w); ok {
			out = append(out, p)
		}
	}
	if len(w) >= cupMinCandles {
		if p, ok := cupAndHandle(w); ok {
			out = append(out, p)
		}
	}
	return out
}

// doublePattern returns at most one of double top and double bottom. In a
// range both can qualify; the one whose level price is testing wins.
func doublePattern(w []models.Candle, highs, lows []pivot, lastClose float64) []models.PatternResult {
	top, topLevel, topOK := doubleTop(w, highs, lastClose)
	bottom, bottomLevel, bottomOK := doubleBottom(w, lows, lastClose)
	switch {
	case topOK && bottomOK:
		if abs(lastClose-bottomLevel) < abs(topLevel-lastClose) {
			return []models.PatternResult{bottom}
		}
		return []models.PatternResult{top}
	case topOK:
		return []models.PatternResult{top}
	case bottomOK:
		return []models.PatternResult{bottom}
	}
	return nil
}

// doubleTop needs confirmation: a close through the neckline, or price still
// at the second top within freshBars of it. It also returns the top level.
func doubleTop(w []models.Candle, highs []pivot, lastClose float64) (models.PatternResult, float64, bool) {
	if len(highs) < 2 {
		return models.PatternResult{}, 0, false
	}
	a, b := highs[len(highs)-2], highs[len(highs)-1]
	if b.idx-a.idx < doubleMinSpacing || len(w)-1-b.idx > recentBars {
		return models.PatternResult{}, 0, false
	}
	diff := relDiff(a.price, b.price)
	if diff > doubleTolerance {
		return models.PatternResult{}, 0, false
	}
	neck := lowestLow(w, a.idx, b.idx+1)
	top := min(a.price, b.price)
	depth := (top - neck) / top
	if depth < doubleMinDepth || lastClose >= top {
		return models.PatternResult{}, 0, false
	}
	broken := lastClose < neck
	testing := len(w)-1-b.idx <= freshBars && (top-lastClose)/top <= doubleTolerance
	if !broken && !testing {
		return models.PatternResult{}, 0, false
	}
	conf := 0.5 + 0.3*(1-diff/doubleTolerance) + 0.2*clamp01(depth/0.10)
	return result(models.PatternDoubleTop, conf, models.BiasBearish, neck), top, true
}

// doubleBottom mirrors doubleTop and returns the bottom level.
func doubleBottom(w []models.Candle, lows []pivot, lastClose float64) (models.PatternResult, float64, bool) {
	if len(lows) < 2 {
		return models.PatternResult{}, 0, false
	}
	a, b := lows[len(lows)-2], lows[len(lows)-1]
	if b.idx-a.idx < doubleMinSpacing || len(w)-1-b.idx > recentBars {
		return models.PatternResult{}, 0, false
	}
	diff := relDiff(a.price, b.price)
	if diff > doubleTolerance {
		return models.PatternResult{}, 0, false
	}
	neck := highestHigh(w, a.idx, b.idx+1)
	bottom := max(a.price, b.price)
	depth := (neck - bottom) / neck
	if depth < doubleMinDepth || lastClose <= bottom {
		return models.PatternResult{}, 0, false
	}
	broken := lastClose > neck
	testing := len(w)-1-b.idx <= freshBars && (lastClose-bottom)/bottom <= doubleTolerance
	if !broken && !testing {
		return models.PatternResult{}, 0, false
	}
	conf := 0.5 + 0.3*(1-diff/doubleTolerance) + 0.2*clamp01(depth/0.10)
	return result(models.PatternDoubleBottom, conf, models.BiasBullish, neck), bottom, true
}

func headAndShoulders(w []models.Candle, highs []pivot, lastClose float64) (models.PatternResult, bool) {
	if len(highs) < 3 {
		return models.PatternResult{}, false
	}
	l, h, r := highs[len(highs)-3], highs[len(highs)-2], highs[len(highs)-1]
	if len(w)-1-r.idx > recentBars {
		return models.PatternResult{}, false
	}
	shoulder := max(l.price, r.price)
	prominence := (h.price - shoulder) / h.price
	sym := relDiff(l.price, r.price)
	if prominence < hsHeadProminence || sym > hsShoulderTol {
		return models.PatternResult{}, false
	}
	neck := (lowestLow(w, l.idx, h.idx+1) + lowestLow(w, h.idx, r.idx+1)) / 2
	if lastClose >= r.price || neck >= min(l.price, r.price) {
		return models.PatternResult{}, false
	}
	conf := 0.5 + 0.25*(1-sym/hsShoulderTol) + 0.25*clamp01(prominence/0.08)
	return result(models.PatternHeadAndShoulders, conf, models.BiasBearish, neck), true
}

func inverseHeadAndShoulders(w []models.Candle, lows []pivot, lastClose float64) (models.PatternResult, bool) {
	if len(lows) < 3 {
		return models.PatternResult{}, false
	}
	l, h, r := lows[len(lows)-3], lows[len(lows)-2], lows[len(lows)-1]
	if len(w)-1-r.idx > recentBars {
		return models.PatternResult{}, false
	}
	shoulder := min(l.price, r.price)
	prominence := (shoulder - h.price) / shoulder
	sym := relDiff(l.price, r.price)
	if prominence < hsHeadProminence || sym > hsShoulderTol {
		return models.PatternResult{}, false
	}
	neck := (highestHigh(w, l.idx, h.idx+1) + highestHigh(w, h.idx, r.idx+1)) / 2
	if lastClose <= r.price || neck <= max(l.price, r.price) {
		return models.PatternResult{}, false
	}
	conf := 0.5 + 0.25*(1-sym/hsShoulderTol) + 0.25*clamp01(prominence/0.08)
	return result(models.PatternInverseHeadAndShoulders, conf, models.BiasBullish, neck), true
}

// bullFlag looks for a pole of at least 5% over 10 bars followed by a 5-10
// bar flag that retraces at most half the pole and drifts flat or down.
func bullFlag(w []models.Candle) (models.PatternResult, bool) {
	n := len(w)
	for f := flagMinBars; f <= flagMaxBars; f++ {
		if n < f+flagPoleBars+1 {
			break
		}
		pole := w[n-f-flagPoleBars-1 : n-f]
		flag := w[n-f:]
		start, top := pole[0].Close, highestHigh(pole, 0, len(pole))
		move := (top - start) / start
		if move < flagPoleMinMove {
			continue
		}
		flagLow := lowestLow(flag, 0, len(flag))
		retrace := (top - flagLow) / (top - start)
		slope := features.SlopePct(models.Closes(flag))
		if retrace > flagMaxRetrace || slope > flagMaxCounterPct || highestHigh(flag, 0, len(flag)) > top {
			continue
		}
		conf := 0.5 + 0.25*clamp01(move/0.10) + 0.25*(1-retrace/flagMaxRetrace)
		return result(models.PatternBullFlag, conf, models.BiasBullish, top), true
	}
	return models.PatternResult{}, false
}

func bearFlag(w []models.Candle) (models.PatternResult, bool) {
	n := len(w)
	for f := flagMinBars; f <= flagMaxBars; f++ {
		if n < f+flagPoleBars+1 {
			break
		}
		pole := w[n-f-flagPoleBars-1 : n-f]
		flag := w[n-f:]
		start, bottom := pole[0].Close, lowestLow(pole, 0, len(pole))
		move := (start - bottom) / start
		if move < flagPoleMinMove {
			continue
		}
		flagHigh := highestHigh(flag, 0, len(flag))
		retrace := (flagHigh - bottom) / (start - bottom)
		slope := features.SlopePct(models.Closes(flag))
		if retrace > flagMaxRetrace || slope < -flagMaxCounterPct || lowestLow(flag, 0, len(flag)) < bottom {
			continue
		}
		conf := 0.5 + 0.25*clamp01(move/0.10) + 0.25*(1-retrace/flagMaxRetrace)
		return result(models.PatternBearFlag, conf, models.BiasBearish, bottom), true
	}
	return models.PatternResult{}, false
}

// triangle classifies converging swing lines over the last triMinCandles bars.
func triangle(w []models.Candle) (models.PatternResult, bool) {
	seg := models.Tail(w, triMinCandles)
	highs, lows := swingHighs(seg), swingLows(seg)
	if len(highs) < 2 || len(lows) < 2 {
		return models.PatternResult{}, false
	}
	sh, sl := pivotSlopePct(highs), pivotSlopePct(lows)
	flatH, flatL := abs(sh) <= triFlatSlope, abs(sl) <= triFlatSlope
	touches := float64(len(highs) + len(lows))
	conf := 0.5 + 0.1*clamp01((touches-4)/2) + 0.2*clamp01((abs(sh)+abs(sl))/0.5)
	switch {
	case flatH && sl > triFlatSlope:
		return result(models.PatternAscendingTriangle, conf, models.BiasBullish, maxPivot(highs)), true
	case flatL && sh < -triFlatSlope:
		return result(models.PatternDescendingTriangle, conf, models.BiasBearish, minPivot(lows)), true
	case sh < -triFlatSlope && sl > triFlatSlope:
		return result(models.PatternSymmetricalTriangle, conf, models.BiasNeutral, 0), true
	}
	return models.PatternResult{}, false
}

// cupAndHandle: a rounded base 3-35% deep with rims within 5% of each other,
// followed by a shallow handle of 3-10 bars.
func cupAndHandle(w []models.Candle) (models.PatternResult, bool) {
	n := len(w)
	for h := 3; h <= 10; h++ {
		cup := w[:n-h]
		handle := w[n-h:]
		third := len(cup) / 3
		leftRim := highestHigh(cup, 0, third)
		rightRim := highestHigh(cup, len(cup)-third, len(cup))
		bottomIdx := 0
		for i := range cup {
			if cup[i].Low < cup[bottomIdx].Low {
				bottomIdx = i
			}
		}
		if bottomIdx < third || bottomIdx >= len(cup)-third {
			continue
		}
		bottom := cup[bottomIdx].Low
		rim := min(leftRim, rightRim)
		depth := (rim - bottom) / rim
		rimDiff := relDiff(leftRim, rightRim)
		if depth < cupMinDepth || depth > cupMaxDepth || rimDiff > cupRimTolerance {
			continue
		}
		hLow, hHigh := lowestLow(handle, 0, h), highestHigh(handle, 0, h)
		if hLow < bottom+0.5*(rim-bottom) || hHigh > max(leftRim, rightRim) {
			continue
		}
		conf := 0.5 + 0.25*(1-rimDiff/cupRimTolerance) + 0.25*clamp01(depth/0.15)
		return result(models.PatternCupAndHandle, conf, models.BiasBullish, rim), true
	}
	return models.PatternResult{}, false
}

func maxPivot(ps []pivot) float64 {
	v := ps[0].price
	for _, p := range ps[1:] {
		v = max(v, p.price)
	}
	return v
}

func minPivot(ps []pivot) float64 {
	v := ps[0].price
	for _, p := range ps[1:] {
		v = min(v, p.price)
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
