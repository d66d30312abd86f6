package patterns

import (
	"math"
	"testing"

	"FinSignal/internal/domain/models"
	"FinSignal/pkg/config"
)

func stockRecognizer() *Recognizer {
	return NewRecognizer(config.MustAnalysisConfig(config.AssetStock, config.TimeframeDaily).Patterns)
}

func cryptoRecognizer() *Recognizer {
	return NewRecognizer(config.MustAnalysisConfig(config.AssetCrypto, config.TimeframeDaily).Patterns)
}

func bar(o, h, l, c float64) models.Candle {
	return models.Candle{Open: o, High: h, Low: l, Close: c, Volume: 1000}
}

func types(ps []models.PatternResult) []models.PatternType {
	out := make([]models.PatternType, len(ps))
	for i, p := range ps {
		out[i] = p.Type
	}
	return out
}

func TestCandlestickPatterns(t *testing.T) {
	cases := []struct {
		name string
		prev models.Candle
		curr models.Candle
		want models.PatternType
		dir  models.Bias
	}{
		{"bullish engulfing", bar(102, 102.5, 99.5, 100), bar(99.8, 103.2, 99.6, 103), models.PatternBullishEngulfing, models.BiasBullish},
		{"hammer", bar(100.5, 101.8, 100.2, 101.6), bar(100, 101.7, 96, 101.5), models.PatternHammer, models.BiasBullish},
		{"shooting star", bar(100.5, 100.8, 99.6, 99.8), bar(100, 103, 98.9, 99), models.PatternShootingStar, models.BiasBearish},
		{"doji", bar(99, 100.2, 98.8, 100), bar(100, 101, 99, 100.05), models.PatternDoji, models.BiasNeutral},
		{"piercing line", bar(105, 105.2, 99.8, 100), bar(99.5, 103.6, 99.3, 103.5), models.PatternPiercingLine, models.BiasBullish},
		{"dark cloud cover", bar(100, 105.2, 99.8, 105), bar(105.5, 105.7, 101.4, 101.5), models.PatternDarkCloudCover, models.BiasBearish},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := stockRecognizer().Recognize([]models.Candle{tc.prev, tc.curr}, nil)
			if len(got) != 1 {
				t.Fatalf("expected exactly one pattern, got %v", types(got))
			}
			p := got[0]
			if p.Type != tc.want || p.Direction != tc.dir {
				t.Fatalf("got %s/%s, want %s/%s", p.Type, p.Direction, tc.want, tc.dir)
			}
			if p.Kind != models.PatternKindCandlestick {
				t.Fatalf("kind = %s", p.Kind)
			}
			if p.Confidence <= 0 || p.Confidence > 1 {
				t.Fatalf("confidence out of range: %v", p.Confidence)
			}
			if p.HistoricalWinRate != WinRate(tc.want) {
				t.Fatalf("win rate = %v", p.HistoricalWinRate)
			}
		})
	}
}

func TestEngulfingThresholdDependsOnAsset(t *testing.T) {
	prev := bar(102, 102.2, 99.8, 100)
	curr := bar(101, 102.5, 100.9, 102.4) // body 0.7x the prior body
	if got := stockRecognizer().Recognize([]models.Candle{prev, curr}, nil); len(got) != 0 {
		t.Fatalf("stock should reject 0.7x engulfing, got %v", types(got))
	}
	got := cryptoRecognizer().Recognize([]models.Candle{prev, curr}, nil)
	if len(got) != 1 || got[0].Type != models.PatternBullishEngulfing {
		t.Fatalf("crypto should accept 0.7x engulfing, got %v", types(got))
	}
}

func TestRegimeAdjustsCandlestickConfidence(t *testing.T) {
	c := []models.Candle{bar(102, 102.5, 99.5, 100), bar(99.8, 103.2, 99.6, 103)}
	base := stockRecognizer().Recognize(c, nil)[0].Confidence

	up := &models.RegimeAnalysis{Type: models.RegimeTrendingBullish, Direction: models.BiasBullish, Strength: 1}
	aligned := stockRecognizer().Recognize(c, up)[0].Confidence
	if want := math.Min(1, base+0.1); math.Abs(aligned-want) > 1e-9 {
		t.Fatalf("aligned confidence = %v, want %v", aligned, want)
	}

	down := &models.RegimeAnalysis{Type: models.RegimeTrendingBearish, Direction: models.BiasBearish, Strength: 1}
	opposed := stockRecognizer().Recognize(c, down)[0].Confidence
	if want := base - 0.15; math.Abs(opposed-want) > 1e-9 {
		t.Fatalf("opposed confidence = %v, want %v", opposed, want)
	}

	ranging := &models.RegimeAnalysis{Type: models.RegimeRanging, Direction: models.BiasNeutral, Strength: 0.2}
	if got := stockRecognizer().Recognize(c, ranging)[0].Confidence; got != base {
		t.Fatalf("ranging regime changed confidence: %v vs %v", got, base)
	}
}

func TestSingleCandleYieldsNothing(t *testing.T) {
	if got := stockRecognizer().Recognize([]models.Candle{bar(100, 101, 99, 100.05)}, nil); len(got) != 0 {
		t.Fatalf("expected no patterns, got %v", types(got))
	}
}

func closesToBars(closes []float64, wick float64) []models.Candle {
	out := make([]models.Candle, len(closes))
	prev := closes[0]
	for i, c := range closes {
		o := prev
		out[i] = models.Candle{Open: o, High: math.Max(o, c) + wick, Low: math.Min(o, c) - wick, Close: c, Volume: 1000}
		prev = c
	}
	return out
}

func has(ps []models.PatternResult, t models.PatternType) (models.PatternResult, bool) {
	for _, p := range ps {
		if p.Type == t {
			return p, true
		}
	}
	return models.PatternResult{}, false
}

func TestDoubleBottom(t *testing.T) {
	var closes []float64
	for i := 0; i <= 10; i++ {
		closes = append(closes, 110-float64(i)) // 110 -> 100
	}
	for i := 1; i <= 7; i++ {
		closes = append(closes, 100+float64(i)) // -> 107
	}
	closes = append(closes, 106, 105, 104, 103, 102, 101, 100.5)
	for i := 1; i <= 10; i++ {
		closes = append(closes, 100.5+0.6*float64(i))
	}
	// recovered but still under the neckline and far from the second bottom
	if got := stockRecognizer().Recognize(closesToBars(closes, 0.3), nil); len(got) != 0 {
		t.Fatalf("unconfirmed double bottom reported: %v", types(got))
	}

	for i := 11; i <= 13; i++ {
		closes = append(closes, 100.5+0.6*float64(i)) // closes through 107.3
	}
	got := stockRecognizer().Recognize(closesToBars(closes, 0.3), nil)
	p, ok := has(got, models.PatternDoubleBottom)
	if !ok {
		t.Fatalf("double bottom not found in %v", types(got))
	}
	if p.Direction != models.BiasBullish || p.Kind != models.PatternKindChart {
		t.Fatalf("unexpected result %+v", p)
	}
	if p.HistoricalWinRate != 0.68 {
		t.Fatalf("win rate = %v", p.HistoricalWinRate)
	}
}

// rangeCloses swings between 100 and 107 in steps of 1 with a 14 bar period.
func rangeCloses(n int) []float64 {
	out := make([]float64, n)
	for k := range out {
		m := k % 14
		if m <= 7 {
			out[k] = 100 + float64(m)
		} else {
			out[k] = 114 - float64(m)
		}
	}
	return out
}

func TestRangeDoesNotReportBothDoubles(t *testing.T) {
	// falling from the last top toward support, neither double is confirmed
	falling := closesToBars(rangeCloses(56), 0.3)
	if got := stockRecognizer().Recognize(falling, nil); len(got) != 0 {
		t.Fatalf("expected nothing mid-range, got %v", types(got))
	}

	// bounced off the second bottom two bars ago
	bounced := closesToBars(rangeCloses(59), 0.3)
	got := stockRecognizer().Recognize(bounced, nil)
	if _, ok := has(got, models.PatternDoubleTop); ok {
		t.Fatalf("double top reported at support: %v", types(got))
	}
	p, ok := has(got, models.PatternDoubleBottom)
	if !ok {
		t.Fatalf("double bottom not found in %v", types(got))
	}
	if got[0].Type != models.PatternDoubleBottom || p.Direction != models.BiasBullish {
		t.Fatalf("unexpected top pattern %+v", got[0])
	}
}

func TestBullFlag(t *testing.T) {
	var closes []float64
	for i := 0; i < 30; i++ {
		closes = append(closes, 100)
	}
	for i := 1; i <= 10; i++ {
		closes = append(closes, 100+0.8*float64(i)) // pole to 108
	}
	for i := 1; i <= 6; i++ {
		closes = append(closes, 108-0.3*float64(i)) // drifting flag
	}
	got := stockRecognizer().Recognize(closesToBars(closes, 0.3), nil)
	if _, ok := has(got, models.PatternBullFlag); !ok {
		t.Fatalf("bull flag not found in %v", types(got))
	}
}

func TestResultsSortedByConfidence(t *testing.T) {
	var closes []float64
	for i := 0; i < 30; i++ {
		closes = append(closes, 100)
	}
	for i := 1; i <= 10; i++ {
		closes = append(closes, 100+0.8*float64(i))
	}
	for i := 1; i <= 6; i++ {
		closes = append(closes, 108-0.3*float64(i))
	}
	c := closesToBars(closes, 0.3)
	c = append(c, bar(106.2, 106.4, 106.0, 106.21)) // doji on top of the flag
	got := stockRecognizer().Recognize(c, nil)
	if len(got) < 2 {
		t.Fatalf("expected several patterns, got %v", types(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].Confidence < got[i].Confidence {
			t.Fatalf("not sorted: %v", got)
		}
		if got[i-1].Confidence == got[i].Confidence && got[i-1].Type > got[i].Type {
			t.Fatalf("tie not broken by type order: %v", got)
		}
	}
}

func TestWinRatesCoverEveryPattern(t *testing.T) {
	for p := models.PatternType(1); p < models.NumPatternTypes; p++ {
		r := WinRate(p)
		if r < 0.5 || r > 0.8 {
			t.Fatalf("%s win rate %v out of range", p, r)
		}
		if p.IsChart() && (r < 0.54 || r > 0.78) {
			t.Fatalf("%s chart win rate %v outside 54-78%%", p, r)
		}
	}
}
