package mtf

import (
	"math"
	"testing"

	"FinSignal/internal/domain/models"
	"FinSignal/internal/services/channel"
	"FinSignal/internal/services/regime"
	"FinSignal/pkg/config"
)

func newAnalyzer() *Analyzer {
	cfg := config.MustAnalysisConfig(config.AssetStock, config.TimeframeDaily)
	return NewAnalyzer(channel.NewDetector(cfg.Channel))
}

func rising(n int, step float64) []models.Candle {
	out := make([]models.Candle, n)
	c := 100.0
	for i := range out {
		o := c
		c *= 1 + step
		out[i] = models.Candle{Open: o, High: c * 1.01, Low: o * 0.99, Close: c}
	}
	return out
}

var (
	upChannel   = models.ChannelResult{Window: 40, Slope: 0.05}
	downChannel = models.ChannelResult{Window: 40, Slope: -0.05}
)

func TestAnalyzeNeedsTwentyBars(t *testing.T) {
	if m := newAnalyzer().Analyze(upChannel, rising(19, 0.01), 100); m != nil {
		t.Fatalf("expected nil analysis, got %+v", m)
	}
}

func TestAnalyzeAlignedUptrend(t *testing.T) {
	higher := rising(30, 0.02)
	m := newAnalyzer().Analyze(upChannel, higher, higher[len(higher)-1].Close)
	if m == nil {
		t.Fatalf("expected analysis")
	}
	if m.HigherTimeframeTrend != models.BiasBullish {
		t.Fatalf("higher trend = %s", m.HigherTimeframeTrend)
	}
	if m.TrendAlignment != models.AlignmentAligned {
		t.Fatalf("alignment = %s", m.TrendAlignment)
	}
	if m.TrendStrength <= 0 || m.TrendStrength > 1 {
		t.Fatalf("strength = %v", m.TrendStrength)
	}
	if m.WeeklySupport == nil || m.WeeklyResistance == nil {
		t.Fatalf("expected higher timeframe levels")
	}
	near := *m.WeeklyResistance * 1.01
	if m := newAnalyzer().Analyze(upChannel, higher, near); !m.NearHigherLevel {
		t.Fatalf("price 1%% above the higher resistance should be near it")
	}
	if m := newAnalyzer().Analyze(upChannel, higher, *m.WeeklyResistance*1.5); m.NearHigherLevel {
		t.Fatalf("price far from every level flagged as near")
	}

	m = newAnalyzer().Analyze(downChannel, higher, 50)
	if m.TrendAlignment != models.AlignmentDivergent {
		t.Fatalf("alignment = %s", m.TrendAlignment)
	}
	m = newAnalyzer().Analyze(models.ChannelResult{}, higher, 50)
	if m.TrendAlignment != models.AlignmentNeutral {
		t.Fatalf("alignment = %s", m.TrendAlignment)
	}
}

// driftingRange swings 7 points with a 14 bar period on a 0.08 per bar drift.
func driftingRange(n int) []models.Candle {
	out := make([]models.Candle, n)
	prev := 100.0
	for k := range out {
		m := k % 14
		c := 100 + float64(m)
		if m > 7 {
			c = 114 - float64(m)
		}
		c += 0.08 * float64(k)
		out[k] = models.Candle{Open: prev, High: math.Max(prev, c) + 0.3, Low: math.Min(prev, c) - 0.3, Close: c, Volume: 1000}
		prev = c
	}
	return out
}

func TestRangingLowerTimeframeAlignsBySlope(t *testing.T) {
	cfg := config.MustAnalysisConfig(config.AssetStock, config.TimeframeDaily)
	lower := driftingRange(60)
	ch := channel.NewDetector(cfg.Channel).Detect(lower)
	if ch.Slope <= 0 {
		t.Fatalf("slope = %v, want rising", ch.Slope)
	}
	if r := regime.NewClassifier(252).Classify(lower, nil); r.Type != models.RegimeRanging || r.Direction != models.BiasNeutral {
		t.Fatalf("regime = %s/%s, want ranging", r.Type, r.Direction)
	}

	higher := rising(30, 0.02)
	m := newAnalyzer().Analyze(ch, higher, lower[len(lower)-1].Close)
	if m.HigherTimeframeTrend != models.BiasBullish || m.TrendAlignment != models.AlignmentAligned {
		t.Fatalf("trend %s alignment %s, want bullish aligned", m.HigherTimeframeTrend, m.TrendAlignment)
	}

	falling := ch
	falling.Slope = -ch.Slope
	if m := newAnalyzer().Analyze(falling, higher, 100); m.TrendAlignment != models.AlignmentDivergent {
		t.Fatalf("alignment = %s, want divergent", m.TrendAlignment)
	}

	// a trendless higher timeframe is the only neutral case
	flat := rising(30, 0)
	if m := newAnalyzer().Analyze(ch, flat, 100); m.HigherTimeframeTrend != models.BiasNeutral || m.TrendAlignment != models.AlignmentNeutral {
		t.Fatalf("flat higher timeframe: trend %s alignment %s", m.HigherTimeframeTrend, m.TrendAlignment)
	}
}

func TestConfluenceZones(t *testing.T) {
	lower := models.ChannelResult{Support: 100, Resistance: 110}
	higher := models.ChannelResult{Support: 101, Resistance: 130}
	zones := confluence(lower, higher)
	if len(zones) != 1 {
		t.Fatalf("zones = %+v", zones)
	}
	if zones[0].Kind != "support" || zones[0].Price != 100.5 {
		t.Fatalf("zone = %+v", zones[0])
	}
	higher.Resistance = 111
	if zones := confluence(lower, higher); len(zones) != 2 {
		t.Fatalf("zones = %+v", zones)
	}
}

func TestAdjust(t *testing.T) {
	cases := []struct {
		name string
		base float64
		m    *models.MultiTimeframeAnalysis
		want float64
	}{
		{"none", 50, nil, 50},
		{"aligned", 50, &models.MultiTimeframeAnalysis{TrendAlignment: models.AlignmentAligned, TrendStrength: 0.6}, 59},
		{"divergent", 50, &models.MultiTimeframeAnalysis{TrendAlignment: models.AlignmentDivergent, TrendStrength: 1}, 35},
		{"one zone", 50, &models.MultiTimeframeAnalysis{ConfluenceZones: make([]models.ConfluenceZone, 1)}, 55},
		{"two zones near level", 50, &models.MultiTimeframeAnalysis{ConfluenceZones: make([]models.ConfluenceZone, 3), NearHigherLevel: true}, 65},
		{"clamped high", 95, &models.MultiTimeframeAnalysis{TrendAlignment: models.AlignmentAligned, TrendStrength: 1, NearHigherLevel: true}, 100},
		{"clamped low", 5, &models.MultiTimeframeAnalysis{TrendAlignment: models.AlignmentDivergent, TrendStrength: 1}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, delta := Adjust(tc.base, tc.m)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("adjusted = %v, want %v", got, tc.want)
			}
			if math.Abs(delta-(got-tc.base)) > 1e-9 {
				t.Fatalf("delta = %v, want %v", delta, got-tc.base)
			}
		})
	}
}
