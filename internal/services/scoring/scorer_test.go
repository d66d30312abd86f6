package scoring

import (
	"math"
	"math/rand"
	"testing"

	"FinSignal/internal/domain/models"
	"FinSignal/pkg/config"
)

func stockDaily() *config.AnalysisConfig {
	return config.MustAnalysisConfig(config.AssetStock, config.TimeframeDaily)
}

func supportReversal() *models.AnalysisState {
	return &models.AnalysisState{
		Setup: &models.TradeSetup{
			Direction: models.DirectionLong, Entry: 100.5, StopLoss: 98, Target: 104.86,
			RiskReward: 1.744, Reversal: true, SetupTier: models.TierStandard,
		},
		Channel: models.ChannelResult{
			HasChannel: true, Support: 100, Resistance: 107, SupportTouches: 2, ResistanceTouches: 3,
			Slope: 0.1, Status: models.ChannelNearSupport, Position: 0.05,
		},
		Patterns: []models.PatternResult{{
			Type: models.PatternBullishEngulfing, Kind: models.PatternKindCandlestick,
			Confidence: 0.9, Direction: models.BiasBullish,
		}},
		Indicators: models.IndicatorSnapshot{RSI: 38, VolumeRatio: 1.5, HasVolume: true},
	}
}

func TestScoreSupportReversalIsHigh(t *testing.T) {
	s := NewScorer(stockDaily()).Score(supportReversal())
	if s.Total < 75 || s.Level != models.ConfidenceHigh {
		t.Fatalf("expected a high score, got %.2f %s (raw %+v)", s.Total, s.Level, s.Raw)
	}
	if math.Abs(s.Components.Sum()-s.Total) > 1e-9 {
		t.Fatalf("components %.4f do not add up to total %.4f", s.Components.Sum(), s.Total)
	}
	if s.Raw.Volume != 85 || s.Raw.RiskReward != 60 || s.Raw.Momentum != 85 {
		t.Fatalf("unexpected raw components %+v", s.Raw)
	}
}

func TestPatternTableCoversEveryType(t *testing.T) {
	for p := models.PatternType(0); p < models.NumPatternTypes; p++ {
		if PatternBase(p) <= 0 {
			t.Fatalf("pattern %s has no score", p)
		}
	}
	if PatternBase(models.PatternNone) >= PatternBase(models.PatternDoji) {
		t.Fatalf("no pattern should score below any pattern")
	}
}

func TestNoPatternStillScores(t *testing.T) {
	in := supportReversal()
	in.Patterns = nil
	s := NewScorer(stockDaily()).Score(in)
	if s.Raw.Pattern != 20 {
		t.Fatalf("expected the base score for no pattern, got %v", s.Raw.Pattern)
	}
}

func TestVolumeSteps(t *testing.T) {
	cases := []struct {
		ratio float64
		has   bool
		want  float64
	}{
		{2.5, true, 100},
		{1.5, true, 85},
		{1.2, true, 70},
		{1.0, true, 55},
		{0.8, true, 40},
		{0.3, true, 25},
		{0, false, 50},
	}
	for _, c := range cases {
		got := volumeScore(models.IndicatorSnapshot{VolumeRatio: c.ratio, HasVolume: c.has})
		if got != c.want {
			t.Fatalf("volumeScore(%v, %v) = %v, want %v", c.ratio, c.has, got, c.want)
		}
	}
}

func TestRiskRewardMonotonic(t *testing.T) {
	prev := -1.0
	for rr := 0.0; rr <= 5; rr += 0.25 {
		got := riskRewardScore(rr)
		if got < prev {
			t.Fatalf("riskRewardScore not monotonic at %v", rr)
		}
		prev = got
	}
	if riskRewardScore(3.5) != 100 {
		t.Fatalf("3.5:1 should score the maximum")
	}
}

func TestMomentumScore(t *testing.T) {
	b := stockDaily().Momentum
	cases := []struct {
		rsi      float64
		dir      models.Direction
		reversal bool
		want     float64
	}{
		{25, models.DirectionLong, true, 100},
		{38, models.DirectionLong, true, 85},
		{50, models.DirectionLong, true, 50},
		{80, models.DirectionLong, true, 20},
		{60, models.DirectionLong, false, 100},
		{68, models.DirectionLong, false, 75},
		{50, models.DirectionLong, false, 50},
		{75, models.DirectionLong, false, 30},
		{40, models.DirectionLong, false, 25},
		{75, models.DirectionShort, true, 100},
		{40, models.DirectionShort, false, 100},
	}
	for _, c := range cases {
		if got := momentumScore(c.rsi, c.dir, c.reversal, b); got != c.want {
			t.Fatalf("momentumScore(%v, %s, reversal=%v) = %v, want %v", c.rsi, c.dir, c.reversal, got, c.want)
		}
	}
}

func TestTrendScorePrefersRoom(t *testing.T) {
	ch := supportReversal().Channel
	low := trendScore(ch, models.DirectionLong)
	ch.Position = 0.95
	high := trendScore(ch, models.DirectionLong)
	if low <= high {
		t.Fatalf("a long near support should outscore one near resistance: %v <= %v", low, high)
	}
	if trendScore(models.ChannelResult{}, models.DirectionLong) != 25 {
		t.Fatalf("no channel should score the neutral trend value")
	}
}

func TestScoreBounds(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	sc := NewScorer(stockDaily())
	for i := 0; i < 500; i++ {
		dir := models.DirectionLong
		if r.Intn(2) == 0 {
			dir = models.DirectionShort
		}
		in := &models.AnalysisState{
			Setup: &models.TradeSetup{Direction: dir, RiskReward: r.Float64() * 10, Reversal: r.Intn(2) == 0},
			Channel: models.ChannelResult{
				HasChannel: r.Intn(2) == 0, SupportTouches: r.Intn(20), ResistanceTouches: r.Intn(20),
				OutOfBandPct: r.Float64(), Slope: r.NormFloat64(), Position: r.Float64(),
			},
			Patterns: []models.PatternResult{{
				Type: models.PatternType(r.Intn(int(models.NumPatternTypes))), Confidence: r.Float64(),
				Direction: dir.Bias(),
			}},
			Indicators: models.IndicatorSnapshot{RSI: r.Float64() * 100, VolumeRatio: r.Float64() * 5, HasVolume: true},
		}
		s := sc.Score(in)
		if s.Total < 0 || s.Total > 100 {
			t.Fatalf("score out of bounds: %v", s.Total)
		}
		for _, v := range []float64{s.Raw.Trend, s.Raw.Pattern, s.Raw.Volume, s.Raw.RiskReward, s.Raw.Momentum} {
			if v < 0 || v > 100 {
				t.Fatalf("raw component out of bounds: %+v", s.Raw)
			}
		}
	}
}

func TestAdjustedRecomputesLevel(t *testing.T) {
	s := NewScorer(stockDaily()).Score(supportReversal())
	base := s.Total
	adj := Adjusted(s, base-30)
	if math.Abs(adj.MTFAdjustment+30) > 1e-9 {
		t.Fatalf("adjustment = %v", adj.MTFAdjustment)
	}
	if adj.Base != base || adj.Level == models.ConfidenceHigh {
		t.Fatalf("level should follow the adjusted total: %+v", adj)
	}
	if Adjusted(s, 150).Total != 100 {
		t.Fatalf("adjusted total must clamp to 100")
	}
}

func TestLevel(t *testing.T) {
	if Level(75) != models.ConfidenceHigh || Level(74.9) != models.ConfidenceMedium ||
		Level(60) != models.ConfidenceMedium || Level(59.9) != models.ConfidenceLow {
		t.Fatalf("level boundaries wrong")
	}
}
