package regime

import (
	"testing"

	"FinSignal/internal/domain/models"
)

func trend(n int, step float64) []models.Candle {
	out := make([]models.Candle, n)
	c := 100.0
	for i := range out {
		o := c
		c *= 1 + step
		out[i] = models.Candle{Open: o, High: max(o, c) * 1.005, Low: min(o, c) * 0.995, Close: c, Volume: 1000}
	}
	return out
}

func TestUptrendIsTrendingBullish(t *testing.T) {
	r := NewClassifier(252).Classify(trend(120, 0.005), nil)
	if r.Type != models.RegimeTrendingBullish || r.Direction != models.BiasBullish {
		t.Fatalf("got %s/%s", r.Type, r.Direction)
	}
	if r.TrendStrengthClass != models.TrendStrong {
		t.Fatalf("strength class = %s (adx %v)", r.TrendStrengthClass, r.ADX)
	}
	if r.Strength <= 0 || r.Strength > 1 {
		t.Fatalf("strength = %v", r.Strength)
	}
	if r.MarketPhase != models.PhaseMarkup {
		t.Fatalf("phase = %s", r.MarketPhase)
	}
}

func TestDowntrendIsTrendingBearish(t *testing.T) {
	r := NewClassifier(252).Classify(trend(120, -0.005), nil)
	if r.Type != models.RegimeTrendingBearish || r.Direction != models.BiasBearish {
		t.Fatalf("got %s/%s", r.Type, r.Direction)
	}
	if r.MarketPhase != models.PhaseMarkdown {
		t.Fatalf("phase = %s", r.MarketPhase)
	}
}

func flat(n int) []models.Candle {
	out := make([]models.Candle, n)
	for i := range out {
		out[i] = models.Candle{Open: 100, High: 100.5, Low: 99.5, Close: 100, Volume: 1000}
	}
	return out
}

func TestFlatIsRanging(t *testing.T) {
	r := NewClassifier(252).Classify(flat(80), nil)
	if r.Type != models.RegimeRanging || r.Direction != models.BiasNeutral {
		t.Fatalf("got %s/%s", r.Type, r.Direction)
	}
	if r.TrendStrengthClass != models.TrendWeak {
		t.Fatalf("strength class = %s", r.TrendStrengthClass)
	}
	if r.VolatilityRegime != models.VolatilityMedium {
		t.Fatalf("volatility = %s (ratio %v)", r.VolatilityRegime, r.VolatilityRatio)
	}
}

func TestRangeExpansionIsVolatile(t *testing.T) {
	c := flat(60)
	for i := 0; i < 5; i++ {
		c = append(c, models.Candle{Open: 100, High: 104, Low: 96, Close: 100, Volume: 1000})
	}
	r := NewClassifier(252).Classify(c, nil)
	if r.VolatilityRegime != models.VolatilityExtreme {
		t.Fatalf("volatility = %s (ratio %v)", r.VolatilityRegime, r.VolatilityRatio)
	}
	if r.Type != models.RegimeVolatile {
		t.Fatalf("type = %s", r.Type)
	}
}

func TestClassifyIsPure(t *testing.T) {
	c := trend(90, 0.003)
	a := NewClassifier(252).Classify(c, nil)
	b := NewClassifier(252).Classify(c, nil)
	if a != b {
		t.Fatalf("classification not deterministic: %+v vs %+v", a, b)
	}
}

func TestEmptyInput(t *testing.T) {
	if r := NewClassifier(252).Classify(nil, nil); r.Type != models.RegimeRanging {
		t.Fatalf("type = %s", r.Type)
	}
}
