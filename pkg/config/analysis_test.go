package config

import (
	"strings"
	"testing"
	"time"
)

func TestPresetsAreValid(t *testing.T) {
	for _, asset := range []AssetType{AssetStock, AssetCrypto} {
		for _, tf := range []AnalysisTimeframe{TimeframeDaily, TimeframeIntraday} {
			c, err := NewAnalysisConfig(asset, tf)
			if err != nil {
				t.Fatalf("%s-%s: %v", asset, tf, err)
			}
			if c.Key() != string(asset)+"-"+string(tf) {
				t.Fatalf("unexpected key %s", c.Key())
			}
		}
	}
}

func TestPresetMinCandles(t *testing.T) {
	if c := MustAnalysisConfig(AssetStock, TimeframeIntraday); c.MinCandles != 50 {
		t.Fatalf("intraday min candles = %d, want 50", c.MinCandles)
	}
	if c := MustAnalysisConfig(AssetCrypto, TimeframeDaily); c.MinCandles != 60 {
		t.Fatalf("daily min candles = %d, want 60", c.MinCandles)
	}
}

func TestPresetAssetThresholds(t *testing.T) {
	stock := MustAnalysisConfig(AssetStock, TimeframeDaily)
	crypto := MustAnalysisConfig(AssetCrypto, TimeframeDaily)
	if stock.Patterns.EngulfingBodyRatio != 0.8 || crypto.Patterns.EngulfingBodyRatio != 0.6 {
		t.Fatalf("engulfing ratios %v/%v", stock.Patterns.EngulfingBodyRatio, crypto.Patterns.EngulfingBodyRatio)
	}
	if stock.Channel.MaxWidth != 25 || crypto.Channel.MaxWidth != 40 {
		t.Fatalf("max widths %v/%v", stock.Channel.MaxWidth, crypto.Channel.MaxWidth)
	}
}

func TestUnknownPreset(t *testing.T) {
	if _, err := NewAnalysisConfig("forex", TimeframeDaily); err == nil {
		t.Fatalf("expected error for unknown asset type")
	}
	if _, err := NewAnalysisConfig(AssetStock, "weekly"); err == nil {
		t.Fatalf("expected error for unknown timeframe")
	}
}

func TestWeightsMustSumToOne(t *testing.T) {
	w := ScoringWeights{Trend: 0.3, Pattern: 0.3, Volume: 0.2, RiskReward: 0.2, Momentum: 0.2}
	_, err := NewAnalysisConfig(AssetStock, TimeframeDaily, AnalysisOverrides{Weights: &w})
	if err == nil || !strings.Contains(err.Error(), "weights") {
		t.Fatalf("expected weights error, got %v", err)
	}
}

func TestInvalidChannelWidths(t *testing.T) {
	_, err := NewAnalysisConfig(AssetStock, TimeframeDaily, AnalysisOverrides{
		ChannelMinWidth: Float64(30),
		ChannelMaxWidth: Float64(20),
	})
	if err == nil {
		t.Fatalf("expected error for min width above max width")
	}
}

func TestInvalidWindowAndTouches(t *testing.T) {
	if _, err := NewAnalysisConfig(AssetStock, TimeframeDaily, AnalysisOverrides{ChannelWindow: Int(-5)}); err == nil {
		t.Fatalf("expected error for negative window")
	}
	if _, err := NewAnalysisConfig(AssetStock, TimeframeDaily, AnalysisOverrides{ChannelMinTouches: Int(0)}); err == nil {
		t.Fatalf("expected error for zero min touches")
	}
	if _, err := NewAnalysisConfig(AssetStock, TimeframeDaily, AnalysisOverrides{MinScore: Float64(120)}); err == nil {
		t.Fatalf("expected error for min score above 100")
	}
}

func TestOverridesApplyFieldByField(t *testing.T) {
	ttl := 2 * time.Hour
	c, err := NewAnalysisConfig(AssetCrypto, TimeframeIntraday, AnalysisOverrides{
		MinScore:      Float64(30),
		MinRiskReward: Float64(2),
		SignalTTL:     &ttl,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.MinScore != 30 || c.Risk.MinRiskReward != 2 || c.SignalTTL != ttl {
		t.Fatalf("overrides not applied: %+v", c)
	}
	// untouched fields keep the preset
	if c.Risk.MaxRisk != 0.10 || c.Channel.MaxWidth != 40 {
		t.Fatalf("preset fields changed: %+v", c.Risk)
	}
}

func TestOverridesMerge(t *testing.T) {
	base := AnalysisOverrides{MinScore: Float64(50), ChannelWindow: Int(30)}
	top := AnalysisOverrides{MinScore: Float64(70)}
	m := base.Merge(top)
	if *m.MinScore != 70 || *m.ChannelWindow != 30 {
		t.Fatalf("unexpected merge result: score=%v window=%v", *m.MinScore, *m.ChannelWindow)
	}
}

func TestTierProfileLookup(t *testing.T) {
	c := MustAnalysisConfig(AssetStock, TimeframeIntraday)
	if p := c.Tiers.Profile("MOMENTUM"); p.TargetPct != 4.0 || p.HoldMinutes != 45 {
		t.Fatalf("unexpected momentum profile %+v", p)
	}
	if p := c.Tiers.Profile("unknown"); p != c.Tiers.Scalp {
		t.Fatalf("unknown tier should map to scalp")
	}
}

func TestDailyTiersScaleIntradayTargets(t *testing.T) {
	intraday := MustAnalysisConfig(AssetStock, TimeframeIntraday).Tiers
	for _, asset := range []AssetType{AssetStock, AssetCrypto} {
		daily := MustAnalysisConfig(asset, TimeframeDaily).Tiers
		want := map[string][2]float64{"SCALP": {1.5, 4}, "STANDARD": {2.5, 6}, "MOMENTUM": {4, 10}}
		for name, pcts := range want {
			if got := intraday.Profile(name).TargetPct; got != pcts[0] {
				t.Fatalf("intraday %s target %v, want %v", name, got, pcts[0])
			}
			if got := daily.Profile(name).TargetPct; got != pcts[1] {
				t.Fatalf("%s daily %s target %v, want %v", asset, name, got, pcts[1])
			}
			if daily.Profile(name).RiskReward != intraday.Profile(name).RiskReward {
				t.Fatalf("%s daily %s risk/reward differs from intraday", asset, name)
			}
		}
		session := 390
		if asset == AssetCrypto {
			session = 1440
		}
		if daily.Scalp.HoldMinutes != session || daily.Momentum.HoldMinutes != 5*session {
			t.Fatalf("%s daily holds %d/%d", asset, daily.Scalp.HoldMinutes, daily.Momentum.HoldMinutes)
		}
	}
}
