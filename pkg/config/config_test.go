package config

import (
	"testing"
	"time"
)

func TestParseAppliesDefaults(t *testing.T) {
	c, err := Parse([]byte("environment: test\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Server.Port != 8080 {
		t.Fatalf("port = %d", c.Server.Port)
	}
	if c.Scanner.Interval != 5*time.Minute || c.Scanner.Workers != 4 {
		t.Fatalf("scanner defaults not applied: %+v", c.Scanner)
	}
	if c.Analysis.AssetType != AssetStock || c.Analysis.Timeframe != TimeframeDaily {
		t.Fatalf("analysis defaults not applied")
	}
}

func TestParseKeepsExplicitFalse(t *testing.T) {
	c, err := Parse([]byte("environment: test\nscanner:\n  enabled: false\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Scanner.Enabled {
		t.Fatalf("explicit false overwritten by default")
	}
}

func TestParseAnalysisOverrides(t *testing.T) {
	y := `
environment: test
analysis:
  asset_type: crypto
  timeframe: intraday
  overrides:
    min_score: 45
    max_width: 35
`
	c, err := Parse([]byte(y))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ac, err := c.AnalysisConfig()
	if err != nil {
		t.Fatalf("analysis config: %v", err)
	}
	if ac.MinScore != 45 || ac.Channel.MaxWidth != 35 || ac.AssetType != AssetCrypto {
		t.Fatalf("unexpected analysis config %+v", ac)
	}
}

func TestValidateRejectsBadOverrides(t *testing.T) {
	y := `
environment: test
analysis:
  overrides:
    weights: {trend: 0.5, pattern: 0.5, volume: 0.5, risk_reward: 0, momentum: 0}
`
	if _, err := Parse([]byte(y)); err == nil {
		t.Fatalf("expected error for weights summing to 1.5")
	}
}

func TestValidateKafkaBackendNeedsBrokers(t *testing.T) {
	y := "environment: test\nbackend:\n  types: [kafka]\n"
	if _, err := Parse([]byte(y)); err == nil {
		t.Fatalf("expected error without brokers")
	}
	y = "environment: test\nbackend:\n  types: [kafka]\nkafka:\n  brokers: [localhost:9092]\n"
	c, err := Parse([]byte(y))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.HasBackend(BackendKafka) || c.HasBackend(BackendClickHouse) {
		t.Fatalf("unexpected backends %v", c.Backend.Types)
	}
}

func TestValidateHTTPSourceNeedsURL(t *testing.T) {
	y := "environment: test\nmarket_data:\n  source: http\n"
	if _, err := Parse([]byte(y)); err == nil {
		t.Fatalf("expected error without url")
	}
}

func TestValidateQueueNeedsRedis(t *testing.T) {
	if _, err := Parse([]byte("environment: test\nredis:\n  queue:\n    enabled: true\n")); err == nil {
		t.Fatalf("queue without redis should fail validation")
	}
	c, err := Parse([]byte("environment: test\nredis:\n  enabled: true\n  queue:\n    enabled: true\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Redis.Queue.Workers != 2 || c.Redis.L1TTL != 5*time.Second {
		t.Fatalf("redis defaults not applied: %+v", c.Redis)
	}
}

func TestLoadSampleConfig(t *testing.T) {
	c, err := Load("../../config/config.yaml")
	if err != nil {
		t.Fatalf("sample config: %v", err)
	}
	if !c.HasBackend(BackendClickHouse) || c.HasBackend(BackendKafka) {
		t.Fatalf("backends = %v", c.Backend.Types)
	}
	if len(c.Scanner.Symbols) == 0 || c.Scanner.Lookback != 250 {
		t.Fatalf("scanner = %+v", c.Scanner)
	}
	ac, err := c.AnalysisConfig()
	if err != nil {
		t.Fatalf("analysis config: %v", err)
	}
	if ac.MinScore != 60 {
		t.Fatalf("min score = %v", ac.MinScore)
	}
}
