package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func capture(t *testing.T, fn func(l *Logger)) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	fn(&Logger{zl: zerolog.New(&buf)})
	var out map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	return out
}

func TestFieldsAreTyped(t *testing.T) {
	out := capture(t, func(l *Logger) {
		l.Info("scan completed",
			String("symbol", "AAPL"),
			Int("emitted", 2),
			Float64("score", 71.5),
			Bool("cached", true),
			Strings("backends", []string{"kafka", "clickhouse"}),
			Duration("took", 1500*time.Millisecond),
			Error(errors.New("boom")),
		)
	})
	if out["symbol"] != "AAPL" || out["emitted"] != float64(2) || out["score"] != 71.5 || out["cached"] != true {
		t.Fatalf("unexpected scalars: %v", out)
	}
	if bs, ok := out["backends"].([]any); !ok || len(bs) != 2 {
		t.Fatalf("backends = %v", out["backends"])
	}
	if out["took"] != float64(1500) || out["error"] != "boom" {
		t.Fatalf("unexpected took/error: %v", out)
	}
}

func TestNilErrorAddsNothing(t *testing.T) {
	out := capture(t, func(l *Logger) { l.Warn("ok", Error(nil)) })
	if _, ok := out["error"]; ok {
		t.Fatalf("nil error logged: %v", out)
	}
}

func TestWithCarriesFields(t *testing.T) {
	out := capture(t, func(l *Logger) { l.With(String("component", "scanner")).Debug("tick") })
	if out["component"] != "scanner" || out["message"] != "tick" {
		t.Fatalf("unexpected event: %v", out)
	}
}
