package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"FinSignal/internal/domain/models"
	"FinSignal/internal/repository"
	"FinSignal/internal/usecase"
	"FinSignal/pkg/cache"
	"FinSignal/pkg/config"
	xlogger "FinSignal/pkg/logger"
)

type enqueued struct {
	msgType string
	payload any
}

type fakeQueue struct{ got []enqueued }

func (q *fakeQueue) Enqueue(_ context.Context, msgType string, payload any) (string, error) {
	q.got = append(q.got, enqueued{msgType, payload})
	return "job-1", nil
}

func newTestServer(t *testing.T, q ScanEnqueuer, health map[string]HealthChecker) (*echo.Echo, *repository.CachedSignals) {
	t.Helper()
	cfg := config.MustAnalysisConfig(config.AssetStock, config.TimeframeDaily)
	engine := usecase.NewEngine(cfg)
	mc := cache.NewMemoryCache(cache.WithMemoryCleanup(0))
	t.Cleanup(func() { _ = mc.Close() })
	signals := repository.NewCachedSignals(mc)
	h := NewSignalsEchoHandler(xlogger.Nop(), engine, nil, signals, nil, q, health)
	e := echo.New()
	h.RegisterRoutes(e)
	return e, signals
}

func do(e *echo.Echo, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAnalyzeValidates(t *testing.T) {
	e, _ := newTestServer(t, nil, nil)
	rec := do(e, http.MethodPost, "/api/analyze", map[string]any{"symbol": "AAPL"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
	}
}

func TestAnalyzeExplainsRejection(t *testing.T) {
	e, _ := newTestServer(t, nil, nil)
	candles := make([]models.Candle, 5)
	for i := range candles {
		candles[i] = models.Candle{Open: 100, High: 101, Low: 99, Close: 100}
	}
	rec := do(e, http.MethodPost, "/api/analyze", map[string]any{"symbol": "AAPL", "candles": candles, "explain": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
	}
	var resp struct {
		Data models.AnalyzeResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.Signal != nil || resp.Data.Rejection == nil || resp.Data.Rejection.Reason != models.RejectInsufficientData {
		t.Fatalf("unexpected response %s", rec.Body)
	}
}

func TestLatestSignal(t *testing.T) {
	e, signals := newTestServer(t, nil, nil)
	if rec := do(e, http.MethodGet, "/api/signals/AAPL", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	exp := time.Now().Add(time.Hour)
	_ = signals.Put(context.Background(), &models.Signal{ID: "s1", Symbol: "AAPL", ExpiresAt: &exp})
	rec := do(e, http.MethodGet, "/api/signals/AAPL", nil)
	if rec.Code != http.StatusOK || !bytes.Contains(rec.Body.Bytes(), []byte(`"s1"`)) {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
	}
}

func TestHistoryWithoutStore(t *testing.T) {
	e, _ := newTestServer(t, nil, nil)
	if rec := do(e, http.MethodGet, "/api/signals/AAPL/history", nil); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestScanAsyncEnqueues(t *testing.T) {
	q := &fakeQueue{}
	e, _ := newTestServer(t, q, nil)
	rec := do(e, http.MethodPost, "/api/scan", map[string]any{"symbols": []string{"aapl", "AAPL", "msft"}, "async": true})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
	}
	if len(q.got) != 1 || q.got[0].msgType != usecase.ScanJobType {
		t.Fatalf("enqueued = %+v", q.got)
	}
	p := q.got[0].payload.(usecase.ScanJobPayload)
	if len(p.Symbols) != 2 {
		t.Fatalf("symbols not normalized: %v", p.Symbols)
	}
}

func TestScanAsyncWithoutQueue(t *testing.T) {
	e, _ := newTestServer(t, nil, nil)
	rec := do(e, http.MethodPost, "/api/scan", map[string]any{"symbols": []string{"AAPL"}, "async": true})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestConfigAndHealth(t *testing.T) {
	e, _ := newTestServer(t, nil, map[string]HealthChecker{
		"clickhouse": func(context.Context) error { return nil },
		"redis":      func(context.Context) error { return errors.New("refused") },
	})
	if rec := do(e, http.MethodGet, "/api/config", nil); rec.Code != http.StatusOK || !bytes.Contains(rec.Body.Bytes(), []byte("min_score")) {
		t.Fatalf("config status = %d body=%s", rec.Code, rec.Body)
	}
	rec := do(e, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusServiceUnavailable || !bytes.Contains(rec.Body.Bytes(), []byte("refused")) {
		t.Fatalf("health status = %d body=%s", rec.Code, rec.Body)
	}
}
