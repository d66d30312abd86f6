package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"FinSignal/internal/domain/models"
	drepo "FinSignal/internal/domain/repository"
	"FinSignal/internal/service/ratelimit"
	"FinSignal/pkg/config"
)

type memCandles struct {
	series map[drepo.Timeframe][]models.Candle
	fail   map[string]bool
}

func (m memCandles) GetCandles(context.Context, string, time.Time, time.Time, drepo.Timeframe) ([]models.Candle, error) {
	return nil, errors.New("not used")
}

func (m memCandles) GetLatestNCandles(_ context.Context, symbol string, n int, tf drepo.Timeframe) ([]models.Candle, error) {
	if m.fail[symbol] {
		return nil, fmt.Errorf("no data for %s", symbol)
	}
	cs := m.series[tf]
	if len(cs) > n {
		cs = cs[len(cs)-n:]
	}
	return cs, nil
}

type recMetrics struct {
	mu         sync.Mutex
	signals    int
	rejections map[string]int
	errors     map[string]int
	dispatched map[string]int
}

func newRecMetrics() *recMetrics {
	return &recMetrics{rejections: map[string]int{}, errors: map[string]int{}, dispatched: map[string]int{}}
}

func (m *recMetrics) RecordSignal(string, string, float64) { m.mu.Lock(); m.signals++; m.mu.Unlock() }
func (m *recMetrics) RecordRejection(r string)              { m.mu.Lock(); m.rejections[r]++; m.mu.Unlock() }
func (m *recMetrics) RecordDispatch(b string)               { m.mu.Lock(); m.dispatched[b]++; m.mu.Unlock() }
func (m *recMetrics) RecordError(k string)                  { m.mu.Lock(); m.errors[k]++; m.mu.Unlock() }
func (m *recMetrics) RecordLatency(string, float64)         {}

type memSignals struct {
	mu     sync.Mutex
	latest map[string]*models.Signal
	locked map[string]bool
}

func newMemSignals() *memSignals {
	return &memSignals{latest: map[string]*models.Signal{}, locked: map[string]bool{}}
}

func (m *memSignals) Latest(_ context.Context, symbol string) (*models.Signal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.latest[symbol]
	if !ok {
		return nil, errors.New("none")
	}
	return s, nil
}

func (m *memSignals) Put(_ context.Context, s *models.Signal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latest[s.Symbol] = s
	return nil
}

func (m *memSignals) TryLock(_ context.Context, symbol string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locked[symbol] {
		return false, nil
	}
	m.locked[symbol] = true
	return true, nil
}

func (m *memSignals) Unlock(_ context.Context, symbol string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locked, symbol)
	return nil
}

type recDispatch struct {
	mu  sync.Mutex
	got []*models.Signal
	err error
}

func (d *recDispatch) Dispatch(_ context.Context, s *models.Signal) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.got = append(d.got, s)
	return d.err
}

type recHub struct {
	mu  sync.Mutex
	got []string
}

func (h *recHub) Broadcast(s *models.Signal) { h.mu.Lock(); h.got = append(h.got, s.Symbol); h.mu.Unlock() }

type scanFixture struct {
	scanner  *Scanner
	cache    *memSignals
	dispatch *recDispatch
	hub      *recHub
	metrics  *recMetrics
}

func newScanFixture(engine *Engine, candles memCandles) *scanFixture {
	f := &scanFixture{cache: newMemSignals(), dispatch: &recDispatch{}, hub: &recHub{}, metrics: newRecMetrics()}
	f.scanner = NewScanner(ScannerConfig{
		Timeframe: drepo.TF1d, Higher: drepo.TF1w, Lookback: 120, HigherLookback: 60, Workers: 3, LockTTL: time.Minute,
	}, engine, candles, f.cache, f.cache, f.dispatch, f.hub, f.metrics, nil)
	return f
}

func dailySeries() memCandles {
	return memCandles{series: map[drepo.Timeframe][]models.Candle{drepo.TF1d: bars(150)}}
}

func TestScanSymbolDeliversSignal(t *testing.T) {
	f := newScanFixture(fakeEngine(stockDaily(), 80), dailySeries())

	out, err := f.scanner.ScanSymbol(context.Background(), "AAPL")
	if err != nil || out.Signal == nil {
		t.Fatalf("ScanSymbol = %+v, %v", out, err)
	}
	if _, err := f.cache.Latest(context.Background(), "AAPL"); err != nil {
		t.Fatalf("signal not cached")
	}
	if len(f.dispatch.got) != 1 || len(f.hub.got) != 1 || f.metrics.signals != 1 {
		t.Fatalf("dispatch=%d hub=%d metrics=%d", len(f.dispatch.got), len(f.hub.got), f.metrics.signals)
	}
	if f.cache.locked["AAPL"] {
		t.Fatalf("lock not released")
	}
}

func TestScanSymbolRejectionIsNotDelivered(t *testing.T) {
	f := newScanFixture(fakeEngine(stockDaily(), 10), dailySeries())

	out, err := f.scanner.ScanSymbol(context.Background(), "AAPL")
	if err != nil || out.Rejection == nil {
		t.Fatalf("expected rejection, got %+v, %v", out, err)
	}
	if len(f.dispatch.got) != 0 || len(f.hub.got) != 0 {
		t.Fatalf("rejected analysis was delivered")
	}
	if f.metrics.rejections[string(models.RejectBelowMinScore)] != 1 {
		t.Fatalf("rejection not counted: %v", f.metrics.rejections)
	}
}

func TestScanSymbolHonoursLock(t *testing.T) {
	f := newScanFixture(fakeEngine(stockDaily(), 80), dailySeries())
	_, _ = f.cache.TryLock(context.Background(), "AAPL", time.Minute)

	if _, err := f.scanner.ScanSymbol(context.Background(), "AAPL"); !errors.Is(err, ErrScanInProgress) {
		t.Fatalf("expected ErrScanInProgress, got %v", err)
	}
}

func TestScanSymbolDispatchFailureKeepsSignal(t *testing.T) {
	f := newScanFixture(fakeEngine(stockDaily(), 80), dailySeries())
	f.dispatch.err = errors.New("kafka down")

	out, err := f.scanner.ScanSymbol(context.Background(), "AAPL")
	if err != nil || out.Signal == nil {
		t.Fatalf("dispatch failure should not fail the scan: %v", err)
	}
	if len(f.hub.got) != 1 {
		t.Fatalf("subscribers should still see the signal")
	}
}

func TestScanCollectsPerSymbolResults(t *testing.T) {
	candles := dailySeries()
	candles.fail = map[string]bool{"BAD": true}
	f := newScanFixture(fakeEngine(stockDaily(), 80), candles)

	report := f.scanner.Scan(context.Background(), []string{"AAPL", "MSFT", "BAD", "NVDA"}, 0)
	if report.Emitted() != 3 {
		t.Fatalf("emitted = %d", report.Emitted())
	}
	if _, ok := report.Errors["BAD"]; !ok || len(report.Errors) != 1 {
		t.Fatalf("errors = %v", report.Errors)
	}
	if f.metrics.errors["scan_candles"] != 1 {
		t.Fatalf("candle error not counted")
	}
}

func TestScanMissingHigherTimeframeStillAnalyses(t *testing.T) {
	f := newScanFixture(fakeEngine(stockDaily(), 80), dailySeries())

	out, err := f.scanner.ScanSymbol(context.Background(), "AAPL")
	if err != nil || out.Signal == nil {
		t.Fatalf("empty higher series should be skipped: %+v, %v", out, err)
	}
}

type stubScanner struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (s *stubScanner) ScanSymbol(_ context.Context, symbol string) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, symbol)
	return Outcome{}, s.err
}

func (s *stubScanner) Timeframe() drepo.Timeframe { return drepo.TF15m }

func trigger(t *testing.T, m BarClosed) []byte {
	t.Helper()
	b, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func TestScanTriggerHandler(t *testing.T) {
	sc := &stubScanner{}
	h := NewScanTriggerHandler("bars", sc, ratelimit.New(1, time.Hour), newRecMetrics(), nil)
	ctx := context.Background()

	if err := h.Handle(ctx, trigger(t, BarClosed{Symbol: "AAPL", Timeframe: "15m", ClosedAt: time.Now()})); err != nil {
		t.Fatalf("handle: %v", err)
	}
	// throttled by the bucket
	_ = h.Handle(ctx, trigger(t, BarClosed{Symbol: "AAPL", Timeframe: "15m"}))
	// other timeframe
	_ = h.Handle(ctx, trigger(t, BarClosed{Symbol: "MSFT", Timeframe: "1h"}))
	// malformed
	if err := h.Handle(ctx, []byte("{")); err != nil {
		t.Fatalf("malformed message should be dropped, got %v", err)
	}

	if len(sc.calls) != 1 || sc.calls[0] != "AAPL" {
		t.Fatalf("calls = %v", sc.calls)
	}
}

func TestScanTriggerHandlerRetriesFailures(t *testing.T) {
	sc := &stubScanner{err: errors.New("clickhouse down")}
	h := NewScanTriggerHandler("bars", sc, nil, newRecMetrics(), nil)
	if err := h.Handle(context.Background(), trigger(t, BarClosed{Symbol: "AAPL"})); err == nil {
		t.Fatalf("expected error for retry")
	}
	sc.err = ErrScanInProgress
	if err := h.Handle(context.Background(), trigger(t, BarClosed{Symbol: "AAPL"})); err != nil {
		t.Fatalf("locked symbol should not be retried: %v", err)
	}
}

func TestScanJob(t *testing.T) {
	f := newScanFixture(fakeEngine(stockDaily(), 80), dailySeries())
	job := NewScanJob(f.scanner)

	if err := job.Handle(context.Background(), json.RawMessage(`{"symbols":["AAPL","MSFT"]}`)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(f.dispatch.got) != 2 {
		t.Fatalf("dispatched %d", len(f.dispatch.got))
	}

	bad := memCandles{fail: map[string]bool{"X": true}}
	g := newScanFixture(fakeEngine(stockDaily(), 80), bad)
	if err := NewScanJob(g.scanner).Handle(context.Background(), json.RawMessage(`{"symbols":["X"]}`)); err == nil {
		t.Fatalf("all-failed batch should error")
	}
}

type fakePublisher struct {
	n   int
	err error
}

func (p *fakePublisher) Publish(context.Context, *models.Signal) error { p.n++; return p.err }
func (p *fakePublisher) PublishBatch(_ context.Context, s []*models.Signal) error {
	p.n += len(s)
	return p.err
}
func (p *fakePublisher) Close() error { return nil }

type fakeStore struct{ n int }

func (s *fakeStore) Init(context.Context) error                          { return nil }
func (s *fakeStore) Store(context.Context, *models.Signal) error         { s.n++; return nil }
func (s *fakeStore) StoreBatch(_ context.Context, x []*models.Signal) error { s.n += len(x); return nil }
func (s *fakeStore) Query(context.Context, string, time.Time, time.Time, int) ([]*models.Signal, error) {
	return nil, nil
}
func (s *fakeStore) Health(context.Context) error { return nil }
func (s *fakeStore) Close() error                 { return nil }

func TestSignalDispatcher(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	store := &fakeStore{}
	m := newRecMetrics()
	d, err := NewSignalDispatcher(pub, store, m, []string{config.BackendKafka, config.BackendClickHouse})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if err := d.Dispatch(context.Background(), &models.Signal{ID: "1", Symbol: "AAPL"}); err == nil {
		t.Fatalf("kafka failure should surface")
	}
	if store.n != 1 || m.dispatched[config.BackendClickHouse] != 1 || m.dispatched[config.BackendKafka] != 0 {
		t.Fatalf("clickhouse should still be written: store=%d metrics=%v", store.n, m.dispatched)
	}

	if _, err := NewSignalDispatcher(nil, store, m, []string{config.BackendKafka}); err == nil {
		t.Fatalf("kafka backend without publisher should fail")
	}
	if _, err := NewSignalDispatcher(nil, nil, m, []string{"s3"}); err == nil {
		t.Fatalf("unknown backend should fail")
	}
}
