package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"FinSignal/internal/domain/models"
	drepo "FinSignal/internal/domain/repository"
	"FinSignal/pkg/logger"
)

// ErrScanInProgress is returned when another scan holds the symbol's lock.
var ErrScanInProgress = errors.New("scan in progress")

// Dispatcher delivers an emitted signal downstream.
type Dispatcher interface {
	Dispatch(ctx context.Context, s *models.Signal) error
}

// Broadcaster pushes an emitted signal to live subscribers.
type Broadcaster interface {
	Broadcast(s *models.Signal)
}

// ScannerConfig controls what the scanner loads per symbol.
type ScannerConfig struct {
	Timeframe      drepo.Timeframe
	Higher         drepo.Timeframe // empty disables confirmation
	Lookback       int
	HigherLookback int
	Workers        int
	LockTTL        time.Duration
}

// Scanner loads candles, runs the engine and fans emitted signals out to
// the cache, the dispatcher and live subscribers.
type Scanner struct {
	cfg      ScannerConfig
	engine   *Engine
	candles  drepo.CandleStore
	cache    drepo.SignalCache
	locker   drepo.ScanLocker
	dispatch Dispatcher
	hub      Broadcaster
	metrics  drepo.Metrics
	log      *logger.Logger
}

// NewScanner wires a scanner. cache, locker, dispatch and hub are optional.
func NewScanner(
	cfg ScannerConfig,
	engine *Engine,
	candles drepo.CandleStore,
	cache drepo.SignalCache,
	locker drepo.ScanLocker,
	dispatch Dispatcher,
	hub Broadcaster,
	metrics drepo.Metrics,
	l *logger.Logger,
) *Scanner {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if l == nil {
		l = logger.Nop()
	}
	return &Scanner{
		cfg:      cfg,
		engine:   engine,
		candles:  candles,
		cache:    cache,
		locker:   locker,
		dispatch: dispatch,
		hub:      hub,
		metrics:  metrics,
		log:      l,
	}
}

// Timeframe returns the trading timeframe the scanner analyses.
func (s *Scanner) Timeframe() drepo.Timeframe { return s.cfg.Timeframe }

// ScanSymbol analyses one symbol. Delivery failures are logged and counted
// but do not fail the scan; the outcome is returned either way.
func (s *Scanner) ScanSymbol(ctx context.Context, symbol string) (Outcome, error) {
	start := time.Now()
	if s.locker != nil {
		ok, err := s.locker.TryLock(ctx, symbol, s.cfg.LockTTL)
		if err != nil {
			s.metrics.RecordError("scan_lock")
			return Outcome{}, fmt.Errorf("lock %s: %w", symbol, err)
		}
		if !ok {
			return Outcome{}, ErrScanInProgress
		}
		defer func() {
			if err := s.locker.Unlock(context.WithoutCancel(ctx), symbol); err != nil {
				s.log.Warn("scan unlock failed", logger.String("symbol", symbol), logger.Error(err))
			}
		}()
	}

	candles, err := s.candles.GetLatestNCandles(ctx, symbol, s.cfg.Lookback, s.cfg.Timeframe)
	if err != nil {
		s.metrics.RecordError("scan_candles")
		return Outcome{}, fmt.Errorf("load candles %s: %w", symbol, err)
	}
	higher := s.loadHigher(ctx, symbol)

	out := s.engine.Evaluate(symbol, candles, 0, higher)
	s.metrics.RecordLatency("scan_symbol", time.Since(start).Seconds())

	if out.Rejection != nil {
		s.metrics.RecordRejection(string(out.Rejection.Reason))
		return out, nil
	}
	sig := out.Signal
	s.metrics.RecordSignal(string(sig.Direction), string(sig.Metadata.Tier), sig.Score)
	s.log.Info("signal emitted",
		logger.String("symbol", symbol),
		logger.String("direction", string(sig.Direction)),
		logger.Float64("score", sig.Score),
		logger.Float64("entry", sig.Entry),
		logger.Float64("stop_loss", sig.StopLoss),
		logger.Float64("target", sig.Target),
	)
	s.deliver(ctx, sig)
	return out, nil
}

func (s *Scanner) loadHigher(ctx context.Context, symbol string) []models.Candle {
	if s.cfg.Higher == "" {
		return nil
	}
	higher, err := s.candles.GetLatestNCandles(ctx, symbol, s.cfg.HigherLookback, s.cfg.Higher)
	if err != nil {
		// confirmation is optional; analyse without it
		s.metrics.RecordError("scan_higher_candles")
		s.log.Warn("higher timeframe unavailable",
			logger.String("symbol", symbol),
			logger.String("tf", string(s.cfg.Higher)),
			logger.Error(err),
		)
		return nil
	}
	return higher
}

func (s *Scanner) deliver(ctx context.Context, sig *models.Signal) {
	if s.cache != nil {
		if err := s.cache.Put(ctx, sig); err != nil {
			s.metrics.RecordError("signal_cache")
			s.log.Warn("signal cache put failed", logger.String("symbol", sig.Symbol), logger.Error(err))
		}
	}
	if s.dispatch != nil {
		if err := s.dispatch.Dispatch(ctx, sig); err != nil {
			s.log.Error("signal dispatch failed", logger.String("symbol", sig.Symbol), logger.Error(err))
		}
	}
	if s.hub != nil {
		s.hub.Broadcast(sig)
	}
}

// Scan analyses symbols with a bounded worker pool. workers <= 0 uses the
// configured pool size. Per-symbol failures land in the report.
func (s *Scanner) Scan(ctx context.Context, symbols []string, workers int) *models.ScanReport {
	if workers <= 0 {
		workers = s.cfg.Workers
	}
	workers = min(workers, max(len(symbols), 1))

	report := &models.ScanReport{
		StartedAt:  time.Now(),
		Rejections: make(map[string]*models.Rejection),
		Errors:     make(map[string]string),
	}
	var mu sync.Mutex
	jobs := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sym := range jobs {
				out, err := s.ScanSymbol(ctx, sym)
				mu.Lock()
				switch {
				case err != nil:
					report.Errors[sym] = err.Error()
				case out.Signal != nil:
					report.Signals = append(report.Signals, out.Signal)
				case out.Rejection != nil:
					report.Rejections[sym] = out.Rejection
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for _, sym := range symbols {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- sym:
		}
	}
	close(jobs)
	wg.Wait()

	report.Duration = time.Since(report.StartedAt)
	s.log.Info("scan finished",
		logger.Int("symbols", len(symbols)),
		logger.Int("signals", report.Emitted()),
		logger.Int("rejections", len(report.Rejections)),
		logger.Int("errors", len(report.Errors)),
		logger.Duration("duration", report.Duration),
	)
	return report
}
