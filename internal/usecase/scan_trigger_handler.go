package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	drepo "FinSignal/internal/domain/repository"
	"FinSignal/internal/service/ratelimit"
	pkgkafka "FinSignal/pkg/kafka"
	"FinSignal/pkg/logger"
)

// BarClosed is the trigger message: a bar of symbol closed on timeframe.
type BarClosed struct {
	Symbol    string    `json:"symbol"`
	Timeframe string    `json:"timeframe"`
	ClosedAt  time.Time `json:"closed_at"`
}

// SymbolScanner is the part of Scanner the trigger handler needs.
type SymbolScanner interface {
	ScanSymbol(ctx context.Context, symbol string) (Outcome, error)
	Timeframe() drepo.Timeframe
}

// ScanTriggerHandler scans a symbol whenever one of its bars closes.
// Bursts per symbol are cut by a token bucket.
type ScanTriggerHandler struct {
	topic   string
	scanner SymbolScanner
	limiter *ratelimit.Limiter
	metrics drepo.Metrics
	log     *logger.Logger
}

var _ pkgkafka.MessageHandler = (*ScanTriggerHandler)(nil)

func NewScanTriggerHandler(topic string, scanner SymbolScanner, limiter *ratelimit.Limiter, metrics drepo.Metrics, l *logger.Logger) *ScanTriggerHandler {
	if l == nil {
		l = logger.Nop()
	}
	return &ScanTriggerHandler{topic: topic, scanner: scanner, limiter: limiter, metrics: metrics, log: l}
}

func (h *ScanTriggerHandler) Topic() string { return h.topic }

// Handle returns an error only for failures worth retrying. Malformed
// messages, other timeframes, throttled and locked symbols are dropped.
func (h *ScanTriggerHandler) Handle(ctx context.Context, b []byte) error {
	var m BarClosed
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("trigger_unmarshal")
		h.log.Warn("bad trigger message", logger.Error(err))
		return nil
	}
	if m.Symbol == "" {
		h.metrics.RecordError("trigger_symbol")
		return nil
	}
	if m.Timeframe != "" && drepo.Timeframe(m.Timeframe) != h.scanner.Timeframe() {
		return nil
	}
	if !m.ClosedAt.IsZero() {
		h.metrics.RecordLatency("trigger_lag", time.Since(m.ClosedAt).Seconds())
	}
	if h.limiter != nil && !h.limiter.Allow(m.Symbol) {
		h.log.Debug("trigger throttled", logger.String("symbol", m.Symbol))
		h.metrics.RecordError("trigger_throttled")
		return nil
	}

	_, err := h.scanner.ScanSymbol(ctx, m.Symbol)
	if errors.Is(err, ErrScanInProgress) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("triggered scan %s: %w", m.Symbol, err)
	}
	return nil
}
