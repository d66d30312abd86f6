package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	"FinSignal/pkg/logger"
)

// Downstream is the delivery step the buffer protects.
type Downstream interface {
	Dispatch(ctx context.Context, s *models.Signal) error
}

// DispatchBuffer sits between the scanner and the backends. It validates
// signals, drops duplicates, and holds signals whose delivery failed so they
// are retried in the background until they expire.
type DispatchBuffer struct {
	next    Downstream
	metrics domrepo.Metrics
	log     *logger.Logger
	bufSize int
	bufCh   chan *models.Signal
	stopCh  chan struct{}
	started bool
	mu      sync.Mutex
	lastID  map[string]string // per-symbol last accepted signal ID
	now     func() time.Time
	wg      sync.WaitGroup
}

type BufferOption func(*DispatchBuffer)

// WithBufferSize sets how many failed signals are held for retry.
func WithBufferSize(n int) BufferOption {
	return func(b *DispatchBuffer) {
		if n > 0 {
			b.bufSize = n
		}
	}
}

func WithBufferLogger(l *logger.Logger) BufferOption {
	return func(b *DispatchBuffer) {
		if l != nil {
			b.log = l
		}
	}
}

// NewDispatchBuffer creates a buffer in front of next.
func NewDispatchBuffer(next Downstream, metrics domrepo.Metrics, opts ...BufferOption) *DispatchBuffer {
	b := &DispatchBuffer{
		next:    next,
		metrics: metrics,
		log:     logger.Nop(),
		bufSize: 256,
		stopCh:  make(chan struct{}),
		lastID:  make(map[string]string),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.bufCh = make(chan *models.Signal, b.bufSize)
	return b
}

// Start launches background redelivery of buffered signals.
func (b *DispatchBuffer) Start(ctx context.Context) {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return
	}
	b.started = true
	b.mu.Unlock()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-b.stopCh:
				return
			case <-ctx.Done():
				return
			case s := <-b.bufCh:
				if s.Expired(b.now()) {
					b.metrics.RecordError("dispatch_buffer_expired")
					continue
				}
				if err := b.next.Dispatch(ctx, s); err != nil {
					if backoff < 2*time.Second {
						backoff *= 2
					}
					b.metrics.RecordError("dispatch_buffer_flush")
					select {
					case <-time.After(backoff):
					case <-b.stopCh:
						return
					}
					b.hold(s)
					continue
				}
				backoff = 50 * time.Millisecond
			}
		}
	}()
}

// Stop stops background redelivery. Buffered signals are dropped.
func (b *DispatchBuffer) Stop() {
	b.mu.Lock()
	if !b.started {
		b.mu.Unlock()
		return
	}
	b.started = false
	b.mu.Unlock()
	close(b.stopCh)
	b.wg.Wait()
	if n := len(b.bufCh); n > 0 {
		b.log.Warn("dispatch buffer dropped pending signals", logger.Int("pending", n))
	}
}

// Dispatch validates and forwards s, buffering it when delivery fails.
func (b *DispatchBuffer) Dispatch(ctx context.Context, s *models.Signal) error {
	start := b.now()
	if err := validateSignal(s, start); err != nil {
		b.metrics.RecordError("dispatch_validate")
		return err
	}
	if b.duplicate(s) {
		b.metrics.RecordError("dispatch_duplicate")
		return nil
	}

	if err := b.next.Dispatch(ctx, s); err != nil {
		b.hold(s)
		return fmt.Errorf("dispatch downstream: %w", err)
	}
	b.metrics.RecordLatency("dispatch", time.Since(start).Seconds())
	return nil
}

// Pending returns the number of signals waiting for redelivery.
func (b *DispatchBuffer) Pending() int { return len(b.bufCh) }

func (b *DispatchBuffer) hold(s *models.Signal) {
	select {
	case b.bufCh <- s:
	default:
		b.metrics.RecordError("dispatch_buffer_full")
		b.log.Warn("dispatch buffer full, signal dropped", logger.String("symbol", s.Symbol), logger.String("id", s.ID))
	}
}

func (b *DispatchBuffer) duplicate(s *models.Signal) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.lastID[s.Symbol] == s.ID {
		return true
	}
	b.lastID[s.Symbol] = s.ID
	return false
}

func validateSignal(s *models.Signal, now time.Time) error {
	if s == nil {
		return fmt.Errorf("signal nil")
	}
	if s.Symbol == "" || s.ID == "" {
		return fmt.Errorf("signal without symbol or id")
	}
	if s.Entry <= 0 || s.StopLoss <= 0 || s.Target <= 0 {
		return fmt.Errorf("signal %s: non-positive price", s.ID)
	}
	prices := models.TradeSetup{Direction: s.Direction, Entry: s.Entry, StopLoss: s.StopLoss, Target: s.Target}
	if !prices.Ordered() {
		return fmt.Errorf("signal %s: %s stop %.4f entry %.4f target %.4f out of order",
			s.ID, s.Direction, s.StopLoss, s.Entry, s.Target)
	}
	if s.Expired(now) {
		return fmt.Errorf("signal %s: expired", s.ID)
	}
	return nil
}
