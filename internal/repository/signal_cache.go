package repository

import (
	"context"
	"errors"
	"time"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	"FinSignal/pkg/cache"
)

// ErrNoSignal is returned when no live signal is cached for a symbol.
var ErrNoSignal = errors.New("no live signal")

// unboundedTTL caps how long a signal without expiry stays cached.
const unboundedTTL = 24 * time.Hour

// CachedSignals keeps the latest signal per symbol and the per-symbol scan
// locks in a cache.Service.
type CachedSignals struct {
	c   cache.Service
	now func() time.Time
}

var (
	_ domrepo.SignalCache = (*CachedSignals)(nil)
	_ domrepo.ScanLocker  = (*CachedSignals)(nil)
)

func NewCachedSignals(c cache.Service) *CachedSignals {
	return &CachedSignals{c: c, now: time.Now}
}

func signalKey(symbol string) string { return cache.Key("signal", symbol) }

// Latest returns the live signal for symbol, or ErrNoSignal.
func (s *CachedSignals) Latest(ctx context.Context, symbol string) (*models.Signal, error) {
	var sig models.Signal
	if err := s.c.Get(ctx, signalKey(symbol), &sig); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, ErrNoSignal
		}
		return nil, err
	}
	if sig.Expired(s.now()) {
		return nil, ErrNoSignal
	}
	return &sig, nil
}

// Put stores sig until its expiry. Expired signals are dropped.
func (s *CachedSignals) Put(ctx context.Context, sig *models.Signal) error {
	ttl := unboundedTTL
	if sig.ExpiresAt != nil {
		ttl = sig.TTL(s.now())
		if ttl <= 0 {
			return nil
		}
	}
	return s.c.Set(ctx, signalKey(sig.Symbol), sig, ttl)
}

func (s *CachedSignals) TryLock(ctx context.Context, symbol string, ttl time.Duration) (bool, error) {
	return s.c.TryLock(ctx, cache.Key("scan", symbol), ttl)
}

func (s *CachedSignals) Unlock(ctx context.Context, symbol string) error {
	return s.c.Unlock(ctx, cache.Key("scan", symbol))
}
