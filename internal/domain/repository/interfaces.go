package repository

import (
	"context"
	"time"

	"FinSignal/internal/domain/models"
)

// SignalPublisher pushes emitted signals to downstream consumers.
type SignalPublisher interface {
	Publish(ctx context.Context, s *models.Signal) error
	PublishBatch(ctx context.Context, signals []*models.Signal) error
	Close() error
}

// SignalStore persists signals for later review.
type SignalStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, s *models.Signal) error
	StoreBatch(ctx context.Context, signals []*models.Signal) error
	Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.Signal, error)
	Health(ctx context.Context) error
	Close() error
}

// SignalCache keeps the latest live signal per symbol.
type SignalCache interface {
	Latest(ctx context.Context, symbol string) (*models.Signal, error)
	Put(ctx context.Context, s *models.Signal) error
}

// ScanLocker serialises scans of the same symbol across scanner instances.
type ScanLocker interface {
	TryLock(ctx context.Context, symbol string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, symbol string) error
}

type Metrics interface {
	RecordSignal(direction, tier string, score float64)
	RecordRejection(reason string)
	RecordDispatch(backend string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
