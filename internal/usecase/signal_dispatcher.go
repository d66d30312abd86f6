package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"FinSignal/internal/domain/models"
	drepo "FinSignal/internal/domain/repository"
	"FinSignal/pkg/config"
)

// SignalDispatcher routes emitted signals to the configured backends.
type SignalDispatcher struct {
	pub      drepo.SignalPublisher
	store    drepo.SignalStore
	metrics  drepo.Metrics
	backends []string
}

// NewSignalDispatcher creates a dispatcher. pub and store may be nil when
// their backend is not listed.
func NewSignalDispatcher(
	pub drepo.SignalPublisher,
	store drepo.SignalStore,
	metrics drepo.Metrics,
	backends []string,
) (*SignalDispatcher, error) {
	for _, b := range backends {
		switch b {
		case config.BackendKafka:
			if pub == nil {
				return nil, fmt.Errorf("kafka backend without publisher")
			}
		case config.BackendClickHouse:
			if store == nil {
				return nil, fmt.Errorf("clickhouse backend without store")
			}
		default:
			return nil, fmt.Errorf("unknown backend: %s", b)
		}
	}
	return &SignalDispatcher{pub: pub, store: store, metrics: metrics, backends: backends}, nil
}

// Dispatch sends s to every backend. A failing backend does not stop the
// others; their errors are joined.
func (d *SignalDispatcher) Dispatch(ctx context.Context, s *models.Signal) error {
	if s == nil {
		return fmt.Errorf("signal is nil")
	}
	var errs []error
	for _, b := range d.backends {
		start := time.Now()
		var err error
		switch b {
		case config.BackendKafka:
			err = d.pub.Publish(ctx, s)
		case config.BackendClickHouse:
			err = d.store.Store(ctx, s)
		}
		if err != nil {
			d.metrics.RecordError("dispatch_" + b)
			errs = append(errs, fmt.Errorf("dispatch %s: %w", b, err))
			continue
		}
		d.metrics.RecordDispatch(b)
		d.metrics.RecordLatency("dispatch_"+b, time.Since(start).Seconds())
	}
	return errors.Join(errs...)
}

// DispatchBatch sends signals to every backend in one call per backend.
func (d *SignalDispatcher) DispatchBatch(ctx context.Context, signals []*models.Signal) error {
	if len(signals) == 0 {
		return nil
	}
	var errs []error
	for _, b := range d.backends {
		start := time.Now()
		var err error
		switch b {
		case config.BackendKafka:
			err = d.pub.PublishBatch(ctx, signals)
		case config.BackendClickHouse:
			err = d.store.StoreBatch(ctx, signals)
		}
		if err != nil {
			d.metrics.RecordError("dispatch_batch_" + b)
			errs = append(errs, fmt.Errorf("dispatch batch %s: %w", b, err))
			continue
		}
		for range signals {
			d.metrics.RecordDispatch(b)
		}
		d.metrics.RecordLatency("dispatch_batch_"+b, time.Since(start).Seconds())
	}
	return errors.Join(errs...)
}

// Backends returns the configured backend names.
func (d *SignalDispatcher) Backends() []string { return d.backends }

// Close closes underlying resources if available.
func (d *SignalDispatcher) Close() {
	if d.pub != nil {
		_ = d.pub.Close()
	}
	if d.store != nil {
		_ = d.store.Close()
	}
}
