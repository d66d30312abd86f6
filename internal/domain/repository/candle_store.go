package repository

import (
	"context"
	"time"

	"FinSignal/internal/domain/models"
)

// CandleStore provides read-only access to OHLCV bars. Results are ordered
// oldest to newest.
type CandleStore interface {
	GetCandles(ctx context.Context, symbol string, from, to time.Time, tf Timeframe) ([]models.Candle, error)
	GetLatestNCandles(ctx context.Context, symbol string, n int, tf Timeframe) ([]models.Candle, error)
}
