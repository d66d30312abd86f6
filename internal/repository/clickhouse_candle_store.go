package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	pkgch "FinSignal/pkg/clickhouse"
	applogger "FinSignal/pkg/logger"
)

// CandlesSchema returns the DDL for the candles table.
func CandlesSchema(table string) string {
	return fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            symbol    LowCardinality(String),
            timeframe LowCardinality(String),
            ts        DateTime64(3, 'UTC'),
            open      Float64,
            high      Float64,
            low       Float64,
            close     Float64,
            volume    Float64
        ) ENGINE = ReplacingMergeTree
        ORDER BY (symbol, timeframe, ts)
    `, table)
}

// CHCandleStore implements CandleStore backed by ClickHouse.
type CHCandleStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

var _ domrepo.CandleStore = (*CHCandleStore)(nil)

func NewCHCandleStore(ch *pkgch.Client, table string) *CHCandleStore {
	return &CHCandleStore{db: ch.DB(), table: table, l: applogger.Nop()}
}

// SetLogger injects a structured logger.
func (s *CHCandleStore) SetLogger(l *applogger.Logger) {
	if l != nil {
		s.l = l
	}
}

func (s *CHCandleStore) GetCandles(ctx context.Context, symbol string, from, to time.Time, tf domrepo.Timeframe) ([]models.Candle, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT ts, open, high, low, close, volume
        FROM %s FINAL
        WHERE symbol = ? AND timeframe = ? AND ts >= ? AND ts <= ?
        ORDER BY ts ASC
    `, s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, string(tf), from, to)
	if err != nil {
		s.logErr("clickhouse get_candles query error", symbol, tf, err)
		return nil, fmt.Errorf("get candles: %w", err)
	}
	defer rows.Close()

	out, err := scanCandles(rows, 256)
	if err != nil {
		s.logErr("clickhouse get_candles scan error", symbol, tf, err)
		return nil, err
	}
	s.l.Debug("clickhouse get_candles ok",
		applogger.String("symbol", symbol),
		applogger.String("tf", string(tf)),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

func (s *CHCandleStore) GetLatestNCandles(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) ([]models.Candle, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT ts, open, high, low, close, volume
        FROM %s FINAL
        WHERE symbol = ? AND timeframe = ?
        ORDER BY ts DESC
        LIMIT ?
    `, s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, string(tf), n)
	if err != nil {
		s.logErr("clickhouse latest_candles query error", symbol, tf, err)
		return nil, fmt.Errorf("get latest candles: %w", err)
	}
	defer rows.Close()

	out, err := scanCandles(rows, n)
	if err != nil {
		s.logErr("clickhouse latest_candles scan error", symbol, tf, err)
		return nil, err
	}
	reverse(out)
	s.l.Debug("clickhouse latest_candles ok",
		applogger.String("symbol", symbol),
		applogger.String("tf", string(tf)),
		applogger.Int("limit", n),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

func (s *CHCandleStore) logErr(msg, symbol string, tf domrepo.Timeframe, err error) {
	s.l.Error(msg,
		applogger.String("table", s.table),
		applogger.String("symbol", symbol),
		applogger.String("tf", string(tf)),
		applogger.Error(err),
	)
}

func scanCandles(rows *sql.Rows, capHint int) ([]models.Candle, error) {
	out := make([]models.Candle, 0, capHint)
	for rows.Next() {
		var c models.Candle
		if err := rows.Scan(&c.Timestamp, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func reverse(cs []models.Candle) {
	for i, j := 0, len(cs)-1; i < j; i, j = i+1, j-1 {
		cs[i], cs[j] = cs[j], cs[i]
	}
}
