package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	pkgkafka "FinSignal/pkg/kafka"
)

// SignalsSchema returns the DDL for the signals table. The full signal is
// kept as JSON in payload; the flat columns serve filtering.
func SignalsSchema(table string) string {
	return fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            id          String,
            symbol      LowCardinality(String),
            direction   LowCardinality(String),
            tier        LowCardinality(String),
            entry       Float64,
            stop_loss   Float64,
            target      Float64,
            risk_reward Float64,
            score       Float64,
            confidence  LowCardinality(String),
            analyzed_at DateTime64(3, 'UTC'),
            expires_at  Nullable(DateTime64(3, 'UTC')),
            payload     String
        ) ENGINE = ReplacingMergeTree
        ORDER BY (symbol, analyzed_at, id)
    `, table)
}

const signalColumns = "id, symbol, direction, tier, entry, stop_loss, target, risk_reward, score, confidence, analyzed_at, expires_at, payload"

// ClickHouseSignalStore implements SignalStore for ClickHouse.
type ClickHouseSignalStore struct {
	db    *sql.DB
	table string
}

var _ domrepo.SignalStore = (*ClickHouseSignalStore)(nil)

// NewClickHouseSignalStore creates ClickHouse storage for signals.
func NewClickHouseSignalStore(db *sql.DB, table string) *ClickHouseSignalStore {
	return &ClickHouseSignalStore{db: db, table: table}
}

func (s *ClickHouseSignalStore) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, SignalsSchema(s.table)); err != nil {
		return fmt.Errorf("init signals table: %w", err)
	}
	return nil
}

func (s *ClickHouseSignalStore) Store(ctx context.Context, sig *models.Signal) error {
	return s.StoreBatch(ctx, []*models.Signal{sig})
}

func (s *ClickHouseSignalStore) StoreBatch(ctx context.Context, signals []*models.Signal) error {
	if len(signals) == 0 {
		return nil
	}
	// multi-row VALUES, chunked to bound statement size
	const chunkSize = 500
	for start := 0; start < len(signals); start += chunkSize {
		end := min(start+chunkSize, len(signals))

		values := make([]string, 0, end-start)
		args := make([]any, 0, (end-start)*13)
		for _, sig := range signals[start:end] {
			if sig == nil || sig.ID == "" {
				continue
			}
			row, err := signalRow(sig)
			if err != nil {
				return err
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args, row...)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", s.table, signalColumns, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert signals: %w", err)
		}
	}
	return nil
}

func signalRow(sig *models.Signal) ([]any, error) {
	payload, err := json.Marshal(sig)
	if err != nil {
		return nil, fmt.Errorf("encode signal %s: %w", sig.ID, err)
	}
	var expires any
	if sig.ExpiresAt != nil {
		expires = sig.ExpiresAt.UTC()
	}
	return []any{
		sig.ID,
		sig.Symbol,
		string(sig.Direction),
		string(sig.Metadata.Tier),
		sig.Entry,
		sig.StopLoss,
		sig.Target,
		sig.RiskReward,
		sig.Score,
		string(sig.Confidence),
		sig.AnalyzedAt.UTC(),
		expires,
		string(payload),
	}, nil
}

func (s *ClickHouseSignalStore) Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.Signal, error) {
	q := fmt.Sprintf("SELECT payload FROM %s FINAL WHERE symbol = ? AND analyzed_at >= ? AND analyzed_at <= ? ORDER BY analyzed_at DESC LIMIT ?", s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}
	defer rows.Close()

	var out []*models.Signal
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		var sig models.Signal
		if err := json.Unmarshal([]byte(payload), &sig); err != nil {
			return nil, fmt.Errorf("decode signal: %w", err)
		}
		out = append(out, &sig)
	}
	return out, rows.Err()
}

func (s *ClickHouseSignalStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseSignalStore) Close() error {
	return nil // pool owned by pkg/clickhouse
}

// KafkaSignalPublisher implements SignalPublisher for Kafka. Messages are
// keyed by symbol so one symbol stays on one partition.
type KafkaSignalPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

var _ domrepo.SignalPublisher = (*KafkaSignalPublisher)(nil)

// NewKafkaSignalPublisher creates a Kafka publisher.
func NewKafkaSignalPublisher(producer *pkgkafka.Producer, topic string) *KafkaSignalPublisher {
	return &KafkaSignalPublisher{producer: producer, topic: topic}
}

func (p *KafkaSignalPublisher) Publish(ctx context.Context, sig *models.Signal) error {
	return p.producer.Publish(ctx, p.topic, []byte(sig.Symbol), sig)
}

func (p *KafkaSignalPublisher) PublishBatch(ctx context.Context, signals []*models.Signal) error {
	if len(signals) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(signals))
	for i, sig := range signals {
		msgs[i] = pkgkafka.Message{Key: []byte(sig.Symbol), Value: sig}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaSignalPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
