package di

import (
	"context"
	"fmt"
	"time"

	"FinSignal/internal/domain/repository"
	"FinSignal/internal/handler/api"
	"FinSignal/internal/handler/ws"
	mid "FinSignal/internal/middleware"
	internalrepo "FinSignal/internal/repository"
	"FinSignal/internal/service/ratelimit"
	"FinSignal/internal/services/marketdata"
	"FinSignal/internal/usecase"
	"FinSignal/pkg/cache"
	pkgch "FinSignal/pkg/clickhouse"
	"FinSignal/pkg/config"
	xhttp "FinSignal/pkg/http"
	pkgkafka "FinSignal/pkg/kafka"
	"FinSignal/pkg/logger"
	"FinSignal/pkg/metrics"
	"FinSignal/pkg/queue"
	"FinSignal/pkg/server"
)

const connectTimeout = 10 * time.Second

// ProvideLogger creates the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New(nil)
}

// ProvideAnalysisConfig resolves the preset and overrides.
func ProvideAnalysisConfig(cfg *config.Config) (*config.AnalysisConfig, error) {
	return cfg.AnalysisConfig()
}

func needsClickHouse(cfg *config.Config) bool {
	return cfg.MarketData.Source == "clickhouse" || cfg.HasBackend(config.BackendClickHouse)
}

func qualify(db, table string) string { return db + "." + table }

// ProvideClickHouseClient creates a ClickHouse client and the candles table.
// Returns nil when nothing reads from or writes to ClickHouse.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !needsClickHouse(cfg) {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, err := pkgch.NewClient(ctx,
		pkgch.WithAddress(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database,
		internalrepo.CandlesSchema(qualify(cfg.ClickHouse.Database, cfg.ClickHouse.CandlesTable)),
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil without the kafka backend.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.HasBackend(config.BackendKafka) {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithDelivery(cfg.Kafka.RequiredAcks, cfg.Kafka.Compression, cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideRedisCache connects to Redis, or returns nil when it is disabled.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	rc, err := cache.NewRedisCache(ctx,
		cache.WithRedisAddress(cfg.Redis.Host, cfg.Redis.Port),
		cache.WithRedisAuth(cfg.Redis.Password, cfg.Redis.DB),
		cache.WithRedisPool(cfg.Redis.PoolSize, 2, 30*time.Second),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return rc, nil
}

// ProvideCache picks the signal cache: Redis behind an in-process layer,
// bare Redis, or memory only.
func ProvideCache(cfg *config.Config, rc *cache.RedisCache) cache.Service {
	if rc == nil {
		return cache.NewMemoryCache(
			cache.WithMemoryMaxSize(10000),
			cache.WithMemoryCleanup(time.Minute),
		)
	}
	if cfg.Redis.L1TTL > 0 {
		return cache.NewLayeredCache(rc, 1000, cfg.Redis.L1TTL)
	}
	return rc
}

func ProvideCachedSignals(c cache.Service) *internalrepo.CachedSignals {
	return internalrepo.NewCachedSignals(c)
}

// ProvideCandleStore reads candles from ClickHouse or the HTTP market data service.
func ProvideCandleStore(cfg *config.Config, ch *pkgch.Client, l *logger.Logger) repository.CandleStore {
	if cfg.MarketData.Source == "http" {
		return marketdata.NewProvider(cfg.MarketData.URL, cfg.MarketData.Timeout, cfg.MarketData.RetryMax, l)
	}
	store := internalrepo.NewCHCandleStore(ch, qualify(cfg.ClickHouse.Database, cfg.ClickHouse.CandlesTable))
	store.SetLogger(l)
	return store
}

// ProvideSignalStore creates the signals table and its store. Returns nil
// without the clickhouse backend.
func ProvideSignalStore(cfg *config.Config, ch *pkgch.Client) (repository.SignalStore, error) {
	if ch == nil || !cfg.HasBackend(config.BackendClickHouse) {
		return nil, nil
	}
	store := internalrepo.NewClickHouseSignalStore(ch.DB(), qualify(cfg.ClickHouse.Database, cfg.ClickHouse.SignalsTable))

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("signal store: %w", err)
	}
	return store, nil
}

// ProvideSignalPublisher creates the Kafka signal publisher, or nil.
func ProvideSignalPublisher(cfg *config.Config, producer *pkgkafka.Producer) repository.SignalPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaSignalPublisher(producer, cfg.Kafka.SignalsTopic)
}

func ProvideSignalDispatcher(
	cfg *config.Config,
	pub repository.SignalPublisher,
	store repository.SignalStore,
	m repository.Metrics,
) (*usecase.SignalDispatcher, error) {
	return usecase.NewSignalDispatcher(pub, store, m, cfg.Backend.Types)
}

func ProvideDispatchBuffer(cfg *config.Config, d *usecase.SignalDispatcher, m repository.Metrics, l *logger.Logger) *mid.DispatchBuffer {
	return mid.NewDispatchBuffer(d, m,
		mid.WithBufferSize(cfg.Backend.BufferSize),
		mid.WithBufferLogger(l),
	)
}

func ProvideHub(l *logger.Logger) *ws.Hub {
	return ws.NewHub(l)
}

// ProvideEngine builds the analysis engine. Pre-trade filters are attached
// only when scanner.enforce_filters is set.
func ProvideEngine(cfg *config.Config, ac *config.AnalysisConfig, l *logger.Logger) *usecase.Engine {
	opts := []usecase.EngineOption{usecase.WithLogger(l)}
	if cfg.Scanner.EnforceFilters {
		opts = append(opts, usecase.WithFilters(usecase.NewLiquidityFilter(ac.Filters.MinADV)))
	}
	return usecase.NewEngine(ac, opts...)
}

func ProvideScanner(
	cfg *config.Config,
	engine *usecase.Engine,
	candles repository.CandleStore,
	signals *internalrepo.CachedSignals,
	buffer *mid.DispatchBuffer,
	hub *ws.Hub,
	m repository.Metrics,
	l *logger.Logger,
) *usecase.Scanner {
	tf := repository.NormalizeTimeframe(cfg.Scanner.Timeframe)
	higher := tf.Higher()
	if cfg.Scanner.HigherTimeframe != "" {
		higher = repository.NormalizeTimeframe(cfg.Scanner.HigherTimeframe)
	}
	return usecase.NewScanner(usecase.ScannerConfig{
		Timeframe:      tf,
		Higher:         higher,
		Lookback:       cfg.Scanner.Lookback,
		HigherLookback: cfg.Scanner.HigherLookback,
		Workers:        cfg.Scanner.Workers,
		LockTTL:        cfg.Scanner.LockTTL,
	}, engine, candles, signals, signals, buffer, hub, m, l)
}

// ProvideKafkaConsumer subscribes the scanner to bar-close triggers. Returns
// nil when no triggers topic is configured.
func ProvideKafkaConsumer(cfg *config.Config, scanner *usecase.Scanner, m repository.Metrics, l *logger.Logger) (*pkgkafka.Consumer, error) {
	if cfg.Kafka.TriggersTopic == "" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(l,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers, cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	limiter := ratelimit.New(cfg.Scanner.TriggerCapacity, cfg.Scanner.TriggerRefill)
	consumer.RegisterHandler(usecase.NewScanTriggerHandler(cfg.Kafka.TriggersTopic, scanner, limiter, m, l))
	return consumer, nil
}

// ProvideJobQueue creates the Redis-backed batch scan queue, or nil.
func ProvideJobQueue(cfg *config.Config, rc *cache.RedisCache, scanner *usecase.Scanner, l *logger.Logger) *queue.RedisQueue {
	if rc == nil || !cfg.Redis.Queue.Enabled {
		return nil
	}
	q := queue.NewRedisQueue(l, &queue.QueueConfig{
		Workers:    cfg.Redis.Queue.Workers,
		RetryLimit: cfg.Redis.Queue.RetryLimit,
		RetryDelay: cfg.Redis.Queue.RetryDelay,
	}, rc.Client(), queue.WithKeyPrefix(cfg.Redis.Prefix+":queue"))
	q.RegisterJob(usecase.NewScanJob(scanner))
	return q
}

// ProvideHealthChecks lists the dependencies reported by /healthz.
func ProvideHealthChecks(ch *pkgch.Client, rc *cache.RedisCache) map[string]api.HealthChecker {
	checks := make(map[string]api.HealthChecker)
	if ch != nil {
		checks["clickhouse"] = ch.Health
	}
	if rc != nil {
		checks["redis"] = func(ctx context.Context) error {
			return rc.Client().Ping(ctx).Err()
		}
	}
	return checks
}

func ProvideSignalsHandler(
	l *logger.Logger,
	engine *usecase.Engine,
	scanner *usecase.Scanner,
	signals *internalrepo.CachedSignals,
	store repository.SignalStore,
	q *queue.RedisQueue,
	health map[string]api.HealthChecker,
) *api.SignalsEchoHandler {
	var enq api.ScanEnqueuer
	if q != nil {
		enq = q
	}
	return api.NewSignalsEchoHandler(l, engine, scanner, signals, store, enq, health)
}

func ProvideHTTPServer(cfg *config.Config, h *api.SignalsEchoHandler, hub *ws.Hub, l *logger.Logger) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(xhttp.Handlers{h, hub},
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithLogger(l),
	)
}

// ProvideApp assembles the application and registers client shutdown.
func ProvideApp(
	cfg *config.Config,
	l *logger.Logger,
	srv *xhttp.Server,
	scanner *usecase.Scanner,
	buffer *mid.DispatchBuffer,
	dispatcher *usecase.SignalDispatcher,
	hub *ws.Hub,
	consumer *pkgkafka.Consumer,
	jobs *queue.RedisQueue,
	c cache.Service,
	ch *pkgch.Client,
) *server.App {
	app := server.New(cfg, l, srv, scanner, buffer, dispatcher, hub, consumer, jobs)
	if ch != nil {
		app.OnClose("clickhouse", ch.Close)
	}
	app.OnClose("cache", c.Close)
	return app
}
