package kafka

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"

	"FinSignal/pkg/logger"
)

// MessageHandler handles messages from a specific topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

// ConsumerOption configures Consumer.
type ConsumerOption func(*ConsumerConfig)

// ConsumerConfig holds consumer configuration.
type ConsumerConfig struct {
	Brokers     []string
	GroupID     string
	WorkerCount int
	BufferSize  int
	RetryMax    int
	BackoffMin  time.Duration
	BackoffMax  time.Duration
	DLQTopic    string
	MinBytes    int
	MaxBytes    int
}

func WithConsumerBrokers(brokers []string) ConsumerOption {
	return func(c *ConsumerConfig) { c.Brokers = brokers }
}

func WithConsumerGroupID(groupID string) ConsumerOption {
	return func(c *ConsumerConfig) { c.GroupID = groupID }
}

// WithConsumerWorkers sets the worker pool size and its queue length.
func WithConsumerWorkers(count, buffer int) ConsumerOption {
	return func(c *ConsumerConfig) {
		if count > 0 {
			c.WorkerCount = count
		}
		if buffer > 0 {
			c.BufferSize = buffer
		}
	}
}

// WithConsumerRetry configures retry attempts and the backoff range.
func WithConsumerRetry(max int, backoffMin, backoffMax time.Duration) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.RetryMax = max
		c.BackoffMin = backoffMin
		c.BackoffMax = backoffMax
	}
}

// WithConsumerDLQ sets the topic that receives messages which exhausted retries.
func WithConsumerDLQ(topic string) ConsumerOption {
	return func(c *ConsumerConfig) { c.DLQTopic = topic }
}

func WithConsumerFetch(minBytes, maxBytes int) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.MinBytes = minBytes
		c.MaxBytes = maxBytes
	}
}

// Consumer reads registered topics and hands messages to a worker pool.
// At most one message per (topic, partition) is in flight so per-key order
// is preserved.
type Consumer struct {
	cfg      *ConsumerConfig
	log      *logger.Logger
	readers  map[string]*kafka.Reader
	handlers map[string]MessageHandler
	msgs     chan kafka.Message
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	dlq      *kafka.Writer

	mu        sync.Mutex
	partLocks map[string]*sync.Mutex
}

func NewConsumer(l *logger.Logger, opts ...ConsumerOption) (*Consumer, error) {
	cfg := &ConsumerConfig{
		GroupID:     "finsignal",
		WorkerCount: 1,
		BufferSize:  64,
		RetryMax:    3,
		BackoffMin:  50 * time.Millisecond,
		BackoffMax:  2 * time.Second,
		MinBytes:    1,
		MaxBytes:    10e6,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}
	if l == nil {
		l = logger.Nop()
	}

	c := &Consumer{
		cfg:       cfg,
		log:       l,
		readers:   make(map[string]*kafka.Reader),
		handlers:  make(map[string]MessageHandler),
		msgs:      make(chan kafka.Message, cfg.BufferSize),
		stop:      make(chan struct{}),
		partLocks: make(map[string]*sync.Mutex),
	}
	if cfg.DLQTopic != "" {
		c.dlq = &kafka.Writer{Addr: kafka.TCP(cfg.Brokers...), Topic: cfg.DLQTopic, Balancer: &kafka.LeastBytes{}}
	}
	initConsumerMetrics()
	return c, nil
}

// RegisterHandler registers h for its topic. Must be called before Start.
func (c *Consumer) RegisterHandler(h MessageHandler) {
	if _, ok := c.handlers[h.Topic()]; ok {
		c.log.Warn("kafka handler already registered", logger.String("topic", h.Topic()))
		return
	}
	c.handlers[h.Topic()] = h
}

// Start launches one reader per topic and the worker pool.
func (c *Consumer) Start() error {
	if len(c.handlers) == 0 {
		return fmt.Errorf("no handlers registered")
	}
	for topic := range c.handlers {
		c.readers[topic] = kafka.NewReader(kafka.ReaderConfig{
			Brokers:  c.cfg.Brokers,
			Topic:    topic,
			GroupID:  c.cfg.GroupID,
			MinBytes: c.cfg.MinBytes,
			MaxBytes: c.cfg.MaxBytes,
		})
	}

	var workers sync.WaitGroup
	for i := 0; i < c.cfg.WorkerCount; i++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			c.work()
		}()
	}

	var readers sync.WaitGroup
	for topic, r := range c.readers {
		readers.Add(1)
		go func(topic string, r *kafka.Reader) {
			defer readers.Done()
			c.read(topic, r)
		}(topic, r)
	}

	// workers drain the queue after every reader has returned
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		readers.Wait()
		close(c.msgs)
		workers.Wait()
	}()

	c.log.Info("kafka consumer started",
		logger.Int("topics", len(c.readers)),
		logger.Int("workers", c.cfg.WorkerCount),
		logger.String("group", c.cfg.GroupID),
	)
	return nil
}

// Stop stops reading, drains in-flight messages and closes readers.
func (c *Consumer) Stop(ctx context.Context) error {
	var err error
	c.stopOnce.Do(func() {
		close(c.stop)
		done := make(chan struct{})
		go func() {
			c.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			err = fmt.Errorf("kafka consumer stop: %w", ctx.Err())
		}
		for topic, r := range c.readers {
			if cerr := r.Close(); cerr != nil {
				c.log.Error("kafka reader close failed", logger.String("topic", topic), logger.Error(cerr))
			}
		}
		if c.dlq != nil {
			if cerr := c.dlq.Close(); cerr != nil {
				c.log.Error("kafka dlq close failed", logger.Error(cerr))
			}
		}
	})
	return err
}

func (c *Consumer) read(topic string, r *kafka.Reader) {
	for {
		select {
		case <-c.stop:
			return
		default:
		}
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		msg, err := r.FetchMessage(ctx)
		cancel()
		if err != nil {
			if !errors.Is(err, context.DeadlineExceeded) {
				c.log.Error("kafka fetch failed", logger.String("topic", topic), logger.Error(err))
			}
			continue
		}
		select {
		case c.msgs <- msg:
			consumerQueueDepth.WithLabelValues(topic).Set(float64(len(c.msgs)))
		case <-c.stop:
			return
		}
	}
}

func (c *Consumer) work() {
	for msg := range c.msgs {
		h, ok := c.handlers[msg.Topic]
		if !ok {
			continue
		}
		c.handle(h, msg)
	}
}

func (c *Consumer) handle(h MessageHandler, msg kafka.Message) {
	start := time.Now()
	pl := c.partitionLock(msg.Topic, msg.Partition)
	pl.Lock()
	defer pl.Unlock()

	err := c.handleWithRetry(h, msg)
	result := "ok"
	if err != nil {
		result = "error"
		c.log.Error("kafka message failed",
			logger.String("topic", msg.Topic),
			logger.Int("partition", msg.Partition),
			logger.Int64("offset", msg.Offset),
			logger.Error(err),
		)
		if c.dlq != nil {
			if derr := c.dlq.WriteMessages(context.Background(), kafka.Message{
				Key:     msg.Key,
				Value:   msg.Value,
				Headers: []kafka.Header{{Key: "source_topic", Value: []byte(msg.Topic)}},
			}); derr != nil {
				c.log.Error("kafka dlq write failed", logger.Error(derr))
			}
		}
	}
	// commit after success or after the message went to the DLQ so a poison
	// message cannot block the partition
	if err == nil || c.dlq != nil {
		c.commit(msg)
	}
	consumerHandled.WithLabelValues(msg.Topic, result).Inc()
	consumerLatency.WithLabelValues(msg.Topic).Observe(time.Since(start).Seconds())
}

func (c *Consumer) handleWithRetry(h MessageHandler, msg kafka.Message) (err error) {
	for attempt := 1; ; attempt++ {
		err = safeHandle(h, msg.Value)
		if err == nil || attempt > c.cfg.RetryMax {
			return err
		}
		select {
		case <-time.After(backoff(c.cfg.BackoffMin, c.cfg.BackoffMax, attempt)):
		case <-c.stop:
			return err
		}
	}
}

func safeHandle(h MessageHandler, data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h.Handle(context.Background(), data)
}

func (c *Consumer) commit(msg kafka.Message) {
	r := c.readers[msg.Topic]
	if r == nil {
		return
	}
	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = r.CommitMessages(ctx, msg)
		cancel()
		if err == nil {
			return
		}
		time.Sleep(backoff(50*time.Millisecond, 500*time.Millisecond, attempt))
	}
	c.log.Error("kafka commit failed", logger.String("topic", msg.Topic), logger.Int64("offset", msg.Offset), logger.Error(err))
}

func (c *Consumer) partitionLock(topic string, partition int) *sync.Mutex {
	key := fmt.Sprintf("%s/%d", topic, partition)
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.partLocks[key]
	if !ok {
		l = &sync.Mutex{}
		c.partLocks[key] = l
	}
	return l
}

// backoff is exponential from min, capped at max, with up to 50% jitter.
func backoff(min, max time.Duration, attempt int) time.Duration {
	if min <= 0 {
		min = 50 * time.Millisecond
	}
	if max < min {
		max = min
	}
	d := min << uint(attempt-1)
	if d > max || d <= 0 {
		d = max
	}
	if half := int64(d) / 2; half > 0 {
		d -= time.Duration(rand.Int63n(half))
	}
	return d
}

var (
	consumerOnce       sync.Once
	consumerQueueDepth *prometheus.GaugeVec
	consumerHandled    *prometheus.CounterVec
	consumerLatency    *prometheus.HistogramVec
)

func initConsumerMetrics() {
	consumerOnce.Do(func() {
		consumerQueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "finsignal_kafka_consumer_queue_depth",
			Help: "Messages waiting for a worker",
		}, []string{"topic"})
		consumerHandled = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "finsignal_kafka_consumer_messages_total",
			Help: "Messages handled by result",
		}, []string{"topic", "result"})
		consumerLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name: "finsignal_kafka_consumer_handle_seconds",
			Help: "Handling time per message",
		}, []string{"topic"})
	})
}
