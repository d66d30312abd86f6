package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Backend names accepted by backend.types.
const (
	BackendKafka      = "kafka"
	BackendClickHouse = "clickhouse"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080" validate:"gt=0,lt=65536"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"15s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error"`
		Format string `yaml:"format" default:"json" validate:"oneof=json console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Backend struct {
		// Types lists where emitted signals are dispatched; empty keeps them in cache only.
		Types []string `yaml:"types" validate:"dive,oneof=kafka clickhouse"`
		// BufferSize bounds signals held for redelivery after a backend failure.
		BufferSize int `yaml:"buffer_size" default:"256" validate:"gte=1"`
	} `yaml:"backend"`
	Kafka struct {
		Brokers       []string `yaml:"brokers"`
		SignalsTopic  string   `yaml:"signals_topic" default:"finsignal.signals"`
		TriggersTopic string   `yaml:"triggers_topic"`
		RequiredAcks  int      `yaml:"required_acks" default:"-1"`
		Compression   string   `yaml:"compression" default:"snappy" validate:"oneof=none gzip snappy lz4 zstd"`
		Producer      struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"5"`
			Linger       time.Duration `yaml:"linger" default:"50ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id" default:"finsignal-scanner"`
			Workers    int           `yaml:"workers" default:"4" validate:"gte=1"`
			BufferSize int           `yaml:"buffer_size" default:"256"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"100ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"2s"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes" default:"1"`
			MaxBytes   int           `yaml:"max_bytes" default:"10485760"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"finsignal"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
		CandlesTable     string        `yaml:"candles_table" default:"candles"`
		SignalsTable     string        `yaml:"signals_table" default:"signals"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host" default:"localhost"`
		Port     int    `yaml:"port" default:"6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"finsignal"`
		PoolSize int    `yaml:"pool_size" default:"10"`
		// L1TTL keeps hot keys in process in front of Redis; zero disables the layer.
		L1TTL time.Duration `yaml:"l1_ttl" default:"5s"`
		Queue struct {
			Enabled    bool          `yaml:"enabled"`
			Workers    int           `yaml:"workers" default:"2" validate:"gte=1"`
			RetryLimit int           `yaml:"retry_limit" default:"3"`
			RetryDelay time.Duration `yaml:"retry_delay" default:"10s"`
		} `yaml:"queue"`
	} `yaml:"redis"`
	MarketData struct {
		// Source is where candles come from: clickhouse or http.
		Source   string        `yaml:"source" default:"clickhouse" validate:"oneof=clickhouse http"`
		URL      string        `yaml:"url" validate:"omitempty,url"`
		Timeout  time.Duration `yaml:"timeout" default:"10s"`
		RetryMax int           `yaml:"retry_max" default:"2"`
	} `yaml:"market_data"`
	Scanner struct {
		Enabled         bool          `yaml:"enabled" default:"true"`
		Symbols         []string      `yaml:"symbols" validate:"dive,required"`
		Interval        time.Duration `yaml:"interval" default:"5m"`
		Workers         int           `yaml:"workers" default:"4" validate:"gte=1,lte=64"`
		Timeframe       string        `yaml:"timeframe" default:"1d"`
		HigherTimeframe string        `yaml:"higher_timeframe"`
		Lookback        int           `yaml:"lookback" default:"120" validate:"gte=20"`
		HigherLookback  int           `yaml:"higher_lookback" default:"60"`
		LockTTL         time.Duration `yaml:"lock_ttl" default:"30s"`
		EnforceFilters  bool          `yaml:"enforce_filters"`
		TriggerCapacity int           `yaml:"trigger_capacity" default:"3"`
		TriggerRefill   time.Duration `yaml:"trigger_refill" default:"20s"`
	} `yaml:"scanner"`
	Analysis struct {
		AssetType AssetType         `yaml:"asset_type" default:"stock" validate:"oneof=stock crypto"`
		Timeframe AnalysisTimeframe `yaml:"timeframe" default:"daily" validate:"oneof=daily intraday"`
		Overrides AnalysisOverrides `yaml:"overrides"`
	} `yaml:"analysis"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse applies defaults, decodes YAML over them and validates. Defaults go
// first so that explicit zero values in the file (enabled: false) survive.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Scanner.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("BACKENDS"); v != "" {
		c.Backend.Types = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_SIGNALS_TOPIC"); v != "" {
		c.Kafka.SignalsTopic = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("ASSET_TYPE"); v != "" {
		c.Analysis.AssetType = AssetType(v)
	}
	if v := os.Getenv("MIN_SCORE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("MIN_SCORE: %w", err)
		}
		c.Analysis.Overrides.MinScore = &f
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

var configValidate = validator.New()

// Validate checks if the configuration is valid. The analysis section is
// resolved here too so that a bad override aborts startup.
func (c *Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return err
	}
	if (c.HasBackend(BackendKafka) || c.Kafka.TriggersTopic != "") && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is used")
	}
	if c.HasBackend(BackendKafka) && c.Kafka.SignalsTopic == "" {
		return fmt.Errorf("kafka.signals_topic is required for the kafka backend")
	}
	if c.Scanner.Enabled && c.Scanner.Interval <= 0 && c.Kafka.TriggersTopic == "" {
		return fmt.Errorf("scanner needs an interval or a kafka triggers topic")
	}
	if c.Redis.Queue.Enabled && !c.Redis.Enabled {
		return fmt.Errorf("redis.queue needs redis.enabled")
	}
	if c.MarketData.Source == "http" && c.MarketData.URL == "" {
		return fmt.Errorf("market_data.url is required for the http source")
	}
	if c.Scanner.HigherTimeframe != "" && c.Scanner.HigherLookback < 20 {
		return fmt.Errorf("scanner.higher_lookback must be >= 20 when higher_timeframe is set")
	}
	if _, err := c.AnalysisConfig(); err != nil {
		return err
	}
	return nil
}

// HasBackend reports whether name is one of the configured dispatch backends.
func (c *Config) HasBackend(name string) bool {
	for _, t := range c.Backend.Types {
		if t == name {
			return true
		}
	}
	return false
}

// AnalysisConfig resolves the preset for the configured asset type and
// timeframe and layers the YAML overrides on top.
func (c *Config) AnalysisConfig() (*AnalysisConfig, error) {
	return NewAnalysisConfig(c.Analysis.AssetType, c.Analysis.Timeframe, c.Analysis.Overrides)
}
