package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/pkg/util"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/pkg/validate"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"oneof=development staging production test"`
	Log         struct {
		Level      string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error fatal panic"`
		Format     string `yaml:"format" default:"json" validate:"oneof=json console"`
		Output     string `yaml:"output" default:"stdout"`
		TimeFormat string `yaml:"time_format"`
	} `yaml:"log"`
	Server struct {
		Port            int           `yaml:"port" default:"8080" validate:"min=1,max=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Provider struct {
		Type              string        `yaml:"type" default:"yahoo" validate:"oneof=yahoo polygon"`
		APIKey            string        `yaml:"api_key"`
		BaseURL           string        `yaml:"base_url"`
		Timeout           time.Duration `yaml:"timeout" default:"30s"`
		RequestsPerSecond float64       `yaml:"requests_per_second" default:"2"`
		Burst             int           `yaml:"burst" default:"1"`
		Concurrency       int           `yaml:"concurrency" default:"4" validate:"min=1"`
	} `yaml:"provider"`
	Storage struct {
		Type           string        `yaml:"type" default:"sqlite" validate:"oneof=clickhouse postgres sqlite memory"`
		InitSchema     bool          `yaml:"init_schema" default:"true"`
		ConnectTimeout time.Duration `yaml:"connect_timeout" default:"30s"`
		ClickHouse struct {
			Host             string        `yaml:"host" default:"localhost"`
			Port             int           `yaml:"port" default:"9000"`
			Database         string        `yaml:"database" default:"market"`
			User             string        `yaml:"user" default:"default"`
			Password         string        `yaml:"password"`
			UseHTTP          bool          `yaml:"use_http"`
			AsyncInsert      bool          `yaml:"async_insert"`
			MaxConnections   int           `yaml:"max_connections" default:"10"`
			DialTimeout      time.Duration `yaml:"dial_timeout" default:"10s"`
			ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
			MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
		} `yaml:"clickhouse"`
		Postgres struct {
			DSN      string `yaml:"dsn"`
			MaxConns int    `yaml:"max_conns" default:"10"`
			MinConns int    `yaml:"min_conns" default:"1"`
		} `yaml:"postgres"`
		SQLite struct {
			Path string `yaml:"path" default:"data/ohlcv.db"`
		} `yaml:"sqlite"`
	} `yaml:"storage"`
	Ingest struct {
		Symbols           []string      `yaml:"symbols" validate:"dive,required"`
		Interval          string        `yaml:"interval" default:"1d" validate:"oneof=1m 2m 5m 15m 30m 60m 90m 1h 1d 5d 1wk 1mo 3mo"`
		Period            string        `yaml:"period"`
		Strategy          string        `yaml:"strategy" default:"chunked" validate:"oneof=chunked parallel"`
		ChunkSize         int           `yaml:"chunk_size" default:"100" validate:"min=1"`
		ChunkConcurrency  int           `yaml:"chunk_concurrency" default:"1" validate:"min=1"`
		MaxWorkers        int           `yaml:"max_workers" default:"4" validate:"min=1"`
		MaxRetries        int           `yaml:"max_retries" default:"3" validate:"min=1"`
		PacingDelay       time.Duration `yaml:"pacing_delay" default:"500ms"`
		BaseDelay         time.Duration `yaml:"base_delay" default:"1s"`
		BackoffMultiplier float64       `yaml:"backoff_multiplier" default:"2" validate:"gte=1"`
		StopOnFatal       bool          `yaml:"stop_on_fatal"`
		ErrorLogLimit     int           `yaml:"error_log_limit" default:"100" validate:"min=1"`
	} `yaml:"ingest"`
	Redis struct {
		Enabled        bool          `yaml:"enabled"`
		Addr           string        `yaml:"addr" default:"localhost:6379"`
		Password       string        `yaml:"password"`
		DB             int           `yaml:"db"`
		PoolSize       int           `yaml:"pool_size" default:"10"`
		KeyPrefix      string        `yaml:"key_prefix" default:"ingest"`
		ProgressTTL    time.Duration `yaml:"progress_ttl" default:"24h"`
		ConnectTimeout time.Duration `yaml:"connect_timeout" default:"10s"`
	} `yaml:"redis"`
	Queue struct {
		Workers    int           `yaml:"workers" default:"1" validate:"min=1"`
		RetryLimit int           `yaml:"retry_limit" default:"3"`
		RetryDelay time.Duration `yaml:"retry_delay" default:"10s"`
		MaxDelay   time.Duration `yaml:"max_delay" default:"5m"`
		KeyPrefix  string        `yaml:"key_prefix" default:"ingest:queue"`
	} `yaml:"queue"`
	Kafka struct {
		Enabled       bool          `yaml:"enabled"`
		Brokers       []string      `yaml:"brokers"`
		ProgressTopic string        `yaml:"progress_topic" default:"ingest.progress"`
		SummaryTopic  string        `yaml:"summary_topic" default:"ingest.summary"`
		RequiredAcks  int           `yaml:"required_acks" default:"1"`
		Compression   string        `yaml:"compression" default:"gzip" validate:"oneof=gzip snappy lz4 zstd"`
		MaxAttempts   int           `yaml:"max_attempts" default:"3"`
		BatchTimeout  time.Duration `yaml:"batch_timeout" default:"100ms"`
		WriteTimeout  time.Duration `yaml:"write_timeout" default:"10s"`
		ReadTimeout   time.Duration `yaml:"read_timeout" default:"10s"`
		Async         bool          `yaml:"async"`
	} `yaml:"kafka"`
}

// Load reads a YAML configuration file, applies defaults and validates it.
// An empty path yields the defaults.
func Load(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables
// before validating.
func LoadWithEnv(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// parse applies defaults first so that values set in the file, including
// explicit false and zero, win over them.
func parse(path string) (*Config, error) {
	var c Config
	if err := validate.Defaults(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	return &c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("INGEST_SYMBOLS"); v != "" {
		c.Ingest.Symbols = util.SplitList(v)
	}
	if v := os.Getenv("INGEST_INTERVAL"); v != "" {
		c.Ingest.Interval = v
	}
	if v := os.Getenv("INGEST_PERIOD"); v != "" {
		c.Ingest.Period = v
	}
	if v := os.Getenv("INGEST_STRATEGY"); v != "" {
		c.Ingest.Strategy = v
	}
	c.Ingest.ChunkSize = util.ParseIntDefault(os.Getenv("INGEST_CHUNK_SIZE"), c.Ingest.ChunkSize)
	c.Ingest.MaxWorkers = util.ParseIntDefault(os.Getenv("INGEST_MAX_WORKERS"), c.Ingest.MaxWorkers)
	if v := os.Getenv("PROVIDER_TYPE"); v != "" {
		c.Provider.Type = v
	}
	if v := os.Getenv("PROVIDER_API_KEY"); v != "" {
		c.Provider.APIKey = v
	}
	if v := os.Getenv("STORAGE_TYPE"); v != "" {
		c.Storage.Type = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Storage.SQLite.Path = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Storage.Postgres.DSN = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.Storage.ClickHouse.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.Storage.ClickHouse.Password = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = util.SplitList(v)
		c.Kafka.Enabled = true
	}
}

// Validate checks struct rules and the settings that depend on each other.
func (c *Config) Validate() error {
	if err := validate.Check(context.Background(), c); err != nil {
		return err
	}
	if c.Provider.Type == "polygon" && c.Provider.APIKey == "" {
		return fmt.Errorf("provider.api_key is required for polygon")
	}
	if c.Storage.Type == "postgres" && c.Storage.Postgres.DSN == "" {
		return fmt.Errorf("storage.postgres.dsn is required")
	}
	if c.Storage.Type == "sqlite" && strings.TrimSpace(c.Storage.SQLite.Path) == "" {
		return fmt.Errorf("storage.sqlite.path is required")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	return nil
}
