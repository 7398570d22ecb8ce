package di

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/domain/models"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/domain/repository"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/handler/api"
	internalrepo "github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/repository"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/service/progress"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/service/provider"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/usecase"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/pkg/cache"
	pkgch "github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/pkg/clickhouse"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/pkg/config"
	xhttp "github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/pkg/http"
	pkgkafka "github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/pkg/kafka"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/pkg/logger"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/pkg/metrics"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/pkg/postgres"
	console "github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/pkg/progress"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/pkg/queue"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/pkg/server"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/pkg/sqlite"

	"github.com/prometheus/client_golang/prometheus"
)

const schemaTimeout = 30 * time.Second

// ProvideLogger builds the process logger from the log section.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: cfg.Log.TimeFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return log.With(logger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(cfg *config.Config) repository.Metrics {
	if !cfg.Metrics.Enabled {
		return repository.NoopMetrics{}
	}
	return metrics.New()
}

// ProvideMarketDataClient selects the bar provider.
func ProvideMarketDataClient(cfg *config.Config, log *logger.Logger) (repository.MarketDataClient, error) {
	p := cfg.Provider
	switch p.Type {
	case "polygon":
		if p.APIKey == "" {
			return nil, fmt.Errorf("polygon provider needs an api key")
		}
		return provider.NewPolygon(provider.PolygonConfig{
			APIKey:            p.APIKey,
			RequestsPerSecond: p.RequestsPerSecond,
			Burst:             p.Burst,
			Concurrency:       p.Concurrency,
		}, log), nil
	case "yahoo", "":
		return provider.NewYahoo(provider.YahooConfig{
			BaseURL:           p.BaseURL,
			Timeout:           p.Timeout,
			RequestsPerSecond: p.RequestsPerSecond,
			Burst:             p.Burst,
			Concurrency:       p.Concurrency,
		}, log), nil
	default:
		return nil, fmt.Errorf("unknown provider type %q", p.Type)
	}
}

type schemaInitializer interface {
	InitSchema(ctx context.Context) error
}

// ProvideStore opens the configured backend and, if asked, creates its tables.
func ProvideStore(cfg *config.Config, log *logger.Logger) (repository.TimeSeriesStore, func(), error) {
	store, err := openStore(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			log.Warn("store close failed", logger.Error(err))
		}
	}

	if si, ok := store.(schemaInitializer); ok && cfg.Storage.InitSchema {
		ctx, cancel := context.WithTimeout(context.Background(), schemaTimeout)
		defer cancel()
		if err := si.InitSchema(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("%s schema: %w", cfg.Storage.Type, err)
		}
	}

	log.Info("store ready", logger.String("backend", cfg.Storage.Type))
	return store, cleanup, nil
}

func openStore(cfg *config.Config, log *logger.Logger) (repository.TimeSeriesStore, error) {
	s := cfg.Storage
	switch s.Type {
	case "clickhouse":
		ch := s.ClickHouse
		client, err := pkgch.NewClient(
			pkgch.WithHost(ch.Host),
			pkgch.WithPort(ch.Port),
			pkgch.WithDatabase(ch.Database),
			pkgch.WithCredentials(ch.User, ch.Password),
			pkgch.WithMaxConnections(ch.MaxConnections, ch.MaxConnections/2),
			pkgch.WithHTTP(ch.UseHTTP),
			pkgch.WithAsyncInsert(ch.AsyncInsert, true),
			pkgch.WithTimeouts(ch.DialTimeout, ch.ReadTimeout),
			pkgch.WithMaxExecutionTime(ch.MaxExecutionTime),
			pkgch.WithConnectTimeout(s.ConnectTimeout),
		)
		if err != nil {
			return nil, fmt.Errorf("clickhouse client: %w", err)
		}
		return internalrepo.NewClickHouseStore(client.DB(), log), nil

	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), schemaTimeout)
		defer cancel()
		pool, err := postgres.Connect(ctx,
			postgres.WithDSN(s.Postgres.DSN),
			postgres.WithConns(s.Postgres.MinConns, s.Postgres.MaxConns),
			postgres.WithConnectTimeout(s.ConnectTimeout),
		)
		if err != nil {
			return nil, fmt.Errorf("postgres pool: %w", err)
		}
		return internalrepo.NewPGStore(pool, log), nil

	case "sqlite":
		if s.SQLite.Path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(s.SQLite.Path), 0o755); err != nil {
				return nil, fmt.Errorf("sqlite dir: %w", err)
			}
		}
		client, err := sqlite.Open(s.SQLite.Path)
		if err != nil {
			return nil, err
		}
		return internalrepo.NewSQLiteStore(client.DB(), log), nil

	case "memory":
		return internalrepo.NewMemoryStore(), nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", s.Type)
	}
}

// ProvideOrchestrator builds the pipeline with run defaults from the ingest section.
func ProvideOrchestrator(
	cfg *config.Config,
	client repository.MarketDataClient,
	store repository.TimeSeriesStore,
	m repository.Metrics,
	log *logger.Logger,
) *usecase.Orchestrator {
	in := cfg.Ingest
	return usecase.NewOrchestrator(client, store,
		usecase.WithLogger(log),
		usecase.WithMetrics(m),
		usecase.WithOptions(usecase.Options{
			Strategy:          models.Strategy(in.Strategy),
			ChunkSize:         in.ChunkSize,
			ChunkConcurrency:  in.ChunkConcurrency,
			MaxWorkers:        in.MaxWorkers,
			MaxRetries:        in.MaxRetries,
			PacingDelay:       in.PacingDelay,
			BaseDelay:         in.BaseDelay,
			BackoffMultiplier: in.BackoffMultiplier,
			StopOnFatal:       in.StopOnFatal,
			ErrorLogLimit:     in.ErrorLogLimit,
		}),
	)
}

func ProvideRegistry() *usecase.Registry {
	return usecase.NewRegistry()
}

// ProvideRedisCache connects to Redis when it is enabled; otherwise it
// returns nil and every Redis-backed component is left out.
func ProvideRedisCache(cfg *config.Config, log *logger.Logger) (*cache.RedisCache, func(), error) {
	if !cfg.Redis.Enabled {
		return nil, func() {}, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPool(cfg.Redis.PoolSize, cfg.Redis.PoolSize/4),
		cache.WithRedisPrefix(cfg.Redis.KeyPrefix),
		cache.WithConnectTimeout(cfg.Redis.ConnectTimeout),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	return rc, func() {
		if err := rc.Close(); err != nil {
			log.Warn("redis close failed", logger.Error(err))
		}
	}, nil
}

// ProvideKafkaProducer creates the event producer when Kafka is enabled.
func ProvideKafkaProducer(cfg *config.Config, log *logger.Logger) (*pkgkafka.Producer, func(), error) {
	k := cfg.Kafka
	if !k.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(k.Brokers),
		pkgkafka.WithTopic(k.ProgressTopic),
		pkgkafka.WithCompression(k.Compression),
		pkgkafka.WithRequiredAcks(k.RequiredAcks),
		pkgkafka.WithMaxAttempts(k.MaxAttempts),
		pkgkafka.WithBatchTimeout(k.BatchTimeout),
		pkgkafka.WithTimeouts(k.WriteTimeout, k.ReadTimeout),
		pkgkafka.WithAsync(k.Async),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() {
		if err := producer.Close(); err != nil {
			log.Warn("kafka producer close failed", logger.Error(err))
		}
	}, nil
}

// ProvideProgressSink fans progress out to the log and to every enabled
// backend. A one-shot run also draws a progress line on stderr.
func ProvideProgressSink(
	cfg *config.Config,
	mode server.Mode,
	log *logger.Logger,
	rc *cache.RedisCache,
	producer *pkgkafka.Producer,
) progress.Sink {
	sinks := progress.Fanout{progress.NewLogSink(log)}
	if rc != nil {
		sinks = append(sinks, progress.NewRedisSink(rc, "run", cfg.Redis.ProgressTTL, log))
	}
	if producer != nil {
		sinks = append(sinks, progress.NewKafkaSink(producer, cfg.Kafka.ProgressTopic, cfg.Kafka.SummaryTopic, log))
	}
	if mode == server.ModeOnce {
		sinks = append(sinks, progress.NewPrinterSink(console.NewPrinter(os.Stderr)))
	}
	return sinks
}

func ProvideIngestJob(
	orch *usecase.Orchestrator,
	registry *usecase.Registry,
	sink progress.Sink,
	log *logger.Logger,
) *usecase.IngestJob {
	return usecase.NewIngestJob(orch, registry, sink.Progress, sink, log)
}

// ProvideQueue builds the Redis job queue for the enqueue and worker modes.
func ProvideQueue(cfg *config.Config, mode server.Mode, log *logger.Logger, rc *cache.RedisCache) *queue.RedisQueue {
	if rc == nil || mode == server.ModeOnce {
		return nil
	}
	qmode := queue.ModeConsumerOnly
	if mode == server.ModeEnqueue {
		qmode = queue.ModeProducerOnly
	}
	return queue.NewRedisQueue(log, queue.Config{
		Workers:    cfg.Queue.Workers,
		RetryLimit: cfg.Queue.RetryLimit,
		RetryDelay: cfg.Queue.RetryDelay,
		MaxDelay:   cfg.Queue.MaxDelay,
		KeyPrefix:  cfg.Queue.KeyPrefix,
	}, rc.Client(), qmode)
}

// ProvideHTTPServer serves health, run control and metrics in worker mode.
func ProvideHTTPServer(
	cfg *config.Config,
	mode server.Mode,
	log *logger.Logger,
	registry *usecase.Registry,
	store repository.TimeSeriesStore,
	rc *cache.RedisCache,
) *xhttp.Server {
	if mode != server.ModeWorker {
		return nil
	}

	checks := map[string]api.HealthChecker{"store": store}
	if rc != nil {
		checks["redis"] = api.HealthFunc(func(ctx context.Context) error {
			return rc.Client().Ping(ctx).Err()
		})
	}

	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(cfg.Metrics.Path, prometheus.DefaultGatherer))
	}
	return xhttp.NewServer(log, api.NewOpsHandler(log, registry, checks), opts...)
}

// ProvideApp creates the application.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	orch *usecase.Orchestrator,
	registry *usecase.Registry,
	job *usecase.IngestJob,
	sink progress.Sink,
	q *queue.RedisQueue,
	httpServer *xhttp.Server,
) *server.App {
	return server.New(cfg, log, orch, registry, job, sink, q, httpServer)
}
