package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/domain/models"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/service/progress"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/usecase"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/pkg/config"
	xhttp "github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/pkg/http"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/pkg/logger"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/pkg/queue"
)

// Mode selects what the process does.
type Mode string

const (
	// ModeOnce runs one batch from config and flags, prints the summary and exits.
	ModeOnce Mode = "once"
	// ModeWorker consumes queued ingest requests and serves ops endpoints until signalled.
	ModeWorker Mode = "worker"
	// ModeEnqueue pushes one request onto the queue and exits.
	ModeEnqueue Mode = "enqueue"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeOnce, ModeWorker, ModeEnqueue:
		return m, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want once, worker or enqueue)", s)
	}
}

// App encapsulates the application lifecycle. Components a mode does not
// need are nil.
type App struct {
	cfg      *config.Config
	log      *logger.Logger
	orch     *usecase.Orchestrator
	registry *usecase.Registry
	job      *usecase.IngestJob
	sink     progress.Sink
	queue    *queue.RedisQueue
	http     *xhttp.Server
	out      io.Writer
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *logger.Logger,
	orch *usecase.Orchestrator,
	registry *usecase.Registry,
	job *usecase.IngestJob,
	sink progress.Sink,
	q *queue.RedisQueue,
	httpServer *xhttp.Server,
) *App {
	return &App{
		cfg:      cfg,
		log:      log,
		orch:     orch,
		registry: registry,
		job:      job,
		sink:     sink,
		queue:    q,
		http:     httpServer,
		out:      os.Stdout,
	}
}

// SetOutput redirects what RunOnce and Describe print.
func (a *App) SetOutput(w io.Writer) { a.out = w }

// IngestRequest builds the request described by the ingest section.
func IngestRequest(cfg *config.Config) models.Request {
	return models.Request{
		Symbols:    cfg.Ingest.Symbols,
		Interval:   models.Interval(cfg.Ingest.Interval),
		Period:     cfg.Ingest.Period,
		ChunkSize:  cfg.Ingest.ChunkSize,
		MaxWorkers: cfg.Ingest.MaxWorkers,
		MaxRetries: cfg.Ingest.MaxRetries,
		Strategy:   models.Strategy(cfg.Ingest.Strategy),
	}
}

// Run executes mode. req is used by once and enqueue.
func (a *App) Run(ctx context.Context, mode Mode, req models.Request) error {
	switch mode {
	case ModeOnce:
		_, err := a.RunOnce(ctx, req)
		return err
	case ModeWorker:
		return a.Work(ctx)
	case ModeEnqueue:
		id, err := a.Enqueue(ctx, req)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(a.out, id)
		return nil
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}
}

// RunOnce executes req in this process, publishes and prints its summary.
func (a *App) RunOnce(ctx context.Context, req models.Request) (*models.BatchSummary, error) {
	summary, err := a.job.Execute(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := a.sink.PublishSummary(ctx, summary); err != nil {
		a.log.Warn("publish summary failed", logger.RunID(summary.RunID), logger.Error(err))
	}

	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return summary, fmt.Errorf("write summary: %w", err)
	}
	return summary, nil
}

// Describe prints what the store holds for symbols.
func (a *App) Describe(ctx context.Context, symbols []string, iv models.Interval) error {
	states, err := a.orch.Describe(ctx, symbols, iv)
	if err != nil {
		return err
	}
	for _, s := range states {
		latest := "-"
		if s.HasData {
			latest = s.LatestKey.Format(time.RFC3339)
		}
		_, _ = fmt.Fprintf(a.out, "%-12s %8d  %s\n", s.Symbol, s.Count, latest)
	}
	return nil
}

// Enqueue hands req to the queue for a worker and returns the message id.
func (a *App) Enqueue(ctx context.Context, req models.Request) (string, error) {
	if a.queue == nil {
		return "", fmt.Errorf("enqueue needs redis.enabled")
	}
	if err := a.queue.Start(ctx); err != nil {
		return "", err
	}
	defer func() { _ = a.queue.Stop(context.Background()) }()

	id, err := a.queue.Enqueue(ctx, usecase.IngestJobType, req)
	if err != nil {
		return "", fmt.Errorf("enqueue: %w", err)
	}
	a.log.Info("ingest request queued", logger.String("message_id", id), logger.Int("symbols", len(req.Symbols)))
	return id, nil
}

// Work consumes queued requests and serves the ops endpoints until ctx is
// cancelled, then stops in-flight runs and shuts down.
func (a *App) Work(ctx context.Context) error {
	if a.queue == nil {
		return fmt.Errorf("worker mode needs redis.enabled")
	}

	a.queue.RegisterJob(a.job)
	if err := a.queue.Start(ctx); err != nil {
		return err
	}
	if a.http != nil {
		if err := a.http.Start(); err != nil {
			return err
		}
	}
	a.log.Info("worker started", logger.Int("queue_workers", a.cfg.Queue.Workers))

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.shutdown()
}

func (a *App) shutdown() error {
	a.registry.StopAll()

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.queue.Stop(ctx); err != nil {
		a.log.Warn("queue stop error", logger.Error(err))
	}
	if a.http != nil {
		if err := a.http.Stop(ctx); err != nil {
			a.log.Error("http shutdown error", logger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
