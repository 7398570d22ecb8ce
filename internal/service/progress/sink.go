package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/domain/models"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/usecase"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/pkg/cache"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/pkg/logger"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/pkg/progress"
)

// Sink adapts a run's progress callbacks and its final summary to an output.
type Sink interface {
	Progress(runID string) usecase.ProgressFunc
	PublishSummary(ctx context.Context, s *models.BatchSummary) error
}

// publishTimeout bounds writes made from progress callbacks, which carry no context.
const publishTimeout = 2 * time.Second

// LogSink writes snapshots and summaries to the structured log.
type LogSink struct {
	log *logger.Logger
}

func NewLogSink(log *logger.Logger) *LogSink {
	if log == nil {
		log = logger.Nop()
	}
	return &LogSink{log: log}
}

func (s *LogSink) Progress(runID string) usecase.ProgressFunc {
	return func(snap models.ProgressSnapshot) {
		s.log.Info("ingest progress",
			logger.RunID(runID),
			logger.Int("processed", snap.Processed),
			logger.Int("total", snap.Total),
			logger.Int("failed", snap.Failed),
			logger.Float64("percent", snap.ProgressPercentage),
			logger.Float64("items_per_second", snap.ItemsPerSecond),
		)
	}
}

func (s *LogSink) PublishSummary(_ context.Context, sum *models.BatchSummary) error {
	s.log.Info("ingest summary",
		logger.RunID(sum.RunID),
		logger.String("strategy", string(sum.Strategy)),
		logger.Int("successful", sum.Progress.Successful),
		logger.Int("failed", sum.Progress.Failed),
		logger.Int64("downloaded", sum.Downloaded),
		logger.Int64("saved", sum.Saved),
		logger.Int64("skipped", sum.Skipped),
		logger.Bool("stopped", sum.Stopped),
		logger.Bool("aborted", sum.Aborted),
	)
	return nil
}

// RedisSink keeps the latest snapshot and the final summary of each run
// under run-scoped keys.
type RedisSink struct {
	cache  cache.Service
	prefix string
	ttl    time.Duration
	log    *logger.Logger
}

func NewRedisSink(c cache.Service, prefix string, ttl time.Duration, log *logger.Logger) *RedisSink {
	if prefix == "" {
		prefix = "ingest:run"
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if log == nil {
		log = logger.Nop()
	}
	return &RedisSink{cache: c, prefix: prefix, ttl: ttl, log: log}
}

// ProgressKey is where the latest snapshot of runID lives.
func (s *RedisSink) ProgressKey(runID string) string {
	return cache.Key(s.prefix, runID, "progress")
}

// SummaryKey is where the summary of runID lives.
func (s *RedisSink) SummaryKey(runID string) string {
	return cache.Key(s.prefix, runID, "summary")
}

func (s *RedisSink) Progress(runID string) usecase.ProgressFunc {
	return func(snap models.ProgressSnapshot) {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := s.cache.Set(ctx, s.ProgressKey(runID), snap, s.ttl); err != nil {
			s.log.Warn("store progress failed", logger.RunID(runID), logger.Error(err))
		}
	}
}

func (s *RedisSink) PublishSummary(ctx context.Context, sum *models.BatchSummary) error {
	if err := s.cache.Set(ctx, s.SummaryKey(sum.RunID), sum, s.ttl); err != nil {
		return fmt.Errorf("store summary %s: %w", sum.RunID, err)
	}
	return nil
}

// Publisher is the write side of a message producer.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// KafkaSink emits snapshots and summaries as events keyed by run id.
type KafkaSink struct {
	producer      Publisher
	progressTopic string
	summaryTopic  string
	log           *logger.Logger
}

func NewKafkaSink(p Publisher, progressTopic, summaryTopic string, log *logger.Logger) *KafkaSink {
	if log == nil {
		log = logger.Nop()
	}
	return &KafkaSink{producer: p, progressTopic: progressTopic, summaryTopic: summaryTopic, log: log}
}

func (s *KafkaSink) Progress(runID string) usecase.ProgressFunc {
	return func(snap models.ProgressSnapshot) {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := s.producer.Publish(ctx, s.progressTopic, runID, snap); err != nil {
			s.log.Warn("publish progress failed", logger.RunID(runID), logger.Error(err))
		}
	}
}

func (s *KafkaSink) PublishSummary(ctx context.Context, sum *models.BatchSummary) error {
	return s.producer.Publish(ctx, s.summaryTopic, sum.RunID, sum)
}

// PrinterSink renders progress as a single updating terminal line.
type PrinterSink struct {
	printer *progress.Printer
}

func NewPrinterSink(p *progress.Printer) *PrinterSink {
	return &PrinterSink{printer: p}
}

func (s *PrinterSink) Progress(string) usecase.ProgressFunc {
	return func(snap models.ProgressSnapshot) {
		s.printer.Update(Line(snap))
	}
}

func (s *PrinterSink) PublishSummary(_ context.Context, sum *models.BatchSummary) error {
	s.printer.Complete(fmt.Sprintf("%s done: %d ok, %d failed, %d saved, %d skipped",
		sum.RunID, sum.Progress.Successful, sum.Progress.Failed, sum.Saved, sum.Skipped))
	return nil
}

// Line formats a snapshot for a terminal.
func Line(snap models.ProgressSnapshot) string {
	line := fmt.Sprintf("[%5.1f%%] %d/%d symbols, %d failed, %.1f/s",
		snap.ProgressPercentage, snap.Processed, snap.Total, snap.Failed, snap.ItemsPerSecond)
	if snap.ETA != nil {
		line += ", eta " + snap.ETA.Format(time.TimeOnly)
	}
	return line
}

// Fanout forwards to every sink in order.
type Fanout []Sink

func (f Fanout) Progress(runID string) usecase.ProgressFunc {
	fns := make([]usecase.ProgressFunc, 0, len(f))
	for _, s := range f {
		fns = append(fns, s.Progress(runID))
	}
	return func(snap models.ProgressSnapshot) {
		for _, fn := range fns {
			fn(snap)
		}
	}
}

func (f Fanout) PublishSummary(ctx context.Context, sum *models.BatchSummary) error {
	var errs []error
	for _, s := range f {
		if err := s.PublishSummary(ctx, sum); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	_ Sink = (*LogSink)(nil)
	_ Sink = (*RedisSink)(nil)
	_ Sink = (*KafkaSink)(nil)
	_ Sink = (*PrinterSink)(nil)
	_ Sink = Fanout(nil)

	_ usecase.SummaryPublisher = Fanout(nil)
)
