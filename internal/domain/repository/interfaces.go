package repository

import (
	"context"
	"time"

	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/domain/models"
)

// MarketDataClient acquires raw bars from an external provider.
//
// Callers must not run FetchOne concurrently on the same client; wrap clients
// with provider.Serialize before sharing them across goroutines. FetchBatch
// may fan out internally over a path the implementation keeps safe for
// concurrent use, so the restriction applies to FetchOne callers only.
type MarketDataClient interface {
	FetchOne(ctx context.Context, symbol string, interval models.Interval, period string) (*models.Table, error)
	FetchBatch(ctx context.Context, symbols []string, interval models.Interval, period string) (*models.BatchTable, error)
}

// SaveResult counts what a store did with one symbol's records.
type SaveResult struct {
	Saved   int      `json:"saved"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// BatchSaveResult is the outcome of a multi-symbol write.
type BatchSaveResult struct {
	PerSymbol map[string]SaveResult `json:"per_symbol"`
	Totals    SaveResult            `json:"totals"`
}

// Add folds one symbol's result into the batch result.
func (b *BatchSaveResult) Add(symbol string, r SaveResult) {
	if b.PerSymbol == nil {
		b.PerSymbol = make(map[string]SaveResult)
	}
	b.PerSymbol[symbol] = r
	b.Totals.Saved += r.Saved
	b.Totals.Skipped += r.Skipped
	b.Totals.Errors = append(b.Totals.Errors, r.Errors...)
}

// TimeSeriesStore persists records keyed by (symbol, interval, key).
// Writes ignore keys that are already present and report them as skipped.
type TimeSeriesStore interface {
	SaveOne(ctx context.Context, symbol string, interval models.Interval, records []models.OHLCVRecord) (SaveResult, error)
	SaveBatch(ctx context.Context, batch map[string][]models.OHLCVRecord, interval models.Interval) (BatchSaveResult, error)
	CountRecords(ctx context.Context, symbol string, interval models.Interval) (int, error)
	// LatestKey returns false when the symbol has no records.
	LatestKey(ctx context.Context, symbol string, interval models.Interval) (time.Time, bool, error)
	ExistingKeys(ctx context.Context, symbol string, interval models.Interval) (models.KeySet, error)
	Health(ctx context.Context) error
	Close() error
}

type Metrics interface {
	RecordSymbol(strategy string, success bool)
	RecordRecords(stage string, n int)
	RecordError(kind, action string)
	RecordRetry(reason string)
	RecordLatency(op string, seconds float64)
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) RecordSymbol(string, bool) {}
func (NoopMetrics) RecordRecords(string, int) {}
func (NoopMetrics) RecordError(string, string) {}
func (NoopMetrics) RecordRetry(string) {}
func (NoopMetrics) RecordLatency(string, float64) {}
