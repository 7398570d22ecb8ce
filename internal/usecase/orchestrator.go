package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/domain/errs"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/domain/models"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/domain/repository"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/service/provider"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/pkg/logger"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/pkg/validate"
)

// ProgressFunc receives a snapshot after each chunk (chunked) or each symbol
// (parallel). With concurrent workers calls may overlap and arrive out of order.
type ProgressFunc func(models.ProgressSnapshot)

// Options are the run defaults. Request fields override them per run.
type Options struct {
	Strategy          models.Strategy `default:"chunked"`
	ChunkSize         int             `default:"100"`
	ChunkConcurrency  int             `default:"1"`
	MaxWorkers        int             `default:"4"`
	MaxRetries        int             `default:"3"`
	PacingDelay       time.Duration   `default:"500ms"`
	BaseDelay         time.Duration   `default:"1s"`
	BackoffMultiplier float64         `default:"2"`
	StopOnFatal       bool
	ErrorLogLimit     int `default:"100"`
}

// DefaultOptions returns Options with every default applied.
func DefaultOptions() Options {
	var o Options
	_ = validate.Defaults(&o)
	return o
}

// normalized replaces unusable counts with defaults. Zero delays are kept.
func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.Strategy == "" {
		o.Strategy = d.Strategy
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = d.ChunkSize
	}
	if o.ChunkConcurrency <= 0 {
		o.ChunkConcurrency = d.ChunkConcurrency
	}
	if o.MaxWorkers <= 0 {
		o.MaxWorkers = d.MaxWorkers
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = d.MaxRetries
	}
	if o.BackoffMultiplier <= 0 {
		o.BackoffMultiplier = d.BackoffMultiplier
	}
	if o.ErrorLogLimit <= 0 {
		o.ErrorLogLimit = d.ErrorLogLimit
	}
	return o
}

// Orchestrator runs fetch, convert, dedup and save over a set of symbols.
type Orchestrator struct {
	client     repository.MarketDataClient
	store      repository.TimeSeriesStore
	filter     *DuplicateFilter
	conv       Converter
	classifier Classifier
	retry      RetryPolicy
	metrics    repository.Metrics
	log        *logger.Logger
	opts       Options
}

type OrchestratorOption func(*Orchestrator)

func WithLogger(l *logger.Logger) OrchestratorOption {
	return func(o *Orchestrator) { o.log = l }
}

func WithMetrics(m repository.Metrics) OrchestratorOption {
	return func(o *Orchestrator) { o.metrics = m }
}

func WithOptions(opts Options) OrchestratorOption {
	return func(o *Orchestrator) { o.opts = opts }
}

// NewOrchestrator wires the pipeline. The client is wrapped with
// provider.Serialize unless it already is.
func NewOrchestrator(client repository.MarketDataClient, store repository.TimeSeriesStore, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		client:  provider.Serialize(client),
		store:   store,
		metrics: repository.NoopMetrics{},
		log:     logger.Nop(),
		opts:    DefaultOptions(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.opts = o.opts.normalized()
	o.retry = RetryPolicy{BaseDelay: o.opts.BaseDelay, Multiplier: o.opts.BackoffMultiplier}
	o.filter = NewDuplicateFilter(store, o.log)
	return o
}

// Run is the state of one batch execution. It is addressed externally by ID.
type Run struct {
	ID        string
	Request   models.Request
	Progress  *Progress
	StartedAt time.Time

	stop    atomic.Bool
	aborted atomic.Bool

	mu      sync.Mutex
	results []models.SymbolResult
}

// RequestStop asks the run to stop at the next unit boundary.
func (r *Run) RequestStop() { r.stop.Store(true) }

func (r *Run) StopRequested() bool { return r.stop.Load() }

func (r *Run) Snapshot() models.ProgressSnapshot { return r.Progress.Snapshot() }

func (r *Run) abort() {
	r.aborted.Store(true)
	r.stop.Store(true)
}

func (r *Run) shouldStop(ctx context.Context) bool {
	return r.stop.Load() || ctx.Err() != nil
}

func (r *Run) addResult(res models.SymbolResult) {
	r.mu.Lock()
	r.results = append(r.results, res)
	r.mu.Unlock()
}

// NewRun validates a request, fills unset fields from the orchestrator's
// options and allocates run state.
func (o *Orchestrator) NewRun(ctx context.Context, req models.Request) (*Run, error) {
	req.Symbols = uniqueSymbols(req.Symbols)
	if err := validate.Struct(ctx, &req); err != nil {
		return nil, errs.Validation("invalid ingest request", err)
	}
	if req.Period == "" {
		req.Period = req.Interval.DefaultPeriod()
	}
	if req.Strategy == "" {
		req.Strategy = o.opts.Strategy
	}
	if req.ChunkSize == 0 {
		req.ChunkSize = o.opts.ChunkSize
	}
	if req.MaxWorkers == 0 {
		req.MaxWorkers = o.opts.MaxWorkers
	}
	if req.MaxRetries == 0 {
		req.MaxRetries = o.opts.MaxRetries
	}

	id := uuid.NewString()
	return &Run{
		ID:        id,
		Request:   req,
		Progress:  NewProgress(id, len(req.Symbols)),
		StartedAt: time.Now(),
	}, nil
}

// Run validates req and executes it to completion.
func (o *Orchestrator) Run(ctx context.Context, req models.Request, onProgress ProgressFunc) (*models.BatchSummary, error) {
	run, err := o.NewRun(ctx, req)
	if err != nil {
		return nil, err
	}
	return o.Execute(ctx, run, onProgress), nil
}

// Execute processes every symbol of the run. Per-symbol and per-chunk
// failures end up in the summary; they are never returned.
func (o *Orchestrator) Execute(ctx context.Context, run *Run, onProgress ProgressFunc) *models.BatchSummary {
	if onProgress == nil {
		onProgress = func(models.ProgressSnapshot) {}
	}
	log := o.log.With(logger.RunID(run.ID))
	log.Info("batch started",
		logger.Int("symbols", len(run.Request.Symbols)),
		logger.String("interval", string(run.Request.Interval)),
		logger.String("period", run.Request.Period),
		logger.String("strategy", string(run.Request.Strategy)),
	)

	switch run.Request.Strategy {
	case models.StrategyParallel:
		o.runParallel(ctx, run, onProgress, log)
	default:
		o.runChunked(ctx, run, onProgress, log)
	}

	summary := o.summarize(ctx, run)
	log.Info("batch finished",
		logger.Int("processed", summary.Progress.Processed),
		logger.Int("successful", summary.Progress.Successful),
		logger.Int("failed", summary.Progress.Failed),
		logger.Int64("saved", summary.Saved),
		logger.Int64("skipped", summary.Skipped),
		logger.Bool("stopped", summary.Stopped),
		logger.Float64("elapsed_seconds", summary.Progress.ElapsedSeconds),
	)
	return summary
}

func (o *Orchestrator) summarize(ctx context.Context, run *Run) *models.BatchSummary {
	run.mu.Lock()
	results := make([]models.SymbolResult, len(run.results))
	copy(results, run.results)
	run.mu.Unlock()

	order := make(map[string]int, len(run.Request.Symbols))
	for i, s := range run.Request.Symbols {
		order[s] = i
	}
	sort.SliceStable(results, func(i, j int) bool {
		return order[results[i].Symbol] < order[results[j].Symbol]
	})

	s := &models.BatchSummary{
		RunID:      run.ID,
		Strategy:   run.Request.Strategy,
		Interval:   run.Request.Interval,
		Period:     run.Request.Period,
		StartedAt:  run.StartedAt,
		FinishedAt: time.Now(),
		Stopped:    run.StopRequested() || ctx.Err() != nil,
		Aborted:    run.aborted.Load(),
		Progress:   run.Progress.Snapshot(),
		Results:    results,
		Errors:     run.Progress.RecentErrors(o.opts.ErrorLogLimit),
	}
	for _, r := range results {
		s.Downloaded += int64(r.Fetched)
		s.Saved += int64(r.Saved)
		s.Skipped += int64(r.Skipped)
		s.Invalid += int64(r.Invalid)
	}
	return s
}

// finish folds a terminal symbol result into the run.
func (o *Orchestrator) finish(run *Run, res models.SymbolResult, sample time.Duration) {
	outcome := Outcome{
		Symbol:       res.Symbol,
		Success:      res.Success,
		Fetched:      res.Fetched,
		Saved:        res.Saved,
		ErrorMessage: res.Error,
	}
	if res.Success {
		outcome.Duration = sample
	}
	res.DurationMs = float64(sample.Microseconds()) / 1000
	run.Progress.RecordOutcome(outcome)
	run.addResult(res)

	o.metrics.RecordSymbol(string(run.Request.Strategy), res.Success)
	o.metrics.RecordRecords("fetched", res.Fetched)
	o.metrics.RecordRecords("invalid", res.Invalid)
	o.metrics.RecordRecords("skipped", res.Skipped)
	o.metrics.RecordRecords("saved", res.Saved)
}

// recordError appends to the run's error log and marks res failed.
func (o *Orchestrator) recordError(run *Run, res *models.SymbolResult, err error, class models.Classification, action models.Action, attempt int) {
	rec := models.ErrorRecord{
		Symbol:        res.Symbol,
		ErrorKind:     class,
		ExceptionName: errs.Name(err),
		AttemptCount:  attempt,
		ActionTaken:   action,
		Details:       err.Error(),
	}
	if kind, ok := errs.KindOf(err); ok {
		rec.ErrorCode = string(kind)
	}
	run.Progress.RecordError(rec)
	o.metrics.RecordError(string(class), string(action))

	if action != models.ActionRetry {
		res.Success = false
		res.ErrorKind = class
		res.Error = err.Error()
	}
}

// terminalAction is the action for a failure that is never retried.
func terminalAction(class models.Classification) models.Action {
	if class == models.Fatal {
		return models.ActionAbort
	}
	return models.ActionSkip
}

func uniqueSymbols(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// workUnits expands a request into one unit per symbol. Consecutive runs of
// size units share a ChunkIndex; size <= 0 puts every unit in chunk 0.
func workUnits(req models.Request, size int) []models.WorkUnit {
	units := make([]models.WorkUnit, len(req.Symbols))
	for i, s := range req.Symbols {
		chunk := 0
		if size > 0 {
			chunk = i / size
		}
		units[i] = models.WorkUnit{
			Symbol:     s,
			Interval:   req.Interval,
			Period:     req.Period,
			ChunkIndex: chunk,
		}
	}
	return units
}

// partition groups units by ChunkIndex, keeping request order.
func partition(units []models.WorkUnit) [][]models.WorkUnit {
	var chunks [][]models.WorkUnit
	for i, u := range units {
		if i == 0 || u.ChunkIndex != units[i-1].ChunkIndex {
			chunks = append(chunks, nil)
		}
		chunks[len(chunks)-1] = append(chunks[len(chunks)-1], u)
	}
	return chunks
}

// acquire turns one symbol's fetch outcome into records. A fetch error, an
// empty table (reported as empty) and a table without one valid row all
// yield a failed result.
func (o *Orchestrator) acquire(u models.WorkUnit, table *models.Table, fetchErr, empty error, log *logger.Logger) models.FetchResult {
	if fetchErr != nil {
		return models.FetchFailed(u.Symbol, fetchErr)
	}
	if table.Empty() {
		return models.FetchFailed(u.Symbol, empty)
	}

	recs, invalid := o.conv.ToRecords(table, u.Interval)
	var fr models.FetchResult
	if len(recs) == 0 {
		fr = models.FetchFailed(u.Symbol, errs.Conversion(u.Symbol, "no valid data"))
	} else {
		fr = models.Fetched(u.Symbol, recs)
	}
	fr.Rows = len(table.Rows)
	fr.Invalid = invalid

	facts := o.conv.ExtractSummaryFacts(table)
	log.Debug("symbol converted",
		logger.Symbol(u.Symbol),
		logger.Int("rows", fr.Rows),
		logger.Int("invalid", invalid),
		logger.Float64("latest_close", facts.LatestClose),
		logger.String("from", facts.From.Format(time.RFC3339)),
		logger.String("to", facts.To.Format(time.RFC3339)),
	)
	return fr
}

// SymbolState is what the store currently holds for a symbol.
type SymbolState struct {
	Symbol    string    `json:"symbol"`
	Count     int       `json:"count"`
	LatestKey time.Time `json:"latest_key,omitempty"`
	HasData   bool      `json:"has_data"`
}

// Describe reports stored record counts and the newest key per symbol.
func (o *Orchestrator) Describe(ctx context.Context, symbols []string, iv models.Interval) ([]SymbolState, error) {
	out := make([]SymbolState, 0, len(symbols))
	for _, s := range uniqueSymbols(symbols) {
		n, err := o.store.CountRecords(ctx, s, iv)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", s, err)
		}
		latest, ok, err := o.store.LatestKey(ctx, s, iv)
		if err != nil {
			return nil, fmt.Errorf("latest key %s: %w", s, err)
		}
		out = append(out, SymbolState{Symbol: s, Count: n, LatestKey: latest, HasData: ok})
	}
	return out, nil
}
