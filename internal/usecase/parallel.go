package usecase

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/domain/errs"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/domain/models"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/pkg/logger"
)

// runParallel fetches and saves each symbol independently on a bounded pool,
// with a pacing delay between dispatches.
func (o *Orchestrator) runParallel(ctx context.Context, run *Run, onProgress ProgressFunc, log *logger.Logger) {
	var g errgroup.Group
	g.SetLimit(run.Request.MaxWorkers)

	for i, u := range workUnits(run.Request, 0) {
		if run.shouldStop(ctx) {
			log.Warn("stop requested, remaining symbols not dispatched",
				logger.Int("dispatched", i),
				logger.Int("total", len(run.Request.Symbols)),
			)
			break
		}
		if i > 0 && o.opts.PacingDelay > 0 {
			if err := sleep(ctx, o.opts.PacingDelay); err != nil {
				break
			}
		}

		g.Go(func() error {
			if err := o.processSymbolSafe(ctx, run, u, log); err != nil {
				log.Error("symbol failed with fatal error",
					logger.Symbol(u.Symbol),
					logger.Error(err),
				)
				if o.opts.StopOnFatal {
					run.abort()
				}
			}
			onProgress(run.Snapshot())
			return nil
		})
	}
	_ = g.Wait()
}

// processSymbolSafe turns a panic inside one symbol's work into a failed
// result for that symbol.
func (o *Orchestrator) processSymbolSafe(ctx context.Context, run *Run, u models.WorkUnit, log *logger.Logger) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			perr := errs.System("panic while processing symbol", fmt.Errorf("%v", r))
			res := models.SymbolResult{Symbol: u.Symbol, Attempts: 1}
			o.recordError(run, &res, perr, models.Fatal, models.ActionAbort, 1)
			o.finish(run, res, time.Since(start))
			err = perr
		}
	}()
	return o.processSymbol(ctx, run, u, log)
}

// processSymbol walks one symbol through fetch, convert and save. Only fetch
// failures are retried. A FATAL failure is returned so the pool can decide
// whether to stop the run; everything else is absorbed into the result.
func (o *Orchestrator) processSymbol(ctx context.Context, run *Run, u models.WorkUnit, log *logger.Logger) error {
	start := time.Now()
	symbol := u.Symbol
	res := models.SymbolResult{Symbol: symbol}

	var table *models.Table
	for attempt := 0; ; attempt++ {
		res.Attempts = attempt + 1

		fetchStart := time.Now()
		t, err := o.client.FetchOne(ctx, symbol, u.Interval, u.Period)
		o.metrics.RecordLatency("fetch_one", time.Since(fetchStart).Seconds())
		if err == nil && t.Empty() {
			err = errs.NoData(symbol)
		}
		if err == nil {
			table = t
			break
		}

		class := o.classifier.Classify(err)
		action := o.retry.Decide(class, attempt, run.Request.MaxRetries)
		o.recordError(run, &res, err, class, action, attempt+1)
		if action == models.ActionRetry {
			o.metrics.RecordRetry(string(class))
			log.Debug("retrying fetch",
				logger.Symbol(symbol),
				logger.Int("attempt", attempt+1),
				logger.Duration("backoff_ms", o.retry.Backoff(attempt)),
				logger.Error(err),
			)
			if werr := o.retry.Wait(ctx, attempt); werr != nil {
				o.recordError(run, &res, werr, models.Permanent, models.ActionSkip, attempt+1)
				o.finish(run, res, time.Since(start))
				return nil
			}
			continue
		}

		o.finish(run, res, time.Since(start))
		return escalate(symbol, err, class)
	}

	fr := o.acquire(u, table, nil, errs.NoData(symbol), log)
	res.Fetched = fr.Rows
	res.Invalid = fr.Invalid
	if !fr.OK() {
		o.recordError(run, &res, fr.Err(), models.Permanent, models.ActionSkip, res.Attempts)
		o.finish(run, res, time.Since(start))
		return nil
	}

	saveStart := time.Now()
	saved, err := o.store.SaveOne(ctx, symbol, u.Interval, fr.Records())
	o.metrics.RecordLatency("save_one", time.Since(saveStart).Seconds())
	if err != nil {
		perr := errs.Persistence("save one", err)
		o.recordError(run, &res, perr, models.Fatal, models.ActionAbort, res.Attempts)
		o.finish(run, res, time.Since(start))
		return escalate(symbol, perr, models.Fatal)
	}

	res.Success = true
	res.Saved = saved.Saved
	res.Skipped = saved.Skipped
	o.finish(run, res, time.Since(start))
	return nil
}

func escalate(symbol string, err error, class models.Classification) error {
	if class != models.Fatal {
		return nil
	}
	return fmt.Errorf("symbol %s: %w", symbol, err)
}
