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

// runChunked splits the symbols into chunks and runs each chunk as one
// bulk fetch followed by one bulk write.
func (o *Orchestrator) runChunked(ctx context.Context, run *Run, onProgress ProgressFunc, log *logger.Logger) {
	chunks := partition(workUnits(run.Request, run.Request.ChunkSize))

	// No derived context: a failed chunk must not cancel its siblings.
	var g errgroup.Group
	g.SetLimit(o.opts.ChunkConcurrency)

	for i, chunk := range chunks {
		if run.shouldStop(ctx) {
			log.Warn("stop requested, remaining chunks not dispatched",
				logger.Int("chunk", i),
				logger.Int("chunks", len(chunks)),
			)
			break
		}
		g.Go(func() error {
			o.processChunkSafe(ctx, run, chunk, log)
			onProgress(run.Snapshot())
			return nil
		})
	}
	_ = g.Wait()
}

func unitSymbols(units []models.WorkUnit) []string {
	out := make([]string, len(units))
	for i, u := range units {
		out[i] = u.Symbol
	}
	return out
}

// processChunkSafe turns a panic inside a chunk into a FATAL failure for
// every symbol of the chunk that was not folded into the run yet.
func (o *Orchestrator) processChunkSafe(ctx context.Context, run *Run, units []models.WorkUnit, log *logger.Logger) {
	start := time.Now()
	finished := make(map[string]bool, len(units))
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		perr := errs.System("panic while processing chunk", fmt.Errorf("%v", r))
		log.Error("chunk panicked",
			logger.Int("chunk", units[0].ChunkIndex),
			logger.Int("symbols", len(units)),
			logger.Error(perr),
		)

		var pending []string
		results := make(map[string]*models.SymbolResult, len(units))
		for _, u := range units {
			if finished[u.Symbol] {
				continue
			}
			res := &models.SymbolResult{Symbol: u.Symbol, Attempts: 1}
			o.recordError(run, res, perr, models.Fatal, models.ActionAbort, 1)
			results[u.Symbol] = res
			pending = append(pending, u.Symbol)
		}
		if len(pending) > 0 {
			o.finishChunk(run, pending, results, time.Since(start), finished)
		}
		if o.opts.StopOnFatal {
			run.abort()
		}
	}()
	o.processChunk(ctx, run, units, finished, log)
}

func (o *Orchestrator) processChunk(ctx context.Context, run *Run, units []models.WorkUnit, finished map[string]bool, log *logger.Logger) {
	start := time.Now()
	index := units[0].ChunkIndex
	iv := units[0].Interval
	symbols := unitSymbols(units)
	results := make(map[string]*models.SymbolResult, len(symbols))
	for _, s := range symbols {
		results[s] = &models.SymbolResult{Symbol: s, Attempts: 1, Success: true}
	}

	batch, err := o.client.FetchBatch(ctx, symbols, iv, units[0].Period)
	o.metrics.RecordLatency("fetch_batch", time.Since(start).Seconds())
	if err != nil {
		class := o.classifier.Classify(err)
		action := terminalAction(class)
		log.Error("chunk fetch failed",
			logger.Int("chunk", index),
			logger.Int("symbols", len(symbols)),
			logger.String("classification", string(class)),
			logger.Error(err),
		)
		for _, s := range symbols {
			o.recordError(run, results[s], err, class, action, 1)
		}
		if class == models.Fatal && o.opts.StopOnFatal {
			run.abort()
		}
		o.finishChunk(run, symbols, results, time.Since(start), finished)
		return
	}

	tables := o.conv.SplitByPosition(batch, symbols)
	candidates := make(map[string][]models.OHLCVRecord, len(symbols))
	for _, u := range units {
		s := u.Symbol
		res := results[s]
		fr := o.acquire(u, tables[s], batch.Err(s), errs.Missing(s), log)
		res.Fetched = fr.Rows
		res.Invalid = fr.Invalid
		if !fr.OK() {
			class := o.classifier.Classify(fr.Err())
			o.recordError(run, res, fr.Err(), class, terminalAction(class), 1)
			if class == models.Fatal && o.opts.StopOnFatal {
				run.abort()
			}
			continue
		}
		candidates[s] = fr.Records()
	}

	filtered := o.filter.Filter(ctx, iv, candidates)
	toWrite := make(map[string][]models.OHLCVRecord, len(filtered))
	for s, fr := range filtered {
		results[s].Skipped = fr.Skipped
		if len(fr.Records) > 0 {
			toWrite[s] = fr.Records
		}
	}

	if len(toWrite) > 0 {
		saveStart := time.Now()
		saved, err := o.store.SaveBatch(ctx, toWrite, iv)
		o.metrics.RecordLatency("save_batch", time.Since(saveStart).Seconds())
		if err != nil {
			perr := errs.Persistence("save batch", err)
			log.Error("chunk write failed",
				logger.Int("chunk", index),
				logger.Int("symbols", len(toWrite)),
				logger.Error(err),
			)
			for s := range toWrite {
				o.recordError(run, results[s], perr, models.Fatal, models.ActionAbort, 1)
			}
			if o.opts.StopOnFatal {
				run.abort()
			}
		} else {
			for s := range toWrite {
				r := saved.PerSymbol[s]
				results[s].Saved = r.Saved
				results[s].Skipped += r.Skipped
				if len(r.Errors) > 0 {
					log.Warn("store reported row errors",
						logger.Symbol(s),
						logger.Strings("errors", r.Errors),
					)
				}
			}
		}
	}

	o.finishChunk(run, symbols, results, time.Since(start), finished)
	log.Debug("chunk done",
		logger.Int("chunk", index),
		logger.Int("symbols", len(symbols)),
		logger.Int("written_symbols", len(toWrite)),
		logger.Duration("elapsed_ms", time.Since(start)),
	)
}

// finishChunk folds every symbol of the chunk into the run and marks it in
// finished. The chunk's wall time is spread evenly over its symbols; there is
// no per-symbol timing in a bulk fetch.
func (o *Orchestrator) finishChunk(run *Run, symbols []string, results map[string]*models.SymbolResult, elapsed time.Duration, finished map[string]bool) {
	perSymbol := elapsed / time.Duration(len(symbols))
	for _, s := range symbols {
		o.finish(run, *results[s], perSymbol)
		finished[s] = true
	}
}
