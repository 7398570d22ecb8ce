package provider

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/domain/models"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/pkg/logger"
)

type fetchFunc func(ctx context.Context, symbol string) (*models.Table, error)

// fetchEach downloads symbols with at most concurrency requests in flight and
// assembles the groups in request order. A symbol that fails leaves an empty
// group and its error at the same position in Errors; the batch only fails
// when every symbol did.
func fetchEach(ctx context.Context, symbols []string, concurrency int, fetch fetchFunc, log *logger.Logger) (*models.BatchTable, error) {
	if concurrency <= 0 {
		concurrency = 1
	}
	groups := make([]models.Table, len(symbols))
	failures := make([]error, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, symbol := range symbols {
		g.Go(func() error {
			t, err := fetch(gctx, symbol)
			if err != nil {
				failures[i] = err
				groups[i] = models.Table{Symbol: symbol}
				return nil
			}
			groups[i] = *t
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	failed := 0
	var first error
	for i, err := range failures {
		if err == nil {
			continue
		}
		failed++
		if first == nil {
			first = err
		}
		log.Debug("symbol dropped from batch", logger.Symbol(symbols[i]), logger.Error(err))
	}
	if len(symbols) > 0 && failed == len(symbols) {
		return nil, first
	}
	return &models.BatchTable{Symbols: symbols, Groups: groups, Errors: failures}, nil
}
