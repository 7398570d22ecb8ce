package usecase

import (
	"context"

	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/domain/models"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/domain/repository"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/pkg/logger"
)

// FilterResult is what remains of one symbol's candidates after dedup.
type FilterResult struct {
	Records []models.OHLCVRecord
	Skipped int
}

// DuplicateFilter removes records whose keys are already stored.
type DuplicateFilter struct {
	store repository.TimeSeriesStore
	log   *logger.Logger
}

func NewDuplicateFilter(store repository.TimeSeriesStore, log *logger.Logger) *DuplicateFilter {
	if log == nil {
		log = logger.Nop()
	}
	return &DuplicateFilter{store: store, log: log}
}

// Filter queries existing keys once per symbol. A failed lookup lets that
// symbol's records through unfiltered; the store's own conflict handling
// is the backstop.
func (f *DuplicateFilter) Filter(ctx context.Context, iv models.Interval, candidates map[string][]models.OHLCVRecord) map[string]FilterResult {
	out := make(map[string]FilterResult, len(candidates))
	for symbol, recs := range candidates {
		if len(recs) == 0 {
			out[symbol] = FilterResult{}
			continue
		}

		existing, err := f.store.ExistingKeys(ctx, symbol, iv)
		if err != nil {
			f.log.Warn("existing keys lookup failed, keeping all records",
				logger.Symbol(symbol),
				logger.String("interval", string(iv)),
				logger.Error(err),
			)
			out[symbol] = FilterResult{Records: recs}
			continue
		}

		kept := make([]models.OHLCVRecord, 0, len(recs))
		seen := make(models.KeySet, len(recs))
		for _, r := range recs {
			if existing.Has(r.Key) || seen.Has(r.Key) {
				continue
			}
			seen.Add(r.Key)
			kept = append(kept, r)
		}
		out[symbol] = FilterResult{Records: kept, Skipped: len(recs) - len(kept)}
	}
	return out
}
