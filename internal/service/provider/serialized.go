package provider

import (
	"context"
	"sync"

	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/domain/models"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/domain/repository"
)

// Serialized guards FetchOne of the wrapped client with a mutex owned by
// the wrapper. FetchBatch is passed through.
type Serialized struct {
	inner repository.MarketDataClient
	mu    sync.Mutex
}

// Serialize wraps c. Wrapping an already serialized client returns it as is,
// so every holder of the same client shares one lock.
func Serialize(c repository.MarketDataClient) repository.MarketDataClient {
	if s, ok := c.(*Serialized); ok {
		return s
	}
	return &Serialized{inner: c}
}

func (s *Serialized) FetchOne(ctx context.Context, symbol string, iv models.Interval, period string) (*models.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.FetchOne(ctx, symbol, iv, period)
}

func (s *Serialized) FetchBatch(ctx context.Context, symbols []string, iv models.Interval, period string) (*models.BatchTable, error) {
	return s.inner.FetchBatch(ctx, symbols, iv, period)
}
