package provider

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/domain/models"
)

type overlapClient struct {
	active  atomic.Int32
	maxSeen atomic.Int32
}

func (c *overlapClient) FetchOne(ctx context.Context, symbol string, iv models.Interval, period string) (*models.Table, error) {
	n := c.active.Add(1)
	defer c.active.Add(-1)
	for {
		m := c.maxSeen.Load()
		if n <= m || c.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond)
	return &models.Table{Symbol: symbol}, nil
}

func (c *overlapClient) FetchBatch(ctx context.Context, symbols []string, iv models.Interval, period string) (*models.BatchTable, error) {
	return &models.BatchTable{Symbols: symbols}, nil
}

func TestSerializeRunsFetchOneOneAtATime(t *testing.T) {
	inner := &overlapClient{}
	c := Serialize(inner)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.FetchOne(context.Background(), "AAA", models.Interval1d, "5d")
		}()
	}
	wg.Wait()

	if got := inner.maxSeen.Load(); got != 1 {
		t.Errorf("max concurrent FetchOne = %d, want 1", got)
	}
}

func TestSerializeIsIdempotent(t *testing.T) {
	c := Serialize(&overlapClient{})
	if Serialize(c) != c {
		t.Error("wrapping twice should return the same wrapper")
	}
}
