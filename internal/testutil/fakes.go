// Package testutil holds fakes shared by package tests.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/domain/models"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/domain/repository"
	internalrepo "github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/repository"
)

// Day0 is the first bar of every generated table.
var Day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Rows builds n valid daily bars starting at start.
func Rows(start time.Time, n int) []models.Row {
	rows := make([]models.Row, n)
	for i := range rows {
		p := 100 + float64(i)
		rows[i] = models.Row{
			Time:   start.AddDate(0, 0, i),
			Open:   p,
			High:   p + 2,
			Low:    p - 1,
			Close:  p + 1,
			Volume: 1000,
		}
	}
	return rows
}

// Table builds a table of n valid daily bars.
func Table(symbol string, n int) *models.Table {
	return &models.Table{Symbol: symbol, Rows: Rows(Day0, n)}
}

// Client is a MarketDataClient driven by function fields. Unset functions
// return Table(symbol, Bars) for every symbol.
type Client struct {
	Bars           int
	FetchOneFunc   func(ctx context.Context, symbol string, attempt int) (*models.Table, error)
	FetchBatchFunc func(ctx context.Context, symbols []string) (*models.BatchTable, error)

	mu         sync.Mutex
	oneCalls   map[string]int
	batchCalls [][]string
}

func (c *Client) FetchOne(ctx context.Context, symbol string, _ models.Interval, _ string) (*models.Table, error) {
	c.mu.Lock()
	if c.oneCalls == nil {
		c.oneCalls = make(map[string]int)
	}
	attempt := c.oneCalls[symbol]
	c.oneCalls[symbol]++
	c.mu.Unlock()

	if c.FetchOneFunc != nil {
		return c.FetchOneFunc(ctx, symbol, attempt)
	}
	return Table(symbol, c.Bars), nil
}

func (c *Client) FetchBatch(ctx context.Context, symbols []string, _ models.Interval, _ string) (*models.BatchTable, error) {
	c.mu.Lock()
	c.batchCalls = append(c.batchCalls, append([]string(nil), symbols...))
	c.mu.Unlock()

	if c.FetchBatchFunc != nil {
		return c.FetchBatchFunc(ctx, symbols)
	}
	b := &models.BatchTable{Symbols: symbols}
	for _, s := range symbols {
		b.Groups = append(b.Groups, *Table(s, c.Bars))
	}
	return b, nil
}

// OneCalls is how often FetchOne ran for symbol.
func (c *Client) OneCalls(symbol string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.oneCalls[symbol]
}

// BatchCalls returns the symbol lists FetchBatch received, in call order.
func (c *Client) BatchCalls() [][]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]string, len(c.batchCalls))
	copy(out, c.batchCalls)
	return out
}

// Store wraps a MemoryStore and can be told to fail writes.
type Store struct {
	*internalrepo.MemoryStore

	SaveErr     error
	ExistingErr error

	mu         sync.Mutex
	saveCalls  int
	batchCalls int
}

func NewStore() *Store {
	return &Store{MemoryStore: internalrepo.NewMemoryStore()}
}

func (s *Store) SaveOne(ctx context.Context, symbol string, iv models.Interval, records []models.OHLCVRecord) (repository.SaveResult, error) {
	s.mu.Lock()
	s.saveCalls++
	s.mu.Unlock()
	if s.SaveErr != nil {
		return repository.SaveResult{}, s.SaveErr
	}
	return s.MemoryStore.SaveOne(ctx, symbol, iv, records)
}

func (s *Store) SaveBatch(ctx context.Context, batch map[string][]models.OHLCVRecord, iv models.Interval) (repository.BatchSaveResult, error) {
	s.mu.Lock()
	s.batchCalls++
	s.mu.Unlock()
	if s.SaveErr != nil {
		return repository.BatchSaveResult{}, s.SaveErr
	}
	return s.MemoryStore.SaveBatch(ctx, batch, iv)
}

func (s *Store) ExistingKeys(ctx context.Context, symbol string, iv models.Interval) (models.KeySet, error) {
	if s.ExistingErr != nil {
		return nil, s.ExistingErr
	}
	return s.MemoryStore.ExistingKeys(ctx, symbol, iv)
}

// Calls reports how many SaveOne and SaveBatch calls the store received.
func (s *Store) Calls() (saveOne, saveBatch int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveCalls, s.batchCalls
}

// Metrics counts what the orchestrator records.
type Metrics struct {
	mu      sync.Mutex
	Symbols map[bool]int
	Errors  map[string]int
	Retries map[string]int
}

func NewMetrics() *Metrics {
	return &Metrics{Symbols: map[bool]int{}, Errors: map[string]int{}, Retries: map[string]int{}}
}

func (m *Metrics) RecordSymbol(_ string, success bool) {
	m.mu.Lock()
	m.Symbols[success]++
	m.mu.Unlock()
}

func (m *Metrics) RecordRecords(string, int) {}

func (m *Metrics) RecordError(class, action string) {
	m.mu.Lock()
	m.Errors[class+"/"+action]++
	m.mu.Unlock()
}

func (m *Metrics) RecordRetry(class string) {
	m.mu.Lock()
	m.Retries[class]++
	m.mu.Unlock()
}

func (m *Metrics) RecordLatency(string, float64) {}

var (
	_ repository.MarketDataClient = (*Client)(nil)
	_ repository.TimeSeriesStore  = (*Store)(nil)
	_ repository.Metrics          = (*Metrics)(nil)
)
