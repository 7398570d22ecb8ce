package repository

import (
	"context"
	"sync"
	"time"

	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/domain/models"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/domain/repository"
)

// MemoryStore keeps records in process. It backs dry runs and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]map[time.Time]models.OHLCVRecord // table -> symbol -> key
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string]map[time.Time]models.OHLCVRecord)}
}

func (s *MemoryStore) bucket(iv models.Interval, symbol string) map[time.Time]models.OHLCVRecord {
	t := TableFor(iv)
	if s.data[t] == nil {
		s.data[t] = make(map[string]map[time.Time]models.OHLCVRecord)
	}
	if s.data[t][symbol] == nil {
		s.data[t][symbol] = make(map[time.Time]models.OHLCVRecord)
	}
	return s.data[t][symbol]
}

func (s *MemoryStore) save(symbol string, iv models.Interval, recs []models.OHLCVRecord) repository.SaveResult {
	var res repository.SaveResult
	b := s.bucket(iv, symbol)
	for _, r := range recs {
		k := r.Key.UTC()
		if _, ok := b[k]; ok {
			res.Skipped++
			continue
		}
		b[k] = r
		res.Saved++
	}
	return res
}

func (s *MemoryStore) SaveOne(_ context.Context, symbol string, iv models.Interval, records []models.OHLCVRecord) (repository.SaveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(symbol, iv, records), nil
}

func (s *MemoryStore) SaveBatch(_ context.Context, batch map[string][]models.OHLCVRecord, iv models.Interval) (repository.BatchSaveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out repository.BatchSaveResult
	for symbol, recs := range batch {
		out.Add(symbol, s.save(symbol, iv, recs))
	}
	return out, nil
}

func (s *MemoryStore) CountRecords(_ context.Context, symbol string, iv models.Interval) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data[TableFor(iv)][symbol]), nil
}

func (s *MemoryStore) LatestKey(_ context.Context, symbol string, iv models.Interval) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest time.Time
	found := false
	for k := range s.data[TableFor(iv)][symbol] {
		if !found || k.After(latest) {
			latest, found = k, true
		}
	}
	return latest, found, nil
}

func (s *MemoryStore) ExistingKeys(_ context.Context, symbol string, iv models.Interval) (models.KeySet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make(models.KeySet, len(s.data[TableFor(iv)][symbol]))
	for k := range s.data[TableFor(iv)][symbol] {
		keys.Add(k)
	}
	return keys, nil
}

func (s *MemoryStore) Health(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

var _ repository.TimeSeriesStore = (*MemoryStore)(nil)
