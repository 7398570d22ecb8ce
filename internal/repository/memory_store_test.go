package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/domain/models"
)

func TestMemoryStoreSaveAndSkip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	recs := bars("AAA", day0, 4, 24*time.Hour)

	res, _ := s.SaveOne(ctx, "AAA", models.Interval1d, recs[:2])
	if res.Saved != 2 {
		t.Fatalf("first save = %+v", res)
	}
	res, _ = s.SaveOne(ctx, "AAA", models.Interval1d, recs)
	if res.Saved != 2 || res.Skipped != 2 {
		t.Errorf("second save = %+v, want saved 2 skipped 2", res)
	}

	latest, ok, _ := s.LatestKey(ctx, "AAA", models.Interval1d)
	if !ok || !latest.Equal(recs[3].Key) {
		t.Errorf("latest = %v %v, want %v", latest, ok, recs[3].Key)
	}
	if _, ok, _ := s.LatestKey(ctx, "BBB", models.Interval1d); ok {
		t.Error("latest for unknown symbol should be absent")
	}
}

func TestMemoryStoreConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	recs := bars("AAA", day0, 50, time.Minute)

	var wg sync.WaitGroup
	saved := make([]int, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, _ := s.SaveOne(ctx, "AAA", models.Interval1m, recs)
			saved[i] = res.Saved
		}(i)
	}
	wg.Wait()

	total := 0
	for _, n := range saved {
		total += n
	}
	if total != 50 {
		t.Errorf("total saved = %d, want 50", total)
	}
	if n, _ := s.CountRecords(ctx, "AAA", models.Interval1m); n != 50 {
		t.Errorf("count = %d, want 50", n)
	}
}
