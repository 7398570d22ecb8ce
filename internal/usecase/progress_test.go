package usecase

import (
	"sync"
	"testing"
	"time"

	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/domain/models"
)

func TestProgressSnapshot(t *testing.T) {
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	p := newProgressAt("run-1", 4, func() time.Time { return now })

	now = now.Add(2 * time.Second)
	p.RecordOutcome(Outcome{Symbol: "A", Success: true, Duration: 100 * time.Millisecond, Fetched: 10, Saved: 8})
	p.RecordOutcome(Outcome{Symbol: "B", Success: false, Fetched: 3, ErrorMessage: "no data"})

	s := p.Snapshot()
	if s.RunID != "run-1" || s.Total != 4 {
		t.Fatalf("identity = %s/%d", s.RunID, s.Total)
	}
	if s.Processed != 2 || s.Successful != 1 || s.Failed != 1 {
		t.Fatalf("counts = %d/%d/%d, want 2/1/1", s.Processed, s.Successful, s.Failed)
	}
	if s.ProgressPercentage != 50 {
		t.Errorf("progress = %v, want 50", s.ProgressPercentage)
	}
	if s.ElapsedSeconds != 2 || s.ItemsPerSecond != 1 {
		t.Errorf("elapsed/rate = %v/%v, want 2/1", s.ElapsedSeconds, s.ItemsPerSecond)
	}
	if s.Throughput.ItemsPerMinute != 60 || s.Throughput.RecordsPerMinute != 240 {
		t.Errorf("throughput = %+v", s.Throughput)
	}
	if s.ETA == nil || !s.ETA.Equal(now.Add(2*time.Second)) {
		t.Errorf("eta = %v, want %v", s.ETA, now.Add(2*time.Second))
	}
	if s.Performance.SuccessRatePct != 50 {
		t.Errorf("success rate = %v, want 50", s.Performance.SuccessRatePct)
	}
	if s.Performance.AvgProcessingMs != 100 {
		t.Errorf("avg ms = %v, want 100", s.Performance.AvgProcessingMs)
	}
	if s.Performance.TotalRecordsFetched != 13 || s.Performance.TotalRecordsSaved != 8 {
		t.Errorf("totals = %+v", s.Performance)
	}
}

func TestProgressAverageKeepsSubMillisecondSamples(t *testing.T) {
	p := NewProgress("run-1", 3)
	for _, d := range []time.Duration{400 * time.Microsecond, 500 * time.Microsecond, 600 * time.Microsecond} {
		p.RecordOutcome(Outcome{Symbol: "A", Success: true, Duration: d})
	}
	if got := p.Snapshot().Performance.AvgProcessingMs; got != 0.5 {
		t.Fatalf("avg ms = %v, want 0.5", got)
	}
}

func TestProgressSnapshotBeforeWork(t *testing.T) {
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	p := newProgressAt("run-1", 0, func() time.Time { return now })

	s := p.Snapshot()
	if s.ProgressPercentage != 0 || s.ItemsPerSecond != 0 {
		t.Fatalf("empty snapshot = %+v", s)
	}
	if s.ETA != nil {
		t.Fatalf("eta = %v, want nil", s.ETA)
	}
	if s.Performance.SuccessRatePct != 0 {
		t.Fatalf("success rate = %v, want 0", s.Performance.SuccessRatePct)
	}
}

func TestProgressRecentErrors(t *testing.T) {
	p := NewProgress("run-1", 5)
	for _, s := range []string{"A", "B", "C", "D", "E"} {
		p.RecordError(models.ErrorRecord{Symbol: s})
	}

	got := p.RecentErrors(2)
	if len(got) != 2 || got[0].Symbol != "D" || got[1].Symbol != "E" {
		t.Fatalf("recent = %+v, want D, E", got)
	}
	for _, r := range got {
		if r.Timestamp.IsZero() {
			t.Fatalf("timestamp not filled in for %s", r.Symbol)
		}
	}
	if all := p.RecentErrors(100); len(all) != 5 {
		t.Fatalf("len(all) = %d, want 5", len(all))
	}
}

func TestProgressConcurrentOutcomes(t *testing.T) {
	const n = 200
	p := NewProgress("run-1", n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p.RecordOutcome(Outcome{Success: i%4 != 0, Fetched: 1, Saved: 1})
			_ = p.Snapshot()
		}(i)
	}
	wg.Wait()

	s := p.Snapshot()
	if s.Processed != n || s.Successful+s.Failed != n {
		t.Fatalf("counts = %d (%d+%d), want %d", s.Processed, s.Successful, s.Failed, n)
	}
	if s.Failed != n/4 {
		t.Fatalf("failed = %d, want %d", s.Failed, n/4)
	}
	if s.ProgressPercentage != 100 {
		t.Fatalf("progress = %v, want 100", s.ProgressPercentage)
	}
}
