package usecase

import (
	"sync"
	"time"

	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/domain/models"
)

// Outcome is one finished unit as reported to the Progress tracker.
// Duration of zero means no sample was taken.
type Outcome struct {
	Symbol       string
	Success      bool
	Duration     time.Duration
	Fetched      int
	Saved        int
	ErrorMessage string
}

// Progress holds a run's counters and error log behind a single mutex.
type Progress struct {
	mu sync.Mutex

	runID      string
	total      int
	processed  int
	successful int
	failed     int

	recordsFetched int64
	recordsSaved   int64
	durationSum    time.Duration
	durationCount  int

	errors    []models.ErrorRecord
	startedAt time.Time
	now       func() time.Time
}

func NewProgress(runID string, total int) *Progress {
	return newProgressAt(runID, total, time.Now)
}

func newProgressAt(runID string, total int, now func() time.Time) *Progress {
	return &Progress{runID: runID, total: total, startedAt: now(), now: now}
}

// RecordOutcome folds one unit into the counters.
func (p *Progress) RecordOutcome(o Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.processed++
	if o.Success {
		p.successful++
		if o.Duration > 0 {
			p.durationSum += o.Duration
			p.durationCount++
		}
	} else {
		p.failed++
	}
	p.recordsFetched += int64(o.Fetched)
	p.recordsSaved += int64(o.Saved)
}

// RecordError appends to the error log.
func (p *Progress) RecordError(rec models.ErrorRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if rec.Timestamp.IsZero() {
		rec.Timestamp = p.now()
	}
	p.errors = append(p.errors, rec)
}

// RecentErrors returns up to n of the newest error records, oldest first.
func (p *Progress) RecentErrors(n int) []models.ErrorRecord {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := 0
	if n >= 0 && len(p.errors) > n {
		start = len(p.errors) - n
	}
	out := make([]models.ErrorRecord, len(p.errors)-start)
	copy(out, p.errors[start:])
	return out
}

// Snapshot derives rates and ETA from the current counters.
func (p *Progress) Snapshot() models.ProgressSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	elapsed := now.Sub(p.startedAt).Seconds()

	s := models.ProgressSnapshot{
		RunID:          p.runID,
		Total:          p.total,
		Processed:      p.processed,
		Successful:     p.successful,
		Failed:         p.failed,
		ElapsedSeconds: elapsed,
	}
	if p.total > 0 {
		s.ProgressPercentage = float64(p.processed) / float64(p.total) * 100
	}
	if elapsed > 0 {
		s.ItemsPerSecond = float64(p.processed) / elapsed
		s.Throughput.ItemsPerMinute = s.ItemsPerSecond * 60
		s.Throughput.RecordsPerMinute = float64(p.recordsSaved) / elapsed * 60
	}
	if s.ItemsPerSecond > 0 {
		remaining := p.total - p.processed
		if remaining < 0 {
			remaining = 0
		}
		eta := now.Add(time.Duration(float64(remaining) / s.ItemsPerSecond * float64(time.Second)))
		s.ETA = &eta
	}
	if p.processed > 0 {
		s.Performance.SuccessRatePct = float64(p.successful) / float64(p.processed) * 100
	}
	if p.durationCount > 0 {
		s.Performance.AvgProcessingMs = float64(p.durationSum) / float64(time.Millisecond) / float64(p.durationCount)
	}
	s.Performance.TotalRecordsFetched = p.recordsFetched
	s.Performance.TotalRecordsSaved = p.recordsSaved
	return s
}
