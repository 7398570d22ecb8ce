package models

import "time"

// Strategy selects how a batch is executed.
type Strategy string

const (
	StrategyChunked  Strategy = "chunked"
	StrategyParallel Strategy = "parallel"
)

// Request is a caller's ingest request. Zero-valued tuning fields fall back
// to the orchestrator's configured options.
type Request struct {
	Symbols    []string `json:"symbols" validate:"min=1,dive,required"`
	Interval   Interval `json:"interval" validate:"required,oneof=1m 2m 5m 15m 30m 60m 90m 1h 1d 5d 1wk 1mo 3mo"`
	Period     string   `json:"period,omitempty"`
	ChunkSize  int      `json:"chunk_size,omitempty" validate:"gte=0,lte=1000"`
	MaxWorkers int      `json:"max_workers,omitempty" validate:"gte=0,lte=64"`
	MaxRetries int      `json:"max_retries,omitempty" validate:"gte=0,lte=10"`
	Strategy   Strategy `json:"strategy,omitempty" validate:"omitempty,oneof=chunked parallel"`
}

// WorkUnit is the (symbol, interval, period) triple a run partitions into.
type WorkUnit struct {
	Symbol     string
	Interval   Interval
	Period     string
	ChunkIndex int
}

// Classification is the retryability class of an error.
type Classification string

const (
	Transient Classification = "TRANSIENT"
	Permanent Classification = "PERMANENT"
	Fatal     Classification = "FATAL"
)

// Action is what the retry policy decided for a failed attempt.
type Action string

const (
	ActionRetry Action = "RETRY"
	ActionSkip  Action = "SKIP"
	ActionAbort Action = "ABORT"
)

// ErrorRecord is one entry in a run's error log.
type ErrorRecord struct {
	Timestamp     time.Time      `json:"timestamp"`
	Symbol        string         `json:"symbol"`
	ErrorKind     Classification `json:"error_kind"`
	ExceptionName string         `json:"exception_name"`
	AttemptCount  int            `json:"attempt_count"`
	ActionTaken   Action         `json:"action_taken"`
	ErrorCode     string         `json:"error_code,omitempty"`
	Details       string         `json:"details,omitempty"`
}

type Throughput struct {
	ItemsPerMinute   float64 `json:"items_per_minute"`
	RecordsPerMinute float64 `json:"records_per_minute"`
}

type Performance struct {
	SuccessRatePct      float64 `json:"success_rate_pct"`
	AvgProcessingMs     float64 `json:"avg_processing_ms"`
	TotalRecordsFetched int64   `json:"total_records_fetched"`
	TotalRecordsSaved   int64   `json:"total_records_saved"`
}

// ProgressSnapshot is a point-in-time copy of a run's counters.
type ProgressSnapshot struct {
	RunID              string      `json:"run_id"`
	Total              int         `json:"total"`
	Processed          int         `json:"processed"`
	Successful         int         `json:"successful"`
	Failed             int         `json:"failed"`
	ProgressPercentage float64     `json:"progress_percentage"`
	ElapsedSeconds     float64     `json:"elapsed_seconds"`
	ItemsPerSecond     float64     `json:"items_per_second"`
	ETA                *time.Time  `json:"eta,omitempty"`
	Throughput         Throughput  `json:"throughput"`
	Performance        Performance `json:"performance"`
}

// SymbolResult is the per-symbol outcome reported in a summary.
type SymbolResult struct {
	Symbol     string         `json:"symbol"`
	Success    bool           `json:"success"`
	Attempts   int            `json:"attempts"`
	Fetched    int            `json:"fetched"`
	Invalid    int            `json:"invalid"`
	Saved      int            `json:"saved"`
	Skipped    int            `json:"skipped"`
	DurationMs float64        `json:"duration_ms"`
	ErrorKind  Classification `json:"error_kind,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// BatchSummary is the final report of a run.
type BatchSummary struct {
	RunID      string           `json:"run_id"`
	Strategy   Strategy         `json:"strategy"`
	Interval   Interval         `json:"interval"`
	Period     string           `json:"period"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Stopped    bool             `json:"stopped"`
	Aborted    bool             `json:"aborted"`
	Progress   ProgressSnapshot `json:"progress"`
	Results    []SymbolResult   `json:"results"`
	Errors     []ErrorRecord    `json:"errors"`
	Downloaded int64            `json:"downloaded"`
	Saved      int64            `json:"saved"`
	Skipped    int64            `json:"skipped"`
	Invalid    int64            `json:"invalid"`
}
