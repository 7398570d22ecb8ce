package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	symbolsTotal *prometheus.CounterVec
	recordsTotal *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	retriesTotal *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

// New registers the collectors on the default registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the collectors on reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		symbolsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_symbols_processed_total",
				Help: "Symbols that reached a terminal state",
			},
			[]string{"strategy", "success"},
		),
		recordsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_records_total",
				Help: "Records seen per pipeline stage (fetched, invalid, skipped, saved)",
			},
			[]string{"stage"},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_errors_total",
				Help: "Classified errors by class and action taken",
			},
			[]string{"class", "action"},
		),
		retriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_retries_total",
				Help: "Fetch retries scheduled",
			},
			[]string{"class"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ingest_operation_duration_seconds",
				Help:    "Duration of provider and store operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordSymbol(strategy string, success bool) {
	r.symbolsTotal.WithLabelValues(strategy, strconv.FormatBool(success)).Inc()
}

func (r *Recorder) RecordRecords(stage string, n int) {
	if n <= 0 {
		return
	}
	r.recordsTotal.WithLabelValues(stage).Add(float64(n))
}

func (r *Recorder) RecordError(class, action string) {
	r.errorsTotal.WithLabelValues(class, action).Inc()
}

func (r *Recorder) RecordRetry(class string) {
	r.retriesTotal.WithLabelValues(class).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
