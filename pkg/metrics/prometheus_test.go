package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderCounters(t *testing.T) {
	r := NewWithRegistry(prometheus.NewRegistry())

	r.RecordSymbol("chunked", true)
	r.RecordSymbol("chunked", true)
	r.RecordSymbol("chunked", false)
	r.RecordRecords("saved", 120)
	r.RecordRecords("saved", 0)
	r.RecordError("TRANSIENT", "RETRY")
	r.RecordRetry("TRANSIENT")

	if got := testutil.ToFloat64(r.symbolsTotal.WithLabelValues("chunked", "true")); got != 2 {
		t.Errorf("successful symbols = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.symbolsTotal.WithLabelValues("chunked", "false")); got != 1 {
		t.Errorf("failed symbols = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.recordsTotal.WithLabelValues("saved")); got != 120 {
		t.Errorf("saved records = %v, want 120", got)
	}
	if got := testutil.ToFloat64(r.errorsTotal.WithLabelValues("TRANSIENT", "RETRY")); got != 1 {
		t.Errorf("errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.retriesTotal.WithLabelValues("TRANSIENT")); got != 1 {
		t.Errorf("retries = %v, want 1", got)
	}
}
