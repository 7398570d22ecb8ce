package models

import (
	"math"
	"time"
)

// Row is one raw bar as returned by a provider. Missing values are NaN.
type Row struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Table is the raw provider output for a single symbol.
type Table struct {
	Symbol string
	Rows   []Row
}

// Empty reports whether the table carries no rows.
func (t *Table) Empty() bool {
	return t == nil || len(t.Rows) == 0
}

// BatchTable is a multi-symbol provider response. Groups[i] belongs to
// Symbols[i]; attribution is positional. Errors, when set, is aligned the
// same way and holds the failure of a symbol whose group is empty.
type BatchTable struct {
	Symbols []string
	Groups  []Table
	Errors  []error
}

// Err returns the failure the provider recorded for symbol, or nil.
func (b *BatchTable) Err(symbol string) error {
	if b == nil {
		return nil
	}
	for i, s := range b.Symbols {
		if s == symbol && i < len(b.Errors) {
			return b.Errors[i]
		}
	}
	return nil
}

// OHLCVRecord is a validated, storage-ready bar.
type OHLCVRecord struct {
	Symbol string    `json:"symbol"`
	Key    time.Time `json:"key"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Valid checks the price and volume invariants of a bar.
func (r OHLCVRecord) Valid() bool {
	for _, p := range []float64{r.Open, r.High, r.Low, r.Close} {
		if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
			return false
		}
	}
	if r.High < math.Max(math.Max(r.Open, r.Close), r.Low) {
		return false
	}
	if r.Low > math.Min(math.Min(r.Open, r.Close), r.High) {
		return false
	}
	return r.Volume >= 0
}

// KeySet is the set of temporal keys already persisted for a symbol.
type KeySet map[time.Time]struct{}

// Has reports whether k is in the set.
func (ks KeySet) Has(k time.Time) bool {
	_, ok := ks[k.UTC()]
	return ok
}

// Add inserts k normalized to UTC.
func (ks KeySet) Add(k time.Time) {
	ks[k.UTC()] = struct{}{}
}

// NormalizeKey maps a bar time onto the temporal key for the interval:
// a UTC instant for intraday bars, UTC midnight of the bar's date otherwise.
func NormalizeKey(t time.Time, iv Interval) time.Time {
	if iv.IsIntraday() {
		return t.UTC()
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SummaryFacts are the few figures the converter extracts from a table for logging.
type SummaryFacts struct {
	LatestClose float64   `json:"latest_close"`
	LatestKey   time.Time `json:"latest_key"`
	RecordCount int       `json:"record_count"`
	From        time.Time `json:"from"`
	To          time.Time `json:"to"`
}
