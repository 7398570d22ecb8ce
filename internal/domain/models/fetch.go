package models

// FetchResult is the outcome of acquiring records for one symbol: either
// records or the error that prevented them, never both.
type FetchResult struct {
	Symbol string
	// Rows is how many rows the provider returned; Invalid how many of them
	// failed validation.
	Rows    int
	Invalid int

	records []OHLCVRecord
	err     error
}

// Fetched builds a successful result.
func Fetched(symbol string, records []OHLCVRecord) FetchResult {
	return FetchResult{Symbol: symbol, records: records}
}

// FetchFailed builds a failed result.
func FetchFailed(symbol string, err error) FetchResult {
	return FetchResult{Symbol: symbol, err: err}
}

func (r FetchResult) OK() bool               { return r.err == nil }
func (r FetchResult) Records() []OHLCVRecord { return r.records }
func (r FetchResult) Err() error             { return r.err }

func (r FetchResult) Reason() string {
	if r.err == nil {
		return ""
	}
	return r.err.Error()
}
