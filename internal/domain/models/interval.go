package models

import "fmt"

// Interval is the bar granularity requested from a provider.
type Interval string

const (
	Interval1m  Interval = "1m"
	Interval2m  Interval = "2m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval30m Interval = "30m"
	Interval60m Interval = "60m"
	Interval90m Interval = "90m"
	Interval1h  Interval = "1h"
	Interval1d  Interval = "1d"
	Interval5d  Interval = "5d"
	Interval1wk Interval = "1wk"
	Interval1mo Interval = "1mo"
	Interval3mo Interval = "3mo"
)

// Intervals lists every supported granularity, finest first.
var Intervals = []Interval{
	Interval1m, Interval2m, Interval5m, Interval15m, Interval30m, Interval60m, Interval90m, Interval1h,
	Interval1d, Interval5d, Interval1wk, Interval1mo, Interval3mo,
}

// IsValid reports whether iv is one of the supported granularities.
func (iv Interval) IsValid() bool {
	for _, v := range Intervals {
		if v == iv {
			return true
		}
	}
	return false
}

// IsIntraday is true for minute and hour bars. Their keys keep the time of day.
func (iv Interval) IsIntraday() bool {
	switch iv {
	case Interval1m, Interval2m, Interval5m, Interval15m, Interval30m, Interval60m, Interval90m, Interval1h:
		return true
	default:
		return false
	}
}

// DefaultPeriod is the lookback used when a request does not name one.
// Providers cap intraday history, so finer bars get shorter windows.
func (iv Interval) DefaultPeriod() string {
	switch iv {
	case Interval1m:
		return "7d"
	case Interval2m, Interval5m, Interval15m, Interval30m, Interval90m:
		return "60d"
	case Interval60m, Interval1h:
		return "730d"
	default:
		return "max"
	}
}

// TableSuffix is the per-granularity storage suffix (ohlcv_<suffix>).
// 60m and 1h share a table.
func (iv Interval) TableSuffix() string {
	if iv == Interval60m {
		return string(Interval1h)
	}
	return string(iv)
}

// ParseInterval converts raw input into an Interval.
func ParseInterval(s string) (Interval, error) {
	iv := Interval(s)
	if !iv.IsValid() {
		return "", fmt.Errorf("unsupported interval %q", s)
	}
	return iv, nil
}
