package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PeriodStart resolves a lookback period such as "7d", "60d", "3mo", "2y",
// "ytd" or "max" against now. "max" returns the Unix epoch. An absolute
// start accepted by ParseTime is returned as is.
func PeriodStart(now time.Time, period string) (time.Time, error) {
	now = now.UTC()
	p := strings.ToLower(strings.TrimSpace(period))
	switch p {
	case "max":
		return time.Unix(0, 0).UTC(), nil
	case "ytd":
		return time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC), nil
	}

	for _, u := range []string{"wk", "mo", "d", "y"} {
		if !strings.HasSuffix(p, u) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(p, u))
		if err != nil || n <= 0 {
			return time.Time{}, fmt.Errorf("invalid period %q", period)
		}
		switch u {
		case "d":
			return now.AddDate(0, 0, -n), nil
		case "wk":
			return now.AddDate(0, 0, -7*n), nil
		case "mo":
			return now.AddDate(0, -n, 0), nil
		default:
			return now.AddDate(-n, 0, 0), nil
		}
	}
	if t, ok := ParseTime(period); ok {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid period %q", period)
}

// ParseTime tries RFC3339, RFC3339Nano, a plain date and unix seconds.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}
