package util

import (
	"strconv"
	"testing"
	"time"
)

func TestPeriodStart(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		period string
		want   time.Time
	}{
		{"7d", time.Date(2024, 6, 8, 12, 0, 0, 0, time.UTC)},
		{"60d", time.Date(2024, 4, 16, 12, 0, 0, 0, time.UTC)},
		{"2wk", time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)},
		{"3mo", time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)},
		{"1y", time.Date(2023, 6, 15, 12, 0, 0, 0, time.UTC)},
		{"ytd", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"max", time.Unix(0, 0).UTC()},
	}
	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			got, err := PeriodStart(now, tt.period)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("PeriodStart(%q) = %v, want %v", tt.period, got, tt.want)
			}
		})
	}
}

func TestPeriodStartAbsolute(t *testing.T) {
	got, err := PeriodStart(time.Now(), "2020-03-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("PeriodStart = %v, want %v", got, want)
	}
}

func TestPeriodStartInvalid(t *testing.T) {
	for _, p := range []string{"", "abc", "0d", "-3mo", "5x"} {
		if _, err := PeriodStart(time.Now(), p); err == nil {
			t.Errorf("PeriodStart(%q) expected error", p)
		}
	}
}

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeDate(t *testing.T) {
	got, ok := ParseTime("2024-10-10")
	if !ok || got.Day() != 10 {
		t.Fatalf("unexpected %v %v", got, ok)
	}
}
