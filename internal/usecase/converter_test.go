package usecase

import (
	"math"
	"testing"
	"time"

	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/domain/models"
)

func row(ts time.Time, o, h, l, c, v float64) models.Row {
	return models.Row{Time: ts, Open: o, High: h, Low: l, Close: c, Volume: v}
}

func TestToRecordsDropsInvalidRows(t *testing.T) {
	d := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	table := &models.Table{Symbol: "7203.T", Rows: []models.Row{
		row(d, 10, 12, 9, 11, 100),
		row(d.AddDate(0, 0, 1), math.NaN(), 12, 9, 11, 100),
		row(d.AddDate(0, 0, 2), 10, 9, 11, 10, 100), // high < low
		row(d.AddDate(0, 0, 3), 10, 12, 9, 11, -5),
		row(time.Time{}, 10, 12, 9, 11, 100),
		row(d.AddDate(0, 0, 5), 10, 12, 9, 11, math.NaN()),
		row(d.AddDate(0, 0, 6), 0, 12, 9, 11, 100),
	}}

	recs, invalid := Converter{}.ToRecords(table, models.Interval1d)
	if len(recs) != 2 || invalid != 5 {
		t.Fatalf("got %d records, %d invalid; want 2, 5", len(recs), invalid)
	}
	if recs[1].Volume != 0 {
		t.Errorf("missing volume = %d, want 0", recs[1].Volume)
	}
	for _, r := range recs {
		if r.Symbol != "7203.T" || !r.Valid() {
			t.Errorf("bad record %+v", r)
		}
	}
}

func TestToRecordsKeyFollowsInterval(t *testing.T) {
	jst := time.FixedZone("JST", 9*3600)
	ts := time.Date(2024, 1, 2, 15, 30, 0, 0, jst)
	table := &models.Table{Symbol: "7203.T", Rows: []models.Row{row(ts, 10, 12, 9, 11, 1)}}

	daily, _ := Converter{}.ToRecords(table, models.Interval1d)
	if want := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC); !daily[0].Key.Equal(want) {
		t.Errorf("daily key = %v, want %v", daily[0].Key, want)
	}

	hourly, _ := Converter{}.ToRecords(table, models.Interval1h)
	if !hourly[0].Key.Equal(ts) || hourly[0].Key.Location() != time.UTC {
		t.Errorf("intraday key = %v, want %v in UTC", hourly[0].Key, ts.UTC())
	}
}

func TestToRecordsEmpty(t *testing.T) {
	recs, invalid := Converter{}.ToRecords(nil, models.Interval1d)
	if recs != nil || invalid != 0 {
		t.Fatalf("nil table gave %v, %d", recs, invalid)
	}
	recs, invalid = Converter{}.ToRecords(&models.Table{Symbol: "X"}, models.Interval1d)
	if len(recs) != 0 || invalid != 0 {
		t.Fatalf("empty table gave %v, %d", recs, invalid)
	}
}

func TestExtractSummaryFacts(t *testing.T) {
	d := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	table := &models.Table{Symbol: "X", Rows: []models.Row{
		row(d.AddDate(0, 0, 1), 10, 12, 9, 11, 1),
		row(d, 10, 12, 9, 10, 1),
		row(d.AddDate(0, 0, 3), 10, 12, 9, math.NaN(), 1),
		row(d.AddDate(0, 0, 2), 10, 12, 9, 12, 1),
	}}

	f := Converter{}.ExtractSummaryFacts(table)
	if f.RecordCount != 3 {
		t.Errorf("count = %d, want 3", f.RecordCount)
	}
	if !f.From.Equal(d) || !f.To.Equal(d.AddDate(0, 0, 2)) {
		t.Errorf("range = %v..%v", f.From, f.To)
	}
	if f.LatestClose != 12 || !f.LatestKey.Equal(d.AddDate(0, 0, 2)) {
		t.Errorf("latest = %v at %v", f.LatestClose, f.LatestKey)
	}

	if empty := (Converter{}).ExtractSummaryFacts(nil); empty.RecordCount != 0 {
		t.Errorf("nil table count = %d", empty.RecordCount)
	}
}

func TestSplitByPosition(t *testing.T) {
	d := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	one := []models.Row{row(d, 10, 12, 9, 11, 1)}
	two := []models.Row{row(d, 10, 12, 9, 11, 1), row(d.AddDate(0, 0, 1), 10, 12, 9, 11, 1)}

	t.Run("missing symbol maps to empty table", func(t *testing.T) {
		b := &models.BatchTable{
			Symbols: []string{"A", "C", "Z"},
			Groups:  []models.Table{{Rows: one}, {Rows: two}, {Rows: one}},
		}
		got := Converter{}.SplitByPosition(b, []string{"A", "B", "C"})
		if len(got) != 3 {
			t.Fatalf("len = %d, want 3", len(got))
		}
		if len(got["A"].Rows) != 1 || len(got["C"].Rows) != 2 {
			t.Errorf("A/C rows = %d/%d", len(got["A"].Rows), len(got["C"].Rows))
		}
		if !got["B"].Empty() || got["B"].Symbol != "B" {
			t.Errorf("B = %+v, want empty table", got["B"])
		}
		if _, ok := got["Z"]; ok {
			t.Errorf("unrequested symbol Z in result")
		}
	})

	t.Run("single ungrouped table", func(t *testing.T) {
		b := &models.BatchTable{Groups: []models.Table{{Rows: two}}}
		got := Converter{}.SplitByPosition(b, []string{"A"})
		if len(got["A"].Rows) != 2 {
			t.Errorf("A rows = %d, want 2", len(got["A"].Rows))
		}
	})

	t.Run("short groups", func(t *testing.T) {
		b := &models.BatchTable{Symbols: []string{"A", "B"}, Groups: []models.Table{{Rows: one}}}
		got := Converter{}.SplitByPosition(b, []string{"A", "B"})
		if len(got["A"].Rows) != 1 || !got["B"].Empty() {
			t.Errorf("got A=%d B=%d rows", len(got["A"].Rows), len(got["B"].Rows))
		}
	})

	t.Run("nil batch", func(t *testing.T) {
		got := Converter{}.SplitByPosition(nil, []string{"A"})
		if !got["A"].Empty() {
			t.Errorf("A not empty")
		}
	})
}
