package usecase

import (
	"math"

	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/domain/models"
)

// Converter turns raw provider tables into validated records.
type Converter struct{}

// ToRecords drops rows that break the OHLCV invariants and returns how many
// were dropped. Volume that is missing is stored as zero.
func (Converter) ToRecords(t *models.Table, iv models.Interval) ([]models.OHLCVRecord, int) {
	if t.Empty() {
		return nil, 0
	}

	out := make([]models.OHLCVRecord, 0, len(t.Rows))
	invalid := 0
	for _, row := range t.Rows {
		if row.Time.IsZero() {
			invalid++
			continue
		}
		vol := row.Volume
		if math.IsNaN(vol) {
			vol = 0
		}
		if math.IsInf(vol, 0) || vol < 0 || vol > math.MaxInt64 {
			invalid++
			continue
		}

		rec := models.OHLCVRecord{
			Symbol: t.Symbol,
			Key:    models.NormalizeKey(row.Time, iv),
			Open:   row.Open,
			High:   row.High,
			Low:    row.Low,
			Close:  row.Close,
			Volume: int64(vol),
		}
		if !rec.Valid() {
			invalid++
			continue
		}
		out = append(out, rec)
	}
	return out, invalid
}

// ExtractSummaryFacts reports the latest close and the key range of a table.
// Rows with a NaN close are ignored.
func (Converter) ExtractSummaryFacts(t *models.Table) models.SummaryFacts {
	var f models.SummaryFacts
	if t.Empty() {
		return f
	}
	for _, row := range t.Rows {
		if math.IsNaN(row.Close) || row.Time.IsZero() {
			continue
		}
		f.RecordCount++
		if f.From.IsZero() || row.Time.Before(f.From) {
			f.From = row.Time
		}
		if row.Time.After(f.To) || row.Time.Equal(f.To) {
			f.To = row.Time
			f.LatestKey = row.Time
			f.LatestClose = row.Close
		}
	}
	return f
}

// SplitByPosition attributes batch groups to the requested symbols.
// Symbols the provider did not return map to an empty table. A single
// ungrouped table is attributed to a single requested symbol.
func (Converter) SplitByPosition(b *models.BatchTable, symbols []string) map[string]*models.Table {
	out := make(map[string]*models.Table, len(symbols))
	for _, s := range symbols {
		out[s] = &models.Table{Symbol: s}
	}
	if b == nil {
		return out
	}

	if len(symbols) == 1 && len(b.Groups) == 1 && len(b.Symbols) == 0 {
		g := b.Groups[0]
		out[symbols[0]] = &models.Table{Symbol: symbols[0], Rows: g.Rows}
		return out
	}

	for i, s := range b.Symbols {
		if i >= len(b.Groups) {
			break
		}
		if _, requested := out[s]; !requested {
			continue
		}
		out[s] = &models.Table{Symbol: s, Rows: b.Groups[i].Rows}
	}
	return out
}
