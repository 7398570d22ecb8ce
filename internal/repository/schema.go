package repository

import (
	"fmt"

	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/domain/models"
)

const tablePrefix = "ohlcv_"

// TableFor is the per-granularity table name.
func TableFor(iv models.Interval) string {
	return tablePrefix + iv.TableSuffix()
}

// tables lists every distinct table, one per granularity.
func tables() []string {
	seen := make(map[string]bool)
	var out []string
	for _, iv := range models.Intervals {
		t := TableFor(iv)
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

func clickhouseDDL(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	symbol      LowCardinality(String),
	ts          DateTime64(3, 'UTC'),
	open        Float64,
	high        Float64,
	low         Float64,
	close       Float64,
	volume      Int64,
	ingested_at DateTime DEFAULT now()
) ENGINE = ReplacingMergeTree(ingested_at)
ORDER BY (symbol, ts)`, table)
}

func sqliteDDL(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	symbol TEXT    NOT NULL,
	ts     INTEGER NOT NULL,
	open   REAL    NOT NULL,
	high   REAL    NOT NULL,
	low    REAL    NOT NULL,
	close  REAL    NOT NULL,
	volume INTEGER NOT NULL,
	PRIMARY KEY (symbol, ts)
) WITHOUT ROWID`, table)
}

func postgresDDL(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	symbol TEXT             NOT NULL,
	ts     TIMESTAMPTZ      NOT NULL,
	open   DOUBLE PRECISION NOT NULL,
	high   DOUBLE PRECISION NOT NULL,
	low    DOUBLE PRECISION NOT NULL,
	close  DOUBLE PRECISION NOT NULL,
	volume BIGINT           NOT NULL,
	PRIMARY KEY (symbol, ts)
)`, table)
}
