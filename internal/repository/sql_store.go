package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/domain/models"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/domain/repository"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/pkg/logger"
)

// rowsPerInsert caps the VALUES list of one INSERT statement.
const rowsPerInsert = 500

// dialect captures what differs between the database/sql backends.
type dialect struct {
	name string
	// insert is the statement prefix; SQLite ignores conflicting keys itself.
	insert string
	// ignoresConflicts means RowsAffected counts only new rows.
	ignoresConflicts bool
	transactional    bool
	// final is appended to the table in reads (ClickHouse collapses
	// duplicates on merge; FINAL forces it at read time).
	final    string
	ddl      func(table string) string
	keyArg   func(time.Time) interface{}
	keyDest  func() interface{}
	keyValue func(dest interface{}) (time.Time, bool)
}

var clickhouseDialect = dialect{
	name:     "clickhouse",
	insert:   "INSERT INTO",
	final:    " FINAL",
	ddl:      clickhouseDDL,
	keyArg:   func(t time.Time) interface{} { return t.UTC() },
	keyDest:  func() interface{} { return new(time.Time) },
	keyValue: timeKey,
}

var sqliteDialect = dialect{
	name:             "sqlite",
	insert:           "INSERT OR IGNORE INTO",
	ignoresConflicts: true,
	transactional:    true,
	ddl:              sqliteDDL,
	keyArg:           func(t time.Time) interface{} { return t.Unix() },
	keyDest:          func() interface{} { return new(sql.NullInt64) },
	keyValue:         unixKey,
}

func timeKey(dest interface{}) (time.Time, bool) {
	t := *(dest.(*time.Time))
	if t.IsZero() || t.Unix() == 0 {
		return time.Time{}, false
	}
	return t.UTC(), true
}

func unixKey(dest interface{}) (time.Time, bool) {
	n := dest.(*sql.NullInt64)
	if !n.Valid {
		return time.Time{}, false
	}
	return time.Unix(n.Int64, 0).UTC(), true
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// SQLStore is a TimeSeriesStore over database/sql for ClickHouse and SQLite.
type SQLStore struct {
	db  *sql.DB
	d   dialect
	log *logger.Logger
}

// NewClickHouseStore stores into ReplacingMergeTree tables. SaveOne filters
// existing keys before writing; SaveBatch trusts the caller's filtering and
// leaves any remaining duplicates to the merge.
func NewClickHouseStore(db *sql.DB, log *logger.Logger) *SQLStore {
	return newSQLStore(db, clickhouseDialect, log)
}

// NewSQLiteStore stores into tables keyed by (symbol, ts).
func NewSQLiteStore(db *sql.DB, log *logger.Logger) *SQLStore {
	return newSQLStore(db, sqliteDialect, log)
}

func newSQLStore(db *sql.DB, d dialect, log *logger.Logger) *SQLStore {
	if log == nil {
		log = logger.Nop()
	}
	return &SQLStore{db: db, d: d, log: log}
}

// InitSchema creates every per-granularity table.
func (s *SQLStore) InitSchema(ctx context.Context) error {
	for _, t := range tables() {
		if _, err := s.db.ExecContext(ctx, s.d.ddl(t)); err != nil {
			return fmt.Errorf("init schema %s: %w", t, err)
		}
	}
	s.log.Info("schema ready", logger.String("backend", s.d.name), logger.Int("tables", len(tables())))
	return nil
}

func (s *SQLStore) SaveOne(ctx context.Context, symbol string, iv models.Interval, records []models.OHLCVRecord) (repository.SaveResult, error) {
	var res repository.SaveResult
	if len(records) == 0 {
		return res, nil
	}

	if !s.d.ignoresConflicts {
		existing, err := s.ExistingKeys(ctx, symbol, iv)
		if err != nil {
			return res, err
		}
		fresh := make([]models.OHLCVRecord, 0, len(records))
		for _, r := range records {
			if !existing.Has(r.Key) {
				fresh = append(fresh, r)
			}
		}
		res.Skipped = len(records) - len(fresh)
		records = fresh
	}

	var inserted int
	err := s.withTx(ctx, func(ex execer) error {
		var err error
		inserted, err = s.insert(ctx, ex, TableFor(iv), records)
		return err
	})
	if err != nil {
		return repository.SaveResult{}, fmt.Errorf("save %s: %w", symbol, err)
	}

	res.Saved = inserted
	res.Skipped += len(records) - inserted
	return res, nil
}

// SaveBatch writes every symbol in one transaction where the backend has
// them, so a failure leaves nothing behind.
func (s *SQLStore) SaveBatch(ctx context.Context, batch map[string][]models.OHLCVRecord, iv models.Interval) (repository.BatchSaveResult, error) {
	var out repository.BatchSaveResult
	table := TableFor(iv)

	err := s.withTx(ctx, func(ex execer) error {
		for symbol, recs := range batch {
			inserted, err := s.insert(ctx, ex, table, recs)
			if err != nil {
				return fmt.Errorf("save %s: %w", symbol, err)
			}
			out.Add(symbol, repository.SaveResult{Saved: inserted, Skipped: len(recs) - inserted})
		}
		return nil
	})
	if err != nil {
		return repository.BatchSaveResult{}, err
	}
	return out, nil
}

func (s *SQLStore) withTx(ctx context.Context, fn func(execer) error) error {
	if !s.d.transactional {
		return fn(s.db)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// insert writes recs in multi-row statements and returns how many rows are new.
func (s *SQLStore) insert(ctx context.Context, ex execer, table string, recs []models.OHLCVRecord) (int, error) {
	inserted := 0
	for start := 0; start < len(recs); start += rowsPerInsert {
		end := start + rowsPerInsert
		if end > len(recs) {
			end = len(recs)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*7)
		for _, r := range recs[start:end] {
			values = append(values, "(?, ?, ?, ?, ?, ?, ?)")
			args = append(args, r.Symbol, s.d.keyArg(r.Key), r.Open, r.High, r.Low, r.Close, r.Volume)
		}

		q := fmt.Sprintf("%s %s (symbol, ts, open, high, low, close, volume) VALUES %s",
			s.d.insert, table, strings.Join(values, ","))
		result, err := ex.ExecContext(ctx, q, args...)
		if err != nil {
			return inserted, err
		}

		if s.d.ignoresConflicts {
			n, err := result.RowsAffected()
			if err != nil {
				return inserted, err
			}
			inserted += int(n)
		} else {
			inserted += end - start
		}
	}
	return inserted, nil
}

func (s *SQLStore) CountRecords(ctx context.Context, symbol string, iv models.Interval) (int, error) {
	q := fmt.Sprintf("SELECT count(*) FROM %s%s WHERE symbol = ?", TableFor(iv), s.d.final)
	var n int64
	if err := s.db.QueryRowContext(ctx, q, symbol).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", symbol, err)
	}
	return int(n), nil
}

func (s *SQLStore) LatestKey(ctx context.Context, symbol string, iv models.Interval) (time.Time, bool, error) {
	q := fmt.Sprintf("SELECT max(ts) FROM %s%s WHERE symbol = ?", TableFor(iv), s.d.final)
	dest := s.d.keyDest()
	if err := s.db.QueryRowContext(ctx, q, symbol).Scan(dest); err != nil {
		return time.Time{}, false, fmt.Errorf("latest key %s: %w", symbol, err)
	}
	t, ok := s.d.keyValue(dest)
	return t, ok, nil
}

func (s *SQLStore) ExistingKeys(ctx context.Context, symbol string, iv models.Interval) (models.KeySet, error) {
	q := fmt.Sprintf("SELECT ts FROM %s%s WHERE symbol = ?", TableFor(iv), s.d.final)
	rows, err := s.db.QueryContext(ctx, q, symbol)
	if err != nil {
		return nil, fmt.Errorf("existing keys %s: %w", symbol, err)
	}
	defer rows.Close()

	keys := make(models.KeySet)
	for rows.Next() {
		dest := s.d.keyDest()
		if err := rows.Scan(dest); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		if t, ok := s.d.keyValue(dest); ok {
			keys.Add(t)
		}
	}
	return keys, rows.Err()
}

func (s *SQLStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op; the pool belongs to the client that opened it.
func (s *SQLStore) Close() error {
	return nil
}

var _ repository.TimeSeriesStore = (*SQLStore)(nil)
