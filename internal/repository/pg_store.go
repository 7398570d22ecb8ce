package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/domain/models"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/domain/repository"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/pkg/logger"
)

// PGStore is a TimeSeriesStore on Postgres/TimescaleDB. Rows are inserted
// with ON CONFLICT DO NOTHING and conflicts are counted as skipped.
type PGStore struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

func NewPGStore(pool *pgxpool.Pool, log *logger.Logger) *PGStore {
	if log == nil {
		log = logger.Nop()
	}
	return &PGStore{pool: pool, log: log}
}

func (s *PGStore) InitSchema(ctx context.Context) error {
	for _, t := range tables() {
		if _, err := s.pool.Exec(ctx, postgresDDL(t)); err != nil {
			return fmt.Errorf("init schema %s: %w", t, err)
		}
	}
	s.log.Info("schema ready", logger.String("backend", "postgres"), logger.Int("tables", len(tables())))
	return nil
}

func insertSQL(table string) string {
	return fmt.Sprintf(`INSERT INTO %s (symbol, ts, open, high, low, close, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (symbol, ts) DO NOTHING`, table)
}

func queue(b *pgx.Batch, q string, recs []models.OHLCVRecord) {
	for _, r := range recs {
		b.Queue(q, r.Symbol, r.Key.UTC(), r.Open, r.High, r.Low, r.Close, r.Volume)
	}
}

// drain reads one result per record and splits them into saved and skipped.
func drain(br pgx.BatchResults, n int) (repository.SaveResult, error) {
	var res repository.SaveResult
	for i := 0; i < n; i++ {
		ct, err := br.Exec()
		if err != nil {
			return repository.SaveResult{}, err
		}
		if ct.RowsAffected() == 0 {
			res.Skipped++
		} else {
			res.Saved++
		}
	}
	return res, nil
}

func (s *PGStore) SaveOne(ctx context.Context, symbol string, iv models.Interval, records []models.OHLCVRecord) (repository.SaveResult, error) {
	if len(records) == 0 {
		return repository.SaveResult{}, nil
	}

	b := &pgx.Batch{}
	queue(b, insertSQL(TableFor(iv)), records)

	br := s.pool.SendBatch(ctx, b)
	res, err := drain(br, len(records))
	if cerr := br.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		return repository.SaveResult{}, fmt.Errorf("save %s: %w", symbol, err)
	}
	return res, nil
}

// SaveBatch sends every symbol's rows as one batch inside one transaction.
func (s *PGStore) SaveBatch(ctx context.Context, batch map[string][]models.OHLCVRecord, iv models.Interval) (repository.BatchSaveResult, error) {
	var out repository.BatchSaveResult
	if len(batch) == 0 {
		return out, nil
	}

	q := insertSQL(TableFor(iv))
	b := &pgx.Batch{}
	order := make([]string, 0, len(batch))
	for symbol, recs := range batch {
		order = append(order, symbol)
		queue(b, q, recs)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return out, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	br := tx.SendBatch(ctx, b)
	for _, symbol := range order {
		res, err := drain(br, len(batch[symbol]))
		if err != nil {
			_ = br.Close()
			return repository.BatchSaveResult{}, fmt.Errorf("save %s: %w", symbol, err)
		}
		out.Add(symbol, res)
	}
	if err := br.Close(); err != nil {
		return repository.BatchSaveResult{}, fmt.Errorf("close batch: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return repository.BatchSaveResult{}, fmt.Errorf("commit: %w", err)
	}
	return out, nil
}

func (s *PGStore) CountRecords(ctx context.Context, symbol string, iv models.Interval) (int, error) {
	var n int64
	q := fmt.Sprintf("SELECT count(*) FROM %s WHERE symbol = $1", TableFor(iv))
	if err := s.pool.QueryRow(ctx, q, symbol).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", symbol, err)
	}
	return int(n), nil
}

func (s *PGStore) LatestKey(ctx context.Context, symbol string, iv models.Interval) (time.Time, bool, error) {
	var ts time.Time
	q := fmt.Sprintf("SELECT ts FROM %s WHERE symbol = $1 ORDER BY ts DESC LIMIT 1", TableFor(iv))
	err := s.pool.QueryRow(ctx, q, symbol).Scan(&ts)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("latest key %s: %w", symbol, err)
	}
	return ts.UTC(), true, nil
}

func (s *PGStore) ExistingKeys(ctx context.Context, symbol string, iv models.Interval) (models.KeySet, error) {
	q := fmt.Sprintf("SELECT ts FROM %s WHERE symbol = $1", TableFor(iv))
	rows, err := s.pool.Query(ctx, q, symbol)
	if err != nil {
		return nil, fmt.Errorf("existing keys %s: %w", symbol, err)
	}
	defer rows.Close()

	keys := make(models.KeySet)
	for rows.Next() {
		var ts time.Time
		if err := rows.Scan(&ts); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys.Add(ts)
	}
	return keys, rows.Err()
}

func (s *PGStore) Health(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PGStore) Close() error {
	s.pool.Close()
	return nil
}

var _ repository.TimeSeriesStore = (*PGStore)(nil)
