package repository

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/domain/models"
)

// batchResults replays one command tag or error per Exec call.
type batchResults struct {
	tags  []string
	errAt int
	err   error
	calls int
}

func (b *batchResults) Exec() (pgconn.CommandTag, error) {
	i := b.calls
	b.calls++
	if b.err != nil && i == b.errAt {
		return pgconn.CommandTag{}, b.err
	}
	return pgconn.NewCommandTag(b.tags[i]), nil
}

func (b *batchResults) Query() (pgx.Rows, error) { return nil, errors.New("not used") }
func (b *batchResults) QueryRow() pgx.Row        { return nil }
func (b *batchResults) Close() error             { return nil }

func TestDrainSplitsSavedAndSkipped(t *testing.T) {
	br := &batchResults{tags: []string{"INSERT 0 1", "INSERT 0 0", "INSERT 0 1", "INSERT 0 0", "INSERT 0 0"}}

	res, err := drain(br, 5)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if res.Saved != 2 || res.Skipped != 3 {
		t.Fatalf("saved/skipped = %d/%d, want 2/3", res.Saved, res.Skipped)
	}
	if br.calls != 5 {
		t.Fatalf("Exec calls = %d, want 5", br.calls)
	}
}

func TestDrainStopsOnError(t *testing.T) {
	br := &batchResults{tags: []string{"INSERT 0 1", "INSERT 0 1", "INSERT 0 1"}, errAt: 1, err: errors.New("unique violation")}

	res, err := drain(br, 3)
	if err == nil {
		t.Fatal("expected the row error")
	}
	if res.Saved != 0 || res.Skipped != 0 {
		t.Fatalf("partial result leaked: %+v", res)
	}
	if br.calls != 2 {
		t.Fatalf("Exec calls = %d, want 2", br.calls)
	}
}

func TestPGInsertIgnoresConflicts(t *testing.T) {
	q := insertSQL(TableFor(models.Interval1d))
	if !strings.Contains(q, "INSERT INTO "+TableFor(models.Interval1d)) || !strings.Contains(q, "ON CONFLICT (symbol, ts) DO NOTHING") {
		t.Fatalf("insert = %s", q)
	}
}

func TestPGStoreEmptyWritesSkipTheDatabase(t *testing.T) {
	s := NewPGStore(nil, nil)

	res, err := s.SaveOne(context.Background(), "A", models.Interval1d, nil)
	if err != nil || res.Saved != 0 || res.Skipped != 0 {
		t.Fatalf("SaveOne(empty) = %+v, %v", res, err)
	}
	batch, err := s.SaveBatch(context.Background(), nil, models.Interval1d)
	if err != nil || len(batch.PerSymbol) != 0 {
		t.Fatalf("SaveBatch(empty) = %+v, %v", batch, err)
	}
}
