package server

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/domain/models"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/service/progress"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/testutil"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/usecase"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/pkg/config"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/pkg/logger"
)

func newTestApp(t *testing.T) (*App, *bytes.Buffer) {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	log := logger.Nop()
	orch := usecase.NewOrchestrator(&testutil.Client{Bars: 3}, testutil.NewStore(),
		usecase.WithOptions(usecase.Options{PacingDelay: 0}))
	reg := usecase.NewRegistry()
	sink := progress.NewLogSink(log)
	job := usecase.NewIngestJob(orch, reg, sink.Progress, nil, log)

	app := New(cfg, log, orch, reg, job, sink, nil, nil)
	var out bytes.Buffer
	app.SetOutput(&out)
	return app, &out
}

func TestParseMode(t *testing.T) {
	for _, s := range []string{"once", "worker", "enqueue"} {
		if m, err := ParseMode(s); err != nil || string(m) != s {
			t.Errorf("ParseMode(%q) = %q, %v", s, m, err)
		}
	}
	if _, err := ParseMode("daemon"); err == nil {
		t.Error("ParseMode(daemon) succeeded")
	}
}

func TestIngestRequestFromConfig(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Ingest.Symbols = []string{"7203.T"}
	cfg.Ingest.Period = "1y"

	req := IngestRequest(cfg)
	if len(req.Symbols) != 1 || req.Interval != models.Interval1d || req.Period != "1y" {
		t.Fatalf("request = %+v", req)
	}
	if req.Strategy != models.StrategyChunked || req.ChunkSize != 100 {
		t.Fatalf("strategy/chunk = %s/%d", req.Strategy, req.ChunkSize)
	}
}

func TestRunOncePrintsSummary(t *testing.T) {
	app, out := newTestApp(t)

	err := app.Run(context.Background(), ModeOnce, models.Request{Symbols: []string{"A", "B"}, Interval: models.Interval1d})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	var s models.BatchSummary
	if err := json.Unmarshal(out.Bytes(), &s); err != nil {
		t.Fatalf("decode summary: %v\n%s", err, out.String())
	}
	if s.Progress.Successful != 2 || s.Saved != 6 {
		t.Fatalf("summary successful/saved = %d/%d", s.Progress.Successful, s.Saved)
	}
}

func TestRunOnceRejectsInvalidRequest(t *testing.T) {
	app, _ := newTestApp(t)
	if err := app.Run(context.Background(), ModeOnce, models.Request{Interval: models.Interval1d}); err == nil {
		t.Fatal("Run accepted a request without symbols")
	}
}

func TestDescribeAfterRun(t *testing.T) {
	app, out := newTestApp(t)
	ctx := context.Background()
	if _, err := app.RunOnce(ctx, models.Request{Symbols: []string{"A"}, Interval: models.Interval1d}); err != nil {
		t.Fatal(err)
	}
	out.Reset()

	if err := app.Describe(ctx, []string{"A", "B"}, models.Interval1d); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("describe output = %q", out.String())
	}
	if f := strings.Fields(lines[0]); f[0] != "A" || f[1] != "3" || f[2] != "2024-01-03T00:00:00Z" {
		t.Errorf("A line = %q", lines[0])
	}
	if f := strings.Fields(lines[1]); f[0] != "B" || f[1] != "0" || f[2] != "-" {
		t.Errorf("B line = %q", lines[1])
	}
}

func TestQueueModesNeedRedis(t *testing.T) {
	app, _ := newTestApp(t)
	if _, err := app.Enqueue(context.Background(), models.Request{Symbols: []string{"A"}, Interval: models.Interval1d}); err == nil {
		t.Error("Enqueue without a queue succeeded")
	}
	if err := app.Work(context.Background()); err == nil {
		t.Error("Work without a queue succeeded")
	}
}
