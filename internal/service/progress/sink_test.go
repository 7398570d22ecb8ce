package progress

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/domain/models"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/usecase"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/pkg/cache"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/pkg/kafka"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/pkg/logger"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/pkg/progress"
)

type recordingWriter struct {
	msgs []kafkago.Message
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

type failingSink struct{}

func (failingSink) Progress(string) usecase.ProgressFunc {
	return func(models.ProgressSnapshot) {}
}

func (failingSink) PublishSummary(context.Context, *models.BatchSummary) error {
	return errors.New("sink down")
}

func snapshot(processed int) models.ProgressSnapshot {
	return models.ProgressSnapshot{
		RunID:              "run-1",
		Total:              4,
		Processed:          processed,
		Successful:         processed,
		ProgressPercentage: float64(processed) * 25,
	}
}

func TestRedisSinkStoresLatestSnapshotAndSummary(t *testing.T) {
	ctx := context.Background()
	mem := cache.NewMemoryCache()
	sink := NewRedisSink(mem, "", time.Hour, nil)

	fn := sink.Progress("run-1")
	fn(snapshot(1))
	fn(snapshot(3))

	var got models.ProgressSnapshot
	if err := mem.Get(ctx, sink.ProgressKey("run-1"), &got); err != nil {
		t.Fatalf("get progress: %v", err)
	}
	if got.Processed != 3 {
		t.Errorf("processed = %d, want 3", got.Processed)
	}

	if err := sink.PublishSummary(ctx, &models.BatchSummary{RunID: "run-1", Saved: 42}); err != nil {
		t.Fatalf("publish summary: %v", err)
	}
	var sum models.BatchSummary
	if err := mem.Get(ctx, sink.SummaryKey("run-1"), &sum); err != nil {
		t.Fatalf("get summary: %v", err)
	}
	if sum.Saved != 42 {
		t.Errorf("saved = %d, want 42", sum.Saved)
	}
}

func TestKafkaSinkKeysByRunID(t *testing.T) {
	w := &recordingWriter{}
	producer := kafka.NewProducerWithWriter(w, "ingest.progress", "gzip")
	sink := NewKafkaSink(producer, "", "ingest.summary", nil)

	sink.Progress("run-1")(snapshot(2))
	if err := sink.PublishSummary(context.Background(), &models.BatchSummary{RunID: "run-1"}); err != nil {
		t.Fatalf("publish summary: %v", err)
	}

	if len(w.msgs) != 2 {
		t.Fatalf("messages = %d, want 2", len(w.msgs))
	}
	if w.msgs[0].Topic != "ingest.progress" || w.msgs[1].Topic != "ingest.summary" {
		t.Errorf("topics = %s, %s", w.msgs[0].Topic, w.msgs[1].Topic)
	}
	for _, m := range w.msgs {
		if string(m.Key) != "run-1" {
			t.Errorf("key = %s, want run-1", m.Key)
		}
	}
	var snap models.ProgressSnapshot
	if err := json.Unmarshal(w.msgs[0].Value, &snap); err != nil || snap.Processed != 2 {
		t.Errorf("progress payload = %s (%v)", w.msgs[0].Value, err)
	}
}

func TestPrinterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewPrinterSink(progress.NewPrinter(&buf))

	sink.Progress("run-1")(snapshot(2))
	_ = sink.PublishSummary(context.Background(), &models.BatchSummary{RunID: "run-1"})

	out := buf.String()
	if !strings.Contains(out, "2/4 symbols") {
		t.Errorf("output missing progress line: %q", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Errorf("summary should end the line: %q", out)
	}
}

func TestFanoutCallsEverySinkAndJoinsErrors(t *testing.T) {
	var logs bytes.Buffer
	mem := cache.NewMemoryCache()
	redis := NewRedisSink(mem, "test", time.Hour, nil)
	f := Fanout{NewLogSink(logger.NewWriter(&logs)), redis, failingSink{}}

	f.Progress("run-1")(snapshot(1))
	if ok, _ := mem.Exists(context.Background(), redis.ProgressKey("run-1")); !ok {
		t.Error("redis sink did not receive progress")
	}
	if !strings.Contains(logs.String(), "ingest progress") {
		t.Errorf("log sink did not receive progress: %s", logs.String())
	}

	err := f.PublishSummary(context.Background(), &models.BatchSummary{RunID: "run-1"})
	if err == nil || !strings.Contains(err.Error(), "sink down") {
		t.Errorf("err = %v, want joined sink error", err)
	}
	if ok, _ := mem.Exists(context.Background(), redis.SummaryKey("run-1")); !ok {
		t.Error("failure of one sink should not stop the others")
	}
}

func TestLineIncludesETA(t *testing.T) {
	eta := time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)
	snap := snapshot(1)
	snap.ETA = &eta
	if got := Line(snap); !strings.Contains(got, "eta 10:30:00") {
		t.Errorf("line = %q", got)
	}
}
