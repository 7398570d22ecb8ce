package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestWriterLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf).With(String("run_id", "r-1"))

	log.Warn("chunk failed",
		Int("chunk", 2),
		Duration("elapsed_ms", 1500*time.Millisecond),
		Float64("rate", 0.5),
		Error(errors.New("boom")),
	)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not json: %v (%q)", err, buf.String())
	}
	if entry["message"] != "chunk failed" {
		t.Errorf("message = %v", entry["message"])
	}
	if entry["run_id"] != "r-1" {
		t.Errorf("run_id = %v", entry["run_id"])
	}
	if entry["chunk"] != float64(2) {
		t.Errorf("chunk = %v", entry["chunk"])
	}
	if entry["elapsed_ms"] != float64(1500) {
		t.Errorf("elapsed_ms = %v", entry["elapsed_ms"])
	}
	if entry["error"] != "boom" {
		t.Errorf("error = %v", entry["error"])
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(&Config{Level: "loud", Output: "stdout"}); err == nil {
		t.Fatal("expected error for invalid level")
	}
}
