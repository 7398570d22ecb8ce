package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Environment != "development" || c.Storage.Type != "sqlite" || c.Provider.Type != "yahoo" {
		t.Errorf("unexpected defaults: env=%s storage=%s provider=%s", c.Environment, c.Storage.Type, c.Provider.Type)
	}
	if c.Ingest.ChunkSize != 100 || c.Ingest.MaxWorkers != 4 || c.Ingest.MaxRetries != 3 {
		t.Errorf("ingest defaults = %+v", c.Ingest)
	}
	if c.Ingest.PacingDelay != 500*time.Millisecond || c.Ingest.BaseDelay != time.Second {
		t.Errorf("delay defaults = %v %v", c.Ingest.PacingDelay, c.Ingest.BaseDelay)
	}
	if !c.Metrics.Enabled || !c.Storage.InitSchema {
		t.Error("metrics and schema init should default to on")
	}
}

func TestLoadFileKeepsExplicitValues(t *testing.T) {
	path := writeConfig(t, `
environment: production
metrics:
  enabled: false
storage:
  type: memory
  init_schema: false
ingest:
  symbols: ["7203.T", "6758.T"]
  interval: 1h
  strategy: parallel
  pacing_delay: 250ms
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Metrics.Enabled || c.Storage.InitSchema {
		t.Error("explicit false must not be replaced by defaults")
	}
	if c.Ingest.Interval != "1h" || c.Ingest.Strategy != "parallel" || len(c.Ingest.Symbols) != 2 {
		t.Errorf("ingest = %+v", c.Ingest)
	}
	if c.Ingest.PacingDelay != 250*time.Millisecond {
		t.Errorf("pacing = %v", c.Ingest.PacingDelay)
	}
	if c.Ingest.ChunkSize != 100 {
		t.Errorf("unset fields should keep defaults, chunk = %d", c.Ingest.ChunkSize)
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("INGEST_SYMBOLS", "AAPL, MSFT")
	t.Setenv("INGEST_INTERVAL", "5m")
	t.Setenv("INGEST_CHUNK_SIZE", "25")
	t.Setenv("STORAGE_TYPE", "memory")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	c, err := LoadWithEnv("")
	if err != nil {
		t.Fatalf("LoadWithEnv: %v", err)
	}
	if len(c.Ingest.Symbols) != 2 || c.Ingest.Symbols[1] != "MSFT" {
		t.Errorf("symbols = %v", c.Ingest.Symbols)
	}
	if c.Ingest.Interval != "5m" || c.Ingest.ChunkSize != 25 || c.Storage.Type != "memory" {
		t.Errorf("overrides not applied: %+v", c.Ingest)
	}
	if !c.Redis.Enabled || c.Redis.Addr != "redis:6379" {
		t.Errorf("redis = %+v", c.Redis)
	}
	if !c.Kafka.Enabled || len(c.Kafka.Brokers) != 2 {
		t.Errorf("kafka = %+v", c.Kafka)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad interval", "ingest:\n  interval: 7m\n"},
		{"bad storage", "storage:\n  type: mongo\n"},
		{"postgres without dsn", "storage:\n  type: postgres\n"},
		{"polygon without key", "provider:\n  type: polygon\n"},
		{"kafka without brokers", "kafka:\n  enabled: true\n"},
		{"zero workers", "ingest:\n  max_workers: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected read error")
	}
}
