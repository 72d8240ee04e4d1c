package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("EXPLORER_CONFIG", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Cache.Backend != "memory" || cfg.Addr != ":8080" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Kafka.Broker != "" {
		t.Fatalf("expected events disabled by default, got broker %q", cfg.Kafka.Broker)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "explorer.yaml")
	body := `
addr: ":9090"
openlibrary:
  requests_per_second: 2.5
  total_timeout: 45s
cache:
  backend: redis
  redis_addr: redis:6379
log:
  format: json
`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("EXPLORER_CONFIG", path)
	t.Setenv("REDIS_ADDR", "cache.local:6379")
	t.Setenv("KAFKA_BROKER", "kafka:9092")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Addr != ":9090" || cfg.OpenLibrary.RequestsPerSecond != 2.5 || cfg.OpenLibrary.TotalTimeout != 45*time.Second {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.OpenLibrary.ConnectTimeout != 10*time.Second {
		t.Fatalf("expected default connect timeout, got %s", cfg.OpenLibrary.ConnectTimeout)
	}
	if cfg.Cache.RedisAddr != "cache.local:6379" || cfg.Kafka.Broker != "kafka:9092" {
		t.Fatalf("env values not applied: %+v", cfg)
	}
	if cfg.Log.Format != "json" {
		t.Fatalf("unexpected log format: %s", cfg.Log.Format)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Setenv("EXPLORER_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing config file")
	}

	t.Setenv("EXPLORER_CONFIG", "")
	t.Setenv("CACHE_BACKEND", "memcached")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown cache backend")
	}
}

func TestLoadStatsSettings(t *testing.T) {
	t.Setenv("EXPLORER_CONFIG", "")
	t.Setenv("STATS_ENABLED", "true")
	t.Setenv("CONCURRENT_JOBS", "8")
	t.Setenv("DEDUPE_TTL", "1h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if !cfg.Stats.Enabled || cfg.Stats.Concurrency != 8 || cfg.Stats.DedupeTTL != time.Hour {
		t.Fatalf("stats env not applied: %+v", cfg.Stats)
	}
	if cfg.Stats.GroupID != "openlibrary-explorer-stats" {
		t.Fatalf("unexpected group id: %s", cfg.Stats.GroupID)
	}

	t.Setenv("CONCURRENT_JOBS", "0")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for zero concurrency")
	}
}
