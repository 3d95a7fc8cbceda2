package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	content := `
database:
  host: db.local
  port: 5433
  user: mes
  password: secret
  database: burgermes

rabbitmq:
  host: mq.local
  port: 5672
  user: guest
  password: guest

scheduler:
  poll_interval_ms: 250
  aging_increment: 3
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Database.Host != "db.local" || cfg.Database.Port != 5433 {
		t.Fatalf("database config = %+v", cfg.Database)
	}
	if cfg.RabbitMQ.Host != "mq.local" {
		t.Fatalf("rabbitmq config = %+v", cfg.RabbitMQ)
	}
	if got := cfg.Scheduler.PollInterval(); got != 250*time.Millisecond {
		t.Fatalf("PollInterval() = %v, want 250ms", got)
	}
	if got := cfg.Scheduler.Increment(); got != 3 {
		t.Fatalf("Increment() = %d, want 3", got)
	}
}

func TestSchedulerDefaults(t *testing.T) {
	var cfg SchedulerConfig

	if got := cfg.PollInterval(); got != time.Second {
		t.Fatalf("PollInterval() = %v, want 1s default", got)
	}
	if got := cfg.Increment(); got != 1 {
		t.Fatalf("Increment() = %d, want 1 default", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
