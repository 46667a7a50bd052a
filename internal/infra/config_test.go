package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/tryon")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("port = %q, want 8080", cfg.Port)
	}
	if cfg.TryOnBaseURL != "https://tryon-api.com/api/v1" {
		t.Fatalf("base url = %q", cfg.TryOnBaseURL)
	}
	if cfg.PollInterval != 2*time.Second {
		t.Fatalf("poll interval = %v, want 2s", cfg.PollInterval)
	}
	if cfg.PollMaxAttempts != 60 {
		t.Fatalf("poll max attempts = %d, want 60", cfg.PollMaxAttempts)
	}
	if cfg.MaxUploadBytes != 16<<20 {
		t.Fatalf("max upload bytes = %d, want 16 MiB", cfg.MaxUploadBytes)
	}
}

func TestLoadConfigRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error without DATABASE_URL")
	}
}

func TestLoadConfigStretchesShortLease(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/tryon")
	t.Setenv("POLL_INTERVAL_SECONDS", "5")
	t.Setenv("POLL_MAX_ATTEMPTS", "100")
	t.Setenv("QUEUE_LEASE_SECONDS", "30")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	want := 500*time.Second + time.Minute
	if cfg.QueueLease != want {
		t.Fatalf("lease = %v, want %v (stretched past the polling budget)", cfg.QueueLease, want)
	}
}

func TestLoadConfigRejectsNonPositivePolling(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/tryon")
	t.Setenv("POLL_INTERVAL_SECONDS", "-1")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for negative poll interval")
	}
}
