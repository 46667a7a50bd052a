package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string

	TryOnAPIKey  string
	TryOnBaseURL string

	StoragePath string

	PollInterval    time.Duration
	PollMaxAttempts int
	WorkerCount     int
	QueueLease      time.Duration

	MaxUploadBytes   int64
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		TryOnAPIKey:      os.Getenv("TRYON_API_KEY"),
		TryOnBaseURL:     getEnv("TRYON_API_URL", "https://tryon-api.com/api/v1"),
		StoragePath:      getEnv("STORAGE_PATH", "./storage"),
		PollInterval:     time.Second * time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 2)),
		PollMaxAttempts:  getEnvInt("POLL_MAX_ATTEMPTS", 60),
		WorkerCount:      getEnvInt("WORKER_COUNT", 4),
		QueueLease:       time.Second * time.Duration(getEnvInt("QUEUE_LEASE_SECONDS", 300)),
		MaxUploadBytes:   int64(getEnvInt("MAX_UPLOAD_MB", 16)) << 20,
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL_SECONDS must be positive")
	}
	if cfg.PollMaxAttempts <= 0 {
		return nil, fmt.Errorf("POLL_MAX_ATTEMPTS must be positive")
	}

	// The lease must outlive the worst-case polling phase, otherwise a healthy
	// worker's job gets redelivered mid-flight.
	minLease := cfg.PollInterval * time.Duration(cfg.PollMaxAttempts)
	if cfg.QueueLease < minLease {
		cfg.QueueLease = minLease + time.Minute
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
