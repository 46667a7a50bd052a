package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"tryon/internal/adapter/repo"
	"tryon/internal/infra"
	"tryon/internal/infra/credentials"
	"tryon/internal/providers/tryon"
	"tryon/internal/queue"
	"tryon/internal/storage"
	"tryon/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)
	if err := infra.EnsureSchema(ctx, runner); err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to ensure schema")
	}

	storagePath := cfg.StoragePath
	if !filepath.IsAbs(storagePath) {
		if abs, err := filepath.Abs(storagePath); err == nil {
			storagePath = abs
		}
	}
	fileStore, err := storage.NewFileStore(storagePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure storage")
	}

	apiKey := strings.TrimSpace(cfg.TryOnAPIKey)
	if apiKey == "" {
		credStore := credentials.NewStore(runner)
		keyFromStore, err := credStore.TryOnAPIKey(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("worker: failed to load tryon api key from store")
		} else {
			apiKey = keyFromStore
		}
	}
	if apiKey == "" {
		logger.Fatal().Msg("worker: TRYON_API_KEY is not configured")
	}

	client, err := tryon.NewClient(tryon.Options{
		APIKey:  apiKey,
		BaseURL: cfg.TryOnBaseURL,
		Logger:  &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure tryon client")
	}

	jobRepo := repo.NewJobRepository(runner)
	pgQueue := queue.NewPG(runner)

	pw, err := worker.New(worker.Options{
		Repo:            jobRepo,
		Queue:           pgQueue,
		Client:          client,
		Store:           fileStore,
		Logger:          logger,
		PollInterval:    cfg.PollInterval,
		PollMaxAttempts: cfg.PollMaxAttempts,
		Lease:           cfg.QueueLease,
		Workers:         cfg.WorkerCount,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: invalid configuration")
	}

	if err := pw.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}
