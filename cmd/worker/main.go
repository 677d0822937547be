package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/stockgate/stockgate/internal/app"
	"github.com/stockgate/stockgate/internal/extraction"
	"github.com/stockgate/stockgate/internal/observability"
	"github.com/stockgate/stockgate/internal/platform/db"
	"github.com/stockgate/stockgate/internal/shared"
	"github.com/stockgate/stockgate/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	metrics := observability.NewMetrics()
	extractorClient := extraction.NewClient(cfg.ExtractorURL, cfg.ExtractorTimeout)
	skuClient := extraction.NewSKUClient(cfg.SKUAPIURL, cfg.SKULookupTimeout)
	skuResolver := extraction.NewResolver(skuClient, metrics, cfg.SKULookupWorkers)

	extractionRepo := extraction.NewRepository(pool)
	// The worker never enqueues, it only consumes, so no queue port.
	extractionService := extraction.NewService(extractionRepo, extractorClient, nil, skuResolver, metrics, logger)

	idempotencyStore := shared.NewIdempotencyStore(pool)

	cleanupTask, err := jobs.NewIdempotencyCleanupTask(7 * 24 * time.Hour)
	if err != nil {
		logger.Error("build cleanup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskExtractionRun, Handler: jobs.NewExtractionRunHandler(extractionService, logger)},
			{Type: jobs.TaskIdempotencyCleanup, Handler: jobs.NewIdempotencyCleanupHandler(idempotencyStore, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "45 2 * * *", Task: cleanupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
