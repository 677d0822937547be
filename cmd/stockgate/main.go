package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/stockgate/stockgate/internal/app"
	"github.com/stockgate/stockgate/internal/extraction"
	"github.com/stockgate/stockgate/internal/inward"
	"github.com/stockgate/stockgate/internal/labels"
	"github.com/stockgate/stockgate/internal/observability"
	"github.com/stockgate/stockgate/internal/platform/cache"
	"github.com/stockgate/stockgate/internal/platform/db"
	"github.com/stockgate/stockgate/internal/shared"
	"github.com/stockgate/stockgate/internal/transferin"
	"github.com/stockgate/stockgate/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	dbpool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "stockgate_session", cfg.SessionTTL, cfg.IsProduction())
	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)
	metrics := observability.NewMetrics()

	queueClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init queue client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := queueClient.Close(); err != nil {
			logger.Warn("queue client close", slog.Any("error", err))
		}
	}()

	extractorClient := extraction.NewClient(cfg.ExtractorURL, cfg.ExtractorTimeout)
	pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
	if err := extractorClient.Ping(pingCtx); err != nil {
		logger.Warn("extractor not reachable at startup", slog.Any("error", err))
	}
	cancelPing()
	skuClient := extraction.NewSKUClient(cfg.SKUAPIURL, cfg.SKULookupTimeout)
	skuResolver := extraction.NewResolver(skuClient, metrics, cfg.SKULookupWorkers)

	extractionRepo := extraction.NewRepository(dbpool)
	extractionService := extraction.NewService(extractionRepo, extractorClient, queueClient, skuResolver, metrics, logger)

	inwardRepo := inward.NewRepository(dbpool)
	inwardService := inward.NewService(inwardRepo, auditLogger, idempotencyStore, logger)
	inwardHandler := inward.NewHandler(logger, inwardService)

	extractionHandler := extraction.NewHandler(logger, extractionService, inwardService)

	trackerStore := transferin.NewTrackerStore(redisClient, cfg.SessionTTL)
	transferRepo := transferin.NewRepository(dbpool)
	transferService := transferin.NewService(transferRepo, trackerStore, auditLogger, idempotencyStore, metrics, logger)
	transferHandler := transferin.NewHandler(logger, transferService)

	labelHandler := labels.NewHandler(logger, transferService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		SessionManager:    sessionManager,
		ExtractionHandler: extractionHandler,
		InwardHandler:     inwardHandler,
		TransferInHandler: transferHandler,
		LabelHandler:      labelHandler,
		JobHandler:        jobHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
