package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/loomledger/loomledger/internal/app"
	"github.com/loomledger/loomledger/internal/ledger"
	"github.com/loomledger/loomledger/internal/platform/cache"
	"github.com/loomledger/loomledger/internal/platform/db"
	"github.com/loomledger/loomledger/internal/purchases"
	"github.com/loomledger/loomledger/internal/reports"
	"github.com/loomledger/loomledger/jobs"
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

	var ledgerRepo ledger.Repository
	var purchaseSource reports.PurchaseSource = emptyPurchases{}

	if cfg.UsesPostgres() {
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		ledgerRepo = ledger.NewSQLRepository(pool)
		purchaseSource = purchases.NewService(purchases.NewRepository(pool), logger)
	} else {
		local, err := ledger.NewLocalRepository(cfg.LocalDataPath)
		if err != nil {
			logger.Error("open local store", slog.Any("error", err))
			os.Exit(1)
		}
		ledgerRepo = local
	}

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

	ledgerService := ledger.NewService(ledgerRepo, logger)
	reportsService := reports.NewService(ledgerService, purchaseSource)
	snapshotCache := reports.NewSnapshotCache(redisClient, cfg.SnapshotTTL)
	scanner := jobs.NewSnapshotScanner(reportsService, snapshotCache, logger)

	scanTask, err := jobs.NewReceivablesScanTask(jobs.ReceivablesScanPayload{TriggeredBy: "cron"})
	if err != nil {
		logger.Error("build scan task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskReceivablesScan, Handler: scanner.HandleReceivablesScan},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 1 * * *", Task: scanTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
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

type emptyPurchases struct{}

func (emptyPurchases) ListPurchases(context.Context, string) ([]purchases.Purchase, error) {
	return nil, nil
}
