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
	"github.com/redis/go-redis/v9"

	"github.com/loomledger/loomledger/internal/app"
	"github.com/loomledger/loomledger/internal/costing"
	"github.com/loomledger/loomledger/internal/ledger"
	"github.com/loomledger/loomledger/internal/observability"
	"github.com/loomledger/loomledger/internal/platform/db"
	"github.com/loomledger/loomledger/internal/production"
	"github.com/loomledger/loomledger/internal/purchases"
	"github.com/loomledger/loomledger/internal/reports"
	"github.com/loomledger/loomledger/jobs"
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

	var ledgerRepo ledger.Repository
	var purchasesService *purchases.Service
	var purchasesHandler *purchases.Handler
	var productionHandler *production.Handler

	if cfg.UsesPostgres() {
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()

		ledgerRepo = ledger.NewSQLRepository(pool)

		purchasesService = purchases.NewService(purchases.NewRepository(pool), logger)
		purchasesHandler = purchases.NewHandler(logger, purchasesService)

		productionService := production.NewService(production.NewRepository(pool), logger)
		productionHandler = production.NewHandler(logger, productionService)
	} else {
		// Local driver keeps the receivables ledger in a JSON file. The
		// PostgreSQL-only modules are not mounted in this mode.
		local, err := ledger.NewLocalRepository(cfg.LocalDataPath)
		if err != nil {
			logger.Error("open local store", slog.Any("error", err))
			os.Exit(1)
		}
		ledgerRepo = local
		logger.Info("using local ledger store", slog.String("path", cfg.LocalDataPath))
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	ledgerService := ledger.NewService(ledgerRepo, logger)
	ledgerHandler := ledger.NewHandler(logger, ledgerService, metrics)

	presetStore := costing.NewPresetStore(redisClient)
	costingHandler := costing.NewHandler(logger, presetStore)

	var purchaseSource reports.PurchaseSource = emptyPurchases{}
	if purchasesService != nil {
		purchaseSource = purchasesService
	}
	reportsService := reports.NewService(ledgerService, purchaseSource)
	snapshotCache := reports.NewSnapshotCache(redisClient, cfg.SnapshotTTL)
	reportsHandler := reports.NewHandler(logger, reportsService, snapshotCache)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, jobClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		LedgerHandler:     ledgerHandler,
		CostingHandler:    costingHandler,
		PurchasesHandler:  purchasesHandler,
		ProductionHandler: productionHandler,
		ReportsHandler:    reportsHandler,
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

type emptyPurchases struct{}

func (emptyPurchases) ListPurchases(context.Context, string) ([]purchases.Purchase, error) {
	return nil, nil
}
