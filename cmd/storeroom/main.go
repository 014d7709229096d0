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

	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/app"
	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/auth"
	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/inventory"
	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/observability"
	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/packaging"
	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/platform/cache"
	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/platform/db"
	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/products"
	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/purchases"
	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/reports"
	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/shared"
	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/suppliers"
	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/jobs"
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
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

	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)
	metrics := observability.NewMetrics()

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, redisClient, cfg.TokenTTL)
	authHandler := auth.NewHandler(logger, authService)
	authMiddleware := auth.NewMiddleware(authService)

	inventoryRepo := inventory.NewRepository(dbpool)
	inventoryService := inventory.NewService(inventoryRepo, auditLogger)
	inventoryHandler := inventory.NewHandler(logger, inventoryService, metrics)

	purchasesRepo := purchases.NewRepository(dbpool)
	purchasesService := purchases.NewService(purchasesRepo, auditLogger)
	purchasesHandler := purchases.NewHandler(logger, purchasesService, metrics)

	suppliersRepo := suppliers.NewRepository(dbpool)
	suppliersService := suppliers.NewService(suppliersRepo)
	suppliersHandler := suppliers.NewHandler(logger, suppliersService)

	productsRepo := products.NewRepository(dbpool)
	productsService := products.NewService(productsRepo)
	productsHandler := products.NewHandler(logger, productsService)

	packagingRepo := packaging.NewRepository(dbpool)
	packagingService := packaging.NewService(packagingRepo, auditLogger, idempotencyStore)
	packagingHandler := packaging.NewHandler(logger, packagingService, metrics)

	reportsRepo := reports.NewRepository(dbpool)
	reportsCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)
	reportsService := reports.NewService(reportsRepo, reportsCache)
	reportsHandler := reports.NewHandler(logger, reportsService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		AuthHandler:      authHandler,
		AuthMiddleware:   authMiddleware,
		InventoryHandler: inventoryHandler,
		PurchasesHandler: purchasesHandler,
		SuppliersHandler: suppliersHandler,
		ProductsHandler:  productsHandler,
		PackagingHandler: packagingHandler,
		ReportsHandler:   reportsHandler,
		JobHandler:       jobHandler,
		Pool:             dbpool,
		Metrics:          metrics,
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
