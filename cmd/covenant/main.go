package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/covenant-hq/covenant/internal/app"
	"github.com/covenant-hq/covenant/internal/billing"
	"github.com/covenant-hq/covenant/internal/finance"
	"github.com/covenant-hq/covenant/internal/ledger"
	"github.com/covenant-hq/covenant/internal/ledger/chart"
	"github.com/covenant-hq/covenant/internal/ledger/reports"
	"github.com/covenant-hq/covenant/internal/ledger/subledger"
	"github.com/covenant-hq/covenant/internal/observability"
	"github.com/covenant-hq/covenant/internal/payments"
	"github.com/covenant-hq/covenant/internal/platform/db"
	"github.com/covenant-hq/covenant/internal/roster"
	"github.com/covenant-hq/covenant/internal/tenant"
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

	tenantService := tenant.NewService(tenant.NewRepository(dbpool))
	tenantHandler := tenant.NewHandler(tenantService)

	chartService := chart.NewService(chart.NewRepository(dbpool))
	rosterRepo := roster.NewRepository(dbpool)

	reportCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)
	reportService := reports.NewService(reports.NewRepository(dbpool), reportCache)

	engine := ledger.NewService(ledger.NewRepository(dbpool), metrics, cfg.BalanceTolerance)
	engine.WithInvalidator(reportService)

	subledgerService := subledger.NewService(chartService, subledger.NewRepository(dbpool), rosterRepo)

	billingService := billing.NewService(billing.Config{
		Engine:           engine,
		Chart:            chartService,
		Subledger:        subledgerService,
		Policies:         billing.NewPolicyRepository(dbpool),
		Roster:           rosterRepo,
		Metrics:          metrics,
		Logger:           logger,
		LateFeeThreshold: cfg.LateFeeThreshold,
	})

	paymentService := payments.NewService(engine, chartService)

	financeHandler := finance.NewHandler(finance.HandlerConfig{
		Logger:        logger,
		Engine:        engine,
		Chart:         chartService,
		Subledger:     subledgerService,
		Reports:       reportService,
		Billing:       billingService,
		Payments:      paymentService,
		WebhookSecret: cfg.WebhookSecret,
	})

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		FinanceHandler: financeHandler,
		TenantHandler:  tenantHandler,
		TenantService:  tenantService,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", slog.Any("error", err))
	}
	logger.Info("shutdown complete")
}
