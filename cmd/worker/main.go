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

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/covenant-hq/covenant/internal/app"
	"github.com/covenant-hq/covenant/internal/billing"
	"github.com/covenant-hq/covenant/internal/ledger"
	"github.com/covenant-hq/covenant/internal/ledger/chart"
	"github.com/covenant-hq/covenant/internal/ledger/subledger"
	"github.com/covenant-hq/covenant/internal/observability"
	"github.com/covenant-hq/covenant/internal/platform/db"
	"github.com/covenant-hq/covenant/internal/roster"
	"github.com/covenant-hq/covenant/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	metrics := observability.NewMetrics()

	chartService := chart.NewService(chart.NewRepository(pool))
	rosterRepo := roster.NewRepository(pool)
	engine := ledger.NewService(ledger.NewRepository(pool), metrics, cfg.BalanceTolerance)
	subledgerService := subledger.NewService(chartService, subledger.NewRepository(pool), rosterRepo)

	billingService := billing.NewService(billing.Config{
		Engine:           engine,
		Chart:            chartService,
		Subledger:        subledgerService,
		Policies:         billing.NewPolicyRepository(pool),
		Roster:           rosterRepo,
		Metrics:          metrics,
		Logger:           logger,
		LateFeeThreshold: cfg.LateFeeThreshold,
	})

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	client, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init queue client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("queue client close", slog.Any("error", err))
		}
	}()

	handlers := jobs.BillingHandlers(billingService, logger)
	handlers = append(handlers, jobs.SweepHandlers(pool, client, logger)...)
	handlers = append(handlers, jobs.LedgerIntegrityHandler(pool, cfg.BalanceTolerance, logger))

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Handlers:  handlers,
		Cron: []jobs.CronRegistration{
			{Spec: "0 6 1 * *", Task: jobs.NewSweepAssessmentsTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 6 16 * *", Task: jobs.NewSweepLateFeesTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 2 * * *", Task: jobs.NewLedgerIntegrityTask(), Options: []asynq.Option{asynq.MaxRetry(1)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	router := chi.NewRouter()
	router.Route("/jobs", jobs.NewHandler(inspector, logger).MountRoutes)
	healthServer := &http.Server{Addr: cfg.WorkerAddr, Handler: router}
	go func() {
		logger.Info("worker health listening", slog.String("addr", cfg.WorkerAddr))
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker health server", slog.Any("error", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = healthServer.Shutdown(shutdownCtx)
	}()

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
