package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/warelog/warelog/internal/app"
	"github.com/warelog/warelog/internal/auth"
	"github.com/warelog/warelog/internal/gatelog"
	jobmetrics "github.com/warelog/warelog/internal/jobs"
	"github.com/warelog/warelog/internal/masterdata"
	"github.com/warelog/warelog/internal/observability"
	"github.com/warelog/warelog/internal/platform/cache"
	"github.com/warelog/warelog/internal/platform/db"
	"github.com/warelog/warelog/internal/shared"
	"github.com/warelog/warelog/internal/stock"
	"github.com/warelog/warelog/internal/transactions"
	"github.com/warelog/warelog/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

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

	auditLogger := shared.NewAuditLogger(pool)
	metrics := observability.NewMetrics()

	masterdataRepo := masterdata.NewRepository(pool)
	masterdataService := masterdata.NewService(masterdataRepo)
	masterdataHandler := masterdata.NewHandler(masterdataService)

	stockRepo := stock.NewRepository(pool)
	stockService := stock.NewService(stockRepo, redisClient, logger)
	stockHandler := stock.NewHandler(stockService)

	txRepo := transactions.NewRepository(pool)
	txService := transactions.NewService(txRepo, masterdataRepo, transactions.NewCodeGenerator(), auditLogger, stockService, logger)
	txHandler := transactions.NewHandler(txService)

	gateRepo := gatelog.NewRepository(pool)
	gateService := gatelog.NewService(gateRepo, masterdataRepo, auditLogger, logger)
	gateHandler := gatelog.NewHandler(gateService)

	authRepo := auth.NewRepository(pool)
	tokenStore := auth.NewTokenStore(redisClient, cfg.TokenTTL)
	authService := auth.NewService(authRepo, tokenStore, logger)
	authHandler := auth.NewHandler(authService)

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		Metrics:             metrics,
		AuthService:         authService,
		AuthHandler:         authHandler,
		MasterDataHandler:   masterdataHandler,
		StockHandler:        stockHandler,
		TransactionsHandler: txHandler,
		GateLogHandler:      gateHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	overstayTask, err := jobs.NewOverstayScanTask(jobs.OverstayScanPayload{ThresholdHours: cfg.OverstayThresholdHours})
	if err != nil {
		logger.Error("build overstay task", slog.Any("error", err))
		os.Exit(1)
	}
	jobMetrics := jobmetrics.NewMetrics(metrics.Registerer())
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskGateOverstayScan, Handler: jobs.NewOverstayScanHandler(gateService, jobMetrics, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: fmt.Sprintf("@every %s", cfg.OverstayScanInterval), Task: overstayTask},
		},
	})
	if err != nil {
		logger.Error("build worker", slog.Any("error", err))
		os.Exit(1)
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		if err := worker.Run(groupCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("runtime", slog.Any("error", err))
		os.Exit(1)
	}
}
