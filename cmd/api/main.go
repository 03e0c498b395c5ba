package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/yoypulse/api/controllers"
	"github.com/angelmondragon/yoypulse/api/routes"
	"github.com/angelmondragon/yoypulse/internal/actions"
	"github.com/angelmondragon/yoypulse/internal/cron"
	"github.com/angelmondragon/yoypulse/internal/export"
	"github.com/angelmondragon/yoypulse/internal/formulas"
	"github.com/angelmondragon/yoypulse/internal/live"
	"github.com/angelmondragon/yoypulse/internal/narrative"
	"github.com/angelmondragon/yoypulse/internal/pulse"
	"github.com/angelmondragon/yoypulse/internal/sources"
	"github.com/angelmondragon/yoypulse/pkg/bigquery"
	"github.com/angelmondragon/yoypulse/pkg/config"
	"github.com/angelmondragon/yoypulse/pkg/db"
	"github.com/angelmondragon/yoypulse/pkg/logger"
	"github.com/angelmondragon/yoypulse/pkg/metrics"
	"github.com/angelmondragon/yoypulse/pkg/migrate"
	"github.com/angelmondragon/yoypulse/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRun(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run migrations", err)
		os.Exit(1)
	}

	pingers := map[string]controllers.Pinger{"db": dbClient}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		pingers["redis"] = redisClient
	}

	var querier sources.Querier
	if cfg.HasWarehouse() {
		bq, err := bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap bigquery", err)
			os.Exit(1)
		}
		defer func() {
			if err := bq.Close(); err != nil {
				logg.Error(context.Background(), "error closing bigquery", err)
			}
		}()
		querier = bq
		pingers["warehouse"] = bq
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	source := sources.New(cfg, querier, logg)
	pulseService, err := pulse.NewService(pulse.ServiceParams{
		Source:     source,
		Narrator:   narrative.NewClient(cfg.AI),
		Metrics:    metrics.NewPulseMetrics(registry),
		Logger:     logg,
		SampleSize: cfg.Source.SampleSize,
	})
	if err != nil {
		logg.Error(ctx, "failed to create pulse service", err)
		os.Exit(1)
	}

	actionsService, err := actions.NewService(actions.NewRepository(dbClient.DB()), dbClient, nil)
	if err != nil {
		logg.Error(ctx, "failed to create actions service", err)
		os.Exit(1)
	}

	formulaRegistry, err := formulas.NewRegistry()
	if err != nil {
		logg.Error(ctx, "failed to load formulas", err)
		os.Exit(1)
	}

	var lock cron.Lock = cron.NewLocalLock()
	if redisClient != nil {
		lock, err = cron.NewRedisLock(redisClient, redisClient.LockKey(cfg.Live.LockKey), cfg.Live.LockTTL)
		if err != nil {
			logg.Error(ctx, "failed to create refresh lock", err)
			os.Exit(1)
		}
	}

	refreshParams := live.RefresherParams{
		Config:  cfg.Live,
		Service: pulseService,
		Logger:  logg,
		Lock:    lock,
		Metrics: metrics.NewJobMetrics(registry),
	}
	if redisClient != nil {
		refreshParams.Config.BoardKey = redisClient.BoardKey(cfg.Live.BoardKey)
		refreshParams.Store = redisClient
	}
	refresher, err := live.NewRefresher(refreshParams)
	if err != nil {
		logg.Error(ctx, "failed to create live refresher", err)
		os.Exit(1)
	}
	go func() {
		if err := refresher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(ctx, "live refresher stopped", err)
		}
	}()

	deps := routes.Deps{
		Config:   cfg,
		Logger:   logg,
		Pulse:    pulseService,
		Actions:  actionsService,
		Board:    refresher.Board(),
		Formulas: formulaRegistry,
		Exporter: export.NewExporter(),
		Pingers:  pingers,
		Gatherer: registry,
	}
	if redisClient != nil {
		deps.Limiter = redisClient
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
		"mode": string(source.Mode()),
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(logCtx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(logCtx, "api server stopped")
}
