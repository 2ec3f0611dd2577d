package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/makkenzo/license-dashboard-api/internal/clock"
	"github.com/makkenzo/license-dashboard-api/internal/config"
	"github.com/makkenzo/license-dashboard-api/internal/domain/activity"
	"github.com/makkenzo/license-dashboard-api/internal/handler"
	"github.com/makkenzo/license-dashboard-api/internal/handler/middleware"
	"github.com/makkenzo/license-dashboard-api/internal/keygen"
	"github.com/makkenzo/license-dashboard-api/internal/lock"
	"github.com/makkenzo/license-dashboard-api/internal/metrics"
	"github.com/makkenzo/license-dashboard-api/internal/service"
	"github.com/makkenzo/license-dashboard-api/internal/storage"
	"github.com/makkenzo/license-dashboard-api/internal/storage/redis"
	"github.com/makkenzo/license-dashboard-api/internal/tasks"
	"github.com/makkenzo/license-dashboard-api/internal/worker"
	"github.com/makkenzo/license-dashboard-api/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.NewZapLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	sugarLogger := appLogger.Sugar()
	sugarLogger.Info("Starting application...")
	sugarLogger.Infof("Log level set to: %s", cfg.Log.Level)

	appCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clk := clock.Real{}

	stores, err := storage.Open(appCtx, cfg, clk, appLogger)
	if err != nil {
		sugarLogger.Fatalf("Failed to open storage: %v", err)
	}
	defer stores.Close()

	healthChecks := map[string]handler.Pinger{}
	if stores.Pool != nil {
		healthChecks["database"] = stores.Pool
	}

	var locker lock.Locker = lock.NewKeyedMutex()
	var asynqClient *asynq.Client
	if cfg.UsesRedis() {
		redisClient, err := redis.NewRedisClient(appCtx, &cfg.Redis, appLogger)
		if err != nil {
			sugarLogger.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		healthChecks["redis"] = handler.RedisPinger(redisClient)

		if cfg.Storage.Lock == config.LockRedis {
			redisLocker, err := lock.NewRedisLocker(redisClient, cfg.Storage.LockTTL, appLogger)
			if err != nil {
				sugarLogger.Fatalf("Failed to create redis locker: %v", err)
			}
			locker = redisLocker
		}
		if cfg.Activity.Async {
			asynqClient = asynq.NewClient(worker.RedisClientOpt(&cfg.Redis))
			defer asynqClient.Close()
		}
	}

	activityService := service.NewActivityService(stores.Activity, clk, appLogger)

	var recorder activity.Recorder = activityService
	if asynqClient != nil {
		recorder = tasks.NewActivityEnqueuer(asynqClient, cfg.Activity.Queue, appLogger)
	}

	generator := keygen.New(
		keygen.WithDefaultPrefix(cfg.License.DefaultPrefix),
		keygen.WithSegmentBytes(cfg.License.SegmentBytes),
	)
	licenseService := service.NewLicenseService(stores.Licenses, generator, locker, recorder, service.LicenseOptions{
		MaxBatch:            cfg.License.MaxBatch,
		MaxGenerateAttempts: cfg.License.MaxGenerateAttempts,
		Clock:               clk,
		Metrics:             metrics.New(prometheus.DefaultRegisterer),
	}, appLogger)

	channelService := service.NewChannelService(stores.Channels, recorder, clk, appLogger)

	authService, err := service.NewAuthService(&cfg.Auth, appLogger)
	if err != nil {
		sugarLogger.Fatalf("Failed to initialize auth service: %v", err)
	}

	router := handler.NewRouter(handler.RouterDeps{
		Licenses:       licenseService,
		Activity:       activityService,
		Channels:       channelService,
		Auth:           authService,
		HealthChecks:   healthChecks,
		Gatherer:       prometheus.DefaultGatherer,
		ActivationRate: middleware.PerMinute(cfg.RateLimit.ActivationsPerMinute, cfg.RateLimit.ActivationBurst),
		AllowOrigins:   cfg.Server.AllowOrigins,
		Logger:         appLogger,
	})

	g, groupCtx := errgroup.WithContext(appCtx)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g.Go(func() error {
		sugarLogger.Infof("HTTP server listening on port %s", cfg.Server.Port)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugarLogger.Errorf("HTTP server ListenAndServe error: %v", err)
			return fmt.Errorf("http server failed: %w", err)
		}
		sugarLogger.Info("HTTP server stopped listening.")
		return nil
	})

	g.Go(func() error {
		<-groupCtx.Done()
		sugarLogger.Info("Shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownPeriod)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			sugarLogger.Errorf("HTTP server graceful shutdown failed: %v", err)
			return fmt.Errorf("http server shutdown error: %w", err)
		}
		sugarLogger.Info("HTTP server shutdown complete.")
		return nil
	})

	if cfg.Activity.Async {
		g.Go(func() error {
			if err := worker.RunWorkers(groupCtx, cfg, activityService, appLogger); err != nil {
				sugarLogger.Errorw("Asynq worker failed", "error", err)
				return fmt.Errorf("asynq worker error: %w", err)
			}
			sugarLogger.Info("Asynq workers finished gracefully.")
			return nil
		})
	}

	sugarLogger.Info("Application started. Waiting for interrupt signal (Ctrl+C) or component error...")

	err = g.Wait()
	activityService.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		sugarLogger.Errorf("Application shutdown finished with unexpected error: %v", err)
		return
	}
	sugarLogger.Info("Application exiting now.")
}
