package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopmesh/events/internal/app"
	"github.com/shopmesh/events/internal/config"
	"github.com/shopmesh/events/internal/infra/archive"
	"github.com/shopmesh/events/internal/infra/delivery"
	"github.com/shopmesh/events/internal/infra/http/handler"
	"github.com/shopmesh/events/internal/infra/http/routes"
	"github.com/shopmesh/events/internal/infra/jobs"
	"github.com/shopmesh/events/internal/infra/postgres"
	"github.com/shopmesh/events/internal/infra/redis"
	"github.com/shopmesh/events/pkg/domain/webhook"
	"github.com/shopmesh/events/pkg/logger"
	"github.com/shopmesh/events/pkg/validator"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log := logger.NewDefault()
		log.Error("failed to load configuration", "error", err)
		return 1
	}

	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	log.Info("starting application", "app", cfg.App.Name, "env", cfg.App.Env)

	// Infrastructure
	db, err := postgres.New(&cfg.Database)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		return 1
	}
	defer closeWithLog(db, "database", log)
	log.Info("database connected")

	redisClient, err := redis.New(&cfg.Redis, log)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		return 1
	}
	defer closeWithLog(redisClient, "redis", log)

	// Repositories
	appRepo := postgres.NewAppRepository(db)
	deliveryRepo := postgres.NewDeliveryRepository(db)
	webhookRepo, err := redis.NewCachedWebhookRepository(
		postgres.NewWebhookRepository(db), redisClient, redis.DefaultSubscriptionTTL,
	)
	if err != nil {
		log.Error("failed to initialize webhook repository", "error", err)
		return 1
	}
	selector := webhook.NewSelector(webhookRepo, log.Stdlib())

	// Task substrate and outbound delivery
	jobClient := jobs.NewClient(jobs.ClientConfig{
		RedisAddr:         cfg.Redis.Addr(),
		RedisPassword:     cfg.Redis.Password,
		RedisDB:           cfg.Redis.DB,
		CompressThreshold: cfg.Delivery.CompressThreshold,
		MaxRetry:          cfg.Worker.MaxRetry,
	}, log)
	defer closeWithLog(jobClient, "job client", log)

	deliveryClient := delivery.NewClient(delivery.Config{
		Timeout:        cfg.Delivery.Timeout,
		RequestsPerSec: cfg.Delivery.RequestsPerSec,
		Burst:          cfg.Delivery.Burst,
	}, log)

	var archiver jobs.Archiver
	if cfg.Archive.Enabled {
		s3Archiver, err := archive.NewS3Archiver(ctx, &cfg.Archive, log)
		if err != nil {
			log.Error("failed to initialize delivery archive", "error", err)
			return 1
		}
		archiver = s3Archiver
		log.Info("delivery archive enabled", "bucket", cfg.Archive.Bucket)
	}

	// Engine and services
	engine := app.NewEngine(cfg.Engine.Active, selector, jobClient, deliveryClient, appRepo, log)
	webhookService := app.NewWebhookService(webhookRepo, deliveryRepo, appRepo, log)

	// Background worker
	taskHandler := jobs.NewDeliveryTaskHandler(
		selector, webhookRepo, deliveryRepo, deliveryClient, jobClient, archiver,
		cfg.Worker.FanOutParallel, log.Stdlib(),
	)
	worker := jobs.NewWorker(jobs.WorkerConfig{
		RedisAddr:         cfg.Redis.Addr(),
		RedisPassword:     cfg.Redis.Password,
		RedisDB:           cfg.Redis.DB,
		Concurrency:       cfg.Worker.Concurrency,
		RetentionCron:     cfg.Retention.CronSpec,
		RetentionMaxHours: int(cfg.Retention.MaxAge.Hours()),
	}, taskHandler, jobClient, log)

	if err := worker.Start(); err != nil {
		log.Error("failed to start worker", "error", err)
		return 1
	}
	defer worker.Stop()

	// HTTP server
	v := validator.New()
	router := routes.New(routes.Handlers{
		Health:  handler.NewHealthHandler(db, redisClient),
		Webhook: handler.NewWebhookHandler(webhookService, v, log),
		Event:   handler.NewEventHandler(engine, jobClient, v, log),
	}, cfg.Auth.JWTSecret, log)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
		}
	}()
	log.Info("application started", "http_addr", cfg.Server.Addr())

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
		return 1
	}

	log.Info("application stopped")
	return 0
}

type closer interface {
	Close() error
}

func closeWithLog(c closer, name string, log *logger.Logger) {
	if err := c.Close(); err != nil {
		log.Error("failed to close "+name, "error", err)
	}
}
