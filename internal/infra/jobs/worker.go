package jobs

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"

	"github.com/shopmesh/events/pkg/logger"
)

// WorkerConfig holds the configuration for the job worker.
type WorkerConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Concurrency   int

	// RetentionCron schedules delivery-log cleanup; empty disables it.
	RetentionCron     string
	RetentionMaxHours int
}

// Worker processes background webhook delivery jobs.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *cron.Cron
	logger    *logger.Logger
}

// NewWorker creates a new background job worker.
func NewWorker(cfg WorkerConfig, handler *DeliveryTaskHandler, client *Client, log *logger.Logger) *Worker {
	server := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		},
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues: map[string]int{
				queueWebhooks:    8,
				queueMaintenance: 2,
			},
		},
	)

	mux := asynq.NewServeMux()
	handler.RegisterHandlers(mux)

	w := &Worker{
		server: server,
		mux:    mux,
		logger: log.With("component", "job_worker"),
	}

	if cfg.RetentionCron != "" {
		w.scheduler = cron.New()
		_, err := w.scheduler.AddFunc(cfg.RetentionCron, func() {
			if err := client.EnqueueDeliveryCleanup(context.Background(), cfg.RetentionMaxHours); err != nil {
				w.logger.Error("failed to schedule delivery cleanup", "error", err)
			}
		})
		if err != nil {
			w.logger.Error("invalid retention cron spec, cleanup disabled",
				"spec", cfg.RetentionCron,
				"error", err,
			)
			w.scheduler = nil
		}
	}

	return w
}

// Start starts the worker and the retention scheduler.
func (w *Worker) Start() error {
	if w.scheduler != nil {
		w.scheduler.Start()
	}
	w.logger.Info("starting job worker")
	return w.server.Start(w.mux)
}

// Stop stops the worker gracefully.
func (w *Worker) Stop() {
	w.logger.Info("stopping job worker")
	if w.scheduler != nil {
		w.scheduler.Stop()
	}
	w.server.Shutdown()
}

// Run runs the worker until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.Start()
	}()

	select {
	case <-ctx.Done():
		w.Stop()
		return ctx.Err()
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("worker error: %w", err)
		}
		return nil
	}
}
