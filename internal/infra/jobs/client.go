// Package jobs is the task substrate: it enqueues and executes background
// webhook delivery work on top of Asynq. The dispatch engine's
// responsibility ends at submission; retries and backoff live here.
package jobs

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/shopmesh/events/pkg/domain/event"
	"github.com/shopmesh/events/pkg/domain/shared"
	"github.com/shopmesh/events/pkg/domain/webhook"
	"github.com/shopmesh/events/pkg/logger"
)

// ErrEnqueue indicates the task substrate rejected a submission. It is the
// only delivery-related failure the dispatching caller ever observes.
var ErrEnqueue = fmt.Errorf("%w: task submission", shared.ErrUnavailable)

// ClientConfig contains configuration for the job client.
type ClientConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// CompressThreshold is the payload size in bytes above which task
	// payloads are compressed before enqueueing. Zero disables.
	CompressThreshold int

	// MaxRetry bounds per-subscription delivery retries.
	MaxRetry int
}

// Client manages enqueueing background jobs using Asynq.
type Client struct {
	client *asynq.Client
	cfg    ClientConfig
	logger *logger.Logger
}

// NewClient creates a new job client for enqueueing tasks.
func NewClient(cfg ClientConfig, log *logger.Logger) *Client {
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	return &Client{
		client: client,
		cfg:    cfg,
		logger: log.With("component", "job_client"),
	}
}

// Close closes the client connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueEventDelivery submits one fan-out delivery job for an event
// firing. It never blocks on delivery: once the task is accepted the
// substrate owns it.
func (c *Client) EnqueueEventDelivery(ctx context.Context, eventType event.Type, payload event.Payload) error {
	task, err := NewDeliverEventTask(eventType, payload, c.cfg.CompressThreshold)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEnqueue, err)
	}

	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		c.logger.Error("failed to enqueue event delivery",
			"event_type", eventType.String(),
			"error", err,
		)
		return fmt.Errorf("%w: %v", ErrEnqueue, err)
	}

	c.logger.Debug("event delivery queued",
		"task_id", info.ID,
		"event_type", eventType.String(),
		"queue", info.Queue,
	)
	return nil
}

// EnqueueWebhookDelivery submits one per-subscription delivery task. Used
// by the fan-out handler, not by the dispatch engine.
func (c *Client) EnqueueWebhookDelivery(ctx context.Context, webhookID webhook.ID, eventType event.Type, payload event.Payload) error {
	task, err := NewDeliverWebhookTask(webhookID, eventType, payload, c.cfg.CompressThreshold, c.cfg.MaxRetry)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEnqueue, err)
	}

	if _, err := c.client.EnqueueContext(ctx, task); err != nil {
		c.logger.Error("failed to enqueue webhook delivery",
			"webhook_id", webhookID.String(),
			"event_type", eventType.String(),
			"error", err,
		)
		return fmt.Errorf("%w: %v", ErrEnqueue, err)
	}
	return nil
}

// EnqueueDeliveryCleanup submits a delivery-log retention cleanup task.
func (c *Client) EnqueueDeliveryCleanup(ctx context.Context, maxAgeHours int) error {
	task, err := NewCleanupDeliveriesTask(maxAgeHours)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEnqueue, err)
	}
	if _, err := c.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("%w: %v", ErrEnqueue, err)
	}
	return nil
}
