package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/sync/errgroup"

	"github.com/shopmesh/events/internal/infra/delivery"
	"github.com/shopmesh/events/internal/metrics"
	"github.com/shopmesh/events/pkg/domain/event"
	"github.com/shopmesh/events/pkg/domain/shared"
	"github.com/shopmesh/events/pkg/domain/webhook"
)

// Task types.
const (
	// TypeDeliverEvent fans one event out to every matching subscription.
	TypeDeliverEvent = "webhook:deliver_event"

	// TypeDeliverWebhook delivers one payload to one subscription.
	// Retried individually so one failing target does not re-deliver to
	// the others.
	TypeDeliverWebhook = "webhook:deliver"

	// TypeCleanupDeliveries removes old delivery log rows.
	TypeCleanupDeliveries = "webhook:cleanup_deliveries"
)

const (
	queueWebhooks    = "webhooks"
	queueMaintenance = "maintenance"

	encodingZstd = "zstd"
)

// DeliverEventPayload contains the fan-out job data.
type DeliverEventPayload struct {
	EventType string `json:"event_type"`
	Payload   []byte `json:"payload"`
	Encoding  string `json:"encoding,omitempty"`
}

// DeliverWebhookPayload contains the per-subscription job data.
type DeliverWebhookPayload struct {
	WebhookID string `json:"webhook_id"`
	EventType string `json:"event_type"`
	Payload   []byte `json:"payload"`
	Encoding  string `json:"encoding,omitempty"`
}

// CleanupDeliveriesPayload contains retention cleanup job data.
type CleanupDeliveriesPayload struct {
	MaxAgeHours int `json:"max_age_hours"`
}

// NewDeliverEventTask creates the fan-out task for one event firing.
func NewDeliverEventTask(eventType event.Type, payload event.Payload, compressThreshold int) (*asynq.Task, error) {
	body, encoding := encodePayload(payload, compressThreshold)
	data, err := json.Marshal(DeliverEventPayload{
		EventType: eventType.String(),
		Payload:   body,
		Encoding:  encoding,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal deliver event payload: %w", err)
	}

	return asynq.NewTask(
		TypeDeliverEvent,
		data,
		asynq.MaxRetry(3), // fan-out itself is cheap to retry, delivery is not re-run here
		asynq.Timeout(1*time.Minute),
		asynq.Queue(queueWebhooks),
	), nil
}

// NewDeliverWebhookTask creates a per-subscription delivery task.
func NewDeliverWebhookTask(webhookID webhook.ID, eventType event.Type, payload event.Payload, compressThreshold, maxRetry int) (*asynq.Task, error) {
	body, encoding := encodePayload(payload, compressThreshold)
	data, err := json.Marshal(DeliverWebhookPayload{
		WebhookID: webhookID.String(),
		EventType: eventType.String(),
		Payload:   body,
		Encoding:  encoding,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal deliver webhook payload: %w", err)
	}

	return asynq.NewTask(
		TypeDeliverWebhook,
		data,
		asynq.MaxRetry(maxRetry),
		asynq.Timeout(1*time.Minute),
		asynq.Queue(queueWebhooks),
	), nil
}

// NewCleanupDeliveriesTask creates a retention cleanup task.
func NewCleanupDeliveriesTask(maxAgeHours int) (*asynq.Task, error) {
	data, err := json.Marshal(CleanupDeliveriesPayload{MaxAgeHours: maxAgeHours})
	if err != nil {
		return nil, fmt.Errorf("marshal cleanup payload: %w", err)
	}
	return asynq.NewTask(
		TypeCleanupDeliveries,
		data,
		asynq.MaxRetry(2),
		asynq.Timeout(5*time.Minute),
		asynq.Queue(queueMaintenance),
	), nil
}

var (
	zstdEncoder, _ = zstd.NewWriter(nil)
	zstdDecoder, _ = zstd.NewReader(nil)
)

func encodePayload(payload event.Payload, threshold int) ([]byte, string) {
	if threshold > 0 && len(payload) > threshold {
		return zstdEncoder.EncodeAll(payload, nil), encodingZstd
	}
	return payload, ""
}

func decodePayload(body []byte, encoding string) (event.Payload, error) {
	switch encoding {
	case "":
		return event.Payload(body), nil
	case encodingZstd:
		decoded, err := zstdDecoder.DecodeAll(body, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress payload: %w", err)
		}
		return event.Payload(decoded), nil
	default:
		return nil, fmt.Errorf("unknown payload encoding %q", encoding)
	}
}

// Deliverer performs one outbound webhook call.
type Deliverer interface {
	Deliver(ctx context.Context, wh *webhook.Webhook, eventType event.Type, payload event.Payload) (*delivery.Response, error)
}

// Archiver persists a delivery record to long-term storage.
type Archiver interface {
	Archive(ctx context.Context, d *webhook.Delivery) error
}

// Enqueuer submits per-subscription delivery tasks. Implemented by Client.
type Enqueuer interface {
	EnqueueWebhookDelivery(ctx context.Context, webhookID webhook.ID, eventType event.Type, payload event.Payload) error
}

// DeliveryTaskHandler executes webhook delivery tasks.
type DeliveryTaskHandler struct {
	selector   *webhook.Selector
	webhooks   webhook.Repository
	deliveries webhook.DeliveryRepository
	deliverer  Deliverer
	enqueuer   Enqueuer
	archiver   Archiver // optional
	parallel   int
	log        *slog.Logger
}

// NewDeliveryTaskHandler creates a delivery task handler. archiver may be
// nil when payload archiving is not configured.
func NewDeliveryTaskHandler(
	selector *webhook.Selector,
	webhooks webhook.Repository,
	deliveries webhook.DeliveryRepository,
	deliverer Deliverer,
	enqueuer Enqueuer,
	archiver Archiver,
	parallel int,
	log *slog.Logger,
) *DeliveryTaskHandler {
	if parallel < 1 {
		parallel = 1
	}
	return &DeliveryTaskHandler{
		selector:   selector,
		webhooks:   webhooks,
		deliveries: deliveries,
		deliverer:  deliverer,
		enqueuer:   enqueuer,
		archiver:   archiver,
		parallel:   parallel,
		log:        log,
	}
}

// HandleDeliverEvent fans one event out: it re-selects the matching
// subscriptions and enqueues one delivery task per subscription.
func (h *DeliveryTaskHandler) HandleDeliverEvent(ctx context.Context, t *asynq.Task) error {
	var p DeliverEventPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	payload, err := decodePayload(p.Payload, p.Encoding)
	if err != nil {
		return err
	}
	eventType := event.Type(p.EventType)

	hooks, err := h.selector.Select(ctx, eventType, webhook.AllApps())
	if err != nil {
		return fmt.Errorf("select subscriptions: %w", err)
	}
	if len(hooks) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.parallel)
	for _, wh := range hooks {
		wh := wh
		g.Go(func() error {
			return h.enqueuer.EnqueueWebhookDelivery(gctx, wh.ID(), eventType, payload)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("fan out event %s: %w", eventType, err)
	}

	h.log.Info("event fanned out",
		"event_type", eventType.String(),
		"subscriptions", len(hooks),
	)
	return nil
}

// HandleDeliverWebhook performs one delivery attempt to one subscription
// and records the outcome. Returning an error makes the substrate retry
// this subscription alone.
func (h *DeliveryTaskHandler) HandleDeliverWebhook(ctx context.Context, t *asynq.Task) error {
	var p DeliverWebhookPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	payload, err := decodePayload(p.Payload, p.Encoding)
	if err != nil {
		return err
	}
	eventType := event.Type(p.EventType)

	webhookID, err := shared.IDFromString(p.WebhookID)
	if err != nil {
		return fmt.Errorf("bad webhook id: %w", err)
	}

	wh, err := h.webhooks.GetByID(ctx, webhookID)
	if err != nil {
		if shared.IsNotFound(err) {
			// Deleted between fan-out and delivery; nothing to do.
			return nil
		}
		return fmt.Errorf("load webhook: %w", err)
	}
	if !wh.IsActive() {
		h.log.Debug("skipping delivery to disabled webhook", "webhook_id", wh.ID().String())
		return nil
	}

	attempt, _ := asynq.GetRetryCount(ctx)
	record := &webhook.Delivery{
		ID:        shared.NewID(),
		WebhookID: wh.ID(),
		EventType: eventType,
		Payload:   payload,
		Attempt:   attempt + 1,
		CreatedAt: time.Now(),
	}

	resp, err := h.deliverer.Deliver(ctx, wh, eventType, payload)
	if err != nil {
		record.Status = webhook.DeliveryFailed
		record.ErrorMessage = err.Error()
		h.persist(ctx, record)
		metrics.WebhookDeliveries.WithLabelValues(eventType.String(), "error").Inc()
		return fmt.Errorf("deliver to %s: %w", wh.ID().String(), err)
	}

	now := time.Now()
	durationMs := resp.Duration.Milliseconds()
	record.ResponseCode = &resp.StatusCode
	record.ResponseBody = string(resp.Body)
	record.DeliveredAt = &now
	record.DurationMs = &durationMs

	metrics.WebhookDeliveryDuration.WithLabelValues(eventType.String()).Observe(resp.Duration.Seconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		record.Status = webhook.DeliveryFailed
		record.ErrorMessage = fmt.Sprintf("target returned status %d", resp.StatusCode)
		h.persist(ctx, record)
		metrics.WebhookDeliveries.WithLabelValues(eventType.String(), "failed").Inc()
		return fmt.Errorf("webhook %s returned status %d", wh.ID().String(), resp.StatusCode)
	}

	record.Status = webhook.DeliverySuccess
	h.persist(ctx, record)
	metrics.WebhookDeliveries.WithLabelValues(eventType.String(), "success").Inc()
	return nil
}

// HandleCleanupDeliveries removes delivery log rows past retention.
func (h *DeliveryTaskHandler) HandleCleanupDeliveries(ctx context.Context, t *asynq.Task) error {
	var p CleanupDeliveriesPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	cutoff := time.Now().Add(-time.Duration(p.MaxAgeHours) * time.Hour)
	deleted, err := h.deliveries.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("cleanup deliveries: %w", err)
	}

	metrics.DeliveriesCleaned.Add(float64(deleted))
	h.log.Info("cleaned up delivery log", "deleted", deleted, "cutoff", cutoff)
	return nil
}

// persist writes the delivery record and archives it when configured.
// Record-keeping failures are logged, never allowed to fail the delivery.
func (h *DeliveryTaskHandler) persist(ctx context.Context, record *webhook.Delivery) {
	if err := h.deliveries.Create(ctx, record); err != nil {
		h.log.Error("failed to record delivery",
			"webhook_id", record.WebhookID.String(),
			"error", err,
		)
	}
	if h.archiver != nil {
		if err := h.archiver.Archive(ctx, record); err != nil {
			h.log.Error("failed to archive delivery",
				"delivery_id", record.ID.String(),
				"error", err,
			)
		}
	}
}

// RegisterHandlers registers delivery task handlers with the asynq mux.
func (h *DeliveryTaskHandler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeDeliverEvent, h.HandleDeliverEvent)
	mux.HandleFunc(TypeDeliverWebhook, h.HandleDeliverWebhook)
	mux.HandleFunc(TypeCleanupDeliveries, h.HandleCleanupDeliveries)
}
