package app

import (
	"context"
	"fmt"

	"github.com/shopmesh/events/pkg/domain/app"
	"github.com/shopmesh/events/pkg/domain/event"
	"github.com/shopmesh/events/pkg/domain/shared"
	"github.com/shopmesh/events/pkg/domain/webhook"
	"github.com/shopmesh/events/pkg/logger"
)

// WebhookService handles webhook subscription management: the surface used
// by installation tooling, not by the dispatch path.
type WebhookService struct {
	webhooks   webhook.Repository
	deliveries webhook.DeliveryRepository
	apps       app.Repository
	log        *logger.Logger
}

// NewWebhookService creates a new WebhookService.
func NewWebhookService(
	webhooks webhook.Repository,
	deliveries webhook.DeliveryRepository,
	apps app.Repository,
	log *logger.Logger,
) *WebhookService {
	return &WebhookService{
		webhooks:   webhooks,
		deliveries: deliveries,
		apps:       apps,
		log:        log.With("component", "webhook_service"),
	}
}

// CreateWebhookParams contains parameters for registering a webhook.
type CreateWebhookParams struct {
	AppID      shared.ID
	Name       string
	TargetURL  string
	EventTypes []event.Type
}

// Create registers a new webhook subscription for an installed app.
func (s *WebhookService) Create(ctx context.Context, params CreateWebhookParams) (*webhook.Webhook, error) {
	if _, err := s.apps.GetByID(ctx, params.AppID); err != nil {
		return nil, fmt.Errorf("resolve app: %w", err)
	}

	wh, err := webhook.New(shared.NewID(), params.AppID, params.Name, params.TargetURL, params.EventTypes)
	if err != nil {
		return nil, err
	}

	if err := s.webhooks.Create(ctx, wh); err != nil {
		return nil, fmt.Errorf("create webhook: %w", err)
	}

	s.log.Info("webhook registered",
		"webhook_id", wh.ID().String(),
		"app_id", params.AppID.String(),
		"event_types", len(params.EventTypes),
	)
	return wh, nil
}

// Get returns one webhook by id.
func (s *WebhookService) Get(ctx context.Context, id shared.ID) (*webhook.Webhook, error) {
	return s.webhooks.GetByID(ctx, id)
}

// List returns webhooks matching the filter.
func (s *WebhookService) List(ctx context.Context, filter webhook.Filter) (webhook.ListResult, error) {
	return s.webhooks.List(ctx, filter)
}

// UpdateWebhookParams contains optional updates; nil fields are unchanged.
type UpdateWebhookParams struct {
	Name       *string
	TargetURL  *string
	EventTypes []event.Type
}

// Update applies partial changes to a webhook.
func (s *WebhookService) Update(ctx context.Context, id shared.ID, params UpdateWebhookParams) (*webhook.Webhook, error) {
	wh, err := s.webhooks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if params.Name != nil {
		wh.SetName(*params.Name)
	}
	if params.TargetURL != nil {
		if err := wh.SetTargetURL(*params.TargetURL); err != nil {
			return nil, err
		}
	}
	if params.EventTypes != nil {
		if err := wh.SetEventTypes(params.EventTypes); err != nil {
			return nil, err
		}
	}

	if err := s.webhooks.Update(ctx, wh); err != nil {
		return nil, fmt.Errorf("update webhook: %w", err)
	}
	return wh, nil
}

// SetActive enables or disables a webhook.
func (s *WebhookService) SetActive(ctx context.Context, id shared.ID, active bool) (*webhook.Webhook, error) {
	wh, err := s.webhooks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if active {
		wh.Enable()
	} else {
		wh.Disable()
	}

	if err := s.webhooks.Update(ctx, wh); err != nil {
		return nil, fmt.Errorf("update webhook: %w", err)
	}

	s.log.Info("webhook state changed",
		"webhook_id", id.String(),
		"active", active,
	)
	return wh, nil
}

// Delete removes a webhook subscription.
func (s *WebhookService) Delete(ctx context.Context, id shared.ID) error {
	if err := s.webhooks.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	s.log.Info("webhook deleted", "webhook_id", id.String())
	return nil
}

// ListDeliveries returns the delivery log for a webhook.
func (s *WebhookService) ListDeliveries(ctx context.Context, filter webhook.DeliveryFilter) (webhook.DeliveryListResult, error) {
	return s.deliveries.List(ctx, filter)
}

// ListApps returns the installed apps.
func (s *WebhookService) ListApps(ctx context.Context) ([]*app.App, error) {
	return s.apps.List(ctx)
}
