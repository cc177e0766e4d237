package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopmesh/events/internal/app"
	domainapp "github.com/shopmesh/events/pkg/domain/app"
	"github.com/shopmesh/events/pkg/domain/event"
	"github.com/shopmesh/events/pkg/domain/shared"
	"github.com/shopmesh/events/pkg/domain/webhook"
	"github.com/shopmesh/events/pkg/logger"
)

// memWebhookRepo stores webhooks in memory.
type memWebhookRepo struct {
	hooks map[string]*webhook.Webhook
}

func newMemWebhookRepo() *memWebhookRepo {
	return &memWebhookRepo{hooks: make(map[string]*webhook.Webhook)}
}

func (m *memWebhookRepo) Create(_ context.Context, w *webhook.Webhook) error {
	m.hooks[w.ID().String()] = w
	return nil
}

func (m *memWebhookRepo) GetByID(_ context.Context, id webhook.ID) (*webhook.Webhook, error) {
	if w, ok := m.hooks[id.String()]; ok {
		return w, nil
	}
	return nil, webhook.ErrWebhookNotFound
}

func (m *memWebhookRepo) List(_ context.Context, _ webhook.Filter) (webhook.ListResult, error) {
	result := webhook.ListResult{Page: 1, PerPage: 20}
	for _, w := range m.hooks {
		result.Data = append(result.Data, w)
	}
	result.Total = int64(len(result.Data))
	return result, nil
}

func (m *memWebhookRepo) Update(_ context.Context, w *webhook.Webhook) error {
	if _, ok := m.hooks[w.ID().String()]; !ok {
		return webhook.ErrWebhookNotFound
	}
	m.hooks[w.ID().String()] = w
	return nil
}

func (m *memWebhookRepo) Delete(_ context.Context, id webhook.ID) error {
	if _, ok := m.hooks[id.String()]; !ok {
		return webhook.ErrWebhookNotFound
	}
	delete(m.hooks, id.String())
	return nil
}

func (m *memWebhookRepo) ListActiveByEventType(_ context.Context, t event.Type) ([]*webhook.Webhook, error) {
	var hooks []*webhook.Webhook
	for _, w := range m.hooks {
		if w.IsActive() && w.SubscribesTo(t) {
			hooks = append(hooks, w)
		}
	}
	return hooks, nil
}

func (m *memWebhookRepo) ListActiveByAppAndEventType(_ context.Context, appID webhook.ID, t event.Type) ([]*webhook.Webhook, error) {
	var hooks []*webhook.Webhook
	for _, w := range m.hooks {
		if w.IsActive() && w.AppID().Equals(appID) && w.SubscribesTo(t) {
			hooks = append(hooks, w)
		}
	}
	return hooks, nil
}

// stubDeliveries satisfies webhook.DeliveryRepository.
type stubDeliveries struct{}

func (stubDeliveries) Create(context.Context, *webhook.Delivery) error { return nil }
func (stubDeliveries) List(context.Context, webhook.DeliveryFilter) (webhook.DeliveryListResult, error) {
	return webhook.DeliveryListResult{}, nil
}
func (stubDeliveries) DeleteOlderThan(context.Context, time.Time) (int64, error) { return 0, nil }

func newService(t *testing.T) (*app.WebhookService, *memWebhookRepo, *domainapp.App) {
	t.Helper()
	owner := domainapp.New(shared.NewID(), "inventory-sync")
	repo := newMemWebhookRepo()
	apps := &stubApps{apps: map[string]*domainapp.App{owner.ID().String(): owner}}
	svc := app.NewWebhookService(repo, stubDeliveries{}, apps, logger.NewNop())
	return svc, repo, owner
}

func TestWebhookService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("registers a webhook for an installed app", func(t *testing.T) {
		svc, repo, owner := newService(t)

		wh, err := svc.Create(ctx, app.CreateWebhookParams{
			AppID:      owner.ID(),
			Name:       "order feed",
			TargetURL:  "https://example.com/hooks",
			EventTypes: []event.Type{event.OrderCreated},
		})
		require.NoError(t, err)
		assert.True(t, wh.IsActive())
		assert.Len(t, repo.hooks, 1)
	})

	t.Run("rejects unknown app", func(t *testing.T) {
		svc, _, _ := newService(t)

		_, err := svc.Create(ctx, app.CreateWebhookParams{
			AppID:      shared.NewID(),
			TargetURL:  "https://example.com/hooks",
			EventTypes: []event.Type{event.OrderCreated},
		})
		assert.ErrorIs(t, err, domainapp.ErrAppNotFound)
	})

	t.Run("rejects invalid target url", func(t *testing.T) {
		svc, repo, owner := newService(t)

		_, err := svc.Create(ctx, app.CreateWebhookParams{
			AppID:      owner.ID(),
			TargetURL:  "ftp://example.com/hooks",
			EventTypes: []event.Type{event.OrderCreated},
		})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
		assert.Empty(t, repo.hooks)
	})
}

func TestWebhookService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("partial update leaves other fields intact", func(t *testing.T) {
		svc, _, owner := newService(t)
		wh, err := svc.Create(ctx, app.CreateWebhookParams{
			AppID:      owner.ID(),
			Name:       "original",
			TargetURL:  "https://example.com/hooks",
			EventTypes: []event.Type{event.OrderCreated},
		})
		require.NoError(t, err)

		name := "renamed"
		updated, err := svc.Update(ctx, wh.ID(), app.UpdateWebhookParams{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "renamed", updated.Name())
		assert.Equal(t, "https://example.com/hooks", updated.TargetURL())
		assert.Equal(t, []event.Type{event.OrderCreated}, updated.EventTypes())
	})

	t.Run("missing webhook fails", func(t *testing.T) {
		svc, _, _ := newService(t)
		_, err := svc.Update(ctx, shared.NewID(), app.UpdateWebhookParams{})
		assert.ErrorIs(t, err, webhook.ErrWebhookNotFound)
	})
}

func TestWebhookService_SetActive(t *testing.T) {
	ctx := context.Background()
	svc, _, owner := newService(t)

	wh, err := svc.Create(ctx, app.CreateWebhookParams{
		AppID:      owner.ID(),
		TargetURL:  "https://example.com/hooks",
		EventTypes: []event.Type{event.OrderCreated},
	})
	require.NoError(t, err)

	disabled, err := svc.SetActive(ctx, wh.ID(), false)
	require.NoError(t, err)
	assert.False(t, disabled.IsActive())

	enabled, err := svc.SetActive(ctx, wh.ID(), true)
	require.NoError(t, err)
	assert.True(t, enabled.IsActive())
}

func TestWebhookService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, repo, owner := newService(t)

	wh, err := svc.Create(ctx, app.CreateWebhookParams{
		AppID:      owner.ID(),
		TargetURL:  "https://example.com/hooks",
		EventTypes: []event.Type{event.OrderCreated},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, wh.ID()))
	assert.Empty(t, repo.hooks)

	err = svc.Delete(ctx, wh.ID())
	assert.ErrorIs(t, err, webhook.ErrWebhookNotFound)
}
