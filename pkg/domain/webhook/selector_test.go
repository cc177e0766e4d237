package webhook_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopmesh/events/pkg/domain/event"
	"github.com/shopmesh/events/pkg/domain/shared"
	"github.com/shopmesh/events/pkg/domain/webhook"
)

// stubRepository returns canned selection results.
type stubRepository struct {
	byEventType       []*webhook.Webhook
	byAppAndEventType []*webhook.Webhook
	err               error

	lastAppID *shared.ID
}

func (s *stubRepository) Create(context.Context, *webhook.Webhook) error { return nil }
func (s *stubRepository) GetByID(context.Context, webhook.ID) (*webhook.Webhook, error) {
	return nil, webhook.ErrWebhookNotFound
}
func (s *stubRepository) List(context.Context, webhook.Filter) (webhook.ListResult, error) {
	return webhook.ListResult{}, nil
}
func (s *stubRepository) Update(context.Context, *webhook.Webhook) error { return nil }
func (s *stubRepository) Delete(context.Context, webhook.ID) error       { return nil }

func (s *stubRepository) ListActiveByEventType(_ context.Context, _ event.Type) ([]*webhook.Webhook, error) {
	return s.byEventType, s.err
}

func (s *stubRepository) ListActiveByAppAndEventType(_ context.Context, appID webhook.ID, _ event.Type) ([]*webhook.Webhook, error) {
	s.lastAppID = &appID
	return s.byAppAndEventType, s.err
}

func reconstructedWebhook(id string, types ...event.Type) *webhook.Webhook {
	now := time.Now()
	return webhook.Reconstruct(
		shared.MustIDFromString(id),
		shared.NewID(),
		"",
		"https://example.com/hooks",
		true,
		types,
		now, now,
	)
}

func TestSelector_Select(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("orders results by ascending id", func(t *testing.T) {
		first := reconstructedWebhook("11111111-1111-1111-1111-111111111111", event.OrderCreated)
		second := reconstructedWebhook("22222222-2222-2222-2222-222222222222", event.OrderCreated)
		repo := &stubRepository{byEventType: []*webhook.Webhook{second, first}}

		hooks, err := webhook.NewSelector(repo, log).Select(context.Background(), event.OrderCreated, webhook.AllApps())
		require.NoError(t, err)
		require.Len(t, hooks, 2)
		assert.Equal(t, first.ID(), hooks[0].ID())
		assert.Equal(t, second.ID(), hooks[1].ID())
	})

	t.Run("empty selection is not an error", func(t *testing.T) {
		repo := &stubRepository{}
		hooks, err := webhook.NewSelector(repo, log).Select(context.Background(), event.OrderCreated, webhook.AllApps())
		require.NoError(t, err)
		assert.Empty(t, hooks)
	})

	t.Run("single-app scope queries by app", func(t *testing.T) {
		appID := shared.NewID()
		repo := &stubRepository{}

		_, err := webhook.NewSelector(repo, log).Select(context.Background(), event.PaymentProcess, webhook.SingleApp(appID))
		require.NoError(t, err)
		require.NotNil(t, repo.lastAppID)
		assert.True(t, appID.Equals(*repo.lastAppID))
	})

	t.Run("repository errors propagate", func(t *testing.T) {
		repo := &stubRepository{err: errors.New("connection refused")}
		_, err := webhook.NewSelector(repo, log).Select(context.Background(), event.OrderCreated, webhook.AllApps())
		assert.Error(t, err)
	})
}

func TestSelector_SelectOne(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	appID := shared.NewID()

	t.Run("zero matches fails with ErrNoMatchingWebhook", func(t *testing.T) {
		repo := &stubRepository{}
		_, err := webhook.NewSelector(repo, log).SelectOne(context.Background(), event.PaymentProcess, webhook.SingleApp(appID))
		assert.ErrorIs(t, err, webhook.ErrNoMatchingWebhook)
	})

	t.Run("single match is returned", func(t *testing.T) {
		wh := reconstructedWebhook("11111111-1111-1111-1111-111111111111", event.PaymentProcess)
		repo := &stubRepository{byAppAndEventType: []*webhook.Webhook{wh}}

		got, err := webhook.NewSelector(repo, log).SelectOne(context.Background(), event.PaymentProcess, webhook.SingleApp(appID))
		require.NoError(t, err)
		assert.Equal(t, wh.ID(), got.ID())
	})

	t.Run("multiple matches pick first by id", func(t *testing.T) {
		first := reconstructedWebhook("11111111-1111-1111-1111-111111111111", event.PaymentProcess)
		second := reconstructedWebhook("22222222-2222-2222-2222-222222222222", event.PaymentProcess)
		repo := &stubRepository{byAppAndEventType: []*webhook.Webhook{second, first}}

		got, err := webhook.NewSelector(repo, log).SelectOne(context.Background(), event.PaymentProcess, webhook.SingleApp(appID))
		require.NoError(t, err)
		assert.Equal(t, first.ID(), got.ID())
	})
}
