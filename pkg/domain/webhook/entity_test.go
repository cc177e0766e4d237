package webhook_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopmesh/events/pkg/domain/event"
	"github.com/shopmesh/events/pkg/domain/shared"
	"github.com/shopmesh/events/pkg/domain/webhook"
)

func TestNew_Validation(t *testing.T) {
	id := shared.NewID()
	appID := shared.NewID()

	t.Run("valid webhook", func(t *testing.T) {
		wh, err := webhook.New(id, appID, "order feed", "https://example.com/hooks", []event.Type{event.OrderCreated})
		require.NoError(t, err)
		assert.Equal(t, id, wh.ID())
		assert.Equal(t, appID, wh.AppID())
		assert.Equal(t, "order feed", wh.Name())
		assert.Equal(t, "https://example.com/hooks", wh.TargetURL())
		assert.True(t, wh.IsActive())
	})

	t.Run("unicode host is normalized to punycode", func(t *testing.T) {
		wh, err := webhook.New(id, appID, "", "https://bücher.example/hooks", []event.Type{event.OrderCreated})
		require.NoError(t, err)
		assert.Equal(t, "https://xn--bcher-kva.example/hooks", wh.TargetURL())
	})

	t.Run("port is preserved through normalization", func(t *testing.T) {
		wh, err := webhook.New(id, appID, "", "http://localhost:8080/hooks", []event.Type{event.OrderCreated})
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8080/hooks", wh.TargetURL())
	})

	t.Run("rejects non-http scheme", func(t *testing.T) {
		_, err := webhook.New(id, appID, "", "ftp://example.com/hooks", []event.Type{event.OrderCreated})
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("rejects missing host", func(t *testing.T) {
		_, err := webhook.New(id, appID, "", "https:///hooks", []event.Type{event.OrderCreated})
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("rejects unknown event type", func(t *testing.T) {
		_, err := webhook.New(id, appID, "", "https://example.com/hooks", []event.Type{"order_exploded"})
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
		assert.Contains(t, err.Error(), "order_exploded")
	})
}

func TestWebhook_SubscribesTo(t *testing.T) {
	wh, err := webhook.New(shared.NewID(), shared.NewID(), "", "https://example.com/hooks",
		[]event.Type{event.OrderCreated, event.OrderUpdated})
	require.NoError(t, err)

	assert.True(t, wh.SubscribesTo(event.OrderCreated))
	assert.True(t, wh.SubscribesTo(event.OrderUpdated))
	assert.False(t, wh.SubscribesTo(event.ProductCreated))
}

func TestWebhook_Mutations(t *testing.T) {
	wh, err := webhook.New(shared.NewID(), shared.NewID(), "original", "https://example.com/hooks",
		[]event.Type{event.OrderCreated})
	require.NoError(t, err)

	t.Run("disable then enable", func(t *testing.T) {
		wh.Disable()
		assert.False(t, wh.IsActive())
		wh.Enable()
		assert.True(t, wh.IsActive())
	})

	t.Run("set target url normalizes", func(t *testing.T) {
		err := wh.SetTargetURL("https://münchen.example/new")
		require.NoError(t, err)
		assert.Equal(t, "https://xn--mnchen-3ya.example/new", wh.TargetURL())
	})

	t.Run("set target url rejects invalid", func(t *testing.T) {
		err := wh.SetTargetURL("not a url")
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("set event types validates each type", func(t *testing.T) {
		err := wh.SetEventTypes([]event.Type{event.PageCreated, "nonsense"})
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)

		err = wh.SetEventTypes([]event.Type{event.PageCreated})
		require.NoError(t, err)
		assert.Equal(t, []event.Type{event.PageCreated}, wh.EventTypes())
	})
}
