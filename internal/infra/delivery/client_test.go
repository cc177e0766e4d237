package delivery_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopmesh/events/internal/infra/delivery"
	"github.com/shopmesh/events/pkg/domain/event"
	"github.com/shopmesh/events/pkg/domain/shared"
	"github.com/shopmesh/events/pkg/domain/webhook"
	"github.com/shopmesh/events/pkg/logger"
)

func webhookFor(t *testing.T, targetURL string) *webhook.Webhook {
	t.Helper()
	wh, err := webhook.New(shared.NewID(), shared.NewID(), "", targetURL, []event.Type{event.OrderCreated})
	require.NoError(t, err)
	return wh
}

func TestClient_Deliver(t *testing.T) {
	t.Run("posts payload with event header", func(t *testing.T) {
		var gotMethod, gotEvent, gotContentType string
		var gotBody []byte
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotEvent = r.Header.Get(delivery.EventHeader)
			gotContentType = r.Header.Get("Content-Type")
			gotBody, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"received": true}`))
		}))
		defer srv.Close()

		client := delivery.NewClient(delivery.DefaultConfig(), logger.NewNop())
		resp, err := client.Deliver(context.Background(), webhookFor(t, srv.URL), event.OrderCreated, event.Payload(`{"id":100}`))
		require.NoError(t, err)

		assert.Equal(t, http.MethodPost, gotMethod)
		assert.Equal(t, "order_created", gotEvent)
		assert.Equal(t, "application/json", gotContentType)
		assert.Equal(t, `{"id":100}`, string(gotBody))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, `{"received": true}`, string(resp.Body))
		assert.Positive(t, resp.Duration)
	})

	t.Run("non-2xx responses are returned, not errors", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("upstream broken"))
		}))
		defer srv.Close()

		client := delivery.NewClient(delivery.DefaultConfig(), logger.NewNop())
		resp, err := client.Deliver(context.Background(), webhookFor(t, srv.URL), event.OrderCreated, nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		assert.Equal(t, "upstream broken", string(resp.Body))
	})

	t.Run("timeout fails with ErrDelivery", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			time.Sleep(200 * time.Millisecond)
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		cfg := delivery.DefaultConfig()
		cfg.Timeout = 20 * time.Millisecond
		client := delivery.NewClient(cfg, logger.NewNop())

		_, err := client.Deliver(context.Background(), webhookFor(t, srv.URL), event.OrderCreated, nil)
		assert.ErrorIs(t, err, delivery.ErrDelivery)
	})

	t.Run("unreachable target fails with ErrDelivery", func(t *testing.T) {
		client := delivery.NewClient(delivery.DefaultConfig(), logger.NewNop())
		wh := webhookFor(t, "http://127.0.0.1:1/hooks")

		_, err := client.Deliver(context.Background(), wh, event.OrderCreated, nil)
		assert.ErrorIs(t, err, delivery.ErrDelivery)
	})

	t.Run("cancelled context aborts the rate-limit wait", func(t *testing.T) {
		cfg := delivery.DefaultConfig()
		cfg.RequestsPerSec = 0.001
		cfg.Burst = 1
		client := delivery.NewClient(cfg, logger.NewNop())

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{}`))
		}))
		defer srv.Close()
		wh := webhookFor(t, srv.URL)

		// First call consumes the burst token.
		_, err := client.Deliver(context.Background(), wh, event.OrderCreated, nil)
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err = client.Deliver(ctx, wh, event.OrderCreated, nil)
		assert.ErrorIs(t, err, delivery.ErrDelivery)
	})
}
