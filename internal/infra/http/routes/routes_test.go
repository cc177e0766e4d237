package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopmesh/events/internal/app"
	"github.com/shopmesh/events/internal/infra/http/handler"
	"github.com/shopmesh/events/internal/infra/http/routes"
	domainapp "github.com/shopmesh/events/pkg/domain/app"
	"github.com/shopmesh/events/pkg/domain/event"
	"github.com/shopmesh/events/pkg/domain/shared"
	"github.com/shopmesh/events/pkg/domain/webhook"
	"github.com/shopmesh/events/pkg/logger"
	"github.com/shopmesh/events/pkg/validator"
)

// memWebhookRepo stores webhooks in memory for handler tests.
type memWebhookRepo struct {
	hooks map[string]*webhook.Webhook
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
	result := webhook.ListResult{Page: 1, PerPage: 20, TotalPages: 1}
	for _, w := range m.hooks {
		result.Data = append(result.Data, w)
	}
	result.Total = int64(len(result.Data))
	return result, nil
}

func (m *memWebhookRepo) Update(_ context.Context, w *webhook.Webhook) error {
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

type stubDeliveries struct{}

func (stubDeliveries) Create(context.Context, *webhook.Delivery) error { return nil }
func (stubDeliveries) List(context.Context, webhook.DeliveryFilter) (webhook.DeliveryListResult, error) {
	return webhook.DeliveryListResult{Page: 1, PerPage: 20}, nil
}
func (stubDeliveries) DeleteOlderThan(context.Context, time.Time) (int64, error) { return 0, nil }

type stubApps struct {
	apps map[string]*domainapp.App
}

func (s *stubApps) GetByID(_ context.Context, id domainapp.ID) (*domainapp.App, error) {
	if a, ok := s.apps[id.String()]; ok {
		return a, nil
	}
	return nil, domainapp.ErrAppNotFound
}

func (s *stubApps) List(_ context.Context) ([]*domainapp.App, error) {
	var all []*domainapp.App
	for _, a := range s.apps {
		all = append(all, a)
	}
	return all, nil
}

type stubEnqueuer struct {
	calls int
	err   error
}

func (s *stubEnqueuer) EnqueueEventDelivery(context.Context, event.Type, event.Payload) error {
	s.calls++
	return s.err
}

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

type testServer struct {
	srv      *httptest.Server
	owner    *domainapp.App
	enqueuer *stubEnqueuer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	log := logger.NewNop()
	owner := domainapp.New(shared.NewID(), "inventory-sync")
	repo := &memWebhookRepo{hooks: make(map[string]*webhook.Webhook)}
	apps := &stubApps{apps: map[string]*domainapp.App{owner.ID().String(): owner}}
	enqueuer := &stubEnqueuer{}

	selector := webhook.NewSelector(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
	engine := app.NewEngine(true, selector, enqueuer, nil, apps, log)
	svc := app.NewWebhookService(repo, stubDeliveries{}, apps, log)
	v := validator.New()

	router := routes.New(routes.Handlers{
		Health:  handler.NewHealthHandler(okPinger{}, okPinger{}),
		Webhook: handler.NewWebhookHandler(svc, v, log),
		Event:   handler.NewEventHandler(engine, enqueuer, v, log),
	}, "", log)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, owner: owner, enqueuer: enqueuer}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.srv.URL+path, reqBody)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestWebhookAPI_CRUD(t *testing.T) {
	ts := newTestServer(t)

	var created handler.WebhookResponse
	t.Run("create", func(t *testing.T) {
		resp := ts.do(t, http.MethodPost, "/api/v1/webhooks", map[string]any{
			"app_id":      ts.owner.ID().String(),
			"name":        "order feed",
			"target_url":  "https://example.com/hooks",
			"event_types": []string{"order_created", "order_updated"},
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		decodeBody(t, resp, &created)
		assert.True(t, created.IsActive)
		assert.Len(t, created.EventTypes, 2)
	})

	t.Run("get", func(t *testing.T) {
		resp := ts.do(t, http.MethodGet, "/api/v1/webhooks/"+created.ID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var got handler.WebhookResponse
		decodeBody(t, resp, &got)
		assert.Equal(t, created.ID, got.ID)
	})

	t.Run("get unknown id is 404", func(t *testing.T) {
		resp := ts.do(t, http.MethodGet, "/api/v1/webhooks/"+shared.NewID().String(), nil)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("disable and enable", func(t *testing.T) {
		resp := ts.do(t, http.MethodPost, "/api/v1/webhooks/"+created.ID+"/disable", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var got handler.WebhookResponse
		decodeBody(t, resp, &got)
		assert.False(t, got.IsActive)

		resp = ts.do(t, http.MethodPost, "/api/v1/webhooks/"+created.ID+"/enable", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		decodeBody(t, resp, &got)
		assert.True(t, got.IsActive)
	})

	t.Run("update", func(t *testing.T) {
		resp := ts.do(t, http.MethodPut, "/api/v1/webhooks/"+created.ID, map[string]any{
			"name": "renamed",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var got handler.WebhookResponse
		decodeBody(t, resp, &got)
		assert.Equal(t, "renamed", got.Name)
		assert.Equal(t, created.TargetURL, got.TargetURL)
	})

	t.Run("delete", func(t *testing.T) {
		resp := ts.do(t, http.MethodDelete, "/api/v1/webhooks/"+created.ID, nil)
		defer resp.Body.Close()
		require.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp = ts.do(t, http.MethodGet, "/api/v1/webhooks/"+created.ID, nil)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestWebhookAPI_Validation(t *testing.T) {
	ts := newTestServer(t)

	t.Run("unknown event type is rejected", func(t *testing.T) {
		resp := ts.do(t, http.MethodPost, "/api/v1/webhooks", map[string]any{
			"app_id":      ts.owner.ID().String(),
			"target_url":  "https://example.com/hooks",
			"event_types": []string{"order_exploded"},
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("missing target url is rejected", func(t *testing.T) {
		resp := ts.do(t, http.MethodPost, "/api/v1/webhooks", map[string]any{
			"app_id":      ts.owner.ID().String(),
			"event_types": []string{"order_created"},
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("unknown app is 404", func(t *testing.T) {
		resp := ts.do(t, http.MethodPost, "/api/v1/webhooks", map[string]any{
			"app_id":      shared.NewID().String(),
			"target_url":  "https://example.com/hooks",
			"event_types": []string{"order_created"},
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestEngineAPI(t *testing.T) {
	ts := newTestServer(t)

	t.Run("status reflects gate", func(t *testing.T) {
		resp := ts.do(t, http.MethodGet, "/api/v1/engine", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var got handler.EngineStatusResponse
		decodeBody(t, resp, &got)
		assert.True(t, got.Active)
	})

	t.Run("put toggles gate", func(t *testing.T) {
		resp := ts.do(t, http.MethodPut, "/api/v1/engine", map[string]any{"active": false})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var got handler.EngineStatusResponse
		decodeBody(t, resp, &got)
		assert.False(t, got.Active)
	})

	t.Run("missing active field is 400", func(t *testing.T) {
		resp := ts.do(t, http.MethodPut, "/api/v1/engine", map[string]any{})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestEventAPI(t *testing.T) {
	ts := newTestServer(t)

	t.Run("list event types", func(t *testing.T) {
		resp := ts.do(t, http.MethodGet, "/api/v1/events/types", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var got struct {
			EventTypes []string `json:"event_types"`
		}
		decodeBody(t, resp, &got)
		assert.Len(t, got.EventTypes, len(event.AllTypes()))
	})

	t.Run("test fire enqueues", func(t *testing.T) {
		resp := ts.do(t, http.MethodPost, "/api/v1/events/test", map[string]any{
			"event_type": "order_created",
			"payload":    map[string]any{"id": 100},
		})
		defer resp.Body.Close()
		require.Equal(t, http.StatusAccepted, resp.StatusCode)
		assert.Equal(t, 1, ts.enqueuer.calls)
	})

	t.Run("test fire rejects unknown type", func(t *testing.T) {
		before := ts.enqueuer.calls
		resp := ts.do(t, http.MethodPost, "/api/v1/events/test", map[string]any{
			"event_type": "order_exploded",
			"payload":    map[string]any{},
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, before, ts.enqueuer.calls)
	})
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		resp := ts.do(t, http.MethodGet, path, nil)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, fmt.Sprintf("GET %s", path))
	}
}
