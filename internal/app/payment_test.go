package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopmesh/events/internal/infra/delivery"
	domainapp "github.com/shopmesh/events/pkg/domain/app"
	"github.com/shopmesh/events/pkg/domain/event"
	"github.com/shopmesh/events/pkg/domain/payment"
	"github.com/shopmesh/events/pkg/domain/shared"
	"github.com/shopmesh/events/pkg/domain/webhook"
)

func paymentFixture(t *testing.T) (payment.Data, *domainapp.App, *stubWebhookRepo, *stubApps) {
	t.Helper()

	owner := domainapp.New(shared.NewID(), "stripe-bridge")
	info := payment.Data{
		PaymentID: 42,
		Gateway:   owner.PaymentGatewayID(),
		Amount:    2599,
		Currency:  "EUR",
	}
	repo := &stubWebhookRepo{active: []*webhook.Webhook{activeWebhook(event.PaymentProcess)}}
	apps := &stubApps{apps: map[string]*domainapp.App{owner.ID().String(): owner}}
	return info, owner, repo, apps
}

func asGatewayResponse(t *testing.T, v any) payment.GatewayResponse {
	t.Helper()
	resp, ok := v.(payment.GatewayResponse)
	require.True(t, ok, "expected payment.GatewayResponse, got %T", v)
	return resp
}

func TestEngine_ProcessPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("inactive engine passes previousValue through", func(t *testing.T) {
		info, _, repo, apps := paymentFixture(t)
		e := newEngine(false, repo, &stubTasks{}, &stubDeliverer{}, apps)

		got := e.ProcessPayment(ctx, info, "prev")
		assert.Equal(t, "prev", got)
	})

	t.Run("successful webhook call yields success response", func(t *testing.T) {
		info, _, repo, apps := paymentFixture(t)
		deliverer := &stubDeliverer{resp: &delivery.Response{
			StatusCode: 200,
			Body:       []byte(`{"transaction_id": "txn_123"}`),
		}}
		e := newEngine(true, repo, &stubTasks{}, deliverer, apps)

		resp := asGatewayResponse(t, e.ProcessPayment(ctx, info, nil))
		assert.True(t, resp.IsSuccess)
		assert.Equal(t, "txn_123", resp.TransactionID)
		assert.Equal(t, int64(2599), resp.Amount)
		assert.Equal(t, "EUR", resp.Currency)
	})

	t.Run("declined payment yields failed response", func(t *testing.T) {
		info, _, repo, apps := paymentFixture(t)
		deliverer := &stubDeliverer{resp: &delivery.Response{
			StatusCode: 200,
			Body:       []byte(`{"error": "card declined"}`),
		}}
		e := newEngine(true, repo, &stubTasks{}, deliverer, apps)

		resp := asGatewayResponse(t, e.ProcessPayment(ctx, info, nil))
		assert.False(t, resp.IsSuccess)
		assert.Equal(t, "card declined", resp.Error)
	})

	t.Run("unknown gateway id fails without reaching delivery", func(t *testing.T) {
		info, _, repo, apps := paymentFixture(t)
		info.Gateway = "mirumee.payments.dummy"
		e := newEngine(true, repo, &stubTasks{}, &stubDeliverer{}, apps)

		resp := asGatewayResponse(t, e.ProcessPayment(ctx, info, nil))
		assert.False(t, resp.IsSuccess)
		assert.Equal(t, "unknown payment gateway", resp.Error)
	})

	t.Run("uninstalled app fails", func(t *testing.T) {
		info, _, repo, _ := paymentFixture(t)
		e := newEngine(true, repo, &stubTasks{}, &stubDeliverer{}, &stubApps{apps: map[string]*domainapp.App{}})

		resp := asGatewayResponse(t, e.ProcessPayment(ctx, info, nil))
		assert.False(t, resp.IsSuccess)
		assert.Equal(t, "payment app not installed", resp.Error)
	})

	t.Run("disabled app fails", func(t *testing.T) {
		info, owner, repo, _ := paymentFixture(t)
		disabled := domainapp.Reconstruct(owner.ID(), owner.Name(), false, owner.CreatedAt())
		apps := &stubApps{apps: map[string]*domainapp.App{owner.ID().String(): disabled}}
		e := newEngine(true, repo, &stubTasks{}, &stubDeliverer{}, apps)

		resp := asGatewayResponse(t, e.ProcessPayment(ctx, info, nil))
		assert.False(t, resp.IsSuccess)
		assert.Equal(t, "payment app is disabled", resp.Error)
	})

	t.Run("no matching webhook fails", func(t *testing.T) {
		info, _, _, apps := paymentFixture(t)
		e := newEngine(true, &stubWebhookRepo{}, &stubTasks{}, &stubDeliverer{}, apps)

		resp := asGatewayResponse(t, e.ProcessPayment(ctx, info, nil))
		assert.False(t, resp.IsSuccess)
		assert.Equal(t, "no payment webhook configured", resp.Error)
	})

	t.Run("unreachable target fails", func(t *testing.T) {
		info, _, repo, apps := paymentFixture(t)
		deliverer := &stubDeliverer{err: errors.New("connection refused")}
		e := newEngine(true, repo, &stubTasks{}, deliverer, apps)

		resp := asGatewayResponse(t, e.ProcessPayment(ctx, info, nil))
		assert.False(t, resp.IsSuccess)
		assert.Equal(t, "payment webhook unreachable", resp.Error)
	})

	t.Run("malformed response body fails", func(t *testing.T) {
		info, _, repo, apps := paymentFixture(t)
		deliverer := &stubDeliverer{resp: &delivery.Response{StatusCode: 200, Body: []byte("<html>")}}
		e := newEngine(true, repo, &stubTasks{}, deliverer, apps)

		resp := asGatewayResponse(t, e.ProcessPayment(ctx, info, nil))
		assert.False(t, resp.IsSuccess)
		assert.Equal(t, "payment webhook returned malformed response", resp.Error)
	})

	t.Run("failed responses always carry amount and currency", func(t *testing.T) {
		info, _, _, apps := paymentFixture(t)
		e := newEngine(true, &stubWebhookRepo{}, &stubTasks{}, &stubDeliverer{}, apps)

		resp := asGatewayResponse(t, e.ProcessPayment(ctx, info, nil))
		assert.Equal(t, info.Amount, resp.Amount)
		assert.Equal(t, info.Currency, resp.Currency)
	})
}
