package app

import (
	"context"
	"time"

	"github.com/shopmesh/events/internal/metrics"
	"github.com/shopmesh/events/pkg/domain/app"
	"github.com/shopmesh/events/pkg/domain/event"
	"github.com/shopmesh/events/pkg/domain/payment"
	"github.com/shopmesh/events/pkg/domain/webhook"
	"github.com/shopmesh/events/pkg/payloads"
)

// ProcessPayment is the synchronous critical-path entry point. It resolves
// the owning app from the payment's gateway identifier, delivers the
// payment payload to that app's single payment webhook, and translates the
// response into a GatewayResponse.
//
// The payment subsystem must always receive a well-formed result to
// record, so every failure past the gate — unknown gateway, no matching
// webhook, unreachable target, undecodable body — comes back as a failed
// GatewayResponse instead of an error.
func (e *Engine) ProcessPayment(ctx context.Context, info payment.Data, previousValue any) any {
	if !e.active.Load() {
		return previousValue
	}

	start := time.Now()
	result := e.processPayment(ctx, info)
	metrics.PaymentWebhookDuration.Observe(time.Since(start).Seconds())

	if result.IsSuccess {
		metrics.PaymentWebhookRequests.WithLabelValues("success").Inc()
	} else {
		metrics.PaymentWebhookRequests.WithLabelValues("failed").Inc()
	}
	return result
}

func (e *Engine) processPayment(ctx context.Context, info payment.Data) payment.GatewayResponse {
	appID, err := app.ParsePaymentGatewayID(info.Gateway)
	if err != nil {
		return e.failPayment(info, "unknown payment gateway", err)
	}

	owner, err := e.apps.GetByID(ctx, appID)
	if err != nil {
		return e.failPayment(info, "payment app not installed", err)
	}
	if !owner.IsActive() {
		return e.failPayment(info, "payment app is disabled", nil)
	}

	wh, err := e.selector.SelectOne(ctx, event.PaymentProcess, webhook.SingleApp(owner.ID()))
	if err != nil {
		return e.failPayment(info, "no payment webhook configured", err)
	}

	payload, err := payloads.Payment(info)
	if err != nil {
		return e.failPayment(info, "invalid payment data", err)
	}

	resp, err := e.deliver.Deliver(ctx, wh, event.PaymentProcess, payload)
	if err != nil {
		return e.failPayment(info, "payment webhook unreachable", err)
	}

	result, err := payment.TranslateResponse(resp.StatusCode, resp.Body, info)
	if err != nil {
		return e.failPayment(info, "payment webhook returned malformed response", err)
	}

	e.log.Info("payment webhook processed",
		"payment_id", info.PaymentID,
		"webhook_id", wh.ID().String(),
		"status_code", resp.StatusCode,
		"is_success", result.IsSuccess,
	)
	return result
}

func (e *Engine) failPayment(info payment.Data, reason string, err error) payment.GatewayResponse {
	log := e.log.With("payment_id", info.PaymentID, "gateway", info.Gateway)
	if err != nil {
		log = log.WithError(err)
	}
	log.Warn("payment webhook call failed", "reason", reason)
	return payment.Failed(info, reason)
}
