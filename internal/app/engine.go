// Package app wires the domain together: the webhook dispatch engine and
// the subscription management service.
package app

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/shopmesh/events/internal/infra/delivery"
	"github.com/shopmesh/events/internal/metrics"
	"github.com/shopmesh/events/pkg/domain/app"
	"github.com/shopmesh/events/pkg/domain/checkout"
	"github.com/shopmesh/events/pkg/domain/customer"
	"github.com/shopmesh/events/pkg/domain/event"
	"github.com/shopmesh/events/pkg/domain/invoice"
	"github.com/shopmesh/events/pkg/domain/order"
	"github.com/shopmesh/events/pkg/domain/page"
	"github.com/shopmesh/events/pkg/domain/product"
	"github.com/shopmesh/events/pkg/domain/webhook"
	"github.com/shopmesh/events/pkg/logger"
	"github.com/shopmesh/events/pkg/payloads"
)

// TaskEnqueuer submits fan-out delivery jobs to the task substrate.
type TaskEnqueuer interface {
	EnqueueEventDelivery(ctx context.Context, eventType event.Type, payload event.Payload) error
}

// Deliverer performs one blocking outbound webhook call (sync path).
type Deliverer interface {
	Deliver(ctx context.Context, wh *webhook.Webhook, eventType event.Type, payload event.Payload) (*delivery.Response, error)
}

// Engine is the webhook event dispatch engine. The host application calls
// one entry point per domain mutation; the engine selects matching
// subscriptions, serializes the object, and hands delivery to the task
// substrate. Payment processing is the one synchronous exception.
//
// Every entry point takes and returns previousValue, the carry-through
// value of the host's plugin chain: when the engine is inactive it is
// returned unchanged and nothing else happens.
type Engine struct {
	active   atomic.Bool
	selector *webhook.Selector
	tasks    TaskEnqueuer
	deliver  Deliverer
	apps     app.Repository
	log      *logger.Logger
}

// NewEngine creates the dispatch engine. active is the construction-time
// state of the activation gate.
func NewEngine(
	active bool,
	selector *webhook.Selector,
	tasks TaskEnqueuer,
	deliver Deliverer,
	apps app.Repository,
	log *logger.Logger,
) *Engine {
	e := &Engine{
		selector: selector,
		tasks:    tasks,
		deliver:  deliver,
		apps:     apps,
		log:      log.With("component", "webhook_engine"),
	}
	e.active.Store(active)
	return e
}

// IsActive reports the activation gate state.
func (e *Engine) IsActive() bool {
	return e.active.Load()
}

// SetActive toggles the activation gate. Owned by installation lifecycle
// management, not by request handling.
func (e *Engine) SetActive(active bool) {
	e.active.Store(active)
}

// fire is the shared fire-and-forget path: gate check, codec, async
// dispatch. previousValue is always handed back to the caller; codec and
// submission failures are reported alongside it.
func (e *Engine) fire(ctx context.Context, t event.Type, previousValue any, codec func() (event.Payload, error)) (any, error) {
	if !e.active.Load() {
		return previousValue, nil
	}

	payload, err := codec()
	if err != nil {
		return previousValue, fmt.Errorf("serialize %s: %w", t, err)
	}
	metrics.EventsEmitted.WithLabelValues(t.String()).Inc()
	metrics.WebhookPayloadBytes.Observe(float64(len(payload)))

	if err := e.dispatchAsync(ctx, t, payload); err != nil {
		return previousValue, err
	}
	return previousValue, nil
}

// dispatchAsync submits one fan-out delivery job when the event has
// subscribers. An empty selection is a silent no-op: most events have no
// subscribers most of the time.
func (e *Engine) dispatchAsync(ctx context.Context, t event.Type, payload event.Payload) error {
	hooks, err := e.selector.Select(ctx, t, webhook.AllApps())
	if err != nil {
		return fmt.Errorf("select subscriptions for %s: %w", t, err)
	}
	if len(hooks) == 0 {
		return nil
	}

	if err := e.tasks.EnqueueEventDelivery(ctx, t, payload); err != nil {
		metrics.DeliveryJobsDropped.WithLabelValues(t.String()).Inc()
		return fmt.Errorf("dispatch %s: %w", t, err)
	}
	metrics.DeliveryJobsEnqueued.WithLabelValues(t.String()).Inc()

	e.log.Debug("event dispatched",
		"event_type", t.String(),
		"subscriptions", len(hooks),
	)
	return nil
}

// --- Order events ---

func (e *Engine) OrderCreated(ctx context.Context, o *order.Order, previousValue any) (any, error) {
	return e.fire(ctx, event.OrderCreated, previousValue, func() (event.Payload, error) { return payloads.Order(o) })
}

func (e *Engine) OrderConfirmed(ctx context.Context, o *order.Order, previousValue any) (any, error) {
	return e.fire(ctx, event.OrderConfirmed, previousValue, func() (event.Payload, error) { return payloads.Order(o) })
}

func (e *Engine) OrderFullyPaid(ctx context.Context, o *order.Order, previousValue any) (any, error) {
	return e.fire(ctx, event.OrderFullyPaid, previousValue, func() (event.Payload, error) { return payloads.Order(o) })
}

func (e *Engine) OrderUpdated(ctx context.Context, o *order.Order, previousValue any) (any, error) {
	return e.fire(ctx, event.OrderUpdated, previousValue, func() (event.Payload, error) { return payloads.Order(o) })
}

func (e *Engine) OrderCancelled(ctx context.Context, o *order.Order, previousValue any) (any, error) {
	return e.fire(ctx, event.OrderCancelled, previousValue, func() (event.Payload, error) { return payloads.Order(o) })
}

func (e *Engine) OrderFulfilled(ctx context.Context, o *order.Order, previousValue any) (any, error) {
	return e.fire(ctx, event.OrderFulfilled, previousValue, func() (event.Payload, error) { return payloads.Order(o) })
}

// --- Invoice events ---

// InvoiceRequested fires when an invoice is requested for an order. number
// is the requested invoice number, nil when the host lets the integration
// assign one; the payload carries the invoice, so both are accepted for
// call-contract compatibility and number is unused here.
func (e *Engine) InvoiceRequested(ctx context.Context, _ *order.Order, inv *invoice.Invoice, _ *string, previousValue any) (any, error) {
	return e.fire(ctx, event.InvoiceRequested, previousValue, func() (event.Payload, error) { return payloads.Invoice(inv) })
}

func (e *Engine) InvoiceDeleted(ctx context.Context, inv *invoice.Invoice, previousValue any) (any, error) {
	return e.fire(ctx, event.InvoiceDeleted, previousValue, func() (event.Payload, error) { return payloads.Invoice(inv) })
}

// InvoiceSent fires after the invoice email went out. The recipient email
// is part of the call contract but not of the payload.
func (e *Engine) InvoiceSent(ctx context.Context, inv *invoice.Invoice, _ string, previousValue any) (any, error) {
	return e.fire(ctx, event.InvoiceSent, previousValue, func() (event.Payload, error) { return payloads.Invoice(inv) })
}

// --- Fulfillment events ---

func (e *Engine) FulfillmentCreated(ctx context.Context, f *order.Fulfillment, previousValue any) (any, error) {
	return e.fire(ctx, event.FulfillmentCreated, previousValue, func() (event.Payload, error) { return payloads.Fulfillment(f) })
}

// --- Customer events ---

func (e *Engine) CustomerCreated(ctx context.Context, c *customer.Customer, previousValue any) (any, error) {
	return e.fire(ctx, event.CustomerCreated, previousValue, func() (event.Payload, error) { return payloads.Customer(c) })
}

func (e *Engine) CustomerUpdated(ctx context.Context, c *customer.Customer, previousValue any) (any, error) {
	return e.fire(ctx, event.CustomerUpdated, previousValue, func() (event.Payload, error) { return payloads.Customer(c) })
}

// --- Product events ---

func (e *Engine) ProductCreated(ctx context.Context, p *product.Product, previousValue any) (any, error) {
	return e.fire(ctx, event.ProductCreated, previousValue, func() (event.Payload, error) { return payloads.Product(p) })
}

func (e *Engine) ProductUpdated(ctx context.Context, p *product.Product, previousValue any) (any, error) {
	return e.fire(ctx, event.ProductUpdated, previousValue, func() (event.Payload, error) { return payloads.Product(p) })
}

// ProductDeleted fires after a product and its variants were removed.
// removedVariantIDs lists the deleted variants, which no longer exist in
// the catalog by the time subscribers see the event.
func (e *Engine) ProductDeleted(ctx context.Context, p *product.Product, removedVariantIDs []int64, previousValue any) (any, error) {
	return e.fire(ctx, event.ProductDeleted, previousValue, func() (event.Payload, error) {
		return payloads.ProductDeleted(p, removedVariantIDs)
	})
}

func (e *Engine) ProductVariantCreated(ctx context.Context, v *product.Variant, previousValue any) (any, error) {
	return e.fire(ctx, event.ProductVariantCreated, previousValue, func() (event.Payload, error) { return payloads.ProductVariant(v) })
}

func (e *Engine) ProductVariantUpdated(ctx context.Context, v *product.Variant, previousValue any) (any, error) {
	return e.fire(ctx, event.ProductVariantUpdated, previousValue, func() (event.Payload, error) { return payloads.ProductVariant(v) })
}

func (e *Engine) ProductVariantDeleted(ctx context.Context, v *product.Variant, previousValue any) (any, error) {
	return e.fire(ctx, event.ProductVariantDeleted, previousValue, func() (event.Payload, error) { return payloads.ProductVariant(v) })
}

// --- Checkout events ---

func (e *Engine) CheckoutCreated(ctx context.Context, c *checkout.Checkout, previousValue any) (any, error) {
	return e.fire(ctx, event.CheckoutCreated, previousValue, func() (event.Payload, error) { return payloads.Checkout(c) })
}

func (e *Engine) CheckoutUpdated(ctx context.Context, c *checkout.Checkout, previousValue any) (any, error) {
	return e.fire(ctx, event.CheckoutUpdated, previousValue, func() (event.Payload, error) { return payloads.Checkout(c) })
}

// --- Page events ---

func (e *Engine) PageCreated(ctx context.Context, p *page.Page, previousValue any) (any, error) {
	return e.fire(ctx, event.PageCreated, previousValue, func() (event.Payload, error) { return payloads.Page(p) })
}

func (e *Engine) PageUpdated(ctx context.Context, p *page.Page, previousValue any) (any, error) {
	return e.fire(ctx, event.PageUpdated, previousValue, func() (event.Payload, error) { return payloads.Page(p) })
}

func (e *Engine) PageDeleted(ctx context.Context, p *page.Page, previousValue any) (any, error) {
	return e.fire(ctx, event.PageDeleted, previousValue, func() (event.Payload, error) { return payloads.Page(p) })
}
