// Package payloads maps each domain-object shape to its canonical
// serialized representation. Codecs are pure: no I/O, no delivery side
// effects, and calling one twice on an unmodified object yields
// byte-identical output.
package payloads

import (
	"encoding/json"
	"fmt"

	"golang.org/x/text/currency"

	"github.com/shopmesh/events/pkg/domain/checkout"
	"github.com/shopmesh/events/pkg/domain/customer"
	"github.com/shopmesh/events/pkg/domain/event"
	"github.com/shopmesh/events/pkg/domain/invoice"
	"github.com/shopmesh/events/pkg/domain/order"
	"github.com/shopmesh/events/pkg/domain/page"
	"github.com/shopmesh/events/pkg/domain/payment"
	"github.com/shopmesh/events/pkg/domain/product"
	"github.com/shopmesh/events/pkg/domain/shared"
)

// ErrSerialization indicates a domain object is missing fields the payload
// requires. The engine never recovers from it: a malformed object must not
// produce a partially-empty payload silently.
var ErrSerialization = fmt.Errorf("%w: payload serialization", shared.ErrInvalidInput)

// Order builds the payload for every order_* event.
func Order(o *order.Order) (event.Payload, error) {
	if o == nil || o.ID == 0 {
		return nil, fmt.Errorf("%w: order requires an id", ErrSerialization)
	}
	return marshal(o)
}

// Invoice builds the payload for every invoice_* event.
func Invoice(inv *invoice.Invoice) (event.Payload, error) {
	if inv == nil || inv.ID == 0 {
		return nil, fmt.Errorf("%w: invoice requires an id", ErrSerialization)
	}
	if inv.OrderID == 0 {
		return nil, fmt.Errorf("%w: invoice requires an order id", ErrSerialization)
	}
	return marshal(inv)
}

// Fulfillment builds the fulfillment_created payload.
func Fulfillment(f *order.Fulfillment) (event.Payload, error) {
	if f == nil || f.ID == 0 {
		return nil, fmt.Errorf("%w: fulfillment requires an id", ErrSerialization)
	}
	if f.OrderID == 0 {
		return nil, fmt.Errorf("%w: fulfillment requires an order id", ErrSerialization)
	}
	return marshal(f)
}

// Customer builds the customer_* payload.
func Customer(c *customer.Customer) (event.Payload, error) {
	if c == nil || c.ID == 0 {
		return nil, fmt.Errorf("%w: customer requires an id", ErrSerialization)
	}
	return marshal(c)
}

// Product builds the product_created / product_updated payload.
func Product(p *product.Product) (event.Payload, error) {
	if p == nil || p.ID == 0 {
		return nil, fmt.Errorf("%w: product requires an id", ErrSerialization)
	}
	return marshal(p)
}

// productDeleted wraps a product with the ids of the variants removed
// alongside it, which no longer exist anywhere else by the time the event
// is delivered.
type productDeleted struct {
	*product.Product
	RemovedVariantIDs []int64 `json:"removed_variant_ids"`
}

// ProductDeleted builds the product_deleted payload. removedVariantIDs
// lists the variants deleted together with the product.
func ProductDeleted(p *product.Product, removedVariantIDs []int64) (event.Payload, error) {
	if p == nil || p.ID == 0 {
		return nil, fmt.Errorf("%w: product deletion requires a product id", ErrSerialization)
	}
	if removedVariantIDs == nil {
		removedVariantIDs = []int64{}
	}
	return marshal(productDeleted{Product: p, RemovedVariantIDs: removedVariantIDs})
}

// ProductVariant builds the product_variant_* payload.
func ProductVariant(v *product.Variant) (event.Payload, error) {
	if v == nil || v.ID == 0 {
		return nil, fmt.Errorf("%w: product variant requires an id", ErrSerialization)
	}
	return marshal(v)
}

// Checkout builds the checkout_* payload.
func Checkout(c *checkout.Checkout) (event.Payload, error) {
	if c == nil || c.Token == "" {
		return nil, fmt.Errorf("%w: checkout requires a token", ErrSerialization)
	}
	return marshal(c)
}

// Page builds the page_* payload.
func Page(p *page.Page) (event.Payload, error) {
	if p == nil || p.ID == 0 {
		return nil, fmt.Errorf("%w: page requires an id", ErrSerialization)
	}
	return marshal(p)
}

// Payment builds the payment_process payload sent to the owning app's
// payment webhook. The currency must be a known ISO 4217 code; an
// unrecognized code here would otherwise surface as a confusing decline
// from the integration.
func Payment(info payment.Data) (event.Payload, error) {
	if info.PaymentID == 0 {
		return nil, fmt.Errorf("%w: payment requires a payment id", ErrSerialization)
	}
	if info.Gateway == "" {
		return nil, fmt.Errorf("%w: payment requires a gateway id", ErrSerialization)
	}
	if _, err := currency.ParseISO(info.Currency); err != nil {
		return nil, fmt.Errorf("%w: unknown currency %q", ErrSerialization, info.Currency)
	}
	return marshal(info)
}

func marshal(v any) (event.Payload, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return event.Payload(data), nil
}
