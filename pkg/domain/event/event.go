// Package event defines the closed catalog of domain event types and the
// payload unit delivered to webhook subscribers.
package event

// Type identifies a domain occurrence webhooks can subscribe to.
// The catalog is closed: subscribers declare interest in a subset of
// these values, nothing else is ever dispatched.
type Type string

const (
	OrderCreated   Type = "order_created"
	OrderConfirmed Type = "order_confirmed"
	OrderFullyPaid Type = "order_fully_paid"
	OrderUpdated   Type = "order_updated"
	OrderCancelled Type = "order_cancelled"
	OrderFulfilled Type = "order_fulfilled"

	InvoiceRequested Type = "invoice_requested"
	InvoiceDeleted   Type = "invoice_deleted"
	InvoiceSent      Type = "invoice_sent"

	FulfillmentCreated Type = "fulfillment_created"

	CustomerCreated Type = "customer_created"
	CustomerUpdated Type = "customer_updated"

	ProductCreated Type = "product_created"
	ProductUpdated Type = "product_updated"
	ProductDeleted Type = "product_deleted"

	ProductVariantCreated Type = "product_variant_created"
	ProductVariantUpdated Type = "product_variant_updated"
	ProductVariantDeleted Type = "product_variant_deleted"

	CheckoutCreated Type = "checkout_created"
	CheckoutUpdated Type = "checkout_updated"

	PageCreated Type = "page_created"
	PageUpdated Type = "page_updated"
	PageDeleted Type = "page_deleted"

	// PaymentProcess is the synchronous payment authorization event. It is
	// delivered to exactly one webhook and the response is consumed by the
	// payment subsystem.
	PaymentProcess Type = "payment_process"
)

// AllTypes returns every event type in the catalog, in a stable order.
func AllTypes() []Type {
	return []Type{
		OrderCreated, OrderConfirmed, OrderFullyPaid, OrderUpdated,
		OrderCancelled, OrderFulfilled,
		InvoiceRequested, InvoiceDeleted, InvoiceSent,
		FulfillmentCreated,
		CustomerCreated, CustomerUpdated,
		ProductCreated, ProductUpdated, ProductDeleted,
		ProductVariantCreated, ProductVariantUpdated, ProductVariantDeleted,
		CheckoutCreated, CheckoutUpdated,
		PageCreated, PageUpdated, PageDeleted,
		PaymentProcess,
	}
}

// IsValid returns true if t is part of the catalog.
func (t Type) IsValid() bool {
	for _, known := range AllTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// String returns the wire name of the event type.
func (t Type) String() string {
	return string(t)
}

// Payload is the serialized representation of the domain object that
// triggered an event. Opaque and immutable once produced; it has no
// identity beyond being the unit of delivery.
type Payload []byte
