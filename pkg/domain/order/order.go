// Package order holds the order-shaped domain objects the host application
// passes into the event engine. The engine only reads them to build
// payloads, it never mutates them.
package order

import "time"

// Status represents the order status.
type Status string

const (
	StatusUnconfirmed        Status = "unconfirmed"
	StatusUnfulfilled        Status = "unfulfilled"
	StatusPartiallyFulfilled Status = "partially_fulfilled"
	StatusFulfilled          Status = "fulfilled"
	StatusCanceled           Status = "canceled"
)

// Order is an order owned by the host application. Monetary amounts are in
// minor units of Currency.
type Order struct {
	ID             int64     `json:"id"`
	Token          string    `json:"token"`
	Status         Status    `json:"status"`
	UserEmail      string    `json:"user_email"`
	Currency       string    `json:"currency"`
	TotalNet       int64     `json:"total_net_amount"`
	TotalGross     int64     `json:"total_gross_amount"`
	ShippingMethod string    `json:"shipping_method_name,omitempty"`
	Lines          []Line    `json:"lines"`
	CreatedAt      time.Time `json:"created_at"`
}

// Line is a single order line.
type Line struct {
	ID          int64  `json:"id"`
	ProductName string `json:"product_name"`
	VariantName string `json:"variant_name,omitempty"`
	ProductSKU  string `json:"product_sku"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price_gross_amount"`
	Currency    string `json:"currency"`
}

// Fulfillment is a shipment of order lines.
type Fulfillment struct {
	ID             int64             `json:"id"`
	OrderID        int64             `json:"order_id"`
	Status         string            `json:"status"`
	TrackingNumber string            `json:"tracking_number,omitempty"`
	Lines          []FulfillmentLine `json:"lines"`
	CreatedAt      time.Time         `json:"created_at"`
}

// FulfillmentLine ties a fulfillment to an order line and quantity.
type FulfillmentLine struct {
	ID          int64 `json:"id"`
	OrderLineID int64 `json:"order_line_id"`
	Quantity    int   `json:"quantity"`
}
