// Package checkout holds the checkout domain object passed into the event
// engine by the host application.
package checkout

import "time"

// Checkout is an in-progress cart identified by an opaque token.
type Checkout struct {
	Token          string    `json:"token"`
	Email          string    `json:"email,omitempty"`
	Currency       string    `json:"currency"`
	Quantity       int       `json:"quantity"`
	DiscountAmount int64     `json:"discount_amount"`
	Lines          []Line    `json:"lines"`
	CreatedAt      time.Time `json:"created_at"`
	LastChange     time.Time `json:"last_change"`
}

// Line is a single checkout line.
type Line struct {
	VariantID int64 `json:"variant_id"`
	Quantity  int   `json:"quantity"`
}
