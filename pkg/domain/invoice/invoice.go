// Package invoice holds the invoice domain object passed into the event
// engine by the host application.
package invoice

import "time"

// Invoice is a billing document attached to an order.
type Invoice struct {
	ID        int64      `json:"id"`
	OrderID   int64      `json:"order_id"`
	Number    string     `json:"number,omitempty"`
	URL       string     `json:"external_url,omitempty"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}
