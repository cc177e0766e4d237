// Package customer holds the customer domain object passed into the event
// engine by the host application.
package customer

import "time"

// Customer is a storefront account.
type Customer struct {
	ID         int64     `json:"id"`
	Email      string    `json:"email"`
	FirstName  string    `json:"first_name,omitempty"`
	LastName   string    `json:"last_name,omitempty"`
	IsActive   bool      `json:"is_active"`
	DateJoined time.Time `json:"date_joined"`
}
