package webhook

import (
	"context"
	"time"

	"github.com/shopmesh/events/pkg/domain/event"
)

// Filter represents filtering options for listing webhooks.
type Filter struct {
	AppID     *ID
	IsActive  *bool
	EventType event.Type
	Page      int
	PerPage   int
}

// ListResult represents a paginated list of webhooks.
type ListResult struct {
	Data       []*Webhook
	Total      int64
	Page       int
	PerPage    int
	TotalPages int
}

// Repository defines the interface for webhook subscription persistence.
// List results are returned in a stable order (ascending id) so selection
// tie-breaks are reproducible.
type Repository interface {
	Create(ctx context.Context, w *Webhook) error
	GetByID(ctx context.Context, id ID) (*Webhook, error)
	List(ctx context.Context, filter Filter) (ListResult, error)
	Update(ctx context.Context, w *Webhook) error
	Delete(ctx context.Context, id ID) error

	// ListActiveByEventType returns all active subscriptions whose event
	// set contains t, ascending by id.
	ListActiveByEventType(ctx context.Context, t event.Type) ([]*Webhook, error)

	// ListActiveByAppAndEventType narrows ListActiveByEventType to a
	// single owning app.
	ListActiveByAppAndEventType(ctx context.Context, appID ID, t event.Type) ([]*Webhook, error)
}

// DeliveryStatus represents the outcome of one delivery attempt.
type DeliveryStatus string

const (
	DeliveryPending DeliveryStatus = "pending"
	DeliverySuccess DeliveryStatus = "success"
	DeliveryFailed  DeliveryStatus = "failed"
)

// Delivery records a single webhook delivery attempt. The dispatch engine
// itself never reads these; they are written by the delivery workers as an
// operational audit trail.
type Delivery struct {
	ID           ID
	WebhookID    ID
	EventType    event.Type
	Payload      []byte
	Status       DeliveryStatus
	ResponseCode *int
	ResponseBody string
	ErrorMessage string
	Attempt      int
	DurationMs   *int64
	CreatedAt    time.Time
	DeliveredAt  *time.Time
}

// DeliveryFilter represents filtering options for listing deliveries.
type DeliveryFilter struct {
	WebhookID *ID
	Status    *DeliveryStatus
	Page      int
	PerPage   int
}

// DeliveryListResult represents a paginated list of deliveries.
type DeliveryListResult struct {
	Data       []*Delivery
	Total      int64
	Page       int
	PerPage    int
	TotalPages int
}

// DeliveryRepository persists delivery attempts.
type DeliveryRepository interface {
	Create(ctx context.Context, d *Delivery) error
	List(ctx context.Context, filter DeliveryFilter) (DeliveryListResult, error)

	// DeleteOlderThan removes delivery records created before cutoff and
	// returns the number of rows removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
