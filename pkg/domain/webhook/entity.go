// Package webhook models registered webhook subscriptions and the rules
// for selecting which of them receive a given event.
package webhook

import (
	"fmt"
	"net/url"
	"time"

	"golang.org/x/net/idna"

	"github.com/shopmesh/events/pkg/domain/event"
	"github.com/shopmesh/events/pkg/domain/shared"
)

// ID is a type alias for shared.ID.
type ID = shared.ID

// Webhook represents a registered interest of one app in a subset of
// event types, with a delivery target and an active flag.
type Webhook struct {
	id         ID
	appID      ID
	name       string
	targetURL  string
	isActive   bool
	eventTypes []event.Type
	createdAt  time.Time
	updatedAt  time.Time
}

// New creates a new webhook subscription. The target host is normalized to
// its ASCII (punycode) form so lookups and rate limiting key consistently.
func New(id, appID ID, name, targetURL string, eventTypes []event.Type) (*Webhook, error) {
	normalized, err := normalizeTargetURL(targetURL)
	if err != nil {
		return nil, err
	}
	for _, t := range eventTypes {
		if !t.IsValid() {
			return nil, fmt.Errorf("%w: unknown event type %q", shared.ErrInvalidInput, t)
		}
	}
	now := time.Now()
	return &Webhook{
		id:         id,
		appID:      appID,
		name:       name,
		targetURL:  normalized,
		isActive:   true,
		eventTypes: eventTypes,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

// Reconstruct creates a Webhook from stored data.
func Reconstruct(id, appID ID, name, targetURL string, isActive bool, eventTypes []event.Type, createdAt, updatedAt time.Time) *Webhook {
	return &Webhook{
		id:         id,
		appID:      appID,
		name:       name,
		targetURL:  targetURL,
		isActive:   isActive,
		eventTypes: eventTypes,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

func (w *Webhook) ID() ID                   { return w.id }
func (w *Webhook) AppID() ID                { return w.appID }
func (w *Webhook) Name() string             { return w.name }
func (w *Webhook) TargetURL() string        { return w.targetURL }
func (w *Webhook) IsActive() bool           { return w.isActive }
func (w *Webhook) EventTypes() []event.Type { return w.eventTypes }
func (w *Webhook) CreatedAt() time.Time     { return w.createdAt }
func (w *Webhook) UpdatedAt() time.Time     { return w.updatedAt }

// SubscribesTo returns true if the webhook's event set contains t.
func (w *Webhook) SubscribesTo(t event.Type) bool {
	for _, et := range w.eventTypes {
		if et == t {
			return true
		}
	}
	return false
}

// SetName updates the webhook name.
func (w *Webhook) SetName(name string) {
	w.name = name
	w.updatedAt = time.Now()
}

// SetTargetURL updates and normalizes the delivery target.
func (w *Webhook) SetTargetURL(targetURL string) error {
	normalized, err := normalizeTargetURL(targetURL)
	if err != nil {
		return err
	}
	w.targetURL = normalized
	w.updatedAt = time.Now()
	return nil
}

// SetEventTypes replaces the subscribed event set.
func (w *Webhook) SetEventTypes(types []event.Type) error {
	for _, t := range types {
		if !t.IsValid() {
			return fmt.Errorf("%w: unknown event type %q", shared.ErrInvalidInput, t)
		}
	}
	w.eventTypes = types
	w.updatedAt = time.Now()
	return nil
}

// Enable activates the webhook.
func (w *Webhook) Enable() {
	w.isActive = true
	w.updatedAt = time.Now()
}

// Disable deactivates the webhook. Disabled webhooks are never selected.
func (w *Webhook) Disable() {
	w.isActive = false
	w.updatedAt = time.Now()
}

func normalizeTargetURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: invalid target url: %v", shared.ErrInvalidInput, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: target url must be http or https", shared.ErrInvalidInput)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: target url has no host", shared.ErrInvalidInput)
	}
	host, err := idna.Lookup.ToASCII(u.Hostname())
	if err != nil {
		return "", fmt.Errorf("%w: invalid target host %q: %v", shared.ErrInvalidInput, u.Hostname(), err)
	}
	if port := u.Port(); port != "" {
		u.Host = host + ":" + port
	} else {
		u.Host = host
	}
	return u.String(), nil
}

// Errors.
var (
	ErrWebhookNotFound   = fmt.Errorf("%w: webhook not found", shared.ErrNotFound)
	ErrNoMatchingWebhook = fmt.Errorf("%w: no matching webhook", shared.ErrNotFound)
)
