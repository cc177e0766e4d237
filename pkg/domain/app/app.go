// Package app models installed integrations. An app owns zero or more
// webhook subscriptions; its lifecycle (install, uninstall) is managed
// outside the event engine.
package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopmesh/events/pkg/domain/shared"
)

// ID is a type alias for shared.ID.
type ID = shared.ID

// App represents an installed integration.
type App struct {
	id        ID
	name      string
	isActive  bool
	createdAt time.Time
}

// New creates a new App.
func New(id ID, name string) *App {
	return &App{
		id:        id,
		name:      name,
		isActive:  true,
		createdAt: time.Now(),
	}
}

// Reconstruct creates an App from stored data.
func Reconstruct(id ID, name string, isActive bool, createdAt time.Time) *App {
	return &App{
		id:        id,
		name:      name,
		isActive:  isActive,
		createdAt: createdAt,
	}
}

func (a *App) ID() ID               { return a.id }
func (a *App) Name() string         { return a.name }
func (a *App) IsActive() bool       { return a.isActive }
func (a *App) CreatedAt() time.Time { return a.createdAt }

// PaymentGatewayID returns the opaque gateway identifier this app registers
// with the payment subsystem.
func (a *App) PaymentGatewayID() string {
	return fmt.Sprintf("app:%s:%s", a.id.String(), a.name)
}

// ParsePaymentGatewayID extracts the owning app id from a payment gateway
// identifier of the form "app:<id>:<name>".
func ParsePaymentGatewayID(gatewayID string) (ID, error) {
	parts := strings.SplitN(gatewayID, ":", 3)
	if len(parts) < 2 || parts[0] != "app" {
		return ID{}, fmt.Errorf("%w: not an app gateway id: %q", shared.ErrInvalidInput, gatewayID)
	}
	id, err := shared.IDFromString(parts[1])
	if err != nil {
		return ID{}, fmt.Errorf("%w: bad app id in gateway id %q", shared.ErrInvalidInput, gatewayID)
	}
	return id, nil
}

// Errors.
var (
	ErrAppNotFound = fmt.Errorf("%w: app not found", shared.ErrNotFound)
)
