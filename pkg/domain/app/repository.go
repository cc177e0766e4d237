package app

import "context"

// Repository defines the interface for app lookups. The engine resolves the
// owning integration of a payment through it instead of reaching into a
// process-wide registry.
type Repository interface {
	GetByID(ctx context.Context, id ID) (*App, error)
	List(ctx context.Context) ([]*App, error)
}
