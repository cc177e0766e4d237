package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopmesh/events/pkg/domain/app"
	"github.com/shopmesh/events/pkg/domain/shared"
)

// AppRepository is the PostgreSQL implementation of app.Repository.
type AppRepository struct {
	db *DB
}

// NewAppRepository creates a new AppRepository.
func NewAppRepository(db *DB) *AppRepository {
	return &AppRepository{db: db}
}

var _ app.Repository = (*AppRepository)(nil)

// GetByID retrieves an installed app by id.
func (r *AppRepository) GetByID(ctx context.Context, id app.ID) (*app.App, error) {
	query := `SELECT id, name, is_active, created_at FROM apps WHERE id = $1`

	var (
		appID     shared.ID
		name      string
		isActive  bool
		createdAt time.Time
	)
	err := r.db.QueryRowContext(ctx, query, id.String()).Scan(&appID, &name, &isActive, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, app.ErrAppNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get app: %w", err)
	}
	return app.Reconstruct(appID, name, isActive, createdAt), nil
}

// List returns all installed apps, ascending by creation time.
func (r *AppRepository) List(ctx context.Context) ([]*app.App, error) {
	query := `SELECT id, name, is_active, created_at FROM apps ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list apps: %w", err)
	}
	defer func() { _ = rows.Close() }()

	apps := make([]*app.App, 0)
	for rows.Next() {
		var (
			appID     shared.ID
			name      string
			isActive  bool
			createdAt time.Time
		)
		if err := rows.Scan(&appID, &name, &isActive, &createdAt); err != nil {
			return nil, fmt.Errorf("scan app: %w", err)
		}
		apps = append(apps, app.Reconstruct(appID, name, isActive, createdAt))
	}
	return apps, rows.Err()
}
