package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/shopmesh/events/pkg/domain/event"
	"github.com/shopmesh/events/pkg/domain/shared"
	"github.com/shopmesh/events/pkg/domain/webhook"
)

// WebhookRepository is the PostgreSQL implementation of webhook.Repository.
type WebhookRepository struct {
	db *DB
}

// NewWebhookRepository creates a new WebhookRepository.
func NewWebhookRepository(db *DB) *WebhookRepository {
	return &WebhookRepository{db: db}
}

var _ webhook.Repository = (*WebhookRepository)(nil)

const webhookColumns = `id, app_id, name, target_url, is_active, event_types, created_at, updated_at`

// Create inserts a new webhook subscription.
func (r *WebhookRepository) Create(ctx context.Context, w *webhook.Webhook) error {
	query := `
		INSERT INTO webhooks (` + webhookColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		w.ID().String(),
		w.AppID().String(),
		w.Name(),
		w.TargetURL(),
		w.IsActive(),
		pq.Array(eventTypeStrings(w.EventTypes())),
		w.CreatedAt(),
		w.UpdatedAt(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: webhook %s", shared.ErrAlreadyExists, w.ID().String())
		}
		return fmt.Errorf("create webhook: %w", err)
	}
	return nil
}

// GetByID retrieves a webhook by ID.
func (r *WebhookRepository) GetByID(ctx context.Context, id webhook.ID) (*webhook.Webhook, error) {
	query := `SELECT ` + webhookColumns + ` FROM webhooks WHERE id = $1`
	return r.scanWebhook(r.db.QueryRowContext(ctx, query, id.String()))
}

// List retrieves a paginated list of webhooks.
func (r *WebhookRepository) List(ctx context.Context, filter webhook.Filter) (webhook.ListResult, error) {
	result := webhook.ListResult{
		Data:    make([]*webhook.Webhook, 0),
		Page:    filter.Page,
		PerPage: filter.PerPage,
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PerPage < 1 {
		filter.PerPage = 20
	}
	result.Page = filter.Page
	result.PerPage = filter.PerPage

	conditions := make([]string, 0)
	args := make([]any, 0)
	argIdx := 1

	if filter.AppID != nil {
		conditions = append(conditions, fmt.Sprintf("app_id = $%d", argIdx))
		args = append(args, filter.AppID.String())
		argIdx++
	}
	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argIdx))
		args = append(args, *filter.IsActive)
		argIdx++
	}
	if filter.EventType != "" {
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(event_types)", argIdx))
		args = append(args, filter.EventType.String())
		argIdx++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT COUNT(*) FROM webhooks " + whereClause
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&result.Total); err != nil {
		return result, fmt.Errorf("count webhooks: %w", err)
	}
	result.TotalPages = int((result.Total + int64(filter.PerPage) - 1) / int64(filter.PerPage))

	query := fmt.Sprintf(
		"SELECT %s FROM webhooks %s ORDER BY id ASC LIMIT $%d OFFSET $%d",
		webhookColumns, whereClause, argIdx, argIdx+1,
	)
	args = append(args, filter.PerPage, (filter.Page-1)*filter.PerPage)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return result, fmt.Errorf("list webhooks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		w, err := r.scanWebhook(rows)
		if err != nil {
			return result, err
		}
		result.Data = append(result.Data, w)
	}
	return result, rows.Err()
}

// Update persists changes to a webhook.
func (r *WebhookRepository) Update(ctx context.Context, w *webhook.Webhook) error {
	query := `
		UPDATE webhooks
		SET name = $2, target_url = $3, is_active = $4, event_types = $5, updated_at = $6
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		w.ID().String(),
		w.Name(),
		w.TargetURL(),
		w.IsActive(),
		pq.Array(eventTypeStrings(w.EventTypes())),
		w.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("update webhook: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return webhook.ErrWebhookNotFound
	}
	return nil
}

// Delete removes a webhook.
func (r *WebhookRepository) Delete(ctx context.Context, id webhook.ID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM webhooks WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return webhook.ErrWebhookNotFound
	}
	return nil
}

// ListActiveByEventType returns all active subscriptions for an event
// type, ascending by id so selection order is stable.
func (r *WebhookRepository) ListActiveByEventType(ctx context.Context, t event.Type) ([]*webhook.Webhook, error) {
	query := `
		SELECT ` + webhookColumns + `
		FROM webhooks
		WHERE is_active = TRUE AND $1 = ANY(event_types)
		ORDER BY id ASC
	`
	return r.queryWebhooks(ctx, query, t.String())
}

// ListActiveByAppAndEventType narrows the selection to one owning app.
func (r *WebhookRepository) ListActiveByAppAndEventType(ctx context.Context, appID webhook.ID, t event.Type) ([]*webhook.Webhook, error) {
	query := `
		SELECT ` + webhookColumns + `
		FROM webhooks
		WHERE is_active = TRUE AND app_id = $1 AND $2 = ANY(event_types)
		ORDER BY id ASC
	`
	return r.queryWebhooks(ctx, query, appID.String(), t.String())
}

func (r *WebhookRepository) queryWebhooks(ctx context.Context, query string, args ...any) ([]*webhook.Webhook, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query webhooks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	hooks := make([]*webhook.Webhook, 0)
	for rows.Next() {
		w, err := r.scanWebhook(rows)
		if err != nil {
			return nil, err
		}
		hooks = append(hooks, w)
	}
	return hooks, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *WebhookRepository) scanWebhook(row rowScanner) (*webhook.Webhook, error) {
	var (
		id, appID  shared.ID
		name       string
		targetURL  string
		isActive   bool
		eventTypes pq.StringArray
		createdAt  time.Time
		updatedAt  time.Time
	)

	err := row.Scan(&id, &appID, &name, &targetURL, &isActive, &eventTypes, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, webhook.ErrWebhookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan webhook: %w", err)
	}

	types := make([]event.Type, 0, len(eventTypes))
	for _, s := range eventTypes {
		types = append(types, event.Type(s))
	}
	return webhook.Reconstruct(id, appID, name, targetURL, isActive, types, createdAt, updatedAt), nil
}

func eventTypeStrings(types []event.Type) []string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		out = append(out, t.String())
	}
	return out
}
