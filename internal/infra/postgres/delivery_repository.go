package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopmesh/events/pkg/domain/event"
	"github.com/shopmesh/events/pkg/domain/shared"
	"github.com/shopmesh/events/pkg/domain/webhook"
)

// DeliveryRepository is the PostgreSQL implementation of
// webhook.DeliveryRepository.
type DeliveryRepository struct {
	db *DB
}

// NewDeliveryRepository creates a new DeliveryRepository.
func NewDeliveryRepository(db *DB) *DeliveryRepository {
	return &DeliveryRepository{db: db}
}

var _ webhook.DeliveryRepository = (*DeliveryRepository)(nil)

// Create records a delivery attempt.
func (r *DeliveryRepository) Create(ctx context.Context, d *webhook.Delivery) error {
	query := `
		INSERT INTO webhook_deliveries (
			id, webhook_id, event_type, payload, status,
			response_code, response_body, error_message,
			attempt, duration_ms, created_at, delivered_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.ExecContext(ctx, query,
		d.ID.String(),
		d.WebhookID.String(),
		d.EventType.String(),
		string(d.Payload),
		string(d.Status),
		nullInt(d.ResponseCode),
		d.ResponseBody,
		d.ErrorMessage,
		d.Attempt,
		nullInt64(d.DurationMs),
		d.CreatedAt,
		nullTime(d.DeliveredAt),
	)
	if err != nil {
		return fmt.Errorf("create delivery: %w", err)
	}
	return nil
}

// List retrieves a paginated delivery log.
func (r *DeliveryRepository) List(ctx context.Context, filter webhook.DeliveryFilter) (webhook.DeliveryListResult, error) {
	result := webhook.DeliveryListResult{
		Data: make([]*webhook.Delivery, 0),
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

	if filter.WebhookID != nil {
		conditions = append(conditions, fmt.Sprintf("webhook_id = $%d", argIdx))
		args = append(args, filter.WebhookID.String())
		argIdx++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, string(*filter.Status))
		argIdx++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT COUNT(*) FROM webhook_deliveries " + whereClause
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&result.Total); err != nil {
		return result, fmt.Errorf("count deliveries: %w", err)
	}
	result.TotalPages = int((result.Total + int64(filter.PerPage) - 1) / int64(filter.PerPage))

	query := fmt.Sprintf(`
		SELECT id, webhook_id, event_type, payload, status,
			response_code, response_body, error_message,
			attempt, duration_ms, created_at, delivered_at
		FROM webhook_deliveries %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argIdx, argIdx+1)
	args = append(args, filter.PerPage, (filter.Page-1)*filter.PerPage)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return result, fmt.Errorf("list deliveries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			d            webhook.Delivery
			id           shared.ID
			webhookID    shared.ID
			eventType    string
			status       string
			responseCode sql.NullInt64
			durationMs   sql.NullInt64
			deliveredAt  sql.NullTime
		)
		err := rows.Scan(
			&id, &webhookID, &eventType, &d.Payload, &status,
			&responseCode, &d.ResponseBody, &d.ErrorMessage,
			&d.Attempt, &durationMs, &d.CreatedAt, &deliveredAt,
		)
		if err != nil {
			return result, fmt.Errorf("scan delivery: %w", err)
		}
		d.ID = id
		d.WebhookID = webhookID
		d.EventType = event.Type(eventType)
		d.Status = webhook.DeliveryStatus(status)
		d.ResponseCode = intValue(responseCode)
		d.DurationMs = int64Value(durationMs)
		d.DeliveredAt = timeValue(deliveredAt)
		result.Data = append(result.Data, &d)
	}
	return result, rows.Err()
}

// DeleteOlderThan removes delivery records created before cutoff.
func (r *DeliveryRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM webhook_deliveries WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old deliveries: %w", err)
	}
	return res.RowsAffected()
}
