package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/shopmesh/events/pkg/domain/event"
	"github.com/shopmesh/events/pkg/domain/shared"
	"github.com/shopmesh/events/pkg/domain/webhook"
)

const (
	subscriptionKeyPrefix = "subscriptions"

	// DefaultSubscriptionTTL bounds how stale a cached selection can be.
	// Dispatch tolerates short staleness; mutations invalidate eagerly.
	DefaultSubscriptionTTL = 30 * time.Second
)

// cachedWebhook is the cache representation of a webhook. The entity keeps
// its fields unexported, so caching goes through this DTO.
type cachedWebhook struct {
	ID         shared.ID    `json:"id"`
	AppID      shared.ID    `json:"app_id"`
	Name       string       `json:"name"`
	TargetURL  string       `json:"target_url"`
	IsActive   bool         `json:"is_active"`
	EventTypes []event.Type `json:"event_types"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

func toCached(w *webhook.Webhook) cachedWebhook {
	return cachedWebhook{
		ID:         w.ID(),
		AppID:      w.AppID(),
		Name:       w.Name(),
		TargetURL:  w.TargetURL(),
		IsActive:   w.IsActive(),
		EventTypes: w.EventTypes(),
		CreatedAt:  w.CreatedAt(),
		UpdatedAt:  w.UpdatedAt(),
	}
}

func (c cachedWebhook) toEntity() *webhook.Webhook {
	return webhook.Reconstruct(c.ID, c.AppID, c.Name, c.TargetURL, c.IsActive, c.EventTypes, c.CreatedAt, c.UpdatedAt)
}

// CachedWebhookRepository is a read-through cache over webhook.Repository.
// Only the hot selection queries are cached; point reads, lists and
// mutations go straight to the inner repository, and every mutation
// invalidates the selection cache.
type CachedWebhookRepository struct {
	inner  webhook.Repository
	client *Client
	ttl    time.Duration
}

// NewCachedWebhookRepository wraps repo with a selection cache.
func NewCachedWebhookRepository(repo webhook.Repository, client *Client, ttl time.Duration) (*CachedWebhookRepository, error) {
	if repo == nil {
		return nil, errors.New("webhook repository is required")
	}
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if ttl <= 0 {
		ttl = DefaultSubscriptionTTL
	}
	return &CachedWebhookRepository{inner: repo, client: client, ttl: ttl}, nil
}

var _ webhook.Repository = (*CachedWebhookRepository)(nil)

// Create inserts a webhook and invalidates cached selections.
func (r *CachedWebhookRepository) Create(ctx context.Context, w *webhook.Webhook) error {
	if err := r.inner.Create(ctx, w); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

// GetByID delegates to the inner repository.
func (r *CachedWebhookRepository) GetByID(ctx context.Context, id webhook.ID) (*webhook.Webhook, error) {
	return r.inner.GetByID(ctx, id)
}

// List delegates to the inner repository.
func (r *CachedWebhookRepository) List(ctx context.Context, filter webhook.Filter) (webhook.ListResult, error) {
	return r.inner.List(ctx, filter)
}

// Update persists changes and invalidates cached selections.
func (r *CachedWebhookRepository) Update(ctx context.Context, w *webhook.Webhook) error {
	if err := r.inner.Update(ctx, w); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

// Delete removes a webhook and invalidates cached selections.
func (r *CachedWebhookRepository) Delete(ctx context.Context, id webhook.ID) error {
	if err := r.inner.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

// ListActiveByEventType serves the selection from cache when possible.
func (r *CachedWebhookRepository) ListActiveByEventType(ctx context.Context, t event.Type) ([]*webhook.Webhook, error) {
	key := fmt.Sprintf("%s:all:%s", subscriptionKeyPrefix, t.String())
	return r.getOrLoad(ctx, key, func(ctx context.Context) ([]*webhook.Webhook, error) {
		return r.inner.ListActiveByEventType(ctx, t)
	})
}

// ListActiveByAppAndEventType serves the app-scoped selection from cache
// when possible.
func (r *CachedWebhookRepository) ListActiveByAppAndEventType(ctx context.Context, appID webhook.ID, t event.Type) ([]*webhook.Webhook, error) {
	key := fmt.Sprintf("%s:app:%s:%s", subscriptionKeyPrefix, appID.String(), t.String())
	return r.getOrLoad(ctx, key, func(ctx context.Context) ([]*webhook.Webhook, error) {
		return r.inner.ListActiveByAppAndEventType(ctx, appID, t)
	})
}

func (r *CachedWebhookRepository) getOrLoad(ctx context.Context, key string, loader func(ctx context.Context) ([]*webhook.Webhook, error)) ([]*webhook.Webhook, error) {
	data, err := r.client.client.Get(ctx, key).Bytes()
	if err == nil {
		var cached []cachedWebhook
		if uerr := json.Unmarshal(data, &cached); uerr == nil {
			hooks := make([]*webhook.Webhook, 0, len(cached))
			for _, c := range cached {
				hooks = append(hooks, c.toEntity())
			}
			return hooks, nil
		} else {
			r.client.logger.Warn("subscription cache unmarshal failed", "key", key, "error", uerr)
		}
	} else if !errors.Is(err, goredis.Nil) {
		r.client.logger.Warn("subscription cache get failed, falling back to source", "key", key, "error", err)
	}

	hooks, err := loader(ctx)
	if err != nil {
		return nil, err
	}

	cached := make([]cachedWebhook, 0, len(hooks))
	for _, w := range hooks {
		cached = append(cached, toCached(w))
	}
	if data, err := json.Marshal(cached); err == nil {
		if err := r.client.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
			r.client.logger.Warn("subscription cache set failed", "key", key, "error", err)
		}
	}
	return hooks, nil
}

// invalidate drops every cached selection. Best effort; a failed
// invalidation only extends staleness up to the TTL.
func (r *CachedWebhookRepository) invalidate(ctx context.Context) {
	pattern := subscriptionKeyPrefix + ":*"
	var cursor uint64
	for {
		keys, next, err := r.client.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			r.client.logger.Warn("subscription cache invalidation failed", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := r.client.client.Del(ctx, keys...).Err(); err != nil {
				r.client.logger.Warn("subscription cache delete failed", "error", err)
				return
			}
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}
