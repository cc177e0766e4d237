package webhook

import (
	"context"
	"log/slog"
	"sort"

	"github.com/shopmesh/events/pkg/domain/event"
)

// Scope narrows subscription selection. The zero value means "all apps"
// (the asynchronous fan-out path); a scope with AppID set restricts
// selection to one owning app (the synchronous payment path).
type Scope struct {
	AppID *ID
}

// AllApps selects across every installed app.
func AllApps() Scope {
	return Scope{}
}

// SingleApp restricts selection to the given app.
func SingleApp(appID ID) Scope {
	return Scope{AppID: &appID}
}

// Selector resolves which subscriptions should receive an event. It holds
// no mutable state of its own; each call observes one repository snapshot.
type Selector struct {
	repo Repository
	log  *slog.Logger
}

// NewSelector creates a Selector over the given repository.
func NewSelector(repo Repository, log *slog.Logger) *Selector {
	return &Selector{repo: repo, log: log}
}

// Select returns the active subscriptions matching t within scope, in a
// stable order (ascending subscription id). An empty result is not an
// error: most events have no subscribers most of the time.
func (s *Selector) Select(ctx context.Context, t event.Type, scope Scope) ([]*Webhook, error) {
	var (
		hooks []*Webhook
		err   error
	)
	if scope.AppID != nil {
		hooks, err = s.repo.ListActiveByAppAndEventType(ctx, *scope.AppID, t)
	} else {
		hooks, err = s.repo.ListActiveByEventType(ctx, t)
	}
	if err != nil {
		return nil, err
	}

	// The tie-break in SelectOne must not depend on a particular
	// repository implementation's ordering.
	sort.Slice(hooks, func(i, j int) bool {
		return hooks[i].ID().Compare(hooks[j].ID()) < 0
	})
	return hooks, nil
}

// SelectOne returns the single subscription a synchronous event should be
// delivered to. Zero matches fail with ErrNoMatchingWebhook; multiple
// matches are a misconfiguration, reported via log, and the first
// subscription by ascending id wins so the choice is reproducible.
func (s *Selector) SelectOne(ctx context.Context, t event.Type, scope Scope) (*Webhook, error) {
	hooks, err := s.Select(ctx, t, scope)
	if err != nil {
		return nil, err
	}
	if len(hooks) == 0 {
		return nil, ErrNoMatchingWebhook
	}
	if len(hooks) > 1 {
		s.log.Warn("multiple webhooks match synchronous event, using first by id",
			"event_type", t.String(),
			"matches", len(hooks),
			"webhook_id", hooks[0].ID().String(),
		)
	}
	return hooks[0], nil
}
