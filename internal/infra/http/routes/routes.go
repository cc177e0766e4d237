// Package routes registers all HTTP routes for the management API.
package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shopmesh/events/internal/infra/http/handler"
	"github.com/shopmesh/events/internal/infra/http/middleware"
	"github.com/shopmesh/events/pkg/logger"
)

// Handlers holds all HTTP handlers for route registration.
type Handlers struct {
	Health  *handler.HealthHandler
	Webhook *handler.WebhookHandler
	Event   *handler.EventHandler
}

// New builds the router with all routes registered. jwtSecret guards the
// /api/v1 surface; empty disables auth (development only).
func New(h Handlers, jwtSecret string, log *logger.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(chimw.CleanPath)
	r.Use(chimw.StripSlashes)
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))

	// Operational endpoints (public)
	r.Get("/healthz", h.Health.Health)
	r.Get("/readyz", h.Health.Ready)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Management API (authenticated)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(jwtSecret, log))

		r.Route("/webhooks", func(r chi.Router) {
			r.Post("/", h.Webhook.Create)
			r.Get("/", h.Webhook.List)
			r.Get("/{id}", h.Webhook.Get)
			r.Put("/{id}", h.Webhook.Update)
			r.Delete("/{id}", h.Webhook.Delete)
			r.Post("/{id}/enable", h.Webhook.Enable)
			r.Post("/{id}/disable", h.Webhook.Disable)
			r.Get("/{id}/deliveries", h.Webhook.ListDeliveries)
		})

		r.Get("/apps", h.Webhook.ListApps)

		r.Get("/engine", h.Event.GetEngineStatus)
		r.Put("/engine", h.Event.SetEngineStatus)

		r.Get("/events/types", h.Event.ListEventTypes)
		r.Post("/events/test", h.Event.TestFire)
	})

	return r
}
