package handler

import (
	"encoding/json"
	"net/http"

	"github.com/shopmesh/events/internal/app"
	"github.com/shopmesh/events/pkg/apierror"
	"github.com/shopmesh/events/pkg/domain/event"
	"github.com/shopmesh/events/pkg/logger"
	"github.com/shopmesh/events/pkg/validator"
)

// EventHandler exposes the dispatch engine over the management API: the
// activation gate and a test-fire endpoint for verifying subscriptions
// end to end.
type EventHandler struct {
	engine    *app.Engine
	tasks     app.TaskEnqueuer
	validator *validator.Validator
	logger    *logger.Logger
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(engine *app.Engine, tasks app.TaskEnqueuer, v *validator.Validator, log *logger.Logger) *EventHandler {
	return &EventHandler{
		engine:    engine,
		tasks:     tasks,
		validator: v,
		logger:    log,
	}
}

// EngineStatusResponse reports the activation gate state.
type EngineStatusResponse struct {
	Active bool `json:"active"`
}

// EngineStatusRequest toggles the activation gate.
type EngineStatusRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// TestEventRequest represents a manually fired event.
type TestEventRequest struct {
	EventType string          `json:"event_type" validate:"required,event_type"`
	Payload   json.RawMessage `json:"payload" validate:"required"`
}

// EventTypesResponse lists the supported event types.
type EventTypesResponse struct {
	EventTypes []string `json:"event_types"`
}

// GetEngineStatus handles GET /api/v1/engine
func (h *EventHandler) GetEngineStatus(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, EngineStatusResponse{Active: h.engine.IsActive()})
}

// SetEngineStatus handles PUT /api/v1/engine
func (h *EventHandler) SetEngineStatus(w http.ResponseWriter, r *http.Request) {
	var req EngineStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}
	if req.Active == nil {
		apierror.BadRequest("active is required").WriteJSON(w)
		return
	}

	h.engine.SetActive(*req.Active)
	h.logger.Info("engine activation changed", "active", *req.Active)
	respondJSON(w, http.StatusOK, EngineStatusResponse{Active: h.engine.IsActive()})
}

// ListEventTypes handles GET /api/v1/events/types
func (h *EventHandler) ListEventTypes(w http.ResponseWriter, _ *http.Request) {
	types := event.AllTypes()
	strs := make([]string, len(types))
	for i, t := range types {
		strs[i] = t.String()
	}
	respondJSON(w, http.StatusOK, EventTypesResponse{EventTypes: strs})
}

// TestFire handles POST /api/v1/events/test. The payload is submitted to
// the task substrate exactly as a real event would be, so operators can
// verify a subscription without mutating commerce state.
func (h *EventHandler) TestFire(w http.ResponseWriter, r *http.Request) {
	var req TestEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}

	if !event.Type(req.EventType).IsValid() {
		apierror.BadRequest("Unknown event type").WriteJSON(w)
		return
	}
	if !json.Valid(req.Payload) {
		apierror.BadRequest("Payload must be valid JSON").WriteJSON(w)
		return
	}

	if err := h.tasks.EnqueueEventDelivery(r.Context(), event.Type(req.EventType), event.Payload(req.Payload)); err != nil {
		h.logger.Error("test fire failed", "event_type", req.EventType, "error", err)
		apierror.ServiceUnavailable("Could not enqueue test delivery").WriteJSON(w)
		return
	}

	h.logger.Info("test event fired", "event_type", req.EventType)
	w.WriteHeader(http.StatusAccepted)
}
