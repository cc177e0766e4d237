package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shopmesh/events/internal/app"
	"github.com/shopmesh/events/pkg/apierror"
	domainapp "github.com/shopmesh/events/pkg/domain/app"
	"github.com/shopmesh/events/pkg/domain/event"
	"github.com/shopmesh/events/pkg/domain/shared"
	"github.com/shopmesh/events/pkg/domain/webhook"
	"github.com/shopmesh/events/pkg/logger"
	"github.com/shopmesh/events/pkg/validator"
)

// WebhookHandler handles HTTP requests for webhook subscription management.
type WebhookHandler struct {
	service   *app.WebhookService
	validator *validator.Validator
	logger    *logger.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(svc *app.WebhookService, v *validator.Validator, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		service:   svc,
		validator: v,
		logger:    log,
	}
}

// --- Request/Response Types ---

// CreateWebhookRequest represents the request to register a webhook.
type CreateWebhookRequest struct {
	AppID      string   `json:"app_id" validate:"required,uuid"`
	Name       string   `json:"name" validate:"max=255"`
	TargetURL  string   `json:"target_url" validate:"required,url,max=1000"`
	EventTypes []string `json:"event_types" validate:"required,min=1,dive,event_type"`
}

// UpdateWebhookRequest represents the request to update a webhook.
type UpdateWebhookRequest struct {
	Name       *string  `json:"name" validate:"omitempty,max=255"`
	TargetURL  *string  `json:"target_url" validate:"omitempty,url,max=1000"`
	EventTypes []string `json:"event_types" validate:"omitempty,min=1,dive,event_type"`
}

// WebhookResponse represents a webhook in the response.
type WebhookResponse struct {
	ID         string    `json:"id"`
	AppID      string    `json:"app_id"`
	Name       string    `json:"name,omitempty"`
	TargetURL  string    `json:"target_url"`
	IsActive   bool      `json:"is_active"`
	EventTypes []string  `json:"event_types"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DeliveryResponse represents a webhook delivery attempt in the response.
type DeliveryResponse struct {
	ID           string     `json:"id"`
	WebhookID    string     `json:"webhook_id"`
	EventType    string     `json:"event_type"`
	Status       string     `json:"status"`
	ResponseCode *int       `json:"response_code,omitempty"`
	ResponseBody string     `json:"response_body,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	Attempt      int        `json:"attempt"`
	DurationMs   *int64     `json:"duration_ms,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	DeliveredAt  *time.Time `json:"delivered_at,omitempty"`
}

// AppResponse represents an installed app in the response.
type AppResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	GatewayID string    `json:"gateway_id"`
	CreatedAt time.Time `json:"created_at"`
}

// --- Handlers ---

// Create handles POST /api/v1/webhooks
func (h *WebhookHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}

	if err := h.validator.Validate(req); err != nil {
		h.handleValidationError(w, err)
		return
	}

	appID, err := shared.IDFromString(req.AppID)
	if err != nil {
		apierror.BadRequest("Invalid app id").WriteJSON(w)
		return
	}

	wh, err := h.service.Create(r.Context(), app.CreateWebhookParams{
		AppID:      appID,
		Name:       req.Name,
		TargetURL:  req.TargetURL,
		EventTypes: toEventTypes(req.EventTypes),
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toWebhookResponse(wh))
}

// List handles GET /api/v1/webhooks
func (h *WebhookHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := webhook.Filter{
		Page:    parseQueryInt(query.Get("page"), 1),
		PerPage: parseQueryInt(query.Get("per_page"), 20),
	}
	if s := query.Get("app_id"); s != "" {
		appID, err := shared.IDFromString(s)
		if err != nil {
			apierror.BadRequest("Invalid app id").WriteJSON(w)
			return
		}
		filter.AppID = &appID
	}
	if s := query.Get("is_active"); s != "" {
		active := s == "true"
		filter.IsActive = &active
	}
	if s := query.Get("event_type"); s != "" {
		filter.EventType = event.Type(s)
	}

	result, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	data := make([]WebhookResponse, len(result.Data))
	for i, wh := range result.Data {
		data[i] = toWebhookResponse(wh)
	}

	respondJSON(w, http.StatusOK, ListResponse[WebhookResponse]{
		Data:       data,
		Total:      result.Total,
		Page:       result.Page,
		PerPage:    result.PerPage,
		TotalPages: result.TotalPages,
	})
}

// Get handles GET /api/v1/webhooks/{id}
func (h *WebhookHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	wh, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toWebhookResponse(wh))
}

// Update handles PUT /api/v1/webhooks/{id}
func (h *WebhookHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var req UpdateWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}

	if err := h.validator.Validate(req); err != nil {
		h.handleValidationError(w, err)
		return
	}

	params := app.UpdateWebhookParams{
		Name:      req.Name,
		TargetURL: req.TargetURL,
	}
	if req.EventTypes != nil {
		params.EventTypes = toEventTypes(req.EventTypes)
	}

	wh, err := h.service.Update(r.Context(), id, params)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toWebhookResponse(wh))
}

// Delete handles DELETE /api/v1/webhooks/{id}
func (h *WebhookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Enable handles POST /api/v1/webhooks/{id}/enable
func (h *WebhookHandler) Enable(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

// Disable handles POST /api/v1/webhooks/{id}/disable
func (h *WebhookHandler) Disable(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *WebhookHandler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	wh, err := h.service.SetActive(r.Context(), id, active)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toWebhookResponse(wh))
}

// ListDeliveries handles GET /api/v1/webhooks/{id}/deliveries
func (h *WebhookHandler) ListDeliveries(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	filter := webhook.DeliveryFilter{
		WebhookID: &id,
		Page:      parseQueryInt(query.Get("page"), 1),
		PerPage:   parseQueryInt(query.Get("per_page"), 20),
	}
	if s := query.Get("status"); s != "" {
		status := webhook.DeliveryStatus(s)
		filter.Status = &status
	}

	result, err := h.service.ListDeliveries(r.Context(), filter)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	data := make([]DeliveryResponse, len(result.Data))
	for i, d := range result.Data {
		data[i] = toDeliveryResponse(d)
	}

	respondJSON(w, http.StatusOK, ListResponse[DeliveryResponse]{
		Data:       data,
		Total:      result.Total,
		Page:       result.Page,
		PerPage:    result.PerPage,
		TotalPages: result.TotalPages,
	})
}

// ListApps handles GET /api/v1/apps
func (h *WebhookHandler) ListApps(w http.ResponseWriter, r *http.Request) {
	apps, err := h.service.ListApps(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	data := make([]AppResponse, len(apps))
	for i, a := range apps {
		data[i] = AppResponse{
			ID:        a.ID().String(),
			Name:      a.Name(),
			IsActive:  a.IsActive(),
			GatewayID: a.PaymentGatewayID(),
			CreatedAt: a.CreatedAt(),
		}
	}

	respondJSON(w, http.StatusOK, data)
}

// --- Helpers ---

func (h *WebhookHandler) parseID(w http.ResponseWriter, r *http.Request) (shared.ID, bool) {
	id, err := shared.IDFromString(chi.URLParam(r, "id"))
	if err != nil {
		apierror.BadRequest("Invalid webhook id").WriteJSON(w)
		return shared.ID{}, false
	}
	return id, true
}

func toEventTypes(strs []string) []event.Type {
	types := make([]event.Type, len(strs))
	for i, s := range strs {
		types[i] = event.Type(s)
	}
	return types
}

func toWebhookResponse(w *webhook.Webhook) WebhookResponse {
	types := make([]string, len(w.EventTypes()))
	for i, t := range w.EventTypes() {
		types[i] = t.String()
	}
	return WebhookResponse{
		ID:         w.ID().String(),
		AppID:      w.AppID().String(),
		Name:       w.Name(),
		TargetURL:  w.TargetURL(),
		IsActive:   w.IsActive(),
		EventTypes: types,
		CreatedAt:  w.CreatedAt(),
		UpdatedAt:  w.UpdatedAt(),
	}
}

func toDeliveryResponse(d *webhook.Delivery) DeliveryResponse {
	return DeliveryResponse{
		ID:           d.ID.String(),
		WebhookID:    d.WebhookID.String(),
		EventType:    d.EventType.String(),
		Status:       string(d.Status),
		ResponseCode: d.ResponseCode,
		ResponseBody: d.ResponseBody,
		ErrorMessage: d.ErrorMessage,
		Attempt:      d.Attempt,
		DurationMs:   d.DurationMs,
		CreatedAt:    d.CreatedAt,
		DeliveredAt:  d.DeliveredAt,
	}
}

func (h *WebhookHandler) handleValidationError(w http.ResponseWriter, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		apierror.ValidationFailed("Validation failed", validationErrors).WriteJSON(w)
		return
	}
	apierror.BadRequest("Validation error").WriteJSON(w)
}

func (h *WebhookHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, webhook.ErrWebhookNotFound):
		apierror.NotFound("Webhook").WriteJSON(w)
	case errors.Is(err, domainapp.ErrAppNotFound):
		apierror.NotFound("App").WriteJSON(w)
	case errors.Is(err, shared.ErrAlreadyExists):
		apierror.Conflict("Webhook already exists").WriteJSON(w)
	case shared.IsInvalidInput(err), shared.IsValidation(err):
		apierror.BadRequest(err.Error()).WriteJSON(w)
	default:
		h.logger.Error("webhook service error", "error", err)
		apierror.InternalError(err).WriteJSON(w)
	}
}
