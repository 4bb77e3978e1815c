package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ryancalacsan/quotecraft-sub000/httpx"
	"github.com/ryancalacsan/quotecraft-sub000/internal/quotes"
	"github.com/ryancalacsan/quotecraft-sub000/internal/templates"
)

type TemplateHandler struct {
	Svc *templates.Service
	Log *slog.Logger
}

func NewTemplateHandler(svc *templates.Service, log *slog.Logger) *TemplateHandler {
	return &TemplateHandler{Svc: svc, Log: log}
}

// List: GET /templates
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFrom(r)
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	items, err := h.Svc.List(r.Context(), scope)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items})
}

// Create: POST /templates
func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFrom(r)
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var in templates.TemplateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	t, err := h.Svc.Create(r.Context(), scope, in)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, t)
}

// Update: POST /templates/update?id=...
func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFrom(r)
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	id, ok := parseID(r, "id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var in templates.TemplateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	t, err := h.Svc.Update(r.Context(), scope, id, in)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

// Delete: POST /templates/delete?id=...
func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFrom(r)
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	id, ok := parseID(r, "id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	if err := h.Svc.Delete(r.Context(), scope, id); err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ReplaceItems: POST /templates/items?id=... swaps the whole ordered item
// list atomically.
func (h *TemplateHandler) ReplaceItems(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFrom(r)
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	id, ok := parseID(r, "id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var req struct {
		Items []quotes.LineItemInput `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	t, err := h.Svc.ReplaceItems(r.Context(), scope, id, req.Items)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

// Use: POST /templates/use?id=... instantiates the template as a new draft
// quote.
func (h *TemplateHandler) Use(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFrom(r)
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	id, ok := parseID(r, "id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var req struct {
		ClientName  string `json:"client_name"`
		ClientEmail string `json:"client_email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	q, err := h.Svc.CreateQuote(r.Context(), scope, id, req.ClientName, req.ClientEmail)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"quote": q, "pricing": pricingJSON(quotes.Pricing(q))})
}
