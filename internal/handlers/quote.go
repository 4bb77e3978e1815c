package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"gorm.io/gorm"

	"github.com/ryancalacsan/quotecraft-sub000/httpx"
	"github.com/ryancalacsan/quotecraft-sub000/internal/models"
	"github.com/ryancalacsan/quotecraft-sub000/internal/pdf"
	"github.com/ryancalacsan/quotecraft-sub000/internal/quotes"
)

type QuoteHandler struct {
	DB  *gorm.DB
	Svc *quotes.Service
	Log *slog.Logger
}

func NewQuoteHandler(db *gorm.DB, svc *quotes.Service, log *slog.Logger) *QuoteHandler {
	return &QuoteHandler{DB: db, Svc: svc, Log: log}
}

func (h *QuoteHandler) quotePayload(q *models.Quote) map[string]any {
	return map[string]any{
		"quote":   q,
		"pricing": pricingJSON(quotes.Pricing(q)),
	}
}

// List: GET /quotes
func (h *QuoteHandler) List(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFrom(r)
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	offset := 0
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 1 {
			offset = (n - 1) * limit
		}
	}
	status := models.QuoteStatus(r.URL.Query().Get("status"))
	items, total, err := h.Svc.List(r.Context(), scope, status, limit, offset)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items, "total": total, "limit": limit, "offset": offset})
}

// Create: POST /quotes
func (h *QuoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFrom(r)
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var in quotes.QuoteInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	q, err := h.Svc.Create(r.Context(), scope, in)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, h.quotePayload(q))
}

// Get: GET /quotes/get?id=...
func (h *QuoteHandler) Get(w http.ResponseWriter, r *http.Request) {
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
	q, err := h.Svc.Get(r.Context(), scope, id)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.quotePayload(q))
}

// Update: POST /quotes/update?id=...
func (h *QuoteHandler) Update(w http.ResponseWriter, r *http.Request) {
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
	var in quotes.QuoteInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	q, err := h.Svc.Update(r.Context(), scope, id, in)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.quotePayload(q))
}

// Delete: POST /quotes/delete?id=...
func (h *QuoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

// Send: POST /quotes/send?id=... locks content and shares the quote.
func (h *QuoteHandler) Send(w http.ResponseWriter, r *http.Request) {
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
	q, err := h.Svc.Send(r.Context(), scope, id)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.quotePayload(q))
}

// AddItem: POST /quotes/items?id=...
func (h *QuoteHandler) AddItem(w http.ResponseWriter, r *http.Request) {
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
	var in quotes.LineItemInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	item, err := h.Svc.AddItem(r.Context(), scope, id, in)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, item)
}

// UpdateItem: POST /quotes/items/update?id=...&item=...
func (h *QuoteHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFrom(r)
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	id, ok := parseID(r, "id")
	itemID, ok2 := parseID(r, "item")
	if !ok || !ok2 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var in quotes.LineItemInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	item, err := h.Svc.UpdateItem(r.Context(), scope, id, itemID, in)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

// DeleteItem: POST /quotes/items/delete?id=...&item=...
func (h *QuoteHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFrom(r)
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	id, ok := parseID(r, "id")
	itemID, ok2 := parseID(r, "item")
	if !ok || !ok2 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	if err := h.Svc.DeleteItem(r.Context(), scope, id, itemID); err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// PDF: GET /quotes/pdf?id=...
func (h *QuoteHandler) PDF(w http.ResponseWriter, r *http.Request) {
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
	q, err := h.Svc.Get(r.Context(), scope, id)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	var owner models.User
	if err := h.DB.First(&owner, q.UserID).Error; err != nil {
		h.Log.Error("load quote owner", "quote", q.ID, "err", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}

	res := quotes.Pricing(q)
	items := make([]pdf.ItemData, len(q.Items))
	for i, it := range q.Items {
		qty := it.Quantity.String()
		if it.PricingType == models.PricingPerUnit && it.Unit != "" {
			qty += " " + it.Unit
		}
		items[i] = pdf.ItemData{
			Description: it.Description,
			Quantity:    qty,
			Rate:        it.Rate.StringFixed(2),
			Total:       res.ItemTotals[i].StringFixed(2),
		}
	}
	data := pdf.QuoteData{
		Number:         q.QuoteNumber,
		Title:          q.Title,
		BusinessName:   owner.BusinessName,
		ClientName:     q.ClientName,
		ClientEmail:    q.ClientEmail,
		Date:           q.CreatedAt.Format("2006-01-02"),
		Currency:       q.Currency,
		Notes:          q.Notes,
		Items:          items,
		Subtotal:       res.Subtotal.StringFixed(2),
		DepositPercent: q.DepositPercent,
		DepositAmount:  res.DepositAmount.StringFixed(2),
	}
	if q.ValidUntil != nil {
		data.ValidUntil = q.ValidUntil.Format("2006-01-02")
	}

	out, err := pdf.QuotePDF(data)
	if err != nil {
		h.Log.Error("pdf generation failed", "quote", q.ID, "err", err)
		httpx.JSONError(w, http.StatusInternalServerError, "pdf_generation_failed", nil)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+q.QuoteNumber+".pdf\"")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}
