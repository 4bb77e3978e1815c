package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/ryancalacsan/quotecraft-sub000/httpx"
	"github.com/ryancalacsan/quotecraft-sub000/internal/models"
	"github.com/ryancalacsan/quotecraft-sub000/internal/payments"
	"github.com/ryancalacsan/quotecraft-sub000/internal/pricing"
	"github.com/ryancalacsan/quotecraft-sub000/internal/quotes"
)

// PublicHandler serves the unauthenticated recipient view: read, accept,
// decline, and checkout, all keyed solely by share token.
type PublicHandler struct {
	Svc           *quotes.Service
	Provider      payments.CheckoutProvider
	PublicBaseURL string
	Log           *slog.Logger
}

func NewPublicHandler(svc *quotes.Service, provider payments.CheckoutProvider, publicBaseURL string, log *slog.Logger) *PublicHandler {
	return &PublicHandler{Svc: svc, Provider: provider, PublicBaseURL: publicBaseURL, Log: log}
}

func (h *PublicHandler) token(w http.ResponseWriter, r *http.Request) (string, bool) {
	tok := r.URL.Query().Get("token")
	if !quotes.ValidShareToken(tok) {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return "", false
	}
	return tok, true
}

// publicQuotePayload hides owner internals; the recipient sees content and
// computed pricing only.
func publicQuotePayload(q *models.Quote) map[string]any {
	items := make([]map[string]any, len(q.Items))
	res := quotes.Pricing(q)
	for i, it := range q.Items {
		items[i] = map[string]any{
			"description":      it.Description,
			"pricing_type":     it.PricingType,
			"unit":             it.Unit,
			"rate":             it.Rate.StringFixed(2),
			"quantity":         it.Quantity.String(),
			"discount_percent": it.DiscountPercent,
			"total":            res.ItemTotals[i].StringFixed(2),
		}
	}
	return map[string]any{
		"quote_number":    q.QuoteNumber,
		"title":           q.Title,
		"client_name":     q.ClientName,
		"notes":           q.Notes,
		"currency":        q.Currency,
		"status":          q.Status,
		"deposit_percent": q.DepositPercent,
		"valid_until":     q.ValidUntil,
		"items":           items,
		"pricing":         pricingJSON(res),
	}
}

// Get: GET /public/quote?token=...
func (h *PublicHandler) Get(w http.ResponseWriter, r *http.Request) {
	tok, ok := h.token(w, r)
	if !ok {
		return
	}
	q, err := h.Svc.GetByToken(r.Context(), tok)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, publicQuotePayload(q))
}

// Accept: POST /public/quote/accept?token=...
func (h *PublicHandler) Accept(w http.ResponseWriter, r *http.Request) {
	tok, ok := h.token(w, r)
	if !ok {
		return
	}
	q, err := h.Svc.Accept(r.Context(), tok)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, publicQuotePayload(q))
}

// Decline: POST /public/quote/decline?token=...
func (h *PublicHandler) Decline(w http.ResponseWriter, r *http.Request) {
	tok, ok := h.token(w, r)
	if !ok {
		return
	}
	q, err := h.Svc.Decline(r.Context(), tok)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, publicQuotePayload(q))
}

// Checkout: POST /public/quote/checkout?token=... resolves the chargeable
// amount (deposit if configured, otherwise the subtotal) and opens a hosted
// checkout session for it.
func (h *PublicHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	tok, ok := h.token(w, r)
	if !ok {
		return
	}
	if h.Provider == nil {
		httpx.JSONError(w, http.StatusServiceUnavailable, "payments_not_configured", nil)
		return
	}
	q, err := h.Svc.GetByToken(r.Context(), tok)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	amount, err := quotes.ResolveCheckoutAmount(q, time.Now())
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}

	desc := q.Title
	if desc == "" {
		desc = "Quote " + q.QuoteNumber
	}
	if amount.IsDeposit {
		desc += " (deposit)"
	}
	session, err := h.Provider.CreateCheckout(r.Context(), payments.CheckoutParams{
		QuoteID:     q.ID,
		QuoteNumber: q.QuoteNumber,
		Description: desc,
		AmountMinor: pricing.ToMinorUnits(amount.Amount),
		Currency:    q.Currency,
		SuccessURL:  h.PublicBaseURL + "/public/quote?token=" + tok + "&paid=1",
		CancelURL:   h.PublicBaseURL + "/public/quote?token=" + tok,
	})
	if err != nil {
		h.Log.Error("create checkout failed", "quote", q.ID, "err", err)
		httpx.JSONError(w, http.StatusBadGateway, "checkout_failed", nil)
		return
	}
	if err := h.Svc.StoreCheckoutSession(r.Context(), q.ID, session.ID); err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"url": session.URL})
}
