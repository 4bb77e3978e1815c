package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ryancalacsan/quotecraft-sub000/auth"
	"github.com/ryancalacsan/quotecraft-sub000/httpx"
	"github.com/ryancalacsan/quotecraft-sub000/internal/pricing"
	"github.com/ryancalacsan/quotecraft-sub000/internal/quotes"
)

// scopeFrom builds the ownership/session scope for the authenticated caller.
// Handlers behind RequireAuth can assume ok.
func scopeFrom(r *http.Request) (quotes.Scope, bool) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		return quotes.Scope{}, false
	}
	return quotes.Scope{UserID: id.UserID, SessionID: id.SessionScope}, true
}

func parseID(r *http.Request, name string) (uint, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// writeServiceError maps the quote error taxonomy onto HTTP responses.
// Validation and illegal transitions are expected control flow; conflicts are
// expected under concurrency and not logged as exceptional; upstream failures
// get logged with context and surface generically.
func writeServiceError(w http.ResponseWriter, log *slog.Logger, err error) {
	var verr *quotes.ValidationError
	var terr *quotes.TransitionError
	var uerr *quotes.UpstreamError
	switch {
	case errors.As(err, &verr):
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", verr.Fields)
	case errors.Is(err, quotes.ErrNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	case errors.Is(err, quotes.ErrExpired):
		httpx.JSONError(w, http.StatusGone, "quote_expired", nil)
	case errors.Is(err, quotes.ErrNoItems):
		httpx.JSONError(w, http.StatusUnprocessableEntity, "quote_has_no_items", nil)
	case errors.As(err, &terr):
		httpx.JSONError(w, http.StatusUnprocessableEntity, "illegal_transition", map[string]string{"message": terr.Msg})
	case errors.Is(err, quotes.ErrConflict):
		httpx.JSONError(w, http.StatusConflict, "no_longer_available", nil)
	case errors.As(err, &uerr):
		log.Error("upstream failure", "op", uerr.Op, "quote", uerr.QuoteID, "err", uerr.Err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	default:
		log.Error("unexpected error", "err", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

type pricingPayload struct {
	Subtotal      string   `json:"subtotal"`
	ItemTotals    []string `json:"item_totals"`
	DepositAmount string   `json:"deposit_amount"`
	Total         string   `json:"total"`
}

func pricingJSON(res pricing.Result) pricingPayload {
	totals := make([]string, len(res.ItemTotals))
	for i, t := range res.ItemTotals {
		totals[i] = t.StringFixed(2)
	}
	return pricingPayload{
		Subtotal:      res.Subtotal.StringFixed(2),
		ItemTotals:    totals,
		DepositAmount: res.DepositAmount.StringFixed(2),
		Total:         res.Total.StringFixed(2),
	}
}
