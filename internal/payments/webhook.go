package payments

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/ryancalacsan/quotecraft-sub000/httpx"
	"github.com/ryancalacsan/quotecraft-sub000/internal/quotes"
)

const maxWebhookBody = 64 * 1024

// PaidMarker is the only thing the webhook needs from the quote side.
type PaidMarker interface {
	MarkPaid(ctx context.Context, quoteID uint, checkoutSessionID, paymentIntentID string) error
}

// WebhookHandler verifies Stripe event signatures and applies completed
// checkouts to quotes.
type WebhookHandler struct {
	secret string
	marker PaidMarker
	log    *slog.Logger
}

func NewWebhookHandler(signingSecret string, marker PaidMarker, log *slog.Logger) *WebhookHandler {
	return &WebhookHandler{secret: signingSecret, marker: marker, log: log}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_payload", nil)
		return
	}

	event, err := webhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), h.secret)
	if err != nil {
		h.log.Warn("webhook signature verification failed", "err", err)
		httpx.JSONError(w, http.StatusBadRequest, "invalid_signature", nil)
		return
	}

	if event.Type != "checkout.session.completed" {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	var cs stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
		h.log.Warn("webhook payload decode failed", "event", event.ID, "err", err)
		httpx.JSONError(w, http.StatusBadRequest, "invalid_payload", nil)
		return
	}

	quoteID, err := strconv.ParseUint(cs.Metadata["quote_id"], 10, 64)
	if err != nil || quoteID == 0 {
		h.log.Warn("webhook without quote metadata", "event", event.ID, "session", cs.ID)
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}
	paymentIntentID := ""
	if cs.PaymentIntent != nil {
		paymentIntentID = cs.PaymentIntent.ID
	}

	err = h.marker.MarkPaid(r.Context(), uint(quoteID), cs.ID, paymentIntentID)
	switch {
	case err == nil:
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	case errors.Is(err, quotes.ErrNotFound), errors.Is(err, quotes.ErrConflict):
		// Acknowledge so the processor stops retrying; the quote either never
		// existed or has already moved on.
		h.log.Warn("webhook for unavailable quote", "quote", quoteID, "session", cs.ID, "err", err)
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ignored"})
	default:
		h.log.Error("webhook apply failed", "quote", quoteID, "err", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}
