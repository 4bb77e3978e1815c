package quotes

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/ryancalacsan/quotecraft-sub000/internal/models"
)

// GetByToken resolves a quote for the unauthenticated recipient view. Draft
// quotes are never exposed; the token format is checked before any query.
func (s *Service) GetByToken(ctx context.Context, token string) (*models.Quote, error) {
	if !ValidShareToken(token) {
		return nil, ErrNotFound
	}
	var q models.Quote
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order asc, id asc") }).
		Where("share_token = ?", token).
		First(&q).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, upstream("load quote by token", 0, err)
	}
	if q.Status == models.StatusDraft {
		return nil, ErrNotFound
	}
	return &q, nil
}

// Accept records the recipient's acceptance of a sent quote.
func (s *Service) Accept(ctx context.Context, token string) (*models.Quote, error) {
	return s.respond(ctx, token, models.StatusAccepted, "only sent quotes can be accepted")
}

// Decline records the recipient's refusal of a sent quote.
func (s *Service) Decline(ctx context.Context, token string) (*models.Quote, error) {
	return s.respond(ctx, token, models.StatusDeclined, "only sent quotes can be declined")
}

// respond performs the sent->accepted/declined transition. The expiration
// check happens in application logic before the write and is advisory; the
// atomic predicate covers id+status only. A zero-row update after a read that
// saw "sent" means another recipient answered first: ErrConflict, and the
// correct transition already happened.
func (s *Service) respond(ctx context.Context, token string, to models.QuoteStatus, illegalMsg string) (*models.Quote, error) {
	q, err := s.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if q.Status != models.StatusSent {
		return nil, &TransitionError{From: q.Status, Msg: illegalMsg}
	}
	if q.Expired(s.now()) {
		return nil, ErrExpired
	}

	res := s.db.WithContext(ctx).Model(&models.Quote{}).
		Where("id = ? AND status = ?", q.ID, models.StatusSent).
		Updates(map[string]any{
			"status":  to,
			"version": gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return nil, upstream("respond to quote", q.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrConflict
	}
	return s.GetByToken(ctx, token)
}

// MarkPaid performs the accepted->paid transition on behalf of a verified
// payment event. The predicate makes webhook retries harmless: a redelivered
// event finds status already paid, matches zero rows, and is acknowledged as
// a no-op when the same checkout session is on record.
func (s *Service) MarkPaid(ctx context.Context, quoteID uint, checkoutSessionID, paymentIntentID string) error {
	now := s.now()
	res := s.db.WithContext(ctx).Model(&models.Quote{}).
		Where("id = ? AND status = ?", quoteID, models.StatusAccepted).
		Updates(map[string]any{
			"status":                   models.StatusPaid,
			"stripe_session_id":        checkoutSessionID,
			"stripe_payment_intent_id": paymentIntentID,
			"paid_at":                  now,
			"version":                  gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return upstream("mark quote paid", quoteID, res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var q models.Quote
	if err := s.db.WithContext(ctx).First(&q, quoteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return upstream("mark quote paid", quoteID, err)
	}
	if q.Status == models.StatusPaid && q.StripeSessionID == checkoutSessionID {
		return nil // duplicate delivery of the same event
	}
	return ErrConflict
}

// StoreCheckoutSession records the processor session created for an accepted
// quote so the completed event can be matched later.
func (s *Service) StoreCheckoutSession(ctx context.Context, quoteID uint, checkoutSessionID string) error {
	res := s.db.WithContext(ctx).Model(&models.Quote{}).
		Where("id = ? AND status = ?", quoteID, models.StatusAccepted).
		Update("stripe_session_id", checkoutSessionID)
	if res.Error != nil {
		return upstream("store checkout session", quoteID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}
