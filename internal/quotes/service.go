// Package quotes owns the quote lifecycle: scoped CRUD while drafting, the
// send lock, token-gated accept/decline, and the webhook-driven paid
// transition. Status changes go through atomic conditional updates whose
// predicate includes the expected current status; a zero-row result means the
// caller lost a race and gets ErrConflict.
package quotes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/ryancalacsan/quotecraft-sub000/internal/models"
	"github.com/ryancalacsan/quotecraft-sub000/internal/pricing"
	"github.com/ryancalacsan/quotecraft-sub000/validation"
)

// createAttempts bounds retries of the create-with-number operation when two
// concurrent creations compute the same next quote number.
const createAttempts = 3

// Scope identifies the caller for ownership and session isolation. Every read
// and write goes through it: a quote is visible only when the owner id matches
// AND the session tag matches (nil matches nil).
type Scope struct {
	UserID    uint
	SessionID *string
}

func (s Scope) apply(db *gorm.DB) *gorm.DB {
	db = db.Where("user_id = ?", s.UserID)
	if s.SessionID == nil {
		return db.Where("session_id IS NULL")
	}
	return db.Where("session_id = ?", *s.SessionID)
}

type Service struct {
	db     *gorm.DB
	log    *slog.Logger
	prefix string
	now    func() time.Time
}

func NewService(db *gorm.DB, log *slog.Logger, numberPrefix string) *Service {
	if numberPrefix == "" {
		numberPrefix = "QC"
	}
	return &Service{db: db, log: log, prefix: numberPrefix, now: time.Now}
}

// QuoteInput is the mutable quote content; accepted on create and on draft
// edits only.
type QuoteInput struct {
	Title          string     `json:"title"`
	ClientName     string     `json:"client_name"`
	ClientEmail    string     `json:"client_email"`
	Notes          string     `json:"notes"`
	Currency       string     `json:"currency"`
	DepositPercent int        `json:"deposit_percent"`
	ValidUntil     *time.Time `json:"valid_until"`
}

func validateQuoteInput(in QuoteInput) validation.Violations {
	v := validation.Violations{}
	validation.Required("client_name", in.ClientName, v)
	validation.Email("client_email", in.ClientEmail, v)
	validation.RangeInt("deposit_percent", in.DepositPercent, 0, 100, v)
	return v
}

// Create inserts a new draft quote with a fresh number and share token.
// Retried as a whole on a duplicate-number collision; each attempt recomputes
// the number, so a retry is idempotent from the caller's perspective.
func (s *Service) Create(ctx context.Context, scope Scope, in QuoteInput) (*models.Quote, error) {
	if v := validateQuoteInput(in); !v.Empty() {
		return nil, &ValidationError{Fields: v}
	}
	currency := in.Currency
	if currency == "" {
		currency = "USD"
	}

	var lastErr error
	for attempt := 0; attempt < createAttempts; attempt++ {
		number, err := nextQuoteNumber(s.db.WithContext(ctx), scope.UserID, s.prefix, s.now())
		if err != nil {
			return nil, upstream("create quote", 0, err)
		}
		token, err := NewShareToken()
		if err != nil {
			return nil, upstream("create quote", 0, err)
		}
		q := models.Quote{
			UserID:         scope.UserID,
			SessionID:      scope.SessionID,
			QuoteNumber:    number,
			ShareToken:     token,
			Title:          in.Title,
			ClientName:     in.ClientName,
			ClientEmail:    in.ClientEmail,
			Notes:          in.Notes,
			Currency:       currency,
			DepositPercent: in.DepositPercent,
			ValidUntil:     in.ValidUntil,
			Status:         models.StatusDraft,
			Version:        1,
		}
		err = s.db.WithContext(ctx).Create(&q).Error
		if err == nil {
			return &q, nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			lastErr = err
			continue
		}
		return nil, upstream("create quote", 0, err)
	}
	return nil, upstream("create quote", 0, fmt.Errorf("number collision after %d attempts: %w", createAttempts, lastErr))
}

// Get loads one quote with its items in sort order, scoped to the caller.
func (s *Service) Get(ctx context.Context, scope Scope, id uint) (*models.Quote, error) {
	var q models.Quote
	err := scope.apply(s.db.WithContext(ctx)).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order asc, id asc") }).
		First(&q, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, upstream("load quote", id, err)
	}
	return &q, nil
}

// List returns the caller's quotes, newest first, optionally filtered by
// status.
func (s *Service) List(ctx context.Context, scope Scope, status models.QuoteStatus, limit, offset int) ([]models.Quote, int64, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	dbq := scope.apply(s.db.WithContext(ctx).Model(&models.Quote{}))
	if status != "" {
		if !models.ValidStatus(status) {
			return nil, 0, &ValidationError{Fields: validation.Violations{"status": "invalid_value"}}
		}
		dbq = dbq.Where("status = ?", status)
	}
	var total int64
	if err := dbq.Count(&total).Error; err != nil {
		return nil, 0, upstream("list quotes", 0, err)
	}
	var out []models.Quote
	err := dbq.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order asc, id asc") }).
		Order("id desc").Limit(limit).Offset(offset).Find(&out).Error
	if err != nil {
		return nil, 0, upstream("list quotes", 0, err)
	}
	return out, total, nil
}

// Update mutates draft content. The write predicate re-checks status so a
// concurrent send cannot let a stale edit through; version bumps by one in the
// same statement.
func (s *Service) Update(ctx context.Context, scope Scope, id uint, in QuoteInput) (*models.Quote, error) {
	if v := validateQuoteInput(in); !v.Empty() {
		return nil, &ValidationError{Fields: v}
	}
	q, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if !q.Status.Editable() {
		return nil, &TransitionError{From: q.Status, Msg: "only draft quotes can be edited"}
	}

	updates := map[string]any{
		"title":           in.Title,
		"client_name":     in.ClientName,
		"client_email":    in.ClientEmail,
		"notes":           in.Notes,
		"deposit_percent": in.DepositPercent,
		"valid_until":     in.ValidUntil,
		"version":         gorm.Expr("version + 1"),
	}
	if in.Currency != "" {
		updates["currency"] = in.Currency
	}
	res := scope.apply(s.db.WithContext(ctx).Model(&models.Quote{})).
		Where("id = ? AND status = ?", id, models.StatusDraft).
		Updates(updates)
	if res.Error != nil {
		return nil, upstream("update quote", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrConflict
	}
	return s.Get(ctx, scope, id)
}

// Send locks a draft's content and makes it publicly answerable. Conditional
// on status so two racing sends collapse to one.
func (s *Service) Send(ctx context.Context, scope Scope, id uint) (*models.Quote, error) {
	q, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if q.Status != models.StatusDraft {
		return nil, &TransitionError{From: q.Status, Msg: "only draft quotes can be sent"}
	}
	res := scope.apply(s.db.WithContext(ctx).Model(&models.Quote{})).
		Where("id = ? AND status = ?", id, models.StatusDraft).
		Updates(map[string]any{
			"status":  models.StatusSent,
			"version": gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return nil, upstream("send quote", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrConflict
	}
	return s.Get(ctx, scope, id)
}

// Delete hard-deletes a quote and its line items in one transaction. Allowed
// from any status; only the owner can do it.
func (s *Service) Delete(ctx context.Context, scope Scope, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var q models.Quote
		if err := scope.apply(tx).First(&q, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return upstream("delete quote", id, err)
		}
		if err := tx.Where("quote_id = ?", q.ID).Delete(&models.LineItem{}).Error; err != nil {
			return upstream("delete quote items", id, err)
		}
		if err := tx.Delete(&models.Quote{}, q.ID).Error; err != nil {
			return upstream("delete quote", id, err)
		}
		return nil
	})
}

// PricingItems converts persisted line items into pricing-engine inputs,
// preserving sort order.
func PricingItems(items []models.LineItem) []pricing.Item {
	out := make([]pricing.Item, len(items))
	for i, it := range items {
		out[i] = pricing.Item{Rate: it.Rate, Quantity: it.Quantity, DiscountPercent: it.DiscountPercent}
	}
	return out
}

// Pricing computes the full breakdown for a quote's current items.
func Pricing(q *models.Quote) pricing.Result {
	return pricing.QuotePricing(PricingItems(q.Items), q.DepositPercent)
}
