package quotes

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ryancalacsan/quotecraft-sub000/internal/models"
	"github.com/ryancalacsan/quotecraft-sub000/validation"
)

// LineItemInput is the mutable content of one line item.
type LineItemInput struct {
	Description     string          `json:"description"`
	PricingType     string          `json:"pricing_type"`
	Unit            string          `json:"unit"`
	Rate            decimal.Decimal `json:"rate"`
	Quantity        decimal.Decimal `json:"quantity"`
	DiscountPercent int             `json:"discount_percent"`
	SortOrder       int             `json:"sort_order"`
}

func validateItemInput(in LineItemInput) validation.Violations {
	v := validation.Violations{}
	validation.Required("description", in.Description, v)
	validation.OneOf("pricing_type", in.PricingType, []string{models.PricingHourly, models.PricingFixed, models.PricingPerUnit}, v)
	validation.NonNegative("rate", in.Rate, v)
	validation.Positive("quantity", in.Quantity, v)
	validation.RangeInt("discount_percent", in.DiscountPercent, 0, 100, v)
	if in.PricingType == models.PricingPerUnit {
		validation.Required("unit", in.Unit, v)
	}
	return v
}

// unitFor drops the unit label unless the item is per_unit priced.
func unitFor(in LineItemInput) string {
	if in.PricingType == models.PricingPerUnit {
		return in.Unit
	}
	return ""
}

// editableQuote loads the scoped quote and rejects non-draft content edits.
func (s *Service) editableQuote(tx *gorm.DB, scope Scope, quoteID uint) (*models.Quote, error) {
	var q models.Quote
	if err := scope.apply(tx).First(&q, quoteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, upstream("load quote", quoteID, err)
	}
	if !q.Status.Editable() {
		return nil, &TransitionError{From: q.Status, Msg: "only draft quotes can be edited"}
	}
	return &q, nil
}

// bumpDraftVersion increments the parent version inside the same transaction
// as the item mutation. The status predicate re-checks draft, so an item write
// racing a send rolls the whole transaction back.
func (s *Service) bumpDraftVersion(tx *gorm.DB, quoteID uint) error {
	res := tx.Model(&models.Quote{}).
		Where("id = ? AND status = ?", quoteID, models.StatusDraft).
		Update("version", gorm.Expr("version + 1"))
	if res.Error != nil {
		return upstream("bump quote version", quoteID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

// AddItem appends a line item to a draft quote.
func (s *Service) AddItem(ctx context.Context, scope Scope, quoteID uint, in LineItemInput) (*models.LineItem, error) {
	if in.PricingType == "" {
		in.PricingType = models.PricingFixed
	}
	if v := validateItemInput(in); !v.Empty() {
		return nil, &ValidationError{Fields: v}
	}
	var item models.LineItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q, err := s.editableQuote(tx, scope, quoteID)
		if err != nil {
			return err
		}
		item = models.LineItem{
			QuoteID:         q.ID,
			Description:     in.Description,
			PricingType:     in.PricingType,
			Unit:            unitFor(in),
			Rate:            in.Rate,
			Quantity:        in.Quantity,
			DiscountPercent: in.DiscountPercent,
			SortOrder:       in.SortOrder,
		}
		if err := tx.Create(&item).Error; err != nil {
			return upstream("create line item", quoteID, err)
		}
		return s.bumpDraftVersion(tx, q.ID)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItem replaces a line item's content on a draft quote.
func (s *Service) UpdateItem(ctx context.Context, scope Scope, quoteID, itemID uint, in LineItemInput) (*models.LineItem, error) {
	if in.PricingType == "" {
		in.PricingType = models.PricingFixed
	}
	if v := validateItemInput(in); !v.Empty() {
		return nil, &ValidationError{Fields: v}
	}
	var item models.LineItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q, err := s.editableQuote(tx, scope, quoteID)
		if err != nil {
			return err
		}
		if err := tx.Where("quote_id = ?", q.ID).First(&item, itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return upstream("load line item", quoteID, err)
		}
		updates := map[string]any{
			"description":      in.Description,
			"pricing_type":     in.PricingType,
			"unit":             unitFor(in),
			"rate":             in.Rate,
			"quantity":         in.Quantity,
			"discount_percent": in.DiscountPercent,
			"sort_order":       in.SortOrder,
		}
		if err := tx.Model(&item).Updates(updates).Error; err != nil {
			return upstream("update line item", quoteID, err)
		}
		return s.bumpDraftVersion(tx, q.ID)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteItem removes a line item from a draft quote.
func (s *Service) DeleteItem(ctx context.Context, scope Scope, quoteID, itemID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q, err := s.editableQuote(tx, scope, quoteID)
		if err != nil {
			return err
		}
		res := tx.Where("quote_id = ?", q.ID).Delete(&models.LineItem{}, itemID)
		if res.Error != nil {
			return upstream("delete line item", quoteID, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return s.bumpDraftVersion(tx, q.ID)
	})
}
