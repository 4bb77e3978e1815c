// Package templates manages quote blueprints: saved defaults plus an ordered
// item list that can seed a fresh draft quote. Templates sit outside the
// quote lifecycle entirely.
package templates

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/ryancalacsan/quotecraft-sub000/internal/models"
	"github.com/ryancalacsan/quotecraft-sub000/internal/quotes"
	"github.com/ryancalacsan/quotecraft-sub000/validation"
)

type Service struct {
	db     *gorm.DB
	log    *slog.Logger
	quotes *quotes.Service
	now    func() time.Time
}

func NewService(db *gorm.DB, log *slog.Logger, qs *quotes.Service) *Service {
	return &Service{db: db, log: log, quotes: qs, now: time.Now}
}

type TemplateInput struct {
	Name           string `json:"name"`
	DefaultTitle   string `json:"default_title"`
	DefaultNotes   string `json:"default_notes"`
	ValidDays      int    `json:"valid_days"`
	DepositPercent int    `json:"deposit_percent"`
}

func validateTemplateInput(in TemplateInput) validation.Violations {
	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	validation.RangeInt("deposit_percent", in.DepositPercent, 0, 100, v)
	validation.RangeInt("valid_days", in.ValidDays, 0, 3650, v)
	return v
}

func scoped(db *gorm.DB, scope quotes.Scope) *gorm.DB {
	db = db.Where("user_id = ?", scope.UserID)
	if scope.SessionID == nil {
		return db.Where("session_id IS NULL")
	}
	return db.Where("session_id = ?", *scope.SessionID)
}

func (s *Service) Create(ctx context.Context, scope quotes.Scope, in TemplateInput) (*models.Template, error) {
	if v := validateTemplateInput(in); !v.Empty() {
		return nil, &quotes.ValidationError{Fields: v}
	}
	t := models.Template{
		UserID:         scope.UserID,
		SessionID:      scope.SessionID,
		Name:           in.Name,
		DefaultTitle:   in.DefaultTitle,
		DefaultNotes:   in.DefaultNotes,
		ValidDays:      in.ValidDays,
		DepositPercent: in.DepositPercent,
	}
	if err := s.db.WithContext(ctx).Create(&t).Error; err != nil {
		return nil, &quotes.UpstreamError{Op: "create template", Err: err}
	}
	return &t, nil
}

func (s *Service) Get(ctx context.Context, scope quotes.Scope, id uint) (*models.Template, error) {
	var t models.Template
	err := scoped(s.db.WithContext(ctx), scope).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order asc, id asc") }).
		First(&t, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, quotes.ErrNotFound
	}
	if err != nil {
		return nil, &quotes.UpstreamError{Op: "load template", Err: err}
	}
	return &t, nil
}

func (s *Service) List(ctx context.Context, scope quotes.Scope) ([]models.Template, error) {
	var out []models.Template
	err := scoped(s.db.WithContext(ctx), scope).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order asc, id asc") }).
		Order("name asc").Find(&out).Error
	if err != nil {
		return nil, &quotes.UpstreamError{Op: "list templates", Err: err}
	}
	return out, nil
}

func (s *Service) Update(ctx context.Context, scope quotes.Scope, id uint, in TemplateInput) (*models.Template, error) {
	if v := validateTemplateInput(in); !v.Empty() {
		return nil, &quotes.ValidationError{Fields: v}
	}
	res := scoped(s.db.WithContext(ctx).Model(&models.Template{}), scope).
		Where("id = ?", id).
		Updates(map[string]any{
			"name":            in.Name,
			"default_title":   in.DefaultTitle,
			"default_notes":   in.DefaultNotes,
			"valid_days":      in.ValidDays,
			"deposit_percent": in.DepositPercent,
		})
	if res.Error != nil {
		return nil, &quotes.UpstreamError{Op: "update template", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return nil, quotes.ErrNotFound
	}
	return s.Get(ctx, scope, id)
}

func (s *Service) Delete(ctx context.Context, scope quotes.Scope, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t models.Template
		if err := scoped(tx, scope).First(&t, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return quotes.ErrNotFound
			}
			return &quotes.UpstreamError{Op: "delete template", Err: err}
		}
		if err := tx.Where("template_id = ?", t.ID).Delete(&models.TemplateItem{}).Error; err != nil {
			return &quotes.UpstreamError{Op: "delete template items", Err: err}
		}
		if err := tx.Delete(&models.Template{}, t.ID).Error; err != nil {
			return &quotes.UpstreamError{Op: "delete template", Err: err}
		}
		return nil
	})
}

// ReplaceItems swaps the whole item list in one all-or-nothing transaction;
// a failure leaves the previous list intact.
func (s *Service) ReplaceItems(ctx context.Context, scope quotes.Scope, id uint, items []quotes.LineItemInput) (*models.Template, error) {
	for i := range items {
		if items[i].PricingType == "" {
			items[i].PricingType = models.PricingFixed
		}
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t models.Template
		if err := scoped(tx, scope).First(&t, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return quotes.ErrNotFound
			}
			return &quotes.UpstreamError{Op: "load template", Err: err}
		}
		if err := tx.Where("template_id = ?", t.ID).Delete(&models.TemplateItem{}).Error; err != nil {
			return &quotes.UpstreamError{Op: "replace template items", Err: err}
		}
		for i, in := range items {
			ti := models.TemplateItem{
				TemplateID:      t.ID,
				Description:     in.Description,
				PricingType:     in.PricingType,
				Unit:            in.Unit,
				Rate:            in.Rate,
				Quantity:        in.Quantity,
				DiscountPercent: in.DiscountPercent,
				SortOrder:       i,
			}
			if err := tx.Create(&ti).Error; err != nil {
				return &quotes.UpstreamError{Op: "replace template items", Err: err}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, scope, id)
}

// CreateQuote instantiates the template into a fresh draft quote for the
// given client, copying defaults and items. ValidDays > 0 sets the validity
// window relative to now.
func (s *Service) CreateQuote(ctx context.Context, scope quotes.Scope, id uint, clientName, clientEmail string) (*models.Quote, error) {
	t, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	in := quotes.QuoteInput{
		Title:          t.DefaultTitle,
		ClientName:     clientName,
		ClientEmail:    clientEmail,
		Notes:          t.DefaultNotes,
		DepositPercent: t.DepositPercent,
	}
	if in.Title == "" {
		in.Title = t.Name
	}
	if t.ValidDays > 0 {
		until := s.now().AddDate(0, 0, t.ValidDays)
		in.ValidUntil = &until
	}
	q, err := s.quotes.Create(ctx, scope, in)
	if err != nil {
		return nil, err
	}
	for _, ti := range t.Items {
		item := quotes.LineItemInput{
			Description:     ti.Description,
			PricingType:     ti.PricingType,
			Unit:            ti.Unit,
			Rate:            ti.Rate,
			Quantity:        ti.Quantity,
			DiscountPercent: ti.DiscountPercent,
			SortOrder:       ti.SortOrder,
		}
		if _, err := s.quotes.AddItem(ctx, scope, q.ID, item); err != nil {
			return nil, err
		}
	}
	return s.quotes.Get(ctx, scope, q.ID)
}
