package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Template is a saved blueprint used to seed new quotes. Not subject to the
// quote lifecycle; pure copy-source.
type Template struct {
	ID             uint    `gorm:"primaryKey" json:"id"`
	UserID         uint    `gorm:"not null;index" json:"-"`
	SessionID      *string `gorm:"size:64;index" json:"-"`
	Name           string  `gorm:"not null" json:"name"`
	DefaultTitle   string  `json:"default_title"`
	DefaultNotes   string  `json:"default_notes"`
	ValidDays      int     `gorm:"not null;default:0" json:"valid_days"`
	DepositPercent int     `gorm:"not null;default:0" json:"deposit_percent"`

	Items []TemplateItem `gorm:"foreignKey:TemplateID;constraint:OnDelete:CASCADE" json:"items,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TemplateItem struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	TemplateID      uint            `gorm:"not null;index" json:"-"`
	Description     string          `gorm:"not null" json:"description"`
	PricingType     string          `gorm:"size:16;not null;default:'fixed'" json:"pricing_type"`
	Unit            string          `gorm:"size:32" json:"unit,omitempty"`
	Rate            decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"rate"`
	Quantity        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	DiscountPercent int             `gorm:"not null;default:0" json:"discount_percent"`
	SortOrder       int             `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
