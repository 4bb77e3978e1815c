package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote lifecycle statuses. Transitions are enforced through Next; nothing
// else is allowed to mutate a quote's status column.
type QuoteStatus string

const (
	StatusDraft    QuoteStatus = "draft"
	StatusSent     QuoteStatus = "sent"
	StatusAccepted QuoteStatus = "accepted"
	StatusDeclined QuoteStatus = "declined"
	StatusPaid     QuoteStatus = "paid"
)

type Quote struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	UserID      uint    `gorm:"not null;index;uniqueIndex:idx_quotes_owner_number,priority:1" json:"-"`
	SessionID   *string `gorm:"size:64;index" json:"-"` // demo-session scope; nil for permanent data
	QuoteNumber string  `gorm:"size:32;not null;uniqueIndex:idx_quotes_owner_number,priority:2" json:"quote_number"`
	ShareToken  string  `gorm:"uniqueIndex;size:30;not null" json:"share_token"`

	Title          string      `json:"title"`
	ClientName     string      `gorm:"not null" json:"client_name"`
	ClientEmail    string      `json:"client_email"`
	Notes          string      `json:"notes"`
	Currency       string      `gorm:"size:3;not null;default:'USD'" json:"currency"`
	DepositPercent int         `gorm:"not null;default:0" json:"deposit_percent"`
	ValidUntil     *time.Time  `json:"valid_until,omitempty"`
	Status         QuoteStatus `gorm:"size:16;not null;default:'draft';index" json:"status"`
	Version        int         `gorm:"not null;default:1" json:"version"`

	StripeSessionID       string     `gorm:"size:128" json:"-"`
	StripePaymentIntentID string     `gorm:"size:128" json:"-"`
	PaidAt                *time.Time `json:"paid_at,omitempty"`

	Items []LineItem `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE" json:"items,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Expired reports whether the quote's validity window has passed at now.
func (q *Quote) Expired(now time.Time) bool {
	return q.ValidUntil != nil && q.ValidUntil.Before(now)
}

// Line item pricing types.
const (
	PricingHourly  = "hourly"
	PricingFixed   = "fixed"
	PricingPerUnit = "per_unit"
)

type LineItem struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	QuoteID         uint            `gorm:"not null;index" json:"-"`
	Description     string          `gorm:"not null" json:"description"`
	PricingType     string          `gorm:"size:16;not null;default:'fixed'" json:"pricing_type"`
	Unit            string          `gorm:"size:32" json:"unit,omitempty"` // set only for per_unit items
	Rate            decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"rate"`
	Quantity        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	DiscountPercent int             `gorm:"not null;default:0" json:"discount_percent"`
	SortOrder       int             `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
