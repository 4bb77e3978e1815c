package quotes

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ryancalacsan/quotecraft-sub000/internal/models"
	"github.com/ryancalacsan/quotecraft-sub000/internal/pricing"
)

// CheckoutAmount is the amount to hand to the payment processor: the deposit
// when one is configured, the full subtotal otherwise.
type CheckoutAmount struct {
	Amount    decimal.Decimal
	IsDeposit bool
	Pricing   pricing.Result
}

// ResolveCheckoutAmount derives what an accepted quote costs to settle now.
// It rejects quotes that are not accepted, are expired, or have no line items;
// nothing is charged in those cases.
func ResolveCheckoutAmount(q *models.Quote, now time.Time) (CheckoutAmount, error) {
	if q.Status != models.StatusAccepted {
		return CheckoutAmount{}, &TransitionError{From: q.Status, Msg: "only accepted quotes can be paid"}
	}
	if q.Expired(now) {
		return CheckoutAmount{}, ErrExpired
	}
	if len(q.Items) == 0 {
		return CheckoutAmount{}, ErrNoItems
	}

	res := Pricing(q)
	out := CheckoutAmount{Amount: res.Subtotal, Pricing: res}
	if q.DepositPercent > 0 {
		out.Amount = res.DepositAmount
		out.IsDeposit = true
	}
	return out, nil
}
