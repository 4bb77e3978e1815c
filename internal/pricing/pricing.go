// Package pricing computes all monetary amounts for quotes. Every intermediate
// value is an arbitrary-precision decimal; native floats never touch money.
// Rounding happens per line item first, then again at the subtotal and deposit
// level, in that order.
package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when a monetary input cannot be parsed as a
// decimal number.
var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount normalizes a decimal-string representation ("33.33", "100")
// without precision loss. Range checks (rate >= 0, quantity > 0) are the
// caller's concern.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return d, nil
}

// Item carries the pricing inputs of a single line item.
type Item struct {
	Rate            decimal.Decimal
	Quantity        decimal.Decimal
	DiscountPercent int
}

// Result is the full pricing breakdown of a quote.
type Result struct {
	Subtotal      decimal.Decimal
	ItemTotals    []decimal.Decimal
	DepositAmount decimal.Decimal
	Total         decimal.Decimal
}

// LineItemTotal computes rate * quantity * (1 - discount/100), rounded to two
// decimal places half away from zero.
func LineItemTotal(rate, quantity decimal.Decimal, discountPercent int) decimal.Decimal {
	total := rate.Mul(quantity)
	if discountPercent > 0 {
		// Shift(-2) divides by 100 exactly; no division rounding involved.
		total = total.Mul(decimal.NewFromInt(100 - int64(discountPercent))).Shift(-2)
	}
	return total.Round(2)
}

// QuotePricing computes each item's total, the subtotal of the already-rounded
// item totals, and the deposit portion. The deposit is a share of the total,
// not additive, so Total always equals Subtotal.
func QuotePricing(items []Item, depositPercent int) Result {
	itemTotals := make([]decimal.Decimal, len(items))
	subtotal := decimal.Zero
	for i, it := range items {
		t := LineItemTotal(it.Rate, it.Quantity, it.DiscountPercent)
		itemTotals[i] = t
		subtotal = subtotal.Add(t)
	}
	subtotal = subtotal.Round(2)

	deposit := decimal.Zero
	if depositPercent > 0 {
		deposit = subtotal.Mul(decimal.NewFromInt(int64(depositPercent))).Shift(-2).Round(2)
	}
	return Result{
		Subtotal:      subtotal,
		ItemTotals:    itemTotals,
		DepositAmount: deposit,
		Total:         subtotal,
	}
}

// ToMinorUnits converts a major-unit amount (dollars) to an integer count of
// minor units (cents) for the payment processor, half rounding up.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
