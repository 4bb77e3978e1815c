// Package payments isolates the payment processor behind narrow interfaces:
// a checkout-session creator consumed by the public checkout endpoint, and a
// webhook handler that drives the accepted->paid transition.
package payments

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"
)

// CheckoutParams carries everything needed to open a hosted checkout: the
// amount already converted to minor units, and metadata linking back to the
// quote.
type CheckoutParams struct {
	QuoteID     uint
	QuoteNumber string
	Description string
	AmountMinor int64
	Currency    string
	SuccessURL  string
	CancelURL   string
}

// CheckoutSession is the processor's handle plus the redirect destination.
type CheckoutSession struct {
	ID  string
	URL string
}

// CheckoutProvider is the only contract the core has with the processor for
// starting a payment.
type CheckoutProvider interface {
	CreateCheckout(ctx context.Context, p CheckoutParams) (*CheckoutSession, error)
}

// StripeProvider implements CheckoutProvider against Stripe Checkout.
type StripeProvider struct{}

// NewStripeProvider configures the Stripe client key and returns the provider.
func NewStripeProvider(secretKey string) *StripeProvider {
	stripe.Key = secretKey
	return &StripeProvider{}
}

func (p *StripeProvider) CreateCheckout(ctx context.Context, cp CheckoutParams) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(strings.ToLower(cp.Currency)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(cp.Description),
				},
				UnitAmount: stripe.Int64(cp.AmountMinor),
			},
			Quantity: stripe.Int64(1),
		}},
		SuccessURL: stripe.String(cp.SuccessURL),
		CancelURL:  stripe.String(cp.CancelURL),
	}
	params.Context = ctx
	params.AddMetadata("quote_id", strconv.FormatUint(uint64(cp.QuoteID), 10))
	params.AddMetadata("quote_number", cp.QuoteNumber)

	s, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}
