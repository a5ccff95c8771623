package service

import (
	"context"
	"fmt"
	"math"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"

	"parkwise/internal/domain"
)

// PSP creates hosted payment sessions for bookings.
type PSP interface {
	CreatePayment(ctx context.Context, booking *domain.Booking) (*domain.PaymentHandle, error)
}

// StripePSP implements PSP on Stripe Checkout sessions.
type StripePSP struct {
	currency   string
	successURL string
	cancelURL  string
}

// NewStripePSP configures the global Stripe key and returns the
// provider. currency defaults to usd.
func NewStripePSP(apiKey, currency, successURL, cancelURL string) *StripePSP {
	stripe.Key = apiKey
	if currency == "" {
		currency = "usd"
	}
	return &StripePSP{
		currency:   currency,
		successURL: successURL,
		cancelURL:  cancelURL,
	}
}

// CreatePayment opens a checkout session for the booking's quoted price.
func (p *StripePSP) CreatePayment(ctx context.Context, booking *domain.Booking) (*domain.PaymentHandle, error) {
	amountCents := int64(math.Round(booking.QuotedPrice * 100))

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(p.currency),
					UnitAmount: stripe.Int64(amountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(fmt.Sprintf("Parking slot %d (%.1fh)", booking.SlotID, booking.DurationHours)),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		ClientReferenceID: stripe.String(booking.ID),
		SuccessURL:        stripe.String(p.successURL),
		CancelURL:         stripe.String(p.cancelURL),
	}
	params.Context = ctx

	sess, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: create checkout session: %v", ErrProviderUnavailable, err)
	}

	return &domain.PaymentHandle{
		ID:     sess.ID,
		URL:    sess.URL,
		Amount: booking.QuotedPrice,
	}, nil
}
