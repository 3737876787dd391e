package gateway

import (
	"context"
	"time"
)

// CheckoutRequest describes one checkout session to be created at a payment provider.
type CheckoutRequest struct {
	OrderRef      string // merchant order reference, "<orderID>-<nonce>"
	Amount        float64
	Currency      string
	Description   string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	CallbackURL   string
}

// CheckoutSession is the provider's answer: its own transaction id (the webhook correlation
// key), the hosted page to redirect the customer to, and the session expiry.
type CheckoutSession struct {
	ID          string
	CheckoutURL string
	ExpiresAt   time.Time
}

type Provider interface {
	Name() string
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
}
