package gateways

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// CheckoutSession is what the payment provider hands back when a checkout
// is created. Confirmation of the actual charge arrives out-of-band.
type CheckoutSession struct {
	IntentID     string
	RedirectURL  string
	ClientSecret string
}

type PaymentGateway interface {
	CreateCheckout(ctx context.Context, amount decimal.Decimal, currency, returnURL, cancelURL string) (*CheckoutSession, error)
}

var ErrGatewayRejected = errors.New("payment gateway rejected the request")
