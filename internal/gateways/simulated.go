package gateways

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SimulatedPaymentGateway stands in for the live payment provider in
// development and tests. Checkout sessions get provider-style ids and a
// local redirect target.
type SimulatedPaymentGateway struct {
	BaseURL string
}

func (g *SimulatedPaymentGateway) CreateCheckout(ctx context.Context, amount decimal.Decimal, currency, returnURL, cancelURL string) (*CheckoutSession, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrGatewayRejected)
	}

	intentID := "sim_pi_" + uuid.NewString()
	return &CheckoutSession{
		IntentID:    intentID,
		RedirectURL: fmt.Sprintf("%s/checkout/%s?return=%s&cancel=%s", g.BaseURL, intentID, returnURL, cancelURL),
	}, nil
}

// SimulatedPayoutGateway records disbursements without moving money.
// Repeated calls with the same idempotency key return the original payout.
type SimulatedPayoutGateway struct {
	mu   sync.Mutex
	seen map[string]string
}

func NewSimulatedPayoutGateway() *SimulatedPayoutGateway {
	return &SimulatedPayoutGateway{seen: make(map[string]string)}
}

func (g *SimulatedPayoutGateway) CreatePayout(ctx context.Context, amount decimal.Decimal, currency, destination, idempotencyKey string) (*PayoutResult, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: payout amount must be positive", ErrGatewayRejected)
	}
	if destination == "" {
		return nil, fmt.Errorf("%w: payout destination is required", ErrGatewayRejected)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if id, ok := g.seen[idempotencyKey]; ok {
		return &PayoutResult{PayoutID: id, Simulated: true}, nil
	}

	id := "sim_po_" + uuid.NewString()
	g.seen[idempotencyKey] = id
	return &PayoutResult{PayoutID: id, Simulated: true}, nil
}
