package gateways

import (
	"context"

	"github.com/shopspring/decimal"
)

type PayoutResult struct {
	PayoutID string
	// Simulated is set when no live provider credentials were configured
	// and the disbursement was recorded without moving money.
	Simulated bool
}

type PayoutGateway interface {
	CreatePayout(ctx context.Context, amount decimal.Decimal, currency, destination, idempotencyKey string) (*PayoutResult, error)
}
