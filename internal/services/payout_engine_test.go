package services

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/delloop-lab/taskorilla-sub000/internal/constants"
	apperrors "github.com/delloop-lab/taskorilla-sub000/internal/errors"
	"github.com/delloop-lab/taskorilla-sub000/internal/gateways"
)

func TestComputePayout(t *testing.T) {
	cases := []struct {
		budget, feePercent, wantPayout, wantFee int64
	}{
		{100, 10, 90, 10},
		{100, 0, 100, 0},
		{200, 10, 180, 20},
	}

	for _, c := range cases {
		payout, fee := ComputePayout(decimal.NewFromInt(c.budget), decimal.NewFromInt(c.feePercent))
		if !payout.Equal(decimal.NewFromInt(c.wantPayout)) {
			t.Errorf("ComputePayout(%d, %d) payout = %s, want %d", c.budget, c.feePercent, payout, c.wantPayout)
		}
		if !fee.Equal(decimal.NewFromInt(c.wantFee)) {
			t.Errorf("ComputePayout(%d, %d) fee = %s, want %d", c.budget, c.feePercent, fee, c.wantFee)
		}
	}
}

func TestComputePayout_RoundsToCents(t *testing.T) {
	payout, fee := ComputePayout(decimal.NewFromInt(33), decimal.NewFromInt(10))
	if fee.String() != "3.3" {
		t.Errorf("expected fee 3.3, got %s", fee)
	}
	if payout.String() != "29.7" {
		t.Errorf("expected payout 29.7, got %s", payout)
	}
}

func TestDisburse_PaysFeeAdjustedAmount(t *testing.T) {
	env := newTestEnv(t)
	poster := env.createUser(t, "Paula", false, "")
	helper := env.createUser(t, "Hank", true, "hank@pay.example")
	task := env.paidTask(t, poster.ID, helper.ID, 200)

	ctx := context.Background()
	if err := env.payouts.Disburse(ctx, task.ID, "payout-"+task.ID); err != nil {
		t.Fatalf("failed to disburse: %v", err)
	}

	if len(env.payoutGW.calls) != 1 {
		t.Fatalf("expected one gateway call, got %d", len(env.payoutGW.calls))
	}
	call := env.payoutGW.calls[0]
	if !call.Amount.Equal(decimal.NewFromInt(180)) {
		t.Errorf("expected payout of 180, got %s", call.Amount)
	}
	if call.Destination != "hank@pay.example" {
		t.Errorf("expected the helper's payout email, got %s", call.Destination)
	}
	if call.IdempotencyKey != "payout-"+task.ID {
		t.Errorf("unexpected idempotency key %s", call.IdempotencyKey)
	}

	updated, _ := env.tasks.FindByID(ctx, task.ID)
	if updated.PayoutStatus != constants.PayoutCompleted {
		t.Errorf("expected payout status completed, got %s", updated.PayoutStatus)
	}
	if updated.PayoutID == nil {
		t.Error("expected the payout id to be stored")
	}

	if env.notifier.count(constants.NotifyPayoutInitiated) != 1 {
		t.Error("expected the helper to be notified of the payout")
	}

	if !timelineContains(t, env, task.ID, "180.00") || !timelineContains(t, env, task.ID, "20.00") {
		t.Error("expected the payout summary to state amount and fee")
	}
}

func TestDisburse_RequiresCapturedPayment(t *testing.T) {
	env := newTestEnv(t)
	poster := env.createUser(t, "Paula", false, "")
	helper := env.createUser(t, "Hank", true, "hank@pay.example")
	task := env.acceptedTask(t, poster.ID, helper.ID, 200)

	err := env.payouts.Disburse(context.Background(), task.ID, "payout-"+task.ID)
	if apperrors.KindOf(err) != apperrors.KindState {
		t.Errorf("expected state error, got %v", err)
	}
	if len(env.payoutGW.calls) != 0 {
		t.Error("gateway must not be called before payment capture")
	}
}

func TestDisburse_NoPayoutMethodSkips(t *testing.T) {
	env := newTestEnv(t)
	poster := env.createUser(t, "Paula", false, "")
	helper := env.createUser(t, "Hank", true, "")
	task := env.paidTask(t, poster.ID, helper.ID, 200)

	if err := env.payouts.Disburse(context.Background(), task.ID, "payout-"+task.ID); err != nil {
		t.Fatalf("missing payout method should skip, not fail: %v", err)
	}
	if len(env.payoutGW.calls) != 0 {
		t.Error("gateway must not be called without a payout method")
	}
	if !timelineContains(t, env, task.ID, "no payout method") {
		t.Error("expected the timeline to flag the missing payout method")
	}
}

func TestDisburse_GatewayFailureIsRecoverable(t *testing.T) {
	env := newTestEnv(t)
	poster := env.createUser(t, "Paula", false, "")
	helper := env.createUser(t, "Hank", true, "hank@pay.example")
	task := env.paidTask(t, poster.ID, helper.ID, 200)

	env.payoutGW.fail = true

	err := env.payouts.Disburse(context.Background(), task.ID, "payout-"+task.ID)
	if apperrors.KindOf(err) != apperrors.KindExternalService {
		t.Fatalf("expected external service error, got %v", err)
	}

	updated, _ := env.tasks.FindByID(context.Background(), task.ID)
	if updated.PayoutStatus != constants.PayoutFailed {
		t.Errorf("expected payout status failed, got %s", updated.PayoutStatus)
	}
	if !timelineContains(t, env, task.ID, "could not be processed") {
		t.Error("expected the timeline to record the payout failure")
	}
}

func TestSimulatedPayoutGateway_IdempotentByKey(t *testing.T) {
	gw := gateways.NewSimulatedPayoutGateway()
	ctx := context.Background()

	first, err := gw.CreatePayout(ctx, decimal.NewFromInt(90), "usd", "h@pay.example", "key-1")
	if err != nil {
		t.Fatalf("first payout failed: %v", err)
	}
	second, err := gw.CreatePayout(ctx, decimal.NewFromInt(90), "usd", "h@pay.example", "key-1")
	if err != nil {
		t.Fatalf("retried payout failed: %v", err)
	}

	if first.PayoutID != second.PayoutID {
		t.Errorf("retry with the same key must return the same payout, got %s and %s", first.PayoutID, second.PayoutID)
	}
}

func timelineContains(t *testing.T, env *testEnv, taskID, substr string) bool {
	t.Helper()

	updates, err := env.progress.ListByTask(context.Background(), taskID)
	if err != nil {
		t.Fatalf("failed to list timeline: %v", err)
	}
	for _, u := range updates {
		if u.Message != nil && strings.Contains(*u.Message, substr) {
			return true
		}
	}
	return false
}
