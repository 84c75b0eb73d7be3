package services

import (
	"context"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"github.com/delloop-lab/taskorilla-sub000/internal/constants"
	apperrors "github.com/delloop-lab/taskorilla-sub000/internal/errors"
	"github.com/delloop-lab/taskorilla-sub000/internal/gateways"
	"github.com/delloop-lab/taskorilla-sub000/internal/notify"
	repository "github.com/delloop-lab/taskorilla-sub000/internal/repositories"
	"github.com/delloop-lab/taskorilla-sub000/internal/settings"
)

// PayoutEngine computes the platform-fee-adjusted payout and disburses to
// the assigned helper. Payout failure is independent of task completion.
type PayoutEngine struct {
	tasks    *repository.TaskRepository
	users    *repository.UserRepository
	progress *repository.ProgressRepository
	settings *settings.PlatformSettings
	gateway  gateways.PayoutGateway
	notifier notify.Notifier
}

func NewPayoutEngine(
	tasks *repository.TaskRepository,
	users *repository.UserRepository,
	progress *repository.ProgressRepository,
	platformSettings *settings.PlatformSettings,
	gateway gateways.PayoutGateway,
	notifier notify.Notifier,
) *PayoutEngine {
	return &PayoutEngine{
		tasks:    tasks,
		users:    users,
		progress: progress,
		settings: platformSettings,
		gateway:  gateway,
		notifier: notifier,
	}
}

// ComputePayout splits a budget into the helper payout and the platform
// fee, both rounded to cents.
func ComputePayout(budget, feePercent decimal.Decimal) (payout, fee decimal.Decimal) {
	fee = budget.Mul(feePercent).Div(decimal.NewFromInt(100)).Round(2)
	payout = budget.Sub(fee)
	return payout, fee
}

func (e *PayoutEngine) appendNote(ctx context.Context, taskID, authorID, text string) {
	if _, err := e.progress.Append(ctx, taskID, authorID, &text, nil, constants.UpdateGeneric); err != nil {
		// The payout outcome is already recorded on the task row.
		log.Printf("payout: failed to append progress note: %v", err)
	}
}

// Disburse pays the assigned helper once payment has been captured. The
// idempotency key guards retries against double disbursement. All three
// outcomes (sent, failed, no payout method) leave a timeline note.
func (e *PayoutEngine) Disburse(ctx context.Context, taskID, idempotencyKey string) error {
	task, err := e.tasks.FindByID(ctx, taskID)
	if err != nil {
		return apperrors.ErrTaskNotFound
	}
	if task.PaymentStatus != constants.PaymentPaid {
		return apperrors.NewState("payout requires a captured payment")
	}
	if !task.Assigned() {
		return apperrors.NewState("task has no assigned helper to pay")
	}
	if task.Budget == nil || !task.Budget.IsPositive() {
		return apperrors.NewValidation("task has no budget to disburse")
	}

	helper, err := e.users.FindByID(ctx, *task.AssignedTo)
	if err != nil {
		return apperrors.ErrUserNotFound
	}

	if !helper.HasPayoutMethod() {
		// Skipped, not retried: flagged on the timeline for manual
		// resolution.
		e.appendNote(ctx, taskID, task.CreatedBy,
			"Payout on hold: the helper has no payout method on file.")
		return nil
	}

	feePercent := e.settings.FeePercent(ctx)
	payout, fee := ComputePayout(*task.Budget, feePercent)

	if err := e.tasks.SetPayoutStatus(ctx, taskID, constants.PayoutProcessing, nil); err != nil {
		return err
	}

	result, err := e.gateway.CreatePayout(ctx, payout, defaultCurrency, helper.PayoutDestination(), idempotencyKey)
	if err != nil {
		_ = e.tasks.SetPayoutStatus(ctx, taskID, constants.PayoutFailed, nil)
		e.appendNote(ctx, taskID, task.CreatedBy,
			"Payout could not be processed. The team has been notified; task completion is unaffected.")
		return apperrors.NewExternalService("payout gateway error: " + err.Error())
	}

	status := constants.PayoutCompleted
	if result.Simulated {
		status = constants.PayoutSimulated
	}
	if err := e.tasks.SetPayoutStatus(ctx, taskID, status, &result.PayoutID); err != nil {
		return err
	}

	e.appendNote(ctx, taskID, task.CreatedBy, fmt.Sprintf(
		"Payout of %s sent to the helper (platform fee %s).", payout.StringFixed(2), fee.StringFixed(2)))

	fireAndForget(ctx, e.notifier, constants.NotifyPayoutInitiated, *task.AssignedTo, map[string]string{
		"task_id":    task.ID,
		"task_title": task.Title,
		"amount":     payout.StringFixed(2),
	})

	return nil
}
