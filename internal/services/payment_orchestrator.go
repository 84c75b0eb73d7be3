package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/delloop-lab/taskorilla-sub000/internal/constants"
	apperrors "github.com/delloop-lab/taskorilla-sub000/internal/errors"
	"github.com/delloop-lab/taskorilla-sub000/internal/gateways"
	repository "github.com/delloop-lab/taskorilla-sub000/internal/repositories"
)

const defaultCurrency = "usd"

// ReconcileOutcome is the terminal result of a reconciliation poll.
type ReconcileOutcome string

const (
	// OutcomePaid means the gateway confirmation has landed.
	OutcomePaid ReconcileOutcome = "paid"
	// OutcomeProcessing means confirmation has not arrived yet. It is an
	// indeterminate state for the caller to re-check later, not a failure.
	OutcomeProcessing ReconcileOutcome = "processing"
	// OutcomeFailed means the gateway reported the charge as failed.
	OutcomeFailed ReconcileOutcome = "failed"
)

// defaultBackoff is the reconcile poll schedule. Confirmation arrives via
// webhook out-of-band, usually within the first couple of checks.
var defaultBackoff = []time.Duration{
	2 * time.Second,
	3 * time.Second,
	5 * time.Second,
	5 * time.Second,
	5 * time.Second,
}

// PaymentOrchestrator drives a task's payment to paid, reconciling the
// asynchronous gateway confirmation with the poster's return navigation.
type PaymentOrchestrator struct {
	tasks      *repository.TaskRepository
	bids       *repository.BidRepository
	gateway    gateways.PaymentGateway
	serviceFee decimal.Decimal
	backoff    []time.Duration
}

func NewPaymentOrchestrator(
	tasks *repository.TaskRepository,
	bids *repository.BidRepository,
	gateway gateways.PaymentGateway,
	serviceFee decimal.Decimal,
) *PaymentOrchestrator {
	return &PaymentOrchestrator{
		tasks:      tasks,
		bids:       bids,
		gateway:    gateway,
		serviceFee: serviceFee,
		backoff:    defaultBackoff,
	}
}

// WithBackoff overrides the poll schedule. Used by tests.
func (o *PaymentOrchestrator) WithBackoff(schedule []time.Duration) *PaymentOrchestrator {
	o.backoff = schedule
	return o
}

// chargeableAmount resolves the amount the poster owes before the service
// fee: the task budget, or the accepted bid amount when the budget has not
// been stamped yet.
func (o *PaymentOrchestrator) chargeableAmount(ctx context.Context, taskID string, budget *decimal.Decimal) (decimal.Decimal, error) {
	if budget != nil && budget.IsPositive() {
		return *budget, nil
	}

	accepted, err := o.bids.FindAccepted(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, apperrors.NewValidation("task has no budget to charge")
		}
		return decimal.Zero, err
	}
	return accepted.Amount, nil
}

// InitiateCheckout opens a gateway checkout session for budget plus the
// fixed service fee and parks the task in payment_status=pending.
func (o *PaymentOrchestrator) InitiateCheckout(ctx context.Context, taskID, posterID, returnURL, cancelURL string) (*gateways.CheckoutSession, error) {
	task, err := o.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, apperrors.ErrTaskNotFound
	}
	if task.CreatedBy != posterID {
		return nil, apperrors.NewState("only the task poster can pay for a task")
	}
	if task.PaymentStatus == constants.PaymentPaid {
		return nil, apperrors.NewConflict("task has already been paid")
	}

	amount, err := o.chargeableAmount(ctx, taskID, task.Budget)
	if err != nil {
		return nil, err
	}

	total := amount.Add(o.serviceFee)
	session, err := o.gateway.CreateCheckout(ctx, total, defaultCurrency, returnURL, cancelURL)
	if err != nil {
		return nil, apperrors.NewExternalService("payment gateway error: " + err.Error())
	}

	if err := o.tasks.SetPaymentPending(ctx, taskID, session.IntentID); err != nil {
		if errors.Is(err, repository.ErrStaleTransition) {
			return nil, apperrors.NewConflict("task has already been paid")
		}
		return nil, err
	}

	return session, nil
}

// Reconcile polls the persisted payment status until it observes paid, a
// failed charge, or the backoff schedule runs out. Exhaustion is not a
// failure: the caller gets OutcomeProcessing and re-checks later. The
// poll stops early when ctx is cancelled.
func (o *PaymentOrchestrator) Reconcile(ctx context.Context, taskID string) (ReconcileOutcome, error) {
	for attempt := 0; ; attempt++ {
		task, err := o.tasks.FindByID(ctx, taskID)
		if err != nil {
			return OutcomeProcessing, apperrors.ErrTaskNotFound
		}

		switch task.PaymentStatus {
		case constants.PaymentPaid:
			return OutcomePaid, nil
		case constants.PaymentFailed:
			return OutcomeFailed, nil
		}

		if attempt >= len(o.backoff) {
			return OutcomeProcessing, nil
		}

		timer := time.NewTimer(o.backoff[attempt])
		select {
		case <-ctx.Done():
			timer.Stop()
			return OutcomeProcessing, ctx.Err()
		case <-timer.C:
		}
	}
}

// ConfirmPayment records the gateway's out-of-band confirmation for an
// intent. Re-delivery of a confirmation is a no-op.
func (o *PaymentOrchestrator) ConfirmPayment(ctx context.Context, intentID string) error {
	task, err := o.tasks.FindByPaymentIntent(ctx, intentID)
	if err != nil {
		return apperrors.NewValidation("unknown payment intent")
	}
	if task.PaymentStatus == constants.PaymentPaid {
		return nil
	}

	if err := o.tasks.MarkPaid(ctx, intentID); err != nil {
		if errors.Is(err, repository.ErrStaleTransition) {
			return apperrors.NewConflict("payment is not pending confirmation")
		}
		return err
	}
	return nil
}

// SweepPending logs tasks still waiting on gateway confirmation so stuck
// payments are visible to operators. Runs on a cron schedule.
func (o *PaymentOrchestrator) SweepPending(ctx context.Context) {
	tasks, err := o.tasks.ListPendingPayment(ctx, 100)
	if err != nil {
		log.Printf("payment sweep: failed to list pending tasks: %v", err)
		return
	}

	for _, task := range tasks {
		age := time.Since(task.UpdatedAt).Round(time.Second)
		log.Printf("payment sweep: task %s awaiting confirmation for %s", task.ID, age)
	}
}
