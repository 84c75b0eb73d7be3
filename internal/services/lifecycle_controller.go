package services

import (
	"context"
	"errors"
	"log"

	"github.com/delloop-lab/taskorilla-sub000/internal/constants"
	apperrors "github.com/delloop-lab/taskorilla-sub000/internal/errors"
	"github.com/delloop-lab/taskorilla-sub000/internal/models"
	"github.com/delloop-lab/taskorilla-sub000/internal/notify"
	repository "github.com/delloop-lab/taskorilla-sub000/internal/repositories"
)

// TaskLifecycleController owns Task.status. Every transition flows
// through here; the other services are delegates.
type TaskLifecycleController struct {
	tasks    *repository.TaskRepository
	users    *repository.UserRepository
	registry *BidRegistry
	payments *PaymentOrchestrator
	payouts  *PayoutEngine
	notifier notify.Notifier
}

// AcceptBidResult carries the acceptance outcome plus the immediate
// checkout offer when the payment gateway produced one.
type AcceptBidResult struct {
	Task        *models.Task `json:"task"`
	Bid         *models.Bid  `json:"bid"`
	CheckoutURL string       `json:"checkout_url,omitempty"`
}

func NewTaskLifecycleController(
	tasks *repository.TaskRepository,
	users *repository.UserRepository,
	registry *BidRegistry,
	payments *PaymentOrchestrator,
	payouts *PayoutEngine,
	notifier notify.Notifier,
) *TaskLifecycleController {
	return &TaskLifecycleController{
		tasks:    tasks,
		users:    users,
		registry: registry,
		payments: payments,
		payouts:  payouts,
		notifier: notifier,
	}
}

func (c *TaskLifecycleController) CreateTask(ctx context.Context, title, description, posterID string) (*models.Task, error) {
	if title == "" {
		return nil, apperrors.NewValidation("title is required")
	}
	if description == "" {
		return nil, apperrors.NewValidation("description is required")
	}
	if _, err := c.users.FindByID(ctx, posterID); err != nil {
		return nil, apperrors.ErrUserNotFound
	}

	return c.tasks.Create(ctx, title, description, posterID)
}

func (c *TaskLifecycleController) GetTask(ctx context.Context, id string) (*models.Task, error) {
	task, err := c.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.ErrTaskNotFound
	}
	return task, nil
}

func (c *TaskLifecycleController) ListTasks(ctx context.Context) ([]models.Task, error) {
	return c.tasks.ListVisible(ctx)
}

// AcceptBid resolves the bidding round and, when possible, immediately
// offers checkout so the poster can pay in the same flow. The manual pay
// action stays available if the offer cannot be produced.
func (c *TaskLifecycleController) AcceptBid(ctx context.Context, taskID, bidID, actingUserID, returnURL, cancelURL string) (*AcceptBidResult, error) {
	task, bid, err := c.registry.AcceptBid(ctx, taskID, bidID, actingUserID)
	if err != nil {
		return nil, err
	}

	result := &AcceptBidResult{Task: task, Bid: bid}

	session, err := c.payments.InitiateCheckout(ctx, taskID, actingUserID, returnURL, cancelURL)
	if err != nil {
		// Acceptance stands; the poster pays later through the manual
		// pay action.
		log.Printf("lifecycle: checkout offer after acceptance failed for task %s: %v", taskID, err)
		result.Task, _ = c.tasks.FindByID(ctx, taskID)
		return result, nil
	}

	result.CheckoutURL = session.RedirectURL
	result.Task, err = c.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (c *TaskLifecycleController) CancelAssignment(ctx context.Context, taskID, actingUserID string) (*models.Task, error) {
	return c.registry.CancelAssignment(ctx, taskID, actingUserID)
}

// MarkCompleted is the sole entry point to the terminal transition. It
// refuses until payment is captured, distinguishing a payment still in
// flight from one never attempted.
func (c *TaskLifecycleController) MarkCompleted(ctx context.Context, taskID, posterID string) (*models.Task, error) {
	task, err := c.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, apperrors.ErrTaskNotFound
	}
	if task.CreatedBy != posterID {
		return nil, apperrors.NewState("only the task poster can confirm completion")
	}
	if task.Status == constants.StatusCompleted {
		return nil, apperrors.NewConflict("task is already completed")
	}
	if task.Status != constants.StatusInProgress {
		return nil, apperrors.NewState("task is not in progress")
	}

	switch task.PaymentStatus {
	case constants.PaymentPaid:
	case constants.PaymentPending:
		return nil, apperrors.ErrPaymentProcessing
	default:
		return nil, apperrors.ErrPaymentRequired
	}

	if err := c.tasks.Complete(ctx, taskID); err != nil {
		if errors.Is(err, repository.ErrStaleTransition) {
			return nil, apperrors.NewConflict("task is already completed")
		}
		return nil, err
	}

	if task.AssignedTo != nil {
		fireAndForget(ctx, c.notifier, constants.NotifyTaskCompleted, *task.AssignedTo, map[string]string{
			"task_id":    task.ID,
			"task_title": task.Title,
		})
	}

	// Payout failure is independent of lifecycle success: the completion
	// stands and the failure is recorded on the timeline by the engine.
	if err := c.payouts.Disburse(ctx, taskID, "payout-"+taskID); err != nil {
		log.Printf("lifecycle: payout for task %s failed: %v", taskID, err)
	}

	return c.tasks.FindByID(ctx, taskID)
}

// Archive soft-deletes a task from public listings.
func (c *TaskLifecycleController) Archive(ctx context.Context, taskID, actingUserID string) error {
	task, err := c.tasks.FindByID(ctx, taskID)
	if err != nil {
		return apperrors.ErrTaskNotFound
	}
	if task.CreatedBy != actingUserID {
		return apperrors.NewState("only the task poster can archive a task")
	}
	return c.tasks.Archive(ctx, taskID)
}

// SetHidden is the admin moderation toggle.
func (c *TaskLifecycleController) SetHidden(ctx context.Context, taskID string, hidden bool) error {
	if _, err := c.tasks.FindByID(ctx, taskID); err != nil {
		return apperrors.ErrTaskNotFound
	}
	return c.tasks.SetHidden(ctx, taskID, hidden)
}

// DeleteTask hard-deletes a task while the poster still may: only open
// tasks qualify, anything assigned keeps its history.
func (c *TaskLifecycleController) DeleteTask(ctx context.Context, taskID, actingUserID string) error {
	task, err := c.tasks.FindByID(ctx, taskID)
	if err != nil {
		return apperrors.ErrTaskNotFound
	}
	if task.CreatedBy != actingUserID {
		return apperrors.NewState("only the task poster can delete a task")
	}

	if err := c.tasks.Delete(ctx, taskID); err != nil {
		if errors.Is(err, repository.ErrStaleTransition) {
			return apperrors.NewState("only open tasks can be deleted")
		}
		return err
	}
	return nil
}
