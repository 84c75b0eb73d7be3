package services

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/delloop-lab/taskorilla-sub000/internal/constants"
	apperrors "github.com/delloop-lab/taskorilla-sub000/internal/errors"
	"github.com/delloop-lab/taskorilla-sub000/internal/events"
	"github.com/delloop-lab/taskorilla-sub000/internal/filter"
	"github.com/delloop-lab/taskorilla-sub000/internal/models"
	"github.com/delloop-lab/taskorilla-sub000/internal/notify"
	repository "github.com/delloop-lab/taskorilla-sub000/internal/repositories"
)

// BidRegistry accepts, resolves, and reverts bids against a task. It is
// the only writer of Bid.status.
type BidRegistry struct {
	db        *gorm.DB
	tasks     *repository.TaskRepository
	bids      *repository.BidRepository
	progress  *repository.ProgressRepository
	users     *repository.UserRepository
	filter    *filter.ContactFilter
	notifier  notify.Notifier
	publisher *events.Publisher
}

func NewBidRegistry(
	db *gorm.DB,
	tasks *repository.TaskRepository,
	bids *repository.BidRepository,
	progress *repository.ProgressRepository,
	users *repository.UserRepository,
	contactFilter *filter.ContactFilter,
	notifier notify.Notifier,
	publisher *events.Publisher,
) *BidRegistry {
	return &BidRegistry{
		db:        db,
		tasks:     tasks,
		bids:      bids,
		progress:  progress,
		users:     users,
		filter:    contactFilter,
		notifier:  notifier,
		publisher: publisher,
	}
}

func (r *BidRegistry) SubmitBid(ctx context.Context, taskID, userID string, amount decimal.Decimal, message string) (*models.Bid, error) {
	task, err := r.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, apperrors.ErrTaskNotFound
	}

	if task.Status != constants.StatusOpen {
		return nil, apperrors.NewState("task is no longer open for bidding")
	}
	if task.CreatedBy == userID {
		return nil, apperrors.NewValidation("you cannot bid on your own task")
	}

	user, err := r.users.FindByID(ctx, userID)
	if err != nil {
		return nil, apperrors.ErrUserNotFound
	}
	if !user.IsHelper {
		return nil, apperrors.NewValidation("only helpers can bid on tasks")
	}

	if !amount.IsPositive() {
		return nil, apperrors.NewValidation("bid amount must be greater than zero")
	}
	if res := r.filter.CheckForContactInfo(message); !res.IsClean {
		return nil, apperrors.NewValidation(res.Message)
	}

	exists, err := r.bids.ExistsForUser(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.NewConflict("you have already bid on this task")
	}

	bid, err := r.bids.Create(ctx, taskID, userID, amount, message)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.NewConflict("you have already bid on this task")
		}
		return nil, err
	}

	fireAndForget(ctx, r.notifier, constants.NotifyNewBid, task.CreatedBy, map[string]string{
		"task_id":    task.ID,
		"task_title": task.Title,
		"bid_id":     bid.ID,
		"amount":     bid.Amount.String(),
	})
	r.publisher.PublishBid(ctx, events.BidEvent{
		TaskID:    bid.TaskID,
		BidID:     bid.ID,
		UserID:    bid.UserID,
		Amount:    bid.Amount,
		CreatedAt: bid.CreatedAt,
	})

	return bid, nil
}

// AcceptBid resolves a task's bidding round in favour of one bid. The
// open -> in_progress transition is conditioned on status inside the
// transaction, so of two concurrent acceptances exactly one commits; the
// loser sees a state error.
func (r *BidRegistry) AcceptBid(ctx context.Context, taskID, bidID, actingUserID string) (*models.Task, *models.Bid, error) {
	task, err := r.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, nil, apperrors.ErrTaskNotFound
	}
	if task.CreatedBy != actingUserID {
		return nil, nil, apperrors.NewState("only the task poster can accept a bid")
	}
	if task.Status != constants.StatusOpen {
		return nil, nil, apperrors.NewState("task is no longer open")
	}

	bid, err := r.bids.FindByID(ctx, bidID)
	if err != nil {
		return nil, nil, apperrors.ErrBidNotFound
	}
	if bid.TaskID != taskID {
		return nil, nil, apperrors.NewValidation("bid does not belong to this task")
	}

	// The conditional open -> in_progress update inside the transaction is
	// the authoritative winner election; everything before it is advisory.
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.tasks.WithTx(tx).AssignToHelper(ctx, taskID, bid.UserID, bid.Amount); err != nil {
			if errors.Is(err, repository.ErrStaleTransition) {
				return apperrors.NewState("task is no longer open")
			}
			return err
		}
		if err := r.bids.WithTx(tx).MarkAccepted(ctx, bid.ID); err != nil {
			if errors.Is(err, repository.ErrStaleTransition) {
				return apperrors.NewConflict("bid has already been resolved")
			}
			return err
		}
		if err := r.bids.WithTx(tx).RejectOthers(ctx, taskID, bid.ID); err != nil {
			return err
		}
		_, err := r.progress.WithTx(tx).Append(ctx, taskID, actingUserID, nil, nil, constants.UpdateBidAccepted)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	r.notifyBidders(ctx, task, bid.ID)

	updated, err := r.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}
	accepted, err := r.bids.FindByID(ctx, bid.ID)
	if err != nil {
		return nil, nil, err
	}

	return updated, accepted, nil
}

func (r *BidRegistry) notifyBidders(ctx context.Context, task *models.Task, winningBidID string) {
	bids, err := r.bids.ListByTask(ctx, task.ID)
	if err != nil {
		return
	}

	for _, b := range bids {
		notificationType := constants.NotifyBidRejected
		if b.ID == winningBidID {
			notificationType = constants.NotifyBidAccepted
		}
		fireAndForget(ctx, r.notifier, notificationType, b.UserID, map[string]string{
			"task_id":    task.ID,
			"task_title": task.Title,
			"bid_id":     b.ID,
		})
	}
}

// ListBids returns every bid on a task, oldest first.
func (r *BidRegistry) ListBids(ctx context.Context, taskID string) ([]models.Bid, error) {
	if _, err := r.tasks.FindByID(ctx, taskID); err != nil {
		return nil, apperrors.ErrTaskNotFound
	}
	return r.bids.ListByTask(ctx, taskID)
}

// CancelAssignment lets the assigned helper walk away: the task returns
// to the bidding pool and the accepted bid becomes rejected. Previously
// rejected bids stay rejected.
func (r *BidRegistry) CancelAssignment(ctx context.Context, taskID, actingUserID string) (*models.Task, error) {
	task, err := r.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, apperrors.ErrTaskNotFound
	}
	if task.Status != constants.StatusInProgress {
		return nil, apperrors.NewState("task is not in progress")
	}
	if task.AssignedTo == nil || *task.AssignedTo != actingUserID {
		return nil, apperrors.NewState("only the assigned helper can cancel the assignment")
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.tasks.WithTx(tx).ReleaseAssignment(ctx, taskID, actingUserID); err != nil {
			if errors.Is(err, repository.ErrStaleTransition) {
				return apperrors.NewState("task is not in progress")
			}
			return err
		}
		return r.bids.WithTx(tx).RevertAccepted(ctx, taskID)
	})
	if err != nil {
		return nil, err
	}

	fireAndForget(ctx, r.notifier, constants.NotifyTaskCancelled, task.CreatedBy, map[string]string{
		"task_id":    task.ID,
		"task_title": task.Title,
	})

	return r.tasks.FindByID(ctx, taskID)
}
