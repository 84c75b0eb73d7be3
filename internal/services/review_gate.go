package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/delloop-lab/taskorilla-sub000/internal/constants"
	apperrors "github.com/delloop-lab/taskorilla-sub000/internal/errors"
	"github.com/delloop-lab/taskorilla-sub000/internal/filter"
	"github.com/delloop-lab/taskorilla-sub000/internal/models"
	repository "github.com/delloop-lab/taskorilla-sub000/internal/repositories"
)

// ReviewGate enforces review ordering: the poster reviews first, then the
// helper may respond, one review per party per task.
type ReviewGate struct {
	tasks   *repository.TaskRepository
	reviews *repository.ReviewRepository
	filter  *filter.ContactFilter
}

func NewReviewGate(
	tasks *repository.TaskRepository,
	reviews *repository.ReviewRepository,
	contactFilter *filter.ContactFilter,
) *ReviewGate {
	return &ReviewGate{
		tasks:   tasks,
		reviews: reviews,
		filter:  contactFilter,
	}
}

func (g *ReviewGate) SubmitReview(ctx context.Context, taskID, reviewerID string, rating int, comment *string) (*models.Review, error) {
	task, err := g.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, apperrors.ErrTaskNotFound
	}
	if task.Status != constants.StatusCompleted {
		return nil, apperrors.NewState("reviews open once the task is completed")
	}
	if !task.Assigned() {
		return nil, apperrors.NewState("task has no assigned helper to review")
	}
	if !task.IsParty(reviewerID) {
		return nil, apperrors.NewState("only the poster or the helper can review this task")
	}

	if rating < 1 || rating > 5 {
		return nil, apperrors.NewValidation("rating must be between 1 and 5")
	}
	if comment != nil {
		if res := g.filter.CheckForContactInfo(*comment); !res.IsClean {
			return nil, apperrors.NewValidation(res.Message)
		}
	}

	revieweeID := counterparty(task, reviewerID)

	// Helpers wait for the poster's review before leaving their own.
	if reviewerID != task.CreatedBy {
		posterReviewed, err := g.reviews.Exists(ctx, taskID, task.CreatedBy)
		if err != nil {
			return nil, err
		}
		if !posterReviewed {
			return nil, apperrors.NewState("the poster has not reviewed this task yet")
		}
	}

	already, err := g.reviews.Exists(ctx, taskID, reviewerID)
	if err != nil {
		return nil, err
	}
	if already {
		return nil, apperrors.NewConflict("you have already reviewed this task")
	}

	review, err := g.reviews.Create(ctx, taskID, reviewerID, revieweeID, rating, comment)
	if err != nil {
		// The unique index is the authoritative guard under concurrent
		// submissions; losing that race is the same "already reviewed".
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.NewConflict("you have already reviewed this task")
		}
		return nil, err
	}

	return review, nil
}

func (g *ReviewGate) ListReviews(ctx context.Context, taskID string) ([]models.Review, error) {
	return g.reviews.ListByTask(ctx, taskID)
}
