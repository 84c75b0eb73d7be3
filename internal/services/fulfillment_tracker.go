package services

import (
	"context"

	"github.com/delloop-lab/taskorilla-sub000/internal/constants"
	apperrors "github.com/delloop-lab/taskorilla-sub000/internal/errors"
	"github.com/delloop-lab/taskorilla-sub000/internal/filter"
	"github.com/delloop-lab/taskorilla-sub000/internal/models"
	"github.com/delloop-lab/taskorilla-sub000/internal/notify"
	repository "github.com/delloop-lab/taskorilla-sub000/internal/repositories"
)

// FulfillmentTracker maintains the append-only progress timeline of an
// in-progress task and derives revision state from it.
type FulfillmentTracker struct {
	tasks    *repository.TaskRepository
	progress *repository.ProgressRepository
	filter   *filter.ContactFilter
	notifier notify.Notifier
	throttle *notify.Throttle
}

func NewFulfillmentTracker(
	tasks *repository.TaskRepository,
	progress *repository.ProgressRepository,
	contactFilter *filter.ContactFilter,
	notifier notify.Notifier,
	throttle *notify.Throttle,
) *FulfillmentTracker {
	return &FulfillmentTracker{
		tasks:    tasks,
		progress: progress,
		filter:   contactFilter,
		notifier: notifier,
		throttle: throttle,
	}
}

func (t *FulfillmentTracker) loadInProgress(ctx context.Context, taskID string) (*models.Task, error) {
	task, err := t.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, apperrors.ErrTaskNotFound
	}
	if task.Status != constants.StatusInProgress {
		return nil, apperrors.NewState("task is not in progress")
	}
	return task, nil
}

func (t *FulfillmentTracker) validateContent(message, imageURL *string) error {
	if (message == nil || *message == "") && (imageURL == nil || *imageURL == "") {
		return apperrors.NewValidation("a message or an image is required")
	}
	if message != nil {
		if res := t.filter.CheckForContactInfo(*message); !res.IsClean {
			return apperrors.NewValidation(res.Message)
		}
	}
	return nil
}

// counterparty returns the other side of the task for the given author.
func counterparty(task *models.Task, authorID string) string {
	if task.CreatedBy == authorID && task.AssignedTo != nil {
		return *task.AssignedTo
	}
	return task.CreatedBy
}

// PostUpdate appends a generic timeline entry from either party. Outbound
// progress notifications are throttled per author per task; the entry
// itself is always persisted.
func (t *FulfillmentTracker) PostUpdate(ctx context.Context, taskID, authorID string, message, imageURL *string) (*models.ProgressUpdate, error) {
	task, err := t.loadInProgress(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !task.IsParty(authorID) {
		return nil, apperrors.NewState("only the poster or the assigned helper can post updates")
	}
	if err := t.validateContent(message, imageURL); err != nil {
		return nil, err
	}

	update, err := t.progress.Append(ctx, taskID, authorID, message, imageURL, constants.UpdateGeneric)
	if err != nil {
		return nil, err
	}

	if t.throttle == nil || t.throttle.Allow(authorID+":"+taskID) {
		fireAndForget(ctx, t.notifier, constants.NotifyTaskProgressUpdate, counterparty(task, authorID), map[string]string{
			"task_id":    task.ID,
			"task_title": task.Title,
		})
	}

	return update, nil
}

func (t *FulfillmentTracker) RequestRevision(ctx context.Context, taskID, posterID string, message, imageURL *string) (*models.ProgressUpdate, error) {
	task, err := t.loadInProgress(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.CreatedBy != posterID {
		return nil, apperrors.NewState("only the task poster can request a revision")
	}
	if err := t.validateContent(message, imageURL); err != nil {
		return nil, err
	}

	update, err := t.progress.Append(ctx, taskID, posterID, message, imageURL, constants.UpdateRevisionRequested)
	if err != nil {
		return nil, err
	}

	if task.AssignedTo != nil {
		fireAndForget(ctx, t.notifier, constants.NotifyRevisionRequested, *task.AssignedTo, map[string]string{
			"task_id":    task.ID,
			"task_title": task.Title,
		})
	}

	return update, nil
}

func (t *FulfillmentTracker) MarkRevisionComplete(ctx context.Context, taskID, helperID string, message, imageURL *string) (*models.ProgressUpdate, error) {
	task, err := t.loadInProgress(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.AssignedTo == nil || *task.AssignedTo != helperID {
		return nil, apperrors.NewState("only the assigned helper can complete a revision")
	}
	if message != nil {
		if res := t.filter.CheckForContactInfo(*message); !res.IsClean {
			return nil, apperrors.NewValidation(res.Message)
		}
	}

	update, err := t.progress.Append(ctx, taskID, helperID, message, imageURL, constants.UpdateRevisionCompleted)
	if err != nil {
		return nil, err
	}

	fireAndForget(ctx, t.notifier, constants.NotifyRevisionCompleted, task.CreatedBy, map[string]string{
		"task_id":    task.ID,
		"task_title": task.Title,
	})

	return update, nil
}

// MarkWorkComplete records the helper's finished-work signal. Calling it
// again after the signal exists is not an error and adds no second entry.
func (t *FulfillmentTracker) MarkWorkComplete(ctx context.Context, taskID, helperID string) (alreadySignalled bool, err error) {
	task, err := t.loadInProgress(ctx, taskID)
	if err != nil {
		return false, err
	}
	if task.AssignedTo == nil || *task.AssignedTo != helperID {
		return false, apperrors.NewState("only the assigned helper can mark work complete")
	}

	exists, err := t.progress.HasWorkCompleteBy(ctx, taskID, helperID)
	if err != nil {
		return false, err
	}
	if exists {
		return true, nil
	}

	note := "Work marked as complete, ready for review."
	if _, err := t.progress.Append(ctx, taskID, helperID, &note, nil, constants.UpdateWorkComplete); err != nil {
		return false, err
	}

	fireAndForget(ctx, t.notifier, constants.NotifyHelperFinished, task.CreatedBy, map[string]string{
		"task_id":    task.ID,
		"task_title": task.Title,
	})

	return false, nil
}

// HasOutstandingRevision derives revision state from entry timestamps:
// true iff the newest revision request is more recent than the newest
// revision completion. Insertion order is irrelevant.
func (t *FulfillmentTracker) HasOutstandingRevision(ctx context.Context, taskID string) (bool, error) {
	requested, err := t.progress.LatestOfType(ctx, taskID, constants.UpdateRevisionRequested)
	if err != nil {
		return false, err
	}
	completed, err := t.progress.LatestOfType(ctx, taskID, constants.UpdateRevisionCompleted)
	if err != nil {
		return false, err
	}
	return requested.After(completed), nil
}

// Timeline returns the task's full progress log, oldest first.
func (t *FulfillmentTracker) Timeline(ctx context.Context, taskID string) ([]models.ProgressUpdate, error) {
	return t.progress.ListByTask(ctx, taskID)
}
