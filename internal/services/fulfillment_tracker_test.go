package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/delloop-lab/taskorilla-sub000/internal/constants"
	apperrors "github.com/delloop-lab/taskorilla-sub000/internal/errors"
	"github.com/delloop-lab/taskorilla-sub000/internal/models"
)

func strptr(s string) *string { return &s }

func TestPostUpdate_RequiresContent(t *testing.T) {
	env := newTestEnv(t)
	poster := env.createUser(t, "Paula", false, "")
	helper := env.createUser(t, "Hank", true, "")
	task := env.acceptedTask(t, poster.ID, helper.ID, 50)

	_, err := env.fulfillment.PostUpdate(context.Background(), task.ID, helper.ID, nil, nil)
	if apperrors.KindOf(err) != apperrors.KindValidation {
		t.Errorf("expected validation error, got %v", err)
	}

	if _, err := env.fulfillment.PostUpdate(context.Background(), task.ID, helper.ID, nil, strptr("https://img.test/1.jpg")); err != nil {
		t.Errorf("image-only update should be accepted: %v", err)
	}
}

func TestPostUpdate_OnlyPartiesInProgress(t *testing.T) {
	env := newTestEnv(t)
	poster := env.createUser(t, "Paula", false, "")
	helper := env.createUser(t, "Hank", true, "")
	stranger := env.createUser(t, "Sid", true, "")
	task := env.acceptedTask(t, poster.ID, helper.ID, 50)

	if _, err := env.fulfillment.PostUpdate(context.Background(), task.ID, stranger.ID, strptr("hello"), nil); apperrors.KindOf(err) != apperrors.KindState {
		t.Errorf("stranger posting: expected state error, got %v", err)
	}

	open := env.createOpenTask(t, poster.ID)
	if _, err := env.fulfillment.PostUpdate(context.Background(), open.ID, poster.ID, strptr("hello"), nil); apperrors.KindOf(err) != apperrors.KindState {
		t.Errorf("open task: expected state error, got %v", err)
	}
}

func TestPostUpdate_ThrottlesNotificationsNotPersistence(t *testing.T) {
	env := newTestEnv(t)
	poster := env.createUser(t, "Paula", false, "")
	helper := env.createUser(t, "Hank", true, "")
	task := env.acceptedTask(t, poster.ID, helper.ID, 50)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := env.fulfillment.PostUpdate(ctx, task.ID, helper.ID, strptr("still at it"), nil); err != nil {
			t.Fatalf("failed to post update %d: %v", i, err)
		}
	}

	if got := env.notifier.count(constants.NotifyTaskProgressUpdate); got != 1 {
		t.Errorf("expected 1 progress notification inside the window, got %d", got)
	}

	updates, _ := env.fulfillment.Timeline(ctx, task.ID)
	generic := 0
	for _, u := range updates {
		if u.UpdateType == constants.UpdateGeneric {
			generic++
		}
	}
	if generic != 3 {
		t.Errorf("expected all 3 updates persisted, got %d", generic)
	}
}

func TestRevisionCycle_OutstandingFlag(t *testing.T) {
	env := newTestEnv(t)
	poster := env.createUser(t, "Paula", false, "")
	helper := env.createUser(t, "Hank", true, "")
	task := env.acceptedTask(t, poster.ID, helper.ID, 50)

	ctx := context.Background()

	outstanding, err := env.fulfillment.HasOutstandingRevision(ctx, task.ID)
	if err != nil {
		t.Fatalf("failed to derive revision state: %v", err)
	}
	if outstanding {
		t.Error("fresh task should have no outstanding revision")
	}

	if _, err := env.fulfillment.RequestRevision(ctx, task.ID, poster.ID, strptr("the shelf leans left"), nil); err != nil {
		t.Fatalf("failed to request revision: %v", err)
	}
	if outstanding, _ = env.fulfillment.HasOutstandingRevision(ctx, task.ID); !outstanding {
		t.Error("expected an outstanding revision after the request")
	}
	if env.notifier.count(constants.NotifyRevisionRequested) != 1 {
		t.Error("expected the helper to be notified of the revision request")
	}

	if _, err := env.fulfillment.MarkRevisionComplete(ctx, task.ID, helper.ID, strptr("straightened"), nil); err != nil {
		t.Fatalf("failed to complete revision: %v", err)
	}
	if outstanding, _ = env.fulfillment.HasOutstandingRevision(ctx, task.ID); outstanding {
		t.Error("expected no outstanding revision after completion")
	}
	if env.notifier.count(constants.NotifyRevisionCompleted) != 1 {
		t.Error("expected the poster to be notified of the completion")
	}
}

func TestRevisionGuards(t *testing.T) {
	env := newTestEnv(t)
	poster := env.createUser(t, "Paula", false, "")
	helper := env.createUser(t, "Hank", true, "")
	task := env.acceptedTask(t, poster.ID, helper.ID, 50)

	ctx := context.Background()

	if _, err := env.fulfillment.RequestRevision(ctx, task.ID, helper.ID, strptr("redo"), nil); apperrors.KindOf(err) != apperrors.KindState {
		t.Errorf("helper requesting revision: expected state error, got %v", err)
	}
	if _, err := env.fulfillment.RequestRevision(ctx, task.ID, poster.ID, strptr("call 555 123 4567"), nil); apperrors.KindOf(err) != apperrors.KindValidation {
		t.Errorf("contact info in revision: expected validation error, got %v", err)
	}
	if _, err := env.fulfillment.MarkRevisionComplete(ctx, task.ID, poster.ID, strptr("done"), nil); apperrors.KindOf(err) != apperrors.KindState {
		t.Errorf("poster completing revision: expected state error, got %v", err)
	}
}

// Revision state is governed by timestamps, not by insertion order.
func TestHasOutstandingRevision_OutOfOrderInserts(t *testing.T) {
	env := newTestEnv(t)
	poster := env.createUser(t, "Paula", false, "")
	helper := env.createUser(t, "Hank", true, "")
	task := env.acceptedTask(t, poster.ID, helper.ID, 50)

	base := time.Now().UTC()

	// The completion row arrives first but carries the later timestamp.
	insertUpdateAt(t, env, task.ID, helper.ID, constants.UpdateRevisionCompleted, base.Add(2*time.Minute))
	insertUpdateAt(t, env, task.ID, poster.ID, constants.UpdateRevisionRequested, base.Add(1*time.Minute))

	outstanding, err := env.fulfillment.HasOutstandingRevision(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("failed to derive revision state: %v", err)
	}
	if outstanding {
		t.Error("completion timestamp is newest, no revision should be outstanding")
	}

	insertUpdateAt(t, env, task.ID, poster.ID, constants.UpdateRevisionRequested, base.Add(3*time.Minute))
	if outstanding, _ = env.fulfillment.HasOutstandingRevision(context.Background(), task.ID); !outstanding {
		t.Error("a newer request should make the revision outstanding again")
	}
}

func insertUpdateAt(t *testing.T, env *testEnv, taskID, userID string, updateType constants.UpdateType, at time.Time) {
	t.Helper()

	msg := "backfilled"
	row := models.ProgressUpdate{
		ID:         uuid.NewString(),
		TaskID:     taskID,
		UserID:     userID,
		Message:    &msg,
		UpdateType: updateType,
		CreatedAt:  at,
	}
	if err := env.db.Create(&row).Error; err != nil {
		t.Fatalf("failed to insert timeline row: %v", err)
	}
}

func TestMarkWorkComplete_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	poster := env.createUser(t, "Paula", false, "")
	helper := env.createUser(t, "Hank", true, "")
	task := env.acceptedTask(t, poster.ID, helper.ID, 50)

	ctx := context.Background()

	already, err := env.fulfillment.MarkWorkComplete(ctx, task.ID, helper.ID)
	if err != nil {
		t.Fatalf("failed to mark work complete: %v", err)
	}
	if already {
		t.Error("first signal should not report already signalled")
	}

	already, err = env.fulfillment.MarkWorkComplete(ctx, task.ID, helper.ID)
	if err != nil {
		t.Fatalf("repeat signal should not fail: %v", err)
	}
	if !already {
		t.Error("repeat signal should report already signalled")
	}

	updates, _ := env.fulfillment.Timeline(ctx, task.ID)
	workComplete := 0
	for _, u := range updates {
		if u.UpdateType == constants.UpdateWorkComplete {
			workComplete++
		}
	}
	if workComplete != 1 {
		t.Errorf("expected a single work_complete entry, got %d", workComplete)
	}

	if _, err := env.fulfillment.MarkWorkComplete(ctx, task.ID, poster.ID); apperrors.KindOf(err) != apperrors.KindState {
		t.Errorf("poster signalling work complete: expected state error, got %v", err)
	}
	if env.notifier.count(constants.NotifyHelperFinished) != 1 {
		t.Error("expected a single helper_finished notification")
	}
}
