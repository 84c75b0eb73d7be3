package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/delloop-lab/taskorilla-sub000/internal/constants"
	"github.com/delloop-lab/taskorilla-sub000/internal/models"
)

type TaskRepository struct {
	db *gorm.DB
}

// ErrStaleTransition is returned when a conditional status update matched
// zero rows: another writer got there first, or the guard no longer holds.
var ErrStaleTransition = errors.New("task state changed concurrently")

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *TaskRepository) WithTx(tx *gorm.DB) *TaskRepository {
	return &TaskRepository{db: tx}
}

func (r *TaskRepository) Create(ctx context.Context, title, description, createdBy string) (*models.Task, error) {
	task := &models.Task{
		ID:            uuid.NewString(),
		Title:         title,
		Description:   description,
		Status:        constants.StatusOpen,
		CreatedBy:     createdBy,
		PaymentStatus: constants.PaymentNone,
		PayoutStatus:  constants.PayoutNone,
		Version:       1,
		CreatedAt:     time.Now().UTC(),
	}

	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return nil, err
	}

	return task, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	err := r.db.WithContext(ctx).First(&task, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) FindByPaymentIntent(ctx context.Context, intentID string) (*models.Task, error) {
	var task models.Task
	err := r.db.WithContext(ctx).First(&task, "payment_intent_id = ?", intentID).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// ListVisible returns non-archived, non-hidden tasks, newest first.
func (r *TaskRepository) ListVisible(ctx context.Context) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.WithContext(ctx).
		Where("archived = ? AND hidden_by_admin = ?", false, false).
		Order("created_at desc").
		Find(&tasks).Error
	return tasks, err
}

// ListPendingPayment feeds the periodic reconciliation sweep.
func (r *TaskRepository) ListPendingPayment(ctx context.Context, limit int) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.WithContext(ctx).
		Where("payment_status = ?", constants.PaymentPending).
		Order("updated_at asc").
		Limit(limit).
		Find(&tasks).Error
	return tasks, err
}

// AssignToHelper performs the open -> in_progress transition. The status
// predicate makes concurrent acceptance a race exactly one caller wins.
func (r *TaskRepository) AssignToHelper(ctx context.Context, taskID, helperID string, budget decimal.Decimal) error {
	res := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ? AND status = ?", taskID, constants.StatusOpen).
		Updates(map[string]interface{}{
			"status":      constants.StatusInProgress,
			"assigned_to": helperID,
			"budget":      budget,
			"version":     gorm.Expr("version + 1"),
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleTransition
	}
	return nil
}

// ReleaseAssignment reverts in_progress -> open for a helper cancellation.
func (r *TaskRepository) ReleaseAssignment(ctx context.Context, taskID, helperID string) error {
	res := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ? AND status = ? AND assigned_to = ?", taskID, constants.StatusInProgress, helperID).
		Updates(map[string]interface{}{
			"status":      constants.StatusOpen,
			"assigned_to": nil,
			"version":     gorm.Expr("version + 1"),
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleTransition
	}
	return nil
}

// Complete performs the terminal in_progress -> completed transition,
// guarded on payment having been captured.
func (r *TaskRepository) Complete(ctx context.Context, taskID string) error {
	res := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ? AND status = ? AND payment_status = ?",
			taskID, constants.StatusInProgress, constants.PaymentPaid).
		Updates(map[string]interface{}{
			"status":  constants.StatusCompleted,
			"version": gorm.Expr("version + 1"),
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleTransition
	}
	return nil
}

func (r *TaskRepository) SetPaymentPending(ctx context.Context, taskID, intentID string) error {
	res := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ? AND payment_status <> ?", taskID, constants.PaymentPaid).
		Updates(map[string]interface{}{
			"payment_status":    constants.PaymentPending,
			"payment_intent_id": intentID,
			"version":           gorm.Expr("version + 1"),
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleTransition
	}
	return nil
}

// MarkPaid records out-of-band payment confirmation for an intent.
func (r *TaskRepository) MarkPaid(ctx context.Context, intentID string) error {
	res := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("payment_intent_id = ? AND payment_status = ?", intentID, constants.PaymentPending).
		Updates(map[string]interface{}{
			"payment_status": constants.PaymentPaid,
			"version":        gorm.Expr("version + 1"),
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleTransition
	}
	return nil
}

func (r *TaskRepository) SetPayoutStatus(ctx context.Context, taskID string, status constants.PayoutStatus, payoutID *string) error {
	updates := map[string]interface{}{
		"payout_status": status,
		"version":       gorm.Expr("version + 1"),
	}
	if payoutID != nil {
		updates["payout_id"] = *payoutID
	}

	return r.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ?", taskID).
		Updates(updates).Error
}

func (r *TaskRepository) Archive(ctx context.Context, taskID string) error {
	return r.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ?", taskID).
		Updates(map[string]interface{}{
			"archived": true,
			"version":  gorm.Expr("version + 1"),
		}).Error
}

func (r *TaskRepository) SetHidden(ctx context.Context, taskID string, hidden bool) error {
	return r.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ?", taskID).
		Updates(map[string]interface{}{
			"hidden_by_admin": hidden,
			"version":         gorm.Expr("version + 1"),
		}).Error
}

// Delete hard-deletes an open task. Tasks with an assignee keep their
// history and can only be archived.
func (r *TaskRepository) Delete(ctx context.Context, taskID string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND status = ?", taskID, constants.StatusOpen).
		Delete(&models.Task{})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleTransition
	}
	return nil
}
