package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/delloop-lab/taskorilla-sub000/internal/constants"
	"github.com/delloop-lab/taskorilla-sub000/internal/models"
)

// ProgressRepository is append-only: entries are written once and never
// updated or deleted.
type ProgressRepository struct {
	db *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

func (r *ProgressRepository) WithTx(tx *gorm.DB) *ProgressRepository {
	return &ProgressRepository{db: tx}
}

func (r *ProgressRepository) Append(ctx context.Context, taskID, userID string, message, imageURL *string, updateType constants.UpdateType) (*models.ProgressUpdate, error) {
	update := &models.ProgressUpdate{
		ID:         uuid.NewString(),
		TaskID:     taskID,
		UserID:     userID,
		Message:    message,
		ImageURL:   imageURL,
		UpdateType: updateType,
		CreatedAt:  time.Now().UTC(),
	}

	if err := r.db.WithContext(ctx).Create(update).Error; err != nil {
		return nil, err
	}

	return update, nil
}

func (r *ProgressRepository) ListByTask(ctx context.Context, taskID string) ([]models.ProgressUpdate, error) {
	var updates []models.ProgressUpdate
	err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("created_at asc").
		Find(&updates).Error
	return updates, err
}

// LatestOfType returns the newest timestamp of the given entry type, or
// the zero time when none exists.
func (r *ProgressRepository) LatestOfType(ctx context.Context, taskID string, updateType constants.UpdateType) (time.Time, error) {
	var update models.ProgressUpdate
	err := r.db.WithContext(ctx).
		Where("task_id = ? AND update_type = ?", taskID, updateType).
		Order("created_at desc").
		First(&update).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	return update.CreatedAt, nil
}

// HasWorkCompleteBy reports whether the helper already signalled finished
// work on this task.
func (r *ProgressRepository) HasWorkCompleteBy(ctx context.Context, taskID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ProgressUpdate{}).
		Where("task_id = ? AND user_id = ? AND update_type = ?", taskID, userID, constants.UpdateWorkComplete).
		Count(&count).Error
	return count > 0, err
}
