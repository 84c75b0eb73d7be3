package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/delloop-lab/taskorilla-sub000/internal/models"
)

type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create persists a review. The (task_id, reviewer_id) unique index backs
// the one-review-per-pair rule; a violation surfaces as
// gorm.ErrDuplicatedKey.
func (r *ReviewRepository) Create(ctx context.Context, taskID, reviewerID, revieweeID string, rating int, comment *string) (*models.Review, error) {
	review := &models.Review{
		ID:         uuid.NewString(),
		TaskID:     taskID,
		ReviewerID: reviewerID,
		RevieweeID: revieweeID,
		Rating:     rating,
		Comment:    comment,
		CreatedAt:  time.Now().UTC(),
	}

	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		return nil, err
	}

	return review, nil
}

func (r *ReviewRepository) Exists(ctx context.Context, taskID, reviewerID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Where("task_id = ? AND reviewer_id = ?", taskID, reviewerID).
		Count(&count).Error
	return count > 0, err
}

func (r *ReviewRepository) ListByTask(ctx context.Context, taskID string) ([]models.Review, error) {
	var reviews []models.Review
	err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("created_at asc").
		Find(&reviews).Error
	return reviews, err
}
