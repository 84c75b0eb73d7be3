package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/delloop-lab/taskorilla-sub000/internal/constants"
	"github.com/delloop-lab/taskorilla-sub000/internal/models"
)

type BidRepository struct {
	db *gorm.DB
}

func NewBidRepository(db *gorm.DB) *BidRepository {
	return &BidRepository{db: db}
}

func (r *BidRepository) WithTx(tx *gorm.DB) *BidRepository {
	return &BidRepository{db: tx}
}

// Create persists a pending bid. The (task_id, user_id) unique index is
// the authoritative duplicate guard; a violation surfaces as
// gorm.ErrDuplicatedKey.
func (r *BidRepository) Create(ctx context.Context, taskID, userID string, amount decimal.Decimal, message string) (*models.Bid, error) {
	bid := &models.Bid{
		ID:        uuid.NewString(),
		TaskID:    taskID,
		UserID:    userID,
		Amount:    amount,
		Message:   message,
		Status:    constants.BidPending,
		CreatedAt: time.Now().UTC(),
	}

	if err := r.db.WithContext(ctx).Create(bid).Error; err != nil {
		return nil, err
	}

	return bid, nil
}

func (r *BidRepository) FindByID(ctx context.Context, id string) (*models.Bid, error) {
	var bid models.Bid
	err := r.db.WithContext(ctx).First(&bid, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

func (r *BidRepository) ListByTask(ctx context.Context, taskID string) ([]models.Bid, error) {
	var bids []models.Bid
	err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("created_at asc").
		Find(&bids).Error
	return bids, err
}

func (r *BidRepository) ExistsForUser(ctx context.Context, taskID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Bid{}).
		Where("task_id = ? AND user_id = ?", taskID, userID).
		Count(&count).Error
	return count > 0, err
}

// MarkAccepted flips one pending bid to accepted.
func (r *BidRepository) MarkAccepted(ctx context.Context, bidID string) error {
	res := r.db.WithContext(ctx).Model(&models.Bid{}).
		Where("id = ? AND status = ?", bidID, constants.BidPending).
		Update("status", constants.BidAccepted)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleTransition
	}
	return nil
}

// RejectOthers rejects every pending bid on the task except the winner, so
// no bid stays pending once the task leaves open.
func (r *BidRepository) RejectOthers(ctx context.Context, taskID, winningBidID string) error {
	return r.db.WithContext(ctx).Model(&models.Bid{}).
		Where("task_id = ? AND id <> ? AND status = ?", taskID, winningBidID, constants.BidPending).
		Update("status", constants.BidRejected).Error
}

// RevertAccepted demotes the accepted bid to rejected after a helper
// cancels; the bid does not return to the pending pool.
func (r *BidRepository) RevertAccepted(ctx context.Context, taskID string) error {
	return r.db.WithContext(ctx).Model(&models.Bid{}).
		Where("task_id = ? AND status = ?", taskID, constants.BidAccepted).
		Update("status", constants.BidRejected).Error
}

func (r *BidRepository) FindAccepted(ctx context.Context, taskID string) (*models.Bid, error) {
	var bid models.Bid
	err := r.db.WithContext(ctx).
		First(&bid, "task_id = ? AND status = ?", taskID, constants.BidAccepted).Error
	if err != nil {
		return nil, err
	}
	return &bid, nil
}
