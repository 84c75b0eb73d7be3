package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/delloop-lab/taskorilla-sub000/internal/models"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, name string, isHelper bool, bankAccount, payoutEmail *string) (*models.User, error) {
	user := &models.User{
		ID:          uuid.NewString(),
		Name:        name,
		IsHelper:    isHelper,
		BankAccount: bankAccount,
		PayoutEmail: payoutEmail,
		CreatedAt:   time.Now().UTC(),
	}

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}

	return user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}
