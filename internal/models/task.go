package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/delloop-lab/taskorilla-sub000/internal/constants"
)

type Task struct {
	ID              string                  `gorm:"primaryKey;size:36" json:"id"`
	Title           string                  `gorm:"not null" json:"title"`
	Description     string                  `gorm:"not null" json:"description"`
	Status          constants.TaskStatus    `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedBy       string                  `gorm:"size:36;not null;index" json:"created_by"`
	AssignedTo      *string                 `gorm:"size:36;index" json:"assigned_to,omitempty"`
	Budget          *decimal.Decimal        `gorm:"type:numeric" json:"budget,omitempty"`
	PaymentStatus   constants.PaymentStatus `gorm:"type:varchar(20);not null;default:none" json:"payment_status"`
	PaymentIntentID *string                 `json:"payment_intent_id,omitempty"`
	PayoutStatus    constants.PayoutStatus  `gorm:"type:varchar(20);not null;default:none" json:"payout_status"`
	PayoutID        *string                 `json:"payout_id,omitempty"`
	Archived        bool                    `gorm:"not null;default:false" json:"archived"`
	HiddenByAdmin   bool                    `gorm:"not null;default:false" json:"hidden_by_admin"`
	Version         uint                    `gorm:"not null;default:1" json:"version"`
	CreatedAt       time.Time               `json:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at"`
}

// Assigned reports whether the task currently has a helper attached.
func (t *Task) Assigned() bool {
	return t.AssignedTo != nil && *t.AssignedTo != ""
}

// IsParty reports whether userID is the poster or the assigned helper.
func (t *Task) IsParty(userID string) bool {
	if t.CreatedBy == userID {
		return true
	}
	return t.AssignedTo != nil && *t.AssignedTo == userID
}
