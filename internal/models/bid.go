package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/delloop-lab/taskorilla-sub000/internal/constants"
)

type Bid struct {
	ID        string              `gorm:"primaryKey;size:36" json:"id"`
	TaskID    string              `gorm:"size:36;not null;uniqueIndex:idx_bids_task_user" json:"task_id"`
	UserID    string              `gorm:"size:36;not null;uniqueIndex:idx_bids_task_user" json:"user_id"`
	Amount    decimal.Decimal     `gorm:"type:numeric;not null" json:"amount"`
	Message   string              `json:"message"`
	Status    constants.BidStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedAt time.Time           `json:"created_at"`
}
