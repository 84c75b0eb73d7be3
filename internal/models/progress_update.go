package models

import (
	"time"

	"github.com/delloop-lab/taskorilla-sub000/internal/constants"
)

// ProgressUpdate is an append-only timeline entry. Rows are never updated
// or deleted once written.
type ProgressUpdate struct {
	ID         string               `gorm:"primaryKey;size:36" json:"id"`
	TaskID     string               `gorm:"size:36;not null;index" json:"task_id"`
	UserID     string               `gorm:"size:36;not null" json:"user_id"`
	Message    *string              `json:"message,omitempty"`
	ImageURL   *string              `json:"image_url,omitempty"`
	UpdateType constants.UpdateType `gorm:"type:varchar(30);not null" json:"update_type"`
	CreatedAt  time.Time            `json:"created_at"`
}
