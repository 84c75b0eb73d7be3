package models

import "time"

type Review struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	TaskID     string    `gorm:"size:36;not null;uniqueIndex:idx_reviews_task_reviewer" json:"task_id"`
	ReviewerID string    `gorm:"size:36;not null;uniqueIndex:idx_reviews_task_reviewer" json:"reviewer_id"`
	RevieweeID string    `gorm:"size:36;not null;index" json:"reviewee_id"`
	Rating     int       `gorm:"not null" json:"rating"`
	Comment    *string   `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
