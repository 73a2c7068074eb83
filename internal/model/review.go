package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AspectRatings are optional per-aspect scores, each 1-5 when present.
type AspectRatings struct {
	Punctuality     *int `json:"punctuality,omitempty"`
	Quality         *int `json:"quality,omitempty"`
	Communication   *int `json:"communication,omitempty"`
	Professionalism *int `json:"professionalism,omitempty"`
}

// Review is feedback left by one party of a completed task about the other.
// Reviews are immutable once created; there is no update or delete path.
type Review struct {
	ID             uuid.UUID     `json:"id" gorm:"type:char(36);primaryKey"`
	TaskID         uuid.UUID     `json:"task_id" gorm:"type:char(36);not null;uniqueIndex:idx_task_reviewer"`
	ReviewerID     uuid.UUID     `json:"reviewer_id" gorm:"type:char(36);not null;uniqueIndex:idx_task_reviewer"`
	ReviewedUserID uuid.UUID     `json:"reviewed_user_id" gorm:"type:char(36);not null;index"`
	Rating         int           `json:"rating" gorm:"not null;check:rating >= 1 AND rating <= 5"`
	Aspects        AspectRatings `json:"aspects" gorm:"serializer:json"`
	Comment        string        `json:"comment,omitempty" gorm:"size:1000"`
	CreatedAt      time.Time     `json:"created_at"`
}

// BeforeCreate sets UUID before creating the record.
func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
