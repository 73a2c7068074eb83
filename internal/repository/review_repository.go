package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"sahayak/internal/model"
)

// ReviewRepository defines review persistence operations. Reviews are
// immutable: there is deliberately no update or delete.
type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	ListByReviewedUser(ctx context.Context, userID uuid.UUID) ([]model.Review, error)
	ExistsForTaskAndReviewer(ctx context.Context, taskID, reviewerID uuid.UUID) (bool, error)
}

type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository builds a GORM-backed review repository.
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, review *model.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *reviewRepository) ListByReviewedUser(ctx context.Context, userID uuid.UUID) ([]model.Review, error) {
	var reviews []model.Review
	err := r.db.WithContext(ctx).
		Where("reviewed_user_id = ?", userID).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *reviewRepository) ExistsForTaskAndReviewer(ctx context.Context, taskID, reviewerID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Review{}).
		Where("task_id = ? AND reviewer_id = ?", taskID, reviewerID).
		Count(&count).Error
	return count > 0, err
}
