package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"sahayak/internal/apperrors"
	"sahayak/internal/model"
	"sahayak/internal/repository"
)

// CreateReviewInput is the validated input for leaving a review.
type CreateReviewInput struct {
	TaskID  uuid.UUID
	Rating  int
	Aspects model.AspectRatings
	Comment string
}

// ReviewService creates and lists reviews. Reviews open only once a task is
// completed, only for its two parties, at most once per reviewer, and are
// immutable afterwards.
type ReviewService interface {
	Create(ctx context.Context, reviewerID uuid.UUID, input CreateReviewInput) (*model.Review, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Review, error)
}

type reviewService struct {
	reviewRepo repository.ReviewRepository
	taskRepo   repository.TaskRepository
}

// NewReviewService creates a new review service.
func NewReviewService(reviewRepo repository.ReviewRepository, taskRepo repository.TaskRepository) ReviewService {
	return &reviewService{
		reviewRepo: reviewRepo,
		taskRepo:   taskRepo,
	}
}

func (s *reviewService) Create(ctx context.Context, reviewerID uuid.UUID, input CreateReviewInput) (*model.Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", apperrors.ErrInvalidArgument)
	}
	if err := validateAspects(input.Aspects); err != nil {
		return nil, err
	}

	task, err := s.taskRepo.FindByID(ctx, input.TaskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTaskNotFound
		}
		return nil, fmt.Errorf("load task: %w", err)
	}
	if task.Status != model.TaskStatusCompleted {
		return nil, apperrors.ErrInvalidState
	}
	if task.AssignedTo == nil {
		return nil, apperrors.ErrInvalidState
	}

	// Reviewer must be one party of the task; the reviewed user is the other.
	var reviewedUserID uuid.UUID
	switch {
	case reviewerID == task.PostedBy:
		reviewedUserID = *task.AssignedTo
	case reviewerID == *task.AssignedTo:
		reviewedUserID = task.PostedBy
	default:
		return nil, apperrors.ErrForbidden
	}

	exists, err := s.reviewRepo.ExistsForTaskAndReviewer(ctx, input.TaskID, reviewerID)
	if err != nil {
		return nil, fmt.Errorf("check existing review: %w", err)
	}
	if exists {
		return nil, apperrors.ErrReviewExists
	}

	review := &model.Review{
		TaskID:         input.TaskID,
		ReviewerID:     reviewerID,
		ReviewedUserID: reviewedUserID,
		Rating:         input.Rating,
		Aspects:        input.Aspects,
		Comment:        input.Comment,
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}
	return review, nil
}

func (s *reviewService) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Review, error) {
	return s.reviewRepo.ListByReviewedUser(ctx, userID)
}

func validateAspects(aspects model.AspectRatings) error {
	for _, value := range []*int{aspects.Punctuality, aspects.Quality, aspects.Communication, aspects.Professionalism} {
		if value != nil && (*value < 1 || *value > 5) {
			return fmt.Errorf("%w: aspect ratings must be between 1 and 5", apperrors.ErrInvalidArgument)
		}
	}
	return nil
}
