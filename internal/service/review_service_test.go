package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"sahayak/internal/apperrors"
	"sahayak/internal/model"
)

func intPtr(v int) *int { return &v }

func TestReviewService_Create(t *testing.T) {
	taskID := uuid.New()
	posterID := uuid.New()
	helperID := uuid.New()
	strangerID := uuid.New()

	completedTask := func() *model.Task {
		return &model.Task{
			ID:         taskID,
			Status:     model.TaskStatusCompleted,
			PostedBy:   posterID,
			AssignedTo: &helperID,
		}
	}

	tests := []struct {
		name          string
		reviewerID    uuid.UUID
		input         CreateReviewInput
		setupMock     func(*MockReviewRepository, *MockTaskRepository)
		expectedError error
		expectedFor   uuid.UUID
	}{
		{
			name:       "poster reviews the helper",
			reviewerID: posterID,
			input:      CreateReviewInput{TaskID: taskID, Rating: 5, Comment: "Quick and tidy work"},
			setupMock: func(reviewRepo *MockReviewRepository, taskRepo *MockTaskRepository) {
				taskRepo.On("FindByID", mock.Anything, taskID).Return(completedTask(), nil)
				reviewRepo.On("ExistsForTaskAndReviewer", mock.Anything, taskID, posterID).Return(false, nil)
				reviewRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Review")).Return(nil)
			},
			expectedFor: helperID,
		},
		{
			name:       "helper reviews the poster",
			reviewerID: helperID,
			input:      CreateReviewInput{TaskID: taskID, Rating: 4},
			setupMock: func(reviewRepo *MockReviewRepository, taskRepo *MockTaskRepository) {
				taskRepo.On("FindByID", mock.Anything, taskID).Return(completedTask(), nil)
				reviewRepo.On("ExistsForTaskAndReviewer", mock.Anything, taskID, helperID).Return(false, nil)
				reviewRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Review")).Return(nil)
			},
			expectedFor: posterID,
		},
		{
			name:       "second review from the same party is rejected",
			reviewerID: posterID,
			input:      CreateReviewInput{TaskID: taskID, Rating: 3},
			setupMock: func(reviewRepo *MockReviewRepository, taskRepo *MockTaskRepository) {
				taskRepo.On("FindByID", mock.Anything, taskID).Return(completedTask(), nil)
				reviewRepo.On("ExistsForTaskAndReviewer", mock.Anything, taskID, posterID).Return(true, nil)
			},
			expectedError: apperrors.ErrReviewExists,
		},
		{
			name:       "outsider cannot review",
			reviewerID: strangerID,
			input:      CreateReviewInput{TaskID: taskID, Rating: 5},
			setupMock: func(reviewRepo *MockReviewRepository, taskRepo *MockTaskRepository) {
				taskRepo.On("FindByID", mock.Anything, taskID).Return(completedTask(), nil)
			},
			expectedError: apperrors.ErrForbidden,
		},
		{
			name:       "task not completed yet",
			reviewerID: posterID,
			input:      CreateReviewInput{TaskID: taskID, Rating: 5},
			setupMock: func(reviewRepo *MockReviewRepository, taskRepo *MockTaskRepository) {
				task := completedTask()
				task.Status = model.TaskStatusInProgress
				taskRepo.On("FindByID", mock.Anything, taskID).Return(task, nil)
			},
			expectedError: apperrors.ErrInvalidState,
		},
		{
			name:          "rating out of range",
			reviewerID:    posterID,
			input:         CreateReviewInput{TaskID: taskID, Rating: 6},
			setupMock:     func(*MockReviewRepository, *MockTaskRepository) {},
			expectedError: apperrors.ErrInvalidArgument,
		},
		{
			name:       "aspect rating out of range",
			reviewerID: posterID,
			input: CreateReviewInput{
				TaskID:  taskID,
				Rating:  4,
				Aspects: model.AspectRatings{Punctuality: intPtr(0)},
			},
			setupMock:     func(*MockReviewRepository, *MockTaskRepository) {},
			expectedError: apperrors.ErrInvalidArgument,
		},
		{
			name:       "task not found",
			reviewerID: posterID,
			input:      CreateReviewInput{TaskID: taskID, Rating: 5},
			setupMock: func(reviewRepo *MockReviewRepository, taskRepo *MockTaskRepository) {
				taskRepo.On("FindByID", mock.Anything, taskID).Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: apperrors.ErrTaskNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reviewRepo := new(MockReviewRepository)
			taskRepo := new(MockTaskRepository)
			tt.setupMock(reviewRepo, taskRepo)

			service := NewReviewService(reviewRepo, taskRepo)
			review, err := service.Create(context.Background(), tt.reviewerID, tt.input)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, review)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.reviewerID, review.ReviewerID)
				assert.Equal(t, tt.expectedFor, review.ReviewedUserID)
				assert.Equal(t, tt.input.Rating, review.Rating)
			}

			reviewRepo.AssertExpectations(t)
			taskRepo.AssertExpectations(t)
		})
	}
}

func TestReviewService_ListForUser(t *testing.T) {
	userID := uuid.New()
	reviewRepo := new(MockReviewRepository)
	reviewRepo.On("ListByReviewedUser", mock.Anything, userID).Return([]model.Review{
		{Rating: 5}, {Rating: 4},
	}, nil)

	service := NewReviewService(reviewRepo, new(MockTaskRepository))
	reviews, err := service.ListForUser(context.Background(), userID)

	assert.NoError(t, err)
	assert.Len(t, reviews, 2)
	reviewRepo.AssertExpectations(t)
}
