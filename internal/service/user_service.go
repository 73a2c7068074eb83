package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"sahayak/internal/apperrors"
	"sahayak/internal/cache"
	"sahayak/internal/model"
	"sahayak/internal/repository"
	"sahayak/internal/trust"
)

const userCacheTTL = 5 * time.Minute

// UpdateProfileInput is a partial profile update; nil fields are untouched.
type UpdateProfileInput struct {
	Name     *string
	Phone    *string
	Bio      *string
	Skills   []string
	Location *model.Location
}

// UserService exposes profile and trust-score operations.
type UserService interface {
	Profile(ctx context.Context, id uuid.UUID) (*model.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, input UpdateProfileInput) (*model.User, error)
	RecomputeTrustScore(ctx context.Context, id uuid.UUID) (int, error)
}

type userService struct {
	userRepo   repository.UserRepository
	taskRepo   repository.TaskRepository
	reviewRepo repository.ReviewRepository
	cache      *cache.Client
}

// NewUserService builds a UserService.
func NewUserService(
	userRepo repository.UserRepository,
	taskRepo repository.TaskRepository,
	reviewRepo repository.ReviewRepository,
	cache *cache.Client,
) UserService {
	return &userService{
		userRepo:   userRepo,
		taskRepo:   taskRepo,
		reviewRepo: reviewRepo,
		cache:      cache,
	}
}

func (s *userService) cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("user:%s", id)
}

// Profile returns the user, read through the cache.
func (s *userService) Profile(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if data, _ := s.cache.Get(ctx, s.cacheKey(id)); data != nil {
		var cached model.User
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(user); err == nil {
		_ = s.cache.Set(ctx, s.cacheKey(id), payload, userCacheTTL)
	}
	return user, nil
}

// UpdateProfile merges the allowed profile fields. Trust score, verification
// status, and the completed counter are system-owned and not reachable here.
func (s *userService) UpdateProfile(ctx context.Context, id uuid.UUID, input UpdateProfileInput) (*model.User, error) {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}
	if input.Bio != nil {
		user.Bio = *input.Bio
	}
	if input.Skills != nil {
		user.Skills = input.Skills
	}
	if input.Location != nil {
		user.Location = *input.Location
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	_ = s.cache.Delete(ctx, s.cacheKey(id))
	return user, nil
}

// RecomputeTrustScore rebuilds the user's trust score from their history and
// overwrites the stored value, superseding the registration-time default.
// Triggered on demand only; no history of past scores is kept.
func (s *userService) RecomputeTrustScore(ctx context.Context, id uuid.UUID) (int, error) {
	if _, err := s.findUser(ctx, id); err != nil {
		return 0, err
	}

	completed, err := s.taskRepo.CountCompletedByAssignee(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("count completed tasks: %w", err)
	}

	reviews, err := s.reviewRepo.ListByReviewedUser(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("load reviews: %w", err)
	}
	ratings := make([]int, 0, len(reviews))
	for _, review := range reviews {
		ratings = append(ratings, review.Rating)
	}

	score := trust.Score(int(completed), ratings)
	if err := s.userRepo.UpdateTrustScore(ctx, id, score); err != nil {
		return 0, fmt.Errorf("store trust score: %w", err)
	}

	_ = s.cache.Delete(ctx, s.cacheKey(id))
	return score, nil
}

func (s *userService) findUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}
