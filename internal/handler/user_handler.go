package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"sahayak/internal/repository"
	"sahayak/internal/service"
)

// UserHandler handles profile and trust-score endpoints.
type UserHandler struct {
	userService   service.UserService
	taskService   service.TaskService
	reviewService service.ReviewService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(userService service.UserService, taskService service.TaskService, reviewService service.ReviewService) *UserHandler {
	return &UserHandler{
		userService:   userService,
		taskService:   taskService,
		reviewService: reviewService,
	}
}

// UpdateProfileRequest represents a partial profile update.
type UpdateProfileRequest struct {
	Name     *string          `json:"name"`
	Phone    *string          `json:"phone"`
	Bio      *string          `json:"bio" validate:"omitempty,max=500"`
	Skills   []string         `json:"skills"`
	Location *LocationPayload `json:"location"`
}

// TrustScoreResponse carries a freshly recomputed trust score.
type TrustScoreResponse struct {
	TrustScore int `json:"trust_score"`
}

// GetProfile godoc
// @Summary Get the authenticated user's profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /users/profile [get]
func (h *UserHandler) GetProfile(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	user, err := h.userService.Profile(c.Request().Context(), userID)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, user)
}

// UpdateProfile godoc
// @Summary Update the authenticated user's profile
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateProfileRequest true "Fields to update"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} apperrors.ErrorResponse
// @Router /users/profile [put]
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body", "INVALID_REQUEST")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error(), "VALIDATION_ERROR")
	}

	input := service.UpdateProfileInput{
		Name:   req.Name,
		Phone:  req.Phone,
		Bio:    req.Bio,
		Skills: req.Skills,
	}
	if req.Location != nil {
		location := req.Location.toModel()
		input.Location = &location
	}

	user, err := h.userService.UpdateProfile(c.Request().Context(), userID, input)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, user)
}

// GetMyTasks godoc
// @Summary List the authenticated user's tasks
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param type query string false "posted, assigned, or all (default all)"
// @Success 200 {object} SuccessResponse
// @Router /users/tasks [get]
func (h *UserHandler) GetMyTasks(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	scope := repository.UserTaskScope(c.QueryParam("type"))
	if scope != repository.ScopePosted && scope != repository.ScopeAssigned {
		scope = repository.ScopeAll
	}

	tasks, err := h.taskService.ListByUser(c.Request().Context(), userID, scope)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, tasks)
}

// GetMyReviews godoc
// @Summary List reviews received by the authenticated user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SuccessResponse
// @Router /users/reviews [get]
func (h *UserHandler) GetMyReviews(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	reviews, err := h.reviewService.ListForUser(c.Request().Context(), userID)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, reviews)
}

// GetUserReviews godoc
// @Summary List reviews received by a user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} SuccessResponse
// @Router /users/{id}/reviews [get]
func (h *UserHandler) GetUserReviews(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest("invalid user id", "INVALID_UUID")
	}

	reviews, err := h.reviewService.ListForUser(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, reviews)
}

// UpdateTrustScore godoc
// @Summary Recompute the authenticated user's trust score
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /users/trust-score [put]
func (h *UserHandler) UpdateTrustScore(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	score, err := h.userService.RecomputeTrustScore(c.Request().Context(), userID)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, TrustScoreResponse{TrustScore: score})
}
