package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"sahayak/internal/model"
	"sahayak/internal/service"
)

// ReviewHandler handles review endpoints.
type ReviewHandler struct {
	reviewService service.ReviewService
}

// NewReviewHandler creates a new review handler.
func NewReviewHandler(reviewService service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

// CreateReviewRequest represents a review creation request.
type CreateReviewRequest struct {
	TaskID  string `json:"task_id" validate:"required,uuid"`
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"omitempty,max=1000"`
	Aspects struct {
		Punctuality     *int `json:"punctuality" validate:"omitempty,min=1,max=5"`
		Quality         *int `json:"quality" validate:"omitempty,min=1,max=5"`
		Communication   *int `json:"communication" validate:"omitempty,min=1,max=5"`
		Professionalism *int `json:"professionalism" validate:"omitempty,min=1,max=5"`
	} `json:"aspects"`
}

// CreateReview godoc
// @Summary Review the other party of a completed task
// @Tags reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateReviewRequest true "Review data"
// @Success 201 {object} SuccessResponse
// @Failure 400 {object} apperrors.ErrorResponse
// @Failure 403 {object} apperrors.ErrorResponse
// @Failure 409 {object} apperrors.ErrorResponse
// @Router /reviews [post]
func (h *ReviewHandler) CreateReview(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req CreateReviewRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body", "INVALID_REQUEST")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error(), "VALIDATION_ERROR")
	}

	taskID, err := uuid.Parse(req.TaskID)
	if err != nil {
		return badRequest("invalid task_id", "INVALID_UUID")
	}

	review, err := h.reviewService.Create(c.Request().Context(), userID, service.CreateReviewInput{
		TaskID: taskID,
		Rating: req.Rating,
		Aspects: model.AspectRatings{
			Punctuality:     req.Aspects.Punctuality,
			Quality:         req.Aspects.Quality,
			Communication:   req.Aspects.Communication,
			Professionalism: req.Aspects.Professionalism,
		},
		Comment: req.Comment,
	})
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusCreated, review)
}
