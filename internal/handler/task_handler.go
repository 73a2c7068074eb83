package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"sahayak/internal/apperrors"
	"sahayak/internal/model"
	"sahayak/internal/repository"
	"sahayak/internal/service"
)

// TaskHandler handles task endpoints.
type TaskHandler struct {
	taskService service.TaskService
}

// NewTaskHandler creates a new task handler.
func NewTaskHandler(taskService service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// LocationPayload carries address fields and optional coordinates.
type LocationPayload struct {
	Address  string   `json:"address"`
	City     string   `json:"city"`
	District string   `json:"district"`
	State    string   `json:"state"`
	Pincode  string   `json:"pincode"`
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
}

func (p LocationPayload) toModel() model.Location {
	return model.Location{
		Address:  p.Address,
		City:     p.City,
		District: p.District,
		State:    p.State,
		Pincode:  p.Pincode,
		Lat:      p.Lat,
		Lng:      p.Lng,
	}
}

// BudgetPayload carries the offered budget; amount is a decimal string.
type BudgetPayload struct {
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
	Negotiable *bool  `json:"negotiable"`
}

func (p BudgetPayload) toModel() (model.Budget, error) {
	budget := model.Budget{Currency: p.Currency, Negotiable: true}
	if p.Negotiable != nil {
		budget.Negotiable = *p.Negotiable
	}
	if p.Amount != "" {
		amount, err := decimal.NewFromString(p.Amount)
		if err != nil {
			return model.Budget{}, err
		}
		budget.Amount = amount
	}
	return budget, nil
}

// CreateTaskRequest represents a task creation request.
type CreateTaskRequest struct {
	Title       string          `json:"title" validate:"required"`
	Description string          `json:"description" validate:"required"`
	Category    string          `json:"category" validate:"required"`
	Urgency     string          `json:"urgency" validate:"omitempty,oneof=low medium high urgent"`
	Location    LocationPayload `json:"location"`
	Budget      *BudgetPayload  `json:"budget"`
}

// UpdateTaskRequest represents a partial task update. Status and assignee are
// not accepted here; they change only through assign/start/complete.
type UpdateTaskRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Urgency     *string          `json:"urgency" validate:"omitempty,oneof=low medium high urgent"`
	Location    *LocationPayload `json:"location"`
	Budget      *BudgetPayload   `json:"budget"`
}

// AssignResponse is the assign result: the task plus its advisory match score.
type AssignResponse struct {
	Success    bool        `json:"success"`
	Data       *model.Task `json:"data"`
	MatchScore int         `json:"match_score"`
}

// CreateTask godoc
// @Summary Post a new task
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateTaskRequest true "Task data"
// @Success 201 {object} SuccessResponse
// @Failure 400 {object} apperrors.ErrorResponse
// @Failure 401 {object} apperrors.ErrorResponse
// @Router /tasks [post]
func (h *TaskHandler) CreateTask(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body", "INVALID_REQUEST")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error(), "VALIDATION_ERROR")
	}

	input := service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    model.TaskCategory(req.Category),
		Urgency:     model.Urgency(req.Urgency),
		Location:    req.Location.toModel(),
	}
	if req.Budget != nil {
		budget, err := req.Budget.toModel()
		if err != nil {
			return badRequest("invalid budget amount", "INVALID_AMOUNT")
		}
		input.Budget = budget
	}

	task, err := h.taskService.Create(c.Request().Context(), userID, input)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusCreated, task)
}

// GetTask godoc
// @Summary Get a task by id
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /tasks/{id} [get]
func (h *TaskHandler) GetTask(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest("invalid task id", "INVALID_UUID")
	}

	task, err := h.taskService.Get(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, task)
}

// ListTasks godoc
// @Summary List tasks filtered by status, category, urgency
// @Tags tasks
// @Produce json
// @Param status query string false "Lifecycle status"
// @Param category query string false "Category"
// @Param urgency query string false "Urgency"
// @Success 200 {object} SuccessResponse
// @Router /tasks [get]
func (h *TaskHandler) ListTasks(c echo.Context) error {
	filter := repository.TaskFilter{
		Status:   model.TaskStatus(c.QueryParam("status")),
		Category: model.TaskCategory(c.QueryParam("category")),
		Urgency:  model.Urgency(c.QueryParam("urgency")),
	}

	tasks, err := h.taskService.List(c.Request().Context(), filter)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, tasks)
}

// TasksByLocation godoc
// @Summary Find open tasks near a point, nearest first
// @Tags tasks
// @Produce json
// @Param lat query number true "Latitude"
// @Param lng query number true "Longitude"
// @Param radius query number false "Radius in kilometers (default 5)"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} apperrors.ErrorResponse
// @Router /tasks/location [get]
func (h *TaskHandler) TasksByLocation(c echo.Context) error {
	lat, err := parseCoordinate(c.QueryParam("lat"))
	if err != nil {
		return fail(c, err)
	}
	lng, err := parseCoordinate(c.QueryParam("lng"))
	if err != nil {
		return fail(c, err)
	}

	radius := 0.0
	if raw := c.QueryParam("radius"); raw != "" {
		radius, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return fail(c, fmt.Errorf("%w: radius must be numeric", apperrors.ErrInvalidArgument))
		}
	}

	tasks, err := h.taskService.FindNearby(c.Request().Context(), lat, lng, radius)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, tasks)
}

// UpdateTask godoc
// @Summary Update a task (poster only)
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Param request body UpdateTaskRequest true "Fields to update"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} apperrors.ErrorResponse
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /tasks/{id} [put]
func (h *TaskHandler) UpdateTask(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest("invalid task id", "INVALID_UUID")
	}

	var req UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body", "INVALID_REQUEST")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error(), "VALIDATION_ERROR")
	}

	patch := service.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Urgency != nil {
		urgency := model.Urgency(*req.Urgency)
		patch.Urgency = &urgency
	}
	if req.Location != nil {
		location := req.Location.toModel()
		patch.Location = &location
	}
	if req.Budget != nil {
		budget, err := req.Budget.toModel()
		if err != nil {
			return badRequest("invalid budget amount", "INVALID_AMOUNT")
		}
		patch.Budget = &budget
	}

	task, err := h.taskService.Update(c.Request().Context(), id, userID, patch)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, task)
}

// DeleteTask godoc
// @Summary Delete an open task (poster only)
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} apperrors.ErrorResponse
// @Failure 404 {object} apperrors.ErrorResponse
// @Failure 409 {object} apperrors.ErrorResponse
// @Router /tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest("invalid task id", "INVALID_UUID")
	}

	if err := h.taskService.Delete(c.Request().Context(), id, userID); err != nil {
		return fail(c, err)
	}
	return respondMessage(c, http.StatusOK, "task deleted successfully")
}

// AssignTask godoc
// @Summary Claim an open task as helper
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 200 {object} AssignResponse
// @Failure 404 {object} apperrors.ErrorResponse
// @Failure 409 {object} apperrors.ErrorResponse
// @Router /tasks/{id}/assign [post]
func (h *TaskHandler) AssignTask(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest("invalid task id", "INVALID_UUID")
	}

	task, matchScore, err := h.taskService.Assign(c.Request().Context(), id, userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, AssignResponse{
		Success:    true,
		Data:       task,
		MatchScore: matchScore,
	})
}

// StartTask godoc
// @Summary Mark an assigned task as in progress (assignee only)
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} apperrors.ErrorResponse
// @Failure 409 {object} apperrors.ErrorResponse
// @Router /tasks/{id}/start [post]
func (h *TaskHandler) StartTask(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest("invalid task id", "INVALID_UUID")
	}

	task, err := h.taskService.Start(c.Request().Context(), id, userID)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, task)
}

// CompleteTask godoc
// @Summary Mark a task completed (poster only)
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} apperrors.ErrorResponse
// @Failure 409 {object} apperrors.ErrorResponse
// @Router /tasks/{id}/complete [post]
func (h *TaskHandler) CompleteTask(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest("invalid task id", "INVALID_UUID")
	}

	task, err := h.taskService.Complete(c.Request().Context(), id, userID)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, task)
}

func parseCoordinate(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: coordinates must be numeric", apperrors.ErrInvalidArgument)
	}
	return &value, nil
}
