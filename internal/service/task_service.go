package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"sahayak/internal/advisor"
	"sahayak/internal/apperrors"
	"sahayak/internal/cache"
	"sahayak/internal/geo"
	"sahayak/internal/model"
	"sahayak/internal/repository"
)

// DefaultSearchRadiusKM is used when a discovery query gives no radius.
const DefaultSearchRadiusKM = 5.0

const taskCacheTTL = 5 * time.Minute

// GeoIndex is the discovery index consumed by the task service.
// geo.Index satisfies it; tests substitute their own.
type GeoIndex interface {
	Add(ctx context.Context, id string, lat, lng float64) error
	Remove(ctx context.Context, id string) error
	SearchKM(ctx context.Context, lat, lng, radiusKM float64) ([]geo.Hit, error)
}

// CreateTaskInput is the validated input for posting a task.
type CreateTaskInput struct {
	Title       string
	Description string
	Category    model.TaskCategory
	Location    model.Location
	Urgency     model.Urgency
	Budget      model.Budget
}

// UpdateTaskInput is a partial update; nil fields are left untouched.
// Status and assignee are deliberately absent: those move only through
// Assign/Start/Complete.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Urgency     *model.Urgency
	Budget      *model.Budget
	Location    *model.Location
}

// TaskService owns the task lifecycle: creation, discovery, and every state
// transition, with the authorization rules of each operation.
type TaskService interface {
	Create(ctx context.Context, posterID uuid.UUID, input CreateTaskInput) (*model.Task, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Task, error)
	List(ctx context.Context, filter repository.TaskFilter) ([]model.Task, error)
	ListByUser(ctx context.Context, userID uuid.UUID, scope repository.UserTaskScope) ([]model.Task, error)
	Update(ctx context.Context, id, requesterID uuid.UUID, patch UpdateTaskInput) (*model.Task, error)
	Delete(ctx context.Context, id, requesterID uuid.UUID) error
	Assign(ctx context.Context, id, helperID uuid.UUID) (*model.Task, int, error)
	Start(ctx context.Context, id, requesterID uuid.UUID) (*model.Task, error)
	Complete(ctx context.Context, id, requesterID uuid.UUID) (*model.Task, error)
	FindNearby(ctx context.Context, lat, lng *float64, radiusKM float64) ([]model.Task, error)
}

type taskService struct {
	taskRepo repository.TaskRepository
	userRepo repository.UserRepository
	advisor  advisor.Advisor
	index    GeoIndex
	cache    *cache.Client
	// Mutex map for per-task serialization of mutating transitions
	taskMutexes sync.Map
}

// NewTaskService creates a new task service.
func NewTaskService(
	taskRepo repository.TaskRepository,
	userRepo repository.UserRepository,
	adv advisor.Advisor,
	index GeoIndex,
	cache *cache.Client,
) TaskService {
	return &taskService{
		taskRepo: taskRepo,
		userRepo: userRepo,
		advisor:  adv,
		index:    index,
		cache:    cache,
	}
}

// mutexFor returns a mutex for a specific task ID. Combined with the
// repository's guarded status update it ensures exactly one transition
// commits per task per logical instant.
func (s *taskService) mutexFor(taskID uuid.UUID) *sync.Mutex {
	value, _ := s.taskMutexes.LoadOrStore(taskID.String(), &sync.Mutex{})
	return value.(*sync.Mutex)
}

func (s *taskService) cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("task:%s", id)
}

// Create validates the posting, consults the advisor for categorization and
// a validity flag, and persists the task in state open. The advisor outcome
// only ever affects verification_status and suggestions, never status.
func (s *taskService) Create(ctx context.Context, posterID uuid.UUID, input CreateTaskInput) (*model.Task, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("%w: title is required", apperrors.ErrInvalidArgument)
	}
	if input.Description == "" {
		return nil, fmt.Errorf("%w: description is required", apperrors.ErrInvalidArgument)
	}
	if !model.ValidCategory(input.Category) {
		return nil, fmt.Errorf("%w: unknown category %q", apperrors.ErrInvalidArgument, input.Category)
	}
	if input.Location.City == "" && input.Location.Address == "" && !input.Location.HasCoordinates() {
		return nil, fmt.Errorf("%w: location is required", apperrors.ErrInvalidArgument)
	}

	verification := s.advisor.VerifyTask(ctx, advisor.TaskInput{
		Title:       input.Title,
		Description: input.Description,
		Category:    string(input.Category),
	})

	category := input.Category
	if suggested := model.TaskCategory(verification.SuggestedCategory); model.ValidCategory(suggested) {
		category = suggested
	}
	verificationStatus := model.TaskVerificationPending
	if verification.IsValid {
		verificationStatus = model.TaskVerificationVerified
	}

	urgency := input.Urgency
	if urgency == "" {
		urgency = model.UrgencyMedium
	}
	budget := input.Budget
	if budget.Currency == "" {
		budget.Currency = "INR"
	}

	task := &model.Task{
		Title:              input.Title,
		Description:        input.Description,
		Category:           category,
		Location:           input.Location,
		Urgency:            urgency,
		Budget:             budget,
		Status:             model.TaskStatusOpen,
		PostedBy:           posterID,
		VerificationStatus: verificationStatus,
		Suggestions:        verification.Suggestions,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	if task.Location.HasCoordinates() {
		if err := s.index.Add(ctx, task.ID.String(), *task.Location.Lat, *task.Location.Lng); err != nil {
			log.Printf("geo index add for task %s failed: %v", task.ID, err)
		}
	}

	return task, nil
}

// Get returns a task, read through the cache.
func (s *taskService) Get(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	if data, _ := s.cache.Get(ctx, s.cacheKey(id)); data != nil {
		var cached model.Task
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	task, err := s.findTask(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(task); err == nil {
		_ = s.cache.Set(ctx, s.cacheKey(id), payload, taskCacheTTL)
	}
	return task, nil
}

func (s *taskService) List(ctx context.Context, filter repository.TaskFilter) ([]model.Task, error) {
	return s.taskRepo.FindMany(ctx, filter)
}

func (s *taskService) ListByUser(ctx context.Context, userID uuid.UUID, scope repository.UserTaskScope) ([]model.Task, error) {
	return s.taskRepo.FindByUser(ctx, userID, scope)
}

// Update merges allowed fields into the task. Poster-only; status and
// assignee cannot be touched here.
func (s *taskService) Update(ctx context.Context, id, requesterID uuid.UUID, patch UpdateTaskInput) (*model.Task, error) {
	mutex := s.mutexFor(id)
	mutex.Lock()
	defer mutex.Unlock()

	task, err := s.findTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.PostedBy != requesterID {
		return nil, apperrors.ErrForbidden
	}

	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Urgency != nil {
		task.Urgency = *patch.Urgency
	}
	if patch.Budget != nil {
		task.Budget = *patch.Budget
	}
	locationChanged := false
	if patch.Location != nil {
		task.Location = *patch.Location
		locationChanged = true
	}

	if err := s.taskRepo.Save(ctx, task); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}

	if locationChanged && task.Status == model.TaskStatusOpen {
		if task.Location.HasCoordinates() {
			if err := s.index.Add(ctx, task.ID.String(), *task.Location.Lat, *task.Location.Lng); err != nil {
				log.Printf("geo index update for task %s failed: %v", task.ID, err)
			}
		} else if err := s.index.Remove(ctx, task.ID.String()); err != nil {
			log.Printf("geo index remove for task %s failed: %v", task.ID, err)
		}
	}

	_ = s.cache.Delete(ctx, s.cacheKey(id))
	return task, nil
}

// Delete removes a task. Poster-only, and only while the task is still open.
func (s *taskService) Delete(ctx context.Context, id, requesterID uuid.UUID) error {
	mutex := s.mutexFor(id)
	mutex.Lock()
	defer mutex.Unlock()

	task, err := s.findTask(ctx, id)
	if err != nil {
		return err
	}
	if task.PostedBy != requesterID {
		return apperrors.ErrForbidden
	}
	if task.Status != model.TaskStatusOpen {
		return apperrors.ErrInvalidState
	}

	if err := s.taskRepo.Delete(ctx, task); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	if err := s.index.Remove(ctx, task.ID.String()); err != nil {
		log.Printf("geo index remove for task %s failed: %v", task.ID, err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))
	return nil
}

// Assign claims an open task for a helper. This is the only path that sets
// the assignee. Any authenticated user may call it; the gate is solely
// status = open, enforced twice: an early check for a fast failure, then the
// compare-and-set write that decides a race.
func (s *taskService) Assign(ctx context.Context, id, helperID uuid.UUID) (*model.Task, int, error) {
	mutex := s.mutexFor(id)
	mutex.Lock()
	defer mutex.Unlock()

	task, err := s.findTask(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	if task.Status != model.TaskStatusOpen {
		return nil, 0, apperrors.ErrInvalidState
	}

	helper, err := s.userRepo.FindByID(ctx, helperID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, apperrors.ErrUserNotFound
		}
		return nil, 0, fmt.Errorf("load helper: %w", err)
	}

	matchScore := s.advisor.MatchHelper(ctx, advisor.MatchInput{
		Task: advisor.TaskInput{
			Title:       task.Title,
			Description: task.Description,
			Category:    string(task.Category),
		},
		Urgency: string(task.Urgency),
		Helper: advisor.HelperProfile{
			Name:           helper.Name,
			Skills:         helper.Skills,
			TrustScore:     helper.TrustScore,
			CompletedTasks: helper.CompletedTasks,
		},
	})

	committed, err := s.taskRepo.UpdateStatusCAS(ctx, id, model.TaskStatusOpen, map[string]interface{}{
		"status":      model.TaskStatusAssigned,
		"assigned_to": helperID,
		"match_score": matchScore,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("assign task: %w", err)
	}
	if !committed {
		return nil, 0, apperrors.ErrInvalidState
	}

	task.Status = model.TaskStatusAssigned
	task.AssignedTo = &helperID
	task.MatchScore = &matchScore

	if err := s.index.Remove(ctx, task.ID.String()); err != nil {
		log.Printf("geo index remove for task %s failed: %v", task.ID, err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))

	return task, matchScore, nil
}

// Start moves an assigned task to in_progress. Assignee-only.
func (s *taskService) Start(ctx context.Context, id, requesterID uuid.UUID) (*model.Task, error) {
	mutex := s.mutexFor(id)
	mutex.Lock()
	defer mutex.Unlock()

	task, err := s.findTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if !task.IsAssignee(requesterID) {
		return nil, apperrors.ErrForbidden
	}
	if task.Status != model.TaskStatusAssigned {
		return nil, apperrors.ErrInvalidState
	}

	committed, err := s.taskRepo.UpdateStatusCAS(ctx, id, model.TaskStatusAssigned, map[string]interface{}{
		"status": model.TaskStatusInProgress,
	})
	if err != nil {
		return nil, fmt.Errorf("start task: %w", err)
	}
	if !committed {
		return nil, apperrors.ErrInvalidState
	}

	task.Status = model.TaskStatusInProgress
	_ = s.cache.Delete(ctx, s.cacheKey(id))
	return task, nil
}

// Complete finishes a task. Poster-only, from assigned or in_progress.
func (s *taskService) Complete(ctx context.Context, id, requesterID uuid.UUID) (*model.Task, error) {
	mutex := s.mutexFor(id)
	mutex.Lock()
	defer mutex.Unlock()

	task, err := s.findTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.PostedBy != requesterID {
		return nil, apperrors.ErrForbidden
	}
	if task.Status != model.TaskStatusAssigned && task.Status != model.TaskStatusInProgress {
		return nil, apperrors.ErrInvalidState
	}

	now := time.Now()
	committed, err := s.taskRepo.UpdateStatusCAS(ctx, id, task.Status, map[string]interface{}{
		"status":       model.TaskStatusCompleted,
		"completed_at": now,
	})
	if err != nil {
		return nil, fmt.Errorf("complete task: %w", err)
	}
	if !committed {
		return nil, apperrors.ErrInvalidState
	}

	task.Status = model.TaskStatusCompleted
	task.CompletedAt = &now

	if task.AssignedTo != nil {
		if err := s.userRepo.IncrementCompletedTasks(ctx, *task.AssignedTo); err != nil {
			log.Printf("increment completed tasks for user %s failed: %v", *task.AssignedTo, err)
		}
		_ = s.cache.Delete(ctx, fmt.Sprintf("user:%s", *task.AssignedTo))
	}

	if err := s.index.Remove(ctx, task.ID.String()); err != nil {
		log.Printf("geo index remove for task %s failed: %v", task.ID, err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))

	return task, nil
}

// FindNearby returns open tasks within radiusKM of the point, nearest first.
// Radius defaults to DefaultSearchRadiusKM. When the geo index is
// unavailable the query falls back to the repository's spherical-distance
// scan with the same semantics.
func (s *taskService) FindNearby(ctx context.Context, lat, lng *float64, radiusKM float64) ([]model.Task, error) {
	if lat == nil || lng == nil {
		return nil, fmt.Errorf("%w: latitude and longitude are required", apperrors.ErrInvalidArgument)
	}
	if math.IsNaN(*lat) || math.IsNaN(*lng) {
		return nil, fmt.Errorf("%w: latitude and longitude must be numeric", apperrors.ErrInvalidArgument)
	}
	if radiusKM <= 0 {
		radiusKM = DefaultSearchRadiusKM
	}

	hits, err := s.index.SearchKM(ctx, *lat, *lng, radiusKM)
	if err != nil {
		log.Printf("geo index search failed, falling back to repository: %v", err)
		return s.taskRepo.GeoNear(ctx, *lat, *lng, radiusKM*1000)
	}

	ids := make([]uuid.UUID, 0, len(hits))
	for _, hit := range hits {
		id, err := uuid.Parse(hit.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}

	tasks, err := s.taskRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load nearby tasks: %w", err)
	}

	byID := make(map[uuid.UUID]model.Task, len(tasks))
	for _, task := range tasks {
		byID[task.ID] = task
	}

	// Preserve the index's distance ordering and drop entries the index has
	// not caught up on yet (deleted or no longer open), pruning them lazily.
	ordered := make([]model.Task, 0, len(ids))
	for _, id := range ids {
		task, ok := byID[id]
		if !ok || task.Status != model.TaskStatusOpen {
			_ = s.index.Remove(ctx, id.String())
			continue
		}
		ordered = append(ordered, task)
	}
	return ordered, nil
}

func (s *taskService) findTask(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTaskNotFound
		}
		return nil, fmt.Errorf("load task: %w", err)
	}
	return task, nil
}
