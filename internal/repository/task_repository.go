package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"sahayak/internal/model"
)

// TaskFilter narrows FindMany results. Empty fields match everything.
type TaskFilter struct {
	Status   model.TaskStatus
	Category model.TaskCategory
	Urgency  model.Urgency
}

// UserTaskScope selects which side of a task a user is on for FindByUser.
type UserTaskScope string

const (
	ScopePosted   UserTaskScope = "posted"
	ScopeAssigned UserTaskScope = "assigned"
	ScopeAll      UserTaskScope = "all"
)

// TaskRepository defines task persistence operations, including the guarded
// status update that backs the lifecycle's compare-and-set semantics.
type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	Save(ctx context.Context, task *model.Task) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Task, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Task, error)
	FindMany(ctx context.Context, filter TaskFilter) ([]model.Task, error)
	FindByUser(ctx context.Context, userID uuid.UUID, scope UserTaskScope) ([]model.Task, error)
	Delete(ctx context.Context, task *model.Task) error
	UpdateStatusCAS(ctx context.Context, id uuid.UUID, expected model.TaskStatus, updates map[string]interface{}) (bool, error)
	CountCompletedByAssignee(ctx context.Context, userID uuid.UUID) (int64, error)
	GeoNear(ctx context.Context, lat, lng, maxMeters float64) ([]model.Task, error)
}

type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository builds a GORM-backed task repository.
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Create(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *taskRepository) Save(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Save(task).Error
}

func (r *taskRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Task, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *taskRepository) FindMany(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	query := r.db.WithContext(ctx)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Urgency != "" {
		query = query.Where("urgency = ?", filter.Urgency)
	}

	var tasks []model.Task
	if err := query.Order("created_at DESC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *taskRepository) FindByUser(ctx context.Context, userID uuid.UUID, scope UserTaskScope) ([]model.Task, error) {
	query := r.db.WithContext(ctx)
	switch scope {
	case ScopePosted:
		query = query.Where("posted_by = ?", userID)
	case ScopeAssigned:
		query = query.Where("assigned_to = ?", userID)
	default:
		query = query.Where("posted_by = ? OR assigned_to = ?", userID, userID)
	}

	var tasks []model.Task
	if err := query.Order("created_at DESC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *taskRepository) Delete(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Delete(task).Error
}

// UpdateStatusCAS applies updates only if the persisted status still equals
// expected. Returns false when another writer got there first; the store's
// row-level guarantee makes at most one such transition commit.
func (r *taskRepository) UpdateStatusCAS(ctx context.Context, id uuid.UUID, expected model.TaskStatus, updates map[string]interface{}) (bool, error) {
	tx := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(updates)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}

func (r *taskRepository) CountCompletedByAssignee(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("assigned_to = ? AND status = ?", userID, model.TaskStatusCompleted).
		Count(&count).Error
	return count, err
}

const geoNearSQL = `
SELECT t.* FROM tasks t
WHERE t.deleted_at IS NULL
  AND t.status = 'open'
  AND t.location_lat IS NOT NULL
  AND t.location_lng IS NOT NULL
  AND ST_Distance_Sphere(POINT(t.location_lng, t.location_lat), POINT(?, ?)) <= ?
ORDER BY ST_Distance_Sphere(POINT(t.location_lng, t.location_lat), POINT(?, ?)) ASC`

// GeoNear answers the radius query directly in MySQL. It is the degraded path
// behind the Redis geo index; semantics match it: open tasks only, ascending
// distance, radius in meters.
func (r *taskRepository) GeoNear(ctx context.Context, lat, lng, maxMeters float64) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Raw(geoNearSQL, lng, lat, maxMeters, lng, lat).Scan(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}
