package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskStatusOpen       TaskStatus = "open"
	TaskStatusAssigned   TaskStatus = "assigned"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// taskTransitions is the full state machine. completed and cancelled are terminal.
var taskTransitions = map[TaskStatus][]TaskStatus{
	TaskStatusOpen:       {TaskStatusAssigned, TaskStatusCancelled},
	TaskStatusAssigned:   {TaskStatusInProgress, TaskStatusCompleted, TaskStatusCancelled},
	TaskStatusInProgress: {TaskStatusCompleted, TaskStatusCancelled},
}

// CanTransition reports whether moving from s to next is a legal lifecycle step.
func (s TaskStatus) CanTransition(next TaskStatus) bool {
	for _, allowed := range taskTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func (s TaskStatus) Terminal() bool {
	return len(taskTransitions[s]) == 0
}

// TaskCategory is the closed set of task categories.
type TaskCategory string

const (
	CategoryHomeMaintenance TaskCategory = "home_maintenance"
	CategoryHealthcare      TaskCategory = "healthcare"
	CategoryDelivery        TaskCategory = "delivery"
	CategoryCaregiving      TaskCategory = "caregiving"
	CategoryTechSupport     TaskCategory = "tech_support"
	CategoryOther           TaskCategory = "other"
)

// ValidCategory reports whether c is one of the known categories.
func ValidCategory(c TaskCategory) bool {
	switch c {
	case CategoryHomeMaintenance, CategoryHealthcare, CategoryDelivery,
		CategoryCaregiving, CategoryTechSupport, CategoryOther:
		return true
	}
	return false
}

// Urgency is how soon a task needs doing.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
	UrgencyUrgent Urgency = "urgent"
)

// TaskVerificationStatus is the advisory verification flag on a task,
// distinct from the lifecycle status.
type TaskVerificationStatus string

const (
	TaskVerificationPending  TaskVerificationStatus = "pending"
	TaskVerificationVerified TaskVerificationStatus = "verified"
	TaskVerificationFlagged  TaskVerificationStatus = "flagged"
)

// Budget is what the poster offers for the task.
type Budget struct {
	Amount     decimal.Decimal `json:"amount" gorm:"type:decimal(20,2)"`
	Currency   string          `json:"currency" gorm:"size:8;default:'INR'"`
	Negotiable bool            `json:"negotiable" gorm:"default:true"`
}

// Task represents a posted micro-task moving through its lifecycle.
type Task struct {
	ID                 uuid.UUID              `json:"id" gorm:"type:char(36);primaryKey"`
	Title              string                 `json:"title" gorm:"size:255;not null"`
	Description        string                 `json:"description" gorm:"type:text;not null"`
	Category           TaskCategory           `json:"category" gorm:"type:varchar(32);not null;index"`
	Location           Location               `json:"location" gorm:"embedded;embeddedPrefix:location_"`
	Urgency            Urgency                `json:"urgency" gorm:"type:varchar(16);not null;default:'medium'"`
	Budget             Budget                 `json:"budget" gorm:"embedded;embeddedPrefix:budget_"`
	Status             TaskStatus             `json:"status" gorm:"type:varchar(20);not null;default:'open';index"`
	PostedBy           uuid.UUID              `json:"posted_by" gorm:"type:char(36);not null;index"`
	AssignedTo         *uuid.UUID             `json:"assigned_to,omitempty" gorm:"type:char(36);index"`
	VerificationStatus TaskVerificationStatus `json:"verification_status" gorm:"type:varchar(16);not null;default:'pending'"`
	Suggestions        []string               `json:"suggestions,omitempty" gorm:"serializer:json"`
	MatchScore         *int                   `json:"match_score,omitempty"`
	CompletedAt        *time.Time             `json:"completed_at,omitempty"`
	CreatedAt          time.Time              `json:"created_at"`
	UpdatedAt          time.Time              `json:"updated_at"`
	DeletedAt          gorm.DeletedAt         `json:"-" gorm:"index"`
}

// BeforeCreate sets UUID before creating the record.
func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// IsAssignee reports whether userID is the task's current assignee.
func (t *Task) IsAssignee(userID uuid.UUID) bool {
	return t.AssignedTo != nil && *t.AssignedTo == userID
}
