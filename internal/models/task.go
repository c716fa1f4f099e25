package models

import (
	"time"

	"github.com/gofrs/uuid"
)

const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
)

const (
	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
)

type Task struct {
	ID          uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	ProjectID   uuid.UUID `json:"project_id" gorm:"type:uuid;not null"`
	Title       string    `json:"title" gorm:"not null"`
	Description string    `json:"description"`
	Status      string    `json:"status" gorm:"not null;default:'pending'"`
	Priority    string    `json:"priority" gorm:"not null;default:'medium'"`

	DueDate    *time.Time `json:"due_date"`
	AssignedTo *uuid.UUID `json:"assigned_to" gorm:"type:uuid"`
	CreatedBy  uuid.UUID  `json:"created_by" gorm:"type:uuid;not null"`

	// Comments are append-only; listing order is append order.
	Comments []Comment `json:"comments,omitempty" gorm:"foreignKey:TaskID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Comment struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	TaskID    uuid.UUID `json:"task_id" gorm:"type:uuid;not null"`
	AuthorID  uuid.UUID `json:"author_id" gorm:"type:uuid;not null"`
	Text      string    `json:"text" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}
