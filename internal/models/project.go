package models

import (
	"time"

	"github.com/gofrs/uuid"
)

const (
	ProjectStatusActive    = "active"
	ProjectStatusCompleted = "completed"
	ProjectStatusArchived  = "archived"
)

// AccessLevel is the authorization tier a user holds on a project.
// Ownership implies membership for read/write purposes; management
// rights (update, delete, membership changes, task deletion) require
// AccessOwner.
type AccessLevel int

const (
	AccessNone AccessLevel = iota
	AccessMember
	AccessOwner
)

type Project struct {
	ID          uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Name        string    `json:"name" gorm:"not null"`
	Description string    `json:"description"`
	OwnerID     uuid.UUID `json:"owner_id" gorm:"type:uuid;not null"`
	Status      string    `json:"status" gorm:"not null;default:'active'"`

	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`

	Members []ProjectMember `json:"members,omitempty" gorm:"foreignKey:ProjectID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ProjectMember struct {
	ProjectID uuid.UUID `json:"project_id" gorm:"primaryKey;type:uuid"`
	UserID    uuid.UUID `json:"user_id" gorm:"primaryKey;type:uuid"`
	CreatedAt time.Time `json:"created_at"`
}

func (ProjectMember) TableName() string { return "project_members" }

func (p *Project) AccessFor(userID uuid.UUID) AccessLevel {
	if p.OwnerID == userID {
		return AccessOwner
	}
	for _, m := range p.Members {
		if m.UserID == userID {
			return AccessMember
		}
	}
	return AccessNone
}

// CanAccess reports whether userID may read the project and its tasks.
func (p *Project) CanAccess(userID uuid.UUID) bool {
	return p.AccessFor(userID) >= AccessMember
}

// CanManage reports whether userID may mutate the project itself,
// change its membership, or delete its tasks.
func (p *Project) CanManage(userID uuid.UUID) bool {
	return p.AccessFor(userID) == AccessOwner
}

func (p *Project) HasMember(userID uuid.UUID) bool {
	for _, m := range p.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}
