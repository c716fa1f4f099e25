package services

import (
	"errors"
	"time"

	"taskboard/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type ProjectCreateRequest struct {
	Name        string      `json:"name" binding:"required"`
	Description string      `json:"description"`
	StartDate   *time.Time  `json:"start_date"`
	EndDate     *time.Time  `json:"end_date"`
	Members     []uuid.UUID `json:"members"`
}

// ProjectUpdateRequest is a merge patch. A nil Members slice leaves the
// member set untouched; a non-nil slice replaces it entirely.
type ProjectUpdateRequest struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Status      string       `json:"status"`
	StartDate   *time.Time   `json:"start_date"`
	EndDate     *time.Time   `json:"end_date"`
	Members     *[]uuid.UUID `json:"members"`
}

// ProjectService owns projects and the owner/member authorization
// rule. Task operations delegate their access checks to the levels it
// computes.
type ProjectService interface {
	CreateProject(db *gorm.DB, ownerID uuid.UUID, req ProjectCreateRequest) (*models.Project, error)
	GetProjects(db *gorm.DB, userID uuid.UUID) ([]models.Project, error)
	GetProject(db *gorm.DB, projectID, requesterID uuid.UUID) (*models.Project, error)
	UpdateProject(db *gorm.DB, projectID, requesterID uuid.UUID, req ProjectUpdateRequest) (*models.Project, error)
	DeleteProject(db *gorm.DB, projectID, requesterID uuid.UUID) error
	AddMember(db *gorm.DB, projectID, requesterID, userID uuid.UUID) (*models.Project, error)
	RemoveMember(db *gorm.DB, projectID, requesterID, userID uuid.UUID) (*models.Project, error)
}

type ProjectServiceImpl struct{}

func NewProjectService() *ProjectServiceImpl {
	return &ProjectServiceImpl{}
}

// loadProject resolves the existence check that every project
// operation performs before any authorization decision.
func loadProject(db *gorm.DB, projectID uuid.UUID) (*models.Project, error) {
	var project models.Project
	err := db.Preload("Members").First(&project, "id = ?", projectID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &project, nil
}

func (s *ProjectServiceImpl) CreateProject(db *gorm.DB, ownerID uuid.UUID, req ProjectCreateRequest) (*models.Project, error) {
	project := models.Project{
		ID:          uuid.Must(uuid.NewV4()),
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     ownerID,
		Status:      models.ProjectStatusActive,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	for _, memberID := range req.Members {
		project.Members = append(project.Members, models.ProjectMember{
			ProjectID: project.ID,
			UserID:    memberID,
			CreatedAt: time.Now(),
		})
	}

	if err := db.Create(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func (s *ProjectServiceImpl) GetProjects(db *gorm.DB, userID uuid.UUID) ([]models.Project, error) {
	var projects []models.Project
	err := db.Preload("Members").
		Where("owner_id = ? OR id IN (SELECT project_id FROM project_members WHERE user_id = ?)", userID, userID).
		Order("created_at").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

func (s *ProjectServiceImpl) GetProject(db *gorm.DB, projectID, requesterID uuid.UUID) (*models.Project, error) {
	project, err := loadProject(db, projectID)
	if err != nil {
		return nil, err
	}
	if !project.CanAccess(requesterID) {
		return nil, ErrForbidden
	}
	return project, nil
}

func (s *ProjectServiceImpl) UpdateProject(db *gorm.DB, projectID, requesterID uuid.UUID, req ProjectUpdateRequest) (*models.Project, error) {
	project, err := loadProject(db, projectID)
	if err != nil {
		return nil, err
	}
	if !project.CanManage(requesterID) {
		return nil, ErrForbidden
	}

	if req.Name != "" {
		project.Name = req.Name
	}
	if req.Description != "" {
		project.Description = req.Description
	}
	if req.Status != "" {
		project.Status = req.Status
	}
	if req.StartDate != nil {
		project.StartDate = req.StartDate
	}
	if req.EndDate != nil {
		project.EndDate = req.EndDate
	}
	project.UpdatedAt = time.Now()

	err = db.Transaction(func(tx *gorm.DB) error {
		if req.Members != nil {
			if err := tx.Where("project_id = ?", project.ID).Delete(&models.ProjectMember{}).Error; err != nil {
				return err
			}
			project.Members = nil
			for _, memberID := range *req.Members {
				member := models.ProjectMember{
					ProjectID: project.ID,
					UserID:    memberID,
					CreatedAt: time.Now(),
				}
				if err := tx.Create(&member).Error; err != nil {
					return err
				}
				project.Members = append(project.Members, member)
			}
		}
		return tx.Omit("Members").Save(project).Error
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

func (s *ProjectServiceImpl) DeleteProject(db *gorm.DB, projectID, requesterID uuid.UUID) error {
	project, err := loadProject(db, projectID)
	if err != nil {
		return err
	}
	if !project.CanManage(requesterID) {
		return ErrForbidden
	}
	return db.Transaction(func(tx *gorm.DB) error {
		return deleteProjectCascade(tx, project.ID)
	})
}

// deleteProjectCascade removes a project together with its member
// rows, tasks, and task comments. Callers run it inside a transaction.
func deleteProjectCascade(tx *gorm.DB, projectID uuid.UUID) error {
	if err := tx.Where("task_id IN (SELECT id FROM tasks WHERE project_id = ?)", projectID).
		Delete(&models.Comment{}).Error; err != nil {
		return err
	}
	if err := tx.Where("project_id = ?", projectID).Delete(&models.Task{}).Error; err != nil {
		return err
	}
	if err := tx.Where("project_id = ?", projectID).Delete(&models.ProjectMember{}).Error; err != nil {
		return err
	}
	return tx.Delete(&models.Project{}, "id = ?", projectID).Error
}

func (s *ProjectServiceImpl) AddMember(db *gorm.DB, projectID, requesterID, userID uuid.UUID) (*models.Project, error) {
	project, err := loadProject(db, projectID)
	if err != nil {
		return nil, err
	}
	if !project.CanManage(requesterID) {
		return nil, ErrForbidden
	}
	if project.HasMember(userID) {
		return nil, ErrDuplicateMember
	}

	member := models.ProjectMember{
		ProjectID: project.ID,
		UserID:    userID,
		CreatedAt: time.Now(),
	}
	if err := db.Create(&member).Error; err != nil {
		return nil, err
	}
	project.Members = append(project.Members, member)
	return project, nil
}

func (s *ProjectServiceImpl) RemoveMember(db *gorm.DB, projectID, requesterID, userID uuid.UUID) (*models.Project, error) {
	project, err := loadProject(db, projectID)
	if err != nil {
		return nil, err
	}
	if !project.CanManage(requesterID) {
		return nil, ErrForbidden
	}

	// Removing a user who is not a member succeeds as a no-op.
	if err := db.Where("project_id = ? AND user_id = ?", project.ID, userID).
		Delete(&models.ProjectMember{}).Error; err != nil {
		return nil, err
	}

	remaining := project.Members[:0]
	for _, m := range project.Members {
		if m.UserID != userID {
			remaining = append(remaining, m)
		}
	}
	project.Members = remaining
	return project, nil
}
