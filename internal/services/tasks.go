package services

import (
	"errors"
	"time"

	"taskboard/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type TaskCreateRequest struct {
	Title       string     `json:"title" binding:"required"`
	ProjectID   uuid.UUID  `json:"project_id" binding:"required"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	AssignedTo  *uuid.UUID `json:"assigned_to"`
}

// TaskUpdateRequest is a merge patch. The task's project reference is
// not part of it: a task never moves between projects.
type TaskUpdateRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	AssignedTo  *uuid.UUID `json:"assigned_to"`
}

type TaskService interface {
	GetProjectTasks(db *gorm.DB, projectID, requesterID uuid.UUID) ([]models.Task, error)
	GetMyTasks(db *gorm.DB, requesterID uuid.UUID) ([]models.Task, error)
	GetTask(db *gorm.DB, taskID, requesterID uuid.UUID) (*models.Task, error)
	CreateTask(db *gorm.DB, requesterID uuid.UUID, req TaskCreateRequest) (*models.Task, error)
	UpdateTask(db *gorm.DB, taskID, requesterID uuid.UUID, req TaskUpdateRequest) (*models.Task, error)
	DeleteTask(db *gorm.DB, taskID, requesterID uuid.UUID) error
	AddComment(db *gorm.DB, taskID, requesterID uuid.UUID, text string) (*models.Task, error)
}

type TaskServiceImpl struct{}

func NewTaskService() *TaskServiceImpl {
	return &TaskServiceImpl{}
}

// loadTask performs the existence check. The parent project (and with
// it the authorization decision) is resolved only after the task is
// known to exist, so a missing task is always reported as not found.
func loadTask(db *gorm.DB, taskID uuid.UUID) (*models.Task, error) {
	var task models.Task
	err := db.Preload("Comments", func(db *gorm.DB) *gorm.DB {
		return db.Order("comments.created_at")
	}).First(&task, "id = ?", taskID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &task, nil
}

func (s *TaskServiceImpl) GetProjectTasks(db *gorm.DB, projectID, requesterID uuid.UUID) ([]models.Task, error) {
	project, err := loadProject(db, projectID)
	if err != nil {
		return nil, err
	}
	if !project.CanAccess(requesterID) {
		return nil, ErrForbidden
	}

	var tasks []models.Task
	err = db.Preload("Comments", func(db *gorm.DB) *gorm.DB {
		return db.Order("comments.created_at")
	}).Where("project_id = ?", project.ID).
		Order("created_at DESC").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetMyTasks lists tasks assigned to the requester across all
// projects. Assignment implies visibility, so no project-level check
// is made.
func (s *TaskServiceImpl) GetMyTasks(db *gorm.DB, requesterID uuid.UUID) ([]models.Task, error) {
	var tasks []models.Task
	err := db.Preload("Comments", func(db *gorm.DB) *gorm.DB {
		return db.Order("comments.created_at")
	}).Where("assigned_to = ?", requesterID).
		Order("created_at DESC").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *TaskServiceImpl) GetTask(db *gorm.DB, taskID, requesterID uuid.UUID) (*models.Task, error) {
	task, err := loadTask(db, taskID)
	if err != nil {
		return nil, err
	}
	project, err := loadProject(db, task.ProjectID)
	if err != nil {
		return nil, err
	}
	if !project.CanAccess(requesterID) {
		return nil, ErrForbidden
	}
	return task, nil
}

func (s *TaskServiceImpl) CreateTask(db *gorm.DB, requesterID uuid.UUID, req TaskCreateRequest) (*models.Task, error) {
	project, err := loadProject(db, req.ProjectID)
	if err != nil {
		return nil, err
	}
	if !project.CanAccess(requesterID) {
		return nil, ErrForbidden
	}

	priority := req.Priority
	if priority == "" {
		priority = models.TaskPriorityMedium
	}

	task := models.Task{
		ID:          uuid.Must(uuid.NewV4()),
		ProjectID:   project.ID,
		Title:       req.Title,
		Description: req.Description,
		Status:      models.TaskStatusPending,
		Priority:    priority,
		DueDate:     req.DueDate,
		AssignedTo:  req.AssignedTo,
		CreatedBy:   requesterID,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := db.Create(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *TaskServiceImpl) UpdateTask(db *gorm.DB, taskID, requesterID uuid.UUID, req TaskUpdateRequest) (*models.Task, error) {
	task, err := loadTask(db, taskID)
	if err != nil {
		return nil, err
	}
	project, err := loadProject(db, task.ProjectID)
	if err != nil {
		return nil, err
	}
	if !project.CanAccess(requesterID) {
		return nil, ErrForbidden
	}

	if req.Title != "" {
		task.Title = req.Title
	}
	if req.Description != "" {
		task.Description = req.Description
	}
	if req.Status != "" {
		task.Status = req.Status
	}
	if req.Priority != "" {
		task.Priority = req.Priority
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	if req.AssignedTo != nil {
		task.AssignedTo = req.AssignedTo
	}
	task.UpdatedAt = time.Now()

	if err := db.Omit("Comments").Save(task).Error; err != nil {
		return nil, err
	}
	return task, nil
}

// DeleteTask is owner-only: members may update a task but only the
// project owner may delete one, regardless of who created it.
func (s *TaskServiceImpl) DeleteTask(db *gorm.DB, taskID, requesterID uuid.UUID) error {
	task, err := loadTask(db, taskID)
	if err != nil {
		return err
	}
	project, err := loadProject(db, task.ProjectID)
	if err != nil {
		return err
	}
	if !project.CanManage(requesterID) {
		return ErrForbidden
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", task.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Task{}, "id = ?", task.ID).Error
	})
}

func (s *TaskServiceImpl) AddComment(db *gorm.DB, taskID, requesterID uuid.UUID, text string) (*models.Task, error) {
	task, err := loadTask(db, taskID)
	if err != nil {
		return nil, err
	}
	project, err := loadProject(db, task.ProjectID)
	if err != nil {
		return nil, err
	}
	if !project.CanAccess(requesterID) {
		return nil, ErrForbidden
	}

	comment := models.Comment{
		ID:        uuid.Must(uuid.NewV4()),
		TaskID:    task.ID,
		AuthorID:  requesterID,
		Text:      text,
		CreatedAt: time.Now(),
	}
	if err := db.Create(&comment).Error; err != nil {
		return nil, err
	}
	task.Comments = append(task.Comments, comment)
	return task, nil
}
