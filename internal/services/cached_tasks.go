package services

import (
	"fmt"
	"time"

	"taskboard/backend/internal/cache"
	"taskboard/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// CachedTaskService is a read-through decorator over a TaskService.
// Entries are keyed per requester so a hit can only replay a result
// the same user was already authorized to see, and tagged by project so
// membership changes and project deletion can drop them all at once
// (see InvalidateProject). A cache failure never fails the request.
type CachedTaskService struct {
	taskService TaskService
	cache       *cache.RedisCache
}

func NewCachedTaskService(taskService TaskService, cacheInstance *cache.RedisCache) *CachedTaskService {
	return &CachedTaskService{
		taskService: taskService,
		cache:       cacheInstance,
	}
}

func taskKey(taskID, requesterID uuid.UUID) string {
	return fmt.Sprintf("task:%s:u:%s", taskID.String(), requesterID.String())
}

func projectTasksKey(projectID, requesterID uuid.UUID) string {
	return fmt.Sprintf("project_tasks:%s:u:%s", projectID.String(), requesterID.String())
}

func userTasksKey(requesterID uuid.UUID) string {
	return fmt.Sprintf("user_tasks:%s", requesterID.String())
}

// Every project-scoped entry is stored under this tag, so revoking a
// member or deleting the project can drop per-task reads along with the
// listings in one sweep.
func projectTag(projectID uuid.UUID) string {
	return "project:" + projectID.String()
}

func (s *CachedTaskService) GetProjectTasks(db *gorm.DB, projectID, requesterID uuid.UUID) ([]models.Task, error) {
	key := projectTasksKey(projectID, requesterID)

	var cached []models.Task
	if err := s.cache.Get(key, &cached); err == nil {
		return cached, nil
	}

	tasks, err := s.taskService.GetProjectTasks(db, projectID, requesterID)
	if err != nil {
		return nil, err
	}
	s.cache.SetWithTags(key, tasks, 10*time.Minute, []string{projectTag(projectID)})
	return tasks, nil
}

func (s *CachedTaskService) GetMyTasks(db *gorm.DB, requesterID uuid.UUID) ([]models.Task, error) {
	key := userTasksKey(requesterID)

	var cached []models.Task
	if err := s.cache.Get(key, &cached); err == nil {
		return cached, nil
	}

	tasks, err := s.taskService.GetMyTasks(db, requesterID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, tasks, 15*time.Minute)
	return tasks, nil
}

func (s *CachedTaskService) GetTask(db *gorm.DB, taskID, requesterID uuid.UUID) (*models.Task, error) {
	key := taskKey(taskID, requesterID)

	var cached models.Task
	if err := s.cache.Get(key, &cached); err == nil {
		return &cached, nil
	}

	task, err := s.taskService.GetTask(db, taskID, requesterID)
	if err != nil {
		return nil, err
	}
	s.cache.SetWithTags(key, task, 30*time.Minute, []string{projectTag(task.ProjectID)})
	return task, nil
}

func (s *CachedTaskService) CreateTask(db *gorm.DB, requesterID uuid.UUID, req TaskCreateRequest) (*models.Task, error) {
	task, err := s.taskService.CreateTask(db, requesterID, req)
	if err != nil {
		return nil, err
	}
	s.invalidate(task)
	return task, nil
}

func (s *CachedTaskService) UpdateTask(db *gorm.DB, taskID, requesterID uuid.UUID, req TaskUpdateRequest) (*models.Task, error) {
	task, err := s.taskService.UpdateTask(db, taskID, requesterID, req)
	if err != nil {
		return nil, err
	}
	s.invalidate(task)
	return task, nil
}

func (s *CachedTaskService) DeleteTask(db *gorm.DB, taskID, requesterID uuid.UUID) error {
	task, getErr := s.taskService.GetTask(db, taskID, requesterID)

	if err := s.taskService.DeleteTask(db, taskID, requesterID); err != nil {
		return err
	}

	s.cache.DeletePattern(fmt.Sprintf("task:%s:*", taskID.String()))
	if getErr == nil {
		s.invalidate(task)
	}
	return nil
}

func (s *CachedTaskService) AddComment(db *gorm.DB, taskID, requesterID uuid.UUID, text string) (*models.Task, error) {
	task, err := s.taskService.AddComment(db, taskID, requesterID, text)
	if err != nil {
		return nil, err
	}
	s.invalidate(task)
	return task, nil
}

// InvalidateProject drops every cached read scoped to the project: the
// per-requester listings and the per-task entries recorded under the
// project tag. Called on membership changes and project deletion so a
// revoked member's next read goes back through the authorization check.
func (s *CachedTaskService) InvalidateProject(projectID uuid.UUID) {
	s.cache.InvalidateByTag(projectTag(projectID))
	s.cache.DeletePattern(fmt.Sprintf("project_tasks:%s:*", projectID.String()))
	// Deleting a project removes its tasks, which may still sit in
	// cached assignee listings.
	s.cache.DeletePattern("user_tasks:*")
}

func (s *CachedTaskService) invalidate(task *models.Task) {
	s.cache.DeletePattern(fmt.Sprintf("task:%s:*", task.ID.String()))
	s.cache.DeletePattern(fmt.Sprintf("project_tasks:%s:*", task.ProjectID.String()))
	// Reassignment can leave a stale entry under the previous assignee,
	// so assignee listings are cleared wholesale.
	s.cache.DeletePattern("user_tasks:*")
}

func (s *CachedTaskService) GetCacheStats() map[string]interface{} {
	return s.cache.Stats()
}
