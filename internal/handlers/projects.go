package handlers

import (
	"context"
	"log"
	"net/http"

	"taskboard/backend/internal/services"
	"taskboard/backend/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// Enqueuer hands advisory jobs to the background worker.
type Enqueuer interface {
	Enqueue(ctx context.Context, queue string, job *worker.Job) error
}

// ProjectCacheInvalidator drops cached task reads scoped to a project
// when its membership changes or the project is deleted.
type ProjectCacheInvalidator interface {
	InvalidateProject(projectID uuid.UUID)
}

type ProjectHandler struct {
	db             *gorm.DB
	projectService services.ProjectService
	jobs           Enqueuer
	taskCache      ProjectCacheInvalidator
}

func NewProjectHandler(db *gorm.DB, projectService services.ProjectService, jobs Enqueuer, taskCache ProjectCacheInvalidator) *ProjectHandler {
	return &ProjectHandler{db: db, projectService: projectService, jobs: jobs, taskCache: taskCache}
}

type memberRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

// Malformed ids resolve to uuid.Nil and fall through to the service's
// existence check, so they surface as 404 rather than 400. That
// matches the externally observable behavior this API has always had.
func pathID(c *gin.Context, param string) uuid.UUID {
	return uuid.FromStringOrNil(c.Param(param))
}

func (h *ProjectHandler) CreateProject(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.ProjectCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := h.projectService.CreateProject(h.db, userID, req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

func (h *ProjectHandler) GetProjects(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	projects, err := h.projectService.GetProjects(h.db, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

func (h *ProjectHandler) GetProject(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	project, err := h.projectService.GetProject(h.db, pathID(c, "id"), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.ProjectUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	projectID := pathID(c, "id")
	project, err := h.projectService.UpdateProject(h.db, projectID, userID, req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	if req.Members != nil && h.taskCache != nil {
		h.taskCache.InvalidateProject(projectID)
	}
	c.JSON(http.StatusOK, project)
}

func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	projectID := pathID(c, "id")
	if err := h.projectService.DeleteProject(h.db, projectID, userID); err != nil {
		handleServiceError(c, err)
		return
	}

	if h.taskCache != nil {
		h.taskCache.InvalidateProject(projectID)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Project deleted successfully"})
}

func (h *ProjectHandler) AddMember(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	projectID := pathID(c, "id")
	project, err := h.projectService.AddMember(h.db, projectID, userID, req.UserID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	if h.taskCache != nil {
		h.taskCache.InvalidateProject(projectID)
	}
	if h.jobs != nil {
		job := worker.NewJob(worker.JobTypeMemberAdded, map[string]interface{}{
			"project_id": projectID.String(),
			"user_id":    req.UserID.String(),
			"added_by":   userID.String(),
		})
		// Notification jobs are advisory; the membership change stands.
		if err := h.jobs.Enqueue(c.Request.Context(), worker.QueueNotifications, job); err != nil {
			log.Printf("failed to enqueue member notification: %v", err)
		}
	}

	c.JSON(http.StatusOK, project)
}

func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	projectID := pathID(c, "id")
	memberID := pathID(c, "userId")
	project, err := h.projectService.RemoveMember(h.db, projectID, userID, memberID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	if h.taskCache != nil {
		h.taskCache.InvalidateProject(projectID)
	}
	c.JSON(http.StatusOK, project)
}
