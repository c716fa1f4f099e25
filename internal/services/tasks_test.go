package services_test

import (
	"testing"
	"time"

	"taskboard/backend/internal/models"
	"taskboard/backend/internal/services"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type TaskServiceTestSuite struct {
	suite.Suite
	db       *gorm.DB
	projects *services.ProjectServiceImpl
	service  *services.TaskServiceImpl

	ownerID    uuid.UUID
	memberID   uuid.UUID
	outsiderID uuid.UUID
	project    *models.Project
}

func (suite *TaskServiceTestSuite) SetupTest() {
	suite.db = openTestDB(suite.T())
	suite.projects = services.NewProjectService()
	suite.service = services.NewTaskService()

	suite.ownerID = uuid.Must(uuid.NewV4())
	suite.memberID = uuid.Must(uuid.NewV4())
	suite.outsiderID = uuid.Must(uuid.NewV4())

	project, err := suite.projects.CreateProject(suite.db, suite.ownerID, services.ProjectCreateRequest{
		Name:    "Board",
		Members: []uuid.UUID{suite.memberID},
	})
	suite.Require().NoError(err)
	suite.project = project
}

func (suite *TaskServiceTestSuite) createTask(requester uuid.UUID, title string) *models.Task {
	task, err := suite.service.CreateTask(suite.db, requester, services.TaskCreateRequest{
		Title:     title,
		ProjectID: suite.project.ID,
	})
	suite.Require().NoError(err)
	return task
}

func (suite *TaskServiceTestSuite) TestCreateTask_Defaults() {
	task := suite.createTask(suite.memberID, "First")

	suite.Equal(models.TaskStatusPending, task.Status)
	suite.Equal(models.TaskPriorityMedium, task.Priority)
	suite.Equal(suite.memberID, task.CreatedBy)
	suite.Equal(suite.project.ID, task.ProjectID)
}

func (suite *TaskServiceTestSuite) TestCreateTask_Authorization() {
	_, err := suite.service.CreateTask(suite.db, suite.outsiderID, services.TaskCreateRequest{
		Title:     "Nope",
		ProjectID: suite.project.ID,
	})
	suite.ErrorIs(err, services.ErrForbidden)

	// Nonexistent project reports not-found before any access check.
	_, err = suite.service.CreateTask(suite.db, suite.outsiderID, services.TaskCreateRequest{
		Title:     "Nowhere",
		ProjectID: uuid.Must(uuid.NewV4()),
	})
	suite.ErrorIs(err, services.ErrNotFound)
}

func (suite *TaskServiceTestSuite) TestGetTask_Authorization() {
	task := suite.createTask(suite.ownerID, "Visible")

	for _, requester := range []uuid.UUID{suite.ownerID, suite.memberID} {
		got, err := suite.service.GetTask(suite.db, task.ID, requester)
		suite.Require().NoError(err)
		suite.Equal(task.ID, got.ID)
	}

	_, err := suite.service.GetTask(suite.db, task.ID, suite.outsiderID)
	suite.ErrorIs(err, services.ErrForbidden)

	_, err = suite.service.GetTask(suite.db, uuid.Must(uuid.NewV4()), suite.outsiderID)
	suite.ErrorIs(err, services.ErrNotFound)
}

func (suite *TaskServiceTestSuite) TestGetProjectTasks_OrderedNewestFirst() {
	for i, title := range []string{"first", "second", "third"} {
		task := suite.createTask(suite.ownerID, title)
		// Distinct creation times so the ordering is deterministic.
		created := time.Now().Add(time.Duration(i-3) * time.Minute)
		suite.Require().NoError(suite.db.Model(&models.Task{}).Where("id = ?", task.ID).
			Update("created_at", created).Error)
	}

	tasks, err := suite.service.GetProjectTasks(suite.db, suite.project.ID, suite.memberID)
	suite.Require().NoError(err)
	suite.Require().Len(tasks, 3)
	suite.Equal("third", tasks[0].Title)
	suite.Equal("second", tasks[1].Title)
	suite.Equal("first", tasks[2].Title)

	_, err = suite.service.GetProjectTasks(suite.db, suite.project.ID, suite.outsiderID)
	suite.ErrorIs(err, services.ErrForbidden)

	_, err = suite.service.GetProjectTasks(suite.db, uuid.Must(uuid.NewV4()), suite.ownerID)
	suite.ErrorIs(err, services.ErrNotFound)
}

func (suite *TaskServiceTestSuite) TestGetMyTasks() {
	assigned, err := suite.service.CreateTask(suite.db, suite.ownerID, services.TaskCreateRequest{
		Title:      "Mine",
		ProjectID:  suite.project.ID,
		AssignedTo: &suite.memberID,
	})
	suite.Require().NoError(err)
	suite.createTask(suite.ownerID, "Someone else's")

	tasks, err := suite.service.GetMyTasks(suite.db, suite.memberID)
	suite.Require().NoError(err)
	suite.Require().Len(tasks, 1)
	suite.Equal(assigned.ID, tasks[0].ID)

	none, err := suite.service.GetMyTasks(suite.db, suite.outsiderID)
	suite.Require().NoError(err)
	suite.Empty(none)
}

func (suite *TaskServiceTestSuite) TestUpdateTask_MergePatch() {
	task := suite.createTask(suite.ownerID, "Original")

	updated, err := suite.service.UpdateTask(suite.db, task.ID, suite.memberID, services.TaskUpdateRequest{
		Status: models.TaskStatusCompleted,
	})
	suite.Require().NoError(err)

	suite.Equal(models.TaskStatusCompleted, updated.Status)
	suite.Equal("Original", updated.Title)
	suite.Equal(models.TaskPriorityMedium, updated.Priority)
	suite.Equal(suite.project.ID, updated.ProjectID, "project reference is immutable")
}

func (suite *TaskServiceTestSuite) TestUpdateTask_Authorization() {
	task := suite.createTask(suite.ownerID, "Guarded")

	_, err := suite.service.UpdateTask(suite.db, task.ID, suite.outsiderID, services.TaskUpdateRequest{Title: "Hacked"})
	suite.ErrorIs(err, services.ErrForbidden)

	_, err = suite.service.UpdateTask(suite.db, uuid.Must(uuid.NewV4()), suite.ownerID, services.TaskUpdateRequest{Title: "Ghost"})
	suite.ErrorIs(err, services.ErrNotFound)
}

func (suite *TaskServiceTestSuite) TestDeleteTask_OwnerOnly() {
	task := suite.createTask(suite.memberID, "Member made this")

	// Even the creator cannot delete unless they own the project.
	suite.ErrorIs(suite.service.DeleteTask(suite.db, task.ID, suite.memberID), services.ErrForbidden)
	suite.ErrorIs(suite.service.DeleteTask(suite.db, task.ID, suite.outsiderID), services.ErrForbidden)

	suite.Require().NoError(suite.service.DeleteTask(suite.db, task.ID, suite.ownerID))

	_, err := suite.service.GetTask(suite.db, task.ID, suite.ownerID)
	suite.ErrorIs(err, services.ErrNotFound)
}

func (suite *TaskServiceTestSuite) TestDeleteTask_RemovesComments() {
	task := suite.createTask(suite.ownerID, "Commented")
	_, err := suite.service.AddComment(suite.db, task.ID, suite.memberID, "note")
	suite.Require().NoError(err)

	suite.Require().NoError(suite.service.DeleteTask(suite.db, task.ID, suite.ownerID))

	var commentCount int64
	suite.db.Model(&models.Comment{}).Where("task_id = ?", task.ID).Count(&commentCount)
	suite.Zero(commentCount)
}

func (suite *TaskServiceTestSuite) TestAddComment_AppendOrder() {
	task := suite.createTask(suite.ownerID, "Discussion")

	for _, text := range []string{"first", "second", "third"} {
		_, err := suite.service.AddComment(suite.db, task.ID, suite.memberID, text)
		suite.Require().NoError(err)
	}

	got, err := suite.service.GetTask(suite.db, task.ID, suite.ownerID)
	suite.Require().NoError(err)
	suite.Require().Len(got.Comments, 3)
	suite.Equal("first", got.Comments[0].Text)
	suite.Equal("second", got.Comments[1].Text)
	suite.Equal("third", got.Comments[2].Text)
	suite.Equal(suite.memberID, got.Comments[0].AuthorID)
}

func (suite *TaskServiceTestSuite) TestAddComment_Authorization() {
	task := suite.createTask(suite.ownerID, "Private thread")

	_, err := suite.service.AddComment(suite.db, task.ID, suite.outsiderID, "let me in")
	suite.ErrorIs(err, services.ErrForbidden)

	_, err = suite.service.AddComment(suite.db, uuid.Must(uuid.NewV4()), suite.ownerID, "void")
	suite.ErrorIs(err, services.ErrNotFound)
}

func TestTaskServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TaskServiceTestSuite))
}
