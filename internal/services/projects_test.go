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

type ProjectServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *services.ProjectServiceImpl

	ownerID    uuid.UUID
	memberID   uuid.UUID
	outsiderID uuid.UUID
	project    *models.Project
}

func (suite *ProjectServiceTestSuite) SetupTest() {
	suite.db = openTestDB(suite.T())
	suite.service = services.NewProjectService()

	suite.ownerID = uuid.Must(uuid.NewV4())
	suite.memberID = uuid.Must(uuid.NewV4())
	suite.outsiderID = uuid.Must(uuid.NewV4())

	project, err := suite.service.CreateProject(suite.db, suite.ownerID, services.ProjectCreateRequest{
		Name:        "Launch",
		Description: "Initial launch",
		Members:     []uuid.UUID{suite.memberID},
	})
	suite.Require().NoError(err)
	suite.project = project
}

func (suite *ProjectServiceTestSuite) TestCreateProject_Defaults() {
	project, err := suite.service.CreateProject(suite.db, suite.ownerID, services.ProjectCreateRequest{Name: "Bare"})
	suite.Require().NoError(err)

	suite.Equal(models.ProjectStatusActive, project.Status)
	suite.Equal(suite.ownerID, project.OwnerID)
	suite.Empty(project.Members)
}

func (suite *ProjectServiceTestSuite) TestGetProject_AccessMatrix() {
	for _, tc := range []struct {
		name      string
		requester uuid.UUID
		allowed   bool
	}{
		{"owner", suite.ownerID, true},
		{"member", suite.memberID, true},
		{"outsider", suite.outsiderID, false},
	} {
		project, err := suite.service.GetProject(suite.db, suite.project.ID, tc.requester)
		if tc.allowed {
			suite.NoError(err, tc.name)
			suite.NotNil(project, tc.name)
		} else {
			suite.ErrorIs(err, services.ErrForbidden, tc.name)
		}
	}
}

func (suite *ProjectServiceTestSuite) TestGetProject_NotFoundBeforeForbidden() {
	// A missing project reports not-found even for a requester who
	// would have no access either way.
	_, err := suite.service.GetProject(suite.db, uuid.Must(uuid.NewV4()), suite.outsiderID)
	suite.ErrorIs(err, services.ErrNotFound)

	// Malformed ids resolve to the nil uuid and behave the same.
	_, err = suite.service.GetProject(suite.db, uuid.Nil, suite.outsiderID)
	suite.ErrorIs(err, services.ErrNotFound)
}

func (suite *ProjectServiceTestSuite) TestGetProjects() {
	other, err := suite.service.CreateProject(suite.db, suite.outsiderID, services.ProjectCreateRequest{Name: "Unrelated"})
	suite.Require().NoError(err)

	ownerProjects, err := suite.service.GetProjects(suite.db, suite.ownerID)
	suite.Require().NoError(err)
	suite.Len(ownerProjects, 1)

	memberProjects, err := suite.service.GetProjects(suite.db, suite.memberID)
	suite.Require().NoError(err)
	suite.Len(memberProjects, 1)
	suite.Equal(suite.project.ID, memberProjects[0].ID)

	outsiderProjects, err := suite.service.GetProjects(suite.db, suite.outsiderID)
	suite.Require().NoError(err)
	suite.Len(outsiderProjects, 1)
	suite.Equal(other.ID, outsiderProjects[0].ID)
}

func (suite *ProjectServiceTestSuite) TestUpdateProject_OwnerOnly() {
	patch := services.ProjectUpdateRequest{Name: "Renamed"}

	_, err := suite.service.UpdateProject(suite.db, suite.project.ID, suite.memberID, patch)
	suite.ErrorIs(err, services.ErrForbidden)

	_, err = suite.service.UpdateProject(suite.db, suite.project.ID, suite.outsiderID, patch)
	suite.ErrorIs(err, services.ErrForbidden)

	updated, err := suite.service.UpdateProject(suite.db, suite.project.ID, suite.ownerID, patch)
	suite.Require().NoError(err)
	suite.Equal("Renamed", updated.Name)
	suite.Equal("Initial launch", updated.Description, "absent fields stay unchanged")
}

func (suite *ProjectServiceTestSuite) TestUpdateProject_MergePatch() {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	updated, err := suite.service.UpdateProject(suite.db, suite.project.ID, suite.ownerID, services.ProjectUpdateRequest{
		Status:    models.ProjectStatusCompleted,
		StartDate: &start,
	})
	suite.Require().NoError(err)

	suite.Equal(models.ProjectStatusCompleted, updated.Status)
	suite.Equal("Launch", updated.Name)
	suite.Require().NotNil(updated.StartDate)
	suite.True(updated.StartDate.Equal(start))
	suite.Len(updated.Members, 1, "nil members patch leaves the set alone")
}

func (suite *ProjectServiceTestSuite) TestUpdateProject_MembersReplaceSet() {
	newMember := uuid.Must(uuid.NewV4())
	members := []uuid.UUID{newMember}

	updated, err := suite.service.UpdateProject(suite.db, suite.project.ID, suite.ownerID, services.ProjectUpdateRequest{
		Members: &members,
	})
	suite.Require().NoError(err)

	suite.Require().Len(updated.Members, 1)
	suite.Equal(newMember, updated.Members[0].UserID)
	suite.False(updated.HasMember(suite.memberID), "previous member replaced, not merged")

	empty := []uuid.UUID{}
	updated, err = suite.service.UpdateProject(suite.db, suite.project.ID, suite.ownerID, services.ProjectUpdateRequest{
		Members: &empty,
	})
	suite.Require().NoError(err)
	suite.Empty(updated.Members)
}

func (suite *ProjectServiceTestSuite) TestDeleteProject_OwnerOnly() {
	suite.ErrorIs(suite.service.DeleteProject(suite.db, suite.project.ID, suite.memberID), services.ErrForbidden)
	suite.ErrorIs(suite.service.DeleteProject(suite.db, suite.project.ID, suite.outsiderID), services.ErrForbidden)

	suite.Require().NoError(suite.service.DeleteProject(suite.db, suite.project.ID, suite.ownerID))

	_, err := suite.service.GetProject(suite.db, suite.project.ID, suite.ownerID)
	suite.ErrorIs(err, services.ErrNotFound)
}

func (suite *ProjectServiceTestSuite) TestDeleteProject_CascadesTasksAndComments() {
	taskService := services.NewTaskService()
	task, err := taskService.CreateTask(suite.db, suite.memberID, services.TaskCreateRequest{
		Title:     "Cleanup target",
		ProjectID: suite.project.ID,
	})
	suite.Require().NoError(err)
	_, err = taskService.AddComment(suite.db, task.ID, suite.memberID, "will vanish")
	suite.Require().NoError(err)

	suite.Require().NoError(suite.service.DeleteProject(suite.db, suite.project.ID, suite.ownerID))

	var taskCount, commentCount, memberCount int64
	suite.db.Model(&models.Task{}).Where("project_id = ?", suite.project.ID).Count(&taskCount)
	suite.db.Model(&models.Comment{}).Where("task_id = ?", task.ID).Count(&commentCount)
	suite.db.Model(&models.ProjectMember{}).Where("project_id = ?", suite.project.ID).Count(&memberCount)
	suite.Zero(taskCount)
	suite.Zero(commentCount)
	suite.Zero(memberCount)
}

func (suite *ProjectServiceTestSuite) TestAddMember() {
	newMember := uuid.Must(uuid.NewV4())

	_, err := suite.service.AddMember(suite.db, suite.project.ID, suite.memberID, newMember)
	suite.ErrorIs(err, services.ErrForbidden, "members cannot manage membership")

	project, err := suite.service.AddMember(suite.db, suite.project.ID, suite.ownerID, newMember)
	suite.Require().NoError(err)
	suite.True(project.HasMember(newMember))

	_, err = suite.service.AddMember(suite.db, suite.project.ID, suite.ownerID, newMember)
	suite.ErrorIs(err, services.ErrDuplicateMember)
}

func (suite *ProjectServiceTestSuite) TestRemoveMember() {
	_, err := suite.service.RemoveMember(suite.db, suite.project.ID, suite.memberID, suite.memberID)
	suite.ErrorIs(err, services.ErrForbidden)

	project, err := suite.service.RemoveMember(suite.db, suite.project.ID, suite.ownerID, suite.memberID)
	suite.Require().NoError(err)
	suite.False(project.HasMember(suite.memberID))

	// Removing an absent member is a no-op success.
	_, err = suite.service.RemoveMember(suite.db, suite.project.ID, suite.ownerID, suite.memberID)
	suite.NoError(err)
}

func (suite *ProjectServiceTestSuite) TestOwnerIsNotDemotedByMemberChanges() {
	empty := []uuid.UUID{}
	updated, err := suite.service.UpdateProject(suite.db, suite.project.ID, suite.ownerID, services.ProjectUpdateRequest{
		Members: &empty,
	})
	suite.Require().NoError(err)

	suite.Equal(models.AccessOwner, updated.AccessFor(suite.ownerID))
	suite.True(updated.CanManage(suite.ownerID))
}

func TestProjectServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ProjectServiceTestSuite))
}
