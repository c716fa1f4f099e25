package main

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"taskboard/backend/internal/handlers"
	"taskboard/backend/internal/middleware"
	"taskboard/backend/internal/monitoring"
	"taskboard/backend/internal/services"
)

type routerDeps struct {
	db             *gorm.DB
	credentials    services.CredentialService
	userService    services.UserService
	projectService services.ProjectService
	taskService    services.TaskService
	jobs           handlers.Enqueuer
	taskCache      handlers.ProjectCacheInvalidator
}

func setupRouter(deps routerDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(cors.Default())
	router.Use(monitoring.MetricsMiddleware())

	router.GET("/health", monitoring.HealthHandler())
	router.GET("/metrics", monitoring.MetricsHandler())

	authHandler := handlers.NewAuthHandler(deps.db, deps.userService, deps.credentials)
	userHandler := handlers.NewUserHandler(deps.db, deps.userService)
	projectHandler := handlers.NewProjectHandler(deps.db, deps.projectService, deps.jobs, deps.taskCache)
	taskHandler := handlers.NewTaskHandler(deps.db, deps.taskService, deps.jobs)

	api := router.Group("/api")

	api.POST("/register", authHandler.Register)
	api.POST("/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.Authenticate(deps.credentials))

	authed.GET("/profile", authHandler.Profile)

	users := authed.Group("/users")
	users.Use(middleware.RequireAdmin())
	users.GET("", userHandler.GetUsers)
	users.GET("/:id", userHandler.GetUser)
	users.PUT("/:id", userHandler.UpdateUser)
	users.DELETE("/:id", userHandler.DeleteUser)

	projects := authed.Group("/projects")
	projects.GET("", projectHandler.GetProjects)
	projects.POST("", projectHandler.CreateProject)
	projects.GET("/:id", projectHandler.GetProject)
	projects.PUT("/:id", projectHandler.UpdateProject)
	projects.DELETE("/:id", projectHandler.DeleteProject)
	projects.POST("/:id/members", projectHandler.AddMember)
	projects.DELETE("/:id/members/:userId", projectHandler.RemoveMember)

	tasks := authed.Group("/tasks")
	tasks.GET("/project/:projectId", taskHandler.GetProjectTasks)
	tasks.GET("/my-tasks", taskHandler.GetMyTasks)
	tasks.POST("", taskHandler.CreateTask)
	tasks.GET("/:id", taskHandler.GetTask)
	tasks.PUT("/:id", taskHandler.UpdateTask)
	tasks.DELETE("/:id", taskHandler.DeleteTask)
	tasks.POST("/:id/comments", taskHandler.AddComment)

	return router
}
