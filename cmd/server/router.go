package main

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/team-checklist-api/internal/constants"
	"github.com/yukikurage/team-checklist-api/internal/handlers"
	"github.com/yukikurage/team-checklist-api/internal/middleware"
	"github.com/yukikurage/team-checklist-api/internal/repository"
	"github.com/yukikurage/team-checklist-api/internal/services"
	"gorm.io/gorm"
)

// newRouter wires repositories, services and handlers into a gin engine.
// aiService may be nil; task generation then answers 503.
func newRouter(db *gorm.DB, store sessions.Store, aiService *services.AIService) *gin.Engine {
	userRepo := repository.NewUserRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	checkInRepo := repository.NewCheckInRepository(db)

	authHandler := handlers.NewAuthHandler(services.NewAuthService(userRepo))
	teamHandler := handlers.NewTeamHandler(services.NewTeamService(teamRepo))
	taskHandler := handlers.NewTaskHandler(services.NewTaskService(taskRepo, teamRepo, aiService))
	checkInHandler := handlers.NewCheckInHandler(services.NewCheckInService(checkInRepo, teamRepo))
	healthHandler := handlers.NewHealthHandler(db)

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), middleware.RequestID(), middleware.LogErrors())
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	r.GET("/health", healthHandler.Check)

	teamAccess := middleware.RequireTeamAccess(teamRepo)
	teamOwner := middleware.RequireTeamOwner()
	taskAccess := middleware.RequireTaskAccess(taskRepo, teamRepo)

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(userRepo), authHandler.GetCurrentUser)
		}

		// Team routes (protected)
		teams := api.Group("/teams")
		teams.Use(middleware.RequireAuth(userRepo))
		{
			teams.POST("", teamHandler.CreateTeam)
			teams.GET("", teamHandler.ListTeams)
			teams.POST("/join", teamHandler.JoinTeam)
			teams.GET("/:id", teamAccess, teamHandler.GetTeam)
			teams.PUT("/:id", teamAccess, teamOwner, teamHandler.UpdateTeam)
			teams.DELETE("/:id", teamAccess, teamOwner, teamHandler.DeleteTeam)
			teams.POST("/:id/regenerate-code", teamAccess, teamOwner, teamHandler.RegenerateJoinCode)
			teams.POST("/:id/leave", teamAccess, teamHandler.LeaveTeam)

			teams.GET("/:id/tasks", teamAccess, taskHandler.ListTeamTasks)

			teams.POST("/:id/checkins", teamAccess, checkInHandler.CheckIn)
			teams.GET("/:id/checkins", teamAccess, checkInHandler.ListCheckIns)
			teams.GET("/:id/participation", teamAccess, checkInHandler.Participation)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(middleware.RequireAuth(userRepo))
		{
			tasks.POST("", taskHandler.CreateTask)
			tasks.POST("/generate", taskHandler.GenerateTasks)
			tasks.GET("/:id", taskAccess, taskHandler.GetTask)
			tasks.PATCH("/:id", taskAccess, taskHandler.UpdateTask)
			tasks.DELETE("/:id", taskAccess, taskHandler.DeleteTask)
			tasks.POST("/:id/move", taskAccess, taskHandler.MoveTask)
			tasks.POST("/:id/reparent", taskAccess, taskHandler.ReparentTask)
			tasks.POST("/:id/toggle", taskAccess, taskHandler.ToggleTask)
			tasks.POST("/:id/assign", taskAccess, taskHandler.AssignTask)
			tasks.POST("/:id/unassign", taskAccess, taskHandler.UnassignTask)
		}
	}

	return r
}
