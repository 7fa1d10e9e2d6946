package main

import (
	"github.com/gin-gonic/gin"
	"github.com/qatrace/qatrace/backend/internal/middleware"
	"github.com/qatrace/qatrace/backend/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Health check
	r.GET("/health", svc.healthHandler.CheckHealth)

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", svc.authHandler.Register)
			auth.POST("/login", svc.authHandler.Login)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired(), middleware.AuditLog())
		{
			// Auth
			protected.GET("/auth/me", svc.authHandler.GetCurrentUser)

			// Projects
			protected.GET("/projects", svc.projectHandler.List)
			protected.GET("/projects/:id", svc.projectHandler.GetByID)
			protected.POST("/projects", svc.projectHandler.Create)
			protected.PUT("/projects/:id", svc.projectHandler.Update)
			protected.DELETE("/projects/:id", svc.projectHandler.Delete)

			// Project members
			protected.GET("/projects/:id/members", svc.memberHandler.List)
			protected.PUT("/projects/:id/members/:memberID", svc.memberHandler.Update)
			protected.DELETE("/projects/:id/members/:memberID", svc.memberHandler.Remove)

			// Invites
			protected.POST("/invites", svc.inviteHandler.Create)
			protected.POST("/invites/:token/accept", svc.inviteHandler.Accept)
			protected.POST("/invites/:token/decline", svc.inviteHandler.Decline)
			protected.GET("/projects/:id/invites", svc.inviteHandler.ListByProject)

			// Test packages
			protected.POST("/packages", svc.packageHandler.Create)
			protected.GET("/projects/:id/packages", svc.packageHandler.ListByProject)
			protected.GET("/projects/:id/packages/:packageID", svc.packageHandler.GetByID)
			protected.POST("/projects/:id/packages/:packageID/approve", svc.packageHandler.Approve)

			// Scenarios
			protected.POST("/projects/:id/packages/:packageID/scenarios", svc.scenarioHandler.Create)
			protected.GET("/projects/:id/packages/:packageID/scenarios", svc.scenarioHandler.ListByPackage)
			protected.GET("/scenarios/:id", svc.scenarioHandler.GetByID)

			// System logs (admin only)
			protected.GET("/system-logs", middleware.AdminRequired(), svc.systemLogHandler.List)
		}
	}
}
