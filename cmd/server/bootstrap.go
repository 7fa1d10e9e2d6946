package main

import (
	"github.com/qatrace/qatrace/backend/internal/config"
	"github.com/qatrace/qatrace/backend/internal/handlers"
	"github.com/qatrace/qatrace/backend/internal/models"
	"github.com/qatrace/qatrace/backend/internal/services"
	"github.com/qatrace/qatrace/backend/internal/utils"
	"github.com/qatrace/qatrace/backend/pkg/logger"
)

// appServices holds all initialized handlers needed by the application.
type appServices struct {
	authHandler      *handlers.AuthHandler
	projectHandler   *handlers.ProjectHandler
	memberHandler    *handlers.ProjectMemberHandler
	inviteHandler    *handlers.InviteHandler
	packageHandler   *handlers.PackageHandler
	scenarioHandler  *handlers.ScenarioHandler
	systemLogHandler *handlers.SystemLogHandler
	healthHandler    *handlers.HealthHandler
}

// bootstrap initializes all application dependencies: database, services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	db := models.GetDB()

	// Audit trail sink
	services.InitSystemLogger(db)

	// Background maintenance
	services.StartLogCleanupScheduler(db, cfg.Log.RetentionDays)
	services.StartInviteExpirySweeper(services.NewInviteService(db, &cfg.Invite))

	return &appServices{
		authHandler:      handlers.NewAuthHandler(db, cfg),
		projectHandler:   handlers.NewProjectHandler(db),
		memberHandler:    handlers.NewProjectMemberHandler(db),
		inviteHandler:    handlers.NewInviteHandler(db, &cfg.Invite),
		packageHandler:   handlers.NewPackageHandler(db),
		scenarioHandler:  handlers.NewScenarioHandler(db),
		systemLogHandler: handlers.NewSystemLogHandler(db),
		healthHandler:    handlers.NewHealthHandler(),
	}
}
