package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/qatrace/qatrace/backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupTestDB opens a fresh in-memory sqlite database for one test.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectMember{},
		&models.Invite{},
		&models.TestPackage{},
		&models.TestScenario{},
		&models.ScenarioStep{},
		&models.SystemLog{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := models.User{
		Email:    email,
		Name:     strings.SplitN(email, "@", 2)[0],
		Role:     "user",
		IsActive: true,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create test user %s: %v", email, err)
	}
	return &user
}

func createTestProject(t *testing.T, db *gorm.DB, ownerID uint) *models.Project {
	t.Helper()
	project := models.Project{Name: "Test Project", OwnerID: ownerID}
	if err := db.Create(&project).Error; err != nil {
		t.Fatalf("failed to create test project: %v", err)
	}
	member := models.ProjectMember{ProjectID: project.ID, UserID: ownerID, Role: models.RoleOwner}
	if err := db.Create(&member).Error; err != nil {
		t.Fatalf("failed to create owner membership: %v", err)
	}
	return &project
}

func createTestMember(t *testing.T, db *gorm.DB, projectID, userID uint, role string) *models.ProjectMember {
	t.Helper()
	member := models.ProjectMember{ProjectID: projectID, UserID: userID, Role: role}
	if err := db.Create(&member).Error; err != nil {
		t.Fatalf("failed to create test membership: %v", err)
	}
	return &member
}

func createTestInvite(t *testing.T, db *gorm.DB, projectID uint, email, role, status string, expiresAt time.Time) *models.Invite {
	t.Helper()
	invite := models.Invite{
		ProjectID:   projectID,
		Email:       email,
		Role:        role,
		Token:       uuid.NewString(),
		Status:      status,
		InvitedByID: 1,
		ExpiresAt:   expiresAt,
	}
	if err := db.Create(&invite).Error; err != nil {
		t.Fatalf("failed to create test invite: %v", err)
	}
	return &invite
}

func createTestPackage(t *testing.T, db *gorm.DB, projectID uint, pkgType, status string) *models.TestPackage {
	t.Helper()
	pkg := models.TestPackage{
		ProjectID: projectID,
		Name:      "Release 1.0",
		Type:      pkgType,
		Status:    status,
	}
	if err := db.Create(&pkg).Error; err != nil {
		t.Fatalf("failed to create test package: %v", err)
	}
	return &pkg
}
