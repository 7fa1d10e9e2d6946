package services

import (
	"errors"
	"strings"

	"github.com/qatrace/qatrace/backend/internal/models"
	"github.com/qatrace/qatrace/backend/pkg/apperr"
	"gorm.io/gorm"
)

// PackageService manages test packages and their approval lifecycle.
type PackageService struct {
	db *gorm.DB
}

func NewPackageService(db *gorm.DB) *PackageService {
	return &PackageService{db: db}
}

type CreatePackageRequest struct {
	ProjectID uint   `json:"project_id" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Type      string `json:"type" binding:"required"`
}

// Create creates a draft package in a project.
func (s *PackageService) Create(req *CreatePackageRequest) (*models.TestPackage, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperr.InvalidInput("name is required")
	}
	if !models.ValidTestType(req.Type) {
		return nil, apperr.InvalidInput("invalid type: " + req.Type)
	}

	var project models.Project
	if err := s.db.First(&project, req.ProjectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("project not found")
		}
		return nil, apperr.Internal("lookup project", err)
	}

	pkg := models.TestPackage{
		ProjectID: req.ProjectID,
		Name:      name,
		Type:      req.Type,
		Status:    models.PackageStatusDraft,
	}
	if err := s.db.Create(&pkg).Error; err != nil {
		return nil, apperr.Internal("create package", err)
	}
	return &pkg, nil
}

// GetByID returns a package scoped to its project; a package that exists
// under a different project is reported as not found.
func (s *PackageService) GetByID(id, projectID uint) (*models.TestPackage, error) {
	var pkg models.TestPackage
	if err := s.db.Where("id = ? AND project_id = ?", id, projectID).
		First(&pkg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("package not found")
		}
		return nil, apperr.Internal("lookup package", err)
	}
	return &pkg, nil
}

// ListByProject returns all packages of a project, newest first.
func (s *PackageService) ListByProject(projectID uint) ([]models.TestPackage, error) {
	var pkgs []models.TestPackage
	if err := s.db.Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&pkgs).Error; err != nil {
		return nil, apperr.Internal("list packages", err)
	}
	return pkgs, nil
}

// Approve moves a package to its terminal approved state, after which no
// scenarios can be added. Approving twice conflicts.
func (s *PackageService) Approve(id, projectID uint) (*models.TestPackage, error) {
	pkg, err := s.GetByID(id, projectID)
	if err != nil {
		return nil, err
	}

	if pkg.Approved() {
		return nil, apperr.Conflict("package already approved")
	}

	if err := s.db.Model(pkg).Update("status", models.PackageStatusApproved).Error; err != nil {
		return nil, apperr.Internal("approve package", err)
	}
	pkg.Status = models.PackageStatusApproved
	return pkg, nil
}
