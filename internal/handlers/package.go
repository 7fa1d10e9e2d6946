package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/qatrace/qatrace/backend/internal/services"
	"github.com/qatrace/qatrace/backend/pkg/response"
	"gorm.io/gorm"
)

// PackageHandler provides endpoints for test packages.
type PackageHandler struct {
	service *services.PackageService
}

func NewPackageHandler(db *gorm.DB) *PackageHandler {
	return &PackageHandler{service: services.NewPackageService(db)}
}

// Create creates a draft package.
// POST /api/packages
func (h *PackageHandler) Create(c *gin.Context) {
	var req services.CreatePackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	pkg, err := h.service.Create(&req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, pkg)
}

// ListByProject returns all packages of a project.
// GET /api/projects/:id/packages
func (h *PackageHandler) ListByProject(c *gin.Context) {
	projectID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || projectID == 0 {
		response.BadRequest(c, "invalid project id")
		return
	}

	pkgs, err := h.service.ListByProject(uint(projectID))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, pkgs)
}

// GetByID returns a package scoped to its project.
// GET /api/projects/:id/packages/:packageID
func (h *PackageHandler) GetByID(c *gin.Context) {
	projectID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || projectID == 0 {
		response.BadRequest(c, "invalid project id")
		return
	}
	packageID, err := strconv.ParseUint(c.Param("packageID"), 10, 32)
	if err != nil || packageID == 0 {
		response.BadRequest(c, "invalid package id")
		return
	}

	pkg, err := h.service.GetByID(uint(packageID), uint(projectID))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, pkg)
}

// Approve moves a package to its terminal approved state.
// POST /api/projects/:id/packages/:packageID/approve
func (h *PackageHandler) Approve(c *gin.Context) {
	projectID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || projectID == 0 {
		response.BadRequest(c, "invalid project id")
		return
	}
	packageID, err := strconv.ParseUint(c.Param("packageID"), 10, 32)
	if err != nil || packageID == 0 {
		response.BadRequest(c, "invalid package id")
		return
	}

	pkg, err := h.service.Approve(uint(packageID), uint(projectID))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, pkg)
}
