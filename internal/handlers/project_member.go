package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/qatrace/qatrace/backend/internal/services"
	"github.com/qatrace/qatrace/backend/pkg/response"
	"gorm.io/gorm"
)

// ProjectMemberHandler provides endpoints for project members.
type ProjectMemberHandler struct {
	service *services.MemberService
}

func NewProjectMemberHandler(db *gorm.DB) *ProjectMemberHandler {
	return &ProjectMemberHandler{service: services.NewMemberService(db)}
}

// List returns all members of a project.
// GET /api/projects/:id/members
func (h *ProjectMemberHandler) List(c *gin.Context) {
	projectID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || projectID == 0 {
		response.BadRequest(c, "invalid project id")
		return
	}

	members, err := h.service.List(uint(projectID))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, members)
}

// Update updates a member's role.
// PUT /api/projects/:id/members/:memberID
func (h *ProjectMemberHandler) Update(c *gin.Context) {
	memberID, err := strconv.ParseUint(c.Param("memberID"), 10, 32)
	if err != nil || memberID == 0 {
		response.BadRequest(c, "invalid member id")
		return
	}

	var req services.UpdateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	member, err := h.service.UpdateRole(uint(memberID), req.Role)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, member)
}

// Remove removes a member from a project.
// DELETE /api/projects/:id/members/:memberID
func (h *ProjectMemberHandler) Remove(c *gin.Context) {
	memberID, err := strconv.ParseUint(c.Param("memberID"), 10, 32)
	if err != nil || memberID == 0 {
		response.BadRequest(c, "invalid member id")
		return
	}

	if err := h.service.Remove(uint(memberID)); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"removed": true})
}
