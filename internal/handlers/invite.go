package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/qatrace/qatrace/backend/internal/config"
	"github.com/qatrace/qatrace/backend/internal/middleware"
	"github.com/qatrace/qatrace/backend/internal/services"
	"github.com/qatrace/qatrace/backend/pkg/response"
	"gorm.io/gorm"
)

// InviteHandler provides endpoints for project invitations.
type InviteHandler struct {
	service *services.InviteService
}

func NewInviteHandler(db *gorm.DB, cfg *config.InviteConfig) *InviteHandler {
	return &InviteHandler{service: services.NewInviteService(db, cfg)}
}

// Create issues a new invite for a project.
// POST /api/invites
func (h *InviteHandler) Create(c *gin.Context) {
	var req services.CreateInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	invite, err := h.service.Create(&req, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, invite)
}

// Accept accepts an invite on behalf of the authenticated user.
// POST /api/invites/:token/accept
func (h *InviteHandler) Accept(c *gin.Context) {
	invite, err := h.service.Accept(c.Param("token"), middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, invite)
}

// Decline declines a pending invite.
// POST /api/invites/:token/decline
func (h *InviteHandler) Decline(c *gin.Context) {
	invite, err := h.service.Decline(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, invite)
}

// ListByProject returns all invites of a project.
// GET /api/projects/:id/invites
func (h *InviteHandler) ListByProject(c *gin.Context) {
	projectID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || projectID == 0 {
		response.BadRequest(c, "invalid project id")
		return
	}

	invites, err := h.service.ListByProject(uint(projectID))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, invites)
}
