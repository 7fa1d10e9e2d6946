package handlers

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/qatrace/qatrace/backend/internal/services"
	"github.com/qatrace/qatrace/backend/pkg/response"
	"gorm.io/gorm"
)

// ScenarioHandler provides endpoints for test scenarios.
type ScenarioHandler struct {
	service *services.ScenarioService
}

func NewScenarioHandler(db *gorm.DB) *ScenarioHandler {
	return &ScenarioHandler{service: services.NewScenarioService(db)}
}

// AssigneeField accepts either a bare user id or an object {value, email}
// on the wire. Handlers normalize it so the service layer only ever sees
// an id/email pair.
type AssigneeField struct {
	ID    *uint
	Email string
}

func (a *AssigneeField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '{' {
		var obj struct {
			Value *uint  `json:"value"`
			Email string `json:"email"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		a.ID = obj.Value
		a.Email = obj.Email
		return nil
	}
	var id uint
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	a.ID = &id
	return nil
}

type CreateScenarioRequest struct {
	Title         string                       `json:"title" binding:"required"`
	Description   string                       `json:"description"`
	Type          string                       `json:"type"`
	Priority      string                       `json:"priority" binding:"required"`
	Tags          []string                     `json:"tags"`
	Environment   string                       `json:"environment"`
	Steps         []services.ScenarioStepInput `json:"steps"`
	Assignee      *AssigneeField               `json:"assignee"`
	AssigneeEmail string                       `json:"assignee_email"`
	TesterID      *uint                        `json:"tester_id"`
	ApproverID    *uint                        `json:"approver_id"`
}

// Create creates a scenario inside a package.
// POST /api/projects/:id/packages/:packageID/scenarios
func (h *ScenarioHandler) Create(c *gin.Context) {
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

	var req CreateScenarioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	input := &services.CreateScenarioInput{
		PackageID:     uint(packageID),
		ProjectID:     uint(projectID),
		Title:         req.Title,
		Description:   req.Description,
		Type:          req.Type,
		Priority:      req.Priority,
		Tags:          req.Tags,
		Environment:   req.Environment,
		Steps:         req.Steps,
		AssigneeEmail: req.AssigneeEmail,
		TesterID:      req.TesterID,
		ApproverID:    req.ApproverID,
	}
	if req.Assignee != nil {
		input.AssigneeID = req.Assignee.ID
		// The compound object's own email wins over a separately-supplied one.
		if req.Assignee.Email != "" {
			input.AssigneeEmail = req.Assignee.Email
		}
	}

	scenario, err := h.service.CreateInPackage(input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, scenario)
}

// GetByID returns a scenario with its steps and tester/approver.
// GET /api/scenarios/:id
func (h *ScenarioHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		response.BadRequest(c, "invalid scenario id")
		return
	}

	scenario, err := h.service.GetByID(uint(id))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, scenario)
}

// ListByPackage returns all scenarios of a package.
// GET /api/projects/:id/packages/:packageID/scenarios
func (h *ScenarioHandler) ListByPackage(c *gin.Context) {
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

	scenarios, err := h.service.ListByPackage(uint(packageID), uint(projectID))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, scenarios)
}
