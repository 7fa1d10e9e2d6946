package services

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/qatrace/qatrace/backend/internal/models"
	"github.com/qatrace/qatrace/backend/pkg/apperr"
	"gorm.io/gorm"
)

// ScenarioService owns creation and retrieval of test scenarios inside
// test packages, enforcing package-state guards, attribute inheritance
// and cross-entity referential validation.
type ScenarioService struct {
	db *gorm.DB
}

func NewScenarioService(db *gorm.DB) *ScenarioService {
	return &ScenarioService{db: db}
}

// ScenarioStepInput is one caller-supplied step. Position in the slice is
// authoritative; the service assigns the 1-based order.
type ScenarioStepInput struct {
	Action   string `json:"action" binding:"required"`
	Expected string `json:"expected"`
}

// CreateScenarioInput is the normalized creation input. The polymorphic
// assignee shape accepted on the wire is flattened to AssigneeID and
// AssigneeEmail before this struct is built.
type CreateScenarioInput struct {
	PackageID     uint
	ProjectID     uint
	Title         string
	Description   string
	Type          string // empty inherits the package type
	Priority      string
	Tags          []string
	Environment   string
	Steps         []ScenarioStepInput
	AssigneeID    *uint
	AssigneeEmail string
	TesterID      *uint
	ApproverID    *uint
}

// UserRef is the denormalized user shape returned for tester and approver.
type UserRef struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// StepResponse is one persisted step, ordered ascending.
type StepResponse struct {
	ID       uint   `json:"id"`
	Action   string `json:"action"`
	Expected string `json:"expected"`
	Order    int    `json:"order"`
}

// ScenarioResponse is the API shape of a scenario: tags deserialized,
// steps ordered, tester/approver denormalized or null.
type ScenarioResponse struct {
	ID            uint           `json:"id"`
	PackageID     uint           `json:"package_id"`
	ProjectID     uint           `json:"project_id"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Type          string         `json:"type"`
	Priority      string         `json:"priority"`
	Tags          []string       `json:"tags"`
	Environment   string         `json:"environment"`
	AssigneeEmail string         `json:"assignee_email,omitempty"`
	Tester        *UserRef       `json:"tester"`
	Approver      *UserRef       `json:"approver"`
	Steps         []StepResponse `json:"steps"`
}

// CreateInPackage creates a scenario inside a package. Validation is
// side-effect-free and short-circuits on the first failure; nothing is
// written before the final transactional insert.
func (s *ScenarioService) CreateInPackage(input *CreateScenarioInput) (*ScenarioResponse, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperr.InvalidInput("title is required")
	}
	if !models.ValidPriority(input.Priority) {
		return nil, apperr.InvalidInput("invalid priority: " + input.Priority)
	}
	if input.Type != "" && !models.ValidTestType(input.Type) {
		return nil, apperr.InvalidInput("invalid type: " + input.Type)
	}

	var pkg models.TestPackage
	if err := s.db.Where("id = ? AND project_id = ?", input.PackageID, input.ProjectID).
		First(&pkg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("package not found")
		}
		return nil, apperr.Internal("lookup package", err)
	}

	if pkg.Approved() {
		return nil, apperr.Forbidden("cannot add scenarios to an approved package")
	}

	// Explicit type always wins; omission inherits the package's type at
	// creation time.
	finalType := input.Type
	if finalType == "" {
		finalType = pkg.Type
	}

	assigneeEmail, err := s.resolveAssignee(input.AssigneeID, input.AssigneeEmail)
	if err != nil {
		return nil, err
	}

	var tester, approver *models.User
	if input.TesterID != nil {
		tester, err = s.requireProjectMember(*input.TesterID, input.ProjectID, "tester")
		if err != nil {
			return nil, err
		}
	}
	if input.ApproverID != nil {
		approver, err = s.requireProjectMember(*input.ApproverID, input.ProjectID, "approver")
		if err != nil {
			return nil, err
		}
	}

	scenario := models.TestScenario{
		PackageID:     input.PackageID,
		ProjectID:     input.ProjectID,
		Title:         title,
		Description:   input.Description,
		Type:          finalType,
		Priority:      input.Priority,
		Tags:          serializeTags(input.Tags),
		Environment:   input.Environment,
		AssigneeEmail: assigneeEmail,
		TesterID:      input.TesterID,
		ApproverID:    input.ApproverID,
	}

	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&scenario).Error; err != nil {
			return err
		}
		for i, step := range input.Steps {
			row := models.ScenarioStep{
				ScenarioID: scenario.ID,
				Action:     step.Action,
				Expected:   step.Expected,
				Order:      i + 1,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			scenario.Steps = append(scenario.Steps, row)
		}
		return nil
	})
	if txErr != nil {
		return nil, apperr.Internal("create scenario", txErr)
	}

	scenario.Tester = tester
	scenario.Approver = approver
	return toScenarioResponse(&scenario), nil
}

// resolveAssignee validates the optional responsible user and returns the
// email to denormalize onto the scenario. When both id and email were
// supplied they are treated as already resolved.
func (s *ScenarioService) resolveAssignee(id *uint, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	switch {
	case id != nil && email != "":
		return email, nil
	case id != nil:
		var user models.User
		if err := s.db.First(&user, *id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return "", apperr.NotFound("responsible user not found")
			}
			return "", apperr.Internal("lookup assignee", err)
		}
		return user.Email, nil
	case email != "":
		var user models.User
		if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return "", apperr.NotFound("responsible user not found")
			}
			return "", apperr.Internal("lookup assignee", err)
		}
		return user.Email, nil
	default:
		return "", nil
	}
}

// requireProjectMember validates that the user exists and already holds a
// membership (any role) in the project.
func (s *ScenarioService) requireProjectMember(userID, projectID uint, who string) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(who + " not found")
		}
		return nil, apperr.Internal("lookup "+who, err)
	}

	var member models.ProjectMember
	if err := s.db.Where("user_id = ? AND project_id = ?", userID, projectID).
		First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.BadRequest(who + " must be a project member")
		}
		return nil, apperr.Internal("lookup "+who+" membership", err)
	}

	return &user, nil
}

// GetByID returns a scenario with ordered steps and its tester/approver.
// Both relations are fetched as nullable joins; absent users come back null.
func (s *ScenarioService) GetByID(id uint) (*ScenarioResponse, error) {
	var scenario models.TestScenario
	if err := s.db.
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("step_order ASC")
		}).
		Preload("Tester").
		Preload("Approver").
		First(&scenario, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("scenario not found")
		}
		return nil, apperr.Internal("lookup scenario", err)
	}
	return toScenarioResponse(&scenario), nil
}

// ListByPackage returns all scenarios of a package, oldest first.
func (s *ScenarioService) ListByPackage(packageID, projectID uint) ([]ScenarioResponse, error) {
	var pkg models.TestPackage
	if err := s.db.Where("id = ? AND project_id = ?", packageID, projectID).
		First(&pkg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("package not found")
		}
		return nil, apperr.Internal("lookup package", err)
	}

	var scenarios []models.TestScenario
	if err := s.db.Where("package_id = ?", packageID).
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("step_order ASC")
		}).
		Preload("Tester").
		Preload("Approver").
		Order("created_at ASC").
		Find(&scenarios).Error; err != nil {
		return nil, apperr.Internal("list scenarios", err)
	}

	out := make([]ScenarioResponse, 0, len(scenarios))
	for i := range scenarios {
		out = append(out, *toScenarioResponse(&scenarios[i]))
	}
	return out, nil
}

func toScenarioResponse(sc *models.TestScenario) *ScenarioResponse {
	resp := &ScenarioResponse{
		ID:            sc.ID,
		PackageID:     sc.PackageID,
		ProjectID:     sc.ProjectID,
		Title:         sc.Title,
		Description:   sc.Description,
		Type:          sc.Type,
		Priority:      sc.Priority,
		Tags:          deserializeTags(sc.Tags),
		Environment:   sc.Environment,
		AssigneeEmail: sc.AssigneeEmail,
		Steps:         make([]StepResponse, 0, len(sc.Steps)),
	}
	for _, step := range sc.Steps {
		resp.Steps = append(resp.Steps, StepResponse{
			ID:       step.ID,
			Action:   step.Action,
			Expected: step.Expected,
			Order:    step.Order,
		})
	}
	if sc.Tester != nil {
		resp.Tester = &UserRef{ID: sc.Tester.ID, Name: sc.Tester.Name, Email: sc.Tester.Email}
	}
	if sc.Approver != nil {
		resp.Approver = &UserRef{ID: sc.Approver.ID, Name: sc.Approver.Name, Email: sc.Approver.Email}
	}
	return resp
}

// serializeTags encodes tags as a JSON array string for storage. The rest
// of the code only ever sees []string.
func serializeTags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return ""
	}
	return string(b)
}

func deserializeTags(raw string) []string {
	if raw == "" {
		return []string{}
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return []string{}
	}
	return tags
}
