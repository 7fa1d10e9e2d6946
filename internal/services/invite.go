package services

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/qatrace/qatrace/backend/internal/config"
	"github.com/qatrace/qatrace/backend/internal/models"
	"github.com/qatrace/qatrace/backend/pkg/apperr"
	"github.com/qatrace/qatrace/backend/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InviteService owns the lifecycle of project invitations from creation
// through acceptance, decline and expiry, and reconciles acceptances into
// project membership.
type InviteService struct {
	db  *gorm.DB
	cfg *config.InviteConfig
}

func NewInviteService(db *gorm.DB, cfg *config.InviteConfig) *InviteService {
	return &InviteService{db: db, cfg: cfg}
}

type CreateInviteRequest struct {
	ProjectID uint   `json:"project_id" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Role      string `json:"role" binding:"required"`
}

// Create issues a new pending invite for the given project and email.
// The token is an opaque UUID; validity window comes from configuration.
func (s *InviteService) Create(req *CreateInviteRequest, invitedBy uint) (*models.Invite, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, apperr.InvalidInput("email is required")
	}
	if !models.ValidRole(req.Role) {
		return nil, apperr.InvalidInput("invalid role: " + req.Role)
	}

	var project models.Project
	if err := s.db.First(&project, req.ProjectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("project not found")
		}
		return nil, apperr.Internal("lookup project", err)
	}

	var pending int64
	if err := s.db.Model(&models.Invite{}).
		Where("project_id = ? AND email = ? AND status = ?", req.ProjectID, email, models.InviteStatusPending).
		Count(&pending).Error; err != nil {
		return nil, apperr.Internal("check pending invites", err)
	}
	if pending > 0 {
		return nil, apperr.Conflict("a pending invite already exists for this email")
	}

	expireDays := 7
	if s.cfg != nil && s.cfg.ExpireDays > 0 {
		expireDays = s.cfg.ExpireDays
	}

	invite := models.Invite{
		ProjectID:   req.ProjectID,
		Email:       email,
		Role:        req.Role,
		Token:       uuid.NewString(),
		Status:      models.InviteStatusPending,
		InvitedByID: invitedBy,
		ExpiresAt:   time.Now().Add(time.Duration(expireDays) * 24 * time.Hour),
	}

	if err := s.db.Create(&invite).Error; err != nil {
		return nil, apperr.Internal("create invite", err)
	}

	return &invite, nil
}

// Accept reconciles an invite acceptance into project membership.
//
// The operation is idempotent for an already-accepted invite whose
// membership still exists. The whole branch decision runs inside a single
// transaction holding a row lock on the invite, so two acceptances of the
// same token cannot interleave. The expiry transition of a stale pending
// invite is committed even though the call itself fails with Gone.
func (s *InviteService) Accept(token string, userID uint) (*models.Invite, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperr.InvalidInput("invite token is required")
	}
	if userID == 0 {
		return nil, apperr.InvalidInput("user id must be a positive integer")
	}

	var invite models.Invite
	var opErr error

	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		q := tx
		// sqlite serializes writers at the database level; FOR UPDATE is
		// not part of its grammar.
		if tx.Dialector.Name() != "sqlite" {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.Where("token = ?", token).First(&invite).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				opErr = apperr.NotFound("invite not found")
				return nil
			}
			return err
		}

		switch invite.Status {
		case models.InviteStatusAccepted:
			var member models.ProjectMember
			err := tx.Where("user_id = ? AND project_id = ?", userID, invite.ProjectID).First(&member).Error
			if err == nil {
				// Same user re-accepting with membership intact: no mutation.
				return nil
			}
			if errors.Is(err, gorm.ErrRecordNotFound) {
				opErr = apperr.Conflict("invite already used")
				return nil
			}
			return err

		case models.InviteStatusDeclined:
			opErr = apperr.Conflict("invite was declined")
			return nil

		case models.InviteStatusPending:
			// fall through to acceptance below

		default:
			opErr = apperr.Gone("invite has expired")
			return nil
		}

		if !invite.ExpiresAt.After(time.Now()) {
			// Single-field transition; acceptedAt stays null. Committed even
			// though the caller gets Gone.
			if err := tx.Model(&invite).Update("status", models.InviteStatusExpired).Error; err != nil {
				return err
			}
			invite.Status = models.InviteStatusExpired
			opErr = apperr.Gone("invite has expired")
			return nil
		}

		if invite.Role == models.RoleOwner {
			var owners int64
			if err := tx.Model(&models.ProjectMember{}).
				Where("project_id = ? AND role = ?", invite.ProjectID, models.RoleOwner).
				Count(&owners).Error; err != nil {
				return err
			}
			if owners > 0 {
				// Invite stays pending.
				opErr = apperr.Conflict("only one owner allowed")
				return nil
			}
		}

		var member models.ProjectMember
		err := tx.Where("user_id = ? AND project_id = ?", userID, invite.ProjectID).First(&member).Error
		switch {
		case err == nil:
			// Re-accepting always re-applies the invite's role.
			if err := tx.Model(&member).Update("role", invite.Role).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			member = models.ProjectMember{
				ProjectID: invite.ProjectID,
				UserID:    userID,
				Role:      invite.Role,
			}
			if err := tx.Create(&member).Error; err != nil {
				return err
			}
		default:
			return err
		}

		now := time.Now()
		if err := tx.Model(&invite).Updates(map[string]interface{}{
			"status":      models.InviteStatusAccepted,
			"accepted_at": now,
		}).Error; err != nil {
			return err
		}
		invite.Status = models.InviteStatusAccepted
		invite.AcceptedAt = &now
		return nil
	})

	if txErr != nil {
		return nil, apperr.Internal("accept invite", txErr)
	}
	if opErr != nil {
		return nil, opErr
	}
	return &invite, nil
}

// Decline marks a pending invite as declined. Terminal invites follow the
// same taxonomy as Accept: declined and accepted conflict, expired is gone.
func (s *InviteService) Decline(token string) (*models.Invite, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperr.InvalidInput("invite token is required")
	}

	var invite models.Invite
	if err := s.db.Where("token = ?", token).First(&invite).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("invite not found")
		}
		return nil, apperr.Internal("lookup invite", err)
	}

	switch invite.Status {
	case models.InviteStatusDeclined:
		return &invite, nil
	case models.InviteStatusAccepted:
		return nil, apperr.Conflict("invite already accepted")
	case models.InviteStatusExpired:
		return nil, apperr.Gone("invite has expired")
	}

	now := time.Now()
	if err := s.db.Model(&invite).Updates(map[string]interface{}{
		"status":      models.InviteStatusDeclined,
		"declined_at": now,
	}).Error; err != nil {
		return nil, apperr.Internal("decline invite", err)
	}
	invite.Status = models.InviteStatusDeclined
	invite.DeclinedAt = &now
	return &invite, nil
}

// ListByProject returns all invites of a project, newest first.
func (s *InviteService) ListByProject(projectID uint) ([]models.Invite, error) {
	var invites []models.Invite
	if err := s.db.Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&invites).Error; err != nil {
		return nil, apperr.Internal("list invites", err)
	}
	return invites, nil
}

// ExpireStale flips past-due pending invites to expired and returns how
// many rows changed. This is the storage-side backstop for the lazy expiry
// check in Accept.
func (s *InviteService) ExpireStale() (int64, error) {
	result := s.db.Model(&models.Invite{}).
		Where("status = ? AND expires_at <= ?", models.InviteStatusPending, time.Now()).
		Update("status", models.InviteStatusExpired)
	if result.Error != nil {
		return 0, apperr.Internal("expire stale invites", result.Error)
	}
	return result.RowsAffected, nil
}

// StartInviteExpirySweeper runs ExpireStale hourly in the background.
func StartInviteExpirySweeper(s *InviteService) *cron.Cron {
	c := cron.New()
	_, err := c.AddFunc("@hourly", func() {
		expired, err := s.ExpireStale()
		if err != nil {
			logger.Error().Err(err).Msg("invite expiry sweep failed")
			return
		}
		if expired > 0 {
			logger.Info().Int64("expired", expired).Msg("expired stale invites")
		}
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to schedule invite expiry sweeper")
		return c
	}
	c.Start()
	return c
}
