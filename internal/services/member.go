package services

import (
	"errors"

	"github.com/qatrace/qatrace/backend/internal/models"
	"github.com/qatrace/qatrace/backend/pkg/apperr"
	"gorm.io/gorm"
)

// MemberService manages project memberships. Every mutation preserves the
// at-most-one-owner-per-project invariant.
type MemberService struct {
	db *gorm.DB
}

func NewMemberService(db *gorm.DB) *MemberService {
	return &MemberService{db: db}
}

type UpdateMemberRequest struct {
	Role string `json:"role" binding:"required"`
}

// List returns all members of a project with their users preloaded.
func (s *MemberService) List(projectID uint) ([]models.ProjectMember, error) {
	var members []models.ProjectMember
	if err := s.db.Where("project_id = ?", projectID).
		Preload("User").
		Order("created_at ASC").
		Find(&members).Error; err != nil {
		return nil, apperr.Internal("list members", err)
	}
	return members, nil
}

// Get returns the membership of a user in a project, if any.
func (s *MemberService) Get(userID, projectID uint) (*models.ProjectMember, error) {
	var member models.ProjectMember
	if err := s.db.Where("user_id = ? AND project_id = ?", userID, projectID).
		First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("membership not found")
		}
		return nil, apperr.Internal("lookup membership", err)
	}
	return &member, nil
}

// UpdateRole changes a member's role. Promoting to owner while another
// owner exists is rejected.
func (s *MemberService) UpdateRole(memberID uint, role string) (*models.ProjectMember, error) {
	if !models.ValidRole(role) {
		return nil, apperr.InvalidInput("invalid role: " + role)
	}

	var member models.ProjectMember
	if err := s.db.First(&member, memberID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("member not found")
		}
		return nil, apperr.Internal("lookup member", err)
	}

	if role == models.RoleOwner && member.Role != models.RoleOwner {
		var owners int64
		if err := s.db.Model(&models.ProjectMember{}).
			Where("project_id = ? AND role = ?", member.ProjectID, models.RoleOwner).
			Count(&owners).Error; err != nil {
			return nil, apperr.Internal("count owners", err)
		}
		if owners > 0 {
			return nil, apperr.Conflict("only one owner allowed")
		}
	}

	if err := s.db.Model(&member).Update("role", role).Error; err != nil {
		return nil, apperr.Internal("update member role", err)
	}
	member.Role = role
	return &member, nil
}

// Remove deletes a membership. The owner cannot be removed; ownership must
// be transferred first.
func (s *MemberService) Remove(memberID uint) error {
	var member models.ProjectMember
	if err := s.db.First(&member, memberID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("member not found")
		}
		return apperr.Internal("lookup member", err)
	}

	if member.Role == models.RoleOwner {
		return apperr.Conflict("project owner cannot be removed")
	}

	if err := s.db.Delete(&member).Error; err != nil {
		return apperr.Internal("remove member", err)
	}
	return nil
}
