package models

import (
	"time"

	"gorm.io/gorm"
)

// Invite lifecycle statuses. Accepted, declined and expired are terminal:
// an invite never transitions out of them.
const (
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
	InviteStatusDeclined = "declined"
	InviteStatusExpired  = "expired"
)

// Invite is a time-boxed offer for a user (by email) to join a project
// with a specific role. The token is opaque and unguessable.
type Invite struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	ProjectID   uint           `gorm:"index;not null" json:"project_id"`
	Project     *Project       `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Email       string         `gorm:"size:255;not null" json:"email"`
	Role        string         `gorm:"size:50;not null" json:"role"`
	Token       string         `gorm:"uniqueIndex;size:64;not null" json:"-"`
	Status      string         `gorm:"size:20;default:pending;index" json:"status"`
	InvitedByID uint           `gorm:"not null" json:"invited_by_id"`
	InvitedBy   *User          `gorm:"foreignKey:InvitedByID" json:"invited_by,omitempty"`
	ExpiresAt   time.Time      `gorm:"not null" json:"expires_at"`
	AcceptedAt  *time.Time     `json:"accepted_at"`
	DeclinedAt  *time.Time     `json:"declined_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Invite) TableName() string { return "invites" }

// Terminal reports whether the invite can no longer change state.
func (i *Invite) Terminal() bool {
	return i.Status != InviteStatusPending
}
