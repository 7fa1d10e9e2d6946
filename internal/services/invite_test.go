package services

import (
	"testing"
	"time"

	"github.com/qatrace/qatrace/backend/internal/config"
	"github.com/qatrace/qatrace/backend/internal/models"
	"github.com/qatrace/qatrace/backend/pkg/apperr"
)

func TestInviteAccept_InvalidInput(t *testing.T) {
	db := setupTestDB(t)
	svc := NewInviteService(db, nil)

	tests := []struct {
		name   string
		token  string
		userID uint
	}{
		{"blank token", "   ", 5},
		{"empty token", "", 5},
		{"zero user id", "tok", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Accept(tt.token, tt.userID)
			if apperr.KindOf(err) != apperr.KindInvalidInput {
				t.Errorf("Accept(%q, %d) kind = %v, expected invalid input", tt.token, tt.userID, apperr.KindOf(err))
			}
		})
	}
}

func TestInviteAccept_NotFound(t *testing.T) {
	db := setupTestDB(t)
	svc := NewInviteService(db, nil)

	_, err := svc.Accept("no-such-token", 1)
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("kind = %v, expected not found", apperr.KindOf(err))
	}
}

func TestInviteAccept_PendingSuccess(t *testing.T) {
	db := setupTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")
	project := createTestProject(t, db, owner.ID)
	invitee := createTestUser(t, db, "tester@example.com")
	invite := createTestInvite(t, db, project.ID, invitee.Email, models.RoleTester,
		models.InviteStatusPending, time.Now().Add(24*time.Hour))

	svc := NewInviteService(db, nil)
	accepted, err := svc.Accept(invite.Token, invitee.ID)
	if err != nil {
		t.Fatalf("Accept() error = %v", err)
	}

	if accepted.Status != models.InviteStatusAccepted {
		t.Errorf("status = %q, expected accepted", accepted.Status)
	}
	if accepted.AcceptedAt == nil {
		t.Error("AcceptedAt should be set")
	}

	var member models.ProjectMember
	if err := db.Where("user_id = ? AND project_id = ?", invitee.ID, project.ID).First(&member).Error; err != nil {
		t.Fatalf("membership not created: %v", err)
	}
	if member.Role != models.RoleTester {
		t.Errorf("membership role = %q, expected tester", member.Role)
	}
}

func TestInviteAccept_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")
	project := createTestProject(t, db, owner.ID)
	invitee := createTestUser(t, db, "tester@example.com")
	invite := createTestInvite(t, db, project.ID, invitee.Email, models.RoleTester,
		models.InviteStatusPending, time.Now().Add(24*time.Hour))

	svc := NewInviteService(db, nil)
	first, err := svc.Accept(invite.Token, invitee.ID)
	if err != nil {
		t.Fatalf("first Accept() error = %v", err)
	}

	second, err := svc.Accept(invite.Token, invitee.ID)
	if err != nil {
		t.Fatalf("second Accept() error = %v", err)
	}

	if second.Status != models.InviteStatusAccepted {
		t.Errorf("status = %q, expected accepted", second.Status)
	}
	if first.AcceptedAt == nil || second.AcceptedAt == nil {
		t.Fatal("AcceptedAt should be set on both calls")
	}
	if !first.AcceptedAt.Equal(*second.AcceptedAt) {
		t.Errorf("AcceptedAt changed on re-accept: %v vs %v", first.AcceptedAt, second.AcceptedAt)
	}

	var member models.ProjectMember
	if err := db.Where("user_id = ? AND project_id = ?", invitee.ID, project.ID).First(&member).Error; err != nil {
		t.Fatalf("membership lookup failed: %v", err)
	}
	if member.Role != models.RoleTester {
		t.Errorf("membership role mutated to %q", member.Role)
	}
}

func TestInviteAccept_UsedByAnotherUser(t *testing.T) {
	db := setupTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")
	project := createTestProject(t, db, owner.ID)
	first := createTestUser(t, db, "first@example.com")
	second := createTestUser(t, db, "second@example.com")
	invite := createTestInvite(t, db, project.ID, first.Email, models.RoleTester,
		models.InviteStatusPending, time.Now().Add(24*time.Hour))

	svc := NewInviteService(db, nil)
	if _, err := svc.Accept(invite.Token, first.ID); err != nil {
		t.Fatalf("first Accept() error = %v", err)
	}

	_, err := svc.Accept(invite.Token, second.ID)
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Errorf("kind = %v, expected conflict (invite already used)", apperr.KindOf(err))
	}
}

func TestInviteAccept_Declined(t *testing.T) {
	db := setupTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")
	project := createTestProject(t, db, owner.ID)
	user := createTestUser(t, db, "tester@example.com")
	invite := createTestInvite(t, db, project.ID, user.Email, models.RoleTester,
		models.InviteStatusDeclined, time.Now().Add(24*time.Hour))

	svc := NewInviteService(db, nil)
	_, err := svc.Accept(invite.Token, user.ID)
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Errorf("kind = %v, expected conflict", apperr.KindOf(err))
	}
}

func TestInviteAccept_ExpiredStatus(t *testing.T) {
	db := setupTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")
	project := createTestProject(t, db, owner.ID)
	user := createTestUser(t, db, "tester@example.com")
	invite := createTestInvite(t, db, project.ID, user.Email, models.RoleTester,
		models.InviteStatusExpired, time.Now().Add(24*time.Hour))

	svc := NewInviteService(db, nil)
	_, err := svc.Accept(invite.Token, user.ID)
	if apperr.KindOf(err) != apperr.KindGone {
		t.Errorf("kind = %v, expected gone", apperr.KindOf(err))
	}
}

func TestInviteAccept_LazyExpiryTransition(t *testing.T) {
	db := setupTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")
	project := createTestProject(t, db, owner.ID)
	user := createTestUser(t, db, "tester@example.com")
	invite := createTestInvite(t, db, project.ID, user.Email, models.RoleTester,
		models.InviteStatusPending, time.Now().Add(-time.Hour))

	svc := NewInviteService(db, nil)
	_, err := svc.Accept(invite.Token, user.ID)
	if apperr.KindOf(err) != apperr.KindGone {
		t.Fatalf("kind = %v, expected gone", apperr.KindOf(err))
	}

	// The expiry transition is persisted even though the call failed.
	var stored models.Invite
	if err := db.First(&stored, invite.ID).Error; err != nil {
		t.Fatalf("reload invite: %v", err)
	}
	if stored.Status != models.InviteStatusExpired {
		t.Errorf("stored status = %q, expected expired", stored.Status)
	}
	if stored.AcceptedAt != nil {
		t.Error("AcceptedAt should stay null on expiry")
	}

	var members int64
	db.Model(&models.ProjectMember{}).Where("user_id = ?", user.ID).Count(&members)
	if members != 0 {
		t.Errorf("no membership should be created, found %d", members)
	}
}

func TestInviteAccept_OwnerUniqueness(t *testing.T) {
	db := setupTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")
	project := createTestProject(t, db, owner.ID) // creates the owner membership
	user := createTestUser(t, db, "rival@example.com")
	invite := createTestInvite(t, db, project.ID, user.Email, models.RoleOwner,
		models.InviteStatusPending, time.Now().Add(24*time.Hour))

	svc := NewInviteService(db, nil)
	_, err := svc.Accept(invite.Token, user.ID)
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("kind = %v, expected conflict (only one owner)", apperr.KindOf(err))
	}

	// Invite must be left pending, untouched.
	var stored models.Invite
	if err := db.First(&stored, invite.ID).Error; err != nil {
		t.Fatalf("reload invite: %v", err)
	}
	if stored.Status != models.InviteStatusPending {
		t.Errorf("stored status = %q, expected pending", stored.Status)
	}
}

func TestInviteAccept_RoleReapplied(t *testing.T) {
	db := setupTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")
	project := createTestProject(t, db, owner.ID)
	user := createTestUser(t, db, "tester@example.com")
	createTestMember(t, db, project.ID, user.ID, models.RoleTester)
	invite := createTestInvite(t, db, project.ID, user.Email, models.RoleManager,
		models.InviteStatusPending, time.Now().Add(24*time.Hour))

	svc := NewInviteService(db, nil)
	if _, err := svc.Accept(invite.Token, user.ID); err != nil {
		t.Fatalf("Accept() error = %v", err)
	}

	var member models.ProjectMember
	if err := db.Where("user_id = ? AND project_id = ?", user.ID, project.ID).First(&member).Error; err != nil {
		t.Fatalf("membership lookup failed: %v", err)
	}
	if member.Role != models.RoleManager {
		t.Errorf("role = %q, expected manager (invite role re-applied)", member.Role)
	}
}

func TestInviteCreate(t *testing.T) {
	db := setupTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")
	project := createTestProject(t, db, owner.ID)
	svc := NewInviteService(db, &config.InviteConfig{ExpireDays: 3})

	invite, err := svc.Create(&CreateInviteRequest{
		ProjectID: project.ID,
		Email:     "  NewTester@Example.COM ",
		Role:      models.RoleTester,
	}, owner.ID)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if invite.Email != "newtester@example.com" {
		t.Errorf("email = %q, expected normalized lowercase", invite.Email)
	}
	if invite.Token == "" {
		t.Error("token should not be empty")
	}
	if invite.Status != models.InviteStatusPending {
		t.Errorf("status = %q, expected pending", invite.Status)
	}
	if !invite.ExpiresAt.After(time.Now().Add(2 * 24 * time.Hour)) {
		t.Error("expiry should honor the configured window")
	}

	// Duplicate pending invite for the same email conflicts.
	_, err = svc.Create(&CreateInviteRequest{
		ProjectID: project.ID,
		Email:     "newtester@example.com",
		Role:      models.RoleManager,
	}, owner.ID)
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Errorf("kind = %v, expected conflict for duplicate pending invite", apperr.KindOf(err))
	}
}

func TestInviteCreate_InvalidRole(t *testing.T) {
	db := setupTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")
	project := createTestProject(t, db, owner.ID)
	svc := NewInviteService(db, nil)

	_, err := svc.Create(&CreateInviteRequest{
		ProjectID: project.ID,
		Email:     "x@example.com",
		Role:      "superuser",
	}, owner.ID)
	if apperr.KindOf(err) != apperr.KindInvalidInput {
		t.Errorf("kind = %v, expected invalid input", apperr.KindOf(err))
	}
}

func TestInviteCreate_ProjectNotFound(t *testing.T) {
	db := setupTestDB(t)
	createTestUser(t, db, "owner@example.com")
	svc := NewInviteService(db, nil)

	_, err := svc.Create(&CreateInviteRequest{
		ProjectID: 999,
		Email:     "x@example.com",
		Role:      models.RoleTester,
	}, 1)
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("kind = %v, expected not found", apperr.KindOf(err))
	}
}

func TestInviteDecline(t *testing.T) {
	db := setupTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")
	project := createTestProject(t, db, owner.ID)
	invite := createTestInvite(t, db, project.ID, "x@example.com", models.RoleTester,
		models.InviteStatusPending, time.Now().Add(24*time.Hour))

	svc := NewInviteService(db, nil)
	declined, err := svc.Decline(invite.Token)
	if err != nil {
		t.Fatalf("Decline() error = %v", err)
	}
	if declined.Status != models.InviteStatusDeclined {
		t.Errorf("status = %q, expected declined", declined.Status)
	}
	if declined.DeclinedAt == nil {
		t.Error("DeclinedAt should be set")
	}

	// Declining again is a no-op success.
	again, err := svc.Decline(invite.Token)
	if err != nil {
		t.Fatalf("second Decline() error = %v", err)
	}
	if again.Status != models.InviteStatusDeclined {
		t.Errorf("status = %q, expected declined", again.Status)
	}
}

func TestInviteDecline_Terminal(t *testing.T) {
	db := setupTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")
	project := createTestProject(t, db, owner.ID)
	svc := NewInviteService(db, nil)

	accepted := createTestInvite(t, db, project.ID, "a@example.com", models.RoleTester,
		models.InviteStatusAccepted, time.Now().Add(24*time.Hour))
	if _, err := svc.Decline(accepted.Token); apperr.KindOf(err) != apperr.KindConflict {
		t.Errorf("declining accepted invite: kind = %v, expected conflict", apperr.KindOf(err))
	}

	expired := createTestInvite(t, db, project.ID, "b@example.com", models.RoleTester,
		models.InviteStatusExpired, time.Now().Add(24*time.Hour))
	if _, err := svc.Decline(expired.Token); apperr.KindOf(err) != apperr.KindGone {
		t.Errorf("declining expired invite: kind = %v, expected gone", apperr.KindOf(err))
	}
}

func TestExpireStale(t *testing.T) {
	db := setupTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")
	project := createTestProject(t, db, owner.ID)
	svc := NewInviteService(db, nil)

	stale := createTestInvite(t, db, project.ID, "stale@example.com", models.RoleTester,
		models.InviteStatusPending, time.Now().Add(-time.Hour))
	fresh := createTestInvite(t, db, project.ID, "fresh@example.com", models.RoleTester,
		models.InviteStatusPending, time.Now().Add(time.Hour))

	expired, err := svc.ExpireStale()
	if err != nil {
		t.Fatalf("ExpireStale() error = %v", err)
	}
	if expired != 1 {
		t.Errorf("expired = %d, expected 1", expired)
	}

	var stored models.Invite
	db.First(&stored, stale.ID)
	if stored.Status != models.InviteStatusExpired {
		t.Errorf("stale invite status = %q, expected expired", stored.Status)
	}
	stored = models.Invite{}
	db.First(&stored, fresh.ID)
	if stored.Status != models.InviteStatusPending {
		t.Errorf("fresh invite status = %q, expected pending", stored.Status)
	}
}
