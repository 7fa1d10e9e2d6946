package services

import (
	"testing"

	"github.com/qatrace/qatrace/backend/internal/models"
	"github.com/qatrace/qatrace/backend/pkg/apperr"
)

func TestPackageCreate(t *testing.T) {
	db := setupTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")
	project := createTestProject(t, db, owner.ID)
	svc := NewPackageService(db)

	pkg, err := svc.Create(&CreatePackageRequest{
		ProjectID: project.ID,
		Name:      "Release 2.0",
		Type:      models.TestTypeRegression,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if pkg.Status != models.PackageStatusDraft {
		t.Errorf("status = %q, expected new packages to start as draft", pkg.Status)
	}

	tests := []struct {
		name string
		req  CreatePackageRequest
		kind apperr.Kind
	}{
		{"blank name", CreatePackageRequest{ProjectID: project.ID, Name: " ", Type: models.TestTypeSmoke}, apperr.KindInvalidInput},
		{"bad type", CreatePackageRequest{ProjectID: project.ID, Name: "x", Type: "adhoc"}, apperr.KindInvalidInput},
		{"unknown project", CreatePackageRequest{ProjectID: 999, Name: "x", Type: models.TestTypeSmoke}, apperr.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(&tt.req); apperr.KindOf(err) != tt.kind {
				t.Errorf("kind = %v, expected %v", apperr.KindOf(err), tt.kind)
			}
		})
	}
}

func TestPackageGetByID_ProjectScoped(t *testing.T) {
	db := setupTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")
	project := createTestProject(t, db, owner.ID)
	pkg := createTestPackage(t, db, project.ID, models.TestTypeFunctional, models.PackageStatusDraft)
	svc := NewPackageService(db)

	if _, err := svc.GetByID(pkg.ID, project.ID); err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if _, err := svc.GetByID(pkg.ID, project.ID+1); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("kind = %v, expected not found under wrong project", apperr.KindOf(err))
	}
}

func TestPackageApprove(t *testing.T) {
	db := setupTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")
	project := createTestProject(t, db, owner.ID)
	pkg := createTestPackage(t, db, project.ID, models.TestTypeFunctional, models.PackageStatusDraft)
	svc := NewPackageService(db)

	approved, err := svc.Approve(pkg.ID, project.ID)
	if err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	if approved.Status != models.PackageStatusApproved {
		t.Errorf("status = %q, expected approved", approved.Status)
	}

	var stored models.TestPackage
	if err := db.First(&stored, pkg.ID).Error; err != nil {
		t.Fatalf("reload package: %v", err)
	}
	if stored.Status != models.PackageStatusApproved {
		t.Errorf("stored status = %q, expected approved", stored.Status)
	}

	if _, err := svc.Approve(pkg.ID, project.ID); apperr.KindOf(err) != apperr.KindConflict {
		t.Errorf("second approve kind = %v, expected conflict", apperr.KindOf(err))
	}
}

func TestPackageListByProject(t *testing.T) {
	db := setupTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")
	project := createTestProject(t, db, owner.ID)
	other := createTestProject(t, db, owner.ID)
	createTestPackage(t, db, project.ID, models.TestTypeSmoke, models.PackageStatusDraft)
	createTestPackage(t, db, project.ID, models.TestTypeRegression, models.PackageStatusDraft)
	createTestPackage(t, db, other.ID, models.TestTypeSmoke, models.PackageStatusDraft)
	svc := NewPackageService(db)

	pkgs, err := svc.ListByProject(project.ID)
	if err != nil {
		t.Fatalf("ListByProject() error = %v", err)
	}
	if len(pkgs) != 2 {
		t.Errorf("packages = %d, expected 2 scoped to the project", len(pkgs))
	}
}
