package models

import (
	"time"

	"gorm.io/gorm"
)

// Package statuses. Approved is terminal and blocks scenario creation.
const (
	PackageStatusDraft      = "draft"
	PackageStatusInProgress = "in_progress"
	PackageStatusApproved   = "approved"
)

// Scenario/package types.
const (
	TestTypeFunctional  = "functional"
	TestTypeRegression  = "regression"
	TestTypeSmoke       = "smoke"
	TestTypePerformance = "performance"
	TestTypeExploratory = "exploratory"
)

// ValidTestType reports whether t is a known test type.
func ValidTestType(t string) bool {
	switch t {
	case TestTypeFunctional, TestTypeRegression, TestTypeSmoke,
		TestTypePerformance, TestTypeExploratory:
		return true
	}
	return false
}

// TestPackage is a named grouping of test scenarios within a project,
// with its own approval lifecycle.
type TestPackage struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	ProjectID uint           `gorm:"index;not null" json:"project_id"`
	Project   *Project       `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Name      string         `gorm:"size:200;not null" json:"name"`
	Type      string         `gorm:"size:50;not null" json:"type"`
	Status    string         `gorm:"size:20;default:draft" json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (TestPackage) TableName() string { return "test_packages" }

// Approved reports whether the package has reached its terminal state.
func (p *TestPackage) Approved() bool {
	return p.Status == PackageStatusApproved
}
