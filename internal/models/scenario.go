package models

import (
	"time"

	"gorm.io/gorm"
)

// Scenario priorities.
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// ValidPriority reports whether p is a known priority.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// TestScenario is an individual test case with ordered steps, belonging to
// a test package. Tags are persisted as a JSON-array string; the services
// expose them as []string and never touch the serialized form directly.
type TestScenario struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	PackageID     uint           `gorm:"index;not null" json:"package_id"`
	Package       *TestPackage   `gorm:"foreignKey:PackageID" json:"package,omitempty"`
	ProjectID     uint           `gorm:"index;not null" json:"project_id"`
	Title         string         `gorm:"size:300;not null" json:"title"`
	Description   string         `gorm:"type:text" json:"description"`
	Type          string         `gorm:"size:50;not null" json:"type"`
	Priority      string         `gorm:"size:20;not null" json:"priority"`
	Tags          string         `gorm:"size:1000" json:"-"` // JSON array, e.g. ["login","smoke"]
	Environment   string         `gorm:"size:200" json:"environment"`
	AssigneeEmail string         `gorm:"size:255" json:"assignee_email"` // informational, validated at creation
	TesterID      *uint          `gorm:"index" json:"tester_id"`
	Tester        *User          `gorm:"foreignKey:TesterID" json:"tester,omitempty"`
	ApproverID    *uint          `gorm:"index" json:"approver_id"`
	Approver      *User          `gorm:"foreignKey:ApproverID" json:"approver,omitempty"`
	Steps         []ScenarioStep `gorm:"foreignKey:ScenarioID" json:"steps,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (TestScenario) TableName() string { return "test_scenarios" }

// ScenarioStep is one ordered step of a scenario. Order is 1-based and
// assigned by creation sequence, never taken from the caller.
type ScenarioStep struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ScenarioID uint      `gorm:"index;not null" json:"scenario_id"`
	Action     string    `gorm:"type:text;not null" json:"action"`
	Expected   string    `gorm:"type:text" json:"expected"`
	Order      int       `gorm:"column:step_order;not null" json:"order"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (ScenarioStep) TableName() string { return "scenario_steps" }
