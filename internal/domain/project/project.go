package project

import (
	"time"

	"github.com/fieldops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Status represents the lifecycle status of a project
type Status string

const (
	// StatusPlanning is the pre-engagement status before any purchase
	// order has been received
	StatusPlanning Status = "PLANNING"
	// StatusOngoing means the project has at least one purchase order
	StatusOngoing Status = "ONGOING"
	// StatusCompleted means the project has been fully billed
	StatusCompleted Status = "COMPLETED"
)

// IsValid checks if the status is a valid project Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPlanning, StatusOngoing, StatusCompleted:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// Project is the owning entity for purchase orders and invoices. Its status
// moves as a side effect of financial document operations: the first PO
// activates it, deleting the last PO reverts it, and reaching 100%
// cumulative billing completes it.
type Project struct {
	shared.BaseAggregateRoot
	ProjectCode  string           `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name         string           `gorm:"type:varchar(200);not null"`
	ClientName   string           `gorm:"type:varchar(200)"`
	Status       Status           `gorm:"type:varchar(20);not null;default:'PLANNING'"`
	PlannedHours *decimal.Decimal `gorm:"type:decimal(10,2)"`
	ActivatedAt  *time.Time
	CompletedAt  *time.Time
}

// TableName returns the table name for GORM
func (Project) TableName() string {
	return "projects"
}

// NewProject creates a new project in the pre-engagement status
func NewProject(projectCode, name, clientName string) (*Project, error) {
	if projectCode == "" {
		return nil, shared.NewDomainError("INVALID_PROJECT_CODE", "Project code cannot be empty")
	}
	if len(projectCode) > 50 {
		return nil, shared.NewDomainError("INVALID_PROJECT_CODE", "Project code cannot exceed 50 characters")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_PROJECT_NAME", "Project name cannot be empty")
	}

	return &Project{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProjectCode:       projectCode,
		Name:              name,
		ClientName:        clientName,
		Status:            StatusPlanning,
	}, nil
}

// Activate promotes the project from PLANNING to ONGOING when its first
// purchase order is received. No-op if already past planning.
func (p *Project) Activate(plannedHours *decimal.Decimal) bool {
	if p.Status != StatusPlanning {
		return false
	}

	now := time.Now()
	p.Status = StatusOngoing
	p.ActivatedAt = &now
	if plannedHours != nil {
		p.PlannedHours = plannedHours
	}
	p.UpdatedAt = now
	p.IncrementVersion()

	p.AddDomainEvent(NewProjectActivatedEvent(p))

	return true
}

// RevertToPlanning is the exact mirror of Activate, applied when the last
// purchase order of the project is deleted
func (p *Project) RevertToPlanning() error {
	if p.Status != StatusOngoing {
		return shared.NewDomainError("INVALID_STATE", "Only ongoing projects can revert to planning")
	}

	p.Status = StatusPlanning
	p.ActivatedAt = nil
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewProjectRevertedEvent(p))

	return nil
}

// Complete marks the project fully billed. Idempotent: completing an
// already-completed project is a no-op and returns false.
func (p *Project) Complete() bool {
	if p.Status == StatusCompleted {
		return false
	}

	now := time.Now()
	p.Status = StatusCompleted
	p.CompletedAt = &now
	p.UpdatedAt = now
	p.IncrementVersion()

	p.AddDomainEvent(NewProjectCompletedEvent(p))

	return true
}

// IsCompleted returns true if the project has been fully billed
func (p *Project) IsCompleted() bool {
	return p.Status == StatusCompleted
}
