package project

import (
	"github.com/fieldops/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeProject = "Project"

// Event type constants
const (
	EventTypeProjectActivated = "ProjectActivated"
	EventTypeProjectReverted  = "ProjectReverted"
	EventTypeProjectCompleted = "ProjectCompleted"
)

// ProjectActivatedEvent is raised when a project leaves the pre-engagement status
type ProjectActivatedEvent struct {
	shared.BaseDomainEvent
	ProjectCode string `json:"project_code"`
	Name        string `json:"name"`
}

// NewProjectActivatedEvent creates a new ProjectActivatedEvent
func NewProjectActivatedEvent(p *Project) *ProjectActivatedEvent {
	return &ProjectActivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProjectActivated, AggregateTypeProject, p.ID),
		ProjectCode:     p.ProjectCode,
		Name:            p.Name,
	}
}

// EventType returns the event type name
func (e *ProjectActivatedEvent) EventType() string {
	return EventTypeProjectActivated
}

// ProjectRevertedEvent is raised when a project falls back to planning after
// its last purchase order is deleted
type ProjectRevertedEvent struct {
	shared.BaseDomainEvent
	ProjectCode string `json:"project_code"`
}

// NewProjectRevertedEvent creates a new ProjectRevertedEvent
func NewProjectRevertedEvent(p *Project) *ProjectRevertedEvent {
	return &ProjectRevertedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProjectReverted, AggregateTypeProject, p.ID),
		ProjectCode:     p.ProjectCode,
	}
}

// EventType returns the event type name
func (e *ProjectRevertedEvent) EventType() string {
	return EventTypeProjectReverted
}

// ProjectCompletedEvent is raised when cumulative billing reaches 100%
type ProjectCompletedEvent struct {
	shared.BaseDomainEvent
	ProjectCode string `json:"project_code"`
	Name        string `json:"name"`
}

// NewProjectCompletedEvent creates a new ProjectCompletedEvent
func NewProjectCompletedEvent(p *Project) *ProjectCompletedEvent {
	return &ProjectCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProjectCompleted, AggregateTypeProject, p.ID),
		ProjectCode:     p.ProjectCode,
		Name:            p.Name,
	}
}

// EventType returns the event type name
func (e *ProjectCompletedEvent) EventType() string {
	return EventTypeProjectCompleted
}
