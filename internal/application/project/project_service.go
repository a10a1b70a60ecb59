package project

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fieldops/backend/internal/domain/project"
	"github.com/fieldops/backend/internal/domain/shared"
)

// ProjectService handles project queries and manual creation. Status moves
// are side effects of purchase order and invoice operations, not exposed
// here.
type ProjectService struct {
	projectRepo project.Repository
}

// NewProjectService creates a new ProjectService
func NewProjectService(projectRepo project.Repository) *ProjectService {
	return &ProjectService{projectRepo: projectRepo}
}

// CreateProjectRequest represents a request to pre-register a project
type CreateProjectRequest struct {
	ProjectCode string `json:"project_code" binding:"required,min=1,max=50"`
	Name        string `json:"name" binding:"required,min=1,max=200"`
	ClientName  string `json:"client_name" binding:"omitempty,max=200"`
}

// ProjectListFilter represents filter options for project lists
type ProjectListFilter struct {
	Search   string `form:"search"`
	Status   string `form:"status" binding:"omitempty,oneof=PLANNING ONGOING COMPLETED"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ProjectResponse represents a project in API responses
type ProjectResponse struct {
	ID           uuid.UUID        `json:"id"`
	ProjectCode  string           `json:"project_code"`
	Name         string           `json:"name"`
	ClientName   string           `json:"client_name,omitempty"`
	Status       string           `json:"status"`
	PlannedHours *decimal.Decimal `json:"planned_hours,omitempty"`
	ActivatedAt  *time.Time       `json:"activated_at,omitempty"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// ToProjectResponse converts a domain project to a response DTO
func ToProjectResponse(p *project.Project) ProjectResponse {
	return ProjectResponse{
		ID:           p.ID,
		ProjectCode:  p.ProjectCode,
		Name:         p.Name,
		ClientName:   p.ClientName,
		Status:       p.Status.String(),
		PlannedHours: p.PlannedHours,
		ActivatedAt:  p.ActivatedAt,
		CompletedAt:  p.CompletedAt,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// Create pre-registers a project in planning status
func (s *ProjectService) Create(ctx context.Context, req CreateProjectRequest) (*ProjectResponse, error) {
	if _, err := s.projectRepo.FindByCode(ctx, req.ProjectCode); err == nil {
		return nil, shared.ErrAlreadyExists
	} else if !shared.IsNotFound(err) {
		return nil, err
	}

	p, err := project.NewProject(req.ProjectCode, req.Name, req.ClientName)
	if err != nil {
		return nil, err
	}
	if err := s.projectRepo.Save(ctx, p); err != nil {
		return nil, err
	}

	response := ToProjectResponse(p)
	return &response, nil
}

// GetByCode retrieves a project by project code
func (s *ProjectService) GetByCode(ctx context.Context, projectCode string) (*ProjectResponse, error) {
	p, err := s.projectRepo.FindByCode(ctx, projectCode)
	if err != nil {
		return nil, err
	}
	response := ToProjectResponse(p)
	return &response, nil
}

// List retrieves projects with filtering and pagination
func (s *ProjectService) List(ctx context.Context, filter ProjectListFilter) ([]ProjectResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  "created_at",
		OrderDir: "desc",
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}

	projects, err := s.projectRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.projectRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]ProjectResponse, len(projects))
	for i := range projects {
		responses[i] = ToProjectResponse(&projects[i])
	}
	return responses, total, nil
}
