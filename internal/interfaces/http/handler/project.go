package handler

import (
	"github.com/gin-gonic/gin"

	projapp "github.com/fieldops/backend/internal/application/project"
	"github.com/fieldops/backend/internal/interfaces/http/middleware"
)

// ProjectHandler handles project API endpoints. Projects move through
// their lifecycle as side effects of purchase order and invoice
// operations; only creation and queries are exposed here.
type ProjectHandler struct {
	BaseHandler
	projectService *projapp.ProjectService
}

// NewProjectHandler creates a new ProjectHandler
func NewProjectHandler(projectService *projapp.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

// Create pre-registers a project in planning state
func (h *ProjectHandler) Create(c *gin.Context) {
	var req projapp.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+middleware.ValidationErrorMessage(err))
		return
	}

	p, err := h.projectService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, p)
}

// GetByCode retrieves a project by its code
func (h *ProjectHandler) GetByCode(c *gin.Context) {
	code := c.Param("project_code")
	if code == "" {
		h.BadRequest(c, "Project code is required")
		return
	}

	p, err := h.projectService.GetByCode(c.Request.Context(), code)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, p)
}

// List returns projects matching the filter
func (h *ProjectHandler) List(c *gin.Context) {
	var filter projapp.ProjectListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	projects, total, err := h.projectService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	h.SuccessWithMeta(c, projects, total, page, pageSize)
}
