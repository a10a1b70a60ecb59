package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	auditapp "github.com/fieldops/backend/internal/application/audit"
)

// ActivityHandler exposes the read-only audit trail
type ActivityHandler struct {
	BaseHandler
	activityService *auditapp.ActivityService
}

// NewActivityHandler creates a new ActivityHandler
func NewActivityHandler(activityService *auditapp.ActivityService) *ActivityHandler {
	return &ActivityHandler{activityService: activityService}
}

// ListByEntity returns the audit trail for a single entity, newest first
func (h *ActivityHandler) ListByEntity(c *gin.Context) {
	entityType := c.Param("entity_type")
	if entityType == "" {
		h.BadRequest(c, "Entity type is required")
		return
	}

	entityID, err := uuid.Parse(c.Param("entity_id"))
	if err != nil {
		h.BadRequest(c, "Invalid entity ID format")
		return
	}

	logs, err := h.activityService.ListByEntity(c.Request.Context(), entityType, entityID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, logs)
}

// List returns audit entries matching the filter
func (h *ActivityHandler) List(c *gin.Context) {
	var filter auditapp.ActivityLogListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	logs, total, err := h.activityService.List(c.Request.Context(), filter)
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
	h.SuccessWithMeta(c, logs, total, page, pageSize)
}
