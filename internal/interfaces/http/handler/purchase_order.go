package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	procapp "github.com/fieldops/backend/internal/application/procurement"
	"github.com/fieldops/backend/internal/interfaces/http/middleware"
)

// PurchaseOrderHandler handles purchase order API endpoints
type PurchaseOrderHandler struct {
	BaseHandler
	poService *procapp.PurchaseOrderService
}

// NewPurchaseOrderHandler creates a new PurchaseOrderHandler
func NewPurchaseOrderHandler(poService *procapp.PurchaseOrderService) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{poService: poService}
}

// AttachmentUploadRequest requests a presigned upload URL for a PO document
type AttachmentUploadRequest struct {
	FileName    string `json:"file_name" binding:"required,min=1,max=255"`
	ContentType string `json:"content_type" binding:"required,min=1,max=100"`
}

// AttachmentURLResponse carries a presigned URL and its expiry
type AttachmentURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Create registers a new purchase order, creating or activating its project
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req procapp.CreatePurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+middleware.ValidationErrorMessage(err))
		return
	}

	po, err := h.poService.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, po)
}

// CreateRevision supersedes the given revision with a new active one
func (h *PurchaseOrderHandler) CreateRevision(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid purchase order ID format")
		return
	}

	var req procapp.CreateRevisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+middleware.ValidationErrorMessage(err))
		return
	}

	po, err := h.poService.CreateRevision(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, po)
}

// AdjustAmount applies a manual MYR override to the active revision
func (h *PurchaseOrderHandler) AdjustAmount(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid purchase order ID format")
		return
	}

	var req procapp.AdjustAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+middleware.ValidationErrorMessage(err))
		return
	}

	po, err := h.poService.AdjustAmount(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, po)
}

// UpdateStatus moves the purchase order through its commercial lifecycle
func (h *PurchaseOrderHandler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid purchase order ID format")
		return
	}

	var req procapp.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+middleware.ValidationErrorMessage(err))
		return
	}

	po, err := h.poService.UpdateStatus(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, po)
}

// Update edits non-financial fields of a purchase order
func (h *PurchaseOrderHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid purchase order ID format")
		return
	}

	var req procapp.UpdatePurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+middleware.ValidationErrorMessage(err))
		return
	}

	po, err := h.poService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, po)
}

// Delete removes a purchase order revision, reverting the project to
// planning when it was the last one
func (h *PurchaseOrderHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid purchase order ID format")
		return
	}

	if err := h.poService.Delete(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// GetByID retrieves a purchase order revision by ID
func (h *PurchaseOrderHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid purchase order ID format")
		return
	}

	po, err := h.poService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, po)
}

// GetActive retrieves the active revision for a PO number base
func (h *PurchaseOrderHandler) GetActive(c *gin.Context) {
	base := c.Param("po_number_base")
	if base == "" {
		h.BadRequest(c, "PO number is required")
		return
	}

	po, err := h.poService.GetActive(c.Request.Context(), base)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, po)
}

// GetHistory retrieves the full revision chain for a PO number base
func (h *PurchaseOrderHandler) GetHistory(c *gin.Context) {
	base := c.Param("po_number_base")
	if base == "" {
		h.BadRequest(c, "PO number is required")
		return
	}

	history, err := h.poService.GetHistory(c.Request.Context(), base)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, history)
}

// List returns purchase orders matching the filter
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	var filter procapp.PurchaseOrderListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	pos, total, err := h.poService.List(c.Request.Context(), filter)
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
	h.SuccessWithMeta(c, pos, total, page, pageSize)
}

// ProjectRevenue returns the MYR revenue roll-up for a project
func (h *PurchaseOrderHandler) ProjectRevenue(c *gin.Context) {
	projectCode := c.Param("project_code")
	if projectCode == "" {
		h.BadRequest(c, "Project code is required")
		return
	}

	revenue, err := h.poService.ProjectRevenue(c.Request.Context(), projectCode)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, revenue)
}

// AttachmentUploadURL returns a presigned URL for uploading the PO document
func (h *PurchaseOrderHandler) AttachmentUploadURL(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid purchase order ID format")
		return
	}

	var req AttachmentUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+middleware.ValidationErrorMessage(err))
		return
	}

	url, expiresAt, err := h.poService.AttachmentUploadURL(c.Request.Context(), id, req.FileName, req.ContentType)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, AttachmentURLResponse{URL: url, ExpiresAt: expiresAt})
}

// AttachmentDownloadURL returns a presigned URL for downloading the PO document
func (h *PurchaseOrderHandler) AttachmentDownloadURL(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid purchase order ID format")
		return
	}

	url, expiresAt, err := h.poService.AttachmentDownloadURL(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, AttachmentURLResponse{URL: url, ExpiresAt: expiresAt})
}
