package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	billapp "github.com/fieldops/backend/internal/application/billing"
	"github.com/fieldops/backend/internal/domain/shared"
	"github.com/fieldops/backend/internal/interfaces/http/middleware"
)

// InvoiceHandler handles invoice API endpoints
type InvoiceHandler struct {
	BaseHandler
	invoiceService *billapp.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoiceService *billapp.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// Create registers a draft invoice and assigns its project sequence
func (h *InvoiceHandler) Create(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req billapp.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+middleware.ValidationErrorMessage(err))
		return
	}

	resp, err := h.invoiceService.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, resp)
}

// Update edits an invoice. A changed percentage recalculates cumulative
// progress across the project chain.
func (h *InvoiceHandler) Update(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	var req billapp.UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+middleware.ValidationErrorMessage(err))
		return
	}

	inv, err := h.invoiceService.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, inv)
}

// Submit moves a draft invoice into the approval queue
func (h *InvoiceHandler) Submit(c *gin.Context) {
	h.transition(c, h.invoiceService.Submit)
}

// Approve approves a pending invoice
func (h *InvoiceHandler) Approve(c *gin.Context) {
	h.transition(c, h.invoiceService.Approve)
}

// Withdraw pulls a pending invoice back to draft
func (h *InvoiceHandler) Withdraw(c *gin.Context) {
	h.transition(c, h.invoiceService.Withdraw)
}

// MarkSent marks an approved invoice as sent to the client
func (h *InvoiceHandler) MarkSent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	inv, err := h.invoiceService.MarkSent(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, inv)
}

// MarkPaid marks a sent or overdue invoice as paid
func (h *InvoiceHandler) MarkPaid(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	inv, err := h.invoiceService.MarkPaid(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, inv)
}

// transition runs an actor-guarded state change on an invoice
func (h *InvoiceHandler) transition(c *gin.Context, fn func(context.Context, shared.Actor, uuid.UUID) (*billapp.InvoiceResponse, error)) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	inv, err := fn(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, inv)
}

// Delete removes an invoice, recomputing cumulative progress for the
// remaining chain
func (h *InvoiceHandler) Delete(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	if err := h.invoiceService.Delete(c.Request.Context(), actor, id); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// GetByID retrieves an invoice by ID
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	inv, err := h.invoiceService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, inv)
}

// List returns invoices matching the filter
func (h *InvoiceHandler) List(c *gin.Context) {
	var filter billapp.InvoiceListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	invs, total, err := h.invoiceService.List(c.Request.Context(), filter)
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
	h.SuccessWithMeta(c, invs, total, page, pageSize)
}

// CheckOverdue runs an immediate overdue sweep
func (h *InvoiceHandler) CheckOverdue(c *gin.Context) {
	result, err := h.invoiceService.CheckOverdue(c.Request.Context(), time.Now())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}
