package handler

import (
	"github.com/gin-gonic/gin"

	curapp "github.com/fieldops/backend/internal/application/currency"
	"github.com/fieldops/backend/internal/interfaces/http/middleware"
)

// CurrencyHandler handles exchange rate API endpoints
type CurrencyHandler struct {
	BaseHandler
	currencyService *curapp.CurrencyService
}

// NewCurrencyHandler creates a new CurrencyHandler
func NewCurrencyHandler(currencyService *curapp.CurrencyService) *CurrencyHandler {
	return &CurrencyHandler{currencyService: currencyService}
}

// SetRate appends a rate to the ledger. Corrections are new rows, never
// updates.
func (h *CurrencyHandler) SetRate(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req curapp.SetExchangeRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+middleware.ValidationErrorMessage(err))
		return
	}

	rate, err := h.currencyService.SetRate(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, rate)
}

// Convert previews the MYR conversion of an amount using the rate in
// effect, without persisting anything
func (h *CurrencyHandler) Convert(c *gin.Context) {
	var req curapp.ConvertRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+middleware.ValidationErrorMessage(err))
		return
	}

	conv, err := h.currencyService.Convert(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, conv)
}

// List returns ledger rows matching the filter, newest first
func (h *CurrencyHandler) List(c *gin.Context) {
	var filter curapp.ExchangeRateListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	rates, total, err := h.currencyService.List(c.Request.Context(), filter)
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
	h.SuccessWithMeta(c, rates, total, page, pageSize)
}
