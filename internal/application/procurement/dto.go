package procurement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fieldops/backend/internal/domain/procurement"
)

// CreatePurchaseOrderRequest represents a request to create a purchase order
type CreatePurchaseOrderRequest struct {
	PONumber     string           `json:"po_number" binding:"required,min=1,max=50"`
	ProjectCode  string           `json:"project_code" binding:"required,min=1,max=50"`
	Description  string           `json:"description" binding:"omitempty,max=500"`
	Amount       decimal.Decimal  `json:"amount" binding:"required"`
	Currency     string           `json:"currency" binding:"required,currency"`
	ManualRate   *decimal.Decimal `json:"manual_rate"`
	PlannedHours *decimal.Decimal `json:"planned_hours"`
	ReceivedDate *time.Time       `json:"received_date"`
	DueDate      *time.Time       `json:"due_date"`
}

// CreateRevisionRequest represents a request to revise a purchase order
type CreateRevisionRequest struct {
	Amount       decimal.Decimal  `json:"amount" binding:"required"`
	Currency     string           `json:"currency" binding:"required,currency"`
	ManualRate   *decimal.Decimal `json:"manual_rate"`
	Description  string           `json:"description" binding:"omitempty,max=500"`
	ReceivedDate *time.Time       `json:"received_date"`
}

// AdjustAmountRequest represents a manual MYR override request
type AdjustAmountRequest struct {
	AmountMYRAdjusted decimal.Decimal `json:"amount_myr_adjusted" binding:"required"`
	Reason            string          `json:"reason" binding:"required,min=10,max=500"`
}

// UpdatePurchaseOrderRequest represents a request to edit non-financial fields
type UpdatePurchaseOrderRequest struct {
	Description *string    `json:"description" binding:"omitempty,max=500"`
	DueDate     *time.Time `json:"due_date"`
}

// UpdateStatusRequest represents a commercial status move
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=RECEIVED IN_PROGRESS INVOICED PAID"`
}

// PurchaseOrderListFilter represents filter options for purchase order lists
type PurchaseOrderListFilter struct {
	Search      string     `form:"search"`
	ProjectCode string     `form:"project_code"`
	Status      string     `form:"status" binding:"omitempty,oneof=RECEIVED IN_PROGRESS INVOICED PAID"`
	ActiveOnly  bool       `form:"active_only"`
	StartDate   *time.Time `form:"start_date"`
	EndDate     *time.Time `form:"end_date"`
	Page        int        `form:"page"`
	PageSize    int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy     string     `form:"order_by"`
	OrderDir    string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// PurchaseOrderResponse represents a purchase order revision in API responses
type PurchaseOrderResponse struct {
	ID                 uuid.UUID        `json:"id"`
	PONumberBase       string           `json:"po_number_base"`
	PONumber           string           `json:"po_number"`
	RevisionNumber     int              `json:"revision_number"`
	ProjectCode        string           `json:"project_code"`
	Description        string           `json:"description"`
	Amount             decimal.Decimal  `json:"amount"`
	Currency           string           `json:"currency"`
	AmountMYR          decimal.Decimal  `json:"amount_myr"`
	ExchangeRate       decimal.Decimal  `json:"exchange_rate"`
	ExchangeRateSource string           `json:"exchange_rate_source"`
	AmountMYRAdjusted  *decimal.Decimal `json:"amount_myr_adjusted,omitempty"`
	AdjustmentReason   string           `json:"adjustment_reason,omitempty"`
	EffectiveAmountMYR decimal.Decimal  `json:"effective_amount_myr"`
	IsActive           bool             `json:"is_active"`
	Supersedes         *uuid.UUID       `json:"supersedes,omitempty"`
	SupersededBy       *uuid.UUID       `json:"superseded_by,omitempty"`
	Status             string           `json:"status"`
	ReceivedDate       time.Time        `json:"received_date"`
	DueDate            *time.Time       `json:"due_date,omitempty"`
	AttachmentKey      string           `json:"attachment_key,omitempty"`
	CreatedBy          *uuid.UUID       `json:"created_by,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
	Version            int              `json:"version"`
}

// ToPurchaseOrderResponse converts a domain purchase order to a response DTO
func ToPurchaseOrderResponse(po *procurement.PurchaseOrder) PurchaseOrderResponse {
	return PurchaseOrderResponse{
		ID:                 po.ID,
		PONumberBase:       po.PONumberBase,
		PONumber:           po.PONumber,
		RevisionNumber:     po.RevisionNumber,
		ProjectCode:        po.ProjectCode,
		Description:        po.Description,
		Amount:             po.Amount,
		Currency:           po.Currency.String(),
		AmountMYR:          po.AmountMYR,
		ExchangeRate:       po.ExchangeRate,
		ExchangeRateSource: po.ExchangeRateSource.String(),
		AmountMYRAdjusted:  po.AmountMYRAdjusted,
		AdjustmentReason:   po.AdjustmentReason,
		EffectiveAmountMYR: po.EffectiveAmountMYR(),
		IsActive:           po.IsActive,
		Supersedes:         po.Supersedes,
		SupersededBy:       po.SupersededBy,
		Status:             po.Status.String(),
		ReceivedDate:       po.ReceivedDate,
		DueDate:            po.DueDate,
		AttachmentKey:      po.AttachmentKey,
		CreatedBy:          po.CreatedBy,
		CreatedAt:          po.CreatedAt,
		UpdatedAt:          po.UpdatedAt,
		Version:            po.GetVersion(),
	}
}

// ToPurchaseOrderResponses converts a slice of domain purchase orders
func ToPurchaseOrderResponses(pos []procurement.PurchaseOrder) []PurchaseOrderResponse {
	responses := make([]PurchaseOrderResponse, len(pos))
	for i := range pos {
		responses[i] = ToPurchaseOrderResponse(&pos[i])
	}
	return responses
}

// ProjectRevenueResponse is the MYR revenue roll-up for a project. Only
// active revisions contribute to the total.
type ProjectRevenueResponse struct {
	ProjectCode     string          `json:"project_code"`
	ProjectStatus   string          `json:"project_status"`
	TotalRevenueMYR decimal.Decimal `json:"total_revenue_myr"`
	ActivePOCount   int64           `json:"active_po_count"`
}
