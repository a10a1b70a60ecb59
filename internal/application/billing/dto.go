package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fieldops/backend/internal/domain/billing"
)

// CreateInvoiceRequest represents a request to create a draft invoice
type CreateInvoiceRequest struct {
	InvoiceNumber     string           `json:"invoice_number" binding:"required,min=1,max=50"`
	ProjectCode       string           `json:"project_code" binding:"required,min=1,max=50"`
	Amount            decimal.Decimal  `json:"amount" binding:"required"`
	Currency          string           `json:"currency" binding:"required,currency"`
	ManualRate        *decimal.Decimal `json:"manual_rate"`
	InvoiceDate       *time.Time       `json:"invoice_date"`
	DueDate           *time.Time       `json:"due_date"`
	PercentageOfTotal decimal.Decimal  `json:"percentage_of_total" binding:"required"`
	Remark            string           `json:"remark" binding:"omitempty,max=500"`
}

// UpdateInvoiceRequest represents a request to edit an invoice. A changed
// percentage triggers a cumulative recalculation across the project.
type UpdateInvoiceRequest struct {
	Amount            *decimal.Decimal `json:"amount"`
	Currency          *string          `json:"currency" binding:"omitempty,len=3"`
	ManualRate        *decimal.Decimal `json:"manual_rate"`
	InvoiceDate       *time.Time       `json:"invoice_date"`
	DueDate           *time.Time       `json:"due_date"`
	PercentageOfTotal *decimal.Decimal `json:"percentage_of_total"`
	Remark            *string          `json:"remark" binding:"omitempty,max=500"`
}

// InvoiceListFilter represents filter options for invoice lists
type InvoiceListFilter struct {
	Search      string     `form:"search"`
	ProjectCode string     `form:"project_code"`
	Status      string     `form:"status" binding:"omitempty,oneof=DRAFT PENDING_APPROVAL APPROVED SENT PAID OVERDUE"`
	StartDate   *time.Time `form:"start_date"`
	EndDate     *time.Time `form:"end_date"`
	Page        int        `form:"page"`
	PageSize    int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy     string     `form:"order_by"`
	OrderDir    string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID                     uuid.UUID       `json:"id"`
	InvoiceNumber          string          `json:"invoice_number"`
	ProjectCode            string          `json:"project_code"`
	Amount                 decimal.Decimal `json:"amount"`
	Currency               string          `json:"currency"`
	AmountMYR              decimal.Decimal `json:"amount_myr"`
	ExchangeRate           decimal.Decimal `json:"exchange_rate"`
	ExchangeRateSource     string          `json:"exchange_rate_source"`
	InvoiceDate            time.Time       `json:"invoice_date"`
	DueDate                *time.Time      `json:"due_date,omitempty"`
	PercentageOfTotal      decimal.Decimal `json:"percentage_of_total"`
	InvoiceSequence        int             `json:"invoice_sequence"`
	CumulativePercentage   decimal.Decimal `json:"cumulative_percentage"`
	Status                 string          `json:"status"`
	SubmittedForApprovalAt *time.Time      `json:"submitted_for_approval_at,omitempty"`
	ApprovedBy             *uuid.UUID      `json:"approved_by,omitempty"`
	ApprovedAt             *time.Time      `json:"approved_at,omitempty"`
	SentAt                 *time.Time      `json:"sent_at,omitempty"`
	PaidAt                 *time.Time      `json:"paid_at,omitempty"`
	Remark                 string          `json:"remark,omitempty"`
	CreatedBy              *uuid.UUID      `json:"created_by,omitempty"`
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`
	Version                int             `json:"version"`
}

// ToInvoiceResponse converts a domain invoice to a response DTO
func ToInvoiceResponse(inv *billing.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:                     inv.ID,
		InvoiceNumber:          inv.InvoiceNumber,
		ProjectCode:            inv.ProjectCode,
		Amount:                 inv.Amount,
		Currency:               inv.Currency.String(),
		AmountMYR:              inv.AmountMYR,
		ExchangeRate:           inv.ExchangeRate,
		ExchangeRateSource:     inv.ExchangeRateSource.String(),
		InvoiceDate:            inv.InvoiceDate,
		DueDate:                inv.DueDate,
		PercentageOfTotal:      inv.PercentageOfTotal,
		InvoiceSequence:        inv.InvoiceSequence,
		CumulativePercentage:   inv.CumulativePercentage,
		Status:                 inv.Status.String(),
		SubmittedForApprovalAt: inv.SubmittedForApprovalAt,
		ApprovedBy:             inv.ApprovedBy,
		ApprovedAt:             inv.ApprovedAt,
		SentAt:                 inv.SentAt,
		PaidAt:                 inv.PaidAt,
		Remark:                 inv.Remark,
		CreatedBy:              inv.CreatedBy,
		CreatedAt:              inv.CreatedAt,
		UpdatedAt:              inv.UpdatedAt,
		Version:                inv.GetVersion(),
	}
}

// ToInvoiceResponses converts a slice of domain invoices
func ToInvoiceResponses(invs []billing.Invoice) []InvoiceResponse {
	responses := make([]InvoiceResponse, len(invs))
	for i := range invs {
		responses[i] = ToInvoiceResponse(&invs[i])
	}
	return responses
}

// CreateInvoiceResponse wraps the created invoice with the transaction
// outcome
type CreateInvoiceResponse struct {
	Invoice          InvoiceResponse `json:"invoice"`
	ProjectCompleted bool            `json:"project_completed"`
}

// OverdueCheckResponse reports the result of the scheduled overdue sweep
type OverdueCheckResponse struct {
	Checked     int      `json:"checked"`
	MarkedCount int      `json:"marked_count"`
	Marked      []string `json:"marked,omitempty"`
}
