package billing

import (
	"github.com/fieldops/backend/internal/domain/shared"
	"github.com/fieldops/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeInvoice = "Invoice"

// Event type constants
const (
	EventTypeInvoiceCreated       = "InvoiceCreated"
	EventTypeInvoiceSubmitted     = "InvoiceSubmitted"
	EventTypeInvoiceApproved      = "InvoiceApproved"
	EventTypeInvoiceWithdrawn     = "InvoiceWithdrawn"
	EventTypeInvoiceSent          = "InvoiceSent"
	EventTypeInvoicePaid          = "InvoicePaid"
	EventTypeInvoiceAmountChanged = "InvoiceAmountChanged"
	EventTypeInvoiceStatusChanged = "InvoiceStatusChanged"
	EventTypeInvoiceDeleted       = "InvoiceDeleted"
)

// InvoiceCreatedEvent is raised once the invoice receives its sequence slot
type InvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber        string               `json:"invoice_number"`
	ProjectCode          string               `json:"project_code"`
	Amount               decimal.Decimal      `json:"amount"`
	Currency             valueobject.Currency `json:"currency"`
	AmountMYR            decimal.Decimal      `json:"amount_myr"`
	InvoiceSequence      int                  `json:"invoice_sequence"`
	PercentageOfTotal    decimal.Decimal      `json:"percentage_of_total"`
	CumulativePercentage decimal.Decimal      `json:"cumulative_percentage"`
	CreatedBy            *uuid.UUID           `json:"created_by,omitempty"`
}

// NewInvoiceCreatedEvent creates a new InvoiceCreatedEvent
func NewInvoiceCreatedEvent(inv *Invoice) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		BaseDomainEvent:      shared.NewBaseDomainEvent(EventTypeInvoiceCreated, AggregateTypeInvoice, inv.ID),
		InvoiceNumber:        inv.InvoiceNumber,
		ProjectCode:          inv.ProjectCode,
		Amount:               inv.Amount,
		Currency:             inv.Currency,
		AmountMYR:            inv.AmountMYR,
		InvoiceSequence:      inv.InvoiceSequence,
		PercentageOfTotal:    inv.PercentageOfTotal,
		CumulativePercentage: inv.CumulativePercentage,
		CreatedBy:            inv.CreatedBy,
	}
}

// EventType returns the event type name
func (e *InvoiceCreatedEvent) EventType() string {
	return EventTypeInvoiceCreated
}

// InvoiceSubmittedEvent is raised when a draft enters the approval queue
type InvoiceSubmittedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string    `json:"invoice_number"`
	ProjectCode   string    `json:"project_code"`
	SubmittedBy   uuid.UUID `json:"submitted_by"`
}

// NewInvoiceSubmittedEvent creates a new InvoiceSubmittedEvent
func NewInvoiceSubmittedEvent(inv *Invoice, submittedBy uuid.UUID) *InvoiceSubmittedEvent {
	return &InvoiceSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceSubmitted, AggregateTypeInvoice, inv.ID),
		InvoiceNumber:   inv.InvoiceNumber,
		ProjectCode:     inv.ProjectCode,
		SubmittedBy:     submittedBy,
	}
}

// EventType returns the event type name
func (e *InvoiceSubmittedEvent) EventType() string {
	return EventTypeInvoiceSubmitted
}

// InvoiceApprovedEvent is raised when an invoice is approved
type InvoiceApprovedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string     `json:"invoice_number"`
	ProjectCode   string     `json:"project_code"`
	ApprovedBy    *uuid.UUID `json:"approved_by,omitempty"`
}

// NewInvoiceApprovedEvent creates a new InvoiceApprovedEvent
func NewInvoiceApprovedEvent(inv *Invoice) *InvoiceApprovedEvent {
	return &InvoiceApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceApproved, AggregateTypeInvoice, inv.ID),
		InvoiceNumber:   inv.InvoiceNumber,
		ProjectCode:     inv.ProjectCode,
		ApprovedBy:      inv.ApprovedBy,
	}
}

// EventType returns the event type name
func (e *InvoiceApprovedEvent) EventType() string {
	return EventTypeInvoiceApproved
}

// InvoiceWithdrawnEvent is raised when a pending invoice returns to draft
type InvoiceWithdrawnEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string    `json:"invoice_number"`
	WithdrawnBy   uuid.UUID `json:"withdrawn_by"`
}

// NewInvoiceWithdrawnEvent creates a new InvoiceWithdrawnEvent
func NewInvoiceWithdrawnEvent(inv *Invoice, withdrawnBy uuid.UUID) *InvoiceWithdrawnEvent {
	return &InvoiceWithdrawnEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceWithdrawn, AggregateTypeInvoice, inv.ID),
		InvoiceNumber:   inv.InvoiceNumber,
		WithdrawnBy:     withdrawnBy,
	}
}

// EventType returns the event type name
func (e *InvoiceWithdrawnEvent) EventType() string {
	return EventTypeInvoiceWithdrawn
}

// InvoiceSentEvent is raised when an invoice is issued to the client
type InvoiceSentEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string `json:"invoice_number"`
	ProjectCode   string `json:"project_code"`
}

// NewInvoiceSentEvent creates a new InvoiceSentEvent
func NewInvoiceSentEvent(inv *Invoice) *InvoiceSentEvent {
	return &InvoiceSentEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceSent, AggregateTypeInvoice, inv.ID),
		InvoiceNumber:   inv.InvoiceNumber,
		ProjectCode:     inv.ProjectCode,
	}
}

// EventType returns the event type name
func (e *InvoiceSentEvent) EventType() string {
	return EventTypeInvoiceSent
}

// InvoicePaidEvent is raised when payment is recorded
type InvoicePaidEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string          `json:"invoice_number"`
	ProjectCode   string          `json:"project_code"`
	AmountMYR     decimal.Decimal `json:"amount_myr"`
}

// NewInvoicePaidEvent creates a new InvoicePaidEvent
func NewInvoicePaidEvent(inv *Invoice) *InvoicePaidEvent {
	return &InvoicePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoicePaid, AggregateTypeInvoice, inv.ID),
		InvoiceNumber:   inv.InvoiceNumber,
		ProjectCode:     inv.ProjectCode,
		AmountMYR:       inv.AmountMYR,
	}
}

// EventType returns the event type name
func (e *InvoicePaidEvent) EventType() string {
	return EventTypeInvoicePaid
}

// InvoiceAmountChangedEvent is raised when the invoiced amount changes.
// Logged distinctly from status changes so the audit trail separates the
// two even when one update carries both.
type InvoiceAmountChangedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber  string          `json:"invoice_number"`
	PreviousAmount decimal.Decimal `json:"previous_amount_myr"`
	NewAmount      decimal.Decimal `json:"new_amount_myr"`
}

// NewInvoiceAmountChangedEvent creates a new InvoiceAmountChangedEvent
func NewInvoiceAmountChangedEvent(inv *Invoice, previous decimal.Decimal) *InvoiceAmountChangedEvent {
	return &InvoiceAmountChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceAmountChanged, AggregateTypeInvoice, inv.ID),
		InvoiceNumber:   inv.InvoiceNumber,
		PreviousAmount:  previous,
		NewAmount:       inv.AmountMYR,
	}
}

// EventType returns the event type name
func (e *InvoiceAmountChangedEvent) EventType() string {
	return EventTypeInvoiceAmountChanged
}

// PriorState returns the invoiced amount before the change
func (e *InvoiceAmountChangedEvent) PriorState() interface{} {
	return map[string]interface{}{"amount_myr": e.PreviousAmount}
}

// InvoiceStatusChangedEvent is raised on every lifecycle transition
type InvoiceStatusChangedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber  string `json:"invoice_number"`
	PreviousStatus Status `json:"previous_status"`
	NewStatus      Status `json:"new_status"`
}

// NewInvoiceStatusChangedEvent creates a new InvoiceStatusChangedEvent
func NewInvoiceStatusChangedEvent(inv *Invoice, previous Status) *InvoiceStatusChangedEvent {
	return &InvoiceStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceStatusChanged, AggregateTypeInvoice, inv.ID),
		InvoiceNumber:   inv.InvoiceNumber,
		PreviousStatus:  previous,
		NewStatus:       inv.Status,
	}
}

// EventType returns the event type name
func (e *InvoiceStatusChangedEvent) EventType() string {
	return EventTypeInvoiceStatusChanged
}

// PriorState returns the status the transition left
func (e *InvoiceStatusChangedEvent) PriorState() interface{} {
	return map[string]interface{}{"status": e.PreviousStatus}
}

// InvoiceDeletedEvent is raised when an invoice is removed
type InvoiceDeletedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string `json:"invoice_number"`
	ProjectCode   string `json:"project_code"`
}

// NewInvoiceDeletedEvent creates a new InvoiceDeletedEvent
func NewInvoiceDeletedEvent(inv *Invoice) *InvoiceDeletedEvent {
	return &InvoiceDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceDeleted, AggregateTypeInvoice, inv.ID),
		InvoiceNumber:   inv.InvoiceNumber,
		ProjectCode:     inv.ProjectCode,
	}
}

// EventType returns the event type name
func (e *InvoiceDeletedEvent) EventType() string {
	return EventTypeInvoiceDeleted
}
