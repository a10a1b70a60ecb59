package procurement

import (
	"github.com/fieldops/backend/internal/domain/shared"
	"github.com/fieldops/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypePurchaseOrder = "PurchaseOrder"

// Event type constants
const (
	EventTypePurchaseOrderCreated       = "PurchaseOrderCreated"
	EventTypePurchaseOrderRevised       = "PurchaseOrderRevised"
	EventTypePurchaseOrderAdjusted      = "PurchaseOrderAdjusted"
	EventTypePurchaseOrderStatusChanged = "PurchaseOrderStatusChanged"
	EventTypePurchaseOrderDeleted       = "PurchaseOrderDeleted"
)

// PurchaseOrderCreatedEvent is raised when the first revision of a purchase
// order is created
type PurchaseOrderCreatedEvent struct {
	shared.BaseDomainEvent
	PONumber    string               `json:"po_number"`
	ProjectCode string               `json:"project_code"`
	Amount      decimal.Decimal      `json:"amount"`
	Currency    valueobject.Currency `json:"currency"`
	AmountMYR   decimal.Decimal      `json:"amount_myr"`
	CreatedBy   *uuid.UUID           `json:"created_by,omitempty"`
}

// NewPurchaseOrderCreatedEvent creates a new PurchaseOrderCreatedEvent
func NewPurchaseOrderCreatedEvent(po *PurchaseOrder) *PurchaseOrderCreatedEvent {
	return &PurchaseOrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderCreated, AggregateTypePurchaseOrder, po.ID),
		PONumber:        po.PONumber,
		ProjectCode:     po.ProjectCode,
		Amount:          po.Amount,
		Currency:        po.Currency,
		AmountMYR:       po.AmountMYR,
		CreatedBy:       po.CreatedBy,
	}
}

// EventType returns the event type name
func (e *PurchaseOrderCreatedEvent) EventType() string {
	return EventTypePurchaseOrderCreated
}

// PurchaseOrderRevisedEvent is raised on the new revision when it supersedes
// the original
type PurchaseOrderRevisedEvent struct {
	shared.BaseDomainEvent
	PONumberBase   string          `json:"po_number_base"`
	RevisionNumber int             `json:"revision_number"`
	SupersededID   uuid.UUID       `json:"superseded_id"`
	PreviousAmount decimal.Decimal `json:"previous_amount_myr"`
	NewAmount      decimal.Decimal `json:"new_amount_myr"`
	RevisedBy      *uuid.UUID      `json:"revised_by,omitempty"`
}

// NewPurchaseOrderRevisedEvent creates a new PurchaseOrderRevisedEvent
func NewPurchaseOrderRevisedEvent(rev, original *PurchaseOrder) *PurchaseOrderRevisedEvent {
	return &PurchaseOrderRevisedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderRevised, AggregateTypePurchaseOrder, rev.ID),
		PONumberBase:    rev.PONumberBase,
		RevisionNumber:  rev.RevisionNumber,
		SupersededID:    original.ID,
		PreviousAmount:  original.EffectiveAmountMYR(),
		NewAmount:       rev.AmountMYR,
		RevisedBy:       rev.CreatedBy,
	}
}

// EventType returns the event type name
func (e *PurchaseOrderRevisedEvent) EventType() string {
	return EventTypePurchaseOrderRevised
}

// PriorState returns the superseded revision's effective amount
func (e *PurchaseOrderRevisedEvent) PriorState() interface{} {
	return map[string]interface{}{"amount_myr": e.PreviousAmount}
}

// PurchaseOrderAdjustedEvent is raised when a manual MYR override is applied
type PurchaseOrderAdjustedEvent struct {
	shared.BaseDomainEvent
	PONumber       string          `json:"po_number"`
	PreviousAmount decimal.Decimal `json:"previous_amount_myr"`
	AdjustedAmount decimal.Decimal `json:"adjusted_amount_myr"`
	Reason         string          `json:"reason"`
	AdjustedBy     *uuid.UUID      `json:"adjusted_by,omitempty"`
}

// NewPurchaseOrderAdjustedEvent creates a new PurchaseOrderAdjustedEvent
func NewPurchaseOrderAdjustedEvent(po *PurchaseOrder, previous decimal.Decimal) *PurchaseOrderAdjustedEvent {
	return &PurchaseOrderAdjustedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderAdjusted, AggregateTypePurchaseOrder, po.ID),
		PONumber:        po.PONumber,
		PreviousAmount:  previous,
		AdjustedAmount:  po.EffectiveAmountMYR(),
		Reason:          po.AdjustmentReason,
		AdjustedBy:      po.AdjustedBy,
	}
}

// EventType returns the event type name
func (e *PurchaseOrderAdjustedEvent) EventType() string {
	return EventTypePurchaseOrderAdjusted
}

// PriorState returns the effective amount before the adjustment
func (e *PurchaseOrderAdjustedEvent) PriorState() interface{} {
	return map[string]interface{}{"amount_myr": e.PreviousAmount}
}

// PurchaseOrderStatusChangedEvent is raised when the commercial status moves
type PurchaseOrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	PONumber       string `json:"po_number"`
	PreviousStatus Status `json:"previous_status"`
	NewStatus      Status `json:"new_status"`
}

// NewPurchaseOrderStatusChangedEvent creates a new PurchaseOrderStatusChangedEvent
func NewPurchaseOrderStatusChangedEvent(po *PurchaseOrder, previous Status) *PurchaseOrderStatusChangedEvent {
	return &PurchaseOrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderStatusChanged, AggregateTypePurchaseOrder, po.ID),
		PONumber:        po.PONumber,
		PreviousStatus:  previous,
		NewStatus:       po.Status,
	}
}

// EventType returns the event type name
func (e *PurchaseOrderStatusChangedEvent) EventType() string {
	return EventTypePurchaseOrderStatusChanged
}

// PriorState returns the status the transition left
func (e *PurchaseOrderStatusChangedEvent) PriorState() interface{} {
	return map[string]interface{}{"status": e.PreviousStatus}
}

// PurchaseOrderDeletedEvent is raised when a purchase order is removed
type PurchaseOrderDeletedEvent struct {
	shared.BaseDomainEvent
	PONumber        string `json:"po_number"`
	ProjectCode     string `json:"project_code"`
	ProjectReverted bool   `json:"project_reverted"`
}

// NewPurchaseOrderDeletedEvent creates a new PurchaseOrderDeletedEvent
func NewPurchaseOrderDeletedEvent(po *PurchaseOrder, projectReverted bool) *PurchaseOrderDeletedEvent {
	return &PurchaseOrderDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderDeleted, AggregateTypePurchaseOrder, po.ID),
		PONumber:        po.PONumber,
		ProjectCode:     po.ProjectCode,
		ProjectReverted: projectReverted,
	}
}

// EventType returns the event type name
func (e *PurchaseOrderDeletedEvent) EventType() string {
	return EventTypePurchaseOrderDeleted
}
