package event

import (
	"github.com/fieldops/backend/internal/domain/billing"
	"github.com/fieldops/backend/internal/domain/currency"
	"github.com/fieldops/backend/internal/domain/procurement"
	"github.com/fieldops/backend/internal/domain/project"
)

// RegisterAllEvents registers all domain event types with the serializer.
// This is required for the OutboxProcessor to deserialize events from the
// outbox table.
func RegisterAllEvents(serializer *EventSerializer) {
	// Procurement domain events
	serializer.Register(procurement.EventTypePurchaseOrderCreated, &procurement.PurchaseOrderCreatedEvent{})
	serializer.Register(procurement.EventTypePurchaseOrderRevised, &procurement.PurchaseOrderRevisedEvent{})
	serializer.Register(procurement.EventTypePurchaseOrderAdjusted, &procurement.PurchaseOrderAdjustedEvent{})
	serializer.Register(procurement.EventTypePurchaseOrderStatusChanged, &procurement.PurchaseOrderStatusChangedEvent{})
	serializer.Register(procurement.EventTypePurchaseOrderDeleted, &procurement.PurchaseOrderDeletedEvent{})

	// Billing domain events
	serializer.Register(billing.EventTypeInvoiceCreated, &billing.InvoiceCreatedEvent{})
	serializer.Register(billing.EventTypeInvoiceSubmitted, &billing.InvoiceSubmittedEvent{})
	serializer.Register(billing.EventTypeInvoiceApproved, &billing.InvoiceApprovedEvent{})
	serializer.Register(billing.EventTypeInvoiceWithdrawn, &billing.InvoiceWithdrawnEvent{})
	serializer.Register(billing.EventTypeInvoiceSent, &billing.InvoiceSentEvent{})
	serializer.Register(billing.EventTypeInvoicePaid, &billing.InvoicePaidEvent{})
	serializer.Register(billing.EventTypeInvoiceAmountChanged, &billing.InvoiceAmountChangedEvent{})
	serializer.Register(billing.EventTypeInvoiceStatusChanged, &billing.InvoiceStatusChangedEvent{})
	serializer.Register(billing.EventTypeInvoiceDeleted, &billing.InvoiceDeletedEvent{})

	// Project domain events
	serializer.Register(project.EventTypeProjectActivated, &project.ProjectActivatedEvent{})
	serializer.Register(project.EventTypeProjectReverted, &project.ProjectRevertedEvent{})
	serializer.Register(project.EventTypeProjectCompleted, &project.ProjectCompletedEvent{})

	// Currency domain events
	serializer.Register(currency.EventTypeExchangeRateSet, &currency.ExchangeRateSetEvent{})
}
