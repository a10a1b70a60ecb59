package event

import (
	"context"

	"go.uber.org/zap"

	"github.com/fieldops/backend/internal/domain/billing"
	"github.com/fieldops/backend/internal/domain/procurement"
	"github.com/fieldops/backend/internal/domain/shared"
	"github.com/fieldops/backend/internal/infrastructure/notification"
)

// NotificationEventHandler forwards selected lifecycle events to the
// notification sender. It runs post-commit off the outbox, and a failed
// send is logged and swallowed so it never surfaces to the caller.
type NotificationEventHandler struct {
	sender    notification.Sender
	recipient string
	logger    *zap.Logger
}

// NewNotificationEventHandler creates a new NotificationEventHandler
func NewNotificationEventHandler(sender notification.Sender, recipient string, logger *zap.Logger) *NotificationEventHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationEventHandler{sender: sender, recipient: recipient, logger: logger}
}

// EventTypes returns the lifecycle events that trigger a notification
func (h *NotificationEventHandler) EventTypes() []string {
	return []string{
		billing.EventTypeInvoiceSubmitted,
		billing.EventTypeInvoiceApproved,
		billing.EventTypeInvoiceSent,
		billing.EventTypeInvoicePaid,
		procurement.EventTypePurchaseOrderRevised,
	}
}

// Handle sends one notification for the event
func (h *NotificationEventHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	template, data, ok := h.message(event)
	if !ok {
		return nil
	}
	if err := h.sender.Send(ctx, h.recipient, template, data); err != nil {
		h.logger.Warn("failed to send notification",
			zap.String("template", string(template)),
			zap.String("event_type", event.EventType()),
			zap.Error(err))
	}
	return nil
}

// message maps an event to the template and payload it notifies with
func (h *NotificationEventHandler) message(event shared.DomainEvent) (notification.Template, map[string]interface{}, bool) {
	switch e := event.(type) {
	case *billing.InvoiceSubmittedEvent:
		return notification.TemplateInvoiceSubmitted, map[string]interface{}{
			"invoice_number": e.InvoiceNumber,
			"project_code":   e.ProjectCode,
		}, true
	case *billing.InvoiceApprovedEvent:
		return notification.TemplateInvoiceApproved, map[string]interface{}{
			"invoice_number": e.InvoiceNumber,
			"project_code":   e.ProjectCode,
		}, true
	case *billing.InvoiceSentEvent:
		return notification.TemplateInvoiceSent, map[string]interface{}{
			"invoice_number": e.InvoiceNumber,
			"project_code":   e.ProjectCode,
		}, true
	case *billing.InvoicePaidEvent:
		return notification.TemplateInvoicePaid, map[string]interface{}{
			"invoice_number": e.InvoiceNumber,
			"project_code":   e.ProjectCode,
			"amount_myr":     e.AmountMYR,
		}, true
	case *procurement.PurchaseOrderRevisedEvent:
		return notification.TemplatePurchaseOrderRevised, map[string]interface{}{
			"po_number_base":  e.PONumberBase,
			"revision_number": e.RevisionNumber,
			"new_amount_myr":  e.NewAmount,
		}, true
	}
	return "", nil, false
}

// Ensure NotificationEventHandler implements EventHandler
var _ shared.EventHandler = (*NotificationEventHandler)(nil)
