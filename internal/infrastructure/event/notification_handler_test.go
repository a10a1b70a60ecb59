package event

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/backend/internal/domain/billing"
	"github.com/fieldops/backend/internal/domain/procurement"
	"github.com/fieldops/backend/internal/domain/shared"
	"github.com/fieldops/backend/internal/infrastructure/notification"
)

// recordingSender captures sent notifications and optionally fails
type recordingSender struct {
	sent []sentNotification
	err  error
}

type sentNotification struct {
	recipient string
	template  notification.Template
	data      map[string]interface{}
}

func (s *recordingSender) Send(_ context.Context, recipient string, template notification.Template, data map[string]interface{}) error {
	s.sent = append(s.sent, sentNotification{recipient: recipient, template: template, data: data})
	return s.err
}

func TestNotificationEventHandler_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("invoice sent notifies the configured recipient", func(t *testing.T) {
		sender := &recordingSender{}
		handler := NewNotificationEventHandler(sender, "finance@fieldops.local", nil)

		evt := &billing.InvoiceSentEvent{
			BaseDomainEvent: shared.NewBaseDomainEvent(billing.EventTypeInvoiceSent, billing.AggregateTypeInvoice, uuid.New()),
			InvoiceNumber:   "INV-2026-001",
			ProjectCode:     "PRJ-001",
		}
		require.NoError(t, handler.Handle(ctx, evt))

		require.Len(t, sender.sent, 1)
		assert.Equal(t, "finance@fieldops.local", sender.sent[0].recipient)
		assert.Equal(t, notification.TemplateInvoiceSent, sender.sent[0].template)
		assert.Equal(t, "INV-2026-001", sender.sent[0].data["invoice_number"])
	})

	t.Run("revision notifies with the new amount", func(t *testing.T) {
		sender := &recordingSender{}
		handler := NewNotificationEventHandler(sender, "finance@fieldops.local", nil)

		evt := &procurement.PurchaseOrderRevisedEvent{
			BaseDomainEvent: shared.NewBaseDomainEvent(procurement.EventTypePurchaseOrderRevised, procurement.AggregateTypePurchaseOrder, uuid.New()),
			PONumberBase:    "PO-2026-001",
			RevisionNumber:  2,
			PreviousAmount:  decimal.NewFromInt(10000),
			NewAmount:       decimal.NewFromInt(12000),
		}
		require.NoError(t, handler.Handle(ctx, evt))

		require.Len(t, sender.sent, 1)
		assert.Equal(t, notification.TemplatePurchaseOrderRevised, sender.sent[0].template)
		assert.Equal(t, 2, sender.sent[0].data["revision_number"])
	})

	t.Run("send failure is swallowed", func(t *testing.T) {
		sender := &recordingSender{err: errors.New("smtp unreachable")}
		handler := NewNotificationEventHandler(sender, "finance@fieldops.local", nil)

		evt := &billing.InvoicePaidEvent{
			BaseDomainEvent: shared.NewBaseDomainEvent(billing.EventTypeInvoicePaid, billing.AggregateTypeInvoice, uuid.New()),
			InvoiceNumber:   "INV-2026-002",
			ProjectCode:     "PRJ-001",
			AmountMYR:       decimal.NewFromInt(5000),
		}
		assert.NoError(t, handler.Handle(ctx, evt))
	})

	t.Run("subscription covers lifecycle events only", func(t *testing.T) {
		handler := NewNotificationEventHandler(&recordingSender{}, "finance@fieldops.local", nil)
		types := handler.EventTypes()
		assert.Contains(t, types, billing.EventTypeInvoiceSent)
		assert.Contains(t, types, procurement.EventTypePurchaseOrderRevised)
		assert.NotContains(t, types, billing.EventTypeInvoiceCreated)
	})
}
