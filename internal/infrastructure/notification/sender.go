package notification

import (
	"context"

	"go.uber.org/zap"
)

// Template identifies the message template a notification renders
type Template string

// Template constants
const (
	TemplateInvoiceSubmitted     Template = "INVOICE_SUBMITTED"
	TemplateInvoiceApproved      Template = "INVOICE_APPROVED"
	TemplateInvoiceSent          Template = "INVOICE_SENT"
	TemplateInvoicePaid          Template = "INVOICE_PAID"
	TemplatePurchaseOrderRevised Template = "PURCHASE_ORDER_REVISED"
)

// Sender delivers a notification to a recipient. Sends are fire-and-forget
// relative to the business transaction: the caller logs a failed send and
// never lets it affect committed state.
type Sender interface {
	Send(ctx context.Context, recipient string, template Template, data map[string]interface{}) error
}

// LogSender is the in-process transport: it writes the notification to the
// application log. Stands in until an email or chat transport is configured.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a new LogSender
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

// Send logs the notification
func (s *LogSender) Send(_ context.Context, recipient string, template Template, data map[string]interface{}) error {
	s.logger.Info("notification",
		zap.String("recipient", recipient),
		zap.String("template", string(template)),
		zap.Any("data", data))
	return nil
}

// Ensure LogSender implements Sender
var _ Sender = (*LogSender)(nil)
