package event

import (
	"context"
	"strings"

	appaudit "github.com/fieldops/backend/internal/application/audit"
	"github.com/fieldops/backend/internal/domain/audit"
	"github.com/fieldops/backend/internal/domain/shared"
)

// AuditEventHandler turns domain events into audit trail entries. It is a
// wildcard subscriber fed from the outbox, so recording happens strictly
// after the business transaction committed and a recording failure can
// never roll it back.
type AuditEventHandler struct {
	activity *appaudit.ActivityService
}

// NewAuditEventHandler creates a new AuditEventHandler
func NewAuditEventHandler(activity *appaudit.ActivityService) *AuditEventHandler {
	return &AuditEventHandler{activity: activity}
}

// EventTypes returns an empty slice: the audit recorder receives all events
func (h *AuditEventHandler) EventTypes() []string {
	return nil
}

// Handle records one audit entry for the event. The event itself is the
// after snapshot; events that carry the replaced state expose it through
// PriorState and it lands in the before column.
func (h *AuditEventHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	var before interface{}
	if prior, ok := event.(shared.EventWithPrior); ok {
		before = prior.PriorState()
	}
	h.activity.Record(ctx,
		actionFor(event.EventType()),
		event.AggregateType(),
		event.AggregateID(),
		nil, "",
		before, event,
	)
	return nil
}

// actionFor maps an event type name to the audit action it represents
func actionFor(eventType string) audit.Action {
	switch {
	case strings.HasSuffix(eventType, "Created"), strings.HasSuffix(eventType, "Set"):
		return audit.ActionCreate
	case strings.HasSuffix(eventType, "Deleted"):
		return audit.ActionDelete
	case strings.HasSuffix(eventType, "Revised"):
		return audit.ActionRevision
	case strings.HasSuffix(eventType, "Adjusted"):
		return audit.ActionAdjustment
	case strings.HasSuffix(eventType, "AmountChanged"):
		return audit.ActionAmountChange
	case strings.HasSuffix(eventType, "StatusChanged"),
		strings.HasSuffix(eventType, "Submitted"),
		strings.HasSuffix(eventType, "Approved"),
		strings.HasSuffix(eventType, "Withdrawn"),
		strings.HasSuffix(eventType, "Sent"),
		strings.HasSuffix(eventType, "Paid"),
		strings.HasSuffix(eventType, "Activated"),
		strings.HasSuffix(eventType, "Reverted"),
		strings.HasSuffix(eventType, "Completed"):
		return audit.ActionStatusChange
	default:
		return audit.ActionUpdate
	}
}

// Ensure AuditEventHandler implements EventHandler
var _ shared.EventHandler = (*AuditEventHandler)(nil)
