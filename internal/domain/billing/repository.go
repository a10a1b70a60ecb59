package billing

import (
	"context"

	"github.com/fieldops/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CreateInSequenceResult reports what the creating transaction did
type CreateInSequenceResult struct {
	// ProjectCompleted is true when this invoice brought the project's
	// cumulative percentage to 100 and the project was completed as part
	// of the same transaction
	ProjectCompleted bool
}

// InvoiceRepository defines the interface for invoice persistence.
// Sequence assignment and the project-completion side effect are owned by
// the creating transaction: a reader must never observe an invoice implying
// 100% cumulative billing while the project still shows a pre-completion
// status.
type InvoiceRepository interface {
	// FindByID finds an invoice by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindByNumber finds an invoice by invoice number
	FindByNumber(ctx context.Context, invoiceNumber string) (*Invoice, error)

	// FindByProject returns the project's invoices in sequence order
	FindByProject(ctx context.Context, projectCode string, filter shared.Filter) ([]Invoice, error)

	// FindAll finds invoices with filtering
	FindAll(ctx context.Context, filter shared.Filter) ([]Invoice, error)

	// FindSentBefore returns SENT invoices whose due date has passed
	FindSentBefore(ctx context.Context, filter shared.Filter) ([]Invoice, error)

	// Count counts invoices matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// CreateInSequence persists a new invoice inside one transaction that
	// serializes on the project row: it locks the project, derives the
	// 1-based sequence and the 2dp running cumulative percentage from the
	// existing invoices, assigns both, and completes the project when the
	// cumulative reaches 100. Events from both aggregates go to the outbox
	// in the same transaction.
	CreateInSequence(ctx context.Context, inv *Invoice) (*CreateInSequenceResult, error)

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, inv *Invoice) error

	// SaveWithLockAndEvents saves with optimistic locking and persists
	// domain events atomically (transactional outbox pattern)
	SaveWithLockAndEvents(ctx context.Context, inv *Invoice, events []shared.DomainEvent) error

	// SaveWithCumulativeRecalc saves an invoice whose percentage changed
	// and recomputes the cumulative percentages of the whole project chain
	// (in sequence order) inside the same transaction
	SaveWithCumulativeRecalc(ctx context.Context, inv *Invoice, events []shared.DomainEvent) error

	// DeleteWithEvents deletes an invoice and writes its events to the
	// outbox in the same transaction. Sequence numbers of the remaining
	// invoices are never renumbered.
	DeleteWithEvents(ctx context.Context, inv *Invoice, events []shared.DomainEvent) error
}
