package procurement

import (
	"context"

	"github.com/fieldops/backend/internal/domain/project"
	"github.com/fieldops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrderRepository defines the interface for purchase order
// persistence. The compound methods own the transaction boundary for
// multi-entity invariants: the single-active-revision rule and the project
// status flips must never be observable half-applied.
type PurchaseOrderRepository interface {
	// FindByID finds a purchase order revision by ID
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)

	// FindActiveByBase finds the active revision of a revision chain.
	// Returns shared.ErrNotFound when the chain does not exist.
	FindActiveByBase(ctx context.Context, poNumberBase string) (*PurchaseOrder, error)

	// FindHistoryByBase returns the whole revision chain, oldest first
	FindHistoryByBase(ctx context.Context, poNumberBase string) ([]PurchaseOrder, error)

	// ExistsByBase reports whether any revision exists for the base number
	ExistsByBase(ctx context.Context, poNumberBase string) (bool, error)

	// FindByProject finds purchase orders for a project with filtering
	FindByProject(ctx context.Context, projectCode string, filter shared.Filter) ([]PurchaseOrder, error)

	// FindAll finds purchase orders with filtering
	FindAll(ctx context.Context, filter shared.Filter) ([]PurchaseOrder, error)

	// Count counts purchase orders matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// CountByProject counts all revisions belonging to a project
	CountByProject(ctx context.Context, projectCode string) (int64, error)

	// SumActiveEffectiveMYRByProject sums the effective MYR amount over the
	// project's ACTIVE revisions only; superseded revisions are excluded to
	// avoid double counting.
	SumActiveEffectiveMYRByProject(ctx context.Context, projectCode string) (decimal.Decimal, error)

	// CreateWithProject persists a new purchase order and, when the project
	// was promoted out of planning, the updated project in one transaction.
	// Domain events go to the outbox in the same transaction.
	CreateWithProject(ctx context.Context, po *PurchaseOrder, proj *project.Project, events []shared.DomainEvent) error

	// SaveRevision persists a new revision and the deactivated original
	// atomically. The original row is version-checked and its is_active
	// flag re-checked under the transaction; a concurrent revision of the
	// same original fails with a concurrency conflict.
	SaveRevision(ctx context.Context, rev, original *PurchaseOrder, events []shared.DomainEvent) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, po *PurchaseOrder) error

	// SaveWithLockAndEvents saves with optimistic locking and persists
	// domain events atomically (transactional outbox pattern)
	SaveWithLockAndEvents(ctx context.Context, po *PurchaseOrder, events []shared.DomainEvent) error

	// DeleteWithProject deletes a purchase order and, when it was the last
	// PO of its project, the reverted project in one transaction
	DeleteWithProject(ctx context.Context, po *PurchaseOrder, proj *project.Project, events []shared.DomainEvent) error
}
