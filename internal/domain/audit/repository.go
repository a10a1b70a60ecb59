package audit

import (
	"context"

	"github.com/google/uuid"
)

// ActivityLogFilter narrows activity log queries
type ActivityLogFilter struct {
	EntityType string
	EntityID   *uuid.UUID
	ActorID    *uuid.UUID
	Action     Action
	Page       int
	PageSize   int
}

// ActivityLogRepository is the append-only audit store. There is
// deliberately no update or delete.
type ActivityLogRepository interface {
	// Append writes one audit record
	Append(ctx context.Context, log *ActivityLog) error

	// FindByEntity returns records for one entity, newest first
	FindByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]*ActivityLog, error)

	// FindAll returns records matching the filter, newest first
	FindAll(ctx context.Context, filter ActivityLogFilter) ([]*ActivityLog, error)

	// Count returns the number of records matching the filter
	Count(ctx context.Context, filter ActivityLogFilter) (int64, error)
}
