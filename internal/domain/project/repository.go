package project

import (
	"context"

	"github.com/fieldops/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Repository defines the interface for project persistence
type Repository interface {
	// FindByID finds a project by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Project, error)

	// FindByCode finds a project by its project code
	FindByCode(ctx context.Context, projectCode string) (*Project, error)

	// FindAll finds projects with filtering
	FindAll(ctx context.Context, filter shared.Filter) ([]Project, error)

	// Save creates or updates a project
	Save(ctx context.Context, p *Project) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, p *Project) error

	// Delete deletes a project
	Delete(ctx context.Context, id uuid.UUID) error

	// Count counts projects matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
