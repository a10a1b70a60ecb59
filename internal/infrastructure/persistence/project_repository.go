package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/fieldops/backend/internal/domain/project"
	"github.com/fieldops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProjectRepository implements project.Repository using GORM
type GormProjectRepository struct {
	db *gorm.DB
}

// NewGormProjectRepository creates a new GormProjectRepository
func NewGormProjectRepository(db *gorm.DB) *GormProjectRepository {
	return &GormProjectRepository{db: db}
}

// FindByID finds a project by its ID
func (r *GormProjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*project.Project, error) {
	var p project.Project
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindByCode finds a project by its project code
func (r *GormProjectRepository) FindByCode(ctx context.Context, projectCode string) (*project.Project, error) {
	var p project.Project
	if err := r.db.WithContext(ctx).
		Where("project_code = ?", projectCode).
		First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindAll finds projects with filtering
func (r *GormProjectRepository) FindAll(ctx context.Context, filter shared.Filter) ([]project.Project, error) {
	var projects []project.Project
	query := r.db.WithContext(ctx).Model(&project.Project{})
	query = r.applyFilter(query, filter)
	if err := query.Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// Save creates or updates a project
func (r *GormProjectRepository) Save(ctx context.Context, p *project.Project) error {
	return r.db.WithContext(ctx).Save(p).Error
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormProjectRepository) SaveWithLock(ctx context.Context, p *project.Project) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return saveProjectWithLock(tx, p)
	})
}

// saveProjectWithLock performs the version-checked update inside an existing
// transaction so compound repositories can reuse it. Domain mutators own the
// version bump; the check compares against the version that was loaded.
func saveProjectWithLock(tx *gorm.DB, p *project.Project) error {
	var currentVersion int
	if err := tx.Model(&project.Project{}).
		Where("id = ?", p.ID).
		Select("version").
		Scan(&currentVersion).Error; err != nil {
		return err
	}
	if currentVersion == 0 {
		return shared.ErrNotFound
	}

	if currentVersion != p.LoadedVersion() {
		return shared.NewDomainError("CONCURRENT_MODIFICATION", "The project has been modified by another user")
	}

	p.UpdatedAt = time.Now()

	result := tx.Model(&project.Project{}).
		Where("id = ? AND version = ?", p.ID, currentVersion).
		Updates(map[string]interface{}{
			"name":          p.Name,
			"client_name":   p.ClientName,
			"status":        p.Status,
			"planned_hours": p.PlannedHours,
			"activated_at":  p.ActivatedAt,
			"completed_at":  p.CompletedAt,
			"version":       p.Version,
			"updated_at":    p.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("CONCURRENT_MODIFICATION", "The project has been modified by another user")
	}
	p.MarkVersionSaved()
	return nil
}

// Delete deletes a project
func (r *GormProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&project.Project{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts projects matching the filter
func (r *GormProjectRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&project.Project{})
	query = r.applyFilterWithoutPagination(query, filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormProjectRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	sortField := ValidateSortField(filter.OrderBy, ProjectSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	return query.Order(sortField + " " + sortOrder)
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormProjectRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("project_code ILIKE ? OR name ILIKE ? OR client_name ILIKE ?",
			searchPattern, searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "statuses":
			if statuses, ok := value.([]string); ok && len(statuses) > 0 {
				query = query.Where("status IN ?", statuses)
			}
		case "client_name":
			query = query.Where("client_name = ?", value)
		}
	}

	return query
}

var _ project.Repository = (*GormProjectRepository)(nil)
