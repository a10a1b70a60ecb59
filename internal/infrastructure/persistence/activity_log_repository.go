package persistence

import (
	"context"

	"github.com/fieldops/backend/internal/domain/audit"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormActivityLogRepository implements audit.ActivityLogRepository using GORM.
// The table is append-only; there is no update or delete path.
type GormActivityLogRepository struct {
	db *gorm.DB
}

// NewGormActivityLogRepository creates a new GormActivityLogRepository
func NewGormActivityLogRepository(db *gorm.DB) *GormActivityLogRepository {
	return &GormActivityLogRepository{db: db}
}

// Append writes one audit record
func (r *GormActivityLogRepository) Append(ctx context.Context, log *audit.ActivityLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// FindByEntity returns records for one entity, newest first
func (r *GormActivityLogRepository) FindByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]*audit.ActivityLog, error) {
	var logs []*audit.ActivityLog
	if err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC").
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// FindAll returns records matching the filter, newest first
func (r *GormActivityLogRepository) FindAll(ctx context.Context, filter audit.ActivityLogFilter) ([]*audit.ActivityLog, error) {
	var logs []*audit.ActivityLog
	query := r.applyFilter(r.db.WithContext(ctx).Model(&audit.ActivityLog{}), filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if err := query.Order("created_at DESC").Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// Count returns the number of records matching the filter
func (r *GormActivityLogRepository) Count(ctx context.Context, filter audit.ActivityLogFilter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&audit.ActivityLog{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormActivityLogRepository) applyFilter(query *gorm.DB, filter audit.ActivityLogFilter) *gorm.DB {
	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != nil {
		query = query.Where("entity_id = ?", *filter.EntityID)
	}
	if filter.ActorID != nil {
		query = query.Where("actor_id = ?", *filter.ActorID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	return query
}

var _ audit.ActivityLogRepository = (*GormActivityLogRepository)(nil)
