package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fieldops/backend/internal/domain/procurement"
	"github.com/fieldops/backend/internal/domain/project"
	"github.com/fieldops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormPurchaseOrderRepository implements PurchaseOrderRepository using GORM.
// The compound methods own the transaction boundary for the
// single-active-revision invariant and the project status side effects.
type GormPurchaseOrderRepository struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver // optional, for transactional outbox pattern
}

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository
func NewGormPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db}
}

// SetOutboxEventSaver sets the outbox event saver for transactional event publishing
func (r *GormPurchaseOrderRepository) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	r.outboxSaver = saver
}

// FindByID finds a purchase order revision by its ID
func (r *GormPurchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*procurement.PurchaseOrder, error) {
	var po procurement.PurchaseOrder
	if err := r.db.WithContext(ctx).First(&po, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &po, nil
}

// FindActiveByBase finds the active revision of a revision chain
func (r *GormPurchaseOrderRepository) FindActiveByBase(ctx context.Context, poNumberBase string) (*procurement.PurchaseOrder, error) {
	var po procurement.PurchaseOrder
	if err := r.db.WithContext(ctx).
		Where("po_number_base = ? AND is_active = ?", poNumberBase, true).
		First(&po).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &po, nil
}

// FindHistoryByBase returns the whole revision chain, oldest first
func (r *GormPurchaseOrderRepository) FindHistoryByBase(ctx context.Context, poNumberBase string) ([]procurement.PurchaseOrder, error) {
	var orders []procurement.PurchaseOrder
	if err := r.db.WithContext(ctx).
		Where("po_number_base = ?", poNumberBase).
		Order("revision_number ASC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// ExistsByBase reports whether any revision exists for the base number
func (r *GormPurchaseOrderRepository) ExistsByBase(ctx context.Context, poNumberBase string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&procurement.PurchaseOrder{}).
		Where("po_number_base = ?", poNumberBase).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindByProject finds purchase orders for a project with filtering
func (r *GormPurchaseOrderRepository) FindByProject(ctx context.Context, projectCode string, filter shared.Filter) ([]procurement.PurchaseOrder, error) {
	var orders []procurement.PurchaseOrder
	query := r.db.WithContext(ctx).Model(&procurement.PurchaseOrder{}).
		Where("project_code = ?", projectCode)
	query = r.applyFilter(query, filter)
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// FindAll finds purchase orders with filtering
func (r *GormPurchaseOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]procurement.PurchaseOrder, error) {
	var orders []procurement.PurchaseOrder
	query := r.db.WithContext(ctx).Model(&procurement.PurchaseOrder{})
	query = r.applyFilter(query, filter)
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Count counts purchase orders matching the filter
func (r *GormPurchaseOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&procurement.PurchaseOrder{})
	query = r.applyFilterWithoutPagination(query, filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByProject counts all revisions belonging to a project
func (r *GormPurchaseOrderRepository) CountByProject(ctx context.Context, projectCode string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&procurement.PurchaseOrder{}).
		Where("project_code = ?", projectCode).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumActiveEffectiveMYRByProject sums the effective MYR amount over the
// project's active revisions. Superseded revisions never count.
func (r *GormPurchaseOrderRepository) SumActiveEffectiveMYRByProject(ctx context.Context, projectCode string) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := r.db.WithContext(ctx).Model(&procurement.PurchaseOrder{}).
		Where("project_code = ? AND is_active = ?", projectCode, true).
		Select("COALESCE(SUM(COALESCE(amount_myr_adjusted, amount_myr)), 0)").
		Scan(&total).Error; err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// CreateWithProject persists a new purchase order and, when the project was
// promoted out of planning, the updated project in one transaction
func (r *GormPurchaseOrderRepository) CreateWithProject(ctx context.Context, po *procurement.PurchaseOrder, proj *project.Project, events []shared.DomainEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(po).Error; err != nil {
			return err
		}
		if proj != nil {
			if err := saveProjectWithLock(tx, proj); err != nil {
				return err
			}
		}
		if r.outboxSaver != nil && len(events) > 0 {
			if err := r.outboxSaver.SaveEvents(ctx, tx, events...); err != nil {
				return fmt.Errorf("failed to save events to outbox: %w", err)
			}
		}
		return nil
	})
}

// SaveRevision persists a new revision and the deactivated original
// atomically. The original row is deactivated with a single statement that
// re-checks both the version and the is_active flag, so two concurrent
// revisions of the same original cannot both succeed.
func (r *GormPurchaseOrderRepository) SaveRevision(ctx context.Context, rev, original *procurement.PurchaseOrder, events []shared.DomainEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&procurement.PurchaseOrder{}).
			Where("id = ? AND version = ? AND is_active = ?", original.ID, original.LoadedVersion(), true).
			Updates(map[string]interface{}{
				"is_active":     false,
				"superseded_by": original.SupersededBy,
				"version":       original.Version,
				"updated_at":    original.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&procurement.PurchaseOrder{}).
				Where("id = ?", original.ID).
				Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return shared.ErrNotFound
			}
			return shared.NewDomainError("CONCURRENT_MODIFICATION", "The purchase order has been revised by another user")
		}

		if err := tx.Create(rev).Error; err != nil {
			return err
		}

		if r.outboxSaver != nil && len(events) > 0 {
			if err := r.outboxSaver.SaveEvents(ctx, tx, events...); err != nil {
				return fmt.Errorf("failed to save events to outbox: %w", err)
			}
		}

		original.MarkVersionSaved()
		return nil
	})
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormPurchaseOrderRepository) SaveWithLock(ctx context.Context, po *procurement.PurchaseOrder) error {
	return r.SaveWithLockAndEvents(ctx, po, nil)
}

// SaveWithLockAndEvents saves with optimistic locking and persists domain
// events atomically (transactional outbox pattern)
func (r *GormPurchaseOrderRepository) SaveWithLockAndEvents(ctx context.Context, po *procurement.PurchaseOrder, events []shared.DomainEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := savePurchaseOrderWithLock(tx, po); err != nil {
			return err
		}
		if r.outboxSaver != nil && len(events) > 0 {
			if err := r.outboxSaver.SaveEvents(ctx, tx, events...); err != nil {
				return fmt.Errorf("failed to save events to outbox: %w", err)
			}
		}
		return nil
	})
}

// savePurchaseOrderWithLock performs the version-checked update inside an
// existing transaction. Domain mutators own the version bump.
func savePurchaseOrderWithLock(tx *gorm.DB, po *procurement.PurchaseOrder) error {
	var currentVersion int
	if err := tx.Model(&procurement.PurchaseOrder{}).
		Where("id = ?", po.ID).
		Select("version").
		Scan(&currentVersion).Error; err != nil {
		return err
	}
	if currentVersion == 0 {
		return shared.ErrNotFound
	}

	if currentVersion != po.LoadedVersion() {
		return shared.NewDomainError("CONCURRENT_MODIFICATION", "The purchase order has been modified by another user")
	}

	po.UpdatedAt = time.Now()

	result := tx.Model(&procurement.PurchaseOrder{}).
		Where("id = ? AND version = ?", po.ID, currentVersion).
		Updates(map[string]interface{}{
			"description":          po.Description,
			"amount":               po.Amount,
			"currency":             po.Currency,
			"amount_myr":           po.AmountMYR,
			"exchange_rate":        po.ExchangeRate,
			"exchange_rate_source": po.ExchangeRateSource,
			"amount_myr_adjusted":  po.AmountMYRAdjusted,
			"adjustment_reason":    po.AdjustmentReason,
			"adjusted_by":          po.AdjustedBy,
			"adjusted_at":          po.AdjustedAt,
			"status":               po.Status,
			"due_date":             po.DueDate,
			"attachment_key":       po.AttachmentKey,
			"version":              po.Version,
			"updated_at":           po.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("CONCURRENT_MODIFICATION", "The purchase order has been modified by another user")
	}
	po.MarkVersionSaved()
	return nil
}

// DeleteWithProject deletes every revision of the purchase order's chain
// and, when it was the last PO of its project, the reverted project in one
// transaction. Deleting by base number keeps the chain whole: removing only
// the active row would leave superseded revisions behind with no active
// successor.
func (r *GormPurchaseOrderRepository) DeleteWithProject(ctx context.Context, po *procurement.PurchaseOrder, proj *project.Project, events []shared.DomainEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&procurement.PurchaseOrder{}, "po_number_base = ?", po.PONumberBase)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		if proj != nil {
			if err := saveProjectWithLock(tx, proj); err != nil {
				return err
			}
		}
		if r.outboxSaver != nil && len(events) > 0 {
			if err := r.outboxSaver.SaveEvents(ctx, tx, events...); err != nil {
				return fmt.Errorf("failed to save events to outbox: %w", err)
			}
		}
		return nil
	})
}

// applyFilter applies filter options to the query
func (r *GormPurchaseOrderRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	sortField := ValidateSortField(filter.OrderBy, PurchaseOrderSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	return query.Order(sortField + " " + sortOrder)
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormPurchaseOrderRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("po_number ILIKE ? OR description ILIKE ?",
			searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "project_code":
			query = query.Where("project_code = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "statuses":
			if statuses, ok := value.([]string); ok && len(statuses) > 0 {
				query = query.Where("status IN ?", statuses)
			}
		case "is_active":
			query = query.Where("is_active = ?", value)
		case "currency":
			query = query.Where("currency = ?", value)
		case "received_from":
			if t, ok := value.(time.Time); ok {
				query = query.Where("received_date >= ?", t)
			}
		case "received_to":
			if t, ok := value.(time.Time); ok {
				query = query.Where("received_date <= ?", t)
			}
		}
	}

	return query
}

var _ procurement.PurchaseOrderRepository = (*GormPurchaseOrderRepository)(nil)
