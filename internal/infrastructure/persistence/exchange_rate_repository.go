package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fieldops/backend/internal/domain/currency"
	"github.com/fieldops/backend/internal/domain/shared"
	"github.com/fieldops/backend/internal/domain/shared/valueobject"
	"gorm.io/gorm"
)

// GormExchangeRateRepository implements currency.ExchangeRateRepository using
// GORM. The table is an append-only ledger; rows are never updated in place.
type GormExchangeRateRepository struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver // optional, for transactional outbox pattern
}

// NewGormExchangeRateRepository creates a new GormExchangeRateRepository
func NewGormExchangeRateRepository(db *gorm.DB) *GormExchangeRateRepository {
	return &GormExchangeRateRepository{db: db}
}

// SetOutboxEventSaver sets the outbox event saver for transactional event publishing
func (r *GormExchangeRateRepository) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	r.outboxSaver = saver
}

// Save appends a new ledger row
func (r *GormExchangeRateRepository) Save(ctx context.Context, rate *currency.ExchangeRate) error {
	return r.db.WithContext(ctx).Create(rate).Error
}

// SaveWithEvents appends a new ledger row and persists domain events atomically
func (r *GormExchangeRateRepository) SaveWithEvents(ctx context.Context, rate *currency.ExchangeRate, events []shared.DomainEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rate).Error; err != nil {
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

// FindEffective finds the rate in effect for a currency as of a date: the
// latest-dated row with effective_date <= asOf. Ties on effective_date are
// broken by insertion order so a same-day correction wins.
func (r *GormExchangeRateRepository) FindEffective(ctx context.Context, from valueobject.Currency, asOf time.Time) (*currency.ExchangeRate, error) {
	var rate currency.ExchangeRate
	if err := r.db.WithContext(ctx).
		Where("from_currency = ? AND to_currency = ? AND effective_date <= ?", from, valueobject.MYR, asOf).
		Order("effective_date DESC").
		Order("created_at DESC").
		First(&rate).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrRateNotFound
		}
		return nil, err
	}
	return &rate, nil
}

// FindHistory returns the ledger rows for a currency, newest first
func (r *GormExchangeRateRepository) FindHistory(ctx context.Context, from valueobject.Currency, filter shared.Filter) ([]currency.ExchangeRate, error) {
	var rates []currency.ExchangeRate
	query := r.db.WithContext(ctx).Model(&currency.ExchangeRate{}).
		Where("from_currency = ?", from)
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if err := query.Order("effective_date DESC").Order("created_at DESC").Find(&rates).Error; err != nil {
		return nil, err
	}
	return rates, nil
}

// FindAll returns ledger rows across all currencies with filtering
func (r *GormExchangeRateRepository) FindAll(ctx context.Context, filter shared.Filter) ([]currency.ExchangeRate, error) {
	var rates []currency.ExchangeRate
	query := r.db.WithContext(ctx).Model(&currency.ExchangeRate{})
	query = r.applyFilter(query, filter)
	if err := query.Find(&rates).Error; err != nil {
		return nil, err
	}
	return rates, nil
}

// Count counts ledger rows matching the filter
func (r *GormExchangeRateRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&currency.ExchangeRate{})
	query = r.applyFilterWithoutPagination(query, filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormExchangeRateRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	sortField := ValidateSortField(filter.OrderBy, ExchangeRateSortFields, "effective_date")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	return query.Order(sortField + " " + sortOrder)
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormExchangeRateRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "from_currency":
			query = query.Where("from_currency = ?", value)
		case "source":
			query = query.Where("source = ?", value)
		case "effective_from":
			if t, ok := value.(time.Time); ok {
				query = query.Where("effective_date >= ?", t)
			}
		case "effective_to":
			if t, ok := value.(time.Time); ok {
				query = query.Where("effective_date <= ?", t)
			}
		}
	}
	return query
}

var _ currency.ExchangeRateRepository = (*GormExchangeRateRepository)(nil)
