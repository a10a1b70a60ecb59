package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fieldops/backend/internal/domain/billing"
	"github.com/fieldops/backend/internal/domain/project"
	"github.com/fieldops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInvoiceRepository implements billing.InvoiceRepository using GORM.
// Sequence assignment serializes on the project row so two concurrent
// creations for the same project cannot claim the same sequence number or
// compute overlapping cumulative percentages.
type GormInvoiceRepository struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver // optional, for transactional outbox pattern
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// SetOutboxEventSaver sets the outbox event saver for transactional event publishing
func (r *GormInvoiceRepository) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	r.outboxSaver = saver
}

// FindByID finds an invoice by its ID
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	var inv billing.Invoice
	if err := r.db.WithContext(ctx).First(&inv, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &inv, nil
}

// FindByNumber finds an invoice by invoice number
func (r *GormInvoiceRepository) FindByNumber(ctx context.Context, invoiceNumber string) (*billing.Invoice, error) {
	var inv billing.Invoice
	if err := r.db.WithContext(ctx).
		Where("invoice_number = ?", invoiceNumber).
		First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &inv, nil
}

// FindByProject returns the project's invoices in sequence order
func (r *GormInvoiceRepository) FindByProject(ctx context.Context, projectCode string, filter shared.Filter) ([]billing.Invoice, error) {
	var invoices []billing.Invoice
	query := r.db.WithContext(ctx).Model(&billing.Invoice{}).
		Where("project_code = ?", projectCode)
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if err := query.Order("invoice_sequence ASC").Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// FindAll finds invoices with filtering
func (r *GormInvoiceRepository) FindAll(ctx context.Context, filter shared.Filter) ([]billing.Invoice, error) {
	var invoices []billing.Invoice
	query := r.db.WithContext(ctx).Model(&billing.Invoice{})
	query = r.applyFilter(query, filter)
	if err := query.Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// FindSentBefore returns SENT invoices whose due date has passed
func (r *GormInvoiceRepository) FindSentBefore(ctx context.Context, filter shared.Filter) ([]billing.Invoice, error) {
	asOf := time.Now()
	if v, ok := filter.Filters["due_before"]; ok {
		if t, isTime := v.(time.Time); isTime {
			asOf = t
		}
	}

	var invoices []billing.Invoice
	query := r.db.WithContext(ctx).Model(&billing.Invoice{}).
		Where("status = ? AND due_date IS NOT NULL AND due_date < ?", billing.StatusSent, asOf)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if err := query.Order("due_date ASC").Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// Count counts invoices matching the filter
func (r *GormInvoiceRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&billing.Invoice{})
	query = r.applyFilterWithoutPagination(query, filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CreateInSequence persists a new invoice inside one transaction that
// serializes on the project row. The sequence number is one past the highest
// existing sequence for the project, the cumulative percentage is the 2dp
// running total over the chain, and reaching 100 completes the project in
// the same transaction.
func (r *GormInvoiceRepository) CreateInSequence(ctx context.Context, inv *billing.Invoice) (*billing.CreateInSequenceResult, error) {
	result := &billing.CreateInSequenceResult{}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var proj project.Project
		projQuery := tx.Where("project_code = ?", inv.ProjectCode)
		// SQLite serializes writers on its own and does not speak FOR UPDATE
		if tx.Dialector.Name() == "postgres" {
			projQuery = projQuery.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := projQuery.First(&proj).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		var existing []billing.Invoice
		if err := tx.Where("project_code = ?", inv.ProjectCode).
			Order("invoice_sequence ASC").
			Find(&existing).Error; err != nil {
			return err
		}

		prior := make([]decimal.Decimal, len(existing))
		sequence := 0
		for i, e := range existing {
			prior[i] = e.PercentageOfTotal
			if e.InvoiceSequence > sequence {
				sequence = e.InvoiceSequence
			}
		}

		cumulative := billing.RunningTotal(prior, inv.PercentageOfTotal)
		if err := inv.AssignSequence(sequence+1, cumulative); err != nil {
			return err
		}

		if err := tx.Create(inv).Error; err != nil {
			return err
		}

		events := inv.GetDomainEvents()
		inv.ClearDomainEvents()

		if inv.IsFullyBilled() && proj.Complete() {
			if err := saveProjectWithLock(tx, &proj); err != nil {
				return err
			}
			events = append(events, proj.GetDomainEvents()...)
			proj.ClearDomainEvents()
			result.ProjectCompleted = true
		}

		if r.outboxSaver != nil && len(events) > 0 {
			if err := r.outboxSaver.SaveEvents(ctx, tx, events...); err != nil {
				return fmt.Errorf("failed to save events to outbox: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormInvoiceRepository) SaveWithLock(ctx context.Context, inv *billing.Invoice) error {
	return r.SaveWithLockAndEvents(ctx, inv, nil)
}

// SaveWithLockAndEvents saves with optimistic locking and persists domain
// events atomically (transactional outbox pattern)
func (r *GormInvoiceRepository) SaveWithLockAndEvents(ctx context.Context, inv *billing.Invoice, events []shared.DomainEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveInvoiceWithLock(tx, inv); err != nil {
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

// SaveWithCumulativeRecalc saves an invoice whose percentage changed and
// recomputes the cumulative percentages of the whole project chain in
// sequence order inside the same transaction
func (r *GormInvoiceRepository) SaveWithCumulativeRecalc(ctx context.Context, inv *billing.Invoice, events []shared.DomainEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			var proj project.Project
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("project_code = ?", inv.ProjectCode).
				First(&proj).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}

		if err := saveInvoiceWithLock(tx, inv); err != nil {
			return err
		}

		if err := recalcCumulative(tx, inv.ProjectCode); err != nil {
			return err
		}

		// Refresh the in-memory cumulative so the caller returns the
		// recalculated value
		var fresh billing.Invoice
		if err := tx.Where("id = ?", inv.ID).First(&fresh).Error; err != nil {
			return err
		}
		inv.CumulativePercentage = fresh.CumulativePercentage

		if r.outboxSaver != nil && len(events) > 0 {
			if err := r.outboxSaver.SaveEvents(ctx, tx, events...); err != nil {
				return fmt.Errorf("failed to save events to outbox: %w", err)
			}
		}
		return nil
	})
}

// recalcCumulative rewrites the cumulative percentage of every invoice of a
// project by replaying the chain in sequence order
func recalcCumulative(tx *gorm.DB, projectCode string) error {
	var chain []billing.Invoice
	if err := tx.Where("project_code = ?", projectCode).
		Order("invoice_sequence ASC").
		Find(&chain).Error; err != nil {
		return err
	}

	total := decimal.Zero
	for i := range chain {
		total = total.Add(chain[i].PercentageOfTotal).Round(2)
		if !chain[i].CumulativePercentage.Equal(total) {
			if err := tx.Model(&billing.Invoice{}).
				Where("id = ?", chain[i].ID).
				Update("cumulative_percentage", total).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

// saveInvoiceWithLock performs the version-checked update inside an existing
// transaction. Domain mutators own the version bump.
func saveInvoiceWithLock(tx *gorm.DB, inv *billing.Invoice) error {
	var currentVersion int
	if err := tx.Model(&billing.Invoice{}).
		Where("id = ?", inv.ID).
		Select("version").
		Scan(&currentVersion).Error; err != nil {
		return err
	}
	if currentVersion == 0 {
		return shared.ErrNotFound
	}

	if currentVersion != inv.LoadedVersion() {
		return shared.NewDomainError("CONCURRENT_MODIFICATION", "The invoice has been modified by another user")
	}

	inv.UpdatedAt = time.Now()

	result := tx.Model(&billing.Invoice{}).
		Where("id = ? AND version = ?", inv.ID, currentVersion).
		Updates(map[string]interface{}{
			"amount":                    inv.Amount,
			"currency":                  inv.Currency,
			"amount_myr":                inv.AmountMYR,
			"exchange_rate":             inv.ExchangeRate,
			"exchange_rate_source":      inv.ExchangeRateSource,
			"invoice_date":              inv.InvoiceDate,
			"due_date":                  inv.DueDate,
			"percentage_of_total":       inv.PercentageOfTotal,
			"cumulative_percentage":     inv.CumulativePercentage,
			"status":                    inv.Status,
			"submitted_for_approval_at": inv.SubmittedForApprovalAt,
			"approved_by":               inv.ApprovedBy,
			"approved_at":               inv.ApprovedAt,
			"sent_at":                   inv.SentAt,
			"paid_at":                   inv.PaidAt,
			"remark":                    inv.Remark,
			"version":                   inv.Version,
			"updated_at":                inv.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("CONCURRENT_MODIFICATION", "The invoice has been modified by another user")
	}
	inv.MarkVersionSaved()
	return nil
}

// DeleteWithEvents deletes an invoice and writes its events to the outbox in
// the same transaction. Remaining sequence numbers keep their gaps.
func (r *GormInvoiceRepository) DeleteWithEvents(ctx context.Context, inv *billing.Invoice, events []shared.DomainEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&billing.Invoice{}, "id = ?", inv.ID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}

		if err := recalcCumulative(tx, inv.ProjectCode); err != nil {
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

// applyFilter applies filter options to the query
func (r *GormInvoiceRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	sortField := ValidateSortField(filter.OrderBy, InvoiceSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	return query.Order(sortField + " " + sortOrder)
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormInvoiceRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("invoice_number ILIKE ? OR remark ILIKE ?",
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
		case "currency":
			query = query.Where("currency = ?", value)
		case "invoice_from":
			if t, ok := value.(time.Time); ok {
				query = query.Where("invoice_date >= ?", t)
			}
		case "invoice_to":
			if t, ok := value.(time.Time); ok {
				query = query.Where("invoice_date <= ?", t)
			}
		}
	}

	return query
}

var _ billing.InvoiceRepository = (*GormInvoiceRepository)(nil)
