package billing

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appcurrency "github.com/fieldops/backend/internal/application/currency"
	"github.com/fieldops/backend/internal/domain/billing"
	"github.com/fieldops/backend/internal/domain/project"
	"github.com/fieldops/backend/internal/domain/shared"
	"github.com/fieldops/backend/internal/domain/shared/valueobject"
)

// InvoiceService handles the invoice approval lifecycle and progress billing
type InvoiceService struct {
	invoiceRepo billing.InvoiceRepository
	projectRepo project.Repository
	currencySvc *appcurrency.CurrencyService
	logger      *zap.Logger
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(invoiceRepo billing.InvoiceRepository, projectRepo project.Repository, currencySvc *appcurrency.CurrencyService, logger *zap.Logger) *InvoiceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceService{
		invoiceRepo: invoiceRepo,
		projectRepo: projectRepo,
		currencySvc: currencySvc,
		logger:      logger,
	}
}

// Create creates a draft invoice. The sequence number and cumulative
// percentage are derived inside the creating transaction while the project
// row is locked, so concurrent creations serialize; reaching 100% completes
// the project in the same transaction.
func (s *InvoiceService) Create(ctx context.Context, actor shared.Actor, req CreateInvoiceRequest) (*CreateInvoiceResponse, error) {
	if _, err := s.invoiceRepo.FindByNumber(ctx, req.InvoiceNumber); err == nil {
		return nil, shared.ErrAlreadyExists
	} else if !shared.IsNotFound(err) {
		return nil, err
	}

	proj, err := s.projectRepo.FindByCode(ctx, req.ProjectCode)
	if err != nil {
		return nil, err
	}
	if proj.Status == project.StatusPlanning {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot invoice a project that has no purchase orders")
	}

	invoiceDate := time.Now()
	if req.InvoiceDate != nil {
		invoiceDate = *req.InvoiceDate
	}

	cur := valueobject.Currency(strings.ToUpper(req.Currency))
	conv, err := s.currencySvc.ConversionFor(ctx, req.Amount, cur, invoiceDate, req.ManualRate)
	if err != nil {
		return nil, err
	}

	inv, err := billing.NewInvoice(req.InvoiceNumber, req.ProjectCode, req.Amount, cur, conv, invoiceDate, req.DueDate, req.PercentageOfTotal, req.Remark, &actor.ID)
	if err != nil {
		return nil, err
	}

	result, err := s.invoiceRepo.CreateInSequence(ctx, inv)
	if err != nil {
		return nil, err
	}

	if result.ProjectCompleted {
		s.logger.Info("project fully billed",
			zap.String("project_code", inv.ProjectCode),
			zap.String("invoice_number", inv.InvoiceNumber))
	}

	return &CreateInvoiceResponse{
		Invoice:          ToInvoiceResponse(inv),
		ProjectCompleted: result.ProjectCompleted,
	}, nil
}

// Update edits an invoice subject to the status edit rules. A percentage
// change recomputes the cumulative chain of the project in one transaction.
func (s *InvoiceService) Update(ctx context.Context, actor shared.Actor, id uuid.UUID, req UpdateInvoiceRequest) (*InvoiceResponse, error) {
	inv, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	percentageChanged := false

	if req.Amount != nil || req.Currency != nil || req.ManualRate != nil {
		amount := inv.Amount
		if req.Amount != nil {
			amount = *req.Amount
		}
		cur := inv.Currency
		if req.Currency != nil {
			cur = valueobject.Currency(strings.ToUpper(*req.Currency))
		}
		asOf := inv.InvoiceDate
		if req.InvoiceDate != nil {
			asOf = *req.InvoiceDate
		}
		conv, err := s.currencySvc.ConversionFor(ctx, amount, cur, asOf, req.ManualRate)
		if err != nil {
			return nil, err
		}
		if err := inv.UpdateAmount(actor, amount, cur, conv); err != nil {
			return nil, err
		}
	}

	if req.PercentageOfTotal != nil && !req.PercentageOfTotal.Equal(inv.PercentageOfTotal) {
		if err := inv.UpdatePercentage(actor, *req.PercentageOfTotal); err != nil {
			return nil, err
		}
		percentageChanged = true
	}

	if req.InvoiceDate != nil || req.DueDate != nil || req.Remark != nil {
		if err := inv.UpdateDetails(actor, req.InvoiceDate, req.DueDate, req.Remark); err != nil {
			return nil, err
		}
	}

	events := inv.GetDomainEvents()
	inv.ClearDomainEvents()

	if percentageChanged {
		err = s.invoiceRepo.SaveWithCumulativeRecalc(ctx, inv, events)
	} else {
		err = s.invoiceRepo.SaveWithLockAndEvents(ctx, inv, events)
	}
	if err != nil {
		return nil, err
	}

	response := ToInvoiceResponse(inv)
	return &response, nil
}

// Submit queues a draft invoice for approval
func (s *InvoiceService) Submit(ctx context.Context, actor shared.Actor, id uuid.UUID) (*InvoiceResponse, error) {
	return s.transition(ctx, id, func(inv *billing.Invoice) error {
		return inv.Submit(actor)
	})
}

// Approve approves a pending invoice. The actor must hold the approval
// capability.
func (s *InvoiceService) Approve(ctx context.Context, actor shared.Actor, id uuid.UUID) (*InvoiceResponse, error) {
	return s.transition(ctx, id, func(inv *billing.Invoice) error {
		return inv.Approve(actor)
	})
}

// Withdraw pulls a pending invoice back to draft
func (s *InvoiceService) Withdraw(ctx context.Context, actor shared.Actor, id uuid.UUID) (*InvoiceResponse, error) {
	return s.transition(ctx, id, func(inv *billing.Invoice) error {
		return inv.Withdraw(actor)
	})
}

// MarkSent records that the approved invoice has been issued
func (s *InvoiceService) MarkSent(ctx context.Context, id uuid.UUID) (*InvoiceResponse, error) {
	return s.transition(ctx, id, func(inv *billing.Invoice) error {
		return inv.MarkSent()
	})
}

// MarkPaid records payment of a sent or overdue invoice
func (s *InvoiceService) MarkPaid(ctx context.Context, id uuid.UUID) (*InvoiceResponse, error) {
	return s.transition(ctx, id, func(inv *billing.Invoice) error {
		return inv.MarkPaid()
	})
}

func (s *InvoiceService) transition(ctx context.Context, id uuid.UUID, fn func(*billing.Invoice) error) (*InvoiceResponse, error) {
	inv, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := fn(inv); err != nil {
		return nil, err
	}

	events := inv.GetDomainEvents()
	inv.ClearDomainEvents()
	if err := s.invoiceRepo.SaveWithLockAndEvents(ctx, inv, events); err != nil {
		return nil, err
	}

	response := ToInvoiceResponse(inv)
	return &response, nil
}

// Delete removes an invoice. Sequence numbers of the remaining invoices are
// never renumbered; the gap is intentional.
func (s *InvoiceService) Delete(ctx context.Context, actor shared.Actor, id uuid.UUID) error {
	inv, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !inv.IsDraft() && !actor.Can(shared.CapabilityFinanceOverride) {
		return shared.NewDomainError("INVALID_STATE", "Only draft invoices can be deleted")
	}
	if inv.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Paid invoices cannot be deleted")
	}

	inv.AddDomainEvent(billing.NewInvoiceDeletedEvent(inv))
	events := inv.GetDomainEvents()
	inv.ClearDomainEvents()

	return s.invoiceRepo.DeleteWithEvents(ctx, inv, events)
}

// GetByID retrieves an invoice by ID
func (s *InvoiceService) GetByID(ctx context.Context, id uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToInvoiceResponse(inv)
	return &response, nil
}

// List retrieves invoices with filtering and pagination
func (s *InvoiceService) List(ctx context.Context, filter InvoiceListFilter) ([]InvoiceResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "invoice_date"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	if filter.StartDate != nil {
		domainFilter.Filters["invoice_from"] = *filter.StartDate
	}
	if filter.EndDate != nil {
		domainFilter.Filters["invoice_to"] = *filter.EndDate
	}

	var invs []billing.Invoice
	var err error
	if filter.ProjectCode != "" {
		domainFilter.Filters["project_code"] = filter.ProjectCode
		invs, err = s.invoiceRepo.FindByProject(ctx, filter.ProjectCode, domainFilter)
	} else {
		invs, err = s.invoiceRepo.FindAll(ctx, domainFilter)
	}
	if err != nil {
		return nil, 0, err
	}

	total, err := s.invoiceRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToInvoiceResponses(invs), total, nil
}

// CheckOverdue sweeps SENT invoices whose due date has passed and marks
// them OVERDUE. Run on a schedule; each invoice is saved independently so
// one conflict does not abort the sweep.
func (s *InvoiceService) CheckOverdue(ctx context.Context, asOf time.Time) (*OverdueCheckResponse, error) {
	if asOf.IsZero() {
		asOf = time.Now()
	}

	invs, err := s.invoiceRepo.FindSentBefore(ctx, shared.Filter{
		Page:     1,
		PageSize: 500,
		Filters:  map[string]interface{}{"due_before": asOf},
	})
	if err != nil {
		return nil, err
	}

	result := &OverdueCheckResponse{Checked: len(invs)}
	for i := range invs {
		inv := &invs[i]
		if !inv.MarkOverdue(asOf) {
			continue
		}
		events := inv.GetDomainEvents()
		inv.ClearDomainEvents()
		if err := s.invoiceRepo.SaveWithLockAndEvents(ctx, inv, events); err != nil {
			s.logger.Warn("failed to mark invoice overdue",
				zap.String("invoice_number", inv.InvoiceNumber),
				zap.Error(err))
			continue
		}
		result.MarkedCount++
		result.Marked = append(result.Marked, inv.InvoiceNumber)
	}

	return result, nil
}
