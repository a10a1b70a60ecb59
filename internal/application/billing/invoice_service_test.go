package billing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appcurrency "github.com/fieldops/backend/internal/application/currency"
	"github.com/fieldops/backend/internal/domain/billing"
	"github.com/fieldops/backend/internal/domain/currency"
	"github.com/fieldops/backend/internal/domain/project"
	"github.com/fieldops/backend/internal/domain/shared"
	"github.com/fieldops/backend/internal/domain/shared/valueobject"
)

// MockInvoiceRepository is a mock implementation of InvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByNumber(ctx context.Context, invoiceNumber string) (*billing.Invoice, error) {
	args := m.Called(ctx, invoiceNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByProject(ctx context.Context, projectCode string, filter shared.Filter) ([]billing.Invoice, error) {
	args := m.Called(ctx, projectCode, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindAll(ctx context.Context, filter shared.Filter) ([]billing.Invoice, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindSentBefore(ctx context.Context, filter shared.Filter) ([]billing.Invoice, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceRepository) CreateInSequence(ctx context.Context, inv *billing.Invoice) (*billing.CreateInSequenceResult, error) {
	args := m.Called(ctx, inv)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.CreateInSequenceResult), args.Error(1)
}

func (m *MockInvoiceRepository) SaveWithLock(ctx context.Context, inv *billing.Invoice) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *MockInvoiceRepository) SaveWithLockAndEvents(ctx context.Context, inv *billing.Invoice, events []shared.DomainEvent) error {
	args := m.Called(ctx, inv, events)
	return args.Error(0)
}

func (m *MockInvoiceRepository) SaveWithCumulativeRecalc(ctx context.Context, inv *billing.Invoice, events []shared.DomainEvent) error {
	args := m.Called(ctx, inv, events)
	return args.Error(0)
}

func (m *MockInvoiceRepository) DeleteWithEvents(ctx context.Context, inv *billing.Invoice, events []shared.DomainEvent) error {
	args := m.Called(ctx, inv, events)
	return args.Error(0)
}

// MockProjectRepository is a mock implementation of project.Repository
type MockProjectRepository struct {
	mock.Mock
}

func (m *MockProjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*project.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*project.Project), args.Error(1)
}

func (m *MockProjectRepository) FindByCode(ctx context.Context, projectCode string) (*project.Project, error) {
	args := m.Called(ctx, projectCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*project.Project), args.Error(1)
}

func (m *MockProjectRepository) FindAll(ctx context.Context, filter shared.Filter) ([]project.Project, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]project.Project), args.Error(1)
}

func (m *MockProjectRepository) Save(ctx context.Context, p *project.Project) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockProjectRepository) SaveWithLock(ctx context.Context, p *project.Project) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProjectRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockExchangeRateRepository is a mock implementation of ExchangeRateRepository
type MockExchangeRateRepository struct {
	mock.Mock
}

func (m *MockExchangeRateRepository) Save(ctx context.Context, rate *currency.ExchangeRate) error {
	args := m.Called(ctx, rate)
	return args.Error(0)
}

func (m *MockExchangeRateRepository) SaveWithEvents(ctx context.Context, rate *currency.ExchangeRate, events []shared.DomainEvent) error {
	args := m.Called(ctx, rate, events)
	return args.Error(0)
}

func (m *MockExchangeRateRepository) FindEffective(ctx context.Context, from valueobject.Currency, asOf time.Time) (*currency.ExchangeRate, error) {
	args := m.Called(ctx, from, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*currency.ExchangeRate), args.Error(1)
}

func (m *MockExchangeRateRepository) FindHistory(ctx context.Context, from valueobject.Currency, filter shared.Filter) ([]currency.ExchangeRate, error) {
	args := m.Called(ctx, from, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]currency.ExchangeRate), args.Error(1)
}

func (m *MockExchangeRateRepository) FindAll(ctx context.Context, filter shared.Filter) ([]currency.ExchangeRate, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]currency.ExchangeRate), args.Error(1)
}

func (m *MockExchangeRateRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

type invoiceFixture struct {
	invoiceRepo *MockInvoiceRepository
	projectRepo *MockProjectRepository
	rateRepo    *MockExchangeRateRepository
	svc         *InvoiceService
}

func newInvoiceFixture() *invoiceFixture {
	invoiceRepo := new(MockInvoiceRepository)
	projectRepo := new(MockProjectRepository)
	rateRepo := new(MockExchangeRateRepository)
	currencySvc := appcurrency.NewCurrencyService(rateRepo)
	return &invoiceFixture{
		invoiceRepo: invoiceRepo,
		projectRepo: projectRepo,
		rateRepo:    rateRepo,
		svc:         NewInvoiceService(invoiceRepo, projectRepo, currencySvc, nil),
	}
}

func ongoingProject(t *testing.T) *project.Project {
	t.Helper()
	proj, err := project.NewProject("PRJ-ALPHA", "Substation upgrade", "")
	require.NoError(t, err)
	require.True(t, proj.Activate(nil))
	proj.ClearDomainEvents()
	return proj
}

func draftInvoice(t *testing.T, createdBy uuid.UUID) *billing.Invoice {
	t.Helper()
	inv, err := billing.NewInvoice(
		"INV-2026-001", "PRJ-ALPHA",
		decimal.NewFromInt(5000), valueobject.MYR,
		currency.Identity(decimal.NewFromInt(5000)),
		time.Now(), nil, decimal.NewFromInt(30), "", &createdBy,
	)
	require.NoError(t, err)
	require.NoError(t, inv.AssignSequence(1, decimal.NewFromInt(30)))
	inv.ClearDomainEvents()
	return inv
}

func TestCreateInvoice(t *testing.T) {
	ctx := context.Background()
	actor := shared.Actor{ID: uuid.New(), Name: "engineer"}

	t.Run("creates draft via the sequencing transaction", func(t *testing.T) {
		f := newInvoiceFixture()
		proj := ongoingProject(t)

		f.invoiceRepo.On("FindByNumber", ctx, "INV-2026-001").Return(nil, shared.ErrNotFound)
		f.projectRepo.On("FindByCode", ctx, "PRJ-ALPHA").Return(proj, nil)
		f.invoiceRepo.On("CreateInSequence", ctx, mock.AnythingOfType("*billing.Invoice")).
			Return(&billing.CreateInSequenceResult{ProjectCompleted: false}, nil)

		resp, err := f.svc.Create(ctx, actor, CreateInvoiceRequest{
			InvoiceNumber:     "INV-2026-001",
			ProjectCode:       "PRJ-ALPHA",
			Amount:            decimal.NewFromInt(5000),
			Currency:          "MYR",
			PercentageOfTotal: decimal.NewFromInt(30),
		})
		require.NoError(t, err)
		assert.Equal(t, "DRAFT", resp.Invoice.Status)
		assert.False(t, resp.ProjectCompleted)
	})

	t.Run("reports project completion from the transaction", func(t *testing.T) {
		f := newInvoiceFixture()
		proj := ongoingProject(t)

		f.invoiceRepo.On("FindByNumber", ctx, "INV-2026-004").Return(nil, shared.ErrNotFound)
		f.projectRepo.On("FindByCode", ctx, "PRJ-ALPHA").Return(proj, nil)
		f.invoiceRepo.On("CreateInSequence", ctx, mock.Anything).
			Return(&billing.CreateInSequenceResult{ProjectCompleted: true}, nil)

		resp, err := f.svc.Create(ctx, actor, CreateInvoiceRequest{
			InvoiceNumber:     "INV-2026-004",
			ProjectCode:       "PRJ-ALPHA",
			Amount:            decimal.NewFromInt(5000),
			Currency:          "MYR",
			PercentageOfTotal: decimal.NewFromInt(40),
		})
		require.NoError(t, err)
		assert.True(t, resp.ProjectCompleted)
	})

	t.Run("rejects duplicate invoice number", func(t *testing.T) {
		f := newInvoiceFixture()
		existing := draftInvoice(t, actor.ID)

		f.invoiceRepo.On("FindByNumber", ctx, "INV-2026-001").Return(existing, nil)

		_, err := f.svc.Create(ctx, actor, CreateInvoiceRequest{
			InvoiceNumber:     "INV-2026-001",
			ProjectCode:       "PRJ-ALPHA",
			Amount:            decimal.NewFromInt(5000),
			Currency:          "MYR",
			PercentageOfTotal: decimal.NewFromInt(30),
		})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("rejects invoicing a planning project", func(t *testing.T) {
		f := newInvoiceFixture()
		proj, err := project.NewProject("PRJ-ALPHA", "Substation upgrade", "")
		require.NoError(t, err)

		f.invoiceRepo.On("FindByNumber", ctx, "INV-2026-002").Return(nil, shared.ErrNotFound)
		f.projectRepo.On("FindByCode", ctx, "PRJ-ALPHA").Return(proj, nil)

		_, err = f.svc.Create(ctx, actor, CreateInvoiceRequest{
			InvoiceNumber:     "INV-2026-002",
			ProjectCode:       "PRJ-ALPHA",
			Amount:            decimal.NewFromInt(5000),
			Currency:          "MYR",
			PercentageOfTotal: decimal.NewFromInt(30),
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no purchase orders")
		f.invoiceRepo.AssertNotCalled(t, "CreateInSequence")
	})
}

func TestUpdateInvoice(t *testing.T) {
	ctx := context.Background()
	creator := shared.Actor{ID: uuid.New(), Name: "engineer"}

	t.Run("percentage change triggers cumulative recalculation", func(t *testing.T) {
		f := newInvoiceFixture()
		inv := draftInvoice(t, creator.ID)

		f.invoiceRepo.On("FindByID", ctx, inv.ID).Return(inv, nil)
		f.invoiceRepo.On("SaveWithCumulativeRecalc", ctx, inv, mock.Anything).Return(nil)

		pct := decimal.NewFromInt(40)
		resp, err := f.svc.Update(ctx, creator, inv.ID, UpdateInvoiceRequest{PercentageOfTotal: &pct})
		require.NoError(t, err)
		assert.True(t, resp.PercentageOfTotal.Equal(pct))
		f.invoiceRepo.AssertNotCalled(t, "SaveWithLockAndEvents")
	})

	t.Run("non-percentage edit uses the plain save", func(t *testing.T) {
		f := newInvoiceFixture()
		inv := draftInvoice(t, creator.ID)

		f.invoiceRepo.On("FindByID", ctx, inv.ID).Return(inv, nil)
		f.invoiceRepo.On("SaveWithLockAndEvents", ctx, inv, mock.Anything).Return(nil)

		remark := "resubmitted with PO reference"
		_, err := f.svc.Update(ctx, creator, inv.ID, UpdateInvoiceRequest{Remark: &remark})
		require.NoError(t, err)
		f.invoiceRepo.AssertNotCalled(t, "SaveWithCumulativeRecalc")
	})

	t.Run("pending invoice rejects edits by other users", func(t *testing.T) {
		f := newInvoiceFixture()
		inv := draftInvoice(t, creator.ID)
		require.NoError(t, inv.Submit(creator))
		inv.ClearDomainEvents()

		f.invoiceRepo.On("FindByID", ctx, inv.ID).Return(inv, nil)

		pct := decimal.NewFromInt(40)
		outsider := shared.Actor{ID: uuid.New(), Name: "other"}
		_, err := f.svc.Update(ctx, outsider, inv.ID, UpdateInvoiceRequest{PercentageOfTotal: &pct})
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})
}

func TestInvoiceLifecycle(t *testing.T) {
	ctx := context.Background()
	creator := shared.Actor{ID: uuid.New(), Name: "engineer"}
	lead := shared.Actor{ID: uuid.New(), Name: "finance lead", Capabilities: []shared.Capability{shared.CapabilityApproveInvoice}}

	t.Run("submit then approve persists each transition", func(t *testing.T) {
		f := newInvoiceFixture()
		inv := draftInvoice(t, creator.ID)

		f.invoiceRepo.On("FindByID", ctx, inv.ID).Return(inv, nil)
		f.invoiceRepo.On("SaveWithLockAndEvents", ctx, inv, mock.Anything).Return(nil)

		resp, err := f.svc.Submit(ctx, creator, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, "PENDING_APPROVAL", resp.Status)

		resp, err = f.svc.Approve(ctx, lead, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, "APPROVED", resp.Status)
	})

	t.Run("approve without capability fails before save", func(t *testing.T) {
		f := newInvoiceFixture()
		inv := draftInvoice(t, creator.ID)
		require.NoError(t, inv.Submit(creator))
		inv.ClearDomainEvents()

		f.invoiceRepo.On("FindByID", ctx, inv.ID).Return(inv, nil)

		_, err := f.svc.Approve(ctx, creator, inv.ID)
		assert.ErrorIs(t, err, shared.ErrForbidden)
		f.invoiceRepo.AssertNotCalled(t, "SaveWithLockAndEvents")
	})
}

func TestDeleteInvoice(t *testing.T) {
	ctx := context.Background()
	creator := shared.Actor{ID: uuid.New(), Name: "engineer"}

	t.Run("deletes draft with events", func(t *testing.T) {
		f := newInvoiceFixture()
		inv := draftInvoice(t, creator.ID)

		f.invoiceRepo.On("FindByID", ctx, inv.ID).Return(inv, nil)
		f.invoiceRepo.On("DeleteWithEvents", ctx, inv, mock.Anything).Return(nil)

		require.NoError(t, f.svc.Delete(ctx, creator, inv.ID))

		events := f.invoiceRepo.Calls[len(f.invoiceRepo.Calls)-1].Arguments.Get(2).([]shared.DomainEvent)
		require.Len(t, events, 1)
		assert.Equal(t, billing.EventTypeInvoiceDeleted, events[0].EventType())
	})

	t.Run("rejects deleting non-draft without override", func(t *testing.T) {
		f := newInvoiceFixture()
		inv := draftInvoice(t, creator.ID)
		require.NoError(t, inv.Submit(creator))
		inv.ClearDomainEvents()

		f.invoiceRepo.On("FindByID", ctx, inv.ID).Return(inv, nil)

		err := f.svc.Delete(ctx, creator, inv.ID)
		require.Error(t, err)
		f.invoiceRepo.AssertNotCalled(t, "DeleteWithEvents")
	})
}

func TestCheckOverdue(t *testing.T) {
	ctx := context.Background()
	creator := uuid.New()

	sentInvoice := func(t *testing.T, number string, due time.Time) billing.Invoice {
		t.Helper()
		inv, err := billing.NewInvoice(
			number, "PRJ-ALPHA",
			decimal.NewFromInt(1000), valueobject.MYR,
			currency.Identity(decimal.NewFromInt(1000)),
			time.Now().AddDate(0, -2, 0), &due, decimal.NewFromInt(10), "", &creator,
		)
		require.NoError(t, err)
		require.NoError(t, inv.AssignSequence(1, decimal.NewFromInt(10)))
		actor := shared.Actor{ID: creator, Capabilities: []shared.Capability{shared.CapabilityApproveInvoice}}
		require.NoError(t, inv.Submit(actor))
		require.NoError(t, inv.Approve(actor))
		require.NoError(t, inv.MarkSent())
		inv.ClearDomainEvents()
		return *inv
	}

	t.Run("marks past-due sent invoices overdue", func(t *testing.T) {
		f := newInvoiceFixture()
		asOf := time.Now()
		overdue := sentInvoice(t, "INV-PAST", asOf.AddDate(0, 0, -10))
		current := sentInvoice(t, "INV-CURRENT", asOf.AddDate(0, 0, 10))

		f.invoiceRepo.On("FindSentBefore", ctx, mock.Anything).Return([]billing.Invoice{overdue, current}, nil)
		f.invoiceRepo.On("SaveWithLockAndEvents", ctx, mock.Anything, mock.Anything).Return(nil)

		resp, err := f.svc.CheckOverdue(ctx, asOf)
		require.NoError(t, err)
		assert.Equal(t, 2, resp.Checked)
		assert.Equal(t, 1, resp.MarkedCount)
		assert.Equal(t, []string{"INV-PAST"}, resp.Marked)
	})

	t.Run("a conflicting save does not abort the sweep", func(t *testing.T) {
		f := newInvoiceFixture()
		asOf := time.Now()
		first := sentInvoice(t, "INV-A", asOf.AddDate(0, 0, -5))
		second := sentInvoice(t, "INV-B", asOf.AddDate(0, 0, -5))

		f.invoiceRepo.On("FindSentBefore", ctx, mock.Anything).Return([]billing.Invoice{first, second}, nil)
		f.invoiceRepo.On("SaveWithLockAndEvents", ctx, mock.Anything, mock.Anything).
			Return(shared.ErrConcurrencyConflict).Once()
		f.invoiceRepo.On("SaveWithLockAndEvents", ctx, mock.Anything, mock.Anything).
			Return(nil).Once()

		resp, err := f.svc.CheckOverdue(ctx, asOf)
		require.NoError(t, err)
		assert.Equal(t, 1, resp.MarkedCount)
	})
}

func TestListInvoices(t *testing.T) {
	ctx := context.Background()

	t.Run("passes the invoice date range to the repository", func(t *testing.T) {
		f := newInvoiceFixture()
		from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)

		withDateRange := mock.MatchedBy(func(filter shared.Filter) bool {
			gotFrom, okFrom := filter.Filters["invoice_from"].(time.Time)
			gotTo, okTo := filter.Filters["invoice_to"].(time.Time)
			return okFrom && okTo && gotFrom.Equal(from) && gotTo.Equal(to)
		})
		f.invoiceRepo.On("FindAll", ctx, withDateRange).Return([]billing.Invoice{}, nil)
		f.invoiceRepo.On("Count", ctx, withDateRange).Return(int64(0), nil)

		_, _, err := f.svc.List(ctx, InvoiceListFilter{StartDate: &from, EndDate: &to})
		require.NoError(t, err)
		f.invoiceRepo.AssertExpectations(t)
	})
}
