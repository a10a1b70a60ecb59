package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/fieldops/backend/internal/domain/billing"
	"github.com/fieldops/backend/internal/domain/currency"
	"github.com/fieldops/backend/internal/domain/project"
	"github.com/fieldops/backend/internal/domain/shared"
	"github.com/fieldops/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupInvoiceTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&project.Project{}, &billing.Invoice{})
	require.NoError(t, err)

	return db
}

func newTestOngoingProject(t *testing.T, db *gorm.DB, code string) *project.Project {
	proj, err := project.NewProject(code, "Cable laying", "Sarawak Energy")
	require.NoError(t, err)
	proj.Activate(nil)
	proj.ClearDomainEvents()
	require.NoError(t, db.Create(proj).Error)
	return proj
}

func newTestInvoice(t *testing.T, number, projectCode string, percentage string) *billing.Invoice {
	amount := decimal.NewFromInt(10000)
	pct, err := decimal.NewFromString(percentage)
	require.NoError(t, err)

	inv, err := billing.NewInvoice(number, projectCode, amount, valueobject.MYR,
		currency.Identity(amount), time.Now(), nil, pct, "", nil)
	require.NoError(t, err)
	return inv
}

func TestGormInvoiceRepository_CreateInSequence(t *testing.T) {
	db := setupInvoiceTestDB(t)
	repo := NewGormInvoiceRepository(db)
	saver := &recordingOutboxSaver{}
	repo.SetOutboxEventSaver(saver)
	ctx := context.Background()

	newTestOngoingProject(t, db, "PRJ-100")

	t.Run("assigns one-based sequence and running cumulative", func(t *testing.T) {
		first := newTestInvoice(t, "INV-001", "PRJ-100", "33.33")
		result, err := repo.CreateInSequence(ctx, first)
		require.NoError(t, err)
		assert.False(t, result.ProjectCompleted)
		assert.Equal(t, 1, first.InvoiceSequence)
		assert.True(t, first.CumulativePercentage.Equal(decimal.RequireFromString("33.33")))

		second := newTestInvoice(t, "INV-002", "PRJ-100", "33.33")
		result, err = repo.CreateInSequence(ctx, second)
		require.NoError(t, err)
		assert.False(t, result.ProjectCompleted)
		assert.Equal(t, 2, second.InvoiceSequence)
		assert.True(t, second.CumulativePercentage.Equal(decimal.RequireFromString("66.66")))

		// Events were written through the outbox inside the transaction
		assert.NotEmpty(t, saver.events)
	})

	t.Run("completes the project at one hundred percent", func(t *testing.T) {
		last := newTestInvoice(t, "INV-003", "PRJ-100", "33.34")
		result, err := repo.CreateInSequence(ctx, last)
		require.NoError(t, err)
		assert.True(t, result.ProjectCompleted)
		assert.Equal(t, 3, last.InvoiceSequence)
		assert.True(t, last.CumulativePercentage.Equal(decimal.RequireFromString("100")))

		var stored project.Project
		require.NoError(t, db.First(&stored, "project_code = ?", "PRJ-100").Error)
		assert.Equal(t, project.StatusCompleted, stored.Status)
		assert.NotNil(t, stored.CompletedAt)
	})

	t.Run("unknown project", func(t *testing.T) {
		inv := newTestInvoice(t, "INV-004", "PRJ-MISSING", "10")
		_, err := repo.CreateInSequence(ctx, inv)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("an already completed project stays completed", func(t *testing.T) {
		extra := newTestInvoice(t, "INV-005", "PRJ-100", "5")
		result, err := repo.CreateInSequence(ctx, extra)
		require.NoError(t, err)
		assert.False(t, result.ProjectCompleted)
		assert.Equal(t, 4, extra.InvoiceSequence)
		assert.True(t, extra.CumulativePercentage.Equal(decimal.RequireFromString("105")))
	})
}

func TestGormInvoiceRepository_SaveWithCumulativeRecalc(t *testing.T) {
	db := setupInvoiceTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()

	newTestOngoingProject(t, db, "PRJ-110")

	numbers := []string{"INV-100", "INV-101", "INV-102"}
	for _, n := range numbers {
		inv := newTestInvoice(t, n, "PRJ-110", "20")
		_, err := repo.CreateInSequence(ctx, inv)
		require.NoError(t, err)
	}

	// Bump the middle invoice from 20 to 30: the chain must replay
	finance := shared.Actor{Capabilities: []shared.Capability{shared.CapabilityFinanceOverride}}
	middle, err := repo.FindByNumber(ctx, "INV-101")
	require.NoError(t, err)
	require.NoError(t, middle.UpdatePercentage(finance, decimal.NewFromInt(30)))

	err = repo.SaveWithCumulativeRecalc(ctx, middle, nil)
	require.NoError(t, err)
	assert.True(t, middle.CumulativePercentage.Equal(decimal.NewFromInt(50)))

	invoices, err := repo.FindByProject(ctx, "PRJ-110", shared.DefaultFilter())
	require.NoError(t, err)
	require.Len(t, invoices, 3)
	assert.True(t, invoices[0].CumulativePercentage.Equal(decimal.NewFromInt(20)))
	assert.True(t, invoices[1].CumulativePercentage.Equal(decimal.NewFromInt(50)))
	assert.True(t, invoices[2].CumulativePercentage.Equal(decimal.NewFromInt(70)))
}

func TestGormInvoiceRepository_SaveWithLock(t *testing.T) {
	db := setupInvoiceTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()

	newTestOngoingProject(t, db, "PRJ-120")
	inv := newTestInvoice(t, "INV-200", "PRJ-120", "50")
	_, err := repo.CreateInSequence(ctx, inv)
	require.NoError(t, err)

	actor := shared.Actor{Capabilities: []shared.Capability{shared.CapabilityFinanceOverride}}

	t.Run("persists a transition", func(t *testing.T) {
		loaded, err := repo.FindByNumber(ctx, "INV-200")
		require.NoError(t, err)
		require.NoError(t, loaded.Submit(actor))

		require.NoError(t, repo.SaveWithLock(ctx, loaded))

		found, err := repo.FindByNumber(ctx, "INV-200")
		require.NoError(t, err)
		assert.Equal(t, billing.StatusPendingApproval, found.Status)
		assert.NotNil(t, found.SubmittedForApprovalAt)
	})

	t.Run("stale version conflicts", func(t *testing.T) {
		stale, err := repo.FindByNumber(ctx, "INV-200")
		require.NoError(t, err)
		fresh, err := repo.FindByNumber(ctx, "INV-200")
		require.NoError(t, err)

		require.NoError(t, fresh.Withdraw(actor))
		require.NoError(t, repo.SaveWithLock(ctx, fresh))

		require.NoError(t, stale.Withdraw(actor))
		err = repo.SaveWithLock(ctx, stale)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "CONCURRENT_MODIFICATION", domainErr.Code)
	})
}

func TestGormInvoiceRepository_DeleteWithEvents(t *testing.T) {
	db := setupInvoiceTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()

	newTestOngoingProject(t, db, "PRJ-130")
	for _, n := range []string{"INV-300", "INV-301", "INV-302"} {
		inv := newTestInvoice(t, n, "PRJ-130", "25")
		_, err := repo.CreateInSequence(ctx, inv)
		require.NoError(t, err)
	}

	t.Run("keeps sequence gaps and recomputes the chain", func(t *testing.T) {
		middle, err := repo.FindByNumber(ctx, "INV-301")
		require.NoError(t, err)

		err = repo.DeleteWithEvents(ctx, middle, nil)
		require.NoError(t, err)

		invoices, err := repo.FindByProject(ctx, "PRJ-130", shared.DefaultFilter())
		require.NoError(t, err)
		require.Len(t, invoices, 2)
		assert.Equal(t, 1, invoices[0].InvoiceSequence)
		assert.Equal(t, 3, invoices[1].InvoiceSequence)
		assert.True(t, invoices[1].CumulativePercentage.Equal(decimal.NewFromInt(50)))
	})

	t.Run("missing invoice", func(t *testing.T) {
		ghost := newTestInvoice(t, "INV-999", "PRJ-130", "5")
		err := repo.DeleteWithEvents(ctx, ghost, nil)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormInvoiceRepository_FindSentBefore(t *testing.T) {
	db := setupInvoiceTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()

	newTestOngoingProject(t, db, "PRJ-140")
	actor := shared.Actor{Capabilities: []shared.Capability{shared.CapabilityApproveInvoice}}

	overdueDate := time.Now().Add(-48 * time.Hour)
	futureDate := time.Now().Add(72 * time.Hour)

	makeSent := func(number string, due time.Time) {
		amount := decimal.NewFromInt(1000)
		inv, err := billing.NewInvoice(number, "PRJ-140", amount, valueobject.MYR,
			currency.Identity(amount), time.Now().Add(-30*24*time.Hour), &due,
			decimal.NewFromInt(10), "", nil)
		require.NoError(t, err)
		_, err = repo.CreateInSequence(ctx, inv)
		require.NoError(t, err)

		require.NoError(t, inv.Submit(actor))
		require.NoError(t, inv.Approve(actor))
		require.NoError(t, inv.MarkSent())
		inv.ClearDomainEvents()
		require.NoError(t, repo.SaveWithLock(ctx, inv))
	}

	makeSent("INV-400", overdueDate)
	makeSent("INV-401", futureDate)

	// A draft with a past due date must not show up
	draft := newTestInvoice(t, "INV-402", "PRJ-140", "10")
	draft.DueDate = &overdueDate
	_, err := repo.CreateInSequence(ctx, draft)
	require.NoError(t, err)

	overdue, err := repo.FindSentBefore(ctx, shared.DefaultFilter())
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, "INV-400", overdue[0].InvoiceNumber)
}
