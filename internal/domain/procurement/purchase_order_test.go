package procurement

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/backend/internal/domain/currency"
	"github.com/fieldops/backend/internal/domain/shared"
	"github.com/fieldops/backend/internal/domain/shared/valueobject"
)

func usdConversion(amount float64, rate float64) currency.Conversion {
	a := decimal.NewFromFloat(amount)
	r := decimal.NewFromFloat(rate)
	return currency.Conversion{
		AmountMYR: a.Mul(r).Round(2),
		Rate:      r,
		Source:    currency.RateSourceAutomatic,
	}
}

func newTestPO(t *testing.T) *PurchaseOrder {
	t.Helper()
	userID := uuid.New()
	po, err := NewPurchaseOrder(
		"PO-2026-001", "PRJ-ALPHA", "Site survey works",
		decimal.NewFromInt(1000), valueobject.USD,
		usdConversion(1000, 4.45),
		time.Now(), nil, &userID,
	)
	require.NoError(t, err)
	return po
}

func TestNewPurchaseOrder(t *testing.T) {
	userID := uuid.New()

	t.Run("creates first revision with conversion snapshot", func(t *testing.T) {
		due := time.Now().AddDate(0, 1, 0)
		po, err := NewPurchaseOrder(
			"PO-2026-001", "PRJ-ALPHA", "Site survey works",
			decimal.NewFromInt(1000), valueobject.USD,
			usdConversion(1000, 4.45),
			time.Now(), &due, &userID,
		)
		require.NoError(t, err)
		require.NotNil(t, po)

		assert.Equal(t, "PO-2026-001", po.PONumberBase)
		assert.Equal(t, "PO-2026-001", po.PONumber)
		assert.Equal(t, 1, po.RevisionNumber)
		assert.True(t, po.IsActive)
		assert.False(t, po.IsRevision())
		assert.Nil(t, po.Supersedes)
		assert.Nil(t, po.SupersededBy)
		assert.Equal(t, StatusReceived, po.Status)
		assert.True(t, po.AmountMYR.Equal(decimal.NewFromFloat(4450)))
		assert.True(t, po.ExchangeRate.Equal(decimal.NewFromFloat(4.45)))
		assert.Equal(t, currency.RateSourceAutomatic, po.ExchangeRateSource)
		assert.Equal(t, 1, po.GetVersion())
	})

	t.Run("effective amount falls back to converted amount", func(t *testing.T) {
		po := newTestPO(t)
		assert.False(t, po.IsAdjusted())
		assert.True(t, po.EffectiveAmountMYR().Equal(po.AmountMYR))
	})

	t.Run("publishes PurchaseOrderCreated event", func(t *testing.T) {
		po := newTestPO(t)
		events := po.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypePurchaseOrderCreated, events[0].EventType())

		event, ok := events[0].(*PurchaseOrderCreatedEvent)
		require.True(t, ok)
		assert.Equal(t, po.PONumber, event.PONumber)
		assert.Equal(t, po.ProjectCode, event.ProjectCode)
	})

	t.Run("fails with empty PO number", func(t *testing.T) {
		_, err := NewPurchaseOrder("", "PRJ-ALPHA", "", decimal.NewFromInt(100), valueobject.MYR, currency.Identity(decimal.NewFromInt(100)), time.Now(), nil, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "PO number cannot be empty")
	})

	t.Run("fails with empty project code", func(t *testing.T) {
		_, err := NewPurchaseOrder("PO-1", "", "", decimal.NewFromInt(100), valueobject.MYR, currency.Identity(decimal.NewFromInt(100)), time.Now(), nil, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Project code cannot be empty")
	})

	t.Run("fails with non-positive amount", func(t *testing.T) {
		_, err := NewPurchaseOrder("PO-1", "PRJ-ALPHA", "", decimal.Zero, valueobject.MYR, currency.Identity(decimal.Zero), time.Now(), nil, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Amount must be positive")
	})

	t.Run("fails with unsupported currency", func(t *testing.T) {
		_, err := NewPurchaseOrder("PO-1", "PRJ-ALPHA", "", decimal.NewFromInt(100), valueobject.Currency("XYZ"), currency.Identity(decimal.NewFromInt(100)), time.Now(), nil, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Unsupported currency")
	})
}

func TestNewRevision(t *testing.T) {
	userID := uuid.New()

	t.Run("creates next revision inheriting base and status", func(t *testing.T) {
		po := newTestPO(t)
		require.NoError(t, po.UpdateStatus(StatusInProgress))

		rev, err := po.NewRevision(decimal.NewFromInt(1200), valueobject.USD, usdConversion(1200, 4.50), time.Now(), "", userID)
		require.NoError(t, err)
		require.NotNil(t, rev)

		assert.Equal(t, po.PONumberBase, rev.PONumberBase)
		assert.Equal(t, "PO-2026-001 Rev 2", rev.PONumber)
		assert.Equal(t, 2, rev.RevisionNumber)
		assert.True(t, rev.IsRevision())
		assert.True(t, rev.IsActive)
		assert.Equal(t, StatusInProgress, rev.Status)
		assert.Equal(t, po.Description, rev.Description)
		require.NotNil(t, rev.Supersedes)
		assert.Equal(t, po.ID, *rev.Supersedes)
		assert.NotEqual(t, po.ID, rev.ID)
	})

	t.Run("revision carries its own conversion snapshot", func(t *testing.T) {
		po := newTestPO(t)
		rev, err := po.NewRevision(decimal.NewFromInt(1200), valueobject.USD, usdConversion(1200, 4.50), time.Now(), "", userID)
		require.NoError(t, err)

		assert.True(t, rev.ExchangeRate.Equal(decimal.NewFromFloat(4.50)))
		assert.True(t, rev.AmountMYR.Equal(decimal.NewFromFloat(5400)))
		assert.True(t, po.ExchangeRate.Equal(decimal.NewFromFloat(4.45)))
	})

	t.Run("revision does not inherit adjustment", func(t *testing.T) {
		po := newTestPO(t)
		require.NoError(t, po.AdjustMYRAmount(decimal.NewFromInt(4400), "bank transfer fee deducted", userID))

		rev, err := po.NewRevision(decimal.NewFromInt(1200), valueobject.USD, usdConversion(1200, 4.50), time.Now(), "", userID)
		require.NoError(t, err)
		assert.False(t, rev.IsAdjusted())
		assert.Nil(t, rev.AmountMYRAdjusted)
	})

	t.Run("publishes PurchaseOrderRevised event", func(t *testing.T) {
		po := newTestPO(t)
		rev, err := po.NewRevision(decimal.NewFromInt(1200), valueobject.USD, usdConversion(1200, 4.50), time.Now(), "", userID)
		require.NoError(t, err)

		events := rev.GetDomainEvents()
		require.Len(t, events, 1)
		event, ok := events[0].(*PurchaseOrderRevisedEvent)
		require.True(t, ok)
		assert.Equal(t, po.ID, event.SupersededID)
		assert.Equal(t, 2, event.RevisionNumber)
	})

	t.Run("fails on superseded revision", func(t *testing.T) {
		po := newTestPO(t)
		rev, err := po.NewRevision(decimal.NewFromInt(1200), valueobject.USD, usdConversion(1200, 4.50), time.Now(), "", userID)
		require.NoError(t, err)
		po.MarkSuperseded(rev.ID)

		_, err = po.NewRevision(decimal.NewFromInt(1300), valueobject.USD, usdConversion(1300, 4.50), time.Now(), "", userID)
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrInactiveRevision)
	})

	t.Run("fails on paid purchase order", func(t *testing.T) {
		po := newTestPO(t)
		require.NoError(t, po.UpdateStatus(StatusInProgress))
		require.NoError(t, po.UpdateStatus(StatusInvoiced))
		require.NoError(t, po.UpdateStatus(StatusPaid))

		_, err := po.NewRevision(decimal.NewFromInt(1200), valueobject.USD, usdConversion(1200, 4.50), time.Now(), "", userID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be revised")
	})
}

func TestMarkSuperseded(t *testing.T) {
	userID := uuid.New()

	t.Run("deactivates original and links successor", func(t *testing.T) {
		po := newTestPO(t)
		rev, err := po.NewRevision(decimal.NewFromInt(1200), valueobject.USD, usdConversion(1200, 4.50), time.Now(), "", userID)
		require.NoError(t, err)

		versionBefore := po.GetVersion()
		po.MarkSuperseded(rev.ID)

		assert.False(t, po.IsActive)
		require.NotNil(t, po.SupersededBy)
		assert.Equal(t, rev.ID, *po.SupersededBy)
		assert.Equal(t, versionBefore+1, po.GetVersion())
	})
}

func TestAdjustMYRAmount(t *testing.T) {
	userID := uuid.New()

	t.Run("applies override within deviation cap", func(t *testing.T) {
		// AmountMYR is 4450; 4400 deviates about 1.1%
		po := newTestPO(t)
		err := po.AdjustMYRAmount(decimal.NewFromInt(4400), "bank transfer fee deducted", userID)
		require.NoError(t, err)

		assert.True(t, po.IsAdjusted())
		assert.True(t, po.EffectiveAmountMYR().Equal(decimal.NewFromInt(4400)))
		assert.True(t, po.AmountMYR.Equal(decimal.NewFromFloat(4450)))
		assert.Equal(t, "bank transfer fee deducted", po.AdjustmentReason)
		require.NotNil(t, po.AdjustedBy)
		assert.Equal(t, userID, *po.AdjustedBy)
		assert.NotNil(t, po.AdjustedAt)
	})

	t.Run("accepts deviation exactly at the cap", func(t *testing.T) {
		po := newTestPO(t)
		// 4450 * 1.5 = 6675, exactly 50% above
		err := po.AdjustMYRAmount(decimal.NewFromInt(6675), "settlement corrected per bank advice", userID)
		require.NoError(t, err)
	})

	t.Run("rejects deviation above the cap", func(t *testing.T) {
		po := newTestPO(t)
		err := po.AdjustMYRAmount(decimal.NewFromInt(6700), "settlement corrected per bank advice", userID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "require a revision")
	})

	t.Run("rejects short reason", func(t *testing.T) {
		po := newTestPO(t)
		err := po.AdjustMYRAmount(decimal.NewFromInt(4400), "fee", userID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least 10 characters")
	})

	t.Run("rejects whitespace-padded short reason", func(t *testing.T) {
		po := newTestPO(t)
		err := po.AdjustMYRAmount(decimal.NewFromInt(4400), "   fee      ", userID)
		require.Error(t, err)
	})

	t.Run("rejects non-positive adjusted amount", func(t *testing.T) {
		po := newTestPO(t)
		err := po.AdjustMYRAmount(decimal.Zero, "bank transfer fee deducted", userID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be positive")
	})

	t.Run("re-adjustment measures deviation against unadjusted amount", func(t *testing.T) {
		po := newTestPO(t)
		require.NoError(t, po.AdjustMYRAmount(decimal.NewFromInt(4400), "bank transfer fee deducted", userID))
		// Second adjustment still compared to 4450, not 4400
		err := po.AdjustMYRAmount(decimal.NewFromInt(6700), "another correction applied here", userID)
		require.Error(t, err)
	})

	t.Run("fails on superseded revision", func(t *testing.T) {
		po := newTestPO(t)
		po.MarkSuperseded(uuid.New())
		err := po.AdjustMYRAmount(decimal.NewFromInt(4400), "bank transfer fee deducted", userID)
		assert.ErrorIs(t, err, shared.ErrInactiveRevision)
	})

	t.Run("fails on paid purchase order", func(t *testing.T) {
		po := newTestPO(t)
		require.NoError(t, po.UpdateStatus(StatusInProgress))
		require.NoError(t, po.UpdateStatus(StatusInvoiced))
		require.NoError(t, po.UpdateStatus(StatusPaid))
		err := po.AdjustMYRAmount(decimal.NewFromInt(4400), "bank transfer fee deducted", userID)
		require.Error(t, err)
	})

	t.Run("publishes PurchaseOrderAdjusted event with previous amount", func(t *testing.T) {
		po := newTestPO(t)
		po.ClearDomainEvents()
		require.NoError(t, po.AdjustMYRAmount(decimal.NewFromInt(4400), "bank transfer fee deducted", userID))

		events := po.GetDomainEvents()
		require.Len(t, events, 1)
		event, ok := events[0].(*PurchaseOrderAdjustedEvent)
		require.True(t, ok)
		assert.True(t, event.PreviousAmount.Equal(decimal.NewFromFloat(4450)))
		assert.True(t, event.AdjustedAmount.Equal(decimal.NewFromInt(4400)))
	})
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{"received to in progress", StatusReceived, StatusInProgress, true},
		{"received to invoiced", StatusReceived, StatusInvoiced, false},
		{"received to paid", StatusReceived, StatusPaid, false},
		{"in progress to invoiced", StatusInProgress, StatusInvoiced, true},
		{"in progress to received", StatusInProgress, StatusReceived, false},
		{"invoiced to paid", StatusInvoiced, StatusPaid, true},
		{"invoiced to in progress", StatusInvoiced, StatusInProgress, false},
		{"paid is terminal", StatusPaid, StatusInvoiced, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestUpdateStatus(t *testing.T) {
	t.Run("moves status and raises event", func(t *testing.T) {
		po := newTestPO(t)
		po.ClearDomainEvents()

		require.NoError(t, po.UpdateStatus(StatusInProgress))
		assert.Equal(t, StatusInProgress, po.Status)

		events := po.GetDomainEvents()
		require.Len(t, events, 1)
		event, ok := events[0].(*PurchaseOrderStatusChangedEvent)
		require.True(t, ok)
		assert.Equal(t, StatusReceived, event.PreviousStatus)
		assert.Equal(t, StatusInProgress, event.NewStatus)
	})

	t.Run("same status is a no-op", func(t *testing.T) {
		po := newTestPO(t)
		po.ClearDomainEvents()
		versionBefore := po.GetVersion()

		require.NoError(t, po.UpdateStatus(StatusReceived))
		assert.Equal(t, versionBefore, po.GetVersion())
		assert.Empty(t, po.GetDomainEvents())
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		po := newTestPO(t)
		err := po.UpdateStatus(Status("CANCELLED"))
		require.Error(t, err)
	})

	t.Run("rejects move on superseded revision", func(t *testing.T) {
		po := newTestPO(t)
		po.MarkSuperseded(uuid.New())
		err := po.UpdateStatus(StatusInProgress)
		assert.ErrorIs(t, err, shared.ErrInactiveRevision)
	})

	t.Run("rejects move out of terminal state", func(t *testing.T) {
		po := newTestPO(t)
		require.NoError(t, po.UpdateStatus(StatusInProgress))
		require.NoError(t, po.UpdateStatus(StatusInvoiced))
		require.NoError(t, po.UpdateStatus(StatusPaid))

		err := po.UpdateStatus(StatusReceived)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "terminal")
	})
}

func TestUpdateDetails(t *testing.T) {
	t.Run("updates description and due date", func(t *testing.T) {
		po := newTestPO(t)
		desc := "Revised scope of works"
		due := time.Now().AddDate(0, 2, 0)

		require.NoError(t, po.UpdateDetails(&desc, &due))
		assert.Equal(t, desc, po.Description)
		require.NotNil(t, po.DueDate)
		assert.True(t, po.DueDate.Equal(due))
	})

	t.Run("nil fields are left untouched", func(t *testing.T) {
		po := newTestPO(t)
		original := po.Description
		require.NoError(t, po.UpdateDetails(nil, nil))
		assert.Equal(t, original, po.Description)
	})

	t.Run("rejects edits on superseded revision", func(t *testing.T) {
		po := newTestPO(t)
		po.MarkSuperseded(uuid.New())
		desc := "changed"
		err := po.UpdateDetails(&desc, nil)
		assert.ErrorIs(t, err, shared.ErrInactiveRevision)
	})
}
