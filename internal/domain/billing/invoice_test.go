package billing

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

func newTestInvoice(t *testing.T, createdBy uuid.UUID) *Invoice {
	t.Helper()
	inv, err := NewInvoice(
		"INV-2026-001", "PRJ-ALPHA",
		decimal.NewFromInt(5000), valueobject.MYR,
		currency.Identity(decimal.NewFromInt(5000)),
		time.Now(), nil,
		decimal.NewFromInt(30), "", &createdBy,
	)
	require.NoError(t, err)
	return inv
}

func approver() shared.Actor {
	return shared.Actor{
		ID:           uuid.New(),
		Name:         "finance lead",
		Capabilities: []shared.Capability{shared.CapabilityApproveInvoice},
	}
}

func plainActor(id uuid.UUID) shared.Actor {
	return shared.Actor{ID: id, Name: "engineer"}
}

func TestNewInvoice(t *testing.T) {
	createdBy := uuid.New()

	t.Run("creates draft invoice without sequence", func(t *testing.T) {
		inv := newTestInvoice(t, createdBy)

		assert.Equal(t, StatusDraft, inv.Status)
		assert.True(t, inv.IsDraft())
		assert.Equal(t, 0, inv.InvoiceSequence)
		assert.True(t, inv.CumulativePercentage.IsZero())
		assert.True(t, inv.PercentageOfTotal.Equal(decimal.NewFromInt(30)))
		assert.Empty(t, inv.GetDomainEvents())
	})

	t.Run("fails with empty invoice number", func(t *testing.T) {
		_, err := NewInvoice("", "PRJ-ALPHA", decimal.NewFromInt(100), valueobject.MYR, currency.Identity(decimal.NewFromInt(100)), time.Now(), nil, decimal.NewFromInt(10), "", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Invoice number cannot be empty")
	})

	t.Run("fails with non-positive percentage", func(t *testing.T) {
		_, err := NewInvoice("INV-1", "PRJ-ALPHA", decimal.NewFromInt(100), valueobject.MYR, currency.Identity(decimal.NewFromInt(100)), time.Now(), nil, decimal.Zero, "", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be positive")
	})

	t.Run("fails with percentage above 100", func(t *testing.T) {
		_, err := NewInvoice("INV-1", "PRJ-ALPHA", decimal.NewFromInt(100), valueobject.MYR, currency.Identity(decimal.NewFromInt(100)), time.Now(), nil, decimal.NewFromInt(101), "", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed 100")
	})
}

func TestAssignSequence(t *testing.T) {
	createdBy := uuid.New()

	t.Run("assigns sequence and cumulative once", func(t *testing.T) {
		inv := newTestInvoice(t, createdBy)
		require.NoError(t, inv.AssignSequence(3, decimal.NewFromInt(90)))

		assert.Equal(t, 3, inv.InvoiceSequence)
		assert.True(t, inv.CumulativePercentage.Equal(decimal.NewFromInt(90)))
		assert.False(t, inv.IsFullyBilled())

		events := inv.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeInvoiceCreated, events[0].EventType())
	})

	t.Run("rejects second assignment", func(t *testing.T) {
		inv := newTestInvoice(t, createdBy)
		require.NoError(t, inv.AssignSequence(1, decimal.NewFromInt(30)))
		err := inv.AssignSequence(2, decimal.NewFromInt(60))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already been assigned")
	})

	t.Run("rejects zero sequence", func(t *testing.T) {
		inv := newTestInvoice(t, createdBy)
		err := inv.AssignSequence(0, decimal.Zero)
		require.Error(t, err)
	})

	t.Run("fully billed at 100 percent cumulative", func(t *testing.T) {
		inv := newTestInvoice(t, createdBy)
		require.NoError(t, inv.AssignSequence(4, decimal.NewFromInt(100)))
		assert.True(t, inv.IsFullyBilled())
	})
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{"draft to pending approval", StatusDraft, StatusPendingApproval, true},
		{"draft to approved", StatusDraft, StatusApproved, false},
		{"pending to approved", StatusPendingApproval, StatusApproved, true},
		{"pending back to draft", StatusPendingApproval, StatusDraft, true},
		{"pending to sent", StatusPendingApproval, StatusSent, false},
		{"approved to sent", StatusApproved, StatusSent, true},
		{"approved to paid", StatusApproved, StatusPaid, false},
		{"sent to paid", StatusSent, StatusPaid, true},
		{"sent to overdue", StatusSent, StatusOverdue, true},
		{"overdue to paid", StatusOverdue, StatusPaid, true},
		{"overdue back to sent", StatusOverdue, StatusSent, false},
		{"paid is terminal", StatusPaid, StatusSent, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestSubmitApproveWithdraw(t *testing.T) {
	createdBy := uuid.New()

	t.Run("submit moves draft to pending", func(t *testing.T) {
		inv := newTestInvoice(t, createdBy)
		require.NoError(t, inv.Submit(plainActor(createdBy)))

		assert.Equal(t, StatusPendingApproval, inv.Status)
		assert.NotNil(t, inv.SubmittedForApprovalAt)
	})

	t.Run("submit rejects non-draft", func(t *testing.T) {
		inv := newTestInvoice(t, createdBy)
		require.NoError(t, inv.Submit(plainActor(createdBy)))
		err := inv.Submit(plainActor(createdBy))
		require.Error(t, err)
	})

	t.Run("approve requires the approval capability", func(t *testing.T) {
		inv := newTestInvoice(t, createdBy)
		require.NoError(t, inv.Submit(plainActor(createdBy)))

		err := inv.Approve(plainActor(uuid.New()))
		assert.ErrorIs(t, err, shared.ErrForbidden)
		assert.Equal(t, StatusPendingApproval, inv.Status)
	})

	t.Run("approve records approver and time", func(t *testing.T) {
		inv := newTestInvoice(t, createdBy)
		require.NoError(t, inv.Submit(plainActor(createdBy)))

		a := approver()
		require.NoError(t, inv.Approve(a))
		assert.Equal(t, StatusApproved, inv.Status)
		require.NotNil(t, inv.ApprovedBy)
		assert.Equal(t, a.ID, *inv.ApprovedBy)
		assert.NotNil(t, inv.ApprovedAt)
	})

	t.Run("approve rejects non-pending", func(t *testing.T) {
		inv := newTestInvoice(t, createdBy)
		err := inv.Approve(approver())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Cannot approve")
	})

	t.Run("creator can withdraw a pending invoice", func(t *testing.T) {
		inv := newTestInvoice(t, createdBy)
		require.NoError(t, inv.Submit(plainActor(createdBy)))
		require.NoError(t, inv.Withdraw(plainActor(createdBy)))

		assert.Equal(t, StatusDraft, inv.Status)
		assert.Nil(t, inv.SubmittedForApprovalAt)
	})

	t.Run("non-creator cannot withdraw", func(t *testing.T) {
		inv := newTestInvoice(t, createdBy)
		require.NoError(t, inv.Submit(plainActor(createdBy)))

		err := inv.Withdraw(plainActor(uuid.New()))
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("override capability can withdraw another user's invoice", func(t *testing.T) {
		inv := newTestInvoice(t, createdBy)
		require.NoError(t, inv.Submit(plainActor(createdBy)))

		lead := shared.Actor{ID: uuid.New(), Capabilities: []shared.Capability{shared.CapabilityFinanceOverride}}
		require.NoError(t, inv.Withdraw(lead))
		assert.Equal(t, StatusDraft, inv.Status)
	})

	t.Run("withdraw rejects non-pending", func(t *testing.T) {
		inv := newTestInvoice(t, createdBy)
		err := inv.Withdraw(plainActor(createdBy))
		require.Error(t, err)
	})
}

func TestSendPayOverdue(t *testing.T) {
	createdBy := uuid.New()

	approved := func(t *testing.T) *Invoice {
		inv := newTestInvoice(t, createdBy)
		require.NoError(t, inv.Submit(plainActor(createdBy)))
		require.NoError(t, inv.Approve(approver()))
		return inv
	}

	t.Run("mark sent from approved", func(t *testing.T) {
		inv := approved(t)
		require.NoError(t, inv.MarkSent())
		assert.Equal(t, StatusSent, inv.Status)
		assert.NotNil(t, inv.SentAt)
	})

	t.Run("mark sent rejects draft", func(t *testing.T) {
		inv := newTestInvoice(t, createdBy)
		require.Error(t, inv.MarkSent())
	})

	t.Run("mark paid from sent", func(t *testing.T) {
		inv := approved(t)
		require.NoError(t, inv.MarkSent())
		require.NoError(t, inv.MarkPaid())
		assert.Equal(t, StatusPaid, inv.Status)
		assert.True(t, inv.IsTerminal())
		assert.NotNil(t, inv.PaidAt)
	})

	t.Run("mark paid rejects approved", func(t *testing.T) {
		inv := approved(t)
		require.Error(t, inv.MarkPaid())
	})

	t.Run("overdue flips sent invoice past its due date", func(t *testing.T) {
		inv := approved(t)
		past := time.Now().AddDate(0, 0, -5)
		inv.DueDate = &past
		require.NoError(t, inv.MarkSent())

		assert.True(t, inv.MarkOverdue(time.Now()))
		assert.Equal(t, StatusOverdue, inv.Status)
	})

	t.Run("overdue is a no-op before the due date", func(t *testing.T) {
		inv := approved(t)
		future := time.Now().AddDate(0, 0, 5)
		inv.DueDate = &future
		require.NoError(t, inv.MarkSent())

		assert.False(t, inv.MarkOverdue(time.Now()))
		assert.Equal(t, StatusSent, inv.Status)
	})

	t.Run("overdue is a no-op without a due date", func(t *testing.T) {
		inv := approved(t)
		require.NoError(t, inv.MarkSent())
		assert.False(t, inv.MarkOverdue(time.Now()))
	})

	t.Run("mark paid from overdue", func(t *testing.T) {
		inv := approved(t)
		past := time.Now().AddDate(0, 0, -5)
		inv.DueDate = &past
		require.NoError(t, inv.MarkSent())
		require.True(t, inv.MarkOverdue(time.Now()))

		require.NoError(t, inv.MarkPaid())
		assert.Equal(t, StatusPaid, inv.Status)
	})
}

func TestCanEditBy(t *testing.T) {
	createdBy := uuid.New()

	t.Run("draft is editable by anyone", func(t *testing.T) {
		inv := newTestInvoice(t, createdBy)
		assert.True(t, inv.CanEditBy(plainActor(uuid.New())))
	})

	t.Run("pending is editable by the creator only", func(t *testing.T) {
		inv := newTestInvoice(t, createdBy)
		require.NoError(t, inv.Submit(plainActor(createdBy)))

		assert.True(t, inv.CanEditBy(plainActor(createdBy)))
		assert.False(t, inv.CanEditBy(plainActor(uuid.New())))
	})

	t.Run("approved is locked without the override capability", func(t *testing.T) {
		inv := newTestInvoice(t, createdBy)
		require.NoError(t, inv.Submit(plainActor(createdBy)))
		require.NoError(t, inv.Approve(approver()))

		assert.False(t, inv.CanEditBy(plainActor(createdBy)))

		lead := shared.Actor{ID: uuid.New(), Capabilities: []shared.Capability{shared.CapabilityFinanceOverride}}
		assert.True(t, inv.CanEditBy(lead))
	})
}

func TestUpdateAmount(t *testing.T) {
	createdBy := uuid.New()

	t.Run("replaces amount and conversion snapshot", func(t *testing.T) {
		inv := newTestInvoice(t, createdBy)
		conv := currency.Conversion{
			AmountMYR: decimal.NewFromFloat(8900),
			Rate:      decimal.NewFromFloat(4.45),
			Source:    currency.RateSourceAutomatic,
		}

		require.NoError(t, inv.UpdateAmount(plainActor(createdBy), decimal.NewFromInt(2000), valueobject.USD, conv))
		assert.True(t, inv.Amount.Equal(decimal.NewFromInt(2000)))
		assert.Equal(t, valueobject.USD, inv.Currency)
		assert.True(t, inv.AmountMYR.Equal(decimal.NewFromFloat(8900)))

		events := inv.GetDomainEvents()
		require.Len(t, events, 1)
		event, ok := events[0].(*InvoiceAmountChangedEvent)
		require.True(t, ok)
		assert.True(t, event.PreviousAmount.Equal(decimal.NewFromInt(5000)))
	})

	t.Run("rejects edit by outsider on pending invoice", func(t *testing.T) {
		inv := newTestInvoice(t, createdBy)
		require.NoError(t, inv.Submit(plainActor(createdBy)))

		err := inv.UpdateAmount(plainActor(uuid.New()), decimal.NewFromInt(2000), valueobject.MYR, currency.Identity(decimal.NewFromInt(2000)))
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})
}

func TestRunningTotal(t *testing.T) {
	d := func(s string) decimal.Decimal {
		v, err := decimal.NewFromString(s)
		require.NoError(t, err)
		return v
	}

	tests := []struct {
		name    string
		prior   []decimal.Decimal
		current decimal.Decimal
		want    string
	}{
		{"first invoice", nil, d("30"), "30"},
		{"second invoice", []decimal.Decimal{d("30")}, d("30"), "60"},
		{"reaches exactly 100", []decimal.Decimal{d("30"), d("30")}, d("40"), "100"},
		{"thirds round per step", []decimal.Decimal{d("33.33"), d("33.33")}, d("33.34"), "100"},
		{"may exceed 100", []decimal.Decimal{d("60")}, d("50"), "110"},
		{"fractional percentages", []decimal.Decimal{d("12.5"), d("12.5")}, d("25"), "50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RunningTotal(tt.prior, tt.current)
			assert.True(t, got.Equal(d(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}
