package billing

import (
	"fmt"
	"time"

	"github.com/fieldops/backend/internal/domain/currency"
	"github.com/fieldops/backend/internal/domain/shared"
	"github.com/fieldops/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the approval lifecycle status of an invoice
type Status string

const (
	StatusDraft           Status = "DRAFT"
	StatusPendingApproval Status = "PENDING_APPROVAL"
	StatusApproved        Status = "APPROVED"
	StatusSent            Status = "SENT"
	StatusPaid            Status = "PAID"
	StatusOverdue         Status = "OVERDUE"
)

// IsValid checks if the status is a valid invoice Status
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPendingApproval, StatusApproved, StatusSent, StatusPaid, StatusOverdue:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusDraft:
		return target == StatusPendingApproval
	case StatusPendingApproval:
		return target == StatusApproved || target == StatusDraft
	case StatusApproved:
		return target == StatusSent
	case StatusSent:
		return target == StatusPaid || target == StatusOverdue
	case StatusOverdue:
		return target == StatusPaid
	case StatusPaid:
		return false // Terminal
	}
	return false
}

// FullBillingPercentage is the cumulative percentage at which a project is
// considered fully billed
var FullBillingPercentage = decimal.NewFromInt(100)

// Invoice is a progress bill against a project. Sequence and cumulative
// percentage are assigned once at creation inside the creating transaction
// and never renumbered, even if an earlier invoice is later deleted.
type Invoice struct {
	shared.BaseAggregateRoot
	InvoiceNumber string `gorm:"type:varchar(50);not null;uniqueIndex"`
	ProjectCode   string `gorm:"type:varchar(50);not null;index"`

	Amount             decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	Currency           valueobject.Currency `gorm:"type:varchar(3);not null"`
	AmountMYR          decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	ExchangeRate       decimal.Decimal      `gorm:"type:decimal(18,6);not null"`
	ExchangeRateSource currency.RateSource  `gorm:"type:varchar(10);not null"`

	InvoiceDate time.Time `gorm:"not null"`
	DueDate     *time.Time

	PercentageOfTotal    decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	InvoiceSequence      int             `gorm:"not null;default:0"`
	CumulativePercentage decimal.Decimal `gorm:"type:decimal(6,2);not null;default:0"`

	Status                 Status `gorm:"type:varchar(20);not null;default:'DRAFT'"`
	SubmittedForApprovalAt *time.Time
	ApprovedBy             *uuid.UUID `gorm:"type:uuid"`
	ApprovedAt             *time.Time
	SentAt                 *time.Time
	PaidAt                 *time.Time

	Remark    string     `gorm:"type:varchar(500)"`
	CreatedBy *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (Invoice) TableName() string {
	return "invoices"
}

// NewInvoice creates a new draft invoice. The sequence and cumulative
// percentage are assigned by the repository inside the creating transaction
// while holding the project row lock.
func NewInvoice(invoiceNumber, projectCode string, amount decimal.Decimal, cur valueobject.Currency, conv currency.Conversion, invoiceDate time.Time, dueDate *time.Time, percentage decimal.Decimal, remark string, createdBy *uuid.UUID) (*Invoice, error) {
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if len(invoiceNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot exceed 50 characters")
	}
	if projectCode == "" {
		return nil, shared.NewDomainError("INVALID_PROJECT_CODE", "Project code cannot be empty")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}
	if !cur.IsValid() {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Unsupported currency code")
	}
	if err := validatePercentage(percentage); err != nil {
		return nil, err
	}
	if invoiceDate.IsZero() {
		invoiceDate = time.Now()
	}

	return &Invoice{
		BaseAggregateRoot:  shared.NewBaseAggregateRoot(),
		InvoiceNumber:      invoiceNumber,
		ProjectCode:        projectCode,
		Amount:             amount,
		Currency:           cur,
		AmountMYR:          conv.AmountMYR,
		ExchangeRate:       conv.Rate,
		ExchangeRateSource: conv.Source,
		InvoiceDate:        invoiceDate,
		DueDate:            dueDate,
		PercentageOfTotal:  percentage.Round(2),
		Status:             StatusDraft,
		Remark:             remark,
		CreatedBy:          createdBy,
	}, nil
}

func validatePercentage(p decimal.Decimal) error {
	if p.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_PERCENTAGE", "Percentage of total must be positive")
	}
	if p.GreaterThan(FullBillingPercentage) {
		return shared.NewDomainError("INVALID_PERCENTAGE", "Percentage of total cannot exceed 100")
	}
	return nil
}

// AssignSequence sets the per-project sequence number and cumulative
// percentage. Must be called exactly once, inside the creating transaction.
func (i *Invoice) AssignSequence(sequence int, cumulative decimal.Decimal) error {
	if i.InvoiceSequence != 0 {
		return shared.NewDomainError("SEQUENCE_ASSIGNED", "Invoice sequence has already been assigned")
	}
	if sequence < 1 {
		return shared.NewDomainError("INVALID_SEQUENCE", "Invoice sequence must be 1-based")
	}

	i.InvoiceSequence = sequence
	i.CumulativePercentage = cumulative.Round(2)
	i.AddDomainEvent(NewInvoiceCreatedEvent(i))

	return nil
}

// IsFullyBilled returns true when this invoice brings the project's
// cumulative percentage to 100 or beyond
func (i *Invoice) IsFullyBilled() bool {
	return i.CumulativePercentage.GreaterThanOrEqual(FullBillingPercentage)
}

// Submit moves a draft invoice into the approval queue
func (i *Invoice) Submit(actor shared.Actor) error {
	if i.Status != StatusDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot submit invoice in %s status", i.Status))
	}

	now := time.Now()
	previous := i.Status
	i.Status = StatusPendingApproval
	i.SubmittedForApprovalAt = &now
	i.UpdatedAt = now
	i.IncrementVersion()

	i.AddDomainEvent(NewInvoiceSubmittedEvent(i, actor.ID))
	i.AddDomainEvent(NewInvoiceStatusChangedEvent(i, previous))

	return nil
}

// Approve records approval by an actor holding the approval capability
func (i *Invoice) Approve(actor shared.Actor) error {
	if i.Status != StatusPendingApproval {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot approve invoice in %s status", i.Status))
	}
	if !actor.Can(shared.CapabilityApproveInvoice) {
		return shared.ErrForbidden
	}

	now := time.Now()
	previous := i.Status
	i.Status = StatusApproved
	i.ApprovedBy = &actor.ID
	i.ApprovedAt = &now
	i.UpdatedAt = now
	i.IncrementVersion()

	i.AddDomainEvent(NewInvoiceApprovedEvent(i))
	i.AddDomainEvent(NewInvoiceStatusChangedEvent(i, previous))

	return nil
}

// Withdraw pulls a pending invoice back to draft. Only the original creator
// may withdraw, unless the actor holds the override capability.
func (i *Invoice) Withdraw(actor shared.Actor) error {
	if i.Status != StatusPendingApproval {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot withdraw invoice in %s status", i.Status))
	}
	if !i.isCreator(actor) && !actor.Can(shared.CapabilityFinanceOverride) {
		return shared.ErrForbidden
	}

	previous := i.Status
	i.Status = StatusDraft
	i.SubmittedForApprovalAt = nil
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	i.AddDomainEvent(NewInvoiceWithdrawnEvent(i, actor.ID))
	i.AddDomainEvent(NewInvoiceStatusChangedEvent(i, previous))

	return nil
}

// MarkSent records that the approved invoice has been issued to the client
func (i *Invoice) MarkSent() error {
	if i.Status != StatusApproved {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot send invoice in %s status", i.Status))
	}

	now := time.Now()
	previous := i.Status
	i.Status = StatusSent
	i.SentAt = &now
	i.UpdatedAt = now
	i.IncrementVersion()

	i.AddDomainEvent(NewInvoiceSentEvent(i))
	i.AddDomainEvent(NewInvoiceStatusChangedEvent(i, previous))

	return nil
}

// MarkPaid records payment of a sent (or overdue) invoice
func (i *Invoice) MarkPaid() error {
	if i.Status != StatusSent && i.Status != StatusOverdue {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot mark invoice paid in %s status", i.Status))
	}

	now := time.Now()
	previous := i.Status
	i.Status = StatusPaid
	i.PaidAt = &now
	i.UpdatedAt = now
	i.IncrementVersion()

	i.AddDomainEvent(NewInvoicePaidEvent(i))
	i.AddDomainEvent(NewInvoiceStatusChangedEvent(i, previous))

	return nil
}

// MarkOverdue flips a sent invoice past its due date to overdue.
// No-op when the due date has not passed or no due date is set.
func (i *Invoice) MarkOverdue(asOf time.Time) bool {
	if i.Status != StatusSent || i.DueDate == nil || !i.DueDate.Before(asOf) {
		return false
	}

	previous := i.Status
	i.Status = StatusOverdue
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	i.AddDomainEvent(NewInvoiceStatusChangedEvent(i, previous))

	return true
}

// CanEditBy reports whether the actor may edit invoice fields in the
// current status. Locked once approved, sent or paid (override capability
// excepted); pending-approval edits are restricted to the creator.
func (i *Invoice) CanEditBy(actor shared.Actor) bool {
	switch i.Status {
	case StatusDraft:
		return true
	case StatusPendingApproval:
		return i.isCreator(actor) || actor.Can(shared.CapabilityFinanceOverride)
	default:
		return actor.Can(shared.CapabilityFinanceOverride)
	}
}

// UpdateAmount replaces the invoice amount with a fresh conversion snapshot
func (i *Invoice) UpdateAmount(actor shared.Actor, amount decimal.Decimal, cur valueobject.Currency, conv currency.Conversion) error {
	if !i.CanEditBy(actor) {
		return i.editDenied(actor)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}
	if !cur.IsValid() {
		return shared.NewDomainError("INVALID_CURRENCY", "Unsupported currency code")
	}

	previous := i.AmountMYR
	i.Amount = amount
	i.Currency = cur
	i.AmountMYR = conv.AmountMYR
	i.ExchangeRate = conv.Rate
	i.ExchangeRateSource = conv.Source
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	i.AddDomainEvent(NewInvoiceAmountChangedEvent(i, previous))

	return nil
}

// UpdatePercentage replaces the percentage of total. The caller must
// recompute cumulative percentages for the project afterwards.
func (i *Invoice) UpdatePercentage(actor shared.Actor, percentage decimal.Decimal) error {
	if !i.CanEditBy(actor) {
		return i.editDenied(actor)
	}
	if err := validatePercentage(percentage); err != nil {
		return err
	}

	i.PercentageOfTotal = percentage.Round(2)
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	return nil
}

// UpdateDetails edits the invoice date, due date and remark
func (i *Invoice) UpdateDetails(actor shared.Actor, invoiceDate *time.Time, dueDate *time.Time, remark *string) error {
	if !i.CanEditBy(actor) {
		return i.editDenied(actor)
	}

	if invoiceDate != nil {
		i.InvoiceDate = *invoiceDate
	}
	if dueDate != nil {
		i.DueDate = dueDate
	}
	if remark != nil {
		i.Remark = *remark
	}
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	return nil
}

// SetCumulative overwrites the cumulative percentage after a recalculation
func (i *Invoice) SetCumulative(cumulative decimal.Decimal) {
	i.CumulativePercentage = cumulative.Round(2)
	i.UpdatedAt = time.Now()
}

func (i *Invoice) isCreator(actor shared.Actor) bool {
	return i.CreatedBy != nil && *i.CreatedBy == actor.ID
}

func (i *Invoice) editDenied(actor shared.Actor) error {
	if i.Status == StatusPendingApproval {
		return shared.ErrForbidden
	}
	return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Invoice cannot be edited in %s status", i.Status))
}

// IsDraft returns true if the invoice is in draft status
func (i *Invoice) IsDraft() bool {
	return i.Status == StatusDraft
}

// IsTerminal returns true if the invoice has been paid
func (i *Invoice) IsTerminal() bool {
	return i.Status == StatusPaid
}

// GetCreatedBy returns the creator user ID
func (i *Invoice) GetCreatedBy() *uuid.UUID {
	return i.CreatedBy
}

// GetAmountMoney returns the invoiced amount as a Money value object
func (i *Invoice) GetAmountMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(i.Amount, i.Currency)
	return m
}

// RunningTotal computes the cumulative percentage after appending the
// current percentage to the prior ones, rounding to 2 decimal places at
// each step to avoid floating drift.
func RunningTotal(prior []decimal.Decimal, current decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, p := range prior {
		total = total.Add(p).Round(2)
	}
	return total.Add(current).Round(2)
}
