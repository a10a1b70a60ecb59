package procurement

import (
	"fmt"
	"strings"
	"time"

	"github.com/fieldops/backend/internal/domain/currency"
	"github.com/fieldops/backend/internal/domain/shared"
	"github.com/fieldops/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the commercial progress of a purchase order revision.
// It moves linearly (received -> in progress -> invoiced -> paid) and is
// independent of the active/superseded revision state.
type Status string

const (
	StatusReceived   Status = "RECEIVED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusInvoiced   Status = "INVOICED"
	StatusPaid       Status = "PAID"
)

// IsValid checks if the status is a valid purchase order Status
func (s Status) IsValid() bool {
	switch s {
	case StatusReceived, StatusInProgress, StatusInvoiced, StatusPaid:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can advance to the target status
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusReceived:
		return target == StatusInProgress
	case StatusInProgress:
		return target == StatusInvoiced
	case StatusInvoiced:
		return target == StatusPaid
	case StatusPaid:
		return false // Terminal
	}
	return false
}

// Adjustment rules: a manual MYR correction models a local discrepancy such
// as a bank fee. Contractual changes must go through a revision instead,
// which is what the deviation cap enforces.
const (
	// MinAdjustmentReasonLength is the minimum length of an adjustment reason
	MinAdjustmentReasonLength = 10
)

// MaxAdjustmentDeviation is the maximum relative deviation of an adjusted
// MYR amount from the unadjusted converted amount (50%)
var MaxAdjustmentDeviation = decimal.NewFromFloat(0.5)

// PurchaseOrder is one revision in a revision chain. Identity is
// (PONumberBase, RevisionNumber); the base number is stable across the
// chain and exactly one revision per base is active at any time.
type PurchaseOrder struct {
	shared.BaseAggregateRoot
	PONumberBase   string `gorm:"type:varchar(50);not null;index:idx_purchase_orders_base"`
	PONumber       string `gorm:"type:varchar(60);not null;uniqueIndex"`
	RevisionNumber int    `gorm:"not null;default:1"`
	ProjectCode    string `gorm:"type:varchar(50);not null;index"`
	Description    string `gorm:"type:varchar(500)"`

	Amount             decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	Currency           valueobject.Currency `gorm:"type:varchar(3);not null"`
	AmountMYR          decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	ExchangeRate       decimal.Decimal      `gorm:"type:decimal(18,6);not null"`
	ExchangeRateSource currency.RateSource  `gorm:"type:varchar(10);not null"`

	AmountMYRAdjusted *decimal.Decimal `gorm:"type:decimal(18,2)"`
	AdjustmentReason  string           `gorm:"type:varchar(500)"`
	AdjustedBy        *uuid.UUID       `gorm:"type:uuid"`
	AdjustedAt        *time.Time

	IsActive     bool       `gorm:"not null;default:true;index:idx_purchase_orders_base"`
	Supersedes   *uuid.UUID `gorm:"type:uuid"`
	SupersededBy *uuid.UUID `gorm:"type:uuid"`

	Status        Status    `gorm:"type:varchar(20);not null;default:'RECEIVED'"`
	ReceivedDate  time.Time `gorm:"not null"`
	DueDate       *time.Time
	AttachmentKey string     `gorm:"type:varchar(500)"`
	CreatedBy     *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

// NewPurchaseOrder creates the first revision of a new purchase order. The
// conversion snapshot must come from the currency ledger (or a manual rate
// supplied by the caller, marked with the MANUAL source).
func NewPurchaseOrder(poNumber, projectCode, description string, amount decimal.Decimal, cur valueobject.Currency, conv currency.Conversion, receivedDate time.Time, dueDate *time.Time, createdBy *uuid.UUID) (*PurchaseOrder, error) {
	if poNumber == "" {
		return nil, shared.NewDomainError("INVALID_PO_NUMBER", "PO number cannot be empty")
	}
	if len(poNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_PO_NUMBER", "PO number cannot exceed 50 characters")
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
	if receivedDate.IsZero() {
		receivedDate = time.Now()
	}

	po := &PurchaseOrder{
		BaseAggregateRoot:  shared.NewBaseAggregateRoot(),
		PONumberBase:       poNumber,
		PONumber:           poNumber,
		RevisionNumber:     1,
		ProjectCode:        projectCode,
		Description:        description,
		Amount:             amount,
		Currency:           cur,
		AmountMYR:          conv.AmountMYR,
		ExchangeRate:       conv.Rate,
		ExchangeRateSource: conv.Source,
		IsActive:           true,
		Status:             StatusReceived,
		ReceivedDate:       receivedDate,
		DueDate:            dueDate,
		CreatedBy:          createdBy,
	}

	po.AddDomainEvent(NewPurchaseOrderCreatedEvent(po))

	return po, nil
}

// NewRevision creates the next revision in this chain. The revision inherits
// the base number, due date and status of the original, but carries its own
// amount and conversion snapshot: a revision may have a different received
// date and thus a different applicable rate. The caller must persist the
// returned revision and the deactivated original in one transaction.
func (po *PurchaseOrder) NewRevision(amount decimal.Decimal, cur valueobject.Currency, conv currency.Conversion, receivedDate time.Time, description string, userID uuid.UUID) (*PurchaseOrder, error) {
	if !po.IsActive {
		return nil, shared.ErrInactiveRevision
	}
	if po.Status == StatusPaid {
		return nil, shared.NewDomainError("INVALID_STATE", "Paid purchase orders cannot be revised")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}
	if !cur.IsValid() {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Unsupported currency code")
	}
	if receivedDate.IsZero() {
		receivedDate = time.Now()
	}
	if description == "" {
		description = po.Description
	}

	next := po.RevisionNumber + 1
	rev := &PurchaseOrder{
		BaseAggregateRoot:  shared.NewBaseAggregateRoot(),
		PONumberBase:       po.PONumberBase,
		PONumber:           fmt.Sprintf("%s Rev %d", po.PONumberBase, next),
		RevisionNumber:     next,
		ProjectCode:        po.ProjectCode,
		Description:        description,
		Amount:             amount,
		Currency:           cur,
		AmountMYR:          conv.AmountMYR,
		ExchangeRate:       conv.Rate,
		ExchangeRateSource: conv.Source,
		IsActive:           true,
		Supersedes:         &po.ID,
		Status:             po.Status,
		ReceivedDate:       receivedDate,
		DueDate:            po.DueDate,
		CreatedBy:          &userID,
	}

	rev.AddDomainEvent(NewPurchaseOrderRevisedEvent(rev, po))

	return rev, nil
}

// MarkSuperseded deactivates this revision in favour of its successor.
// Called by the service right before persisting the revision pair; both
// writes must land in one transaction.
func (po *PurchaseOrder) MarkSuperseded(successorID uuid.UUID) {
	po.IsActive = false
	po.SupersededBy = &successorID
	po.UpdatedAt = time.Now()
	po.IncrementVersion()
}

// AdjustMYRAmount applies a manual override to the converted MYR amount.
// The deviation cap distinguishes a local correction from a contractual
// change, which must go through a revision.
func (po *PurchaseOrder) AdjustMYRAmount(adjusted decimal.Decimal, reason string, userID uuid.UUID) error {
	if !po.IsActive {
		return shared.ErrInactiveRevision
	}
	if po.Status == StatusPaid {
		return shared.NewDomainError("INVALID_STATE", "Paid purchase orders cannot be adjusted")
	}
	if adjusted.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Adjusted amount must be positive")
	}
	if len(strings.TrimSpace(reason)) < MinAdjustmentReasonLength {
		return shared.NewDomainError("INVALID_REASON", fmt.Sprintf("Adjustment reason must be at least %d characters", MinAdjustmentReasonLength))
	}

	// Deviation is measured against the unadjusted converted amount, not a
	// previous adjustment.
	deviation := adjusted.Sub(po.AmountMYR).Abs().Div(po.AmountMYR)
	if deviation.GreaterThan(MaxAdjustmentDeviation) {
		return shared.NewDomainError("ADJUSTMENT_EXCEEDED",
			fmt.Sprintf("Adjustment deviates %s%% from the converted amount; changes above 50%% require a revision",
				deviation.Mul(decimal.NewFromInt(100)).Round(1).String()))
	}

	previous := po.EffectiveAmountMYR()
	now := time.Now()
	rounded := adjusted.Round(2)
	po.AmountMYRAdjusted = &rounded
	po.AdjustmentReason = strings.TrimSpace(reason)
	po.AdjustedBy = &userID
	po.AdjustedAt = &now
	po.UpdatedAt = now
	po.IncrementVersion()

	po.AddDomainEvent(NewPurchaseOrderAdjustedEvent(po, previous))

	return nil
}

// UpdateStatus moves the commercial status forward. Sequencing is the
// caller's responsibility; the engine only rejects moves on superseded
// revisions and out of the terminal state.
func (po *PurchaseOrder) UpdateStatus(target Status) error {
	if !po.IsActive {
		return shared.ErrInactiveRevision
	}
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Unknown purchase order status")
	}
	if po.Status == StatusPaid {
		return shared.NewDomainError("INVALID_STATE", "Paid purchase orders are terminal")
	}
	if target == po.Status {
		return nil
	}

	previous := po.Status
	po.Status = target
	po.UpdatedAt = time.Now()
	po.IncrementVersion()

	po.AddDomainEvent(NewPurchaseOrderStatusChangedEvent(po, previous))

	return nil
}

// UpdateDetails edits the non-financial fields of an active revision
func (po *PurchaseOrder) UpdateDetails(description *string, dueDate *time.Time) error {
	if !po.IsActive {
		return shared.ErrInactiveRevision
	}
	if po.Status == StatusPaid {
		return shared.NewDomainError("INVALID_STATE", "Paid purchase orders cannot be edited")
	}

	if description != nil {
		po.Description = *description
	}
	if dueDate != nil {
		po.DueDate = dueDate
	}
	po.UpdatedAt = time.Now()
	po.IncrementVersion()

	return nil
}

// SetAttachment records the storage key of an attached document
func (po *PurchaseOrder) SetAttachment(key string) {
	po.AttachmentKey = key
	po.UpdatedAt = time.Now()
	po.IncrementVersion()
}

// EffectiveAmountMYR returns the adjusted override amount if present,
// otherwise the computed converted amount. Derived, never stored.
func (po *PurchaseOrder) EffectiveAmountMYR() decimal.Decimal {
	if po.AmountMYRAdjusted != nil {
		return *po.AmountMYRAdjusted
	}
	return po.AmountMYR
}

// IsAdjusted returns true if a manual MYR override is in place
func (po *PurchaseOrder) IsAdjusted() bool {
	return po.AmountMYRAdjusted != nil
}

// IsRevision returns true for revisions after the first
func (po *PurchaseOrder) IsRevision() bool {
	return po.RevisionNumber > 1
}

// IsPaid returns true if the purchase order has been paid
func (po *PurchaseOrder) IsPaid() bool {
	return po.Status == StatusPaid
}

// GetCreatedBy returns the creator user ID
func (po *PurchaseOrder) GetCreatedBy() *uuid.UUID {
	return po.CreatedBy
}

// GetAmountMoney returns the original amount as a Money value object
func (po *PurchaseOrder) GetAmountMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(po.Amount, po.Currency)
	return m
}

// GetEffectiveAmountMoney returns the effective MYR amount as Money
func (po *PurchaseOrder) GetEffectiveAmountMoney() valueobject.Money {
	return valueobject.NewMoneyMYR(po.EffectiveAmountMYR())
}
