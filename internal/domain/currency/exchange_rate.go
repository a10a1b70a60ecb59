package currency

import (
	"time"

	"github.com/fieldops/backend/internal/domain/shared"
	"github.com/fieldops/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// RateSource records how an exchange rate entered the ledger
type RateSource string

const (
	RateSourceManual    RateSource = "MANUAL"
	RateSourceAutomatic RateSource = "AUTOMATIC"
)

// IsValid checks if the source is a valid RateSource
func (s RateSource) IsValid() bool {
	return s == RateSourceManual || s == RateSourceAutomatic
}

// String returns the string representation of RateSource
func (s RateSource) String() string {
	return string(s)
}

// ExchangeRate is one append-only row of the currency ledger. The rate in
// effect for a date is the most recent row with EffectiveDate <= date; rows
// are never mutated, so historical conversions stay reproducible.
type ExchangeRate struct {
	shared.BaseAggregateRoot
	FromCurrency  valueobject.Currency `gorm:"type:varchar(3);not null;index:idx_exchange_rates_lookup,priority:1"`
	ToCurrency    valueobject.Currency `gorm:"type:varchar(3);not null"`
	Rate          decimal.Decimal      `gorm:"type:decimal(18,6);not null"`
	EffectiveDate time.Time            `gorm:"not null;index:idx_exchange_rates_lookup,priority:2"`
	Source        RateSource           `gorm:"type:varchar(10);not null"`
}

// TableName returns the table name for GORM
func (ExchangeRate) TableName() string {
	return "exchange_rates"
}

// NewExchangeRate creates a new ledger row converting from the given
// currency into the base currency
func NewExchangeRate(from valueobject.Currency, rate decimal.Decimal, effectiveDate time.Time, source RateSource) (*ExchangeRate, error) {
	if !from.IsValid() {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Unsupported currency code")
	}
	if from == valueobject.BaseCurrency {
		// Same-currency pairs are never persisted; conversion short-circuits to 1.0
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Base currency does not need an exchange rate")
	}
	if rate.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_RATE", "Exchange rate must be positive")
	}
	if !source.IsValid() {
		return nil, shared.NewDomainError("INVALID_RATE_SOURCE", "Rate source must be MANUAL or AUTOMATIC")
	}
	if effectiveDate.IsZero() {
		effectiveDate = time.Now()
	}

	r := &ExchangeRate{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		FromCurrency:      from,
		ToCurrency:        valueobject.BaseCurrency,
		Rate:              rate,
		EffectiveDate:     effectiveDate,
		Source:            source,
	}

	r.AddDomainEvent(NewExchangeRateSetEvent(r))

	return r, nil
}

// Convert applies the rate to an amount in the source currency, rounded to
// 2 decimal places
func (r *ExchangeRate) Convert(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(r.Rate).Round(2)
}

// IsEffectiveAt returns true if this row applies as of the given date
func (r *ExchangeRate) IsEffectiveAt(asOf time.Time) bool {
	return !r.EffectiveDate.After(asOf)
}

// Conversion is the rate snapshot returned alongside a converted amount.
// Consuming entities persist the snapshot so a later ledger change does not
// retroactively alter historical records.
type Conversion struct {
	AmountMYR decimal.Decimal
	Rate      decimal.Decimal
	Source    RateSource
}

// Identity returns the conversion for base-currency amounts
func Identity(amount decimal.Decimal) Conversion {
	return Conversion{
		AmountMYR: amount.Round(2),
		Rate:      decimal.NewFromInt(1),
		Source:    RateSourceAutomatic,
	}
}
