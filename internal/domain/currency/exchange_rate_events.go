package currency

import (
	"time"

	"github.com/fieldops/backend/internal/domain/shared"
	"github.com/fieldops/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeExchangeRate = "ExchangeRate"

// Event type constants
const (
	EventTypeExchangeRateSet = "ExchangeRateSet"
)

// ExchangeRateSetEvent is raised when a new rate row is appended to the ledger
type ExchangeRateSetEvent struct {
	shared.BaseDomainEvent
	FromCurrency  valueobject.Currency `json:"from_currency"`
	ToCurrency    valueobject.Currency `json:"to_currency"`
	Rate          decimal.Decimal      `json:"rate"`
	EffectiveDate time.Time            `json:"effective_date"`
	Source        RateSource           `json:"source"`
}

// NewExchangeRateSetEvent creates a new ExchangeRateSetEvent
func NewExchangeRateSetEvent(rate *ExchangeRate) *ExchangeRateSetEvent {
	return &ExchangeRateSetEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeExchangeRateSet, AggregateTypeExchangeRate, rate.ID),
		FromCurrency:    rate.FromCurrency,
		ToCurrency:      rate.ToCurrency,
		Rate:            rate.Rate,
		EffectiveDate:   rate.EffectiveDate,
		Source:          rate.Source,
	}
}

// EventType returns the event type name
func (e *ExchangeRateSetEvent) EventType() string {
	return EventTypeExchangeRateSet
}
