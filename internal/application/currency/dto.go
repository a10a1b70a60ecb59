package currency

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fieldops/backend/internal/domain/currency"
)

// SetExchangeRateRequest represents a request to append a rate to the ledger
type SetExchangeRateRequest struct {
	FromCurrency  string          `json:"from_currency" binding:"required,currency"`
	Rate          decimal.Decimal `json:"rate" binding:"required"`
	EffectiveDate *time.Time      `json:"effective_date"`
	Source        string          `json:"source" binding:"omitempty,oneof=MANUAL AUTOMATIC"`
}

// ConvertRequest represents a conversion preview query
type ConvertRequest struct {
	Amount   decimal.Decimal `form:"amount" binding:"required"`
	Currency string          `form:"currency" binding:"required,currency"`
	AsOf     *time.Time      `form:"as_of" time_format:"2006-01-02"`
}

// ConversionResponse represents the MYR conversion of an amount
type ConversionResponse struct {
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	AmountMYR decimal.Decimal `json:"amount_myr"`
	Rate      decimal.Decimal `json:"rate"`
	Source    string          `json:"source"`
	AsOf      time.Time       `json:"as_of"`
}

// ExchangeRateListFilter represents filter options for the rate ledger
type ExchangeRateListFilter struct {
	FromCurrency string `form:"from_currency"`
	Page         int    `form:"page"`
	PageSize     int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ExchangeRateResponse represents a ledger row in API responses
type ExchangeRateResponse struct {
	ID            uuid.UUID       `json:"id"`
	FromCurrency  string          `json:"from_currency"`
	ToCurrency    string          `json:"to_currency"`
	Rate          decimal.Decimal `json:"rate"`
	EffectiveDate time.Time       `json:"effective_date"`
	Source        string          `json:"source"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ToExchangeRateResponse converts a domain exchange rate to a response DTO
func ToExchangeRateResponse(r *currency.ExchangeRate) ExchangeRateResponse {
	return ExchangeRateResponse{
		ID:            r.ID,
		FromCurrency:  r.FromCurrency.String(),
		ToCurrency:    r.ToCurrency.String(),
		Rate:          r.Rate,
		EffectiveDate: r.EffectiveDate,
		Source:        r.Source.String(),
		CreatedAt:     r.CreatedAt,
	}
}

// ToExchangeRateResponses converts a slice of domain rates to response DTOs
func ToExchangeRateResponses(rates []currency.ExchangeRate) []ExchangeRateResponse {
	responses := make([]ExchangeRateResponse, len(rates))
	for i := range rates {
		responses[i] = ToExchangeRateResponse(&rates[i])
	}
	return responses
}
