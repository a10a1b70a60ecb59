package currency

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fieldops/backend/internal/domain/currency"
	"github.com/fieldops/backend/internal/domain/shared"
	"github.com/fieldops/backend/internal/domain/shared/valueobject"
)

// CurrencyService manages the exchange rate ledger and converts document
// amounts into the base currency
type CurrencyService struct {
	rateRepo currency.ExchangeRateRepository
}

// NewCurrencyService creates a new CurrencyService
func NewCurrencyService(rateRepo currency.ExchangeRateRepository) *CurrencyService {
	return &CurrencyService{rateRepo: rateRepo}
}

// SetRate appends a new rate to the ledger. Requires the rate management
// capability; existing rows are never touched.
func (s *CurrencyService) SetRate(ctx context.Context, actor shared.Actor, req SetExchangeRateRequest) (*ExchangeRateResponse, error) {
	if !actor.Can(shared.CapabilityManageRates) {
		return nil, shared.ErrForbidden
	}

	source := currency.RateSourceManual
	if req.Source != "" {
		source = currency.RateSource(req.Source)
	}
	effective := time.Now()
	if req.EffectiveDate != nil {
		effective = *req.EffectiveDate
	}

	rate, err := currency.NewExchangeRate(
		valueobject.Currency(strings.ToUpper(req.FromCurrency)),
		req.Rate,
		effective,
		source,
	)
	if err != nil {
		return nil, err
	}

	events := rate.GetDomainEvents()
	rate.ClearDomainEvents()
	if err := s.rateRepo.SaveWithEvents(ctx, rate, events); err != nil {
		return nil, err
	}

	response := ToExchangeRateResponse(rate)
	return &response, nil
}

// List retrieves ledger rows, optionally restricted to one currency
func (s *CurrencyService) List(ctx context.Context, filter ExchangeRateListFilter) ([]ExchangeRateResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  "effective_date",
		OrderDir: "desc",
		Filters:  make(map[string]interface{}),
	}

	var rates []currency.ExchangeRate
	var err error
	if filter.FromCurrency != "" {
		from := valueobject.Currency(strings.ToUpper(filter.FromCurrency))
		domainFilter.Filters["from_currency"] = from.String()
		rates, err = s.rateRepo.FindHistory(ctx, from, domainFilter)
	} else {
		rates, err = s.rateRepo.FindAll(ctx, domainFilter)
	}
	if err != nil {
		return nil, 0, err
	}

	total, err := s.rateRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToExchangeRateResponses(rates), total, nil
}

// Convert previews the MYR conversion of an amount without persisting
// anything. Documents snapshot their own conversion at creation; this is
// the read-only counterpart for clients.
func (s *CurrencyService) Convert(ctx context.Context, req ConvertRequest) (*ConversionResponse, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}

	asOf := time.Now()
	if req.AsOf != nil {
		asOf = *req.AsOf
	}

	cur := valueobject.Currency(strings.ToUpper(req.Currency))
	conv, err := s.ConversionFor(ctx, req.Amount, cur, asOf, nil)
	if err != nil {
		return nil, err
	}

	return &ConversionResponse{
		Amount:    req.Amount,
		Currency:  cur.String(),
		AmountMYR: conv.AmountMYR,
		Rate:      conv.Rate,
		Source:    conv.Source.String(),
		AsOf:      asOf,
	}, nil
}

// ConversionFor converts an amount into MYR as of the given date. MYR
// amounts short-circuit to the identity conversion; a caller-supplied rate
// overrides the ledger and is recorded with the MANUAL source.
func (s *CurrencyService) ConversionFor(ctx context.Context, amount decimal.Decimal, cur valueobject.Currency, asOf time.Time, manualRate *decimal.Decimal) (currency.Conversion, error) {
	if cur == valueobject.BaseCurrency {
		return currency.Identity(amount), nil
	}

	if manualRate != nil {
		if manualRate.LessThanOrEqual(decimal.Zero) {
			return currency.Conversion{}, shared.NewDomainError("INVALID_RATE", "Exchange rate must be positive")
		}
		return currency.Conversion{
			AmountMYR: amount.Mul(*manualRate).Round(2),
			Rate:      *manualRate,
			Source:    currency.RateSourceManual,
		}, nil
	}

	if asOf.IsZero() {
		asOf = time.Now()
	}
	rate, err := s.rateRepo.FindEffective(ctx, cur, asOf)
	if err != nil {
		return currency.Conversion{}, err
	}

	return currency.Conversion{
		AmountMYR: rate.Convert(amount),
		Rate:      rate.Rate,
		Source:    rate.Source,
	}, nil
}
