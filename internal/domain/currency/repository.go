package currency

import (
	"context"
	"time"

	"github.com/fieldops/backend/internal/domain/shared"
	"github.com/fieldops/backend/internal/domain/shared/valueobject"
)

// ExchangeRateRepository defines the interface for exchange rate persistence.
// The ledger is append-only: there is no update or delete.
type ExchangeRateRepository interface {
	// Save appends a new ledger row
	Save(ctx context.Context, rate *ExchangeRate) error

	// SaveWithEvents appends a new ledger row and persists domain events
	// atomically (transactional outbox pattern)
	SaveWithEvents(ctx context.Context, rate *ExchangeRate, events []shared.DomainEvent) error

	// FindEffective finds the rate in effect for a currency as of a date:
	// the latest-dated row with effective_date <= asOf.
	// Returns shared.ErrRateNotFound when no row applies.
	FindEffective(ctx context.Context, from valueobject.Currency, asOf time.Time) (*ExchangeRate, error)

	// FindHistory returns the ledger rows for a currency, newest first
	FindHistory(ctx context.Context, from valueobject.Currency, filter shared.Filter) ([]ExchangeRate, error)

	// FindAll returns ledger rows across all currencies with filtering
	FindAll(ctx context.Context, filter shared.Filter) ([]ExchangeRate, error)

	// Count counts ledger rows matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
