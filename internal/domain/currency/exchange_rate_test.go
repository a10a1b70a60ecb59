package currency

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/backend/internal/domain/shared/valueobject"
)

func TestNewExchangeRate(t *testing.T) {
	t.Run("creates ledger row against the base currency", func(t *testing.T) {
		effective := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
		r, err := NewExchangeRate(valueobject.USD, decimal.NewFromFloat(4.45), effective, RateSourceManual)
		require.NoError(t, err)
		require.NotNil(t, r)

		assert.Equal(t, valueobject.USD, r.FromCurrency)
		assert.Equal(t, valueobject.MYR, r.ToCurrency)
		assert.True(t, r.Rate.Equal(decimal.NewFromFloat(4.45)))
		assert.Equal(t, effective, r.EffectiveDate)
		assert.Equal(t, RateSourceManual, r.Source)

		events := r.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeExchangeRateSet, events[0].EventType())
	})

	t.Run("rejects base currency pair", func(t *testing.T) {
		_, err := NewExchangeRate(valueobject.MYR, decimal.NewFromInt(1), time.Now(), RateSourceManual)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not need an exchange rate")
	})

	t.Run("rejects unsupported currency", func(t *testing.T) {
		_, err := NewExchangeRate(valueobject.Currency("XYZ"), decimal.NewFromInt(1), time.Now(), RateSourceManual)
		require.Error(t, err)
	})

	t.Run("rejects non-positive rate", func(t *testing.T) {
		_, err := NewExchangeRate(valueobject.USD, decimal.Zero, time.Now(), RateSourceManual)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be positive")

		_, err = NewExchangeRate(valueobject.USD, decimal.NewFromInt(-1), time.Now(), RateSourceManual)
		require.Error(t, err)
	})

	t.Run("rejects unknown source", func(t *testing.T) {
		_, err := NewExchangeRate(valueobject.USD, decimal.NewFromInt(4), time.Now(), RateSource("SCRAPED"))
		require.Error(t, err)
	})
}

func TestConvert(t *testing.T) {
	r, err := NewExchangeRate(valueobject.USD, decimal.NewFromFloat(4.4567), time.Now(), RateSourceAutomatic)
	require.NoError(t, err)

	t.Run("rounds converted amount to 2 decimal places", func(t *testing.T) {
		got := r.Convert(decimal.NewFromInt(1000))
		assert.True(t, got.Equal(decimal.NewFromFloat(4456.70)), "got %s", got)
	})

	t.Run("half rounds up", func(t *testing.T) {
		got := r.Convert(decimal.NewFromFloat(1.5))
		// 1.5 * 4.4567 = 6.68505
		assert.True(t, got.Equal(decimal.NewFromFloat(6.69)), "got %s", got)
	})
}

func TestIsEffectiveAt(t *testing.T) {
	effective := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	r, err := NewExchangeRate(valueobject.USD, decimal.NewFromFloat(4.45), effective, RateSourceManual)
	require.NoError(t, err)

	assert.True(t, r.IsEffectiveAt(effective))
	assert.True(t, r.IsEffectiveAt(effective.AddDate(0, 0, 1)))
	assert.False(t, r.IsEffectiveAt(effective.AddDate(0, 0, -1)))
}

func TestIdentity(t *testing.T) {
	conv := Identity(decimal.NewFromFloat(1234.567))

	assert.True(t, conv.AmountMYR.Equal(decimal.NewFromFloat(1234.57)))
	assert.True(t, conv.Rate.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, RateSourceAutomatic, conv.Source)
}
