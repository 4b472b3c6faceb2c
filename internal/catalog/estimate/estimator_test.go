package estimate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"countrycatalog/internal/catalog/models"
)

var refreshedAt = time.Date(2025, 10, 22, 12, 0, 0, 0, time.UTC)

func population(n float64) *float64 { return &n }

func TestEstimate(t *testing.T) {
	est := New(Fixed(1500))

	t.Run("computes gdp from first currency", func(t *testing.T) {
		raw := models.RawCountry{
			Name:       "Wakanda",
			Population: population(1000000),
			Currencies: []models.RawCurrency{{Code: "WKD"}, {Code: "USD"}},
		}

		rec, ok := est.Estimate(raw, models.Rates{"WKD": 2.0, "USD": 1.0}, refreshedAt)
		require.True(t, ok)
		require.NotNil(t, rec.CurrencyCode)
		assert.Equal(t, "WKD", *rec.CurrencyCode)
		require.NotNil(t, rec.ExchangeRate)
		assert.Equal(t, 2.0, *rec.ExchangeRate)
		require.NotNil(t, rec.EstimatedGDP)
		assert.Equal(t, 750_000_000.0, *rec.EstimatedGDP)
		assert.Equal(t, refreshedAt, rec.LastRefreshedAt)
	})

	t.Run("optional fields", func(t *testing.T) {
		raw := models.RawCountry{
			Name:       "  Atlantis ",
			Capital:    "Poseidonis",
			Region:     "",
			Flag:       "https://flags.example.com/at.svg",
			Population: population(5000),
		}

		rec, ok := est.Estimate(raw, models.Rates{}, refreshedAt)
		require.True(t, ok)
		assert.Equal(t, "Atlantis", rec.Name)
		require.NotNil(t, rec.Capital)
		assert.Equal(t, "Poseidonis", *rec.Capital)
		assert.Nil(t, rec.Region)
		require.NotNil(t, rec.FlagURL)
		assert.Nil(t, rec.CurrencyCode)
		assert.Nil(t, rec.ExchangeRate)
		assert.Nil(t, rec.EstimatedGDP)
	})

	t.Run("unknown currency leaves rate and gdp null", func(t *testing.T) {
		raw := models.RawCountry{Name: "Genovia", Population: population(30000), Currencies: []models.RawCurrency{{Code: "GNV"}}}
		rec, ok := est.Estimate(raw, models.Rates{"EUR": 0.9}, refreshedAt)
		require.True(t, ok)
		require.NotNil(t, rec.CurrencyCode)
		assert.Nil(t, rec.ExchangeRate)
		assert.Nil(t, rec.EstimatedGDP)
	})

	t.Run("non-positive rate leaves gdp null", func(t *testing.T) {
		raw := models.RawCountry{Name: "Freedonia", Population: population(10), Currencies: []models.RawCurrency{{Code: "FRD"}}}
		for _, rate := range []float64{0, -3} {
			rec, ok := est.Estimate(raw, models.Rates{"FRD": rate}, refreshedAt)
			require.True(t, ok)
			assert.Nil(t, rec.ExchangeRate)
			assert.Nil(t, rec.EstimatedGDP)
		}
	})
}

func TestEstimateDrops(t *testing.T) {
	est := New(nil)
	cases := map[string]models.RawCountry{
		"empty name":          {Name: "", Population: population(10)},
		"blank name":          {Name: "   ", Population: population(10)},
		"missing population":  {Name: "Nowhere"},
		"zero population":     {Name: "Nowhere", Population: population(0)},
		"negative population": {Name: "Nowhere", Population: population(-5)},
		"malformed entry":     {Name: "Oddland", Population: population(10), Malformed: true},
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, ok := est.Estimate(raw, models.Rates{}, refreshedAt)
			assert.False(t, ok)
		})
	}
}

func TestRandomMultiplier(t *testing.T) {
	a, err := NewRandom(1000, 2000, 42)
	require.NoError(t, err)
	b, err := NewRandom(1000, 2000, 42)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		va, vb := a.Next(), b.Next()
		assert.Equal(t, va, vb, "same seed yields same sequence")
		assert.GreaterOrEqual(t, va, 1000.0)
		assert.LessOrEqual(t, va, 2000.0)
	}

	_, err = NewRandom(2000, 1000, 1)
	assert.Error(t, err)
	_, err = NewRandom(0, 10, 1)
	assert.Error(t, err)
}

func TestDefaultMultiplier(t *testing.T) {
	raw := models.RawCountry{Name: "Wakanda", Population: population(2), Currencies: []models.RawCurrency{{Code: "WKD"}}}
	rec, ok := New(nil).Estimate(raw, models.Rates{"WKD": 1}, refreshedAt)
	require.True(t, ok)
	require.NotNil(t, rec.EstimatedGDP)
	assert.Equal(t, 3000.0, *rec.EstimatedGDP)
}
