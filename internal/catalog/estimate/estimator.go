// Package estimate turns raw source entries into catalog records.
//
// Estimation is pure: it performs no I/O and reads only the entry, the rate
// table, and the configured multiplier.
package estimate

import (
	"math"
	"strings"
	"time"

	"countrycatalog/internal/catalog/models"
)

// Estimator joins raw entries against a rate table.
type Estimator struct {
	multiplier Multiplier
}

// New creates an Estimator. A nil multiplier falls back to DefaultMultiplier.
func New(m Multiplier) *Estimator {
	if m == nil {
		m = Fixed(DefaultMultiplier)
	}
	return &Estimator{multiplier: m}
}

// Estimate builds a complete record candidate for raw. The boolean is false
// when the entry must be dropped: malformed, empty name or missing population.
func (e *Estimator) Estimate(raw models.RawCountry, rates models.Rates, refreshedAt time.Time) (models.Country, bool) {
	if raw.Malformed {
		return models.Country{}, false
	}
	name := strings.TrimSpace(raw.Name)
	if name == "" || raw.Population == nil || *raw.Population <= 0 {
		return models.Country{}, false
	}
	population := int64(math.Round(*raw.Population))
	if population <= 0 {
		return models.Country{}, false
	}

	record := models.Country{
		Name:            name,
		Capital:         optional(raw.Capital),
		Region:          optional(raw.Region),
		Population:      population,
		FlagURL:         optional(raw.Flag),
		LastRefreshedAt: refreshedAt,
	}

	if len(raw.Currencies) > 0 {
		record.CurrencyCode = optional(raw.Currencies[0].Code)
	}
	if record.CurrencyCode == nil {
		return record, true
	}

	// Non-positive rates are treated as unknown.
	rate, ok := rates.Lookup(*record.CurrencyCode)
	if !ok || rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return record, true
	}

	gdp := float64(population) * e.multiplier.Next() / rate
	record.ExchangeRate = &rate
	record.EstimatedGDP = &gdp
	return record, true
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
