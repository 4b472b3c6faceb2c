package models

import (
	"strings"
	"time"
)

// Country is a persisted catalog entry, keyed uniquely by Name.
//
// Invariants:
//   - Name is non-empty and Population is positive
//   - EstimatedGDP is non-nil iff ExchangeRate is non-nil and positive
//   - LastRefreshedAt is the instant of the last refresh pass that wrote it
type Country struct {
	ID              int64     `json:"id" db:"id"`
	Name            string    `json:"name" db:"name"`
	Capital         *string   `json:"capital" db:"capital"`
	Region          *string   `json:"region" db:"region"`
	Population      int64     `json:"population" db:"population"`
	CurrencyCode    *string   `json:"currency_code" db:"currency_code"`
	ExchangeRate    *float64  `json:"exchange_rate" db:"exchange_rate"`
	EstimatedGDP    *float64  `json:"estimated_gdp" db:"estimated_gdp"`
	FlagURL         *string   `json:"flag_url" db:"flag_url"`
	LastRefreshedAt time.Time `json:"last_refreshed_at" db:"last_refreshed_at"`
	CreatedAt       time.Time `json:"-" db:"created_at"`
	UpdatedAt       time.Time `json:"-" db:"updated_at"`
}

// HasGDP reports whether an estimate was computed for the country.
func (c *Country) HasGDP() bool {
	return c.EstimatedGDP != nil
}

// Clone returns a deep copy so callers cannot alias stored pointers.
func (c *Country) Clone() *Country {
	if c == nil {
		return nil
	}
	out := *c
	out.Capital = cloneString(c.Capital)
	out.Region = cloneString(c.Region)
	out.CurrencyCode = cloneString(c.CurrencyCode)
	out.FlagURL = cloneString(c.FlagURL)
	out.ExchangeRate = cloneFloat(c.ExchangeRate)
	out.EstimatedGDP = cloneFloat(c.EstimatedGDP)
	return &out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

// MatchesRegion compares regions case-insensitively. A nil region never matches.
func (c *Country) MatchesRegion(region string) bool {
	return c.Region != nil && strings.EqualFold(*c.Region, region)
}

// MatchesCurrency compares currency codes case-insensitively.
func (c *Country) MatchesCurrency(code string) bool {
	return c.CurrencyCode != nil && strings.EqualFold(*c.CurrencyCode, code)
}

// RawCountry is one entry of the countries source payload. It is transient:
// discarded at the end of the refresh pass that fetched it.
type RawCountry struct {
	Name       string        `json:"name"`
	Capital    string        `json:"capital"`
	Region     string        `json:"region"`
	Population *float64      `json:"population"`
	Flag       string        `json:"flag"`
	Currencies []RawCurrency `json:"currencies"`

	// Malformed marks an entry that could not be decoded. It is kept so the
	// pass counts it as dropped instead of failing the whole payload.
	Malformed bool `json:"-"`
}

// RawCurrency is one currency listed for a raw country entry.
type RawCurrency struct {
	Code   string `json:"code"`
	Name   string `json:"name,omitempty"`
	Symbol string `json:"symbol,omitempty"`
}

// Rates maps currency code to units per base currency.
type Rates map[string]float64

// Lookup returns the rate for code, if present.
func (r Rates) Lookup(code string) (float64, bool) {
	if code == "" {
		return 0, false
	}
	rate, ok := r[code]
	return rate, ok
}

// Status is the catalog aggregate reported by GET /status.
type Status struct {
	TotalCountries  int        `json:"total_countries"`
	LastRefreshedAt *time.Time `json:"last_refreshed_at"`
}
