package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if err := validateURL("sources.countries_url", c.Sources.CountriesURL); err != nil {
		return err
	}
	if err := validateURL("sources.rates_url", c.Sources.RatesURL); err != nil {
		return err
	}
	if c.Sources.Timeout <= 0 {
		return errors.New("sources.timeout must be positive")
	}

	if c.Database.URL != "" {
		if c.Database.MaxConns < 1 {
			return errors.New("database.max_conns must be >= 1")
		}
		if c.Database.MinConns < 0 {
			return errors.New("database.min_conns must be >= 0")
		}
		if c.Database.MinConns > c.Database.MaxConns {
			return fmt.Errorf("database.min_conns (%d) cannot exceed max_conns (%d)", c.Database.MinConns, c.Database.MaxConns)
		}
	}

	if c.Refresh.LockTTL <= 0 {
		return errors.New("refresh.lock_ttl must be positive")
	}
	// A Redis lock that expires mid-pass lets another instance start a
	// concurrent refresh. Both fetches may run back to back.
	if c.Redis.URL != "" {
		if minTTL := MinLockTTL(c.Sources.Timeout); c.Refresh.LockTTL < minTTL {
			return fmt.Errorf("refresh.lock_ttl (%s) must be at least %s: two source timeouts plus %s for merge and render",
				c.Refresh.LockTTL, minTTL, LockTTLMargin)
		}
	}

	switch c.Estimate.Mode {
	case EstimateModeFixed:
		if c.Estimate.Multiplier <= 0 {
			return errors.New("estimate.multiplier must be positive")
		}
	case EstimateModeRandom:
		if c.Estimate.Min <= 0 || c.Estimate.Max < c.Estimate.Min {
			return fmt.Errorf("estimate range [%d, %d] is invalid", c.Estimate.Min, c.Estimate.Max)
		}
	default:
		return fmt.Errorf("estimate.mode must be %q or %q, got %q", EstimateModeFixed, EstimateModeRandom, c.Estimate.Mode)
	}

	if c.Summary.ImagePath == "" {
		return errors.New("summary.image_path is required")
	}

	switch c.Catalog.NameMatchMode {
	case NameMatchExactFirst, NameMatchContains:
	default:
		return fmt.Errorf("catalog.name_match_mode must be %q or %q, got %q", NameMatchExactFirst, NameMatchContains, c.Catalog.NameMatchMode)
	}

	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text, got %q", c.Log.Format)
	}
	return nil
}

// MinLockTTL is the shortest distributed lock TTL that outlives a worst-case
// pass: both fetches timing out sequentially, then merge and render.
func MinLockTTL(sourceTimeout time.Duration) time.Duration {
	return 2*sourceTimeout + LockTTLMargin
}

func validateURL(field, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", field)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got %q", field, raw)
	}
	return nil
}
