package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"countrycatalog/pkg/platform/textutil"
)

// applyEnv overlays environment variables onto c. Unset variables leave the
// current value untouched; malformed values are an error.
func (c *Config) applyEnv() error {
	setString("CATALOG_ADDR", &c.Server.Addr)
	setString("LOG_LEVEL", &c.Log.Level)
	setString("LOG_FORMAT", &c.Log.Format)
	setString("COUNTRIES_URL", &c.Sources.CountriesURL)
	setString("RATES_URL", &c.Sources.RatesURL)
	setString("DATABASE_URL", &c.Database.URL)
	setString("REDIS_URL", &c.Redis.URL)
	setString("REFRESH_LOCK_KEY", &c.Refresh.LockKey)
	setString("SUMMARY_IMAGE_PATH", &c.Summary.ImagePath)
	setString("ESTIMATE_MULTIPLIER_MODE", &c.Estimate.Mode)
	setString("NAME_MATCH_MODE", &c.Catalog.NameMatchMode)

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.Server.CORSAllowedOrigins = textutil.SplitList(v)
	}

	var errs []string
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	collect(setDuration("SHUTDOWN_TIMEOUT", &c.Server.ShutdownTimeout))
	collect(setDuration("SOURCE_TIMEOUT", &c.Sources.Timeout))
	collect(setDuration("REFRESH_LOCK_TTL", &c.Refresh.LockTTL))
	collect(setBool("FETCH_CONCURRENTLY", &c.Refresh.FetchConcurrently))
	collect(setInt("DB_MAX_CONNS", &c.Database.MaxConns))
	collect(setInt("DB_MIN_CONNS", &c.Database.MinConns))
	collect(setInt("REDIS_POOL_SIZE", &c.Redis.PoolSize))
	collect(setFloat("ESTIMATE_MULTIPLIER", &c.Estimate.Multiplier))
	collect(setInt("ESTIMATE_MULTIPLIER_MIN", &c.Estimate.Min))
	collect(setInt("ESTIMATE_MULTIPLIER_MAX", &c.Estimate.Max))
	collect(setUint("ESTIMATE_SEED", &c.Estimate.Seed))

	if len(errs) > 0 {
		return fmt.Errorf("invalid environment: %s", strings.Join(errs, "; "))
	}
	return nil
}

func setString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func setBool(key string, dst *bool) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}

func setInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setUint(key string, dst *uint64) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setFloat(key string, dst *float64) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = f
	return nil
}
