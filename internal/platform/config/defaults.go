package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultAddr            = ":8080"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "json"
	DefaultCountriesURL    = "https://restcountries.com/v2/all?fields=name,capital,region,population,flag,currencies"
	DefaultRatesURL        = "https://open.er-api.com/v6/latest/USD"
	DefaultSourceTimeout   = 30 * time.Second
	DefaultMaxConns        = 10
	DefaultMinConns        = 1
	DefaultRedisPoolSize   = 10
	DefaultRedisTimeout    = 3 * time.Second
	DefaultLockKey         = "countrycatalog:refresh:lock"
	DefaultLockTTL         = 2 * time.Minute
	LockTTLMargin          = 30 * time.Second
	DefaultEstimateMode    = EstimateModeFixed
	DefaultMultiplier      = 1500
	DefaultMultiplierMin   = 1000
	DefaultMultiplierMax   = 2000
	DefaultImagePath       = "storage/summary.png"
	DefaultNameMatchMode   = NameMatchExactFirst
)

const (
	EstimateModeFixed  = "fixed"
	EstimateModeRandom = "random"

	NameMatchExactFirst = "exact_first"
	NameMatchContains   = "contains"
)

// Default returns a Config populated with defaults only.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:               DefaultAddr,
			ShutdownTimeout:    DefaultShutdownTimeout,
			CORSAllowedOrigins: []string{"*"},
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Sources: SourcesConfig{
			CountriesURL: DefaultCountriesURL,
			RatesURL:     DefaultRatesURL,
			Timeout:      DefaultSourceTimeout,
		},
		Database: DatabaseConfig{
			MaxConns: DefaultMaxConns,
			MinConns: DefaultMinConns,
		},
		Redis: RedisConfig{
			PoolSize:     DefaultRedisPoolSize,
			DialTimeout:  DefaultRedisTimeout,
			ReadTimeout:  DefaultRedisTimeout,
			WriteTimeout: DefaultRedisTimeout,
		},
		Refresh: RefreshConfig{
			FetchConcurrently: true,
			LockKey:           DefaultLockKey,
			LockTTL:           DefaultLockTTL,
		},
		Estimate: EstimateConfig{
			Mode:       DefaultEstimateMode,
			Multiplier: DefaultMultiplier,
			Min:        DefaultMultiplierMin,
			Max:        DefaultMultiplierMax,
		},
		Summary: SummaryConfig{
			ImagePath: DefaultImagePath,
		},
		Catalog: CatalogConfig{
			NameMatchMode: DefaultNameMatchMode,
		},
	}
}
