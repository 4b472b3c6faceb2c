package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"countrycatalog/pkg/platform/textutil"
)

// Config is the full runtime configuration for the catalog service.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Sources  SourcesConfig  `yaml:"sources"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Refresh  RefreshConfig  `yaml:"refresh"`
	Estimate EstimateConfig `yaml:"estimate"`
	Summary  SummaryConfig  `yaml:"summary"`
	Catalog  CatalogConfig  `yaml:"catalog"`
}

// ServerConfig captures HTTP server level configuration.
type ServerConfig struct {
	Addr               string        `yaml:"addr"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout"`
	CORSAllowedOrigins []string      `yaml:"cors_allowed_origins"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SourcesConfig points at the two upstream datasets.
type SourcesConfig struct {
	CountriesURL string        `yaml:"countries_url"`
	RatesURL     string        `yaml:"rates_url"`
	Timeout      time.Duration `yaml:"timeout"`
}

// DatabaseConfig selects the PostgreSQL store. An empty URL keeps the
// catalog in memory.
type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// RedisConfig enables the distributed refresh lock when URL is set.
type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type RefreshConfig struct {
	FetchConcurrently bool          `yaml:"fetch_concurrently"`
	LockKey           string        `yaml:"lock_key"`
	LockTTL           time.Duration `yaml:"lock_ttl"`
}

// EstimateConfig controls the GDP multiplier. Mode "fixed" uses Multiplier;
// mode "random" draws from [Min, Max] with a seeded generator.
type EstimateConfig struct {
	Mode       string  `yaml:"mode"`
	Multiplier float64 `yaml:"multiplier"`
	Min        int     `yaml:"min"`
	Max        int     `yaml:"max"`
	Seed       uint64  `yaml:"seed"`
}

type SummaryConfig struct {
	ImagePath string `yaml:"image_path"`
}

// CatalogConfig holds read-side behavior. NameMatchMode is "exact_first" or
// "contains".
type CatalogConfig struct {
	NameMatchMode string `yaml:"name_match_mode"`
}

// Load builds a Config from defaults, an optional YAML file, and environment
// variables, in that order of precedence (env wins), then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.Server.CORSAllowedOrigins = textutil.DedupeAndTrim(cfg.Server.CORSAllowedOrigins)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	// Expand ${VAR} environment variables
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), c); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}
	return nil
}
