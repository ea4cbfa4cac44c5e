package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

var cfg *Config

// Config represents service configuration for dp-sdmx-series-controller
type Config struct {
	BindAddr                   string        `envconfig:"BIND_ADDR"`
	SDMXPortalURL              string        `envconfig:"SDMX_PORTAL_URL"`
	GracefulShutdownTimeout    time.Duration `envconfig:"GRACEFUL_SHUTDOWN_TIMEOUT"`
	HealthCheckInterval        time.Duration `envconfig:"HEALTHCHECK_INTERVAL"`
	HealthCheckCriticalTimeout time.Duration `envconfig:"HEALTHCHECK_CRITICAL_TIMEOUT"`
	CacheTTL                   time.Duration `envconfig:"CACHE_TTL"`
	CacheMaxEntries            int           `envconfig:"CACHE_MAX_ENTRIES"`
	MaxSeriesKeys              int           `envconfig:"MAX_SERIES_KEYS"`
	CatalogMaxRows             int           `envconfig:"CATALOG_MAX_ROWS"`
}

// Get returns the default config with any modifications through environment
// variables
func Get() (*Config, error) {
	if cfg != nil {
		return cfg, nil
	}

	cfg = &Config{
		BindAddr:                   ":24100",
		SDMXPortalURL:              "https://data-api.ecb.europa.eu/service",
		GracefulShutdownTimeout:    5 * time.Second,
		HealthCheckInterval:        30 * time.Second,
		HealthCheckCriticalTimeout: 90 * time.Second,
		CacheTTL:                   time.Hour,
		CacheMaxEntries:            512,
		MaxSeriesKeys:              5000,
		CatalogMaxRows:             50000,
	}

	return cfg, envconfig.Process("", cfg)
}
