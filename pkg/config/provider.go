// Package config defines the application configuration model and its
// pluggable backends (YAML files and SQLite databases).
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Configuration management
	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	HTTP    HTTPData    `json:"http"`
	Dataset DatasetData `json:"dataset"`
	Engine  EngineData  `json:"engine"`
	Weather WeatherData `json:"weather"`
	Logging LoggingData `json:"logging,omitempty"`
}

// HTTPData holds the REST server configuration
type HTTPData struct {
	ListenAddr string `json:"listen_addr"`
}

// DatasetData holds the historical series source configuration
type DatasetData struct {
	// Path is the CSV file loaded at startup. Optional; the series can
	// also be uploaded through the API.
	Path string `json:"path,omitempty"`
}

// EngineData holds the statistics engine parameters
type EngineData struct {
	// Window is the rolling window width in observations.
	Window int `json:"window,omitempty"`
	// Statistic selects the rolling center statistic: "mean" or "median".
	Statistic string `json:"statistic,omitempty"`
	// BaselineSource selects the normality baseline: "rolling" or "raw".
	BaselineSource string `json:"baseline_source,omitempty"`
}

// WeatherData holds the current-weather lookup configuration
type WeatherData struct {
	APIKey            string  `json:"api_key,omitempty"`
	BaseURL           string  `json:"base_url,omitempty"`
	RequestsPerSecond float64 `json:"requests_per_second,omitempty"`
	BreakerFailures   uint32  `json:"breaker_failures,omitempty"`
	BreakerCooldownS  int     `json:"breaker_cooldown_seconds,omitempty"`
}

// LoggingData holds optional file logging with rotation
type LoggingData struct {
	File       string `json:"file,omitempty"`
	MaxSizeMB  int    `json:"max_size_mb,omitempty"`
	MaxBackups int    `json:"max_backups,omitempty"`
	MaxAgeDays int    `json:"max_age_days,omitempty"`
}

// finalize applies environment overrides, defaults, and validation.
// Both providers run it after loading their raw data. The weather API
// key can come from the environment (OWM_API_KEY, optionally via a .env
// file) so credentials stay out of config files.
func finalize(cfg *ConfigData) (*ConfigData, error) {
	// A missing .env file is fine; explicit environment still applies.
	_ = godotenv.Load()
	if key := os.Getenv("OWM_API_KEY"); key != "" {
		cfg.Weather.APIKey = key
	}

	if cfg.HTTP.ListenAddr == "" {
		cfg.HTTP.ListenAddr = ":8080"
	}
	if cfg.Engine.Window == 0 {
		cfg.Engine.Window = 30
	}
	if cfg.Engine.Statistic == "" {
		cfg.Engine.Statistic = "mean"
	}
	if cfg.Engine.BaselineSource == "" {
		cfg.Engine.BaselineSource = "rolling"
	}

	if cfg.Engine.Window < 2 {
		return nil, fmt.Errorf("engine window must be at least 2, got %d", cfg.Engine.Window)
	}
	switch cfg.Engine.Statistic {
	case "mean", "median":
	default:
		return nil, fmt.Errorf("unknown engine statistic %q (want mean or median)", cfg.Engine.Statistic)
	}
	switch cfg.Engine.BaselineSource {
	case "raw", "rolling":
	default:
		return nil, fmt.Errorf("unknown baseline source %q (want raw or rolling)", cfg.Engine.BaselineSource)
	}

	return cfg, nil
}
