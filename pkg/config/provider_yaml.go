package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	// Load into temporary struct with YAML tags
	var yamlConfig struct {
		HTTP struct {
			ListenAddr string `yaml:"listen_addr"`
		} `yaml:"http"`
		Dataset struct {
			Path string `yaml:"path"`
		} `yaml:"dataset"`
		Engine struct {
			Window         int    `yaml:"window"`
			Statistic      string `yaml:"statistic"`
			BaselineSource string `yaml:"baseline_source"`
		} `yaml:"engine"`
		Weather struct {
			APIKey            string  `yaml:"api_key"`
			BaseURL           string  `yaml:"base_url"`
			RequestsPerSecond float64 `yaml:"requests_per_second"`
			BreakerFailures   uint32  `yaml:"breaker_failures"`
			BreakerCooldownS  int     `yaml:"breaker_cooldown_seconds"`
		} `yaml:"weather"`
		Logging struct {
			File       string `yaml:"file"`
			MaxSizeMB  int    `yaml:"max_size_mb"`
			MaxBackups int    `yaml:"max_backups"`
			MaxAgeDays int    `yaml:"max_age_days"`
		} `yaml:"logging"`
	}

	err = yaml.Unmarshal(cfgFile, &yamlConfig)
	if err != nil {
		return nil, err
	}

	// Convert to our internal format
	config := &ConfigData{
		HTTP: HTTPData{
			ListenAddr: yamlConfig.HTTP.ListenAddr,
		},
		Dataset: DatasetData{
			Path: yamlConfig.Dataset.Path,
		},
		Engine: EngineData{
			Window:         yamlConfig.Engine.Window,
			Statistic:      yamlConfig.Engine.Statistic,
			BaselineSource: yamlConfig.Engine.BaselineSource,
		},
		Weather: WeatherData{
			APIKey:            yamlConfig.Weather.APIKey,
			BaseURL:           yamlConfig.Weather.BaseURL,
			RequestsPerSecond: yamlConfig.Weather.RequestsPerSecond,
			BreakerFailures:   yamlConfig.Weather.BreakerFailures,
			BreakerCooldownS:  yamlConfig.Weather.BreakerCooldownS,
		},
		Logging: LoggingData{
			File:       yamlConfig.Logging.File,
			MaxSizeMB:  yamlConfig.Logging.MaxSizeMB,
			MaxBackups: yamlConfig.Logging.MaxBackups,
			MaxAgeDays: yamlConfig.Logging.MaxAgeDays,
		},
	}

	return finalize(config)
}

// IsReadOnly returns true; YAML configuration is not editable at runtime
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for the YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}
