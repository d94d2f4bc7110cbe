package config

import (
	"database/sql"
	"fmt"
	"strconv"

	_ "modernc.org/sqlite"
)

// SQLiteProvider implements ConfigProvider for SQLite database
// configuration. Settings live in a key/value table:
//
//	CREATE TABLE settings (key TEXT PRIMARY KEY, value TEXT NOT NULL);
//
// with dotted keys such as "http.listen_addr" or "engine.window".
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider creates a new SQLite configuration provider
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// LoadConfig loads the complete configuration from SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	rows, err := s.db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}
	defer rows.Close()

	config := &ConfigData{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		if err := applySetting(config, key, value); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settings: %w", err)
	}

	return finalize(config)
}

func applySetting(config *ConfigData, key, value string) error {
	var err error
	switch key {
	case "http.listen_addr":
		config.HTTP.ListenAddr = value
	case "dataset.path":
		config.Dataset.Path = value
	case "engine.window":
		config.Engine.Window, err = strconv.Atoi(value)
	case "engine.statistic":
		config.Engine.Statistic = value
	case "engine.baseline_source":
		config.Engine.BaselineSource = value
	case "weather.api_key":
		config.Weather.APIKey = value
	case "weather.base_url":
		config.Weather.BaseURL = value
	case "weather.requests_per_second":
		config.Weather.RequestsPerSecond, err = strconv.ParseFloat(value, 64)
	case "weather.breaker_failures":
		var failures uint64
		failures, err = strconv.ParseUint(value, 10, 32)
		config.Weather.BreakerFailures = uint32(failures)
	case "weather.breaker_cooldown_seconds":
		config.Weather.BreakerCooldownS, err = strconv.Atoi(value)
	case "logging.file":
		config.Logging.File = value
	case "logging.max_size_mb":
		config.Logging.MaxSizeMB, err = strconv.Atoi(value)
	case "logging.max_backups":
		config.Logging.MaxBackups, err = strconv.Atoi(value)
	case "logging.max_age_days":
		config.Logging.MaxAgeDays, err = strconv.Atoi(value)
	default:
		// Unknown keys are ignored so older binaries tolerate newer
		// configuration databases.
	}
	if err != nil {
		return fmt.Errorf("invalid value %q for setting %q: %w", value, key, err)
	}
	return nil
}

// IsReadOnly returns false; the SQLite backend is editable in place
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	return s.db.Close()
}
