package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"datacheck/domain/validation"
	"datacheck/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Engine   validation.Config
	Server   ServerConfig
	Database DatabaseConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port         string
	LogLevel     string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Addr returns the listen address for the configured port
func (s ServerConfig) Addr() string {
	return ":" + s.Port
}

// DatabaseConfig holds the optional Postgres connection settings
type DatabaseConfig struct {
	URL string
}

// Enabled reports whether a database source was configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Engine:   loadEngineConfig(),
		Server:   loadServerConfig(),
		Database: loadDatabaseConfig(),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

// loadEngineConfig starts from the documented defaults and applies any
// DATACHECK_* overrides. Malformed values fall back to the default.
func loadEngineConfig() validation.Config {
	cfg := validation.DefaultConfig()

	cfg.OutlierZScoreThreshold = getEnvFloatOrDefault("DATACHECK_OUTLIER_ZSCORE_THRESHOLD", cfg.OutlierZScoreThreshold)
	cfg.MinRowsForOutlierDetection = getEnvIntOrDefault("DATACHECK_MIN_ROWS_FOR_OUTLIER_DETECTION", cfg.MinRowsForOutlierDetection)
	cfg.ImbalanceWarningRatio = getEnvFloatOrDefault("DATACHECK_IMBALANCE_WARNING_RATIO", cfg.ImbalanceWarningRatio)
	cfg.ImbalanceCriticalRatio = getEnvFloatOrDefault("DATACHECK_IMBALANCE_CRITICAL_RATIO", cfg.ImbalanceCriticalRatio)
	cfg.DriftBinCount = getEnvIntOrDefault("DATACHECK_DRIFT_BIN_COUNT", cfg.DriftBinCount)
	cfg.CategoryCardinalityCap = getEnvIntOrDefault("DATACHECK_CATEGORY_CARDINALITY_CAP", cfg.CategoryCardinalityCap)
	cfg.ReservoirCapacity = getEnvIntOrDefault("DATACHECK_RESERVOIR_CAPACITY", cfg.ReservoirCapacity)
	cfg.LabelColumns = getEnvListOrDefault("DATACHECK_LABEL_COLUMNS", cfg.LabelColumns)
	cfg.MissingWarningRatio = getEnvFloatOrDefault("DATACHECK_MISSING_WARNING_RATIO", cfg.MissingWarningRatio)
	cfg.MissingCriticalRatio = getEnvFloatOrDefault("DATACHECK_MISSING_CRITICAL_RATIO", cfg.MissingCriticalRatio)
	cfg.TrackDuplicates = getEnvBoolOrDefault("DATACHECK_TRACK_DUPLICATES", cfg.TrackDuplicates)
	cfg.DuplicateWarningRatio = getEnvFloatOrDefault("DATACHECK_DUPLICATE_WARNING_RATIO", cfg.DuplicateWarningRatio)
	cfg.DuplicateCriticalRatio = getEnvFloatOrDefault("DATACHECK_DUPLICATE_CRITICAL_RATIO", cfg.DuplicateCriticalRatio)
	cfg.Seed = getEnvInt64OrDefault("DATACHECK_SEED", cfg.Seed)
	cfg.Workers = getEnvIntOrDefault("DATACHECK_WORKERS", cfg.Workers)

	return cfg
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:         getEnvOrDefault("PORT", "8080"),
		LogLevel:     getEnvOrDefault("LOG_LEVEL", "INFO"),
		ReadTimeout:  getEnvDurationOrDefault("SERVER_READ_TIMEOUT", 30*time.Second),
		WriteTimeout: getEnvDurationOrDefault("SERVER_WRITE_TIMEOUT", 60*time.Second),
	}
}

// loadDatabaseConfig reads the optional Postgres settings. An empty URL
// disables the query source; it is not an error.
func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL: getEnvOrDefault("DATABASE_URL", ""),
	}
}

func validateConfig(config *Config) error {
	if err := config.Engine.Validate(); err != nil {
		return err
	}
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvListOrDefault splits a comma separated value, trimming blanks
func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
