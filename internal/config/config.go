package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Storage backends
const (
	BackendSQLite     = "sqlite"
	BackendMemory     = "memory"
	BackendClickHouse = "clickhouse"
)

// Config holds the application configuration
type Config struct {
	StorageBackend string

	// SQLite configuration
	SQLitePath string

	// ClickHouse configuration
	ClickHouseHost     string
	ClickHousePort     int
	ClickHouseDatabase string
	ClickHouseUser     string
	ClickHousePassword string
	ClickHouseUseTLS   bool

	// Tracker configuration
	MaxDaysHistory    int
	CoverMaxDimension int
	CoverMaxBytes     int64

	// Logging configuration
	LogLevel  string
	LogFormat string // console or json
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	config := &Config{}

	config.StorageBackend = strings.ToLower(os.Getenv("STORAGE_BACKEND"))
	if config.StorageBackend == "" {
		config.StorageBackend = BackendSQLite
	}

	switch config.StorageBackend {
	case BackendMemory:
	case BackendSQLite:
		config.SQLitePath = os.Getenv("SQLITE_PATH")
		if config.SQLitePath == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("SQLITE_PATH is not set and the home directory is unknown: %w", err)
			}
			config.SQLitePath = filepath.Join(home, ".readtrack", "readtrack.db")
		}
	case BackendClickHouse:
		config.ClickHouseHost = os.Getenv("CLICKHOUSE_HOST")
		if config.ClickHouseHost == "" {
			return nil, fmt.Errorf("CLICKHOUSE_HOST is required when STORAGE_BACKEND is clickhouse")
		}

		port, err := intFromEnv("CLICKHOUSE_PORT", 9000) // Default ClickHouse native port
		if err != nil {
			return nil, err
		}
		config.ClickHousePort = port

		config.ClickHouseDatabase = os.Getenv("CLICKHOUSE_DATABASE")
		if config.ClickHouseDatabase == "" {
			config.ClickHouseDatabase = "default"
		}

		config.ClickHouseUser = os.Getenv("CLICKHOUSE_USER")
		if config.ClickHouseUser == "" {
			config.ClickHouseUser = "default"
		}

		config.ClickHousePassword = os.Getenv("CLICKHOUSE_PASSWORD")
		// Password is optional, can be empty

		config.ClickHouseUseTLS = os.Getenv("CLICKHOUSE_USE_TLS") == "true"
	default:
		return nil, fmt.Errorf("invalid STORAGE_BACKEND %q (expected sqlite, memory or clickhouse)", config.StorageBackend)
	}

	days, err := intFromEnv("MAX_DAYS_HISTORY", 7)
	if err != nil {
		return nil, err
	}
	if days < 1 {
		return nil, fmt.Errorf("MAX_DAYS_HISTORY must be at least 1, got %d", days)
	}
	config.MaxDaysHistory = days

	dimension, err := intFromEnv("COVER_MAX_DIMENSION", 800)
	if err != nil {
		return nil, err
	}
	config.CoverMaxDimension = dimension

	maxBytes, err := intFromEnv("COVER_MAX_BYTES", 5*1024*1024)
	if err != nil {
		return nil, err
	}
	config.CoverMaxBytes = int64(maxBytes)

	config.LogLevel = os.Getenv("LOG_LEVEL")
	if config.LogLevel == "" {
		config.LogLevel = "warn"
	}

	config.LogFormat = os.Getenv("LOG_FORMAT")
	if config.LogFormat == "" {
		config.LogFormat = "console"
	}
	if config.LogFormat != "console" && config.LogFormat != "json" {
		return nil, fmt.Errorf("invalid LOG_FORMAT %q (expected console or json)", config.LogFormat)
	}

	return config, nil
}

func intFromEnv(name string, fallback int) (int, error) {
	s := os.Getenv(name)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return v, nil
}
