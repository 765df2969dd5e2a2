// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/aristath/tradebook/internal/modules/settings"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for the journal database (always absolute)
	LogLevel string
	Port     int
	DevMode  bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("TRADEBOOK_DATA_DIR", "")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to determine home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".tradebook")
	}

	// Always resolve to absolute path and ensure the directory exists
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		Port:     getEnvAsInt("TRADEBOOK_PORT", 8001),
		DevMode:  getEnvAsBool("DEV_MODE", false),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

// UpdateFromSettings updates configuration from the settings database.
// This should be called after the journal database is initialized.
// Stored settings take precedence over environment variables.
func (c *Config) UpdateFromSettings(settingsRepo *settings.Repository) error {
	logLevel, err := settingsRepo.Get("log_level")
	if err != nil {
		return fmt.Errorf("failed to get log_level from settings: %w", err)
	}
	// Only use the stored value if it's not empty; otherwise keep the env value
	if logLevel != nil && *logLevel != "" {
		c.LogLevel = *logLevel
	}

	port, err := settingsRepo.GetFloat("port", float64(c.Port))
	if err != nil {
		return fmt.Errorf("failed to get port from settings: %w", err)
	}
	if p := int(port); p > 0 && p <= 65535 {
		c.Port = p
	}

	return nil
}

// DatabasePath returns the journal database file path
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "journal.db")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
