// Package config loads service configuration from environment variables
// and .env files, and parses the optional YAML seed file used to prime a
// development book.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config represents the application configuration.
type Config struct {
	// ListenAddr is the HTTP listen address, e.g. ":8080".
	ListenAddr string
	// LogLevel is one of debug, info, warn, error.
	LogLevel string
	// LogFormat is json or text.
	LogFormat string
	// DatabaseURL selects the postgres store when non-empty; otherwise the
	// in-memory store is used.
	DatabaseURL string
	// SeedFile points at a YAML seed file loaded into a fresh dev book.
	SeedFile string
	// DevSeed enables loading the seed file at startup.
	DevSeed bool
}

// Load loads configuration from environment variables.
// It automatically loads a .env file from the current directory if present.
// An explicit path can be given for tests.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		_ = godotenv.Load()
	}

	cfg := &Config{
		ListenAddr:  getEnvOrDefault("LISTEN_ADDR", ":8080"),
		LogLevel:    getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:   getEnvOrDefault("LOG_FORMAT", "json"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		SeedFile:    getEnvOrDefault("SEED_FILE", "seed.yaml"),
		DevSeed:     isTruthy(os.Getenv("DEV_SEED")),
	}
	return cfg, nil
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func isTruthy(v string) bool {
	switch v {
	case "1", "true", "TRUE", "yes", "YES", "on":
		return true
	}
	return false
}
