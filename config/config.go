// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr           string
	DBPath         string
	PolicyFile     string
	PolicyID       string
	PolicyRefresh  time.Duration
	AllowedOrigins []string
	MaxBatchSize   int
	LogLevel       string
	Environment    string
}

// Load reads .env (when present) and then the process environment.
// Variables already set in the environment win over .env.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "config: ignoring unreadable .env: %v\n", err)
	}

	return Config{
		Addr:           getEnv("WAGE_ADDR", ":8080"),
		DBPath:         getEnv("WAGE_DB_PATH", "wages.db"),
		PolicyFile:     getEnv("WAGE_POLICY_FILE", ""),
		PolicyID:       getEnv("WAGE_POLICY_ID", ""),
		PolicyRefresh:  getEnvDuration("WAGE_POLICY_REFRESH", 5*time.Minute),
		AllowedOrigins: getEnvList("WAGE_ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:8080"}),
		MaxBatchSize:   getEnvInt("WAGE_MAX_BATCH_SIZE", 100),
		LogLevel:       getEnv("WAGE_LOG_LEVEL", "info"),
		Environment:    getEnv("WAGE_ENV", "development"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("WAGE_ADDR must not be empty")
	}
	if strings.TrimSpace(c.DBPath) == "" {
		return fmt.Errorf("WAGE_DB_PATH must not be empty")
	}
	if c.PolicyRefresh < time.Second {
		return fmt.Errorf("WAGE_POLICY_REFRESH must be at least 1s")
	}
	if c.MaxBatchSize <= 0 {
		return fmt.Errorf("WAGE_MAX_BATCH_SIZE must be positive")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("WAGE_LOG_LEVEL must be one of debug, info, warn, error")
	}
	if c.Environment == "production" {
		for _, o := range c.AllowedOrigins {
			if o == "*" {
				return fmt.Errorf("WAGE_ALLOWED_ORIGINS must not be * in production")
			}
		}
	}
	return nil
}
