package config

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"ride-dispatch/internal/models"
)

// Config holds the runtime settings of the dispatch tool
type Config struct {
	ScenarioPaths   []string
	Workers         int
	DefaultCapacity int
	MetricsFile     string
	ReportFile      string
	MaxSearchNodes  int64
}

// Load reads .env files and then the environment.
// Named files must exist; without names a missing ./.env is ignored.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		if len(envFiles) > 0 {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
		log.Println("[CONFIG] No .env file found (using environment variables)")
	}
	return FromEnv()
}

// FromEnv builds a Config from DISPATCH_* environment variables
func FromEnv() (*Config, error) {
	cfg := &Config{
		ScenarioPaths: splitList(getEnv("DISPATCH_SCENARIOS", "")),
		MetricsFile:   getEnv("DISPATCH_METRICS_FILE", ""),
		ReportFile:    getEnv("DISPATCH_REPORT_FILE", ""),
	}

	var err error
	if cfg.Workers, err = getEnvInt("DISPATCH_WORKERS", runtime.NumCPU()); err != nil {
		return nil, err
	}
	if cfg.DefaultCapacity, err = getEnvInt("DISPATCH_DEFAULT_CAPACITY", models.DefaultCapacity); err != nil {
		return nil, err
	}
	maxNodes, err := getEnvInt("DISPATCH_MAX_SEARCH_NODES", 0)
	if err != nil {
		return nil, err
	}
	cfg.MaxSearchNodes = int64(maxNodes)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("DISPATCH_WORKERS must be at least 1, got %d", c.Workers)
	}
	if c.DefaultCapacity < 1 {
		return fmt.Errorf("DISPATCH_DEFAULT_CAPACITY must be at least 1, got %d", c.DefaultCapacity)
	}
	if c.MaxSearchNodes < 0 {
		return fmt.Errorf("DISPATCH_MAX_SEARCH_NODES must not be negative, got %d", c.MaxSearchNodes)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
