// Package config provides configuration loading and validation for the
// roadmap service.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds everything the service needs at startup. Values come from the
// environment, optionally overridden by a JSON file for local development.
type Config struct {
	// Server
	Port int `json:"port,omitempty"`

	// External services
	DatabaseURL  string `json:"database_url,omitempty"`
	GeminiAPIKey string `json:"gemini_api_key,omitempty"`

	// Pipeline tuning
	ResearchWorkers    int           `json:"research_workers,omitempty"`     // Concurrent generation calls during research
	StageMaxRetries    int           `json:"stage_max_retries,omitempty"`    // Extra attempts after a failed stage call
	StageCallTimeout   time.Duration `json:"-"`                              // Per-call deadline
	RunTTL             time.Duration `json:"-"`                              // Idle run eviction threshold
	StageCallTimeoutMS int           `json:"stage_call_timeout_ms,omitempty"`
	RunTTLMinutes      int           `json:"run_ttl_minutes,omitempty"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Port:             8080,
		ResearchWorkers:  3,
		StageMaxRetries:  2,
		StageCallTimeout: 2 * time.Minute,
		RunTTL:           30 * time.Minute,
	}
}

// Load builds the configuration from defaults, an optional JSON file
// (path may be empty), then environment variables, in that order.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		fileCfg, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		cfg.merge(fileCfg)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if cfg.StageCallTimeoutMS > 0 {
		cfg.StageCallTimeout = time.Duration(cfg.StageCallTimeoutMS) * time.Millisecond
	}
	if cfg.RunTTLMinutes > 0 {
		cfg.RunTTL = time.Duration(cfg.RunTTLMinutes) * time.Minute
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadFile reads a JSON config file.
func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return &cfg, nil
}

// merge overlays non-zero fields from other onto c.
func (c *Config) merge(other *Config) {
	if other.Port != 0 {
		c.Port = other.Port
	}
	if other.DatabaseURL != "" {
		c.DatabaseURL = other.DatabaseURL
	}
	if other.GeminiAPIKey != "" {
		c.GeminiAPIKey = other.GeminiAPIKey
	}
	if other.ResearchWorkers != 0 {
		c.ResearchWorkers = other.ResearchWorkers
	}
	if other.StageMaxRetries != 0 {
		c.StageMaxRetries = other.StageMaxRetries
	}
	if other.StageCallTimeoutMS != 0 {
		c.StageCallTimeoutMS = other.StageCallTimeoutMS
	}
	if other.RunTTLMinutes != 0 {
		c.RunTTLMinutes = other.RunTTLMinutes
	}
}

// applyEnv overlays environment variables onto c.
func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Port = port
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.GeminiAPIKey = v
	}
	if v := os.Getenv("RESEARCH_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid RESEARCH_WORKERS %q: %w", v, err)
		}
		c.ResearchWorkers = n
	}
	if v := os.Getenv("STAGE_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid STAGE_MAX_RETRIES %q: %w", v, err)
		}
		c.StageMaxRetries = n
	}
	if v := os.Getenv("STAGE_CALL_TIMEOUT_MS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid STAGE_CALL_TIMEOUT_MS %q: %w", v, err)
		}
		c.StageCallTimeoutMS = n
	}
	if v := os.Getenv("RUN_TTL_MINUTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid RUN_TTL_MINUTES %q: %w", v, err)
		}
		c.RunTTLMinutes = n
	}
	return nil
}

// Validate checks that the configuration has usable values.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config error: port %d out of range", c.Port)
	}
	if c.ResearchWorkers < 1 {
		return fmt.Errorf("config error: research_workers must be at least 1")
	}
	if c.StageMaxRetries < 0 {
		return fmt.Errorf("config error: stage_max_retries must be non-negative")
	}
	if c.StageCallTimeout <= 0 {
		return fmt.Errorf("config error: stage call timeout must be positive")
	}
	if c.RunTTL <= 0 {
		return fmt.Errorf("config error: run TTL must be positive")
	}
	return nil
}
