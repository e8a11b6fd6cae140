package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Features that can be individually routed to the v2 backend
const (
	FeatureAuth          = "auth"
	FeatureOrganizations = "organizations"
	FeatureInvitations   = "invitations"
)

// Config holds all SDK configuration
type Config struct {
	// API backend configuration
	API APIConfig `yaml:"api"`

	// StateDir is where persisted session state lives (the localStorage
	// equivalent). Defaults to ~/.skedlii.
	StateDir string `yaml:"state_dir"`

	// LogLevel controls SDK logging (debug, info, warn, error)
	LogLevel string `yaml:"log_level"`
}

// APIConfig holds the dual-version backend configuration
type APIConfig struct {
	V1BaseURL string `yaml:"v1_base_url"`
	V2BaseURL string `yaml:"v2_base_url"`

	// V2Enabled is the global default; V2Features overrides it per feature
	V2Enabled  bool            `yaml:"v2_enabled"`
	V2Features map[string]bool `yaml:"v2_features"`

	Timeout time.Duration `yaml:"timeout"`
}

// Load builds configuration from an optional YAML file (SKEDLII_CONFIG) and
// the environment, then validates it
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("SKEDLII_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	cfg.loadEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func defaults() *Config {
	stateDir := ".skedlii"
	if home, err := os.UserHomeDir(); err == nil {
		stateDir = filepath.Join(home, ".skedlii")
	}
	return &Config{
		API: APIConfig{
			V1BaseURL:  "https://api.skedlii.xyz/api",
			V2BaseURL:  "https://api.skedlii.xyz/api/v2",
			V2Enabled:  false,
			V2Features: map[string]bool{},
			Timeout:    30 * time.Second,
		},
		StateDir: stateDir,
		LogLevel: "info",
	}
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) loadEnv() {
	c.API.V1BaseURL = getEnv("SKEDLII_API_V1_URL", c.API.V1BaseURL)
	c.API.V2BaseURL = getEnv("SKEDLII_API_V2_URL", c.API.V2BaseURL)
	c.API.V2Enabled = getEnvBool("SKEDLII_V2_ENABLED", c.API.V2Enabled)
	c.API.Timeout = getEnvDuration("SKEDLII_HTTP_TIMEOUT", c.API.Timeout)
	c.StateDir = getEnv("SKEDLII_STATE_DIR", c.StateDir)
	c.LogLevel = getEnv("SKEDLII_LOG_LEVEL", c.LogLevel)

	// SKEDLII_V2_FEATURES is a comma-separated feature list, each optionally
	// suffixed "=false" to force a feature back to v1.
	if features := os.Getenv("SKEDLII_V2_FEATURES"); features != "" {
		if c.API.V2Features == nil {
			c.API.V2Features = map[string]bool{}
		}
		for _, entry := range strings.Split(features, ",") {
			entry = strings.TrimSpace(entry)
			if entry == "" {
				continue
			}
			name, value, hasValue := strings.Cut(entry, "=")
			enabled := true
			if hasValue {
				enabled = strings.EqualFold(value, "true") || value == "1"
			}
			c.API.V2Features[name] = enabled
		}
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.API.V1BaseURL == "" {
		return fmt.Errorf("v1 base URL is required")
	}
	if _, err := url.ParseRequestURI(c.API.V1BaseURL); err != nil {
		return fmt.Errorf("invalid v1 base URL: %w", err)
	}
	// The v2 URL is only needed once anything routes to v2
	if c.API.V2Enabled || anyEnabled(c.API.V2Features) {
		if c.API.V2BaseURL == "" {
			return fmt.Errorf("v2 base URL is required when v2 routing is enabled")
		}
		if _, err := url.ParseRequestURI(c.API.V2BaseURL); err != nil {
			return fmt.Errorf("invalid v2 base URL: %w", err)
		}
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("HTTP timeout must be positive")
	}
	if c.StateDir == "" {
		return fmt.Errorf("state directory is required")
	}
	return nil
}

func anyEnabled(features map[string]bool) bool {
	for _, enabled := range features {
		if enabled {
			return true
		}
	}
	return false
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.EqualFold(value, "true") || value == "1"
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default.
// Bare integers are treated as seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}
