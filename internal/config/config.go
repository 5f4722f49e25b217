// Package config provides configuration loading and validation for the CLI
// and the editor server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jonathan/cv-builder/internal/rendering"
)

// Config represents settings that can be loaded from a JSON or YAML file.
// All fields are optional; missing values use defaults or come from CLI flags.
type Config struct {
	// Server
	Port            int    `json:"port,omitempty" yaml:"port,omitempty"`
	DatabaseURL     string `json:"database_url,omitempty" yaml:"database_url,omitempty"`         // PostgreSQL connection URL
	StorageDir      string `json:"storage_dir,omitempty" yaml:"storage_dir,omitempty"`           // Directory for saved CVs without a database
	ExtractorURL    string `json:"extractor_url,omitempty" yaml:"extractor_url,omitempty"`       // Remote document parsing service
	ChromePath      string `json:"chrome_path,omitempty" yaml:"chrome_path,omitempty"`           // Browser used for PDF export
	DefaultTemplate string `json:"default_template,omitempty" yaml:"default_template,omitempty"` // a, b, c or d
	SessionTTL      string `json:"session_ttl,omitempty" yaml:"session_ttl,omitempty"`           // e.g. "2h"
	PrintTimeout    string `json:"print_timeout,omitempty" yaml:"print_timeout,omitempty"`       // e.g. "45s"

	// Behavior
	Verbose bool `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

// LoadConfig loads configuration from a file. Files ending in .yaml or .yml
// are parsed as YAML, everything else as JSON.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// FromEnv reads the server settings from the environment. Unset variables
// leave the field empty.
func FromEnv() Config {
	cfg := Config{
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		StorageDir:      os.Getenv("CV_STORAGE_DIR"),
		ExtractorURL:    os.Getenv("CV_EXTRACTOR_URL"),
		ChromePath:      os.Getenv("CHROME_PATH"),
		DefaultTemplate: os.Getenv("CV_DEFAULT_TEMPLATE"),
		SessionTTL:      os.Getenv("CV_SESSION_TTL"),
	}
	if port, err := strconv.Atoi(os.Getenv("PORT")); err == nil {
		cfg.Port = port
	}
	return cfg
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}
	if c.DefaultTemplate != "" {
		if _, err := rendering.ParseTemplateID(c.DefaultTemplate); err != nil {
			return fmt.Errorf("config error: 'default_template': %w", err)
		}
	}
	if _, err := c.SessionTTLDuration(); err != nil {
		return err
	}
	if _, err := c.PrintTimeoutDuration(); err != nil {
		return err
	}
	return nil
}

// SessionTTLDuration parses SessionTTL. Empty means zero (use the default).
func (c *Config) SessionTTLDuration() (time.Duration, error) {
	return parseDuration("session_ttl", c.SessionTTL)
}

// PrintTimeoutDuration parses PrintTimeout. Empty means zero (use the default).
func (c *Config) PrintTimeoutDuration() (time.Duration, error) {
	return parseDuration("print_timeout", c.PrintTimeout)
}

func parseDuration(key, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("config error: '%s' is not a duration: %q", key, value)
	}
	if d < 0 {
		return 0, fmt.Errorf("config error: '%s' must be non-negative", key)
	}
	return d, nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.StorageDir == "" {
		result.StorageDir = defaults.StorageDir
	}
	if result.ExtractorURL == "" {
		result.ExtractorURL = defaults.ExtractorURL
	}
	if result.ChromePath == "" {
		result.ChromePath = defaults.ChromePath
	}
	if result.DefaultTemplate == "" {
		result.DefaultTemplate = defaults.DefaultTemplate
	}
	if result.SessionTTL == "" {
		result.SessionTTL = defaults.SessionTTL
	}
	if result.PrintTimeout == "" {
		result.PrintTimeout = defaults.PrintTimeout
	}

	// Bools cannot distinguish unset from false, so CLI flags always win

	return result
}
