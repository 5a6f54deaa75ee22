package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultSource = "heron-local"

// Config represents the configuration of a memsync run
type Config struct {
	// Source id recorded on the sync entry when none is given on the command line
	DefaultSource string `yaml:"default_source" json:"default_source"`

	Document DocumentConfig `yaml:"document" json:"document"`
	Storage  StorageConfig  `yaml:"storage" json:"storage"`
	Remote   RemoteConfig   `yaml:"remote" json:"remote"`
	Merge    MergeConfig    `yaml:"merge" json:"merge"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
}

// DocumentConfig controls documents created and entries appended by memsync
type DocumentConfig struct {
	SchemaVersion string `yaml:"schema_version" json:"schema_version"`
	ContentLimit  int    `yaml:"content_limit" json:"content_limit"`
}

// StorageConfig controls how the local document is persisted
type StorageConfig struct {
	BackupSuffix string `yaml:"backup_suffix" json:"backup_suffix"`
	Lock         bool   `yaml:"lock" json:"lock"`
}

// RemoteConfig controls fetching of the remote document
type RemoteConfig struct {
	Enabled   bool          `yaml:"enabled" json:"enabled"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent string        `yaml:"user_agent" json:"user_agent"`
	MaxBytes  int64         `yaml:"max_bytes" json:"max_bytes"`
}

// MergeConfig restricts which remote entries are merged, by source glob
type MergeConfig struct {
	IncludeSources []string `yaml:"include_sources" json:"include_sources"`
	ExcludeSources []string `yaml:"exclude_sources" json:"exclude_sources"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Verbosity controls console output: quiet, normal, verbose, debug
	Verbosity string `yaml:"verbosity" json:"verbosity"`

	// File enables the per-session log file under ~/.memsync/logs
	File bool `yaml:"file" json:"file"`
}

// DefaultConfig returns the configuration used when no file is given
func DefaultConfig() *Config {
	return &Config{
		DefaultSource: DefaultSource,
		Document: DocumentConfig{
			SchemaVersion: "20260213-0.1",
			ContentLimit:  200,
		},
		Storage: StorageConfig{
			BackupSuffix: ".backup",
			Lock:         true,
		},
		Remote: RemoteConfig{
			Enabled:   true,
			Timeout:   30 * time.Second,
			UserAgent: "memsync",
			MaxBytes:  16 << 20,
		},
		Logging: LoggingConfig{
			Verbosity: "normal",
			File:      true,
		},
	}
}

// LoadFile reads a YAML configuration file layered over DefaultConfig.
// An empty path returns the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs []error

	if c.DefaultSource == "" {
		errs = append(errs, fmt.Errorf("default_source is required"))
	}

	if c.Document.SchemaVersion == "" {
		errs = append(errs, fmt.Errorf("document.schema_version is required"))
	}

	if c.Document.ContentLimit <= 0 {
		errs = append(errs, fmt.Errorf("document.content_limit must be positive"))
	}

	if c.Storage.BackupSuffix == "" {
		errs = append(errs, fmt.Errorf("storage.backup_suffix is required"))
	}

	if c.Remote.Timeout < 0 {
		errs = append(errs, fmt.Errorf("remote.timeout cannot be negative"))
	}

	if c.Remote.MaxBytes < 0 {
		errs = append(errs, fmt.Errorf("remote.max_bytes cannot be negative"))
	}

	// Set default verbosity if not specified
	if c.Logging.Verbosity == "" {
		c.Logging.Verbosity = "normal"
	}

	validLevels := map[string]bool{
		"quiet":   true,
		"normal":  true,
		"verbose": true,
		"debug":   true,
	}
	if !validLevels[c.Logging.Verbosity] {
		errs = append(errs, fmt.Errorf("invalid logging verbosity: %s (must be 'quiet', 'normal', 'verbose', or 'debug')", c.Logging.Verbosity))
	}

	return errors.Join(errs...)
}
