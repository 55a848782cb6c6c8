// Package config loads remedy settings. REMEDY_* environment variables
// override .remedy/config.yaml, which overrides the built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	dirName  = ".remedy"
	fileName = "config.yaml"
)

// Config is the remedy configuration.
type Config struct {
	// DBPath is the SQLite database file. Empty means ~/.remedy/remedy.db.
	DBPath string `mapstructure:"db_path" yaml:"db_path,omitempty"`

	// Actor is the default caller when --as is not given.
	Actor string `mapstructure:"actor" yaml:"actor,omitempty"`

	// Users binds user ids to roles (reviewer, requester). Anyone else is a
	// viewer. Keys are folded to lower case.
	Users map[string]string `mapstructure:"users" yaml:"users,omitempty"`

	// PolicyFile optionally replaces the built-in permission table.
	PolicyFile string `mapstructure:"policy_file" yaml:"policy_file,omitempty"`

	Bulk BulkConfig `mapstructure:"bulk" yaml:"bulk"`
	Log  LogConfig  `mapstructure:"log" yaml:"log"`
}

// BulkConfig tunes the bulk operation coordinator.
type BulkConfig struct {
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format     string `mapstructure:"format" yaml:"format"` // text or json
	File       string `mapstructure:"file" yaml:"file,omitempty"`
	MaxSizeMB  int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age" yaml:"max_age"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Users: map[string]string{},
		Bulk:  BulkConfig{Concurrency: 4},
		Log: LogConfig{
			Level:      "warn",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

func newViper(dir string) *viper.Viper {
	v := viper.New()
	v.SetConfigName(strings.TrimSuffix(fileName, filepath.Ext(fileName)))
	v.SetConfigType("yaml")
	if dir != "" {
		v.AddConfigPath(filepath.Join(dir, dirName))
	}
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, dirName))
	}

	v.SetEnvPrefix("REMEDY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("db_path", d.DBPath)
	v.SetDefault("actor", d.Actor)
	v.SetDefault("policy_file", d.PolicyFile)
	v.SetDefault("bulk.concurrency", d.Bulk.Concurrency)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.max_size", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age", d.Log.MaxAgeDays)
	v.SetDefault("log.compress", d.Log.Compress)
	return v
}

// Load reads configuration for the project rooted at dir, falling back to
// ~/.remedy/config.yaml. A missing file is not an error.
func Load(dir string) (*Config, error) {
	v := newViper(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.normalise()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to dir/.remedy/config.yaml.
func Save(dir string, cfg *Config) error {
	remedyDir := filepath.Join(dir, dirName)
	if err := os.MkdirAll(remedyDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s dir: %w", dirName, err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(remedyDir, fileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Path returns where Save writes for dir.
func Path(dir string) string {
	return filepath.Join(dir, dirName, fileName)
}

// Validate rejects settings that cannot work.
func (c *Config) Validate() error {
	for user, role := range c.Users {
		switch role {
		case "reviewer", "requester", "viewer":
		default:
			return fmt.Errorf("user %s has unknown role %q (must be reviewer, requester or viewer)", user, role)
		}
	}
	if c.Bulk.Concurrency < 1 {
		return fmt.Errorf("bulk.concurrency must be at least 1 (got %d)", c.Bulk.Concurrency)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json (got %q)", c.Log.Format)
	}
	return nil
}

func (c *Config) normalise() {
	users := make(map[string]string, len(c.Users))
	for user, role := range c.Users {
		users[strings.ToLower(strings.TrimSpace(user))] = strings.ToLower(strings.TrimSpace(role))
	}
	c.Users = users
	c.Actor = strings.ToLower(strings.TrimSpace(c.Actor))
	c.Log.Format = strings.ToLower(c.Log.Format)
}
