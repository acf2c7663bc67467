// Package config loads assistant configuration from a YAML file with
// environment-variable overrides for secrets.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ValidProviders lists the supported completion providers.
var ValidProviders = []string{"openai", "anthropic"}

// Config holds all assistant configuration.
type Config struct {
	// Model configuration
	Model ModelConfig `yaml:"model"`

	// Persona source files
	Persona PersonaConfig `yaml:"persona"`

	// Storage configuration
	Storage StorageConfig `yaml:"storage"`

	// Browsing configuration
	Browsing BrowsingConfig `yaml:"browsing"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// ModelConfig configures the completion provider.
type ModelConfig struct {
	Provider string `yaml:"provider"` // openai, anthropic
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
}

// PersonaConfig locates the persona source files.
type PersonaConfig struct {
	CharacterPath string `yaml:"character_path"`
	OwnerPath     string `yaml:"owner_path"`
}

// StorageConfig selects the audit/memory store backend.
type StorageConfig struct {
	// Backend is "memory" or "sqlite".
	Backend string `yaml:"backend"`
	// DatabasePath is the SQLite file location when Backend is "sqlite".
	DatabasePath string `yaml:"database_path"`
}

// BrowsingConfig configures the headless browsing driver.
type BrowsingConfig struct {
	Headless      bool   `yaml:"headless"`
	BinPath       string `yaml:"bin_path"`
	ScreenshotDir string `yaml:"screenshot_dir"`
	// MaxSteps caps each browsing run. Zero keeps the worker default.
	MaxSteps int `yaml:"max_steps"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			Provider: "openai",
		},
		Persona: PersonaConfig{
			CharacterPath: "persona/character.md",
			OwnerPath:     "persona/owner.md",
		},
		Storage: StorageConfig{
			Backend:      "sqlite",
			DatabasePath: "data/helmsman.db",
		},
		Browsing: BrowsingConfig{
			Headless:      true,
			ScreenshotDir: "screenshots",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the YAML file at path over the defaults and applies environment
// overrides. A missing file is not an error; defaults plus environment apply.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// applyEnvOverrides lets environment variables win over file values, so
// secrets never need to live in the YAML.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && c.Model.Provider == "openai" {
		c.Model.APIKey = key
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" && c.Model.Provider == "anthropic" {
		c.Model.APIKey = key
	}
	if v := os.Getenv("HELMSMAN_DB_PATH"); v != "" {
		c.Storage.DatabasePath = v
	}
	if v := os.Getenv("HELMSMAN_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks the configuration for values the assistant cannot start
// without.
func (c *Config) Validate() error {
	validProvider := false
	for _, p := range ValidProviders {
		if c.Model.Provider == p {
			validProvider = true
			break
		}
	}
	if !validProvider {
		return fmt.Errorf("invalid model provider: %s (valid: %v)", c.Model.Provider, ValidProviders)
	}

	if c.Model.APIKey == "" {
		return fmt.Errorf("model API key not configured (set OPENAI_API_KEY or ANTHROPIC_API_KEY)")
	}

	switch c.Storage.Backend {
	case "memory":
	case "sqlite":
		if c.Storage.DatabasePath == "" {
			return fmt.Errorf("storage backend sqlite requires database_path")
		}
	default:
		return fmt.Errorf("invalid storage backend: %s (valid: [memory sqlite])", c.Storage.Backend)
	}

	return nil
}
