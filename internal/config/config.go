// Package config loads traintalk configuration from YAML with environment
// overrides. Missing files are not an error; defaults carry the agent.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	LLM     LLMConfig     `yaml:"llm"`
	Catalog CatalogConfig `yaml:"catalog"`
	Session SessionConfig `yaml:"session"`
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the understanding oracle.
type LLMConfig struct {
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	// Timeout is a Go duration string, e.g. "45s".
	Timeout string `yaml:"timeout"`
}

// CatalogConfig points at the ticketing backend.
type CatalogConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

// SessionConfig controls per-conversation behavior.
type SessionConfig struct {
	// DefaultUserID is attributed to bookings when the user never names one.
	DefaultUserID string `yaml:"default_user_id"`
	// MemoryWindow is the number of user/agent exchange pairs retained.
	MemoryWindow int `yaml:"memory_window"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `yaml:"level"`
	// File receives logs; empty means stderr.
	File string `yaml:"file"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: "deepseek",
			Model:    "deepseek-chat",
			Timeout:  "60s",
		},
		Catalog: CatalogConfig{
			BaseURL: "http://localhost:8080",
			Timeout: "10s",
		},
		Session: SessionConfig{
			DefaultUserID: "user_001",
			MemoryWindow:  10,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the config file at path, falling back to defaults when the
// file does not exist. Environment variables override file values.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// DefaultPath is ./traintalk.yaml, or $TRAINTALK_CONFIG when set.
func DefaultPath() string {
	if p := os.Getenv("TRAINTALK_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(".", "traintalk.yaml")
}

func (c *Config) applyEnv() {
	if key := os.Getenv("DEEPSEEK_API_KEY"); key != "" && c.LLM.APIKey == "" {
		c.LLM.APIKey = key
		if c.LLM.Provider == "" {
			c.LLM.Provider = "deepseek"
		}
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && c.LLM.APIKey == "" {
		c.LLM.APIKey = key
		if c.LLM.Provider == "" {
			c.LLM.Provider = "openai"
		}
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" && c.LLM.APIKey == "" {
		c.LLM.APIKey = key
		if c.LLM.Provider == "" {
			c.LLM.Provider = "gemini"
		}
	}
	if url := os.Getenv("TICKETD_URL"); url != "" {
		c.Catalog.BaseURL = url
	}
	if model := os.Getenv("TRAINTALK_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if level := os.Getenv("TRAINTALK_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

func (c *Config) applyDefaults() {
	if c.Session.MemoryWindow <= 0 {
		c.Session.MemoryWindow = 10
	}
	if c.Session.DefaultUserID == "" {
		c.Session.DefaultUserID = "user_001"
	}
	if c.Catalog.BaseURL == "" {
		c.Catalog.BaseURL = "http://localhost:8080"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// LLMTimeout parses the LLM timeout string, defaulting to 60s.
func (c *Config) LLMTimeout() time.Duration {
	return parseDuration(c.LLM.Timeout, 60*time.Second)
}

// CatalogTimeout parses the catalog timeout string, defaulting to 10s.
func (c *Config) CatalogTimeout() time.Duration {
	return parseDuration(c.Catalog.Timeout, 10*time.Second)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Save writes the configuration to path in YAML form.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}
