// Package config loads server configuration from YAML with environment
// overrides. Missing file means defaults; invalid YAML is an error.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	RequestTimeout int      `yaml:"request_timeout_seconds"`
}

// ProviderConfig selects and configures the completion backend.
type ProviderConfig struct {
	Name        string  `yaml:"name"` // anthropic | openai | bedrock
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key"`
	Endpoint    string  `yaml:"endpoint"`
	Region      string  `yaml:"region"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// AuthConfig configures bearer token verification.
type AuthConfig struct {
	BaseURL          string   `yaml:"base_url"`
	APIKey           string   `yaml:"api_key"`
	PrivilegedEmails []string `yaml:"privileged_emails"`
}

// QuotaConfig configures the usage ledger.
type QuotaConfig struct {
	Ceiling     int    `yaml:"ceiling"`
	Store       string `yaml:"store"` // postgres | sqlite | memory
	DatabaseURL string `yaml:"database_url"`
	SQLitePath  string `yaml:"sqlite_path"`
}

// Config is the full server configuration.
type Config struct {
	Server     ServerConfig   `yaml:"server"`
	Provider   ProviderConfig `yaml:"provider"`
	Auth       AuthConfig     `yaml:"auth"`
	Quota      QuotaConfig    `yaml:"quota"`
	Moderation struct {
		PatternsPath string `yaml:"patterns_path"`
	} `yaml:"moderation"`
	Audit struct {
		Path string `yaml:"path"`
	} `yaml:"audit"`
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
			RequestTimeout: 90,
		},
		Provider: ProviderConfig{
			Name:        "anthropic",
			Model:       "claude-sonnet-4-20250514",
			MaxTokens:   10000,
			Temperature: 0.3,
		},
		Quota: QuotaConfig{
			Ceiling:    10000,
			Store:      "sqlite",
			SQLitePath: "data/mindrender.db",
		},
		LogLevel: "info",
	}
	cfg.Audit.Path = "data/generations.jsonl"
	return cfg
}

// Load reads configuration from path. Empty path falls back to
// ~/.mindrender/config.yaml. A missing file yields defaults. Environment
// overrides are applied last in both cases.
func Load(path string) (*Config, error) {
	if path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, ".mindrender", "config.yaml")
		}
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overlays MINDRENDER_* environment variables. Secrets usually
// arrive this way rather than through the YAML file.
func (c *Config) applyEnv() {
	setStr := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(dst *int, key string) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setStr(&c.Server.Addr, "MINDRENDER_ADDR")
	if v := os.Getenv("MINDRENDER_ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}
	setStr(&c.Provider.Name, "MINDRENDER_PROVIDER")
	setStr(&c.Provider.Model, "MINDRENDER_MODEL")
	setStr(&c.Provider.APIKey, "MINDRENDER_API_KEY")
	setStr(&c.Provider.Endpoint, "MINDRENDER_ENDPOINT")
	setStr(&c.Provider.Region, "AWS_REGION")
	setStr(&c.Auth.BaseURL, "MINDRENDER_AUTH_URL")
	setStr(&c.Auth.APIKey, "MINDRENDER_AUTH_KEY")
	if v := os.Getenv("MINDRENDER_PRIVILEGED_EMAILS"); v != "" {
		c.Auth.PrivilegedEmails = splitList(v)
	}
	setInt(&c.Quota.Ceiling, "MINDRENDER_QUOTA_CEILING")
	setStr(&c.Quota.Store, "MINDRENDER_QUOTA_STORE")
	setStr(&c.Quota.DatabaseURL, "DATABASE_URL")
	setStr(&c.Quota.SQLitePath, "MINDRENDER_SQLITE_PATH")
	setStr(&c.Moderation.PatternsPath, "MINDRENDER_PATTERNS")
	setStr(&c.Audit.Path, "MINDRENDER_AUDIT_LOG")
	setStr(&c.LogLevel, "MINDRENDER_LOG_LEVEL")
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks for configuration mistakes that would only surface at
// request time.
func (c *Config) Validate() error {
	switch c.Provider.Name {
	case "anthropic", "openai":
		if c.Provider.APIKey == "" {
			return fmt.Errorf("provider %q requires an api_key", c.Provider.Name)
		}
	case "bedrock":
		if c.Provider.Region == "" {
			return fmt.Errorf("provider bedrock requires a region")
		}
	default:
		return fmt.Errorf("unknown provider %q", c.Provider.Name)
	}
	switch c.Quota.Store {
	case "postgres":
		if c.Quota.DatabaseURL == "" {
			return fmt.Errorf("quota store postgres requires database_url")
		}
	case "sqlite", "memory":
	default:
		return fmt.Errorf("unknown quota store %q", c.Quota.Store)
	}
	return nil
}

// DefaultYAML returns a commented config template for init.
func DefaultYAML() string {
	return `# mindrender server configuration

server:
  addr: ":8080"
  # Origins allowed to call the API and embed the simulation frame.
  allowed_origins: ["*"]
  request_timeout_seconds: 90

provider:
  # anthropic | openai | bedrock
  name: anthropic
  model: claude-sonnet-4-20250514
  # api_key usually comes from MINDRENDER_API_KEY instead.
  api_key: ""
  max_tokens: 10000
  temperature: 0.3

auth:
  # Leave base_url empty to run without authentication (development only).
  base_url: ""
  api_key: ""
  privileged_emails: []

quota:
  ceiling: 10000
  # postgres | sqlite | memory
  store: sqlite
  sqlite_path: data/mindrender.db

moderation:
  # Optional YAML pattern overrides; built-in patterns apply when empty.
  patterns_path: ""

audit:
  path: data/generations.jsonl

log_level: info
`
}
