package config

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Quota.Ceiling != 10000 {
		t.Fatalf("ceiling = %d", cfg.Quota.Ceiling)
	}
	if cfg.Provider.Name != "anthropic" {
		t.Fatalf("provider = %q", cfg.Provider.Name)
	}
}

func TestLoadPartialOverridesKeepDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("quota:\n  ceiling: 500\n  store: memory\n"), 0644)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Quota.Ceiling != 500 || cfg.Quota.Store != "memory" {
		t.Fatalf("quota = %+v", cfg.Quota)
	}
	// Unspecified sections keep defaults.
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("server: [not a map"), 0644)
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MINDRENDER_ADDR", ":9999")
	t.Setenv("MINDRENDER_QUOTA_CEILING", "250")
	t.Setenv("MINDRENDER_PRIVILEGED_EMAILS", "a@example.com, b@example.com")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":9999" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Quota.Ceiling != 250 {
		t.Fatalf("ceiling = %d", cfg.Quota.Ceiling)
	}
	if len(cfg.Auth.PrivilegedEmails) != 2 || cfg.Auth.PrivilegedEmails[1] != "b@example.com" {
		t.Fatalf("privileged = %v", cfg.Auth.PrivilegedEmails)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for anthropic without api key")
	}
	cfg.Provider.APIKey = "sk-test"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	cfg.Provider.Name = "bedrock"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for bedrock without region")
	}
	cfg.Provider.Region = "us-east-1"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	cfg.Quota.Store = "postgres"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for postgres without database_url")
	}
}

func TestDefaultYAMLParses(t *testing.T) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(DefaultYAML()), &cfg); err != nil {
		t.Fatalf("template does not parse: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
}
