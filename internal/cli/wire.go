package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/mindrender/mindrender/internal/audit"
	"github.com/mindrender/mindrender/internal/config"
	"github.com/mindrender/mindrender/internal/identity"
	"github.com/mindrender/mindrender/internal/moderation"
	"github.com/mindrender/mindrender/internal/orchestrator"
	"github.com/mindrender/mindrender/internal/provider"
	"github.com/mindrender/mindrender/internal/quota"
	"github.com/mindrender/mindrender/internal/server"
)

func loadValidated() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func buildProvider(ctx context.Context, cfg *config.Config) (provider.Provider, error) {
	switch provider.Name(cfg.Provider.Name) {
	case provider.NameAnthropic:
		p := provider.NewAnthropic(cfg.Provider.APIKey, cfg.Provider.Model)
		if cfg.Provider.Endpoint != "" {
			p.Endpoint = cfg.Provider.Endpoint
		}
		return p, nil
	case provider.NameOpenAI:
		endpoint := cfg.Provider.Endpoint
		if endpoint == "" {
			return nil, fmt.Errorf("openai provider requires an endpoint")
		}
		return provider.NewOpenAI(endpoint, cfg.Provider.APIKey, cfg.Provider.Model), nil
	case provider.NameBedrock:
		return provider.NewBedrock(ctx, provider.BedrockConfig{
			Region: cfg.Provider.Region,
			Model:  cfg.Provider.Model,
		})
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider.Name)
	}
}

func buildStore(cfg *config.Config) (quota.Store, func() error, error) {
	switch cfg.Quota.Store {
	case "postgres":
		s, err := quota.NewPostgresStore(cfg.Quota.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case "sqlite":
		s, err := quota.NewSQLiteStore(cfg.Quota.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case "memory":
		return quota.NewMemoryStore(), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown quota store %q", cfg.Quota.Store)
	}
}

// buildDeps wires the full pipeline from config. The returned cleanup
// closes the store and audit log.
func buildDeps(ctx context.Context, cfg *config.Config, logger *slog.Logger) (server.Deps, func(), error) {
	gate, err := moderation.Load(cfg.Moderation.PatternsPath)
	if err != nil {
		return server.Deps{}, nil, fmt.Errorf("load moderation patterns: %w", err)
	}

	prov, err := buildProvider(ctx, cfg)
	if err != nil {
		return server.Deps{}, nil, err
	}
	orch := orchestrator.New(prov)
	if cfg.Provider.MaxTokens > 0 {
		orch.MaxTokens = cfg.Provider.MaxTokens
	}
	if cfg.Provider.Temperature > 0 {
		orch.Temperature = cfg.Provider.Temperature
	}

	store, closeStore, err := buildStore(cfg)
	if err != nil {
		return server.Deps{}, nil, err
	}

	var auth identity.Authenticator
	if cfg.Auth.BaseURL != "" {
		auth = identity.NewGoTrueAuthenticator(cfg.Auth.BaseURL, cfg.Auth.APIKey)
	}

	var auditLog *audit.Log
	if cfg.Audit.Path != "" {
		auditLog, err = audit.Open(cfg.Audit.Path)
		if err != nil {
			closeStore()
			return server.Deps{}, nil, fmt.Errorf("open audit log: %w", err)
		}
	}

	cleanup := func() {
		if auditLog != nil {
			auditLog.Close()
		}
		closeStore()
	}
	return server.Deps{
		Gate:   gate,
		Orch:   orch,
		Ledger: quota.NewLedger(store, cfg.Quota.Ceiling),
		Auth:   auth,
		Roles:  identity.NewRoles(cfg.Auth.PrivilegedEmails),
		Audit:  auditLog,
		Logger: logger,
	}, cleanup, nil
}
