package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/motorserv/srf-api/internal/secrets"
	"go.uber.org/zap"
)

// secretBindings lists the Key Vault secrets that override cfg, each with an
// environment variable that wins when set.
func secretBindings(cfg *Config) []secrets.Binding {
	return []secrets.Binding{
		{Secret: "POSTGRES-MAIN-HOST", Env: "DATABASE_HOST", Target: &cfg.Database.Host},
		{Secret: "POSTGRES-MAIN-USER", Env: "DATABASE_USER", Target: &cfg.Database.User},
		{Secret: "POSTGRES-MAIN-PASSWORD", Env: "DATABASE_PASSWORD", Target: &cfg.Database.Password},
		{Secret: "srf-jwt-secret", Env: "JWT_SECRET", Target: &cfg.Auth.JWTSecret},
		{Secret: "admin-api-key", Env: "ADMIN_API_KEY", Target: &cfg.Auth.APIKey},
		{Secret: "storage-connection-string", Env: "STORAGE_CLOUDCONNECTIONSTRING", Target: &cfg.Storage.CloudConnectionString},
	}
}

// warehouseBindings are vault-only; warehouse credentials never come from the
// environment.
func warehouseBindings(cfg *Config) []secrets.Binding {
	return []secrets.Binding{
		{Secret: "WAREHOUSE-URL", Target: &cfg.DataWarehouse.URL, Required: true},
		{Secret: "WAREHOUSE-USERNAME", Target: &cfg.DataWarehouse.User, Required: true},
		{Secret: "WAREHOUSE-PASSWORD", Target: &cfg.DataWarehouse.Password, Required: true},
	}
}

// LoadWithSecrets loads configuration and, when USE_AZURE_KEY_VAULT=true in
// staging or production, replaces database, auth and storage secrets with Key
// Vault values. Warehouse credentials are read from the vault in any
// environment once the warehouse is enabled and a vault name is configured.
func LoadWithSecrets(ctx context.Context, logger *zap.Logger) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	if cfg.DataWarehouse.Enabled && cfg.Secrets.KeyVaultName != "" {
		if err := resolveFromVault(ctx, cfg, warehouseBindings(cfg), logger); err != nil {
			// the warehouse is optional; the client stays disabled without credentials
			logger.Warn("data warehouse credentials unavailable", zap.Error(err))
		}
	}

	if !strings.EqualFold(os.Getenv("USE_AZURE_KEY_VAULT"), "true") {
		logger.Info("key vault disabled, secrets come from config and environment",
			zap.String("environment", cfg.App.Environment),
		)
		return cfg, nil
	}
	if !cfg.App.IsDeployed() {
		logger.Warn("USE_AZURE_KEY_VAULT ignored outside staging and production",
			zap.String("environment", cfg.App.Environment),
		)
		return cfg, nil
	}
	if cfg.Secrets.KeyVaultName == "" {
		return nil, fmt.Errorf("AZURE_KEY_VAULT_NAME is required when USE_AZURE_KEY_VAULT=true")
	}

	if err := resolveFromVault(ctx, cfg, secretBindings(cfg), logger); err != nil {
		return nil, err
	}

	// per-environment values that are not stored in the vault
	if name := os.Getenv("DEFAULT_DATABASE"); name != "" {
		cfg.Database.Name = name
	}
	if mode := os.Getenv("DATABASE_SSLMODE"); mode != "" {
		cfg.Database.SSLMode = mode
	}

	logger.Info("secrets loaded from key vault",
		zap.String("key_vault_name", cfg.Secrets.KeyVaultName),
		zap.String("database", cfg.Database.Name),
	)
	return cfg, nil
}

func resolveFromVault(ctx context.Context, cfg *Config, bindings []secrets.Binding, logger *zap.Logger) error {
	provider, err := secrets.NewProvider(&secrets.ProviderConfig{
		Source:       secrets.SourceVault,
		VaultName:    cfg.Secrets.KeyVaultName,
		Environment:  cfg.App.Environment,
		CacheEnabled: cfg.Secrets.CacheEnabled,
		CacheTTL:     seconds(cfg.Secrets.CacheTTL),
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to open key vault %q: %w", cfg.Secrets.KeyVaultName, err)
	}
	return provider.Resolve(ctx, bindings)
}
