// Package secrets resolves credentials from Azure Key Vault or the process
// environment.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

// Source selects where secrets are read from.
type Source string

const (
	SourceEnvironment Source = "environment"
	SourceVault       Source = "vault"
	// SourceAuto picks environment for development and vault elsewhere.
	SourceAuto Source = "auto"
)

// ResolveSource turns SourceAuto into a concrete source for environment.
func ResolveSource(src Source, environment string) Source {
	if src != SourceAuto && src != "" {
		return src
	}
	switch environment {
	case "", "development", "local", "test":
		return SourceEnvironment
	}
	return SourceVault
}

// Store fetches a named secret. *VaultClient implements it.
type Store interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// ErrSecretNotSet is returned when neither the store nor the environment
// holds a value.
var ErrSecretNotSet = errors.New("secret not set")

// Provider reads secrets from a Store, with environment variable overrides.
type Provider struct {
	source Source
	store  Store
	logger *zap.Logger
}

// ProviderConfig configures NewProvider.
type ProviderConfig struct {
	Source       Source
	VaultName    string
	Environment  string
	CacheEnabled bool
	CacheTTL     time.Duration
}

// NewProvider builds a provider for cfg.Source. Vault sources connect to
// Azure Key Vault immediately.
func NewProvider(cfg *ProviderConfig, logger *zap.Logger) (*Provider, error) {
	source := ResolveSource(cfg.Source, cfg.Environment)
	if source != SourceVault {
		return &Provider{source: source, logger: logger}, nil
	}

	client, err := NewVaultClient(&VaultConfig{
		VaultName:    cfg.VaultName,
		CacheEnabled: cfg.CacheEnabled,
		CacheTTL:     cfg.CacheTTL,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vault client: %w", err)
	}
	return NewProviderWithStore(client, logger), nil
}

// NewProviderWithStore returns a vault-backed provider over store.
func NewProviderWithStore(store Store, logger *zap.Logger) *Provider {
	return &Provider{source: SourceVault, store: store, logger: logger}
}

// Source reports the resolved source.
func (p *Provider) Source() Source { return p.source }

// IsVaultEnabled reports whether secrets come from a store.
func (p *Provider) IsVaultEnabled() bool { return p.source == SourceVault && p.store != nil }

// Get reads name from the store, or from the environment variable of the same
// name when the provider is environment-backed.
func (p *Provider) Get(ctx context.Context, name string) (string, error) {
	if !p.IsVaultEnabled() {
		if v := os.Getenv(name); v != "" {
			return v, nil
		}
		return "", fmt.Errorf("%w: %s", ErrSecretNotSet, name)
	}
	v, err := p.store.GetSecret(ctx, name)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", fmt.Errorf("%w: %s", ErrSecretNotSet, name)
	}
	return v, nil
}

// Binding maps a vault secret and its environment override onto a string.
type Binding struct {
	Secret string
	// Env wins over the vault when set. Empty means vault only.
	Env      string
	Target   *string
	Required bool
}

// Resolve fills every binding it can. Missing optional bindings keep their
// current value; missing required ones are reported together.
func (p *Provider) Resolve(ctx context.Context, bindings []Binding) error {
	var errs []error
	for _, b := range bindings {
		value, err := p.lookup(ctx, b)
		if err != nil {
			if b.Required {
				errs = append(errs, err)
			} else {
				p.logger.Debug("secret not resolved, keeping configured value",
					zap.String("secret_name", b.Secret),
					zap.Error(err),
				)
			}
			continue
		}
		*b.Target = value
	}
	return errors.Join(errs...)
}

func (p *Provider) lookup(ctx context.Context, b Binding) (string, error) {
	if b.Env != "" {
		if v := os.Getenv(b.Env); v != "" {
			return v, nil
		}
	}
	if p.IsVaultEnabled() {
		return p.Get(ctx, b.Secret)
	}
	return "", fmt.Errorf("%w: %s", ErrSecretNotSet, b.Secret)
}
