package secrets

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"go.uber.org/zap"
)

const defaultCacheTTL = 5 * time.Minute

// VaultClient reads secrets from Azure Key Vault with an optional TTL cache.
type VaultClient struct {
	client *azsecrets.Client
	logger *zap.Logger
	cache  *ttlCache
}

// VaultConfig configures a VaultClient.
type VaultConfig struct {
	VaultName    string
	CacheEnabled bool
	CacheTTL     time.Duration
}

// NewVaultClient connects to https://<name>.vault.azure.net using
// DefaultAzureCredential (environment, managed identity or az CLI login).
func NewVaultClient(cfg *VaultConfig, logger *zap.Logger) (*VaultClient, error) {
	if cfg.VaultName == "" {
		return nil, fmt.Errorf("vault name is required")
	}

	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}

	vaultURL := fmt.Sprintf("https://%s.vault.azure.net/", cfg.VaultName)
	client, err := azsecrets.NewClient(vaultURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Key Vault client: %w", err)
	}

	v := &VaultClient{client: client, logger: logger}
	if cfg.CacheEnabled {
		ttl := cfg.CacheTTL
		if ttl <= 0 {
			ttl = defaultCacheTTL
		}
		v.cache = newTTLCache(ttl)
	}

	logger.Info("key vault client ready",
		zap.String("vault_url", vaultURL),
		zap.Bool("cache_enabled", cfg.CacheEnabled),
	)
	return v, nil
}

// GetSecret returns the latest version of the named secret.
func (v *VaultClient) GetSecret(ctx context.Context, name string) (string, error) {
	if value, ok := v.cache.get(name); ok {
		return value, nil
	}

	resp, err := v.client.GetSecret(ctx, name, "", nil)
	if err != nil {
		return "", fmt.Errorf("failed to get secret %q: %w", name, err)
	}
	if resp.Value == nil {
		return "", fmt.Errorf("secret %q has no value", name)
	}

	v.cache.put(name, *resp.Value)
	v.logger.Debug("secret fetched from key vault", zap.String("secret_name", name))
	return *resp.Value, nil
}

// ttlCache is a mutex-guarded map with per-entry expiry. A nil cache is a no-op.
type ttlCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

type cacheEntry struct {
	value     string
	expiresAt time.Time
}

func newTTLCache(ttl time.Duration) *ttlCache {
	return &ttlCache{ttl: ttl, now: time.Now, entries: make(map[string]cacheEntry)}
}

func (c *ttlCache) get(name string) (string, bool) {
	if c == nil {
		return "", false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[name]
	if !ok {
		return "", false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, name)
		return "", false
	}
	return e.value, true
}

func (c *ttlCache) put(name, value string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[name] = cacheEntry{value: value, expiresAt: c.now().Add(c.ttl)}
}
