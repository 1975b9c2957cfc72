package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full service configuration. Keys are camelCase in config.json
// and UPPER_SNAKE in the environment (dataWarehouse.enabled ->
// DATAWAREHOUSE_ENABLED).
type Config struct {
	App           AppConfig
	Database      DatabaseConfig
	DataWarehouse DataWarehouseConfig
	Auth          AuthConfig
	Storage       StorageConfig
	Jobs          JobsConfig
	Secrets       SecretsConfig
	Logging       LoggingConfig
	Server        ServerConfig
	CORS          CORSConfig
	Security      SecurityConfig
	RateLimit     RateLimitConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Port        int
}

// IsDeployed reports whether the service runs in staging or production.
func (a *AppConfig) IsDeployed() bool {
	return a.Environment == "staging" || a.Environment == "production"
}

type DatabaseConfig struct {
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // seconds
}

// DataWarehouseConfig points at the read-only ERP database used to look up
// customers missing from the local master. Credentials only come from Key Vault.
type DataWarehouseConfig struct {
	Enabled         bool
	CustomerTable   string
	URL             string // host:port/database
	User            string
	Password        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // seconds
	QueryTimeout    int // seconds
}

// AuthConfig configures HS256 bearer tokens and the integration API key.
type AuthConfig struct {
	JWTSecret     string
	Issuer        string
	LeewaySeconds int
	// APIKey authenticates integrations as APIKeyUser with the ADMIN role.
	APIKey     string
	APIKeyUser string
}

type JobsConfig struct {
	Enabled bool
	// cron expressions carry a seconds field
	LedgerSnapshotCron    string
	LedgerSnapshotTimeout int // seconds
	AuditRetentionCron    string
	// AuditRetentionDays of 0 keeps audit rows forever
	AuditRetentionDays int
}

type StorageConfig struct {
	Mode                  string // local, cloud or azure
	LocalBasePath         string
	CloudConnectionString string
	CloudContainer        string
	MaxUploadSizeMB       int64
}

type SecretsConfig struct {
	Source       string // environment, vault or auto
	KeyVaultName string
	CacheEnabled bool
	CacheTTL     int // seconds
}

type LoggingConfig struct {
	Level  string
	Format string
}

type ServerConfig struct {
	ReadTimeout    int
	WriteTimeout   int
	RequestTimeout int
	EnableSwagger  bool
}

type CORSConfig struct {
	// "*" allows any origin; an empty list allows any origin outside production
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// SecurityConfig holds response security headers. Empty strings disable a header.
type SecurityConfig struct {
	EnableHSTS            bool
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
	HSTSPreload           bool
	ContentSecurityPolicy string
	FrameOptions          string
	ContentTypeNosniff    bool
	XSSProtection         string
	ReferrerPolicy        string
	PermissionsPolicy     string
}

type RateLimitConfig struct {
	Enabled bool
	// per IP for anonymous callers, per user once authenticated
	RequestsPerMinute     int
	RequestsPerMinuteAuth int
	BurstSize             int
	WhitelistIPs          []string
	// entries ending in /* match by prefix
	WhitelistPaths []string
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

func (s *ServerConfig) ReadTimeoutDuration() time.Duration    { return seconds(s.ReadTimeout) }
func (s *ServerConfig) WriteTimeoutDuration() time.Duration   { return seconds(s.WriteTimeout) }
func (s *ServerConfig) RequestTimeoutDuration() time.Duration { return seconds(s.RequestTimeout) }

func (d *DatabaseConfig) ConnMaxLifetimeDuration() time.Duration      { return seconds(d.ConnMaxLifetime) }
func (d *DataWarehouseConfig) ConnMaxLifetimeDuration() time.Duration { return seconds(d.ConnMaxLifetime) }
func (d *DataWarehouseConfig) QueryTimeoutDuration() time.Duration    { return seconds(d.QueryTimeout) }

func (j *JobsConfig) LedgerSnapshotTimeoutDuration() time.Duration { return seconds(j.LedgerSnapshotTimeout) }

func (a *AuthConfig) LeewayDuration() time.Duration { return seconds(a.LeewaySeconds) }

// ConnectionString renders a libpq keyword/value DSN. Values are quoted so
// passwords may contain spaces and quotes.
func (d *DatabaseConfig) ConnectionString() string {
	pairs := []struct{ key, value string }{
		{"host", d.Host},
		{"port", fmt.Sprint(d.Port)},
		{"user", d.User},
		{"password", d.Password},
		{"dbname", d.Name},
		{"sslmode", d.SSLMode},
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, p.key+"="+quoteDSNValue(p.value))
	}
	return strings.Join(parts, " ")
}

func quoteDSNValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}

// Load reads .env, config.json (from . or ./config) and the environment.
// Secrets stay as configured; LoadWithSecrets also consults Key Vault.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// short aliases used by the deployment manifests
	aliases := []struct {
		env    string
		target *string
	}{
		{"JWT_SECRET", &cfg.Auth.JWTSecret},
		{"ADMIN_API_KEY", &cfg.Auth.APIKey},
		{"AZURE_KEY_VAULT_NAME", &cfg.Secrets.KeyVaultName},
	}
	for _, a := range aliases {
		if *a.target == "" {
			*a.target = v.GetString(a.env)
		}
	}

	return &cfg, nil
}

// Validate checks settings the service cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwtSecret (JWT_SECRET) is required"))
	} else if c.App.Environment == "production" && len(c.Auth.JWTSecret) < 32 {
		errs = append(errs, errors.New("auth.jwtSecret must be at least 32 bytes in production"))
	}
	switch c.Storage.Mode {
	case "local", "cloud", "azure":
	default:
		errs = append(errs, fmt.Errorf("storage.mode %q must be local, cloud or azure", c.Storage.Mode))
	}
	if c.App.Port <= 0 {
		errs = append(errs, fmt.Errorf("app.port %d is invalid", c.App.Port))
	}
	return errors.Join(errs...)
}
