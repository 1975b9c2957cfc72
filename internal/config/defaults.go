package config

import "github.com/spf13/viper"

var defaults = map[string]any{
	"app.name":        "SRF Service API",
	"app.environment": "development",
	"app.port":        8080,

	"database.host":            "localhost",
	"database.port":            5432,
	"database.name":            "srf",
	"database.user":            "srf_user",
	"database.password":        "srf_password",
	"database.sslMode":         "disable",
	"database.maxOpenConns":    25,
	"database.maxIdleConns":    5,
	"database.connMaxLifetime": 300,

	"dataWarehouse.enabled":         false,
	"dataWarehouse.customerTable":   "dbo.CustomerMaster",
	"dataWarehouse.maxOpenConns":    10,
	"dataWarehouse.maxIdleConns":    2,
	"dataWarehouse.connMaxLifetime": 300,
	"dataWarehouse.queryTimeout":    30,

	"secrets.source":       "auto",
	"secrets.cacheEnabled": true,
	"secrets.cacheTTL":     300,

	"auth.issuer":        "srf-identity",
	"auth.leewaySeconds": 30,
	"auth.apiKeyUser":    "system",

	"jobs.enabled":               false,
	"jobs.ledgerSnapshotCron":    "0 30 23 * * *",
	"jobs.ledgerSnapshotTimeout": 300,
	"jobs.auditRetentionCron":    "0 0 3 * * 0",
	"jobs.auditRetentionDays":    365,

	"storage.mode":            "local",
	"storage.localBasePath":   "./storage",
	"storage.cloudContainer":  "srf-ledgers",
	"storage.maxUploadSizeMB": 10,

	"logging.level":  "info",
	"logging.format": "console",

	"server.readTimeout":    30,
	"server.writeTimeout":   30,
	"server.requestTimeout": 60,
	"server.enableSwagger":  true,

	"cors.allowedOrigins":   []string{},
	"cors.allowedMethods":   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	"cors.allowedHeaders":   []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-ID"},
	"cors.exposedHeaders":   []string{"Location", "X-Request-ID"},
	"cors.allowCredentials": true,
	"cors.maxAge":           300,

	// HSTS only makes sense behind TLS; deployments switch it on
	"security.enableHSTS":            false,
	"security.hstsMaxAge":            31536000,
	"security.hstsIncludeSubdomains": true,
	"security.hstsPreload":           false,
	"security.contentSecurityPolicy": "default-src 'self'",
	"security.frameOptions":          "DENY",
	"security.contentTypeNosniff":    true,
	"security.xssProtection":         "1; mode=block",
	"security.referrerPolicy":        "strict-origin-when-cross-origin",
	"security.permissionsPolicy":     "geolocation=(), microphone=(), camera=()",

	"rateLimit.enabled":               true,
	"rateLimit.requestsPerMinute":     60,
	"rateLimit.requestsPerMinuteAuth": 120,
	"rateLimit.burstSize":             10,
	"rateLimit.whitelistIPs":          []string{"127.0.0.1", "::1"},
	"rateLimit.whitelistPaths":        []string{"/health", "/health/db", "/health/ready"},
}

func setDefaults(v *viper.Viper) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}
