package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/motorserv/srf-api/internal/config"
	"github.com/motorserv/srf-api/internal/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSecurityHeaders(t *testing.T) {
	cfg := &config.SecurityConfig{
		EnableHSTS:            true,
		HSTSMaxAge:            31536000,
		HSTSIncludeSubdomains: true,
		ContentSecurityPolicy: "default-src 'none'",
		FrameOptions:          "DENY",
		ContentTypeNosniff:    true,
		ReferrerPolicy:        "no-referrer",
	}
	calls := 0
	h := middleware.SecurityHeaders(cfg)(okHandler(&calls))

	w := serve(h, httptest.NewRequest(http.MethodGet, "/api/v1/warranty/pending", nil))
	assert.Equal(t, "max-age=31536000; includeSubDomains", w.Header().Get("Strict-Transport-Security"))
	assert.Equal(t, "default-src 'none'", w.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-referrer", w.Header().Get("Referrer-Policy"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Empty(t, w.Header().Get("X-XSS-Protection"))

	// caching is only disabled under /api/
	w = serve(h, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Empty(t, w.Header().Get("Cache-Control"))
	assert.Equal(t, 2, calls)
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name        string
		origins     []string
		environment string
		origin      string
		wantAllowed bool
	}{
		{name: "explicit origin allowed", origins: []string{"https://srf.example.com"}, environment: "production", origin: "https://srf.example.com", wantAllowed: true},
		{name: "explicit origin denied", origins: []string{"https://srf.example.com"}, environment: "production", origin: "https://evil.example.com", wantAllowed: false},
		{name: "wildcard", origins: []string{"*"}, environment: "production", origin: "https://any.example.com", wantAllowed: true},
		{name: "empty list in development", environment: "development", origin: "http://localhost:5173", wantAllowed: true},
		{name: "empty list in production", environment: "production", origin: "http://localhost:5173", wantAllowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.CORSConfig{
				AllowedOrigins: tt.origins,
				AllowedMethods: []string{http.MethodGet, http.MethodPut},
				AllowedHeaders: []string{"Authorization", "Content-Type"},
			}
			calls := 0
			h := middleware.CORS(cfg, tt.environment, zap.NewNop())(okHandler(&calls))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/exports/ledger", nil)
			req.Header.Set("Origin", tt.origin)
			w := serve(h, req)

			if tt.wantAllowed {
				assert.Equal(t, tt.origin, w.Header().Get("Access-Control-Allow-Origin"))
				assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition")
			} else {
				assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	cfg := &config.CORSConfig{
		AllowedOrigins: []string{"https://srf.example.com"},
		AllowedMethods: []string{http.MethodGet, http.MethodPut},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}
	calls := 0
	h := middleware.CORS(cfg, "production", zap.NewNop())(okHandler(&calls))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/warranty/settlement", nil)
	req.Header.Set("Origin", "https://srf.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	w := serve(h, req)

	assert.Equal(t, "https://srf.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPut)
	assert.Equal(t, "300", w.Header().Get("Access-Control-Max-Age"))
	assert.Equal(t, 0, calls)
}

func TestLogging_AssignsRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	calls := 0
	h := middleware.Logging(zap.New(core))(okHandler(&calls))

	w := serve(h, httptest.NewRequest(http.MethodGet, "/api/v1/warranty/pending", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/warranty/pending", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w = serve(h, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))

	require.Equal(t, 2, logs.Len())
	fields := logs.All()[1].ContextMap()
	assert.Equal(t, "abc-123", fields["request_id"])
	assert.Equal(t, int64(http.StatusOK), fields["status_code"])
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	h := middleware.Recovery(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := serve(h, httptest.NewRequest(http.MethodGet, "/api/v1/warranty/pending", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	assert.Equal(t, 1, logs.FilterMessage("panic serving request").Len())
}

func TestTimeout(t *testing.T) {
	var deadline time.Time
	var hasDeadline bool
	h := middleware.Timeout(2*time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, hasDeadline = r.Context().Deadline()
	}))
	serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	require.True(t, hasDeadline)
	assert.WithinDuration(t, time.Now().Add(2*time.Second), deadline, time.Second)

	h = middleware.Timeout(0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasDeadline = r.Context().Deadline()
	}))
	serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, hasDeadline)
}
