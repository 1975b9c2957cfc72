package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/motorserv/srf-api/internal/auth"
	"github.com/motorserv/srf-api/internal/config"
	"github.com/motorserv/srf-api/internal/domain"
	"github.com/motorserv/srf-api/internal/http/middleware"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func okHandler(calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.WriteHeader(http.StatusOK)
	})
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{Enabled: false, RequestsPerMinute: 1}, zap.NewNop())
	calls := 0
	h := rl.LimitByIP(okHandler(&calls))

	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/warranty/pending", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		assert.Equal(t, http.StatusOK, serve(h, req).Code)
	}
	assert.Equal(t, 20, calls)
}

func TestRateLimiter_LimitByIP(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 2,
	}, zap.NewNop())
	calls := 0
	h := rl.LimitByIP(okHandler(&calls))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/warranty/pending", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		assert.Equal(t, http.StatusOK, serve(h, req).Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/warranty/pending", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	w := serve(h, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "RateLimited")

	// a different client has its own budget
	req = httptest.NewRequest(http.MethodGet, "/api/v1/warranty/pending", nil)
	req.RemoteAddr = "192.168.1.2:12345"
	assert.Equal(t, http.StatusOK, serve(h, req).Code)
	assert.Equal(t, 3, calls)
}

func TestRateLimiter_ForwardedFor(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 1,
	}, zap.NewNop())
	calls := 0
	h := rl.LimitByIP(okHandler(&calls))

	// same proxy, different clients
	for _, client := range []string{"203.0.113.5", "203.0.113.6"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		req.RemoteAddr = "10.0.0.1:443"
		req.Header.Set("X-Forwarded-For", client+", 10.0.0.1")
		assert.Equal(t, http.StatusOK, serve(h, req).Code)
	}
	assert.Equal(t, 2, calls)
}

func TestRateLimiter_Whitelists(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 1,
		WhitelistIPs:      []string{"127.0.0.1"},
		WhitelistPaths:    []string{"/health", "/swagger/*"},
	}, zap.NewNop())
	calls := 0
	h := rl.LimitByIP(okHandler(&calls))

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/warranty/pending", nil)
		req.RemoteAddr = "127.0.0.1:9999"
		assert.Equal(t, http.StatusOK, serve(h, req).Code)
	}
	for _, path := range []string{"/health", "/health", "/swagger/index.html", "/swagger/doc.json"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "192.168.1.9:1000"
		assert.Equal(t, http.StatusOK, serve(h, req).Code, path)
	}
	assert.Equal(t, 9, calls)
}

func TestRateLimiter_LimitKeysByUser(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{
		Enabled:               true,
		RequestsPerMinute:     100,
		RequestsPerMinuteAuth: 1,
	}, zap.NewNop())
	calls := 0
	h := rl.Limit(okHandler(&calls))

	request := func(username string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/warranty/pending", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		return req.WithContext(auth.WithUserContext(req.Context(), &auth.UserContext{Username: username, Role: domain.RoleUser}))
	}

	assert.Equal(t, http.StatusOK, serve(h, request("ravi")).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(h, request("ravi")).Code)
	// same address, different user
	assert.Equal(t, http.StatusOK, serve(h, request("meena")).Code)

	// unauthenticated requests fall back to the per-IP budget
	req := httptest.NewRequest(http.MethodGet, "/api/v1/warranty/pending", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	assert.Equal(t, http.StatusOK, serve(h, req).Code)
	assert.Equal(t, 3, calls)
}
