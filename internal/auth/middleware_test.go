package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/motorserv/srf-api/internal/auth"
	"github.com/motorserv/srf-api/internal/config"
	"github.com/motorserv/srf-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testAPIKey = "test-api-key-12345"

type recordingProvisioner struct {
	mu    sync.Mutex
	users []domain.User
	err   error
}

func (p *recordingProvisioner) Upsert(_ context.Context, user *domain.User) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users = append(p.users, *user)
	return p.err
}

func (p *recordingProvisioner) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.users)
}

func createTestMiddleware(users auth.UserProvisioner) *auth.Middleware {
	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret: testSecret,
			APIKey:    testAPIKey,
		},
	}
	return auth.NewMiddleware(cfg, users, zap.NewNop())
}

// captureHandler records the identity it was called with.
func captureHandler(called *bool, captured **auth.UserContext) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		*captured, _ = auth.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddleware_Authenticate_WithAPIKey(t *testing.T) {
	users := &recordingProvisioner{}
	m := createTestMiddleware(users)

	var called bool
	var userCtx *auth.UserContext
	h := m.Authenticate(captureHandler(&called, &userCtx))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/warranty/pending", nil)
	req.Header.Set("x-api-key", testAPIKey)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, userCtx)
	assert.Equal(t, "system", userCtx.Username)
	assert.Equal(t, auth.AuthTypeAPIKey, userCtx.AuthType)
	assert.True(t, userCtx.IsAdmin())
	assert.Equal(t, 1, users.count())
}

func TestMiddleware_Authenticate_WithInvalidAPIKey(t *testing.T) {
	m := createTestMiddleware(nil)

	var called bool
	var userCtx *auth.UserContext
	h := m.Authenticate(captureHandler(&called, &userCtx))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/warranty/pending", nil)
	req.Header.Set("x-api-key", "wrong-key")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddleware_Authenticate_APIKeyDisabled(t *testing.T) {
	m := auth.NewMiddleware(&config.Config{Auth: config.AuthConfig{JWTSecret: testSecret}}, nil, zap.NewNop())

	var called bool
	var userCtx *auth.UserContext
	h := m.Authenticate(captureHandler(&called, &userCtx))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/warranty/pending", nil)
	req.Header.Set("x-api-key", "anything")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddleware_Authenticate_WithBearerToken(t *testing.T) {
	users := &recordingProvisioner{}
	m := createTestMiddleware(users)
	token, err := newValidator("").IssueToken("ravi", domain.RoleUser, time.Hour)
	require.NoError(t, err)

	var called bool
	var userCtx *auth.UserContext
	h := m.Authenticate(captureHandler(&called, &userCtx))

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		req.Header.Set("Authorization", "bearer "+token)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
	}

	assert.True(t, called)
	require.NotNil(t, userCtx)
	assert.Equal(t, "ravi", userCtx.Username)
	assert.Equal(t, domain.RoleUser, userCtx.Role)
	// repeated requests inside the refresh window provision once
	assert.Equal(t, 1, users.count())
}

func TestMiddleware_Authenticate_ProvisionFailureDoesNotBlock(t *testing.T) {
	users := &recordingProvisioner{err: errors.New("database down")}
	m := createTestMiddleware(users)
	token, err := newValidator("").IssueToken("ravi", domain.RoleUser, time.Hour)
	require.NoError(t, err)

	var called bool
	var userCtx *auth.UserContext
	h := m.Authenticate(captureHandler(&called, &userCtx))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
	// failed upserts are retried on the next request
	assert.Equal(t, 2, users.count())
}

func TestMiddleware_Authenticate_Rejections(t *testing.T) {
	expired, err := newValidator("").IssueToken("ravi", domain.RoleUser, -time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "basic scheme", header: "Basic dXNlcjpwYXNz"},
		{name: "no token", header: "Bearer"},
		{name: "invalid token", header: "Bearer not.a.token"},
		{name: "expired token", header: "Bearer " + expired},
	}

	m := createTestMiddleware(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called bool
			var userCtx *auth.UserContext
			h := m.Authenticate(captureHandler(&called, &userCtx))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.False(t, called)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestMiddleware_RequireAdmin(t *testing.T) {
	m := createTestMiddleware(nil)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := m.RequireAdmin(ok)

	tests := []struct {
		name string
		user *auth.UserContext
		want int
	}{
		{name: "no identity", user: nil, want: http.StatusForbidden},
		{name: "user", user: &auth.UserContext{Username: "ravi", Role: domain.RoleUser}, want: http.StatusForbidden},
		{name: "admin", user: &auth.UserContext{Username: "meena", Role: domain.RoleAdmin}, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/api/v1/warranty/final-settlement", nil)
			if tt.user != nil {
				req = req.WithContext(auth.WithUserContext(req.Context(), tt.user))
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestMiddleware_RequireRole_AnyOf(t *testing.T) {
	m := createTestMiddleware(nil)
	h := m.RequireRole(domain.RoleUser, domain.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(auth.WithUserContext(req.Context(), &auth.UserContext{Username: "ravi", Role: domain.RoleUser}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
