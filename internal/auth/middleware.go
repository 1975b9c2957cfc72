package auth

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/motorserv/srf-api/internal/config"
	"github.com/motorserv/srf-api/internal/domain"
	"go.uber.org/zap"
)

// UserProvisioner records identities so created_by/updated_by references resolve.
type UserProvisioner interface {
	Upsert(ctx context.Context, user *domain.User) error
}

// provisionInterval limits how often one user's login time is refreshed.
const provisionInterval = 15 * time.Minute

// Middleware handles authentication for HTTP requests
type Middleware struct {
	jwtValidator *JWTValidator
	apiKey       string
	apiKeyUser   string
	users        UserProvisioner
	logger       *zap.Logger

	mu          sync.Mutex
	provisioned map[string]time.Time
}

// NewMiddleware creates a new authentication middleware. users may be nil.
func NewMiddleware(cfg *config.Config, users UserProvisioner, logger *zap.Logger) *Middleware {
	apiKeyUser := cfg.Auth.APIKeyUser
	if apiKeyUser == "" {
		apiKeyUser = "system"
	}
	return &Middleware{
		jwtValidator: NewJWTValidator(&cfg.Auth),
		apiKey:       cfg.Auth.APIKey,
		apiKeyUser:   apiKeyUser,
		users:        users,
		logger:       logger,
		provisioned:  make(map[string]time.Time),
	}
}

// Authenticate is the main authentication middleware
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Try API key first
		if apiKey := r.Header.Get("x-api-key"); apiKey != "" {
			if !m.validateAPIKey(apiKey) {
				m.logger.Warn("invalid API key attempt",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			userCtx := &UserContext{
				Username:    m.apiKeyUser,
				DisplayName: "System",
				Role:        domain.RoleAdmin,
				AuthType:    AuthTypeAPIKey,
			}
			m.authenticated(w, r, next, userCtx, start)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Unauthorized: missing authorization header", http.StatusUnauthorized)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			http.Error(w, "Unauthorized: invalid authorization header format", http.StatusUnauthorized)
			return
		}

		userCtx, err := m.jwtValidator.ValidateToken(parts[1])
		if err != nil {
			m.logger.Warn("token validation failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Error(err),
			)
			http.Error(w, "Unauthorized: "+err.Error(), http.StatusUnauthorized)
			return
		}

		m.authenticated(w, r, next, userCtx, start)
	})
}

func (m *Middleware) authenticated(w http.ResponseWriter, r *http.Request, next http.Handler, userCtx *UserContext, start time.Time) {
	m.provision(r.Context(), userCtx)

	m.logger.Debug("request authenticated",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("auth_type", userCtx.AuthType),
		zap.String("user", userCtx.Username),
		zap.String("role", string(userCtx.Role)),
		zap.Duration("auth_duration", time.Since(start)),
	)

	next.ServeHTTP(w, r.WithContext(WithUserContext(r.Context(), userCtx)))
}

// provision upserts the user row at most once per provisionInterval. Failures
// are logged and do not block the request.
func (m *Middleware) provision(ctx context.Context, userCtx *UserContext) {
	if m.users == nil {
		return
	}

	m.mu.Lock()
	last, seen := m.provisioned[userCtx.Username]
	if seen && time.Since(last) < provisionInterval {
		m.mu.Unlock()
		return
	}
	m.provisioned[userCtx.Username] = time.Now()
	m.mu.Unlock()

	now := time.Now().UTC()
	err := m.users.Upsert(ctx, &domain.User{
		Username:    userCtx.Username,
		DisplayName: userCtx.DisplayName,
		Role:        userCtx.Role,
		LastLoginAt: &now,
	})
	if err != nil {
		m.mu.Lock()
		delete(m.provisioned, userCtx.Username)
		m.mu.Unlock()
		m.logger.Warn("failed to provision user",
			zap.String("user", userCtx.Username),
			zap.Error(err),
		)
	}
}

// RequireRole middleware ensures user has one of the given roles
func (m *Middleware) RequireRole(roles ...domain.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userCtx, ok := FromContext(r.Context())
			if !ok {
				http.Error(w, "Forbidden: no user context", http.StatusForbidden)
				return
			}

			for _, role := range roles {
				if userCtx.HasRole(role) {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
		})
	}
}

// RequireAdmin middleware ensures user has the admin role or a valid API key
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return m.RequireRole(domain.RoleAdmin)(next)
}

func (m *Middleware) validateAPIKey(key string) bool {
	if m.apiKey == "" {
		return false
	}
	// Constant-time comparison to prevent timing attacks
	return subtle.ConstantTimeCompare([]byte(key), []byte(m.apiKey)) == 1
}
