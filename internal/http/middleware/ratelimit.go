package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/httprate"
	"github.com/motorserv/srf-api/internal/auth"
	"github.com/motorserv/srf-api/internal/config"
	"go.uber.org/zap"
)

// RateLimiter applies per-IP limits before authentication and per-user
// limits after it.
type RateLimiter struct {
	cfg            *config.RateLimitConfig
	logger         *zap.Logger
	ipLimiter      func(http.Handler) http.Handler
	userLimiter    func(http.Handler) http.Handler
	whitelistIPs   map[string]bool
	whitelistPaths []string
}

// NewRateLimiter creates a new rate limiter with the given configuration
func NewRateLimiter(cfg *config.RateLimitConfig, logger *zap.Logger) *RateLimiter {
	rl := &RateLimiter{
		cfg:          cfg,
		logger:       logger,
		whitelistIPs: make(map[string]bool, len(cfg.WhitelistIPs)),
	}
	for _, ip := range cfg.WhitelistIPs {
		rl.whitelistIPs[ip] = true
	}
	rl.whitelistPaths = append(rl.whitelistPaths, cfg.WhitelistPaths...)

	rl.ipLimiter = httprate.Limit(
		cfg.RequestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return "ip:" + requestIP(r), nil
		}),
		httprate.WithLimitHandler(rl.rateLimitExceeded),
	)
	rl.userLimiter = httprate.Limit(
		cfg.RequestsPerMinuteAuth,
		time.Minute,
		httprate.WithKeyFuncs(keyByUserOrIP),
		httprate.WithLimitHandler(rl.rateLimitExceeded),
	)

	logger.Info("Rate limiter initialized",
		zap.Bool("enabled", cfg.Enabled),
		zap.Int("requests_per_minute", cfg.RequestsPerMinute),
		zap.Int("requests_per_minute_auth", cfg.RequestsPerMinuteAuth),
		zap.Strings("whitelist_ips", cfg.WhitelistIPs),
		zap.Strings("whitelist_paths", cfg.WhitelistPaths),
	)
	return rl
}

// Limit applies the per-user limit to authenticated requests and the per-IP
// limit otherwise. Mount it after authentication.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	if !rl.cfg.Enabled {
		return next
	}
	byUser := rl.userLimiter(next)
	byIP := rl.ipLimiter(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case rl.exempt(r):
			next.ServeHTTP(w, r)
		case isAuthenticated(r):
			byUser.ServeHTTP(w, r)
		default:
			byIP.ServeHTTP(w, r)
		}
	})
}

// LimitByIP applies the per-IP limit. It runs before authentication.
func (rl *RateLimiter) LimitByIP(next http.Handler) http.Handler {
	if !rl.cfg.Enabled {
		return next
	}
	byIP := rl.ipLimiter(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.exempt(r) {
			next.ServeHTTP(w, r)
			return
		}
		byIP.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) exempt(r *http.Request) bool {
	if rl.whitelistIPs[requestIP(r)] {
		return true
	}
	for _, wp := range rl.whitelistPaths {
		if wp == r.URL.Path {
			return true
		}
		if prefix, ok := strings.CutSuffix(wp, "/*"); ok && strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return false
}

func isAuthenticated(r *http.Request) bool {
	_, ok := auth.FromContext(r.Context())
	return ok
}

func keyByUserOrIP(r *http.Request) (string, error) {
	if userCtx, ok := auth.FromContext(r.Context()); ok && userCtx != nil {
		return "user:" + userCtx.Username, nil
	}
	return "ip:" + requestIP(r), nil
}

// requestIP prefers the first X-Forwarded-For hop, then X-Real-IP.
func requestIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func (rl *RateLimiter) rateLimitExceeded(w http.ResponseWriter, r *http.Request) {
	username := ""
	if userCtx, ok := auth.FromContext(r.Context()); ok {
		username = userCtx.Username
	}
	rl.logger.Warn("rate limit exceeded",
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
		zap.String("client_ip", requestIP(r)),
		zap.String("user", username),
	)

	w.Header().Set("Content-Type", "application/problem+json")
	w.Header().Set("Retry-After", "60")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(`{"type":"rate_limited","code":"RateLimited","title":"Too Many Requests","status":429,"detail":"Too many requests. Please try again later."}`))
}
