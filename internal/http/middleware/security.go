package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/motorserv/srf-api/internal/config"
)

// SecurityHeaders adds the configured browser security headers. API responses
// carry customer contact data and are never cached.
func SecurityHeaders(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	static := staticSecurityHeaders(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for name, value := range static {
				h.Set(name, value)
			}
			if strings.HasPrefix(r.URL.Path, "/api/") {
				h.Set("Cache-Control", "no-store")
				h.Set("Pragma", "no-cache")
			}
			h.Del("X-Powered-By")
			h.Del("Server")

			next.ServeHTTP(w, r)
		})
	}
}

func staticSecurityHeaders(cfg *config.SecurityConfig) map[string]string {
	headers := make(map[string]string)
	set := func(name, value string) {
		if value != "" {
			headers[name] = value
		}
	}

	if cfg.ContentTypeNosniff {
		headers["X-Content-Type-Options"] = "nosniff"
	}
	set("X-Frame-Options", cfg.FrameOptions)
	set("X-XSS-Protection", cfg.XSSProtection)
	set("Content-Security-Policy", cfg.ContentSecurityPolicy)
	set("Referrer-Policy", cfg.ReferrerPolicy)
	set("Permissions-Policy", cfg.PermissionsPolicy)

	if cfg.EnableHSTS {
		hsts := fmt.Sprintf("max-age=%d", cfg.HSTSMaxAge)
		if cfg.HSTSIncludeSubdomains {
			hsts += "; includeSubDomains"
		}
		if cfg.HSTSPreload {
			hsts += "; preload"
		}
		headers["Strict-Transport-Security"] = hsts
	}
	return headers
}
