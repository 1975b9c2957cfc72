package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/motorserv/srf-api/internal/service"
	"go.uber.org/zap"
)

// AuditConfig holds configuration for audit middleware
type AuditConfig struct {
	// SkipPaths contains path prefixes that are never audited
	SkipPaths []string
	// Timeout bounds the detached audit write
	Timeout time.Duration
}

// DefaultAuditConfig returns default audit configuration
func DefaultAuditConfig() *AuditConfig {
	return &AuditConfig{
		SkipPaths: []string{"/health", "/swagger"},
		Timeout:   5 * time.Second,
	}
}

// AuditMiddleware writes one audit row per successful mutating request.
type AuditMiddleware struct {
	auditService *service.AuditLogService
	config       *AuditConfig
	logger       *zap.Logger
}

// NewAuditMiddleware creates a new audit middleware
func NewAuditMiddleware(auditService *service.AuditLogService, config *AuditConfig, logger *zap.Logger) *AuditMiddleware {
	if config == nil {
		config = DefaultAuditConfig()
	}
	return &AuditMiddleware{auditService: auditService, config: config, logger: logger}
}

// Audit must run after authentication so the user is on the context.
func (m *AuditMiddleware) Audit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.shouldAudit(r) {
			next.ServeHTTP(w, r)
			return
		}

		var body []byte
		if r.Body != nil && isJSON(r) {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
		}

		rw := &responseCapture{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		if rw.statusCode < 200 || rw.statusCode >= 300 {
			return
		}

		entry := service.RequestEntry{
			EntityID:   entityID(r),
			StatusCode: rw.statusCode,
			Body:       body,
		}
		// the request context ends with the response
		ctx := context.WithoutCancel(r.Context())
		go func() {
			ctx, cancel := context.WithTimeout(ctx, m.config.Timeout)
			defer cancel()
			if err := m.auditService.Record(ctx, r, entry); err != nil {
				m.logger.Warn("failed to create audit log entry",
					zap.String("path", r.URL.Path),
					zap.String("method", r.Method),
					zap.Error(err))
			}
		}()
	})
}

func (m *AuditMiddleware) shouldAudit(r *http.Request) bool {
	if m.auditService == nil {
		return false
	}
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return false
	}
	for _, prefix := range m.config.SkipPaths {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return false
		}
	}
	return true
}

func isJSON(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

// entityID is the first route parameter naming a record, if any. SRF
// numbers arrive either escaped in one segment or split as base and sub.
func entityID(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return ""
	}
	if sub := rctx.URLParam("sub"); sub != "" {
		return rctx.URLParam("base") + "/" + sub
	}
	for _, key := range []string{"srf", "code", "model", "id"} {
		v := rctx.URLParam(key)
		if v == "" {
			continue
		}
		if unescaped, err := url.PathUnescape(v); err == nil {
			return unescaped
		}
		return v
	}
	return ""
}

// responseCapture wraps ResponseWriter to capture the status code
type responseCapture struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseCapture) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
