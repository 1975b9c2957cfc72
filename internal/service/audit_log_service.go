package service

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/motorserv/srf-api/internal/auth"
	"github.com/motorserv/srf-api/internal/domain"
	"github.com/motorserv/srf-api/internal/repository"
	"go.uber.org/zap"
)

// maxAuditBody caps the stored request body.
const maxAuditBody = 8 << 10

// sensitiveKeys are dropped from stored request bodies.
var sensitiveKeys = []string{"password", "secret", "token", "apiKey"}

// AuditLogService records successful mutating requests.
type AuditLogService struct {
	auditRepo *repository.AuditLogRepository
	logger    *zap.Logger
}

// NewAuditLogService creates a new audit log service
func NewAuditLogService(auditRepo *repository.AuditLogRepository, logger *zap.Logger) *AuditLogService {
	return &AuditLogService{auditRepo: auditRepo, logger: logger}
}

// RequestEntry describes one audited request.
type RequestEntry struct {
	EntityID   string
	StatusCode int
	Body       []byte
}

// Record stores an audit row for r. The caller identity is read from ctx.
func (s *AuditLogService) Record(ctx context.Context, r *http.Request, entry RequestEntry) error {
	log := &domain.AuditLog{
		Method:      r.Method,
		Path:        r.URL.Path,
		EntityID:    entry.EntityID,
		StatusCode:  entry.StatusCode,
		RequestID:   r.Header.Get("X-Request-ID"),
		IPAddress:   clientIP(r),
		Body:        redactBody(entry.Body),
		PerformedAt: time.Now().UTC(),
	}
	if user, ok := auth.FromContext(ctx); ok {
		log.Username = user.Username
	}

	if err := s.auditRepo.Create(ctx, log); err != nil {
		s.logger.Error("failed to create audit log",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		return err
	}
	return nil
}

// AuditLogQueryParams represents query parameters for listing audit logs
type AuditLogQueryParams struct {
	Username  string
	EntityID  string
	Method    string
	StartTime *time.Time
	EndTime   *time.Time
	Page      int
	PageSize  int
}

// List retrieves audit logs with filters. Admin only.
func (s *AuditLogService) List(ctx context.Context, params AuditLogQueryParams) ([]domain.AuditLog, int64, error) {
	user, ok := auth.FromContext(ctx)
	if !ok {
		return nil, 0, ErrUnauthorized
	}
	if !user.IsAdmin() {
		return nil, 0, ErrForbidden
	}
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 200 {
		params.PageSize = 50
	}

	filter := &repository.AuditLogFilter{
		Username:  params.Username,
		EntityID:  params.EntityID,
		Method:    strings.ToUpper(params.Method),
		StartTime: params.StartTime,
		EndTime:   params.EndTime,
	}
	return s.auditRepo.List(ctx, filter, params.Page, params.PageSize)
}

// CleanupOldLogs removes logs older than the retention period.
func (s *AuditLogService) CleanupOldLogs(ctx context.Context, retentionDays int) (int64, error) {
	before := time.Now().AddDate(0, 0, -retentionDays)
	count, err := s.auditRepo.DeleteOlderThan(ctx, before)
	if err != nil {
		s.logger.Error("failed to cleanup old audit logs",
			zap.Int("retention_days", retentionDays),
			zap.Error(err))
		return 0, err
	}
	if count > 0 {
		s.logger.Info("cleaned up old audit logs",
			zap.Int64("deleted_count", count),
			zap.Int("retention_days", retentionDays))
	}
	return count, nil
}

// redactBody drops sensitive keys from a JSON object body and truncates the
// result. Non-JSON bodies (uploads) are not stored.
func redactBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var parsed map[string]any
	if json.Unmarshal(body, &parsed) != nil {
		return ""
	}
	for _, k := range sensitiveKeys {
		delete(parsed, k)
	}
	out, err := json.Marshal(parsed)
	if err != nil {
		return ""
	}
	if len(out) > maxAuditBody {
		out = out[:maxAuditBody]
	}
	return string(out)
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
