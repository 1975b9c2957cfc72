package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/motorserv/srf-api/internal/domain"
	"github.com/motorserv/srf-api/internal/service"
	"go.uber.org/zap"
)

// AuditHandler handles audit log related HTTP requests
type AuditHandler struct {
	auditService *service.AuditLogService
	logger       *zap.Logger
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(auditService *service.AuditLogService, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
		logger:       logger,
	}
}

// AuditLogListResponse represents a paginated list of audit logs
type AuditLogListResponse struct {
	Data       []domain.AuditLog `json:"data"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	TotalPages int               `json:"totalPages"`
}

// List godoc
// @Summary List audit logs
// @Description Returns a paginated list of audited requests with optional filters (admin)
// @Tags Audit
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param pageSize query int false "Page size (default: 50, max: 200)"
// @Param username query string false "Filter by username"
// @Param entityId query string false "Filter by SRF number, code or model"
// @Param method query string false "Filter by HTTP method"
// @Param startTime query string false "Filter by start time (RFC3339)"
// @Param endTime query string false "Filter by end time (RFC3339)"
// @Success 200 {object} AuditLogListResponse
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /audit [get]
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := service.AuditLogQueryParams{
		Username: q.Get("username"),
		EntityID: q.Get("entityId"),
		Method:   q.Get("method"),
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "pageSize", 50),
	}
	if startStr := q.Get("startTime"); startStr != "" {
		if startTime, err := time.Parse(time.RFC3339, startStr); err == nil {
			params.StartTime = &startTime
		}
	}
	if endStr := q.Get("endTime"); endStr != "" {
		if endTime, err := time.Parse(time.RFC3339, endStr); err == nil {
			params.EndTime = &endTime
		}
	}

	logs, total, err := h.auditService.List(r.Context(), params)
	if err != nil {
		respondError(w, r, h.logger, "failed to list audit logs", err)
		return
	}

	// List clamps paging; mirror it for the response
	pageSize := params.PageSize
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	page := params.Page
	if page < 1 {
		page = 1
	}
	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}
	if logs == nil {
		logs = []domain.AuditLog{}
	}

	respondJSON(w, http.StatusOK, AuditLogListResponse{
		Data:       logs,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	})
}

func parseIntQuery(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return def
	}
	return v
}
