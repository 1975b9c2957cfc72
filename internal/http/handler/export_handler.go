package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/motorserv/srf-api/internal/domain"
	"github.com/motorserv/srf-api/internal/service"
	"go.uber.org/zap"
)

type ExportHandler struct {
	exportService *service.ExportService
	logger        *zap.Logger
}

func NewExportHandler(exportService *service.ExportService, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{exportService: exportService, logger: logger}
}

// Create godoc
// @Summary Write a ledger snapshot workbook to storage
// @Tags Exports
// @Produce json
// @Success 201 {object} domain.LedgerExport
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /exports/ledger [post]
func (h *ExportHandler) Create(w http.ResponseWriter, r *http.Request) {
	export, err := h.exportService.CreateLedgerSnapshot(r.Context(), "")
	if err != nil {
		respondError(w, r, h.logger, "failed to create ledger snapshot", err)
		return
	}
	respondJSON(w, http.StatusCreated, export)
}

// List godoc
// @Summary List ledger snapshots, newest first
// @Tags Exports
// @Produce json
// @Param limit query int false "Maximum rows (default 50)"
// @Success 200 {object} domain.ListResponse[domain.LedgerExport]
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /exports/ledger [get]
func (h *ExportHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 500 {
		limit = 50
	}
	exports, err := h.exportService.List(r.Context(), limit)
	if err != nil {
		respondError(w, r, h.logger, "failed to list ledger snapshots", err)
		return
	}
	respondJSON(w, http.StatusOK, domain.NewListResponse(exports))
}

// Download godoc
// @Summary Download a ledger snapshot workbook
// @Tags Exports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Export ID"
// @Success 200
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /exports/ledger/{id}/download [get]
func (h *ExportHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid export ID: must be a valid UUID")
		return
	}

	export, body, err := h.exportService.Open(r.Context(), id)
	if err != nil {
		respondError(w, r, h.logger, "failed to open ledger snapshot", err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Disposition", "attachment; filename=\""+export.Filename+"\"")
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if export.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(export.Size, 10))
	}
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn("ledger snapshot download interrupted",
			zap.String("export_id", id.String()),
			zap.Error(err))
	}
}
