package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/motorserv/srf-api/internal/domain"
	"github.com/motorserv/srf-api/internal/service"
	"go.uber.org/zap"
)

// RegistryHandler serves the complaint-number and CG SRF number registries.
type RegistryHandler struct {
	registryService *service.RegistryService
	maxUploadMB     int64
	logger          *zap.Logger
}

func NewRegistryHandler(registryService *service.RegistryService, maxUploadMB int64, logger *zap.Logger) *RegistryHandler {
	if maxUploadMB <= 0 {
		maxUploadMB = 10
	}
	return &RegistryHandler{registryService: registryService, maxUploadMB: maxUploadMB, logger: logger}
}

// ListComplaintNumbers godoc
// @Summary List registered complaint numbers
// @Tags Registry
// @Produce json
// @Success 200 {object} domain.ListResponse[domain.ComplaintNumber]
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /complaint-numbers [get]
func (h *RegistryHandler) ListComplaintNumbers(w http.ResponseWriter, r *http.Request) {
	numbers, err := h.registryService.ListComplaintNumbers(r.Context())
	if err != nil {
		respondError(w, r, h.logger, "failed to list complaint numbers", err)
		return
	}
	respondJSON(w, http.StatusOK, domain.NewListResponse(numbers))
}

// UploadComplaintNumbers godoc
// @Summary Import complaint numbers from CSV or XLSX
// @Description Header row required: complaint_number, status, remark. The whole file is rejected at the first invalid line.
// @Tags Registry
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV or XLSX file"
// @Success 200 {object} domain.ImportResult
// @Failure 400 {object} domain.APIError "Validation failed on line N"
// @Failure 413 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /complaint-numbers/upload [post]
func (h *RegistryHandler) UploadComplaintNumbers(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, "complaint numbers", h.registryService.ImportComplaintNumbers)
}

// ListCGSRFNumbers godoc
// @Summary List registered CG SRF numbers
// @Tags Registry
// @Produce json
// @Success 200 {object} domain.ListResponse[domain.CGSRFNumber]
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /cg-srf-numbers [get]
func (h *RegistryHandler) ListCGSRFNumbers(w http.ResponseWriter, r *http.Request) {
	numbers, err := h.registryService.ListCGSRFNumbers(r.Context())
	if err != nil {
		respondError(w, r, h.logger, "failed to list CG SRF numbers", err)
		return
	}
	respondJSON(w, http.StatusOK, domain.NewListResponse(numbers))
}

// UploadCGSRFNumbers godoc
// @Summary Import CG SRF numbers from CSV or XLSX
// @Description Header row required: cg_srf_number. Existing numbers are left untouched.
// @Tags Registry
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV or XLSX file"
// @Success 200 {object} domain.ImportResult
// @Failure 400 {object} domain.APIError "Validation failed on line N"
// @Failure 413 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /cg-srf-numbers/upload [post]
func (h *RegistryHandler) UploadCGSRFNumbers(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, "CG SRF numbers", h.registryService.ImportCGSRFNumbers)
}

type importFunc func(ctx context.Context, filename string, r io.Reader) (*domain.ImportResult, error)

func (h *RegistryHandler) upload(w http.ResponseWriter, r *http.Request, what string, importer importFunc) {
	limit := h.maxUploadMB * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		respondWithError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File too large: maximum size is %dMB", h.maxUploadMB))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid file upload: file field is required")
		return
	}
	defer file.Close()

	result, err := importer(r.Context(), header.Filename, file)
	if err != nil {
		respondError(w, r, h.logger, "failed to import "+what, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
