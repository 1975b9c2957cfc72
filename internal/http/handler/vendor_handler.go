package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/motorserv/srf-api/internal/domain"
	"github.com/motorserv/srf-api/internal/service"
	"go.uber.org/zap"
)

// VendorHandler serves vendor sub-contract tracking across both variants.
type VendorHandler struct {
	vendorService *service.VendorService
	logger        *zap.Logger
}

// NewVendorHandler creates a new vendor handler
func NewVendorHandler(vendorService *service.VendorService, logger *zap.Logger) *VendorHandler {
	return &VendorHandler{vendorService: vendorService, logger: logger}
}

// NextChallanCode godoc
// @Summary Next vendor challan code
// @Tags Vendor
// @Produce json
// @Success 200 {object} domain.NumberResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /vendor/next-challan-code [get]
func (h *VendorHandler) NextChallanCode(w http.ResponseWriter, r *http.Request) {
	code, err := h.vendorService.NextChallanCode(r.Context())
	if err != nil {
		respondError(w, r, h.logger, "failed to compute next challan code", err)
		return
	}
	respondJSON(w, http.StatusOK, domain.NumberResponse{Number: code})
}

// LastChallanCode godoc
// @Summary Highest challan code in use (empty when none)
// @Tags Vendor
// @Produce json
// @Success 200 {object} domain.NumberResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /vendor/last-challan-code [get]
func (h *VendorHandler) LastChallanCode(w http.ResponseWriter, r *http.Request) {
	code, err := h.vendorService.LastChallanCode(r.Context())
	if err != nil {
		respondError(w, r, h.logger, "failed to read last challan code", err)
		return
	}
	respondJSON(w, http.StatusOK, domain.NumberResponse{Number: code})
}

// Challan godoc
// @Summary Units dispatched under one challan
// @Tags Vendor
// @Produce json
// @Param code path string true "Challan code, e.g. 12 or V00012"
// @Success 200 {object} domain.ChallanView
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /vendor/challan/{code} [get]
func (h *VendorHandler) Challan(w http.ResponseWriter, r *http.Request) {
	view, err := h.vendorService.Challan(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		respondError(w, r, h.logger, "failed to get challan", err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// ChallanCandidates godoc
// @Summary Units awaiting dispatch to a vendor
// @Tags Vendor
// @Produce json
// @Success 200 {object} domain.ListResponse[domain.LedgerRow]
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /vendor/challan-candidates [get]
func (h *VendorHandler) ChallanCandidates(w http.ResponseWriter, r *http.Request) {
	rows, err := h.vendorService.ChallanCandidates(r.Context())
	h.respondRows(w, r, "challan candidates", rows, err)
}

// NotSettled godoc
// @Summary Units awaiting a vendor settlement proposal
// @Tags Vendor
// @Produce json
// @Success 200 {object} domain.ListResponse[domain.LedgerRow]
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /vendor/not-settled [get]
func (h *VendorHandler) NotSettled(w http.ResponseWriter, r *http.Request) {
	rows, err := h.vendorService.NotSettled(r.Context())
	h.respondRows(w, r, "vendor not-settled", rows, err)
}

// FinalSettlementPending godoc
// @Summary Proposed but unconfirmed vendor settlements (admin)
// @Tags Vendor
// @Produce json
// @Success 200 {object} domain.ListResponse[domain.LedgerRow]
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /vendor/final-settlement [get]
func (h *VendorHandler) FinalSettlementPending(w http.ResponseWriter, r *http.Request) {
	rows, err := h.vendorService.FinalSettlementPending(r.Context())
	h.respondRows(w, r, "vendor final-settlement", rows, err)
}

// ReceivedBy godoc
// @Summary Distinct vendor contacts recorded on dispatch
// @Tags Vendor
// @Produce json
// @Success 200 {object} domain.ListResponse[string]
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /vendor/received-by [get]
func (h *VendorHandler) ReceivedBy(w http.ResponseWriter, r *http.Request) {
	names, err := h.vendorService.ReceivedBy(r.Context())
	if err != nil {
		respondError(w, r, h.logger, "failed to list received-by", err)
		return
	}
	respondJSON(w, http.StatusOK, domain.NewListResponse(names))
}

// Dispatch godoc
// @Summary Record units handed to a vendor
// @Tags Vendor
// @Accept json
// @Produce json
// @Param request body domain.VendorDispatchBatchRequest true "Batch"
// @Success 200 {object} domain.BatchResult
// @Failure 409 {object} domain.APIError "A guard failed; nothing was applied"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /vendor/dispatch [put]
func (h *VendorHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	var req domain.VendorDispatchBatchRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	result, err := h.vendorService.Dispatch(r.Context(), &req)
	h.respondBatch(w, r, "vendor dispatch", result, err)
}

// Return godoc
// @Summary Record units returned by a vendor with their costs
// @Tags Vendor
// @Accept json
// @Produce json
// @Param request body domain.VendorReturnBatchRequest true "Batch"
// @Success 200 {object} domain.BatchResult
// @Failure 409 {object} domain.APIError "A guard failed; nothing was applied"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /vendor/return [put]
func (h *VendorHandler) Return(w http.ResponseWriter, r *http.Request) {
	var req domain.VendorReturnBatchRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	result, err := h.vendorService.Return(r.Context(), &req)
	h.respondBatch(w, r, "vendor return", result, err)
}

// ProposeSettlement godoc
// @Summary Propose vendor settlement dates and bill numbers
// @Tags Vendor
// @Accept json
// @Produce json
// @Param request body domain.VendorSettlementBatchRequest true "Batch"
// @Success 200 {object} domain.BatchResult
// @Failure 409 {object} domain.APIError "A guard failed; nothing was applied"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /vendor/settlement [put]
func (h *VendorHandler) ProposeSettlement(w http.ResponseWriter, r *http.Request) {
	var req domain.VendorSettlementBatchRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	result, err := h.vendorService.ProposeSettlement(r.Context(), &req)
	h.respondBatch(w, r, "vendor settlement", result, err)
}

// FinalizeSettlement godoc
// @Summary Confirm proposed vendor settlements (admin)
// @Tags Vendor
// @Accept json
// @Produce json
// @Param request body domain.VendorFinalSettlementBatchRequest true "Batch"
// @Success 200 {object} domain.BatchResult
// @Failure 403 {object} domain.APIError
// @Failure 409 {object} domain.APIError "A guard failed; nothing was applied"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /vendor/final-settlement [put]
func (h *VendorHandler) FinalizeSettlement(w http.ResponseWriter, r *http.Request) {
	var req domain.VendorFinalSettlementBatchRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	result, err := h.vendorService.FinalizeSettlement(r.Context(), &req)
	h.respondBatch(w, r, "vendor final settlement", result, err)
}

// UpdateComplaintNumber godoc
// @Summary Attach a registered complaint number to a warranty record
// @Tags Vendor
// @Accept json
// @Produce json
// @Param request body domain.ComplaintNumberUpdateRequest true "Record and complaint number"
// @Success 200 {object} domain.Warranty
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /vendor/complaint-number [put]
func (h *VendorHandler) UpdateComplaintNumber(w http.ResponseWriter, r *http.Request) {
	var req domain.ComplaintNumberUpdateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	rec, err := h.vendorService.UpdateComplaintNumber(r.Context(), &req)
	if err != nil {
		respondError(w, r, h.logger, "failed to update complaint number", err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (h *VendorHandler) respondRows(w http.ResponseWriter, r *http.Request, listing string, rows []domain.LedgerRow, err error) {
	if err != nil {
		respondError(w, r, h.logger, "failed to list "+listing, err)
		return
	}
	respondJSON(w, http.StatusOK, domain.NewListResponse(rows))
}

func (h *VendorHandler) respondBatch(w http.ResponseWriter, r *http.Request, op string, result *domain.BatchResult, err error) {
	if err != nil {
		respondError(w, r, h.logger, op+" failed", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
