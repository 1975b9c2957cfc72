package handler

import (
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/motorserv/srf-api/internal/domain"
	"github.com/motorserv/srf-api/internal/service"
	"go.uber.org/zap"
)

const queryDateLayout = "2006-01-02"

// SRFHandler serves one SRF variant. The router mounts one instance per kind
// (/warranty and /out-of-warranty), so the prefix is resolved here once.
type SRFHandler struct {
	kind              domain.SRFKind
	srfService        *service.SRFService
	settlementService *service.SettlementService
	ledgerService     *service.LedgerService
	logger            *zap.Logger
}

// NewSRFHandler creates a handler bound to kind
func NewSRFHandler(
	kind domain.SRFKind,
	srfService *service.SRFService,
	settlementService *service.SettlementService,
	ledgerService *service.LedgerService,
	logger *zap.Logger,
) *SRFHandler {
	return &SRFHandler{
		kind:              kind,
		srfService:        srfService,
		settlementService: settlementService,
		ledgerService:     ledgerService,
		logger:            logger.With(zap.String("kind", kind.String())),
	}
}

// srfParam reads the identifier from either /{base}/{sub} or an escaped /{srf}.
func srfParam(r *http.Request) string {
	if sub := chi.URLParam(r, "sub"); sub != "" {
		return chi.URLParam(r, "base") + "/" + sub
	}
	raw := chi.URLParam(r, "srf")
	if unescaped, err := url.PathUnescape(raw); err == nil {
		return unescaped
	}
	return raw
}

// Create godoc
// @Summary Register an SRF unit
// @Description srfNumber "NEW/<sub>" allocates the next base number; otherwise a complete identifier of this variant is required
// @Tags SRF
// @Accept json
// @Produce json
// @Param request body domain.WarrantyCreateRequest true "Intake data (warranty or out-of-warranty shape)"
// @Success 201 {object} domain.Warranty
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError "Model, master or service center not found"
// @Failure 409 {object} domain.APIError "Identifier or cross reference already used"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /warranty [post]
// @Router /out-of-warranty [post]
func (h *SRFHandler) Create(w http.ResponseWriter, r *http.Request) {
	var (
		rec interface{}
		err error
	)
	switch h.kind {
	case domain.KindWarranty:
		var req domain.WarrantyCreateRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}
		rec, err = h.srfService.CreateWarranty(r.Context(), &req)
	default:
		var req domain.OutOfWarrantyCreateRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}
		rec, err = h.srfService.CreateOutOfWarranty(r.Context(), &req)
	}
	if err != nil {
		respondError(w, r, h.logger, "failed to create SRF record", err)
		return
	}
	respondJSON(w, http.StatusCreated, rec)
}

// Get godoc
// @Summary Get an SRF record
// @Description Accepts shorthand: "5/2" resolves to R00005/2, "5" to R00005/1
// @Tags SRF
// @Produce json
// @Param srf path string true "SRF number (escape the slash or use /{base}/{sub})"
// @Success 200 {object} domain.SRFView
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /warranty/{srf} [get]
// @Router /out-of-warranty/{srf} [get]
func (h *SRFHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.srfService.Get(r.Context(), h.kind, srfParam(r))
	if err != nil {
		respondError(w, r, h.logger, "failed to get SRF record", err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Update godoc
// @Summary Update an SRF record
// @Description Partial update; omitted fields are unchanged. Setting finalStatus=Y closes the record.
// @Tags SRF
// @Accept json
// @Produce json
// @Param srf path string true "SRF number"
// @Param request body domain.WarrantyUpdateRequest true "Fields to change"
// @Success 200 {object} domain.Warranty
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError "Field not permitted for role"
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Invalid transition or record locked"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /warranty/{srf} [put]
// @Router /out-of-warranty/{srf} [put]
func (h *SRFHandler) Update(w http.ResponseWriter, r *http.Request) {
	var (
		rec interface{}
		err error
	)
	id := srfParam(r)
	switch h.kind {
	case domain.KindWarranty:
		var req domain.WarrantyUpdateRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}
		rec, err = h.srfService.UpdateWarranty(r.Context(), id, &req)
	default:
		var req domain.OutOfWarrantyUpdateRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}
		rec, err = h.srfService.UpdateOutOfWarranty(r.Context(), id, &req)
	}
	if err != nil {
		respondError(w, r, h.logger, "failed to update SRF record", err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

// Family godoc
// @Summary Get every unit registered under one base number
// @Tags SRF
// @Produce json
// @Param base path string true "Base number, e.g. 42 or R00042"
// @Success 200 {object} domain.SRFFamily
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /warranty/family/{base} [get]
// @Router /out-of-warranty/family/{base} [get]
func (h *SRFHandler) Family(w http.ResponseWriter, r *http.Request) {
	family, err := h.srfService.Family(r.Context(), h.kind, chi.URLParam(r, "base"))
	if err != nil {
		respondError(w, r, h.logger, "failed to get SRF family", err)
		return
	}
	respondJSON(w, http.StatusOK, family)
}

// NextSRFNumber godoc
// @Summary Base number the next NEW request would receive
// @Tags SRF
// @Produce json
// @Success 200 {object} domain.NumberResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /warranty/next-srf-number [get]
// @Router /out-of-warranty/next-srf-number [get]
func (h *SRFHandler) NextSRFNumber(w http.ResponseWriter, r *http.Request) {
	number, err := h.srfService.NextSRFNumber(r.Context(), h.kind)
	if err != nil {
		respondError(w, r, h.logger, "failed to compute next SRF number", err)
		return
	}
	respondJSON(w, http.StatusOK, domain.NumberResponse{Number: number})
}

// LastSRFNumber godoc
// @Summary Highest base number in use (empty when none)
// @Tags SRF
// @Produce json
// @Success 200 {object} domain.NumberResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /warranty/last-srf-number [get]
// @Router /out-of-warranty/last-srf-number [get]
func (h *SRFHandler) LastSRFNumber(w http.ResponseWriter, r *http.Request) {
	number, err := h.srfService.LastSRFNumber(r.Context(), h.kind)
	if err != nil {
		respondError(w, r, h.logger, "failed to read last SRF number", err)
		return
	}
	respondJSON(w, http.StatusOK, domain.NumberResponse{Number: number})
}

// Pending godoc
// @Summary Records not yet closed
// @Tags Ledger
// @Produce json
// @Success 200 {object} domain.ListResponse[domain.LedgerRow]
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /warranty/pending [get]
// @Router /out-of-warranty/pending [get]
func (h *SRFHandler) Pending(w http.ResponseWriter, r *http.Request) {
	h.respondRows(w, r, "pending")(h.ledgerService.Pending(r.Context(), h.kind))
}

// NotSettled godoc
// @Summary Closed chargeable records without a settlement date
// @Tags Ledger
// @Produce json
// @Success 200 {object} domain.ListResponse[domain.LedgerRow]
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /warranty/not-settled [get]
// @Router /out-of-warranty/not-settled [get]
func (h *SRFHandler) NotSettled(w http.ResponseWriter, r *http.Request) {
	h.respondRows(w, r, "not-settled")(h.ledgerService.NotSettled(r.Context(), h.kind))
}

// FinalSettlementPending godoc
// @Summary Records with a proposed but unconfirmed settlement (admin)
// @Tags Ledger
// @Produce json
// @Success 200 {object} domain.ListResponse[domain.LedgerRow]
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /warranty/final-settlement [get]
// @Router /out-of-warranty/final-settlement [get]
func (h *SRFHandler) FinalSettlementPending(w http.ResponseWriter, r *http.Request) {
	h.respondRows(w, r, "final-settlement")(h.ledgerService.FinalSettlementPending(r.Context(), h.kind))
}

// Enquiry godoc
// @Summary Search records
// @Tags Ledger
// @Produce json
// @Param finalStatus query string false "Y or N"
// @Param finalSettled query string false "Y or N (chargeable records only)"
// @Param vendorSettled query string false "Y or N"
// @Param name query string false "Customer name contains"
// @Param division query string false "Division"
// @Param serialNumber query string false "Serial number"
// @Param head query string false "REPAIR or REPLACE"
// @Param delivered query string false "Y: delivery date present, N: absent"
// @Param received query string false "Y: receive date present, N: absent"
// @Param repaired query string false "Y: repair date present, N: absent"
// @Param from query string false "SRF date from (YYYY-MM-DD)"
// @Param to query string false "SRF date to (YYYY-MM-DD)"
// @Success 200 {object} domain.ListResponse[domain.LedgerRow]
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /warranty/enquiry [get]
// @Router /out-of-warranty/enquiry [get]
func (h *SRFHandler) Enquiry(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.EnquiryFilter{
		FinalStatus:   q.Get("finalStatus"),
		FinalSettled:  q.Get("finalSettled"),
		VendorSettled: q.Get("vendorSettled"),
		Name:          q.Get("name"),
		Division:      q.Get("division"),
		SerialNumber:  q.Get("serialNumber"),
		Head:          q.Get("head"),
		Delivered:     q.Get("delivered"),
		Received:      q.Get("received"),
		Repaired:      q.Get("repaired"),
	}
	for key, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		t, err := time.Parse(queryDateLayout, raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid '"+key+"' date, expected YYYY-MM-DD")
			return
		}
		*dst = &t
	}
	if err := validate.Struct(filter); err != nil {
		respondValidationError(w, err)
		return
	}

	h.respondRows(w, r, "enquiry")(h.ledgerService.Enquiry(r.Context(), h.kind, filter))
}

// DeliveredBy godoc
// @Summary Distinct delivered-by names
// @Tags Ledger
// @Produce json
// @Success 200 {object} domain.ListResponse[string]
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /warranty/delivered-by [get]
// @Router /out-of-warranty/delivered-by [get]
func (h *SRFHandler) DeliveredBy(w http.ResponseWriter, r *http.Request) {
	names, err := h.ledgerService.DeliveredBy(r.Context(), h.kind)
	if err != nil {
		respondError(w, r, h.logger, "failed to list delivered-by", err)
		return
	}
	respondJSON(w, http.StatusOK, domain.NewListResponse(names))
}

// ProposeSettlement godoc
// @Summary Propose settlement dates for closed chargeable records
// @Tags Settlement
// @Accept json
// @Produce json
// @Param request body domain.SettlementBatchRequest true "Batch"
// @Success 200 {object} domain.BatchResult
// @Failure 409 {object} domain.APIError "A guard failed; nothing was applied"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /warranty/settlement [put]
// @Router /out-of-warranty/settlement [put]
func (h *SRFHandler) ProposeSettlement(w http.ResponseWriter, r *http.Request) {
	var req domain.SettlementBatchRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	result, err := h.settlementService.Propose(r.Context(), h.kind, &req)
	if err != nil {
		respondError(w, r, h.logger, "settlement batch failed", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// FinalizeSettlement godoc
// @Summary Confirm proposed settlements (admin)
// @Tags Settlement
// @Accept json
// @Produce json
// @Param request body domain.FinalSettlementBatchRequest true "Batch"
// @Success 200 {object} domain.BatchResult
// @Failure 403 {object} domain.APIError
// @Failure 409 {object} domain.APIError "A guard failed; nothing was applied"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /warranty/final-settlement [put]
// @Router /out-of-warranty/final-settlement [put]
func (h *SRFHandler) FinalizeSettlement(w http.ResponseWriter, r *http.Request) {
	var req domain.FinalSettlementBatchRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	result, err := h.settlementService.Finalize(r.Context(), h.kind, &req)
	if err != nil {
		respondError(w, r, h.logger, "final settlement batch failed", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// respondRows writes a ledger listing or its error.
func (h *SRFHandler) respondRows(w http.ResponseWriter, r *http.Request, listing string) func([]domain.LedgerRow, error) {
	return func(rows []domain.LedgerRow, err error) {
		if err != nil {
			respondError(w, r, h.logger, "failed to list "+listing, err)
			return
		}
		respondJSON(w, http.StatusOK, domain.NewListResponse(rows))
	}
}
